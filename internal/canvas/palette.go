package canvas

import (
	"sync"

	"github.com/msalah0e/h2canvas/internal/drag"
)

// PaletteEntry is a draggable palette icon for one component type.
type PaletteEntry struct {
	Type string

	mu     sync.Mutex
	offset drag.Offset
	moved  bool
}

// Offset returns the entry's drag offset and whether it has been dragged.
func (e *PaletteEntry) Offset() (drag.Offset, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offset, e.moved
}

// Update applies fn to the entry's drag offset under its lock.
func (e *PaletteEntry) Update(fn func(drag.Offset) drag.Offset) drag.Offset {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.offset = fn(e.offset)
	e.moved = true
	return e.offset
}

// Palette is the fixed set of component types that can be dropped.
type Palette struct {
	entries []*PaletteEntry
}

// NewPalette builds a palette with one entry per type, in order.
func NewPalette(types []string) *Palette {
	p := &Palette{}
	for _, t := range types {
		p.entries = append(p.entries, &PaletteEntry{Type: t})
	}
	return p
}

// Types lists the palette's component types.
func (p *Palette) Types() []string {
	out := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e.Type)
	}
	return out
}

// Entry returns the palette entry for a type.
func (p *Palette) Entry(componentType string) (*PaletteEntry, bool) {
	for _, e := range p.entries {
		if e.Type == componentType {
			return e, true
		}
	}
	return nil, false
}
