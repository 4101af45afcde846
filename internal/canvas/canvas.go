package canvas

import (
	"strconv"
	"sync"

	"github.com/msalah0e/h2canvas/internal/drag"
)

// DefaultHalfExtent is the default distance from an icon's anchor to its center.
const DefaultHalfExtent = 200

// Point is a location in canvas-local pixel space.
type Point struct {
	X float64
	Y float64
}

// Component is a named, typed icon placed on the canvas.
type Component struct {
	ID       int
	Name     string
	Type     string
	Position Point // top-left anchor
	Offset   drag.Offset
	Moved    bool
}

// Label is the visible text of the icon.
func (c Component) Label() string {
	return c.Type + ": " + c.Name
}

// Transform is the visual translation applied on top of Position.
func (c Component) Transform() string {
	return c.Offset.Transform()
}

// Attributes returns the data attributes used to look the icon up later.
// data-x/data-y only appear once the icon has been dragged.
func (c Component) Attributes() map[string]string {
	attrs := map[string]string{
		"data-name": c.Name,
		"data-type": c.Type,
	}
	if c.Moved {
		attrs["data-x"] = strconv.FormatFloat(c.Offset.X, 'f', -1, 64)
		attrs["data-y"] = strconv.FormatFloat(c.Offset.Y, 'f', -1, 64)
	}
	return attrs
}

// Canvas holds the icons of one editor session. Every Clear starts a new
// epoch; work issued in an older epoch must not touch the canvas.
type Canvas struct {
	mu         sync.Mutex
	halfExtent float64
	epoch      uint64
	nextID     int
	icons      []*Component
	selected   int
}

// New creates an empty canvas. Icons are centered on their drop point
// using halfExtent.
func New(halfExtent float64) *Canvas {
	if halfExtent < 0 {
		halfExtent = 0
	}
	return &Canvas{halfExtent: halfExtent}
}

// Epoch returns the current canvas epoch.
func (c *Canvas) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Materialize places a new icon centered on (x, y) in the current epoch.
func (c *Canvas) Materialize(name, componentType string, x, y float64) Component {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.place(name, componentType, x, y)
}

// MaterializeIn places the icon only if the canvas is still in epoch.
func (c *Canvas) MaterializeIn(epoch uint64, name, componentType string, x, y float64) (Component, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return Component{}, false
	}
	return c.place(name, componentType, x, y), true
}

func (c *Canvas) place(name, componentType string, x, y float64) Component {
	c.nextID++
	icon := &Component{
		ID:       c.nextID,
		Name:     name,
		Type:     componentType,
		Position: Point{X: x - c.halfExtent, Y: y - c.halfExtent},
	}
	c.icons = append(c.icons, icon)
	return *icon
}

// Clear discards every icon and the selection, and starts a new epoch.
func (c *Canvas) Clear() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.icons = nil
	c.selected = 0
	c.epoch++
	return c.epoch
}

// Len returns the number of icons on the canvas.
func (c *Canvas) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.icons)
}

// Icons returns a copy of the icons in placement order.
func (c *Canvas) Icons() []Component {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Component, 0, len(c.icons))
	for _, icon := range c.icons {
		out = append(out, *icon)
	}
	return out
}

// Lookup finds the most recently placed icon with the given name.
func (c *Canvas) Lookup(name string) (Component, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if icon := c.find(name); icon != nil {
		return *icon, true
	}
	return Component{}, false
}

func (c *Canvas) find(name string) *Component {
	for i := len(c.icons) - 1; i >= 0; i-- {
		if c.icons[i].Name == name {
			return c.icons[i]
		}
	}
	return nil
}

func (c *Canvas) byID(id int) *Component {
	for _, icon := range c.icons {
		if icon.ID == id {
			return icon
		}
	}
	return nil
}

// Select marks the named icon as selected.
func (c *Canvas) Select(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	icon := c.find(name)
	if icon == nil {
		return false
	}
	c.selected = icon.ID
	return true
}

// Selected returns the selected icon, if any.
func (c *Canvas) Selected() (Component, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == 0 {
		return Component{}, false
	}
	if icon := c.byID(c.selected); icon != nil {
		return *icon, true
	}
	return Component{}, false
}

// Target returns a drag target for the icon with the given ID. Once the
// icon is gone the target reads as unmoved and ignores writes.
func (c *Canvas) Target(id int) drag.Target {
	return &iconTarget{canvas: c, id: id}
}

type iconTarget struct {
	canvas *Canvas
	id     int
}

func (t *iconTarget) Offset() (drag.Offset, bool) {
	t.canvas.mu.Lock()
	defer t.canvas.mu.Unlock()
	icon := t.canvas.byID(t.id)
	if icon == nil {
		return drag.Offset{}, false
	}
	return icon.Offset, icon.Moved
}

func (t *iconTarget) Update(fn func(drag.Offset) drag.Offset) drag.Offset {
	t.canvas.mu.Lock()
	defer t.canvas.mu.Unlock()
	icon := t.canvas.byID(t.id)
	if icon == nil {
		return fn(drag.Offset{})
	}
	icon.Offset = fn(icon.Offset)
	icon.Moved = true
	return icon.Offset
}
