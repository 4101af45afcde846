package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/msalah0e/h2canvas/internal/canvas"
	"github.com/msalah0e/h2canvas/internal/drag"
	"github.com/msalah0e/h2canvas/internal/plant"
	"github.com/msalah0e/h2canvas/internal/remote"
	"github.com/msalah0e/h2canvas/internal/sim"
)

var (
	ErrNotReady       = errors.New("editor is not ready")
	ErrAlreadyStarted = errors.New("editor already started")
	ErrNoDrag         = errors.New("no drag in progress")
	ErrUnknownTarget  = errors.New("unknown drag target")
)

// Remote is the plant service as seen by the editor.
type Remote interface {
	AddComponent(ctx context.Context, componentType, name string) (remote.AddOutcome, error)
	ConnectComponents(ctx context.Context, source, target string) (remote.ConnectOutcome, error)
	Simulate(ctx context.Context) (remote.SimulateOutcome, error)
	Reset(ctx context.Context) (remote.ResetOutcome, error)
}

// Surface is the user-facing side of the editor: blocking dialogs and a
// page reload.
type Surface interface {
	// Prompt asks for a line of input; ok is false when dismissed.
	Prompt(message string) (answer string, ok bool)
	Alert(message string)
	Reload()
}

// Options configures a Controller.
type Options struct {
	HalfExtent    float64
	PromptConnect bool
	Inertia       drag.Inertia
	Types         []string
	Logger        *slog.Logger
}

// DefaultOptions prompts for a connection after every placed component.
func DefaultOptions() Options {
	return Options{
		HalfExtent:    canvas.DefaultHalfExtent,
		PromptConnect: true,
		Inertia:       drag.DefaultInertia(),
		Types:         plant.Types(),
	}
}

// Controller sequences the editor lifecycle and owns the canvas.
type Controller struct {
	remote  Remote
	surface Surface
	opts    Options
	log     *slog.Logger

	canvas  *canvas.Canvas
	palette *canvas.Palette

	seq atomic.Uint64

	mu       sync.Mutex
	started  bool
	base     State
	inflight map[uint64]State
	dragging drag.Target
	report   *sim.Report
}

// New creates a controller. Call Start before anything else.
func New(r Remote, s Surface, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Types == nil {
		opts.Types = plant.Types()
	}
	return &Controller{
		remote:   r,
		surface:  s,
		opts:     opts,
		log:      logger,
		canvas:   canvas.New(opts.HalfExtent),
		palette:  canvas.NewPalette(opts.Types),
		base:     Resetting,
		inflight: make(map[uint64]State),
	}
}

// Canvas returns the controller's canvas.
func (c *Controller) Canvas() *canvas.Canvas { return c.canvas }

// Palette returns the controller's palette.
func (c *Controller) Palette() *canvas.Palette { return c.palette }

// LastReport returns the results of the last completed simulation.
func (c *Controller) LastReport() *sim.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// State reports the current lifecycle phase. With several requests in
// flight the most recently issued one wins.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.base != Idle {
		return c.base
	}
	var latest uint64
	state := Idle
	for seq, s := range c.inflight {
		if seq > latest {
			latest, state = seq, s
		}
	}
	if latest > 0 {
		return state
	}
	if c.dragging != nil {
		return Dragging
	}
	return Idle
}

// Start resets the service and the canvas. It runs once per page
// lifecycle and must complete before any other operation is accepted.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.base = Resetting
	c.mu.Unlock()

	c.reset(ctx)

	c.mu.Lock()
	c.base = Idle
	c.mu.Unlock()
	return nil
}

func (c *Controller) ready() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.base != Idle {
		return fmt.Errorf("%w: %s", ErrNotReady, c.base)
	}
	return nil
}

func (c *Controller) issue(state State) ticket {
	t := ticket{seq: c.seq.Add(1), epoch: c.canvas.Epoch(), state: state}
	c.mu.Lock()
	c.inflight[t.seq] = state
	c.mu.Unlock()
	return t
}

func (c *Controller) finish(t ticket) {
	c.mu.Lock()
	delete(c.inflight, t.seq)
	c.mu.Unlock()
}

func (c *Controller) stale(t ticket) bool {
	return t.epoch != c.canvas.Epoch()
}

// Drop handles a palette icon released over the canvas at point.
// Cancelled prompts, rejections and transport failures all end silently.
func (c *Controller) Drop(ctx context.Context, componentType string, at canvas.Point) error {
	if err := c.ready(); err != nil {
		return err
	}

	name, ok := c.surface.Prompt(fmt.Sprintf("Enter name for the %s:", componentType))
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		c.log.Debug("drop cancelled", "type", componentType)
		return nil
	}

	t := c.issue(AwaitingAddConfirmation)
	out, err := c.remote.AddComponent(ctx, componentType, name)
	c.finish(t)
	if err != nil {
		c.log.Error("add component failed", "seq", t.seq, "type", componentType, "name", name, "error", err)
		return nil
	}
	if c.stale(t) {
		c.log.Warn("discarding stale add", "seq", t.seq, "name", name, "epoch", t.epoch)
		return nil
	}

	c.surface.Alert(out.Status)
	if !out.Accepted {
		return nil
	}

	icon, ok := c.canvas.MaterializeIn(t.epoch, name, componentType, at.X, at.Y)
	if !ok {
		c.log.Warn("discarding stale add", "seq", t.seq, "name", name, "epoch", t.epoch)
		return nil
	}
	c.log.Info("component placed", "seq", t.seq, "name", name, "type", componentType)

	if c.opts.PromptConnect {
		c.promptConnect(ctx, icon)
	}
	return nil
}

func (c *Controller) promptConnect(ctx context.Context, icon canvas.Component) {
	target, ok := c.surface.Prompt("Enter the name of the component you want to connect to:")
	target = strings.TrimSpace(target)
	if !ok || target == "" {
		return
	}
	c.connect(ctx, icon.Name, target)
}

// Connect links two components by name. No local existence check is made.
func (c *Controller) Connect(ctx context.Context, source, target string) error {
	if err := c.ready(); err != nil {
		return err
	}
	c.connect(ctx, source, target)
	return nil
}

func (c *Controller) connect(ctx context.Context, source, target string) {
	t := c.issue(AwaitingConnectConfirmation)
	out, err := c.remote.ConnectComponents(ctx, source, target)
	c.finish(t)
	if err != nil {
		c.log.Error("connect failed", "seq", t.seq, "source", source, "target", target, "error", err)
		return
	}
	if c.stale(t) {
		c.log.Warn("discarding stale connect", "seq", t.seq, "source", source, "target", target)
		return
	}

	if !out.Connected {
		c.surface.Alert("Error: " + out.Message)
		return
	}
	src, dst := out.Source, out.Target
	if src == "" {
		src = source
	}
	if dst == "" {
		dst = target
	}
	c.surface.Alert(fmt.Sprintf("%s connected to %s", src, dst))
}

// Simulate runs the remote simulation. On completion the service and the
// canvas are reset, then the surface reloads and the controller waits
// for a new Start.
func (c *Controller) Simulate(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}

	t := c.issue(Simulating)
	out, err := c.remote.Simulate(ctx)
	c.finish(t)
	if err != nil {
		c.log.Error("simulate failed", "seq", t.seq, "error", err)
		return nil
	}

	c.surface.Alert(out.Status)
	if !out.Complete {
		return nil
	}

	c.mu.Lock()
	c.report = out.Results
	c.mu.Unlock()

	c.reset(ctx)

	c.mu.Lock()
	c.base = Reloading
	c.started = false
	c.dragging = nil
	c.mu.Unlock()

	c.surface.Reload()
	return nil
}

// Reset clears the service, then the canvas.
func (c *Controller) Reset(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	c.reset(ctx)
	return nil
}

func (c *Controller) reset(ctx context.Context) {
	t := c.issue(Resetting)
	out, err := c.remote.Reset(ctx)
	c.finish(t)
	if err != nil {
		c.log.Error("reset failed", "seq", t.seq, "error", err)
		return
	}
	epoch := c.canvas.Clear()
	c.log.Info("canvas reset", "seq", t.seq, "status", out.Status, "epoch", epoch)
}

// BeginDrag starts dragging target. Drags are allowed while requests are
// in flight.
func (c *Controller) BeginDrag(target drag.Target) error {
	if err := c.ready(); err != nil {
		return err
	}
	c.mu.Lock()
	c.dragging = target
	c.mu.Unlock()
	return nil
}

// DragIcon starts dragging the named icon.
func (c *Controller) DragIcon(name string) error {
	icon, ok := c.canvas.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, name)
	}
	return c.BeginDrag(c.canvas.Target(icon.ID))
}

// DragPalette starts dragging the palette entry for a component type.
func (c *Controller) DragPalette(componentType string) error {
	entry, ok := c.palette.Entry(componentType)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, componentType)
	}
	return c.BeginDrag(entry)
}

// DragMove applies one move frame to the dragged target.
func (c *Controller) DragMove(dx, dy float64) (drag.Offset, error) {
	c.mu.Lock()
	target := c.dragging
	c.mu.Unlock()
	if target == nil {
		return drag.Offset{}, ErrNoDrag
	}
	return drag.Move(target, dx, dy), nil
}

// EndDrag releases the dragged target with velocity (vx, vy) px/s and
// lets it glide to rest.
func (c *Controller) EndDrag(vx, vy float64) (drag.Offset, error) {
	c.mu.Lock()
	target := c.dragging
	c.dragging = nil
	c.mu.Unlock()
	if target == nil {
		return drag.Offset{}, ErrNoDrag
	}
	return c.opts.Inertia.Glide(target, vx, vy), nil
}
