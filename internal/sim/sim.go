package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/msalah0e/h2canvas/internal/graph"
	"github.com/msalah0e/h2canvas/internal/parallel"
	"github.com/msalah0e/h2canvas/internal/plant"
)

// ErrNoPoweredElectrolyzer is returned when nothing in the plant can run.
var ErrNoPoweredElectrolyzer = errors.New("no electrolyzer is connected to a power source")

// Options controls a simulation run.
type Options struct {
	Steps       int
	Seed        uint64
	Concurrency int
	Ratings     plant.Defaults
	Reporter    parallel.Reporter
}

// Trace is the hourly record of one electrolyzer.
type Trace struct {
	Electrolyzer string    `json:"electrolyzer"`
	PowerSource  string    `json:"power_source"`
	Storage      string    `json:"storage,omitempty"`
	PowerInput   []float64 `json:"power_input_mw"`
	Hydrogen     []float64 `json:"hydrogen_mw"`
	StorageLevel []float64 `json:"storage_level_mwh"`
}

// Report is the outcome of a simulation.
type Report struct {
	Steps  int     `json:"steps"`
	Traces []Trace `json:"traces"`
}

// Run builds the plant described by g and simulates it. Electrolyzers that
// share a power source or a tank form one group and advance in lockstep;
// independent groups run concurrently, each with its own random stream.
func Run(ctx context.Context, g *graph.Graph, opts Options) (Report, error) {
	if opts.Steps <= 0 {
		opts.Steps = 24
	}

	electrolyzers, err := assemble(g, opts.Ratings)
	if err != nil {
		return Report{}, err
	}
	if len(electrolyzers) == 0 {
		return Report{}, ErrNoPoweredElectrolyzer
	}

	groups := group(electrolyzers)
	tasks := make([]parallel.Task[[]Trace], 0, len(groups))
	for i, members := range groups {
		seed := opts.Seed
		stream := uint64(i)
		tasks = append(tasks, parallel.Task[[]Trace]{
			Name: groupName(members),
			Fn: func(ctx context.Context) ([]Trace, error) {
				return simulate(ctx, members, opts.Steps, rand.New(rand.NewPCG(seed, stream)))
			},
		})
	}

	report := Report{Steps: opts.Steps}
	for _, r := range parallel.Run(ctx, tasks, opts.Concurrency, opts.Reporter) {
		if r.Err != nil {
			return Report{}, fmt.Errorf("simulate %s: %w", r.Name, r.Err)
		}
		report.Traces = append(report.Traces, r.Value...)
	}
	sort.Slice(report.Traces, func(i, j int) bool {
		return report.Traces[i].Electrolyzer < report.Traces[j].Electrolyzer
	})
	return report, nil
}

// assemble instantiates every component and wires the electrolyzers that
// have a power source. Power sources and tanks shared between
// electrolyzers are the same instance.
func assemble(g *graph.Graph, ratings plant.Defaults) ([]*plant.Electrolyzer, error) {
	built := make(map[string]any, len(g.Components))
	for _, c := range g.Components {
		comp, err := plant.Build(c.Name, c.Type, ratings)
		if err != nil {
			return nil, err
		}
		built[c.Name] = comp
	}

	var out []*plant.Electrolyzer
	for _, c := range g.Components {
		if c.Type != plant.TypeElectrolyzer {
			continue
		}
		e := built[c.Name].(*plant.Electrolyzer)
		for _, peer := range g.Peers(c.Name) {
			switch p := built[peer.Name].(type) {
			case plant.PowerSource:
				e.Source = p
			case *plant.Storage:
				e.Storage = p
			}
		}
		if e.Source != nil {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

// group partitions electrolyzers by shared source or tank.
func group(electrolyzers []*plant.Electrolyzer) [][]*plant.Electrolyzer {
	parent := make([]int, len(electrolyzers))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	owner := make(map[string]int)
	claim := func(i int, resource string) {
		if j, ok := owner[resource]; ok {
			parent[find(i)] = find(j)
			return
		}
		owner[resource] = i
	}
	for i, e := range electrolyzers {
		claim(i, e.Source.Name())
		if e.Storage != nil {
			claim(i, e.Storage.Name())
		}
	}

	index := make(map[int]int)
	var groups [][]*plant.Electrolyzer
	for i, e := range electrolyzers {
		root := find(i)
		gi, ok := index[root]
		if !ok {
			gi = len(groups)
			index[root] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], e)
	}
	return groups
}

func groupName(members []*plant.Electrolyzer) string {
	names := make([]string, 0, len(members))
	for _, e := range members {
		names = append(names, e.Name())
	}
	return strings.Join(names, "+")
}

func simulate(ctx context.Context, members []*plant.Electrolyzer, steps int, rng *rand.Rand) ([]Trace, error) {
	traces := make([]Trace, len(members))
	for i, e := range members {
		traces[i] = Trace{
			Electrolyzer: e.Name(),
			PowerSource:  e.Source.Name(),
			PowerInput:   make([]float64, 0, steps),
			Hydrogen:     make([]float64, 0, steps),
			StorageLevel: make([]float64, 0, steps),
		}
		if e.Storage != nil {
			traces[i].Storage = e.Storage.Name()
		}
	}

	for step := 0; step < steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, e := range members {
			e.Update(step, rng)
			level := 0.0
			if e.Storage != nil {
				level = e.Storage.Level()
			}
			traces[i].PowerInput = append(traces[i].PowerInput, e.CurrentPower)
			traces[i].Hydrogen = append(traces[i].Hydrogen, e.Production)
			traces[i].StorageLevel = append(traces[i].StorageLevel, level)
		}
	}
	return traces, nil
}

// Totals sums a trace's hydrogen production and reports the final tank level.
func (t Trace) Totals() (hydrogen, finalLevel float64) {
	for _, h := range t.Hydrogen {
		hydrogen += h
	}
	if n := len(t.StorageLevel); n > 0 {
		finalLevel = t.StorageLevel[n-1]
	}
	return hydrogen, finalLevel
}
