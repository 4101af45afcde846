package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/msalah0e/h2canvas/internal/graph"
	"github.com/msalah0e/h2canvas/internal/plant"
)

func build(t *testing.T, components map[string]string, links [][2]string) *graph.Graph {
	t.Helper()
	g := graph.New()
	for name, typ := range components {
		if err := g.AddComponent(name, typ); err != nil {
			t.Fatalf("AddComponent(%s): %v", name, err)
		}
	}
	for _, l := range links {
		if _, err := g.Connect(l[0], l[1]); err != nil {
			t.Fatalf("Connect(%s, %s): %v", l[0], l[1], err)
		}
	}
	return g
}

func opts() Options {
	return Options{Steps: 24, Seed: 7, Concurrency: 2, Ratings: plant.DefaultRatings()}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRunBatteryPlant(t *testing.T) {
	g := build(t, map[string]string{
		"E1":   plant.TypeElectrolyzer,
		"Bat":  plant.TypeBattery,
		"Tank": plant.TypeStorage,
	}, [][2]string{{"Bat", "E1"}, {"E1", "Tank"}})

	report, err := Run(context.Background(), g, opts())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Steps != 24 || len(report.Traces) != 1 {
		t.Fatalf("unexpected report shape: %+v", report)
	}

	tr := report.Traces[0]
	if tr.Electrolyzer != "E1" || tr.PowerSource != "Bat" || tr.Storage != "Tank" {
		t.Errorf("unexpected wiring %+v", tr)
	}
	if len(tr.PowerInput) != 24 {
		t.Fatalf("expected 24 samples, got %d", len(tr.PowerInput))
	}
	// 50 MWh battery at 5 MW lasts ten hours.
	if tr.PowerInput[9] != 5 || tr.PowerInput[10] != 0 {
		t.Errorf("battery should run dry after ten hours, got %v", tr.PowerInput[8:12])
	}
	hydrogen, level := tr.Totals()
	if !near(hydrogen, 35) || !near(level, 35) {
		t.Errorf("expected 35 MW hydrogen and 35 MWh stored, got %v and %v", hydrogen, level)
	}
}

func TestRunWithoutStorage(t *testing.T) {
	g := build(t, map[string]string{
		"E1":  plant.TypeElectrolyzer,
		"Bat": plant.TypeBattery,
	}, [][2]string{{"E1", "Bat"}})

	report, err := Run(context.Background(), g, opts())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, lvl := range report.Traces[0].StorageLevel {
		if lvl != 0 {
			t.Fatal("storage level should stay 0 without a tank")
		}
	}
}

func TestRunSharedBattery(t *testing.T) {
	g := build(t, map[string]string{
		"E1":  plant.TypeElectrolyzer,
		"E2":  plant.TypeElectrolyzer,
		"Bat": plant.TypeBattery,
	}, [][2]string{{"Bat", "E1"}, {"Bat", "E2"}})

	report, err := Run(context.Background(), g, opts())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Traces) != 2 {
		t.Fatalf("expected 2 traces, got %d", len(report.Traces))
	}
	h1, _ := report.Traces[0].Totals()
	h2, _ := report.Traces[1].Totals()
	// Both draw from the same 50 MWh battery.
	if !near(h1+h2, 35) {
		t.Errorf("shared battery should yield 35 MW total, got %v", h1+h2)
	}
}

func TestRunNoPoweredElectrolyzer(t *testing.T) {
	g := build(t, map[string]string{
		"E1":   plant.TypeElectrolyzer,
		"Tank": plant.TypeStorage,
	}, [][2]string{{"E1", "Tank"}})

	_, err := Run(context.Background(), g, opts())
	if !errors.Is(err, ErrNoPoweredElectrolyzer) {
		t.Fatalf("expected ErrNoPoweredElectrolyzer, got %v", err)
	}
}

func TestRunDeterministic(t *testing.T) {
	components := map[string]string{
		"E1":   plant.TypeElectrolyzer,
		"E2":   plant.TypeElectrolyzer,
		"Sun":  plant.TypeSolar,
		"Wind": plant.TypeWind,
		"Tank": plant.TypeStorage,
	}
	links := [][2]string{{"Sun", "E1"}, {"Wind", "E2"}, {"E1", "Tank"}}

	a, err := Run(context.Background(), build(t, components, links), opts())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	b, _ := Run(context.Background(), build(t, components, links), opts())

	for i := range a.Traces {
		for s := range a.Traces[i].Hydrogen {
			if a.Traces[i].Hydrogen[s] != b.Traces[i].Hydrogen[s] {
				t.Fatalf("same seed should give the same result (trace %d step %d)", i, s)
			}
		}
	}
}

func TestRunDefaultSteps(t *testing.T) {
	g := build(t, map[string]string{
		"E1":  plant.TypeElectrolyzer,
		"Gen": plant.TypePowerSource,
	}, [][2]string{{"Gen", "E1"}})

	o := opts()
	o.Steps = 0
	report, err := Run(context.Background(), g, o)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Steps != 24 {
		t.Errorf("expected default 24 steps, got %d", report.Steps)
	}
}

func TestRunCancelled(t *testing.T) {
	g := build(t, map[string]string{
		"E1":  plant.TypeElectrolyzer,
		"Bat": plant.TypeBattery,
	}, [][2]string{{"Bat", "E1"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, g, opts()); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestGroupIndependent(t *testing.T) {
	a := plant.NewElectrolyzer("A", 10, 0.7)
	a.Source = plant.NewBattery("b1", 5, 50)
	b := plant.NewElectrolyzer("B", 10, 0.7)
	b.Source = plant.NewBattery("b2", 5, 50)
	tank := plant.NewStorage("tank", 100)
	c := plant.NewElectrolyzer("C", 10, 0.7)
	c.Source = plant.NewBattery("b3", 5, 50)
	b.Storage, c.Storage = tank, tank

	groups := group([]*plant.Electrolyzer{a, b, c})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if len(groups[0]) != 1 || len(groups[1]) != 2 {
		t.Errorf("unexpected grouping sizes %d/%d", len(groups[0]), len(groups[1]))
	}
}
