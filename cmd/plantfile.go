package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/msalah0e/h2canvas/internal/graph"
	"github.com/msalah0e/h2canvas/internal/plant"
)

// PlantFile describes a plant layout on disk.
type PlantFile struct {
	Name        string           `toml:"name"`
	Components  []PlantComponent `toml:"components"`
	Connections []PlantLink      `toml:"connections"`
}

// PlantComponent is one [[components]] entry.
type PlantComponent struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// PlantLink is one [[connections]] entry.
type PlantLink struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
}

const samplePlant = `name = "reference"

[[components]]
name = "E1"
type = "Electrolyzer"

[[components]]
name = "Sun"
type = "SolarPowerSource"

[[components]]
name = "Tank"
type = "HydrogenStorage"

[[connections]]
source = "Sun"
target = "E1"

[[connections]]
source = "E1"
target = "Tank"
`

func loadPlantFile(path string) (*PlantFile, error) {
	var pf PlantFile
	if _, err := toml.DecodeFile(path, &pf); err != nil {
		return nil, err
	}
	if len(pf.Components) == 0 {
		return nil, fmt.Errorf("%s: no components", path)
	}
	return &pf, nil
}

// Graph builds the plant graph, applying the same rules as the service.
func (pf *PlantFile) Graph() (*graph.Graph, error) {
	g := graph.New()
	for _, c := range pf.Components {
		if err := g.AddComponent(c.Name, c.Type); err != nil {
			return nil, fmt.Errorf("component %q: %w", c.Name, err)
		}
	}
	for _, l := range pf.Connections {
		if _, err := g.Connect(l.Source, l.Target); err != nil {
			return nil, fmt.Errorf("connection %s -> %s: %w", l.Source, l.Target, err)
		}
	}
	return g, nil
}

// referencePlant is n electrolyzers, each with its own source of the given
// type and, optionally, its own tank.
func referencePlant(sourceType string, n int, withStorage bool) (*PlantFile, error) {
	if !plant.IsPowerSource(sourceType) {
		return nil, fmt.Errorf("not a power source type: %s", sourceType)
	}
	if n < 1 {
		n = 1
	}
	pf := &PlantFile{Name: "reference"}
	for i := 1; i <= n; i++ {
		e := fmt.Sprintf("E%d", i)
		src := fmt.Sprintf("S%d", i)
		pf.Components = append(pf.Components,
			PlantComponent{Name: e, Type: plant.TypeElectrolyzer},
			PlantComponent{Name: src, Type: sourceType},
		)
		pf.Connections = append(pf.Connections, PlantLink{Source: src, Target: e})
		if withStorage {
			tank := fmt.Sprintf("T%d", i)
			pf.Components = append(pf.Components, PlantComponent{Name: tank, Type: plant.TypeStorage})
			pf.Connections = append(pf.Connections, PlantLink{Source: e, Target: tank})
		}
	}
	return pf, nil
}

func writeSamplePlant(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	return os.WriteFile(path, []byte(samplePlant), 0o644)
}
