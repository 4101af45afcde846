package plant

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Component types offered on the palette.
const (
	TypeElectrolyzer = "Electrolyzer"
	TypeSolar        = "SolarPowerSource"
	TypeWind         = "WindPowerSource"
	TypeBattery      = "BatteryPowerSource"
	TypePowerSource  = "PowerSource"
	TypeStorage      = "HydrogenStorage"
)

// Types returns every known component type in palette order.
func Types() []string {
	return []string{TypeElectrolyzer, TypeSolar, TypeWind, TypeBattery, TypePowerSource, TypeStorage}
}

// IsKnown reports whether t is a palette type.
func IsKnown(t string) bool {
	for _, known := range Types() {
		if t == known {
			return true
		}
	}
	return false
}

// IsPowerSource reports whether t produces power.
func IsPowerSource(t string) bool {
	switch t {
	case TypeSolar, TypeWind, TypeBattery, TypePowerSource:
		return true
	}
	return false
}

// Defaults holds the ratings new components are built with.
type Defaults struct {
	ElectrolyzerCapacity   float64 // MW
	ElectrolyzerEfficiency float64 // fraction
	SolarMaxOutput         float64 // MW
	WindMaxOutput          float64 // MW
	BatteryMaxOutput       float64 // MW
	BatteryCapacity        float64 // MWh
	PowerSourceMaxOutput   float64 // MW
	StorageMaxCapacity     float64 // MWh
}

// DefaultRatings returns the reference plant's ratings.
func DefaultRatings() Defaults {
	return Defaults{
		ElectrolyzerCapacity:   10,
		ElectrolyzerEfficiency: 0.7,
		SolarMaxOutput:         10,
		WindMaxOutput:          8,
		BatteryMaxOutput:       5,
		BatteryCapacity:        50,
		PowerSourceMaxOutput:   10,
		StorageMaxCapacity:     100,
	}
}

// PowerSource yields power in MW for an hourly step.
type PowerSource interface {
	Name() string
	Power(step int, rng *rand.Rand) float64
}

// Solar follows a parabolic daily profile peaking at noon.
type Solar struct {
	name      string
	MaxOutput float64
}

func (s *Solar) Name() string { return s.name }

func (s *Solar) Power(step int, rng *rand.Rand) float64 {
	d := float64(step - 12)
	factor := math.Max(0, -0.05*d*d+1)
	return s.MaxOutput * factor * uniform(rng, 0.8, 1.2)
}

// Wind fluctuates between 30% and 100% of its rating.
type Wind struct {
	name      string
	MaxOutput float64
}

func (w *Wind) Name() string { return w.name }

func (w *Wind) Power(_ int, rng *rand.Rand) float64 {
	return uniform(rng, 0.3, 1.0) * w.MaxOutput
}

// Generic is an unspecified renewable source varying between 50% and 100%.
type Generic struct {
	name      string
	MaxOutput float64
}

func (g *Generic) Name() string { return g.name }

func (g *Generic) Power(_ int, rng *rand.Rand) float64 {
	return uniform(rng, 0.5, 1.0) * g.MaxOutput
}

// Battery discharges at up to MaxOutput until empty.
type Battery struct {
	name      string
	MaxOutput float64
	Capacity  float64
	Charge    float64
}

func (b *Battery) Name() string { return b.name }

func (b *Battery) Power(_ int, _ *rand.Rand) float64 {
	rate := math.Min(b.Charge, b.MaxOutput)
	b.Charge -= rate
	return rate
}

// Recharge adds energy, capped at capacity.
func (b *Battery) Recharge(amount float64) {
	b.Charge = math.Min(b.Capacity, b.Charge+amount)
}

// Storage accumulates hydrogen up to MaxCapacity MWh.
type Storage struct {
	name        string
	MaxCapacity float64
	level       float64
}

func (s *Storage) Name() string { return s.name }

// Store adds hydrogen; anything past capacity is lost.
func (s *Storage) Store(amount float64) {
	s.level = math.Min(s.level+amount, s.MaxCapacity)
}

// Level returns the stored hydrogen in MWh.
func (s *Storage) Level() float64 { return s.level }

// Electrolyzer turns power into hydrogen at a fixed efficiency.
type Electrolyzer struct {
	name       string
	Capacity   float64
	Efficiency float64

	Source  PowerSource
	Storage *Storage

	CurrentPower float64
	Production   float64
}

func (e *Electrolyzer) Name() string { return e.name }

// Produce clips input to capacity and returns the hydrogen produced.
func (e *Electrolyzer) Produce(input float64) float64 {
	e.CurrentPower = math.Min(input, e.Capacity)
	e.Production = e.CurrentPower * e.Efficiency
	return e.Production
}

// Update advances the electrolyzer one step. Without a source it idles.
func (e *Electrolyzer) Update(step int, rng *rand.Rand) {
	if e.Source == nil {
		return
	}
	produced := e.Produce(e.Source.Power(step, rng))
	if e.Storage != nil {
		e.Storage.Store(produced)
	}
}

// Build constructs a component of the given type.
func Build(name, componentType string, d Defaults) (any, error) {
	switch componentType {
	case TypeElectrolyzer:
		return NewElectrolyzer(name, d.ElectrolyzerCapacity, d.ElectrolyzerEfficiency), nil
	case TypeSolar:
		return &Solar{name: name, MaxOutput: d.SolarMaxOutput}, nil
	case TypeWind:
		return &Wind{name: name, MaxOutput: d.WindMaxOutput}, nil
	case TypeBattery:
		return NewBattery(name, d.BatteryMaxOutput, d.BatteryCapacity), nil
	case TypePowerSource:
		return &Generic{name: name, MaxOutput: d.PowerSourceMaxOutput}, nil
	case TypeStorage:
		return NewStorage(name, d.StorageMaxCapacity), nil
	}
	return nil, fmt.Errorf("unknown component type: %s", componentType)
}

// NewElectrolyzer creates an electrolyzer.
func NewElectrolyzer(name string, capacity, efficiency float64) *Electrolyzer {
	return &Electrolyzer{name: name, Capacity: capacity, Efficiency: efficiency}
}

// NewBattery creates a fully charged battery.
func NewBattery(name string, maxOutput, capacity float64) *Battery {
	return &Battery{name: name, MaxOutput: maxOutput, Capacity: capacity, Charge: capacity}
}

// NewStorage creates an empty hydrogen tank.
func NewStorage(name string, maxCapacity float64) *Storage {
	return &Storage{name: name, MaxCapacity: maxCapacity}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}
