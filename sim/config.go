package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every validation failure in this package.
var ErrInvalidConfig = errors.New("invalid race configuration")

// TrackProfile describes the circuit. Immutable for a race.
type TrackProfile struct {
	ID                   string  `yaml:"id"`
	Sectors              int     `yaml:"sectors"`
	LapLengthKm          float64 `yaml:"lap_length_km"`
	TireWearFactor       float64 `yaml:"tire_wear_factor"`       // 1.0 ~= normal, higher means earlier pit windows
	OvertakingDifficulty float64 `yaml:"overtaking_difficulty"`  // informational, [0,1]
	SafetyCarProbability float64 `yaml:"safety_car_probability"` // informational, [0,1]
}

// SectorLength returns the length of one sector in km.
func (t TrackProfile) SectorLength() float64 {
	return t.LapLengthKm / float64(t.Sectors)
}

// Validate rejects track geometry the physics cannot advance on.
func (t TrackProfile) Validate() error {
	if t.Sectors < 1 {
		return fmt.Errorf("%w: track %q: sectors must be >= 1, got %d", ErrInvalidConfig, t.ID, t.Sectors)
	}
	if !(t.LapLengthKm > 0) {
		return fmt.Errorf("%w: track %q: lap_length_km must be > 0, got %v", ErrInvalidConfig, t.ID, t.LapLengthKm)
	}
	if t.TireWearFactor < 0 {
		return fmt.Errorf("%w: track %q: tire_wear_factor must be >= 0, got %v", ErrInvalidConfig, t.ID, t.TireWearFactor)
	}
	if err := checkUnit("overtaking_difficulty", t.OvertakingDifficulty); err != nil {
		return fmt.Errorf("track %q: %w", t.ID, err)
	}
	if err := checkUnit("safety_car_probability", t.SafetyCarProbability); err != nil {
		return fmt.Errorf("track %q: %w", t.ID, err)
	}
	return nil
}

// DriverProfile holds normalized driver traits, all in [0,1].
type DriverProfile struct {
	ID             string  `yaml:"id"`
	Aggression     float64 `yaml:"aggression"`
	TireManagement float64 `yaml:"tire_management"`
	Consistency    float64 `yaml:"consistency"`
	RiskTolerance  float64 `yaml:"risk_tolerance"`
}

// Validate checks every trait lies in [0,1].
func (d DriverProfile) Validate() error {
	traits := []struct {
		name string
		v    float64
	}{
		{"aggression", d.Aggression},
		{"tire_management", d.TireManagement},
		{"consistency", d.Consistency},
		{"risk_tolerance", d.RiskTolerance},
	}
	for _, tr := range traits {
		if err := checkUnit(tr.name, tr.v); err != nil {
			return fmt.Errorf("driver %q: %w", d.ID, err)
		}
	}
	return nil
}

// CarProfile holds the car performance scalars.
type CarProfile struct {
	ID          string  `yaml:"id"`
	EnginePower float64 `yaml:"engine_power"`
	Reliability float64 `yaml:"reliability"`
}

// Validate requires a positive engine power and a reliability in [0,1].
func (c CarProfile) Validate() error {
	if !(c.EnginePower > 0) {
		return fmt.Errorf("%w: car %q: engine_power must be > 0, got %v", ErrInvalidConfig, c.ID, c.EnginePower)
	}
	if err := checkUnit("reliability", c.Reliability); err != nil {
		return fmt.Errorf("car %q: %w", c.ID, err)
	}
	return nil
}

// Entry pairs a driver with the car they race. The index of an entry in
// RaceConfig.Entries is the driver identifier used throughout the engine.
type Entry struct {
	Driver DriverProfile
	Car    CarProfile
}

// RaceConfig is everything an engine needs to run a race.
type RaceConfig struct {
	Track     TrackProfile
	Entries   []Entry
	TotalLaps int
}

// Drivers returns the number of competitors.
func (c RaceConfig) Drivers() int { return len(c.Entries) }

// DriverProfiles returns the driver half of every entry, in driver order.
func (c RaceConfig) DriverProfiles() []DriverProfile {
	out := make([]DriverProfile, len(c.Entries))
	for i, e := range c.Entries {
		out[i] = e.Driver
	}
	return out
}

// Validate rejects malformed configuration at construction time.
func (c RaceConfig) Validate() error {
	if err := c.Track.Validate(); err != nil {
		return err
	}
	if len(c.Entries) == 0 {
		return fmt.Errorf("%w: at least one driver is required", ErrInvalidConfig)
	}
	if c.TotalLaps < 1 {
		return fmt.Errorf("%w: total laps must be >= 1, got %d", ErrInvalidConfig, c.TotalLaps)
	}
	for i, e := range c.Entries {
		if err := e.Driver.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		if err := e.Car.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

func checkUnit(name string, v float64) error {
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%w: %s must be in [0,1], got %v", ErrInvalidConfig, name, v)
	}
	return nil
}
