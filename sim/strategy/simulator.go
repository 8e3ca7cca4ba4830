// Package strategy runs offline what-if races to choose pit laps before the
// live race starts.
package strategy

import (
	"errors"
	"fmt"
	"math"

	"github.com/racesim/racesim/sim"
)

// ErrRaceStalled is returned when a simulated race exceeds its tick limit.
var ErrRaceStalled = errors.New("simulated race did not finish")

// Simulator replays a race without dwell time: a pit stop is charged as an
// instantaneous time cost. Each Simulator owns its driver states and must not
// be shared between goroutines.
type Simulator struct {
	cfg       sim.RaceConfig
	physics   sim.Physics
	states    []sim.DriverState
	tickLimit int64
}

// SimulatorOption configures a Simulator.
type SimulatorOption func(s *Simulator)

// WithTickLimit caps the ticks a single Run may take. Zero derives the limit
// from the slowest possible lap of the target driver.
func WithTickLimit(ticks int64) SimulatorOption {
	return func(s *Simulator) { s.tickLimit = ticks }
}

// NewSimulator validates cfg and allocates the driver states.
func NewSimulator(cfg sim.RaceConfig, opts ...SimulatorOption) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		cfg:     cfg,
		physics: sim.NewPhysics(cfg.Track),
		states:  make([]sim.DriverState, cfg.Drivers()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run simulates a race in which target pits exactly once on pitLap and every
// other driver pits on tire wear. It returns the target's finish time in
// simulated seconds.
func (s *Simulator) Run(target, pitLap int) (float64, error) {
	if target < 0 || target >= len(s.states) {
		return 0, fmt.Errorf("%w: driver %d out of range [0,%d)", sim.ErrInvalidConfig, target, len(s.states))
	}
	for i := range s.states {
		s.states[i] = sim.NewDriverState()
	}
	limit := s.limitFor(target)

	var now int64
	var ticks int64
	for s.states[target].Lap < s.cfg.TotalLaps {
		if ticks >= limit {
			return 0, fmt.Errorf("%w: driver %d pitting on lap %d still on lap %d after %d ticks",
				ErrRaceStalled, target, pitLap, s.states[target].Lap, ticks)
		}
		now += s.physics.Tick()
		ticks++
		for i := range s.states {
			policy := sim.ReactivePit()
			if i == target {
				policy = sim.ScheduledPit(pitLap)
			}
			s.physics.Step(i, s.cfg.Entries[i], &s.states[i], policy, now, instantPits{})
		}
	}
	return s.states[target].Elapsed, nil
}

// limitFor allows twice the ticks the target needs at fully worn tires.
func (s *Simulator) limitFor(target int) int64 {
	if s.tickLimit > 0 {
		return s.tickLimit
	}
	e := s.cfg.Entries[target]
	slowest := s.physics.Speed(e.Driver, e.Car, 1)
	perTick := slowest * s.physics.TickSeconds() / 3600 * sim.SpeedMultiplier
	need := float64(s.cfg.TotalLaps) * s.cfg.Track.LapLengthKm / perTick
	return 2*int64(math.Ceil(need)) + int64(s.cfg.TotalLaps) + 1
}

// instantPits charges the stop to the elapsed time and fits new tires on the
// same tick. The pit tick itself does not move the car or advance its time.
type instantPits struct{}

func (instantPits) Enter(_ int, car sim.CarProfile, st *sim.DriverState, _ int64) bool {
	st.Elapsed += sim.PitStopSeconds(car)
	st.TireWear = 0
	return false
}

func (instantPits) Exit(int, *sim.DriverState, int64) bool { return true }

func (instantPits) Moved(st *sim.DriverState, tickSeconds float64) {
	st.Elapsed += tickSeconds
}
