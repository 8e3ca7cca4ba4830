// Package live runs the race that is streamed to the presentation layer.
package live

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/racesim/racesim/sim"
	"github.com/racesim/racesim/sim/trace"
)

// PenaltyGate is the engine's view of the penalty ledger. The ledger is
// written concurrently by race control; the engine only reads it at pit entry
// and exit, so a penalty issued now affects the next stop evaluated.
type PenaltyGate interface {
	MarkServing(driver int, now int64) (int64, bool)
	IsComplete(driver int, now int64) bool
}

// Engine advances every driver once per tick and produces telemetry frames.
// Not safe for concurrent use; it is owned by the producer goroutine.
type Engine struct {
	cfg      sim.RaceConfig
	physics  sim.Physics
	states   []sim.DriverState
	schedule map[int]int
	pits     *dwellPits
	clock    int64
	ticks    int64
	trace    *trace.RaceTrace
	log      *logrus.Entry
}

// Option configures an Engine.
type Option func(e *Engine)

// WithPitSchedule forces each listed driver to pit exactly once on the given
// lap. Unlisted drivers pit reactively on tire wear. The map is copied.
func WithPitSchedule(schedule map[int]int) Option {
	return func(e *Engine) {
		for driver, lap := range schedule {
			e.schedule[driver] = lap
		}
	}
}

// WithTrace records pit stops into rt.
func WithTrace(rt *trace.RaceTrace) Option {
	return func(e *Engine) { e.trace = rt }
}

// WithLogger sets the log entry used for pit stops.
// A nil log keeps the standard logger.
func WithLogger(log *logrus.Entry) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// NewEngine validates cfg and puts every driver on the grid. penalties may be
// nil, in which case no penalty is ever served.
func NewEngine(cfg sim.RaceConfig, penalties PenaltyGate, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if penalties == nil {
		penalties = noPenalties{}
	}
	e := &Engine{
		cfg:      cfg,
		physics:  sim.NewPhysics(cfg.Track),
		states:   make([]sim.DriverState, cfg.Drivers()),
		schedule: make(map[int]int),
		pits:     &dwellPits{penalties: penalties},
		log:      logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(e)
	}
	for driver, lap := range e.schedule {
		if driver < 0 || driver >= cfg.Drivers() {
			return nil, fmt.Errorf("%w: pit schedule names driver %d, have %d drivers", sim.ErrInvalidConfig, driver, cfg.Drivers())
		}
		if lap < 0 {
			return nil, fmt.Errorf("%w: pit schedule lap for driver %d must be >= 0, got %d", sim.ErrInvalidConfig, driver, lap)
		}
	}
	e.Reset()
	return e, nil
}

// Reset puts every driver back on the grid at time zero.
func (e *Engine) Reset() {
	for i := range e.states {
		e.states[i] = sim.NewDriverState()
	}
	e.clock = 0
	e.ticks = 0
}

// Next advances the race by one tick and returns one frame per driver, in
// driver order, with positions computed from this tick's distances.
func (e *Engine) Next() []sim.TelemetryFrame {
	e.clock += e.physics.Tick()
	e.ticks++

	frames := make([]sim.TelemetryFrame, len(e.states))
	for i := range e.states {
		frames[i] = e.step(i)
	}
	positions := sim.Rank(e.distances())
	for i := range frames {
		frames[i].Position = positions[i]
	}
	return frames
}

func (e *Engine) step(i int) sim.TelemetryFrame {
	st := &e.states[i]
	policy := e.policy(i)
	res := e.physics.Step(i, e.cfg.Entries[i], st, policy, e.clock, e.pits)

	if res.EnteredPit {
		e.log.WithFields(logrus.Fields{
			"driver": e.cfg.Entries[i].Driver.ID, "lap": st.Lap, "wear": st.TireWear,
			"stop_s": float64(st.PitEnd-st.PitStart) / 1e9, "scheduled": policy.Scheduled,
		}).Debug("pit entry")
		e.trace.RecordPitStop(trace.PitStopRecord{
			Driver: i, Lap: st.Lap, Clock: e.clock, Event: trace.PitEnter,
			Scheduled: policy.Scheduled, PlannedExit: st.PitEnd, PenaltyNanos: e.pits.lastPenalty,
		})
	}
	if res.ExitedPit {
		e.log.WithFields(logrus.Fields{"driver": e.cfg.Entries[i].Driver.ID, "lap": st.Lap}).Debug("pit exit")
		e.trace.RecordPitStop(trace.PitStopRecord{Driver: i, Lap: st.Lap, Clock: e.clock, Event: trace.PitExit})
	}

	temp := sim.TireTemp(res.SpeedKph, st.InPit)
	return sim.TelemetryFrame{
		Timestamp: e.clock,
		Driver:    i,
		Lap:       st.Lap,
		Sector:    st.Sector,
		SpeedKph:  res.SpeedKph,
		Throttle:  1,
		Brake:     0,
		TireWear:  st.TireWear,
		TireTempC: [4]float64{temp, temp, temp, temp},
		Mode:      st.Mode(),
	}
}

func (e *Engine) policy(i int) sim.PitPolicy {
	if lap, ok := e.schedule[i]; ok {
		return sim.ScheduledPit(lap)
	}
	return sim.ReactivePit()
}

func (e *Engine) distances() []float64 {
	d := make([]float64, len(e.states))
	for i, st := range e.states {
		d[i] = e.physics.TotalDistance(st)
	}
	return d
}

// Finished reports whether the leader has completed the race distance.
func (e *Engine) Finished() bool {
	leader := sim.Leader(e.distances())
	return e.states[leader].Lap >= e.cfg.TotalLaps
}

// Clock returns the simulated time in ns.
func (e *Engine) Clock() int64 { return e.clock }

// Ticks returns the number of ticks simulated.
func (e *Engine) Ticks() int64 { return e.ticks }

// State returns a copy of driver's kinematic state.
func (e *Engine) State(driver int) sim.DriverState { return e.states[driver] }

// TotalDistance returns driver's race distance in km.
func (e *Engine) TotalDistance(driver int) float64 {
	return e.physics.TotalDistance(e.states[driver])
}

// PitLap returns the scheduled pit lap of driver, if any.
func (e *Engine) PitLap(driver int) (int, bool) {
	lap, ok := e.schedule[driver]
	return lap, ok
}
