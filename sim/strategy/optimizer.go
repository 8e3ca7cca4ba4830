package strategy

import (
	"fmt"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/racesim/racesim/sim"
)

// DefaultCandidateLaps is the pit-lap search space.
var DefaultCandidateLaps = []int{12, 15, 18, 21, 24, 27, 30, 33, 36, 39}

// CandidateTime is the finish time of one tested pit lap.
type CandidateTime struct {
	PitLap        int     `json:"pit_lap"`
	FinishSeconds float64 `json:"finish_seconds"`
}

// Result is the chosen pit lap for one driver.
type Result struct {
	Driver        int             `json:"driver"`
	PitLap        int             `json:"pit_lap"`
	FinishSeconds float64         `json:"finish_seconds"`
	Candidates    []CandidateTime `json:"candidates"` // in candidate order
}

// Optimizer searches the candidate laps for the fastest single stop. Every
// candidate runs on its own Simulator; workers share only the read-only
// configuration.
type Optimizer struct {
	cfg        sim.RaceConfig
	candidates []int
	simOpts    []SimulatorOption
	runs       prometheus.Counter
	log        *logrus.Entry
}

// OptimizerOption configures an Optimizer.
type OptimizerOption func(o *Optimizer)

// WithCandidates replaces DefaultCandidateLaps. The slice is copied.
func WithCandidates(laps []int) OptimizerOption {
	return func(o *Optimizer) { o.candidates = slices.Clone(laps) }
}

// WithSimulatorOptions applies opts to every candidate simulator.
func WithSimulatorOptions(opts ...SimulatorOption) OptimizerOption {
	return func(o *Optimizer) { o.simOpts = append(o.simOpts, opts...) }
}

// WithRunCounter counts completed candidate simulations.
func WithRunCounter(c prometheus.Counter) OptimizerOption {
	return func(o *Optimizer) { o.runs = c }
}

// WithOptimizerLogger sets the log entry used for results.
func WithOptimizerLogger(log *logrus.Entry) OptimizerOption {
	return func(o *Optimizer) {
		if log != nil {
			o.log = log
		}
	}
}

// NewOptimizer validates cfg and the candidate set.
func NewOptimizer(cfg sim.RaceConfig, opts ...OptimizerOption) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &Optimizer{
		cfg:        cfg,
		candidates: slices.Clone(DefaultCandidateLaps),
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.candidates) == 0 {
		return nil, fmt.Errorf("%w: candidate pit laps must not be empty", sim.ErrInvalidConfig)
	}
	for _, lap := range o.candidates {
		if lap < 0 {
			return nil, fmt.Errorf("%w: candidate pit lap must be >= 0, got %d", sim.ErrInvalidConfig, lap)
		}
	}
	return o, nil
}

// Candidates returns the pit laps under test.
func (o *Optimizer) Candidates() []int { return slices.Clone(o.candidates) }

// OptimizeDriver simulates every candidate concurrently and returns the
// fastest. Ties keep the earliest candidate.
func (o *Optimizer) OptimizeDriver(driver int) (Result, error) {
	if driver < 0 || driver >= o.cfg.Drivers() {
		return Result{}, fmt.Errorf("%w: driver %d out of range [0,%d)", sim.ErrInvalidConfig, driver, o.cfg.Drivers())
	}

	times := make([]float64, len(o.candidates))
	var g errgroup.Group
	for i, lap := range o.candidates {
		i, lap := i, lap
		g.Go(func() error {
			s, err := NewSimulator(o.cfg, o.simOpts...)
			if err != nil {
				return err
			}
			t, err := s.Run(driver, lap)
			if err != nil {
				return err
			}
			times[i] = t
			if o.runs != nil {
				o.runs.Inc()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("optimizing driver %d: %w", driver, err)
	}

	res := Result{Driver: driver, PitLap: o.candidates[0], FinishSeconds: times[0]}
	res.Candidates = make([]CandidateTime, len(times))
	for i, t := range times {
		res.Candidates[i] = CandidateTime{PitLap: o.candidates[i], FinishSeconds: t}
		if t < res.FinishSeconds {
			res.PitLap = o.candidates[i]
			res.FinishSeconds = t
		}
	}
	o.log.WithFields(logrus.Fields{
		"driver":   o.cfg.Entries[driver].Driver.ID,
		"pit_lap":  res.PitLap,
		"finish_s": res.FinishSeconds,
	}).Info("pit strategy chosen")
	return res, nil
}

// Optimize runs OptimizeDriver for each driver in turn.
func (o *Optimizer) Optimize(drivers []int) ([]Result, error) {
	results := make([]Result, 0, len(drivers))
	for _, d := range drivers {
		r, err := o.OptimizeDriver(d)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Schedule turns results into the pit schedule consumed by the live engine.
func Schedule(results []Result) map[int]int {
	schedule := make(map[int]int, len(results))
	for _, r := range results {
		schedule[r.Driver] = r.PitLap
	}
	return schedule
}
