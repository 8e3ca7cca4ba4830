// Package pipeline runs a live race as a producer goroutine advancing the
// engine and a consumer goroutine enforcing the rules, joined by a bounded
// drop-oldest buffer.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/racesim/racesim/sim"
	"github.com/racesim/racesim/sim/live"
	"github.com/racesim/racesim/sim/racecontrol"
	"github.com/racesim/racesim/sim/ring"
	"github.com/racesim/racesim/sim/trace"
)

const (
	// DefaultBufferSize is the number of frames the consumer may fall behind.
	DefaultBufferSize = 1024
	// DefaultTickInterval paces the producer at one tick per simulated tick.
	DefaultTickInterval = 20 * time.Millisecond
)

// Config describes one live race.
type Config struct {
	Race          sim.RaceConfig
	PitSchedule   map[int]int   // driver -> forced pit lap, fixed before the race
	BufferSize    int           // 0 means DefaultBufferSize
	TickInterval  time.Duration // wall-clock pause per tick, 0 runs flat out
	SnapshotEvery int           // consumed frames per snapshot, 0 means driver count
	Seed          int64         // violation sampling seed
}

// Result summarizes a finished race.
type Result struct {
	Winner      int
	WinnerID    string
	Ticks       int64
	Clock       int64 // simulated ns
	Dropped     int64
	FinalFrames []sim.TelemetryFrame // by driver
	Violations  []racecontrol.Violations
	Penalties   []racecontrol.Penalty
	Trace       *trace.TraceSummary // nil when tracing is off
}

// Runner owns every component of one race. Run may be called once.
type Runner struct {
	cfg       Config
	engine    *live.Engine
	ledger    *racecontrol.Ledger
	detector  *racecontrol.Detector
	buf       *ring.Buffer[sim.TelemetryFrame]
	presenter Presenter
	metrics   *Metrics
	trace     *trace.RaceTrace
	rng       racecontrol.RandomSource
	log       *logrus.Entry

	dropped     int64 // producer only
	finalFrames []sim.TelemetryFrame
}

// Option configures a Runner.
type Option func(r *Runner)

// WithMetrics reports into m.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithTrace records race-control decisions into rt.
func WithTrace(rt *trace.RaceTrace) Option {
	return func(r *Runner) { r.trace = rt }
}

// WithLogger sets the base log entry, typically carrying the race id.
// A nil log keeps the standard logger.
func WithLogger(log *logrus.Entry) Option {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// WithRandomSource replaces the seeded violation sampler.
func WithRandomSource(rng racecontrol.RandomSource) Option {
	return func(r *Runner) { r.rng = rng }
}

// NewRunner validates cfg and builds the engine, ledger, detector and buffer.
// presenter may be nil.
func NewRunner(cfg Config, presenter Presenter, opts ...Option) (*Runner, error) {
	if cfg.BufferSize < 0 {
		return nil, fmt.Errorf("%w: buffer size must be >= 0, got %d", sim.ErrInvalidConfig, cfg.BufferSize)
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = cfg.Race.Drivers()
	}
	if presenter == nil {
		presenter = discardPresenter{}
	}
	r := &Runner{
		cfg:       cfg,
		presenter: presenter,
		log:       logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = sim.NewPartitionedRNG(sim.NewRaceKey(cfg.Seed)).ForSubsystem(sim.SubsystemRaceControl)
	}

	r.ledger = racecontrol.NewLedger(cfg.Race.Drivers(),
		racecontrol.WithLedgerTrace(r.trace), racecontrol.WithLedgerLogger(r.log))
	engine, err := live.NewEngine(cfg.Race, r.ledger,
		live.WithPitSchedule(cfg.PitSchedule), live.WithTrace(r.trace), live.WithLogger(r.log))
	if err != nil {
		return nil, err
	}
	r.engine = engine
	r.detector = racecontrol.NewDetector(cfg.Race.DriverProfiles(), r.issuer(), r.rng,
		racecontrol.WithDetectorTrace(r.trace), racecontrol.WithDetectorLogger(r.log))
	r.buf = ring.New[sim.TelemetryFrame](cfg.BufferSize)
	return r, nil
}

// Run races to the finish. It returns early with ctx's error if ctx is
// cancelled, or with the presenter's error if presentation fails.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	r.logStrategies()
	r.log.WithFields(logrus.Fields{
		"track": r.cfg.Race.Track.ID, "laps": r.cfg.Race.TotalLaps, "drivers": r.cfg.Race.Drivers(),
		"buffer": r.buf.Cap(),
	}).Info("race start")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.produce(gctx) })
	g.Go(r.consume)
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := r.result()
	r.log.WithFields(logrus.Fields{
		"winner": res.WinnerID, "ticks": res.Ticks, "sim_s": float64(res.Clock) / 1e9, "dropped": res.Dropped,
	}).Info("race finished")
	return res, nil
}

func (r *Runner) logStrategies() {
	for i, e := range r.cfg.Race.Entries {
		log := r.log.WithField("driver", e.Driver.ID)
		if lap, ok := r.engine.PitLap(i); ok {
			log.WithField("pit_lap", lap).Info("scheduled pit stop")
		} else {
			log.WithField("threshold", sim.PitThreshold(e.Driver)).Info("pit on tire wear")
		}
	}
}

// produce advances the engine until the race is finished, never waiting on
// the consumer. The buffer is shut down on every exit path.
func (r *Runner) produce(ctx context.Context) error {
	defer r.buf.Shutdown()

	var ticker *time.Ticker
	if r.cfg.TickInterval > 0 {
		ticker = time.NewTicker(r.cfg.TickInterval)
		defer ticker.Stop()
	}
	inPit := make([]bool, r.cfg.Race.Drivers())
	for {
		frames := r.engine.Next()
		for _, f := range frames {
			if f.Pitting() && !inPit[f.Driver] && r.metrics != nil {
				r.metrics.PitStops.Inc()
			}
			inPit[f.Driver] = f.Pitting()
			ring.PushDropOldest(r.buf, f, r.drop)
		}
		if r.metrics != nil {
			r.metrics.Ticks.Inc()
			r.metrics.FramesProduced.Add(float64(len(frames)))
			r.metrics.BufferDepth.Set(float64(r.buf.Len()))
		}
		if r.engine.Finished() {
			r.finalFrames = frames
			return nil
		}

		if ticker == nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Runner) drop(f sim.TelemetryFrame) {
	r.dropped++
	r.log.WithFields(logrus.Fields{"driver": f.Driver, "lap": f.Lap}).Debug("dropped frame")
	r.trace.RecordDrop(trace.DropRecord{Driver: f.Driver, Clock: f.Timestamp})
	if r.metrics != nil {
		r.metrics.FramesDropped.Inc()
	}
}

// consume drains the buffer until it is shut down and empty.
func (r *Runner) consume() error {
	latest := gridFrames(r.cfg.Race.Drivers())
	var n int
	for {
		f, ok := r.buf.Pop()
		if !ok {
			break
		}
		violated := r.detector.Observe(f)
		latest[f.Driver] = f
		if r.metrics != nil {
			r.metrics.FramesConsumed.Inc()
			if violated {
				r.metrics.Violations.Inc()
			}
		}
		if err := r.presenter.Frame(f); err != nil {
			return fmt.Errorf("presenting frame: %w", err)
		}
		n++
		if n%r.cfg.SnapshotEvery == 0 {
			if err := r.presenter.Snapshot(r.snapshot(latest, false)); err != nil {
				return fmt.Errorf("presenting snapshot: %w", err)
			}
		}
	}
	if err := r.presenter.Snapshot(r.snapshot(latest, true)); err != nil {
		return fmt.Errorf("presenting final snapshot: %w", err)
	}
	return nil
}

func (r *Runner) snapshot(latest []sim.TelemetryFrame, final bool) Snapshot {
	return buildSnapshot(latest, r.cfg.Race.TotalLaps, r.detector, r.ledger, final)
}

func (r *Runner) result() Result {
	n := r.cfg.Race.Drivers()
	res := Result{
		Winner:      -1,
		Ticks:       r.engine.Ticks(),
		Clock:       r.engine.Clock(),
		Dropped:     r.dropped,
		FinalFrames: r.finalFrames,
		Violations:  make([]racecontrol.Violations, n),
		Penalties:   make([]racecontrol.Penalty, n),
	}
	if r.trace != nil {
		res.Trace = trace.Summarize(r.trace)
	}
	for _, f := range r.finalFrames {
		if f.Position == 1 {
			res.Winner = f.Driver
			res.WinnerID = r.cfg.Race.Entries[f.Driver].Driver.ID
		}
	}
	for i := 0; i < n; i++ {
		res.Violations[i] = r.detector.Violations(i)
		res.Penalties[i] = r.ledger.Penalty(i)
	}
	return res
}

// issuer counts penalties on their way into the ledger.
func (r *Runner) issuer() racecontrol.PenaltyIssuer {
	if r.metrics == nil {
		return r.ledger
	}
	return countingIssuer{next: r.ledger, m: r.metrics}
}

type countingIssuer struct {
	next racecontrol.PenaltyIssuer
	m    *Metrics
}

func (c countingIssuer) Issue(driver int, seconds float64) {
	c.m.PenaltiesIssued.Inc()
	c.next.Issue(driver, seconds)
}
