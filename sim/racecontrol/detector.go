package racecontrol

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/racesim/racesim/sim"
	"github.com/racesim/racesim/sim/trace"
)

const (
	// DefaultWarningLimit is the warning count that triggers a penalty.
	DefaultWarningLimit = 3
	// DefaultPenaltySeconds is the time penalty issued on reaching the limit.
	DefaultPenaltySeconds = 5.0
)

// RandomSource samples uniformly from [0,1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// PenaltyIssuer receives penalties. *Ledger satisfies it.
type PenaltyIssuer interface {
	Issue(driver int, seconds float64)
}

// Violations is one driver's rule-enforcement record. It only grows during a
// race.
type Violations struct {
	Warnings      int
	PenaltyIssued bool
	Laps          []int // lap of every violation, in detection order
	LastSector    int   // last sector observed, 0 before the first frame
}

// ViolationProbability returns the chance that a sector crossing in f is a
// violation for driver d, clamped to [0,1].
func ViolationProbability(d sim.DriverProfile, f sim.TelemetryFrame) float64 {
	p := d.Aggression * 0.01
	if f.SpeedKph > 200 {
		p += 0.005
	}
	if f.TireWear > 0.6 {
		p += f.TireWear * 0.01
	}
	return sim.Clamp01(p)
}

// Detector samples sector-boundary violations from consumed frames and
// escalates to a PenaltyIssuer after the warning limit.
type Detector struct {
	mu             sync.Mutex
	drivers        []sim.DriverProfile
	records        []Violations
	rng            RandomSource
	issuer         PenaltyIssuer
	warningLimit   int
	penaltySeconds float64
	trace          *trace.RaceTrace
	log            *logrus.Entry
}

// DetectorOption configures a Detector.
type DetectorOption func(d *Detector)

// WithWarningLimit overrides DefaultWarningLimit.
func WithWarningLimit(n int) DetectorOption {
	return func(d *Detector) { d.warningLimit = n }
}

// WithPenaltySeconds overrides DefaultPenaltySeconds.
func WithPenaltySeconds(s float64) DetectorOption {
	return func(d *Detector) { d.penaltySeconds = s }
}

// WithDetectorTrace records every violation into rt.
func WithDetectorTrace(rt *trace.RaceTrace) DetectorOption {
	return func(d *Detector) { d.trace = rt }
}

// WithDetectorLogger sets the log entry used for violations.
func WithDetectorLogger(log *logrus.Entry) DetectorOption {
	return func(d *Detector) {
		if log != nil {
			d.log = log
		}
	}
}

// NewDetector creates a Detector for drivers. rng is only used under the
// detector's lock, so an unsynchronized generator is fine.
// Panics if rng or issuer is nil.
func NewDetector(drivers []sim.DriverProfile, issuer PenaltyIssuer, rng RandomSource, opts ...DetectorOption) *Detector {
	if rng == nil || issuer == nil {
		panic("racecontrol.NewDetector: rng and issuer must be non-nil")
	}
	d := &Detector{
		drivers:        drivers,
		records:        make([]Violations, len(drivers)),
		rng:            rng,
		issuer:         issuer,
		warningLimit:   DefaultWarningLimit,
		penaltySeconds: DefaultPenaltySeconds,
		log:            logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Observe inspects one frame. Only the first frame of each new sector is
// sampled. Returns true if a violation was recorded.
func (d *Detector) Observe(f sim.TelemetryFrame) bool {
	d.checkDriver(f.Driver)

	d.mu.Lock()
	rec := &d.records[f.Driver]
	if rec.LastSector == f.Sector {
		d.mu.Unlock()
		return false
	}
	rec.LastSector = f.Sector

	p := ViolationProbability(d.drivers[f.Driver], f)
	if d.rng.Float64() >= p {
		d.mu.Unlock()
		return false
	}
	rec.Warnings++
	rec.Laps = append(rec.Laps, f.Lap)
	escalate := rec.Warnings == d.warningLimit && !rec.PenaltyIssued
	if escalate {
		rec.PenaltyIssued = true
	}
	warnings := rec.Warnings
	d.mu.Unlock()

	d.log.WithFields(logrus.Fields{
		"driver": f.Driver, "lap": f.Lap, "sector": f.Sector, "warnings": warnings,
	}).Debug("track limits violation")
	d.trace.RecordViolation(trace.ViolationRecord{
		Driver: f.Driver, Lap: f.Lap, Sector: f.Sector, Clock: f.Timestamp,
		Probability: p, Warnings: warnings,
	})
	if escalate {
		d.issuer.Issue(f.Driver, d.penaltySeconds)
	}
	return true
}

// Violations returns a copy of driver's record.
func (d *Detector) Violations(driver int) Violations {
	d.checkDriver(driver)
	d.mu.Lock()
	defer d.mu.Unlock()
	v := d.records[driver]
	v.Laps = append([]int(nil), v.Laps...)
	return v
}

func (d *Detector) checkDriver(driver int) {
	if driver < 0 || driver >= len(d.records) {
		panic(fmt.Sprintf("racecontrol.Detector: driver %d out of range [0,%d)", driver, len(d.records)))
	}
}
