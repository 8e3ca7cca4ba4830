package racecontrol

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/racesim/racesim/sim/trace"
)

// PenaltyState is the lifecycle state of a driver's penalty.
type PenaltyState string

const (
	PenaltyNone    PenaltyState = "none"
	PenaltyPending PenaltyState = "pending"
	PenaltyServing PenaltyState = "serving"
	PenaltyServed  PenaltyState = "served"
)

// Penalty is one driver's penalty record.
type Penalty struct {
	State    PenaltyState
	Duration int64 // simulated ns
	Start    int64 // simulated ns, set when serving begins
}

// Ledger tracks per-driver time penalties. Records are created for every
// driver at construction and only ever change state.
type Ledger struct {
	mu        sync.Mutex
	penalties []Penalty
	trace     *trace.RaceTrace
	log       *logrus.Entry
}

// LedgerOption configures a Ledger.
type LedgerOption func(l *Ledger)

// WithLedgerTrace records every state transition into rt.
func WithLedgerTrace(rt *trace.RaceTrace) LedgerOption {
	return func(l *Ledger) { l.trace = rt }
}

// WithLedgerLogger sets the log entry used for state transitions.
func WithLedgerLogger(log *logrus.Entry) LedgerOption {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLedger creates a ledger with a NONE record for each of drivers.
func NewLedger(drivers int, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		penalties: make([]Penalty, drivers),
		log:       logrus.NewEntry(logrus.StandardLogger()),
	}
	for i := range l.penalties {
		l.penalties[i].State = PenaltyNone
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Drivers returns the number of records.
func (l *Ledger) Drivers() int { return len(l.penalties) }

// Issue puts driver's penalty into PENDING with the given duration, whatever
// its current state. Re-issuing before serving replaces the duration.
func (l *Ledger) Issue(driver int, seconds float64) {
	l.checkDriver(driver)
	l.mu.Lock()
	p := l.at(driver)
	p.State = PenaltyPending
	p.Duration = int64(seconds * 1e9)
	p.Start = 0
	l.mu.Unlock()

	l.log.WithFields(logrus.Fields{"driver": driver, "seconds": seconds}).Debug("penalty issued")
	l.trace.RecordPenalty(trace.PenaltyRecord{Driver: driver, State: string(PenaltyPending), Seconds: seconds})
}

// MarkServing moves a PENDING penalty to SERVING starting at now and returns
// the duration it started serving, in ns. It is a no-op returning false in any
// other state, so repeated checks within one pit stop cannot restart the clock.
func (l *Ledger) MarkServing(driver int, now int64) (int64, bool) {
	l.checkDriver(driver)
	l.mu.Lock()
	p := l.at(driver)
	if p.State != PenaltyPending {
		l.mu.Unlock()
		return 0, false
	}
	p.State = PenaltyServing
	p.Start = now
	duration := p.Duration
	l.mu.Unlock()

	l.log.WithFields(logrus.Fields{"driver": driver, "clock": now}).Debug("penalty serving")
	l.trace.RecordPenalty(trace.PenaltyRecord{Driver: driver, Clock: now, State: string(PenaltyServing), Seconds: float64(duration) / 1e9})
	return duration, true
}

// IsComplete reports whether driver has nothing left to serve at now.
// NONE and SERVED are complete, PENDING is not. A SERVING penalty becomes
// SERVED, and complete, once now >= start + duration.
func (l *Ledger) IsComplete(driver int, now int64) bool {
	l.checkDriver(driver)
	l.mu.Lock()
	p := l.at(driver)
	switch p.State {
	case PenaltyNone, PenaltyServed:
		l.mu.Unlock()
		return true
	case PenaltyPending:
		l.mu.Unlock()
		return false
	}
	if now < p.Start+p.Duration {
		l.mu.Unlock()
		return false
	}
	p.State = PenaltyServed
	seconds := float64(p.Duration) / 1e9
	l.mu.Unlock()

	l.log.WithFields(logrus.Fields{"driver": driver, "clock": now}).Debug("penalty served")
	l.trace.RecordPenalty(trace.PenaltyRecord{Driver: driver, Clock: now, State: string(PenaltyServed), Seconds: seconds})
	return true
}

// Penalty returns a copy of driver's record.
func (l *Ledger) Penalty(driver int) Penalty {
	l.checkDriver(driver)
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.at(driver)
}

// checkDriver panics on an unknown driver; the record set never changes size
// so this needs no lock.
func (l *Ledger) checkDriver(driver int) {
	if driver < 0 || driver >= len(l.penalties) {
		panic(fmt.Sprintf("racecontrol.Ledger: driver %d out of range [0,%d)", driver, len(l.penalties)))
	}
}

// at must be called with l.mu held.
func (l *Ledger) at(driver int) *Penalty {
	return &l.penalties[driver]
}
