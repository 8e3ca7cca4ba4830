package trace

import "sync"

// TraceLevel controls the verbosity of race-control tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures pit stops, violations, penalties and drops.
	TraceLevelDecisions TraceLevel = "decisions"
)

var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// RaceTrace collects race-control decisions. The producer and the consumer
// both record into it, so every method takes the trace's own lock; callers
// must not hold another component's lock while recording.
//
// All methods are safe on a nil *RaceTrace and do nothing.
type RaceTrace struct {
	mu         sync.Mutex
	config     TraceConfig
	pitStops   []PitStopRecord
	violations []ViolationRecord
	penalties  []PenaltyRecord
	drops      []DropRecord
}

// NewRaceTrace returns a trace ready for recording, or nil when the level
// disables tracing.
func NewRaceTrace(config TraceConfig) *RaceTrace {
	if config.Level == "" || config.Level == TraceLevelNone {
		return nil
	}
	return &RaceTrace{config: config}
}

// RecordPitStop appends a pit entry or exit.
func (rt *RaceTrace) RecordPitStop(r PitStopRecord) {
	if rt == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.pitStops = append(rt.pitStops, r)
}

// RecordViolation appends a detected violation.
func (rt *RaceTrace) RecordViolation(r ViolationRecord) {
	if rt == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.violations = append(rt.violations, r)
}

// RecordPenalty appends a penalty state transition.
func (rt *RaceTrace) RecordPenalty(r PenaltyRecord) {
	if rt == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.penalties = append(rt.penalties, r)
}

// RecordDrop appends a frame discarded by backpressure.
func (rt *RaceTrace) RecordDrop(r DropRecord) {
	if rt == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.drops = append(rt.drops, r)
}

// Records returns copies of everything recorded so far.
func (rt *RaceTrace) Records() Records {
	if rt == nil {
		return Records{}
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return Records{
		PitStops:   append([]PitStopRecord(nil), rt.pitStops...),
		Violations: append([]ViolationRecord(nil), rt.violations...),
		Penalties:  append([]PenaltyRecord(nil), rt.penalties...),
		Drops:      append([]DropRecord(nil), rt.drops...),
	}
}
