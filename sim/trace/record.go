// Package trace provides race-control decision recording.
// This package has no dependencies on sim/ or its engines; it stores pure data types.
package trace

// PitEvent distinguishes pit lane entry from exit.
type PitEvent string

const (
	PitEnter PitEvent = "enter"
	PitExit  PitEvent = "exit"
)

// PitStopRecord captures a pit lane entry or exit.
type PitStopRecord struct {
	Driver       int
	Lap          int
	Clock        int64 // simulated ns
	Event        PitEvent
	Scheduled    bool  // one-shot scheduled stop rather than wear-triggered
	PlannedExit  int64 // enter only: earliest exit time
	PenaltyNanos int64 // enter only: penalty folded into the stop
}

// ViolationRecord captures a sector-boundary rule violation.
type ViolationRecord struct {
	Driver      int
	Lap         int
	Sector      int
	Clock       int64
	Probability float64
	Warnings    int // warning count after this violation
}

// PenaltyRecord captures a penalty state transition.
type PenaltyRecord struct {
	Driver  int
	Clock   int64
	State   string // pending, serving, served
	Seconds float64
}

// DropRecord captures a frame discarded because the buffer was full.
type DropRecord struct {
	Driver int
	Clock  int64
}

// Records is a point-in-time copy of a RaceTrace.
type Records struct {
	PitStops   []PitStopRecord
	Violations []ViolationRecord
	Penalties  []PenaltyRecord
	Drops      []DropRecord
}
