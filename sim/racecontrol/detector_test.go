package racecontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/racesim/racesim/sim"
	"github.com/racesim/racesim/sim/trace"
)

// seqSource replays a fixed sequence of draws, then repeats the last one.
type seqSource struct {
	draws []float64
	n     int
}

func (s *seqSource) Float64() float64 {
	v := s.draws[min(s.n, len(s.draws)-1)]
	s.n++
	return v
}

// issueRecorder records issued penalties.
type issueRecorder struct {
	issued []int
	hook   func(driver int)
}

func (r *issueRecorder) Issue(driver int, _ float64) {
	r.issued = append(r.issued, driver)
	if r.hook != nil {
		r.hook(driver)
	}
}

func frame(driver, lap, sector int) sim.TelemetryFrame {
	return sim.TelemetryFrame{Driver: driver, Lap: lap, Sector: sector, SpeedKph: 150}
}

func TestViolationProbability(t *testing.T) {
	d := sim.DriverProfile{Aggression: 0.8}
	tests := []struct {
		name  string
		frame sim.TelemetryFrame
		want  float64
	}{
		{"slow fresh tires", sim.TelemetryFrame{SpeedKph: 150, TireWear: 0.2}, 0.008},
		{"fast", sim.TelemetryFrame{SpeedKph: 210, TireWear: 0.2}, 0.013},
		{"exactly 200 is not fast", sim.TelemetryFrame{SpeedKph: 200, TireWear: 0.2}, 0.008},
		{"worn tires", sim.TelemetryFrame{SpeedKph: 150, TireWear: 0.7}, 0.008 + 0.007},
		{"fast and worn", sim.TelemetryFrame{SpeedKph: 250, TireWear: 1}, 0.008 + 0.005 + 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ViolationProbability(d, tt.frame), 1e-12)
		})
	}
}

func TestDetector_OnlySamplesOnSectorChange(t *testing.T) {
	// GIVEN a source that always violates
	rng := &seqSource{draws: []float64{0}}
	d := NewDetector([]sim.DriverProfile{{Aggression: 1}}, &issueRecorder{}, rng)

	// WHEN the same sector is observed repeatedly
	assert.True(t, d.Observe(frame(0, 0, 1)), "first frame counts as a new sector")
	assert.False(t, d.Observe(frame(0, 0, 1)))
	assert.False(t, d.Observe(frame(0, 0, 1)))
	assert.True(t, d.Observe(frame(0, 0, 2)))

	// THEN only two draws were taken
	assert.Equal(t, 2, rng.n)
	v := d.Violations(0)
	assert.Equal(t, 2, v.Warnings)
	assert.Equal(t, 2, v.LastSector)
}

func TestDetector_SampleAgainstProbability(t *testing.T) {
	// GIVEN aggression 1 at 150 kph: probability 0.01
	d := NewDetector([]sim.DriverProfile{{Aggression: 1}}, &issueRecorder{},
		&seqSource{draws: []float64{0.01, 0.0099}})

	// THEN a draw equal to p is not a violation, one just below is
	assert.False(t, d.Observe(frame(0, 1, 1)))
	assert.True(t, d.Observe(frame(0, 1, 2)))
}

func TestDetector_ThirdWarningIssuesPenaltyOnce(t *testing.T) {
	// GIVEN an always-violating driver
	issuer := &issueRecorder{}
	d := NewDetector([]sim.DriverProfile{{Aggression: 1}}, issuer, &seqSource{draws: []float64{0}})

	// WHEN five sector crossings are observed
	for i, sector := range []int{1, 2, 3, 1, 2} {
		d.Observe(frame(0, i, sector))
	}

	// THEN exactly one penalty was issued, at the third warning
	assert.Equal(t, []int{0}, issuer.issued)
	v := d.Violations(0)
	assert.Equal(t, 5, v.Warnings)
	assert.True(t, v.PenaltyIssued)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, v.Laps)
}

func TestDetector_EdgeDetectionIsPerDriver(t *testing.T) {
	rng := &seqSource{draws: []float64{0}}
	d := NewDetector([]sim.DriverProfile{{Aggression: 1}, {Aggression: 1}}, &issueRecorder{}, rng)

	// interleaved frames in the same sector still count once per driver
	d.Observe(frame(0, 0, 1))
	d.Observe(frame(1, 0, 1))
	d.Observe(frame(0, 0, 1))
	d.Observe(frame(1, 0, 1))

	assert.Equal(t, 1, d.Violations(0).Warnings)
	assert.Equal(t, 1, d.Violations(1).Warnings)
}

func TestDetector_IssuesWithoutHoldingItsLock(t *testing.T) {
	// GIVEN an issuer that reads the detector back while being called
	issuer := &issueRecorder{}
	d := NewDetector([]sim.DriverProfile{{Aggression: 1}}, issuer, &seqSource{draws: []float64{0}},
		WithWarningLimit(1))
	var seen Violations
	issuer.hook = func(driver int) { seen = d.Violations(driver) }

	// WHEN the penalty is issued (would deadlock if the lock were held)
	d.Observe(frame(0, 4, 2))

	// THEN the issuer observed the committed record
	assert.Equal(t, 1, seen.Warnings)
	assert.True(t, seen.PenaltyIssued)
}

func TestDetector_EscalatesIntoLedger(t *testing.T) {
	ledger := NewLedger(1)
	d := NewDetector([]sim.DriverProfile{{Aggression: 1}}, ledger, &seqSource{draws: []float64{0}},
		WithPenaltySeconds(7))
	for _, s := range []int{1, 2, 3} {
		d.Observe(frame(0, 0, s))
	}
	p := ledger.Penalty(0)
	assert.Equal(t, PenaltyPending, p.State)
	assert.Equal(t, int64(7e9), p.Duration)
}

func TestDetector_TracesViolations(t *testing.T) {
	rt := trace.NewRaceTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	d := NewDetector([]sim.DriverProfile{{Aggression: 1}}, &issueRecorder{}, &seqSource{draws: []float64{0}},
		WithDetectorTrace(rt))
	d.Observe(frame(0, 3, 2))

	recs := rt.Records().Violations
	require.Len(t, recs, 1)
	assert.Equal(t, 3, recs[0].Lap)
	assert.Equal(t, 1, recs[0].Warnings)
	assert.InDelta(t, 0.01, recs[0].Probability, 1e-12)
}

func TestDetector_ViolationsReturnsCopy(t *testing.T) {
	d := NewDetector([]sim.DriverProfile{{Aggression: 1}}, &issueRecorder{}, &seqSource{draws: []float64{0}})
	d.Observe(frame(0, 2, 1))
	v := d.Violations(0)
	v.Laps[0] = 99
	assert.Equal(t, []int{2}, d.Violations(0).Laps)
}

func TestDetector_OutOfRangePanics(t *testing.T) {
	d := NewDetector([]sim.DriverProfile{{}}, &issueRecorder{}, &seqSource{draws: []float64{1}})
	assert.Panics(t, func() { d.Observe(frame(1, 0, 1)) })
	assert.Panics(t, func() { d.Violations(-1) })
}

func TestNewDetector_NilDependenciesPanic(t *testing.T) {
	assert.Panics(t, func() { NewDetector(nil, &issueRecorder{}, nil) })
	assert.Panics(t, func() { NewDetector(nil, nil, &seqSource{draws: []float64{0}}) })
}
