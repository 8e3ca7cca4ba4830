package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPitThreshold_RiskNeutralTireManager(t *testing.T) {
	// GIVEN tire management 1.0 and neutral risk tolerance
	d := DriverProfile{TireManagement: 1, RiskTolerance: 0.5}

	// THEN the threshold is 0.65 + 0.25 + 0
	assert.InDelta(t, 0.90, PitThreshold(d), 1e-12)
}

func TestPitThreshold_RiskAdjustment(t *testing.T) {
	assert.InDelta(t, 0.65-0.075, PitThreshold(DriverProfile{RiskTolerance: 0}), 1e-12)
	assert.InDelta(t, 0.65+0.075, PitThreshold(DriverProfile{RiskTolerance: 1}), 1e-12)
}

func TestPitStopSeconds(t *testing.T) {
	assert.InDelta(t, 2.0, PitStopSeconds(CarProfile{Reliability: 1}), 1e-12)
	assert.InDelta(t, 2.5, PitStopSeconds(CarProfile{Reliability: 0.5}), 1e-12)
	assert.InDelta(t, 3.0, PitStopSeconds(CarProfile{Reliability: 0}), 1e-12)
}

func TestPhysics_Speed(t *testing.T) {
	p := NewPhysics(flatTrack())
	d := DriverProfile{Consistency: 0.8}
	c := CarProfile{EnginePower: 1}

	// 220 * 1 * (0.8 + 0.2) * (1 - 0)
	assert.InDelta(t, 220.0, p.Speed(d, c, 0), 1e-9)
	// worn tires lose 40% at full wear
	assert.InDelta(t, 220.0*0.6, p.Speed(d, c, 1), 1e-9)
}

func TestPhysics_Advance_DistanceAndWear(t *testing.T) {
	// GIVEN a driver on fresh tires
	p := NewPhysics(flatTrack())
	d := DriverProfile{Aggression: 1}
	st := NewDriverState()

	// WHEN advancing one tick at 180 kph
	p.Advance(d, &st, 180)

	// THEN distance is speed * 20ms/3600 * 120 and wear follows distance
	wantDelta := 180 * (0.02 / 3600) * 120
	assert.InDelta(t, wantDelta, st.DistanceInLap, 1e-12)
	assert.InDelta(t, wantDelta/10*0.05, st.TireWear, 1e-12)
	assert.Equal(t, 1, st.Sector)
	assert.Equal(t, 0, st.Lap)
}

func TestPhysics_Advance_WearIndependentOfTickRate(t *testing.T) {
	// GIVEN two physics with different tick lengths
	fine := Physics{Track: flatTrack(), TickNanos: TickNanos}
	coarse := Physics{Track: flatTrack(), TickNanos: 4 * TickNanos}
	d := DriverProfile{Aggression: 0.7}
	a, b := NewDriverState(), NewDriverState()

	// WHEN covering the same simulated time
	for i := 0; i < 4; i++ {
		fine.Advance(d, &a, 200)
	}
	coarse.Advance(d, &b, 200)

	// THEN wear is identical
	assert.InDelta(t, a.TireWear, b.TireWear, 1e-12)
	assert.InDelta(t, fine.TotalDistance(a), coarse.TotalDistance(b), 1e-9)
}

func TestPhysics_Advance_SectorAndLapRollover(t *testing.T) {
	p := NewPhysics(flatTrack())
	st := NewDriverState()
	st.Sector = 3
	st.DistanceInLap = p.Track.SectorLength() - 0.01

	p.Advance(DriverProfile{}, &st, 200)

	assert.Equal(t, 1, st.Sector)
	assert.Equal(t, 1, st.Lap)
	assert.Less(t, st.DistanceInLap, p.Track.SectorLength())
}

func TestPhysics_Advance_WearClampedAtOne(t *testing.T) {
	p := NewPhysics(TrackProfile{Sectors: 1, LapLengthKm: 0.01, TireWearFactor: 1000})
	st := NewDriverState()
	st.TireWear = 0.99
	p.Advance(DriverProfile{Aggression: 1}, &st, 220)
	assert.Equal(t, 1.0, st.TireWear)
}

func TestPhysics_TotalDistance(t *testing.T) {
	p := NewPhysics(flatTrack())
	st := DriverState{Lap: 2, Sector: 3, DistanceInLap: 1}
	assert.InDelta(t, 20+2*10.0/3+1, p.TotalDistance(st), 1e-12)
}

func TestPhysics_ShouldPit_Scheduled_OneShot(t *testing.T) {
	p := NewPhysics(flatTrack())
	d := DriverProfile{}
	policy := ScheduledPit(5)

	assert.False(t, p.ShouldPit(d, DriverState{Lap: 4, Sector: 1}, policy))
	assert.True(t, p.ShouldPit(d, DriverState{Lap: 5, Sector: 1}, policy))
	assert.False(t, p.ShouldPit(d, DriverState{Lap: 5, Sector: 1, HasPitted: true}, policy))
	assert.False(t, p.ShouldPit(d, DriverState{Lap: 5, Sector: 1, InPit: true}, policy))
	// scheduled drivers ignore wear entirely
	assert.False(t, p.ShouldPit(d, DriverState{Lap: 6, Sector: 1, TireWear: 1}, policy))
}

func TestPhysics_ShouldPit_Reactive_Recurs(t *testing.T) {
	p := NewPhysics(flatTrack())
	d := DriverProfile{TireManagement: 1, RiskTolerance: 0.5}

	assert.False(t, p.ShouldPit(d, DriverState{TireWear: 0.90}, ReactivePit()))
	assert.True(t, p.ShouldPit(d, DriverState{TireWear: 0.9001}, ReactivePit()))
	assert.True(t, p.ShouldPit(d, DriverState{TireWear: 0.95, HasPitted: true}, ReactivePit()))
}

func TestPhysics_Step_PitDwellConsumesTick(t *testing.T) {
	// GIVEN a driver whose scheduled lap is now and a model keeping them in the pit
	p := NewPhysics(flatTrack())
	e := testEntry(0.5, 0.5, 0.5, 0.5)
	st := DriverState{Lap: 3, Sector: 2, TireWear: 0.4}
	pits := &recordingPits{dwell: true, enterContinues: true}

	// WHEN stepping
	res := p.Step(0, e, &st, ScheduledPit(3), TickNanos, pits)

	// THEN the driver entered the pit, did not move, and the one-shot is consumed
	assert.True(t, res.EnteredPit)
	assert.Zero(t, res.SpeedKph)
	assert.True(t, st.HasPitted)
	assert.Equal(t, ModePitting, st.Mode())
	assert.Equal(t, 1, pits.exits)
	assert.Zero(t, pits.moved)
	assert.Equal(t, 0.4, st.TireWear, "wear resets only on exit")
}

func TestPhysics_Step_PitExitResetsWearAndMoves(t *testing.T) {
	p := NewPhysics(flatTrack())
	e := testEntry(0.5, 0.5, 0.5, 0.5)
	st := DriverState{Lap: 3, Sector: 2, TireWear: 0.7, InPit: true}
	pits := &recordingPits{exitAllowed: true}

	res := p.Step(0, e, &st, ReactivePit(), 10*TickNanos, pits)

	assert.True(t, res.ExitedPit)
	assert.Equal(t, ModeRunning, st.Mode())
	assert.Greater(t, res.SpeedKph, 0.0)
	assert.Greater(t, st.DistanceInLap, 0.0)
	assert.Less(t, st.TireWear, 0.01)
	assert.Equal(t, 1, pits.moved)
}

func TestPhysics_Step_InstantPitSkipsMovement(t *testing.T) {
	p := NewPhysics(flatTrack())
	e := testEntry(0.5, 0.5, 0.5, 0.5)
	st := DriverState{Lap: 3, Sector: 1, TireWear: 0.99}
	pits := &recordingPits{}

	res := p.Step(0, e, &st, ReactivePit(), TickNanos, pits)
	require.True(t, res.EnteredPit)
	assert.Zero(t, st.DistanceInLap)
	assert.Zero(t, pits.exits)
	assert.Zero(t, pits.moved)
}

func TestTireTemp(t *testing.T) {
	assert.Equal(t, 60.0, TireTemp(300, true))
	assert.Equal(t, 80.0, TireTemp(0, false))
	assert.InDelta(t, 90.0, TireTemp(200, false), 1e-12)
	assert.Equal(t, 120.0, TireTemp(2000, false))
}

func TestTelemetryFrame_Pitting(t *testing.T) {
	assert.True(t, TelemetryFrame{Mode: ModePitting}.Pitting())
	assert.False(t, TelemetryFrame{Mode: ModeRunning}.Pitting())
	assert.False(t, TelemetryFrame{}.Pitting(), "grid placeholder frames are not pitting")
}
