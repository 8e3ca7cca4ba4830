package sim

import "math"

const (
	// TickNanos is the simulated time advanced by one tick (20ms).
	TickNanos int64 = 20_000_000
	// SpeedMultiplier compresses a ~90 minute race into a few simulated minutes.
	SpeedMultiplier = 120.0
	// BaseSpeedKph is the top speed of a reference car on new tires.
	BaseSpeedKph = 220.0

	pitBaseSeconds     = 2.0
	pitUnreliableExtra = 1.0
	wearPerLapScale    = 0.05
	wearSpeedPenalty   = 0.4
)

// PitThreshold is the tire wear above which a reactive driver pits.
func PitThreshold(d DriverProfile) float64 {
	base := 0.65 + d.TireManagement*0.25
	risk := (d.RiskTolerance - 0.5) * 0.15
	return base + risk
}

// PitStopSeconds is the stationary time of a pit stop before penalties.
func PitStopSeconds(c CarProfile) float64 {
	return pitBaseSeconds + (1-c.Reliability)*pitUnreliableExtra
}

// PitPolicy selects how the pit decision fires for a driver.
// Scheduled pits happen exactly once on Lap; reactive pits happen whenever
// tire wear crosses the driver's threshold and may recur.
type PitPolicy struct {
	Scheduled bool
	Lap       int
}

// ReactivePit returns the wear-triggered policy.
func ReactivePit() PitPolicy { return PitPolicy{} }

// ScheduledPit returns the one-shot policy pitting on lap.
func ScheduledPit(lap int) PitPolicy { return PitPolicy{Scheduled: true, Lap: lap} }

// PitCostModel decides how a pit stop is paid for once the decision fires.
type PitCostModel interface {
	// Enter is called on the tick the pit decision fires. It returns true if
	// the driver keeps simulating this tick, false if the tick is consumed.
	Enter(driver int, car CarProfile, st *DriverState, now int64) bool
	// Exit reports whether a driver in the pit lane may rejoin at now.
	Exit(driver int, st *DriverState, now int64) bool
	// Moved is called after a driver travelled for one tick.
	Moved(st *DriverState, tickSeconds float64)
}

// StepResult describes what happened to a driver during one tick.
type StepResult struct {
	SpeedKph   float64
	EnteredPit bool
	ExitedPit  bool
}

// Physics is the tick update rule for a track. The zero TickNanos and
// Multiplier fall back to TickNanos and SpeedMultiplier.
type Physics struct {
	Track      TrackProfile
	TickNanos  int64
	Multiplier float64
}

// NewPhysics returns the standard 20ms / 120x physics for track.
func NewPhysics(track TrackProfile) Physics {
	return Physics{Track: track, TickNanos: TickNanos, Multiplier: SpeedMultiplier}
}

// TickSeconds returns the simulated duration of one tick.
func (p Physics) TickSeconds() float64 {
	return float64(p.Tick()) / 1e9
}

// Tick returns the simulated duration of one tick in ns.
func (p Physics) Tick() int64 {
	if p.TickNanos <= 0 {
		return TickNanos
	}
	return p.TickNanos
}

func (p Physics) multiplier() float64 {
	if p.Multiplier <= 0 {
		return SpeedMultiplier
	}
	return p.Multiplier
}

// Speed returns the speed in kph of a running driver.
func (p Physics) Speed(d DriverProfile, c CarProfile, wear float64) float64 {
	skill := 0.80 + d.Consistency*0.25
	return BaseSpeedKph * c.EnginePower * skill * (1 - Clamp01(wear)*wearSpeedPenalty)
}

// ShouldPit evaluates the pit decision for a driver not already in the pit.
func (p Physics) ShouldPit(d DriverProfile, st DriverState, policy PitPolicy) bool {
	if st.InPit {
		return false
	}
	if policy.Scheduled {
		return st.Lap == policy.Lap && !st.HasPitted
	}
	return st.TireWear > PitThreshold(d)
}

// Advance moves a running driver for one tick at speed: distance, wear and
// sector/lap rollover. Wear accrues with distance, not with ticks.
func (p Physics) Advance(d DriverProfile, st *DriverState, speed float64) {
	delta := speed * (p.TickSeconds() / 3600) * p.multiplier()

	wearPerLap := wearPerLapScale * d.Aggression * p.Track.TireWearFactor
	st.TireWear = Clamp01(st.TireWear + (delta/p.Track.LapLengthKm)*wearPerLap)

	st.DistanceInLap += delta
	sectorLen := p.Track.SectorLength()
	for st.DistanceInLap >= sectorLen {
		st.DistanceInLap -= sectorLen
		st.Sector++
		if st.Sector > p.Track.Sectors {
			st.Sector = 1
			st.Lap++
		}
	}
}

// TotalDistance is the race distance covered in km.
func (p Physics) TotalDistance(st DriverState) float64 {
	sectorOffset := float64(st.Sector-1) * p.Track.SectorLength()
	return float64(st.Lap)*p.Track.LapLengthKm + sectorOffset + st.DistanceInLap
}

// Step advances one driver by one tick at simulated time now.
func (p Physics) Step(driver int, e Entry, st *DriverState, policy PitPolicy, now int64, pits PitCostModel) StepResult {
	var res StepResult
	if p.ShouldPit(e.Driver, *st, policy) {
		if policy.Scheduled {
			st.HasPitted = true
		}
		res.EnteredPit = true
		if !pits.Enter(driver, e.Car, st, now) {
			return res
		}
	}
	if st.InPit {
		if !pits.Exit(driver, st, now) {
			return res
		}
		st.InPit = false
		st.TireWear = 0
		res.ExitedPit = true
	}
	res.SpeedKph = p.Speed(e.Driver, e.Car, st.TireWear)
	p.Advance(e.Driver, st, res.SpeedKph)
	pits.Moved(st, p.TickSeconds())
	return res
}

// TireTemp returns the uniform tire temperature reported in frames.
func TireTemp(speed float64, inPit bool) float64 {
	if inPit {
		return 60
	}
	return math.Min(120, math.Max(60, 80+speed*0.05))
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
