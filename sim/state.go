package sim

// DriverMode is the per-driver state machine of the live engine.
type DriverMode string

const (
	ModeRunning DriverMode = "running"
	ModePitting DriverMode = "pitting"
)

// DriverState is the kinematic state of one driver. It is owned by exactly
// one engine; live and offline engines each keep their own copies.
type DriverState struct {
	Lap           int     // completed laps
	Sector        int     // current sector, 1-based
	TireWear      float64 // [0,1]
	DistanceInLap float64 // km travelled inside the current sector
	InPit         bool
	HasPitted     bool    // consumed the scheduled one-shot pit
	PitStart      int64   // simulated ns
	PitEnd        int64   // simulated ns
	Elapsed       float64 // simulated seconds, offline engine only
}

// NewDriverState returns the state of a driver on the grid.
func NewDriverState() DriverState {
	return DriverState{Sector: 1}
}

// Mode reports whether the driver is running or in the pit lane.
func (s DriverState) Mode() DriverMode {
	if s.InPit {
		return ModePitting
	}
	return ModeRunning
}

// TelemetryFrame is one driver's telemetry for one tick. Frames are values
// and are never mutated after the engine hands them out.
type TelemetryFrame struct {
	Timestamp int64 // simulated ns
	Driver    int
	Lap       int
	Sector    int
	SpeedKph  float64
	Throttle  float64
	Brake     float64
	TireWear  float64
	TireTempC [4]float64
	Mode      DriverMode
	Position  int // assigned once every driver's frame for the tick is known
}

// Pitting reports whether the frame was taken in the pit lane.
func (f TelemetryFrame) Pitting() bool { return f.Mode == ModePitting }
