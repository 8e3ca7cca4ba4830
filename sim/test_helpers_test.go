package sim

// flatTrack is a 3-sector, 10 km circuit with normal wear.
func flatTrack() TrackProfile {
	return TrackProfile{ID: "flat", Sectors: 3, LapLengthKm: 10, TireWearFactor: 1}
}

func testEntry(aggression, tireMgmt, consistency, risk float64) Entry {
	return Entry{
		Driver: DriverProfile{ID: "d", Aggression: aggression, TireManagement: tireMgmt, Consistency: consistency, RiskTolerance: risk},
		Car:    CarProfile{ID: "c", EnginePower: 1, Reliability: 1},
	}
}

// recordingPits is a PitCostModel that records calls and lets the test decide
// the outcome.
type recordingPits struct {
	dwell          bool // Enter parks the driver in the pit lane
	enterContinues bool
	exitAllowed    bool
	entered        int
	exits          int
	moved          int
}

func (r *recordingPits) Enter(_ int, _ CarProfile, st *DriverState, _ int64) bool {
	r.entered++
	if r.dwell {
		st.InPit = true
	}
	return r.enterContinues
}

func (r *recordingPits) Exit(_ int, _ *DriverState, _ int64) bool {
	r.exits++
	return r.exitAllowed
}

func (r *recordingPits) Moved(_ *DriverState, _ float64) { r.moved++ }
