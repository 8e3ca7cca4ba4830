package trace

// TraceSummary aggregates statistics from a RaceTrace.
type TraceSummary struct {
	PitStops         int
	PitStopsByDriver map[int]int
	MeanPitSeconds   float64 // planned stationary time per stop, penalties included
	Violations       int
	PenaltiesIssued  int
	PenaltiesServed  int
	DroppedFrames    int
	DropsByDriver    map[int]int
}

// Summarize computes aggregate statistics from a RaceTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(rt *RaceTrace) *TraceSummary {
	summary := &TraceSummary{
		PitStopsByDriver: make(map[int]int),
		DropsByDriver:    make(map[int]int),
	}
	recs := rt.Records()

	var pitNanos int64
	for _, p := range recs.PitStops {
		if p.Event != PitEnter {
			continue
		}
		summary.PitStops++
		summary.PitStopsByDriver[p.Driver]++
		pitNanos += p.PlannedExit - p.Clock
	}
	if summary.PitStops > 0 {
		summary.MeanPitSeconds = float64(pitNanos) / float64(summary.PitStops) / 1e9
	}

	summary.Violations = len(recs.Violations)
	for _, p := range recs.Penalties {
		switch p.State {
		case "pending":
			summary.PenaltiesIssued++
		case "served":
			summary.PenaltiesServed++
		}
	}

	summary.DroppedFrames = len(recs.Drops)
	for _, d := range recs.Drops {
		summary.DropsByDriver[d.Driver]++
	}
	return summary
}
