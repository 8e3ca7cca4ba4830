package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/racesim/racesim/sim/pipeline"
	"github.com/racesim/racesim/sim/roster"
	"github.com/racesim/racesim/sim/strategy"
)

func printStrategyReport(w io.Writer, r *roster.Roster, results []strategy.Result) {
	fmt.Fprintln(w, "=== Pit strategy ===")
	for _, res := range results {
		fmt.Fprintf(w, "%-4s %-24s pit lap %2d  finish %.2f min\n", r.Drivers[res.Driver].ID,
			r.DisplayName(res.Driver), res.PitLap, res.FinishSeconds/60)
		for _, c := range res.Candidates {
			marker := " "
			if c.PitLap == res.PitLap {
				marker = "*"
			}
			fmt.Fprintf(w, "   %s lap %2d  %.3f s\n", marker, c.PitLap, c.FinishSeconds)
		}
	}
}

func printStrategyJSON(w io.Writer, results []strategy.Result) error {
	enc := json.NewEncoder(w)
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	return nil
}

func printRaceResult(w io.Writer, r *roster.Roster, raceID string, res pipeline.Result) {
	fmt.Fprintf(w, "=== Race %s ===\n", raceID)
	if res.Winner >= 0 {
		fmt.Fprintf(w, "Winner: %s (%s)\n", r.DisplayName(res.Winner), res.WinnerID)
	}
	fmt.Fprintf(w, "Simulated time: %.2f s over %d ticks\n", float64(res.Clock)/1e9, res.Ticks)
	fmt.Fprintf(w, "Dropped frames: %d\n", res.Dropped)
	for i, v := range res.Violations {
		if v.Warnings == 0 {
			continue
		}
		fmt.Fprintf(w, "%-4s warnings %d on laps %v, penalty %s\n", r.Drivers[i].ID, v.Warnings, v.Laps, res.Penalties[i].State)
	}
	if t := res.Trace; t != nil {
		fmt.Fprintf(w, "Trace: %d pit stops (mean %.2f s), %d violations, %d penalties issued, %d served, %d drops\n",
			t.PitStops, t.MeanPitSeconds, t.Violations, t.PenaltiesIssued, t.PenaltiesServed, t.DroppedFrames)
	}
}
