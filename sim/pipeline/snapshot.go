package pipeline

import (
	"slices"

	"github.com/samber/lo"

	"github.com/racesim/racesim/sim"
	"github.com/racesim/racesim/sim/racecontrol"
)

// Standing is one row of a Snapshot.
type Standing struct {
	Frame    sim.TelemetryFrame
	Warnings int
	Penalty  racecontrol.PenaltyState
}

// Snapshot is the consumer's view of the race, ordered by position.
type Snapshot struct {
	Clock     int64 // timestamp of the newest frame seen
	LeaderLap int
	TotalLaps int
	Standings []Standing
	Final     bool
}

// Presenter receives every consumed frame and periodic snapshots. It is
// called from the consumer goroutine only. An error stops the race.
type Presenter interface {
	Frame(f sim.TelemetryFrame) error
	Snapshot(s Snapshot) error
}

type discardPresenter struct{}

func (discardPresenter) Frame(sim.TelemetryFrame) error { return nil }
func (discardPresenter) Snapshot(Snapshot) error        { return nil }

// gridFrames returns the placeholder frames shown before a driver's first
// frame is consumed.
func gridFrames(drivers int) []sim.TelemetryFrame {
	return lo.Times(drivers, func(i int) sim.TelemetryFrame {
		return sim.TelemetryFrame{Driver: i, Sector: 1, Position: i + 1}
	})
}

func buildSnapshot(latest []sim.TelemetryFrame, totalLaps int, d *racecontrol.Detector, l *racecontrol.Ledger, final bool) Snapshot {
	standings := lo.Map(latest, func(f sim.TelemetryFrame, i int) Standing {
		return Standing{Frame: f, Warnings: d.Violations(i).Warnings, Penalty: l.Penalty(i).State}
	})
	slices.SortStableFunc(standings, func(a, b Standing) int {
		return a.Frame.Position - b.Frame.Position
	})
	s := Snapshot{TotalLaps: totalLaps, Standings: standings, Final: final}
	s.Clock = lo.MaxBy(latest, func(a, b sim.TelemetryFrame) bool { return a.Timestamp > b.Timestamp }).Timestamp
	if len(standings) > 0 {
		s.LeaderLap = standings[0].Frame.Lap
	}
	return s
}
