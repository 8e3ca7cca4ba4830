package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/racesim/racesim/sim"
	"github.com/racesim/racesim/sim/pipeline"
	"github.com/racesim/racesim/sim/racecontrol"
	"github.com/racesim/racesim/sim/roster"
)

// textPresenter prints the standings whenever the leader starts a new lap,
// and once more at the flag.
type textPresenter struct {
	w       io.Writer
	roster  *roster.Roster
	lastLap int
}

func newTextPresenter(w io.Writer, r *roster.Roster) *textPresenter {
	return &textPresenter{w: w, roster: r, lastLap: -1}
}

func (p *textPresenter) Frame(sim.TelemetryFrame) error { return nil }

func (p *textPresenter) Snapshot(s pipeline.Snapshot) error {
	if !s.Final && s.LeaderLap == p.lastLap {
		return nil
	}
	p.lastLap = s.LeaderLap

	var b strings.Builder
	header := fmt.Sprintf("Lap %d/%d", min(s.LeaderLap+1, s.TotalLaps), s.TotalLaps)
	if s.Final {
		header = "Chequered flag"
	}
	fmt.Fprintf(&b, "=== %s  t=%.1fs ===\n", header, float64(s.Clock)/1e9)
	for _, st := range s.Standings {
		f := st.Frame
		status := fmt.Sprintf("%6.1f kph", f.SpeedKph)
		if f.Pitting() {
			status = fmt.Sprintf("%10s", strings.ToUpper(string(f.Mode)))
		}
		fmt.Fprintf(&b, "P%-2d %-4s lap %2d s%d %s  tires %3.0f%%", f.Position, p.roster.Drivers[f.Driver].ID,
			f.Lap, f.Sector, status, f.TireWear*100)
		if st.Warnings > 0 {
			fmt.Fprintf(&b, "  warnings %d", st.Warnings)
		}
		if st.Penalty != racecontrol.PenaltyNone {
			fmt.Fprintf(&b, "  penalty %s", st.Penalty)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

type jsonTraits struct {
	Aggression     float64 `json:"aggression"`
	TireManagement float64 `json:"tire_management"`
	Consistency    float64 `json:"consistency"`
	RiskTolerance  float64 `json:"risk_tolerance"`
}

type jsonTrack struct {
	OvertakingDifficulty float64 `json:"overtaking_difficulty"`
	SafetyCarProbability float64 `json:"safety_car_probability"`
}

// jsonFrame is one line of the telemetry export.
type jsonFrame struct {
	RaceID       string     `json:"race_id"`
	TimestampNs  int64      `json:"timestamp_ns"`
	DriverID     string     `json:"driver_id"`
	Driver       string     `json:"driver"`
	Lap          int        `json:"lap"`
	TotalLaps    int        `json:"total_laps"`
	Position     int        `json:"position"`
	Sector       int        `json:"sector"`
	TireWearPct  float64    `json:"tire_wear_pct"`
	SpeedKph     float64    `json:"speed_kph"`
	Throttle     float64    `json:"throttle"`
	Brake        float64    `json:"brake"`
	TireTempC    [4]float64 `json:"tire_temp_c"`
	Mode         string     `json:"mode"`
	Pitting      bool       `json:"pitting"`
	Traits       jsonTraits `json:"traits"`
	ScheduledPit *int       `json:"scheduled_pit_lap,omitempty"`
	Track        jsonTrack  `json:"track"`
}

// jsonPresenter writes one JSON object per frame for the selected drivers.
type jsonPresenter struct {
	enc      *json.Encoder
	raceID   string
	roster   *roster.Roster
	schedule map[int]int
	drivers  map[int]bool
}

func newJSONPresenter(w io.Writer, raceID string, r *roster.Roster, schedule map[int]int, drivers []int) *jsonPresenter {
	sel := make(map[int]bool, len(drivers))
	for _, d := range drivers {
		sel[d] = true
	}
	return &jsonPresenter{enc: json.NewEncoder(w), raceID: raceID, roster: r, schedule: schedule, drivers: sel}
}

func (p *jsonPresenter) Frame(f sim.TelemetryFrame) error {
	if !p.drivers[f.Driver] {
		return nil
	}
	d := p.roster.Drivers[f.Driver]
	out := jsonFrame{
		RaceID:      p.raceID,
		TimestampNs: f.Timestamp,
		DriverID:    d.ID,
		Driver:      p.roster.DisplayName(f.Driver),
		Lap:         f.Lap,
		TotalLaps:   p.roster.TotalLaps,
		Position:    f.Position,
		Sector:      f.Sector,
		TireWearPct: f.TireWear * 100,
		SpeedKph:    f.SpeedKph,
		Throttle:    f.Throttle,
		Brake:       f.Brake,
		TireTempC:   f.TireTempC,
		Mode:        string(f.Mode),
		Pitting:     f.Pitting(),
		Traits: jsonTraits{
			Aggression:     d.Aggression,
			TireManagement: d.TireManagement,
			Consistency:    d.Consistency,
			RiskTolerance:  d.RiskTolerance,
		},
		Track: jsonTrack{
			OvertakingDifficulty: p.roster.Track.OvertakingDifficulty,
			SafetyCarProbability: p.roster.Track.SafetyCarProbability,
		},
	}
	if lap, ok := p.schedule[f.Driver]; ok {
		out.ScheduledPit = &lap
	}
	return p.enc.Encode(out)
}

func (p *jsonPresenter) Snapshot(pipeline.Snapshot) error { return nil }
