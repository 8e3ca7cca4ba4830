// Package roster loads the track and the grid of drivers and cars from YAML.
package roster

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/racesim/racesim/sim"
)

//go:embed season2025.yaml
var defaultRoster []byte

// DriverEntry is one driver on the grid together with the car they race.
type DriverEntry struct {
	Name              string `yaml:"name"`
	sim.DriverProfile `yaml:",inline"`
	Car               sim.CarProfile `yaml:"car"`
}

// Roster is the full roster file. All top-level sections must be listed to
// satisfy strict parsing.
type Roster struct {
	Track     sim.TrackProfile `yaml:"track"`
	TotalLaps int              `yaml:"total_laps"`
	Drivers   []DriverEntry    `yaml:"drivers"`
}

// Load reads and validates a roster file.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates roster YAML. Unrecognized keys are rejected.
func Parse(data []byte) (*Roster, error) {
	var r Roster
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&r); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Default returns the embedded 2025 season roster.
func Default() *Roster {
	r, err := Parse(defaultRoster)
	if err != nil {
		panic(fmt.Sprintf("roster: embedded default is invalid: %v", err))
	}
	return r
}

// Validate checks the race configuration and that driver ids are unique.
func (r *Roster) Validate() error {
	if err := r.RaceConfig().Validate(); err != nil {
		return err
	}
	dups := lo.FindDuplicatesBy(r.Drivers, func(d DriverEntry) string { return strings.ToUpper(d.ID) })
	if len(dups) > 0 {
		return fmt.Errorf("%w: duplicate driver id %q", sim.ErrInvalidConfig, dups[0].ID)
	}
	return nil
}

// RaceConfig returns the roster as an engine configuration. Driver indices
// follow the order of the drivers list.
func (r *Roster) RaceConfig() sim.RaceConfig {
	return sim.RaceConfig{
		Track: r.Track,
		Entries: lo.Map(r.Drivers, func(d DriverEntry, _ int) sim.Entry {
			return sim.Entry{Driver: d.DriverProfile, Car: d.Car}
		}),
		TotalLaps: r.TotalLaps,
	}
}

// WithLaps returns a copy of r racing over laps instead.
func (r *Roster) WithLaps(laps int) *Roster {
	out := *r
	out.TotalLaps = laps
	return &out
}

// Lookup resolves a driver reference: an index, an id or a full name, the
// latter two case-insensitively.
func (r *Roster) Lookup(ref string) (int, error) {
	ref = strings.TrimSpace(ref)
	if i, err := strconv.Atoi(ref); err == nil {
		if i < 0 || i >= len(r.Drivers) {
			return 0, fmt.Errorf("driver index %d out of range [0,%d)", i, len(r.Drivers))
		}
		return i, nil
	}
	_, i, ok := lo.FindIndexOf(r.Drivers, func(d DriverEntry) bool {
		return strings.EqualFold(d.ID, ref) || strings.EqualFold(d.Name, ref)
	})
	if !ok {
		return 0, fmt.Errorf("unknown driver %q", ref)
	}
	return i, nil
}

// Resolve looks up every reference, dropping repeats. "all" selects the whole
// grid.
func (r *Roster) Resolve(refs []string) ([]int, error) {
	if lo.ContainsBy(refs, func(s string) bool { return strings.EqualFold(strings.TrimSpace(s), "all") }) {
		return lo.Range(len(r.Drivers)), nil
	}
	out := make([]int, 0, len(refs))
	for _, ref := range refs {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		i, err := r.Lookup(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return lo.Uniq(out), nil
}

// DisplayName returns the full name of driver i, or its id if unnamed.
func (r *Roster) DisplayName(i int) string {
	return lo.Ternary(r.Drivers[i].Name != "", r.Drivers[i].Name, r.Drivers[i].ID)
}
