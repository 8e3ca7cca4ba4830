package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() RaceConfig {
	return RaceConfig{
		Track:     flatTrack(),
		Entries:   []Entry{testEntry(0.5, 0.5, 0.5, 0.5)},
		TotalLaps: 10,
	}
}

func TestRaceConfig_Validate_AcceptsValidConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestRaceConfig_Validate_RejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *RaceConfig)
	}{
		{"zero sectors", func(c *RaceConfig) { c.Track.Sectors = 0 }},
		{"zero lap length", func(c *RaceConfig) { c.Track.LapLengthKm = 0 }},
		{"negative wear factor", func(c *RaceConfig) { c.Track.TireWearFactor = -1 }},
		{"overtaking above one", func(c *RaceConfig) { c.Track.OvertakingDifficulty = 1.5 }},
		{"no drivers", func(c *RaceConfig) { c.Entries = nil }},
		{"zero laps", func(c *RaceConfig) { c.TotalLaps = 0 }},
		{"aggression out of range", func(c *RaceConfig) { c.Entries[0].Driver.Aggression = 1.1 }},
		{"negative risk", func(c *RaceConfig) { c.Entries[0].Driver.RiskTolerance = -0.1 }},
		{"zero engine power", func(c *RaceConfig) { c.Entries[0].Car.EnginePower = 0 }},
		{"reliability out of range", func(c *RaceConfig) { c.Entries[0].Car.Reliability = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "error %v must wrap ErrInvalidConfig", err)
		})
	}
}

func TestTrackProfile_SectorLength(t *testing.T) {
	assert.InDelta(t, 10.0/3, flatTrack().SectorLength(), 1e-12)
}

func TestRaceConfig_DriverProfiles(t *testing.T) {
	cfg := validConfig()
	got := cfg.DriverProfiles()
	require.Len(t, got, cfg.Drivers())
	for i, d := range got {
		assert.Equal(t, cfg.Entries[i].Driver, d)
	}
}
