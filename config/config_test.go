package config

import (
	"testing"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.GetInt(ConfigSearchTimeLimitMs), 5000)
	is.Equal(cfg.GetString(ConfigNatsChannel), "sumito.bot")
	is.Equal(cfg.GetFloat64(ConfigRecklessFraction), 0.05)
}

func TestLoadOverrides(t *testing.T) {
	is := is.New(t)
	t.Setenv("SUMITO_TURN_LIMIT", "25")
	cfg := &Config{}
	err := cfg.Load([]string{"--search-time-limit-ms=1200", "positional"})
	is.NoErr(err)
	is.Equal(cfg.GetInt(ConfigSearchTimeLimitMs), 1200)
	is.Equal(cfg.GetInt(ConfigTurnLimit), 25)
}

func TestLoadBadOverride(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	err := cfg.Load([]string{"--debug"})
	is.True(err != nil)
}

func TestGetList(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	is.Equal(cfg.GetList(ConfigAutoplayLayouts), []string{"standard"})
	is.Equal(len(cfg.GetList(ConfigAutoplayHeuristics)), 0)

	cfg.Set(ConfigAutoplayLayouts, " standard, german-daisy ,,")
	is.Equal(cfg.GetList(ConfigAutoplayLayouts), []string{"standard", "german-daisy"})
	cfg.Set(ConfigAutoplayTimeLimits, []any{"250ms", "1s"})
	is.Equal(cfg.GetList(ConfigAutoplayTimeLimits), []string{"250ms", "1s"})
	cfg.Set(ConfigAutoplayTurnLimits, 30)
	is.Equal(cfg.GetList(ConfigAutoplayTurnLimits), []string{"30"})
}

func TestLoadAutoplayOverrides(t *testing.T) {
	is := is.New(t)
	cfg := &Config{}
	is.NoErr(cfg.Load([]string{"--autoplay-rounds=4", "--autoplay-layouts=belgian-daisy,standard", "center"}))
	is.Equal(cfg.GetInt(ConfigAutoplayRounds), 4)
	is.Equal(cfg.GetList(ConfigAutoplayLayouts), []string{"belgian-daisy", "standard"})
}
