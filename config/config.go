package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	viper.Viper
	sync.Mutex
}

const (
	ConfigDebug                = "debug"
	ConfigNatsURL              = "nats-url"
	ConfigNatsChannel          = "nats-channel"
	ConfigSearchTimeLimitMs    = "search-time-limit-ms"
	ConfigTurnLimit            = "turn-limit"
	ConfigRecklessFraction     = "reckless-fraction"
	ConfigCarefulMarginMs      = "careful-margin-ms"
	ConfigTtablePath           = "ttable-path"
	ConfigTtableMemoryFraction = "ttable-memory-fraction"
	ConfigOpeningBookPath      = "openingbook-path"
	ConfigDefaultHeuristic     = "default-heuristic"
	ConfigDefaultLayout        = "default-layout"
	ConfigAutoplayLogPath      = "autoplay-log-path"
	ConfigAutoplayThreads      = "autoplay-threads"
	ConfigAutoplayRounds       = "autoplay-rounds"
	ConfigAutoplayHeuristics   = "autoplay-heuristics"
	ConfigAutoplayLayouts      = "autoplay-layouts"
	ConfigAutoplayTimeLimits   = "autoplay-time-limits"
	ConfigAutoplayTurnLimits   = "autoplay-turn-limits"
	ConfigAutoplayMaxDepth     = "autoplay-max-depth"
	ConfigAutoplayRandomPlies  = "autoplay-random-plies"
	ConfigAutoplaySeedsPath    = "autoplay-seeds-path"
	ConfigAutoplaySaveSeeds    = "autoplay-save-seeds-path"
)

var allKeys = []string{
	ConfigDebug, ConfigNatsURL, ConfigNatsChannel, ConfigSearchTimeLimitMs,
	ConfigTurnLimit, ConfigRecklessFraction, ConfigCarefulMarginMs,
	ConfigTtablePath, ConfigTtableMemoryFraction, ConfigOpeningBookPath,
	ConfigDefaultHeuristic, ConfigDefaultLayout, ConfigAutoplayLogPath,
	ConfigAutoplayThreads, ConfigAutoplayRounds, ConfigAutoplayHeuristics,
	ConfigAutoplayLayouts, ConfigAutoplayTimeLimits, ConfigAutoplayTurnLimits,
	ConfigAutoplayMaxDepth, ConfigAutoplayRandomPlies, ConfigAutoplaySeedsPath,
	ConfigAutoplaySaveSeeds,
}

func (c *Config) setDefaults() {
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigNatsURL, "nats://localhost:4222")
	c.SetDefault(ConfigNatsChannel, "sumito.bot")
	c.SetDefault(ConfigSearchTimeLimitMs, 5000)
	c.SetDefault(ConfigTurnLimit, 40)
	c.SetDefault(ConfigRecklessFraction, 0.05)
	c.SetDefault(ConfigCarefulMarginMs, 50)
	c.SetDefault(ConfigTtablePath, "")
	c.SetDefault(ConfigTtableMemoryFraction, 0.1)
	// empty means the embedded book.
	c.SetDefault(ConfigOpeningBookPath, "")
	c.SetDefault(ConfigDefaultHeuristic, "weighted")
	c.SetDefault(ConfigDefaultLayout, "standard")
	c.SetDefault(ConfigAutoplayLogPath, "/tmp/sumito-autoplay.csv")
	c.SetDefault(ConfigAutoplayThreads, 2)
	c.SetDefault(ConfigAutoplayRounds, 10)
	// list keys take a YAML list or a comma-separated string.
	// empty heuristics means every built-in.
	c.SetDefault(ConfigAutoplayHeuristics, "")
	c.SetDefault(ConfigAutoplayLayouts, "standard")
	c.SetDefault(ConfigAutoplayTimeLimits, "1s")
	// empty means turn-limit.
	c.SetDefault(ConfigAutoplayTurnLimits, "")
	c.SetDefault(ConfigAutoplayMaxDepth, 0)
	c.SetDefault(ConfigAutoplayRandomPlies, 0)
	c.SetDefault(ConfigAutoplaySeedsPath, "")
	c.SetDefault(ConfigAutoplaySaveSeeds, "")
}

// GetList reads a key holding either a list or a comma-separated string.
// Blank entries are dropped.
func (c *Config) GetList(key string) []string {
	var raw []string
	switch v := c.Get(key).(type) {
	case nil:
	case string:
		raw = strings.Split(v, ",")
	case []string:
		raw = v
	case []any:
		for _, e := range v {
			raw = append(raw, fmt.Sprint(e))
		}
	default:
		raw = strings.Split(fmt.Sprint(v), ",")
	}
	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Load loads the config from the environment, an optional config file,
// and any --key=value command-line overrides in args.
func (c *Config) Load(args []string) error {
	c.Viper = *viper.New()
	c.SetConfigName("config")
	c.SetConfigType("yaml")
	c.AddConfigPath("$HOME/.sumito")
	c.AddConfigPath(".")

	c.SetEnvPrefix("sumito")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, k := range allKeys {
		c.BindEnv(k)
	}
	c.setDefaults()
	c.AutomaticEnv()

	err := c.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
		log.Debug().Msg("no config file found; using defaults and environment")
	}

	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		kv := strings.SplitN(strings.TrimPrefix(arg, "--"), "=", 2)
		if len(kv) != 2 {
			return errors.New("config overrides must look like --key=value: " + arg)
		}
		c.Set(kv[0], kv[1])
	}
	return nil
}

// DefaultConfig returns a config holding only the built-in defaults.
// It does not read the environment or any file.
func DefaultConfig() *Config {
	c := &Config{}
	c.Viper = *viper.New()
	c.setDefaults()
	return c
}

// Keys lists every recognized configuration key.
func Keys() []string {
	return allKeys
}
