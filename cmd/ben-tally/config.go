package main

import (
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ScottSallinen/bentally/tally"
)

const ENV_PREFIX = "BEN_TALLY"

// Config layers run settings: flags over environment (BEN_TALLY_<FLAG>) over an optional config file over defaults.
// Keys are the flag names.
type Config struct {
	v *viper.Viper
}

func NewConfig() *Config {
	v := viper.New()
	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("threads", runtime.NumCPU())
	v.SetDefault("batch-size", tally.DEFAULT_BATCH_SIZE)
	v.SetDefault("debug", 0)
	v.SetDefault("nc", false)
	v.SetDefault("poll", 2000)
	v.SetDefault("count-first", true)
	v.SetDefault("normalize", false)
	v.SetDefault("max-accepted", 0)
	v.SetDefault("random-reassignment", true)
	v.SetDefault("seed", 0)
	return &Config{v: v}
}

// LoadFromFile reads a yaml, toml or json file, chosen by extension.
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) BindFlags(flags *pflag.FlagSet) error {
	return c.v.BindPFlags(flags)
}

func (c *Config) Threads() int   { return c.v.GetInt("threads") }
func (c *Config) BatchSize() int { return c.v.GetInt("batch-size") }
func (c *Config) Debug() int     { return c.v.GetInt("debug") }
func (c *Config) NoColour() bool { return c.v.GetBool("nc") }
func (c *Config) PollingRate() time.Duration {
	return time.Duration(c.v.GetInt64("poll")) * time.Millisecond
}
func (c *Config) CountFirst() bool         { return c.v.GetBool("count-first") }
func (c *Config) Normalize() bool          { return c.v.GetBool("normalize") }
func (c *Config) MaxAccepted() uint64      { return c.v.GetUint64("max-accepted") }
func (c *Config) RandomReassignment() bool { return c.v.GetBool("random-reassignment") }
func (c *Config) Seed() uint64             { return c.v.GetUint64("seed") }

// Options gathers everything the engine needs.
func (c *Config) Options() tally.Options {
	return tally.Options{
		Threads:           c.Threads(),
		BatchSize:         c.BatchSize(),
		CountFirst:        c.CountFirst(),
		PollingRate:       c.PollingRate(),
		MaxAccepted:       c.MaxAccepted(),
		Normalize:         c.Normalize(),
		RelabelCorrection: c.RandomReassignment(),
		Seed:              c.Seed(),
	}
}
