package sbm

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages inference parameters using Viper.
type Config struct {
	v *viper.Viper
}

// NewConfig creates a configuration with defaults.
func NewConfig() *Config {
	v := viper.New()

	// MCMC parameters
	v.SetDefault("mcmc.eps", 0.1)   // ergodicity constant
	v.SetDefault("mcmc.beta", 1.5)  // inverse temperature
	v.SetDefault("mcmc.random_seed", int64(42))

	// Agglomerative merge parameters
	v.SetDefault("merge.sigma", 2.0)          // per-round block count divisor
	v.SetDefault("merge.greedy", true)        // exhaustive candidate search
	v.SetDefault("merge.checks_per_block", 5) // sampled candidates when not greedy

	// Logging parameters
	v.SetDefault("logging.level", "info")

	return &Config{v: v}
}

// LoadFromFile loads configuration from file.
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) Eps() float64        { return c.v.GetFloat64("mcmc.eps") }
func (c *Config) Beta() float64       { return c.v.GetFloat64("mcmc.beta") }
func (c *Config) RandomSeed() int64   { return c.v.GetInt64("mcmc.random_seed") }
func (c *Config) Sigma() float64      { return c.v.GetFloat64("merge.sigma") }
func (c *Config) Greedy() bool        { return c.v.GetBool("merge.greedy") }
func (c *Config) ChecksPerBlock() int { return c.v.GetInt("merge.checks_per_block") }
func (c *Config) LogLevel() string    { return c.v.GetString("logging.level") }

// Set allows dynamic configuration changes.
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// CreateLogger creates a zerolog logger based on config.
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "sbm").Logger()
}
