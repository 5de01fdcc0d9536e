package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Training Training       `mapstructure:"training"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Training holds every tunable of the drill engine, populated once at startup
// and passed by reference into the scheduler and session engine.
type Training struct {
	// SessionSizes maps session type to target word count.
	SessionSizes map[string]int `mapstructure:"session_sizes"`
	// BoxIntervals maps Leitner box ("1".."5") to its review cadence in
	// sessions; a word is due when its session counter divides evenly.
	BoxIntervals         map[string]int `mapstructure:"box_intervals"`
	InitialWorkingSet    int            `mapstructure:"initial_working_set"`
	ExpandStep           int            `mapstructure:"expand_step"`
	ExpandThreshold      float64        `mapstructure:"expand_threshold"`
	RefresherProbability float64        `mapstructure:"refresher_probability"`
	MaxDelayedRetries    int            `mapstructure:"max_delayed_retries"`
	RetryGap             int            `mapstructure:"retry_gap"`
	AlmostThreshold      int            `mapstructure:"almost_threshold"`
	SessionIdleTimeout   time.Duration  `mapstructure:"session_idle_timeout"`
}

// SessionSize resolves the target word count for a session type, falling back
// to the standard size.
func (t *Training) SessionSize(sessionType string) int {
	if n, ok := t.SessionSizes[sessionType]; ok && n > 0 {
		return n
	}
	if n, ok := t.SessionSizes["standard"]; ok && n > 0 {
		return n
	}
	return 20
}

// Interval resolves the review cadence for a Leitner box. Unknown boxes fall
// back to 1, which keeps box 1 always due.
func (t *Training) Interval(box int) int {
	if n, ok := t.BoxIntervals[strconv.Itoa(box)]; ok && n > 0 {
		return n
	}
	return 1
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "vocab")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")

	// Training defaults
	viper.SetDefault("training.session_sizes", map[string]int{
		"standard":        20,
		"quick":           10,
		"weak_words":      10,
		"review_mastered": 15,
		"category":        15,
	})
	viper.SetDefault("training.box_intervals", map[string]int{
		"1": 1, "2": 2, "3": 4, "4": 8, "5": 16,
	})
	viper.SetDefault("training.initial_working_set", 25)
	viper.SetDefault("training.expand_step", 5)
	viper.SetDefault("training.expand_threshold", 0.60)
	viper.SetDefault("training.refresher_probability", 0.10)
	viper.SetDefault("training.max_delayed_retries", 2)
	viper.SetDefault("training.retry_gap", 4)
	viper.SetDefault("training.almost_threshold", 75)
	viper.SetDefault("training.session_idle_timeout", "2h")
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
