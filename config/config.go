package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"chime/sound"
)

// Config holds all configuration for the application
type Config struct {
	// Audio output and pool configuration
	Audio AudioConfig `mapstructure:"audio"`

	// Configured sounds
	Sounds []SoundConfig `mapstructure:"sounds"`

	// Shutdown behavior
	Shutdown ShutdownConfig `mapstructure:"shutdown"`

	// Pool monitoring
	Monitor MonitorConfig `mapstructure:"monitor"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// AudioConfig holds output and pool configuration
type AudioConfig struct {
	SampleRate   int           `mapstructure:"sample_rate"`
	Buffer       time.Duration `mapstructure:"buffer"`
	Channels     int           `mapstructure:"channels"`
	AssetsDir    string        `mapstructure:"assets_dir"`
	MasterVolume float64       `mapstructure:"master_volume"`
}

// SoundConfig describes one sound
type SoundConfig struct {
	Key              string   `mapstructure:"key"`
	Volume           float64  `mapstructure:"volume"`
	Pitch            float64  `mapstructure:"pitch"`
	Loop             bool     `mapstructure:"loop"`
	Spam             string   `mapstructure:"spam"` // override or avoid
	Preload          bool     `mapstructure:"preload"`
	UnloadOnShutdown bool     `mapstructure:"unload_on_shutdown"`
	Labels           []string `mapstructure:"labels"`
	Description      string   `mapstructure:"description"`
}

// ShutdownConfig selects which sounds are unloaded on shutdown
type ShutdownConfig struct {
	Unload string `mapstructure:"unload"` // all, preloaded or listed
}

// MonitorConfig holds pool monitoring configuration
type MonitorConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig() (*Config, error) {
	// Set defaults
	viper.SetDefault("audio.sample_rate", 44100)
	viper.SetDefault("audio.buffer", "100ms")
	viper.SetDefault("audio.channels", 8)
	viper.SetDefault("audio.assets_dir", "./sounds")
	viper.SetDefault("audio.master_volume", 1.0)
	viper.SetDefault("shutdown.unload", "preloaded")
	viper.SetDefault("monitor.enabled", false)
	viper.SetDefault("monitor.interval", "10s")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Read config file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.chime")
	viper.AddConfigPath("/etc/chime")

	// Allow environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("CHIME")

	// Read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		slog.Debug("No config file found, using defaults and environment variables")
	} else {
		slog.Info("Using config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return &ConfigError{Field: "audio.sample_rate", Message: "must be positive"}
	}
	if c.Audio.Channels <= 0 {
		return &ConfigError{Field: "audio.channels", Message: "pool needs at least one channel"}
	}
	if c.Audio.AssetsDir == "" {
		return &ConfigError{Field: "audio.assets_dir", Message: "assets directory is required"}
	}
	if _, err := sound.ParseUnloadSet(c.Shutdown.Unload); err != nil {
		return &ConfigError{Field: "shutdown.unload", Message: err.Error()}
	}

	seen := make(map[string]bool, len(c.Sounds))
	for i, sc := range c.Sounds {
		field := fmt.Sprintf("sounds[%d]", i)
		if sc.Key == "" {
			return &ConfigError{Field: field + ".key", Message: "key is required"}
		}
		if seen[sc.Key] {
			return &ConfigError{Field: field + ".key", Message: fmt.Sprintf("duplicate key %q", sc.Key)}
		}
		seen[sc.Key] = true
		if _, err := sound.ParseSpamPolicy(sc.Spam); err != nil {
			return &ConfigError{Field: field + ".spam", Message: err.Error()}
		}
	}
	return nil
}

// Defs converts the configured sounds into sound definitions. Volume and
// pitch default to 1 when unset; clamping happens in the sound constructor.
func (c *Config) Defs() []sound.Def {
	defs := make([]sound.Def, 0, len(c.Sounds))
	for _, sc := range c.Sounds {
		spam, _ := sound.ParseSpamPolicy(sc.Spam)
		volume := sc.Volume
		if volume == 0 {
			volume = 1
		}
		pitch := sc.Pitch
		if pitch == 0 {
			pitch = 1
		}
		defs = append(defs, sound.Def{
			Key:              sc.Key,
			Volume:           volume,
			Pitch:            pitch,
			Loop:             sc.Loop,
			Spam:             spam,
			Preload:          sc.Preload,
			UnloadOnShutdown: sc.UnloadOnShutdown,
			Labels:           sc.Labels,
			Description:      sc.Description,
		})
	}
	return defs
}

// UnloadSet returns the parsed shutdown unload policy.
func (c *Config) UnloadSet() sound.UnloadSet {
	set, _ := sound.ParseUnloadSet(c.Shutdown.Unload)
	return set
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
