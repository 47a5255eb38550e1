// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerPort                = 8090
	defaultServerHost                = "127.0.0.1"
	defaultReadTimeout               = 30 * time.Second
	defaultWriteTimeout              = 30 * time.Second
	defaultDatabasePath              = "./data/cueline.db"
	defaultDatabaseConnectionTimeout = 5 * time.Second
	defaultLogLevel                  = "info"
	defaultLogPretty                 = false
	defaultDesignWidth               = 320
	defaultOverlayDuration           = 5 * time.Second
	defaultFirstTickLookBehind       = 280 * time.Millisecond
	defaultOverlayErrorThreshold     = 3
	defaultOverlayErrorCooldown      = 30 * time.Second
	defaultMediaLibraryPath          = "./data/media"
	envPrefix                        = "CUELINE"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Media    MediaConfig
	Playback PlaybackConfig
}

// ServerConfig holds HTTP server configuration. The server binds loopback
// by default: its only clients are the extension running in a local browser
// and the editing UI it injects.
type ServerConfig struct {
	Port         int
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Path              string
	ConnectionTimeout time.Duration
	EnableWAL         bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// MediaConfig holds overlay media library configuration
type MediaConfig struct {
	LibraryPath      string
	SupportedFormats []string
}

// PlaybackConfig holds the playback engine's tunables
type PlaybackConfig struct {
	// DesignWidth is the reference frame width overlay geometry is
	// authored in; rendered overlays scale by videoWidth/DesignWidth.
	DesignWidth int
	// DefaultOverlayDuration is the overlay display time used when a cue
	// carries no duration of its own.
	DefaultOverlayDuration time.Duration
	// FirstTickLookBehind widens the first match window after a video is
	// bound, before an exact previous tick exists.
	FirstTickLookBehind time.Duration
	// OverlayErrorThreshold is how many overlay media failures a session
	// tolerates before overlay dispatch is suppressed for the cooldown.
	OverlayErrorThreshold int
	// OverlayErrorCooldown is how long overlay dispatch stays suppressed
	// after the error threshold trips.
	OverlayErrorCooldown time.Duration
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production and CI where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cueline")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Config file is optional, defaults and env vars cover everything
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.host", defaultServerHost)
	v.SetDefault("server.readtimeout", defaultReadTimeout)
	v.SetDefault("server.writetimeout", defaultWriteTimeout)

	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("database.connectiontimeout", defaultDatabaseConnectionTimeout)
	v.SetDefault("database.enablewal", true)

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	v.SetDefault("media.librarypath", defaultMediaLibraryPath)
	v.SetDefault("media.supportedformats", []string{"mp4", "webm", "mp3", "ogg", "wav", "png", "jpg", "jpeg", "gif", "webp"})

	v.SetDefault("playback.designwidth", defaultDesignWidth)
	v.SetDefault("playback.defaultoverlayduration", defaultOverlayDuration)
	v.SetDefault("playback.firstticklookbehind", defaultFirstTickLookBehind)
	v.SetDefault("playback.overlayerrorthreshold", defaultOverlayErrorThreshold)
	v.SetDefault("playback.overlayerrorcooldown", defaultOverlayErrorCooldown)
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("invalid read timeout: %v (must be > 0)", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("invalid write timeout: %v (must be > 0)", c.Server.WriteTimeout)
	}
	if c.Database.ConnectionTimeout <= 0 {
		return fmt.Errorf("invalid database connection timeout: %v (must be > 0)", c.Database.ConnectionTimeout)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	if c.Playback.DesignWidth <= 0 {
		return fmt.Errorf("invalid design width: %d (must be > 0)", c.Playback.DesignWidth)
	}
	if c.Playback.DefaultOverlayDuration <= 0 {
		return fmt.Errorf("invalid default overlay duration: %v (must be > 0)", c.Playback.DefaultOverlayDuration)
	}
	if c.Playback.FirstTickLookBehind < 0 {
		return fmt.Errorf("invalid first-tick look-behind: %v (must be >= 0)", c.Playback.FirstTickLookBehind)
	}
	if c.Playback.OverlayErrorThreshold < 1 {
		return fmt.Errorf("invalid overlay error threshold: %d (must be >= 1)", c.Playback.OverlayErrorThreshold)
	}

	return nil
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
