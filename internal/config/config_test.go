package config

import (
	"os"
	"testing"
	"time"
)

func TestConfigDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Server defaults
	if cfg.Server.Port != defaultServerPort {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, defaultServerPort)
	}
	if cfg.Server.Host != defaultServerHost {
		t.Errorf("Server.Host = %s, want %s", cfg.Server.Host, defaultServerHost)
	}

	// Database defaults
	if cfg.Database.Path != defaultDatabasePath {
		t.Errorf("Database.Path = %s, want %s", cfg.Database.Path, defaultDatabasePath)
	}
	if !cfg.Database.EnableWAL {
		t.Errorf("Database.EnableWAL = false, want true")
	}

	// Logging defaults
	if cfg.Logging.Level != defaultLogLevel {
		t.Errorf("Logging.Level = %s, want %s", cfg.Logging.Level, defaultLogLevel)
	}
	if cfg.Logging.Pretty != defaultLogPretty {
		t.Errorf("Logging.Pretty = %v, want %v", cfg.Logging.Pretty, defaultLogPretty)
	}

	// Media defaults
	if cfg.Media.LibraryPath != defaultMediaLibraryPath {
		t.Errorf("Media.LibraryPath = %s, want %s", cfg.Media.LibraryPath, defaultMediaLibraryPath)
	}
	if len(cfg.Media.SupportedFormats) == 0 {
		t.Error("Media.SupportedFormats is empty")
	}

	// Playback defaults
	if cfg.Playback.DesignWidth != defaultDesignWidth {
		t.Errorf("Playback.DesignWidth = %d, want %d", cfg.Playback.DesignWidth, defaultDesignWidth)
	}
	if cfg.Playback.DefaultOverlayDuration != defaultOverlayDuration {
		t.Errorf("Playback.DefaultOverlayDuration = %v, want %v", cfg.Playback.DefaultOverlayDuration, defaultOverlayDuration)
	}
	if cfg.Playback.FirstTickLookBehind != defaultFirstTickLookBehind {
		t.Errorf("Playback.FirstTickLookBehind = %v, want %v", cfg.Playback.FirstTickLookBehind, defaultFirstTickLookBehind)
	}
	if cfg.Playback.OverlayErrorThreshold != defaultOverlayErrorThreshold {
		t.Errorf("Playback.OverlayErrorThreshold = %d, want %d", cfg.Playback.OverlayErrorThreshold, defaultOverlayErrorThreshold)
	}
	if cfg.Playback.OverlayErrorCooldown != defaultOverlayErrorCooldown {
		t.Errorf("Playback.OverlayErrorCooldown = %v, want %v", cfg.Playback.OverlayErrorCooldown, defaultOverlayErrorCooldown)
	}
}

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:         8090,
			Host:         "127.0.0.1",
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
		},
		Database: DatabaseConfig{
			Path:              "./data/cueline.db",
			ConnectionTimeout: defaultDatabaseConnectionTimeout,
			EnableWAL:         true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
		Media: MediaConfig{
			LibraryPath:      "./data/media",
			SupportedFormats: []string{"mp4", "png"},
		},
		Playback: PlaybackConfig{
			DesignWidth:            320,
			DefaultOverlayDuration: 5 * time.Second,
			FirstTickLookBehind:    280 * time.Millisecond,
			OverlayErrorThreshold:  3,
			OverlayErrorCooldown:   30 * time.Second,
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "invalid server port (too low)",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "invalid server port (too high)",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "invalid read timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "invalid write timeout",
			mutate:  func(c *Config) { c.Server.WriteTimeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "invalid database connection timeout",
			mutate:  func(c *Config) { c.Database.ConnectionTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "invalid design width",
			mutate:  func(c *Config) { c.Playback.DesignWidth = 0 },
			wantErr: true,
		},
		{
			name:    "invalid default overlay duration",
			mutate:  func(c *Config) { c.Playback.DefaultOverlayDuration = 0 },
			wantErr: true,
		},
		{
			name:    "negative first-tick look-behind",
			mutate:  func(c *Config) { c.Playback.FirstTickLookBehind = -time.Millisecond },
			wantErr: true,
		},
		{
			name:    "zero look-behind is allowed",
			mutate:  func(c *Config) { c.Playback.FirstTickLookBehind = 0 },
			wantErr: false,
		},
		{
			name:    "invalid overlay error threshold",
			mutate:  func(c *Config) { c.Playback.OverlayErrorThreshold = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPlaybackConfigEnvVars(t *testing.T) {
	_ = os.Setenv("CUELINE_PLAYBACK_DESIGNWIDTH", "640")
	_ = os.Setenv("CUELINE_PLAYBACK_OVERLAYERRORTHRESHOLD", "5")
	_ = os.Setenv("CUELINE_PLAYBACK_FIRSTTICKLOOKBEHIND", "500ms")
	_ = os.Setenv("CUELINE_MEDIA_LIBRARYPATH", "/custom/media")
	defer func() {
		_ = os.Unsetenv("CUELINE_PLAYBACK_DESIGNWIDTH")
		_ = os.Unsetenv("CUELINE_PLAYBACK_OVERLAYERRORTHRESHOLD")
		_ = os.Unsetenv("CUELINE_PLAYBACK_FIRSTTICKLOOKBEHIND")
		_ = os.Unsetenv("CUELINE_MEDIA_LIBRARYPATH")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Playback.DesignWidth != 640 {
		t.Errorf("Playback.DesignWidth = %d, want 640", cfg.Playback.DesignWidth)
	}
	if cfg.Playback.OverlayErrorThreshold != 5 {
		t.Errorf("Playback.OverlayErrorThreshold = %d, want 5", cfg.Playback.OverlayErrorThreshold)
	}
	if cfg.Playback.FirstTickLookBehind != 500*time.Millisecond {
		t.Errorf("Playback.FirstTickLookBehind = %v, want 500ms", cfg.Playback.FirstTickLookBehind)
	}
	if cfg.Media.LibraryPath != "/custom/media" {
		t.Errorf("Media.LibraryPath = %s, want /custom/media", cfg.Media.LibraryPath)
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name  string
		slice []string
		item  string
		want  bool
	}{
		{name: "item exists", slice: []string{"one", "two", "three"}, item: "two", want: true},
		{name: "item does not exist", slice: []string{"one", "two", "three"}, item: "four", want: false},
		{name: "empty slice", slice: []string{}, item: "one", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contains(tt.slice, tt.item); got != tt.want {
				t.Errorf("contains() = %v, want %v", got, tt.want)
			}
		})
	}
}
