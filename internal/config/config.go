package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Model   Model   `yaml:"model"`
	Dataset Dataset `yaml:"dataset"`
	Sources Sources `yaml:"sources"`
	Display Display `yaml:"display"`
	Output  Output  `yaml:"output"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

type Model struct {
	VectorizerPath string `yaml:"vectorizer_path"`
	ClassifierPath string `yaml:"classifier_path"`
}

type Dataset struct {
	Path        string `yaml:"path"`
	Limit       int    `yaml:"limit"`
	RefreshCron string `yaml:"refresh_cron"`
}

type Sources struct {
	Feeds []Feed `yaml:"feeds"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type Display struct {
	Timezone    string `yaml:"timezone"`
	LatestCount int    `yaml:"latest_count"`
	PageSize    int    `yaml:"page_size"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Host             string  `yaml:"host"`
	Port             int     `yaml:"port"`
	SessionSecretEnv string  `yaml:"session_secret_env"`
	SecureCookies    bool    `yaml:"secure_cookies"`
	PredictRate      float64 `yaml:"predict_rate"`
	PredictBurst     int     `yaml:"predict_burst"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConfigDir returns the XDG config directory for tweetpulse.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "tweetpulse")
}

// DataDir returns the XDG data directory for tweetpulse.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "tweetpulse")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/tweetpulse/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'tweetpulse init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Dataset: Dataset{Limit: 10000},
		Display: Display{
			Timezone:    "Africa/Kampala",
			LatestCount: 10,
			PageSize:    20,
		},
		Server: Server{
			Host:             "127.0.0.1",
			Port:             8000,
			SessionSecretEnv: "TWEETPULSE_SESSION_SECRET",
			PredictRate:      20,
			PredictBurst:     40,
		},
		Logging: Logging{Level: "info", Format: "text"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Display.Timezone); err != nil {
		return fmt.Errorf("display.timezone: %w", err)
	}
	if c.Dataset.Limit < 0 {
		return fmt.Errorf("dataset.limit must not be negative, got %d", c.Dataset.Limit)
	}
	if c.Display.LatestCount <= 0 {
		return fmt.Errorf("display.latest_count must be positive, got %d", c.Display.LatestCount)
	}
	if c.Display.PageSize <= 0 {
		return fmt.Errorf("display.page_size must be positive, got %d", c.Display.PageSize)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Server.PredictRate < 0 {
		return fmt.Errorf("server.predict_rate must not be negative")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// GetDatabasePath returns the SQLite database file path.
func (c *Config) GetDatabasePath() string {
	return filepath.Join(c.GetDataDir(), "tweetpulse.db")
}

// GetVectorizerPath returns the vectorizer artifact path, defaulting to the
// models directory under the data dir.
func (c *Config) GetVectorizerPath() string {
	if c.Model.VectorizerPath != "" {
		return c.Model.VectorizerPath
	}
	return filepath.Join(c.GetDataDir(), "models", "vectorizer.json")
}

// GetClassifierPath returns the classifier artifact path, defaulting to the
// models directory under the data dir.
func (c *Config) GetClassifierPath() string {
	if c.Model.ClassifierPath != "" {
		return c.Model.ClassifierPath
	}
	return filepath.Join(c.GetDataDir(), "models", "classifier.json")
}

// Location returns the display time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SessionSecret reads the cookie signing secret from the configured
// environment variable.
func (c *Config) SessionSecret() string {
	return os.Getenv(c.Server.SessionSecretEnv)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
