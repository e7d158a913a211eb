package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file and the environment.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and endpoints.
//
// The endpoint URLs only need changing when pointing the gateway at a stub provider.
type SpotifyConfig struct {
	ClientID          string  `toml:"client_id" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret      string  `toml:"client_secret" env:"SPOTIFY_CLIENT_SECRET"`
	RedirectURI       string  `toml:"redirect_uri" env:"SPOTIFY_REDIRECT_URI"`
	AuthURL           string  `toml:"auth_url" env:"SPOTIFY_AUTH_URL"`
	TokenURL          string  `toml:"token_url" env:"SPOTIFY_TOKEN_URL"`
	APIURL            string  `toml:"api_url" env:"SPOTIFY_API_URL"`
	TimeoutSeconds    int     `toml:"timeout_seconds" env:"SPOTIFY_TIMEOUT_SECONDS"`
	RequestsPerSecond float64 `toml:"requests_per_second" env:"SPOTIFY_REQUESTS_PER_SECOND"`
}

// HasCredentials reports whether both the client id and secret are set.
func (s SpotifyConfig) HasCredentials() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// DatabaseConfig contains database connection settings.
//
// Host, User and Password mirror the environment of a networked database; SQLite ignores them.
type DatabaseConfig struct {
	Path         string `toml:"path" env:"DB_PATH"`
	Name         string `toml:"name" env:"DB_NAME"`
	Host         string `toml:"host" env:"DB_HOST"`
	User         string `toml:"user" env:"DB_USER"`
	Password     string `toml:"password" env:"DB_PASSWORD"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// DSN returns the SQLite file path: Path when set, otherwise "<Name>.db".
func (d DatabaseConfig) DSN() string {
	if d.Path != "" {
		return d.Path
	}
	if d.Name == "" {
		return "spotify_moodfit.db"
	}
	return d.Name + ".db"
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host          string `toml:"host" env:"MOODFIT_HOST"`
	Port          int    `toml:"port" env:"MOODFIT_PORT"`
	FrontendURL   string `toml:"frontend_url" env:"FRONTEND_URL"`
	SessionSecret string `toml:"session_secret" env:"SESSION_SECRET"`
	LogLevel      string `toml:"log_level" env:"LOG_LEVEL"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Load builds the runtime configuration: embedded defaults, then the TOML file at path
// (skipped when it does not exist), then the .env file at dotenv (if present), then the process environment.
func Load(path, dotenv string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		loaded, err := LoadConfig(path)
		switch {
		case err == nil:
			config = loaded
		case !errors.Is(err, fs.ErrNotExist):
			return nil, err
		}
	}

	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv overlays environment variables onto config. Unset variables leave fields untouched.
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("%w: parse env: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks the values the gateway cannot serve traffic without.
func (c *Config) Validate() error {
	if !c.Credentials.Spotify.HasCredentials() {
		return fmt.Errorf("%w: SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set", ErrMissingCredentials)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
