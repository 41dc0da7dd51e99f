package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides. Secrets only ever come from the environment;
// the YAML file holds the non-secret tuning.
const (
	configPathEnv  = "FINCRIME_ENGINE_CONFIG"
	databaseURLEnv = "DATABASE_URL"
	portEnv        = "PORT"
	browserEnv     = "BROWSER_ENDPOINT"
	ollamaEnv      = "OLLAMA_ENDPOINT"
)

// Config holds the engine's settings.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Registry RegistryConfig `yaml:"registry"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Reporter ReporterConfig `yaml:"reporter"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port           string `yaml:"port"`
	AllowedOrigins string `yaml:"allowedOrigins"`
	RatePerMinute  int    `yaml:"ratePerMinute"`
}

// DatabaseConfig describes the case database connection.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RegistryConfig points at the compliance registry snapshot. Empty path
// means the embedded snapshot.
type RegistryConfig struct {
	Path string `yaml:"path"`
}

// FetchConfig tunes the network-bound pipeline stages.
type FetchConfig struct {
	ProbeTimeoutSeconds  int    `yaml:"probeTimeoutSeconds"`
	FetchTimeoutSeconds  int    `yaml:"fetchTimeoutSeconds"`
	BrowserEndpoint      string `yaml:"browserEndpoint"`
	InfraEnrichment      bool   `yaml:"infraEnrichment"`
	EnrichTimeoutSeconds int    `yaml:"enrichTimeoutSeconds"`
}

// ReporterConfig describes the Ollama dossier writer.
type ReporterConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
}

// Load reads the YAML config (path from FINCRIME_ENGINE_CONFIG, or the
// given fallback) and applies environment overrides. A missing file is
// not an error: the engine runs on defaults plus environment.
func Load(fallbackPath string) (*Config, error) {
	cfg := defaults()

	path := os.Getenv(configPathEnv)
	if path == "" {
		path = fallbackPath
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults + env only.
		case err != nil:
			return nil, fmt.Errorf("reading config %s: %v", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %v", path, err)
			}
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "5340",
			RatePerMinute: 60,
		},
		Fetch: FetchConfig{
			ProbeTimeoutSeconds:  10,
			FetchTimeoutSeconds:  90,
			InfraEnrichment:      true,
			EnrichTimeoutSeconds: 20,
		},
		Reporter: ReporterConfig{
			Endpoint: "http://localhost:11434",
			Model:    "phi3",
		},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(databaseURLEnv); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv(portEnv); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv(browserEnv); v != "" {
		cfg.Fetch.BrowserEndpoint = v
	}
	if v := os.Getenv(ollamaEnv); v != "" {
		cfg.Reporter.Endpoint = v
	}
}

// ProbeTimeout returns the probe stage timeout as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Fetch.ProbeTimeoutSeconds) * time.Second
}

// FetchTimeout returns the fetch stage timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.FetchTimeoutSeconds) * time.Second
}

// EnrichTimeout returns the infra enrichment timeout as a duration.
func (c *Config) EnrichTimeout() time.Duration {
	return time.Duration(c.Fetch.EnrichTimeoutSeconds) * time.Second
}
