package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPath is the default location of the YAML config file.
const ConfigPath = "config.yaml"

const (
	defaultPort            = "3000"
	defaultGenerationModel = "gemini-3-flash-preview"
)

// FileConfig represents configuration loaded from YAML with environment
// overrides. Every field is optional: with no config file and no environment
// the server comes up in demo mode on the default port.
type FileConfig struct {
	Port            string `yaml:"port"`
	LogLevel        string `yaml:"logLevel"`
	Env             string `yaml:"env"`
	Serverless      bool   `yaml:"serverless"`
	StaticDir       string `yaml:"staticDir"`
	DatabaseURL     string `yaml:"databaseURL"`
	GeminiAPIKey    string `yaml:"geminiAPIKey"`
	GenerationModel string `yaml:"generationModel"`
	// TrustedProxies lists CIDR/IP entries whose forwarded-for headers are
	// honored when resolving client IPs. Empty means trust none.
	TrustedProxies []string `yaml:"trustedProxies"`
}

// Load reads config from path (defaults to config.yaml). A missing file is
// not an error; the defaults plus environment variables stand on their own.
// A .env file in the working directory is loaded first when present.
func Load(path string) (FileConfig, error) {
	_ = godotenv.Load()

	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
		// run on defaults
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	// Override with environment variables
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("SERVERLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("config: SERVERLESS must be a boolean, got %q", v)
		}
		cfg.Serverless = b
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
	if v := os.Getenv("GEMINI_GENERATION_MODEL"); v != "" {
		cfg.GenerationModel = v
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = strings.Split(v, ",")
	}

	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = defaultGenerationModel
	}

	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DemoMode reports whether the server runs without a database.
func (c FileConfig) DemoMode() bool {
	return strings.TrimSpace(c.DatabaseURL) == ""
}

func validateConfig(cfg FileConfig) error {
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return fmt.Errorf("config: port must be numeric, got %q", cfg.Port)
	}
	if !cfg.DemoMode() && !strings.HasPrefix(cfg.DatabaseURL, "postgres") {
		return errors.New("config: databaseURL must be a postgres connection string")
	}
	return nil
}
