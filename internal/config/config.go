package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the impact engine.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Auth       AuthConfig       `yaml:"auth"`
	RateLimit  RateLimitConfig  `yaml:"rateLimit"`
	Clients    ClientsConfig    `yaml:"clients"`
	Registry   RegistryConfig   `yaml:"registry"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Logging    LoggingConfig    `yaml:"logging"`
	Cache      CacheConfig      `yaml:"cache"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// AuthConfig controls bearer-token verification. With Enabled false all
// requests are attributed to the anonymous user.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Secret  string `yaml:"secret"`
}

// RateLimitConfig bounds request rates per authenticated user (or remote
// address when unauthenticated). The analysis limit applies on top of the
// API-wide limit.
type RateLimitConfig struct {
	Enabled          bool          `yaml:"enabled"`
	APIRequests      int           `yaml:"apiRequests"`
	APIWindow        time.Duration `yaml:"apiWindow"`
	AnalysisRequests int           `yaml:"analysisRequests"`
	AnalysisWindow   time.Duration `yaml:"analysisWindow"`
}

// ClientsConfig groups integrations with backing services.
type ClientsConfig struct {
	History HistoryClientConfig `yaml:"history"`
}

// HistoryClientConfig configures access to the deployment-history backend.
// An empty BaseURL disables the client; analyses then run on static
// baselines and results are not persisted.
type HistoryClientConfig struct {
	BaseURL      string        `yaml:"baseURL"`
	HistoryPath  string        `yaml:"historyPath"`
	ExistsPath   string        `yaml:"existsPath"`
	AnalysesPath string        `yaml:"analysesPath"`
	Timeout      time.Duration `yaml:"timeout"`
}

// RegistryConfig controls service-topology loading.
type RegistryConfig struct {
	Path string `yaml:"path"`
}

// ClassifierConfig controls alert-classification rule loading.
type ClassifierConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls Redis-backed caching of expensive lookups.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	HistoryTTL   time.Duration `yaml:"historyTTL"`
	ExistsTTL    time.Duration `yaml:"existsTTL"`
}

// Load initialises Config from a YAML file and optional environment
// overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("IMPACT_ENGINE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{Enabled: false},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			APIRequests:      100,
			APIWindow:        15 * time.Minute,
			AnalysisRequests: 20,
			AnalysisWindow:   5 * time.Minute,
		},
		Clients: ClientsConfig{
			History: HistoryClientConfig{
				HistoryPath:  "/api/v1/history",
				ExistsPath:   "/api/v1/alerts/exists",
				AnalysesPath: "/api/v1/analyses",
				Timeout:      5 * time.Second,
			},
		},
		Registry:   RegistryConfig{Path: "configs/registry/default.yaml"},
		Classifier: ClassifierConfig{Path: "configs/classifier/default.yaml"},
		Logging:    LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			HistoryTTL:   2 * time.Minute,
			ExistsTTL:    5 * time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("IMPACT_ENGINE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("IMPACT_ENGINE_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("IMPACT_ENGINE_AUTH_ENABLED"); v != "" {
		cfg.Auth.Enabled = isTruthy(v)
	}
	if v := os.Getenv("IMPACT_ENGINE_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("IMPACT_ENGINE_RATE_LIMIT_ENABLED"); v != "" {
		cfg.RateLimit.Enabled = isTruthy(v)
	}
	if v := os.Getenv("IMPACT_ENGINE_RATE_LIMIT_API_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.APIRequests = n
		}
	}
	if v := os.Getenv("IMPACT_ENGINE_RATE_LIMIT_ANALYSIS_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimit.AnalysisRequests = n
		}
	}
	if v := os.Getenv("IMPACT_ENGINE_HISTORY_BASE_URL"); v != "" {
		cfg.Clients.History.BaseURL = v
	}
	if v := os.Getenv("IMPACT_ENGINE_HISTORY_PATH"); v != "" {
		cfg.Clients.History.HistoryPath = v
	}
	if v := os.Getenv("IMPACT_ENGINE_HISTORY_EXISTS_PATH"); v != "" {
		cfg.Clients.History.ExistsPath = v
	}
	if v := os.Getenv("IMPACT_ENGINE_HISTORY_ANALYSES_PATH"); v != "" {
		cfg.Clients.History.AnalysesPath = v
	}
	if v := os.Getenv("IMPACT_ENGINE_HISTORY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Clients.History.Timeout = d
		}
	}
	if v := os.Getenv("IMPACT_ENGINE_REGISTRY_PATH"); v != "" {
		cfg.Registry.Path = v
	}
	if v := os.Getenv("IMPACT_ENGINE_CLASSIFIER_PATH"); v != "" {
		cfg.Classifier.Path = v
	}
	if v := os.Getenv("IMPACT_ENGINE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("IMPACT_ENGINE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("IMPACT_ENGINE_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = isTruthy(v)
	}
	if v := os.Getenv("IMPACT_ENGINE_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("IMPACT_ENGINE_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("IMPACT_ENGINE_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("IMPACT_ENGINE_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("IMPACT_ENGINE_CACHE_DIAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.DialTimeout = d
		}
	}
	if v := os.Getenv("IMPACT_ENGINE_CACHE_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ReadTimeout = d
		}
	}
	if v := os.Getenv("IMPACT_ENGINE_CACHE_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.WriteTimeout = d
		}
	}
	if v := os.Getenv("IMPACT_ENGINE_CACHE_MAX_RETRIES"); v != "" {
		if retry, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxRetries = retry
		}
	}
	if v := os.Getenv("IMPACT_ENGINE_CACHE_HISTORY_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.HistoryTTL = d
		}
	}
	if v := os.Getenv("IMPACT_ENGINE_CACHE_EXISTS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ExistsTTL = d
		}
	}
}

func isTruthy(v string) bool {
	return strings.EqualFold(v, "true") || v == "1"
}
