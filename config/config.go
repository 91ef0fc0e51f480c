package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/mucollege/dispatchtrack/infra/metrics"
	"github.com/mucollege/dispatchtrack/infra/mqtt"
	"github.com/mucollege/dispatchtrack/infra/refstore"
)

type Config struct {
	Store   refstore.Config `json:"store"`
	API     APIConfig       `json:"api"`
	Metrics metrics.Config  `json:"metrics"`
	MQTT    mqtt.Config     `json:"mqtt"`
	Logging LoggingConfig   `json:"logging"`
}

// Load reads the configuration file and applies environment overrides of the
// form DT_SECTION__KEY.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("DT_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "dt_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Store.SetDefaults()
	cfg.API.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// APIConfig defines the HTTP API listener.
type APIConfig struct {
	// Addr is the listen address of the API server.
	Addr string `json:"addr"`
	// Token, when non-empty, is required as a bearer Authorization header.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
