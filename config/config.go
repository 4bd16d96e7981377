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

	"github.com/peakobs/nightq/core/factory"
	"github.com/peakobs/nightq/core/metrics"
	"github.com/peakobs/nightq/core/sched"
	"github.com/peakobs/nightq/infra/mqtt"
)

// Config is the root configuration of the night-queue service.
type Config struct {
	Store     StoreConfig          `json:"store"`
	Site      SiteConfig           `json:"site"`
	Scheduler sched.Config         `json:"scheduler"`
	Pass      PassConfig           `json:"pass"`
	MQTT      mqtt.Config          `json:"mqtt"`
	Notify    NotifyConfig         `json:"notify"`
	Metrics   metrics.Config       `json:"metrics"`
	API       APIConfig            `json:"api"`
	PassLog   PassLogConfig        `json:"passlog"`
	Ephemeris factory.ModuleConfig `json:"ephemeris"`
	Sentry    SentryConfig         `json:"sentry"`
}

// Load reads the configuration file at path, applies NQ_-prefixed
// environment overrides, then defaults and validation per section.
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
	// Optional environment overrides, e.g. NQ_STORE__ADDR=db:9123.
	if err := k.Load(env.Provider("NQ_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "nq_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Store.SetDefaults()
	cfg.Site.SetDefaults()
	cfg.Scheduler.SetDefaults()
	cfg.Pass.SetDefaults()
	cfg.Notify.SetDefaults()
	cfg.API.SetDefaults()
	cfg.PassLog.SetDefaults()
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Site.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Scheduler.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Pass.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.PassLog.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
