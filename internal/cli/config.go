package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gdstools/pkg/cache"
	"github.com/matzehuels/gdstools/pkg/pipeline"
)

// Config is the optional CLI config file:
//
//	formats = ["gds", "json"]
//	unit = 1e-6
//	precision = 1e-9
//
//	[server]
//	addr = "localhost:8080"
//
//	[cache]
//	backend = "redis"
//	addr = "localhost:6379"
type Config struct {
	Formats   []string     `toml:"formats"`
	Unit      float64      `toml:"unit"`
	Precision float64      `toml:"precision"`
	Server    ServerConfig `toml:"server"`
	Cache     cache.Config `toml:"cache"`
}

// ServerConfig holds defaults for the serve command.
type ServerConfig struct {
	Addr         string `toml:"addr"`
	BuildTTL     string `toml:"build_ttl"` // Go duration, e.g. "30m"
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// DefaultConfig is used when no config file exists.
func DefaultConfig() Config {
	return Config{
		Formats: slices.Clone(pipeline.DefaultFormats),
		Cache:   cache.Config{Backend: cache.BackendFile},
	}
}

// LoadConfig reads the config file at path, or the default location when
// path is empty. A missing default file is not an error; a missing explicit
// file is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return DefaultConfig(), nil
		}
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = slices.Clone(pipeline.DefaultFormats)
	}
	if err := pipeline.ValidateFormats(cfg.Formats); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
