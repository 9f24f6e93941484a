// Package config provides a reusable loader for unitd configuration files
// and environment variables. It is versioned so that applications can
// depend on a stable API contract.
//
// Version: v0.1.0
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/genhoi/unit/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for a unitd process: listen address,
// the per-connection buffer/body/timeout tunables the connection state
// machine is built against, and logging. It mirrors the structure of
// config/default.yaml.
type Config struct {
	Server struct {
		ListenAddr            string `mapstructure:"listen_addr" json:"listen_addr" yaml:"listen_addr"`
		HeaderBufferSize      int    `mapstructure:"header_buffer_size" json:"header_buffer_size" yaml:"header_buffer_size"`
		LargeHeaderBufferSize int    `mapstructure:"large_header_buffer_size" json:"large_header_buffer_size" yaml:"large_header_buffer_size"`
		LargeHeaderBuffers    int    `mapstructure:"large_header_buffers" json:"large_header_buffers" yaml:"large_header_buffers"`
		MaxBodySize           int    `mapstructure:"max_body_size" json:"max_body_size" yaml:"max_body_size"`
		IdleTimeoutMS         int    `mapstructure:"idle_timeout_ms" json:"idle_timeout_ms" yaml:"idle_timeout_ms"`
		HeaderReadTimeoutMS   int    `mapstructure:"header_read_timeout_ms" json:"header_read_timeout_ms" yaml:"header_read_timeout_ms"`
		BodyReadTimeoutMS     int    `mapstructure:"body_read_timeout_ms" json:"body_read_timeout_ms" yaml:"body_read_timeout_ms"`
		SendTimeoutMS         int    `mapstructure:"send_timeout_ms" json:"send_timeout_ms" yaml:"send_timeout_ms"`
	} `mapstructure:"server" json:"server" yaml:"server"`

	Arena struct {
		BlockSize   int           `mapstructure:"block_size" json:"block_size" yaml:"block_size"`
		PoolMaxIdle int           `mapstructure:"pool_max_idle" json:"pool_max_idle" yaml:"pool_max_idle"`
		PoolIdleTTL time.Duration `mapstructure:"pool_idle_ttl" json:"pool_idle_ttl" yaml:"pool_idle_ttl"`
	} `mapstructure:"arena" json:"arena" yaml:"arena"`

	ConfigFile struct {
		Path         string `mapstructure:"path" json:"path" yaml:"path"`
		WatchEnabled bool   `mapstructure:"watch_enabled" json:"watch_enabled" yaml:"watch_enabled"`
	} `mapstructure:"config_file" json:"config_file" yaml:"config_file"`

	Cache struct {
		Enabled  bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
		Capacity int  `mapstructure:"capacity" json:"capacity" yaml:"capacity"`
	} `mapstructure:"cache" json:"cache" yaml:"cache"`

	Logging struct {
		Level string `mapstructure:"level" json:"level" yaml:"level"`
		File  string `mapstructure:"file" json:"file" yaml:"file"`
	} `mapstructure:"logging" json:"logging" yaml:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	setDefaults()
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the UNITD_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("UNITD_ENV", ""))
}

func setDefaults() {
	viper.SetDefault("server.listen_addr", ":8080")
	viper.SetDefault("server.header_buffer_size", 4096)
	viper.SetDefault("server.large_header_buffer_size", 65536)
	viper.SetDefault("server.large_header_buffers", 4)
	viper.SetDefault("server.max_body_size", 10<<20)
	viper.SetDefault("server.idle_timeout_ms", 60_000)
	viper.SetDefault("server.header_read_timeout_ms", 10_000)
	viper.SetDefault("server.body_read_timeout_ms", 30_000)
	viper.SetDefault("server.send_timeout_ms", 30_000)
	viper.SetDefault("arena.block_size", 4096)
	viper.SetDefault("arena.pool_max_idle", 64)
	viper.SetDefault("arena.pool_idle_ttl", "5m")
	viper.SetDefault("config_file.path", "config/unitd.json")
	viper.SetDefault("config_file.watch_enabled", true)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.capacity", 1024)
	viper.SetDefault("logging.level", "info")
}
