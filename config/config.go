// Package config loads process configuration from an optional YAML file and
// BIASLENS_-prefixed environment variables, with working defaults for a
// standalone deployment (in-memory store, stub classifier).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Dispatch strategy names.
const (
	StrategyInline = "inline"
	StrategyQueued = "queued"
)

// Job store backend names.
const (
	StoreMemory    = "memory"
	StoreRedis     = "redis"
	StoreCassandra = "cassandra"
)

type ClassifierConfig struct {
	// Endpoint is the model endpoint URL. Empty selects the deterministic stub.
	Endpoint string `mapstructure:"endpoint"`
	// Timeout bounds each classification call.
	Timeout time.Duration `mapstructure:"timeout"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type CassandraConfig struct {
	Hosts    []string `mapstructure:"hosts"`
	Keyspace string   `mapstructure:"keyspace"`
}

type QueueConfig struct {
	// Name is the Redis list the queued strategy publishes to.
	Name string `mapstructure:"name"`
	// PopTimeout bounds each blocking receive.
	PopTimeout time.Duration `mapstructure:"pop_timeout"`
	// Workers caps concurrent classifications in the worker process.
	Workers int `mapstructure:"workers"`
}

type EventsConfig struct {
	// Channel is the Redis pub/sub channel completions travel on.
	Channel string `mapstructure:"channel"`
}

type Config struct {
	// ListenAddress is the HTTP bind address.
	ListenAddress string `mapstructure:"listen_address"`
	// Strategy selects inline or queued dispatch, per deployment.
	Strategy string `mapstructure:"strategy"`
	// Store selects the job store backend: memory, redis, or cassandra.
	Store string `mapstructure:"store"`
	// GinMode sets the gin framework mode (debug, release, test).
	GinMode string `mapstructure:"gin_mode"`
	// ExtractTimeout bounds article URL fetches.
	ExtractTimeout time.Duration `mapstructure:"extract_timeout"`

	Classifier ClassifierConfig `mapstructure:"classifier"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cassandra  CassandraConfig  `mapstructure:"cassandra"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Events     EventsConfig     `mapstructure:"events"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_address", ":8000")
	v.SetDefault("strategy", StrategyInline)
	v.SetDefault("store", StoreMemory)
	v.SetDefault("gin_mode", "release")
	v.SetDefault("extract_timeout", 15*time.Second)
	v.SetDefault("classifier.endpoint", "")
	v.SetDefault("classifier.timeout", 30*time.Second)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("cassandra.hosts", []string{"localhost:9042"})
	v.SetDefault("cassandra.keyspace", "biaslens")
	v.SetDefault("queue.name", "biaslens:jobs")
	v.SetDefault("queue.pop_timeout", 5*time.Second)
	v.SetDefault("queue.workers", 4)
	v.SetDefault("events.channel", "biaslens:completions")
}

// Load reads configuration. path may name a YAML file explicitly; when empty,
// a biaslens.yaml in the working directory is used if present.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BIASLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("biaslens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Strategy {
	case StrategyInline, StrategyQueued:
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	switch c.Store {
	case StoreMemory, StoreRedis, StoreCassandra:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Strategy == StrategyQueued && c.Store == StoreMemory {
		// A cross-process worker cannot see an in-memory store.
		return fmt.Errorf("queued strategy requires the redis or cassandra store")
	}
	return nil
}
