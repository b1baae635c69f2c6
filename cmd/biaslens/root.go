package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/biaslens/biaslens"
	"github.com/biaslens/biaslens/cassandra"
	"github.com/biaslens/biaslens/classifier"
	"github.com/biaslens/biaslens/config"
	"github.com/biaslens/biaslens/inmemory"
	"github.com/biaslens/biaslens/redis"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "biaslens",
	Short: "Deduplicated text bias classification service",
	Long: `biaslens classifies pieces of text for political bias and its extent.
Identical submissions are answered from the job store instead of being
reclassified. Configuration comes from a YAML file and BIASLENS_ environment
variables.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		biaslens.ConfigureLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a biaslens YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workCmd)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	gin.SetMode(cfg.GinMode)
	return cfg, nil
}

// openStore builds the configured job store backend. The returned closer
// releases the backing connection and is a no-op for the in-memory store.
func openStore(cfg config.Config) (biaslens.JobStore, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		return inmemory.NewJobStore(), func() {}, nil
	case config.StoreRedis:
		conn := openRedis(cfg)
		return redis.NewJobStore(conn), func() { conn.Close() }, nil
	case config.StoreCassandra:
		conn, err := cassandra.OpenConnection(cassandra.Config{
			ClusterHosts: cfg.Cassandra.Hosts,
			Keyspace:     cfg.Cassandra.Keyspace,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to cassandra: %w", err)
		}
		return cassandra.NewJobStore(conn), func() { conn.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func openRedis(cfg config.Config) *redis.Connection {
	return redis.OpenConnection(redis.Options{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// newClassifier picks the model endpoint client, or the deterministic stub
// when no endpoint is configured.
func newClassifier(cfg config.Config) biaslens.Classifier {
	if cfg.Classifier.Endpoint == "" {
		return classifier.NewStub()
	}
	return classifier.NewHTTPClient(cfg.Classifier.Endpoint, cfg.Classifier.Timeout)
}
