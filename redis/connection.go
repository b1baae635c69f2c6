// Package redis provides the Redis-backed job store, work queue, and
// completion event bus. A single Connection is opened by the process entry
// point and handed to each component explicitly.
package redis

import (
	"context"
	"crypto/tls"

	"github.com/redis/go-redis/v9"
)

// Redis configurable options.
type Options struct {
	// Redis server(cluster) address.
	Address string
	// Password required when connecting to the Redis server.
	Password string
	// DB to connect to.
	DB int
	// TLS config.
	TLSConfig *tls.Config
}

// Connection contains Redis client connection object and the Options used to connect.
type Connection struct {
	Client  *redis.Client
	Options Options
}

// DefaultOptions.
func DefaultOptions() Options {
	return Options{
		Address:  "localhost:6379",
		Password: "", // no password set
		DB:       0,  // use default DB
	}
}

// OpenConnection creates a client for the given options. Lifecycle is owned
// by the caller; pass the Connection to the components that need it and Close
// it on shutdown.
func OpenConnection(options Options) *Connection {
	client := redis.NewClient(&redis.Options{
		TLSConfig: options.TLSConfig,
		Addr:      options.Address,
		Password:  options.Password,
		DB:        options.DB,
	})
	return &Connection{
		Client:  client,
		Options: options,
	}
}

// Ping tests connectivity (PONG should be returned).
func (c *Connection) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// Close the underlying client.
func (c *Connection) Close() error {
	if c.Client == nil {
		return nil
	}
	err := c.Client.Close()
	c.Client = nil
	return err
}
