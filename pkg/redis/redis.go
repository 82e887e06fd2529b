package redis

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

type Redis interface {
	Client() *goredis.Client
	Close() error
}

type Config struct {
	Host     string
	Port     uint16
	Password string
	DB       int
}

type redis struct {
	client *goredis.Client
}

func New(cfg *Config) (Redis, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port))),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &redis{client: client}, nil
}

// NewFromClient wraps an existing client, used by tests and by callers that build options themselves.
func NewFromClient(client *goredis.Client) Redis {
	return &redis{client: client}
}

func (r *redis) Client() *goredis.Client {
	return r.client
}

func (r *redis) Close() error {
	return r.client.Close()
}
