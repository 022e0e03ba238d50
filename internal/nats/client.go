// Package nats provides the NATS connection and a JetStream key-value
// session store.
package nats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/capitalize-ai/curator-chat/pkg/logger"
)

// Config holds NATS connection configuration. CAFile alone verifies the
// server; CertFile and KeyFile add a client certificate.
type Config struct {
	URL      string
	Token    string
	CAFile   string
	CertFile string
	KeyFile  string
	// Timeout bounds the initial dial. Zero means two seconds.
	Timeout time.Duration
}

// Conn is a NATS connection used only for key-value access.
type Conn struct {
	nc  *nats.Conn
	js  jetstream.JetStream
	log *logger.Logger
}

// Dial connects to the server and binds a JetStream context. It fails fast
// rather than retrying the first connection.
func Dial(cfg Config, log *logger.Logger) (*Conn, error) {
	if cfg.URL == "" {
		return nil, errors.New("NATS URL is required")
	}

	nc, err := nats.Connect(cfg.URL, connectOptions(cfg, log)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	log.Info("connected to NATS", zap.String("url", nc.ConnectedUrl()))
	return &Conn{nc: nc, js: js, log: log}, nil
}

func connectOptions(cfg Config, log *logger.Logger) []nats.Option {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	opts := []nats.Option{
		nats.Name("curator-chat"),
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		// KV calls are request/reply; buffering them across a reconnect
		// would only delay the error.
		nats.ReconnectBufSize(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS connection lost", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS connection restored", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	if cfg.CAFile != "" {
		opts = append(opts, nats.RootCAs(cfg.CAFile))
	}
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		opts = append(opts, nats.ClientCert(cfg.CertFile, cfg.KeyFile))
	}
	return opts
}

// Bucket opens the named key-value bucket, creating it with a single
// revision of history when it does not exist.
func (c *Conn) Bucket(ctx context.Context, name string) (jetstream.KeyValue, error) {
	kv, err := c.js.KeyValue(ctx, name)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		c.log.Info("creating key-value bucket", zap.String("bucket", name))
		kv, err = c.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      name,
			Description: "Chat sessions",
			History:     1,
			Storage:     jetstream.FileStorage,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open key-value bucket %q: %w", name, err)
	}
	return kv, nil
}

// Connected reports whether the connection is currently up.
func (c *Conn) Connected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// Close drains the connection, closing it outright if draining fails.
func (c *Conn) Close() {
	if c.nc == nil {
		return
	}
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
	}
}
