package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	models "github.com/canopy-network/walletsync/pkg/db/models/wallet"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	EventTxPromoted = "tx.promoted"
	EventTxEvicted  = "tx.evicted"

	publishTimeout = 2 * time.Second
)

type Config struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
}

// Event is the payload published for every reconciliation decision.
type Event struct {
	Type      string `json:"type"`
	AccountID uint64 `json:"account_id"`
	TxID      uint64 `json:"tx_id"`
	TxHash    string `json:"tx_hash"`
	Height    uint64 `json:"height"`
}

type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Client publishes reconciliation events. Publishing is best effort: failures are
// logged and never surface to the reconciliation pass.
type Client struct {
	client publisher
	logger *zap.Logger
	prefix string
}

// NewClient connects and pings the server.
func NewClient(ctx context.Context, logger *zap.Logger, cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return newClient(rdb, logger, cfg.ChannelPrefix), nil
}

func newClient(p publisher, logger *zap.Logger, prefix string) *Client {
	if prefix == "" {
		prefix = "walletsync"
	}
	return &Client{client: p, logger: logger.With(zap.String("component", "redis")), prefix: prefix}
}

// Channel names the channel for an account's events of one type.
func (c *Client) Channel(accountID uint64, eventType string) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, accountID, eventType)
}

// Publish sends ev as JSON on its account channel.
func (c *Client) Publish(ctx context.Context, ev Event) {
	channel := c.Channel(ev.AccountID, ev.Type)
	payload, err := json.Marshal(ev)
	if err != nil {
		c.logger.Warn("Failed to encode event", zap.String("channel", channel), zap.Error(err))
		return
	}
	if err := c.client.Publish(ctx, channel, payload).Err(); err != nil {
		c.logger.Warn("Failed to publish Redis message",
			zap.String("channel", channel),
			zap.Error(err))
	}
}

func (c *Client) publishTx(eventType string, tx models.Transaction) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	c.Publish(ctx, Event{
		Type:      eventType,
		AccountID: tx.AccountID,
		TxID:      tx.ID,
		TxHash:    tx.Hash,
		Height:    tx.Height,
	})
}

func (c *Client) Promoted(tx models.Transaction) { c.publishTx(EventTxPromoted, tx) }
func (c *Client) Evicted(tx models.Transaction)  { c.publishTx(EventTxEvicted, tx) }

// Health checks if Redis is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.client.Close()
}
