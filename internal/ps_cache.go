package internal

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var CHANNEL_GLOBAL_CACHE = "GLOBAL_CACHE"

type CacheMessageType string

const (
	CacheInvalidateProduct  CacheMessageType = "product.invalidate"
	CacheInvalidateProducts CacheMessageType = "products.invalidate"

	CacheInvalidateCategories CacheMessageType = "categories.invalidate"
	CacheInvalidateTree       CacheMessageType = "categories.tree.invalidate"

	CacheInvalidateCart CacheMessageType = "cart.invalidate"

	CacheInvalidateUser CacheMessageType = "user.invalidate"
)

type CacheMessage struct {
	Type      CacheMessageType `json:"type"`
	Payload   string           `json:"payload"`
	Timestamp int64            `json:"timestamp"`
}

// CachePublisher announces cache invalidations on a Redis channel so that
// read caches in front of the API can drop stale entries. A nil publisher
// is valid and publishes nothing.
type CachePublisher struct {
	client  *redis.Client
	channel string
}

func NewCachePublisher(client *redis.Client) *CachePublisher {
	if client == nil {
		return nil
	}
	return &CachePublisher{client: client, channel: CHANNEL_GLOBAL_CACHE}
}

// Channel returns the channel messages are published on.
func (p *CachePublisher) Channel() string {
	if p == nil {
		return CHANNEL_GLOBAL_CACHE
	}
	return p.channel
}

// Publish sends a cache invalidation message as JSON.
func (p *CachePublisher) Publish(ctx context.Context, messageType CacheMessageType, payload string) error {
	if p == nil {
		return nil
	}

	messageJSON, err := json.Marshal(CacheMessage{
		Type:      messageType,
		Payload:   payload,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		log.Printf("Failed to marshal cache message: %v", err)
		return err
	}

	if err := p.client.Publish(ctx, p.channel, string(messageJSON)).Err(); err != nil {
		log.Printf("Failed to publish cache message: %v", err)
		return err
	}
	return nil
}

// Notify publishes and only logs failures. Invalidation is best effort and
// must never fail the write that triggered it.
func (p *CachePublisher) Notify(ctx context.Context, messageType CacheMessageType, payload string) {
	_ = p.Publish(ctx, messageType, payload)
}

// DecodeCacheMessage parses a payload received from the channel.
func DecodeCacheMessage(raw string) (CacheMessage, error) {
	var msg CacheMessage
	err := json.Unmarshal([]byte(raw), &msg)
	return msg, err
}
