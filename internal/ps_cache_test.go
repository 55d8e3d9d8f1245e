package internal

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCachePublisherIsSilent(t *testing.T) {
	p := NewCachePublisher(nil)
	assert.Nil(t, p)

	assert.NoError(t, p.Publish(context.Background(), CacheInvalidateProducts, ""))
	p.Notify(context.Background(), CacheInvalidateCart, "user")
	assert.Equal(t, CHANNEL_GLOBAL_CACHE, p.Channel())
}

func TestDecodeCacheMessage(t *testing.T) {
	raw, err := json.Marshal(CacheMessage{Type: CacheInvalidateProduct, Payload: "abc", Timestamp: 1})
	require.NoError(t, err)

	msg, err := DecodeCacheMessage(string(raw))
	require.NoError(t, err)
	assert.Equal(t, CacheInvalidateProduct, msg.Type)
	assert.Equal(t, "abc", msg.Payload)

	_, err = DecodeCacheMessage("{")
	assert.Error(t, err)
}
