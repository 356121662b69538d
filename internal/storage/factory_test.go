package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreMemory(t *testing.T) {
	store, err := NewStore(Options{Kind: KindMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = NewStore(Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.NoError(t, CloseIfSupported(store))
}

func TestNewStoreRedis(t *testing.T) {
	_, err := NewStore(Options{Kind: KindRedis})
	require.Error(t, err)

	store, err := NewStore(Options{Kind: KindRedis, RedisAddr: "127.0.0.1:0", RedisPrefix: "test:"})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)
	assert.NoError(t, CloseIfSupported(store))
}

func TestNewStoreUnsupported(t *testing.T) {
	_, err := NewStore(Options{Kind: "unknown"})
	require.Error(t, err)
}
