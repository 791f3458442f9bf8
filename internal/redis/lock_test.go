package redisclient

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSlotLockKey(t *testing.T) {
	id := uuid.MustParse("6f1c9a52-8e43-4b8e-9a55-3f0c2c7e9d10")
	assert.Equal(t, "lock:slot:6f1c9a52-8e43-4b8e-9a55-3f0c2c7e9d10", slotLockKey(id))
}

func TestLockClientOptions(t *testing.T) {
	opts := lockClientOptions("localhost:6379", "app", "secret")

	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, "app", opts.Username)
	assert.Equal(t, "secret", opts.Password)
	assert.Positive(t, opts.PoolSize)
	assert.Less(t, opts.ReadTimeout, opts.DialTimeout)
}
