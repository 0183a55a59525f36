package natsclient

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultKVOptions(t *testing.T) {
	opts := DefaultKVOptions()

	assert.Equal(t, 10, opts.MaxRetries)
	assert.Equal(t, 10*time.Millisecond, opts.RetryDelay)
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, 1024*1024, opts.MaxValueSize)
	assert.True(t, opts.UseExponentialBackoff)
	assert.Equal(t, time.Second, opts.MaxRetryDelay)
}

func TestGetRetryConfig(t *testing.T) {
	kv := &KVStore{options: DefaultKVOptions()}
	config := kv.getRetryConfig()

	assert.Equal(t, 11, config.MaxAttempts)
	assert.Equal(t, 2.0, config.Multiplier)
	assert.True(t, config.AddJitter)

	kv.options.UseExponentialBackoff = false
	assert.Equal(t, 1.0, kv.getRetryConfig().Multiplier)
}

func TestIsKVNotFoundError(t *testing.T) {
	assert.False(t, IsKVNotFoundError(nil))
	assert.True(t, IsKVNotFoundError(ErrKVKeyNotFound))
	assert.True(t, IsKVNotFoundError(errors.New("nats: key not found")))
	assert.True(t, IsKVNotFoundError(errors.New("err_code=10037")))
	assert.False(t, IsKVNotFoundError(errors.New("connection refused")))
}

func TestIsKVConflictError(t *testing.T) {
	assert.False(t, IsKVConflictError(nil))
	assert.True(t, IsKVConflictError(ErrKVKeyExists))
	assert.True(t, IsKVConflictError(ErrKVRevisionMismatch))
	assert.True(t, IsKVConflictError(errors.New("wrong last sequence: 42")))
	assert.True(t, IsKVConflictError(errors.New("err_code=10071")))
	assert.False(t, IsKVConflictError(errors.New("timeout")))
}
