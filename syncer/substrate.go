// Package syncer mirrors canonical pipeline state to and from the shared
// key-value substrate: once per tick it publishes each camera's schema,
// settings snapshot and results, and applies proposed setting writes back
// through validation so every observer converges on the same values.
package syncer

import (
	"context"
	stderrors "errors"

	"github.com/DanPeled/Synapse-sub001/errors"
	"github.com/DanPeled/Synapse-sub001/natsclient"
)

// Entry is a single key-value pair observed on the substrate
type Entry struct {
	Key      string
	Value    []byte
	Revision uint64
	Deleted  bool
}

// Substrate is the key-value table the adapter reconciles against. The
// production implementation wraps a JetStream KV bucket; tests use an
// in-memory fake.
type Substrate interface {
	// Get returns the entry for key, or errors.ErrKeyNotFound.
	Get(ctx context.Context, key string) (Entry, error)

	// Put writes a key; the adapter's value wins over concurrent writers.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists all keys currently present.
	Keys(ctx context.Context) ([]string, error)

	// Watch streams updates for keys matching the subject pattern. The
	// returned stop function releases the watcher.
	Watch(ctx context.Context, pattern string) (<-chan Entry, func(), error)
}

// natsSubstrate adapts a natsclient.KVStore to the Substrate interface
type natsSubstrate struct {
	kv *natsclient.KVStore
}

// NewNATSSubstrate wraps a KV store as the adapter's substrate
func NewNATSSubstrate(kv *natsclient.KVStore) Substrate {
	return &natsSubstrate{kv: kv}
}

func (s *natsSubstrate) Get(ctx context.Context, key string) (Entry, error) {
	entry, err := s.kv.Get(ctx, key)
	if err != nil {
		if natsclient.IsKVNotFoundError(err) {
			return Entry{}, errors.ErrKeyNotFound
		}
		return Entry{}, errors.WrapTransient(err, "Substrate", "Get", "kv get")
	}
	return Entry{
		Key:      entry.Key,
		Value:    entry.Value,
		Revision: entry.Revision,
	}, nil
}

// Put writes through create-or-CAS so a client racing the adapter on a
// canonical key never makes the adapter's write vanish: on a revision
// conflict the put retries until the adapter's value lands last.
func (s *natsSubstrate) Put(ctx context.Context, key string, value []byte) error {
	err := s.kv.UpdateWithRetry(ctx, key, func([]byte) ([]byte, error) {
		return value, nil
	})
	if err != nil {
		return errors.WrapTransient(err, "Substrate", "Put", "kv update")
	}
	return nil
}

func (s *natsSubstrate) Delete(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, key)
	if err != nil && !stderrors.Is(err, natsclient.ErrKVKeyNotFound) {
		return errors.WrapTransient(err, "Substrate", "Delete", "kv delete")
	}
	return nil
}

func (s *natsSubstrate) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return nil, errors.WrapTransient(err, "Substrate", "Keys", "kv list keys")
	}
	return keys, nil
}

func (s *natsSubstrate) Watch(ctx context.Context, pattern string) (<-chan Entry, func(), error) {
	updates, stop, err := s.kv.Watch(ctx, pattern)
	if err != nil {
		return nil, nil, errors.WrapTransient(err, "Substrate", "Watch", "kv watch")
	}

	out := make(chan Entry, 64)
	go func() {
		defer close(out)
		for entry := range updates {
			out <- Entry{
				Key:      entry.Key,
				Value:    entry.Value,
				Revision: entry.Revision,
				Deleted:  entry.Deleted,
			}
		}
	}()

	return out, stop, nil
}
