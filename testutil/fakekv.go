// Package testutil provides test doubles for the substrate layer, chiefly
// an in-memory key-value table with watch support.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/DanPeled/Synapse-sub001/errors"
	"github.com/DanPeled/Synapse-sub001/syncer"
)

// FakeKV is an in-memory syncer.Substrate. All operations are safe for
// concurrent use; watches fire synchronously on Put and Delete.
type FakeKV struct {
	mu       sync.Mutex
	revision uint64
	entries  map[string]syncer.Entry
	watchers []*fakeWatcher
}

type fakeWatcher struct {
	pattern string
	ch      chan syncer.Entry
	done    chan struct{}
	once    sync.Once
}

// NewFakeKV creates an empty in-memory substrate
func NewFakeKV() *FakeKV {
	return &FakeKV{
		entries: make(map[string]syncer.Entry),
	}
}

// Get returns the entry for key, or errors.ErrKeyNotFound
func (f *FakeKV) Get(_ context.Context, key string) (syncer.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[key]
	if !ok {
		return syncer.Entry{}, errors.ErrKeyNotFound
	}
	return entry, nil
}

// Put writes a key unconditionally and notifies matching watchers
func (f *FakeKV) Put(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	f.revision++
	entry := syncer.Entry{
		Key:      key,
		Value:    append([]byte(nil), value...),
		Revision: f.revision,
	}
	f.entries[key] = entry
	watchers := f.matching(key)
	f.mu.Unlock()

	f.notify(watchers, entry)
	return nil
}

// Delete removes a key. Removing an absent key is a no-op.
func (f *FakeKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	_, existed := f.entries[key]
	delete(f.entries, key)
	var watchers []*fakeWatcher
	var entry syncer.Entry
	if existed {
		f.revision++
		entry = syncer.Entry{Key: key, Revision: f.revision, Deleted: true}
		watchers = f.matching(key)
	}
	f.mu.Unlock()

	if existed {
		f.notify(watchers, entry)
	}
	return nil
}

// Keys lists all keys currently present
func (f *FakeKV) Keys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.entries))
	for key := range f.entries {
		keys = append(keys, key)
	}
	return keys, nil
}

// Watch streams updates for keys matching the subject pattern
func (f *FakeKV) Watch(ctx context.Context, pattern string) (<-chan syncer.Entry, func(), error) {
	w := &fakeWatcher{
		pattern: pattern,
		ch:      make(chan syncer.Entry, 64),
		done:    make(chan struct{}),
	}

	f.mu.Lock()
	f.watchers = append(f.watchers, w)
	f.mu.Unlock()

	stop := func() {
		w.once.Do(func() {
			close(w.done)
			f.mu.Lock()
			for i, existing := range f.watchers {
				if existing == w {
					f.watchers = append(f.watchers[:i], f.watchers[i+1:]...)
					break
				}
			}
			f.mu.Unlock()
			close(w.ch)
		})
	}

	go func() {
		<-ctx.Done()
		stop()
	}()

	return w.ch, stop, nil
}

// Len returns the number of keys present
func (f *FakeKV) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Has reports whether a key is present
func (f *FakeKV) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok
}

func (f *FakeKV) matching(key string) []*fakeWatcher {
	var matched []*fakeWatcher
	for _, w := range f.watchers {
		if matchSubject(w.pattern, key) {
			matched = append(matched, w)
		}
	}
	return matched
}

func (f *FakeKV) notify(watchers []*fakeWatcher, entry syncer.Entry) {
	for _, w := range watchers {
		select {
		case <-w.done:
		case w.ch <- entry:
		default:
			// Slow watcher, drop rather than block the writer.
		}
	}
}

// matchSubject implements NATS-style subject matching over dot-separated
// tokens: '*' matches exactly one token, '>' matches one or more trailing
// tokens.
func matchSubject(pattern, subject string) bool {
	patternTokens := strings.Split(pattern, ".")
	subjectTokens := strings.Split(subject, ".")

	for i, token := range patternTokens {
		if token == ">" {
			return i < len(subjectTokens)
		}
		if i >= len(subjectTokens) {
			return false
		}
		if token != "*" && token != subjectTokens[i] {
			return false
		}
	}

	return len(patternTokens) == len(subjectTokens)
}
