// Package registry owns the set of subscribers that receive greetings.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"timely-greeter/metrics"
)

// Store persists the subscriber list.
type Store interface {
	LoadSubscribers(ctx context.Context) ([]int64, error)
	SaveSubscribers(ctx context.Context, ids []int64) error
}

// Registry is the ordered, duplicate-free set of subscriber ids.
// All methods are safe for concurrent use. The lock only covers the in-memory
// change; the full list is written to the store afterwards.
type Registry struct {
	store  Store
	logger *slog.Logger
	index  map[int64]struct{}
	ids    []int64
	mu     sync.Mutex
	saveMu sync.Mutex // orders saves so an older snapshot never lands last
}

// Load creates a registry populated from store.
func Load(ctx context.Context, store Store, logger *slog.Logger) (*Registry, error) {
	ids, err := store.LoadSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load subscribers: %w", err)
	}

	r := &Registry{
		store:  store,
		logger: logger,
		index:  make(map[int64]struct{}, len(ids)),
	}
	for _, id := range ids {
		if _, dup := r.index[id]; dup {
			logger.Warn("Duplicate subscriber in store, keeping first", "chat_id", id)
			continue
		}
		r.index[id] = struct{}{}
		r.ids = append(r.ids, id)
	}

	metrics.Subscribers.Set(float64(len(r.ids)))
	logger.Info("Subscribers loaded", "count", len(r.ids))
	return r, nil
}

// Contains reports whether id is subscribed.
func (r *Registry) Contains(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.index[id]
	return ok
}

// Add subscribes id. It returns false, without touching the store, if id was
// already subscribed.
func (r *Registry) Add(ctx context.Context, id int64) bool {
	r.mu.Lock()
	if _, ok := r.index[id]; ok {
		r.mu.Unlock()
		return false
	}
	r.index[id] = struct{}{}
	r.ids = append(r.ids, id)
	count := len(r.ids)
	r.mu.Unlock()

	metrics.Subscribers.Set(float64(count))
	r.logger.Info("Subscriber added", "chat_id", id, "count", count)
	r.persist(ctx)
	return true
}

// Remove unsubscribes id. It returns false, without touching the store, if id
// was not subscribed.
func (r *Registry) Remove(ctx context.Context, id int64) bool {
	r.mu.Lock()
	if _, ok := r.index[id]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.index, id)
	r.ids = slices.DeleteFunc(r.ids, func(v int64) bool { return v == id })
	count := len(r.ids)
	r.mu.Unlock()

	metrics.Subscribers.Set(float64(count))
	r.logger.Info("Subscriber removed", "chat_id", id, "count", count)
	r.persist(ctx)
	return true
}

// Snapshot returns a copy of the subscriber ids in insertion order.
func (r *Registry) Snapshot() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.ids)
}

// Len returns the number of subscribers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids)
}

// persist writes the current list. Failures are logged and retried implicitly
// by the next mutation, which rewrites the whole list.
func (r *Registry) persist(ctx context.Context) {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	ids := r.Snapshot()
	if err := r.store.SaveSubscribers(ctx, ids); err != nil {
		r.logger.Error("Failed to save subscribers", "count", len(ids), "error", err)
	}
}
