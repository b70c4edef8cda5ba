package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Registry is the in-memory set of user ids whose events are discarded
// without a user-store lookup. Membership only grows within a process
// lifetime; external state has to be reset to un-ignore a user.
type Registry struct {
	mu      sync.RWMutex
	ignored map[string]struct{}
	records RecordStore
}

func New(records RecordStore) *Registry {
	return &Registry{
		ignored: make(map[string]struct{}),
		records: records,
	}
}

// Hydrate loads the durable ignored-users record into memory. Called once at
// process start.
func (r *Registry) Hydrate(ctx context.Context) error {
	ids, err := r.records.LoadIgnoredUsers(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	for _, id := range ids {
		r.ignored[id] = struct{}{}
	}
	r.mu.Unlock()

	logrus.WithField("count", len(ids)).Info("Ignored users registry hydrated")
	return nil
}

func (r *Registry) Contains(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ignored[userID]
	return ok
}

// Add marks a user as ignored and persists the durable record. Adding an
// already-ignored user is a no-op.
func (r *Registry) Add(ctx context.Context, userID string) error {
	r.mu.Lock()
	if _, ok := r.ignored[userID]; ok {
		r.mu.Unlock()
		return nil
	}
	r.ignored[userID] = struct{}{}
	r.mu.Unlock()

	if err := r.records.AddIgnoredUser(ctx, userID); err != nil {
		// The in-memory entry stays so short-circuiting keeps working for
		// this process lifetime even when the durable write failed.
		return err
	}

	logrus.WithField("user_id", userID).Info("User added to ignored registry")
	return nil
}

// List returns the current membership, sorted for stable output.
func (r *Registry) List() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.ignored))
	for id := range r.ignored {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
