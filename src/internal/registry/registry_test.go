package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecordStore struct {
	mu       sync.Mutex
	ignored  []string
	addCalls int
	loadErr  error
	addErr   error
}

func (s *fakeRecordStore) LoadIgnoredUsers(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]string(nil), s.ignored...), nil
}

func (s *fakeRecordStore) AddIgnoredUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCalls++
	if s.addErr != nil {
		return s.addErr
	}
	s.ignored = append(s.ignored, userID)
	return nil
}

func TestHydrateLoadsDurableRecord(t *testing.T) {
	store := &fakeRecordStore{ignored: []string{"7", "42"}}
	reg := New(store)

	require.NoError(t, reg.Hydrate(context.Background()))
	assert.True(t, reg.Contains("7"))
	assert.True(t, reg.Contains("42"))
	assert.False(t, reg.Contains("99"))
}

func TestHydratePropagatesStoreError(t *testing.T) {
	store := &fakeRecordStore{loadErr: errors.New("boom")}
	reg := New(store)

	assert.Error(t, reg.Hydrate(context.Background()))
}

func TestAddIsIdempotent(t *testing.T) {
	store := &fakeRecordStore{}
	reg := New(store)
	ctx := context.Background()

	require.NoError(t, reg.Add(ctx, "42"))
	require.NoError(t, reg.Add(ctx, "42"))
	require.NoError(t, reg.Add(ctx, "42"))

	assert.True(t, reg.Contains("42"))
	// The durable record is only written on the first add.
	assert.Equal(t, 1, store.addCalls)
}

func TestAddKeepsMembershipOnPersistFailure(t *testing.T) {
	store := &fakeRecordStore{addErr: errors.New("write failed")}
	reg := New(store)

	err := reg.Add(context.Background(), "42")
	assert.Error(t, err)
	// Membership is monotonic within the process even if the durable write
	// failed; the next event for this user is still short-circuited.
	assert.True(t, reg.Contains("42"))
}

func TestListIsSorted(t *testing.T) {
	store := &fakeRecordStore{}
	reg := New(store)
	ctx := context.Background()

	require.NoError(t, reg.Add(ctx, "9"))
	require.NoError(t, reg.Add(ctx, "1"))
	require.NoError(t, reg.Add(ctx, "42"))

	assert.Equal(t, []string{"1", "42", "9"}, reg.List())
}

func TestConcurrentAdds(t *testing.T) {
	store := &fakeRecordStore{}
	reg := New(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = reg.Add(ctx, "42")
		}()
	}
	wg.Wait()

	assert.True(t, reg.Contains("42"))
	assert.Equal(t, 1, store.addCalls)
}
