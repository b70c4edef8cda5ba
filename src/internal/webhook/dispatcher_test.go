package webhook

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"stridehub-webhook-svc/src/internal/models"
	"stridehub-webhook-svc/src/internal/queue"
	"stridehub-webhook-svc/src/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserService struct {
	mu        sync.Mutex
	users     map[string]*user.User
	activity  map[string]time.Time
	processed map[string]time.Time
}

func newFakeUserService(users ...*user.User) *fakeUserService {
	f := &fakeUserService{
		users:     map[string]*user.User{},
		activity:  map[string]time.Time{},
		processed: map[string]time.Time{},
	}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserService) Resolve(_ context.Context, userID string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserService) TrackActivity(_ context.Context, userID string, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.activity[userID]; !ok || ts.After(cur) {
		f.activity[userID] = ts
	}
	return nil
}

func (f *fakeUserService) TrackProcessed(_ context.Context, userID string, ts time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.activity[userID]; !ok || ts.After(cur) {
		f.activity[userID] = ts
	}
	if cur, ok := f.processed[userID]; !ok || ts.After(cur) {
		f.processed[userID] = ts
	}
	return nil
}

func (f *fakeUserService) activityTracked(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.activity[userID]
	return ok
}

func (f *fakeUserService) processedTracked(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.processed[userID]
	return ok
}

// memQueue mimics the durable queue contract: unique (userID, activityID)
// entries, stable snapshots, idempotent removal.
type memQueue struct {
	mu      sync.Mutex
	entries map[string]*queue.Entry
}

func newMemQueue() *memQueue {
	return &memQueue{entries: map[string]*queue.Entry{}}
}

func queueKey(userID string, activityID int64) string {
	return fmt.Sprintf("%s|%d", userID, activityID)
}

func (q *memQueue) Enqueue(_ context.Context, userID string, activityID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	key := queueKey(userID, activityID)
	if _, ok := q.entries[key]; ok {
		return nil
	}
	q.entries[key] = &queue.Entry{UserID: userID, ActivityID: activityID, EnqueuedAt: time.Now().UTC()}
	return nil
}

func (q *memQueue) FetchDue(_ context.Context) ([]*queue.Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*queue.Entry, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActivityID < out[j].ActivityID })
	return out, nil
}

func (q *memQueue) Remove(_ context.Context, userID string, activityID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.entries, queueKey(userID, activityID))
	return nil
}

func (q *memQueue) Stats(_ context.Context) (*queue.Stats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return &queue.Stats{Depth: int64(len(q.entries))}, nil
}

func (q *memQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

type fakeProcessor struct {
	mu       sync.Mutex
	calls    []int64
	failWith map[int64]error
}

func (p *fakeProcessor) ProcessActivity(_ context.Context, _ string, activityID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, activityID)
	if p.failWith != nil {
		if err, ok := p.failWith[activityID]; ok {
			return err
		}
	}
	return nil
}

func (p *fakeProcessor) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type fakeNotifier struct {
	mu        sync.Mutex
	processed []int64
	deauthed  []string
}

func (n *fakeNotifier) PublishActivityProcessed(_ string, activityID int64, _ bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.processed = append(n.processed, activityID)
	return nil
}

func (n *fakeNotifier) PublishDeauthorization(userID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deauthed = append(n.deauthed, userID)
	return nil
}

type fakeDrainRunner struct {
	ran     chan struct{}
	summary *queue.Summary
	err     error
}

func (d *fakeDrainRunner) Run(context.Context) (*queue.Summary, error) {
	if d.ran != nil {
		select {
		case d.ran <- struct{}{}:
		default:
		}
	}
	if d.summary == nil {
		return &queue.Summary{}, d.err
	}
	return d.summary, d.err
}

func immediateUser(id string) *user.User {
	return &user.User{
		ID:           id,
		Status:       user.StatusActive,
		AccessToken:  "at",
		RefreshToken: "rt",
	}
}

func deferredUser(id string) *user.User {
	u := immediateUser(id)
	u.Preferences.DelayedProcessing = true
	return u
}

func TestDispatchSuspendedUserIsNoop(t *testing.T) {
	users := newFakeUserService()
	q := newMemQueue()
	processor := &fakeProcessor{}
	d := NewDispatcher(users, q, processor, nil, nil, nil)

	u := immediateUser("42")
	u.Status = user.StatusSuspended

	outcome, err := d.Dispatch(context.Background(), u, 77)
	require.NoError(t, err)
	assert.False(t, outcome.OK)
	assert.True(t, outcome.Suspended)
	assert.Zero(t, q.depth())
	assert.Zero(t, processor.callCount())
	assert.False(t, users.activityTracked("42"))
	assert.False(t, users.processedTracked("42"))
}

func TestDispatchDeferredProcessing(t *testing.T) {
	u := deferredUser("42")
	users := newFakeUserService(u)
	q := newMemQueue()
	processor := &fakeProcessor{}
	d := NewDispatcher(users, q, processor, nil, nil, nil)

	outcome, err := d.Dispatch(context.Background(), u, 77)
	require.NoError(t, err)
	assert.True(t, outcome.OK)
	assert.True(t, outcome.Deferred)
	assert.Equal(t, 1, q.depth())
	assert.Zero(t, processor.callCount())
	assert.True(t, users.activityTracked("42"))
	assert.False(t, users.processedTracked("42"))
}

func TestDispatchDeferredEnqueueIsIdempotent(t *testing.T) {
	u := deferredUser("42")
	users := newFakeUserService(u)
	q := newMemQueue()
	d := NewDispatcher(users, q, &fakeProcessor{}, nil, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := d.Dispatch(context.Background(), u, 77)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, q.depth())
}

func TestDispatchImmediateSuccess(t *testing.T) {
	u := immediateUser("42")
	users := newFakeUserService(u)
	q := newMemQueue()
	processor := &fakeProcessor{}
	notifier := &fakeNotifier{}
	d := NewDispatcher(users, q, processor, notifier, nil, nil)

	outcome, err := d.Dispatch(context.Background(), u, 77)
	require.NoError(t, err)
	assert.True(t, outcome.OK)
	assert.False(t, outcome.Deferred)
	assert.Zero(t, q.depth())
	assert.Equal(t, 1, processor.callCount())
	assert.True(t, users.activityTracked("42"))
	assert.True(t, users.processedTracked("42"))
	assert.Equal(t, []int64{77}, notifier.processed)
}

func TestDispatchImmediateFailure(t *testing.T) {
	u := immediateUser("42")
	users := newFakeUserService(u)
	q := newMemQueue()
	processor := &fakeProcessor{failWith: map[int64]error{77: models.ErrProcessingFailed}}
	d := NewDispatcher(users, q, processor, nil, nil, nil)

	outcome, err := d.Dispatch(context.Background(), u, 77)
	require.ErrorIs(t, err, models.ErrProcessingFailed)
	assert.False(t, outcome.OK)
	assert.True(t, users.activityTracked("42"))
	assert.False(t, users.processedTracked("42"))
}

func TestDispatchTriggersOpportunisticDrain(t *testing.T) {
	u := immediateUser("42")
	users := newFakeUserService(u)
	drainer := &fakeDrainRunner{ran: make(chan struct{}, 1)}
	d := NewDispatcher(users, newMemQueue(), &fakeProcessor{}, nil, drainer, nil)

	_, err := d.Dispatch(context.Background(), u, 77)
	require.NoError(t, err)

	select {
	case <-drainer.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("expected opportunistic drain to run")
	}
}
