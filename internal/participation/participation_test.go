package participation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
)

// --- in-memory test doubles ---

type memEvents struct {
	events map[string]model.Event
	err    error
}

func (s *memEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

type memStore struct {
	mu      sync.Mutex
	rows    map[string]map[string]bool
	places  map[string]int
	inserts int
	deletes int
	calls   int

	// joinDelay widens the window between the capacity check and the insert.
	joinDelay time.Duration

	existsErr error
	joinErr   error
	deleteErr error
	countErr  error
}

func newMemStore() *memStore {
	return &memStore{
		rows:   make(map[string]map[string]bool),
		places: make(map[string]int),
	}
}

func (s *memStore) Exists(_ context.Context, eventID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.rows[eventID][userID], nil
}

// JoinWithinCapacity holds the store lock across the check and the insert,
// like the row lock taken by the PostgreSQL repository.
func (s *memStore) JoinWithinCapacity(_ context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.joinErr != nil {
		return s.joinErr
	}
	if s.rows[eventID] == nil {
		s.rows[eventID] = make(map[string]bool)
	}
	if s.rows[eventID][userID] {
		return repository.ErrAlreadyParticipating
	}
	if places := s.places[eventID]; places > 0 && len(s.rows[eventID]) >= places {
		return repository.ErrEventFull
	}
	time.Sleep(s.joinDelay)
	s.rows[eventID][userID] = true
	s.inserts++
	return nil
}

func (s *memStore) Delete(_ context.Context, eventID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.deleteErr != nil {
		return false, s.deleteErr
	}
	if !s.rows[eventID][userID] {
		return false, nil
	}
	delete(s.rows[eventID], userID)
	s.deletes++
	return true, nil
}

func (s *memStore) CountByEvent(_ context.Context, eventID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.countErr != nil {
		return 0, s.countErr
	}
	return len(s.rows[eventID]), nil
}

func (s *memStore) seed(eventID string, users ...string) {
	if s.rows[eventID] == nil {
		s.rows[eventID] = make(map[string]bool)
	}
	for _, u := range users {
		s.rows[eventID][u] = true
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(events ...model.Event) (*Manager, *memStore) {
	es := &memEvents{events: make(map[string]model.Event)}
	for _, e := range events {
		es.events[e.ID] = e
	}
	store := newMemStore()
	for _, e := range events {
		store.places[e.ID] = e.Info.Places
	}
	return NewManager(es, store, discardLogger()), store
}

func user(id string) model.Identity {
	return model.Identity{UserID: id}
}

// --- tests ---

func TestToggle_CapacityScenario(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(model.Event{ID: "ev", Info: model.ExtraInfo{Places: 2}})

	res, err := m.Toggle(ctx, "ev", user("A"))
	if err != nil {
		t.Fatalf("A join: %v", err)
	}
	if res.State != model.StateJoined || res.ParticipantCount != 1 || res.Remaining == nil || *res.Remaining != 1 {
		t.Fatalf("A join result = %+v", res)
	}

	res, err = m.Toggle(ctx, "ev", user("B"))
	if err != nil {
		t.Fatalf("B join: %v", err)
	}
	if res.ParticipantCount != 2 || *res.Remaining != 0 || !res.Full {
		t.Fatalf("B join result = %+v", res)
	}

	_, err = m.Toggle(ctx, "ev", user("C"))
	if !errors.Is(err, ErrEventFull) {
		t.Fatalf("C join error = %v, want ErrEventFull", err)
	}
	if got := m.ParticipantCount(ctx, "ev"); got != 2 {
		t.Fatalf("count after rejected join = %d, want 2", got)
	}
	if store.inserts != 2 {
		t.Fatalf("inserts = %d, want 2", store.inserts)
	}
}

func TestToggle_JoinBelowCapacityIncrementsCount(t *testing.T) {
	ctx := context.Background()
	for n := 0; n < 3; n++ {
		m, store := newTestManager(model.Event{ID: "ev", Info: model.ExtraInfo{Places: 3}})
		for i := 0; i < n; i++ {
			store.seed("ev", string(rune('a'+i)))
		}
		res, err := m.Toggle(ctx, "ev", user("joiner"))
		if err != nil {
			t.Fatalf("n=%d: join: %v", n, err)
		}
		if res.ParticipantCount != n+1 {
			t.Fatalf("n=%d: count = %d, want %d", n, res.ParticipantCount, n+1)
		}
	}
}

func TestToggle_TwiceRestoresState(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(model.Event{ID: "ev"})

	before, err := m.Status(ctx, "ev", user("A"))
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	first, err := m.Toggle(ctx, "ev", user("A"))
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if first.State != model.StateJoined || first.ParticipantCount != 1 || first.Remaining != nil {
		t.Fatalf("first toggle = %+v", first)
	}

	second, err := m.Toggle(ctx, "ev", user("A"))
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if second.State != model.StateLeft || second.ParticipantCount != 0 {
		t.Fatalf("second toggle = %+v", second)
	}

	after, err := m.Status(ctx, "ev", user("A"))
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if after.IsParticipating != before.IsParticipating {
		t.Fatalf("IsParticipating = %v, want %v", after.IsParticipating, before.IsParticipating)
	}
}

func TestToggle_LeaveAllowedWhenEventFull(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(model.Event{ID: "ev", Info: model.ExtraInfo{Places: 1}})
	store.seed("ev", "A")

	res, err := m.Toggle(ctx, "ev", user("A"))
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if res.State != model.StateLeft || res.ParticipantCount != 0 || *res.Remaining != 1 || res.Full {
		t.Fatalf("leave result = %+v", res)
	}
}

func TestToggle_NoEvictionWhenOverCapacity(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(model.Event{ID: "ev", Info: model.ExtraInfo{Places: 1}})
	store.seed("ev", "A", "B")

	_, err := m.Toggle(ctx, "ev", user("C"))
	if !errors.Is(err, ErrEventFull) {
		t.Fatalf("join error = %v, want ErrEventFull", err)
	}

	res, err := m.Toggle(ctx, "ev", user("B"))
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if res.ParticipantCount != 1 || *res.Remaining != 0 {
		t.Fatalf("leave result = %+v", res)
	}
}

func TestToggle_AnonymousTouchesNothing(t *testing.T) {
	m, store := newTestManager(model.Event{ID: "ev"})

	_, err := m.Toggle(context.Background(), "ev", model.Identity{})
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("error = %v, want ErrNotAuthenticated", err)
	}
	if store.calls != 0 {
		t.Fatalf("store calls = %d, want 0", store.calls)
	}
}

func TestStatus_Anonymous(t *testing.T) {
	m, _ := newTestManager(model.Event{ID: "ev"})
	if _, err := m.Status(context.Background(), "ev", model.Identity{}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("error = %v, want ErrNotAuthenticated", err)
	}
}

func TestToggle_UnknownOrHiddenEvent(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(model.Event{ID: "secret", IsPrivate: true, OwnerID: "owner"})

	if _, err := m.Toggle(ctx, "missing", user("A")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing event error = %v, want ErrNotFound", err)
	}
	if _, err := m.Toggle(ctx, "secret", user("A")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("private event error = %v, want ErrNotFound", err)
	}
	if store.inserts != 0 {
		t.Fatalf("inserts = %d, want 0", store.inserts)
	}

	res, err := m.Toggle(ctx, "secret", user("owner"))
	if err != nil || res.State != model.StateJoined {
		t.Fatalf("owner toggle = %+v, %v", res, err)
	}
}

func TestToggle_StoreFailures(t *testing.T) {
	boom := errors.New("connection refused")
	tests := []struct {
		name  string
		setup func(*memStore)
		seed  bool
	}{
		{name: "lookup", setup: func(s *memStore) { s.existsErr = boom }},
		{name: "join", setup: func(s *memStore) { s.joinErr = boom }},
		{name: "delete", setup: func(s *memStore) { s.deleteErr = boom }, seed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store := newTestManager(model.Event{ID: "ev", Info: model.ExtraInfo{Places: 5}})
			if tt.seed {
				store.seed("ev", "A")
			}
			tt.setup(store)

			_, err := m.Toggle(context.Background(), "ev", user("A"))
			if !errors.Is(err, ErrStoreUnavailable) {
				t.Fatalf("error = %v, want ErrStoreUnavailable", err)
			}
			if !errors.Is(err, boom) {
				t.Fatalf("error = %v, want wrapped cause", err)
			}
			if store.inserts != 0 || store.deletes != 0 {
				t.Fatalf("writes happened: inserts=%d deletes=%d", store.inserts, store.deletes)
			}
		})
	}
}

func TestToggle_EventLoadFailure(t *testing.T) {
	es := &memEvents{err: errors.New("timeout")}
	m := NewManager(es, newMemStore(), discardLogger())
	if _, err := m.Toggle(context.Background(), "ev", user("A")); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("error = %v, want ErrStoreUnavailable", err)
	}
}

func TestToggle_DuplicateInsertCountsAsJoined(t *testing.T) {
	m, store := newTestManager(model.Event{ID: "ev"})
	store.joinErr = repository.ErrAlreadyParticipating

	res, err := m.Toggle(context.Background(), "ev", user("A"))
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if res.State != model.StateJoined || !res.IsParticipating {
		t.Fatalf("result = %+v, want joined", res)
	}
}

func TestParticipantCount_FallsBackToZero(t *testing.T) {
	m, store := newTestManager(model.Event{ID: "ev"})
	store.seed("ev", "A", "B")
	if got := m.ParticipantCount(context.Background(), "ev"); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}

	store.countErr = errors.New("boom")
	if got := m.ParticipantCount(context.Background(), "ev"); got != 0 {
		t.Fatalf("count on failure = %d, want 0", got)
	}
}

func TestToggle_ConcurrentSameUserStaysConsistent(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(model.Event{ID: "ev", Info: model.ExtraInfo{Places: 1}})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Toggle(ctx, "ev", user("A"))
		}()
	}
	wg.Wait()

	// Ten serialised toggles from NotParticipating end in NotParticipating.
	if got := m.ParticipantCount(ctx, "ev"); got != 0 {
		t.Fatalf("count = %d, want 0", got)
	}
	if store.inserts != 5 || store.deletes != 5 {
		t.Fatalf("inserts=%d deletes=%d, want 5 each", store.inserts, store.deletes)
	}
	if m.locks.size() != 0 {
		t.Fatalf("lock table size = %d, want 0", m.locks.size())
	}
}

func TestToggle_ConcurrentJoinersNeverOverbook(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(model.Event{ID: "ev", Info: model.ExtraInfo{Places: 1}})
	store.joinDelay = 20 * time.Millisecond

	users := []string{"A", "B", "C", "D", "E"}
	errs := make([]error, len(users))
	var wg sync.WaitGroup
	for i, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = m.Toggle(ctx, "ev", user(u))
		}()
	}
	wg.Wait()

	joined, full := 0, 0
	for i, err := range errs {
		switch {
		case err == nil:
			joined++
		case errors.Is(err, ErrEventFull):
			full++
		default:
			t.Fatalf("%s: unexpected error %v", users[i], err)
		}
	}
	if joined != 1 || full != len(users)-1 {
		t.Fatalf("joined=%d full=%d, want 1 and %d", joined, full, len(users)-1)
	}
	if got := m.ParticipantCount(ctx, "ev"); got != 1 {
		t.Fatalf("count = %d, want 1", got)
	}
}

func TestToggle_CountFailureAfterJoinReportsZero(t *testing.T) {
	m, store := newTestManager(model.Event{ID: "ev", Info: model.ExtraInfo{Places: 5}})
	store.countErr = errors.New("timeout")

	res, err := m.Toggle(context.Background(), "ev", user("A"))
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if res.State != model.StateJoined || res.ParticipantCount != 0 || store.inserts != 1 {
		t.Fatalf("result = %+v inserts=%d", res, store.inserts)
	}
}
