// Package participation decides whether a user joins or leaves an event and
// keeps the participant count and remaining seats consistent with the store.
package participation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
)

var (
	// ErrNotAuthenticated is returned when an anonymous caller tries an
	// operation that needs a user.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrEventFull is returned when joining would exceed the event capacity.
	ErrEventFull = repository.ErrEventFull

	// ErrStoreUnavailable wraps any failure talking to the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound is returned when the event does not exist or is not
	// visible to the caller.
	ErrNotFound = repository.ErrNotFound
)

// EventReader fetches events by id.
type EventReader interface {
	GetByID(ctx context.Context, id string) (*model.Event, error)
}

// Store is the participation record store keyed by (event, user).
// JoinWithinCapacity must check capacity and insert atomically with respect
// to other joiners of the same event.
type Store interface {
	Exists(ctx context.Context, eventID, userID string) (bool, error)
	JoinWithinCapacity(ctx context.Context, eventID, userID string) error
	Delete(ctx context.Context, eventID, userID string) (bool, error)
	CountByEvent(ctx context.Context, eventID string) (int, error)
}

// Manager mediates join/leave decisions.
type Manager struct {
	events EventReader
	store  Store
	logger *slog.Logger
	locks  *keyLock
}

// NewManager constructs a Manager.
func NewManager(events EventReader, store Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		events: events,
		store:  store,
		logger: logger,
		locks:  newKeyLock(),
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// Status reports whether the identity participates in the event.
func (m *Manager) Status(ctx context.Context, eventID string, id model.Identity) (*model.ParticipationStatus, error) {
	if id.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}
	exists, err := m.store.Exists(ctx, eventID, id.UserID)
	if err != nil {
		return nil, unavailable("lookup participation", err)
	}
	return &model.ParticipationStatus{EventID: eventID, IsParticipating: exists}, nil
}

// ParticipantCount returns the number of participants of an event. Store
// failures are logged and reported as 0 so a display never blocks on them.
func (m *Manager) ParticipantCount(ctx context.Context, eventID string) int {
	count, err := m.store.CountByEvent(ctx, eventID)
	if err != nil {
		m.logger.Error("count participants", "event_id", eventID, "error", err)
		return 0
	}
	if count < 0 {
		return 0
	}
	return count
}

// Toggle joins the event when the identity is not participating and leaves
// it otherwise. Exactly one insert or one delete reaches the store on
// success; failure paths write nothing. Same-key toggles are serialised
// here, while joiners of one event are serialised by the store.
func (m *Manager) Toggle(ctx context.Context, eventID string, id model.Identity) (*model.ToggleResult, error) {
	if id.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}

	unlock := m.locks.Lock(eventID + "\x00" + id.UserID)
	defer unlock()

	event, err := m.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, unavailable("load event", err)
	}
	if !event.VisibleTo(id.UserID) {
		return nil, ErrNotFound
	}

	exists, err := m.store.Exists(ctx, eventID, id.UserID)
	if err != nil {
		return nil, unavailable("lookup participation", err)
	}

	var state model.ParticipationState
	if exists {
		state, err = m.leave(ctx, eventID, id.UserID)
	} else {
		state, err = m.join(ctx, eventID, id.UserID)
	}
	if err != nil {
		return nil, err
	}

	count := m.ParticipantCount(ctx, eventID)
	return &model.ToggleResult{
		EventID:          eventID,
		State:            state,
		IsParticipating:  state == model.StateJoined,
		ParticipantCount: count,
		Remaining:        event.Remaining(count),
		Full:             event.IsFull(count),
	}, nil
}

func (m *Manager) leave(ctx context.Context, eventID, userID string) (model.ParticipationState, error) {
	deleted, err := m.store.Delete(ctx, eventID, userID)
	if err != nil {
		return "", unavailable("delete participation", err)
	}
	if !deleted {
		m.logger.Info("participation already removed", "event_id", eventID, "user_id", userID)
	}
	return model.StateLeft, nil
}

func (m *Manager) join(ctx context.Context, eventID, userID string) (model.ParticipationState, error) {
	err := m.store.JoinWithinCapacity(ctx, eventID, userID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrAlreadyParticipating):
		m.logger.Info("participation already present", "event_id", eventID, "user_id", userID)
	case errors.Is(err, repository.ErrEventFull):
		return "", ErrEventFull
	case errors.Is(err, repository.ErrNotFound):
		return "", ErrNotFound
	default:
		return "", unavailable("join event", err)
	}
	return model.StateJoined, nil
}
