// Package service implements business logic, validation, and orchestration
// between HTTP handlers and the repository layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/participation"
	"github.com/Shivanand-hulikatti/eventhub/internal/repository"
)

var (
	// ErrValidation marks a request rejected because of its content.
	ErrValidation = errors.New("invalid request")
	// ErrForbidden is returned when the caller may see an event but not act on it.
	ErrForbidden = errors.New("forbidden")
)

const (
	maxTitleLength = 200
	maxTags        = 20
	maxPlaces      = 100_000
	viewFanOut     = 8
)

// dateLayouts are the accepted event date formats, most specific first.
// The zone-less ones match what an HTML datetime-local input submits.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// EventStore persists events.
type EventStore interface {
	Create(ctx context.Context, event model.Event) (*model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	ListVisible(ctx context.Context, viewerID string) ([]model.Event, error)
}

// ParticipantLister lists the participations of one event.
type ParticipantLister interface {
	ListByEvent(ctx context.Context, eventID string) ([]model.Participation, error)
}

// EventService orchestrates event-related business operations.
type EventService struct {
	events       EventStore
	participants ParticipantLister
	manager      *participation.Manager
	logger       *slog.Logger
	loc          *time.Location
}

// NewEventService constructs an EventService with its dependencies.
func NewEventService(
	events EventStore,
	participants ParticipantLister,
	manager *participation.Manager,
	logger *slog.Logger,
) *EventService {
	return &EventService{
		events:       events,
		participants: participants,
		manager:      manager,
		logger:       logger,
		loc:          time.UTC,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// CreateEvent validates the request and stores a new event owned by the caller.
func (s *EventService) CreateEvent(ctx context.Context, id model.Identity, req model.CreateEventRequest) (*model.EventView, error) {
	if id.IsAnonymous() {
		return nil, participation.ErrNotAuthenticated
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	if len(title) > maxTitleLength {
		return nil, invalid("title cannot exceed %d characters", maxTitleLength)
	}
	date, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	tags := NormaliseTags(append(append([]string{}, req.Tags...), strings.Split(req.TagsText, ",")...))
	if len(tags) > maxTags {
		return nil, invalid("at most %d tags are allowed", maxTags)
	}
	places := req.Places
	if places < 0 {
		places = 0
	}
	if places > maxPlaces {
		return nil, invalid("places cannot exceed %d", maxPlaces)
	}

	event, err := s.events.Create(ctx, model.Event{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Date:        date,
		Location:    strings.TrimSpace(req.Location),
		Tags:        tags,
		IsPrivate:   req.IsPrivate,
		Info:        model.ExtraInfo{Places: places},
		OwnerID:     id.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create event: %w", participation.ErrStoreUnavailable, err)
	}
	return &model.EventView{Event: *event, Remaining: event.Remaining(0)}, nil
}

// ListEvents returns the events visible to the caller with their
// participation statistics.
func (s *EventService) ListEvents(ctx context.Context, id model.Identity) ([]model.EventView, error) {
	events, err := s.events.ListVisible(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: list events: %w", participation.ErrStoreUnavailable, err)
	}

	views := make([]model.EventView, len(events))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(viewFanOut)
	for i := range events {
		g.Go(func() error {
			views[i] = s.view(gctx, &events[i], id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// GetEvent returns one event as seen by the caller.
func (s *EventService) GetEvent(ctx context.Context, id model.Identity, eventID string) (*model.EventView, error) {
	event, err := s.visibleEvent(ctx, id, eventID)
	if err != nil {
		return nil, err
	}
	v := s.view(ctx, event, id)
	return &v, nil
}

// ParticipantCount returns the best-effort participant count of a visible event.
func (s *EventService) ParticipantCount(ctx context.Context, id model.Identity, eventID string) (int, error) {
	if _, err := s.visibleEvent(ctx, id, eventID); err != nil {
		return 0, err
	}
	return s.manager.ParticipantCount(ctx, eventID), nil
}

// ListParticipants returns the participations of an event. Only the owner
// may list them.
func (s *EventService) ListParticipants(ctx context.Context, id model.Identity, eventID string) ([]model.Participation, error) {
	if id.IsAnonymous() {
		return nil, participation.ErrNotAuthenticated
	}
	event, err := s.visibleEvent(ctx, id, eventID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != id.UserID {
		return nil, ErrForbidden
	}
	regs, err := s.participants.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: list participants: %w", participation.ErrStoreUnavailable, err)
	}
	return regs, nil
}

// ValidEventID reports whether id can name an event.
func ValidEventID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *EventService) visibleEvent(ctx context.Context, id model.Identity, eventID string) (*model.Event, error) {
	if !ValidEventID(eventID) {
		return nil, repository.ErrNotFound
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get event: %w", participation.ErrStoreUnavailable, err)
	}
	if !event.VisibleTo(id.UserID) {
		return nil, repository.ErrNotFound
	}
	return event, nil
}

// view assembles the caller's view of an event. Lookup failures degrade to
// "0 participants" and "not participating".
func (s *EventService) view(ctx context.Context, event *model.Event, id model.Identity) model.EventView {
	count := s.manager.ParticipantCount(ctx, event.ID)
	v := model.EventView{
		Event:            *event,
		ParticipantCount: count,
		Remaining:        event.Remaining(count),
		Full:             event.IsFull(count),
	}
	if !id.IsAnonymous() {
		status, err := s.manager.Status(ctx, event.ID, id)
		if err != nil {
			s.logger.Warn("participation status", "event_id", event.ID, "error", err)
		} else {
			v.IsParticipating = status.IsParticipating
		}
	}
	return v
}

func (s *EventService) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, invalid("date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, s.loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalid("date %q is not a valid date", raw)
}

// NormaliseTags trims each tag, drops empty ones and duplicates, and keeps
// the first-seen order.
func NormaliseTags(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
