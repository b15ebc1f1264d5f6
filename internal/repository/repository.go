// Package repository implements all database queries for the event participation system.
// It uses pgx directly (no ORM) for transparency and performance.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/eventhub/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyParticipating is returned when a participation row already exists
// for the (event, user) pair.
var ErrAlreadyParticipating = errors.New("already participating in this event")

// ErrEventFull is returned when a join would exceed the event capacity.
var ErrEventFull = errors.New("event is full")

// ErrEmailTaken is returned when an account already uses the email.
var ErrEmailTaken = errors.New("email already registered")

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, titre, description, date, lieu, tags, is_private, infos_sup, user_id, created_at`

func scanEvent(row pgx.Row, e *model.Event) error {
	return row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Location,
		&e.Tags, &e.IsPrivate, &e.Info, &e.OwnerID, &e.CreatedAt,
	)
}

// Create inserts a new event and returns it with a generated UUID.
func (r *EventRepository) Create(ctx context.Context, event model.Event) (*model.Event, error) {
	event.ID = uuid.New().String()
	event.CreatedAt = time.Now().UTC()
	if event.Tags == nil {
		event.Tags = []string{}
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO evenements (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		event.ID, event.Title, event.Description, event.Date, event.Location,
		event.Tags, event.IsPrivate, event.Info, event.OwnerID, event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return &event, nil
}

// ListVisible returns public events plus the viewer's own private events,
// public first and then by date ascending. An empty viewerID lists public
// events only.
func (r *EventRepository) ListVisible(ctx context.Context, viewerID string) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+`
		 FROM evenements
		 WHERE is_private = FALSE OR ($1 <> '' AND user_id = $1)
		 ORDER BY is_private ASC, date ASC`,
		viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var e model.Event
	err := scanEvent(r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM evenements WHERE id = $1`,
		id,
	), &e)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

// ParticipationRepository handles persistence for participations.
type ParticipationRepository struct {
	db *pgxpool.Pool
}

// NewParticipationRepository constructs a ParticipationRepository.
func NewParticipationRepository(db *pgxpool.Pool) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

// Exists reports whether the user participates in the event.
func (r *ParticipationRepository) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM participations WHERE event_id = $1 AND user_id = $2
		)`,
		eventID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check participation: %w", err)
	}
	return exists, nil
}

// JoinWithinCapacity inserts the participation only while the event has a
// free seat. The event row is locked FOR UPDATE for the whole transaction so
// concurrent joiners of one event are checked against capacity one at a time.
// It returns ErrNotFound for an unknown event, ErrAlreadyParticipating when
// the row exists and ErrEventFull when no seat is left.
func (r *ParticipationRepository) JoinWithinCapacity(ctx context.Context, eventID, userID string) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// ── Step 1: Lock the event row and read its capacity. ─────────────────
	var info model.ExtraInfo
	err = tx.QueryRow(ctx,
		`SELECT infos_sup FROM evenements WHERE id = $1 FOR UPDATE`,
		eventID,
	).Scan(&info)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("lock event row: %w", err)
	}

	// ── Step 2: Check for an existing participation. ─────────────────────
	var exists bool
	var count int
	err = tx.QueryRow(ctx,
		`SELECT
			EXISTS (SELECT 1 FROM participations WHERE event_id = $1 AND user_id = $2),
			(SELECT COUNT(*) FROM participations WHERE event_id = $1)`,
		eventID, userID,
	).Scan(&exists, &count)
	if err != nil {
		return fmt.Errorf("count participations: %w", err)
	}
	if exists {
		return ErrAlreadyParticipating
	}

	// ── Step 3: Guard against overbooking. ────────────────────────────────
	if err = checkCapacity(info.Places, count); err != nil {
		return err
	}

	// ── Step 4: Insert in the same transaction. ───────────────────────────
	tag, execErr := tx.Exec(ctx,
		`INSERT INTO participations (event_id, user_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (event_id, user_id) DO NOTHING`,
		eventID, userID, time.Now().UTC(),
	)
	if err = insertOutcome(tag.RowsAffected(), execErr); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit participation: %w", err)
	}
	return nil
}

// checkCapacity reports ErrEventFull when places is a limit and count has
// reached it. places <= 0 means unlimited.
func checkCapacity(places, count int) error {
	if places > 0 && count >= places {
		return ErrEventFull
	}
	return nil
}

// insertOutcome translates the result of a participation insert. Zero rows
// from ON CONFLICT DO NOTHING means the row already exists; a foreign key
// violation means the event or user is gone.
func insertOutcome(rowsAffected int64, err error) error {
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("insert participation: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAlreadyParticipating
	}
	return nil
}

// Delete removes the participation row and reports whether one existed.
func (r *ParticipationRepository) Delete(ctx context.Context, eventID, userID string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM participations WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("delete participation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountByEvent returns the number of participants of an event.
func (r *ParticipationRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM participations WHERE event_id = $1`,
		eventID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count participations: %w", err)
	}
	return count, nil
}

// ListByEvent returns all participations for a given event in join order.
func (r *ParticipationRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Participation, error) {
	rows, err := r.db.Query(ctx,
		`SELECT event_id, user_id, created_at
		 FROM participations
		 WHERE event_id = $1
		 ORDER BY created_at ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	defer rows.Close()

	var out []model.Participation
	for rows.Next() {
		var p model.Participation
		if err := rows.Scan(&p.EventID, &p.UserID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participation: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UserRepository handles persistence for accounts.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new account. The email must already be normalised.
func (r *UserRepository) Create(ctx context.Context, user model.User) (*model.User, error) {
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &user, nil
}

// GetByEmail returns the account with the given email or ErrNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
