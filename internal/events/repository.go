package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marea-events/backend/internal/models"
)

var (
	// ErrNotFound is returned when no event exists for the given id.
	ErrNotFound = errors.New("event not found")
	// ErrNoChanges is returned when a patch supplies zero fields.
	ErrNoChanges = errors.New("no changes to apply")
	// ErrCapacityBelowAdmitted is returned when a patch would shrink capacity
	// under the number of already admitted registrations.
	ErrCapacityBelowAdmitted = errors.New("capacity below admitted count")
)

const eventColumns = `event_id, title, description, location, starts_at, ends_at,
	capacity, admitted_count, status, waiver_required, waiver_version, created_at, updated_at`

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt,
		&e.Capacity, &e.AdmittedCount, &e.Status, &e.WaiverRequired, &e.WaiverVersion,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event. Status is always draft on creation.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (event_id, title, description, location, starts_at, ends_at, capacity, status, waiver_required, waiver_version)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, 'draft', $7, $8)
		RETURNING event_id, admitted_count, status, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt,
		e.Capacity, e.WaiverRequired, e.WaiverVersion).
		Scan(&e.ID, &e.AdmittedCount, &e.Status, &e.CreatedAt, &e.UpdatedAt)
}

// GetByID returns an event by id regardless of status.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE event_id = $1`, id))
}

// Patch applies the supplied fields of in to the event and refreshes
// updated_at. ErrNoChanges when in carries zero fields.
func (r *Repository) Patch(ctx context.Context, id uuid.UUID, in *models.UpdateEventInput) (*models.Event, error) {
	var sets []string
	var args []interface{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if in.Title != nil {
		add("title", *in.Title)
	}
	if in.Description != nil {
		add("description", *in.Description)
	}
	if in.Location != nil {
		add("location", *in.Location)
	}
	if in.StartsAt != nil {
		add("starts_at", *in.StartsAt)
	}
	if in.EndsAt != nil {
		add("ends_at", *in.EndsAt)
	}
	if in.Capacity != nil {
		add("capacity", *in.Capacity)
	}
	if in.Status != nil {
		add("status", *in.Status)
	}
	if in.WaiverRequired != nil {
		add("waiver_required", *in.WaiverRequired)
	}
	if len(sets) == 0 {
		return nil, ErrNoChanges
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	q := fmt.Sprintf(`UPDATE events SET %s WHERE event_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), eventColumns)
	e, err := scanEvent(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" {
			return nil, ErrCapacityBelowAdmitted
		}
		return nil, err
	}
	return e, nil
}

// ListPublished returns published events ordered by start time descending.
func (r *Repository) ListPublished(ctx context.Context) ([]models.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events WHERE status = 'published' ORDER BY starts_at DESC`)
}

// ListAll returns every event regardless of status, newest created first.
func (r *Repository) ListAll(ctx context.Context) ([]models.Event, error) {
	return r.list(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at DESC`)
}

func (r *Repository) list(ctx context.Context, q string) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt,
			&e.Capacity, &e.AdmittedCount, &e.Status, &e.WaiverRequired, &e.WaiverVersion,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
