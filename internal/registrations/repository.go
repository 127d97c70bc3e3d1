package registrations

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
	// ErrNotFound is returned when no registration exists for the key.
	ErrNotFound = errors.New("registration not found")
	// ErrEventNotOpen is returned when the event is unknown or not published.
	ErrEventNotOpen = errors.New("event not open for registration")
	// ErrCapacityExceeded is returned when the event has admitted its full capacity.
	ErrCapacityExceeded = errors.New("event capacity exceeded")
	// ErrAlreadyRegistered is returned when the participant already holds a
	// registration for the event.
	ErrAlreadyRegistered = errors.New("already registered for this event")
	// ErrAlreadyScanned is returned when the credential was redeemed before.
	ErrAlreadyScanned = errors.New("credential already redeemed")
	// ErrTokenMismatch is returned when the presented secret does not match
	// the stored credential.
	ErrTokenMismatch = errors.New("credential token mismatch")
)

const registrationColumns = `event_id, email, registration_id, full_name, phone, age_range,
	gender, city, organization, organization_other, waiver, qr_token, qr_s3_key,
	scanned, scanned_at, scanned_by, created_at`

// Repository handles registration persistence. Capacity admission and
// attendance redemption are conditional writes here, never read-modify-write
// at the application layer.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	var phone, orgOther, scannedBy *string
	err := row.Scan(&reg.EventID, &reg.Email, &reg.RegistrationID, &reg.FullName, &phone,
		&reg.AgeRange, &reg.Gender, &reg.City, &reg.Organization, &orgOther, &reg.Waiver,
		&reg.QRToken, &reg.QRS3Key, &reg.Scanned, &reg.ScannedAt, &scannedBy, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if phone != nil {
		reg.Phone = *phone
	}
	if orgOther != nil {
		reg.OrganizationOther = *orgOther
	}
	if scannedBy != nil {
		reg.ScannedBy = *scannedBy
	}
	return &reg, nil
}

// Register admits a registration inside a single transaction. Preconditions
// are checked in order: event published, capacity available, no duplicate,
// waiver complete (via waiverCheck, called with the event row). The capacity
// claim is a conditional increment on the event; any later failure rolls it
// back with the transaction, so at most capacity registrations ever commit.
func (r *Repository) Register(ctx context.Context, reg *models.Registration, waiverCheck func(ev *models.Event) error) (*models.Event, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	ev, err := getEventTx(ctx, tx, reg.EventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotOpen
		}
		return nil, err
	}
	if ev.Status != models.StatusPublished {
		return nil, ErrEventNotOpen
	}

	// Atomic capacity claim. Zero rows means the event filled up (or was
	// unpublished) since the read above.
	tag, err := tx.Exec(ctx, `UPDATE events SET admitted_count = admitted_count + 1
		WHERE event_id = $1 AND status = 'published' AND admitted_count < capacity`, reg.EventID)
	if err != nil {
		return nil, fmt.Errorf("capacity claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrCapacityExceeded
	}

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND email = $2)`,
		reg.EventID, reg.Email).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyRegistered
	}

	if err := waiverCheck(ev); err != nil {
		return nil, err
	}

	const q = `INSERT INTO registrations (event_id, email, registration_id, full_name, phone, age_range,
			gender, city, organization, organization_other, waiver, qr_token, qr_s3_key, scanned)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, false)
		RETURNING created_at`
	err = tx.QueryRow(ctx, q, reg.EventID, reg.Email, reg.RegistrationID, reg.FullName,
		nullable(reg.Phone), reg.AgeRange, reg.Gender, reg.City, reg.Organization,
		nullable(reg.OrganizationOther), reg.Waiver, reg.QRToken, reg.QRS3Key).
		Scan(&reg.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Lost the duplicate race; the claim rolls back with the tx.
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ev, nil
}

// Redeem flips a registration's attendance flag exactly once. The flag check
// and the flip are one conditional update, so two racing scans of the same
// credential always yield one success and one ErrAlreadyScanned.
func (r *Repository) Redeem(ctx context.Context, eventID uuid.UUID, email, presentedToken, scannedBy string) (*models.Registration, error) {
	reg, err := r.Get(ctx, eventID, email)
	if err != nil {
		return nil, err
	}
	if reg.QRToken.String() != presentedToken {
		return nil, ErrTokenMismatch
	}

	const q = `UPDATE registrations SET scanned = true, scanned_at = NOW(), scanned_by = $3
		WHERE event_id = $1 AND email = $2 AND scanned = false
		RETURNING scanned_at`
	err = r.pool.QueryRow(ctx, q, eventID, email, scannedBy).Scan(&reg.ScannedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyScanned
		}
		return nil, err
	}
	reg.Scanned = true
	reg.ScannedBy = scannedBy
	return reg, nil
}

// Get returns the registration for (eventID, email). The email must already
// be normalized.
func (r *Repository) Get(ctx context.Context, eventID uuid.UUID, email string) (*models.Registration, error) {
	return scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE event_id = $1 AND email = $2`,
		eventID, email))
}

// List returns registrations for an event, newest first, optionally filtered
// by a case-insensitive email substring.
func (r *Repository) List(ctx context.Context, eventID uuid.UUID, emailFilter string) ([]models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1`
	args := []interface{}{eventID}
	if emailFilter != "" {
		q += ` AND email ILIKE '%' || $2 || '%' ESCAPE '\'`
		args = append(args, escapeLike(emailFilter))
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *reg)
	}
	return list, rows.Err()
}

func getEventTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Event, error) {
	const q = `SELECT event_id, title, description, location, starts_at, ends_at, capacity,
		admitted_count, status, waiver_required, waiver_version, created_at, updated_at
		FROM events WHERE event_id = $1`
	var e models.Event
	err := tx.QueryRow(ctx, q, id).Scan(&e.ID, &e.Title, &e.Description, &e.Location,
		&e.StartsAt, &e.EndsAt, &e.Capacity, &e.AdmittedCount, &e.Status,
		&e.WaiverRequired, &e.WaiverVersion, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// escapeLike escapes LIKE wildcards so a filter matches as a literal
// substring.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
