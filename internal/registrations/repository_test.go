package registrations

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/marea-events/backend/internal/events"
	"github.com/marea-events/backend/internal/models"
	"github.com/marea-events/backend/internal/validate"
	"github.com/marea-events/backend/pkg/database"
	"github.com/marea-events/backend/pkg/storage"
)

// These tests need a live database because the capacity claim and the
// one-time redemption are conditional SQL writes, not application logic.
// Set TEST_DATABASE_URL to run them.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping integration test. Set TEST_DATABASE_URL to run")
	}
	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, database.PoolConfig{DSN: dsn, MaxConns: 16}, nil)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, database.Migrate(ctx, pool, nil))
	return pool
}

func createEvent(t *testing.T, pool *pgxpool.Pool, status models.EventStatus, capacity int, waiverRequired bool) *models.Event {
	t.Helper()
	ctx := context.Background()
	repo := events.NewRepository(pool)
	e := &models.Event{
		Title:          "Beach Cleanup",
		Description:    "Quarterly shoreline cleanup at the north beach.",
		Location:       "Playa Norte",
		StartsAt:       time.Now().Add(24 * time.Hour).UTC(),
		EndsAt:         time.Now().Add(28 * time.Hour).UTC(),
		Capacity:       capacity,
		WaiverRequired: waiverRequired,
		WaiverVersion:  "2025-03-09-v1",
	}
	require.NoError(t, repo.Create(ctx, e))
	if status != models.StatusDraft {
		s := string(status)
		var err error
		e, err = repo.Patch(ctx, e.ID, &models.UpdateEventInput{Status: &s})
		require.NoError(t, err)
	}
	return e
}

func newRegistration(eventID uuid.UUID, email string) *models.Registration {
	return &models.Registration{
		EventID:        eventID,
		Email:          email,
		RegistrationID: uuid.New(),
		FullName:       "Rivera, Ana",
		AgeRange:       "25-34",
		Gender:         "female",
		City:           "San Juan",
		Organization:   "community-group",
		QRToken:        uuid.New(),
		QRS3Key:        storage.QRKey(eventID.String(), email),
	}
}

func noWaiver(*models.Event) error { return nil }

func admitted(t *testing.T, pool *pgxpool.Pool, eventID uuid.UUID) int {
	t.Helper()
	ev, err := events.NewRepository(pool).GetByID(context.Background(), eventID)
	require.NoError(t, err)
	return ev.AdmittedCount
}

func TestRegisterPreconditions(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	t.Run("draft event is not open", func(t *testing.T) {
		ev := createEvent(t, pool, models.StatusDraft, 5, false)
		_, err := repo.Register(ctx, newRegistration(ev.ID, "ana@example.org"), noWaiver)
		require.ErrorIs(t, err, ErrEventNotOpen)
	})

	t.Run("closed event is not open", func(t *testing.T) {
		ev := createEvent(t, pool, models.StatusClosed, 5, false)
		_, err := repo.Register(ctx, newRegistration(ev.ID, "ana@example.org"), noWaiver)
		require.ErrorIs(t, err, ErrEventNotOpen)
	})

	t.Run("unknown event is not open", func(t *testing.T) {
		_, err := repo.Register(ctx, newRegistration(uuid.New(), "ana@example.org"), noWaiver)
		require.ErrorIs(t, err, ErrEventNotOpen)
	})

	t.Run("published event admits and counts", func(t *testing.T) {
		ev := createEvent(t, pool, models.StatusPublished, 5, false)
		reg := newRegistration(ev.ID, "ana@example.org")
		_, err := repo.Register(ctx, reg, noWaiver)
		require.NoError(t, err)
		require.False(t, reg.CreatedAt.IsZero())
		require.Equal(t, 1, admitted(t, pool, ev.ID))
	})

	t.Run("duplicate email is rejected and releases the claim", func(t *testing.T) {
		ev := createEvent(t, pool, models.StatusPublished, 5, false)
		_, err := repo.Register(ctx, newRegistration(ev.ID, "ana@example.org"), noWaiver)
		require.NoError(t, err)
		_, err = repo.Register(ctx, newRegistration(ev.ID, "ana@example.org"), noWaiver)
		require.ErrorIs(t, err, ErrAlreadyRegistered)
		require.Equal(t, 1, admitted(t, pool, ev.ID))
	})

	t.Run("full event reports capacity before duplicate", func(t *testing.T) {
		ev := createEvent(t, pool, models.StatusPublished, 1, false)
		_, err := repo.Register(ctx, newRegistration(ev.ID, "ana@example.org"), noWaiver)
		require.NoError(t, err)
		_, err = repo.Register(ctx, newRegistration(ev.ID, "ana@example.org"), noWaiver)
		require.ErrorIs(t, err, ErrCapacityExceeded)
	})

	t.Run("incomplete waiver rolls the claim back", func(t *testing.T) {
		ev := createEvent(t, pool, models.StatusPublished, 5, true)
		sections := []string{"s8", "s9"}
		incomplete := func(ev *models.Event) error {
			return validate.Waiver(&models.WaiverInput{}, sections, "25-34")
		}
		_, err := repo.Register(ctx, newRegistration(ev.ID, "ana@example.org"), incomplete)
		var verr *validate.ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, 0, admitted(t, pool, ev.ID))

		// The released seat is still claimable.
		_, err = repo.Register(ctx, newRegistration(ev.ID, "ana@example.org"), noWaiver)
		require.NoError(t, err)
		require.Equal(t, 1, admitted(t, pool, ev.ID))
	})
}

func TestRegisterCapacityBound(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	const capacity = 3
	const attempts = 10
	ev := createEvent(t, pool, models.StatusPublished, capacity, false)

	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg := newRegistration(ev.ID, fmt.Sprintf("rusher%d@example.org", i))
			_, errs[i] = repo.Register(ctx, reg, noWaiver)
		}(i)
	}
	wg.Wait()

	var ok, full int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrCapacityExceeded):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, capacity, ok)
	require.Equal(t, attempts-capacity, full)
	require.Equal(t, capacity, admitted(t, pool, ev.ID))
}

func TestRedeem(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	setup := func(t *testing.T) *models.Registration {
		ev := createEvent(t, pool, models.StatusPublished, 5, false)
		reg := newRegistration(ev.ID, "ana@example.org")
		_, err := repo.Register(ctx, reg, noWaiver)
		require.NoError(t, err)
		return reg
	}

	t.Run("unknown registration", func(t *testing.T) {
		reg := setup(t)
		_, err := repo.Redeem(ctx, reg.EventID, "luis@example.org", reg.QRToken.String(), "staff@example.org")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("wrong secret leaves the registration unredeemed", func(t *testing.T) {
		reg := setup(t)
		_, err := repo.Redeem(ctx, reg.EventID, reg.Email, uuid.NewString(), "staff@example.org")
		require.ErrorIs(t, err, ErrTokenMismatch)

		got, err := repo.Get(ctx, reg.EventID, reg.Email)
		require.NoError(t, err)
		require.False(t, got.Scanned)
	})

	t.Run("valid credential redeems exactly once", func(t *testing.T) {
		reg := setup(t)
		got, err := repo.Redeem(ctx, reg.EventID, reg.Email, reg.QRToken.String(), "staff@example.org")
		require.NoError(t, err)
		require.True(t, got.Scanned)
		require.NotNil(t, got.ScannedAt)
		require.Equal(t, "staff@example.org", got.ScannedBy)

		_, err = repo.Redeem(ctx, reg.EventID, reg.Email, reg.QRToken.String(), "staff@example.org")
		require.ErrorIs(t, err, ErrAlreadyScanned)
	})

	t.Run("concurrent scans admit one", func(t *testing.T) {
		reg := setup(t)
		const scans = 8
		errs := make([]error, scans)
		var wg sync.WaitGroup
		for i := 0; i < scans; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = repo.Redeem(ctx, reg.EventID, reg.Email, reg.QRToken.String(), "staff@example.org")
			}(i)
		}
		wg.Wait()

		var ok, replayed int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrAlreadyScanned):
				replayed++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		require.Equal(t, 1, ok)
		require.Equal(t, scans-1, replayed)
	})
}

func TestListEmailFilter(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	ev := createEvent(t, pool, models.StatusPublished, 10, false)
	for _, email := range []string{"a_b@example.org", "axb@example.org", "pct%40@example.org"} {
		_, err := repo.Register(ctx, newRegistration(ev.ID, email), noWaiver)
		require.NoError(t, err)
	}

	t.Run("substring matches case-insensitively", func(t *testing.T) {
		got, err := repo.List(ctx, ev.ID, "AXB")
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "axb@example.org", got[0].Email)
	})

	t.Run("underscore matches literally, not as a wildcard", func(t *testing.T) {
		got, err := repo.List(ctx, ev.ID, "a_b")
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "a_b@example.org", got[0].Email)
	})

	t.Run("percent matches literally, not as a wildcard", func(t *testing.T) {
		got, err := repo.List(ctx, ev.ID, "pct%")
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "pct%40@example.org", got[0].Email)
	})

	t.Run("no filter returns newest first", func(t *testing.T) {
		got, err := repo.List(ctx, ev.ID, "")
		require.NoError(t, err)
		require.Len(t, got, 3)
	})
}

func TestEscapeLike(t *testing.T) {
	cases := map[string]string{
		"ana":         "ana",
		"a_b":         `a\_b`,
		"50%":         `50\%`,
		`back\slash`:  `back\\slash`,
		`mix_%\chars`: `mix\_\%\\chars`,
	}
	for in, want := range cases {
		if got := escapeLike(in); got != want {
			t.Errorf("escapeLike(%q) = %q, want %q", in, got, want)
		}
	}
}
