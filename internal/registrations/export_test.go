package registrations

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/marea-events/backend/internal/models"
)

func TestBuildCSV(t *testing.T) {
	created := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	scannedAt := created.Add(26 * time.Hour)
	regs := []models.Registration{
		{
			EventID:        uuid.New(),
			Email:          "ana@example.org",
			RegistrationID: uuid.New(),
			FullName:       `Rivera, Ana "Anita"`,
			Phone:          "7875551234",
			AgeRange:       "25-34",
			Gender:         "female",
			City:           "San Juan",
			Organization:   "community-group",
			Waiver: models.Waiver{
				Required:      true,
				Version:       "2025-03-09-v1",
				SignatureName: "Ana Rivera",
				SignedDate:    "2026-08-30",
				IPAddress:     "203.0.113.9",
				UserAgent:     "Mozilla/5.0",
			},
			Scanned:   true,
			ScannedAt: &scannedAt,
			ScannedBy: "staff@example.org",
			CreatedAt: created,
		},
		{
			EventID:        uuid.New(),
			Email:          "luis@example.org",
			RegistrationID: uuid.New(),
			FullName:       "Rivera, Luis",
			AgeRange:       "under-18",
			Gender:         "male",
			City:           "Ponce",
			Organization:   "school",
			Waiver: models.Waiver{
				Required:      true,
				Version:       "2025-03-09-v1",
				SignatureName: "Carmen Rivera",
				SignedDate:    "2026-08-30",
				GuardianFields: &models.GuardianFields{
					MinorName:            "Rivera, Luis",
					GuardianRelationship: "mother",
					GuardianPhone:        "7875559876",
				},
			},
			CreatedAt: created,
		},
	}

	data, err := buildCSV(regs)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, exportHeader, rows[0])

	first := rows[1]
	require.Equal(t, "ana@example.org", first[1])
	require.Equal(t, `Rivera, Ana "Anita"`, first[2], "quoting must survive a CSV roundtrip")
	require.Equal(t, "2025-03-09-v1", first[9])
	require.Equal(t, "Yes", first[15])
	require.Equal(t, "2026-08-31T16:00:00Z", first[16])
	require.Equal(t, "staff@example.org", first[17])
	require.Equal(t, "203.0.113.9", first[19])

	second := rows[2]
	require.Equal(t, "No", second[15])
	require.Empty(t, second[16])
	require.Equal(t, "Rivera, Luis", second[12])
	require.Equal(t, "mother", second[13])
	require.Equal(t, "7875559876", second[14])
}

func TestBuildCSVEmpty(t *testing.T) {
	data, err := buildCSV(nil)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
