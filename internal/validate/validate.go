// Package validate checks request inputs at the service boundary and reports
// caller-fixable problems as ValidationError values.
package validate

import (
	"regexp"
	"strings"
	"time"

	"github.com/marea-events/backend/internal/models"
)

// ValidationError describes input the caller must fix before retrying.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func fail(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	uuidRe  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// Email reports whether s looks like a deliverable address.
func Email(s string) bool { return emailRe.MatchString(s) }

// UUID reports whether s is a well-formed UUID.
func UUID(s string) bool { return uuidRe.MatchString(s) }

// FullName requires the "Last, First" form used on waivers.
func FullName(s string) bool {
	parts := strings.SplitN(s, ",", 3)
	if len(parts) != 2 {
		return false
	}
	return strings.TrimSpace(parts[0]) != "" && strings.TrimSpace(parts[1]) != ""
}

// NormalizeEmail lower-cases and trims an address. This normalization is the
// sole basis for participant identity; apply it before any lookup or write.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func inList(v string, list []string) bool {
	for _, item := range list {
		if v == item {
			return true
		}
	}
	return false
}

// RegistrationInput validates profile fields and normalizes the email in
// place. Waiver completeness is checked separately by Waiver, after the
// event's waiver requirement is known.
func RegistrationInput(in *models.RegistrationInput) error {
	in.Email = NormalizeEmail(in.Email)
	if !Email(in.Email) {
		return fail("email", "invalid email address")
	}
	if !FullName(in.FullName) {
		return fail("full_name", `full name must be in "Last, First" format`)
	}
	if !inList(in.AgeRange, models.AgeRanges) {
		return fail("age_range", "invalid age range")
	}
	if !inList(in.Gender, models.Genders) {
		return fail("gender", "invalid gender")
	}
	if !inList(in.City, models.Cities) {
		return fail("city", "invalid city")
	}
	if !inList(in.Organization, models.Organizations) {
		return fail("organization", "invalid organization")
	}
	if in.Organization == "other" && len(strings.TrimSpace(in.OrganizationOther)) < 2 {
		return fail("organization_other", "organization name required")
	}
	return nil
}

// Waiver validates a signed waiver against the required section keys.
// Call only when the event requires a waiver; every violation means the
// registration must be rejected as incomplete.
func Waiver(in *models.WaiverInput, requiredSections []string, ageRange string) error {
	for _, section := range requiredSections {
		if !in.Acceptances[section] {
			return fail("waiver.acceptances", "all waiver sections must be accepted")
		}
	}
	if len(strings.TrimSpace(in.SignatureName)) < 2 {
		return fail("waiver.signature_name", "signature name required")
	}
	if strings.TrimSpace(in.SignedDate) == "" {
		return fail("waiver.signed_date", "signed date required")
	}
	if ageRange == models.AgeRangeMinor {
		g := in.GuardianFields
		if g == nil {
			return fail("waiver.guardian_fields", "guardian information required for minors")
		}
		if len(strings.TrimSpace(g.MinorName)) < 2 {
			return fail("waiver.guardian_fields.minor_name", "minor name required")
		}
		if len(strings.TrimSpace(g.GuardianRelationship)) < 2 {
			return fail("waiver.guardian_fields.guardian_relationship", "guardian relationship required")
		}
		if len(strings.TrimSpace(g.GuardianPhone)) < 10 {
			return fail("waiver.guardian_fields.guardian_phone", "guardian phone required")
		}
	}
	return nil
}

// CreateEventInput validates a new event and returns the parsed instants.
func CreateEventInput(in *models.CreateEventInput) (startsAt, endsAt time.Time, err error) {
	if len(strings.TrimSpace(in.Title)) < 3 {
		return startsAt, endsAt, fail("title", "title must be at least 3 characters")
	}
	if len(strings.TrimSpace(in.Description)) < 10 {
		return startsAt, endsAt, fail("description", "description must be at least 10 characters")
	}
	if len(strings.TrimSpace(in.Location)) < 3 {
		return startsAt, endsAt, fail("location", "location must be at least 3 characters")
	}
	startsAt, perr := time.Parse(time.RFC3339, in.StartsAt)
	if perr != nil {
		return startsAt, endsAt, fail("starts_at", "invalid start timestamp")
	}
	endsAt, perr = time.Parse(time.RFC3339, in.EndsAt)
	if perr != nil {
		return startsAt, endsAt, fail("ends_at", "invalid end timestamp")
	}
	if !endsAt.After(startsAt) {
		return startsAt, endsAt, fail("ends_at", "end must be after start")
	}
	if in.Capacity < 1 {
		return startsAt, endsAt, fail("capacity", "capacity must be a positive integer")
	}
	return startsAt, endsAt, nil
}

// UpdateEventInput validates the supplied fields of a partial event patch.
// Returns ErrNoFields via a nil check at the caller; here only field rules.
func UpdateEventInput(in *models.UpdateEventInput) error {
	if in.Title != nil && len(strings.TrimSpace(*in.Title)) < 3 {
		return fail("title", "title must be at least 3 characters")
	}
	if in.Description != nil && len(strings.TrimSpace(*in.Description)) < 10 {
		return fail("description", "description must be at least 10 characters")
	}
	if in.Location != nil && len(strings.TrimSpace(*in.Location)) < 3 {
		return fail("location", "location must be at least 3 characters")
	}
	if in.StartsAt != nil {
		if _, err := time.Parse(time.RFC3339, *in.StartsAt); err != nil {
			return fail("starts_at", "invalid start timestamp")
		}
	}
	if in.EndsAt != nil {
		if _, err := time.Parse(time.RFC3339, *in.EndsAt); err != nil {
			return fail("ends_at", "invalid end timestamp")
		}
	}
	if in.Capacity != nil && *in.Capacity < 1 {
		return fail("capacity", "capacity must be a positive integer")
	}
	if in.Status != nil && !models.ValidEventStatus(models.EventStatus(*in.Status)) {
		return fail("status", "status must be draft, published or closed")
	}
	return nil
}

// ScanInput validates the syntactic shape of a presented credential and
// normalizes the email in place.
func ScanInput(in *models.ScanInput) error {
	if !UUID(in.EventID) {
		return fail("event_id", "invalid event id")
	}
	in.Email = NormalizeEmail(in.Email)
	if !Email(in.Email) {
		return fail("email", "invalid email address")
	}
	if !UUID(in.Token) {
		return fail("token", "invalid credential token")
	}
	return nil
}
