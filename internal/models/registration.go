package models

import (
	"time"

	"github.com/google/uuid"
)

// Demographic enumerations. Registration input is rejected unless each
// selection matches one of these values exactly.
var (
	AgeRanges = []string{"under-18", "18-24", "25-34", "35-44", "45-54", "55-64", "65+"}

	Genders = []string{"male", "female", "non-binary", "prefer-not-to-say"}

	Cities = []string{
		"San Juan", "Bayamon", "Carolina", "Ponce", "Caguas", "Guaynabo",
		"Mayaguez", "Trujillo Alto", "Arecibo", "Aguadilla", "Fajardo",
		"Humacao", "Vega Baja", "Cabo Rojo", "Isabela", "Rincon", "Dorado",
		"Luquillo", "other",
	}

	Organizations = []string{
		"host-organization", "university", "community-group", "private-company",
		"government", "environmental-ngo", "school", "religious-group",
		"independent", "other",
	}
)

// AgeRangeMinor is the age bracket that requires guardian fields on the waiver.
const AgeRangeMinor = "under-18"

// GuardianFields identify the responsible adult when the registrant is a minor.
type GuardianFields struct {
	MinorName            string `json:"minor_name"`
	GuardianRelationship string `json:"guardian_relationship"`
	GuardianPhone        string `json:"guardian_phone"`
}

// Waiver is the signed liability-acceptance payload stored with a registration.
type Waiver struct {
	Required       bool            `json:"required"`
	Version        string          `json:"version"`
	Acceptances    map[string]bool `json:"acceptances"`
	SignatureName  string          `json:"signature_name"`
	SignedDate     string          `json:"signed_date"`
	AcceptedAt     time.Time       `json:"accepted_at"`
	IPAddress      string          `json:"ip_address,omitempty"`
	UserAgent      string          `json:"user_agent,omitempty"`
	GuardianFields *GuardianFields `json:"guardian_fields,omitempty"`
}

// Registration is a participant's admission to an event.
// Uniqueness is the (EventID, Email) pair; the registration ID exists only
// for external reference. Scanned flips false to true exactly once.
type Registration struct {
	EventID           uuid.UUID  `json:"event_id"`
	Email             string     `json:"email"`
	RegistrationID    uuid.UUID  `json:"registration_id"`
	FullName          string     `json:"full_name"`
	Phone             string     `json:"phone,omitempty"`
	AgeRange          string     `json:"age_range"`
	Gender            string     `json:"gender"`
	City              string     `json:"city"`
	Organization      string     `json:"organization"`
	OrganizationOther string     `json:"organization_other,omitempty"`
	Waiver            Waiver     `json:"waiver"`
	QRToken           uuid.UUID  `json:"qr_token"`
	QRS3Key           string     `json:"qr_s3_key"`
	Scanned           bool       `json:"scanned"`
	ScannedAt         *time.Time `json:"scanned_at,omitempty"`
	ScannedBy         string     `json:"scanned_by,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}
