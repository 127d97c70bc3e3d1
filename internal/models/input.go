package models

// WaiverInput is the signed waiver as submitted by the registrant.
type WaiverInput struct {
	Acceptances    map[string]bool `json:"acceptances"`
	SignatureName  string          `json:"signature_name"`
	SignedDate     string          `json:"signed_date"`
	GuardianFields *GuardianFields `json:"guardian_fields,omitempty"`
}

// RegistrationInput is the body for POST /events/:id/register.
type RegistrationInput struct {
	Email             string      `json:"email"`
	FullName          string      `json:"full_name"`
	Phone             string      `json:"phone,omitempty"`
	AgeRange          string      `json:"age_range"`
	Gender            string      `json:"gender"`
	City              string      `json:"city"`
	Organization      string      `json:"organization"`
	OrganizationOther string      `json:"organization_other,omitempty"`
	Waiver            WaiverInput `json:"waiver"`
}

// CreateEventInput is the body for POST /admin/events.
type CreateEventInput struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Location       string `json:"location"`
	StartsAt       string `json:"starts_at"`
	EndsAt         string `json:"ends_at"`
	Capacity       int    `json:"capacity"`
	WaiverRequired bool   `json:"waiver_required"`
}

// UpdateEventInput is the body for PATCH /admin/events/:id.
// Nil fields are left untouched.
type UpdateEventInput struct {
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	Location       *string `json:"location,omitempty"`
	StartsAt       *string `json:"starts_at,omitempty"`
	EndsAt         *string `json:"ends_at,omitempty"`
	Capacity       *int    `json:"capacity,omitempty"`
	Status         *string `json:"status,omitempty"`
	WaiverRequired *bool   `json:"waiver_required,omitempty"`
}

// ScanInput is the decoded credential presented at the door.
type ScanInput struct {
	EventID string `json:"event_id"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}
