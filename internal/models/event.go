package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	StatusDraft     EventStatus = "draft"
	StatusPublished EventStatus = "published"
	StatusClosed    EventStatus = "closed"
)

// ValidEventStatus reports whether s is one of the three lifecycle states.
func ValidEventStatus(s EventStatus) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusClosed:
		return true
	}
	return false
}

// Event is a community event open for registration while published.
// AdmittedCount tracks registrations admitted against Capacity; it is only
// ever moved by the conditional claim in the registrations repository.
type Event struct {
	ID             uuid.UUID   `json:"event_id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Location       string      `json:"location"`
	StartsAt       time.Time   `json:"starts_at"`
	EndsAt         time.Time   `json:"ends_at"`
	Capacity       int         `json:"capacity"`
	AdmittedCount  int         `json:"admitted_count"`
	Status         EventStatus `json:"status"`
	WaiverRequired bool        `json:"waiver_required"`
	WaiverVersion  string      `json:"waiver_version"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
