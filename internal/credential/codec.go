// Package credential mints and validates the scannable credential bound to a
// registration: the (event, participant, secret) triple rendered as a QR code.
package credential

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/marea-events/backend/internal/validate"
)

// ErrInvalidCredential is returned for payloads that are malformed, missing a
// field, or carry ill-formed identifiers. It is distinct from a not-found
// lookup so operators can tell a garbled code from wrong data.
var ErrInvalidCredential = errors.New("invalid credential")

// QRSize is the rendered PNG edge length in pixels.
const QRSize = 400

// Payload is the logical content of a credential. Knowledge of the full
// triple is necessary and sufficient to attempt redemption.
type Payload struct {
	EventID string `json:"event_id"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}

// Issue mints a credential for (eventID, email) with a fresh 128-bit random
// secret. The email must already be normalized.
func Issue(eventID uuid.UUID, email string) Payload {
	return Payload{
		EventID: eventID.String(),
		Email:   email,
		Token:   uuid.NewString(),
	}
}

// Encode renders the payload as a PNG QR image.
func Encode(p Payload) ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(raw), qrcode.Medium, QRSize)
}

// Parse decodes and validates a raw credential payload. The returned email is
// normalized. Any structural or syntactic defect yields ErrInvalidCredential.
func Parse(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, ErrInvalidCredential
	}
	if p.EventID == "" || p.Email == "" || p.Token == "" {
		return Payload{}, ErrInvalidCredential
	}
	if !validate.UUID(p.EventID) || !validate.UUID(p.Token) {
		return Payload{}, ErrInvalidCredential
	}
	p.Email = validate.NormalizeEmail(p.Email)
	if !validate.Email(p.Email) {
		return Payload{}, ErrInvalidCredential
	}
	return p, nil
}
