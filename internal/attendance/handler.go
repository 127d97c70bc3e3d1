// Package attendance redeems credentials at the door. A credential admits its
// holder exactly once; everything after the first successful scan is a replay.
package attendance

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marea-events/backend/internal/middleware"
	"github.com/marea-events/backend/internal/models"
	"github.com/marea-events/backend/internal/registrations"
	"github.com/marea-events/backend/internal/validate"
	"github.com/marea-events/backend/pkg/response"
)

// Handler serves the staff scan endpoint.
type Handler struct {
	repo   *registrations.Repository
	logger *zap.Logger
}

// NewHandler creates an attendance handler.
func NewHandler(repo *registrations.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Scan handles POST /attendance/scan.
func (h *Handler) Scan(c *gin.Context) {
	var in models.ScanInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, response.KindValidation, "invalid request body")
		return
	}
	if err := validate.ScanInput(&in); err != nil {
		response.BadRequest(c, response.KindValidation, err.Error())
		return
	}
	eventID := uuid.MustParse(in.EventID)

	reg, err := h.repo.Redeem(c.Request.Context(), eventID, in.Email, in.Token, middleware.CallerEmail(c))
	if err != nil {
		switch {
		case errors.Is(err, registrations.ErrNotFound):
			response.NotFound(c, "registration not found")
		case errors.Is(err, registrations.ErrTokenMismatch):
			response.BadRequest(c, response.KindInvalidCredential, "credential does not match this registration")
		case errors.Is(err, registrations.ErrAlreadyScanned):
			response.Conflict(c, response.KindAlreadyRedeemed, "credential already redeemed")
		default:
			h.logger.Error("scan failed",
				zap.String("event_id", in.EventID), zap.Error(err))
			response.Internal(c, "failed to process scan")
		}
		return
	}

	h.logger.Info("attendance recorded",
		zap.String("event_id", in.EventID),
		zap.String("registration_id", reg.RegistrationID.String()),
		zap.String("scanned_by", reg.ScannedBy))

	var scannedAt time.Time
	if reg.ScannedAt != nil {
		scannedAt = *reg.ScannedAt
	}
	response.OK(c, gin.H{
		"event_id":   reg.EventID,
		"email":      reg.Email,
		"full_name":  reg.FullName,
		"scanned_at": scannedAt,
	})
}
