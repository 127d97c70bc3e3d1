package registrations

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marea-events/backend/config"
	"github.com/marea-events/backend/internal/credential"
	"github.com/marea-events/backend/internal/events"
	"github.com/marea-events/backend/internal/models"
	"github.com/marea-events/backend/internal/validate"
	"github.com/marea-events/backend/pkg/queue"
	"github.com/marea-events/backend/pkg/response"
	"github.com/marea-events/backend/pkg/storage"
)

// Handler serves public registration and the admin registration surfaces.
type Handler struct {
	repo   *Repository
	events *events.Repository
	store  *storage.S3
	jobs   *queue.Queue
	waiver config.WaiverConfig
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(repo *Repository, eventsRepo *events.Repository, store *storage.S3, jobs *queue.Queue, waiver config.WaiverConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, events: eventsRepo, store: store, jobs: jobs, waiver: waiver, logger: logger}
}

// Register handles POST /events/:id/register.
func (h *Handler) Register(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, response.KindValidation, "invalid event id")
		return
	}

	var in models.RegistrationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, response.KindValidation, "invalid request body")
		return
	}
	if err := validate.RegistrationInput(&in); err != nil {
		response.BadRequest(c, response.KindValidation, err.Error())
		return
	}

	cred := credential.Issue(eventID, in.Email)
	reg := &models.Registration{
		EventID:           eventID,
		Email:             in.Email,
		RegistrationID:    uuid.New(),
		FullName:          in.FullName,
		Phone:             in.Phone,
		AgeRange:          in.AgeRange,
		Gender:            in.Gender,
		City:              in.City,
		Organization:      in.Organization,
		OrganizationOther: in.OrganizationOther,
		QRToken:           uuid.MustParse(cred.Token),
		QRS3Key:           storage.QRKey(eventID.String(), in.Email),
	}

	waiverCheck := func(ev *models.Event) error {
		reg.Waiver = models.Waiver{Required: ev.WaiverRequired, Version: ev.WaiverVersion}
		if !ev.WaiverRequired {
			return nil
		}
		if err := validate.Waiver(&in.Waiver, h.waiver.RequiredSections, in.AgeRange); err != nil {
			return err
		}
		reg.Waiver.Acceptances = in.Waiver.Acceptances
		reg.Waiver.SignatureName = in.Waiver.SignatureName
		reg.Waiver.SignedDate = in.Waiver.SignedDate
		reg.Waiver.AcceptedAt = time.Now().UTC()
		reg.Waiver.IPAddress = c.ClientIP()
		reg.Waiver.UserAgent = c.Request.UserAgent()
		reg.Waiver.GuardianFields = in.Waiver.GuardianFields
		return nil
	}

	ctx := c.Request.Context()
	if _, err := h.repo.Register(ctx, reg, waiverCheck); err != nil {
		var verr *validate.ValidationError
		switch {
		case errors.Is(err, ErrEventNotOpen):
			response.Conflict(c, response.KindEventNotOpen, "event is not open for registration")
		case errors.Is(err, ErrCapacityExceeded):
			response.Conflict(c, response.KindCapacityExceeded, "event has reached capacity")
		case errors.Is(err, ErrAlreadyRegistered):
			response.Conflict(c, response.KindAlreadyRegistered, "this email is already registered for this event")
		case errors.As(err, &verr):
			response.BadRequest(c, response.KindWaiverIncomplete, verr.Error())
		default:
			h.logger.Error("registration failed",
				zap.String("event_id", eventID.String()), zap.Error(err))
			response.Internal(c, "failed to register")
		}
		return
	}

	// The registration is committed; the credential image and the email are
	// delivered best effort from here. The worker re-renders the image from
	// the stored secret if the upload never landed.
	if png, err := credential.Encode(cred); err != nil {
		h.logger.Error("qr encode failed", zap.String("registration_id", reg.RegistrationID.String()), zap.Error(err))
	} else if err := h.store.Upload(ctx, reg.QRS3Key, "image/png", png); err != nil {
		h.logger.Error("qr upload failed", zap.String("key", reg.QRS3Key), zap.Error(err))
	}

	if err := h.jobs.EnqueueCredentialEmail(ctx, queue.CredentialEmailPayload{
		EventID:        eventID,
		RegistrationID: reg.RegistrationID,
		Email:          reg.Email,
	}); err != nil {
		h.logger.Error("enqueue credential email failed",
			zap.String("registration_id", reg.RegistrationID.String()), zap.Error(err))
	}

	response.Created(c, gin.H{
		"event_id":        reg.EventID,
		"email":           reg.Email,
		"registration_id": reg.RegistrationID,
	})
}

// List handles GET /admin/events/:id/registrations.
func (h *Handler) List(c *gin.Context) {
	eventID, ok := h.requireEvent(c)
	if !ok {
		return
	}
	filter := validate.NormalizeEmail(c.Query("email"))
	regs, err := h.repo.List(c.Request.Context(), eventID, filter)
	if err != nil {
		h.logger.Error("list registrations failed", zap.String("event_id", eventID.String()), zap.Error(err))
		response.Internal(c, "failed to list registrations")
		return
	}
	if regs == nil {
		regs = []models.Registration{}
	}
	response.OK(c, gin.H{
		"event_id":      eventID,
		"total":         len(regs),
		"registrations": regs,
	})
}

// Export handles POST /admin/events/:id/registrations/export.
func (h *Handler) Export(c *gin.Context) {
	eventID, ok := h.requireEvent(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	regs, err := h.repo.List(ctx, eventID, "")
	if err != nil {
		h.logger.Error("export query failed", zap.String("event_id", eventID.String()), zap.Error(err))
		response.Internal(c, "failed to export registrations")
		return
	}
	data, err := buildCSV(regs)
	if err != nil {
		h.logger.Error("csv build failed", zap.String("event_id", eventID.String()), zap.Error(err))
		response.Internal(c, "failed to export registrations")
		return
	}

	filename := fmt.Sprintf("registrations-%s.csv", time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	key := storage.ExportKey(eventID.String(), filename)
	if err := h.store.Upload(ctx, key, "text/csv", data); err != nil {
		h.logger.Error("export upload failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to export registrations")
		return
	}
	url, err := h.store.PresignDownload(ctx, key, h.store.PresignExpire())
	if err != nil {
		h.logger.Error("export presign failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to export registrations")
		return
	}

	response.OK(c, gin.H{
		"url":           url,
		"filename":      filename,
		"total_records": len(regs),
	})
}

type resendInput struct {
	Email string `json:"email"`
}

// Resend handles POST /admin/events/:id/registrations/resend.
func (h *Handler) Resend(c *gin.Context) {
	eventID, ok := h.requireEvent(c)
	if !ok {
		return
	}
	var in resendInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, response.KindValidation, "invalid request body")
		return
	}
	in.Email = validate.NormalizeEmail(in.Email)
	if !validate.Email(in.Email) {
		response.BadRequest(c, response.KindValidation, "invalid email address")
		return
	}

	ctx := c.Request.Context()
	reg, err := h.repo.Get(ctx, eventID, in.Email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "registration not found")
			return
		}
		h.logger.Error("resend lookup failed", zap.String("event_id", eventID.String()), zap.Error(err))
		response.Internal(c, "failed to resend credential email")
		return
	}

	if err := h.jobs.EnqueueCredentialEmail(ctx, queue.CredentialEmailPayload{
		EventID:        eventID,
		RegistrationID: reg.RegistrationID,
		Email:          reg.Email,
		Resend:         true,
	}); err != nil {
		h.logger.Error("resend enqueue failed", zap.String("registration_id", reg.RegistrationID.String()), zap.Error(err))
		response.Internal(c, "failed to resend credential email")
		return
	}

	response.OK(c, gin.H{
		"message": "credential email queued",
		"email":   reg.Email,
	})
}

// requireEvent parses the :id path param and checks the event exists,
// writing the error response itself when it does not.
func (h *Handler) requireEvent(c *gin.Context) (uuid.UUID, bool) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, response.KindValidation, "invalid event id")
		return uuid.Nil, false
	}
	if _, err := h.events.GetByID(c.Request.Context(), eventID); err != nil {
		if errors.Is(err, events.ErrNotFound) {
			response.NotFound(c, "event not found")
			return uuid.Nil, false
		}
		h.logger.Error("event lookup failed", zap.String("event_id", eventID.String()), zap.Error(err))
		response.Internal(c, "failed to load event")
		return uuid.Nil, false
	}
	return eventID, true
}
