package events

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marea-events/backend/internal/models"
	"github.com/marea-events/backend/internal/validate"
	"github.com/marea-events/backend/pkg/response"
)

// Handler handles event HTTP endpoints.
type Handler struct {
	repo          *Repository
	waiverVersion string
	logger        *zap.Logger
}

// NewHandler creates an event handler. waiverVersion is stamped onto every
// created event.
func NewHandler(repo *Repository, waiverVersion string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, waiverVersion: waiverVersion, logger: logger}
}

// Create handles POST /admin/events. New events always start as draft.
func (h *Handler) Create(c *gin.Context) {
	var in models.CreateEventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, response.KindValidation, "invalid request body")
		return
	}
	startsAt, endsAt, err := validate.CreateEventInput(&in)
	if err != nil {
		response.BadRequest(c, response.KindValidation, err.Error())
		return
	}
	e := &models.Event{
		Title:          in.Title,
		Description:    in.Description,
		Location:       in.Location,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		Capacity:       in.Capacity,
		WaiverRequired: in.WaiverRequired,
		WaiverVersion:  h.waiverVersion,
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, e)
}

// Patch handles PATCH /admin/events/:id. Only supplied fields change;
// updated_at always advances unless zero fields were supplied.
func (h *Handler) Patch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, response.KindValidation, "invalid event id")
		return
	}
	var in models.UpdateEventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, response.KindValidation, "invalid request body")
		return
	}
	if err := validate.UpdateEventInput(&in); err != nil {
		response.BadRequest(c, response.KindValidation, err.Error())
		return
	}
	e, err := h.repo.Patch(c.Request.Context(), id, &in)
	switch {
	case errors.Is(err, ErrNoChanges):
		response.BadRequest(c, response.KindNoChanges, "no changes to apply")
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "event not found")
	case errors.Is(err, ErrCapacityBelowAdmitted):
		response.BadRequest(c, response.KindValidation, "capacity cannot drop below admitted registrations")
	case err != nil:
		h.logger.Error("patch event failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to update event")
	default:
		response.OK(c, e)
	}
}

// GetPublic handles GET /events/:id. Unknown ids and unpublished events are
// indistinguishable to the caller.
func (h *Handler) GetPublic(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, response.KindValidation, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		response.NotFound(c, "event not found")
		return
	}
	if err != nil {
		h.logger.Error("get event failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to load event")
		return
	}
	if e.Status != models.StatusPublished {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e)
}

// ListPublished handles GET /events.
func (h *Handler) ListPublished(c *gin.Context) {
	list, err := h.repo.ListPublished(c.Request.Context())
	if err != nil {
		h.logger.Error("list published events failed", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// ListAll handles GET /admin/events.
func (h *Handler) ListAll(c *gin.Context) {
	list, err := h.repo.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("list events failed", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}
