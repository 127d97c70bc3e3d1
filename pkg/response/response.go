package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error kinds carried in the envelope so callers can distinguish failures
// without parsing messages.
const (
	KindValidation        = "validation"
	KindUnauthorized      = "unauthorized"
	KindForbidden         = "forbidden"
	KindNotFound          = "not_found"
	KindEventNotOpen      = "event_not_open"
	KindCapacityExceeded  = "capacity_exceeded"
	KindAlreadyRegistered = "already_registered"
	KindAlreadyRedeemed   = "already_redeemed"
	KindInvalidCredential = "invalid_credential"
	KindWaiverIncomplete  = "waiver_incomplete"
	KindNoChanges         = "no_changes"
	KindInternal          = "internal"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// BadRequest sends 400 with an error kind and message.
func BadRequest(c *gin.Context, kind, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Kind: kind, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Kind: KindUnauthorized, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Kind: KindForbidden, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Kind: KindNotFound, Error: err})
}

// Conflict sends 409 with an error kind and message.
func Conflict(c *gin.Context, kind, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Kind: kind, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Kind: KindInternal, Error: err})
}
