package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rsvp-agenda/internal/dto"
	"github.com/noah-isme/rsvp-agenda/internal/models"
	appErrors "github.com/noah-isme/rsvp-agenda/pkg/errors"
	"github.com/noah-isme/rsvp-agenda/pkg/response"
)

type eventWriter interface {
	CreateEvent(ctx context.Context, req dto.EventWriteRequest) (*models.Event, error)
	UpdateEvent(ctx context.Context, id int64, req dto.EventWriteRequest) (*models.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}

// EventHandler exposes admin event editing.
type EventHandler struct {
	events eventWriter
}

// NewEventHandler builds the handler.
func NewEventHandler(events eventWriter) *EventHandler {
	return &EventHandler{events: events}
}

// Create godoc
// @Summary Create event
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.EventWriteRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) Create(c *gin.Context) {
	var req dto.EventWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.events.CreateEvent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Replace event
// @Tags Events
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param payload body dto.EventWriteRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [put]
func (h *EventHandler) Update(c *gin.Context) {
	id, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.EventWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	event, err := h.events.UpdateEvent(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event)
}

// Delete godoc
// @Summary Delete event
// @Tags Events
// @Param id path int true "Event ID"
// @Success 204
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c *gin.Context) {
	id, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.events.DeleteEvent(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
