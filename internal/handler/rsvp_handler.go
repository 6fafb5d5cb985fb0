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

type rsvpService interface {
	Toggle(ctx context.Context, eventID int64, target models.ResponseStatus) (dto.ToggleOutcome, error)
	Open(ctx context.Context, eventID int64) (dto.EventRSVPView, error)
	SetExpanded(ctx context.Context, eventID int64, expanded bool) (dto.EventRSVPView, error)
	View(ctx context.Context, eventID int64) dto.EventRSVPView
	Summary(eventID int64) *models.ResponseSummary
	Roster(eventID int64) []models.EventResponse
}

// RSVPHandler exposes attendance controls.
type RSVPHandler struct {
	rsvp rsvpService
}

// NewRSVPHandler builds the handler.
func NewRSVPHandler(rsvp rsvpService) *RSVPHandler {
	return &RSVPHandler{rsvp: rsvp}
}

// Get godoc
// @Summary Attendance controls and summary for an event
// @Tags RSVP
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/rsvp [get]
func (h *RSVPHandler) Get(c *gin.Context) {
	id, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.rsvp.View(c.Request.Context(), id))
}

// Toggle godoc
// @Summary Answer or withdraw an RSVP
// @Description Selecting the status already held withdraws the response. Refusals are reported with applied=false.
// @Tags RSVP
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param payload body dto.ToggleRSVPRequest true "Target status"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /events/{id}/rsvp [post]
func (h *RSVPHandler) Toggle(c *gin.Context) {
	id, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ToggleRSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rsvp payload"))
		return
	}
	target, ok := models.ParseResponseStatus(req.Status)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be Yes, No or Maybe"))
		return
	}
	outcome, err := h.rsvp.Toggle(c.Request.Context(), id, target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome)
}

// Open godoc
// @Summary Event details opened
// @Description Refetches roster and summary for the event. A fetch overtaken by a newer one returns the current view.
// @Tags RSVP
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/open [post]
func (h *RSVPHandler) Open(c *gin.Context) {
	id, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.rsvp.Open(c.Request.Context(), id)
	if appErrors.IsCanceled(err) {
		view, err = h.rsvp.View(c.Request.Context(), id), nil
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Summary godoc
// @Summary Last confirmed summary
// @Tags RSVP
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/summary [get]
func (h *RSVPHandler) Summary(c *gin.Context) {
	id, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary := h.rsvp.Summary(id)
	if summary == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "summary not loaded"))
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

// Roster godoc
// @Summary Last confirmed roster
// @Tags RSVP
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/roster [get]
func (h *RSVPHandler) Roster(c *gin.Context) {
	id, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	roster := h.rsvp.Roster(id)
	if roster == nil {
		roster = []models.EventResponse{}
	}
	response.JSON(c, http.StatusOK, roster)
}

// SetExpanded godoc
// @Summary Expand or collapse the attendee roster
// @Tags RSVP
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param payload body dto.SetExpandedRequest true "Expansion state"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/roster [put]
func (h *RSVPHandler) SetExpanded(c *gin.Context) {
	id, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.SetExpandedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid roster payload"))
		return
	}
	view, err := h.rsvp.SetExpanded(c.Request.Context(), id, req.Expanded)
	if appErrors.IsCanceled(err) {
		view, err = h.rsvp.View(c.Request.Context(), id), nil
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}
