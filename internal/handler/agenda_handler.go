package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/rsvp-agenda/internal/dto"
	"github.com/noah-isme/rsvp-agenda/internal/models"
	"github.com/noah-isme/rsvp-agenda/internal/service"
	"github.com/noah-isme/rsvp-agenda/pkg/bus"
	appErrors "github.com/noah-isme/rsvp-agenda/pkg/errors"
	"github.com/noah-isme/rsvp-agenda/pkg/response"
)

type agendaService interface {
	EnsureLoaded(ctx context.Context) error
	View(query dto.AgendaQuery) dto.AgendaView
	ToggleGroup(label string) dto.ToggleGroupResult
	Invalidate(source string) bus.Signal
}

type exportService interface {
	Export(ctx context.Context, format models.ExportFormat, query dto.AgendaQuery) (*service.ExportResult, error)
}

// AgendaHandler serves the grouped agenda and its exports.
type AgendaHandler struct {
	agenda agendaService
	export exportService
}

// NewAgendaHandler builds the handler.
func NewAgendaHandler(agenda agendaService, export exportService) *AgendaHandler {
	return &AgendaHandler{agenda: agenda, export: export}
}

// Get godoc
// @Summary Grouped agenda
// @Tags Agenda
// @Produce json
// @Param search query string false "Case-insensitive search term"
// @Param group query string false "week, month or none"
// @Success 200 {object} response.Envelope
// @Router /agenda [get]
func (h *AgendaHandler) Get(c *gin.Context) {
	if err := h.agenda.EnsureLoaded(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	view := h.agenda.View(h.query(c))
	response.JSON(c, http.StatusOK, view)
}

// Refresh godoc
// @Summary Invalidate the event list
// @Description Publishes a list invalidation; the list is refetched in the background.
// @Tags Agenda
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /agenda/refresh [post]
func (h *AgendaHandler) Refresh(c *gin.Context) {
	sig := h.agenda.Invalidate("api")
	response.JSON(c, http.StatusAccepted, sig)
}

// ToggleGroup godoc
// @Summary Collapse or expand a group
// @Tags Agenda
// @Accept json
// @Produce json
// @Param payload body dto.ToggleGroupRequest true "Group label"
// @Success 200 {object} response.Envelope
// @Router /agenda/groups/toggle [post]
func (h *AgendaHandler) ToggleGroup(c *gin.Context) {
	var req dto.ToggleGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid group payload"))
		return
	}
	response.JSON(c, http.StatusOK, h.agenda.ToggleGroup(req.Label))
}

// Export godoc
// @Summary Export the agenda
// @Tags Agenda
// @Produce text/csv
// @Produce application/pdf
// @Produce text/calendar
// @Param format query string true "csv, pdf or ics"
// @Param search query string false "Case-insensitive search term"
// @Param group query string false "week, month or none"
// @Success 200 {file} file
// @Router /agenda/export [get]
func (h *AgendaHandler) Export(c *gin.Context) {
	format, ok := models.ParseExportFormat(c.DefaultQuery("format", string(models.ExportFormatCSV)))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or ics"))
		return
	}
	if err := h.agenda.EnsureLoaded(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.export.Export(c.Request.Context(), format, h.query(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}

// An unknown group mode is left empty so the configured default applies.
func (h *AgendaHandler) query(c *gin.Context) dto.AgendaQuery {
	return dto.AgendaQuery{
		Search: pickQuery(c, "search", "q"),
		Group:  models.ParseGroupMode(pickQuery(c, "group", "groupBy"), ""),
	}
}
