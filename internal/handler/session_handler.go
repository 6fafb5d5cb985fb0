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

type sessionService interface {
	CurrentUserID() (int64, bool)
	CurrentUser() *models.User
	IsAdmin() bool
	SetCurrentUserID(ctx context.Context, id *int64) error
	Logout(ctx context.Context) error
	Users(ctx context.Context) ([]models.User, error)
}

// SessionHandler manages the acting user.
type SessionHandler struct {
	session sessionService
}

// NewSessionHandler builds the handler.
func NewSessionHandler(session sessionService) *SessionHandler {
	return &SessionHandler{session: session}
}

// Get godoc
// @Summary Current acting user
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.view())
}

// Set godoc
// @Summary Select the acting user
// @Description A null user_id clears the selection.
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body dto.SetSessionRequest true "Acting user"
// @Success 200 {object} response.Envelope
// @Router /session [put]
func (h *SessionHandler) Set(c *gin.Context) {
	var req dto.SetSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	if req.UserID != nil && *req.UserID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "user_id must be a positive integer"))
		return
	}
	if err := h.session.SetCurrentUserID(c.Request.Context(), req.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, h.view())
}

// Delete godoc
// @Summary Log out
// @Tags Session
// @Success 204
// @Router /session [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.session.Logout(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Users godoc
// @Summary Users available for selection
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *SessionHandler) Users(c *gin.Context) {
	users, err := h.session.Users(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, map[string]interface{}{"count": len(users)})
}

func (h *SessionHandler) view() dto.SessionView {
	view := dto.SessionView{User: h.session.CurrentUser(), IsAdmin: h.session.IsAdmin()}
	if id, ok := h.session.CurrentUserID(); ok {
		view.UserID = &id
	}
	return view
}
