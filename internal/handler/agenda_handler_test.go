package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rsvp-agenda/internal/dto"
	"github.com/noah-isme/rsvp-agenda/internal/models"
	"github.com/noah-isme/rsvp-agenda/internal/service"
	"github.com/noah-isme/rsvp-agenda/pkg/bus"
	appErrors "github.com/noah-isme/rsvp-agenda/pkg/errors"
)

type agendaServiceMock struct {
	loadErr   error
	lastQuery dto.AgendaQuery
	toggled   string
	sources   []string
}

func (m *agendaServiceMock) EnsureLoaded(context.Context) error { return m.loadErr }

func (m *agendaServiceMock) View(query dto.AgendaQuery) dto.AgendaView {
	m.lastQuery = query
	return dto.AgendaView{Search: query.Search, Group: query.Group, Groups: []dto.AgendaGroup{}}
}

func (m *agendaServiceMock) ToggleGroup(label string) dto.ToggleGroupResult {
	m.toggled = label
	return dto.ToggleGroupResult{Label: label, Collapsed: true}
}

func (m *agendaServiceMock) Invalidate(source string) bus.Signal {
	m.sources = append(m.sources, source)
	return bus.Signal{ID: "sig-1", Kind: bus.KindListInvalidated, Source: source}
}

type exportServiceMock struct {
	format models.ExportFormat
	err    error
}

func (m *exportServiceMock) Export(_ context.Context, format models.ExportFormat, _ dto.AgendaQuery) (*service.ExportResult, error) {
	m.format = format
	if m.err != nil {
		return nil, m.err
	}
	return &service.ExportResult{Filename: "agenda." + string(format), ContentType: format.ContentType(), Body: []byte("payload")}, nil
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestAgendaHandlerGetParsesQuery(t *testing.T) {
	agenda := &agendaServiceMock{}
	h := NewAgendaHandler(agenda, &exportServiceMock{})
	c, w := newTestContext(http.MethodGet, "/agenda?q=demo&group=MONTH", nil)

	h.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "demo", agenda.lastQuery.Search)
	assert.Equal(t, models.GroupByMonth, agenda.lastQuery.Group)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestAgendaHandlerGetUnknownGroupUsesDefault(t *testing.T) {
	agenda := &agendaServiceMock{}
	h := NewAgendaHandler(agenda, &exportServiceMock{})
	c, _ := newTestContext(http.MethodGet, "/agenda?group=decade", nil)

	h.Get(c)
	assert.Equal(t, models.GroupMode(""), agenda.lastQuery.Group)
}

func TestAgendaHandlerGetSurfacesRemoteFailure(t *testing.T) {
	h := NewAgendaHandler(&agendaServiceMock{loadErr: appErrors.Remote(500, "db down")}, &exportServiceMock{})
	c, w := newTestContext(http.MethodGet, "/agenda", nil)

	h.Get(c)

	require.Equal(t, http.StatusBadGateway, w.Code)
	env := decodeEnvelope(t, w)
	errBody := env["error"].(map[string]interface{})
	assert.Equal(t, "REMOTE_FAILURE", errBody["code"])
	assert.Equal(t, "db down", errBody["detail"])
}

func TestAgendaHandlerRefreshPublishes(t *testing.T) {
	agenda := &agendaServiceMock{}
	h := NewAgendaHandler(agenda, &exportServiceMock{})
	c, w := newTestContext(http.MethodPost, "/agenda/refresh", nil)

	h.Refresh(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"api"}, agenda.sources)
}

func TestAgendaHandlerToggleGroup(t *testing.T) {
	agenda := &agendaServiceMock{}
	h := NewAgendaHandler(agenda, &exportServiceMock{})
	c, w := newTestContext(http.MethodPost, "/agenda/groups/toggle", []byte(`{"label":"June 2025"}`))

	h.ToggleGroup(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "June 2025", agenda.toggled)
}

func TestAgendaHandlerExport(t *testing.T) {
	exp := &exportServiceMock{}
	h := NewAgendaHandler(&agendaServiceMock{}, exp)
	c, w := newTestContext(http.MethodGet, "/agenda/export?format=ics", nil)

	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ExportFormatICS, exp.format)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="agenda.ics"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "payload", w.Body.String())
}

func TestAgendaHandlerExportRejectsFormat(t *testing.T) {
	exp := &exportServiceMock{}
	h := NewAgendaHandler(&agendaServiceMock{}, exp)
	c, w := newTestContext(http.MethodGet, "/agenda/export?format=xlsx", nil)

	h.Export(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, exp.format)
}

func TestAgendaHandlerExportFailure(t *testing.T) {
	h := NewAgendaHandler(&agendaServiceMock{}, &exportServiceMock{err: errors.New("boom")})
	c, w := newTestContext(http.MethodGet, "/agenda/export", nil)

	h.Export(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
