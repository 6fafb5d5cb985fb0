package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rsvp-agenda/internal/service"
)

type actorStub struct {
	id    *int64
	admin bool
}

func (a actorStub) CurrentUserID() (int64, bool) {
	if a.id == nil {
		return 0, false
	}
	return *a.id, true
}

func (a actorStub) IsAdmin() bool { return a.admin }

func adminRouter(session ActorChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/events", RequireAdmin(session), func(c *gin.Context) { c.Status(http.StatusCreated) })
	return r
}

func TestRequireAdmin(t *testing.T) {
	id := int64(1)
	cases := []struct {
		name    string
		session actorStub
		status  int
		code    string
	}{
		{name: "no actor", session: actorStub{}, status: http.StatusConflict, code: "NO_ACTING_USER"},
		{name: "member", session: actorStub{id: &id}, status: http.StatusForbidden, code: "FORBIDDEN"},
		{name: "admin", session: actorStub{id: &id, admin: true}, status: http.StatusCreated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			adminRouter(tc.session).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/events", nil))
			assert.Equal(t, tc.status, w.Code)
			if tc.code != "" {
				assert.Contains(t, w.Body.String(), tc.code)
			}
		})
	}
}

func TestMetricsMiddlewareLabelsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/metrics"))
	r.GET("/events/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { metrics.Handler().ServeHTTP(c.Writer, c.Request) })

	for _, path := range []string{"/events/1", "/events/2", "/nope", "/metrics"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Equal(t, uint64(3), metrics.Snapshot().RequestsTotal)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `path="/events/:id"`))
	assert.True(t, strings.Contains(body, `path="unmatched"`))
	assert.False(t, strings.Contains(body, `path="/nope"`))
}
