package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/rsvp-agenda/internal/dto"
	"github.com/noah-isme/rsvp-agenda/internal/models"
	appErrors "github.com/noah-isme/rsvp-agenda/pkg/errors"
	"github.com/noah-isme/rsvp-agenda/pkg/middleware/requestid"
)

const maxErrorBody = 4 << 10

// RemoteObserver receives timing for every outbound call.
type RemoteObserver interface {
	ObserveRemoteCall(operation string, status int, duration time.Duration, err error)
}

// CalendarClient talks JSON over HTTP to the calendar service that owns
// events, users and RSVP responses.
type CalendarClient struct {
	baseURL  string
	client   *http.Client
	logger   *zap.Logger
	observer RemoteObserver
}

// NewCalendarClient builds a client. A zero timeout leaves calls unbounded;
// cancellation then comes only from the caller's context.
func NewCalendarClient(baseURL string, timeout time.Duration, logger *zap.Logger, observer RemoteObserver) *CalendarClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		observer: observer,
	}
}

// ListEvents fetches every event.
func (c *CalendarClient) ListEvents(ctx context.Context) ([]models.Event, error) {
	var payloads []dto.EventPayload
	if err := c.do(ctx, "list_events", http.MethodGet, "/events", nil, &payloads); err != nil {
		return nil, err
	}
	return dto.EventsFromPayloads(payloads), nil
}

// CreateEvent creates an event and returns the stored copy.
func (c *CalendarClient) CreateEvent(ctx context.Context, req dto.EventWriteRequest) (*models.Event, error) {
	var payload dto.EventPayload
	if err := c.do(ctx, "create_event", http.MethodPost, "/events", req, &payload); err != nil {
		return nil, err
	}
	event := payload.ToModel()
	return &event, nil
}

// UpdateEvent replaces an event.
func (c *CalendarClient) UpdateEvent(ctx context.Context, id int64, req dto.EventWriteRequest) (*models.Event, error) {
	var payload dto.EventPayload
	if err := c.do(ctx, "update_event", http.MethodPut, fmt.Sprintf("/events/%d", id), req, &payload); err != nil {
		return nil, err
	}
	event := payload.ToModel()
	return &event, nil
}

// DeleteEvent removes an event.
func (c *CalendarClient) DeleteEvent(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_event", http.MethodDelete, fmt.Sprintf("/events/%d", id), nil, nil)
}

// ListEventTypes fetches the event type catalogue.
func (c *CalendarClient) ListEventTypes(ctx context.Context) ([]models.EventType, error) {
	var types []models.EventType
	if err := c.do(ctx, "list_event_types", http.MethodGet, "/event-types", nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// ListUsers fetches the full user roster.
func (c *CalendarClient) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, "list_users", http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpsertResponse creates or replaces the (event, user) response.
func (c *CalendarClient) UpsertResponse(ctx context.Context, eventID int64, req dto.UpsertResponseRequest) (*models.EventResponse, error) {
	var payload dto.EventResponsePayload
	if err := c.do(ctx, "upsert_response", http.MethodPost, fmt.Sprintf("/events/%d/responses", eventID), req, &payload); err != nil {
		return nil, err
	}
	resp := payload.ToModel()
	return &resp, nil
}

// ListResponses fetches the roster of one event.
func (c *CalendarClient) ListResponses(ctx context.Context, eventID int64) ([]models.EventResponse, error) {
	var payloads []dto.EventResponsePayload
	if err := c.do(ctx, "list_responses", http.MethodGet, fmt.Sprintf("/events/%d/responses", eventID), nil, &payloads); err != nil {
		return nil, err
	}
	return dto.ResponsesFromPayloads(payloads), nil
}

// DeleteResponse withdraws a user's response.
func (c *CalendarClient) DeleteResponse(ctx context.Context, eventID, userID int64) error {
	return c.do(ctx, "delete_response", http.MethodDelete, fmt.Sprintf("/events/%d/responses/%d", eventID, userID), nil, nil)
}

// ResponseSummary fetches aggregate counts for one event.
func (c *CalendarClient) ResponseSummary(ctx context.Context, eventID int64) (*models.ResponseSummary, error) {
	var payload dto.SummaryPayload
	if err := c.do(ctx, "response_summary", http.MethodGet, fmt.Sprintf("/events/%d/responses/summary", eventID), nil, &payload); err != nil {
		return nil, err
	}
	summary := payload.ToModel()
	return &summary, nil
}

func (c *CalendarClient) do(ctx context.Context, op, method, path string, body, dest interface{}) (err error) {
	var reader io.Reader
	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}

	start := time.Now()
	status := 0
	defer func() {
		if c.observer != nil {
			c.observer.ObserveRemoteCall(op, status, time.Since(start), err)
		}
	}()

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return appErrors.Wrap(ctx.Err(), appErrors.ErrCanceled.Code, appErrors.ErrCanceled.Status, appErrors.ErrCanceled.Message)
		}
		c.logger.Warn("calendar service unreachable", zap.String("op", op), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrRemoteFailure.Code, appErrors.ErrRemoteFailure.Status, "calendar service unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := errorDetail(raw)
		c.logger.Warn("calendar service returned error",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail),
		)
		return appErrors.Remote(resp.StatusCode, detail)
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if ctx.Err() != nil {
			return appErrors.Wrap(ctx.Err(), appErrors.ErrCanceled.Code, appErrors.ErrCanceled.Status, appErrors.ErrCanceled.Message)
		}
		malformed := appErrors.Remote(resp.StatusCode, "malformed response body")
		malformed.Status = appErrors.ErrRemoteFailure.Status
		malformed.Err = err
		return malformed
	}
	return nil
}

// errorDetail extracts the human readable part of an error body. JSON
// bodies with a "detail" (or "message"/"error") string field yield that
// field; anything else is returned trimmed.
func errorDetail(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ""
	}
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if s, ok := body[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return text
}
