package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/rsvp-agenda/internal/dto"
	"github.com/noah-isme/rsvp-agenda/internal/models"
	"github.com/noah-isme/rsvp-agenda/pkg/bus"
	appErrors "github.com/noah-isme/rsvp-agenda/pkg/errors"
	"github.com/noah-isme/rsvp-agenda/pkg/jobs"
	"github.com/noah-isme/rsvp-agenda/pkg/palette"
	"github.com/noah-isme/rsvp-agenda/pkg/supersede"
	"github.com/noah-isme/rsvp-agenda/pkg/timecalc"
)

// Job types for bus-triggered background work.
const (
	JobTypeListRefresh = "agenda.list_refresh"
	JobTypeRSVPPreload = "agenda.rsvp_preload"
)

// Refresh results recorded in metrics.
const (
	refreshOK         = "ok"
	refreshFailed     = "error"
	refreshSuperseded = "superseded"
)

type eventSource interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	ListEventTypes(ctx context.Context) ([]models.EventType, error)
	CreateEvent(ctx context.Context, req dto.EventWriteRequest) (*models.Event, error)
	UpdateEvent(ctx context.Context, id int64, req dto.EventWriteRequest) (*models.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}

type actingSession interface {
	CurrentUser() *models.User
	IsAdmin() bool
}

type rsvpReader interface {
	Controls(eventID int64) dto.RSVPControls
	Summary(eventID int64) *models.ResponseSummary
	Forget(eventID int64)
	Preload(ctx context.Context, eventIDs []int64)
}

// RefreshScheduler accepts background refresh jobs.
type RefreshScheduler interface {
	Enqueue(job jobs.Job) error
}

// AgendaService keeps the event list and renders the grouped agenda view.
type AgendaService struct {
	source       eventSource
	session      actingSession
	rsvp         rsvpReader
	signals      *bus.Bus
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	defaultGroup models.GroupMode

	mu          sync.RWMutex
	events      []models.Event
	types       models.EventTypeIndex
	refreshedAt *time.Time

	collapse  *CollapseState
	listFetch supersede.Slot
}

// NewAgendaService constructs the agenda.
func NewAgendaService(source eventSource, session actingSession, rsvp rsvpReader, signals *bus.Bus, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, defaultGroup models.GroupMode) *AgendaService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if signals == nil {
		signals = bus.New(logger)
	}
	return &AgendaService{
		source:       source,
		session:      session,
		rsvp:         rsvp,
		signals:      signals,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		defaultGroup: models.ParseGroupMode(string(defaultGroup), models.GroupByWeek),
		types:        models.EventTypeIndex{},
		collapse:     NewCollapseState(),
	}
}

// Subscribe refetches the list whenever it is invalidated and reloads RSVP
// state whenever the acting user changes. Work is handed to scheduler so
// publishers never wait on the network; with a nil scheduler it runs on its
// own goroutine.
func (s *AgendaService) Subscribe(scheduler RefreshScheduler) func() {
	stopList := s.signals.Subscribe(bus.KindListInvalidated, func(sig bus.Signal) {
		s.schedule(scheduler, JobTypeListRefresh, sig)
	})
	stopActor := s.signals.Subscribe(bus.KindActorChanged, func(sig bus.Signal) {
		s.schedule(scheduler, JobTypeRSVPPreload, sig)
	})
	return func() {
		stopList()
		stopActor()
	}
}

func (s *AgendaService) schedule(scheduler RefreshScheduler, jobType string, sig bus.Signal) {
	job := jobs.Job{ID: sig.ID, Type: jobType, Payload: sig}
	if scheduler != nil {
		err := scheduler.Enqueue(job)
		if err == nil {
			return
		}
		s.logger.Warn("failed to schedule agenda job", zap.String("signal_id", sig.ID), zap.String("type", jobType), zap.Error(err))
	}
	go func() {
		if err := s.HandleRefreshJob(context.Background(), job); err != nil {
			s.logger.Warn("agenda job failed", zap.String("signal_id", sig.ID), zap.String("type", jobType), zap.Error(err))
		}
	}()
}

// HandleRefreshJob is the jobs.Handler for JobTypeListRefresh and
// JobTypeRSVPPreload. A list refresh also preloads RSVP state for the new
// list.
func (s *AgendaService) HandleRefreshJob(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case JobTypeListRefresh:
		if err := s.Refresh(ctx); err != nil {
			return err
		}
		s.PreloadRSVP(ctx)
		return nil
	case JobTypeRSVPPreload:
		s.PreloadRSVP(ctx)
		return nil
	default:
		s.logger.Warn("ignoring unknown job", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
}

// PreloadRSVP loads summaries and the acting user's status for every cached
// event that lacks them.
func (s *AgendaService) PreloadRSVP(ctx context.Context) {
	if s.rsvp == nil {
		return
	}
	events := s.Events()
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	s.rsvp.Preload(ctx, ids)
}

// Invalidate announces that the event list is stale.
func (s *AgendaService) Invalidate(source string) bus.Signal {
	return s.signals.Publish(bus.KindListInvalidated, source)
}

// Refresh refetches event types and events. A refresh overtaken by a newer
// one is abandoned without error. A failed type lookup keeps the previous
// types.
func (s *AgendaService) Refresh(ctx context.Context) error {
	reqCtx, ticket := s.listFetch.Begin(ctx)
	defer ticket.Done()

	types, typesErr := s.source.ListEventTypes(reqCtx)
	if typesErr != nil && !appErrors.IsCanceled(typesErr) {
		s.logger.Warn("failed to list event types", zap.Error(typesErr))
	}
	events, err := s.source.ListEvents(reqCtx)
	if err != nil {
		if appErrors.IsCanceled(err) {
			s.metrics.RecordListRefresh(refreshSuperseded)
			return nil
		}
		s.metrics.RecordListRefresh(refreshFailed)
		return err
	}

	applied := ticket.Apply(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if typesErr == nil {
			s.types = models.NewEventTypeIndex(types)
		}
		resolved := make([]models.Event, 0, len(events))
		for _, e := range events {
			resolved = append(resolved, s.types.Resolve(e))
		}
		now := time.Now().UTC()
		s.events = resolved
		s.refreshedAt = &now
	})
	if !applied {
		s.metrics.RecordListRefresh(refreshSuperseded)
		return nil
	}
	s.metrics.RecordListRefresh(refreshOK)
	s.logger.Debug("event list refreshed", zap.Int("events", len(events)))
	return nil
}

// Loaded reports whether the list was fetched at least once.
func (s *AgendaService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt != nil
}

// EnsureLoaded fetches the list once if it was never loaded.
func (s *AgendaService) EnsureLoaded(ctx context.Context) error {
	if s.Loaded() {
		return nil
	}
	return s.Refresh(ctx)
}

// Events returns a copy of the current list.
func (s *AgendaService) Events() []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Event returns the cached event with id.
func (s *AgendaService) Event(id int64) (models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.events {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}

// View renders the grouped agenda for query. It is recomputed from the
// cached list on every call.
func (s *AgendaService) View(query dto.AgendaQuery) dto.AgendaView {
	mode := query.Group
	if mode == "" {
		mode = s.defaultGroup
	}

	s.mu.RLock()
	events := make([]models.Event, len(s.events))
	copy(events, s.events)
	var refreshedAt *time.Time
	if s.refreshedAt != nil {
		t := *s.refreshedAt
		refreshedAt = &t
	}
	s.mu.RUnlock()

	view := dto.AgendaView{
		Search:      query.Search,
		Group:       mode,
		RefreshedAt: refreshedAt,
		Groups:      []dto.AgendaGroup{},
	}
	if s.session != nil {
		view.ActingUser = s.session.CurrentUser()
		view.CanEdit = s.session.IsAdmin()
	}

	for _, group := range GroupEvents(events, query.Search, mode) {
		out := dto.AgendaGroup{
			Label:     group.Label,
			Collapsed: s.collapse.IsCollapsed(group.Label),
			Events:    make([]dto.EventCard, 0, len(group.Events)),
		}
		for _, e := range group.Events {
			out.Events = append(out.Events, s.card(e))
		}
		view.Visible += len(out.Events)
		view.Groups = append(view.Groups, out)
	}
	return view
}

// ToggleGroup flips the collapse state of label.
func (s *AgendaService) ToggleGroup(label string) dto.ToggleGroupResult {
	return dto.ToggleGroupResult{Label: label, Collapsed: s.collapse.Toggle(label)}
}

// CreateEvent creates an event on the calendar service. Admin only.
func (s *AgendaService) CreateEvent(ctx context.Context, req dto.EventWriteRequest) (*models.Event, error) {
	req, err := s.prepareWrite(req)
	if err != nil {
		return nil, err
	}
	event, err := s.source.CreateEvent(ctx, req)
	if err != nil {
		return nil, err
	}
	s.Invalidate("event.create")
	resolved := s.resolve(*event)
	return &resolved, nil
}

// UpdateEvent replaces an event on the calendar service. Admin only.
func (s *AgendaService) UpdateEvent(ctx context.Context, id int64, req dto.EventWriteRequest) (*models.Event, error) {
	req, err := s.prepareWrite(req)
	if err != nil {
		return nil, err
	}
	event, err := s.source.UpdateEvent(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.Invalidate("event.update")
	resolved := s.resolve(*event)
	return &resolved, nil
}

// DeleteEvent deletes an event on the calendar service. Admin only.
func (s *AgendaService) DeleteEvent(ctx context.Context, id int64) error {
	if !s.canEdit() {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins can edit events")
	}
	if err := s.source.DeleteEvent(ctx, id); err != nil {
		return err
	}
	if s.rsvp != nil {
		s.rsvp.Forget(id)
	}
	s.Invalidate("event.delete")
	return nil
}

func (s *AgendaService) prepareWrite(req dto.EventWriteRequest) (dto.EventWriteRequest, error) {
	if !s.canEdit() {
		return req, appErrors.Clone(appErrors.ErrForbidden, "only admins can edit events")
	}
	req = req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	return req, nil
}

func (s *AgendaService) canEdit() bool {
	return s.session != nil && s.session.IsAdmin()
}

func (s *AgendaService) resolve(e models.Event) models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.types.Resolve(e)
}

func (s *AgendaService) card(e models.Event) dto.EventCard {
	stripe := palette.StripeColor(e.Color, e.TypeColor, e.TypeLabel)
	card := dto.EventCard{
		Event:       e,
		StartLabel:  timecalc.StartLabel(e.Start),
		StripeColor: stripe,
		TextColor:   palette.ReadableTextColor(stripe),
	}
	if end, ok := timecalc.EndTime(e.Start, e.DurationMinutes); ok {
		card.EndTime = end
	}
	if s.rsvp != nil {
		card.RSVP = s.rsvp.Controls(e.ID)
		card.Summary = s.rsvp.Summary(e.ID)
	}
	return card
}
