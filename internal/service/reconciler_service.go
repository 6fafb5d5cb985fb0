package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/rsvp-agenda/internal/dto"
	"github.com/noah-isme/rsvp-agenda/internal/models"
	appErrors "github.com/noah-isme/rsvp-agenda/pkg/errors"
	"github.com/noah-isme/rsvp-agenda/pkg/supersede"
)

// Toggle outcomes beyond the refusal reasons in dto.
const (
	toggleApplied = "applied"
	toggleFailed  = "failed"
)

type responseAPI interface {
	UpsertResponse(ctx context.Context, eventID int64, req dto.UpsertResponseRequest) (*models.EventResponse, error)
	DeleteResponse(ctx context.Context, eventID, userID int64) error
	ListResponses(ctx context.Context, eventID int64) ([]models.EventResponse, error)
	ResponseSummary(ctx context.Context, eventID int64) (*models.ResponseSummary, error)
}

type actorSource interface {
	CurrentUserID() (int64, bool)
}

type rsvpKey struct {
	eventID int64
	userID  int64
}

type rsvpState struct {
	status models.ResponseStatus
	// known is set once status reflects a server answer.
	known bool
	busy  bool
}

// ReconcilerService owns the acting user's RSVP status per event together
// with the server-confirmed summary and roster. A status only changes after
// the calendar service confirmed the write.
type ReconcilerService struct {
	api     responseAPI
	users   userLister
	actor   actorSource
	metrics *MetricsService
	logger  *zap.Logger

	mu        sync.Mutex
	states    map[rsvpKey]*rsvpState
	summaries map[int64]models.ResponseSummary
	rosters   map[int64][]models.EventResponse
	expanded  map[int64]bool

	summaryFetch supersede.Group[int64]
	rosterFetch  supersede.Group[int64]
}

// NewReconcilerService constructs the reconciler.
func NewReconcilerService(api responseAPI, users userLister, actor actorSource, metrics *MetricsService, logger *zap.Logger) *ReconcilerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconcilerService{
		api:       api,
		users:     users,
		actor:     actor,
		metrics:   metrics,
		logger:    logger,
		states:    make(map[rsvpKey]*rsvpState),
		summaries: make(map[int64]models.ResponseSummary),
		rosters:   make(map[int64][]models.EventResponse),
		expanded:  make(map[int64]bool),
	}
}

// Toggle moves the acting user's answer for eventID towards target.
// Selecting the status already held withdraws the response. A status never
// loaded from the calendar service is read first. Refusals are reported in
// the outcome; only a failed read or write returns an error.
func (s *ReconcilerService) Toggle(ctx context.Context, eventID int64, target models.ResponseStatus) (dto.ToggleOutcome, error) {
	if target == models.StatusUnset {
		return dto.ToggleOutcome{}, appErrors.Clone(appErrors.ErrValidation, "status must be Yes, No or Maybe")
	}

	userID, ok := s.actor.CurrentUserID()
	if !ok {
		s.metrics.RecordToggle(dto.RefusedNoActor)
		return dto.ToggleOutcome{Reason: dto.RefusedNoActor}, nil
	}
	key := rsvpKey{eventID: eventID, userID: userID}

	s.mu.Lock()
	st := s.stateLocked(key)
	if st.busy {
		prior := st.status
		s.mu.Unlock()
		s.metrics.RecordToggle(dto.RefusedBusy)
		return dto.ToggleOutcome{Reason: dto.RefusedBusy, Status: prior}, nil
	}
	st.busy = true
	prior := st.status
	known := st.known
	s.mu.Unlock()

	// A roster read that started before the write would describe the old
	// state.
	s.rosterFetch.Cancel(eventID)

	if !known {
		roster, err := s.api.ListResponses(ctx, eventID)
		s.mu.Lock()
		if err != nil {
			st.busy = false
			s.mu.Unlock()
			s.metrics.RecordToggle(toggleFailed)
			s.logger.Warn("rsvp status lookup failed",
				zap.Int64("event_id", eventID),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			return dto.ToggleOutcome{Status: prior}, err
		}
		prior = models.StatusOf(roster, userID)
		st.status = prior
		st.known = true
		s.mu.Unlock()
	}

	next := target
	var err error
	if prior == target {
		next = models.StatusUnset
		err = s.api.DeleteResponse(ctx, eventID, userID)
	} else {
		_, err = s.api.UpsertResponse(ctx, eventID, dto.UpsertResponseRequest{UserID: userID, Status: target})
	}

	s.mu.Lock()
	st.busy = false
	if err == nil {
		st.status = next
		st.known = true
		delete(s.rosters, eventID)
	}
	expanded := s.expanded[eventID]
	s.mu.Unlock()

	if err != nil {
		s.metrics.RecordToggle(toggleFailed)
		s.logger.Warn("rsvp write failed",
			zap.Int64("event_id", eventID),
			zap.Int64("user_id", userID),
			zap.String("target", string(target)),
			zap.Error(err),
		)
		return dto.ToggleOutcome{Status: prior}, err
	}
	s.metrics.RecordToggle(toggleApplied)

	if _, ferr := s.RefreshSummary(ctx, eventID); ferr != nil && !appErrors.IsCanceled(ferr) {
		s.followupFailed(eventID, "summary", ferr)
	}
	if expanded {
		if ferr := s.refreshRoster(ctx, eventID); ferr != nil && !appErrors.IsCanceled(ferr) {
			s.followupFailed(eventID, "roster", ferr)
		}
	}

	return dto.ToggleOutcome{Applied: true, Status: next, Summary: s.Summary(eventID)}, nil
}

// Open refetches the roster and summary of eventID, as when its details are
// shown, and returns the resulting view.
func (s *ReconcilerService) Open(ctx context.Context, eventID int64) (dto.EventRSVPView, error) {
	var rosterErr, summaryErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		rosterErr = s.refreshRoster(ctx, eventID)
	}()
	go func() {
		defer wg.Done()
		_, summaryErr = s.RefreshSummary(ctx, eventID)
	}()
	wg.Wait()

	if err := firstError(rosterErr, summaryErr); err != nil {
		return dto.EventRSVPView{}, err
	}
	return s.View(ctx, eventID), nil
}

// SetExpanded opens or closes the attendee roster of eventID. Expanding
// refetches it; collapsing abandons any fetch still running.
func (s *ReconcilerService) SetExpanded(ctx context.Context, eventID int64, expanded bool) (dto.EventRSVPView, error) {
	s.mu.Lock()
	if expanded {
		s.expanded[eventID] = true
	} else {
		delete(s.expanded, eventID)
	}
	s.mu.Unlock()

	if !expanded {
		s.rosterFetch.Cancel(eventID)
		return s.View(ctx, eventID), nil
	}
	if err := s.refreshRoster(ctx, eventID); err != nil {
		return dto.EventRSVPView{}, err
	}
	return s.View(ctx, eventID), nil
}

// Controls describes the attendance buttons of eventID for the acting user.
func (s *ReconcilerService) Controls(eventID int64) dto.RSVPControls {
	userID, ok := s.actor.CurrentUserID()
	if !ok {
		return dto.RSVPControls{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[rsvpKey{eventID: eventID, userID: userID}]
	if !ok {
		return dto.RSVPControls{Enabled: true}
	}
	return dto.RSVPControls{Enabled: true, Busy: st.busy, Status: st.status}
}

// Summary returns the last confirmed summary of eventID, or nil.
func (s *ReconcilerService) Summary(eventID int64) *models.ResponseSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.summaries[eventID]
	if !ok {
		return nil
	}
	return &summary
}

// Roster returns the last confirmed roster of eventID.
func (s *ReconcilerService) Roster(eventID int64) []models.EventResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	roster := s.rosters[eventID]
	if roster == nil {
		return nil
	}
	out := make([]models.EventResponse, len(roster))
	copy(out, roster)
	return out
}

// Expanded reports whether the roster of eventID is open.
func (s *ReconcilerService) Expanded(eventID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded[eventID]
}

// View assembles controls, summary and (when expanded) the roster joined
// with user names. A failed user lookup leaves names empty.
func (s *ReconcilerService) View(ctx context.Context, eventID int64) dto.EventRSVPView {
	view := dto.EventRSVPView{
		EventID:  eventID,
		Controls: s.Controls(eventID),
		Summary:  s.Summary(eventID),
		Expanded: s.Expanded(eventID),
	}
	if !view.Expanded {
		return view
	}
	roster := s.Roster(eventID)
	if len(roster) == 0 {
		return view
	}

	var users []models.User
	if s.users != nil {
		list, err := s.users.ListUsers(ctx)
		if err != nil && !appErrors.IsCanceled(err) {
			s.logger.Warn("failed to list users for roster", zap.Int64("event_id", eventID), zap.Error(err))
		}
		users = list
	}

	view.Roster = make([]dto.RosterEntry, 0, len(roster))
	for _, r := range roster {
		entry := dto.RosterEntry{UserID: r.UserID, Status: r.Status, Note: r.Note}
		if u := models.FindUser(users, r.UserID); u != nil {
			entry.Name = u.Name
			entry.UserType = u.Type
		}
		view.Roster = append(view.Roster, entry)
	}
	return view
}

// RefreshSummary refetches the summary of eventID. A response overtaken by
// a later refresh is discarded and reported as canceled.
func (s *ReconcilerService) RefreshSummary(ctx context.Context, eventID int64) (*models.ResponseSummary, error) {
	reqCtx, ticket := s.summaryFetch.Begin(ctx, eventID)
	defer ticket.Done()

	summary, err := s.api.ResponseSummary(reqCtx, eventID)
	if err != nil {
		return nil, err
	}
	applied := ticket.Apply(func() {
		s.mu.Lock()
		s.summaries[eventID] = *summary
		s.mu.Unlock()
	})
	if !applied {
		return nil, appErrors.ErrCanceled
	}
	return summary, nil
}

// Forget drops everything known about eventID, e.g. after it was deleted.
func (s *ReconcilerService) Forget(eventID int64) {
	s.summaryFetch.Cancel(eventID)
	s.rosterFetch.Cancel(eventID)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.summaries, eventID)
	delete(s.rosters, eventID)
	delete(s.expanded, eventID)
	for key, st := range s.states {
		if key.eventID == eventID && !st.busy {
			delete(s.states, key)
		}
	}
}

// Preload loads what the agenda cards show for eventIDs: the summary when
// none is cached and the acting user's status when it was never confirmed.
// State kept for other users is dropped. Failures are logged and skipped.
func (s *ReconcilerService) Preload(ctx context.Context, eventIDs []int64) {
	userID, hasActor := s.actor.CurrentUserID()

	s.mu.Lock()
	for key, st := range s.states {
		if (!hasActor || key.userID != userID) && !st.busy {
			delete(s.states, key)
		}
	}
	s.mu.Unlock()

	for _, id := range eventIDs {
		if ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		_, haveSummary := s.summaries[id]
		needStatus := false
		if hasActor {
			st, ok := s.states[rsvpKey{eventID: id, userID: userID}]
			needStatus = !ok || !st.known
		}
		s.mu.Unlock()

		if needStatus {
			if err := s.refreshRoster(ctx, id); err != nil && !appErrors.IsCanceled(err) {
				s.followupFailed(id, "roster", err)
			}
		}
		if !haveSummary {
			if _, err := s.RefreshSummary(ctx, id); err != nil && !appErrors.IsCanceled(err) {
				s.followupFailed(id, "summary", err)
			}
		}
	}
}

func (s *ReconcilerService) refreshRoster(ctx context.Context, eventID int64) error {
	reqCtx, ticket := s.rosterFetch.Begin(ctx, eventID)
	defer ticket.Done()

	roster, err := s.api.ListResponses(reqCtx, eventID)
	if err != nil {
		return err
	}
	userID, hasActor := s.actor.CurrentUserID()

	applied := ticket.Apply(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rosters[eventID] = roster
		if !hasActor {
			return
		}
		st := s.stateLocked(rsvpKey{eventID: eventID, userID: userID})
		if !st.busy {
			st.status = models.StatusOf(roster, userID)
		}
	})
	if !applied {
		return appErrors.ErrCanceled
	}
	return nil
}

func (s *ReconcilerService) stateLocked(key rsvpKey) *rsvpState {
	st, ok := s.states[key]
	if !ok {
		st = &rsvpState{}
		s.states[key] = st
	}
	return st
}

func (s *ReconcilerService) followupFailed(eventID int64, what string, err error) {
	s.metrics.RecordFollowupRefreshError()
	s.logger.Warn("rsvp follow-up refresh failed",
		zap.Int64("event_id", eventID),
		zap.String("resource", what),
		zap.Error(err),
	)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
