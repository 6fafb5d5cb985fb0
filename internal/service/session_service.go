package service

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/rsvp-agenda/internal/models"
	"github.com/noah-isme/rsvp-agenda/pkg/bus"
	appErrors "github.com/noah-isme/rsvp-agenda/pkg/errors"
	"github.com/noah-isme/rsvp-agenda/pkg/supersede"
)

// SessionStore persists the acting user id as a string under a fixed key.
// Load reports false when nothing is stored.
type SessionStore interface {
	Load(ctx context.Context) (string, bool, error)
	Save(ctx context.Context, value string) error
	Clear(ctx context.Context) error
}

type userLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// SessionService tracks who is acting. The id is authoritative and durable;
// the resolved user is best effort and may be nil while a lookup is in
// flight or after it failed.
type SessionService struct {
	store   SessionStore
	users   userLister
	signals *bus.Bus
	logger  *zap.Logger

	mu        sync.RWMutex
	currentID *int64
	current   *models.User

	resolve supersede.Slot
}

// NewSessionService constructs the session. Call Restore once at startup.
// Every change of the acting user is published on signals as
// bus.KindActorChanged; signals may be nil.
func NewSessionService(store SessionStore, users userLister, signals *bus.Bus, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{store: store, users: users, signals: signals, logger: logger}
}

// Restore loads the persisted id, if any, and resolves it. An unreadable or
// malformed value is treated as no acting user.
func (s *SessionService) Restore(ctx context.Context) error {
	raw, ok, err := s.store.Load(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if !ok {
		return nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		s.logger.Warn("discarding malformed persisted user id", zap.String("value", raw))
		return s.store.Clear(ctx)
	}

	s.mu.Lock()
	s.currentID = &id
	s.current = nil
	s.mu.Unlock()
	s.announce("session.restore")

	s.Resolve(ctx)
	return nil
}

// CurrentUserID returns the acting user id.
func (s *SessionService) CurrentUserID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentID == nil {
		return 0, false
	}
	return *s.currentID, true
}

// CurrentUser returns the resolved acting user or nil.
func (s *SessionService) CurrentUser() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// IsAdmin reports whether the resolved acting user holds the admin role.
func (s *SessionService) IsAdmin() bool {
	return s.CurrentUser().IsAdmin()
}

// SetCurrentUserID persists id (nil clears it) and resolves the user. Any
// resolution still running for a previous id is canceled and its result
// discarded.
func (s *SessionService) SetCurrentUserID(ctx context.Context, id *int64) error {
	if id == nil {
		if err := s.store.Clear(ctx); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear session")
		}
		s.resolve.Cancel()
		s.mu.Lock()
		s.currentID = nil
		s.current = nil
		s.mu.Unlock()
		s.logger.Info("acting user cleared")
		s.announce("session.clear")
		return nil
	}

	if err := s.store.Save(ctx, strconv.FormatInt(*id, 10)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist session")
	}
	value := *id
	s.mu.Lock()
	s.currentID = &value
	s.current = nil
	s.mu.Unlock()
	s.logger.Info("acting user selected", zap.Int64("user_id", value))
	s.announce("session.select")

	s.Resolve(ctx)
	return nil
}

// Logout clears the acting user.
func (s *SessionService) Logout(ctx context.Context) error {
	return s.SetCurrentUserID(ctx, nil)
}

// Resolve looks the current id up in the user roster. Failures are logged
// and leave the resolved user nil.
func (s *SessionService) Resolve(ctx context.Context) {
	id, ok := s.CurrentUserID()
	if !ok {
		return
	}

	reqCtx, ticket := s.resolve.Begin(ctx)
	defer ticket.Done()

	users, err := s.users.ListUsers(reqCtx)
	if err != nil {
		if !appErrors.IsCanceled(err) {
			s.logger.Warn("failed to resolve acting user", zap.Int64("user_id", id), zap.Error(err))
		}
		return
	}
	match := models.FindUser(users, id)
	if match == nil {
		s.logger.Warn("acting user not found in roster", zap.Int64("user_id", id))
	}

	ticket.Apply(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.currentID == nil || *s.currentID != id {
			return
		}
		s.current = match
	})
}

func (s *SessionService) announce(source string) {
	if s.signals != nil {
		s.signals.Publish(bus.KindActorChanged, source)
	}
}

// Users returns the user roster for the selection UI.
func (s *SessionService) Users(ctx context.Context) ([]models.User, error) {
	return s.users.ListUsers(ctx)
}
