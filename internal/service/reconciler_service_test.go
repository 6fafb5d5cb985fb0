package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rsvp-agenda/internal/dto"
	"github.com/noah-isme/rsvp-agenda/internal/models"
	appErrors "github.com/noah-isme/rsvp-agenda/pkg/errors"
)

// fakeCalendar keeps responses in memory the way the calendar service
// does: one row per (event, user).
type fakeCalendar struct {
	mu         sync.Mutex
	rows       map[int64]map[int64]models.EventResponse
	users      map[int64]models.User
	calls      int
	writeErr   error
	summaryErr error
	rosterErr  error
	// writeGate, when set, holds writes until closed.
	writeGate chan struct{}
	// rosterGate, when set, holds the next roster read until closed.
	rosterGate chan struct{}
}

func newFakeCalendar(users ...models.User) *fakeCalendar {
	f := &fakeCalendar{rows: make(map[int64]map[int64]models.EventResponse), users: make(map[int64]models.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeCalendar) UpsertResponse(ctx context.Context, eventID int64, req dto.UpsertResponseRequest) (*models.EventResponse, error) {
	f.mu.Lock()
	f.calls++
	gate := f.writeGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	if f.rows[eventID] == nil {
		f.rows[eventID] = make(map[int64]models.EventResponse)
	}
	row := models.EventResponse{EventID: eventID, UserID: req.UserID, Status: req.Status}
	f.rows[eventID][req.UserID] = row
	return &row, nil
}

func (f *fakeCalendar) DeleteResponse(ctx context.Context, eventID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.writeErr != nil {
		return f.writeErr
	}
	if _, ok := f.rows[eventID][userID]; !ok {
		return appErrors.Remote(404, "Response not found")
	}
	delete(f.rows[eventID], userID)
	return nil
}

func (f *fakeCalendar) ListResponses(ctx context.Context, eventID int64) ([]models.EventResponse, error) {
	f.mu.Lock()
	f.calls++
	gate := f.rosterGate
	f.rosterGate = nil
	snapshot := make([]models.EventResponse, 0, len(f.rows[eventID]))
	for _, r := range f.rows[eventID] {
		snapshot = append(snapshot, r)
	}
	err := f.rosterErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, appErrors.ErrCanceled
		}
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (f *fakeCalendar) ResponseSummary(ctx context.Context, eventID int64) (*models.ResponseSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	var s models.ResponseSummary
	for _, r := range f.rows[eventID] {
		switch r.Status {
		case models.StatusYes:
			s.Yes++
			switch f.users[r.UserID].Type {
			case models.UserTypeMentor:
				s.MentorsAttending++
			case models.UserTypeStudent:
				s.StudentsAttending++
			}
		case models.StatusNo:
			s.No++
		case models.StatusMaybe:
			s.Maybe++
		}
	}
	total := s.Yes + s.No + s.Maybe
	s.Total = &total
	return &s, nil
}

func (f *fakeCalendar) ListUsers(context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeCalendar) rowCount(eventID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows[eventID])
}

func (f *fakeCalendar) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fixedActor struct {
	id *int64
}

func (a fixedActor) CurrentUserID() (int64, bool) {
	if a.id == nil {
		return 0, false
	}
	return *a.id, true
}

var (
	mentor  = models.User{ID: 7, Name: "Grace", Type: models.UserTypeMentor}
	student = models.User{ID: 8, Name: "Tim", Type: models.UserTypeStudent}
)

func newTestReconciler(cal *fakeCalendar, actor *int64) *ReconcilerService {
	return NewReconcilerService(cal, cal, fixedActor{id: actor}, NewMetricsService(), nil)
}

func TestToggleSameStatusTwiceWithdrawsResponse(t *testing.T) {
	cal := newFakeCalendar(mentor)
	svc := newTestReconciler(cal, int64Ptr(mentor.ID))
	ctx := context.Background()

	out, err := svc.Toggle(ctx, 1, models.StatusYes)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, models.StatusYes, out.Status)
	require.NotNil(t, out.Summary)
	assert.Equal(t, 1, out.Summary.Yes)
	assert.Equal(t, 1, out.Summary.MentorsAttending)

	out, err = svc.Toggle(ctx, 1, models.StatusYes)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, models.StatusUnset, out.Status)
	assert.Equal(t, 0, cal.rowCount(1))
	require.NotNil(t, out.Summary)
	assert.Equal(t, 0, out.Summary.Yes)
	assert.Equal(t, models.StatusUnset, svc.Controls(1).Status)
}

func TestToggleToOtherStatusKeepsSingleRow(t *testing.T) {
	cal := newFakeCalendar(student)
	svc := newTestReconciler(cal, int64Ptr(student.ID))
	ctx := context.Background()

	_, err := svc.Toggle(ctx, 1, models.StatusYes)
	require.NoError(t, err)
	out, err := svc.Toggle(ctx, 1, models.StatusMaybe)
	require.NoError(t, err)

	assert.Equal(t, models.StatusMaybe, out.Status)
	assert.Equal(t, 1, cal.rowCount(1))
	assert.Equal(t, models.StatusMaybe, cal.rows[1][student.ID].Status)
	assert.Equal(t, 0, out.Summary.Yes)
	assert.Equal(t, 1, out.Summary.Maybe)
	assert.Equal(t, 0, out.Summary.StudentsAttending)
}

func TestToggleWithoutActorMakesNoCall(t *testing.T) {
	cal := newFakeCalendar()
	svc := newTestReconciler(cal, nil)

	out, err := svc.Toggle(context.Background(), 1, models.StatusYes)
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, dto.RefusedNoActor, out.Reason)
	assert.Zero(t, cal.callCount())
	assert.False(t, svc.Controls(1).Enabled)
}

func TestToggleWhileBusyIsRefused(t *testing.T) {
	cal := newFakeCalendar(mentor)
	cal.writeGate = make(chan struct{})
	svc := newTestReconciler(cal, int64Ptr(mentor.ID))
	ctx := context.Background()

	first := make(chan dto.ToggleOutcome, 1)
	go func() {
		out, err := svc.Toggle(ctx, 1, models.StatusYes)
		assert.NoError(t, err)
		first <- out
	}()

	require.Eventually(t, func() bool { return svc.Controls(1).Busy }, timeoutShort, tickShort)

	out, err := svc.Toggle(ctx, 1, models.StatusNo)
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, dto.RefusedBusy, out.Reason)

	close(cal.writeGate)
	got := <-first
	assert.True(t, got.Applied)
	assert.Equal(t, models.StatusYes, svc.Controls(1).Status)
	assert.False(t, svc.Controls(1).Busy)
	assert.Equal(t, 1, cal.rowCount(1))
}

func TestToggleFailureKeepsPriorStatus(t *testing.T) {
	cal := newFakeCalendar(mentor)
	svc := newTestReconciler(cal, int64Ptr(mentor.ID))
	ctx := context.Background()

	_, err := svc.Toggle(ctx, 1, models.StatusYes)
	require.NoError(t, err)

	cal.mu.Lock()
	cal.writeErr = appErrors.Remote(500, "boom")
	cal.mu.Unlock()

	out, err := svc.Toggle(ctx, 1, models.StatusNo)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrRemoteFailure)
	assert.False(t, out.Applied)
	assert.Equal(t, models.StatusYes, out.Status)
	assert.Equal(t, models.StatusYes, svc.Controls(1).Status)
	assert.False(t, svc.Controls(1).Busy)
}

func TestToggleSwallowsFollowupFailure(t *testing.T) {
	cal := newFakeCalendar(mentor)
	cal.summaryErr = errors.New("summary down")
	svc := newTestReconciler(cal, int64Ptr(mentor.ID))

	out, err := svc.Toggle(context.Background(), 1, models.StatusYes)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, models.StatusYes, out.Status)
	assert.Nil(t, out.Summary)
}

func TestToggleRefetchesRosterWhenExpanded(t *testing.T) {
	cal := newFakeCalendar(mentor, student)
	svc := newTestReconciler(cal, int64Ptr(mentor.ID))
	ctx := context.Background()

	view, err := svc.SetExpanded(ctx, 1, true)
	require.NoError(t, err)
	assert.True(t, view.Expanded)
	assert.Empty(t, view.Roster)

	_, err = svc.Toggle(ctx, 1, models.StatusMaybe)
	require.NoError(t, err)

	view = svc.View(ctx, 1)
	require.Len(t, view.Roster, 1)
	assert.Equal(t, "Grace", view.Roster[0].Name)
	assert.Equal(t, models.UserTypeMentor, view.Roster[0].UserType)
	assert.Equal(t, models.StatusMaybe, view.Roster[0].Status)
}

func TestOpenDerivesActorStatusFromRoster(t *testing.T) {
	cal := newFakeCalendar(mentor, student)
	cal.rows[4] = map[int64]models.EventResponse{
		mentor.ID:  {EventID: 4, UserID: mentor.ID, Status: models.StatusNo},
		student.ID: {EventID: 4, UserID: student.ID, Status: models.StatusYes},
	}
	svc := newTestReconciler(cal, int64Ptr(mentor.ID))

	view, err := svc.Open(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNo, view.Controls.Status)
	require.NotNil(t, view.Summary)
	assert.Equal(t, 1, view.Summary.Yes)
	assert.Equal(t, 1, view.Summary.StudentsAttending)
	assert.Len(t, svc.Roster(4), 2)
}

func TestCollapseDiscardsRosterInFlight(t *testing.T) {
	cal := newFakeCalendar(mentor)
	cal.rows[1] = map[int64]models.EventResponse{mentor.ID: {EventID: 1, UserID: mentor.ID, Status: models.StatusYes}}
	cal.rosterGate = make(chan struct{})
	svc := newTestReconciler(cal, int64Ptr(mentor.ID))
	ctx := context.Background()

	errs := make(chan error, 1)
	go func() {
		_, err := svc.SetExpanded(ctx, 1, true)
		errs <- err
	}()
	require.Eventually(t, func() bool { return cal.callCount() == 1 }, timeoutShort, tickShort)

	_, err := svc.SetExpanded(ctx, 1, false)
	require.NoError(t, err)

	err = <-errs
	assert.True(t, appErrors.IsCanceled(err))
	assert.Nil(t, svc.Roster(1))
	assert.Equal(t, models.StatusUnset, svc.Controls(1).Status)
}

func TestForgetDropsCachedState(t *testing.T) {
	cal := newFakeCalendar(mentor)
	svc := newTestReconciler(cal, int64Ptr(mentor.ID))
	ctx := context.Background()

	_, err := svc.Toggle(ctx, 1, models.StatusYes)
	require.NoError(t, err)
	require.NotNil(t, svc.Summary(1))

	svc.Forget(1)
	assert.Nil(t, svc.Summary(1))
	assert.Equal(t, models.StatusUnset, svc.Controls(1).Status)
}

func TestToggleRejectsUnsetTarget(t *testing.T) {
	svc := newTestReconciler(newFakeCalendar(), int64Ptr(1))
	_, err := svc.Toggle(context.Background(), 1, models.StatusUnset)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestToggleReadsServerStatusBeforeDeciding(t *testing.T) {
	cal := newFakeCalendar(mentor)
	cal.rows[1] = map[int64]models.EventResponse{mentor.ID: {EventID: 1, UserID: mentor.ID, Status: models.StatusYes}}
	svc := newTestReconciler(cal, int64Ptr(mentor.ID))

	out, err := svc.Toggle(context.Background(), 1, models.StatusYes)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, models.StatusUnset, out.Status)
	assert.Equal(t, 0, cal.rowCount(1))
	assert.Equal(t, models.StatusUnset, svc.Controls(1).Status)
}

func TestToggleStatusLookupFailureMakesNoWrite(t *testing.T) {
	cal := newFakeCalendar(mentor)
	cal.rosterErr = appErrors.Remote(503, "maintenance")
	svc := newTestReconciler(cal, int64Ptr(mentor.ID))

	out, err := svc.Toggle(context.Background(), 1, models.StatusYes)
	require.Error(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, 1, cal.callCount())
	assert.Equal(t, 0, cal.rowCount(1))
	assert.False(t, svc.Controls(1).Busy)

	cal.mu.Lock()
	cal.rosterErr = nil
	cal.mu.Unlock()

	out, err = svc.Toggle(context.Background(), 1, models.StatusYes)
	require.NoError(t, err)
	assert.Equal(t, models.StatusYes, out.Status)
}

func TestPreloadLoadsActorStatusAndSummary(t *testing.T) {
	cal := newFakeCalendar(mentor, student)
	cal.rows[1] = map[int64]models.EventResponse{
		mentor.ID:  {EventID: 1, UserID: mentor.ID, Status: models.StatusMaybe},
		student.ID: {EventID: 1, UserID: student.ID, Status: models.StatusYes},
	}
	svc := newTestReconciler(cal, int64Ptr(mentor.ID))
	ctx := context.Background()

	assert.Equal(t, models.StatusUnset, svc.Controls(1).Status)
	svc.Preload(ctx, []int64{1, 2})

	assert.Equal(t, models.StatusMaybe, svc.Controls(1).Status)
	assert.Equal(t, models.StatusUnset, svc.Controls(2).Status)
	require.NotNil(t, svc.Summary(1))
	assert.Equal(t, 1, svc.Summary(1).Yes)
	require.NotNil(t, svc.Summary(2))

	calls := cal.callCount()
	svc.Preload(ctx, []int64{1, 2})
	assert.Equal(t, calls, cal.callCount())
}

func TestPreloadDropsOtherActorsState(t *testing.T) {
	cal := newFakeCalendar(mentor, student)
	cal.rows[1] = map[int64]models.EventResponse{student.ID: {EventID: 1, UserID: student.ID, Status: models.StatusNo}}
	actor := &switchableActor{}
	actor.set(mentor.ID)
	svc := NewReconcilerService(cal, cal, actor, NewMetricsService(), nil)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, 1, models.StatusYes)
	require.NoError(t, err)

	actor.set(student.ID)
	svc.Preload(ctx, []int64{1})
	assert.Equal(t, models.StatusNo, svc.Controls(1).Status)

	svc.mu.Lock()
	_, kept := svc.states[rsvpKey{eventID: 1, userID: mentor.ID}]
	svc.mu.Unlock()
	assert.False(t, kept)
}

type switchableActor struct {
	mu sync.Mutex
	id *int64
}

func (a *switchableActor) set(id int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.id = &id
}

func (a *switchableActor) CurrentUserID() (int64, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.id == nil {
		return 0, false
	}
	return *a.id, true
}
