package supersede

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginCancelsPredecessor(t *testing.T) {
	var slot Slot
	first, firstTicket := slot.Begin(context.Background())
	second, secondTicket := slot.Begin(context.Background())

	require.ErrorIs(t, first.Err(), context.Canceled)
	assert.NoError(t, second.Err())
	assert.False(t, firstTicket.Current())
	assert.True(t, secondTicket.Current())
}

func TestStaleResultIsNotApplied(t *testing.T) {
	var slot Slot
	state := ""

	_, early := slot.Begin(context.Background())
	_, late := slot.Begin(context.Background())

	assert.True(t, late.Apply(func() { state = "late" }))
	assert.False(t, early.Apply(func() { state = "early" }))
	assert.Equal(t, "late", state)
}

func TestCancelInvalidatesOutstandingTicket(t *testing.T) {
	var slot Slot
	ctx, ticket := slot.Begin(context.Background())
	slot.Cancel()

	require.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, ticket.Apply(func() {}))
}

func TestDoneReleasesOnlyCurrent(t *testing.T) {
	var slot Slot
	_, stale := slot.Begin(context.Background())
	live, current := slot.Begin(context.Background())

	stale.Done()
	assert.NoError(t, live.Err())

	current.Done()
	assert.ErrorIs(t, live.Err(), context.Canceled)
	assert.True(t, current.Current())
}

func TestGroupKeysAreIndependent(t *testing.T) {
	var g Group[int64]
	ctxA, ticketA := g.Begin(context.Background(), 1)
	_, ticketB := g.Begin(context.Background(), 2)

	assert.NoError(t, ctxA.Err())
	assert.True(t, ticketA.Current())
	assert.True(t, ticketB.Current())

	g.Cancel(1)
	assert.ErrorIs(t, ctxA.Err(), context.Canceled)
	assert.True(t, ticketB.Current())
}

func TestZeroTicket(t *testing.T) {
	var ticket Ticket
	assert.False(t, ticket.Current())
	assert.False(t, ticket.Apply(func() {}))
	ticket.Done()
}
