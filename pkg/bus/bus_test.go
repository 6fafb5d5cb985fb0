package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	b := New(nil)
	var first, second int
	b.Subscribe(KindListInvalidated, func(Signal) { first++ })
	b.Subscribe(KindListInvalidated, func(Signal) { second++ })

	sig := b.Publish(KindListInvalidated, "test")

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Equal(t, KindListInvalidated, sig.Kind)
	assert.NotEmpty(t, sig.ID)
	assert.False(t, sig.Timestamp.IsZero())
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New(nil)
	calls := 0
	unsubscribe := b.Subscribe(KindListInvalidated, func(Signal) { calls++ })
	require.Equal(t, 1, b.Subscribers(KindListInvalidated))

	unsubscribe()
	unsubscribe()
	b.Publish(KindListInvalidated, "test")

	assert.Zero(t, calls)
	assert.Zero(t, b.Subscribers(KindListInvalidated))
}

func TestKindsAreIsolated(t *testing.T) {
	b := New(nil)
	calls := 0
	b.Subscribe(Kind("other"), func(Signal) { calls++ })

	b.Publish(KindListInvalidated, "test")

	assert.Zero(t, calls)
}

func TestSignalsHaveDistinctIDs(t *testing.T) {
	b := New(nil)
	a := b.Publish(KindListInvalidated, "")
	c := b.Publish(KindListInvalidated, "")
	assert.NotEqual(t, a.ID, c.ID)
}
