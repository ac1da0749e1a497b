package events

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_EmitReachesSubscribers(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var got []*Event
	bus.Subscribe(HoldingsChanged, func(e *Event) { got = append(got, e) })
	bus.Subscribe(EstimatesUpdated, func(e *Event) { t.Fatal("wrong type delivered") })

	bus.Emit(HoldingsChanged, "holdings", map[string]interface{}{"code": "000001"})

	require.Len(t, got, 1)
	assert.Equal(t, HoldingsChanged, got[0].Type)
	assert.Equal(t, "holdings", got[0].Module)
	assert.Equal(t, "000001", got[0].Data["code"])
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	calls := 0
	unsubscribe := bus.Subscribe(HistorySynced, func(*Event) { calls++ })
	assert.Equal(t, 1, bus.SubscriberCount(HistorySynced))

	bus.Emit(HistorySynced, "sync", nil)
	unsubscribe()
	bus.Emit(HistorySynced, "sync", nil)

	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.SubscriberCount(HistorySynced))
}

func TestBus_NilIsSafe(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Emit(HoldingsChanged, "holdings", nil) })
}
