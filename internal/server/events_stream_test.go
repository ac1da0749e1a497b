package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aristath/fundwatch/internal/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func dialStream(t *testing.T, bus *events.Bus, query string) (*websocket.Conn, context.Context) {
	t.Helper()
	srv := httptest.NewServer(NewEventsStreamHandler(bus, zerolog.Nop()))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	var hello map[string]interface{}
	require.NoError(t, wsjson.Read(ctx, conn, &hello))
	require.Equal(t, "connected", hello["type"])
	return conn, ctx
}

func TestEventsStream_ForwardsEvents(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	conn, ctx := dialStream(t, bus, "")

	bus.Emit(events.HoldingsChanged, "holdings", map[string]interface{}{"action": "created", "code": "000001"})

	var got events.Event
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	assert.Equal(t, events.HoldingsChanged, got.Type)
	assert.Equal(t, "holdings", got.Module)
	assert.Equal(t, "000001", got.Data["code"])
}

func TestEventsStream_TypeFilter(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	conn, ctx := dialStream(t, bus, "?types=history_synced")

	assert.Zero(t, bus.SubscriberCount(events.EstimatesUpdated))
	bus.Emit(events.EstimatesUpdated, "sync", nil)
	bus.Emit(events.HistorySynced, "sync", map[string]interface{}{"code": "000002"})

	var got events.Event
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	assert.Equal(t, events.HistorySynced, got.Type)
}

func TestEventsStream_UnknownTypeRejected(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	handler := NewEventsStreamHandler(bus, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/stream?types=NOPE", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseEventTypes(t *testing.T) {
	types, ok := parseEventTypes("")
	assert.True(t, ok)
	assert.Equal(t, events.AllTypes, types)

	types, ok = parseEventTypes(" holdings_changed , ESTIMATES_UPDATED,")
	assert.True(t, ok)
	assert.Equal(t, []events.EventType{events.HoldingsChanged, events.EstimatesUpdated}, types)

	_, ok = parseEventTypes(",")
	assert.False(t, ok)
}
