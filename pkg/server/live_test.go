package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matst80/slask-storefront/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialLive(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/filter?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) LiveMessage {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg LiveMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestLiveFilterRejectsCrossOriginUpgrade(t *testing.T) {
	ws, _ := newTestServer(t)
	srv := httptest.NewServer(ws.Handler())
	defer srv.Close()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/filter"

	_, resp, err := websocket.DefaultDialer.Dial(u, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, ws.Sessions.Len())

	conn, _, err := websocket.DefaultDialer.Dial(u, http.Header{"Origin": {srv.URL}})
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, MessageState, readMessage(t, conn).Type)
}

func TestLiveFilterHydratesWithoutNavigating(t *testing.T) {
	ws, _ := newTestServer(t)
	srv := httptest.NewServer(ws.Handler())
	defer srv.Close()

	conn := dialLive(t, srv, "sale=true&genre=rpg&genre=bogus")
	msg := readMessage(t, conn)
	assert.Equal(t, MessageState, msg.Type)
	assert.Equal(t, "/games?genre=rpg&sale=true", msg.Url)
	require.NotNil(t, msg.State)
	assert.Equal(t, types.IdSet{"rpg"}, msg.State.Genres)
	assert.Equal(t, 2, msg.Active)

	// nothing else arrives until the page changes something
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestLiveFilterCoalescesActionsIntoOneNavigation(t *testing.T) {
	ws, tracking := newTestServer(t)
	srv := httptest.NewServer(ws.Handler())
	defer srv.Close()

	conn := dialLive(t, srv, "")
	assert.Equal(t, MessageState, readMessage(t, conn).Type)
	assert.Eventually(t, func() bool { return ws.Sessions.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(types.FilterAction{Op: types.OpGenre, Id: "rpg", Included: true}))
	require.NoError(t, conn.WriteJSON(types.FilterAction{Op: types.OpSale, Included: true}))
	require.NoError(t, conn.WriteJSON(types.FilterAction{Op: types.OpGenre, Id: "unknown", Included: true}))
	require.NoError(t, conn.WriteJSON(map[string]string{"op": "dance"}))

	nav := readMessage(t, conn)
	assert.Equal(t, LiveMessage{Type: MessageNavigate, Url: "/games?genre=rpg&sale=true", Replace: true, Scroll: false}, nav)

	results := readMessage(t, conn)
	assert.Equal(t, MessageResults, results.Type)
	require.NotNil(t, results.Result)
	assert.Equal(t, 1, results.Result.TotalHits)
	assert.Equal(t, "Mythic Forge", results.Result.Items[0].Name)
	assert.Equal(t, 2, results.Active)

	calls := tracking.filterCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "genre=rpg&sale=true", calls[0].query)

	conn.Close()
	assert.Eventually(t, func() bool { return ws.Sessions.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestLiveFilterRevertSendsNothing(t *testing.T) {
	ws, _ := newTestServer(t)
	ws.Debounce = 50 * time.Millisecond
	srv := httptest.NewServer(ws.Handler())
	defer srv.Close()

	conn := dialLive(t, srv, "genre=rpg")
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(types.FilterAction{Op: types.OpSale, Included: true}))
	require.NoError(t, conn.WriteJSON(types.FilterAction{Op: types.OpSale, Included: false}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestLiveFilterFlush(t *testing.T) {
	ws, _ := newTestServer(t)
	ws.Debounce = time.Hour
	srv := httptest.NewServer(ws.Handler())
	defer srv.Close()

	conn := dialLive(t, srv, "")
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(types.FilterAction{Op: types.OpSearch, Value: "forge"}))
	require.NoError(t, conn.WriteJSON(types.FilterAction{Op: OpFlush}))

	nav := readMessage(t, conn)
	assert.Equal(t, "/games?q=forge", nav.Url)
}
