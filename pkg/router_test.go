package pkg

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, config *Config) (*Manager, *httptest.Server) {
	t.Helper()

	m := NewManager(config)
	server := httptest.NewServer(NewRouter(m))
	t.Cleanup(server.Close)

	return m, server
}

func dial(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func next(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	messageType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, messageType)

	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func waitForMembers(t *testing.T, m *Manager, room string, members ...string) {
	t.Helper()

	require.Eventually(t, func() bool {
		current := m.Members(room)
		if len(members) == 0 {
			return current == nil
		}
		return slices.Equal(current, members)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRouter_Health(t *testing.T) {
	_, server := newTestServer(t, testConfig())

	for _, path := range []string{"/health", "/api/v1/health"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	}
}

func TestRouter_PairingSession(t *testing.T) {
	req := require.New(t)
	m, server := newTestServer(t, testConfig())
	room := "m1_m2_2025-01-10_14:00-15:00"

	a := dial(t, server, "/")
	b := dial(t, server, "/any/path")

	send(t, a, `{"type":"join","roomId":"`+room+`","user":"alice"}`)
	waitForMembers(t, m, room, "alice")

	send(t, b, `{"type":"join","roomId":"`+room+`","user":"bob"}`)
	event := next(t, a)
	req.Equal(EventTypeUserJoined, event.Type)
	req.Equal("bob", lo.FromPtr(event.User))

	// Neither an unknown type nor a malformed frame closes the connection.
	send(t, a, `{"type":"ping"}`)
	send(t, a, `{"type":"code-change"`)
	send(t, a, `{"type":"code-change","roomId":"`+room+`","code":"print(1)"}`)

	event = next(t, b)
	req.Equal(EventTypeCodeChange, event.Type)
	req.Equal("print(1)", lo.FromPtr(event.Code))

	send(t, b, `{"type":"signal","roomId":"`+room+`","signal":{"type":"answer","sdp":"v=0"}}`)
	event = next(t, a)
	req.Equal(EventTypeSignal, event.Type)
	req.JSONEq(`{"type":"answer","sdp":"v=0"}`, string(event.Signal))

	req.Equal([]RoomSnapshot{{ID: room, Members: []string{"alice", "bob"}}},
		m.Snapshot())

	req.NoError(b.Close())
	event = next(t, a)
	req.Equal(EventTypeUserLeft, event.Type)
	req.Equal("bob", lo.FromPtr(event.User))
	waitForMembers(t, m, room, "alice")

	req.NoError(a.Close())
	waitForMembers(t, m, room)
	req.Empty(m.Rooms())
}

func TestRouter_RoomsAreNotListedOnRelayListener(t *testing.T) {
	req := require.New(t)
	m, server := newTestServer(t, testConfig())
	room := "mentee42_mentor7_2025-01-10_14:00"

	a := dial(t, server, "/")
	send(t, a, `{"type":"join","roomId":"`+room+`","user":"alice"}`)
	waitForMembers(t, m, room, "alice")

	resp, err := http.Get(server.URL + "/api/v1/rooms")
	req.NoError(err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	req.NoError(err)
	req.Equal(http.StatusBadRequest, resp.StatusCode)
	req.NotContains(string(body), room)
}

func TestMetricsRouter_RoomsBehindFlag(t *testing.T) {
	req := require.New(t)
	config := testConfig()
	m := NewManager(config)
	req.NoError(m.Join(newTestClient(m), "r", "alice"))

	recorder := httptest.NewRecorder()
	NewMetricsRouter(m, config).ServeHTTP(recorder,
		httptest.NewRequest(http.MethodGet, "/api/v1/rooms", nil))
	req.Equal(http.StatusNotFound, recorder.Code)

	config.ExposeRooms = true
	recorder = httptest.NewRecorder()
	NewMetricsRouter(m, config).ServeHTTP(recorder,
		httptest.NewRequest(http.MethodGet, "/api/v1/rooms", nil))
	req.Equal(http.StatusOK, recorder.Code)

	var snapshots []RoomSnapshot
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &snapshots))
	req.Equal([]RoomSnapshot{{ID: "r", Members: []string{"alice"}}}, snapshots)

	recorder = httptest.NewRecorder()
	NewMetricsRouter(m, config).ServeHTTP(recorder,
		httptest.NewRequest(http.MethodGet, "/metrics", nil))
	req.Equal(http.StatusOK, recorder.Code)
	req.Contains(recorder.Body.String(), "relay_rooms")
}

func TestRouter_FrameUnderReadLimitIsRelayed(t *testing.T) {
	req := require.New(t)
	config := testConfig()
	config.MaxMessageSize = 64 << 10
	m, server := newTestServer(t, config)

	a := dial(t, server, "/")
	b := dial(t, server, "/")
	send(t, a, `{"type":"join","roomId":"r","user":"alice"}`)
	waitForMembers(t, m, "r", "alice")
	send(t, b, `{"type":"join","roomId":"r","user":"bob"}`)
	req.Equal(EventTypeUserJoined, next(t, a).Type)

	prefix := `{"type":"code-change","roomId":"r","code":"`
	suffix := `"}`
	code := strings.Repeat("x", int(config.MaxMessageSize)-len(prefix)-len(suffix)-1)
	send(t, a, prefix+code+suffix)

	event := next(t, b)
	req.Equal(EventTypeCodeChange, event.Type)
	req.Equal(code, lo.FromPtr(event.Code))
	req.Equal([]string{"alice", "bob"}, m.Members("r"))
}
