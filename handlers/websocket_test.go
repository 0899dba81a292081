package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialSession(t *testing.T, server *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/session/ws?id=" + id
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	msg := WSMessage{}
	require.NoError(t, json.Unmarshal(data, &msg), string(data))
	return msg
}

func sendJSON(t *testing.T, conn *websocket.Conn, msg WSMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestSessionWebSocket(t *testing.T) {
	router := setupRouter(t, nil)
	server := httptest.NewServer(router)
	defer server.Close()

	info, _ := createSession(t, router, CreateSessionRequest{Threshold: 3, Dimensions: 2})
	conn := dialSession(t, server, info.ID)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "pong", string(data))

	sendJSON(t, conn, WSMessage{Type: WSMessageTypeFrame, Landmarks: [][]float64{{0, 0}, {10, 0}}})
	msg := readMessage(t, conn)
	assert.Equal(t, WSMessageTypeOutcome, msg.Type)
	assert.Equal(t, "no_baseline", msg.Kind)
	assert.Equal(t, uint64(1), msg.Seq)

	sendJSON(t, conn, WSMessage{Type: WSMessageTypeFrame, Landmarks: [][]float64{{0, 4}, {10, 0}}})
	msg = readMessage(t, conn)
	assert.Equal(t, "stable", msg.Kind)
	require.NotNil(t, msg.Distance)
	assert.Equal(t, 2.0, *msg.Distance)
	assert.False(t, msg.Render)

	// Frames sent over HTTP reach the socket too
	w := perform(router, http.MethodPost, "/session/evaluate", EvaluateRequest{ID: info.ID, Landmarks: [][]float64{{0, 10}, {10, 0}}})
	require.Equal(t, http.StatusOK, w.Code)
	msg = readMessage(t, conn)
	assert.Equal(t, "moved", msg.Kind)
	assert.True(t, msg.Render)
	assert.Equal(t, uint64(3), msg.Seq)

	sendJSON(t, conn, WSMessage{Type: WSMessageTypeFrame, Landmarks: [][]float64{{0, 0}}})
	msg = readMessage(t, conn)
	assert.Equal(t, WSMessageTypeError, msg.Type)
	assert.Equal(t, http.StatusConflict, msg.Status)

	sendJSON(t, conn, WSMessage{Type: WSMessageTypeReset})
	sendJSON(t, conn, WSMessage{Type: WSMessageTypeFrame, Landmarks: [][]float64{{0, 0}}})
	msg = readMessage(t, conn)
	assert.Equal(t, "no_baseline", msg.Kind)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{oops")))
	msg = readMessage(t, conn)
	assert.Equal(t, WSMessageTypeError, msg.Type)
	assert.Equal(t, http.StatusBadRequest, msg.Status)

	sendJSON(t, conn, WSMessage{Type: "dance"})
	msg = readMessage(t, conn)
	assert.Equal(t, "unknown message type", msg.Error)
}

func TestSessionWebSocket_ClosedWithSession(t *testing.T) {
	router := setupRouter(t, nil)
	server := httptest.NewServer(router)
	defer server.Close()

	info, _ := createSession(t, router, nil)
	conn := dialSession(t, server, info.ID)
	// Make sure the socket is registered before the session goes away
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.NoError(t, err)

	w := perform(router, http.MethodPost, "/session/delete?id="+info.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestSessionWebSocket_UnknownSession(t *testing.T) {
	router := setupRouter(t, nil)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/session/ws?id=missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
