package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T, origins []string) (*Hub, string) {
	t.Helper()
	hub := NewHub(quietLogger())
	hub.Start()
	t.Cleanup(hub.Stop)

	srv := httptest.NewServer(NewHandler(hub, origins, quietLogger()))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_Broadcast(t *testing.T) {
	hub, url := startServer(t, nil)

	first := dial(t, url)
	second := dial(t, url)
	assert.Equal(t, TypeConnection, readMessage(t, first).Type)
	assert.Equal(t, TypeConnection, readMessage(t, second).Type)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(context.Background(), TypeSnapshot, map[string]string{"fingerprint": "0123456789abcdef"})

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.Equal(t, TypeSnapshot, msg.Type)
		assert.Equal(t, map[string]interface{}{"fingerprint": "0123456789abcdef"}, msg.Data)
		assert.False(t, msg.Timestamp.IsZero())
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, url := startServer(t, nil)

	conn := dial(t, url)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, url := startServer(t, nil)

	conn := dial(t, url)
	readMessage(t, conn)

	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// Broadcasting after Stop must not block
	hub.Broadcast(context.Background(), TypeSnapshot, nil)
}

func TestHandler_Origins(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		wantOK  bool
	}{
		{name: "no restriction", allowed: nil, origin: "http://elsewhere.example", wantOK: true},
		{name: "wildcard", allowed: []string{"*"}, origin: "http://elsewhere.example", wantOK: true},
		{name: "listed origin", allowed: []string{"http://dash.example"}, origin: "http://dash.example", wantOK: true},
		{name: "no origin header", allowed: []string{"http://dash.example"}, origin: "", wantOK: true},
		{name: "other origin", allowed: []string{"http://dash.example"}, origin: "http://elsewhere.example", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, url := startServer(t, tt.allowed)

			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if tt.wantOK {
				require.NoError(t, err)
				conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}
