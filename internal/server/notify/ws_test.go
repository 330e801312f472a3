package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWSServer(t *testing.T, ctx context.Context, reg *Registry) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ServeConn(ctx, reg, conn, testLogger())
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestServeConn_EchoesTextFrames(t *testing.T) {
	reg := NewRegistry(testLogger())
	url := startWSServer(t, context.Background(), reg)

	c := dial(t, url)
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("hello")))

	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := c.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "Message received: hello", string(msg))
}

func TestServeConn_ReceivesBroadcast(t *testing.T) {
	reg := NewRegistry(testLogger())
	url := startWSServer(t, context.Background(), reg)

	c1 := dial(t, url)
	c2 := dial(t, url)
	waitFor(t, func() bool { return reg.Len() == 2 })

	res := reg.Broadcast(context.Background(), Event{Event: EventCSVListUpdated, Message: "CSV file deleted"})
	assert.Equal(t, 2, res.Delivered)

	for _, c := range []*websocket.Conn{c1, c2} {
		_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)

		var ev Event
		require.NoError(t, json.Unmarshal(msg, &ev))
		assert.Equal(t, Event{Event: "csv_list_updated", Message: "CSV file deleted"}, ev)
	}
}

func TestServeConn_DeregistersOnClientClose(t *testing.T) {
	reg := NewRegistry(testLogger())
	url := startWSServer(t, context.Background(), reg)

	c := dial(t, url)
	waitFor(t, func() bool { return reg.Len() == 1 })

	require.NoError(t, c.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	_ = c.Close()

	waitFor(t, func() bool { return reg.Len() == 0 })
}

func TestServeConn_ContextCancelClosesConnection(t *testing.T) {
	reg := NewRegistry(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	url := startWSServer(t, ctx, reg)

	c := dial(t, url)
	waitFor(t, func() bool { return reg.Len() == 1 })

	cancel()
	waitFor(t, func() bool { return reg.Len() == 0 })

	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := c.ReadMessage()
	assert.Error(t, err, "server side closed the socket")
}

func TestWSTransport_WriteAfterClose(t *testing.T) {
	reg := NewRegistry(testLogger())
	var tr *WSTransport
	ready := make(chan struct{})

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		tr = NewWSTransport(conn)
		reg.Connect(tr)
		close(ready)
	}))
	defer srv.Close()

	dial(t, "ws"+strings.TrimPrefix(srv.URL, "http"))
	<-ready

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	assert.ErrorIs(t, tr.WriteText([]byte("x")), ErrTransportClosed)

	res := reg.Broadcast(context.Background(), uploaded)
	assert.Equal(t, BroadcastResult{Pruned: 1}, res)
}
