package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m4xw311/steward/agent"
	"github.com/m4xw311/steward/errors"
)

type handlerFunc func(ctx context.Context, req agent.Request) (agent.Response, error)

func (f handlerFunc) Handle(ctx context.Context, req agent.Request) (agent.Response, error) {
	return f(ctx, req)
}

func serve(t *testing.T, h agent.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(Handler(h))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, h agent.Handler) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(serve(t, h)), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestTurnsAreAnsweredInOrder(t *testing.T) {
	conn := dial(t, handlerFunc(func(ctx context.Context, req agent.Request) (agent.Response, error) {
		if req.Text == "bad" {
			return agent.Response{}, errors.Transient(errors.New("503"), "calendar is unavailable")
		}
		return agent.Response{Text: "echo " + req.Text, Intent: "calendar"}, nil
	}))

	for _, msg := range []string{"one", "bad", "two"} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
	}

	var got []Reply
	for range 3 {
		var r Reply
		require.NoError(t, conn.ReadJSON(&r))
		got = append(got, r)
	}
	assert.Equal(t, []Reply{
		{Type: "response", Text: "echo one", Intent: "calendar"},
		{Type: "error", Text: "calendar is unavailable"},
		{Type: "response", Text: "echo two", Intent: "calendar"},
	}, got)
}

func TestBinaryFramesAreIgnored(t *testing.T) {
	conn := dial(t, handlerFunc(func(ctx context.Context, req agent.Request) (agent.Response, error) {
		return agent.Response{Text: req.Text}, nil
	}))

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{0x1}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hello")))

	var r Reply
	require.NoError(t, conn.ReadJSON(&r))
	assert.Equal(t, "hello", r.Text)
}

func TestForeignOriginIsRejected(t *testing.T) {
	var called bool
	srv := serve(t, handlerFunc(func(ctx context.Context, req agent.Request) (agent.Response, error) {
		called = true
		return agent.Response{Text: "sent"}, nil
	}))

	header := http.Header{"Origin": {"https://evil.example"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	if conn != nil {
		conn.Close()
	}
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.False(t, called)
}

func TestSameOriginIsAccepted(t *testing.T) {
	srv := serve(t, handlerFunc(func(ctx context.Context, req agent.Request) (agent.Response, error) {
		return agent.Response{Text: req.Text}, nil
	}))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), http.Header{"Origin": {srv.URL}})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("hi")))
	var r Reply
	require.NoError(t, conn.ReadJSON(&r))
	assert.Equal(t, "hi", r.Text)
}

func TestDefaultAddrIsLoopback(t *testing.T) {
	assert.True(t, strings.HasPrefix(DefaultAddr, "127.0.0.1:"))
}
