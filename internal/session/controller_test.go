package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/project-chip/certification-tool-cli/internal/protocol"
)

// autoResponder answers every prompt with option 1, the way a
// cooperative operator would.
type autoResponder struct {
	c *Controller
}

func (a *autoResponder) Handle(_ context.Context, req *protocol.PromptRequest) error {
	return a.c.SendResponse(protocol.PromptResponse{
		Response:   1,
		StatusCode: protocol.StatusOK,
		MessageID:  req.MessageID,
	})
}

func wsHostname(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestServePromptRoundTripThenTerminal(t *testing.T) {
	received := make(chan map[string]interface{}, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteJSON(map[string]interface{}{
			"type": "prompt_request",
			"payload": map[string]interface{}{
				"kind":       "options_select",
				"prompt":     "Is the light on?",
				"timeout":    5,
				"message_id": "m-1",
				"options":    map[string]int{"yes": 1, "no": 2},
			},
		})

		var env map[string]interface{}
		if err := conn.ReadJSON(&env); err != nil {
			return
		}
		received <- env

		_ = conn.WriteJSON(map[string]interface{}{
			"type":    "test_update",
			"payload": map[string]interface{}{"test_type": "test_run", "state": "passed"},
		})
	}))
	defer srv.Close()

	c := newTestController(t)
	c.SetPromptHandler(&autoResponder{c: c})

	ctx := context.Background()
	require.NoError(t, c.Connect(ctx, wsHostname(srv)))
	require.NoError(t, c.Serve(ctx))

	select {
	case env := <-received:
		require.Equal(t, "prompt_response", env["type"])
		payload, ok := env["payload"].(map[string]interface{})
		require.True(t, ok)
		require.Equal(t, "m-1", payload["message_id"])
		require.Equal(t, float64(protocol.StatusOK), payload["status_code"])
		require.Equal(t, float64(1), payload["response"])
	case <-time.After(2 * time.Second):
		t.Fatal("server never received a prompt response")
	}
}

func TestServeSkipsUnknownMessageKinds(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteJSON(map[string]interface{}{"type": "mystery", "payload": map[string]interface{}{}})
		_ = conn.WriteJSON(map[string]interface{}{
			"type":    "test_update",
			"payload": map[string]interface{}{"test_type": "test_run", "state": "passed"},
		})
	}))
	defer srv.Close()

	c := newTestController(t)
	ctx := context.Background()
	require.NoError(t, c.Connect(ctx, wsHostname(srv)))
	require.NoError(t, c.Serve(ctx))
}

func TestServeReturnsNilOnContextCancel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Hold the socket open without sending anything: the client
		// blocks in its read until cancelled.
		time.Sleep(2 * time.Second)
		conn.Close()
	}))
	defer srv.Close()

	c := newTestController(t)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Connect(ctx, wsHostname(srv)))

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}
