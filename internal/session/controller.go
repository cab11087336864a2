// Package session implements the event-stream client state machine:
// dial once, decode envelopes, route by kind, render, track step
// errors, detect browser-only failures, and close on a terminal
// non-executing run state.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/project-chip/certification-tool-cli/internal/apperrors"
	"github.com/project-chip/certification-tool-cli/internal/logging"
	"github.com/project-chip/certification-tool-cli/internal/model"
	"github.com/project-chip/certification-tool-cli/internal/protocol"
	"github.com/project-chip/certification-tool-cli/internal/wsclient"
)

// defaultBrowserOnlyPublicIDs is the known set of browser-only test
// cases; callers may override via Controller fields.
var defaultBrowserOnlyPublicIDs = []string{"TC_WEBRTC_1_6"}

var defaultBrowserOnlyIndicators = []string{
	"browserpeerconnection",
	"webrtc",
	"browser peer",
	"ws://backend/api/v1/ws/webrtc",
	"create_browser_peer",
}

// PromptHandler is invoked for every decoded prompt_request; implemented
// by internal/prompt.Dispatcher.
type PromptHandler interface {
	Handle(ctx context.Context, req *protocol.PromptRequest) error
}

// Controller owns the event-stream WebSocket and the run's hierarchy
// state.
type Controller struct {
	logger  logging.Logger
	prompts PromptHandler

	BrowserOnlyPublicIDs  []string
	BrowserOnlyIndicators []string

	run *model.Run

	mu         sync.Mutex
	stepErrors map[model.StepKey][]string

	conn *websocket.Conn
}

// New constructs a Controller. prompts may be nil if only test-update
// rendering is needed (e.g. in tests). run is the frozen Run tree
// fetched once over REST before the event stream opens — its
// Title/PublicID fields on every suite/case/step are never touched
// again; only State/Errors/Failures are mutated from here on by inbound
// test_update messages. If run is nil, an empty tree is grown on demand
// with blank titles.
func New(logger logging.Logger, prompts PromptHandler, run *model.Run) *Controller {
	if run == nil {
		run = &model.Run{State: model.StatePending}
	}
	return &Controller{
		logger:                logger,
		prompts:               prompts,
		BrowserOnlyPublicIDs:  defaultBrowserOnlyPublicIDs,
		BrowserOnlyIndicators: defaultBrowserOnlyIndicators,
		run:                   run,
		stepErrors:            make(map[model.StepKey][]string),
	}
}

// Run returns the controller's live run tree (for tests/inspection).
func (c *Controller) Run() *model.Run { return c.run }

// SetPromptHandler attaches the prompt dispatcher after construction,
// breaking the constructor cycle between Controller (which routes
// prompt_request messages to a handler) and the dispatcher (which needs
// a Controller to send responses back through).
func (c *Controller) SetPromptHandler(h PromptHandler) {
	c.prompts = h
}

// SendResponse writes a prompt_response envelope back over the
// event-stream socket. Implements prompt.ResponseSender.
func (c *Controller) SendResponse(resp protocol.PromptResponse) error {
	if c.conn == nil {
		return fmt.Errorf("session: not connected")
	}
	return c.conn.WriteJSON(resp.Envelope())
}

// Connect dials the event-stream endpoint.
func (c *Controller) Connect(ctx context.Context, hostname string) error {
	conn, err := wsclient.Dial(ctx, hostname, "/api/v1/ws")
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

// Serve reads and routes messages until the run reaches a terminal,
// non-executing state, the socket closes, or ctx is cancelled.
func (c *Controller) Serve(ctx context.Context) error {
	defer c.conn.Close()

	// ReadMessage blocks with no deadline; closing the socket from a
	// watcher goroutine is the only way a Ctrl-C cancel can unblock it.
	served := make(chan struct{})
	defer close(served)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-served:
		}
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("%w: %v", apperrors.ErrTransportClosed, err)
		}

		done, err := c.handleMessage(ctx, data)
		if err != nil {
			c.logger.Warnw("session message handling error", "error", err)
			continue
		}
		if done {
			return nil
		}
	}
}

// handleMessage decodes and routes one inbound envelope. It returns
// done=true once a terminal, non-executing run state closes the socket.
func (c *Controller) handleMessage(ctx context.Context, data []byte) (done bool, err error) {
	var msg protocol.SocketMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return false, fmt.Errorf("%w: %v", apperrors.ErrProtocolDecode, err)
	}

	switch msg.Type {
	case protocol.TypeTestUpdate:
		return c.handleTestUpdate(msg.Payload)
	case protocol.TypePromptRequest:
		return false, c.handlePromptRequest(ctx, msg.Payload)
	case protocol.TypeLogRecord:
		return false, c.handleLogRecords(msg.Payload)
	case protocol.TypeTimeoutNotice:
		return false, nil // ignored: the client runs its own timers
	default:
		c.logger.Warnw("unknown socket message type", "type", msg.Type)
		return false, nil
	}
}

func (c *Controller) handleLogRecords(raw json.RawMessage) error {
	records, err := protocol.DecodeLogRecords(raw)
	if err != nil {
		return err
	}
	for _, rec := range records {
		c.logger.Infow("harness log", "level", rec.Level, "message", rec.Message)
	}
	return nil
}

func (c *Controller) handlePromptRequest(ctx context.Context, raw json.RawMessage) error {
	req, err := protocol.DecodePromptRequest(raw)
	if err != nil {
		return err
	}
	if c.prompts == nil {
		return fmt.Errorf("session: no prompt handler configured")
	}
	return c.prompts.Handle(ctx, req)
}
