// Package prompt implements the six prompt kinds the harness can ask
// the operator: options-select, text-input, file-upload,
// image-verification, stream/video-verification and
// two-way-talk/push-AV verification.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/project-chip/certification-tool-cli/internal/colorize"
	"github.com/project-chip/certification-tool-cli/internal/httpserver"
	"github.com/project-chip/certification-tool-cli/internal/logging"
	"github.com/project-chip/certification-tool-cli/internal/protocol"
	"github.com/project-chip/certification-tool-cli/internal/video"
	"github.com/project-chip/certification-tool-cli/internal/webrtcpeer"
)

// maxFileSize caps uploads at 100 MiB; a file exactly at the limit is
// still accepted.
const maxFileSize = 100 * 1024 * 1024

// ResponseSender sends a prompt_response back over the event-stream
// socket; implemented by *session.Controller.
type ResponseSender interface {
	SendResponse(resp protocol.PromptResponse) error
}

// Dependencies bundles everything a Dispatcher needs beyond the
// per-prompt request itself.
type Dependencies struct {
	Logger         logging.Logger
	Sender         ResponseSender
	Hostname       string
	FFmpegPath     string
	VideoOutDir    string
	VideoPort      int
	UploadURL      string
	STUNServers    []webrtcpeer.ICEServer
	DefaultTimeout time.Duration
}

// Dispatcher routes a decoded PromptRequest to its per-kind handler.
type Dispatcher struct {
	deps Dependencies

	httpSrv  *httpserver.Server
	pipeline *video.Pipeline
	peer     *webrtcpeer.Peer
	stdin    *lineReader
}

// NewDispatcher constructs a Dispatcher. The embedded HTTP server is
// created eagerly (but not started) and reused across prompts; each
// video prompt starts it and stops it again before answering. The
// stdin reader is likewise started once here and shared by every prompt
// handler for the dispatcher's whole lifetime.
func NewDispatcher(deps Dependencies) *Dispatcher {
	if deps.DefaultTimeout <= 0 {
		deps.DefaultTimeout = 60 * time.Second
	}
	return &Dispatcher{
		deps:    deps,
		httpSrv: httpserver.New(deps.Logger, deps.VideoPort),
		stdin:   newLineReader(os.Stdin),
	}
}

// PrewarmWebRTC connects the signaling peer once, at session start —
// the peer is session-scoped, not per-prompt, so the controller can
// negotiate before the first two-way-talk prompt even arrives. Safe to
// call when no such prompt ever comes.
func (d *Dispatcher) PrewarmWebRTC(ctx context.Context) error {
	peer := webrtcpeer.New(d.deps.Logger, webrtcpeer.Config{
		Hostname:   d.deps.Hostname,
		ICEServers: d.deps.STUNServers,
	})
	if err := peer.Connect(ctx); err != nil {
		d.deps.Logger.Warnw("webrtc pre-warm failed, two-way-talk prompts will be unsupported", "error", err)
		return err
	}
	d.peer = peer
	return nil
}

// Close releases any long-lived resources the dispatcher holds across
// prompts (currently just the pre-warmed WebRTC peer).
func (d *Dispatcher) Close() error {
	if d.peer != nil {
		return d.peer.Close()
	}
	return nil
}

// Handle routes req to its per-kind handler and, for every known kind,
// sends exactly one response whatever the outcome. An unknown kind is
// returned as an error and no response is sent.
func (d *Dispatcher) Handle(ctx context.Context, req *protocol.PromptRequest) error {
	timeout := d.timeoutFor(req)
	promptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		response interface{}
		status   = protocol.StatusOK
		err      error
	)

	switch req.Kind {
	case protocol.PromptOptionsSelect:
		response, status, err = d.handleOptionsSelect(promptCtx, req)
	case protocol.PromptTextInput:
		response, status, err = d.handleTextInput(promptCtx, req)
	case protocol.PromptFileUpload:
		response, status, err = d.handleFileUpload(promptCtx, req)
	case protocol.PromptImageVerify:
		response, status, err = d.handleImageVerification(promptCtx, req)
	case protocol.PromptStreamVerify:
		response, status, err = d.handleStreamVerification(promptCtx, req)
	case protocol.PromptTwoWayTalk, protocol.PromptPushAVStream:
		response, status, err = d.handleTwoWayTalk(promptCtx, req)
	default:
		return fmt.Errorf("prompt: unknown prompt kind %q", req.Kind)
	}

	if err != nil {
		d.deps.Logger.Warnw("prompt handling error", "kind", req.Kind, "error", err)
	}

	return d.deps.Sender.SendResponse(protocol.PromptResponse{
		Response:   response,
		StatusCode: status,
		MessageID:  req.MessageID,
	})
}

func (d *Dispatcher) timeoutFor(req *protocol.PromptRequest) time.Duration {
	if req.TimeoutSeconds > 0 {
		return time.Duration(req.TimeoutSeconds * float64(time.Second))
	}
	return d.deps.DefaultTimeout
}

func (d *Dispatcher) printPrompt(text string) {
	fmt.Println(colorize.LogHeader(text))
}

// doneStatus maps a finished prompt context to the status the response
// must carry: TIMEOUT when the prompt's own deadline elapsed, CANCELLED
// when the session was cancelled (Ctrl-C) underneath it.
func doneStatus(ctx context.Context) protocol.UserResponseStatus {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return protocol.StatusTimeout
	}
	return protocol.StatusCancelled
}
