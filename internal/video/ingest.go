package video

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/project-chip/certification-tool-cli/internal/apperrors"
	"github.com/project-chip/certification-tool-cli/internal/logging"
)

// The server may not have the stream ready the moment the prompt
// fires, so the dial retries on a short fixed cadence.
const (
	ingestRetryAttempts = 10
	ingestRetryDelay    = 500 * time.Millisecond
)

// ingest is the raw H.264 NALU WebSocket client. It dials with bounded
// retry and hands every received frame to onFrame.
type ingest struct {
	logger logging.Logger
	url    string
	conn   *websocket.Conn
}

func newIngest(logger logging.Logger, hostname string) *ingest {
	u := url.URL{Scheme: "ws", Host: hostname, Path: "/api/v1/ws/video"}
	return &ingest{logger: logger, url: u.String()}
}

// Connect dials the ingest endpoint, retrying with a fixed delay up to
// ingestRetryAttempts times.
func (i *ingest) Connect(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= ingestRetryAttempts; attempt++ {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, i.url, nil)
		if err == nil {
			i.conn = conn
			return nil
		}
		lastErr = err
		i.logger.Warnw("video ingest dial failed, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ingestRetryDelay):
		}
	}
	return fmt.Errorf("%w: ingest dial exhausted retries: %v", apperrors.ErrVideoPipeline, lastErr)
}

// Run reads binary frames until the context is cancelled or the socket
// closes, calling onFrame for each one.
func (i *ingest) Run(ctx context.Context, onFrame func([]byte)) error {
	defer i.conn.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		_, data, err := i.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("%w: ingest read: %v", apperrors.ErrVideoPipeline, err)
		}
		onFrame(data)
	}
}

// Close closes the underlying connection if open.
func (i *ingest) Close() error {
	if i.conn == nil {
		return nil
	}
	return i.conn.Close()
}
