// Package wsclient is the thin gorilla/websocket dial wrapper used by
// the session controller's event-stream connection. The video ingest
// and webrtc signaling clients dial directly; their retry and URL-shape
// needs differ enough to not share this helper.
package wsclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/project-chip/certification-tool-cli/internal/apperrors"
)

// Dial connects to a ws:// endpoint built from hostname and path.
func Dial(ctx context.Context, hostname, path string) (*websocket.Conn, error) {
	u := url.URL{Scheme: "ws", Host: hostname, Path: path}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dialing %s: %v", apperrors.ErrTransportClosed, u.String(), err)
	}
	return conn, nil
}
