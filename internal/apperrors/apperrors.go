// Package apperrors defines the sentinel error categories used across
// the transport, protocol, prompt, video and webrtc layers.
package apperrors

import "errors"

var (
	// ErrTransportClosed indicates the event-stream socket closed, expectedly
	// or not.
	ErrTransportClosed = errors.New("apperrors: transport closed")

	// ErrProtocolDecode indicates an inbound message could not be decoded
	// into a known envelope or payload shape.
	ErrProtocolDecode = errors.New("apperrors: protocol decode failure")

	// ErrPromptTimeout indicates a prompt was not answered within its
	// deadline.
	ErrPromptTimeout = errors.New("apperrors: prompt timed out")

	// ErrPromptInvalid indicates a response failed validation (bad option
	// index, regex mismatch, disallowed file extension).
	ErrPromptInvalid = errors.New("apperrors: prompt response invalid")

	// ErrVideoPipeline indicates the ingest/transcode/serve pipeline failed.
	ErrVideoPipeline = errors.New("apperrors: video pipeline failure")

	// ErrWebRTCSignaling indicates the WebRTC signaling peer failed to
	// establish or maintain its connection.
	ErrWebRTCSignaling = errors.New("apperrors: webrtc signaling failure")
)
