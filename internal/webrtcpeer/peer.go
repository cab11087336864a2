// Package webrtcpeer implements the CLI's receive-only WebRTC signaling
// peer: it connects to the harness's browser-peer signaling channel,
// negotiates a recvonly audio+video session, and meters the remote
// audio track's level for two-way-talk verification prompts.
package webrtcpeer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"

	"github.com/project-chip/certification-tool-cli/internal/apperrors"
	"github.com/project-chip/certification-tool-cli/internal/logging"
)

// Peer is a single signaling-plus-media WebRTC session.
type Peer struct {
	logger logging.Logger
	cfg    Config

	sessionID string
	signal    *websocket.Conn
	pc        *webrtc.PeerConnection

	mu          sync.Mutex
	connected   bool
	audioLevels AudioLevels
	closed      bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a Peer. Call Connect to dial signaling and create the
// peer connection.
func New(logger logging.Logger, cfg Config) *Peer {
	if len(cfg.ICEServers) == 0 {
		cfg.ICEServers = DefaultICEServers()
	}
	return &Peer{logger: logger, cfg: cfg}
}

// Connect dials the signaling WebSocket and creates the local peer
// connection with two recvonly transceivers. It returns once the
// connection object exists; negotiation itself is driven by signaling
// messages handled in the background loop started here.
func (p *Peer) Connect(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.sessionID = uuid.New().String()

	u := url.URL{Scheme: "ws", Host: p.cfg.Hostname, Path: "/api/v1/ws/webrtc/peer"}
	dialCtx, cancel := context.WithTimeout(p.ctx, signalingDialTimeout)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: signaling dial: %v", apperrors.ErrWebRTCSignaling, err)
	}
	p.signal = conn

	pc, err := p.createPeerConnection()
	if err != nil {
		return err
	}
	p.pc = pc

	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		return fmt.Errorf("%w: add audio transceiver: %v", apperrors.ErrWebRTCSignaling, err)
	}
	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	}); err != nil {
		return fmt.Errorf("%w: add video transceiver: %v", apperrors.ErrWebRTCSignaling, err)
	}

	p.setupEventHandlers()

	go p.handleSignalingMessages()

	return nil
}

// createPeerConnection registers the Opus codec with its fmtp line,
// builds a MediaEngine + default interceptor registry, and creates the
// peer connection with the configured ICE servers.
func (p *Peer) createPeerConnection() (*webrtc.PeerConnection, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterCodec(webrtc.RTPCodecParameters{
		RTPCodecCapability: webrtc.RTPCodecCapability{
			MimeType:    webrtc.MimeTypeOpus,
			ClockRate:   OpusSampleRate,
			Channels:    OpusChannels,
			SDPFmtpLine: OpusSDPFmtpLine,
		},
		PayloadType: OpusPayloadType,
	}, webrtc.RTPCodecTypeAudio); err != nil {
		return nil, fmt.Errorf("%w: register opus codec: %v", apperrors.ErrWebRTCSignaling, err)
	}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("%w: register default codecs: %v", apperrors.ErrWebRTCSignaling, err)
	}

	i := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, i); err != nil {
		return nil, fmt.Errorf("%w: register interceptors: %v", apperrors.ErrWebRTCSignaling, err)
	}

	api := webrtc.NewAPI(webrtc.WithMediaEngine(m), webrtc.WithInterceptorRegistry(i))

	iceServers := make([]webrtc.ICEServer, 0, len(p.cfg.ICEServers))
	for _, s := range p.cfg.ICEServers {
		iceServers = append(iceServers, webrtc.ICEServer{URLs: s.URLs})
	}

	pc, err := api.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, fmt.Errorf("%w: new peer connection: %v", apperrors.ErrWebRTCSignaling, err)
	}
	return pc, nil
}

// setupEventHandlers wires OnTrack, OnICECandidate and
// OnConnectionStateChange: mutex-guarded state updates, logging outside
// the lock.
func (p *Peer) setupEventHandlers() {
	p.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		switch track.Kind() {
		case webrtc.RTPCodecTypeAudio:
			go p.analyzeAudioTrack(track)
		case webrtc.RTPCodecTypeVideo:
			go p.observeVideoTrack(track)
		}
	})

	p.pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		p.sendICECandidate(c.ToJSON())
	})

	p.pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		p.mu.Lock()
		p.connected = state == webrtc.PeerConnectionStateConnected
		p.mu.Unlock()
		p.logger.Infow("webrtc connection state changed", "state", state.String(), "session", p.sessionID)
	})
}

// Connected reports whether the peer connection is currently in the
// "connected" ICE/DTLS state.
func (p *Peer) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// AudioLevels returns the last-observed speaker/mic levels.
func (p *Peer) AudioLevels() AudioLevels {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.audioLevels
}

// Close tears down the peer connection and signaling socket. Idempotent.
func (p *Peer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.connected = false
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	var err error
	if p.pc != nil {
		err = p.pc.Close()
	}
	if p.signal != nil {
		_ = p.signal.Close()
	}
	return err
}

func (p *Peer) sendSignal(msg signalMessage) {
	if msg.SessionID == "" {
		msg.SessionID = p.sessionID
	}
	if p.signal == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		p.logger.Warnw("webrtc signal marshal failed", "error", err)
		return
	}
	if err := p.signal.WriteMessage(websocket.TextMessage, data); err != nil {
		p.logger.Warnw("webrtc signal write failed", "error", err)
	}
}

func (p *Peer) sendICECandidate(c webrtc.ICECandidateInit) {
	p.sendSignal(signalMessage{
		Type: msgLocalICECandidates,
		Data: iceCandidateData{
			Candidate:     c.Candidate,
			SDPMLineIndex: c.SDPMLineIndex,
			SDPMid:        c.SDPMid,
		},
	})
}
