package webrtcpeer

import (
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"
	"github.com/pion/webrtc/v4"
)

// handleSignalingMessages is the main signaling read loop.
// CLOSE_PEER_CONNECTION does not break the loop — signaling stays alive
// for a subsequent renegotiation attempt by the controller.
func (p *Peer) handleSignalingMessages() {
	for {
		_, data, err := p.signal.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				p.logger.Warnw("webrtc signaling read failed", "error", err)
			}
			return
		}

		var msg signalMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			p.logger.Warnw("webrtc signaling decode failed", "error", err)
			continue
		}

		switch msg.Type {
		case msgCreatePeerConnection:
			p.handleCreatePeerConnection(msg)
		case msgCreateOffer:
			p.handleCreateOfferRequest(msg)
		case msgSetRemoteOffer:
			p.handleSetRemoteOffer(msg)
		case msgSetRemoteAnswer:
			p.handleSetRemoteAnswer(msg)
		case msgSetRemoteICECandidates:
			p.handleSetRemoteICECandidates(msg)
		case msgPeerConnectionState:
			p.logger.Infow("peer connection state notice from controller", "data", msg.Data)
		case msgClosePeerConnection:
			p.logger.Infow("controller requested peer connection close", "session", p.sessionID)
		default:
			p.logger.Warnw("unknown webrtc signaling message type", "type", msg.Type)
		}
	}
}

func (p *Peer) handleCreatePeerConnection(msg signalMessage) {
	sessionID := p.sessionID
	if s, ok := msg.Data.(string); ok && s != "" {
		sessionID = s
	} else if msg.SessionID != "" {
		sessionID = msg.SessionID
	}
	p.sessionID = sessionID

	p.sendSignal(signalMessage{
		Type:      msgCreatePeerConnection,
		SessionID: sessionID,
		Data:      nil,
		Error:     nil,
		EventID:   msg.EventID,
		MessageID: msg.MessageID,
	})
}

// handleCreateOfferRequest handles the controller asking this peer to
// originate an offer — the inverse direction of SET_REMOTE_OFFER, where
// the controller already produced one.
func (p *Peer) handleCreateOfferRequest(msg signalMessage) {
	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		p.logger.Warnw("webrtc create offer failed", "error", err)
		return
	}
	if err := p.pc.SetLocalDescription(offer); err != nil {
		p.logger.Warnw("webrtc set local description (offer) failed", "error", err)
		return
	}
	p.sendSignal(signalMessage{Type: msgCreateOffer, Data: offer.SDP})
}

func (p *Peer) handleSetRemoteOffer(msg signalMessage) {
	sdp, ok := msg.Data.(string)
	if !ok {
		p.logger.Warnw("webrtc SET_REMOTE_OFFER missing sdp string")
		return
	}
	if err := p.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  sdp,
	}); err != nil {
		p.logger.Warnw("webrtc set remote offer failed", "error", err)
		return
	}

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		p.logger.Warnw("webrtc create answer failed", "error", err)
		return
	}
	if err := p.pc.SetLocalDescription(answer); err != nil {
		p.logger.Warnw("webrtc set local description (answer) failed", "error", err)
		return
	}
	p.sendSignal(signalMessage{Type: msgCreateAnswer, Data: answer.SDP})
}

func (p *Peer) handleSetRemoteAnswer(msg signalMessage) {
	sdp, ok := msg.Data.(string)
	if !ok {
		p.logger.Warnw("webrtc SET_REMOTE_ANSWER missing sdp string")
		return
	}
	if err := p.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	}); err != nil {
		p.logger.Warnw("webrtc set remote answer failed", "error", err)
	}
}

// normalizeICECandidateData accepts either a single candidate object or
// an array and returns a flat slice regardless of which shape the
// controller sent.
func normalizeICECandidateData(data interface{}) []interface{} {
	switch v := data.(type) {
	case []interface{}:
		return v
	case map[string]interface{}:
		return []interface{}{v}
	default:
		return nil
	}
}

func (p *Peer) handleSetRemoteICECandidates(msg signalMessage) {
	raw := normalizeICECandidateData(msg.Data)
	if raw == nil {
		p.logger.Warnw("webrtc SET_REMOTE_ICE_CANDIDATES unexpected data shape")
		return
	}

	for _, item := range raw {
		var cand iceCandidateData
		if err := mapstructure.Decode(item, &cand); err != nil {
			p.logger.Warnw("webrtc ice candidate decode failed", "error", err)
			continue
		}
		init := webrtc.ICECandidateInit{Candidate: cand.Candidate}
		if cand.SDPMLineIndex != nil {
			init.SDPMLineIndex = cand.SDPMLineIndex
		}
		if cand.SDPMid != nil {
			init.SDPMid = cand.SDPMid
		}
		if err := p.pc.AddICECandidate(init); err != nil {
			p.logger.Warnw("webrtc add ice candidate failed", "error", err)
		}
	}
}
