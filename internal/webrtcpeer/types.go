package webrtcpeer

import "time"

// Opus parameters the remote audio transceiver is negotiated with.
const (
	OpusSampleRate  = 48000
	OpusChannels    = 2
	OpusPayloadType = 111
	OpusSDPFmtpLine = "minptime=10;useinbandfec=1;stereo=0;sprop-stereo=0"
)

// signalingDialTimeout bounds the initial WebSocket dial to the peer
// signaling endpoint.
const signalingDialTimeout = 10 * time.Second

// ICEServer is one STUN/TURN server entry.
type ICEServer struct {
	URLs []string
}

// Config configures a Peer.
type Config struct {
	// Hostname the signaling WebSocket dials, matching
	// ws://{hostname}/api/v1/ws/webrtc/peer.
	Hostname string

	// ICEServers defaults to the two public Google STUN servers when
	// left empty.
	ICEServers []ICEServer
}

// DefaultICEServers returns the STUN servers used when Config.ICEServers
// is left empty.
func DefaultICEServers() []ICEServer {
	return []ICEServer{
		{URLs: []string{"stun:stun.l.google.com:19302"}},
		{URLs: []string{"stun:stun1.l.google.com:19302"}},
	}
}

// AudioLevels is the speaker/mic level pair surfaced to the operator
// while a two-way-talk prompt is pending.
type AudioLevels struct {
	Speaker int // 0-100, derived from the remote (far-end) audio track's RMS
	Mic     int // always 0: this peer is recvonly, it never sends local audio
}

// signalMessage is the wire shape exchanged over the signaling
// WebSocket.
type signalMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	Data      interface{} `json:"data"`
	Error     interface{} `json:"error"`
	EventID   string      `json:"event_id,omitempty"`
	MessageID string      `json:"message_id,omitempty"`
}

// iceCandidateData is the shape carried in a LOCAL_ICE_CANDIDATES /
// SET_REMOTE_ICE_CANDIDATES data field.
type iceCandidateData struct {
	Candidate     string  `json:"candidate"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex"`
	SDPMid        *string `json:"sdpMid"`
}

// Signaling message type discriminators.
const (
	msgCreatePeerConnection   = "CREATE_PEER_CONNECTION"
	msgCreateOffer            = "CREATE_OFFER"
	msgCreateAnswer           = "CREATE_ANSWER"
	msgSetRemoteOffer         = "SET_REMOTE_OFFER"
	msgSetRemoteAnswer        = "SET_REMOTE_ANSWER"
	msgSetRemoteICECandidates = "SET_REMOTE_ICE_CANDIDATES"
	msgLocalICECandidates     = "LOCAL_ICE_CANDIDATES"
	msgPeerConnectionState    = "PEER_CONNECTION_STATE"
	msgClosePeerConnection    = "CLOSE_PEER_CONNECTION"
)
