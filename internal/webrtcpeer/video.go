package webrtcpeer

import "github.com/pion/webrtc/v4"

// observeVideoTrack reads the remote video track for telemetry only —
// no decode or re-streaming.
func (p *Peer) observeVideoTrack(track *webrtc.TrackRemote) {
	count := 0
	for {
		packet, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		count++
		if count%300 == 0 { // throttle: log roughly once every ~10s at 30fps
			p.logger.Debugw("webrtc video track active", "session", p.sessionID, "packets", count, "seq", packet.SequenceNumber)
		}
	}
}
