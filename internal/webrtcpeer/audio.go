package webrtcpeer

import (
	"math"

	"github.com/pion/webrtc/v4"
	"gopkg.in/hraban/opus.v2"
)

// analyzeAudioTrack decodes the remote Opus track and meters its level
// via RMS: level = min(100, int(rms * 200)). No re-encoding or playback
// happens; the level is purely telemetry for the operator prompt.
func (p *Peer) analyzeAudioTrack(track *webrtc.TrackRemote) {
	decoder, err := opus.NewDecoder(OpusSampleRate, OpusChannels)
	if err != nil {
		p.logger.Warnw("webrtc opus decoder init failed", "error", err)
		return
	}

	pcm := make([]int16, OpusSampleRate*OpusChannels) // generous upper bound per frame
	for {
		packet, _, err := track.ReadRTP()
		if err != nil {
			return
		}

		n, err := decoder.Decode(packet.Payload, pcm)
		if err != nil {
			continue
		}
		level := rmsLevel(pcm[:n*OpusChannels])

		p.mu.Lock()
		p.audioLevels.Speaker = level
		p.mu.Unlock()
	}
}

// rmsLevel computes min(100, int(rms*200)) over int16 PCM samples,
// normalized to [-1, 1) before squaring.
func rmsLevel(samples []int16) int {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sumSquares += v * v
	}
	rms := math.Sqrt(sumSquares / float64(len(samples)))
	level := int(rms * 200)
	if level > 100 {
		level = 100
	}
	if level < 0 {
		level = 0
	}
	return level
}
