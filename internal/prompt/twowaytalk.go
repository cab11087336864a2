package prompt

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/project-chip/certification-tool-cli/internal/protocol"
)

// handleTwoWayTalk is routed for both two_way_talk_verification and
// push_av_stream_verification; both answer like an options prompt. The
// WebRTC peer was already connected at session start (PrewarmWebRTC);
// this handler just surfaces its speaker/mic levels alongside the
// options prompt while waiting.
func (d *Dispatcher) handleTwoWayTalk(ctx context.Context, req *protocol.PromptRequest) (interface{}, protocol.UserResponseStatus, error) {
	d.printPrompt(req.Prompt)
	for label, value := range req.Options {
		fmt.Printf("  [%d] %s\n", value, label)
	}
	if d.peer == nil {
		fmt.Println("(two-way talk media is unavailable in this session)")
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	fmt.Print("> ")
	for {
		select {
		case <-ctx.Done():
			return nil, doneStatus(ctx), nil
		case <-d.stdin.done:
			return nil, protocol.StatusInvalid, nil
		case line := <-d.stdin.lines:
			value, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil || !optionValueAllowed(req.Options, value) {
				fmt.Println("invalid selection, try again")
				fmt.Print("> ")
				continue
			}
			return value, protocol.StatusOK, nil
		case <-ticker.C:
			if d.peer != nil {
				levels := d.peer.AudioLevels()
				fmt.Printf("  [audio] speaker=%d mic=%d\n", levels.Speaker, levels.Mic)
			}
		}
	}
}
