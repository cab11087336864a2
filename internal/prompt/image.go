package prompt

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/project-chip/certification-tool-cli/internal/protocol"
)

// handleImageVerification decodes the hex-encoded image payload,
// persists it with a deterministic filename, then waits for the
// operator to pick one of the presented options.
func (d *Dispatcher) handleImageVerification(ctx context.Context, req *protocol.PromptRequest) (interface{}, protocol.UserResponseStatus, error) {
	path, err := d.saveImage(req)
	if err != nil {
		d.deps.Logger.Warnw("image verification save failed", "error", err)
	} else {
		fmt.Printf("image saved to: %s\n", path)
	}

	d.printPrompt(req.Prompt)
	for label, value := range req.Options {
		fmt.Printf("  [%d] %s\n", value, label)
	}

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
		}
	}
}

func (d *Dispatcher) saveImage(req *protocol.PromptRequest) (string, error) {
	data, err := hex.DecodeString(req.ImageHex)
	if err != nil {
		return "", fmt.Errorf("prompt: decoding image hex: %w", err)
	}
	if err := os.MkdirAll(d.deps.VideoOutDir, 0o755); err != nil {
		return "", fmt.Errorf("prompt: creating image output dir: %w", err)
	}
	filename := fmt.Sprintf("image_verification_%s.jpg", req.MessageID)
	path := filepath.Join(d.deps.VideoOutDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("prompt: writing image file: %w", err)
	}
	return path, nil
}
