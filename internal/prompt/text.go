package prompt

import (
	"context"
	"fmt"
	"regexp"

	"github.com/project-chip/certification-tool-cli/internal/colorize"
	"github.com/project-chip/certification-tool-cli/internal/protocol"
)

// handleTextInput validates free-text input against req.RegexPattern,
// anchored so the entire input must match, not merely a prefix.
func (d *Dispatcher) handleTextInput(ctx context.Context, req *protocol.PromptRequest) (interface{}, protocol.UserResponseStatus, error) {
	d.printPrompt(req.Prompt)
	if req.PlaceholderText != "" {
		fmt.Printf("  (%s)\n", req.PlaceholderText)
	}

	var pattern *regexp.Regexp
	if req.RegexPattern != "" {
		compiled, err := regexp.Compile("^(?:" + req.RegexPattern + ")$")
		if err != nil {
			return nil, protocol.StatusInvalid, fmt.Errorf("prompt: invalid regex_pattern: %w", err)
		}
		pattern = compiled
	}

	fmt.Print("> ")
	for {
		select {
		case <-ctx.Done():
			return nil, doneStatus(ctx), nil
		case <-d.stdin.done:
			return nil, protocol.StatusInvalid, nil
		case line := <-d.stdin.lines:
			if line == "" && req.DefaultValue != "" {
				line = req.DefaultValue
			}
			if pattern != nil && !pattern.MatchString(line) {
				fmt.Println(colorize.LogError("input does not match the required pattern, try again"))
				fmt.Print("> ")
				continue
			}
			return line, protocol.StatusOK, nil
		}
	}
}
