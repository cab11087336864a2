package prompt

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/project-chip/certification-tool-cli/internal/colorize"
	"github.com/project-chip/certification-tool-cli/internal/protocol"
)

// handleOptionsSelect re-prompts on invalid input (non-integer, or an
// integer not among the option values) until a valid answer arrives or
// the context times out.
func (d *Dispatcher) handleOptionsSelect(ctx context.Context, req *protocol.PromptRequest) (interface{}, protocol.UserResponseStatus, error) {
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
				fmt.Println(colorize.LogError("invalid selection, try again"))
				fmt.Print("> ")
				continue
			}
			return value, protocol.StatusOK, nil
		}
	}
}

func optionValueAllowed(options map[string]int, value int) bool {
	for _, v := range options {
		if v == value {
			return true
		}
	}
	return false
}
