// Package colorize renders test states, hierarchy prefixes and log
// lines with their semantic colors, gated by an environment switch.
package colorize

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/project-chip/certification-tool-cli/internal/model"
)

var (
	enabledOnce sync.Once
	enabled     = true
)

// EnvNoColorVar is the environment variable that disables colorized
// output when set to a recognized truthy value.
const EnvNoColorVar = "TH_CLI_NO_COLOR"

func initEnabled() {
	enabledOnce.Do(func() {
		v := strings.ToLower(os.Getenv(EnvNoColorVar))
		if v == "1" || v == "true" || v == "yes" {
			enabled = false
		}
	})
}

// SetEnabled overrides the color switch programmatically (e.g. from the
// --no-color flag or AppConfig.NoColor), taking precedence over the env
// var once called.
func SetEnabled(v bool) {
	enabledOnce.Do(func() {})
	enabled = v
	color.NoColor = !v
}

var stateColors = map[model.State]*color.Color{
	model.StatePassed:           color.New(color.FgGreen),
	model.StateFailed:           color.New(color.FgRed),
	model.StateError:            color.New(color.FgRed),
	model.StateCancelled:        color.New(color.FgHiRed),
	model.StateExecuting:        color.New(color.FgYellow),
	model.StatePending:          color.New(color.FgHiWhite),
	model.StatePendingActuation: color.New(color.FgHiWhite),
	model.StateNotApplicable:    color.New(color.FgHiBlack),
}

// RunnerState mirrors the distinct runner-lifecycle states (separate from
// test states) that also get a "RUNNING" blink treatment.
type RunnerState string

const (
	RunnerRunning  RunnerState = "RUNNING"
	RunnerStarting RunnerState = "STARTING"
	RunnerStopped  RunnerState = "STOPPED"
)

var runnerStateColors = map[RunnerState]*color.Color{
	RunnerRunning:  color.New(color.FgYellow, color.BlinkSlow),
	RunnerStarting: color.New(color.FgHiWhite),
	RunnerStopped:  color.New(color.FgHiBlack),
}

// HierarchyLevel is the depth of a node in the run/suite/case/step tree.
type HierarchyLevel int

const (
	HierarchyRun HierarchyLevel = iota
	HierarchySuite
	HierarchyCase
	HierarchyStep
)

var hierarchyColors = map[HierarchyLevel]*color.Color{
	HierarchyRun:   color.New(color.FgBlue),
	HierarchySuite: color.New(color.FgMagenta),
	HierarchyCase:  color.New(color.FgCyan),
	HierarchyStep:  color.New(color.FgHiBlack),
}

var hierarchyPrefixes = map[HierarchyLevel]string{
	HierarchyRun:   "",
	HierarchySuite: "  - ",
	HierarchyCase:  "      - ",
	HierarchyStep:  "            - ",
}

// State renders a test state as a bracketed, uppercased, colored tag,
// e.g. "[PASSED]".
func State(s model.State) string {
	initEnabled()
	text := fmt.Sprintf("[%s]", strings.ToUpper(string(s)))
	c, ok := stateColors[s]
	if !ok || !enabled {
		return text
	}
	return c.Sprint(text)
}

// Runner colors and returns a runner-lifecycle state for display.
func Runner(s RunnerState) string {
	initEnabled()
	c, ok := runnerStateColors[s]
	if !ok || !enabled {
		return string(s)
	}
	return c.Sprint(string(s))
}

// HierarchyPrefix renders text at the given hierarchy depth with its
// indentation and color.
func HierarchyPrefix(level HierarchyLevel, text string) string {
	initEnabled()
	prefix := hierarchyPrefixes[level]
	if !enabled {
		return prefix + text
	}
	c, ok := hierarchyColors[level]
	if !ok {
		return prefix + text
	}
	return prefix + c.Sprint(text)
}

var (
	logHeaderColor  = color.New(color.FgHiWhite, color.Bold)
	logKeyColor     = color.New(color.FgCyan)
	logValueColor   = color.New(color.FgWhite)
	logDumpColor    = color.New(color.FgHiBlack)
	logSuccessColor = color.New(color.FgGreen)
	logErrorColor   = color.New(color.FgRed)
)

// LogHeader renders a section header line.
func LogHeader(msg string) string {
	initEnabled()
	if !enabled {
		return msg
	}
	return logHeaderColor.Sprint(msg)
}

// LogKeyValue renders a "key: value" pair.
func LogKeyValue(key string, value interface{}) string {
	initEnabled()
	if !enabled {
		return fmt.Sprintf("%s: %v", key, value)
	}
	return fmt.Sprintf("%s: %s", logKeyColor.Sprint(key), logValueColor.Sprintf("%v", value))
}

// LogDump renders a verbatim dump block (e.g. raw error text).
func LogDump(text string) string {
	initEnabled()
	if !enabled {
		return text
	}
	return logDumpColor.Sprint(text)
}

// LogSuccess renders a success line.
func LogSuccess(msg string) string {
	initEnabled()
	if !enabled {
		return msg
	}
	return logSuccessColor.Sprint(msg)
}

// LogError renders an error line.
func LogError(msg string) string {
	initEnabled()
	if !enabled {
		return msg
	}
	return logErrorColor.Sprint(msg)
}

// Italic renders text in italics where the terminal supports it.
func Italic(msg string) string {
	initEnabled()
	if !enabled {
		return msg
	}
	return color.New(color.Italic).Sprint(msg)
}
