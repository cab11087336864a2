package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/project-chip/certification-tool-cli/internal/colorize"
	"github.com/project-chip/certification-tool-cli/internal/model"
	"github.com/project-chip/certification-tool-cli/internal/protocol"
)

// handleTestUpdate dispatches on TestUpdate.TestType, updates the run
// tree, renders the transition, and reports done=true once a run-level
// update reaches a terminal state other than "executing".
func (c *Controller) handleTestUpdate(raw json.RawMessage) (done bool, err error) {
	update, err := protocol.DecodeTestUpdate(raw)
	if err != nil {
		return false, err
	}

	switch update.TestType {
	case protocol.TestUpdateRun:
		c.applyRunUpdate(update)
		return update.State != string(model.StateExecuting) && model.State(update.State).Terminal(), nil
	case protocol.TestUpdateSuite:
		c.applySuiteUpdate(update)
	case protocol.TestUpdateCase:
		c.applyCaseUpdate(update)
	case protocol.TestUpdateStep:
		c.applyStepUpdate(update)
	default:
		c.logger.Warnw("unknown test_update test_type", "test_type", update.TestType)
	}
	return false, nil
}

func (c *Controller) applyRunUpdate(u *protocol.TestUpdate) {
	c.run.ExecutionID = u.TestRunExecutionID
	c.run.State = model.State(u.State)
	c.run.Errors = u.Errors
	c.run.Failures = u.Failures
	c.logger.Infow(colorize.HierarchyPrefix(colorize.HierarchyRun, fmt.Sprintf("test run %s", colorize.State(c.run.State))))
}

// suiteTitle, caseTitle and stepTitle fall back to a bracketed-index
// form when the frozen tree handed to New didn't carry a title for this
// node (e.g. tests that construct a Controller with a nil run).
func suiteTitle(s *model.Suite, index int) string {
	if s.Title != "" {
		return s.Title
	}
	return fmt.Sprintf("suite[%d]", index)
}

func caseTitle(c *model.Case, index int) string {
	if c.Title != "" {
		return c.Title
	}
	return fmt.Sprintf("case[%d]", index)
}

func stepTitle(s *model.Step, index int) string {
	if s.Title != "" {
		return s.Title
	}
	return fmt.Sprintf("step[%d]", index)
}

func (c *Controller) applySuiteUpdate(u *protocol.TestUpdate) {
	suite := c.run.Suite(u.TestSuiteExecutionIndex)
	suite.State = model.State(u.State)
	suite.Errors = u.Errors
	suite.Failures = u.Failures
	c.logger.Infow(colorize.HierarchyPrefix(colorize.HierarchySuite, fmt.Sprintf("%s %s", suiteTitle(suite, u.TestSuiteExecutionIndex), colorize.State(suite.State))))
}

func (c *Controller) applyCaseUpdate(u *protocol.TestUpdate) {
	key := model.StepKey{SuiteIndex: u.TestSuiteExecutionIndex, CaseIndex: u.TestCaseExecutionIndex}
	caseNode := c.run.Suite(u.TestSuiteExecutionIndex).Case(u.TestCaseExecutionIndex)
	caseNode.State = model.State(u.State)
	caseNode.Errors = u.Errors
	caseNode.Failures = u.Failures

	c.logger.Infow(colorize.HierarchyPrefix(colorize.HierarchyCase, fmt.Sprintf("%s %s", caseTitle(caseNode, u.TestCaseExecutionIndex), colorize.State(caseNode.State))))

	if state := model.State(u.State); state.Terminal() {
		combined := c.takeStepErrors(key, caseNode.Errors)
		if state == model.StateFailed || state == model.StateError {
			c.warnIfBrowserOnly(key, caseNode.PublicID, combined)
		}
	}
}

func (c *Controller) applyStepUpdate(u *protocol.TestUpdate) {
	key := model.StepKey{SuiteIndex: u.TestSuiteExecutionIndex, CaseIndex: u.TestCaseExecutionIndex}
	stepNode := c.run.Suite(u.TestSuiteExecutionIndex).Case(u.TestCaseExecutionIndex).Step(u.TestStepExecutionIndex)
	stepNode.State = model.State(u.State)
	stepNode.Errors = u.Errors
	stepNode.Failures = u.Failures

	c.logger.Infow(colorize.HierarchyPrefix(colorize.HierarchyStep, fmt.Sprintf("%s %s", stepTitle(stepNode, u.TestStepExecutionIndex), colorize.State(stepNode.State))))

	if len(u.Errors) > 0 {
		c.mu.Lock()
		c.stepErrors[key] = append(c.stepErrors[key], u.Errors...)
		c.mu.Unlock()
	}
}

// takeStepErrors collects this case's tracked step errors plus its own
// case-level errors and deletes the tracked entry, so the buffer never
// outlives the case whatever terminal state it reached.
func (c *Controller) takeStepErrors(key model.StepKey, caseErrors []string) []string {
	c.mu.Lock()
	combined := append(append([]string{}, c.stepErrors[key]...), caseErrors...)
	delete(c.stepErrors, key)
	c.mu.Unlock()
	return combined
}

// warnIfBrowserOnly checks the browser-only heuristic against the
// case's public id (set once from the frozen tree at session start) and
// its accumulated error text. Only called for a case that finished in
// failed or error — a passing browser-only case needs no warning.
func (c *Controller) warnIfBrowserOnly(key model.StepKey, publicID string, errorTexts []string) {
	if c.isBrowserOnlyFailure(publicID, errorTexts) {
		c.logger.Warnw("⚠️  TWO-WAY TALK TEST NOT SUPPORTED IN CLI", "case", key.String(), "details", strings.Join(errorTexts, "; "))
	}
}

func (c *Controller) isBrowserOnlyFailure(publicID string, errorTexts []string) bool {
	for _, known := range c.BrowserOnlyPublicIDs {
		if publicID == known {
			return true
		}
	}

	joined := strings.ToLower(strings.Join(errorTexts, " "))
	for _, indicator := range c.BrowserOnlyIndicators {
		if strings.Contains(joined, indicator) {
			return true
		}
	}
	return false
}
