package session

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/project-chip/certification-tool-cli/internal/logging"
	"github.com/project-chip/certification-tool-cli/internal/model"
)

// captureLogger records warning messages so tests can assert on what
// the controller actually emitted.
type captureLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *captureLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (l *captureLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *captureLogger) Errorw(msg string, keysAndValues ...interface{}) {}
func (l *captureLogger) Sync() error                                     { return nil }

func (l *captureLogger) Warnw(msg string, keysAndValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *captureLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.warns...)
}

func containsBrowserOnlyWarning(warns []string) bool {
	for _, w := range warns {
		if strings.Contains(w, "TWO-WAY TALK TEST NOT SUPPORTED IN CLI") {
			return true
		}
	}
	return false
}

func newTestController(t *testing.T) *Controller {
	t.Helper()
	logger, err := logging.New(logging.Options{})
	require.NoError(t, err)
	return New(logger, nil, nil)
}

func newTestControllerWithRun(t *testing.T, run *model.Run) *Controller {
	t.Helper()
	logger, err := logging.New(logging.Options{})
	require.NoError(t, err)
	return New(logger, nil, run)
}

func TestHandleTestUpdateRunTerminalClosesSocket(t *testing.T) {
	c := newTestController(t)

	raw := json.RawMessage(`{"test_type":"test_run","state":"passed","test_run_execution_id":"r-1"}`)
	done, err := c.handleTestUpdate(raw)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, model.StatePassed, c.run.State)
}

func TestHandleTestUpdateRunExecutingDoesNotClose(t *testing.T) {
	c := newTestController(t)

	raw := json.RawMessage(`{"test_type":"test_run","state":"executing"}`)
	done, err := c.handleTestUpdate(raw)
	require.NoError(t, err)
	require.False(t, done)
}

func TestStepErrorsFlushOnCaseTerminal(t *testing.T) {
	c := newTestController(t)
	key := model.StepKey{SuiteIndex: 0, CaseIndex: 0}

	stepRaw := json.RawMessage(`{"test_type":"test_step","state":"failed","errors":["webrtc negotiation failed"],"test_suite_execution_index":0,"test_case_execution_index":0,"test_step_execution_index":0}`)
	_, err := c.handleTestUpdate(stepRaw)
	require.NoError(t, err)

	require.Len(t, c.stepErrors[key], 1)

	caseRaw := json.RawMessage(`{"test_type":"test_case","state":"failed","test_suite_execution_index":0,"test_case_execution_index":0}`)
	_, err = c.handleTestUpdate(caseRaw)
	require.NoError(t, err)

	_, stillTracked := c.stepErrors[key]
	require.False(t, stillTracked, "step errors must be flushed once the case reaches a terminal state")
}

func browserOnlyRun() *model.Run {
	return &model.Run{
		Suites: []*model.Suite{
			{Title: "Suite 1", Cases: []*model.Case{
				{Title: "Case 1", PublicID: "TC_WEBRTC_1_6"},
			}},
		},
	}
}

func TestBrowserOnlyCaseFailureWarnsExactlyOnce(t *testing.T) {
	logger := &captureLogger{}
	c := New(logger, nil, browserOnlyRun())

	caseRaw := json.RawMessage(`{"test_type":"test_case","state":"failed","test_suite_execution_index":0,"test_case_execution_index":0}`)
	_, err := c.handleTestUpdate(caseRaw)
	require.NoError(t, err)

	count := 0
	for _, w := range logger.warnings() {
		if strings.Contains(w, "TWO-WAY TALK TEST NOT SUPPORTED IN CLI") {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestBrowserOnlyCasePassingDoesNotWarn(t *testing.T) {
	logger := &captureLogger{}
	c := New(logger, nil, browserOnlyRun())

	caseRaw := json.RawMessage(`{"test_type":"test_case","state":"passed","test_suite_execution_index":0,"test_case_execution_index":0}`)
	_, err := c.handleTestUpdate(caseRaw)
	require.NoError(t, err)
	require.False(t, containsBrowserOnlyWarning(logger.warnings()))
}

func TestStepErrorsStillClearedWhenCasePasses(t *testing.T) {
	logger := &captureLogger{}
	c := New(logger, nil, nil)
	key := model.StepKey{SuiteIndex: 0, CaseIndex: 0}

	stepRaw := json.RawMessage(`{"test_type":"test_step","state":"failed","errors":["transient retry"],"test_suite_execution_index":0,"test_case_execution_index":0,"test_step_execution_index":0}`)
	_, err := c.handleTestUpdate(stepRaw)
	require.NoError(t, err)
	require.Len(t, c.stepErrors[key], 1)

	caseRaw := json.RawMessage(`{"test_type":"test_case","state":"passed","test_suite_execution_index":0,"test_case_execution_index":0}`)
	_, err = c.handleTestUpdate(caseRaw)
	require.NoError(t, err)

	_, stillTracked := c.stepErrors[key]
	require.False(t, stillTracked, "buffered step errors must be cleared on any terminal case state")
	require.False(t, containsBrowserOnlyWarning(logger.warnings()))
}

func TestIsBrowserOnlyFailureByPublicID(t *testing.T) {
	c := newTestController(t)
	require.True(t, c.isBrowserOnlyFailure("TC_WEBRTC_1_6", []string{"unrelated text"}))
}

func TestIsBrowserOnlyFailureByIndicator(t *testing.T) {
	c := newTestController(t)
	require.True(t, c.isBrowserOnlyFailure("", []string{"could not reach ws://backend/api/v1/ws/webrtc"}))
	require.False(t, c.isBrowserOnlyFailure("", []string{"unrelated timeout"}))
}
