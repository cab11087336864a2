// Package protocol models the event-stream wire envelope and the
// polymorphic update/prompt payloads carried inside it.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/project-chip/certification-tool-cli/internal/apperrors"
)

// UserResponseStatus mirrors the status_code values a prompt response may
// carry.
type UserResponseStatus int

const (
	StatusOK        UserResponseStatus = 0
	StatusCancelled UserResponseStatus = -1
	StatusTimeout   UserResponseStatus = -2
	StatusInvalid   UserResponseStatus = -3
)

// SocketMessage is the outer envelope for every inbound event-stream
// message: {"type": "...", "payload": {...}}.
type SocketMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Known message type discriminators.
const (
	TypeTestUpdate      = "test_update"
	TypePromptRequest   = "prompt_request"
	TypeLogRecord       = "log_record"
	TypeTimeoutNotice   = "timeout_notification"
	TypePromptResponse  = "prompt_response"
)

// TestUpdateKind discriminates the nested test_update body.
type TestUpdateKind string

const (
	TestUpdateRun   TestUpdateKind = "test_run"
	TestUpdateSuite TestUpdateKind = "test_suite"
	TestUpdateCase  TestUpdateKind = "test_case"
	TestUpdateStep  TestUpdateKind = "test_step"
)

// TestUpdate is the decoded body of a test_update message.
type TestUpdate struct {
	TestType                  TestUpdateKind `mapstructure:"test_type"`
	State                     string         `mapstructure:"state"`
	Errors                    []string       `mapstructure:"errors"`
	Failures                  []string       `mapstructure:"failures"`
	TestRunExecutionID        string         `mapstructure:"test_run_execution_id"`
	TestSuiteExecutionIndex   int            `mapstructure:"test_suite_execution_index"`
	TestCaseExecutionIndex    int            `mapstructure:"test_case_execution_index"`
	TestStepExecutionIndex    int            `mapstructure:"test_step_execution_index"`
}

// testUpdateEnvelope is the raw shape of a test_update payload: a
// discriminator plus an arbitrary body decoded via mapstructure in a
// second pass.
type testUpdateEnvelope struct {
	TestType TestUpdateKind         `json:"test_type"`
	Body     map[string]interface{} `json:"body"`
}

// DecodeTestUpdate decodes a test_update payload into a TestUpdate.
func DecodeTestUpdate(raw json.RawMessage) (*TestUpdate, error) {
	var env testUpdateEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProtocolDecode, err)
	}
	body := env.Body
	if body == nil {
		// Flat shape: the discriminator lives alongside the fields.
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrProtocolDecode, err)
		}
	}
	var update TestUpdate
	if err := mapstructure.Decode(body, &update); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProtocolDecode, err)
	}
	update.TestType = env.TestType
	return &update, nil
}

// PromptKind discriminates the nested prompt_request body.
type PromptKind string

const (
	PromptOptionsSelect    PromptKind = "options_select"
	PromptTextInput        PromptKind = "text_input"
	PromptFileUpload       PromptKind = "file_upload"
	PromptImageVerify      PromptKind = "image_verification"
	PromptStreamVerify     PromptKind = "stream_verification"
	PromptTwoWayTalk       PromptKind = "two_way_talk_verification"
	PromptPushAVStream     PromptKind = "push_av_stream_verification"
)

// PromptRequest is the decoded body of a prompt_request message, a
// superset covering every prompt kind's optional fields.
type PromptRequest struct {
	Kind            PromptKind        `mapstructure:"kind"`
	Prompt          string            `mapstructure:"prompt"`
	TimeoutSeconds  float64           `mapstructure:"timeout"`
	MessageID       string            `mapstructure:"message_id"`
	Options         map[string]int    `mapstructure:"options"`
	PlaceholderText string            `mapstructure:"placeholder_text"`
	DefaultValue    string            `mapstructure:"default_value"`
	RegexPattern    string            `mapstructure:"regex_pattern"`
	ImageHex        string            `mapstructure:"image_data"`
}

// DecodePromptRequest decodes a prompt_request payload.
func DecodePromptRequest(raw json.RawMessage) (*PromptRequest, error) {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProtocolDecode, err)
	}
	var req PromptRequest
	if err := mapstructure.Decode(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProtocolDecode, err)
	}
	return &req, nil
}

// PromptResponse is the outbound payload sent back for a prompt.
type PromptResponse struct {
	Response   interface{}        `json:"response"`
	StatusCode UserResponseStatus `json:"status_code"`
	MessageID  string             `json:"message_id"`
}

// Envelope wraps a PromptResponse in the outbound SocketMessage shape.
func (r PromptResponse) Envelope() map[string]interface{} {
	return map[string]interface{}{
		"type":    TypePromptResponse,
		"payload": r,
	}
}

// LogRecord is a single inbound log line forwarded from the harness.
type LogRecord struct {
	Level                string `mapstructure:"level"`
	Timestamp            string `mapstructure:"timestamp"`
	Message              string `mapstructure:"message"`
	TestSuiteExecutionID string `mapstructure:"test_suite_execution_id"`
	TestCaseExecutionID  string `mapstructure:"test_case_execution_id"`
}

// DecodeLogRecords decodes a log_record payload, which carries a list of
// records.
func DecodeLogRecords(raw json.RawMessage) ([]LogRecord, error) {
	var rows []map[string]interface{}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProtocolDecode, err)
	}
	records := make([]LogRecord, 0, len(rows))
	for _, row := range rows {
		var rec LogRecord
		if err := mapstructure.Decode(row, &rec); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrProtocolDecode, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
