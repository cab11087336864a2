package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeTestUpdateFlatShape(t *testing.T) {
	raw := json.RawMessage(`{
		"test_type": "test_case",
		"state": "failed",
		"errors": ["boom"],
		"test_suite_execution_index": 1,
		"test_case_execution_index": 2
	}`)

	update, err := DecodeTestUpdate(raw)
	require.NoError(t, err)
	require.Equal(t, TestUpdateCase, update.TestType)
	require.Equal(t, "failed", update.State)
	require.Equal(t, []string{"boom"}, update.Errors)
	require.Equal(t, 1, update.TestSuiteExecutionIndex)
	require.Equal(t, 2, update.TestCaseExecutionIndex)
}

func TestDecodePromptRequestOptionsSelect(t *testing.T) {
	raw := json.RawMessage(`{
		"kind": "options_select",
		"prompt": "Pick one",
		"timeout": 30,
		"message_id": "m-1",
		"options": {"yes": 1, "no": 2}
	}`)

	req, err := DecodePromptRequest(raw)
	require.NoError(t, err)
	require.Equal(t, PromptOptionsSelect, req.Kind)
	require.Equal(t, 30.0, req.TimeoutSeconds)
	require.Equal(t, map[string]int{"yes": 1, "no": 2}, req.Options)
}

func TestPromptResponseEnvelope(t *testing.T) {
	resp := PromptResponse{Response: 1, StatusCode: StatusOK, MessageID: "m-1"}
	env := resp.Envelope()
	require.Equal(t, TypePromptResponse, env["type"])
	require.Equal(t, resp, env["payload"])
}

func TestDecodeLogRecords(t *testing.T) {
	raw := json.RawMessage(`[{"level":"info","message":"hello"}]`)
	records, err := DecodeLogRecords(raw)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "hello", records[0].Message)
}

func TestDecodeTestUpdateMalformed(t *testing.T) {
	_, err := DecodeTestUpdate(json.RawMessage(`not json`))
	require.Error(t, err)
}
