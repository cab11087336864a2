package prompt

import (
	"context"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/project-chip/certification-tool-cli/internal/logging"
	"github.com/project-chip/certification-tool-cli/internal/protocol"
)

type recordingSender struct {
	mu        sync.Mutex
	responses []protocol.PromptResponse
}

func (s *recordingSender) SendResponse(resp protocol.PromptResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, resp)
	return nil
}

func (s *recordingSender) all() []protocol.PromptResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.PromptResponse{}, s.responses...)
}

func newTestDispatcher(t *testing.T, input io.Reader, sender *recordingSender) *Dispatcher {
	t.Helper()
	logger, err := logging.New(logging.Options{})
	require.NoError(t, err)
	return &Dispatcher{
		deps: Dependencies{
			Logger:         logger,
			Sender:         sender,
			DefaultTimeout: time.Minute,
		},
		stdin: newLineReader(input),
	}
}

func TestHandleTwoOptionPromptsInOrder(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(t, strings.NewReader("1\n10\n"), sender)

	require.NoError(t, d.Handle(context.Background(), &protocol.PromptRequest{
		Kind:      protocol.PromptOptionsSelect,
		Prompt:    "Did the device pair?",
		MessageID: "m-1",
		Options:   map[string]int{"yes": 1, "no": 2},
	}))
	require.NoError(t, d.Handle(context.Background(), &protocol.PromptRequest{
		Kind:      protocol.PromptOptionsSelect,
		Prompt:    "Proceed?",
		MessageID: "m-2",
		Options:   map[string]int{"a": 10},
	}))

	responses := sender.all()
	require.Len(t, responses, 2)
	require.Equal(t, "m-1", responses[0].MessageID)
	require.Equal(t, protocol.StatusOK, responses[0].StatusCode)
	require.Equal(t, 1, responses[0].Response)
	require.Equal(t, "m-2", responses[1].MessageID)
	require.Equal(t, protocol.StatusOK, responses[1].StatusCode)
	require.Equal(t, 10, responses[1].Response)
}

func TestHandleTextPromptRetriesUntilRegexMatches(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(t, strings.NewReader("ab\n1234\n123\n"), sender)

	require.NoError(t, d.Handle(context.Background(), &protocol.PromptRequest{
		Kind:         protocol.PromptTextInput,
		Prompt:       "Enter the 3-digit code",
		MessageID:    "m-1",
		RegexPattern: `\d{3}`,
	}))

	responses := sender.all()
	require.Len(t, responses, 1)
	require.Equal(t, protocol.StatusOK, responses[0].StatusCode)
	require.Equal(t, "123", responses[0].Response)
}

func TestHandleOptionsPromptTimesOut(t *testing.T) {
	sender := &recordingSender{}
	blocked, _ := io.Pipe() // never written: the operator stays silent
	d := newTestDispatcher(t, blocked, sender)

	require.NoError(t, d.Handle(context.Background(), &protocol.PromptRequest{
		Kind:           protocol.PromptOptionsSelect,
		Prompt:         "Anyone there?",
		MessageID:      "m-1",
		TimeoutSeconds: 0.2,
		Options:        map[string]int{"yes": 1},
	}))

	responses := sender.all()
	require.Len(t, responses, 1)
	require.Equal(t, protocol.StatusTimeout, responses[0].StatusCode)
	require.Equal(t, "m-1", responses[0].MessageID)
}

func TestHandleOptionsPromptCancelledBySession(t *testing.T) {
	sender := &recordingSender{}
	blocked, _ := io.Pipe()
	d := newTestDispatcher(t, blocked, sender)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	require.NoError(t, d.Handle(ctx, &protocol.PromptRequest{
		Kind:      protocol.PromptOptionsSelect,
		Prompt:    "Interrupted?",
		MessageID: "m-1",
		Options:   map[string]int{"yes": 1},
	}))

	responses := sender.all()
	require.Len(t, responses, 1)
	require.Equal(t, protocol.StatusCancelled, responses[0].StatusCode)
}

func TestHandleUnknownKindSendsNothing(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(t, strings.NewReader(""), sender)

	err := d.Handle(context.Background(), &protocol.PromptRequest{
		Kind:      protocol.PromptKind("mystery"),
		MessageID: "m-1",
	})
	require.Error(t, err)
	require.Empty(t, sender.all())
}

func TestSaveImageRoundTripsHex(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(t, strings.NewReader(""), sender)
	d.deps.VideoOutDir = t.TempDir()

	original := "ffd8ffe000104a46494600"
	path, err := d.saveImage(&protocol.PromptRequest{MessageID: "m-7", ImageHex: original})
	require.NoError(t, err)
	require.Contains(t, filepath.Base(path), "m-7")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, original, hex.EncodeToString(data))
}

func TestStreamVerificationWithoutTranscoderAnswersInvalid(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(t, strings.NewReader(""), sender)
	d.deps.FFmpegPath = "definitely-missing-ffmpeg-binary"
	d.deps.VideoOutDir = t.TempDir()

	require.NoError(t, d.Handle(context.Background(), &protocol.PromptRequest{
		Kind:           protocol.PromptStreamVerify,
		Prompt:         "Verify the stream",
		MessageID:      "m-9",
		TimeoutSeconds: 5,
	}))

	responses := sender.all()
	require.Len(t, responses, 1)
	require.Equal(t, protocol.StatusInvalid, responses[0].StatusCode)
	require.Equal(t, "m-9", responses[0].MessageID)
	require.Nil(t, responses[0].Response)
}

func TestSaveImageRejectsBadHex(t *testing.T) {
	sender := &recordingSender{}
	d := newTestDispatcher(t, strings.NewReader(""), sender)
	d.deps.VideoOutDir = t.TempDir()

	_, err := d.saveImage(&protocol.PromptRequest{MessageID: "m-8", ImageHex: "zz"})
	require.Error(t, err)
}
