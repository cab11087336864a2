package video

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestChunkQueuePushPop(t *testing.T) {
	q := newChunkQueue(2)
	require.True(t, q.Push([]byte("a")))
	require.True(t, q.Push([]byte("b")))
	require.False(t, q.Push([]byte("c")), "third push should drop: queue at capacity")

	chunk, eof, err := q.Pop(time.Second)
	require.NoError(t, err)
	require.False(t, eof)
	require.Equal(t, []byte("a"), chunk)
}

func TestChunkQueuePopTimeout(t *testing.T) {
	q := newChunkQueue(1)
	_, _, err := q.Pop(10 * time.Millisecond)
	require.ErrorIs(t, err, ErrPopTimeout)
}

func TestChunkQueueCloseStreamSentinel(t *testing.T) {
	q := newChunkQueue(1)
	require.True(t, q.Push([]byte("a")))
	q.CloseStream()

	chunk, eof, err := q.Pop(time.Second)
	require.NoError(t, err)
	require.False(t, eof)
	require.Equal(t, []byte("a"), chunk)

	_, eof, err = q.Pop(time.Second)
	require.NoError(t, err)
	require.True(t, eof)
}

func TestFFmpegArgsMatchFragmentedMP4Recipe(t *testing.T) {
	args := ffmpegArgs()
	require.Contains(t, args, "libx264")
	require.Contains(t, args, "frag_keyframe+empty_moov+default_base_moof")
	require.Contains(t, args, "baseline")
}
