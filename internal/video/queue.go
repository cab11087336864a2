package video

import (
	"errors"
	"sync"
	"time"
)

// ErrPopTimeout is returned by Pop when no chunk arrived before timeout
// elapsed; callers should retry rather than treat it as end of stream.
var ErrPopTimeout = errors.New("video: pop timed out")

// chunkQueue is a bounded fan-out queue for transcoded MP4 fragments.
// Push never blocks: once full, the newest chunk is simply dropped so
// the ingest path can't stall. End of stream is signalled on a separate
// closed channel, so it is never lost to a full buffer.
type chunkQueue struct {
	ch        chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newChunkQueue(capacity int) *chunkQueue {
	return &chunkQueue{ch: make(chan []byte, capacity), closed: make(chan struct{})}
}

// Push attempts a non-blocking send, reporting whether the chunk was
// enqueued.
func (q *chunkQueue) Push(chunk []byte) bool {
	select {
	case q.ch <- chunk:
		return true
	default:
		return false
	}
}

// Pop waits up to timeout for the next chunk. Chunks still buffered are
// returned before end of stream is reported; eof=true marks end of
// stream and callers should stop looping. ErrPopTimeout means the wait
// simply elapsed with nothing pending — keep polling.
func (q *chunkQueue) Pop(timeout time.Duration) (chunk []byte, eof bool, err error) {
	select {
	case c := <-q.ch:
		return c, false, nil
	case <-q.closed:
		select {
		case c := <-q.ch:
			return c, false, nil
		default:
			return nil, true, nil
		}
	case <-time.After(timeout):
		return nil, false, ErrPopTimeout
	}
}

// CloseStream marks end of stream. It never blocks, is safe to call more
// than once, and is seen by every reader once the buffer is drained.
func (q *chunkQueue) CloseStream() {
	q.closeOnce.Do(func() { close(q.closed) })
}
