// Package video implements the live-video verification pipeline: a raw
// H.264 WebSocket ingest, an FFmpeg transcoder to fragmented MP4, and a
// bounded fan-out queue the embedded HTTP server drains.
package video

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/project-chip/certification-tool-cli/internal/logging"
)

// queueCapacity bounds the number of pending transcoded chunks the HTTP
// server may lag behind by before chunks start dropping.
const queueCapacity = 64

// Pipeline owns the ingest client, transcoder and output queue for a
// single video-verification prompt.
type Pipeline struct {
	logger     logging.Logger
	hostname   string
	ffmpegPath string
	outputDir  string

	mu      sync.Mutex
	ready   chan struct{}
	readyOk bool

	queue      *chunkQueue
	ingest     *ingest
	transcoder *transcoder
	rawFile    *os.File

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewPipeline constructs a Pipeline bound to the given hostname (for the
// ingest WebSocket) and ffmpeg binary path.
func NewPipeline(logger logging.Logger, hostname, ffmpegPath, outputDir string) *Pipeline {
	return &Pipeline{
		logger:     logger,
		hostname:   hostname,
		ffmpegPath: ffmpegPath,
		outputDir:  outputDir,
		ready:      make(chan struct{}),
		queue:      newChunkQueue(queueCapacity),
	}
}

// Start begins ingest, raw capture and transcoding for promptID. It
// launches the transcoder and dials the ingest socket (with bounded
// retry) before returning, marks the pipeline ready once that dial
// succeeds, and then launches the capture goroutines; a dial that
// exhausts its retries is returned as an error. After a successful
// Start, WaitReady returns true immediately.
func (p *Pipeline) Start(ctx context.Context, promptID string) error {
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	group, gctx := errgroup.WithContext(runCtx)
	p.group = group

	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		cancel()
		return fmt.Errorf("video: creating output dir: %w", err)
	}
	filename := fmt.Sprintf("video_verification_%s_%d.bin", promptID, timeNow())
	rawFile, err := os.Create(filepath.Join(p.outputDir, filename))
	if err != nil {
		cancel()
		return fmt.Errorf("video: creating raw capture file: %w", err)
	}
	p.rawFile = rawFile

	p.transcoder = newTranscoder(p.logger, p.ffmpegPath)
	if err := p.transcoder.Start(gctx); err != nil {
		cancel()
		return err
	}

	p.ingest = newIngest(p.logger, p.hostname)
	if err := p.ingest.Connect(gctx); err != nil {
		cancel()
		return err
	}
	p.markReady()

	group.Go(func() error {
		return p.ingest.Run(gctx, func(frame []byte) {
			if _, err := p.rawFile.Write(frame); err != nil {
				p.logger.Warnw("video raw capture write failed", "error", err)
			}
			if err := p.transcoder.Feed(frame); err != nil {
				p.logger.Warnw("video transcoder feed failed", "error", err)
			}
		})
	})

	group.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			default:
			}
			chunk, err := p.transcoder.ReadOutput()
			if err != nil {
				p.queue.CloseStream()
				return nil
			}
			if !p.queue.Push(chunk) {
				p.logger.Warnw("video output queue full, dropping chunk", "bytes", len(chunk))
			}
		}
	})

	return nil
}

func (p *Pipeline) markReady() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.readyOk {
		p.readyOk = true
		close(p.ready)
	}
}

// WaitReady blocks until the pipeline signals it is ready to serve
// frames, or timeout elapses.
func (p *Pipeline) WaitReady(timeout time.Duration) bool {
	select {
	case <-p.ready:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Pop delegates to the internal fan-out queue.
func (p *Pipeline) Pop(timeout time.Duration) (chunk []byte, eof bool, err error) {
	return p.queue.Pop(timeout)
}

// Stop tears down ingest, transcoder and the raw capture file, returning
// the raw capture path if it exists and is non-empty.
func (p *Pipeline) Stop() string {
	if p.cancel != nil {
		p.cancel()
	}
	if p.ingest != nil {
		_ = p.ingest.Close()
	}
	if p.transcoder != nil {
		p.transcoder.Stop()
	}
	p.queue.CloseStream()
	if p.group != nil {
		_ = p.group.Wait()
	}

	path := ""
	if p.rawFile != nil {
		path = p.rawFile.Name()
		_ = p.rawFile.Close()
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			path = ""
		}
	}
	return path
}

// timeNow is split out so tests can observe deterministic filenames if
// ever needed; production always uses the wall clock.
var timeNow = func() int64 {
	return time.Now().UnixNano()
}
