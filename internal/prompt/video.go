package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/project-chip/certification-tool-cli/internal/protocol"
	"github.com/project-chip/certification-tool-cli/internal/video"
)

// printInstallGuidance writes per-platform installation instructions
// when the transcoder binary is missing.
func printInstallGuidance(ffmpegPath string) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	fmt.Fprintf(os.Stderr, `
================================================================
 Video verification requires FFmpeg, which was not found (%q).
 Install it and retry:
   macOS:   brew install ffmpeg
   Ubuntu:  sudo apt-get install ffmpeg
   Windows: https://ffmpeg.org/download.html
================================================================
`, ffmpegPath)
}

// isExecutableNotFound reports whether err indicates the transcoder
// binary itself could not be located (as opposed to some other
// transcoder failure), matching exec.LookPath's *exec.Error shape.
func isExecutableNotFound(err error) bool {
	var execErr *exec.Error
	return errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound)
}

// streamReadyTimeout bounds how long the handler waits for the first
// successful ingest connect before printing the URL anyway.
const streamReadyTimeout = 10 * time.Second

// handleStreamVerification wires the video pipeline and embedded HTTP
// server for a live-video verification prompt: start capture, wait for
// readiness, print + auto-open the verification URL, wait for the
// operator's submitted response, then tear the pipeline down.
func (d *Dispatcher) handleStreamVerification(ctx context.Context, req *protocol.PromptRequest) (interface{}, protocol.UserResponseStatus, error) {
	d.pipeline = video.NewPipeline(d.deps.Logger, d.deps.Hostname, d.deps.FFmpegPath, d.deps.VideoOutDir)
	if err := d.pipeline.Start(ctx, req.MessageID); err != nil {
		if isExecutableNotFound(err) {
			printInstallGuidance(d.deps.FFmpegPath)
		}
		return nil, protocol.StatusInvalid, fmt.Errorf("prompt: starting video pipeline: %w", err)
	}
	stopPipeline := func() {
		path := d.pipeline.Stop()
		if path != "" {
			d.deps.Logger.Infow("raw video capture saved", "path", path)
		}
	}

	d.httpSrv.SetPrompt(req.Prompt, req.Options)
	d.httpSrv.SetSource(d.pipeline)
	if err := d.httpSrv.Start(); err != nil {
		stopPipeline()
		return nil, protocol.StatusInvalid, fmt.Errorf("prompt: starting video http server: %w", err)
	}
	// Teardown order matters: stopping the pipeline pushes the
	// end-of-stream sentinel that lets in-flight /video_live.mp4
	// handlers finish, so the HTTP server's graceful shutdown isn't left
	// waiting out its deadline on them.
	defer func() {
		stopPipeline()
		d.httpSrv.Stop()
	}()

	if !d.pipeline.WaitReady(streamReadyTimeout) {
		d.deps.Logger.Warnw("video stream did not signal ready in time, continuing anyway")
	}

	url := fmt.Sprintf("http://%s:%d/", d.deps.Hostname, d.deps.VideoPort)
	d.printPrompt(req.Prompt)
	fmt.Printf("🎬 Please verify the video at: %s\n", url)
	if err := openBrowser(url); err != nil {
		d.deps.Logger.Warnw("auto-opening browser failed", "error", err)
	}

	select {
	case <-ctx.Done():
		return nil, doneStatus(ctx), nil
	case value := <-d.httpSrv.ResponseChan():
		return value, protocol.StatusOK, nil
	}
}
