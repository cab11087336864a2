package prompt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/project-chip/certification-tool-cli/internal/protocol"
)

var allowedUploadExtensions = map[string]bool{
	".txt": true,
	".log": true,
}

// handleFileUpload prompts for a local path, validates it, and POSTs it
// as multipart/form-data to the upload endpoint. An empty path
// (operator skips) sends an empty response string; any validation or
// transport failure also sends an empty string — the prompt is always
// answered.
func (d *Dispatcher) handleFileUpload(ctx context.Context, req *protocol.PromptRequest) (interface{}, protocol.UserResponseStatus, error) {
	d.printPrompt(req.Prompt)
	fmt.Println("  enter a file path to upload, or leave blank to skip")

	fmt.Print("> ")
	var path string
	select {
	case <-ctx.Done():
		return nil, doneStatus(ctx), nil
	case <-d.stdin.done:
		return "", protocol.StatusOK, nil
	case line := <-d.stdin.lines:
		path = strings.TrimSpace(line)
	}

	if path == "" {
		return "", protocol.StatusOK, nil
	}

	if err := validateUploadPath(path); err != nil {
		d.deps.Logger.Warnw("file upload validation failed", "path", path, "error", err)
		return "", protocol.StatusOK, nil
	}

	if err := d.uploadFile(ctx, path); err != nil {
		d.deps.Logger.Warnw("file upload failed", "path", path, "error", err)
		return "", protocol.StatusOK, nil
	}
	return "SUCCESS", protocol.StatusOK, nil
}

func validateUploadPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory")
	}
	if info.Size() > maxFileSize {
		return fmt.Errorf("file exceeds %d bytes", maxFileSize)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !allowedUploadExtensions[ext] {
		return fmt.Errorf("unsupported extension %q", ext)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func (d *Dispatcher) uploadFile(ctx context.Context, path string) error {
	resp, err := resty.New().R().
		SetContext(ctx).
		SetFile("file", path).
		Post(d.deps.UploadURL)
	if err != nil {
		return err
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("upload endpoint returned status %d", resp.StatusCode())
	}
	return nil
}
