package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateUploadPathBoundary(t *testing.T) {
	dir := t.TempDir()

	atLimit := filepath.Join(dir, "at-limit.txt")
	require.NoError(t, os.WriteFile(atLimit, make([]byte, maxFileSize), 0o644))
	require.NoError(t, validateUploadPath(atLimit))

	overLimit := filepath.Join(dir, "over-limit.txt")
	require.NoError(t, os.WriteFile(overLimit, make([]byte, maxFileSize+1), 0o644))
	require.Error(t, validateUploadPath(overLimit))
}

func TestValidateUploadPathRejectsBadExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.exe")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.Error(t, validateUploadPath(path))
}

func TestValidateUploadPathRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.Error(t, validateUploadPath(dir))
}

func TestValidateUploadPathAllowsLogExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.log")
	require.NoError(t, os.WriteFile(path, []byte("log line"), 0o644))
	require.NoError(t, validateUploadPath(path))
}
