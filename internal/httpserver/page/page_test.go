package page

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderIncludesPromptAndOptions(t *testing.T) {
	out := Render("Is the video visible?", map[string]int{"Yes": 1, "No": 2})
	require.Contains(t, out, "Is the video visible?")
	require.Contains(t, out, `value="1"`)
	require.Contains(t, out, `value="2"`)
	require.True(t, strings.Index(out, "No") < strings.Index(out, "Yes"), "options should be sorted by label")
}

func TestRenderEscapesPromptText(t *testing.T) {
	out := Render("<script>alert(1)</script>", map[string]int{"ok": 1})
	require.NotContains(t, out, "<script>alert(1)</script>")
}
