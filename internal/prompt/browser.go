package prompt

import (
	"os/exec"
	"runtime"
)

// openBrowser best-effort opens url in the platform's default browser.
// Failure only logs; never blocks or errors the prompt flow.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
