//go:build darwin

package alerts

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

// OSAScriptNotifier sends macOS system notifications via osascript.
type OSAScriptNotifier struct {
	enabled bool
	log     zerolog.Logger
}

// NewOSAScriptNotifier creates a new macOS notification sender.
// If enabled is false, notifications are silently dropped.
func NewOSAScriptNotifier(enabled bool, log zerolog.Logger) *OSAScriptNotifier {
	return &OSAScriptNotifier{enabled: enabled, log: log}
}

// NewPlatformNotifier creates the platform-appropriate notifier for macOS.
func NewPlatformNotifier(enabled bool, log zerolog.Logger) Notifier {
	return NewOSAScriptNotifier(enabled, log)
}

func (n *OSAScriptNotifier) Notify(item Item) {
	if !n.enabled {
		return
	}

	title := "Mission Control"
	subtitle := strings.ToUpper(string(item.Severity))
	message := truncateMessage(item.Message, 200)

	go func() {
		if err := sendOSANotification(title, subtitle, message); err != nil {
			n.log.Warn().Err(err).Msg("failed to send macOS notification")
		}
	}()
}

func sendOSANotification(title, subtitle, message string) error {
	script := fmt.Sprintf(
		`display notification "%s" with title "%s" subtitle "%s"`,
		escapeAppleScript(message), escapeAppleScript(title), escapeAppleScript(subtitle),
	)
	cmd := exec.Command("osascript", "-e", script)
	return cmd.Run()
}

// escapeAppleScript escapes characters that could break AppleScript strings.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
