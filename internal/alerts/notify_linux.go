//go:build linux

package alerts

import (
	"os/exec"

	"github.com/rs/zerolog"
)

// NotifySendNotifier sends Linux desktop notifications via notify-send.
// Notifications are sent in a background goroutine so a slow notification
// daemon never stalls a poll cycle.
type NotifySendNotifier struct {
	enabled bool
	log     zerolog.Logger
	run     func(title, body, urgency string) error
}

// NewNotifySendNotifier creates a new Linux notification sender.
// If enabled is false, notifications are silently dropped.
func NewNotifySendNotifier(enabled bool, log zerolog.Logger) *NotifySendNotifier {
	return &NotifySendNotifier{enabled: enabled, log: log, run: sendNotifySend}
}

// NewPlatformNotifier creates the platform-appropriate notifier for Linux.
func NewPlatformNotifier(enabled bool, log zerolog.Logger) Notifier {
	return NewNotifySendNotifier(enabled, log)
}

func (n *NotifySendNotifier) Notify(item Item) {
	if !n.enabled {
		return
	}

	title := "Mission Control: " + string(item.Severity)
	body := truncateMessage(item.Message, 200)

	urgency := "normal"
	if item.Severity == SeverityCritical {
		urgency = "critical"
	}

	go func() {
		if err := n.run(title, body, urgency); err != nil {
			n.log.Warn().Err(err).Msg("failed to send Linux notification")
		}
	}()
}

func sendNotifySend(title, body, urgency string) error {
	cmd := exec.Command("notify-send", "--urgency", urgency, "--app-name", "mission-control", title, body)
	return cmd.Run()
}
