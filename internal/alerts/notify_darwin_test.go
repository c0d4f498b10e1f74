//go:build darwin

package alerts

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestOSAScriptNotifier_Disabled(t *testing.T) {
	// Disabled notifier must not shell out.
	notifier := NewOSAScriptNotifier(false, zerolog.Nop())
	notifier.Notify(Item{
		ID:        "a1",
		Severity:  SeverityCritical,
		Message:   `Pump "B" pressure loss`,
		Timestamp: time.Now(),
	})

	escaped := escapeAppleScript(`He said "hello" and \n stuff`)
	expected := `He said \"hello\" and \\n stuff`
	if escaped != expected {
		t.Errorf("escapeAppleScript: expected %q, got %q", expected, escaped)
	}
}
