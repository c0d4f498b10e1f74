//go:build !linux && !darwin

package alerts

import "github.com/rs/zerolog"

// NewPlatformNotifier returns a no-op notifier on platforms without a
// supported desktop notification command.
func NewPlatformNotifier(bool, zerolog.Logger) Notifier {
	return NopNotifier{}
}
