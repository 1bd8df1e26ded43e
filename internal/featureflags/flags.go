package featureflags

import (
	"os"
	"strings"
)

// Known flags.
const (
	// NewsletterEmail sends the welcome email after a newsletter signup.
	NewsletterEmail = "newsletter_email"
	// ApplyLock takes the Redis lock around apply-to-property.
	ApplyLock = "apply_lock"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// EnabledByDefault is Enabled for flags that are on unless explicitly turned off.
func EnabledByDefault(name string) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "0", "false", "no", "off":
		return false
	default:
		return true
	}
}
