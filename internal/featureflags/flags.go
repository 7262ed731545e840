package featureflags

import (
	"os"
	"strings"
)

// Prefix is prepended to the upper-cased flag name to form its environment variable
const Prefix = "FLAG_"

// SkipOwnerReads stops authors from inflating read_count on their own posts
const SkipOwnerReads = "skip_owner_reads"

// Enabled reports whether FLAG_<NAME> is set to 1, true, yes or on (case-insensitive).
// Callers read flags once at startup, through pkg/config.
func Enabled(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvName(name)))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// EnvName returns the environment variable backing a flag
func EnvName(name string) string {
	return Prefix + strings.ToUpper(name)
}
