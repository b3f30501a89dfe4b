package report

// The wrapped command line passes through untouched.
// The log file stays untouched until the child has come and gone.
// Fail loudly. Never retry.

import "strings"

// MaxEnvValueLength bounds a canonicalized environment value. Long values
// (PATH, LS_COLORS) would otherwise swamp the log.
const MaxEnvValueLength = 40

const truncationMarker = "..."

// CanonicalValue clamps v to MaxEnvValueLength bytes, marking truncation
// with "...", then replaces every byte outside printable ASCII (space
// through '~') with '.'. The transform is byte-oriented: a multibyte rune
// cut by the clamp just degrades to placeholder bytes. Output is always
// printable and never longer than the limit.
func CanonicalValue(v string) string {
	if len(v) > MaxEnvValueLength {
		v = v[:MaxEnvValueLength-len(truncationMarker)] + truncationMarker
	}
	b := []byte(v)
	for i, c := range b {
		if c < 32 || c > 126 {
			b[i] = '.'
		}
	}
	return string(b)
}

// SnapshotEnv copies the process environment into a map of canonicalized
// values. Entries without '=' are dropped; for duplicated names the last
// entry wins; the value is everything after the first '='.
func SnapshotEnv(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[name] = CanonicalValue(value)
	}
	return env
}
