package report

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCanonicalValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "ext4", "ext4"},
		{"space and tilde kept", " ~", " ~"},
		{"exactly at limit", strings.Repeat("x", 40), strings.Repeat("x", 40)},
		{"one over limit", strings.Repeat("x", 41), strings.Repeat("x", 37) + "..."},
		{"well over limit", strings.Repeat("y", 200), strings.Repeat("y", 37) + "..."},
		{"tab and newline", "a\tb\nc", "a.b.c"},
		{"unit separator", "a\x1fb", "a.b"},
		{"del byte", "a\x7fb", "a.b"},
		{"high bytes", "caf\xc3\xa9", "caf.."},
		{"binary garbage", "\x00\x01\xff", "..."},
		{"truncation before replacement", strings.Repeat("\n", 50), strings.Repeat(".", 37) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalValue(tt.input); got != tt.want {
				t.Errorf("CanonicalValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalValueProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("never longer than the limit", prop.ForAll(
		func(s string) bool {
			return len(CanonicalValue(s)) <= MaxEnvValueLength
		},
		gen.AnyString(),
	))

	properties.Property("only printable ASCII bytes", prop.ForAll(
		func(s string) bool {
			for _, c := range []byte(CanonicalValue(s)) {
				if c < 32 || c > 126 {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.Property("long values end with the marker", prop.ForAll(
		func(s string) bool {
			if len(s) <= MaxEnvValueLength {
				return true
			}
			out := CanonicalValue(s)
			return len(out) == MaxEnvValueLength && strings.HasSuffix(out, "...")
		},
		gen.AnyString(),
	))

	properties.Property("short values keep their length", prop.ForAll(
		func(s string) bool {
			if len(s) > MaxEnvValueLength {
				return true
			}
			return len(CanonicalValue(s)) == len(s)
		},
		gen.AnyString(),
	))

	properties.Property("short printable values pass through", prop.ForAll(
		func(s string) bool {
			if len(s) > MaxEnvValueLength {
				return true
			}
			return CanonicalValue(s) == s
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestSnapshotEnv(t *testing.T) {
	environ := []string{
		"PATH=/usr/bin:/bin",
		"EMPTY=",
		"MALFORMED",
		"DUP=first",
		"DUP=second",
		"EQ=a=b=c",
		"CTRL=a\nb",
	}

	env := SnapshotEnv(environ)

	if _, ok := env["MALFORMED"]; ok {
		t.Error("entry without '=' should be dropped")
	}
	if got := env["PATH"]; got != "/usr/bin:/bin" {
		t.Errorf("PATH = %q, want /usr/bin:/bin", got)
	}
	if got := env["EMPTY"]; got != "" {
		t.Errorf("EMPTY = %q, want empty string", got)
	}
	if got := env["DUP"]; got != "second" {
		t.Errorf("DUP = %q, want last entry to win", got)
	}
	if got := env["EQ"]; got != "a=b=c" {
		t.Errorf("EQ = %q, want everything after the first '='", got)
	}
	if got := env["CTRL"]; got != "a.b" {
		t.Errorf("CTRL = %q, want canonicalized a.b", got)
	}
	if len(env) != 5 {
		t.Errorf("len(env) = %d, want 5", len(env))
	}
}
