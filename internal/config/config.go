package config

// The wrapped command line passes through untouched.
// The log file stays untouched until the child has come and gone.
// Fail loudly. Never retry.

import (
	"os"

	"github.com/spf13/viper"
)

// Configuration comes from the environment only. The command line belongs
// to the wrapped binary, so the wrapper defines no flags at all.
const (
	// OutputEnvVar overrides where the run log is written.
	OutputEnvVar = "WRAPPER_OUTPUT"
	// BinaryEnvVar overrides which binary is executed.
	BinaryEnvVar = "WRAPPER_BINARY"

	DefaultOutputFile = "/var/lib/storageos/logs/mountwrapper.log"
	DefaultBinary     = "/usr/bin/mount.real"
)

// Source says where a resolved value came from.
type Source string

const (
	SourceEnv     Source = "env"
	SourceDefault Source = "default"
)

// Config is the wrapper's resolved configuration. Built once at startup,
// passed by value, never mutated.
type Config struct {
	// Output is the run log path.
	Output string `json:"output" yaml:"output"`
	// Binary is the target executed in place of the wrapper.
	Binary string `json:"binary" yaml:"binary"`

	OutputSource Source `json:"output_source" yaml:"output_source"`
	BinarySource Source `json:"binary_source" yaml:"binary_source"`
}

// Resolve reads WRAPPER_OUTPUT and WRAPPER_BINARY. A variable that is unset
// or set to the empty string falls back to the compiled-in default; there is
// no error path. Nothing is read from disk and argv is never consulted.
func Resolve() Config {
	v := viper.New()
	v.SetDefault("output", DefaultOutputFile)
	v.SetDefault("binary", DefaultBinary)
	v.BindEnv("output", OutputEnvVar)
	v.BindEnv("binary", BinaryEnvVar)

	return Config{
		Output:       v.GetString("output"),
		Binary:       v.GetString("binary"),
		OutputSource: sourceOf(OutputEnvVar),
		BinarySource: sourceOf(BinaryEnvVar),
	}
}

func sourceOf(name string) Source {
	if val, ok := os.LookupEnv(name); ok && val != "" {
		return SourceEnv
	}
	return SourceDefault
}
