package report

// The wrapped command line passes through untouched.
// The log file stays untouched until the child has come and gone.
// Fail loudly. Never retry.

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Buffer accumulates timestamped log lines in memory, in order. Nothing
// reaches the filesystem until Flush; opening the log any earlier would
// serialise wrapper and workload on the log file and could hide the race
// this program exists to expose.
type Buffer struct {
	lines []string
	now   func() time.Time
}

func NewBuffer() *Buffer {
	return &Buffer{now: time.Now}
}

// Append stamps msg with the current time and adds it to the buffer. Lines
// are immutable once appended.
func (b *Buffer) Append(msg string) {
	b.lines = append(b.lines, Timestamp(b.now())+" "+msg)
}

// Len reports the number of buffered lines.
func (b *Buffer) Len() int {
	return len(b.lines)
}

// Lines returns a copy of the buffered lines.
func (b *Buffer) Lines() []string {
	return append([]string(nil), b.lines...)
}

// Flush opens path in append mode (creating it, never truncating) and
// writes every buffered line in insertion order. This is the only place in
// the wrapper that touches the log file. Any failure is returned; a lost
// audit trail must not be silent even when the wrapped program already
// succeeded. The descriptor is closed on every path out.
func (b *Buffer) Flush(path string) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("Failed to open log file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("Failed to close log file: %w", cerr)
		}
	}()

	return b.writeLines(f)
}

// writeLines emits each line as a single write of line plus newline, so
// O_APPEND keeps concurrent runs from tearing each other's lines. A short
// write is an error.
func (b *Buffer) writeLines(w io.Writer) error {
	for _, line := range b.lines {
		buf := make([]byte, 0, len(line)+1)
		buf = append(buf, line...)
		buf = append(buf, '\n')
		n, err := w.Write(buf)
		if err != nil {
			return fmt.Errorf("Failed to write to log file: %w", err)
		}
		if n != len(buf) {
			return fmt.Errorf("Failed to write to log file: %w", io.ErrShortWrite)
		}
	}
	return nil
}
