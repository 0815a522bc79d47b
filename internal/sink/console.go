// Package sink provides the production sink implementations the dispatcher
// writes through: one line per batch to a console writer, one file per
// batch under an output directory.
package sink

import (
	"fmt"
	"io"
	"sync"
)

// Console writes one line per batch to an underlying writer (stdout in the
// daemon). A mutex keeps lines whole if anything else ever shares the
// writer.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a console sink writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// WriteLine writes line followed by a newline.
func (c *Console) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintln(c.w, line); err != nil {
		return fmt.Errorf("write console line: %w", err)
	}
	return nil
}
