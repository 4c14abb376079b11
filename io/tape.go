package io

import (
	"fmt"
	"io"
)

// Tape is a line-oriented output sink. Each printed value is written
// to Output in decimal, followed by a newline.
type Tape struct {
	Output io.Writer

	Lines int // Count of lines written.
}

var _ Output = (*Tape)(nil)

// Rewind clears the written line count.
func (tc *Tape) Rewind() {
	tc.Lines = 0
}

// Print writes a value as a decimal line.
func (tc *Tape) Print(value uint8) (err error) {
	if tc == nil || tc.Output == nil {
		err = ErrTapeMissing
		return
	}

	_, err = fmt.Fprintf(tc.Output, "%d\n", value)
	if err != nil {
		return
	}

	tc.Lines++

	return
}
