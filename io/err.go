package io

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// Image errors
	ErrImageSyntax = errors.New(f("image syntax"))

	// Tape errors
	ErrTapeMissing = errors.New(f("tape output missing"))
)

// ErrImageLine locates an image parse error.
type ErrImageLine struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrImageLine) Error() string {
	return f("image line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrImageLine) Unwrap() error {
	return err.Err
}
