package io

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	IMAGE_COMMENT = "#" // Comment marker, rest of line is ignored.
	IMAGE_WIDTH   = 8   // Binary digits per image byte.
)

// ReadImage parses an LS-8 program image into the bytes to load.
//
// Each line is blank, a comment, or a binary literal of IMAGE_WIDTH
// '0'/'1' digits optionally followed by a comment.
func ReadImage(input io.Reader) (data []byte, err error) {
	scanner := bufio.NewScanner(input)

	var lineno int
	var line string

	defer func() {
		if err != nil {
			err = &ErrImageLine{LineNo: lineno, Line: line, Err: err}
		}
	}()

	for scanner.Scan() {
		lineno++
		line = scanner.Text()

		text, _, _ := strings.Cut(line, IMAGE_COMMENT)
		text = strings.TrimSpace(text)
		if len(text) == 0 {
			continue
		}

		var value byte
		value, err = parseImageByte(text)
		if err != nil {
			return
		}
		data = append(data, value)
	}

	err = scanner.Err()

	return
}

// parseImageByte parses a single binary literal.
func parseImageByte(text string) (value byte, err error) {
	if len(text) != IMAGE_WIDTH || strings.Trim(text, "01") != "" {
		err = ErrImageSyntax
		return
	}

	v64, err := strconv.ParseUint(text, 2, IMAGE_WIDTH)
	if err != nil {
		err = ErrImageSyntax
		return
	}

	value = byte(v64)

	return
}

// WriteImage writes data as an LS-8 program image. If comments is not nil,
// comments[n] (when present and non-empty) is appended to the line of
// data[n].
func WriteImage(output io.Writer, data []byte, comments []string) (err error) {
	w := bufio.NewWriter(output)

	for n, value := range data {
		line := fmt.Sprintf("%0*b", IMAGE_WIDTH, value)
		if n < len(comments) && len(comments[n]) != 0 {
			line += " " + IMAGE_COMMENT + " " + comments[n]
		}
		_, err = w.WriteString(line + "\n")
		if err != nil {
			return
		}
	}

	err = w.Flush()

	return
}
