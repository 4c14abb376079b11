package cpu

import (
	"iter"
	"strings"
)

// Link is a label reference to patch into a statement's bytes.
type Link struct {
	Index int
	Label string
}

// Statement represents a line of assembled code with its source location
// and generated bytes.
type Statement struct {
	LineNo int
	Addr   int
	Words  []string
	Bytes  []byte
	Links  []Link
}

type Program struct {
	Statements []Statement
}

type Debug struct {
	*Statement
	Index int
}

// Debug returns the statement covering addr, if any.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, st := range prog.Statements {
		if int(addr) >= st.Addr && int(addr) < st.Addr+len(st.Bytes) {
			dbg = Debug{
				Statement: &prog.Statements[n],
				Index:     int(addr) - st.Addr,
			}
			break
		}
	}

	return
}

// Binary lays the program out as a memory image starting at address 0.
// Gaps between statements are zero filled.
func (prog *Program) Binary() (data []byte) {
	for addr, value := range prog.Bytes() {
		for int(addr) >= len(data) {
			data = append(data, 0)
		}
		data[addr] = value
	}

	return
}

// Comments returns, for each byte of Binary(), the source text of the
// statement starting at that byte.
func (prog *Program) Comments() (comments []string) {
	comments = make([]string, len(prog.Binary()))
	for _, st := range prog.Statements {
		if st.Addr < len(comments) {
			comments[st.Addr] = strings.Join(st.Words, " ")
		}
	}

	return
}

// Bytes iterates over each assembled byte and its address.
func (prog *Program) Bytes() iter.Seq2[uint16, byte] {
	return func(yield func(addr uint16, value byte) bool) {
		for _, st := range prog.Statements {
			addr := uint16(st.Addr)
			for n, value := range st.Bytes {
				if !yield(addr+uint16(n), value) {
					return
				}
			}
		}
	}
}
