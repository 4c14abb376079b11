package cpu

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// Machine errors
	ErrOutOfBounds          = errors.New(f("address out of bounds"))
	ErrInvalidRegister      = errors.New(f("register invalid"))
	ErrUnsupportedOperation = errors.New(f("alu operation unsupported"))
	ErrImageTooLarge        = errors.New(f("image too large"))
	ErrUnknownOpcode        = errors.New(f("opcode unknown"))
	ErrStackOverflow        = errors.New(f("stack overflow"))
	ErrStackUnderflow       = errors.New(f("stack underflow"))
	ErrOutputMissing        = errors.New(f("output missing"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrOrgSyntax          = errors.New(f(".org syntax"))
	ErrOrgOverlap         = errors.New(f(".org overlaps prior code"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrValueRange         = errors.New(f("value out of byte range"))
)

// ErrInstruction locates a failed instruction.
type ErrInstruction struct {
	Pc          uint16
	Instruction Instruction
}

func (ei ErrInstruction) Error() string {
	return f("pc 0x%02x %v", ei.Pc, ei.Instruction.String())
}

func (ei ErrInstruction) Is(err error) (ok bool) {
	_, ok = err.(ErrInstruction)
	return
}

// ErrFetch locates a failed instruction fetch.
type ErrFetch uint16

func (ef ErrFetch) Error() string {
	return f("fetch at pc 0x%02x", uint16(ef))
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
