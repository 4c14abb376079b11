package cpu

import (
	"fmt"
	"strings"
)

// Opcode is an instruction opcode byte.
//
// Bits 7-6 hold the operand count, bit 5 marks ALU operations, and bit 4
// marks instructions that set the PC themselves.
type Opcode uint8

const (
	OP_HLT  = Opcode(0b00000001) // HLT
	OP_LDI  = Opcode(0b10000010) // LDI reg, imm
	OP_PRN  = Opcode(0b01000111) // PRN reg
	OP_MUL  = Opcode(0b10100010) // MUL regA, regB
	OP_ADD  = Opcode(0b10100000) // ADD regA, regB
	OP_PUSH = Opcode(0b01000101) // PUSH reg
	OP_POP  = Opcode(0b01000110) // POP reg
	OP_CALL = Opcode(0b01010000) // CALL reg
	OP_RET  = Opcode(0b00010001) // RET
)

const (
	OPCODE_OPERANDS_SHIFT = 6
	OPCODE_ALU            = Opcode(1 << 5)
	OPCODE_SETS_PC        = Opcode(1 << 4)

	INSTRUCTION_FETCH = 3 // Bytes read for every fetch.
)

// Arg is an operand kind.
type Arg int

const (
	ARG_REG = Arg(0) // register index
	ARG_IMM = Arg(1) // immediate byte
)

type opcodeInfo struct {
	Name string
	Args []Arg
}

// opcodeTable is the closed LS-8 instruction set.
var opcodeTable = map[Opcode]opcodeInfo{
	OP_HLT:  {"HLT", nil},
	OP_LDI:  {"LDI", []Arg{ARG_REG, ARG_IMM}},
	OP_PRN:  {"PRN", []Arg{ARG_REG}},
	OP_MUL:  {"MUL", []Arg{ARG_REG, ARG_REG}},
	OP_ADD:  {"ADD", []Arg{ARG_REG, ARG_REG}},
	OP_PUSH: {"PUSH", []Arg{ARG_REG}},
	OP_POP:  {"POP", []Arg{ARG_REG}},
	OP_CALL: {"CALL", []Arg{ARG_REG}},
	OP_RET:  {"RET", nil},
}

// mnemonicMap maps mnemonics back to opcodes.
var mnemonicMap = func() map[string]Opcode {
	mnemonics := make(map[string]Opcode, len(opcodeTable))
	for op, info := range opcodeTable {
		mnemonics[info.Name] = op
	}
	return mnemonics
}()

// Operands returns the operand count encoded in the opcode.
func (op Opcode) Operands() int {
	return int(op >> OPCODE_OPERANDS_SHIFT)
}

// Width returns the encoded instruction length in bytes.
func (op Opcode) Width() uint16 {
	return uint16(1 + op.Operands())
}

// IsAlu returns true for arithmetic instructions.
func (op Opcode) IsAlu() bool {
	return op&OPCODE_ALU != 0
}

// SetsPc returns true if the instruction sets the PC rather than
// advancing past itself.
func (op Opcode) SetsPc() bool {
	return op&OPCODE_SETS_PC != 0
}

// Known returns true if the opcode is in the instruction set.
func (op Opcode) Known() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Args returns the operand kinds of a known opcode.
func (op Opcode) Args() []Arg {
	return opcodeTable[op].Args
}

func (op Opcode) String() string {
	info, ok := opcodeTable[op]
	if !ok {
		return fmt.Sprintf("0x%02X", uint8(op))
	}
	return info.Name
}

// Instruction is a decoded opcode and its candidate operands.
type Instruction struct {
	Opcode Opcode
	A      uint8
	B      uint8
}

// Decode reads the instruction at pc. All INSTRUCTION_FETCH bytes are
// read whether or not the opcode uses them.
func Decode(mem *Memory, pc uint16) (inst Instruction, err error) {
	var bytes [INSTRUCTION_FETCH]uint8
	for n := range bytes {
		bytes[n], err = mem.Read(pc + uint16(n))
		if err != nil {
			return
		}
	}

	inst = Instruction{
		Opcode: Opcode(bytes[0]),
		A:      bytes[1],
		B:      bytes[2],
	}

	return
}

// Bytes returns the encoded instruction, trimmed to its width.
func (inst Instruction) Bytes() []byte {
	width := min(inst.Opcode.Width(), INSTRUCTION_FETCH)
	return []byte{uint8(inst.Opcode), inst.A, inst.B}[:width]
}

// String returns the assembly language representation of this instruction.
func (inst Instruction) String() string {
	if !inst.Opcode.Known() {
		return fmt.Sprintf(".byte 0x%02X", uint8(inst.Opcode))
	}

	values := []uint8{inst.A, inst.B}
	var args []string
	for n, arg := range inst.Opcode.Args() {
		switch arg {
		case ARG_REG:
			args = append(args, fmt.Sprintf("R%d", values[n]))
		case ARG_IMM:
			args = append(args, fmt.Sprintf("%d", values[n]))
		}
	}

	if len(args) == 0 {
		return inst.Opcode.String()
	}

	return inst.Opcode.String() + " " + strings.Join(args, ",")
}
