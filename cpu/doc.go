// Package cpu implements the processor and assembler for the LS-8 system.
//
// The CPU consists of a program counter (PC), eight 8-bit general-purpose
// registers (R0-R7), a dedicated stack pointer (SP) into a 256 byte memory,
// and an ALU. Instructions are one opcode byte followed by up to two operand
// bytes; the two high bits of the opcode hold the operand count.
//
// The assembler provides a small assembly language for the LS-8 instruction
// set, supporting macros, labels, equates, and compile-time expression
// evaluation.
package cpu
