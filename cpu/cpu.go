package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"strings"

	"github.com/ezrec/ls8/io"
)

// Output is the PRN output collaborator.
type Output io.Output

// State is the execution state of the CPU.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_IDLE    = State(0) // idle
	STATE_RUNNING = State(1) // running
	STATE_HALTED  = State(2) // halted
)

var _cpu_defines = func() map[string]string {
	defines := map[string]string{
		"MEMORY_SIZE":    fmt.Sprintf("%v", MEMORY_SIZE),
		"STACK_TOP":      fmt.Sprintf("%v", STACK_TOP),
		"REGISTER_COUNT": fmt.Sprintf("%v", REGISTER_COUNT),
	}
	for op, info := range opcodeTable {
		defines["OP_"+info.Name] = fmt.Sprintf("0x%02x", uint8(op))
	}
	return defines
}()

// Config is the construction-time configuration of a CPU.
type Config struct {
	Strict  bool // Unknown opcodes are fatal rather than an orderly halt.
	Verbose bool // Log every instruction cycle.
}

// Cpu is the simulation context for the LS-8 processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.
	Strict  bool // Set to make unknown opcodes fatal.

	Memory   Memory   // Main memory.
	Register Register // Register bank.
	Stack    Stack    // Stack in main memory. Stack.Pointer is the SP.
	Pc       uint16   // Current program counter.
	State    State    // Execution state.

	// HaltReason is set when the CPU halted on an unknown opcode
	// rather than on HLT.
	HaltReason error

	Ticks int // Completed non-halting cycles.

	Output Output // PRN output.
}

// NewCpu creates a new CPU, reset and idle.
func NewCpu(config Config) (cpu *Cpu) {
	cpu = &Cpu{
		Verbose: config.Verbose,
		Strict:  config.Strict,
	}
	cpu.Stack.Memory = &cpu.Memory

	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the CPU state.
// - Zeros memory and registers.
// - Empties the stack.
// - Sets the PC to 0 and the state to idle.
// - Zeros statistics counters.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	cpu.Memory.Reset()
	cpu.Register.Reset()
	cpu.Stack.Memory = &cpu.Memory
	cpu.Stack.Reset()
	cpu.Pc = 0
	cpu.State = STATE_IDLE
	cpu.HaltReason = nil
	cpu.Ticks = 0
}

// Load copies a program image into memory at base.
func (cpu *Cpu) Load(data []byte, base uint16) (err error) {
	err = cpu.Memory.Load(data, base)
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.Printf("cpu: loaded %d bytes at 0x%02x", len(data), base)
	}

	return
}

// Running returns true while the CPU should keep fetching.
func (cpu *Cpu) Running() bool {
	return cpu.State == STATE_RUNNING
}

// Sp returns the stack pointer.
func (cpu *Cpu) Sp() uint16 {
	return cpu.Stack.Pointer
}

// halt stops execution, recording why.
func (cpu *Cpu) halt(reason error) {
	cpu.State = STATE_HALTED
	cpu.HaltReason = reason

	if cpu.Verbose {
		log.Printf("cpu: halt at pc 0x%02x", cpu.Pc)
	}
}

// Fetch decodes the instruction at the PC.
func (cpu *Cpu) Fetch() (inst Instruction, err error) {
	inst, err = Decode(&cpu.Memory, cpu.Pc)
	if err != nil {
		err = errors.Join(ErrFetch(cpu.Pc), err)
	}

	return
}

// Run executes instructions until the CPU halts or faults.
// Running again after a halt continues from the current state.
func (cpu *Cpu) Run() (err error) {
	cpu.State = STATE_RUNNING
	cpu.HaltReason = nil

	for cpu.Running() {
		err = cpu.Tick()
		if err != nil {
			return
		}
	}

	return
}

// Tick executes a single CPU instruction cycle.
// Any error is fatal and leaves the CPU halted.
func (cpu *Cpu) Tick() (err error) {
	if !cpu.Running() {
		cpu.State = STATE_RUNNING
		cpu.HaltReason = nil
	}

	defer func() {
		if err != nil {
			cpu.halt(nil)
		}
	}()

	if cpu.Verbose {
		log.Print(cpu.Trace())
	}

	inst, err := cpu.Fetch()
	if err != nil {
		return
	}

	err = cpu.Execute(inst)
	if err != nil {
		return
	}

	if cpu.Running() {
		cpu.Ticks += 1
	}

	return
}

// Execute executes a single decoded instruction located at the PC.
// A failing instruction changes no state.
func (cpu *Cpu) Execute(inst Instruction) (err error) {
	pc := cpu.Pc

	defer func() {
		if err != nil {
			err = errors.Join(ErrInstruction{Pc: pc, Instruction: inst}, err)
		}
	}()

	if cpu.Verbose {
		log.Printf("%02x: %v", pc, inst)
	}

	next_pc := pc
	if !inst.Opcode.SetsPc() {
		next_pc += inst.Opcode.Width()
	}

	switch inst.Opcode {
	case OP_HLT:
		cpu.halt(nil)
		return
	case OP_LDI:
		err = cpu.Register.Set(inst.A, inst.B)
	case OP_PRN:
		var value uint8
		value, err = cpu.Register.Get(inst.A)
		if err != nil {
			return
		}
		if cpu.Output == nil {
			err = ErrOutputMissing
			return
		}
		err = cpu.Output.Print(value)
	case OP_MUL, OP_ADD:
		err = cpu.doAlu(inst)
	case OP_PUSH:
		var value uint8
		value, err = cpu.Register.Get(inst.A)
		if err != nil {
			return
		}
		err = cpu.Stack.Push(value)
	case OP_POP:
		_, err = cpu.Register.Get(inst.A)
		if err != nil {
			return
		}
		var value uint8
		value, err = cpu.Stack.Pop()
		if err != nil {
			return
		}
		err = cpu.Register.Set(inst.A, value)
	case OP_CALL:
		var target uint8
		target, err = cpu.Register.Get(inst.A)
		if err != nil {
			return
		}
		// Return address skips the CALL and its operand.
		ret := pc + OP_CALL.Width()
		if ret >= MEMORY_SIZE {
			err = ErrOutOfBounds
			return
		}
		err = cpu.Stack.Push(uint8(ret))
		next_pc = uint16(target)
	case OP_RET:
		var target uint8
		target, err = cpu.Stack.Pop()
		next_pc = uint16(target)
	default:
		if cpu.Strict {
			err = ErrUnknownOpcode
			return
		}
		reason := errors.Join(ErrInstruction{Pc: pc, Instruction: inst}, ErrUnknownOpcode)
		log.Printf("cpu: unknown opcode 0x%02x at pc 0x%02x, halting", uint8(inst.Opcode), pc)
		cpu.halt(reason)
		return
	}

	if err != nil {
		return
	}

	cpu.Pc = next_pc

	return
}

// doAlu executes an arithmetic instruction, leaving the result in the
// first register operand.
func (cpu *Cpu) doAlu(inst Instruction) (err error) {
	if !inst.Opcode.IsAlu() {
		err = ErrUnsupportedOperation
		return
	}

	a, b, err := cpu.getPair(inst)
	if err != nil {
		return
	}

	var value uint8
	switch inst.Opcode {
	case OP_MUL:
		value = a * b
	case OP_ADD:
		value, err = Alu(ALU_OP_ADD, a, b)
	default:
		err = ErrUnsupportedOperation
	}
	if err != nil {
		return
	}

	err = cpu.Register.Set(inst.A, value)

	return
}

// getPair returns the values of both register operands.
func (cpu *Cpu) getPair(inst Instruction) (a, b uint8, err error) {
	a, err = cpu.Register.Get(inst.A)
	if err != nil {
		return
	}

	b, err = cpu.Register.Get(inst.B)
	return
}

// Trace returns a one line snapshot of the PC, the next three memory
// cells, the registers, and the stack pointer.
func (cpu *Cpu) Trace() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "TRACE: %02X |", cpu.Pc)
	for n := range uint16(INSTRUCTION_FETCH) {
		value, err := cpu.Memory.Read(cpu.Pc + n)
		if err != nil {
			sb.WriteString(" --")
			continue
		}
		fmt.Fprintf(&sb, " %02X", value)
	}
	sb.WriteString(" |")
	for _, value := range cpu.Register {
		fmt.Fprintf(&sb, " %02X", value)
	}
	fmt.Fprintf(&sb, " | SP %02X", cpu.Stack.Pointer)

	return sb.String()
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{
		"pc",
		"state",
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
		"sp",
		"stack",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%02X", cpu.Pc)
		case "state":
			strval = cpu.State.String()
		case "r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7":
			val := cpu.Register[byte(reg[1]-'0')]
			strval = fmt.Sprintf("%02X", val)
		case "sp":
			strval = fmt.Sprintf("%02X", cpu.Stack.Pointer)
		case "stack":
			val, err := cpu.Stack.Peek()
			if err == nil {
				strval = fmt.Sprintf("%02X", val)
			} else {
				strval = "--"
			}
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}
