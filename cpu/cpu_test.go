package cpu

import (
	"bytes"
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ls8/io"
)

// newTestCpu returns a CPU with program loaded at address 0, and its output.
func newTestCpu(t *testing.T, config Config, program ...byte) (cpu *Cpu, output *bytes.Buffer) {
	cpu = NewCpu(config)

	output = &bytes.Buffer{}
	cpu.Output = &io.Tape{Output: output}

	err := cpu.Load(program, 0)
	if err != nil {
		t.Fatal(err)
	}

	return
}

func TestCpu(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(Config{})

	assert.False(cpu.Verbose)
	assert.False(cpu.Strict)
	assert.Equal(STATE_IDLE, cpu.State)
	assert.False(cpu.Running())
	assert.Equal(uint16(0), cpu.Pc)
	assert.Equal(uint16(STACK_TOP), cpu.Sp())
	assert.Equal(Memory{}, cpu.Memory)
	assert.Equal(Register{}, cpu.Register)
	assert.Same(&cpu.Memory, cpu.Stack.Memory)

	cpu = NewCpu(Config{Strict: true, Verbose: true})
	assert.True(cpu.Verbose)
	assert.True(cpu.Strict)
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, Config{},
		0x82, 0x00, 0x08, // LDI R0,8
		0x45, 0x00, // PUSH R0
		0x01, // HLT
	)
	assert.NoError(cpu.Run())
	assert.Equal(uint16(STACK_TOP-1), cpu.Sp())

	cpu.Reset()
	assert.Equal(STATE_IDLE, cpu.State)
	assert.Equal(uint16(0), cpu.Pc)
	assert.Equal(uint16(STACK_TOP), cpu.Sp())
	assert.Equal(Memory{}, cpu.Memory)
	assert.Equal(Register{}, cpu.Register)
	assert.Equal(0, cpu.Ticks)
}

func TestCpu_Load_TooLarge(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(Config{})
	assert.ErrorIs(cpu.Load(make([]byte, MEMORY_SIZE+1), 0), ErrImageTooLarge)
	assert.ErrorIs(cpu.Load([]byte{1, 1, 1}, MEMORY_SIZE-2), ErrImageTooLarge)
	assert.NoError(cpu.Load([]byte{1, 1}, MEMORY_SIZE-2))
}

func TestCpu_Ldi(t *testing.T) {
	assert := assert.New(t)

	for reg := range uint8(REGISTER_COUNT) {
		for _, value := range []uint8{0, 1, 0x7f, 0x80, 0xff} {
			cpu, _ := newTestCpu(t, Config{}, uint8(OP_LDI), reg, value)

			err := cpu.Tick()
			assert.NoError(err)
			assert.Equal(value, cpu.Register[reg])
			assert.Equal(uint16(3), cpu.Pc)
		}
	}
}

func TestCpu_PushPop(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, Config{},
		0x82, 0x00, 0x42, // LDI R0,0x42
		0x45, 0x00, // PUSH R0
		0x46, 0x03, // POP R3
		0x01, // HLT
	)

	assert.NoError(cpu.Tick())
	before := cpu.Memory
	sp := cpu.Sp()

	assert.NoError(cpu.Tick())
	assert.Equal(sp-1, cpu.Sp())
	assert.Equal(uint8(0x42), cpu.Memory[cpu.Sp()])
	assert.Equal(uint16(5), cpu.Pc)

	assert.NoError(cpu.Tick())
	assert.Equal(sp, cpu.Sp())
	assert.Equal(uint8(0x42), cpu.Register[3])
	assert.Equal(uint16(7), cpu.Pc)

	// Only the pushed cell changed.
	after := cpu.Memory
	after[STACK_TOP-1] = before[STACK_TOP-1]
	assert.Equal(before, after)
}

func TestCpu_PushPop_Lifo(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, Config{},
		0x82, 0x00, 0x01, // LDI R0,1
		0x82, 0x01, 0x02, // LDI R1,2
		0x82, 0x02, 0x03, // LDI R2,3
		0x45, 0x00, // PUSH R0
		0x45, 0x01, // PUSH R1
		0x45, 0x02, // PUSH R2
		0x46, 0x04, // POP R4
		0x46, 0x05, // POP R5
		0x46, 0x06, // POP R6
		0x01, // HLT
	)

	assert.NoError(cpu.Run())
	assert.Equal(uint8(3), cpu.Register[4])
	assert.Equal(uint8(2), cpu.Register[5])
	assert.Equal(uint8(1), cpu.Register[6])
	assert.Equal(uint16(STACK_TOP), cpu.Sp())
}

func TestCpu_CallRet(t *testing.T) {
	assert := assert.New(t)

	program := make([]byte, 21)
	copy(program, []byte{
		0x82, 0x01, 0x14, // LDI R1,20
		0x50, 0x01, // CALL R1
		0x01, // HLT
	})
	program[20] = uint8(OP_RET)

	cpu, _ := newTestCpu(t, Config{}, program...)

	assert.NoError(cpu.Tick())
	sp := cpu.Sp()

	assert.NoError(cpu.Tick())
	assert.Equal(uint16(20), cpu.Pc)
	assert.Equal(sp-1, cpu.Sp())
	assert.Equal(uint8(5), cpu.Memory[cpu.Sp()])

	assert.NoError(cpu.Tick())
	assert.Equal(uint16(5), cpu.Pc)
	assert.Equal(sp, cpu.Sp())

	assert.NoError(cpu.Tick())
	assert.Equal(STATE_HALTED, cpu.State)
}

func TestCpu_Call_ReturnOutOfBounds(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, Config{})
	cpu.Register[0] = 0x10
	cpu.State = STATE_RUNNING

	// Executed directly, a CALL in the last two cells has no return
	// address inside memory.
	for _, pc := range []uint16{MEMORY_SIZE - 2, MEMORY_SIZE - 1} {
		cpu.Pc = pc
		err := cpu.Execute(Instruction{Opcode: OP_CALL, A: 0})
		assert.ErrorIs(err, ErrOutOfBounds, "%v", pc)
		assert.Equal(pc, cpu.Pc)
		assert.Equal(uint16(STACK_TOP), cpu.Sp())
		assert.Equal(uint8(0), cpu.Memory[MEMORY_SIZE-1])
	}

	// The last CALL with a return address in memory.
	cpu.Pc = MEMORY_SIZE - 3
	assert.NoError(cpu.Execute(Instruction{Opcode: OP_CALL, A: 0}))
	assert.Equal(uint16(0x10), cpu.Pc)
	assert.Equal(uint8(MEMORY_SIZE-1), cpu.Memory[cpu.Sp()])
}

func TestCpu_doAlu(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, Config{})
	cpu.Register[0] = 3
	cpu.Register[1] = 4

	for _, op := range []Opcode{OP_LDI, OP_PRN, OP_PUSH, OP_CALL, OP_HLT} {
		err := cpu.doAlu(Instruction{Opcode: op, A: 0, B: 1})
		assert.ErrorIs(err, ErrUnsupportedOperation, op.String())
		assert.Equal(uint8(3), cpu.Register[0], op.String())
	}

	// ALU bit set, but not an arithmetic instruction.
	err := cpu.doAlu(Instruction{Opcode: OPCODE_ALU, A: 0, B: 1})
	assert.ErrorIs(err, ErrUnsupportedOperation)

	assert.NoError(cpu.doAlu(Instruction{Opcode: OP_ADD, A: 0, B: 1}))
	assert.Equal(uint8(7), cpu.Register[0])
	assert.NoError(cpu.doAlu(Instruction{Opcode: OP_MUL, A: 0, B: 1}))
	assert.Equal(uint8(28), cpu.Register[0])
}

func TestCpu_Arithmetic(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		op     Opcode
		a, b   uint8
		output uint8
	}){
		{"mul", OP_MUL, 8, 9, 72},
		{"mul_wrap", OP_MUL, 200, 200, 64},
		{"mul_zero", OP_MUL, 0, 200, 0},
		{"add", OP_ADD, 8, 9, 17},
		{"add_wrap", OP_ADD, 200, 100, 44},
	}

	for _, entry := range table {
		for _, swap := range []bool{false, true} {
			a, b := entry.a, entry.b
			if swap {
				a, b = b, a
			}
			cpu, _ := newTestCpu(t, Config{},
				uint8(OP_LDI), 0, a,
				uint8(OP_LDI), 1, b,
				uint8(entry.op), 0, 1,
				uint8(OP_HLT),
			)
			assert.NoError(cpu.Run(), entry.name)
			assert.Equal(entry.output, cpu.Register[0], entry.name)
			assert.Equal(b, cpu.Register[1], entry.name)
			assert.Equal(uint16(9), cpu.Pc, entry.name)
		}
	}
}

func TestCpu_Print8(t *testing.T) {
	assert := assert.New(t)

	cpu, output := newTestCpu(t, Config{},
		0x82, 0x00, 0x08, // LDI R0,8
		0x47, 0x00, // PRN R0
		0x01, // HLT
	)

	assert.NoError(cpu.Run())
	assert.Equal("8\n", output.String())
}

func TestCpu_Mult(t *testing.T) {
	assert := assert.New(t)

	cpu, output := newTestCpu(t, Config{},
		0x82, 0x00, 0x08, // LDI R0,8
		0x82, 0x01, 0x09, // LDI R1,9
		0xa2, 0x00, 0x01, // MUL R0,R1
		0x47, 0x00, // PRN R0
		0x01, // HLT
	)

	assert.NoError(cpu.Run())
	assert.Equal("72\n", output.String())
	assert.Equal(4, cpu.Ticks)
	assert.False(cpu.Running())
	assert.Equal(STATE_HALTED, cpu.State)
	assert.Nil(cpu.HaltReason)
	assert.Equal(uint16(11), cpu.Pc)
}

func TestCpu_Subroutine(t *testing.T) {
	assert := assert.New(t)

	program := make([]byte, 24)
	copy(program, []byte{
		0x82, 0x02, 0x14, // LDI R2,20
		0x50, 0x02, // CALL R2
		0x47, 0x02, // PRN R2
		0x01, // HLT
	})
	copy(program[20:], []byte{
		0x82, 0x02, 0x05, // LDI R2,5
		0x11, // RET
	})

	cpu, output := newTestCpu(t, Config{}, program...)

	assert.NoError(cpu.Run())
	assert.Equal("5\n", output.String())
	assert.Equal(uint16(7), cpu.Pc)
	assert.Equal(uint16(STACK_TOP), cpu.Sp())
	assert.Equal(uint8(5), cpu.Memory[STACK_TOP-1])
}

func TestCpu_UnknownOpcode(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, Config{},
		0x82, 0x00, 0x08, // LDI R0,8
	)

	err := cpu.Run()
	assert.NoError(err)
	assert.Equal(STATE_HALTED, cpu.State)
	assert.Equal(uint16(3), cpu.Pc)
	assert.ErrorIs(cpu.HaltReason, ErrUnknownOpcode)
	assert.ErrorIs(cpu.HaltReason, ErrInstruction{})
	assert.Equal(1, cpu.Ticks)
}

func TestCpu_UnknownOpcode_Strict(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, Config{Strict: true},
		0x82, 0x00, 0x08, // LDI R0,8
	)

	err := cpu.Run()
	assert.ErrorIs(err, ErrUnknownOpcode)
	assert.ErrorIs(err, ErrInstruction{})
	assert.Equal(STATE_HALTED, cpu.State)
	assert.Equal(uint16(3), cpu.Pc)
	assert.Nil(cpu.HaltReason)
}

func TestCpu_InvalidRegister(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []byte
	}){
		{"ldi", []byte{0x82, 0x08, 0x01}},
		{"prn", []byte{0x47, 0x09}},
		{"mul_a", []byte{0xa2, 0x08, 0x00}},
		{"mul_b", []byte{0xa2, 0x00, 0xff}},
		{"add", []byte{0xa0, 0x00, 0x08}},
		{"push", []byte{0x45, 0x08}},
		{"pop", []byte{0x46, 0x08}},
		{"call", []byte{0x50, 0x08}},
	}

	for _, entry := range table {
		cpu, output := newTestCpu(t, Config{}, entry.program...)
		cpu.Stack.Push(0x33)
		sp := cpu.Sp()
		memory := cpu.Memory

		err := cpu.Run()
		assert.ErrorIs(err, ErrInvalidRegister, entry.name)
		assert.ErrorIs(err, ErrInstruction{Pc: 0, Instruction: Instruction{
			Opcode: Opcode(entry.program[0]),
			A:      entry.program[1],
			B:      cpu.Memory[2],
		}}, entry.name)
		assert.Equal(STATE_HALTED, cpu.State, entry.name)
		assert.Equal(uint16(0), cpu.Pc, entry.name)
		assert.Equal(sp, cpu.Sp(), entry.name)
		assert.Equal(memory, cpu.Memory, entry.name)
		assert.Equal(Register{}, cpu.Register, entry.name)
		assert.Empty(output.String(), entry.name)
	}
}

func TestCpu_StackBounds(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, Config{},
		0x45, 0x00, // PUSH R0
	)
	cpu.Stack.Pointer = 0

	err := cpu.Run()
	assert.ErrorIs(err, ErrOutOfBounds)
	assert.ErrorIs(err, ErrStackOverflow)
	assert.Equal(uint16(0), cpu.Sp())
	assert.Equal(uint16(0), cpu.Pc)

	for _, program := range [][]byte{
		{0x46, 0x00}, // POP R0
		{0x11},       // RET
	} {
		cpu, _ = newTestCpu(t, Config{}, program...)

		err = cpu.Run()
		assert.ErrorIs(err, ErrOutOfBounds)
		assert.ErrorIs(err, ErrStackUnderflow)
		assert.Equal(uint16(STACK_TOP), cpu.Sp())
		assert.Equal(uint16(0), cpu.Pc)
	}

	cpu, _ = newTestCpu(t, Config{},
		0x50, 0x00, // CALL R0
	)
	cpu.Stack.Pointer = 0

	err = cpu.Run()
	assert.ErrorIs(err, ErrStackOverflow)
	assert.Equal(uint16(0), cpu.Pc)
}

func TestCpu_PcOutOfBounds(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, Config{})
	cpu.Memory[MEMORY_SIZE-2] = uint8(OP_HLT)
	cpu.Pc = MEMORY_SIZE - 2

	err := cpu.Run()
	assert.ErrorIs(err, ErrOutOfBounds)
	assert.ErrorIs(err, ErrFetch(MEMORY_SIZE-2))
	assert.Equal(STATE_HALTED, cpu.State)

	// LDI at the last complete fetch advances the PC past memory.
	cpu, _ = newTestCpu(t, Config{})
	cpu.Memory[MEMORY_SIZE-3] = uint8(OP_LDI)
	cpu.Pc = MEMORY_SIZE - 3

	err = cpu.Run()
	assert.ErrorIs(err, ErrOutOfBounds)
	assert.ErrorIs(err, ErrFetch(MEMORY_SIZE))
}

func TestCpu_OutputMissing(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(Config{})
	assert.NoError(cpu.Load([]byte{0x47, 0x00, 0x01}, 0))

	err := cpu.Run()
	assert.ErrorIs(err, ErrOutputMissing)
	assert.Equal(uint16(0), cpu.Pc)
}

func TestCpu_RunAgain(t *testing.T) {
	assert := assert.New(t)

	cpu, output := newTestCpu(t, Config{},
		0x82, 0x00, 0x01, // LDI R0,1
		0x47, 0x00, // PRN R0
		0x01,             // HLT
		0x82, 0x00, 0x02, // LDI R0,2
		0x47, 0x00, // PRN R0
		0x01, // HLT
	)

	assert.NoError(cpu.Run())
	assert.Equal(uint16(5), cpu.Pc)
	assert.Equal("1\n", output.String())

	// Running again resumes at the HLT.
	assert.NoError(cpu.Run())
	assert.Equal(uint16(5), cpu.Pc)
	assert.Equal("1\n", output.String())

	// Step past it and continue with the machine state intact.
	cpu.Pc++
	assert.NoError(cpu.Run())
	assert.Equal(uint16(11), cpu.Pc)
	assert.Equal("1\n2\n", output.String())
	assert.Equal(4, cpu.Ticks)
}

func TestCpu_Tick_FromIdle(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, Config{},
		0x82, 0x00, 0x01, // LDI R0,1
		0x01, // HLT
	)

	assert.NoError(cpu.Tick())
	assert.True(cpu.Running())

	assert.NoError(cpu.Tick())
	assert.False(cpu.Running())
	assert.Equal(1, cpu.Ticks)
}

func TestCpu_Trace(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, Config{},
		0x82, 0x00, 0x08, // LDI R0,8
		0x45, 0x00, // PUSH R0
		0x01, // HLT
	)

	assert.Equal("TRACE: 00 | 82 00 08 | 00 00 00 00 00 00 00 00 | SP 100", cpu.Trace())

	assert.NoError(cpu.Tick())
	assert.NoError(cpu.Tick())
	assert.Equal("TRACE: 05 | 01 00 00 | 08 00 00 00 00 00 00 00 | SP FF", cpu.Trace())

	cpu.Pc = MEMORY_SIZE - 1
	assert.Equal("TRACE: FF | 08 -- -- | 08 00 00 00 00 00 00 00 | SP FF", cpu.Trace())
}

func TestCpu_String(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(Config{})
	cpu.Register[7] = 0xf4

	text := cpu.String()
	assert.Contains(text, "   pc: 00\n")
	assert.Contains(text, "state: idle\n")
	assert.Contains(text, "   r7: F4\n")
	assert.Contains(text, "   sp: 100\n")
	assert.Contains(text, "stack: --\n")

	cpu.Stack.Push(0x42)
	assert.Contains(cpu.String(), "stack: 42\n")
}

func TestCpu_Defines(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(Config{})
	defines := maps.Collect(cpu.Defines())

	assert.Equal("0x82", defines["OP_LDI"])
	assert.Equal("0x01", defines["OP_HLT"])
	assert.Equal("256", defines["MEMORY_SIZE"])
	assert.Equal("256", defines["STACK_TOP"])
	assert.Equal("8", defines["REGISTER_COUNT"])
}

func TestState_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("idle", STATE_IDLE.String())
	assert.Equal("running", STATE_RUNNING.String())
	assert.Equal("halted", STATE_HALTED.String())
	assert.Equal("State(9)", State(9).String())
}
