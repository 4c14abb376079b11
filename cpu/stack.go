package cpu

import (
	"errors"
)

const (
	STACK_TOP = MEMORY_SIZE // Initial stack pointer, one past the last cell.
)

// Stack is the downward growing stack held in memory.
// Pointer addresses the current top of stack; it is STACK_TOP when empty.
type Stack struct {
	Memory  *Memory
	Pointer uint16
}

// Push decrements the pointer and stores value at the new top.
func (s *Stack) Push(value uint8) (err error) {
	if s.Full() {
		err = errors.Join(ErrOutOfBounds, ErrStackOverflow)
		return
	}

	err = s.Memory.Write(s.Pointer-1, value)
	if err != nil {
		return
	}

	s.Pointer--
	return
}

// Pop returns the value at the top and increments the pointer.
func (s *Stack) Pop() (value uint8, err error) {
	value, err = s.Peek()
	if err != nil {
		return
	}

	s.Pointer++
	return
}

// Peek returns the value at the top without moving the pointer.
func (s *Stack) Peek() (value uint8, err error) {
	if s.Empty() {
		err = errors.Join(ErrOutOfBounds, ErrStackUnderflow)
		return
	}

	return s.Memory.Read(s.Pointer)
}

// Empty is true when the pointer is at or past STACK_TOP.
func (s *Stack) Empty() bool {
	return s.Pointer >= STACK_TOP
}

// Full is true when no cell is left below the pointer.
func (s *Stack) Full() bool {
	return s.Pointer == 0
}

// Depth returns the number of bytes on the stack.
func (s *Stack) Depth() int {
	if s.Empty() {
		return 0
	}

	return STACK_TOP - int(s.Pointer)
}

// Reset empties the stack. Memory is left untouched.
func (s *Stack) Reset() {
	s.Pointer = STACK_TOP
}
