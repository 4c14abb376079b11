// Package io provides the external collaborators of the LS-8 emulator:
// the program image reader and writer, and the Tape output sink that
// receives values printed by the PRN instruction.
package io

// Output defines the interface for the PRN output collaborator.
// Output is synchronous and never feeds back into machine state.
type Output interface {
	// Print emits a single register value.
	Print(value uint8) error
}
