package cpu

const (
	REGISTER_COUNT = 8 // General purpose registers, R0-R7.
)

// Register is the general purpose register file.
type Register [REGISTER_COUNT]uint8

// Get returns the value of register index.
func (reg *Register) Get(index uint8) (value uint8, err error) {
	if int(index) >= len(reg) {
		err = ErrInvalidRegister
		return
	}

	value = reg[index]
	return
}

// Set stores value in register index.
func (reg *Register) Set(index uint8, value uint8) (err error) {
	if int(index) >= len(reg) {
		err = ErrInvalidRegister
		return
	}

	reg[index] = value
	return
}

// Reset zeros all registers.
func (reg *Register) Reset() {
	clear(reg[:])
}
