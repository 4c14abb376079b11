package cpu

const (
	MEMORY_SIZE = 256 // Addressable bytes of memory.
)

// Memory is the flat, byte addressed main memory.
type Memory [MEMORY_SIZE]uint8

// Read returns the byte at addr.
func (mem *Memory) Read(addr uint16) (value uint8, err error) {
	if int(addr) >= len(mem) {
		err = ErrOutOfBounds
		return
	}

	value = mem[addr]
	return
}

// Write stores value at addr.
func (mem *Memory) Write(addr uint16, value uint8) (err error) {
	if int(addr) >= len(mem) {
		err = ErrOutOfBounds
		return
	}

	mem[addr] = value
	return
}

// Load copies data verbatim into memory starting at base.
// Nothing is written if the data does not fit.
func (mem *Memory) Load(data []byte, base uint16) (err error) {
	if int(base)+len(data) > len(mem) {
		err = ErrImageTooLarge
		return
	}

	copy(mem[base:], data)
	return
}

// Reset zeros all of memory.
func (mem *Memory) Reset() {
	clear(mem[:])
}
