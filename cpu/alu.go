package cpu

// AluOp is an ALU operation type.
type AluOp int

//go:generate go tool stringer -linecomment -type=AluOp
const (
	ALU_OP_ADD = AluOp(0) // add
)

// Alu performs the requested ALU action on two register values.
// Results wrap at the register width.
func Alu(op AluOp, a uint8, b uint8) (output uint8, err error) {
	switch op {
	case ALU_OP_ADD: // add
		output = a + b
	default:
		err = ErrUnsupportedOperation
	}

	return
}
