// Code generated by "stringer -linecomment -type=AluOp"; DO NOT EDIT.

package cpu

import "strconv"

func _() {
	// An "invalid array index" compiler error signifies that the constant values have changed.
	// Re-run the stringer command to generate them again.
	var x [1]struct{}
	_ = x[ALU_OP_ADD-0]
}

const _AluOp_name = "add"

var _AluOp_index = [...]uint8{0, 3}

func (i AluOp) String() string {
	if i < 0 || i >= AluOp(len(_AluOp_index)-1) {
		return "AluOp(" + strconv.FormatInt(int64(i), 10) + ")"
	}
	return _AluOp_name[_AluOp_index[i]:_AluOp_index[i+1]]
}
