package bytecode

import "github.com/wasm2jar/wasm2jar/internal/verify"

// BasicBlock is a straight-line run of Instructions closed by one
// BranchInstruction, plus the verification Frame control reaches it with.
// A method body is an ordered sequence of these, addressed by label rather
// than by index, since jump widening can insert new blocks between
// existing ones.
type BasicBlock struct {
	Frame        verify.Frame
	Instructions []Instruction
	End          BranchInstruction
}

// instructionsWidth sums the straight-line instructions' byte widths.
func (b BasicBlock) instructionsWidth() int {
	w := 0
	for _, insn := range b.Instructions {
		w += insn.Width()
	}
	return w
}

// Width is the block's total size: its straight-line instructions plus its
// closing branch instruction.
func (b BasicBlock) Width() int {
	return b.instructionsWidth() + b.End.Width()
}
