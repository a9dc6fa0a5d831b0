package translator

import (
	"github.com/wasm2jar/wasm2jar/internal/bytecode"
	"github.com/wasm2jar/wasm2jar/internal/label"
	"github.com/wasm2jar/wasm2jar/internal/verify"
)

// exprBuilder pairs a CodeBuilder with the verify.Frame the translator
// tracks by hand alongside it, so a method body can be written as a
// straight sequence of "mutate the frame, then emit the instruction that
// matches" calls instead of repeating CodeBuilder/Frame bookkeeping at
// every call site. This is the same manual-tracking discipline runtime.go
// and tuple.go follow; it exists here only to stop that boilerplate from
// being copy-pasted across every file the function body translator and
// numeric helper generator touch.
type exprBuilder struct {
	cb    *bytecode.CodeBuilder
	frame verify.Frame
}

func newExprBuilder(cb *bytecode.CodeBuilder, frame verify.Frame) *exprBuilder {
	return &exprBuilder{cb: cb, frame: frame}
}

// pop removes and returns the top frame type. Callers mutate the frame
// this way before calling insn/branch so Track sees the post-instruction
// state.
func (e *exprBuilder) pop() verify.Type {
	t, _ := e.frame.Pop()
	return t
}

func (e *exprBuilder) push(t verify.Type) { e.frame.Push(t) }

// insn emits a straight-line instruction and tracks the frame as it
// stands after the caller's preceding pop/push calls.
func (e *exprBuilder) insn(i bytecode.Instruction) {
	e.cb.PushInstruction(i)
	e.cb.Track(e.frame)
}

// branch emits a branch instruction, closing the current block.
func (e *exprBuilder) branch(b bytecode.BranchInstruction) {
	e.cb.PushBranchInstruction(b)
	e.cb.Track(e.frame)
}

// place opens a new block at l with the frame's current contents, cloning
// it so later mutation of e.frame doesn't retroactively change what was
// recorded for l.
func (e *exprBuilder) place(l label.Label) error {
	return e.cb.PlaceLabel(l, e.frame.Clone())
}

// fresh mints a new label from the underlying builder.
func (e *exprBuilder) fresh() label.Label { return e.cb.FreshLabel() }
