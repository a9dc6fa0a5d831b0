package bytecode

import (
	"testing"

	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/label"
	"github.com/wasm2jar/wasm2jar/internal/verify"
)

func TestInstructionWidthsAndEmission(t *testing.T) {
	e := classfile.NewEncoder()
	insn := IConst(7)
	insn.emit(e)
	if e.Err() != nil {
		t.Fatal(e.Err())
	}
	if got, want := e.Bytes(), []byte{0x10, 7}; string(got) != string(want) {
		t.Fatalf("IConst(7) = % x, want % x", got, want)
	}
}

func TestIConstSelectsNarrowestForm(t *testing.T) {
	if w := IConst(3).Width(); w != 1 {
		t.Fatalf("IConst(3) width = %d, want 1 (iconst_3)", w)
	}
	if w := IConst(100).Width(); w != 2 {
		t.Fatalf("IConst(100) width = %d, want 2 (bipush)", w)
	}
	if w := IConst(10000).Width(); w != 3 {
		t.Fatalf("IConst(10000) width = %d, want 3 (sipush)", w)
	}
}

func TestLoadStorePicksDedicatedOpcodeForLowSlots(t *testing.T) {
	if w := ILoad(0).Width(); w != 1 {
		t.Fatalf("ILoad(0) width = %d, want 1 (iload_0)", w)
	}
	if w := ILoad(10).Width(); w != 2 {
		t.Fatalf("ILoad(10) width = %d, want 2 (iload with index byte)", w)
	}
}

// buildReturningMethod builds: iload_0; ireturn — the simplest possible
// single-block method body, with no branches at all.
func buildReturningMethod(t *testing.T) *classfile.Attribute {
	t.Helper()
	pool := classfile.NewConstantPool()
	b := NewCodeBuilder(pool, []verify.Type{verify.Integer()})
	b.PushInstruction(ILoad(0))
	frame := verify.NewFrame([]verify.Type{verify.Integer()})
	frame.Push(verify.Integer())
	b.Track(frame)
	b.PushBranchInstruction(Return(ReturnInt))

	attr, err := b.Result()
	if err != nil {
		t.Fatal(err)
	}
	return attr
}

func TestCodeBuilderSingleBlockMethod(t *testing.T) {
	attr := buildReturningMethod(t)
	if attr.NameIndex == 0 {
		t.Fatal("expected a non-zero Code attribute name index")
	}
	if len(attr.Body) == 0 {
		t.Fatal("expected a non-empty Code attribute body")
	}
}

// buildBranchingMethod builds a method with one conditional branch:
//
//	iload_0
//	ifeq L1
//	iconst_1
//	ireturn
//
// L1:
//	iconst_0
//	ireturn
func TestCodeBuilderConditionalBranch(t *testing.T) {
	pool := classfile.NewConstantPool()
	b := NewCodeBuilder(pool, []verify.Type{verify.Integer()})

	l1 := b.FreshLabel()
	thenBlock := b.FreshLabel()

	b.PushInstruction(ILoad(0))
	b.PushBranchInstruction(If(CondEq, l1, thenBlock))

	if err := b.PlaceLabel(thenBlock, verify.NewFrame([]verify.Type{verify.Integer()})); err != nil {
		t.Fatal(err)
	}
	b.PushInstruction(IConst(1))
	b.PushBranchInstruction(Return(ReturnInt))

	if err := b.PlaceLabel(l1, verify.NewFrame([]verify.Type{verify.Integer()})); err != nil {
		t.Fatal(err)
	}
	b.PushInstruction(IConst(0))
	b.PushBranchInstruction(Return(ReturnInt))

	attr, err := b.Result()
	if err != nil {
		t.Fatal(err)
	}
	if len(attr.Body) == 0 {
		t.Fatal("expected non-empty Code body")
	}
}

func TestResultErrorsOnDanglingFallthrough(t *testing.T) {
	pool := classfile.NewConstantPool()
	b := NewCodeBuilder(pool, nil)
	b.PushInstruction(Nop())
	// Never closes the block with a branch instruction.
	if _, err := b.Result(); err == nil {
		t.Fatal("expected ErrDanglingFallthrough")
	}
}

func TestWidenJumpsFlipsGotoToWideForm(t *testing.T) {
	gen := label.NewGenerator()
	far := gen.Fresh()
	near := gen.Fresh()
	mid := gen.Fresh()

	blocks := map[label.Label]*BasicBlock{
		near: {End: Goto(far)},
		mid:  {Instructions: padding(40000), End: Return(ReturnVoid)},
		far:  {End: Return(ReturnVoid)},
	}
	order := []label.Label{near, mid, far}

	widenedOrder, widenedBlocks, err := widenJumps(order, blocks, gen)
	if err != nil {
		t.Fatal(err)
	}
	if !widenedBlocks[widenedOrder[0]].End.wide {
		t.Fatal("expected the oversized goto to widen to goto_w")
	}
}

func TestWidenJumpsRestructuresConditional(t *testing.T) {
	gen := label.NewGenerator()
	target := gen.Fresh()
	fallthrough_ := gen.Fresh()
	start := gen.Fresh()

	blocks := map[label.Label]*BasicBlock{
		start:        {End: If(CondEq, target, fallthrough_)},
		fallthrough_: {Instructions: padding(50000), End: Return(ReturnVoid)},
		target:       {End: Return(ReturnVoid)},
	}
	order := []label.Label{start, fallthrough_, target}

	widenedOrder, widenedBlocks, err := widenJumps(order, blocks, gen)
	if err != nil {
		t.Fatal(err)
	}
	if len(widenedOrder) != 4 {
		t.Fatalf("expected a trampoline block to be inserted, got order %v", widenedOrder)
	}
	startEnd := widenedBlocks[widenedOrder[0]].End
	if startEnd.cond != CondNe {
		t.Fatalf("expected the conditional to invert to CondNe, got %v", startEnd.cond)
	}
}

func padding(n int) []Instruction {
	out := make([]Instruction, n)
	for i := range out {
		out[i] = Nop()
	}
	return out
}
