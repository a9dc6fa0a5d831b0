package bytecode

import (
	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/label"
	"github.com/wasm2jar/wasm2jar/internal/verify"
)

// CodeBuilder assembles a method body top to bottom: fresh labels are
// minted as branch targets are needed, each is placed exactly once with
// the verification frame control has at that point, and straight-line
// instructions accumulate until a branch instruction closes the block.
// Result() performs jump widening and stack map frame encoding and returns
// the finished Code attribute.
type CodeBuilder struct {
	pool   *classfile.ConstantPool
	labels *label.Generator

	blocks map[label.Label]*BasicBlock
	order  []label.Label

	current  label.Label
	curOpen  bool
	curInsns []Instruction

	maxStack  int
	maxLocals int
}

// NewCodeBuilder starts a method body whose entry frame (locals only, as
// per JVMS 4.10.1's implicit frame at offset 0) is entryLocals.
func NewCodeBuilder(pool *classfile.ConstantPool, entryLocals []verify.Type) *CodeBuilder {
	b := &CodeBuilder{
		pool:   pool,
		labels: label.NewGenerator(),
		blocks: make(map[label.Label]*BasicBlock),
	}
	b.current = label.Start
	b.curOpen = true
	b.Track(verify.NewFrame(entryLocals))
	b.blockFrame(label.Start, verify.NewFrame(entryLocals))
	return b
}

// Constants returns the constant pool this builder's instructions resolve
// references against.
func (b *CodeBuilder) Constants() *classfile.ConstantPool { return b.pool }

// FreshLabel mints a label not yet bound to any block.
func (b *CodeBuilder) FreshLabel() label.Label { return b.labels.Fresh() }

// Track folds frame into the running max_stack/max_locals bounds. Callers
// invoke this once per emitted instruction with the frame control has
// immediately after that instruction, since only the frame recorded at a
// block's start is kept for stack map purposes but max_stack/max_locals
// must reflect every point in the method, not just block boundaries.
func (b *CodeBuilder) Track(frame verify.Frame) {
	locals := 0
	for _, t := range frame.Locals {
		locals += t.Width()
	}
	if locals > b.maxLocals {
		b.maxLocals = locals
	}
	if sw := frame.StackWidth(); sw > b.maxStack {
		b.maxStack = sw
	}
}

// PushInstruction appends a straight-line instruction to the block
// currently being built.
func (b *CodeBuilder) PushInstruction(insn Instruction) {
	b.curInsns = append(b.curInsns, insn)
}

// PushBranchInstruction closes the block currently being built with end.
// A new block must be started with PlaceLabel before any further
// instruction is pushed.
func (b *CodeBuilder) PushBranchInstruction(end BranchInstruction) {
	block := b.blocks[b.current]
	block.Instructions = append(block.Instructions, b.curInsns...)
	block.End = end
	b.curInsns = nil
	b.curOpen = false
}

// PlaceLabel starts a new block at l, recording the verification frame
// control has on entry to it. l must not already be placed.
func (b *CodeBuilder) PlaceLabel(l label.Label, frame verify.Frame) error {
	if _, exists := b.blocks[l]; exists {
		return ErrDuplicateLabel{Label: l}
	}
	if b.curOpen {
		return ErrLabelInOpenBlock{Label: l}
	}
	b.blockFrame(l, frame)
	b.current = l
	b.curOpen = true
	b.Track(frame)
	return nil
}

func (b *CodeBuilder) blockFrame(l label.Label, frame verify.Frame) {
	b.blocks[l] = &BasicBlock{Frame: frame}
	b.order = append(b.order, l)
}

// Result finishes the method body: it widens any branch instruction whose
// target falls outside the signed 16-bit range a non-wide jump can encode,
// lays out the final bytecode array, and builds the StackMapTable
// attribute for every block that is a jump target.
func (b *CodeBuilder) Result() (*classfile.Attribute, error) {
	if b.curOpen {
		return nil, ErrDanglingFallthrough{}
	}

	order, blocks, err := widenJumps(b.order, b.blocks, b.labels)
	if err != nil {
		return nil, err
	}

	offsets, jumpTargets, totalWidth, err := layoutOffsets(order, blocks)
	if err != nil {
		return nil, err
	}
	if totalWidth > 65535 {
		return nil, ErrMethodCodeOverflow{Bytes: totalWidth}
	}
	if b.maxStack > 65535 {
		return nil, ErrMethodStackOverflow{Which: "max_stack", Value: b.maxStack}
	}
	if b.maxLocals > 65535 {
		return nil, ErrMethodStackOverflow{Which: "max_locals", Value: b.maxLocals}
	}

	code, err := serializeCode(order, blocks, offsets)
	if err != nil {
		return nil, err
	}

	frames := make([]verify.OffsetFrame, 0, len(jumpTargets))
	for _, l := range order {
		if !jumpTargets[l] {
			continue
		}
		frames = append(frames, verify.OffsetFrame{Offset: offsets[l], Frame: blocks[l].Frame})
	}

	blockOffsets := make(map[label.Label]int, len(offsets))
	for l, off := range offsets {
		blockOffsets[l] = off
	}

	stackMapFrames, err := verify.BuildStackMapTable(b.pool, blocks[label.Start].Frame.Locals, frames, blockOffsets)
	if err != nil {
		return nil, err
	}

	var attrs []classfile.Attribute
	if len(stackMapFrames) > 0 {
		attr, err := classfile.NewStackMapTableAttribute(b.pool, stackMapFrames)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}

	attr, err := classfile.NewCodeAttribute(b.pool, uint16(b.maxStack), uint16(b.maxLocals), code, nil, attrs)
	if err != nil {
		return nil, err
	}
	return &attr, nil
}
