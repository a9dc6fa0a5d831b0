package bytecode

import (
	"fmt"
	"sort"

	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/label"
)

// Condition is the comparison a conditional branch tests. The numeric order
// matches the JVM's own opcode numbering for ifeq/if_icmpeq/if_acmpeq and
// its siblings, so branchOpcode below is a plain offset add.
type Condition int

const (
	CondEq Condition = iota
	CondNe
	CondLt
	CondGe
	CondGt
	CondLe
)

// Negate returns the condition that is true exactly when c is false —
// used when a conditional jump's target is out of signed-16-bit range and
// must be rewritten to jump over a trampoline goto_w instead.
func (c Condition) Negate() Condition {
	switch c {
	case CondEq:
		return CondNe
	case CondNe:
		return CondEq
	case CondLt:
		return CondGe
	case CondGe:
		return CondLt
	case CondGt:
		return CondLe
	default:
		return CondGt
	}
}

type branchKind int

const (
	brGoto branchKind = iota
	brIf
	brIfICmp
	brIfACmp
	brIfNull
	brIfNonNull
	brTableSwitch
	brLookupSwitch
	brReturn
	brAThrow
)

// ReturnKind selects which return opcode Return emits.
type ReturnKind int

const (
	ReturnInt ReturnKind = iota
	ReturnLong
	ReturnFloat
	ReturnDouble
	ReturnRef
	ReturnVoid
)

func (k ReturnKind) opcode() opcode {
	switch k {
	case ReturnInt:
		return opIReturn
	case ReturnLong:
		return opLReturn
	case ReturnFloat:
		return opFReturn
	case ReturnDouble:
		return opDReturn
	case ReturnRef:
		return opAReturn
	default:
		return opReturn
	}
}

// LookupCase is one match/target pair of a LookupSwitch.
type LookupCase struct {
	Match  int32
	Target label.Label
}

// BranchInstruction is the instruction that closes a basic block: every
// block ends with exactly one, and it is the only place a label ever
// appears as a jump target. Straight-line Instructions never branch, so
// splitting the two apart is what lets a method body be represented as a
// flat ordered list of blocks instead of a general instruction graph.
type BranchInstruction struct {
	kind branchKind

	cond        Condition
	target      label.Label
	fallthrough_ label.Label
	hasFallthrough bool

	wide bool // Goto only: narrow (3-byte) vs goto_w (5-byte)

	returnOp ReturnKind

	low, high     int32
	tableTargets  []label.Label
	lookupCases   []LookupCase
	defaultTarget label.Label

	padding uint8
}

// Goto unconditionally transfers control to target.
func Goto(target label.Label) BranchInstruction {
	return BranchInstruction{kind: brGoto, target: target}
}

// If tests the top-of-stack int against zero per cond, branching to target
// if it holds and falling through to fallthrough_ otherwise.
func If(cond Condition, target, fallthrough_ label.Label) BranchInstruction {
	return BranchInstruction{kind: brIf, cond: cond, target: target, fallthrough_: fallthrough_, hasFallthrough: true}
}

// IfICmp compares the top two int stack values per cond.
func IfICmp(cond Condition, target, fallthrough_ label.Label) BranchInstruction {
	return BranchInstruction{kind: brIfICmp, cond: cond, target: target, fallthrough_: fallthrough_, hasFallthrough: true}
}

// IfACmp compares the top two reference stack values for identity (cond
// must be CondEq or CondNe; the JVM has no ordering comparison on references).
func IfACmp(cond Condition, target, fallthrough_ label.Label) BranchInstruction {
	return BranchInstruction{kind: brIfACmp, cond: cond, target: target, fallthrough_: fallthrough_, hasFallthrough: true}
}

// IfNull/IfNonNull test the top-of-stack reference against null.
func IfNull(target, fallthrough_ label.Label) BranchInstruction {
	return BranchInstruction{kind: brIfNull, target: target, fallthrough_: fallthrough_, hasFallthrough: true}
}

func IfNonNull(target, fallthrough_ label.Label) BranchInstruction {
	return BranchInstruction{kind: brIfNonNull, target: target, fallthrough_: fallthrough_, hasFallthrough: true}
}

// TableSwitch dispatches on a dense int range [low, high]; targets must
// have exactly high-low+1 entries, one per key in that range.
func TableSwitch(low, high int32, targets []label.Label, defaultTarget label.Label) BranchInstruction {
	return BranchInstruction{kind: brTableSwitch, low: low, high: high, tableTargets: targets, defaultTarget: defaultTarget}
}

// LookupSwitch dispatches on a sparse set of int keys, sorted ascending by
// match value as the class file format requires.
func LookupSwitch(cases []LookupCase, defaultTarget label.Label) BranchInstruction {
	sorted := append([]LookupCase(nil), cases...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Match < sorted[j].Match })
	return BranchInstruction{kind: brLookupSwitch, lookupCases: sorted, defaultTarget: defaultTarget}
}

// Return ends the method, returning the top of stack (or nothing, for
// ReturnVoid).
func Return(kind ReturnKind) BranchInstruction {
	return BranchInstruction{kind: brReturn, returnOp: kind}
}

// AThrow ends the block by throwing the top-of-stack Throwable.
func AThrow() BranchInstruction {
	return BranchInstruction{kind: brAThrow}
}

// SetPadding records the alignment padding a *switch instruction needs
// before its jump table, computed once the block's starting offset in the
// method is known (tableswitch/lookupswitch align their table to a 4-byte
// boundary measured from the start of the method).
func (b *BranchInstruction) SetPadding(padding uint8) {
	b.padding = padding
}

// JumpTargets returns every label this instruction might transfer control
// to directly (not including fallthrough, which is physical adjacency, not
// a jump) — used to decide which blocks need a stack map frame entry.
func (b BranchInstruction) JumpTargets() []label.Label {
	switch b.kind {
	case brGoto, brIf, brIfICmp, brIfACmp, brIfNull, brIfNonNull:
		return []label.Label{b.target}
	case brTableSwitch:
		out := append([]label.Label(nil), b.tableTargets...)
		return append(out, b.defaultTarget)
	case brLookupSwitch:
		out := make([]label.Label, 0, len(b.lookupCases)+1)
		for _, c := range b.lookupCases {
			out = append(out, c.Target)
		}
		return append(out, b.defaultTarget)
	default:
		return nil
	}
}

// FallthroughTarget returns the label of the block physically following
// this one in placement order, if control can reach it without a jump.
func (b BranchInstruction) FallthroughTarget() (label.Label, bool) {
	if b.hasFallthrough {
		return b.fallthrough_, true
	}
	return label.Label{}, false
}

// conditionalWidenable reports whether this is a conditional-jump kind,
// which has no wide encoding and must be restructured (rather than simply
// re-encoded) when its target falls out of signed-16-bit range.
func (b BranchInstruction) conditionalWidenable() bool {
	switch b.kind {
	case brIf, brIfICmp, brIfACmp, brIfNull, brIfNonNull:
		return true
	default:
		return false
	}
}

// Width returns the instruction's size in bytes. For switch instructions
// this includes the alignment padding last recorded with SetPadding.
func (b BranchInstruction) Width() int {
	switch b.kind {
	case brGoto:
		if b.wide {
			return 5
		}
		return 3
	case brIf, brIfICmp, brIfACmp, brIfNull, brIfNonNull:
		return 3
	case brReturn, brAThrow:
		return 1
	case brTableSwitch:
		return 1 + int(b.padding) + 12 + 4*len(b.tableTargets)
	case brLookupSwitch:
		return 1 + int(b.padding) + 8 + 8*len(b.lookupCases)
	default:
		return 1
	}
}

func branchOpcode(kind branchKind, cond Condition) opcode {
	switch kind {
	case brIf:
		return opIfEq + opcode(cond)
	case brIfICmp:
		return opIfICmpEq + opcode(cond)
	case brIfACmp:
		return opIfACmpEq + opcode(cond)
	case brIfNull:
		return opIfNull
	case brIfNonNull:
		return opIfNonNull
	default:
		return opNop
	}
}

// emit serializes the instruction. selfOffset is the absolute method offset
// of this instruction's own opcode byte; offsetOf resolves any label to its
// final absolute offset.
func (b BranchInstruction) emit(e *classfile.Encoder, selfOffset int, offsetOf func(label.Label) (int, error)) error {
	rel16 := func(target label.Label) (int16, error) {
		abs, err := offsetOf(target)
		if err != nil {
			return 0, err
		}
		delta := abs - selfOffset
		if delta < -32768 || delta > 32767 {
			return 0, fmt.Errorf("bytecode: jump offset %d out of signed-16-bit range", delta)
		}
		return int16(delta), nil
	}
	rel32 := func(target label.Label) (int32, error) {
		abs, err := offsetOf(target)
		if err != nil {
			return 0, err
		}
		return int32(abs - selfOffset), nil
	}

	switch b.kind {
	case brGoto:
		if b.wide {
			off, err := rel32(b.target)
			if err != nil {
				return err
			}
			e.U1(byte(opGotoW))
			e.U4(uint32(off))
			return nil
		}
		off, err := rel16(b.target)
		if err != nil {
			return err
		}
		e.U1(byte(opGoto))
		e.U2(uint16(off))
		return nil

	case brIf, brIfICmp, brIfACmp, brIfNull, brIfNonNull:
		off, err := rel16(b.target)
		if err != nil {
			return err
		}
		e.U1(byte(branchOpcode(b.kind, b.cond)))
		e.U2(uint16(off))
		return nil

	case brReturn:
		e.U1(byte(b.returnOp.opcode()))
		return nil

	case brAThrow:
		e.U1(byte(opAThrow))
		return nil

	case brTableSwitch:
		e.U1(byte(opTableSwitch))
		for i := uint8(0); i < b.padding; i++ {
			e.U1(0)
		}
		def, err := rel32(b.defaultTarget)
		if err != nil {
			return err
		}
		e.U4(uint32(def))
		e.U4(uint32(b.low))
		e.U4(uint32(b.high))
		for _, target := range b.tableTargets {
			off, err := rel32(target)
			if err != nil {
				return err
			}
			e.U4(uint32(off))
		}
		return nil

	case brLookupSwitch:
		e.U1(byte(opLookupSwitch))
		for i := uint8(0); i < b.padding; i++ {
			e.U1(0)
		}
		def, err := rel32(b.defaultTarget)
		if err != nil {
			return err
		}
		e.U4(uint32(def))
		e.U4(uint32(len(b.lookupCases)))
		for _, c := range b.lookupCases {
			off, err := rel32(c.Target)
			if err != nil {
				return err
			}
			e.U4(uint32(c.Match))
			e.U4(uint32(off))
		}
		return nil

	default:
		return fmt.Errorf("bytecode: unknown branch kind %d", b.kind)
	}
}

// invertedForTrampoline returns a copy of a conditional branch with its
// condition negated and its target replaced — used by the jump-widening
// pass to rewrite an out-of-range conditional jump as "branch around a
// goto_w trampoline" (see widen.go).
func (b BranchInstruction) invertedForTrampoline(newTarget label.Label) BranchInstruction {
	c := b
	c.target = newTarget
	switch c.kind {
	case brIf, brIfICmp, brIfACmp:
		c.cond = c.cond.Negate()
	case brIfNull:
		c.kind = brIfNonNull
	case brIfNonNull:
		c.kind = brIfNull
	}
	return c
}
