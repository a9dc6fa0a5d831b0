package translator

import (
	"github.com/wasm2jar/wasm2jar/internal/bytecode"
	"github.com/wasm2jar/wasm2jar/internal/label"
	"github.com/wasm2jar/wasm2jar/internal/verify"
	"github.com/wasm2jar/wasm2jar/internal/wasm"
)

// pushBoolFromBranch implements the three-way "branch, push 0 or 1, merge"
// shape every WASM comparison operator reduces to on the JVM, which has no
// instruction producing a boolean value directly (refIsNull follows the
// same shape by hand for ref.is_null). mk builds the actual conditional
// branch against the (true, false) label pair it is given; the caller must
// already have popped every operand that branch consumes from ft's
// bookkeeping before calling this.
func (ft *funcTranslator) pushBoolFromBranch(mk func(trueL, falseL label.Label) bytecode.BranchInstruction) error {
	trueL, falseL, doneL := ft.eb.fresh(), ft.eb.fresh(), ft.eb.fresh()
	ft.eb.branch(mk(trueL, falseL))

	if err := ft.place(falseL); err != nil {
		return err
	}
	ft.push(wasm.ValueTypeI32)
	ft.eb.insn(bytecode.IConst(0))
	ft.eb.branch(bytecode.Goto(doneL))
	ft.pop()

	if err := ft.place(trueL); err != nil {
		return err
	}
	ft.push(wasm.ValueTypeI32)
	ft.eb.insn(bytecode.IConst(1))
	ft.eb.branch(bytecode.Goto(doneL))

	return ft.place(doneL)
}

// translateCompare dispatches the whole i32.eqz..f64.ge opcode range: one
// operand for the two eqz variants, two for everything else, always
// producing an i32 0/1.
func (ft *funcTranslator) translateCompare(op wasm.Opcode) error {
	switch op {
	case wasm.OpcodeI32Eqz:
		ft.pop()
		return ft.pushBoolFromBranch(func(t, f label.Label) bytecode.BranchInstruction {
			return bytecode.If(bytecode.CondEq, t, f)
		})
	case wasm.OpcodeI64Eqz:
		ft.pop()
		ft.eb.push(verify.Long())
		ft.eb.insn(bytecode.LConst0())
		ft.eb.pop()
		ft.eb.push(verify.Integer())
		ft.eb.insn(bytecode.LCmp())
		ft.eb.pop()
		return ft.pushBoolFromBranch(func(t, f label.Label) bytecode.BranchInstruction {
			return bytecode.If(bytecode.CondEq, t, f)
		})

	case wasm.OpcodeI32Eq:
		return ft.compareInt32(bytecode.CondEq)
	case wasm.OpcodeI32Ne:
		return ft.compareInt32(bytecode.CondNe)
	case wasm.OpcodeI32LtS:
		return ft.compareInt32(bytecode.CondLt)
	case wasm.OpcodeI32GtS:
		return ft.compareInt32(bytecode.CondGt)
	case wasm.OpcodeI32LeS:
		return ft.compareInt32(bytecode.CondLe)
	case wasm.OpcodeI32GeS:
		return ft.compareInt32(bytecode.CondGe)
	case wasm.OpcodeI32LtU:
		return ft.compareUnsigned32(bytecode.CondLt)
	case wasm.OpcodeI32GtU:
		return ft.compareUnsigned32(bytecode.CondGt)
	case wasm.OpcodeI32LeU:
		return ft.compareUnsigned32(bytecode.CondLe)
	case wasm.OpcodeI32GeU:
		return ft.compareUnsigned32(bytecode.CondGe)

	case wasm.OpcodeI64Eq:
		return ft.compareInt64(bytecode.CondEq)
	case wasm.OpcodeI64Ne:
		return ft.compareInt64(bytecode.CondNe)
	case wasm.OpcodeI64LtS:
		return ft.compareInt64(bytecode.CondLt)
	case wasm.OpcodeI64GtS:
		return ft.compareInt64(bytecode.CondGt)
	case wasm.OpcodeI64LeS:
		return ft.compareInt64(bytecode.CondLe)
	case wasm.OpcodeI64GeS:
		return ft.compareInt64(bytecode.CondGe)
	case wasm.OpcodeI64LtU:
		return ft.compareUnsigned64(bytecode.CondLt)
	case wasm.OpcodeI64GtU:
		return ft.compareUnsigned64(bytecode.CondGt)
	case wasm.OpcodeI64LeU:
		return ft.compareUnsigned64(bytecode.CondLe)
	case wasm.OpcodeI64GeU:
		return ft.compareUnsigned64(bytecode.CondGe)

	case wasm.OpcodeF32Eq:
		return ft.compareFloat(bytecode.CondEq)
	case wasm.OpcodeF32Ne:
		return ft.compareFloat(bytecode.CondNe)
	case wasm.OpcodeF32Lt:
		return ft.compareFloat(bytecode.CondLt)
	case wasm.OpcodeF32Gt:
		return ft.compareFloat(bytecode.CondGt)
	case wasm.OpcodeF32Le:
		return ft.compareFloat(bytecode.CondLe)
	case wasm.OpcodeF32Ge:
		return ft.compareFloat(bytecode.CondGe)

	case wasm.OpcodeF64Eq:
		return ft.compareDouble(bytecode.CondEq)
	case wasm.OpcodeF64Ne:
		return ft.compareDouble(bytecode.CondNe)
	case wasm.OpcodeF64Lt:
		return ft.compareDouble(bytecode.CondLt)
	case wasm.OpcodeF64Gt:
		return ft.compareDouble(bytecode.CondGt)
	case wasm.OpcodeF64Le:
		return ft.compareDouble(bytecode.CondLe)
	case wasm.OpcodeF64Ge:
		return ft.compareDouble(bytecode.CondGe)
	}
	return UnsupportedFeatureError{Feature: "comparison opcode not implemented"}
}

// compareInt32 handles every signed/equality i32 comparison directly with
// if_icmp<cond>, which already implements WASM's two's-complement signed
// ordering for <,<=,>,>= and plain bit equality for ==/!=.
func (ft *funcTranslator) compareInt32(cond bytecode.Condition) error {
	ft.pop()
	ft.pop()
	return ft.pushBoolFromBranch(func(t, f label.Label) bytecode.BranchInstruction {
		return bytecode.IfICmp(cond, t, f)
	})
}

// compareUnsigned32 handles the four unsigned i32 comparisons via
// Integer.compareUnsigned, since the JVM has no unsigned int comparison
// opcode: the two operands are replaced by compareUnsigned's signed
// int result, which is then compared against zero with the same
// condition.
func (ft *funcTranslator) compareUnsigned32(cond bytecode.Condition) error {
	pool := ft.eb.cb.Constants()
	methodIdx, err := ft.t.jdkMethod(pool, ft.t.javaClasses.Lang.Integer, ft.t.javaMembers.IntegerCompareUnsigned)
	if err != nil {
		return err
	}
	ft.pop()
	ft.pop()
	ft.eb.push(verify.Integer())
	ft.eb.insn(bytecode.InvokeStatic(methodIdx))
	ft.eb.pop()
	return ft.pushBoolFromBranch(func(t, f label.Label) bytecode.BranchInstruction {
		return bytecode.If(cond, t, f)
	})
}

// compareInt64 reduces a signed i64 comparison to lcmp (which returns -1/0/1
// the same way Long.compare would) followed by an ifeq/ifne/iflt/... against
// zero.
func (ft *funcTranslator) compareInt64(cond bytecode.Condition) error {
	ft.pop()
	ft.pop()
	ft.eb.push(verify.Integer())
	ft.eb.insn(bytecode.LCmp())
	ft.eb.pop()
	return ft.pushBoolFromBranch(func(t, f label.Label) bytecode.BranchInstruction {
		return bytecode.If(cond, t, f)
	})
}

// compareUnsigned64 is compareInt64's unsigned counterpart, via
// Long.compareUnsigned.
func (ft *funcTranslator) compareUnsigned64(cond bytecode.Condition) error {
	pool := ft.eb.cb.Constants()
	methodIdx, err := ft.t.jdkMethod(pool, ft.t.javaClasses.Lang.Long, ft.t.javaMembers.LongCompareUnsigned)
	if err != nil {
		return err
	}
	ft.pop()
	ft.pop()
	ft.eb.push(verify.Integer())
	ft.eb.insn(bytecode.InvokeStatic(methodIdx))
	ft.eb.pop()
	return ft.pushBoolFromBranch(func(t, f label.Label) bytecode.BranchInstruction {
		return bytecode.If(cond, t, f)
	})
}

// compareFloat and compareDouble follow javac's own NaN-correct convention
// for compiling comparison operators: fcmpg/dcmpg (which reports an
// unordered operand pair as "greater") feeds <, <=, == and !=, while
// fcmpl/dcmpl (which reports unordered as "lesser") feeds > and >=. Either
// choice alone would get one direction wrong whenever a NaN is involved;
// together they make every one of the six operators agree with WASM's
// "any comparison against NaN is false, except !=" rule.
func (ft *funcTranslator) compareFloat(cond bytecode.Condition) error {
	ft.pop()
	ft.pop()
	ft.eb.push(verify.Integer())
	if usesCmpL(cond) {
		ft.eb.insn(bytecode.FCmpL())
	} else {
		ft.eb.insn(bytecode.FCmpG())
	}
	ft.eb.pop()
	return ft.pushBoolFromBranch(func(t, f label.Label) bytecode.BranchInstruction {
		return bytecode.If(cond, t, f)
	})
}

func (ft *funcTranslator) compareDouble(cond bytecode.Condition) error {
	ft.pop()
	ft.pop()
	ft.eb.push(verify.Integer())
	if usesCmpL(cond) {
		ft.eb.insn(bytecode.DCmpL())
	} else {
		ft.eb.insn(bytecode.DCmpG())
	}
	ft.eb.pop()
	return ft.pushBoolFromBranch(func(t, f label.Label) bytecode.BranchInstruction {
		return bytecode.If(cond, t, f)
	})
}

func usesCmpL(cond bytecode.Condition) bool {
	return cond == bytecode.CondGt || cond == bytecode.CondGe
}
