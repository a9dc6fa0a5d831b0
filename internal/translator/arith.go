package translator

import (
	"github.com/wasm2jar/wasm2jar/internal/bytecode"
	"github.com/wasm2jar/wasm2jar/internal/classgraph"
	"github.com/wasm2jar/wasm2jar/internal/verify"
	"github.com/wasm2jar/wasm2jar/internal/wasm"
)

// emitHelperCall calls a lazily generated helper (built by one of
// numeric.go's builders) against the top nargs values already on the
// operand stack, replacing them with its single result.
func (ft *funcTranslator) emitHelperCall(h *helperMethod, nargs int, result wasm.ValueType) error {
	pool := ft.eb.cb.Constants()
	callIdx, err := ft.t.callRef(pool, h)
	if err != nil {
		return err
	}
	for i := 0; i < nargs; i++ {
		ft.pop()
	}
	ft.push(result)
	ft.eb.insn(bytecode.InvokeStatic(callIdx))
	return nil
}

// emitStaticCall calls a plain (non-generated) JDK static method against
// the top nargs values on the stack.
func (ft *funcTranslator) emitStaticCall(owner *classgraph.ClassData, m *classgraph.MethodData, nargs int, result wasm.ValueType) error {
	pool := ft.eb.cb.Constants()
	methodIdx, err := ft.t.jdkMethod(pool, owner, m)
	if err != nil {
		return err
	}
	for i := 0; i < nargs; i++ {
		ft.pop()
	}
	ft.push(result)
	ft.eb.insn(bytecode.InvokeStatic(methodIdx))
	return nil
}

// emitStaticCallWiden is emitStaticCall for a JDK method that returns int
// (Integer/Long's clz/ctz/popcnt always do, even for the i64 input case)
// but whose WASM result is i64, widening the result with i2l afterward.
func (ft *funcTranslator) emitStaticCallWiden(owner *classgraph.ClassData, m *classgraph.MethodData, nargs int) error {
	pool := ft.eb.cb.Constants()
	methodIdx, err := ft.t.jdkMethod(pool, owner, m)
	if err != nil {
		return err
	}
	for i := 0; i < nargs; i++ {
		ft.pop()
	}
	ft.eb.push(verify.Integer())
	ft.eb.insn(bytecode.InvokeStatic(methodIdx))
	ft.eb.pop()
	ft.push(wasm.ValueTypeI64)
	ft.eb.insn(bytecode.I2L())
	return nil
}

func (ft *funcTranslator) emitUnary(insn bytecode.Instruction, result wasm.ValueType) error {
	ft.pop()
	ft.push(result)
	ft.eb.insn(insn)
	return nil
}

func (ft *funcTranslator) emitBinary(insn bytecode.Instruction, result wasm.ValueType) error {
	ft.pop()
	ft.pop()
	ft.push(result)
	ft.eb.insn(insn)
	return nil
}

// emitF32ViaF64 widens the f32 operand to double, calls a double-only Math
// method (ceil/floor/sqrt/rint have no float overload in the JDK), and
// narrows the result back.
func (ft *funcTranslator) emitF32ViaF64(m *classgraph.MethodData) error {
	ft.pop()
	ft.eb.push(verify.Double())
	ft.eb.insn(bytecode.F2D())
	ft.eb.pop()
	pool := ft.eb.cb.Constants()
	methodIdx, err := ft.t.jdkMethod(pool, ft.t.javaClasses.Lang.Math, m)
	if err != nil {
		return err
	}
	ft.eb.push(verify.Double())
	ft.eb.insn(bytecode.InvokeStatic(methodIdx))
	ft.eb.pop()
	ft.push(wasm.ValueTypeF32)
	ft.eb.insn(bytecode.D2F())
	return nil
}

// emitLongShift narrows the i64 shift-count operand on top of the stack to
// int before emitting insn (JVM's lshl/lshr/lushr all take an int distance
// operand, and l2i's truncation to the low 32 bits already preserves
// exactly the low 6 bits WASM's mod-64 shift count needs).
func (ft *funcTranslator) emitLongShift(insn bytecode.Instruction) error {
	count := ft.pop() // i64 shift count
	_ = count
	ft.eb.push(verify.Integer())
	ft.eb.insn(bytecode.L2I())
	ft.eb.pop() // transient int count, consumed by insn below
	ft.pop()    // the i64 value being shifted
	ft.push(wasm.ValueTypeI64)
	ft.eb.insn(insn)
	return nil
}

// emitLongRotate is emitLongShift's counterpart for Long.rotateLeft/
// rotateRight, whose distance parameter is likewise a plain int.
func (ft *funcTranslator) emitLongRotate(m *classgraph.MethodData) error {
	ft.pop() // i64 rotate distance
	ft.eb.push(verify.Integer())
	ft.eb.insn(bytecode.L2I())
	ft.eb.pop()
	ft.pop() // the i64 value being rotated
	pool := ft.eb.cb.Constants()
	methodIdx, err := ft.t.jdkMethod(pool, ft.t.javaClasses.Lang.Long, m)
	if err != nil {
		return err
	}
	ft.push(wasm.ValueTypeI64)
	ft.eb.insn(bytecode.InvokeStatic(methodIdx))
	return nil
}

// emitLongExtend implements i64.extend8_s/extend16_s: narrow to int,
// sign-extend at the named width, widen back to long.
func (ft *funcTranslator) emitLongExtend(narrow bytecode.Instruction) error {
	ft.pop()
	ft.eb.push(verify.Integer())
	ft.eb.insn(bytecode.L2I())
	ft.eb.pop()
	ft.eb.push(verify.Integer())
	ft.eb.insn(narrow)
	ft.eb.pop()
	ft.push(wasm.ValueTypeI64)
	ft.eb.insn(bytecode.I2L())
	return nil
}

// translateNumeric dispatches the i32.clz..i64.extend32_s opcode range:
// every arithmetic, bitwise, and conversion instruction that isn't a
// comparison, a constant push, or a memory/table access.
func (ft *funcTranslator) translateNumeric(op wasm.Opcode) error {
	jm := &ft.t.javaMembers
	jc := &ft.t.javaClasses

	switch op {
	// ---- i32 ----
	case wasm.OpcodeI32Clz:
		return ft.emitStaticCall(jc.Lang.Integer, jm.IntegerNumberOfLeadingZeros, 1, wasm.ValueTypeI32)
	case wasm.OpcodeI32Ctz:
		return ft.emitStaticCall(jc.Lang.Integer, jm.IntegerNumberOfTrailingZeros, 1, wasm.ValueTypeI32)
	case wasm.OpcodeI32Popcnt:
		return ft.emitStaticCall(jc.Lang.Integer, jm.IntegerBitCount, 1, wasm.ValueTypeI32)
	case wasm.OpcodeI32Add:
		return ft.emitBinary(bytecode.IAdd(), wasm.ValueTypeI32)
	case wasm.OpcodeI32Sub:
		return ft.emitBinary(bytecode.ISub(), wasm.ValueTypeI32)
	case wasm.OpcodeI32Mul:
		return ft.emitBinary(bytecode.IMul(), wasm.ValueTypeI32)
	case wasm.OpcodeI32DivS:
		h, err := ft.t.i32DivSHelper()
		if err != nil {
			return err
		}
		return ft.emitHelperCall(h, 2, wasm.ValueTypeI32)
	case wasm.OpcodeI32DivU:
		return ft.emitStaticCall(jc.Lang.Integer, jm.IntegerDivideUnsigned, 2, wasm.ValueTypeI32)
	case wasm.OpcodeI32RemS:
		return ft.emitBinary(bytecode.IRem(), wasm.ValueTypeI32)
	case wasm.OpcodeI32RemU:
		return ft.emitStaticCall(jc.Lang.Integer, jm.IntegerRemainderUnsigned, 2, wasm.ValueTypeI32)
	case wasm.OpcodeI32And:
		return ft.emitBinary(bytecode.IAnd(), wasm.ValueTypeI32)
	case wasm.OpcodeI32Or:
		return ft.emitBinary(bytecode.IOr(), wasm.ValueTypeI32)
	case wasm.OpcodeI32Xor:
		return ft.emitBinary(bytecode.IXor(), wasm.ValueTypeI32)
	case wasm.OpcodeI32Shl:
		return ft.emitBinary(bytecode.IShl(), wasm.ValueTypeI32)
	case wasm.OpcodeI32ShrS:
		return ft.emitBinary(bytecode.IShr(), wasm.ValueTypeI32)
	case wasm.OpcodeI32ShrU:
		return ft.emitBinary(bytecode.IUShr(), wasm.ValueTypeI32)
	case wasm.OpcodeI32Rotl:
		return ft.emitStaticCall(jc.Lang.Integer, jm.IntegerRotateLeft, 2, wasm.ValueTypeI32)
	case wasm.OpcodeI32Rotr:
		return ft.emitStaticCall(jc.Lang.Integer, jm.IntegerRotateRight, 2, wasm.ValueTypeI32)

	// ---- i64 ----
	case wasm.OpcodeI64Clz:
		return ft.emitStaticCallWiden(jc.Lang.Long, jm.LongNumberOfLeadingZeros, 1)
	case wasm.OpcodeI64Ctz:
		return ft.emitStaticCallWiden(jc.Lang.Long, jm.LongNumberOfTrailingZeros, 1)
	case wasm.OpcodeI64Popcnt:
		return ft.emitStaticCallWiden(jc.Lang.Long, jm.LongBitCount, 1)
	case wasm.OpcodeI64Add:
		return ft.emitBinary(bytecode.LAdd(), wasm.ValueTypeI64)
	case wasm.OpcodeI64Sub:
		return ft.emitBinary(bytecode.LSub(), wasm.ValueTypeI64)
	case wasm.OpcodeI64Mul:
		return ft.emitBinary(bytecode.LMul(), wasm.ValueTypeI64)
	case wasm.OpcodeI64DivS:
		h, err := ft.t.i64DivSHelper()
		if err != nil {
			return err
		}
		return ft.emitHelperCall(h, 2, wasm.ValueTypeI64)
	case wasm.OpcodeI64DivU:
		return ft.emitStaticCall(jc.Lang.Long, jm.LongDivideUnsigned, 2, wasm.ValueTypeI64)
	case wasm.OpcodeI64RemS:
		return ft.emitBinary(bytecode.LRem(), wasm.ValueTypeI64)
	case wasm.OpcodeI64RemU:
		return ft.emitStaticCall(jc.Lang.Long, jm.LongRemainderUnsigned, 2, wasm.ValueTypeI64)
	case wasm.OpcodeI64And:
		return ft.emitBinary(bytecode.LAnd(), wasm.ValueTypeI64)
	case wasm.OpcodeI64Or:
		return ft.emitBinary(bytecode.LOr(), wasm.ValueTypeI64)
	case wasm.OpcodeI64Xor:
		return ft.emitBinary(bytecode.LXor(), wasm.ValueTypeI64)
	case wasm.OpcodeI64Shl:
		return ft.emitLongShift(bytecode.LShl())
	case wasm.OpcodeI64ShrS:
		return ft.emitLongShift(bytecode.LShr())
	case wasm.OpcodeI64ShrU:
		return ft.emitLongShift(bytecode.LUShr())
	case wasm.OpcodeI64Rotl:
		return ft.emitLongRotate(jm.LongRotateLeft)
	case wasm.OpcodeI64Rotr:
		return ft.emitLongRotate(jm.LongRotateRight)

	// ---- f32 ----
	case wasm.OpcodeF32Abs:
		return ft.emitStaticCall(jc.Lang.Math, jm.MathAbsFloat, 1, wasm.ValueTypeF32)
	case wasm.OpcodeF32Neg:
		return ft.emitUnary(bytecode.FNeg(), wasm.ValueTypeF32)
	case wasm.OpcodeF32Ceil:
		return ft.emitF32ViaF64(jm.MathCeil)
	case wasm.OpcodeF32Floor:
		return ft.emitF32ViaF64(jm.MathFloor)
	case wasm.OpcodeF32Trunc:
		h, err := ft.t.f32TruncHelper()
		if err != nil {
			return err
		}
		return ft.emitHelperCall(h, 1, wasm.ValueTypeF32)
	case wasm.OpcodeF32Nearest:
		return ft.emitF32ViaF64(jm.MathRint)
	case wasm.OpcodeF32Sqrt:
		return ft.emitF32ViaF64(jm.MathSqrt)
	case wasm.OpcodeF32Add:
		return ft.emitBinary(bytecode.FAdd(), wasm.ValueTypeF32)
	case wasm.OpcodeF32Sub:
		return ft.emitBinary(bytecode.FSub(), wasm.ValueTypeF32)
	case wasm.OpcodeF32Mul:
		return ft.emitBinary(bytecode.FMul(), wasm.ValueTypeF32)
	case wasm.OpcodeF32Div:
		return ft.emitBinary(bytecode.FDiv(), wasm.ValueTypeF32)
	case wasm.OpcodeF32Min:
		return ft.emitStaticCall(jc.Lang.Math, jm.MathMinFloat, 2, wasm.ValueTypeF32)
	case wasm.OpcodeF32Max:
		return ft.emitStaticCall(jc.Lang.Math, jm.MathMaxFloat, 2, wasm.ValueTypeF32)
	case wasm.OpcodeF32Copysign:
		return ft.emitStaticCall(jc.Lang.Math, jm.MathCopySignFloat, 2, wasm.ValueTypeF32)

	// ---- f64 ----
	case wasm.OpcodeF64Abs:
		return ft.emitStaticCall(jc.Lang.Math, jm.MathAbsDouble, 1, wasm.ValueTypeF64)
	case wasm.OpcodeF64Neg:
		return ft.emitUnary(bytecode.DNeg(), wasm.ValueTypeF64)
	case wasm.OpcodeF64Ceil:
		return ft.emitStaticCall(jc.Lang.Math, jm.MathCeil, 1, wasm.ValueTypeF64)
	case wasm.OpcodeF64Floor:
		return ft.emitStaticCall(jc.Lang.Math, jm.MathFloor, 1, wasm.ValueTypeF64)
	case wasm.OpcodeF64Trunc:
		h, err := ft.t.f64TruncHelper()
		if err != nil {
			return err
		}
		return ft.emitHelperCall(h, 1, wasm.ValueTypeF64)
	case wasm.OpcodeF64Nearest:
		return ft.emitStaticCall(jc.Lang.Math, jm.MathRint, 1, wasm.ValueTypeF64)
	case wasm.OpcodeF64Sqrt:
		return ft.emitStaticCall(jc.Lang.Math, jm.MathSqrt, 1, wasm.ValueTypeF64)
	case wasm.OpcodeF64Add:
		return ft.emitBinary(bytecode.DAdd(), wasm.ValueTypeF64)
	case wasm.OpcodeF64Sub:
		return ft.emitBinary(bytecode.DSub(), wasm.ValueTypeF64)
	case wasm.OpcodeF64Mul:
		return ft.emitBinary(bytecode.DMul(), wasm.ValueTypeF64)
	case wasm.OpcodeF64Div:
		return ft.emitBinary(bytecode.DDiv(), wasm.ValueTypeF64)
	case wasm.OpcodeF64Min:
		return ft.emitStaticCall(jc.Lang.Math, jm.MathMinDouble, 2, wasm.ValueTypeF64)
	case wasm.OpcodeF64Max:
		return ft.emitStaticCall(jc.Lang.Math, jm.MathMaxDouble, 2, wasm.ValueTypeF64)
	case wasm.OpcodeF64Copysign:
		return ft.emitStaticCall(jc.Lang.Math, jm.MathCopySign, 2, wasm.ValueTypeF64)

	// ---- conversions ----
	case wasm.OpcodeI32WrapI64:
		return ft.emitUnary(bytecode.L2I(), wasm.ValueTypeI32)
	case wasm.OpcodeI32TruncF32S:
		return ft.callTruncHelper(ft.t.i32TruncF32SHelper, wasm.ValueTypeI32)
	case wasm.OpcodeI32TruncF32U:
		return ft.callTruncHelper(ft.t.i32TruncF32UHelper, wasm.ValueTypeI32)
	case wasm.OpcodeI32TruncF64S:
		return ft.callTruncHelper(ft.t.i32TruncF64SHelper, wasm.ValueTypeI32)
	case wasm.OpcodeI32TruncF64U:
		return ft.callTruncHelper(ft.t.i32TruncF64UHelper, wasm.ValueTypeI32)
	case wasm.OpcodeI64ExtendI32S:
		return ft.emitUnary(bytecode.I2L(), wasm.ValueTypeI64)
	case wasm.OpcodeI64ExtendI32U:
		h, err := ft.t.i64ExtendI32UHelper()
		if err != nil {
			return err
		}
		return ft.emitHelperCall(h, 1, wasm.ValueTypeI64)
	case wasm.OpcodeI64TruncF32S:
		return ft.callTruncHelper(ft.t.i64TruncF32SHelper, wasm.ValueTypeI64)
	case wasm.OpcodeI64TruncF32U:
		return ft.callTruncHelper(ft.t.i64TruncF32UHelper, wasm.ValueTypeI64)
	case wasm.OpcodeI64TruncF64S:
		return ft.callTruncHelper(ft.t.i64TruncF64SHelper, wasm.ValueTypeI64)
	case wasm.OpcodeI64TruncF64U:
		return ft.callTruncHelper(ft.t.i64TruncF64UHelper, wasm.ValueTypeI64)
	case wasm.OpcodeF32ConvertI32S:
		return ft.emitUnary(bytecode.I2F(), wasm.ValueTypeF32)
	case wasm.OpcodeF32ConvertI32U:
		h, err := ft.t.f32ConvertI32UHelper()
		if err != nil {
			return err
		}
		return ft.emitHelperCall(h, 1, wasm.ValueTypeF32)
	case wasm.OpcodeF32ConvertI64S:
		return ft.emitUnary(bytecode.L2F(), wasm.ValueTypeF32)
	case wasm.OpcodeF32ConvertI64U:
		h, err := ft.t.f32ConvertI64UHelper()
		if err != nil {
			return err
		}
		return ft.emitHelperCall(h, 1, wasm.ValueTypeF32)
	case wasm.OpcodeF32DemoteF64:
		return ft.emitUnary(bytecode.D2F(), wasm.ValueTypeF32)
	case wasm.OpcodeF64ConvertI32S:
		return ft.emitUnary(bytecode.I2D(), wasm.ValueTypeF64)
	case wasm.OpcodeF64ConvertI32U:
		h, err := ft.t.f64ConvertI32UHelper()
		if err != nil {
			return err
		}
		return ft.emitHelperCall(h, 1, wasm.ValueTypeF64)
	case wasm.OpcodeF64ConvertI64S:
		return ft.emitUnary(bytecode.L2D(), wasm.ValueTypeF64)
	case wasm.OpcodeF64ConvertI64U:
		h, err := ft.t.f64ConvertI64UHelper()
		if err != nil {
			return err
		}
		return ft.emitHelperCall(h, 1, wasm.ValueTypeF64)
	case wasm.OpcodeF64PromoteF32:
		return ft.emitUnary(bytecode.F2D(), wasm.ValueTypeF64)

	case wasm.OpcodeI32ReinterpretF32:
		return ft.emitStaticCall(jc.Lang.Float, jm.FloatToRawIntBits, 1, wasm.ValueTypeI32)
	case wasm.OpcodeF32ReinterpretI32:
		return ft.emitStaticCall(jc.Lang.Float, jm.FloatIntBitsToFloat, 1, wasm.ValueTypeF32)
	case wasm.OpcodeI64ReinterpretF64:
		return ft.emitStaticCall(jc.Lang.Double, jm.DoubleToRawLongBits, 1, wasm.ValueTypeI64)
	case wasm.OpcodeF64ReinterpretI64:
		return ft.emitStaticCall(jc.Lang.Double, jm.DoubleLongBitsToDouble, 1, wasm.ValueTypeF64)

	case wasm.OpcodeI32Extend8S:
		return ft.emitExtend32(bytecode.I2B())
	case wasm.OpcodeI32Extend16S:
		return ft.emitExtend32(bytecode.I2S())
	case wasm.OpcodeI64Extend8S:
		return ft.emitLongExtend(bytecode.I2B())
	case wasm.OpcodeI64Extend16S:
		return ft.emitLongExtend(bytecode.I2S())
	case wasm.OpcodeI64Extend32S:
		ft.pop()
		ft.push(wasm.ValueTypeI64)
		ft.eb.insn(bytecode.L2I())
		ft.eb.pop()
		ft.eb.push(verify.Long())
		ft.eb.insn(bytecode.I2L())
		return nil
	}
	return UnsupportedFeatureError{Feature: "numeric opcode not implemented"}
}

// emitExtend32 implements i32.extend8_s/extend16_s directly: both are a
// single narrowing-then-widening conversion within the int stack slot.
func (ft *funcTranslator) emitExtend32(insn bytecode.Instruction) error {
	return ft.emitUnary(insn, wasm.ValueTypeI32)
}

func (ft *funcTranslator) callTruncHelper(get func() (*helperMethod, error), result wasm.ValueType) error {
	h, err := get()
	if err != nil {
		return err
	}
	return ft.emitHelperCall(h, 1, result)
}

// translateTruncSat dispatches the 8 non-trapping (saturating) truncation
// opcodes the 0xFC misc prefix introduces.
func (ft *funcTranslator) translateTruncSat(op wasm.Opcode) error {
	t := ft.t
	switch op {
	case wasm.MiscI32TruncSatF32S:
		return ft.callTruncHelper(t.i32TruncSatF32SHelper, wasm.ValueTypeI32)
	case wasm.MiscI32TruncSatF32U:
		return ft.callTruncHelper(t.i32TruncSatF32UHelper, wasm.ValueTypeI32)
	case wasm.MiscI32TruncSatF64S:
		return ft.callTruncHelper(t.i32TruncSatF64SHelper, wasm.ValueTypeI32)
	case wasm.MiscI32TruncSatF64U:
		return ft.callTruncHelper(t.i32TruncSatF64UHelper, wasm.ValueTypeI32)
	case wasm.MiscI64TruncSatF32S:
		return ft.callTruncHelper(t.i64TruncSatF32SHelper, wasm.ValueTypeI64)
	case wasm.MiscI64TruncSatF32U:
		return ft.callTruncHelper(t.i64TruncSatF32UHelper, wasm.ValueTypeI64)
	case wasm.MiscI64TruncSatF64S:
		return ft.callTruncHelper(t.i64TruncSatF64SHelper, wasm.ValueTypeI64)
	case wasm.MiscI64TruncSatF64U:
		return ft.callTruncHelper(t.i64TruncSatF64UHelper, wasm.ValueTypeI64)
	}
	return UnsupportedFeatureError{Feature: "trunc_sat opcode not implemented"}
}
