package translator

import (
	"github.com/wasm2jar/wasm2jar/internal/bytecode"
	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
	"github.com/wasm2jar/wasm2jar/internal/label"
	"github.com/wasm2jar/wasm2jar/internal/verify"
)

// helperMethod names a static method generated once on some part class and
// shared by every call site that needs it (e.g. two i32.div_s instructions
// in different functions both reach for the same i32DivS helper).
type helperMethod struct {
	owner *partBuilder
	name  jvmname.UnqualifiedName
	desc  jvmname.MethodDescriptor
}

// callRef interns a MethodRef for h against pool; every call site has its
// own constant pool, so this is cheap to call repeatedly.
func (t *moduleTranslator) callRef(pool *classfile.ConstantPool, h *helperMethod) (classfile.Index, error) {
	return pool.MethodRefByName(h.owner.name, h.name, h.desc, false)
}

// buildHelper lazily constructs a static helper method keyed by key,
// generating its body with emit and registering it on whatever part class
// is currently accepting new code.
func (t *moduleTranslator) buildHelper(key string, name jvmname.UnqualifiedName, params []jvmname.FieldType, ret *jvmname.FieldType, emit func(eb *exprBuilder, pool *classfile.ConstantPool) error) (*helperMethod, error) {
	if h, ok := t.helperMethods[key]; ok {
		return h, nil
	}
	part, err := t.partFor(8, 96)
	if err != nil {
		return nil, err
	}
	desc := jvmname.NewMethodDescriptor(params, ret)
	entryLocals := make([]verify.Type, 0, len(params))
	for _, p := range params {
		entryLocals = append(entryLocals, verify.FromFieldType(p, t.resolveClass))
	}
	pool := part.builder.Constants()
	cb := bytecode.NewCodeBuilder(pool, entryLocals)
	eb := newExprBuilder(cb, verify.NewFrame(entryLocals))
	if err := emit(eb, pool); err != nil {
		return nil, err
	}
	code, err := cb.Result()
	if err != nil {
		return nil, err
	}
	if err := part.builder.AddMethod(jvmname.MethodStatic, name, desc, []classfile.Attribute{*code}); err != nil {
		return nil, err
	}
	part.charge(8, 96)
	h := &helperMethod{owner: part, name: name, desc: desc}
	t.helperMethods[key] = h
	return h, nil
}

// emitThrow builds "throw new excClass(msg)" against eb, which must be the
// only thing happening in the current block (no label is placed between
// the `new` and the `athrow`, so the verifier's uninitialized-this tracking
// never has to survive a merge point and this loose Object-typed push is
// safe for our own frame bookkeeping).
func (t *moduleTranslator) emitThrow(eb *exprBuilder, pool *classfile.ConstantPool, excClass jvmname.BinaryName, msg string) error {
	classIdx, err := pool.ClassByName(excClass.String())
	if err != nil {
		return err
	}
	ctorDesc := jvmname.NewMethodDescriptor([]jvmname.FieldType{jvmname.Object(jvmname.String_)}, nil)
	ctorIdx, err := pool.MethodRefByName(excClass, jvmname.Init_, ctorDesc, false)
	if err != nil {
		return err
	}
	msgUTF8, err := pool.UTF8(msg)
	if err != nil {
		return err
	}
	msgIdx, err := pool.String(msgUTF8)
	if err != nil {
		return err
	}
	excType := verify.Object(t.resolveClass(excClass))
	eb.insn(bytecode.New(classIdx))
	eb.push(excType)
	eb.insn(bytecode.Dup())
	eb.push(excType)
	eb.insn(bytecode.Ldc(msgIdx))
	eb.push(verify.Object(t.javaClasses.Lang.String))
	eb.insn(bytecode.InvokeSpecial(ctorIdx))
	eb.pop()
	eb.pop()
	eb.branch(bytecode.AThrow())
	return nil
}

func fieldTypeOf(b jvmname.BaseType) jvmname.FieldType { return jvmname.Base(b) }

// emitUnreachable implements the `unreachable` instruction directly inline
// rather than through a shared zero-argument helper method: the
// instruction never returns, so a shared static method would need a return
// type none of its callers ever actually use.
func (t *moduleTranslator) emitUnreachable(eb *exprBuilder, pool *classfile.ConstantPool) error {
	return t.emitThrow(eb, pool, jvmname.RuntimeException, "unreachable executed")
}

// i32DivSHelper implements i32.div_s's one case JVM's idiv doesn't already
// reject the way WASM wants: dividing Int.MIN_VALUE by -1, which idiv wraps
// silently instead of trapping. Division by zero already throws
// ArithmeticException from idiv itself, so that case needs no help here.
func (t *moduleTranslator) i32DivSHelper() (*helperMethod, error) {
	i := fieldTypeOf(jvmname.Int)
	return t.buildHelper("i32DivS", jvmname.I32DivS, []jvmname.FieldType{i, i}, &i, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		minIdx, err := pool.Integer(-2147483648)
		if err != nil {
			return err
		}
		cont1 := eb.fresh()
		cont2 := eb.fresh()
		divide := eb.fresh()

		// if (b != -1) goto divide
		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(1))
		eb.push(verify.Integer())
		eb.insn(bytecode.IConst(-1))
		eb.pop()
		eb.pop()
		eb.branch(bytecode.IfICmp(bytecode.CondNe, divide, cont1))
		if err := eb.place(cont1); err != nil {
			return err
		}

		// if (a != MIN_VALUE) goto divide
		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(0))
		eb.push(verify.Integer())
		eb.insn(bytecode.Ldc(minIdx))
		eb.pop()
		eb.pop()
		eb.branch(bytecode.IfICmp(bytecode.CondNe, divide, cont2))
		if err := eb.place(cont2); err != nil {
			return err
		}
		if err := t.emitThrow(eb, pool, jvmname.ArithmeticException, "integer overflow"); err != nil {
			return err
		}

		if err := eb.place(divide); err != nil {
			return err
		}
		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(0))
		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(1))
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.IDiv())
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnInt))
		return nil
	})
}

// i64DivSHelper is i32DivSHelper's long-width counterpart: ldiv already
// traps on division by zero, so only Long.MIN_VALUE / -1 needs a guard.
func (t *moduleTranslator) i64DivSHelper() (*helperMethod, error) {
	l := fieldTypeOf(jvmname.Long)
	return t.buildHelper("i64DivS", jvmname.I64DivS, []jvmname.FieldType{l, l}, &l, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		minusOneIdx, err := pool.Long(-1)
		if err != nil {
			return err
		}
		minIdx, err := pool.Long(-9223372036854775808)
		if err != nil {
			return err
		}
		cont1 := eb.fresh()
		cont2 := eb.fresh()
		divide := eb.fresh()

		eb.push(verify.Long())
		eb.insn(bytecode.LLoad(1))
		eb.push(verify.Long())
		eb.insn(bytecode.Ldc2W(minusOneIdx))
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.LCmp())
		eb.pop()
		eb.branch(bytecode.If(bytecode.CondNe, divide, cont1))
		if err := eb.place(cont1); err != nil {
			return err
		}

		eb.push(verify.Long())
		eb.insn(bytecode.LLoad(0))
		eb.push(verify.Long())
		eb.insn(bytecode.Ldc2W(minIdx))
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.LCmp())
		eb.pop()
		eb.branch(bytecode.If(bytecode.CondNe, divide, cont2))
		if err := eb.place(cont2); err != nil {
			return err
		}
		if err := t.emitThrow(eb, pool, jvmname.ArithmeticException, "integer overflow"); err != nil {
			return err
		}

		if err := eb.place(divide); err != nil {
			return err
		}
		eb.push(verify.Long())
		eb.insn(bytecode.LLoad(0))
		eb.push(verify.Long())
		eb.insn(bytecode.LLoad(1))
		eb.pop()
		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.LDiv())
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnLong))
		return nil
	})
}

// truncBounds are the open interval a floating-point value must fall
// strictly inside for a trapping truncation to succeed: the helper traps
// when the source is <= low or >= high (which also catches NaN, since an
// unordered dcmpg/fcmpg comparison against the high bound always reports
// "greater").
type truncBounds struct {
	low, high float64
}

var (
	i32SignedBounds   = truncBounds{low: -2147483649.0, high: 2147483648.0}
	i32UnsignedBounds = truncBounds{low: -1.0, high: 4294967296.0}
	// -2^63-1 is not a double (it rounds to -2^63); the next double below
	// -2^63 is -2^63-2048.
	i64SignedBounds   = truncBounds{low: -9223372036854777856.0, high: 9223372036854775808.0}
	i64UnsignedBounds = truncBounds{low: -1.0, high: 18446744073709551616.0}
)

// emitWidenToDouble loads local 0 (the helper's sole parameter) as src and
// widens it to a double, leaving exactly that double on the stack.
func emitWidenToDouble(eb *exprBuilder, src jvmname.BaseType) {
	switch src {
	case jvmname.Float:
		eb.push(verify.Float())
		eb.insn(bytecode.FLoad(0))
		eb.pop()
		eb.push(verify.Double())
		eb.insn(bytecode.F2D())
	default:
		eb.push(verify.Double())
		eb.insn(bytecode.DLoad(0))
	}
}

// emitTruncRangeCheck guards the double currently on top of eb's stack
// against bounds, without consuming it: the caller gets back a trap label
// it must place and fill in (with emitThrow) once it is done using the
// validated value on the "ok" path.
func (t *moduleTranslator) emitTruncRangeCheck(eb *exprBuilder, pool *classfile.ConstantPool, bounds truncBounds) (label.Label, error) {
	lowIdx, err := pool.Double(bounds.low)
	if err != nil {
		return label.Label{}, err
	}
	highIdx, err := pool.Double(bounds.high)
	if err != nil {
		return label.Label{}, err
	}
	trap := eb.fresh()
	cont := eb.fresh()
	ok := eb.fresh()

	eb.push(verify.Double())
	eb.insn(bytecode.Dup2())
	eb.push(verify.Double())
	eb.insn(bytecode.Ldc2W(lowIdx))
	eb.pop()
	eb.pop()
	eb.push(verify.Integer())
	eb.insn(bytecode.DCmpG())
	eb.pop()
	eb.branch(bytecode.If(bytecode.CondLe, trap, cont))
	if err := eb.place(cont); err != nil {
		return label.Label{}, err
	}

	eb.push(verify.Double())
	eb.insn(bytecode.Dup2())
	eb.push(verify.Double())
	eb.insn(bytecode.Ldc2W(highIdx))
	eb.pop()
	eb.pop()
	eb.push(verify.Integer())
	eb.insn(bytecode.DCmpG())
	eb.pop()
	eb.branch(bytecode.If(bytecode.CondGe, trap, ok))
	if err := eb.place(ok); err != nil {
		return label.Label{}, err
	}
	return trap, nil
}

// buildSignedTrunc builds a trapping float/double-to-int/long truncation
// helper: javac's own f2i/f2l/d2i/d2l narrowing conversions saturate
// instead of trapping, which is wrong for WASM's non-saturating trunc
// instructions, so the range has to be checked by hand first.
func (t *moduleTranslator) buildSignedTrunc(key string, name jvmname.UnqualifiedName, src, dst jvmname.BaseType, bounds truncBounds) (*helperMethod, error) {
	s := fieldTypeOf(src)
	d := fieldTypeOf(dst)
	return t.buildHelper(key, name, []jvmname.FieldType{s}, &d, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		emitWidenToDouble(eb, src)
		trap, err := t.emitTruncRangeCheck(eb, pool, bounds)
		if err != nil {
			return err
		}
		eb.pop()
		switch dst {
		case jvmname.Int:
			eb.push(verify.Integer())
			eb.insn(bytecode.D2I())
			eb.pop()
			eb.branch(bytecode.Return(bytecode.ReturnInt))
		default:
			eb.push(verify.Long())
			eb.insn(bytecode.D2L())
			eb.pop()
			eb.branch(bytecode.Return(bytecode.ReturnLong))
		}
		if err := eb.place(trap); err != nil {
			return err
		}
		return t.emitThrow(eb, pool, jvmname.ArithmeticException, "invalid conversion to integer")
	})
}

// buildUnsignedTruncI32 builds a trapping float/double-to-unsigned-i32
// helper. The result fits in a plain int stack slot (its top bit is just
// part of the unsigned value, not a sign).
func (t *moduleTranslator) buildUnsignedTruncI32(key string, name jvmname.UnqualifiedName, src jvmname.BaseType, bounds truncBounds) (*helperMethod, error) {
	s := fieldTypeOf(src)
	i := fieldTypeOf(jvmname.Int)
	return t.buildHelper(key, name, []jvmname.FieldType{s}, &i, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		emitWidenToDouble(eb, src)
		trap, err := t.emitTruncRangeCheck(eb, pool, bounds)
		if err != nil {
			return err
		}
		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.D2L())
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.L2I())
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnInt))
		if err := eb.place(trap); err != nil {
			return err
		}
		return t.emitThrow(eb, pool, jvmname.ArithmeticException, "invalid conversion to integer")
	})
}

// emitUnsignedDoubleToLong converts a validated double known to lie in
// [0, 2^64) into the long whose bit pattern is that value's unsigned
// 64-bit representation, returning it. Values under 2^63 convert directly;
// values at or above it are brought into range by subtracting 2^63 first,
// then the sign bit is flipped back on with xor.
func (t *moduleTranslator) emitUnsignedDoubleToLong(eb *exprBuilder, pool *classfile.ConstantPool) error {
	thresholdIdx, err := pool.Double(9223372036854775808.0)
	if err != nil {
		return err
	}
	minLongIdx, err := pool.Long(-9223372036854775808)
	if err != nil {
		return err
	}
	simple := eb.fresh()
	big := eb.fresh()

	eb.push(verify.Double())
	eb.insn(bytecode.Dup2())
	eb.push(verify.Double())
	eb.insn(bytecode.Ldc2W(thresholdIdx))
	eb.pop()
	eb.pop()
	eb.push(verify.Integer())
	eb.insn(bytecode.DCmpG())
	eb.pop()
	eb.branch(bytecode.If(bytecode.CondLt, simple, big))

	if err := eb.place(simple); err != nil {
		return err
	}
	eb.pop()
	eb.push(verify.Long())
	eb.insn(bytecode.D2L())
	eb.pop()
	eb.branch(bytecode.Return(bytecode.ReturnLong))

	if err := eb.place(big); err != nil {
		return err
	}
	eb.push(verify.Double())
	eb.insn(bytecode.Ldc2W(thresholdIdx))
	eb.pop()
	eb.pop()
	eb.push(verify.Double())
	eb.insn(bytecode.DSub())
	eb.pop()
	eb.push(verify.Long())
	eb.insn(bytecode.D2L())
	eb.push(verify.Long())
	eb.insn(bytecode.Ldc2W(minLongIdx))
	eb.pop()
	eb.pop()
	eb.push(verify.Long())
	eb.insn(bytecode.LXor())
	eb.pop()
	eb.branch(bytecode.Return(bytecode.ReturnLong))
	return nil
}

// buildUnsignedTruncI64 builds a trapping float/double-to-unsigned-i64
// helper.
func (t *moduleTranslator) buildUnsignedTruncI64(key string, name jvmname.UnqualifiedName, src jvmname.BaseType) (*helperMethod, error) {
	s := fieldTypeOf(src)
	l := fieldTypeOf(jvmname.Long)
	return t.buildHelper(key, name, []jvmname.FieldType{s}, &l, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		emitWidenToDouble(eb, src)
		trap, err := t.emitTruncRangeCheck(eb, pool, i64UnsignedBounds)
		if err != nil {
			return err
		}
		if err := t.emitUnsignedDoubleToLong(eb, pool); err != nil {
			return err
		}
		if err := eb.place(trap); err != nil {
			return err
		}
		return t.emitThrow(eb, pool, jvmname.ArithmeticException, "invalid conversion to integer")
	})
}

// buildSatUnsignedTruncI32 builds a clamping (non-trapping) float/double to
// unsigned-i32 helper: NaN and values at or below -1 clamp to 0, values at
// or above 2^32 clamp to all-ones, everything else truncates normally.
func (t *moduleTranslator) buildSatUnsignedTruncI32(key string, name jvmname.UnqualifiedName, src jvmname.BaseType) (*helperMethod, error) {
	s := fieldTypeOf(src)
	i := fieldTypeOf(jvmname.Int)
	return t.buildHelper(key, name, []jvmname.FieldType{s}, &i, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		emitWidenToDouble(eb, src)
		lowIdx, err := pool.Double(-1.0)
		if err != nil {
			return err
		}
		highIdx, err := pool.Double(4294967296.0)
		if err != nil {
			return err
		}

		zero := eb.fresh()
		afterNaN := eb.fresh()
		afterLow := eb.fresh()
		allOnes := eb.fresh()
		normal := eb.fresh()

		eb.push(verify.Double())
		eb.insn(bytecode.Dup2())
		eb.push(verify.Double())
		eb.insn(bytecode.Dup2())
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.DCmpG())
		eb.pop()
		eb.branch(bytecode.If(bytecode.CondNe, zero, afterNaN))
		if err := eb.place(afterNaN); err != nil {
			return err
		}

		eb.push(verify.Double())
		eb.insn(bytecode.Dup2())
		eb.push(verify.Double())
		eb.insn(bytecode.Ldc2W(lowIdx))
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.DCmpG())
		eb.pop()
		eb.branch(bytecode.If(bytecode.CondLe, zero, afterLow))
		if err := eb.place(afterLow); err != nil {
			return err
		}

		eb.push(verify.Double())
		eb.insn(bytecode.Dup2())
		eb.push(verify.Double())
		eb.insn(bytecode.Ldc2W(highIdx))
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.DCmpG())
		eb.pop()
		eb.branch(bytecode.If(bytecode.CondGe, allOnes, normal))
		if err := eb.place(normal); err != nil {
			return err
		}

		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.D2L())
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.L2I())
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnInt))

		if err := eb.place(zero); err != nil {
			return err
		}
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.IConst(0))
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnInt))

		if err := eb.place(allOnes); err != nil {
			return err
		}
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.IConst(-1))
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnInt))
		return nil
	})
}

// emitUnsignedDoubleToLongNoTrap is emitUnsignedDoubleToLong's counterpart
// for call sites that have already clamped the source into [0, 2^64) by
// hand and need no further guard.
func (t *moduleTranslator) emitUnsignedDoubleToLongNoTrap(eb *exprBuilder, pool *classfile.ConstantPool) error {
	return t.emitUnsignedDoubleToLong(eb, pool)
}

// buildSatUnsignedTruncI64 is buildSatUnsignedTruncI32's long-width
// counterpart.
func (t *moduleTranslator) buildSatUnsignedTruncI64(key string, name jvmname.UnqualifiedName, src jvmname.BaseType) (*helperMethod, error) {
	s := fieldTypeOf(src)
	l := fieldTypeOf(jvmname.Long)
	return t.buildHelper(key, name, []jvmname.FieldType{s}, &l, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		emitWidenToDouble(eb, src)
		lowIdx, err := pool.Double(-1.0)
		if err != nil {
			return err
		}
		highIdx, err := pool.Double(18446744073709551616.0)
		if err != nil {
			return err
		}

		zero := eb.fresh()
		afterNaN := eb.fresh()
		afterLow := eb.fresh()
		allOnes := eb.fresh()
		normal := eb.fresh()

		eb.push(verify.Double())
		eb.insn(bytecode.Dup2())
		eb.push(verify.Double())
		eb.insn(bytecode.Dup2())
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.DCmpG())
		eb.pop()
		eb.branch(bytecode.If(bytecode.CondNe, zero, afterNaN))
		if err := eb.place(afterNaN); err != nil {
			return err
		}

		eb.push(verify.Double())
		eb.insn(bytecode.Dup2())
		eb.push(verify.Double())
		eb.insn(bytecode.Ldc2W(lowIdx))
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.DCmpG())
		eb.pop()
		eb.branch(bytecode.If(bytecode.CondLe, zero, afterLow))
		if err := eb.place(afterLow); err != nil {
			return err
		}

		eb.push(verify.Double())
		eb.insn(bytecode.Dup2())
		eb.push(verify.Double())
		eb.insn(bytecode.Ldc2W(highIdx))
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.DCmpG())
		eb.pop()
		eb.branch(bytecode.If(bytecode.CondGe, allOnes, normal))
		if err := eb.place(normal); err != nil {
			return err
		}

		if err := t.emitUnsignedDoubleToLongNoTrap(eb, pool); err != nil {
			return err
		}

		if err := eb.place(zero); err != nil {
			return err
		}
		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.LConst0())
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnLong))

		if err := eb.place(allOnes); err != nil {
			return err
		}
		eb.pop()
		negOneIdx, err := pool.Long(-1)
		if err != nil {
			return err
		}
		eb.push(verify.Long())
		eb.insn(bytecode.Ldc2W(negOneIdx))
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnLong))
		return nil
	})
}

// buildSatSignedTrunc builds a clamping (non-trapping) float/double-to-
// signed-int/long helper: NaN clamps to 0, values at or below bounds.low
// clamp to the destination's minimum, values at or above bounds.high clamp
// to its maximum, everything else truncates normally. Mirrors
// buildSatUnsignedTruncI32/I64's NaN-via-self-comparison branch chain.
func (t *moduleTranslator) buildSatSignedTrunc(key string, name jvmname.UnqualifiedName, src, dst jvmname.BaseType, bounds truncBounds) (*helperMethod, error) {
	s := fieldTypeOf(src)
	d := fieldTypeOf(dst)
	return t.buildHelper(key, name, []jvmname.FieldType{s}, &d, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		emitWidenToDouble(eb, src)
		lowIdx, err := pool.Double(bounds.low)
		if err != nil {
			return err
		}
		highIdx, err := pool.Double(bounds.high)
		if err != nil {
			return err
		}

		zero := eb.fresh()
		afterNaN := eb.fresh()
		afterLow := eb.fresh()
		minVal := eb.fresh()
		normal := eb.fresh()

		eb.push(verify.Double())
		eb.insn(bytecode.Dup2())
		eb.push(verify.Double())
		eb.insn(bytecode.Dup2())
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.DCmpG())
		eb.pop()
		eb.branch(bytecode.If(bytecode.CondNe, zero, afterNaN))
		if err := eb.place(afterNaN); err != nil {
			return err
		}

		eb.push(verify.Double())
		eb.insn(bytecode.Dup2())
		eb.push(verify.Double())
		eb.insn(bytecode.Ldc2W(lowIdx))
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.DCmpG())
		eb.pop()
		eb.branch(bytecode.If(bytecode.CondLe, minVal, afterLow))
		if err := eb.place(afterLow); err != nil {
			return err
		}

		eb.push(verify.Double())
		eb.insn(bytecode.Dup2())
		eb.push(verify.Double())
		eb.insn(bytecode.Ldc2W(highIdx))
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.DCmpG())
		eb.pop()

		maxVal := eb.fresh()
		eb.branch(bytecode.If(bytecode.CondGe, maxVal, normal))
		if err := eb.place(normal); err != nil {
			return err
		}

		eb.pop()
		switch dst {
		case jvmname.Int:
			eb.push(verify.Integer())
			eb.insn(bytecode.D2I())
			eb.pop()
			eb.branch(bytecode.Return(bytecode.ReturnInt))
		default:
			eb.push(verify.Long())
			eb.insn(bytecode.D2L())
			eb.pop()
			eb.branch(bytecode.Return(bytecode.ReturnLong))
		}

		if err := eb.place(zero); err != nil {
			return err
		}
		eb.pop()
		if dst == jvmname.Int {
			eb.push(verify.Integer())
			eb.insn(bytecode.IConst(0))
			eb.pop()
			eb.branch(bytecode.Return(bytecode.ReturnInt))
		} else {
			eb.push(verify.Long())
			eb.insn(bytecode.LConst0())
			eb.pop()
			eb.branch(bytecode.Return(bytecode.ReturnLong))
		}

		if err := eb.place(minVal); err != nil {
			return err
		}
		eb.pop()
		if dst == jvmname.Int {
			minIdx, err := pool.Integer(-2147483648)
			if err != nil {
				return err
			}
			eb.push(verify.Integer())
			eb.insn(bytecode.Ldc(minIdx))
			eb.pop()
			eb.branch(bytecode.Return(bytecode.ReturnInt))
		} else {
			minIdx, err := pool.Long(-9223372036854775808)
			if err != nil {
				return err
			}
			eb.push(verify.Long())
			eb.insn(bytecode.Ldc2W(minIdx))
			eb.pop()
			eb.branch(bytecode.Return(bytecode.ReturnLong))
		}

		if err := eb.place(maxVal); err != nil {
			return err
		}
		eb.pop()
		if dst == jvmname.Int {
			maxIdx, err := pool.Integer(2147483647)
			if err != nil {
				return err
			}
			eb.push(verify.Integer())
			eb.insn(bytecode.Ldc(maxIdx))
			eb.pop()
			eb.branch(bytecode.Return(bytecode.ReturnInt))
		} else {
			maxIdx, err := pool.Long(9223372036854775807)
			if err != nil {
				return err
			}
			eb.push(verify.Long())
			eb.insn(bytecode.Ldc2W(maxIdx))
			eb.pop()
			eb.branch(bytecode.Return(bytecode.ReturnLong))
		}
		return nil
	})
}

func (t *moduleTranslator) i32TruncSatF32SHelper() (*helperMethod, error) {
	return t.buildSatSignedTrunc("i32TruncSatF32S", jvmname.I32TruncSatF32S, jvmname.Float, jvmname.Int, i32SignedBounds)
}
func (t *moduleTranslator) i32TruncSatF64SHelper() (*helperMethod, error) {
	return t.buildSatSignedTrunc("i32TruncSatF64S", jvmname.I32TruncSatF64S, jvmname.Double, jvmname.Int, i32SignedBounds)
}
func (t *moduleTranslator) i64TruncSatF32SHelper() (*helperMethod, error) {
	return t.buildSatSignedTrunc("i64TruncSatF32S", jvmname.I64TruncSatF32S, jvmname.Float, jvmname.Long, i64SignedBounds)
}
func (t *moduleTranslator) i64TruncSatF64SHelper() (*helperMethod, error) {
	return t.buildSatSignedTrunc("i64TruncSatF64S", jvmname.I64TruncSatF64S, jvmname.Double, jvmname.Long, i64SignedBounds)
}

func (t *moduleTranslator) i32TruncF32SHelper() (*helperMethod, error) {
	return t.buildSignedTrunc("i32TruncF32S", jvmname.I32TruncF32S, jvmname.Float, jvmname.Int, i32SignedBounds)
}
func (t *moduleTranslator) i32TruncF64SHelper() (*helperMethod, error) {
	return t.buildSignedTrunc("i32TruncF64S", jvmname.I32TruncF64S, jvmname.Double, jvmname.Int, i32SignedBounds)
}
func (t *moduleTranslator) i64TruncF32SHelper() (*helperMethod, error) {
	return t.buildSignedTrunc("i64TruncF32S", jvmname.I64TruncF32S, jvmname.Float, jvmname.Long, i64SignedBounds)
}
func (t *moduleTranslator) i64TruncF64SHelper() (*helperMethod, error) {
	return t.buildSignedTrunc("i64TruncF64S", jvmname.I64TruncF64S, jvmname.Double, jvmname.Long, i64SignedBounds)
}

func (t *moduleTranslator) i32TruncF32UHelper() (*helperMethod, error) {
	return t.buildUnsignedTruncI32("i32TruncF32U", jvmname.I32TruncF32U, jvmname.Float, i32UnsignedBounds)
}
func (t *moduleTranslator) i32TruncF64UHelper() (*helperMethod, error) {
	return t.buildUnsignedTruncI32("i32TruncF64U", jvmname.I32TruncF64U, jvmname.Double, i32UnsignedBounds)
}
func (t *moduleTranslator) i64TruncF32UHelper() (*helperMethod, error) {
	return t.buildUnsignedTruncI64("i64TruncF32U", jvmname.I64TruncF32U, jvmname.Float)
}
func (t *moduleTranslator) i64TruncF64UHelper() (*helperMethod, error) {
	return t.buildUnsignedTruncI64("i64TruncF64U", jvmname.I64TruncF64U, jvmname.Double)
}

func (t *moduleTranslator) i32TruncSatF32UHelper() (*helperMethod, error) {
	return t.buildSatUnsignedTruncI32("i32TruncSatF32U", jvmname.I32TruncSatF32U, jvmname.Float)
}
func (t *moduleTranslator) i32TruncSatF64UHelper() (*helperMethod, error) {
	return t.buildSatUnsignedTruncI32("i32TruncSatF64U", jvmname.I32TruncSatF64U, jvmname.Double)
}
func (t *moduleTranslator) i64TruncSatF32UHelper() (*helperMethod, error) {
	return t.buildSatUnsignedTruncI64("i64TruncSatF32U", jvmname.I64TruncSatF32U, jvmname.Float)
}
func (t *moduleTranslator) i64TruncSatF64UHelper() (*helperMethod, error) {
	return t.buildSatUnsignedTruncI64("i64TruncSatF64U", jvmname.I64TruncSatF64U, jvmname.Double)
}

// f64ConvertI32UHelper widens an unsigned i32 to a double by masking off
// the sign extension a plain i2l would otherwise introduce.
func (t *moduleTranslator) f64ConvertI32UHelper() (*helperMethod, error) {
	i := fieldTypeOf(jvmname.Int)
	d := fieldTypeOf(jvmname.Double)
	return t.buildHelper("f64ConvertI32U", jvmname.F64ConvertI32U, []jvmname.FieldType{i}, &d, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		maskIdx, err := pool.Long(0xFFFFFFFF)
		if err != nil {
			return err
		}
		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(0))
		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.I2L())
		eb.push(verify.Long())
		eb.insn(bytecode.Ldc2W(maskIdx))
		eb.pop()
		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.LAnd())
		eb.pop()
		eb.push(verify.Double())
		eb.insn(bytecode.L2D())
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnDouble))
		return nil
	})
}

func (t *moduleTranslator) f32ConvertI32UHelper() (*helperMethod, error) {
	i := fieldTypeOf(jvmname.Int)
	f := fieldTypeOf(jvmname.Float)
	return t.buildHelper("f32ConvertI32U", jvmname.F32ConvertI32U, []jvmname.FieldType{i}, &f, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		maskIdx, err := pool.Long(0xFFFFFFFF)
		if err != nil {
			return err
		}
		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(0))
		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.I2L())
		eb.push(verify.Long())
		eb.insn(bytecode.Ldc2W(maskIdx))
		eb.pop()
		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.LAnd())
		eb.pop()
		eb.push(verify.Float())
		eb.insn(bytecode.L2F())
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnFloat))
		return nil
	})
}

// i64ExtendI32UHelper zero-extends an i32 to i64 by masking off the sign
// extension i2l performs on its own.
func (t *moduleTranslator) i64ExtendI32UHelper() (*helperMethod, error) {
	i := fieldTypeOf(jvmname.Int)
	l := fieldTypeOf(jvmname.Long)
	return t.buildHelper("i64ExtendI32U", jvmname.I64ExtendI32U, []jvmname.FieldType{i}, &l, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		maskIdx, err := pool.Long(0xFFFFFFFF)
		if err != nil {
			return err
		}
		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(0))
		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.I2L())
		eb.push(verify.Long())
		eb.insn(bytecode.Ldc2W(maskIdx))
		eb.pop()
		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.LAnd())
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnLong))
		return nil
	})
}

// f64ConvertI64UHelper widens an unsigned i64 to a double with the classic
// "half, double, add back the dropped bit" trick for values whose sign bit
// is set (and so would otherwise convert as negative).
func (t *moduleTranslator) f64ConvertI64UHelper() (*helperMethod, error) {
	l := fieldTypeOf(jvmname.Long)
	d := fieldTypeOf(jvmname.Double)
	return t.buildHelper("f64ConvertI64U", jvmname.F64ConvertI64U, []jvmname.FieldType{l}, &d, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		twoIdx, err := pool.Double(2.0)
		if err != nil {
			return err
		}
		oneIdx, err := pool.Long(1)
		if err != nil {
			return err
		}
		neg := eb.fresh()
		nonNeg := eb.fresh()

		eb.push(verify.Long())
		eb.insn(bytecode.LLoad(0))
		eb.push(verify.Long())
		eb.insn(bytecode.LConst0())
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.LCmp())
		eb.pop()
		eb.branch(bytecode.If(bytecode.CondLt, neg, nonNeg))

		if err := eb.place(nonNeg); err != nil {
			return err
		}
		eb.push(verify.Long())
		eb.insn(bytecode.LLoad(0))
		eb.pop()
		eb.push(verify.Double())
		eb.insn(bytecode.L2D())
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnDouble))

		if err := eb.place(neg); err != nil {
			return err
		}
		eb.push(verify.Long())
		eb.insn(bytecode.LLoad(0))
		eb.push(verify.Integer())
		eb.insn(bytecode.IConst(1))
		eb.pop()
		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.LUShr())
		eb.pop()
		eb.push(verify.Double())
		eb.insn(bytecode.L2D())
		eb.push(verify.Double())
		eb.insn(bytecode.Ldc2W(twoIdx))
		eb.pop()
		eb.pop()
		eb.push(verify.Double())
		eb.insn(bytecode.DMul())

		eb.push(verify.Long())
		eb.insn(bytecode.LLoad(0))
		eb.push(verify.Long())
		eb.insn(bytecode.Ldc2W(oneIdx))
		eb.pop()
		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.LAnd())
		eb.pop()
		eb.push(verify.Double())
		eb.insn(bytecode.L2D())
		eb.pop()
		eb.pop()
		eb.push(verify.Double())
		eb.insn(bytecode.DAdd())
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnDouble))
		return nil
	})
}

// f32ConvertI64UHelper reuses f64ConvertI64U's conversion and narrows the
// result, since there is no float-precision variant of the halving trick
// worth duplicating.
func (t *moduleTranslator) f32ConvertI64UHelper() (*helperMethod, error) {
	l := fieldTypeOf(jvmname.Long)
	f := fieldTypeOf(jvmname.Float)
	inner, err := t.f64ConvertI64UHelper()
	if err != nil {
		return nil, err
	}
	return t.buildHelper("f32ConvertI64U", jvmname.F32ConvertI64U, []jvmname.FieldType{l}, &f, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		callIdx, err := t.callRef(pool, inner)
		if err != nil {
			return err
		}
		eb.push(verify.Long())
		eb.insn(bytecode.LLoad(0))
		eb.pop()
		eb.push(verify.Double())
		eb.insn(bytecode.InvokeStatic(callIdx))
		eb.pop()
		eb.push(verify.Float())
		eb.insn(bytecode.D2F())
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnFloat))
		return nil
	})
}

// f64TruncHelper implements f64.trunc (round toward zero) via Math.floor
// for non-negative inputs and Math.ceil for negative ones; the JDK has no
// direct "trunc" of its own.
func (t *moduleTranslator) f64TruncHelper() (*helperMethod, error) {
	d := fieldTypeOf(jvmname.Double)
	return t.buildHelper("f64Trunc", jvmname.F64Trunc, []jvmname.FieldType{d}, &d, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		floorRef, err := t.jdkMethod(pool, t.javaClasses.Lang.Math, t.javaMembers.MathFloor)
		if err != nil {
			return err
		}
		ceilRef, err := t.jdkMethod(pool, t.javaClasses.Lang.Math, t.javaMembers.MathCeil)
		if err != nil {
			return err
		}
		neg := eb.fresh()
		nonNeg := eb.fresh()

		eb.push(verify.Double())
		eb.insn(bytecode.DLoad(0))
		eb.push(verify.Double())
		eb.insn(bytecode.DConst0())
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.DCmpG())
		eb.pop()
		eb.branch(bytecode.If(bytecode.CondLt, neg, nonNeg))

		if err := eb.place(nonNeg); err != nil {
			return err
		}
		eb.push(verify.Double())
		eb.insn(bytecode.DLoad(0))
		eb.push(verify.Double())
		eb.insn(bytecode.InvokeStatic(floorRef))
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnDouble))

		if err := eb.place(neg); err != nil {
			return err
		}
		eb.push(verify.Double())
		eb.insn(bytecode.DLoad(0))
		eb.push(verify.Double())
		eb.insn(bytecode.InvokeStatic(ceilRef))
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnDouble))
		return nil
	})
}

// f32TruncHelper widens to double, reuses f64Trunc, and narrows back.
func (t *moduleTranslator) f32TruncHelper() (*helperMethod, error) {
	f := fieldTypeOf(jvmname.Float)
	inner, err := t.f64TruncHelper()
	if err != nil {
		return nil, err
	}
	return t.buildHelper("f32Trunc", jvmname.F32Trunc, []jvmname.FieldType{f}, &f, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		callIdx, err := t.callRef(pool, inner)
		if err != nil {
			return err
		}
		eb.push(verify.Float())
		eb.insn(bytecode.FLoad(0))
		eb.pop()
		eb.push(verify.Double())
		eb.insn(bytecode.F2D())
		eb.pop()
		eb.push(verify.Double())
		eb.insn(bytecode.InvokeStatic(callIdx))
		eb.pop()
		eb.push(verify.Float())
		eb.insn(bytecode.D2F())
		eb.pop()
		eb.branch(bytecode.Return(bytecode.ReturnFloat))
		return nil
	})
}
