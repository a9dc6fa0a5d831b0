package translator

import (
	"github.com/wasm2jar/wasm2jar/internal/bytecode"
	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
	"github.com/wasm2jar/wasm2jar/internal/verify"
	"github.com/wasm2jar/wasm2jar/internal/wasm"
)

// dataChunkBytes bounds how many segment bytes one string constant
// carries. Modified UTF-8 spends up to two bytes per char here (0x00 and
// 0x80-0xFF both encode as two), so 24576 stays safely under the 65535
// byte ceiling of a CONSTANT_Utf8 entry.
const dataChunkBytes = 24576

// newArrayByte is the newarray atype operand for byte[].
const newArrayByte = 8

func dataGeneratorDescriptor() jvmname.MethodDescriptor {
	ret := jvmname.Array(jvmname.Base(jvmname.Byte))
	return jvmname.NewMethodDescriptor(nil, &ret)
}

func (t *moduleTranslator) elemGeneratorDescriptor(seg wasm.ElementSegment) jvmname.MethodDescriptor {
	elem := jvmname.Object(t.javaClasses.Lang.Invoke.MethodHandle.Name)
	if seg.Type == wasm.RefTypeExternref {
		elem = jvmname.Object(t.javaClasses.Lang.Object.Name)
	}
	ret := jvmname.Array(elem)
	return jvmname.NewMethodDescriptor([]jvmname.FieldType{jvmname.Object(t.mainClassName)}, &ret)
}

func elemSegmentLen(seg wasm.ElementSegment) int {
	if len(seg.InitExprs) > 0 {
		return len(seg.InitExprs)
	}
	return len(seg.Init)
}

// processElements emits one generator method per element segment: a
// static method on a part class taking the module instance and returning a
// freshly built array of bound function handles (or externref objects).
// Segments are rebuilt on each call rather than cached — the handles bind
// the module instance, so a static cache would leak state across
// instances, and an instance cache buys nothing over the arraycopy the
// result immediately feeds. elem.drop is consequently a no-op.
func (t *moduleTranslator) processElements() error {
	for i, seg := range t.module.ElementSection {
		n := elemSegmentLen(seg)
		estimate := 64 + 32*n
		part, err := t.partFor(8+n, estimate)
		if err != nil {
			return err
		}
		part.charge(8+n, estimate)
		name := syntheticMethodName("elem", i)
		gen := elemInit{seg: seg, methodName: name, part: part}
		if err := t.emitElemGenerator(gen); err != nil {
			return err
		}
		t.elemInits = append(t.elemInits, gen)
	}
	return nil
}

func (t *moduleTranslator) emitElemGenerator(gen elemInit) error {
	desc := t.elemGeneratorDescriptor(gen.seg)
	pool := gen.part.builder.Constants()

	moduleType := verify.Object(t.mainData)
	arrType := t.tableArrayVerifyType(wasm.TableType{ElemType: gen.seg.Type})
	entryLocals := []verify.Type{moduleType}
	cb := bytecode.NewCodeBuilder(pool, entryLocals)
	eb := newExprBuilder(cb, verify.NewFrame(entryLocals))

	elemClass := t.javaClasses.Lang.Invoke.MethodHandle
	if gen.seg.Type == wasm.RefTypeExternref {
		elemClass = t.javaClasses.Lang.Object
	}
	elemClassIdx, err := pool.ClassByName(elemClass.Name.String())
	if err != nil {
		return err
	}

	n := elemSegmentLen(gen.seg)
	eb.frame.Locals = append(eb.frame.Locals, arrType) // slot 1: the array
	if err := t.pushIntConstEB(eb, pool, int32(n)); err != nil {
		return err
	}
	eb.pop()
	eb.push(arrType)
	eb.insn(bytecode.ANewArray(elemClassIdx))
	eb.pop()
	eb.insn(bytecode.AStore(1))

	store := func(i int, emitValue func() error) error {
		eb.push(arrType)
		eb.insn(bytecode.ALoad(1))
		if err := t.pushIntConstEB(eb, pool, int32(i)); err != nil {
			return err
		}
		if err := emitValue(); err != nil {
			return err
		}
		eb.pop()
		eb.pop()
		eb.pop()
		eb.insn(bytecode.AAStore())
		return nil
	}

	if len(gen.seg.InitExprs) > 0 {
		for i, expr := range gen.seg.InitExprs {
			if err := store(i, func() error { return t.emitElemExpr(eb, pool, expr) }); err != nil {
				return err
			}
		}
	} else {
		for i, fnIdx := range gen.seg.Init {
			idx := fnIdx
			if err := store(i, func() error { return t.emitFuncHandleExpr(eb, pool, idx, 0) }); err != nil {
				return err
			}
		}
	}

	eb.push(arrType)
	eb.insn(bytecode.ALoad(1))
	eb.branch(bytecode.Return(bytecode.ReturnRef))

	code, err := cb.Result()
	if err != nil {
		return err
	}
	return gen.part.builder.AddMethod(jvmname.MethodStatic, gen.methodName, desc, []classfile.Attribute{*code})
}

// emitElemExpr lowers one expression-form element item: ref.func binds a
// handle, ref.null stays null, global.get reads the (imported, immutable)
// global's current value.
func (t *moduleTranslator) emitElemExpr(eb *exprBuilder, pool *classfile.ConstantPool, expr wasm.ConstantExpression) error {
	switch expr.Opcode {
	case wasm.OpcodeRefNull:
		eb.push(verify.Null())
		eb.insn(bytecode.AConstNull())
		return nil
	case wasm.OpcodeRefFunc:
		v, err := expr.Evaluate(nil)
		if err != nil {
			return InputInvalidError{Msg: err.Error()}
		}
		return t.emitFuncHandleExpr(eb, pool, v.FuncIndex, 0)
	case wasm.OpcodeGlobalGet:
		idx, err := wasm.ConstExprGlobalIndex(expr)
		if err != nil {
			return InputInvalidError{Msg: err.Error()}
		}
		if int(idx) >= len(t.globals) {
			return InputInvalidError{Msg: "element expression: global index out of range"}
		}
		return t.emitGlobalReadUnboxed(eb, pool, t.globals[idx], 0, wasm.ValueTypeFuncref)
	default:
		return InputInvalidError{Msg: "unsupported element initializer expression"}
	}
}

// pushIntConstEB is pushIntConst over a bare exprBuilder, for the
// generator methods that have no funcTranslator around them.
func (t *moduleTranslator) pushIntConstEB(eb *exprBuilder, pool *classfile.ConstantPool, v int32) error {
	eb.push(verify.Integer())
	if v >= -32768 && v <= 32767 {
		eb.insn(bytecode.IConst(v))
		return nil
	}
	idx, err := pool.Integer(v)
	if err != nil {
		return err
	}
	eb.insn(bytecode.Ldc(idx))
	return nil
}

// processData emits one generator method per data segment: a static
// no-argument method returning the segment's bytes as a fresh byte[].
// The bytes ride in string constants (one char per byte, decoded back
// through String.getBytes("ISO-8859-1")) because a per-byte store
// sequence would blow the method size limit at a few kilobytes, while a
// string constant carries tens of kilobytes in one pool entry. As with
// elements, segments are rebuilt per call, so data.drop is a no-op.
func (t *moduleTranslator) processData() error {
	for i, seg := range t.module.DataSection {
		chunks := (len(seg.Init) + dataChunkBytes - 1) / dataChunkBytes
		estimate := 64 + 24*chunks
		part, err := t.partFor(8+2*chunks, estimate)
		if err != nil {
			return err
		}
		part.charge(8+2*chunks, estimate)
		name := syntheticMethodName("data", i)
		gen := dataInit{seg: seg, methodName: name, part: part}
		if err := t.emitDataGenerator(gen); err != nil {
			return err
		}
		t.dataInits = append(t.dataInits, gen)
	}
	return nil
}

func (t *moduleTranslator) emitDataGenerator(gen dataInit) error {
	pool := gen.part.builder.Constants()
	cb := bytecode.NewCodeBuilder(pool, nil)
	eb := newExprBuilder(cb, verify.NewFrame(nil))

	byteArr := verify.Array(verify.Integer())
	strType := verify.Object(t.javaClasses.Lang.String)

	encUTF8, err := pool.UTF8("ISO-8859-1")
	if err != nil {
		return err
	}
	encIdx, err := pool.String(encUTF8)
	if err != nil {
		return err
	}
	getBytesIdx, err := t.jdkMethod(pool, t.javaClasses.Lang.String, t.javaMembers.StringGetBytes)
	if err != nil {
		return err
	}
	copyIdx, err := t.jdkMethod(pool, t.javaClasses.Lang.System, t.javaMembers.SystemArraycopy)
	if err != nil {
		return err
	}

	data := gen.seg.Init
	eb.frame.Locals = append(eb.frame.Locals, byteArr) // slot 0: result
	if err := t.pushIntConstEB(eb, pool, int32(len(data))); err != nil {
		return err
	}
	eb.pop()
	eb.push(byteArr)
	eb.insn(bytecode.NewArray(newArrayByte))
	eb.pop()
	eb.insn(bytecode.AStore(0))

	for pos := 0; pos < len(data); pos += dataChunkBytes {
		end := pos + dataChunkBytes
		if end > len(data) {
			end = len(data)
		}
		chunk := data[pos:end]
		runes := make([]rune, len(chunk))
		for i, b := range chunk {
			runes[i] = rune(b)
		}
		chunkUTF8, err := pool.UTF8(string(runes))
		if err != nil {
			return err
		}
		chunkIdx, err := pool.String(chunkUTF8)
		if err != nil {
			return err
		}

		eb.push(strType)
		eb.insn(bytecode.Ldc(chunkIdx))
		eb.push(strType)
		eb.insn(bytecode.Ldc(encIdx))
		eb.pop()
		eb.pop()
		eb.push(byteArr)
		eb.insn(bytecode.InvokeVirtual(getBytesIdx))
		eb.push(verify.Integer())
		eb.insn(bytecode.IConst(0))
		eb.push(byteArr)
		eb.insn(bytecode.ALoad(0))
		if err := t.pushIntConstEB(eb, pool, int32(pos)); err != nil {
			return err
		}
		if err := t.pushIntConstEB(eb, pool, int32(len(chunk))); err != nil {
			return err
		}
		for i := 0; i < 5; i++ {
			eb.pop()
		}
		eb.insn(bytecode.InvokeStatic(copyIdx))
	}

	eb.push(byteArr)
	eb.insn(bytecode.ALoad(0))
	eb.branch(bytecode.Return(bytecode.ReturnRef))

	code, err := cb.Result()
	if err != nil {
		return err
	}
	return gen.part.builder.AddMethod(jvmname.MethodStatic, gen.methodName, dataGeneratorDescriptor(), []classfile.Attribute{*code})
}
