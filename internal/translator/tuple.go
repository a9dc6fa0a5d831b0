package translator

import (
	"fmt"
	"strings"

	"github.com/wasm2jar/wasm2jar/internal/bytecode"
	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/classgraph"
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
	"github.com/wasm2jar/wasm2jar/internal/verify"
	"github.com/wasm2jar/wasm2jar/internal/wasm"
)

// tupleClass is a synthetic class generated to carry a multi-value
// function result back to its caller: one public final field per result,
// in order, populated by a single constructor. Functions sharing a result
// shape (e.g. two distinct (i32, i64) -> (i32, i32, f64) signatures that
// both return (i32, i32, f64)) share one tuple class rather than each
// minting their own.
//
// This is the translator's answer to WASM's multi-value proposal: the JVM
// has no multi-return instruction, so a function with more than one result
// returns an instance of its shape's tuple class instead, and every call
// site immediately unpacks it with getfield.
type tupleClass struct {
	name    jvmname.BinaryName
	results []wasm.ValueType
	fields  []jvmname.UnqualifiedName
	ctor    jvmname.MethodDescriptor
	data    *classgraph.ClassData
	class   *classfile.ClassFile
}

func tupleShapeKey(results []wasm.ValueType) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "%x-", r)
	}
	return b.String()
}

// tupleClassFor returns the (lazily built) tuple class for this exact
// ordered result shape, building and registering it the first time a
// function with that shape is encountered.
func (t *moduleTranslator) tupleClassFor(results []wasm.ValueType) *tupleClass {
	key := tupleShapeKey(results)
	if tc, ok := t.tupleClasses[key]; ok {
		return tc
	}
	tc := t.buildTupleClass(key, results)
	t.tupleClasses[key] = tc
	return tc
}

func (t *moduleTranslator) buildTupleClass(key string, results []wasm.ValueType) *tupleClass {
	name := jvmname.MustBinaryName(t.cfg.qualifiedName(fmt.Sprintf("Tuple$%d_%s", len(results), sanitizeShape(key))))
	data := t.graph.NewClass(name, t.javaClasses.Lang.Object, false)

	fieldTypes := make([]jvmname.FieldType, len(results))
	fieldNames := make([]jvmname.UnqualifiedName, len(results))
	for i, r := range results {
		fieldTypes[i] = t.fieldTypeFor(r)
		fieldNames[i] = jvmname.MustUnqualifiedName(fmt.Sprintf("r%d", i))
		data.AddField(false, fieldNames[i], fieldTypes[i])
	}
	ctorDesc := jvmname.NewMethodDescriptor(fieldTypes, nil)

	builder, err := classfile.NewClassBuilder(jvmname.ClassPublic|jvmname.ClassFinal|jvmname.ClassSuper, name, jvmname.Object_, nil)
	if err != nil {
		panic(err) // every name/descriptor here is a compile-time-known literal
	}
	pool := builder.Constants()
	for i, ft := range fieldTypes {
		if err := builder.AddField(jvmname.FieldPublic|jvmname.FieldFinal, fieldNames[i], ft); err != nil {
			panic(err)
		}
	}

	objectInit, err := pool.MethodRefByName(jvmname.Object_, jvmname.Init_, jvmname.NewMethodDescriptor(nil, nil), false)
	if err != nil {
		panic(err)
	}

	selfType := verify.Object(data)
	entryLocals := make([]verify.Type, 0, len(fieldTypes)+1)
	entryLocals = append(entryLocals, selfType)
	for _, r := range results {
		entryLocals = append(entryLocals, t.verifyTypeFor(r))
	}
	cb := bytecode.NewCodeBuilder(pool, entryLocals)
	frame := verify.NewFrame(entryLocals)

	cb.PushInstruction(bytecode.ALoad(0))
	frame.Push(selfType)
	cb.Track(frame)
	cb.PushInstruction(bytecode.InvokeSpecial(objectInit))
	frame.Pop()
	cb.Track(frame)

	slot := uint16(1)
	for i, ft := range fieldTypes {
		fieldRef, err := pool.FieldRefByName(name, fieldNames[i], ft)
		if err != nil {
			panic(err)
		}
		cb.PushInstruction(bytecode.ALoad(0))
		frame.Push(selfType)
		cb.Track(frame)
		width := loadLocal(cb, ft, slot)
		frame.Push(t.verifyTypeFor(results[i]))
		cb.Track(frame)
		cb.PushInstruction(bytecode.PutField(fieldRef))
		frame.Pop()
		frame.Pop()
		cb.Track(frame)
		slot += uint16(width)
	}
	cb.PushBranchInstruction(bytecode.Return(bytecode.ReturnVoid))

	code, err := cb.Result()
	if err != nil {
		panic(err)
	}
	if err := builder.AddMethod(jvmname.MethodPublic, jvmname.Init_, ctorDesc, []classfile.Attribute{*code}); err != nil {
		panic(err)
	}

	return &tupleClass{
		name:    name,
		results: results,
		fields:  fieldNames,
		ctor:    ctorDesc,
		data:    data,
		class:   builder.Result(),
	}
}

// sanitizeShape turns a tupleShapeKey into something legal inside a JVM
// unqualified name by dropping the trailing hyphen (the key holds only hex
// digits and hyphens, all already legal, but it is kept
// as its own function so the mapping is named and can change independently
// of tupleShapeKey's own format).
func sanitizeShape(key string) string {
	return strings.TrimSuffix(key, "-")
}

// loadLocal emits the type-appropriate load instruction for a local at
// slot and returns its width (1 or 2 slots), so callers can advance their
// own running slot counter.
func loadLocal(cb *bytecode.CodeBuilder, ft jvmname.FieldType, slot uint16) int {
	if base, ok := ft.IsBase(); ok {
		switch base {
		case jvmname.Long:
			cb.PushInstruction(bytecode.LLoad(slot))
			return 2
		case jvmname.Float:
			cb.PushInstruction(bytecode.FLoad(slot))
			return 1
		case jvmname.Double:
			cb.PushInstruction(bytecode.DLoad(slot))
			return 2
		default:
			cb.PushInstruction(bytecode.ILoad(slot))
			return 1
		}
	}
	cb.PushInstruction(bytecode.ALoad(slot))
	return 1
}
