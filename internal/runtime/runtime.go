// Package runtime builds the five fixed `org/wasm2jar/*` helper classes
// every translated module's imports and exports exchange instances of:
// Function, Global, Memory, FunctionTable, and ReferenceTable. Each wraps a
// single JDK handle (MethodHandle, Object, ByteBuffer, MethodHandle[],
// Object[]) behind a stable class identity so host code, re-exports, and
// separately compiled modules can all agree on an ABI shape without sharing
// anything about how any particular module's internals are laid out.
package runtime

import (
	"github.com/wasm2jar/wasm2jar/internal/bytecode"
	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/classgraph"
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
	"github.com/wasm2jar/wasm2jar/internal/verify"
)

var (
	fieldName = jvmname.MustUnqualifiedName("value")

	functionClassName       = jvmname.MustBinaryName("org/wasm2jar/Function")
	globalClassName         = jvmname.MustBinaryName("org/wasm2jar/Global")
	memoryClassName         = jvmname.MustBinaryName("org/wasm2jar/Memory")
	functionTableClassName  = jvmname.MustBinaryName("org/wasm2jar/FunctionTable")
	referenceTableClassName = jvmname.MustBinaryName("org/wasm2jar/ReferenceTable")
)

// Classes caches the ClassData nodes for the five runtime helper classes,
// plus the single field and constructor each one declares, so translator
// code can build field/method refs against them without re-resolving names.
type Classes struct {
	Function       *classgraph.ClassData
	Global         *classgraph.ClassData
	Memory         *classgraph.ClassData
	FunctionTable  *classgraph.ClassData
	ReferenceTable *classgraph.ClassData

	FunctionField       *classgraph.FieldData
	GlobalField         *classgraph.FieldData
	MemoryField         *classgraph.FieldData
	FunctionTableField  *classgraph.FieldData
	ReferenceTableField *classgraph.FieldData
}

// AddToGraph registers the five runtime classes (java.lang.Object
// subclasses, each with one public field) into g, caching the member
// pointers the translator needs when boxing or unboxing a value.
func AddToGraph(g *classgraph.ClassGraph, jc classgraph.JavaClasses) Classes {
	object := jc.Lang.Object

	function := g.NewClass(functionClassName, object, false)
	global := g.NewClass(globalClassName, object, false)
	memory := g.NewClass(memoryClassName, object, false)
	functionTable := g.NewClass(functionTableClassName, object, false)
	referenceTable := g.NewClass(referenceTableClassName, object, false)

	function.AddField(false, fieldName, jvmname.Object(jc.Lang.Invoke.MethodHandle.Name))
	global.AddField(false, fieldName, jvmname.Object(object.Name))
	memory.AddField(false, fieldName, jvmname.Object(jc.NIO.ByteBuffer.Name))
	functionTable.AddField(false, fieldName, jvmname.Array(jvmname.Object(jc.Lang.Invoke.MethodHandle.Name)))
	referenceTable.AddField(false, fieldName, jvmname.Array(jvmname.Object(object.Name)))

	return Classes{
		Function:       function,
		Global:         global,
		Memory:         memory,
		FunctionTable:  functionTable,
		ReferenceTable: referenceTable,

		FunctionField:       function.Fields[0],
		GlobalField:         global.Fields[0],
		MemoryField:         memory.Fields[0],
		FunctionTableField:  functionTable.Fields[0],
		ReferenceTableField: referenceTable.Fields[0],
	}
}

// BuildClassFiles emits the five runtime helper classes' bytecode: each is
// `public final`, extends Object, and declares a single public field plus a
// one-argument constructor that calls Object.<init> and stores the argument.
// The field is final on Function and Global only; on Memory, FunctionTable
// and ReferenceTable it is not final, and grow stores the replacement buffer
// or array into it.
func BuildClassFiles(g *classgraph.ClassGraph, classes Classes, jc classgraph.JavaClasses) (map[string]*classfile.ClassFile, error) {
	out := make(map[string]*classfile.ClassFile, 5)

	resolveClass := func(name jvmname.BinaryName) *classgraph.ClassData {
		c, _ := g.Lookup(name)
		return c
	}

	specs := []struct {
		class *classgraph.ClassData
		field *classgraph.FieldData
	}{
		{classes.Function, classes.FunctionField},
		{classes.Global, classes.GlobalField},
		{classes.Memory, classes.MemoryField},
		{classes.FunctionTable, classes.FunctionTableField},
		{classes.ReferenceTable, classes.ReferenceTableField},
	}

	for _, s := range specs {
		// Memory, FunctionTable and ReferenceTable grow in place (memory.grow,
		// table.grow replace the wrapper's backing array/buffer after
		// construction instead of allocating a new wrapper), so their field
		// can't carry FieldFinal; Function and Global never change after
		// construction and keep it.
		mutable := s.class == classes.Memory || s.class == classes.FunctionTable || s.class == classes.ReferenceTable
		cf, err := buildWrapperClass(s.class, s.field, jc, resolveClass, mutable)
		if err != nil {
			return nil, err
		}
		out[s.class.Name.String()] = cf
	}
	return out, nil
}

func buildWrapperClass(class *classgraph.ClassData, field *classgraph.FieldData, jc classgraph.JavaClasses, resolveClass func(jvmname.BinaryName) *classgraph.ClassData, mutable bool) (*classfile.ClassFile, error) {
	builder, err := classfile.NewClassBuilder(
		jvmname.ClassPublic|jvmname.ClassFinal|jvmname.ClassSuper,
		class.Name, jc.Lang.Object.Name, nil)
	if err != nil {
		return nil, err
	}
	pool := builder.Constants()

	fieldAccess := jvmname.FieldPublic | jvmname.FieldFinal
	if mutable {
		fieldAccess = jvmname.FieldPublic
	}
	if err := builder.AddField(fieldAccess, field.Name, field.Descriptor); err != nil {
		return nil, err
	}

	ctorDesc := jvmname.NewMethodDescriptor([]jvmname.FieldType{field.Descriptor}, nil)
	objectInit, err := pool.MethodRefByName(jc.Lang.Object.Name, jvmname.Init_, jvmname.NewMethodDescriptor(nil, nil), false)
	if err != nil {
		return nil, err
	}
	fieldRef, err := pool.FieldRefByName(class.Name, field.Name, field.Descriptor)
	if err != nil {
		return nil, err
	}

	selfType := verify.Object(class)
	argType := verify.FromFieldType(field.Descriptor, resolveClass)
	entryLocals := []verify.Type{selfType, argType}
	cb := bytecode.NewCodeBuilder(pool, entryLocals)

	frame := verify.NewFrame(entryLocals)
	cb.PushInstruction(bytecode.ALoad(0))
	frame.Push(selfType)
	cb.Track(frame)
	cb.PushInstruction(bytecode.InvokeSpecial(objectInit))
	frame.Pop()
	cb.Track(frame)

	cb.PushInstruction(bytecode.ALoad(0))
	frame.Push(selfType)
	cb.Track(frame)
	loadArg(cb, field.Descriptor, 1)
	frame.Push(argType)
	cb.Track(frame)
	cb.PushInstruction(bytecode.PutField(fieldRef))
	frame.Pop()
	frame.Pop()
	cb.Track(frame)

	cb.PushBranchInstruction(bytecode.Return(bytecode.ReturnVoid))

	code, err := cb.Result()
	if err != nil {
		return nil, err
	}
	if err := builder.AddMethod(jvmname.MethodPublic, jvmname.Init_, ctorDesc, []classfile.Attribute{*code}); err != nil {
		return nil, err
	}

	return builder.Result(), nil
}

func loadArg(cb *bytecode.CodeBuilder, ft jvmname.FieldType, slot uint16) {
	if base, ok := ft.IsBase(); ok {
		switch base {
		case jvmname.Long:
			cb.PushInstruction(bytecode.LLoad(slot))
		case jvmname.Float:
			cb.PushInstruction(bytecode.FLoad(slot))
		case jvmname.Double:
			cb.PushInstruction(bytecode.DLoad(slot))
		default:
			cb.PushInstruction(bytecode.ILoad(slot))
		}
		return
	}
	cb.PushInstruction(bytecode.ALoad(slot))
}
