package translator

import (
	"github.com/wasm2jar/wasm2jar/internal/classgraph"
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
	"github.com/wasm2jar/wasm2jar/internal/verify"
	"github.com/wasm2jar/wasm2jar/internal/wasm"
)

// fieldTypeFor renders a WASM value type as the JVM field type used to
// store it unboxed: i32/i64/f32/f64 map to their JVM primitive, funcref
// maps to java.lang.invoke.MethodHandle (what a table slot or local
// actually holds once call_indirect is lowered), and externref maps to
// plain java.lang.Object.
func (t *moduleTranslator) fieldTypeFor(vt wasm.ValueType) jvmname.FieldType {
	switch vt {
	case wasm.ValueTypeI32:
		return jvmname.Base(jvmname.Int)
	case wasm.ValueTypeI64:
		return jvmname.Base(jvmname.Long)
	case wasm.ValueTypeF32:
		return jvmname.Base(jvmname.Float)
	case wasm.ValueTypeF64:
		return jvmname.Base(jvmname.Double)
	case wasm.ValueTypeFuncref:
		return jvmname.Object(jvmname.MethodHandle)
	case wasm.ValueTypeExternref:
		return jvmname.Object(jvmname.Object_)
	default:
		return jvmname.Base(jvmname.Int)
	}
}

// verifyTypeFor lifts a WASM value type directly to its verification type,
// without going through fieldTypeFor + verify.FromFieldType, since the
// reference cases need no class graph lookup (MethodHandle and Object are
// already preloaded JDK classes).
func (t *moduleTranslator) verifyTypeFor(vt wasm.ValueType) verify.Type {
	switch vt {
	case wasm.ValueTypeI32:
		return verify.Integer()
	case wasm.ValueTypeI64:
		return verify.Long()
	case wasm.ValueTypeF32:
		return verify.Float()
	case wasm.ValueTypeF64:
		return verify.Double()
	case wasm.ValueTypeFuncref:
		return verify.Object(t.javaClasses.Lang.Invoke.MethodHandle)
	case wasm.ValueTypeExternref:
		return verify.Object(t.javaClasses.Lang.Object)
	default:
		return verify.Integer()
	}
}

// resolveClass adapts ClassGraph.Lookup to the function shape
// verify.FromFieldType wants: a miss returns nil, which IsAssignable and
// friends treat as "assignable to nothing but itself."
func (t *moduleTranslator) resolveClass(name jvmname.BinaryName) *classgraph.ClassData {
	c, _ := t.graph.Lookup(name)
	return c
}

// methodDescriptorFor renders a WASM function signature as a JVM method
// descriptor over the unboxed field types, optionally with a trailing
// parameter of the main class's own type (the module-instance argument
// every static Part method takes so it can reach fields for memory,
// tables, globals, and other functions).
func (t *moduleTranslator) methodDescriptorFor(ft wasm.FunctionType, trailingModuleArg bool) jvmname.MethodDescriptor {
	params := make([]jvmname.FieldType, 0, len(ft.Params)+1)
	for _, p := range ft.Params {
		params = append(params, t.fieldTypeFor(p))
	}
	if trailingModuleArg {
		params = append(params, jvmname.Object(t.mainClassName))
	}
	var ret *jvmname.FieldType
	switch len(ft.Results) {
	case 0:
		ret = nil
	case 1:
		single := t.fieldTypeFor(ft.Results[0])
		ret = &single
	default:
		tc := t.tupleClassFor(ft.Results)
		single := jvmname.Object(tc.name)
		ret = &single
	}
	return jvmname.NewMethodDescriptor(params, ret)
}
