package classgraph

import "github.com/wasm2jar/wasm2jar/internal/jvmname"

// JavaClasses holds every JDK class node translated code is allowed to
// reference, preloaded once per ClassGraph so lookups never have to
// synthesize a JDK class on demand.
type JavaClasses struct {
	Lang LangClasses
	NIO  NIOClasses
	Util UtilClasses
}

// LangClasses is java.lang.*.
type LangClasses struct {
	Object                   *ClassData
	CharSequence             *ClassData
	String                   *ClassData
	Class                    *ClassData
	Number                   *ClassData
	Integer                  *ClassData
	Float                    *ClassData
	Long                     *ClassData
	Double                   *ClassData
	Void                     *ClassData
	Boolean                  *ClassData
	Math                     *ClassData
	System                   *ClassData
	Invoke                   InvokeClasses
	Throwable                *ClassData
	Error                    *ClassData
	AssertionError           *ClassData
	Exception                *ClassData
	RuntimeException         *ClassData
	ArithmeticException      *ClassData
	IllegalArgumentException *ClassData
}

// InvokeClasses is java.lang.invoke.*.
type InvokeClasses struct {
	MethodType          *ClassData
	MethodHandle        *ClassData
	MethodHandles       *ClassData
	MethodHandlesLookup *ClassData
	CallSite            *ClassData
	ConstantCallSite    *ClassData
	MutableCallSite     *ClassData
}

// NIOClasses is java.nio.*.
type NIOClasses struct {
	Buffer     *ClassData
	ByteBuffer *ClassData
	ByteOrder  *ClassData
}

// UtilClasses is java.util.*.
type UtilClasses struct {
	Arrays  *ClassData
	Map     *ClassData
	HashMap *ClassData
}

// AddJavaClasses seeds g with every JDK class the translator may reference.
func AddJavaClasses(g *ClassGraph) JavaClasses {
	lang := addLangClasses(g)
	nio := addNIOClasses(g, lang.Object)
	util := addUtilClasses(g, lang.Object)
	return JavaClasses{Lang: lang, NIO: nio, Util: util}
}

func addLangClasses(g *ClassGraph) LangClasses {
	object := g.AddClass(ClassData{Name: jvmname.Object_})
	charSequence := g.NewClass(jvmname.CharSequence, object, true)
	str := g.NewClass(jvmname.String_, object, false)
	class := g.NewClass(jvmname.Class, object, false)
	number := g.NewClass(jvmname.Number, object, false)
	integer := g.NewClass(jvmname.Integer, number, false)
	float := g.NewClass(jvmname.Float_, number, false)
	long := g.NewClass(jvmname.Long_, number, false)
	double := g.NewClass(jvmname.Double_, number, false)
	void := g.NewClass(jvmname.MustBinaryName("java/lang/Void"), object, false)
	boolean := g.NewClass(jvmname.MustBinaryName("java/lang/Boolean"), object, false)
	math := g.NewClass(jvmname.Math_, object, false)
	system := g.NewClass(jvmname.MustBinaryName("java/lang/System"), object, false)
	invoke := addInvokeClasses(g, object)
	throwable := g.NewClass(jvmname.Throwable, object, false)
	errCls := g.NewClass(jvmname.Error_, throwable, false)
	assertionError := g.NewClass(jvmname.AssertionError, errCls, false)
	exception := g.NewClass(jvmname.Exception, throwable, false)
	runtimeException := g.NewClass(jvmname.RuntimeException, exception, false)
	arithmeticException := g.NewClass(jvmname.ArithmeticException, runtimeException, false)
	illegalArgumentException := g.NewClass(jvmname.MustBinaryName("java/lang/IllegalArgumentException"), runtimeException, false)

	str.Interfaces = append(str.Interfaces, charSequence)

	return LangClasses{
		Object:                    object,
		CharSequence:              charSequence,
		String:                    str,
		Class:                     class,
		Number:                    number,
		Integer:                   integer,
		Float:                     float,
		Long:                      long,
		Double:                    double,
		Void:                      void,
		Boolean:                   boolean,
		Math:                      math,
		System:                    system,
		Invoke:                    invoke,
		Throwable:                 throwable,
		Error:                     errCls,
		AssertionError:            assertionError,
		Exception:                 exception,
		RuntimeException:          runtimeException,
		ArithmeticException:       arithmeticException,
		IllegalArgumentException:  illegalArgumentException,
	}
}

func addInvokeClasses(g *ClassGraph, object *ClassData) InvokeClasses {
	methodType := g.NewClass(jvmname.MethodType, object, false)
	methodHandle := g.NewClass(jvmname.MethodHandle, object, false)
	methodHandles := g.NewClass(jvmname.MustBinaryName("java/lang/invoke/MethodHandles"), object, false)
	methodHandlesLookup := g.NewClass(jvmname.MethodHandleLookup, object, false)
	callSite := g.NewClass(jvmname.CallSite, object, false)
	constantCallSite := g.NewClass(jvmname.MustBinaryName("java/lang/invoke/ConstantCallSite"), callSite, false)
	mutableCallSite := g.NewClass(jvmname.MustBinaryName("java/lang/invoke/MutableCallSite"), callSite, false)
	return InvokeClasses{
		MethodType:          methodType,
		MethodHandle:        methodHandle,
		MethodHandles:       methodHandles,
		MethodHandlesLookup: methodHandlesLookup,
		CallSite:            callSite,
		ConstantCallSite:    constantCallSite,
		MutableCallSite:     mutableCallSite,
	}
}

func addNIOClasses(g *ClassGraph, object *ClassData) NIOClasses {
	byteOrder := g.NewClass(jvmname.ByteOrder, object, false)
	buffer := g.NewClass(jvmname.MustBinaryName("java/nio/Buffer"), object, false)
	byteBuffer := g.NewClass(jvmname.ByteBuffer, buffer, false)
	return NIOClasses{Buffer: buffer, ByteBuffer: byteBuffer, ByteOrder: byteOrder}
}

func addUtilClasses(g *ClassGraph, object *ClassData) UtilClasses {
	arrays := g.NewClass(jvmname.Arrays, object, false)
	mapCls := g.NewClass(jvmname.Map_, object, true)
	hashMap := g.NewClass(jvmname.HashMap, object, false)
	hashMap.Interfaces = append(hashMap.Interfaces, mapCls)
	return UtilClasses{Arrays: arrays, Map: mapCls, HashMap: hashMap}
}
