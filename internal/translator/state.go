package translator

import (
	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/classgraph"
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
	"github.com/wasm2jar/wasm2jar/internal/runtime"
	"github.com/wasm2jar/wasm2jar/internal/wasm"
)

// funcInfo records where a function (imported or defined) lives once
// translation has assigned it a home: an imported function is reached
// through a field on the main class; a defined function is a static
// method on one of the part classes.
type funcInfo struct {
	typ wasm.FunctionType

	imported   bool
	importIdx  int // index into module.ImportSection, when imported
	fieldName  jvmname.UnqualifiedName
	fieldDesc  jvmname.FieldType

	part       *partBuilder // nil when imported
	methodName jvmname.UnqualifiedName
}

// globalInfo records a global's storage: boxed (an org/wasm2jar/Global
// field) when the global is imported or exported, since the runtime ABI
// only knows how to exchange globals in their boxed form; unboxed (a bare
// field of the global's own JVM type) otherwise, since nothing outside the
// module ever needs to address it uniformly.
//
// See DESIGN.md for the reasoning behind this boundary.
type globalInfo struct {
	typ       wasm.GlobalType
	imported  bool
	importIdx int
	boxed     bool
	fieldName jvmname.UnqualifiedName
	fieldDesc jvmname.FieldType
}

// tableInfo and memInfo mirror globalInfo's boxed/unboxed split for tables
// (FunctionTable/ReferenceTable wrapper vs. a bare MethodHandle[]/Object[])
// and memories (Memory wrapper vs. a bare ByteBuffer).
type tableInfo struct {
	typ       wasm.TableType
	imported  bool
	importIdx int
	boxed     bool
	fieldName jvmname.UnqualifiedName
	fieldDesc jvmname.FieldType
}

type memInfo struct {
	typ       wasm.MemoryType
	imported  bool
	importIdx int
	boxed     bool
	fieldName jvmname.UnqualifiedName
	fieldDesc jvmname.FieldType
}

// moduleTranslator holds every piece of state accumulated while walking a
// module's sections: the class graph, the runtime helper classes, the main
// class builder, the rotating set of part classes, and the per-index-space
// bookkeeping the function body translator consults when it resolves a
// local.get, global.get, call, or memory access back to a concrete field or
// method.
type moduleTranslator struct {
	module *wasm.Module
	cfg    Config

	graph       *classgraph.ClassGraph
	javaClasses classgraph.JavaClasses
	javaMembers classgraph.JavaMembers
	runtimeCls  runtime.Classes

	mainClassName jvmname.BinaryName
	main          *classfile.ClassBuilder
	mainData      *classgraph.ClassData

	parts     []*partBuilder
	curPart   *partBuilder

	funcs   []funcInfo
	globals []globalInfo
	tables  []tableInfo
	mems    []memInfo

	// helperMethods caches the lazily generated numeric/table helper
	// methods keyed by their unqualified name, so two call sites needing
	// the same helper (e.g. two i32.div_s instructions) share one
	// definition instead of generating it twice.
	helperMethods map[string]*helperMethod

	// tupleClasses caches the synthetic multi-value return classes
	// already generated, keyed by their result-type shape, so functions
	// sharing a result shape share one tuple class.
	tupleClasses map[string]*tupleClass

	elemInits []elemInit
	dataInits []dataInit

	// startFunc is the module's start function index, if it declared one;
	// the constructor does not call it: the main class gets a separate
	// public initialize() method that does.
	startFunc *wasm.Index

	usedFieldNames map[string]bool

	exportedFunc   map[wasm.Index]bool
	exportedTable  map[wasm.Index]bool
	exportedMemory map[wasm.Index]bool
	exportedGlobal map[wasm.Index]bool
}

// elemInit and dataInit record an active/passive segment's generator
// method, wired up once the code section (and thus every part) is final.
type elemInit struct {
	seg        wasm.ElementSegment
	methodName jvmname.UnqualifiedName
	part       *partBuilder
}

type dataInit struct {
	seg        wasm.DataSegment
	methodName jvmname.UnqualifiedName
	part       *partBuilder
}
