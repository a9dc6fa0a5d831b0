package translator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/wasm2jar/wasm2jar/internal/bytecode"
	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/classgraph"
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
	"github.com/wasm2jar/wasm2jar/internal/runtime"
	"github.com/wasm2jar/wasm2jar/internal/verify"
	"github.com/wasm2jar/wasm2jar/internal/wasm"
)

// CompiledClass is one finished class file, named by its binary name.
type CompiledClass struct {
	Name  string
	Bytes []byte
}

// CompiledModule is the result of one translation run: the main class's
// binary name plus every class file the run produced, in a deterministic
// order (main, parts, tuples, runtime helpers).
type CompiledModule struct {
	MainClass string
	Classes   []CompiledClass
}

// Translate decodes one WASM binary module and translates it into JVM
// class files per cfg. All errors surface synchronously; no partial output
// is ever returned.
func Translate(cfg Config, wasmBytes []byte) (*CompiledModule, error) {
	module, err := wasm.Decode(wasmBytes)
	if err != nil {
		var malformed wasm.MalformedError
		if errors.As(err, &malformed) {
			return nil, InputMalformedError{Msg: malformed.Msg}
		}
		var inv wasm.InvalidError
		if errors.As(err, &inv) {
			return nil, InputInvalidError{Msg: inv.Msg}
		}
		return nil, err
	}
	t, err := newModuleTranslator(cfg, module)
	if err != nil {
		return nil, err
	}
	return t.run()
}

func newModuleTranslator(cfg Config, module *wasm.Module) (*moduleTranslator, error) {
	graph := classgraph.New()
	javaClasses := classgraph.AddJavaClasses(graph)
	javaMembers := classgraph.AddJavaMembers(javaClasses)
	runtimeCls := runtime.AddToGraph(graph, javaClasses)

	mainClassName, err := jvmname.NewBinaryName(cfg.qualifiedName(cfg.mainClassName))
	if err != nil {
		return nil, err
	}
	main, err := classfile.NewClassBuilder(jvmname.ClassPublic|jvmname.ClassSuper, mainClassName, jvmname.Object_, nil)
	if err != nil {
		return nil, err
	}
	mainData := graph.NewClass(mainClassName, javaClasses.Lang.Object, false)

	return &moduleTranslator{
		module:        module,
		cfg:           cfg,
		graph:         graph,
		javaClasses:   javaClasses,
		javaMembers:   javaMembers,
		runtimeCls:    runtimeCls,
		mainClassName: mainClassName,
		main:          main,
		mainData:      mainData,
		helperMethods: make(map[string]*helperMethod),
		tupleClasses:  make(map[string]*tupleClass),
	}, nil
}

// run walks the decoded module's sections in dependency order, translates
// every function body, then emits the constructor, exports, and
// housekeeping attributes, and finally serializes every class.
func (t *moduleTranslator) run() (*CompiledModule, error) {
	if err := t.checkFeatures(); err != nil {
		return nil, err
	}

	t.indexExports()
	if err := t.processImports(); err != nil {
		return nil, err
	}
	if err := t.processFunctionSection(); err != nil {
		return nil, err
	}
	if err := t.processTables(); err != nil {
		return nil, err
	}
	if err := t.processMemories(); err != nil {
		return nil, err
	}
	if err := t.processGlobals(); err != nil {
		return nil, err
	}
	t.startFunc = t.module.StartSection

	if err := t.assignFunctionHomes(); err != nil {
		return nil, err
	}
	if err := t.processElements(); err != nil {
		return nil, err
	}
	if err := t.processData(); err != nil {
		return nil, err
	}

	nImported := t.module.NumImportedFunctions()
	for i := range t.module.CodeSection {
		if err := t.translateFunction(wasm.Index(nImported + i)); err != nil {
			return nil, err
		}
	}

	if err := t.emitConstructor(); err != nil {
		return nil, err
	}
	if err := t.emitInitialize(); err != nil {
		return nil, err
	}
	if err := t.emitExports(); err != nil {
		return nil, err
	}
	if err := t.emitInnerClasses(); err != nil {
		return nil, err
	}

	return t.collectClasses()
}

// checkFeatures rejects up front what the configured feature baseline
// excludes: multi-value signatures when multi_value is off, reference
// types in signatures/tables/globals when reference_types is off. The
// bulk-memory and remaining per-instruction gates live in the function
// body translator, where the offending opcode is actually seen.
func (t *moduleTranslator) checkFeatures() error {
	for _, ft := range t.module.TypeSection {
		if !t.cfg.featureMultiValue && len(ft.Results) > 1 {
			return UnsupportedFeatureError{Feature: "multi_value function signature"}
		}
		if !t.cfg.featureReferenceTypes {
			for _, vt := range append(append([]wasm.ValueType(nil), ft.Params...), ft.Results...) {
				if vt == wasm.ValueTypeFuncref || vt == wasm.ValueTypeExternref {
					return UnsupportedFeatureError{Feature: "reference_types value type"}
				}
			}
		}
	}
	if !t.cfg.featureReferenceTypes {
		for _, tt := range t.module.TableSection {
			if tt.ElemType == wasm.RefTypeExternref {
				return UnsupportedFeatureError{Feature: "reference_types externref table"}
			}
		}
		if len(t.module.TableSection)+t.module.NumImportedTables() > 1 {
			return UnsupportedFeatureError{Feature: "reference_types multiple tables"}
		}
	}
	if !t.cfg.featureMultiMemory && len(t.module.MemorySection)+t.module.NumImportedMemories() > 1 {
		return UnsupportedFeatureError{Feature: "multi_memory"}
	}
	return nil
}

// funcMethodPrefix names translated function methods <prefix><index>.
const funcMethodPrefix = "f"

// assignFunctionHomes gives every defined function its part class and
// method name before any body is translated, so call sites can reference
// functions that appear later in the code section.
func (t *moduleTranslator) assignFunctionHomes() error {
	nImported := t.module.NumImportedFunctions()
	for i := range t.module.CodeSection {
		funcIdx := nImported + i
		if funcIdx >= len(t.funcs) {
			return InputInvalidError{Msg: "code section has more bodies than declared functions"}
		}
		fn := &t.funcs[funcIdx]
		estimate := estimateCodeBytes(t.module.CodeSection[i])
		part, err := t.partFor(16, estimate)
		if err != nil {
			return err
		}
		part.charge(16, estimate)
		fn.part = part
		fn.methodName = syntheticMethodName(funcMethodPrefix, funcIdx)
	}
	return nil
}

// ctorBuilder threads the pieces of straight-line special-method
// generation (the constructor, initialize(), export wrappers): an
// exprBuilder over the main class's own pool plus the slot the module
// reference lives in ("this" for instance methods).
type ctorBuilder struct {
	t    *moduleTranslator
	eb   *exprBuilder
	pool *classfile.ConstantPool
}

func (t *moduleTranslator) newMainMethodBuilder(entryLocals []verify.Type) *ctorBuilder {
	pool := t.main.Constants()
	cb := bytecode.NewCodeBuilder(pool, entryLocals)
	return &ctorBuilder{t: t, eb: newExprBuilder(cb, verify.NewFrame(entryLocals)), pool: pool}
}

// pushInt mirrors funcTranslator.pushIntConst for main-class methods.
func (c *ctorBuilder) pushInt(v int32) error {
	c.eb.push(verify.Integer())
	if v >= -32768 && v <= 32767 {
		c.eb.insn(bytecode.IConst(v))
		return nil
	}
	idx, err := c.pool.Integer(v)
	if err != nil {
		return err
	}
	c.eb.insn(bytecode.Ldc(idx))
	return nil
}

// constructorDescriptor is the main class's only constructor: one parameter
// per import, in import-section order (a raw MethodHandle for a function
// import, the boxed wrapper for any other kind); no parameters at all for
// an import-free module.
func (t *moduleTranslator) constructorDescriptor() jvmname.MethodDescriptor {
	params := make([]jvmname.FieldType, 0, len(t.module.ImportSection))
	for _, imp := range t.module.ImportSection {
		switch imp.Type {
		case wasm.ExternTypeFunc:
			params = append(params, jvmname.Object(t.javaClasses.Lang.Invoke.MethodHandle.Name))
		case wasm.ExternTypeTable:
			params = append(params, t.boxedTableFieldType(imp.DescTable))
		case wasm.ExternTypeMemory:
			params = append(params, jvmname.Object(t.runtimeCls.Memory.Name))
		case wasm.ExternTypeGlobal:
			params = append(params, jvmname.Object(t.runtimeCls.Global.Name))
		}
	}
	return jvmname.NewMethodDescriptor(params, nil)
}

// emitConstructor builds <init>: call Object.<init>, store import
// parameters, allocate memories and tables, evaluate global initializers,
// then run the active element and data segments. Everything is straight
// line, so no stack map table is needed.
func (t *moduleTranslator) emitConstructor() error {
	desc := t.constructorDescriptor()

	entryLocals := make([]verify.Type, 0, len(desc.Parameters)+1)
	entryLocals = append(entryLocals, verify.UninitializedThis())
	for _, p := range desc.Parameters {
		entryLocals = append(entryLocals, verify.FromFieldType(p, t.resolveClass))
	}
	c := t.newMainMethodBuilder(entryLocals)
	eb, pool := c.eb, c.pool
	selfType := verify.Object(t.mainData)

	objectInit, err := pool.MethodRefByName(jvmname.Object_, jvmname.Init_, jvmname.NewMethodDescriptor(nil, nil), false)
	if err != nil {
		return err
	}
	eb.push(verify.UninitializedThis())
	eb.insn(bytecode.ALoad(0))
	eb.pop()
	eb.insn(bytecode.InvokeSpecial(objectInit))
	eb.frame.Locals[0] = selfType

	// Import parameters, in declaration order; every parameter is a
	// single-slot reference.
	if err := t.storeImportParams(c); err != nil {
		return err
	}
	if err := t.initMemories(c); err != nil {
		return err
	}
	if err := t.initTables(c); err != nil {
		return err
	}
	if err := t.initGlobals(c); err != nil {
		return err
	}
	if err := t.runActiveElements(c); err != nil {
		return err
	}
	if err := t.runActiveData(c); err != nil {
		return err
	}

	eb.branch(bytecode.Return(bytecode.ReturnVoid))
	code, err := eb.cb.Result()
	if err != nil {
		return err
	}
	return t.main.AddMethod(jvmname.MethodPublic, jvmname.Init_, desc, []classfile.Attribute{*code})
}

func (t *moduleTranslator) storeImportParams(c *ctorBuilder) error {
	eb, pool := c.eb, c.pool
	selfType := verify.Object(t.mainData)

	slot := uint16(1)
	var fnSeen, tblSeen, memSeen, glbSeen int
	for _, imp := range t.module.ImportSection {
		var fieldName jvmname.UnqualifiedName
		var fieldDesc jvmname.FieldType
		switch imp.Type {
		case wasm.ExternTypeFunc:
			info := t.importedFunc(fnSeen)
			fieldName, fieldDesc = info.fieldName, info.fieldDesc
			fnSeen++
		case wasm.ExternTypeTable:
			fieldName, fieldDesc = t.tables[tblSeen].fieldName, t.tables[tblSeen].fieldDesc
			tblSeen++
		case wasm.ExternTypeMemory:
			fieldName, fieldDesc = t.mems[memSeen].fieldName, t.mems[memSeen].fieldDesc
			memSeen++
		case wasm.ExternTypeGlobal:
			fieldName, fieldDesc = t.globals[glbSeen].fieldName, t.globals[glbSeen].fieldDesc
			glbSeen++
		}
		fieldIdx, err := pool.FieldRefByName(t.mainClassName, fieldName, fieldDesc)
		if err != nil {
			return err
		}
		eb.push(selfType)
		eb.insn(bytecode.ALoad(0))
		eb.push(verify.FromFieldType(fieldDesc, t.resolveClass))
		eb.insn(bytecode.ALoad(slot))
		eb.pop()
		eb.pop()
		eb.insn(bytecode.PutField(fieldIdx))
		slot++
	}
	return nil
}

// importedFunc finds the Nth imported function's funcInfo (imported
// functions occupy the low end of t.funcs, but interleaved with nothing
// else, so the Nth is simply t.funcs[N]).
func (t *moduleTranslator) importedFunc(n int) *funcInfo {
	return &t.funcs[n]
}

func (t *moduleTranslator) initMemories(c *ctorBuilder) error {
	eb, pool := c.eb, c.pool
	selfType := verify.Object(t.mainData)
	jc, jm := &t.javaClasses, &t.javaMembers
	bufType := verify.Object(jc.NIO.ByteBuffer)

	nImported := t.module.NumImportedMemories()
	for localIdx, mt := range t.module.MemorySection {
		mem := t.mems[nImported+localIdx]
		bytes := int64(mt.Limits.Min) * 65536
		if bytes > 0x7FFFFFFF {
			return ModuleTooLargeError{Reason: fmt.Sprintf("initial memory of %d pages exceeds the JVM's 2GiB array limit", mt.Limits.Min)}
		}

		fieldIdx, err := pool.FieldRefByName(t.mainClassName, mem.fieldName, mem.fieldDesc)
		if err != nil {
			return err
		}
		allocIdx, err := t.jdkMethod(pool, jc.NIO.ByteBuffer, jm.ByteBufferAllocate)
		if err != nil {
			return err
		}
		orderIdx, err := t.jdkMethod(pool, jc.NIO.ByteBuffer, jm.ByteBufferOrder)
		if err != nil {
			return err
		}
		leIdx, err := t.jdkField(pool, jc.NIO.ByteOrder, jm.ByteOrderLittleEndian)
		if err != nil {
			return err
		}

		eb.push(selfType)
		eb.insn(bytecode.ALoad(0))

		var wrapperCtor classfile.Index
		if mem.boxed {
			wrapperClassIdx, err := pool.ClassByName(t.runtimeCls.Memory.Name.String())
			if err != nil {
				return err
			}
			ctorDesc := jvmname.NewMethodDescriptor([]jvmname.FieldType{jvmname.Object(jc.NIO.ByteBuffer.Name)}, nil)
			wrapperCtor, err = pool.MethodRefByName(t.runtimeCls.Memory.Name, jvmname.Init_, ctorDesc, false)
			if err != nil {
				return err
			}
			wrapperType := verify.Object(t.runtimeCls.Memory)
			eb.insn(bytecode.New(wrapperClassIdx))
			eb.push(wrapperType)
			eb.insn(bytecode.Dup())
			eb.push(wrapperType)
		}

		if err := c.pushInt(int32(bytes)); err != nil {
			return err
		}
		eb.pop()
		eb.push(bufType)
		eb.insn(bytecode.InvokeStatic(allocIdx))
		eb.push(verify.Object(jc.NIO.ByteOrder))
		eb.insn(bytecode.GetStatic(leIdx))
		eb.pop()
		eb.pop()
		eb.push(bufType)
		eb.insn(bytecode.InvokeVirtual(orderIdx))

		if mem.boxed {
			eb.pop() // buffer consumed by the wrapper constructor
			eb.pop() // the dup'd wrapper ref
			eb.insn(bytecode.InvokeSpecial(wrapperCtor))
		}
		eb.pop()
		eb.pop()
		eb.insn(bytecode.PutField(fieldIdx))
	}
	return nil
}

func (t *moduleTranslator) initTables(c *ctorBuilder) error {
	eb, pool := c.eb, c.pool
	selfType := verify.Object(t.mainData)

	nImported := t.module.NumImportedTables()
	for localIdx, tt := range t.module.TableSection {
		tbl := t.tables[nImported+localIdx]
		elemClass := t.javaClasses.Lang.Invoke.MethodHandle
		if tt.ElemType == wasm.RefTypeExternref {
			elemClass = t.javaClasses.Lang.Object
		}
		elemClassIdx, err := pool.ClassByName(elemClass.Name.String())
		if err != nil {
			return err
		}
		fieldIdx, err := pool.FieldRefByName(t.mainClassName, tbl.fieldName, tbl.fieldDesc)
		if err != nil {
			return err
		}

		eb.push(selfType)
		eb.insn(bytecode.ALoad(0))

		var wrapperCtor classfile.Index
		if tbl.boxed {
			wcls := t.runtimeCls.FunctionTable
			if tt.ElemType == wasm.RefTypeExternref {
				wcls = t.runtimeCls.ReferenceTable
			}
			wrapperClassIdx, err := pool.ClassByName(wcls.Name.String())
			if err != nil {
				return err
			}
			ctorDesc := jvmname.NewMethodDescriptor([]jvmname.FieldType{t.unboxedTableFieldType(tt)}, nil)
			wrapperCtor, err = pool.MethodRefByName(wcls.Name, jvmname.Init_, ctorDesc, false)
			if err != nil {
				return err
			}
			wrapperType := verify.Object(wcls)
			eb.insn(bytecode.New(wrapperClassIdx))
			eb.push(wrapperType)
			eb.insn(bytecode.Dup())
			eb.push(wrapperType)
		}

		if err := c.pushInt(int32(tt.Limits.Min)); err != nil {
			return err
		}
		eb.pop()
		eb.push(t.tableArrayVerifyType(tt))
		eb.insn(bytecode.ANewArray(elemClassIdx))

		if tbl.boxed {
			eb.pop()
			eb.pop()
			eb.insn(bytecode.InvokeSpecial(wrapperCtor))
		}
		eb.pop()
		eb.pop()
		eb.insn(bytecode.PutField(fieldIdx))
	}
	return nil
}

func (t *moduleTranslator) initGlobals(c *ctorBuilder) error {
	eb, pool := c.eb, c.pool
	selfType := verify.Object(t.mainData)

	nImported := t.module.NumImportedGlobals()
	for localIdx, g := range t.module.GlobalSection {
		glb := t.globals[nImported+localIdx]
		fieldIdx, err := pool.FieldRefByName(t.mainClassName, glb.fieldName, glb.fieldDesc)
		if err != nil {
			return err
		}

		eb.push(selfType)
		eb.insn(bytecode.ALoad(0))

		var wrapperCtor classfile.Index
		if glb.boxed {
			wrapperClassIdx, err := pool.ClassByName(t.runtimeCls.Global.Name.String())
			if err != nil {
				return err
			}
			ctorDesc := jvmname.NewMethodDescriptor([]jvmname.FieldType{jvmname.Object(jvmname.Object_)}, nil)
			wrapperCtor, err = pool.MethodRefByName(t.runtimeCls.Global.Name, jvmname.Init_, ctorDesc, false)
			if err != nil {
				return err
			}
			wrapperType := verify.Object(t.runtimeCls.Global)
			eb.insn(bytecode.New(wrapperClassIdx))
			eb.push(wrapperType)
			eb.insn(bytecode.Dup())
			eb.push(wrapperType)
		}

		if err := t.emitConstExpr(c, g.Init, g.Type.ValType); err != nil {
			return err
		}

		if glb.boxed {
			if err := t.emitBoxForCtor(c, g.Type.ValType); err != nil {
				return err
			}
			eb.pop()
			eb.pop()
			eb.insn(bytecode.InvokeSpecial(wrapperCtor))
		}
		eb.pop()
		eb.pop()
		eb.insn(bytecode.PutField(fieldIdx))
	}
	return nil
}

// emitConstExpr evaluates one WASM constant expression into a value on the
// stack. An i32 constant goes through pushInt (iconst/bipush/sipush, or ldc
// when wider) and the other numeric forms fold to an ldc/ldc2_w; global.get
// (legal only against
// an imported immutable global) and ref.func read module state through the
// "this" reference at slot 0.
func (t *moduleTranslator) emitConstExpr(c *ctorBuilder, ce wasm.ConstantExpression, want wasm.ValueType) error {
	eb, pool := c.eb, c.pool
	v, evalErr := ce.Evaluate(func(idx wasm.Index) (wasm.ConstValue, error) {
		return wasm.ConstValue{}, errGlobalGetInit
	})
	if evalErr == nil && !v.HasFunc && !v.IsNullRef {
		switch v.Type {
		case wasm.ValueTypeI32:
			return c.pushInt(v.I32)
		case wasm.ValueTypeI64:
			idx, err := pool.Long(v.I64)
			if err != nil {
				return err
			}
			eb.push(verify.Long())
			eb.insn(bytecode.Ldc2W(idx))
			return nil
		case wasm.ValueTypeF32:
			idx, err := pool.Float(v.F32)
			if err != nil {
				return err
			}
			eb.push(verify.Float())
			eb.insn(bytecode.Ldc(idx))
			return nil
		case wasm.ValueTypeF64:
			idx, err := pool.Double(v.F64)
			if err != nil {
				return err
			}
			eb.push(verify.Double())
			eb.insn(bytecode.Ldc2W(idx))
			return nil
		}
	}
	if evalErr == nil && v.IsNullRef {
		eb.push(verify.Null())
		eb.insn(bytecode.AConstNull())
		return nil
	}
	if evalErr == nil && v.HasFunc {
		return t.emitFuncHandleExpr(eb, pool, v.FuncIndex, 0)
	}
	if evalErr == nil {
		return InputInvalidError{Msg: "unsupported constant expression result type"}
	}
	if errors.Is(evalErr, errGlobalGetInit) {
		return t.emitImportedGlobalRead(c, ce, want)
	}
	var inv wasm.InvalidError
	if errors.As(evalErr, &inv) {
		return InputInvalidError{Msg: inv.Msg}
	}
	var mal wasm.MalformedError
	if errors.As(evalErr, &mal) {
		return InputMalformedError{Msg: mal.Msg}
	}
	return evalErr
}

// errGlobalGetInit is a sentinel threaded through ConstantExpression.
// Evaluate to detect the global.get form, which must be re-emitted as a
// runtime field read instead of folded.
var errGlobalGetInit = errors.New("constant expression reads a global")

// emitImportedGlobalRead re-decodes the global.get constant expression and
// reads the referenced imported global's boxed value at runtime.
func (t *moduleTranslator) emitImportedGlobalRead(c *ctorBuilder, ce wasm.ConstantExpression, want wasm.ValueType) error {
	idx, err := wasm.ConstExprGlobalIndex(ce)
	if err != nil {
		return InputInvalidError{Msg: err.Error()}
	}
	if int(idx) >= len(t.globals) {
		return InputInvalidError{Msg: "constant expression: global index out of range"}
	}
	return t.emitGlobalReadUnboxed(c.eb, c.pool, t.globals[idx], 0, want)
}

// emitGlobalReadUnboxed reads a global's current value through the module
// reference in local moduleSlot, unboxing down to want.
func (t *moduleTranslator) emitGlobalReadUnboxed(eb *exprBuilder, pool *classfile.ConstantPool, g globalInfo, moduleSlot uint16, want wasm.ValueType) error {
	eb.push(verify.Object(t.mainData))
	eb.insn(bytecode.ALoad(moduleSlot))
	fieldIdx, err := pool.FieldRefByName(t.mainClassName, g.fieldName, g.fieldDesc)
	if err != nil {
		return err
	}
	eb.pop()
	if !g.boxed {
		eb.push(t.verifyTypeFor(want))
		eb.insn(bytecode.GetField(fieldIdx))
		return nil
	}
	eb.push(verify.Object(t.runtimeCls.Global))
	eb.insn(bytecode.GetField(fieldIdx))
	valueIdx, err := t.jdkField(pool, t.runtimeCls.Global, t.runtimeCls.GlobalField)
	if err != nil {
		return err
	}
	eb.pop()
	eb.push(verify.Object(t.javaClasses.Lang.Object))
	eb.insn(bytecode.GetField(valueIdx))
	return t.emitUnboxTo(eb, pool, want)
}

// emitUnboxTo narrows the Object on top of the stack down to want's JVM
// representation: a checkcast to the box class followed by the matching
// Number accessor for numerics, a checkcast for funcref, nothing for
// externref.
func (t *moduleTranslator) emitUnboxTo(eb *exprBuilder, pool *classfile.ConstantPool, want wasm.ValueType) error {
	jc, jm := &t.javaClasses, &t.javaMembers
	var box *classgraph.ClassData
	var unbox *classgraph.MethodData
	switch want {
	case wasm.ValueTypeI32:
		box, unbox = jc.Lang.Number, jm.NumberIntValue
	case wasm.ValueTypeI64:
		box, unbox = jc.Lang.Number, jm.NumberLongValue
	case wasm.ValueTypeF32:
		box, unbox = jc.Lang.Number, jm.NumberFloatValue
	case wasm.ValueTypeF64:
		box, unbox = jc.Lang.Number, jm.NumberDoubleValue
	case wasm.ValueTypeFuncref:
		classIdx, err := pool.ClassByName(jc.Lang.Invoke.MethodHandle.Name.String())
		if err != nil {
			return err
		}
		eb.pop()
		eb.push(verify.Object(jc.Lang.Invoke.MethodHandle))
		eb.insn(bytecode.CheckCast(classIdx))
		return nil
	default:
		return nil
	}
	classIdx, err := pool.ClassByName(box.Name.String())
	if err != nil {
		return err
	}
	eb.pop()
	eb.push(verify.Object(box))
	eb.insn(bytecode.CheckCast(classIdx))
	methodIdx, err := t.jdkMethod(pool, box, unbox)
	if err != nil {
		return err
	}
	eb.pop()
	eb.push(t.verifyTypeFor(want))
	eb.insn(bytecode.InvokeVirtual(methodIdx))
	return nil
}

// emitBoxForCtor widens the primitive on top of the stack into its box for
// storage through the Global wrapper's Object-typed field; reference types
// pass through.
func (t *moduleTranslator) emitBoxForCtor(c *ctorBuilder, vt wasm.ValueType) error {
	eb, pool := c.eb, c.pool
	jc, jm := &t.javaClasses, &t.javaMembers
	var owner *classgraph.ClassData
	var valueOf *classgraph.MethodData
	switch vt {
	case wasm.ValueTypeI32:
		owner, valueOf = jc.Lang.Integer, jm.IntegerValueOf
	case wasm.ValueTypeI64:
		owner, valueOf = jc.Lang.Long, jm.LongValueOf
	case wasm.ValueTypeF32:
		owner, valueOf = jc.Lang.Float, jm.FloatValueOf
	case wasm.ValueTypeF64:
		owner, valueOf = jc.Lang.Double, jm.DoubleValueOf
	default:
		return nil
	}
	methodIdx, err := t.jdkMethod(pool, owner, valueOf)
	if err != nil {
		return err
	}
	eb.pop()
	eb.push(verify.Object(jc.Lang.Object))
	eb.insn(bytecode.InvokeStatic(methodIdx))
	return nil
}

// emitFuncHandleExpr leaves a bound MethodHandle for function fnIdx on the
// stack, reachable through the module reference in local moduleSlot: the
// raw handle of an imported function, or a defined function's static-
// method handle with the trailing module argument pre-inserted.
func (t *moduleTranslator) emitFuncHandleExpr(eb *exprBuilder, pool *classfile.ConstantPool, fnIdx wasm.Index, moduleSlot uint16) error {
	if int(fnIdx) >= len(t.funcs) {
		return InputInvalidError{Msg: "ref.func: function index out of range"}
	}
	fn := t.funcs[fnIdx]
	mh := verify.Object(t.javaClasses.Lang.Invoke.MethodHandle)

	if fn.imported {
		eb.push(verify.Object(t.mainData))
		eb.insn(bytecode.ALoad(moduleSlot))
		fieldIdx, err := pool.FieldRefByName(t.mainClassName, fn.fieldName, fn.fieldDesc)
		if err != nil {
			return err
		}
		eb.pop()
		eb.push(mh)
		eb.insn(bytecode.GetField(fieldIdx))
		return nil
	}

	desc := t.methodDescriptorFor(fn.typ, true)
	methodRefIdx, err := pool.MethodRefByName(fn.part.name, fn.methodName, desc, false)
	if err != nil {
		return err
	}
	handleIdx, err := pool.MethodHandle(classfile.HandleInvokeStatic, methodRefIdx)
	if err != nil {
		return err
	}
	objClassIdx, err := pool.ClassByName(t.javaClasses.Lang.Object.Name.String())
	if err != nil {
		return err
	}
	insertIdx, err := t.jdkMethod(pool, t.javaClasses.Lang.Invoke.MethodHandles, t.javaMembers.MethodHandlesInsertArgs)
	if err != nil {
		return err
	}
	objArr := verify.Array(verify.Object(t.javaClasses.Lang.Object))

	eb.push(mh)
	eb.insn(bytecode.Ldc(handleIdx))
	eb.push(verify.Integer())
	eb.insn(bytecode.IConst(int32(len(fn.typ.Params))))
	eb.push(verify.Integer())
	eb.insn(bytecode.IConst(1))
	eb.pop()
	eb.push(objArr)
	eb.insn(bytecode.ANewArray(objClassIdx))
	eb.push(objArr)
	eb.insn(bytecode.Dup())
	eb.push(verify.Integer())
	eb.insn(bytecode.IConst(0))
	eb.push(verify.Object(t.mainData))
	eb.insn(bytecode.ALoad(moduleSlot))
	eb.pop()
	eb.pop()
	eb.pop()
	eb.insn(bytecode.AAStore())
	eb.pop()
	eb.pop()
	eb.pop()
	eb.push(mh)
	eb.insn(bytecode.InvokeStatic(insertIdx))
	return nil
}

// runActiveElements copies every active element segment into its table at
// the segment's offset, using the segment's generator method.
func (t *moduleTranslator) runActiveElements(c *ctorBuilder) error {
	eb, pool := c.eb, c.pool
	for _, gen := range t.elemInits {
		if gen.seg.Mode != wasm.ElementModeActive {
			continue
		}
		n := elemSegmentLen(gen.seg)
		if int(gen.seg.TableIndex) >= len(t.tables) {
			return InputInvalidError{Msg: "element segment: table index out of range"}
		}
		tbl := t.tables[gen.seg.TableIndex]

		genIdx, err := pool.MethodRefByName(gen.part.name, gen.methodName, t.elemGeneratorDescriptor(gen.seg), false)
		if err != nil {
			return err
		}
		eb.push(verify.Object(t.mainData))
		eb.insn(bytecode.ALoad(0))
		eb.pop()
		eb.push(t.tableArrayVerifyType(wasm.TableType{ElemType: gen.seg.Type}))
		eb.insn(bytecode.InvokeStatic(genIdx))
		if err := c.pushInt(0); err != nil {
			return err
		}
		if err := t.pushTableArrayCtor(c, tbl); err != nil {
			return err
		}
		if err := t.emitConstExpr(c, gen.seg.OffsetExpr, wasm.ValueTypeI32); err != nil {
			return err
		}
		if err := c.pushInt(int32(n)); err != nil {
			return err
		}
		if err := c.invokeArraycopy(); err != nil {
			return err
		}
	}
	return nil
}

// pushTableArrayCtor is pushTableArray for main-class methods (module
// reference at slot 0).
func (t *moduleTranslator) pushTableArrayCtor(c *ctorBuilder, tbl tableInfo) error {
	eb, pool := c.eb, c.pool
	eb.push(verify.Object(t.mainData))
	eb.insn(bytecode.ALoad(0))
	fieldIdx, err := pool.FieldRefByName(t.mainClassName, tbl.fieldName, tbl.fieldDesc)
	if err != nil {
		return err
	}
	eb.pop()
	eb.push(verify.FromFieldType(tbl.fieldDesc, t.resolveClass))
	eb.insn(bytecode.GetField(fieldIdx))
	if !tbl.boxed {
		return nil
	}
	wrapper := t.runtimeCls.FunctionTable
	wrapperField := t.runtimeCls.FunctionTableField
	if tbl.typ.ElemType == wasm.RefTypeExternref {
		wrapper = t.runtimeCls.ReferenceTable
		wrapperField = t.runtimeCls.ReferenceTableField
	}
	valueIdx, err := t.jdkField(pool, wrapper, wrapperField)
	if err != nil {
		return err
	}
	eb.pop()
	eb.push(verify.FromFieldType(wrapperField.Descriptor, t.resolveClass))
	eb.insn(bytecode.GetField(valueIdx))
	return nil
}

func (c *ctorBuilder) invokeArraycopy() error {
	copyIdx, err := c.t.jdkMethod(c.pool, c.t.javaClasses.Lang.System, c.t.javaMembers.SystemArraycopy)
	if err != nil {
		return err
	}
	for i := 0; i < 5; i++ {
		c.eb.pop()
	}
	c.eb.insn(bytecode.InvokeStatic(copyIdx))
	return nil
}

// runActiveData copies every active data segment into memory at its
// offset, through the segment's generator method.
func (t *moduleTranslator) runActiveData(c *ctorBuilder) error {
	eb, pool := c.eb, c.pool
	for _, gen := range t.dataInits {
		if gen.seg.Passive {
			continue
		}
		if len(t.mems) == 0 {
			return InputInvalidError{Msg: "active data segment in a module with no memory"}
		}
		genIdx, err := pool.MethodRefByName(gen.part.name, gen.methodName, dataGeneratorDescriptor(), false)
		if err != nil {
			return err
		}
		eb.push(verify.Array(verify.Integer()))
		eb.insn(bytecode.InvokeStatic(genIdx))
		if err := c.pushInt(0); err != nil {
			return err
		}
		if err := t.pushMemoryArrayCtor(c); err != nil {
			return err
		}
		if err := t.emitConstExpr(c, gen.seg.OffsetExpression, wasm.ValueTypeI32); err != nil {
			return err
		}
		if err := c.pushInt(int32(len(gen.seg.Init))); err != nil {
			return err
		}
		if err := c.invokeArraycopy(); err != nil {
			return err
		}
	}
	return nil
}

// pushMemoryArrayCtor is pushMemoryArray for main-class methods.
func (t *moduleTranslator) pushMemoryArrayCtor(c *ctorBuilder) error {
	eb, pool := c.eb, c.pool
	mem := t.mems[0]
	eb.push(verify.Object(t.mainData))
	eb.insn(bytecode.ALoad(0))
	fieldIdx, err := pool.FieldRefByName(t.mainClassName, mem.fieldName, mem.fieldDesc)
	if err != nil {
		return err
	}
	eb.pop()
	bufType := verify.Object(t.javaClasses.NIO.ByteBuffer)
	if mem.boxed {
		eb.push(verify.Object(t.runtimeCls.Memory))
		eb.insn(bytecode.GetField(fieldIdx))
		valueIdx, err := t.jdkField(pool, t.runtimeCls.Memory, t.runtimeCls.MemoryField)
		if err != nil {
			return err
		}
		eb.pop()
		eb.push(bufType)
		eb.insn(bytecode.GetField(valueIdx))
	} else {
		eb.push(bufType)
		eb.insn(bytecode.GetField(fieldIdx))
	}
	arrayIdx, err := t.jdkMethod(pool, t.javaClasses.NIO.ByteBuffer, t.javaMembers.ByteBufferArray)
	if err != nil {
		return err
	}
	eb.pop()
	eb.push(verify.Array(verify.Integer()))
	eb.insn(bytecode.InvokeVirtual(arrayIdx))
	return nil
}

// emitInitialize emits the public initialize() method when the module
// declares a start function; callers invoke it once after construction,
// matching the runtime ABI's split between wiring (the constructor) and
// the module's own startup code.
func (t *moduleTranslator) emitInitialize() error {
	if t.startFunc == nil {
		return nil
	}
	if int(*t.startFunc) >= len(t.funcs) {
		return InputInvalidError{Msg: "start section: function index out of range"}
	}
	fn := t.funcs[*t.startFunc]
	if len(fn.typ.Params) != 0 || len(fn.typ.Results) != 0 {
		return InputInvalidError{Msg: "start function must have an empty signature"}
	}

	selfType := verify.Object(t.mainData)
	c := t.newMainMethodBuilder([]verify.Type{selfType})
	eb, pool := c.eb, c.pool

	if fn.imported {
		if err := t.emitFuncHandleExpr(eb, pool, *t.startFunc, 0); err != nil {
			return err
		}
		desc := t.methodDescriptorFor(fn.typ, false)
		invokeIdx, err := pool.MethodRefByName(t.javaClasses.Lang.Invoke.MethodHandle.Name, jvmname.InvokeExact, desc, false)
		if err != nil {
			return err
		}
		eb.pop()
		eb.insn(bytecode.InvokeVirtual(invokeIdx))
	} else {
		desc := t.methodDescriptorFor(fn.typ, true)
		methodIdx, err := pool.MethodRefByName(fn.part.name, fn.methodName, desc, false)
		if err != nil {
			return err
		}
		eb.push(selfType)
		eb.insn(bytecode.ALoad(0))
		eb.pop()
		eb.insn(bytecode.InvokeStatic(methodIdx))
	}
	eb.branch(bytecode.Return(bytecode.ReturnVoid))

	code, err := eb.cb.Result()
	if err != nil {
		return err
	}
	return t.main.AddMethod(jvmname.MethodPublic, jvmname.MustUnqualifiedName("initialize"), jvmname.NewMethodDescriptor(nil, nil), []classfile.Attribute{*code})
}

// emitExports adds one public member to the main class per export: a
// wrapper method per function export, a getter per table/memory/global
// export. Renamed names that still collide (distinct WASM names can
// sanitize identically) grow trailing underscores, the same way the
// renamer resolves reserved-word collisions.
func (t *moduleTranslator) emitExports() error {
	used := map[string]bool{"initialize": t.startFunc != nil}
	exportName := func(renamed string) jvmname.UnqualifiedName {
		if renamed == "" {
			renamed = "_" // "" is a legal WASM export name; a JVM member needs something
		}
		for used[renamed] {
			renamed += "_"
		}
		used[renamed] = true
		return jvmname.MustUnqualifiedName(renamed)
	}

	for _, exp := range t.module.ExportSection {
		switch exp.Kind {
		case wasm.ExternalKindFunc:
			if int(exp.Index) >= len(t.funcs) {
				return InputInvalidError{Msg: "export: function index out of range"}
			}
			name := exportName(t.cfg.renamer.RenameFunction(exp.Name))
			if err := t.emitFunctionExport(name, exp.Index); err != nil {
				return err
			}
		case wasm.ExternalKindTable:
			if int(exp.Index) >= len(t.tables) {
				return InputInvalidError{Msg: "export: table index out of range"}
			}
			tbl := t.tables[exp.Index]
			name := exportName(t.cfg.renamer.RenameTable(exp.Name))
			if err := t.emitGetterExport(name, tbl.fieldName, tbl.fieldDesc); err != nil {
				return err
			}
		case wasm.ExternalKindMemory:
			if int(exp.Index) >= len(t.mems) {
				return InputInvalidError{Msg: "export: memory index out of range"}
			}
			mem := t.mems[exp.Index]
			name := exportName(t.cfg.renamer.RenameFunction(exp.Name))
			if err := t.emitGetterExport(name, mem.fieldName, mem.fieldDesc); err != nil {
				return err
			}
		case wasm.ExternalKindGlobal:
			if int(exp.Index) >= len(t.globals) {
				return InputInvalidError{Msg: "export: global index out of range"}
			}
			glb := t.globals[exp.Index]
			name := exportName(t.cfg.renamer.RenameGlobal(exp.Name))
			if err := t.emitGetterExport(name, glb.fieldName, glb.fieldDesc); err != nil {
				return err
			}
		}
	}
	return nil
}

// emitFunctionExport wraps a function as a public instance method: load
// every argument, then either invokestatic the part method (with this as
// the trailing module argument) or invokeExact an import's raw handle.
func (t *moduleTranslator) emitFunctionExport(name jvmname.UnqualifiedName, fnIdx wasm.Index) error {
	fn := t.funcs[fnIdx]
	desc := t.methodDescriptorFor(fn.typ, false)

	selfType := verify.Object(t.mainData)
	entryLocals := make([]verify.Type, 0, len(fn.typ.Params)+1)
	entryLocals = append(entryLocals, selfType)
	slots := make([]uint16, len(fn.typ.Params))
	phys := uint16(1)
	for i, p := range fn.typ.Params {
		entryLocals = append(entryLocals, t.verifyTypeFor(p))
		slots[i] = phys
		phys += uint16(wasmValueWidth(p))
	}
	c := t.newMainMethodBuilder(entryLocals)
	eb, pool := c.eb, c.pool

	if fn.imported {
		if err := t.emitFuncHandleExpr(eb, pool, fnIdx, 0); err != nil {
			return err
		}
		for i, p := range fn.typ.Params {
			eb.push(t.verifyTypeFor(p))
			eb.insn(loadInsnFor(p, slots[i]))
		}
		rawDesc := t.methodDescriptorFor(fn.typ, false)
		invokeIdx, err := pool.MethodRefByName(t.javaClasses.Lang.Invoke.MethodHandle.Name, jvmname.InvokeExact, rawDesc, false)
		if err != nil {
			return err
		}
		for range fn.typ.Params {
			eb.pop()
		}
		eb.pop() // handle
		if err := t.pushExportResult(c, fn.typ.Results); err != nil {
			return err
		}
		eb.insn(bytecode.InvokeVirtual(invokeIdx))
	} else {
		for i, p := range fn.typ.Params {
			eb.push(t.verifyTypeFor(p))
			eb.insn(loadInsnFor(p, slots[i]))
		}
		eb.push(selfType)
		eb.insn(bytecode.ALoad(0))
		partDesc := t.methodDescriptorFor(fn.typ, true)
		methodIdx, err := pool.MethodRefByName(fn.part.name, fn.methodName, partDesc, false)
		if err != nil {
			return err
		}
		for range fn.typ.Params {
			eb.pop()
		}
		eb.pop() // module argument
		if err := t.pushExportResult(c, fn.typ.Results); err != nil {
			return err
		}
		eb.insn(bytecode.InvokeStatic(methodIdx))
	}
	eb.branch(exportReturnInstruction(fn.typ.Results))

	code, err := eb.cb.Result()
	if err != nil {
		return err
	}
	return t.main.AddMethod(jvmname.MethodPublic, name, desc, []classfile.Attribute{*code})
}

func (t *moduleTranslator) pushExportResult(c *ctorBuilder, results []wasm.ValueType) error {
	switch len(results) {
	case 0:
	case 1:
		c.eb.push(t.verifyTypeFor(results[0]))
	default:
		c.eb.push(verify.Object(t.tupleClassFor(results).data))
	}
	return nil
}

func exportReturnInstruction(results []wasm.ValueType) bytecode.BranchInstruction {
	switch len(results) {
	case 0:
		return bytecode.Return(bytecode.ReturnVoid)
	case 1:
		switch results[0] {
		case wasm.ValueTypeI32:
			return bytecode.Return(bytecode.ReturnInt)
		case wasm.ValueTypeI64:
			return bytecode.Return(bytecode.ReturnLong)
		case wasm.ValueTypeF32:
			return bytecode.Return(bytecode.ReturnFloat)
		case wasm.ValueTypeF64:
			return bytecode.Return(bytecode.ReturnDouble)
		default:
			return bytecode.Return(bytecode.ReturnRef)
		}
	default:
		return bytecode.Return(bytecode.ReturnRef)
	}
}

// emitGetterExport is the memory/table/global export shape: a no-argument
// method returning the boxed runtime wrapper (allocation guaranteed the
// boxed representation for every exported entity).
func (t *moduleTranslator) emitGetterExport(name jvmname.UnqualifiedName, fieldName jvmname.UnqualifiedName, fieldDesc jvmname.FieldType) error {
	selfType := verify.Object(t.mainData)
	c := t.newMainMethodBuilder([]verify.Type{selfType})
	eb, pool := c.eb, c.pool

	fieldIdx, err := pool.FieldRefByName(t.mainClassName, fieldName, fieldDesc)
	if err != nil {
		return err
	}
	eb.push(selfType)
	eb.insn(bytecode.ALoad(0))
	eb.pop()
	eb.push(verify.FromFieldType(fieldDesc, t.resolveClass))
	eb.insn(bytecode.GetField(fieldIdx))
	eb.branch(bytecode.Return(bytecode.ReturnRef))

	code, err := eb.cb.Result()
	if err != nil {
		return err
	}
	ret := fieldDesc
	return t.main.AddMethod(jvmname.MethodPublic, name, jvmname.NewMethodDescriptor(nil, &ret), []classfile.Attribute{*code})
}

// emitInnerClasses ties each part class to the main class via the
// InnerClasses attribute on both sides.
func (t *moduleTranslator) emitInnerClasses() error {
	if len(t.parts) == 0 {
		return nil
	}
	mainPool := t.main.Constants()
	entries := make([]classfile.InnerClass, 0, len(t.parts))
	for _, p := range t.parts {
		entry, err := t.innerClassEntry(mainPool, p)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	attr, err := classfile.NewInnerClassesAttribute(mainPool, entries)
	if err != nil {
		return err
	}
	t.main.AddAttribute(attr)

	for _, p := range t.parts {
		pool := p.builder.Constants()
		entry, err := t.innerClassEntry(pool, p)
		if err != nil {
			return err
		}
		attr, err := classfile.NewInnerClassesAttribute(pool, []classfile.InnerClass{entry})
		if err != nil {
			return err
		}
		p.builder.AddAttribute(attr)
	}
	return nil
}

func (t *moduleTranslator) innerClassEntry(pool *classfile.ConstantPool, p *partBuilder) (classfile.InnerClass, error) {
	innerIdx, err := pool.ClassByName(p.name.String())
	if err != nil {
		return classfile.InnerClass{}, err
	}
	outerIdx, err := pool.ClassByName(t.mainClassName.String())
	if err != nil {
		return classfile.InnerClass{}, err
	}
	nameUTF8, err := pool.UTF8(fmt.Sprintf("Part%d", p.index))
	if err != nil {
		return classfile.InnerClass{}, err
	}
	return classfile.InnerClass{
		Inner:       innerIdx,
		Outer:       outerIdx,
		InnerName:   nameUTF8,
		AccessFlags: classfile.InnerClassStatic,
	}, nil
}

// collectClasses serializes every finished class in deterministic order:
// main, parts by index, tuple classes by name, the five runtime helpers by
// name.
func (t *moduleTranslator) collectClasses() (*CompiledModule, error) {
	out := &CompiledModule{MainClass: t.mainClassName.String()}

	add := func(name string, cf *classfile.ClassFile) error {
		bytes, err := cf.Write()
		if err != nil {
			return err
		}
		out.Classes = append(out.Classes, CompiledClass{Name: name, Bytes: bytes})
		return nil
	}

	if err := add(t.mainClassName.String(), t.main.Result()); err != nil {
		return nil, err
	}
	for _, p := range t.parts {
		if err := add(p.name.String(), p.builder.Result()); err != nil {
			return nil, err
		}
	}

	tupleNames := make([]string, 0, len(t.tupleClasses))
	byName := make(map[string]*tupleClass, len(t.tupleClasses))
	for _, tc := range t.tupleClasses {
		tupleNames = append(tupleNames, tc.name.String())
		byName[tc.name.String()] = tc
	}
	sort.Strings(tupleNames)
	for _, name := range tupleNames {
		if err := add(name, byName[name].class); err != nil {
			return nil, err
		}
	}

	runtimeFiles, err := runtime.BuildClassFiles(t.graph, t.runtimeCls, t.javaClasses)
	if err != nil {
		return nil, err
	}
	runtimeNames := make([]string, 0, len(runtimeFiles))
	for name := range runtimeFiles {
		runtimeNames = append(runtimeNames, name)
	}
	sort.Strings(runtimeNames)
	for _, name := range runtimeNames {
		if err := add(name, runtimeFiles[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
