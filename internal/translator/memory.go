package translator

import (
	"github.com/wasm2jar/wasm2jar/internal/bytecode"
	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/classgraph"
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
	"github.com/wasm2jar/wasm2jar/internal/verify"
	"github.com/wasm2jar/wasm2jar/internal/wasm"
)

// maxMemoryPages caps a 32-bit memory at 2^32 bytes of 64KiB pages. A
// memory.grow past this (or past the memory's own declared max) answers -1
// instead of growing.
const maxMemoryPages = 65536

// pushMemoryBuffer leaves the module's backing ByteBuffer on the stack,
// reading it through the Memory wrapper when the memory is boxed. It only
// touches the JVM frame, never the WASM shadow stack.
func (ft *funcTranslator) pushMemoryBuffer(pool *classfile.ConstantPool) error {
	if len(ft.t.mems) == 0 {
		return InputInvalidError{Msg: "memory instruction in a module with no memory"}
	}
	mem := ft.t.mems[0]
	ft.eb.push(verify.Object(ft.t.mainData))
	ft.eb.insn(bytecode.ALoad(ft.moduleArgSlot))
	fieldIdx, err := pool.FieldRefByName(ft.t.mainClassName, mem.fieldName, mem.fieldDesc)
	if err != nil {
		return err
	}
	ft.eb.pop()
	bufType := verify.Object(ft.t.javaClasses.NIO.ByteBuffer)
	if !mem.boxed {
		ft.eb.push(bufType)
		ft.eb.insn(bytecode.GetField(fieldIdx))
		return nil
	}
	ft.eb.push(verify.Object(ft.t.runtimeCls.Memory))
	ft.eb.insn(bytecode.GetField(fieldIdx))
	valueIdx, err := ft.t.jdkField(pool, ft.t.runtimeCls.Memory, ft.t.runtimeCls.MemoryField)
	if err != nil {
		return err
	}
	ft.eb.pop()
	ft.eb.push(bufType)
	ft.eb.insn(bytecode.GetField(valueIdx))
	return nil
}

// pushMemoryArray leaves the heap byte[] backing the module's memory on
// the stack, for the bulk instructions that go through System.arraycopy
// and Arrays.fill instead of per-element ByteBuffer calls. The buffer is
// always heap-allocated (ByteBuffer.allocate), so array() never throws.
func (ft *funcTranslator) pushMemoryArray(pool *classfile.ConstantPool) error {
	if err := ft.pushMemoryBuffer(pool); err != nil {
		return err
	}
	arrayIdx, err := ft.t.jdkMethod(pool, ft.t.javaClasses.NIO.ByteBuffer, ft.t.javaMembers.ByteBufferArray)
	if err != nil {
		return err
	}
	ft.eb.pop()
	ft.eb.push(verify.Array(verify.Integer()))
	ft.eb.insn(bytecode.InvokeVirtual(arrayIdx))
	return nil
}

// pushIntConst pushes an int constant, going through the pool for values
// outside sipush range (bytecode.IConst refuses those).
func (ft *funcTranslator) pushIntConst(pool *classfile.ConstantPool, v int32) error {
	ft.eb.push(verify.Integer())
	if v >= -32768 && v <= 32767 {
		ft.eb.insn(bytecode.IConst(v))
		return nil
	}
	idx, err := pool.Integer(v)
	if err != nil {
		return err
	}
	ft.eb.insn(bytecode.Ldc(idx))
	return nil
}

// addStaticOffset folds a memarg's static offset into the dynamic address
// already on top of the stack. JVM frame only; the shadow stack still sees
// one i32.
func (ft *funcTranslator) addStaticOffset(pool *classfile.ConstantPool, offset uint32) error {
	if offset == 0 {
		return nil
	}
	if err := ft.pushIntConst(pool, int32(offset)); err != nil {
		return err
	}
	ft.eb.pop()
	ft.eb.pop()
	ft.eb.push(verify.Integer())
	ft.eb.insn(bytecode.IAdd())
	return nil
}

// translateMemAccess lowers every i*.load*/f*.load/i*.store*/f*.store
// opcode: the effective address is the dynamic operand plus the static
// offset, then a single ByteBuffer get*/put* call does the access (the
// buffer was switched to little-endian at construction, matching WASM's
// byte order; an out-of-bounds effective address traps as the
// IndexOutOfBoundsException the buffer itself throws).
func (ft *funcTranslator) translateMemAccess(instr wasm.Instr) error {
	switch instr.Op {
	case wasm.OpcodeI32Load, wasm.OpcodeI32Load8S, wasm.OpcodeI32Load8U,
		wasm.OpcodeI32Load16S, wasm.OpcodeI32Load16U,
		wasm.OpcodeI64Load, wasm.OpcodeI64Load8S, wasm.OpcodeI64Load8U,
		wasm.OpcodeI64Load16S, wasm.OpcodeI64Load16U,
		wasm.OpcodeI64Load32S, wasm.OpcodeI64Load32U,
		wasm.OpcodeF32Load, wasm.OpcodeF64Load:
		return ft.translateLoad(instr)
	default:
		return ft.translateStore(instr)
	}
}

func (ft *funcTranslator) translateLoad(instr wasm.Instr) error {
	pool := ft.eb.cb.Constants()
	jm := &ft.t.javaMembers
	bb := ft.t.javaClasses.NIO.ByteBuffer

	if err := ft.addStaticOffset(pool, instr.MemArg.Offset); err != nil {
		return err
	}
	ft.resetScratch()
	_, idxSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	if err := ft.pushMemoryBuffer(pool); err != nil {
		return err
	}
	ft.loadScratch(wasm.ValueTypeI32, idxSlot)

	var getter *classgraph.MethodData
	var loaded verify.Type
	var result wasm.ValueType
	switch instr.Op {
	case wasm.OpcodeI32Load:
		getter, loaded, result = jm.ByteBufferGetInt, verify.Integer(), wasm.ValueTypeI32
	case wasm.OpcodeI32Load8S, wasm.OpcodeI32Load8U:
		getter, loaded, result = jm.ByteBufferGetByte, verify.Integer(), wasm.ValueTypeI32
	case wasm.OpcodeI32Load16S, wasm.OpcodeI32Load16U:
		getter, loaded, result = jm.ByteBufferGetShort, verify.Integer(), wasm.ValueTypeI32
	case wasm.OpcodeI64Load:
		getter, loaded, result = jm.ByteBufferGetLong, verify.Long(), wasm.ValueTypeI64
	case wasm.OpcodeI64Load8S, wasm.OpcodeI64Load8U:
		getter, loaded, result = jm.ByteBufferGetByte, verify.Integer(), wasm.ValueTypeI64
	case wasm.OpcodeI64Load16S, wasm.OpcodeI64Load16U:
		getter, loaded, result = jm.ByteBufferGetShort, verify.Integer(), wasm.ValueTypeI64
	case wasm.OpcodeI64Load32S, wasm.OpcodeI64Load32U:
		getter, loaded, result = jm.ByteBufferGetInt, verify.Integer(), wasm.ValueTypeI64
	case wasm.OpcodeF32Load:
		getter, loaded, result = jm.ByteBufferGetFloat, verify.Float(), wasm.ValueTypeF32
	case wasm.OpcodeF64Load:
		getter, loaded, result = jm.ByteBufferGetDouble, verify.Double(), wasm.ValueTypeF64
	}

	getIdx, err := ft.t.jdkMethod(pool, bb, getter)
	if err != nil {
		return err
	}
	ft.pop()    // the reloaded index and its shadow
	ft.eb.pop() // buffer
	ft.eb.push(loaded)
	ft.eb.insn(bytecode.InvokeVirtual(getIdx))

	// Extend to the WASM-visible width. getByte/getShort already sign
	// extend (their return types are byte/short, ints on the stack), so
	// only the unsigned variants and the i64 family need fixing up.
	switch instr.Op {
	case wasm.OpcodeI32Load8U:
		if err := ft.maskInt(pool, 0xFF); err != nil {
			return err
		}
	case wasm.OpcodeI32Load16U:
		if err := ft.maskInt(pool, 0xFFFF); err != nil {
			return err
		}
	case wasm.OpcodeI64Load8S, wasm.OpcodeI64Load16S, wasm.OpcodeI64Load32S:
		ft.widenIntToLong()
	case wasm.OpcodeI64Load8U:
		ft.widenIntToLong()
		if err := ft.maskLong(pool, 0xFF); err != nil {
			return err
		}
	case wasm.OpcodeI64Load16U:
		ft.widenIntToLong()
		if err := ft.maskLong(pool, 0xFFFF); err != nil {
			return err
		}
	case wasm.OpcodeI64Load32U:
		ft.widenIntToLong()
		if err := ft.maskLong(pool, 0xFFFFFFFF); err != nil {
			return err
		}
	}

	ft.wstack = append(ft.wstack, result)
	return nil
}

func (ft *funcTranslator) widenIntToLong() {
	ft.eb.pop()
	ft.eb.push(verify.Long())
	ft.eb.insn(bytecode.I2L())
}

func (ft *funcTranslator) maskInt(pool *classfile.ConstantPool, mask int32) error {
	if err := ft.pushIntConst(pool, mask); err != nil {
		return err
	}
	ft.eb.pop()
	ft.eb.pop()
	ft.eb.push(verify.Integer())
	ft.eb.insn(bytecode.IAnd())
	return nil
}

func (ft *funcTranslator) maskLong(pool *classfile.ConstantPool, mask int64) error {
	idx, err := pool.Long(mask)
	if err != nil {
		return err
	}
	ft.eb.push(verify.Long())
	ft.eb.insn(bytecode.Ldc2W(idx))
	ft.eb.pop()
	ft.eb.pop()
	ft.eb.push(verify.Long())
	ft.eb.insn(bytecode.LAnd())
	return nil
}

func (ft *funcTranslator) translateStore(instr wasm.Instr) error {
	pool := ft.eb.cb.Constants()
	jm := &ft.t.javaMembers
	bb := ft.t.javaClasses.NIO.ByteBuffer

	var putter *classgraph.MethodData
	narrowLong := false
	switch instr.Op {
	case wasm.OpcodeI32Store:
		putter = jm.ByteBufferPutInt
	case wasm.OpcodeI64Store:
		putter = jm.ByteBufferPutLong
	case wasm.OpcodeF32Store:
		putter = jm.ByteBufferPutFloat
	case wasm.OpcodeF64Store:
		putter = jm.ByteBufferPutDouble
	case wasm.OpcodeI32Store8:
		putter = jm.ByteBufferPutByte
	case wasm.OpcodeI32Store16:
		putter = jm.ByteBufferPutShort
	case wasm.OpcodeI64Store8:
		putter, narrowLong = jm.ByteBufferPutByte, true
	case wasm.OpcodeI64Store16:
		putter, narrowLong = jm.ByteBufferPutShort, true
	case wasm.OpcodeI64Store32:
		putter, narrowLong = jm.ByteBufferPutInt, true
	default:
		return UnsupportedFeatureError{Feature: "memory access opcode not implemented"}
	}

	// [addr, value]: the value's narrowing (an i64.store8's l2i; the final
	// byte/short truncation is the putter's own parameter conversion) is
	// done before stashing, then the operands are reordered beneath the
	// buffer receiver.
	if narrowLong {
		ft.eb.pop()
		ft.eb.push(verify.Integer())
		ft.eb.insn(bytecode.L2I())
		ft.wstack[len(ft.wstack)-1] = wasm.ValueTypeI32
	}
	ft.resetScratch()
	valType, valSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	if err := ft.addStaticOffset(pool, instr.MemArg.Offset); err != nil {
		return err
	}
	_, idxSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	if err := ft.pushMemoryBuffer(pool); err != nil {
		return err
	}
	ft.loadScratch(wasm.ValueTypeI32, idxSlot)
	ft.loadScratch(valType, valSlot)

	putIdx, err := ft.t.jdkMethod(pool, bb, putter)
	if err != nil {
		return err
	}
	ft.pop()    // value
	ft.pop()    // index
	ft.eb.pop() // buffer
	ft.eb.push(verify.Object(bb))
	ft.eb.insn(bytecode.InvokeVirtual(putIdx))
	ft.eb.pop()
	ft.eb.insn(bytecode.Pop()) // put* returns the buffer for chaining; discard
	return nil
}

// memorySize is capacity >>> 16: the buffer's size is always an exact page
// multiple, maintained by construction and by the grow helper.
func (ft *funcTranslator) memorySize() error {
	pool := ft.eb.cb.Constants()
	if err := ft.pushMemoryBuffer(pool); err != nil {
		return err
	}
	capIdx, err := ft.t.jdkMethod(pool, ft.t.javaClasses.NIO.ByteBuffer, ft.t.javaMembers.ByteBufferCapacity)
	if err != nil {
		return err
	}
	ft.eb.pop()
	ft.push(wasm.ValueTypeI32)
	ft.eb.insn(bytecode.InvokeVirtual(capIdx))
	ft.eb.push(verify.Integer())
	ft.eb.insn(bytecode.IConst(16))
	ft.eb.pop()
	ft.eb.pop()
	ft.eb.push(verify.Integer())
	ft.eb.insn(bytecode.IUShr())
	return nil
}

// memoryGrow calls the per-module grow helper: [delta] -> [oldPages|-1].
func (ft *funcTranslator) memoryGrow() error {
	h, err := ft.t.memoryGrowHelper()
	if err != nil {
		return err
	}
	pool := ft.eb.cb.Constants()
	callIdx, err := ft.t.callRef(pool, h)
	if err != nil {
		return err
	}
	ft.eb.push(verify.Object(ft.t.mainData))
	ft.eb.insn(bytecode.ALoad(ft.moduleArgSlot))
	ft.eb.pop()
	ft.pop()
	ft.push(wasm.ValueTypeI32)
	ft.eb.insn(bytecode.InvokeStatic(callIdx))
	return nil
}

// memoryInit copies a slice of a data segment into memory:
// [dest, src, n] -> System.arraycopy(dataK(), src, mem.array(), dest, n).
func (ft *funcTranslator) memoryInit(dataIdx wasm.Index) error {
	if int(dataIdx) >= len(ft.t.dataInits) {
		return InputInvalidError{Msg: "memory.init: data segment index out of range"}
	}
	pool := ft.eb.cb.Constants()
	gen := ft.t.dataInits[dataIdx]

	ft.resetScratch()
	_, nSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	_, srcSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	_, destSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}

	genIdx, err := pool.MethodRefByName(gen.part.name, gen.methodName, dataGeneratorDescriptor(), false)
	if err != nil {
		return err
	}
	ft.eb.push(verify.Array(verify.Integer()))
	ft.eb.insn(bytecode.InvokeStatic(genIdx))
	ft.loadScratch(wasm.ValueTypeI32, srcSlot)
	if err := ft.pushMemoryArray(pool); err != nil {
		return err
	}
	ft.loadScratch(wasm.ValueTypeI32, destSlot)
	ft.loadScratch(wasm.ValueTypeI32, nSlot)
	return ft.invokeArraycopy(pool, 3)
}

// memoryCopy is a self-to-self arraycopy (which handles overlapping
// regions the way WASM requires): [dest, src, n].
func (ft *funcTranslator) memoryCopy() error {
	pool := ft.eb.cb.Constants()
	ft.resetScratch()
	_, nSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	_, srcSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	_, destSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	if err := ft.pushMemoryArray(pool); err != nil {
		return err
	}
	ft.loadScratch(wasm.ValueTypeI32, srcSlot)
	if err := ft.pushMemoryArray(pool); err != nil {
		return err
	}
	ft.loadScratch(wasm.ValueTypeI32, destSlot)
	ft.loadScratch(wasm.ValueTypeI32, nSlot)
	return ft.invokeArraycopy(pool, 3)
}

// invokeArraycopy pops arraycopy's five operands off the JVM frame and
// reloadedShadows reloaded index values off the shadow stack, then emits
// the call.
func (ft *funcTranslator) invokeArraycopy(pool *classfile.ConstantPool, reloadedShadows int) error {
	copyIdx, err := ft.t.jdkMethod(pool, ft.t.javaClasses.Lang.System, ft.t.javaMembers.SystemArraycopy)
	if err != nil {
		return err
	}
	for i := 0; i < 5; i++ {
		ft.eb.pop()
	}
	ft.wstack = ft.wstack[:len(ft.wstack)-reloadedShadows]
	ft.eb.insn(bytecode.InvokeStatic(copyIdx))
	return nil
}

// memoryFill is Arrays.fill(mem.array(), dest, dest+n, (byte)val):
// [dest, val, n].
func (ft *funcTranslator) memoryFill() error {
	pool := ft.eb.cb.Constants()
	ft.resetScratch()
	_, nSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	_, valSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	_, destSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	if err := ft.pushMemoryArray(pool); err != nil {
		return err
	}
	ft.loadScratch(wasm.ValueTypeI32, destSlot)
	ft.loadScratch(wasm.ValueTypeI32, destSlot)
	ft.loadScratch(wasm.ValueTypeI32, nSlot)
	ft.eb.pop()
	ft.eb.pop()
	ft.eb.push(verify.Integer())
	ft.eb.insn(bytecode.IAdd())
	ft.loadScratch(wasm.ValueTypeI32, valSlot)
	ft.eb.pop()
	ft.eb.push(verify.Integer())
	ft.eb.insn(bytecode.I2B())

	fillIdx, err := ft.t.jdkMethod(pool, ft.t.javaClasses.Util.Arrays, ft.t.javaMembers.ArraysFillByteRange)
	if err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		ft.eb.pop()
	}
	ft.wstack = ft.wstack[:len(ft.wstack)-4] // the four reloads above
	ft.eb.insn(bytecode.InvokeStatic(fillIdx))
	return nil
}

// memoryGrowHelper generates static int memoryGrow(int delta, Main m):
// checks the new page count against the memory's declared and
// architectural maxima, reallocates a little-endian heap buffer, copies
// the old contents across, stores the new buffer back through the field
// (or the Memory wrapper's value field when boxed), and returns the old
// page count, or -1 when the grow is refused.
func (t *moduleTranslator) memoryGrowHelper() (*helperMethod, error) {
	if len(t.mems) == 0 {
		return nil, InputInvalidError{Msg: "memory.grow in a module with no memory"}
	}
	mem := t.mems[0]
	maxPages := int64(maxMemoryPages)
	if mem.typ.Limits.Max != nil && int64(*mem.typ.Limits.Max) < maxPages {
		maxPages = int64(*mem.typ.Limits.Max)
	}

	i := fieldTypeOf(jvmname.Int)
	mainType := jvmname.Object(t.mainClassName)
	return t.buildHelper("memoryGrow", jvmname.MustUnqualifiedName("memoryGrow"), []jvmname.FieldType{i, mainType}, &i, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		jc := &t.javaClasses
		jm := &t.javaMembers
		bufType := verify.Object(jc.NIO.ByteBuffer)
		byteArr := verify.Array(verify.Integer())

		fieldIdx, err := pool.FieldRefByName(t.mainClassName, mem.fieldName, mem.fieldDesc)
		if err != nil {
			return err
		}
		capIdx, err := pool.MethodRefByName(jc.NIO.ByteBuffer.Name, jm.ByteBufferCapacity.Name, jm.ByteBufferCapacity.Descriptor, false)
		if err != nil {
			return err
		}
		allocIdx, err := pool.MethodRefByName(jc.NIO.ByteBuffer.Name, jm.ByteBufferAllocate.Name, jm.ByteBufferAllocate.Descriptor, false)
		if err != nil {
			return err
		}
		orderIdx, err := pool.MethodRefByName(jc.NIO.ByteBuffer.Name, jm.ByteBufferOrder.Name, jm.ByteBufferOrder.Descriptor, false)
		if err != nil {
			return err
		}
		leIdx, err := pool.FieldRefByName(jc.NIO.ByteOrder.Name, jm.ByteOrderLittleEndian.Name, jm.ByteOrderLittleEndian.Descriptor)
		if err != nil {
			return err
		}
		arrayIdx, err := pool.MethodRefByName(jc.NIO.ByteBuffer.Name, jm.ByteBufferArray.Name, jm.ByteBufferArray.Descriptor, false)
		if err != nil {
			return err
		}
		copyIdx, err := pool.MethodRefByName(jc.Lang.System.Name, jm.SystemArraycopy.Name, jm.SystemArraycopy.Descriptor, false)
		if err != nil {
			return err
		}
		var wrapperValueIdx classfile.Index
		if mem.boxed {
			wrapperValueIdx, err = pool.FieldRefByName(t.runtimeCls.Memory.Name, t.runtimeCls.MemoryField.Name, t.runtimeCls.MemoryField.Descriptor)
			if err != nil {
				return err
			}
		}
		maskIdx, err := pool.Long(0xFFFFFFFF)
		if err != nil {
			return err
		}
		maxIdx, err := pool.Long(maxPages)
		if err != nil {
			return err
		}

		// Locals: 0=delta, 1=module, 2=old buffer, 3=old page count,
		// 4=new buffer. 2 and 3 are assigned before the only branch, so
		// both label frames may declare them; 4 is assigned and used
		// inside the grow block only and stays out of the label frames.
		eb.frame.Locals = append(eb.frame.Locals, bufType, verify.Integer())

		pushOldBuffer := func() {
			eb.push(verify.Object(t.mainData))
			eb.insn(bytecode.ALoad(1))
			eb.pop()
			if mem.boxed {
				eb.push(verify.Object(t.runtimeCls.Memory))
				eb.insn(bytecode.GetField(fieldIdx))
				eb.pop()
				eb.push(bufType)
				eb.insn(bytecode.GetField(wrapperValueIdx))
			} else {
				eb.push(bufType)
				eb.insn(bytecode.GetField(fieldIdx))
			}
		}

		pushOldBuffer()
		eb.push(bufType)
		eb.insn(bytecode.Dup())
		eb.pop()
		eb.insn(bytecode.AStore(2))
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.InvokeVirtual(capIdx))
		eb.push(verify.Integer())
		eb.insn(bytecode.IConst(16))
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.IUShr())
		eb.pop()
		eb.insn(bytecode.IStore(3))

		// long newPages = (long)oldPages + ((long)delta & 0xFFFFFFFF)
		fail := eb.fresh()
		grow := eb.fresh()
		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(3))
		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.I2L())
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
		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.LAdd())
		eb.push(verify.Long())
		eb.insn(bytecode.Dup2())
		eb.push(verify.Long())
		eb.insn(bytecode.Ldc2W(maxIdx))
		eb.pop()
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.LCmp())
		eb.pop()
		eb.branch(bytecode.If(bytecode.CondGt, fail, grow))

		// fail: discard the surviving newPages long, answer -1.
		if err := eb.place(fail); err != nil {
			return err
		}
		eb.pop()
		eb.insn(bytecode.Pop2())
		eb.push(verify.Integer())
		eb.insn(bytecode.IConst(-1))
		eb.branch(bytecode.Return(bytecode.ReturnInt))

		// grow: allocate newPages << 16 bytes, little-endian, copy, store.
		eb.pop()
		eb.push(verify.Long()) // restore [newPages] for grow's entry frame
		if err := eb.place(grow); err != nil {
			return err
		}
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.L2I())
		eb.push(verify.Integer())
		eb.insn(bytecode.IConst(16))
		eb.pop()
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.IShl())
		eb.pop()
		eb.push(bufType)
		eb.insn(bytecode.InvokeStatic(allocIdx))
		eb.push(verify.Object(jc.NIO.ByteOrder))
		eb.insn(bytecode.GetStatic(leIdx))
		eb.pop()
		eb.pop()
		eb.push(bufType)
		eb.insn(bytecode.InvokeVirtual(orderIdx))
		eb.frame.Locals = append(eb.frame.Locals, bufType)
		eb.pop()
		eb.insn(bytecode.AStore(4))

		// System.arraycopy(old.array(), 0, new.array(), 0, old.capacity())
		eb.push(bufType)
		eb.insn(bytecode.ALoad(2))
		eb.pop()
		eb.push(byteArr)
		eb.insn(bytecode.InvokeVirtual(arrayIdx))
		eb.push(verify.Integer())
		eb.insn(bytecode.IConst(0))
		eb.push(bufType)
		eb.insn(bytecode.ALoad(4))
		eb.pop()
		eb.push(byteArr)
		eb.insn(bytecode.InvokeVirtual(arrayIdx))
		eb.push(verify.Integer())
		eb.insn(bytecode.IConst(0))
		eb.push(bufType)
		eb.insn(bytecode.ALoad(2))
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.InvokeVirtual(capIdx))
		for i := 0; i < 5; i++ {
			eb.pop()
		}
		eb.insn(bytecode.InvokeStatic(copyIdx))

		// Publish the new buffer.
		if mem.boxed {
			eb.push(verify.Object(t.mainData))
			eb.insn(bytecode.ALoad(1))
			eb.pop()
			eb.push(verify.Object(t.runtimeCls.Memory))
			eb.insn(bytecode.GetField(fieldIdx))
			eb.push(bufType)
			eb.insn(bytecode.ALoad(4))
			eb.pop()
			eb.pop()
			eb.insn(bytecode.PutField(wrapperValueIdx))
		} else {
			eb.push(verify.Object(t.mainData))
			eb.insn(bytecode.ALoad(1))
			eb.push(bufType)
			eb.insn(bytecode.ALoad(4))
			eb.pop()
			eb.pop()
			eb.insn(bytecode.PutField(fieldIdx))
		}

		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(3))
		eb.branch(bytecode.Return(bytecode.ReturnInt))
		return nil
	})
}
