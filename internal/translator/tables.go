package translator

import (
	"fmt"

	"github.com/wasm2jar/wasm2jar/internal/bytecode"
	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
	"github.com/wasm2jar/wasm2jar/internal/verify"
	"github.com/wasm2jar/wasm2jar/internal/wasm"
)

// tableElemVerifyType is the verification type of one slot of a table's
// backing array.
func (t *moduleTranslator) tableElemVerifyType(tt wasm.TableType) verify.Type {
	if tt.ElemType == wasm.RefTypeFuncref {
		return verify.Object(t.javaClasses.Lang.Invoke.MethodHandle)
	}
	return verify.Object(t.javaClasses.Lang.Object)
}

func (t *moduleTranslator) tableArrayVerifyType(tt wasm.TableType) verify.Type {
	return verify.Array(t.tableElemVerifyType(tt))
}

// tableSize is the backing array's length.
func (ft *funcTranslator) tableSize(idx wasm.Index) error {
	if int(idx) >= len(ft.t.tables) {
		return InputInvalidError{Msg: "table.size: table index out of range"}
	}
	pool := ft.eb.cb.Constants()
	if err := ft.pushTableArray(pool, ft.t.tables[idx]); err != nil {
		return err
	}
	ft.eb.pop()
	ft.push(wasm.ValueTypeI32)
	ft.eb.insn(bytecode.ArrayLength())
	return nil
}

// tableGrow calls the per-table grow helper: [init, delta] -> [oldLen|-1].
func (ft *funcTranslator) tableGrow(idx wasm.Index) error {
	if int(idx) >= len(ft.t.tables) {
		return InputInvalidError{Msg: "table.grow: table index out of range"}
	}
	h, err := ft.t.tableGrowHelper(idx)
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
	ft.pop() // delta
	ft.pop() // init value
	ft.push(wasm.ValueTypeI32)
	ft.eb.insn(bytecode.InvokeStatic(callIdx))
	return nil
}

// tableFill is Arrays.fill(arr, i, i+n, val): [i, val, n].
func (ft *funcTranslator) tableFill(idx wasm.Index) error {
	if int(idx) >= len(ft.t.tables) {
		return InputInvalidError{Msg: "table.fill: table index out of range"}
	}
	tbl := ft.t.tables[idx]
	pool := ft.eb.cb.Constants()

	ft.resetScratch()
	_, nSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	valType, valSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	_, iSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	if err := ft.pushTableArray(pool, tbl); err != nil {
		return err
	}
	ft.loadScratch(wasm.ValueTypeI32, iSlot)
	ft.loadScratch(wasm.ValueTypeI32, iSlot)
	ft.loadScratch(wasm.ValueTypeI32, nSlot)
	ft.eb.pop()
	ft.eb.pop()
	ft.eb.push(verify.Integer())
	ft.eb.insn(bytecode.IAdd())
	ft.loadScratch(valType, valSlot)

	fillIdx, err := ft.t.jdkMethod(pool, ft.t.javaClasses.Util.Arrays, ft.t.javaMembers.ArraysFillObjectRange)
	if err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		ft.eb.pop()
	}
	ft.wstack = ft.wstack[:len(ft.wstack)-4]
	ft.eb.insn(bytecode.InvokeStatic(fillIdx))
	return nil
}

// tableCopy is System.arraycopy(src, s, dest, d, n): [d, s, n]. arraycopy
// tolerates the overlapping self-copy case the same way WASM specifies.
func (ft *funcTranslator) tableCopy(destIdx, srcIdx wasm.Index) error {
	if int(destIdx) >= len(ft.t.tables) || int(srcIdx) >= len(ft.t.tables) {
		return InputInvalidError{Msg: "table.copy: table index out of range"}
	}
	pool := ft.eb.cb.Constants()
	ft.resetScratch()
	_, nSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	_, sSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	_, dSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	if err := ft.pushTableArray(pool, ft.t.tables[srcIdx]); err != nil {
		return err
	}
	ft.loadScratch(wasm.ValueTypeI32, sSlot)
	if err := ft.pushTableArray(pool, ft.t.tables[destIdx]); err != nil {
		return err
	}
	ft.loadScratch(wasm.ValueTypeI32, dSlot)
	ft.loadScratch(wasm.ValueTypeI32, nSlot)
	return ft.invokeArraycopy(pool, 3)
}

// tableInit copies a slice of an element segment into a table:
// [d, s, n] -> System.arraycopy(elemK(module), s, tableArr, d, n).
func (ft *funcTranslator) tableInit(elemIdx, tableIdx wasm.Index) error {
	if int(elemIdx) >= len(ft.t.elemInits) {
		return InputInvalidError{Msg: "table.init: element segment index out of range"}
	}
	if int(tableIdx) >= len(ft.t.tables) {
		return InputInvalidError{Msg: "table.init: table index out of range"}
	}
	pool := ft.eb.cb.Constants()
	gen := ft.t.elemInits[elemIdx]

	ft.resetScratch()
	_, nSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	_, sSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}
	_, dSlot, err := ft.popToScratch()
	if err != nil {
		return err
	}

	genIdx, err := pool.MethodRefByName(gen.part.name, gen.methodName, ft.t.elemGeneratorDescriptor(gen.seg), false)
	if err != nil {
		return err
	}
	ft.eb.push(verify.Object(ft.t.mainData))
	ft.eb.insn(bytecode.ALoad(ft.moduleArgSlot))
	ft.eb.pop()
	ft.eb.push(ft.t.tableArrayVerifyType(wasm.TableType{ElemType: gen.seg.Type}))
	ft.eb.insn(bytecode.InvokeStatic(genIdx))
	ft.loadScratch(wasm.ValueTypeI32, sSlot)
	if err := ft.pushTableArray(pool, ft.t.tables[tableIdx]); err != nil {
		return err
	}
	ft.loadScratch(wasm.ValueTypeI32, dSlot)
	ft.loadScratch(wasm.ValueTypeI32, nSlot)
	return ft.invokeArraycopy(pool, 3)
}

// tableGrowHelper generates static int tableGrow<N>(ref init, int delta,
// Main m) for table N: length-checks against the declared max, reallocates
// via Arrays.copyOf, fills the new tail with init, publishes the new
// array, and returns the old length (or -1).
func (t *moduleTranslator) tableGrowHelper(idx wasm.Index) (*helperMethod, error) {
	tbl := t.tables[idx]
	maxLen := int64(1) << 31
	if tbl.typ.Limits.Max != nil && int64(*tbl.typ.Limits.Max) < maxLen {
		maxLen = int64(*tbl.typ.Limits.Max)
	}

	elemField := t.fieldTypeFor(tbl.typ.ElemType)
	arrField := jvmname.Array(elemField)
	i := fieldTypeOf(jvmname.Int)
	mainType := jvmname.Object(t.mainClassName)
	key := fmt.Sprintf("tableGrow%d", idx)
	name := jvmname.MustUnqualifiedName(key)

	return t.buildHelper(key, name, []jvmname.FieldType{elemField, i, mainType}, &i, func(eb *exprBuilder, pool *classfile.ConstantPool) error {
		elemType := t.tableElemVerifyType(tbl.typ)
		arrType := t.tableArrayVerifyType(tbl.typ)
		objArr := verify.Array(verify.Object(t.javaClasses.Lang.Object))

		fieldIdx, err := pool.FieldRefByName(t.mainClassName, tbl.fieldName, tbl.fieldDesc)
		if err != nil {
			return err
		}
		arrClassIdx, err := pool.ClassByName(arrField.Descriptor())
		if err != nil {
			return err
		}
		copyOfIdx, err := pool.MethodRefByName(t.javaClasses.Util.Arrays.Name, t.javaMembers.ArraysCopyOf.Name, t.javaMembers.ArraysCopyOf.Descriptor, false)
		if err != nil {
			return err
		}
		fillIdx, err := pool.MethodRefByName(t.javaClasses.Util.Arrays.Name, t.javaMembers.ArraysFillObjectRange.Name, t.javaMembers.ArraysFillObjectRange.Descriptor, false)
		if err != nil {
			return err
		}
		var wrapper *classfile.Index
		if tbl.boxed {
			wcls := t.runtimeCls.FunctionTable
			wfld := t.runtimeCls.FunctionTableField
			if tbl.typ.ElemType == wasm.RefTypeExternref {
				wcls = t.runtimeCls.ReferenceTable
				wfld = t.runtimeCls.ReferenceTableField
			}
			wIdx, err := pool.FieldRefByName(wcls.Name, wfld.Name, wfld.Descriptor)
			if err != nil {
				return err
			}
			wrapper = &wIdx
		}
		maskIdx, err := pool.Long(0xFFFFFFFF)
		if err != nil {
			return err
		}
		maxIdx, err := pool.Long(maxLen)
		if err != nil {
			return err
		}

		wrapperType := func() verify.Type {
			if tbl.typ.ElemType == wasm.RefTypeExternref {
				return verify.Object(t.runtimeCls.ReferenceTable)
			}
			return verify.Object(t.runtimeCls.FunctionTable)
		}()

		pushOldArray := func() {
			eb.push(verify.Object(t.mainData))
			eb.insn(bytecode.ALoad(2))
			eb.pop()
			if tbl.boxed {
				eb.push(wrapperType)
				eb.insn(bytecode.GetField(fieldIdx))
				eb.pop()
				eb.push(arrType)
				eb.insn(bytecode.GetField(*wrapper))
			} else {
				eb.push(arrType)
				eb.insn(bytecode.GetField(fieldIdx))
			}
		}

		// Locals: 0=init, 1=delta, 2=module, 3=old array, 4=old length,
		// 5=new length (grow block only; the new array stays on the stack).
		eb.frame.Locals = append(eb.frame.Locals, arrType, verify.Integer())

		pushOldArray()
		eb.push(arrType)
		eb.insn(bytecode.Dup())
		eb.pop()
		eb.insn(bytecode.AStore(3))
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.ArrayLength())
		eb.pop()
		eb.insn(bytecode.IStore(4))

		// long newLen = (long)oldLen + ((long)delta & 0xFFFFFFFF)
		fail := eb.fresh()
		grow := eb.fresh()
		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(4))
		eb.pop()
		eb.push(verify.Long())
		eb.insn(bytecode.I2L())
		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(1))
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

		if err := eb.place(fail); err != nil {
			return err
		}
		eb.pop()
		eb.insn(bytecode.Pop2())
		eb.push(verify.Integer())
		eb.insn(bytecode.IConst(-1))
		eb.branch(bytecode.Return(bytecode.ReturnInt))

		eb.pop()
		eb.push(verify.Long())
		if err := eb.place(grow); err != nil {
			return err
		}
		// new array = (ElemType[])Arrays.copyOf(old, (int)newLen)
		eb.pop()
		eb.push(verify.Integer())
		eb.insn(bytecode.L2I())
		eb.frame.Locals = append(eb.frame.Locals, verify.Integer()) // slot 5: newLen
		eb.pop()
		eb.insn(bytecode.IStore(5))
		eb.push(arrType)
		eb.insn(bytecode.ALoad(3))
		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(5))
		eb.pop()
		eb.pop()
		eb.push(objArr)
		eb.insn(bytecode.InvokeStatic(copyOfIdx))
		eb.pop()
		eb.push(arrType)
		eb.insn(bytecode.CheckCast(arrClassIdx))

		// Arrays.fill(new, oldLen, newLen, init)
		eb.push(arrType)
		eb.insn(bytecode.Dup())
		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(4))
		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(5))
		eb.push(elemType)
		eb.insn(bytecode.ALoad(0))
		for i := 0; i < 4; i++ {
			eb.pop()
		}
		eb.insn(bytecode.InvokeStatic(fillIdx))

		// Publish: [newArr] -> field (or wrapper.value), swapping the new
		// array above the receiver putfield needs beneath it.
		if tbl.boxed {
			eb.push(verify.Object(t.mainData))
			eb.insn(bytecode.ALoad(2))
			eb.pop()
			eb.push(wrapperType)
			eb.insn(bytecode.GetField(fieldIdx))
			eb.pop()
			eb.pop()
			eb.push(wrapperType)
			eb.push(arrType)
			eb.insn(bytecode.Swap())
			eb.pop()
			eb.pop()
			eb.insn(bytecode.PutField(*wrapper))
		} else {
			eb.push(verify.Object(t.mainData))
			eb.insn(bytecode.ALoad(2))
			eb.pop()
			eb.pop()
			eb.push(verify.Object(t.mainData))
			eb.push(arrType)
			eb.insn(bytecode.Swap())
			eb.pop()
			eb.pop()
			eb.insn(bytecode.PutField(fieldIdx))
		}

		eb.push(verify.Integer())
		eb.insn(bytecode.ILoad(4))
		eb.branch(bytecode.Return(bytecode.ReturnInt))
		return nil
	})
}
