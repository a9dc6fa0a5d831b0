package translator

import (
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
	"github.com/wasm2jar/wasm2jar/internal/wasm"
)

// indexExports scans the export section once, before any non-imported
// table/memory/global is given a field, so that allocation already knows
// which entities need the boxed runtime wrapper representation.
func (t *moduleTranslator) indexExports() {
	t.exportedFunc = make(map[wasm.Index]bool)
	t.exportedTable = make(map[wasm.Index]bool)
	t.exportedMemory = make(map[wasm.Index]bool)
	t.exportedGlobal = make(map[wasm.Index]bool)
	for _, exp := range t.module.ExportSection {
		switch exp.Kind {
		case wasm.ExternalKindFunc:
			t.exportedFunc[exp.Index] = true
		case wasm.ExternalKindTable:
			t.exportedTable[exp.Index] = true
		case wasm.ExternalKindMemory:
			t.exportedMemory[exp.Index] = true
		case wasm.ExternalKindGlobal:
			t.exportedGlobal[exp.Index] = true
		}
	}
}

// processFunctionSection assigns every defined function (not yet given a
// body) a funcInfo entry; its home part and method name are filled in by
// assignFunctionHomes, once every function body's byte length is known and
// the part-splitting heuristic can use it. Defined functions are appended
// after every imported function already occupies the low end of t.funcs, so
// a funcInfo's position in t.funcs is always its WASM global function index.
func (t *moduleTranslator) processFunctionSection() error {
	for _, typeIdx := range t.module.FunctionSection {
		if int(typeIdx) >= len(t.module.TypeSection) {
			return InputInvalidError{Msg: "function section: type index out of range"}
		}
		t.funcs = append(t.funcs, funcInfo{typ: t.module.TypeSection[typeIdx]})
	}
	return nil
}

// processTables allocates a field for every module-defined table: boxed
// (FunctionTable/ReferenceTable) when the table is exported, since an
// export wrapper must hand back the runtime ABI type; a bare array
// otherwise.
func (t *moduleTranslator) processTables() error {
	nImported := t.module.NumImportedTables()
	for localIdx, tt := range t.module.TableSection {
		globalIdx := wasm.Index(nImported + localIdx)
		boxed := t.exportedTable[globalIdx]
		var desc jvmname.FieldType
		if boxed {
			desc = t.boxedTableFieldType(tt)
		} else {
			desc = t.unboxedTableFieldType(tt)
		}
		// Package-private, not private: the functions that read and write
		// this field are static methods on sibling Part classes in the same
		// package, not methods of the main class itself.
		name := t.freshFieldName("tbl")
		if err := t.main.AddField(0, name, desc); err != nil {
			return err
		}
		t.mainData.AddField(false, name, desc)
		t.tables = append(t.tables, tableInfo{typ: tt, boxed: boxed, fieldName: name, fieldDesc: desc})
	}
	return nil
}

// processMemories is processTables' memory-section counterpart.
func (t *moduleTranslator) processMemories() error {
	for range t.module.MemorySection {
		localIdx := len(t.mems) - t.module.NumImportedMemories()
		globalIdx := wasm.Index(t.module.NumImportedMemories() + localIdx)
		mt := t.module.MemorySection[localIdx]
		boxed := t.exportedMemory[globalIdx]
		var desc jvmname.FieldType
		if boxed {
			desc = jvmname.Object(t.runtimeCls.Memory.Name)
		} else {
			desc = jvmname.Object(t.javaClasses.NIO.ByteBuffer.Name)
		}
		name := t.freshFieldName("mem")
		if err := t.main.AddField(0, name, desc); err != nil {
			return err
		}
		t.mainData.AddField(false, name, desc)
		t.mems = append(t.mems, memInfo{typ: mt, boxed: boxed, fieldName: name, fieldDesc: desc})
	}
	return nil
}

// processGlobals is processTables' global-section counterpart. See
// DESIGN.md for why exported-or-imported is the boxed/unboxed boundary.
func (t *moduleTranslator) processGlobals() error {
	nImported := t.module.NumImportedGlobals()
	for localIdx, g := range t.module.GlobalSection {
		globalIdx := wasm.Index(nImported + localIdx)
		boxed := t.exportedGlobal[globalIdx]
		var desc jvmname.FieldType
		if boxed {
			desc = jvmname.Object(t.runtimeCls.Global.Name)
		} else {
			desc = t.unboxedGlobalFieldType(g.Type)
		}
		name := t.freshFieldName("glb")
		if err := t.main.AddField(0, name, desc); err != nil {
			return err
		}
		t.mainData.AddField(false, name, desc)
		t.globals = append(t.globals, globalInfo{typ: g.Type, boxed: boxed, fieldName: name, fieldDesc: desc})
	}
	return nil
}
