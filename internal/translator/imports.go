package translator

import (
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
	"github.com/wasm2jar/wasm2jar/internal/wasm"
)

// processImports walks the import section, allocating a field on the main
// class for every imported entity and recording it in the relevant
// per-index-space slice. A function import lands as a bare MethodHandle
// field; memory, table and global imports land in boxed form (the
// org/wasm2jar/* wrapper types), the shape in which another compiled module
// or hand-written host code hands one across an ABI boundary.
func (t *moduleTranslator) processImports() error {
	for i, imp := range t.module.ImportSection {
		base := t.cfg.renamer.RenameFunction(imp.Module) + "_" + importBaseName(t.cfg, imp)
		switch imp.Type {
		case wasm.ExternTypeFunc:
			ft, err := t.module.FunctionTypeAt(uint32(len(t.funcs)))
			if err != nil {
				return err
			}
			name := t.freshFieldName("imp_fn_" + base)
			desc := jvmname.Object(t.javaClasses.Lang.Invoke.MethodHandle.Name)
			if err := t.main.AddField(jvmname.FieldPublic|jvmname.FieldFinal, name, desc); err != nil {
				return err
			}
			t.mainData.AddField(false, name, desc)
			t.funcs = append(t.funcs, funcInfo{
				typ: ft, imported: true, importIdx: i,
				fieldName: name, fieldDesc: desc,
			})
		case wasm.ExternTypeTable:
			name := t.freshFieldName("imp_tbl_" + base)
			desc := t.boxedTableFieldType(imp.DescTable)
			if err := t.main.AddField(jvmname.FieldPublic|jvmname.FieldFinal, name, desc); err != nil {
				return err
			}
			t.mainData.AddField(false, name, desc)
			t.tables = append(t.tables, tableInfo{
				typ: imp.DescTable, imported: true, importIdx: i, boxed: true,
				fieldName: name, fieldDesc: desc,
			})
		case wasm.ExternTypeMemory:
			name := t.freshFieldName("imp_mem_" + base)
			desc := jvmname.Object(t.runtimeCls.Memory.Name)
			if err := t.main.AddField(jvmname.FieldPublic|jvmname.FieldFinal, name, desc); err != nil {
				return err
			}
			t.mainData.AddField(false, name, desc)
			t.mems = append(t.mems, memInfo{
				typ: imp.DescMem, imported: true, importIdx: i, boxed: true,
				fieldName: name, fieldDesc: desc,
			})
		case wasm.ExternTypeGlobal:
			name := t.freshFieldName("imp_glb_" + base)
			desc := jvmname.Object(t.runtimeCls.Global.Name)
			if err := t.main.AddField(jvmname.FieldPublic|jvmname.FieldFinal, name, desc); err != nil {
				return err
			}
			t.mainData.AddField(false, name, desc)
			t.globals = append(t.globals, globalInfo{
				typ: imp.DescGlobal, imported: true, importIdx: i, boxed: true,
				fieldName: name, fieldDesc: desc,
			})
		}
	}
	return nil
}

func importBaseName(cfg Config, imp wasm.Import) string {
	switch imp.Type {
	case wasm.ExternTypeTable:
		return cfg.renamer.RenameTable(imp.Name)
	case wasm.ExternTypeGlobal:
		return cfg.renamer.RenameGlobal(imp.Name)
	default:
		return cfg.renamer.RenameFunction(imp.Name)
	}
}

// boxedTableFieldType picks the runtime wrapper class matching a table's
// element type: FunctionTable for funcref, ReferenceTable for externref.
func (t *moduleTranslator) boxedTableFieldType(tt wasm.TableType) jvmname.FieldType {
	if tt.ElemType == wasm.RefTypeFuncref {
		return jvmname.Object(t.runtimeCls.FunctionTable.Name)
	}
	return jvmname.Object(t.runtimeCls.ReferenceTable.Name)
}

// unboxedTableFieldType is the bare array type a purely-internal table is
// stored as.
func (t *moduleTranslator) unboxedTableFieldType(tt wasm.TableType) jvmname.FieldType {
	if tt.ElemType == wasm.RefTypeFuncref {
		return jvmname.Array(jvmname.Object(t.javaClasses.Lang.Invoke.MethodHandle.Name))
	}
	return jvmname.Array(jvmname.Object(t.javaClasses.Lang.Object.Name))
}

// unboxedGlobalFieldType is the bare field type a purely-internal global is
// stored as.
func (t *moduleTranslator) unboxedGlobalFieldType(gt wasm.GlobalType) jvmname.FieldType {
	return t.fieldTypeFor(gt.ValType)
}
