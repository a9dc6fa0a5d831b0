package wasm

const (
	wasmMagic   = "\x00asm"
	wasmVersion = uint32(1)
)

type sectionID byte

const (
	sectionCustom sectionID = iota
	sectionType
	sectionImport
	sectionFunction
	sectionTable
	sectionMemory
	sectionGlobal
	sectionExport
	sectionStart
	sectionElement
	sectionCode
	sectionData
	sectionDataCount
)

// Decode parses a complete WASM binary module. It performs only the
// structural and static validation the binary format itself demands
// (section ordering, index bounds, count limits); semantic validation of
// instruction sequences happens during translation.
func Decode(data []byte) (*Module, error) {
	r := newReader(data)

	magic, err := r.bytes(4)
	if err != nil || string(magic) != wasmMagic {
		return nil, malformed("invalid magic number")
	}
	version, err := r.bytes(4)
	if err != nil {
		return nil, malformed("invalid version")
	}
	if version[0] != 1 || version[1] != 0 || version[2] != 0 || version[3] != 0 {
		return nil, malformed("invalid version")
	}

	m := &Module{}
	var lastID sectionID = sectionCustom
	seenNonCustom := map[sectionID]bool{}
	// order ranks sections in their required binary order: the data count
	// section (id 12) sits between the element (9) and code (10) sections.
	order := func(s sectionID) int {
		if s == sectionDataCount {
			return 2*int(sectionElement) + 1
		}
		return 2 * int(s)
	}

	for !r.eof() {
		id, err := r.byte()
		if err != nil {
			return nil, malformed("failed to read section id: %s", err)
		}
		size, err := r.u32()
		if err != nil {
			return nil, malformed("failed to read section size: %s", err)
		}
		body, err := r.bytes(int(size))
		if err != nil {
			return nil, malformed("section %d: %s", id, err)
		}

		sid := sectionID(id)
		if sid != sectionCustom {
			if order(sid) <= order(lastID) && lastID != sectionCustom {
				return nil, malformed("section out of order: %d", id)
			}
			if seenNonCustom[sid] {
				return nil, malformed("duplicate section: %d", id)
			}
			seenNonCustom[sid] = true
			lastID = sid
		}

		sr := newReader(body)
		switch sid {
		case sectionCustom:
			// Custom sections (including "name") are preserved by neither
			// this decoder nor the translator; the JVM class file has its
			// own debug-info attributes.
		case sectionType:
			m.TypeSection, err = decodeTypeSection(sr)
		case sectionImport:
			m.ImportSection, err = decodeImportSection(sr)
		case sectionFunction:
			m.FunctionSection, err = decodeFunctionSection(sr)
		case sectionTable:
			m.TableSection, err = decodeTableSection(sr)
		case sectionMemory:
			m.MemorySection, err = decodeMemorySection(sr)
		case sectionGlobal:
			m.GlobalSection, err = decodeGlobalSection(sr)
		case sectionExport:
			m.ExportSection, err = decodeExportSection(sr)
		case sectionStart:
			var idx Index
			idx, err = sr.u32()
			m.StartSection = &idx
		case sectionElement:
			m.ElementSection, err = decodeElementSection(sr)
		case sectionCode:
			m.CodeSection, err = decodeCodeSection(sr)
		case sectionData:
			m.DataSection, err = decodeDataSection(sr)
		case sectionDataCount:
			var count uint32
			count, err = sr.u32()
			m.DataCountSection = &count
		default:
			return nil, malformed("invalid section id: %d", id)
		}
		if err != nil {
			return nil, err
		}
		if sid != sectionCustom && !sr.eof() {
			return nil, malformed("section %d: %d bytes left after parsing", id, sr.remaining())
		}
	}

	if err := validateModule(m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeValueType(r *reader) (ValueType, error) {
	b, err := r.byte()
	if err != nil {
		return 0, err
	}
	switch b {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64, ValueTypeFuncref, ValueTypeExternref:
		return b, nil
	default:
		return 0, malformed("invalid value type: 0x%x", b)
	}
}

func decodeRefType(r *reader) (RefType, error) {
	b, err := r.byte()
	if err != nil {
		return 0, err
	}
	switch b {
	case RefTypeFuncref, RefTypeExternref:
		return b, nil
	default:
		return 0, malformed("invalid reference type: 0x%x", b)
	}
}

func decodeLimits(r *reader) (LimitsType, error) {
	flag, err := r.byte()
	if err != nil {
		return LimitsType{}, err
	}
	min, err := r.u32()
	if err != nil {
		return LimitsType{}, err
	}
	lim := LimitsType{Min: min}
	if flag == 1 {
		max, err := r.u32()
		if err != nil {
			return LimitsType{}, err
		}
		lim.Max = &max
	} else if flag != 0 {
		return LimitsType{}, malformed("invalid limits flag: 0x%x", flag)
	}
	return lim, nil
}

func decodeTableType(r *reader) (TableType, error) {
	elem, err := decodeRefType(r)
	if err != nil {
		return TableType{}, err
	}
	lim, err := decodeLimits(r)
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: elem, Limits: lim}, nil
}

func decodeGlobalType(r *reader) (GlobalType, error) {
	vt, err := decodeValueType(r)
	if err != nil {
		return GlobalType{}, err
	}
	mutFlag, err := r.byte()
	if err != nil {
		return GlobalType{}, err
	}
	var mutable bool
	switch mutFlag {
	case 0:
		mutable = false
	case 1:
		mutable = true
	default:
		return GlobalType{}, malformed("invalid global mutability: 0x%x", mutFlag)
	}
	return GlobalType{ValType: vt, Mutable: mutable}, nil
}

// decodeConstExpr reads a constant expression up to and including its
// terminating end opcode, without evaluating it.
func decodeConstExpr(r *reader) (ConstantExpression, error) {
	start := r.pos
	op, err := r.byte()
	if err != nil {
		return ConstantExpression{}, err
	}
	switch Opcode(op) {
	case OpcodeI32Const:
		if _, err := r.i32(); err != nil {
			return ConstantExpression{}, err
		}
	case OpcodeI64Const:
		if _, err := r.i64(); err != nil {
			return ConstantExpression{}, err
		}
	case OpcodeF32Const:
		if _, err := r.f32(); err != nil {
			return ConstantExpression{}, err
		}
	case OpcodeF64Const:
		if _, err := r.f64(); err != nil {
			return ConstantExpression{}, err
		}
	case OpcodeGlobalGet:
		if _, err := r.u32(); err != nil {
			return ConstantExpression{}, err
		}
	case OpcodeRefNull:
		if _, err := r.byte(); err != nil {
			return ConstantExpression{}, err
		}
	case OpcodeRefFunc:
		if _, err := r.u32(); err != nil {
			return ConstantExpression{}, err
		}
	default:
		return ConstantExpression{}, malformed("invalid constant expression opcode 0x%x", op)
	}
	end, err := r.byte()
	if err != nil {
		return ConstantExpression{}, err
	}
	if Opcode(end) != OpcodeEnd {
		return ConstantExpression{}, malformed("constant expression missing end opcode")
	}
	data := make([]byte, r.pos-start)
	copy(data, r.b[start:r.pos])
	return ConstantExpression{Opcode: Opcode(op), Data: data}, nil
}

func decodeTypeSection(r *reader) ([]FunctionType, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	types := make([]FunctionType, count)
	for i := range types {
		form, err := r.byte()
		if err != nil {
			return nil, err
		}
		if form != 0x60 {
			return nil, malformed("invalid functype form: 0x%x", form)
		}
		nParams, err := r.u32()
		if err != nil {
			return nil, err
		}
		params := make([]ValueType, nParams)
		for j := range params {
			if params[j], err = decodeValueType(r); err != nil {
				return nil, err
			}
		}
		nResults, err := r.u32()
		if err != nil {
			return nil, err
		}
		results := make([]ValueType, nResults)
		for j := range results {
			if results[j], err = decodeValueType(r); err != nil {
				return nil, err
			}
		}
		types[i] = FunctionType{Params: params, Results: results}
	}
	return types, nil
}

func decodeImportSection(r *reader) ([]Import, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	imports := make([]Import, count)
	for i := range imports {
		mod, err := r.name()
		if err != nil {
			return nil, err
		}
		name, err := r.name()
		if err != nil {
			return nil, err
		}
		kind, err := r.byte()
		if err != nil {
			return nil, err
		}
		im := Import{Module: mod, Name: name, Type: ExternType(kind)}
		switch ExternType(kind) {
		case ExternTypeFunc:
			im.DescFunc, err = r.u32()
		case ExternTypeTable:
			im.DescTable, err = decodeTableType(r)
		case ExternTypeMemory:
			im.DescMem.Limits, err = decodeLimits(r)
		case ExternTypeGlobal:
			im.DescGlobal, err = decodeGlobalType(r)
		default:
			return nil, malformed("invalid import kind: 0x%x", kind)
		}
		if err != nil {
			return nil, err
		}
		imports[i] = im
	}
	return imports, nil
}

func decodeFunctionSection(r *reader) ([]Index, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	indices := make([]Index, count)
	for i := range indices {
		if indices[i], err = r.u32(); err != nil {
			return nil, err
		}
	}
	return indices, nil
}

func decodeTableSection(r *reader) ([]TableType, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	tables := make([]TableType, count)
	for i := range tables {
		if tables[i], err = decodeTableType(r); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func decodeMemorySection(r *reader) ([]MemoryType, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	mems := make([]MemoryType, count)
	for i := range mems {
		lim, err := decodeLimits(r)
		if err != nil {
			return nil, err
		}
		mems[i] = MemoryType{Limits: lim}
	}
	return mems, nil
}

func decodeGlobalSection(r *reader) ([]Global, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	globals := make([]Global, count)
	for i := range globals {
		gt, err := decodeGlobalType(r)
		if err != nil {
			return nil, err
		}
		init, err := decodeConstExpr(r)
		if err != nil {
			return nil, err
		}
		globals[i] = Global{Type: gt, Init: init}
	}
	return globals, nil
}

func decodeExportSection(r *reader) ([]Export, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	exports := make([]Export, count)
	for i := range exports {
		name, err := r.name()
		if err != nil {
			return nil, err
		}
		kind, err := r.byte()
		if err != nil {
			return nil, err
		}
		idx, err := r.u32()
		if err != nil {
			return nil, err
		}
		exports[i] = Export{Name: name, Kind: ExternalKind(kind), Index: idx}
	}
	return exports, nil
}

func decodeElementSection(r *reader) ([]ElementSegment, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	segs := make([]ElementSegment, count)
	for i := range segs {
		flags, err := r.u32()
		if err != nil {
			return nil, err
		}
		seg := ElementSegment{Type: RefTypeFuncref}
		switch flags {
		case 0:
			seg.Mode = ElementModeActive
			seg.OffsetExpr, err = decodeConstExpr(r)
			if err != nil {
				return nil, err
			}
			seg.Init, err = decodeFuncIndexVec(r)
		case 1:
			seg.Mode = ElementModePassive
			if _, err = r.byte(); err != nil { // elemkind, must be 0x00 (funcref)
				return nil, err
			}
			seg.Init, err = decodeFuncIndexVec(r)
		case 2:
			seg.Mode = ElementModeActive
			seg.TableIndex, err = r.u32()
			if err != nil {
				return nil, err
			}
			seg.OffsetExpr, err = decodeConstExpr(r)
			if err != nil {
				return nil, err
			}
			if _, err = r.byte(); err != nil {
				return nil, err
			}
			seg.Init, err = decodeFuncIndexVec(r)
		case 3:
			seg.Mode = ElementModeDeclarative
			if _, err = r.byte(); err != nil {
				return nil, err
			}
			seg.Init, err = decodeFuncIndexVec(r)
		case 4:
			seg.Mode = ElementModeActive
			seg.OffsetExpr, err = decodeConstExpr(r)
			if err != nil {
				return nil, err
			}
			seg.InitExprs, err = decodeExprVec(r)
		case 5:
			seg.Mode = ElementModePassive
			seg.Type, err = decodeRefType(r)
			if err != nil {
				return nil, err
			}
			seg.InitExprs, err = decodeExprVec(r)
		case 6:
			seg.Mode = ElementModeActive
			seg.TableIndex, err = r.u32()
			if err != nil {
				return nil, err
			}
			seg.OffsetExpr, err = decodeConstExpr(r)
			if err != nil {
				return nil, err
			}
			seg.Type, err = decodeRefType(r)
			if err != nil {
				return nil, err
			}
			seg.InitExprs, err = decodeExprVec(r)
		case 7:
			seg.Mode = ElementModeDeclarative
			seg.Type, err = decodeRefType(r)
			if err != nil {
				return nil, err
			}
			seg.InitExprs, err = decodeExprVec(r)
		default:
			return nil, malformed("invalid element segment flags: %d", flags)
		}
		if err != nil {
			return nil, err
		}
		segs[i] = seg
	}
	return segs, nil
}

func decodeFuncIndexVec(r *reader) ([]Index, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]Index, count)
	for i := range out {
		if out[i], err = r.u32(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeExprVec(r *reader) ([]ConstantExpression, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	out := make([]ConstantExpression, count)
	for i := range out {
		if out[i], err = decodeConstExpr(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeCodeSection(r *reader) ([]Code, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	codes := make([]Code, count)
	for i := range codes {
		size, err := r.u32()
		if err != nil {
			return nil, err
		}
		body, err := r.bytes(int(size))
		if err != nil {
			return nil, err
		}
		codes[i], err = decodeFunctionBody(newReader(body))
		if err != nil {
			return nil, err
		}
	}
	return codes, nil
}

func decodeFunctionBody(r *reader) (Code, error) {
	nLocalGroups, err := r.u32()
	if err != nil {
		return Code{}, err
	}
	var locals []ValueType
	for i := uint32(0); i < nLocalGroups; i++ {
		n, err := r.u32()
		if err != nil {
			return Code{}, err
		}
		vt, err := decodeValueType(r)
		if err != nil {
			return Code{}, err
		}
		for j := uint32(0); j < n; j++ {
			locals = append(locals, vt)
		}
		if len(locals) > 0x7FFFFFFF {
			return Code{}, malformed("too many locals")
		}
	}
	body := r.b[r.pos:]
	return Code{LocalTypes: locals, Body: body}, nil
}

func decodeDataSection(r *reader) ([]DataSegment, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	segs := make([]DataSegment, count)
	for i := range segs {
		flags, err := r.u32()
		if err != nil {
			return nil, err
		}
		seg := DataSegment{}
		switch flags {
		case 0:
			seg.OffsetExpression, err = decodeConstExpr(r)
			if err != nil {
				return nil, err
			}
			seg.Init, err = decodeByteVec(r)
		case 1:
			seg.Passive = true
			seg.Init, err = decodeByteVec(r)
		case 2:
			seg.MemoryIndex, err = r.u32()
			if err != nil {
				return nil, err
			}
			seg.OffsetExpression, err = decodeConstExpr(r)
			if err != nil {
				return nil, err
			}
			seg.Init, err = decodeByteVec(r)
		default:
			return nil, malformed("invalid data segment flags: %d", flags)
		}
		if err != nil {
			return nil, err
		}
		segs[i] = seg
	}
	return segs, nil
}

func decodeByteVec(r *reader) ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	return r.bytes(int(n))
}

// validateModule checks the module-wide invariants that span more than one
// section: index bounds, function/code section length agreement, and a
// single optional memory (this backend's JVM Memory wrapper models one
// linear memory per module, matching the baseline feature set's exclusion
// of the multi_memory proposal).
func validateModule(m *Module) error {
	if len(m.FunctionSection) != len(m.CodeSection) {
		return invalid("function and code section count mismatch: %d != %d", len(m.FunctionSection), len(m.CodeSection))
	}
	if len(m.MemorySection)+m.NumImportedMemories() > 1 {
		return invalid("at most one memory allowed in module")
	}
	for _, idx := range m.FunctionSection {
		if int(idx) >= len(m.TypeSection) {
			return invalid("invalid type index %d in function section", idx)
		}
	}
	if m.StartSection != nil {
		ft, err := m.FunctionTypeAt(*m.StartSection)
		if err != nil {
			return err
		}
		if len(ft.Params) != 0 || len(ft.Results) != 0 {
			return invalid("start function must have no parameters or results")
		}
	}
	if m.DataCountSection != nil && int(*m.DataCountSection) != len(m.DataSection) {
		return invalid("data count section (%d) does not match data section length (%d)", *m.DataCountSection, len(m.DataSection))
	}
	for _, exp := range m.ExportSection {
		var max int
		switch exp.Kind {
		case ExternalKindFunc:
			max = m.NumImportedFunctions() + len(m.FunctionSection)
		case ExternalKindTable:
			max = m.NumImportedTables() + len(m.TableSection)
		case ExternalKindMemory:
			max = m.NumImportedMemories() + len(m.MemorySection)
		case ExternalKindGlobal:
			max = m.NumImportedGlobals() + len(m.GlobalSection)
		default:
			return invalid("invalid export kind: %d", exp.Kind)
		}
		if int(exp.Index) >= max {
			return invalid("export %q: index %d out of range", exp.Name, exp.Index)
		}
	}
	return nil
}
