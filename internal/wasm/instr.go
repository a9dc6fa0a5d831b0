package wasm

// BlockTypeKind distinguishes the three encodings a structured control
// instruction's type annotation can take.
type BlockTypeKind byte

const (
	BlockTypeEmpty BlockTypeKind = iota
	BlockTypeValue
	BlockTypeFuncType
)

// BlockType is the signature of a block/loop/if: either nothing, a single
// result value type, or (under the multi_value feature) a type-section
// index naming an arbitrary FunctionType.
type BlockType struct {
	Kind      BlockTypeKind
	ValType   ValueType
	TypeIndex Index
}

// ResolvedType returns the FunctionType a BlockType denotes, resolving a
// TypeIndex-kinded block type against the module's type section.
func (bt BlockType) ResolvedType(types []FunctionType) (FunctionType, error) {
	switch bt.Kind {
	case BlockTypeEmpty:
		return FunctionType{}, nil
	case BlockTypeValue:
		return FunctionType{Results: []ValueType{bt.ValType}}, nil
	default:
		if int(bt.TypeIndex) >= len(types) {
			return FunctionType{}, invalid("block type index %d out of range", bt.TypeIndex)
		}
		return types[bt.TypeIndex], nil
	}
}

// MemArg is a memory instruction's alignment hint and constant byte offset.
type MemArg struct {
	Align  uint32
	Offset uint32
}

// Instr is one decoded WASM instruction. Only the fields relevant to Op are
// populated; the rest are left zero.
type Instr struct {
	Op Opcode

	I32 int32
	I64 int64
	F32 float32
	F64 float64

	LocalIndex  Index
	GlobalIndex Index
	FuncIndex   Index
	TypeIndex   Index
	TableIndex  Index
	ElemIndex   Index
	DataIndex   Index
	TableIndex2 Index // second table operand of table.copy

	MemArg    MemArg
	BlockType BlockType

	// BrTableTargets holds br_table's jump targets; BrTableDefault holds its
	// final (default) target.
	BrTableTargets []Index
	BrTableDefault Index

	RefType     RefType     // ref.null's operand
	SelectTypes []ValueType // select t*'s explicit type list, if present
}

// BodyReader decodes a function body's instruction stream one instruction at
// a time. It does not track the control-frame nesting of block/loop/if/else/
// end; the translator's own control-frame stack is responsible for that.
type BodyReader struct {
	r *reader
}

// NewBodyReader wraps a function's already-extracted body bytes (as decoded
// into Code.Body) for sequential instruction decoding.
func NewBodyReader(body []byte) *BodyReader {
	return &BodyReader{r: newReader(body)}
}

// Done reports whether every byte of the body has been consumed.
func (br *BodyReader) Done() bool { return br.r.eof() }

// Offset returns the current byte offset into the body, useful for
// attaching source positions to translation errors.
func (br *BodyReader) Offset() int { return br.r.pos }

func (r *reader) blockType() (BlockType, error) {
	first, err := r.byte()
	if err != nil {
		return BlockType{}, err
	}
	switch first {
	case 0x40:
		return BlockType{Kind: BlockTypeEmpty}, nil
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64, ValueTypeFuncref, ValueTypeExternref:
		return BlockType{Kind: BlockTypeValue, ValType: first}, nil
	default:
		r.pos--
		v, n, err := decodeInt33(r.b, r.pos)
		if err != nil {
			return BlockType{}, malformed("%s", err.Error())
		}
		r.pos += n
		if v < 0 {
			return BlockType{}, malformed("invalid block type index %d", v)
		}
		return BlockType{Kind: BlockTypeFuncType, TypeIndex: Index(v)}, nil
	}
}

func (r *reader) memArg() (MemArg, error) {
	align, err := r.u32()
	if err != nil {
		return MemArg{}, err
	}
	offset, err := r.u32()
	if err != nil {
		return MemArg{}, err
	}
	return MemArg{Align: align, Offset: offset}, nil
}

// Next decodes the instruction at the current offset. At end of input it
// returns an error; callers check Done() first.
func (br *BodyReader) Next() (Instr, error) {
	r := br.r
	op, err := r.byte()
	if err != nil {
		return Instr{}, err
	}

	switch Opcode(op) {
	case OpcodeUnreachable, OpcodeNop, OpcodeElse, OpcodeEnd, OpcodeReturn,
		OpcodeDrop, OpcodeSelect,
		OpcodeI32Eqz, OpcodeI32Eq, OpcodeI32Ne, OpcodeI32LtS, OpcodeI32LtU, OpcodeI32GtS, OpcodeI32GtU,
		OpcodeI32LeS, OpcodeI32LeU, OpcodeI32GeS, OpcodeI32GeU,
		OpcodeI64Eqz, OpcodeI64Eq, OpcodeI64Ne, OpcodeI64LtS, OpcodeI64LtU, OpcodeI64GtS, OpcodeI64GtU,
		OpcodeI64LeS, OpcodeI64LeU, OpcodeI64GeS, OpcodeI64GeU,
		OpcodeF32Eq, OpcodeF32Ne, OpcodeF32Lt, OpcodeF32Gt, OpcodeF32Le, OpcodeF32Ge,
		OpcodeF64Eq, OpcodeF64Ne, OpcodeF64Lt, OpcodeF64Gt, OpcodeF64Le, OpcodeF64Ge,
		OpcodeI32Clz, OpcodeI32Ctz, OpcodeI32Popcnt, OpcodeI32Add, OpcodeI32Sub, OpcodeI32Mul,
		OpcodeI32DivS, OpcodeI32DivU, OpcodeI32RemS, OpcodeI32RemU,
		OpcodeI32And, OpcodeI32Or, OpcodeI32Xor, OpcodeI32Shl, OpcodeI32ShrS, OpcodeI32ShrU,
		OpcodeI32Rotl, OpcodeI32Rotr,
		OpcodeI64Clz, OpcodeI64Ctz, OpcodeI64Popcnt, OpcodeI64Add, OpcodeI64Sub, OpcodeI64Mul,
		OpcodeI64DivS, OpcodeI64DivU, OpcodeI64RemS, OpcodeI64RemU,
		OpcodeI64And, OpcodeI64Or, OpcodeI64Xor, OpcodeI64Shl, OpcodeI64ShrS, OpcodeI64ShrU,
		OpcodeI64Rotl, OpcodeI64Rotr,
		OpcodeF32Abs, OpcodeF32Neg, OpcodeF32Ceil, OpcodeF32Floor, OpcodeF32Trunc, OpcodeF32Nearest,
		OpcodeF32Sqrt, OpcodeF32Add, OpcodeF32Sub, OpcodeF32Mul, OpcodeF32Div, OpcodeF32Min, OpcodeF32Max,
		OpcodeF32Copysign,
		OpcodeF64Abs, OpcodeF64Neg, OpcodeF64Ceil, OpcodeF64Floor, OpcodeF64Trunc, OpcodeF64Nearest,
		OpcodeF64Sqrt, OpcodeF64Add, OpcodeF64Sub, OpcodeF64Mul, OpcodeF64Div, OpcodeF64Min, OpcodeF64Max,
		OpcodeF64Copysign,
		OpcodeI32WrapI64,
		OpcodeI32TruncF32S, OpcodeI32TruncF32U, OpcodeI32TruncF64S, OpcodeI32TruncF64U,
		OpcodeI64ExtendI32S, OpcodeI64ExtendI32U,
		OpcodeI64TruncF32S, OpcodeI64TruncF32U, OpcodeI64TruncF64S, OpcodeI64TruncF64U,
		OpcodeF32ConvertI32S, OpcodeF32ConvertI32U, OpcodeF32ConvertI64S, OpcodeF32ConvertI64U,
		OpcodeF32DemoteF64,
		OpcodeF64ConvertI32S, OpcodeF64ConvertI32U, OpcodeF64ConvertI64S, OpcodeF64ConvertI64U,
		OpcodeF64PromoteF32,
		OpcodeI32ReinterpretF32, OpcodeI64ReinterpretF64, OpcodeF32ReinterpretI32, OpcodeF64ReinterpretI64,
		OpcodeI32Extend8S, OpcodeI32Extend16S, OpcodeI64Extend8S, OpcodeI64Extend16S, OpcodeI64Extend32S,
		OpcodeRefIsNull, OpcodeMemorySize, OpcodeMemoryGrow:
		return Instr{Op: Opcode(op)}, nil

	case OpcodeBlock, OpcodeLoop, OpcodeIf:
		bt, err := r.blockType()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), BlockType: bt}, nil

	case OpcodeBr, OpcodeBrIf:
		idx, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), LocalIndex: idx}, nil

	case OpcodeBrTable:
		count, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		targets := make([]Index, count)
		for i := range targets {
			targets[i], err = r.u32()
			if err != nil {
				return Instr{}, err
			}
		}
		def, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), BrTableTargets: targets, BrTableDefault: def}, nil

	case OpcodeCall:
		idx, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), FuncIndex: idx}, nil

	case OpcodeCallIndirect:
		typeIdx, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		tableIdx, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), TypeIndex: typeIdx, TableIndex: tableIdx}, nil

	case OpcodeSelectT:
		count, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		types := make([]ValueType, count)
		for i := range types {
			types[i], err = r.byte()
			if err != nil {
				return Instr{}, err
			}
		}
		return Instr{Op: Opcode(op), SelectTypes: types}, nil

	case OpcodeLocalGet, OpcodeLocalSet, OpcodeLocalTee:
		idx, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), LocalIndex: idx}, nil

	case OpcodeGlobalGet, OpcodeGlobalSet:
		idx, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), GlobalIndex: idx}, nil

	case OpcodeTableGet, OpcodeTableSet:
		idx, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), TableIndex: idx}, nil

	case OpcodeI32Load, OpcodeI64Load, OpcodeF32Load, OpcodeF64Load,
		OpcodeI32Load8S, OpcodeI32Load8U, OpcodeI32Load16S, OpcodeI32Load16U,
		OpcodeI64Load8S, OpcodeI64Load8U, OpcodeI64Load16S, OpcodeI64Load16U,
		OpcodeI64Load32S, OpcodeI64Load32U,
		OpcodeI32Store, OpcodeI64Store, OpcodeF32Store, OpcodeF64Store,
		OpcodeI32Store8, OpcodeI32Store16, OpcodeI64Store8, OpcodeI64Store16, OpcodeI64Store32:
		ma, err := r.memArg()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), MemArg: ma}, nil

	case OpcodeI32Const:
		v, err := r.i32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), I32: v}, nil

	case OpcodeI64Const:
		v, err := r.i64()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), I64: v}, nil

	case OpcodeF32Const:
		v, err := r.f32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), F32: v}, nil

	case OpcodeF64Const:
		v, err := r.f64()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), F64: v}, nil

	case OpcodeRefNull:
		t, err := r.byte()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), RefType: t}, nil

	case OpcodeRefFunc:
		idx, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: Opcode(op), FuncIndex: idx}, nil

	case OpcodeMiscPrefix:
		return r.miscInstr()

	case OpcodeSIMDPrefix:
		return Instr{}, malformed("simd instructions are not supported")

	default:
		return Instr{}, malformed("invalid opcode 0x%x", op)
	}
}

func (r *reader) miscInstr() (Instr, error) {
	sub, err := r.u32()
	if err != nil {
		return Instr{}, err
	}
	op := miscBase + Opcode(sub)
	switch op {
	case MiscI32TruncSatF32S, MiscI32TruncSatF32U, MiscI32TruncSatF64S, MiscI32TruncSatF64U,
		MiscI64TruncSatF32S, MiscI64TruncSatF32U, MiscI64TruncSatF64S, MiscI64TruncSatF64U:
		return Instr{Op: op}, nil

	case MiscMemoryInit:
		dataIdx, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		if _, err := r.byte(); err != nil { // reserved memidx byte, must be 0
			return Instr{}, err
		}
		return Instr{Op: op, DataIndex: dataIdx}, nil

	case MiscDataDrop:
		dataIdx, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: op, DataIndex: dataIdx}, nil

	case MiscMemoryCopy:
		if _, err := r.byte(); err != nil {
			return Instr{}, err
		}
		if _, err := r.byte(); err != nil {
			return Instr{}, err
		}
		return Instr{Op: op}, nil

	case MiscMemoryFill:
		if _, err := r.byte(); err != nil {
			return Instr{}, err
		}
		return Instr{Op: op}, nil

	case MiscTableInit:
		elemIdx, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		tableIdx, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: op, ElemIndex: elemIdx, TableIndex: tableIdx}, nil

	case MiscElemDrop:
		elemIdx, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: op, ElemIndex: elemIdx}, nil

	case MiscTableCopy:
		dst, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		src, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: op, TableIndex: dst, TableIndex2: src}, nil

	case MiscTableGrow, MiscTableSize, MiscTableFill:
		tableIdx, err := r.u32()
		if err != nil {
			return Instr{}, err
		}
		return Instr{Op: op, TableIndex: tableIdx}, nil

	default:
		return Instr{}, malformed("invalid misc opcode 0x%x", sub)
	}
}
