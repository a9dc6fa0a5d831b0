package wasm

// ConstValue is a decoded constant: exactly one of its fields is valid,
// selected by Type.
type ConstValue struct {
	Type ValueType
	I32  int32
	I64  int64
	F32  float32
	F64  float64
	// IsNullRef and FuncIndex describe a funcref/externref constant: either
	// a ref.null (IsNullRef true) or a ref.func index.
	IsNullRef bool
	FuncIndex Index
	HasFunc   bool
}

// ConstExprGlobalIndex extracts the global index from a global.get
// constant expression, for callers that re-emit the read at runtime
// instead of folding it.
func ConstExprGlobalIndex(ce ConstantExpression) (Index, error) {
	r := newReader(ce.Data)
	op, err := r.byte()
	if err != nil {
		return 0, err
	}
	if Opcode(op) != OpcodeGlobalGet {
		return 0, invalid("constant expression is not global.get")
	}
	return r.u32()
}

// Evaluate resolves a constant expression to a value. globalValue looks up
// an already-evaluated module- or import-level global by index, needed for
// the global.get form of constant expression (which may only reference an
// imported immutable global, per the WASM spec's const-expr validation
// rule — this function trusts the caller to enforce that rule before
// calling it).
func (ce ConstantExpression) Evaluate(globalValue func(Index) (ConstValue, error)) (ConstValue, error) {
	r := newReader(ce.Data)
	op, err := r.byte()
	if err != nil {
		return ConstValue{}, err
	}
	switch Opcode(op) {
	case OpcodeI32Const:
		v, err := r.i32()
		if err != nil {
			return ConstValue{}, err
		}
		return ConstValue{Type: ValueTypeI32, I32: v}, nil
	case OpcodeI64Const:
		v, err := r.i64()
		if err != nil {
			return ConstValue{}, err
		}
		return ConstValue{Type: ValueTypeI64, I64: v}, nil
	case OpcodeF32Const:
		v, err := r.f32()
		if err != nil {
			return ConstValue{}, err
		}
		return ConstValue{Type: ValueTypeF32, F32: v}, nil
	case OpcodeF64Const:
		v, err := r.f64()
		if err != nil {
			return ConstValue{}, err
		}
		return ConstValue{Type: ValueTypeF64, F64: v}, nil
	case OpcodeGlobalGet:
		idx, err := r.u32()
		if err != nil {
			return ConstValue{}, err
		}
		return globalValue(idx)
	case OpcodeRefNull:
		t, err := r.byte()
		if err != nil {
			return ConstValue{}, err
		}
		return ConstValue{Type: t, IsNullRef: true}, nil
	case OpcodeRefFunc:
		idx, err := r.u32()
		if err != nil {
			return ConstValue{}, err
		}
		return ConstValue{Type: ValueTypeFuncref, FuncIndex: idx, HasFunc: true}, nil
	default:
		return ConstValue{}, invalid("unsupported constant expression opcode 0x%x", op)
	}
}
