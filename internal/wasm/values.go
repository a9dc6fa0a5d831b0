// Package wasm decodes the WASM binary module format into a typed,
// in-memory representation the translator walks section by section.
package wasm

import "fmt"

// ValueType is the byte encoding of a WASM value type.
type ValueType = byte

const (
	ValueTypeI32       ValueType = 0x7f
	ValueTypeI64       ValueType = 0x7e
	ValueTypeF32       ValueType = 0x7d
	ValueTypeF64       ValueType = 0x7c
	ValueTypeFuncref   ValueType = 0x70
	ValueTypeExternref ValueType = 0x6f
)

// RefType distinguishes the two WASM reference types; it shares its byte
// encoding with ValueType's Funcref/Externref constants.
type RefType = byte

const (
	RefTypeFuncref   RefType = ValueTypeFuncref
	RefTypeExternref RefType = ValueTypeExternref
)

func formatValType(v ValueType) string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	default:
		return fmt.Sprintf("0x%x", v)
	}
}

// Index is a 0-based index into one of a module's index spaces (type,
// function, table, memory, global, element, data, local, label).
type Index = uint32

// LimitsType is the min/optional-max pair shared by table and memory types.
type LimitsType struct {
	Min uint32
	Max *uint32
}

// FunctionType is a WASM function signature: zero or more parameter types
// and zero or more result types (more than one result requires the
// multi_value baseline feature, see Config.WithFeatureMultiValue).
type FunctionType struct {
	Params  []ValueType
	Results []ValueType
}

func (t FunctionType) String() string {
	return fmt.Sprintf("%v -> %v", t.Params, t.Results)
}

// TableType is a table's element type plus its size limits.
type TableType struct {
	ElemType RefType
	Limits   LimitsType
}

// MemoryType is a memory's size limits, denominated in 64KiB pages.
type MemoryType struct {
	Limits LimitsType
}

// GlobalType is a global's value type and mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// ConstantExpression is an unevaluated initializer expression: a single
// constant-producing opcode plus its still-encoded immediate bytes. It
// backs global initializers and the offset expressions of active element
// and data segments. Evaluate resolves it against a global-index lookup
// (for global.get initializers) to a concrete constant value.
type ConstantExpression struct {
	Opcode Opcode
	Data   []byte
}

// ExternType enumerates the four kinds of importable/exportable entities.
type ExternType byte

const (
	ExternTypeFunc   ExternType = 0x00
	ExternTypeTable  ExternType = 0x01
	ExternTypeMemory ExternType = 0x02
	ExternTypeGlobal ExternType = 0x03
)

// ExternalKind is the export section's analogue of ExternType (same byte
// values, kept as a distinct name because the binary format spells out two
// separate enumerations with identical encodings).
type ExternalKind = ExternType

const (
	ExternalKindFunc   = ExternTypeFunc
	ExternalKindTable  = ExternTypeTable
	ExternalKindMemory = ExternTypeMemory
	ExternalKindGlobal = ExternTypeGlobal
)

// Import is a single entry of the import section.
type Import struct {
	Module, Name string
	Type         ExternType
	DescFunc     Index      // valid when Type == ExternTypeFunc: index into the type section
	DescTable    TableType  // valid when Type == ExternTypeTable
	DescMem      MemoryType // valid when Type == ExternTypeMemory
	DescGlobal   GlobalType // valid when Type == ExternTypeGlobal
}

// Export is a single entry of the export section.
type Export struct {
	Name  string
	Kind  ExternalKind
	Index Index
}

// Global is a single entry of the global section (module-defined globals
// only; imported globals appear in the import section instead).
type Global struct {
	Type GlobalType
	Init ConstantExpression
}

// Code is a function body: its locally declared variables (run-length
// encoded by the binary format, already expanded here to one ValueType per
// local slot after the function's parameters) and the raw instruction
// bytes, decoded lazily by a BodyReader.
type Code struct {
	LocalTypes []ValueType
	Body       []byte
}

// ElementMode distinguishes the three WASM 2.0 element segment modes.
type ElementMode byte

const (
	ElementModeActive ElementMode = iota
	ElementModePassive
	ElementModeDeclarative
)

// ElementSegment is a single entry of the element section. Init holds
// function indices directly for the common funcref-by-index encoding;
// InitExprs holds per-element constant expressions for the less common
// expression-encoded form (needed to represent externref elements or
// ref.func/ref.null initializers individually).
type ElementSegment struct {
	Type       RefType
	Mode       ElementMode
	TableIndex Index
	OffsetExpr ConstantExpression
	Init       []Index
	InitExprs  []ConstantExpression
}

// DataSegment is a single entry of the data section.
type DataSegment struct {
	Passive          bool
	MemoryIndex      Index
	OffsetExpression ConstantExpression
	Init             []byte
}

// Module is the fully decoded form of one WASM binary module: every
// section's contents, normalized into Go slices/maps indexed the way the
// translator consumes them.
type Module struct {
	TypeSection   []FunctionType
	ImportSection []Import

	// FunctionSection maps each defined function to its type index. It is
	// indexed by position among the defined functions, i.e. the combined
	// function index minus NumImportedFunctions().
	FunctionSection []Index
	TableSection    []TableType
	MemorySection   []MemoryType
	GlobalSection   []Global
	ExportSection   []Export
	StartSection    *Index
	ElementSection  []ElementSegment
	CodeSection     []Code
	DataSection     []DataSegment
	DataCountSection *uint32
}

// NumImportedFunctions counts Import entries of kind func — these occupy
// the low end of the function index space, ahead of FunctionSection.
func (m *Module) NumImportedFunctions() int {
	n := 0
	for _, im := range m.ImportSection {
		if im.Type == ExternTypeFunc {
			n++
		}
	}
	return n
}

// NumImportedTables, NumImportedMemories, NumImportedGlobals are
// NumImportedFunctions' counterparts for the other three index spaces.
func (m *Module) NumImportedTables() int  { return m.countImports(ExternTypeTable) }
func (m *Module) NumImportedMemories() int { return m.countImports(ExternTypeMemory) }
func (m *Module) NumImportedGlobals() int { return m.countImports(ExternTypeGlobal) }

func (m *Module) countImports(t ExternType) int {
	n := 0
	for _, im := range m.ImportSection {
		if im.Type == t {
			n++
		}
	}
	return n
}

// FunctionTypeAt resolves a function index (spanning both imported and
// locally-defined functions) to its FunctionType.
func (m *Module) FunctionTypeAt(funcIdx Index) (FunctionType, error) {
	nImported := m.NumImportedFunctions()
	if int(funcIdx) < nImported {
		count := 0
		for _, im := range m.ImportSection {
			if im.Type != ExternTypeFunc {
				continue
			}
			if count == int(funcIdx) {
				return m.typeAt(im.DescFunc)
			}
			count++
		}
	}
	localIdx := int(funcIdx) - nImported
	if localIdx < 0 || localIdx >= len(m.FunctionSection) {
		return FunctionType{}, invalid("function index %d out of range", funcIdx)
	}
	return m.typeAt(m.FunctionSection[localIdx])
}

func (m *Module) typeAt(typeIdx Index) (FunctionType, error) {
	if int(typeIdx) >= len(m.TypeSection) {
		return FunctionType{}, invalid("type index %d out of range", typeIdx)
	}
	return m.TypeSection[typeIdx], nil
}
