package bytecode

import "github.com/wasm2jar/wasm2jar/internal/classfile"

// Instruction is a straight-line (non-branching) bytecode instruction: its
// width never depends on its position in the method, so unlike a
// BranchInstruction it can be fully resolved to bytes the moment it is
// pushed. Constant pool references are resolved eagerly too, since the
// builder shares one live *classfile.ConstantPool with its caller — there
// is no deferred "resolve on serialize" pass the way a lazily-shared pool
// would need.
type Instruction struct {
	op       opcode
	operands []byte
}

// Width is the number of bytes this instruction occupies in the code array.
func (i Instruction) Width() int { return 1 + len(i.operands) }

func (i Instruction) emit(e *classfile.Encoder) {
	e.U1(byte(i.op))
	e.RawBytes(i.operands)
}

func simple(op opcode) Instruction { return Instruction{op: op} }

func withU1(op opcode, v byte) Instruction { return Instruction{op: op, operands: []byte{v}} }

func withU2(op opcode, v uint16) Instruction {
	return Instruction{op: op, operands: []byte{byte(v >> 8), byte(v)}}
}

func withIndex(op opcode, idx classfile.Index) Instruction { return withU2(op, uint16(idx)) }

// Nop pushes a no-op.
func Nop() Instruction { return simple(opNop) }

// AConstNull pushes a null reference.
func AConstNull() Instruction { return simple(opAConstNull) }

// IConst pushes a small int constant via the narrowest available form:
// iconst_<n> for -1..5, bipush for the rest of the signed byte range, or
// sipush for the signed short range. It panics on anything wider; callers
// needing such a value use Ldc directly with an interned Integer entry.
func IConst(v int32) Instruction {
	switch {
	case v >= -1 && v <= 5:
		return simple(opIConstM1 + opcode(v+1))
	case v >= -128 && v <= 127:
		return withU1(opBIPush, byte(int8(v)))
	case v >= -32768 && v <= 32767:
		return withU2(opSIPush, uint16(int16(v)))
	default:
		panic("bytecode: IConst value out of sipush range; use Ldc with an interned Integer constant")
	}
}

// LConst0/LConst1 push the long constants 0 and 1 — the only two the JVM
// gives a dedicated opcode to.
func LConst0() Instruction { return simple(opLConst0) }
func LConst1() Instruction { return simple(opLConst0 + 1) }

// FConst0/FConst1/FConst2 push the float constants with dedicated opcodes.
func FConst0() Instruction { return simple(opFConst0) }
func FConst1() Instruction { return simple(opFConst0 + 1) }
func FConst2() Instruction { return simple(opFConst0 + 2) }

// DConst0/DConst1 push the double constants with dedicated opcodes.
func DConst0() Instruction { return simple(opDConst0) }
func DConst1() Instruction { return simple(opDConst0 + 1) }

// Ldc pushes a constant pool entry (int, float, string, class, or
// MethodHandle/MethodType), widening to ldc_w automatically once the index
// no longer fits in a single byte.
func Ldc(idx classfile.Index) Instruction {
	if idx <= 0xff {
		return withU1(opLdc, byte(idx))
	}
	return withIndex(opLdcW, idx)
}

// Ldc2W pushes a long or double constant pool entry — these are always the
// wide form since long/double entries always occupy two pool slots.
func Ldc2W(idx classfile.Index) Instruction { return withIndex(opLdc2W, idx) }

// localOp picks between the dedicated _0.._3 opcode and the generic
// indexed form (one index byte, or a wide prefix with a two-byte index for
// slots above 255), matching how javac keeps common local slots compact.
func localOp(base, base0 opcode, index uint16) Instruction {
	if index <= 3 {
		return simple(base0 + opcode(index))
	}
	if index <= 0xff {
		return withU1(base, byte(index))
	}
	// Wide form: wide <op> indexbyte1 indexbyte2
	return Instruction{op: 0xc4, operands: []byte{byte(base), byte(index >> 8), byte(index)}}
}

func ILoad(index uint16) Instruction  { return localOp(opILoad, opILoad0, index) }
func LLoad(index uint16) Instruction  { return localOp(opLLoad, opLLoad0, index) }
func FLoad(index uint16) Instruction  { return localOp(opFLoad, opFLoad0, index) }
func DLoad(index uint16) Instruction  { return localOp(opDLoad, opDLoad0, index) }
func ALoad(index uint16) Instruction  { return localOp(opALoad, opALoad0, index) }
func IStore(index uint16) Instruction { return localOp(opIStore, opIStore0, index) }
func LStore(index uint16) Instruction { return localOp(opLStore, opLStore0, index) }
func FStore(index uint16) Instruction { return localOp(opFStore, opFStore0, index) }
func DStore(index uint16) Instruction { return localOp(opDStore, opDStore0, index) }
func AStore(index uint16) Instruction { return localOp(opAStore, opAStore0, index) }

func IALoad() Instruction { return simple(opIALoad) }
func LALoad() Instruction { return simple(opLALoad) }
func FALoad() Instruction { return simple(opFALoad) }
func DALoad() Instruction { return simple(opDALoad) }
func AALoad() Instruction { return simple(opAALoad) }
func BALoad() Instruction { return simple(opBALoad) }
func CALoad() Instruction { return simple(opCALoad) }
func SALoad() Instruction { return simple(opSALoad) }

func IAStore() Instruction { return simple(opIAStore) }
func LAStore() Instruction { return simple(opLAStore) }
func FAStore() Instruction { return simple(opFAStore) }
func DAStore() Instruction { return simple(opDAStore) }
func AAStore() Instruction { return simple(opAAStore) }
func BAStore() Instruction { return simple(opBAStore) }
func CAStore() Instruction { return simple(opCAStore) }
func SAStore() Instruction { return simple(opSAStore) }

func Pop() Instruction    { return simple(opPop) }
func Pop2() Instruction   { return simple(opPop2) }
func Dup() Instruction    { return simple(opDup) }
func DupX1() Instruction  { return simple(opDupX1) }
func DupX2() Instruction  { return simple(opDupX2) }
func Dup2() Instruction   { return simple(opDup2) }
func Dup2X1() Instruction { return simple(opDup2X1) }
func Dup2X2() Instruction { return simple(opDup2X2) }
func Swap() Instruction   { return simple(opSwap) }

func IAdd() Instruction { return simple(opIAdd) }
func LAdd() Instruction { return simple(opLAdd) }
func FAdd() Instruction { return simple(opFAdd) }
func DAdd() Instruction { return simple(opDAdd) }
func ISub() Instruction { return simple(opISub) }
func LSub() Instruction { return simple(opLSub) }
func FSub() Instruction { return simple(opFSub) }
func DSub() Instruction { return simple(opDSub) }
func IMul() Instruction { return simple(opIMul) }
func LMul() Instruction { return simple(opLMul) }
func FMul() Instruction { return simple(opFMul) }
func DMul() Instruction { return simple(opDMul) }
func IDiv() Instruction { return simple(opIDiv) }
func LDiv() Instruction { return simple(opLDiv) }
func FDiv() Instruction { return simple(opFDiv) }
func DDiv() Instruction { return simple(opDDiv) }
func IRem() Instruction { return simple(opIRem) }
func LRem() Instruction { return simple(opLRem) }
func FRem() Instruction { return simple(opFRem) }
func DRem() Instruction { return simple(opDRem) }
func INeg() Instruction { return simple(opINeg) }
func LNeg() Instruction { return simple(opLNeg) }
func FNeg() Instruction { return simple(opFNeg) }
func DNeg() Instruction { return simple(opDNeg) }

func IShl() Instruction  { return simple(opIShl) }
func LShl() Instruction  { return simple(opLShl) }
func IShr() Instruction  { return simple(opIShr) }
func LShr() Instruction  { return simple(opLShr) }
func IUShr() Instruction { return simple(opIUShr) }
func LUShr() Instruction { return simple(opLUShr) }
func IAnd() Instruction  { return simple(opIAnd) }
func LAnd() Instruction  { return simple(opLAnd) }
func IOr() Instruction   { return simple(opIOr) }
func LOr() Instruction   { return simple(opLOr) }
func IXor() Instruction  { return simple(opIXor) }
func LXor() Instruction  { return simple(opLXor) }

// IInc increments local slot index by a signed byte amount in place.
func IInc(index uint16, amount int8) Instruction {
	if index <= 0xff {
		return Instruction{op: opIInc, operands: []byte{byte(index), byte(amount)}}
	}
	// Wide form: wide iinc indexbyte1 indexbyte2 constbyte1 constbyte2
	return Instruction{op: 0xc4, operands: []byte{byte(opIInc), byte(index >> 8), byte(index), byte(int16(amount) >> 8), byte(amount)}}
}

func I2L() Instruction { return simple(opI2L) }
func I2F() Instruction { return simple(opI2F) }
func I2D() Instruction { return simple(opI2D) }
func L2I() Instruction { return simple(opL2I) }
func L2F() Instruction { return simple(opL2F) }
func L2D() Instruction { return simple(opL2D) }
func F2I() Instruction { return simple(opF2I) }
func F2L() Instruction { return simple(opF2L) }
func F2D() Instruction { return simple(opF2D) }
func D2I() Instruction { return simple(opD2I) }
func D2L() Instruction { return simple(opD2L) }
func D2F() Instruction { return simple(opD2F) }
func I2B() Instruction { return simple(opI2B) }
func I2C() Instruction { return simple(opI2C) }
func I2S() Instruction { return simple(opI2S) }

func LCmp() Instruction  { return simple(opLCmp) }
func FCmpL() Instruction { return simple(opFCmpL) }
func FCmpG() Instruction { return simple(opFCmpG) }
func DCmpL() Instruction { return simple(opDCmpL) }
func DCmpG() Instruction { return simple(opDCmpG) }

func GetStatic(field classfile.Index) Instruction { return withIndex(opGetStatic, field) }
func PutStatic(field classfile.Index) Instruction { return withIndex(opPutStatic, field) }
func GetField(field classfile.Index) Instruction  { return withIndex(opGetField, field) }
func PutField(field classfile.Index) Instruction  { return withIndex(opPutField, field) }

func InvokeVirtual(method classfile.Index) Instruction { return withIndex(opInvokeVirtual, method) }
func InvokeSpecial(method classfile.Index) Instruction { return withIndex(opInvokeSpecial, method) }
func InvokeStatic(method classfile.Index) Instruction  { return withIndex(opInvokeStatic, method) }

// InvokeInterface additionally carries the argument slot count (count) the
// JVM needs up front since it cannot derive it from the constant pool entry
// alone; the trailing zero byte is a reserved spec artifact.
func InvokeInterface(method classfile.Index, count uint8) Instruction {
	return Instruction{op: opInvokeInterface, operands: []byte{byte(method >> 8), byte(method), count, 0}}
}

// InvokeDynamic carries two reserved zero bytes after the constant pool index.
func InvokeDynamic(callSite classfile.Index) Instruction {
	return Instruction{op: opInvokeDynamic, operands: []byte{byte(callSite >> 8), byte(callSite), 0, 0}}
}

func New(class classfile.Index) Instruction      { return withIndex(opNew, class) }
func NewArray(atype byte) Instruction            { return withU1(opNewArray, atype) }
func ANewArray(class classfile.Index) Instruction { return withIndex(opANewArray, class) }
func ArrayLength() Instruction                   { return simple(opArrayLength) }
func CheckCast(class classfile.Index) Instruction { return withIndex(opCheckCast, class) }
func InstanceOf(class classfile.Index) Instruction { return withIndex(opInstanceOf, class) }

// MultiANewArray allocates a multi-dimensional array of the given class
// (an array class descriptor already interned) and dimension count.
func MultiANewArray(class classfile.Index, dimensions uint8) Instruction {
	return Instruction{op: opMultiANewArray, operands: []byte{byte(class >> 8), byte(class), dimensions}}
}
