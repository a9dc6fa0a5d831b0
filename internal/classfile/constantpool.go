// Package classfile implements the on-disk JVM class file structure: the
// constant pool, fields, methods, attributes, and the big-endian wire
// encoding that serializes all of it.
//
// See https://docs.oracle.com/javase/specs/jvms/se18/html/jvms-4.html
package classfile

import (
	"fmt"
	"math"

	"github.com/wasm2jar/wasm2jar/internal/offsetseq"
)

// maxConstantPoolIndex is the largest legal constant pool index; the pool
// is a u2-indexed table so index 65535 is the ceiling.
const maxConstantPoolIndex = 65535

// ErrConstantPoolOverflow is returned when interning a constant would push
// the pool past its 65535-entry limit.
type ErrConstantPoolOverflow struct{}

func (ErrConstantPoolOverflow) Error() string {
	return "constant pool overflow: more than 65535 entries"
}

// MethodHandleKind enumerates the reference_kind values of
// CONSTANT_MethodHandle_info.
type MethodHandleKind byte

const (
	HandleGetField         MethodHandleKind = 1
	HandleGetStatic        MethodHandleKind = 2
	HandlePutField         MethodHandleKind = 3
	HandlePutStatic        MethodHandleKind = 4
	HandleInvokeVirtual    MethodHandleKind = 5
	HandleInvokeStatic     MethodHandleKind = 6
	HandleInvokeSpecial    MethodHandleKind = 7
	HandleNewInvokeSpecial MethodHandleKind = 8
	HandleInvokeInterface  MethodHandleKind = 9
)

// constant is the union of constant_pool entry shapes we can intern. It is
// used only as a map key (via the comparable struct below); the tag field
// disambiguates otherwise-overlapping zero values.
type constant struct {
	tag           byte
	utf8          string
	integer       int32
	long          int64
	float         uint32 // bit pattern, so NaN payloads compare/intern correctly
	double        uint64
	classNameIdx  uint16
	stringUtf8Idx uint16
	refClassIdx   uint16
	refNatIdx     uint16
	nameIdx       uint16
	typeIdx       uint16
	handleKind    MethodHandleKind
	handleRefIdx  uint16
	methodTypeIdx uint16
	indyBootstrap uint16
	indyNatIdx    uint16
}

const (
	tagUTF8 byte = iota + 1
	tagInteger
	tagLong
	tagFloat
	tagDouble
	tagClass
	tagString
	tagFieldref
	tagMethodref
	tagInterfaceMethodref
	tagNameAndType
	tagMethodHandle
	tagMethodType
	tagInvokeDynamic
)

// Width is the number of index slots the entry consumes: two for
// long/double (the class file format leaves their following slot unusable),
// one for everything else. This makes constant implement offsetseq.Width so
// the pool's entries can live in an offset-indexed sequence.
func (c constant) Width() int {
	if c.tag == tagLong || c.tag == tagDouble {
		return 2
	}
	return 1
}

// Index is a 1-based index into a ConstantPool. Long and double entries
// consume two consecutive indices, the second of which is unusable (per
// the JVM spec's "phantom" slot).
type Index uint16

// ConstantPool is an append-only, interning table of constant_pool entries.
// Index 0 is reserved (as required by the class file format); insertion of
// an already-seen entry returns the existing index instead of duplicating
// it.
type ConstantPool struct {
	entries *offsetseq.Sequence[constant]
	index   map[constant]Index
}

// NewConstantPool returns an empty constant pool.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{
		entries: offsetseq.NewSequenceStartingAt[constant](1),
		index:   make(map[constant]Index),
	}
}

// Len returns the number of index slots consumed so far (including the
// phantom slots after long/double entries), i.e. constant_pool_count - 1.
func (p *ConstantPool) Len() int {
	return p.entries.OffsetLen() - 1
}

func (p *ConstantPool) intern(c constant, width int) (Index, error) {
	if idx, ok := p.index[c]; ok {
		return idx, nil
	}
	if p.entries.OffsetLen()+width-1 > maxConstantPoolIndex {
		return 0, ErrConstantPoolOverflow{}
	}
	idx := Index(p.entries.Push(c))
	p.index[c] = idx
	return idx, nil
}

// UTF8 interns a CONSTANT_Utf8_info entry.
func (p *ConstantPool) UTF8(s string) (Index, error) {
	return p.intern(constant{tag: tagUTF8, utf8: s}, 1)
}

// Integer interns a CONSTANT_Integer_info entry.
func (p *ConstantPool) Integer(v int32) (Index, error) {
	return p.intern(constant{tag: tagInteger, integer: v}, 1)
}

// Long interns a CONSTANT_Long_info entry (consumes two index slots).
func (p *ConstantPool) Long(v int64) (Index, error) {
	return p.intern(constant{tag: tagLong, long: v}, 2)
}

// Float interns a CONSTANT_Float_info entry.
func (p *ConstantPool) Float(v float32) (Index, error) {
	return p.intern(constant{tag: tagFloat, float: math.Float32bits(v)}, 1)
}

// Double interns a CONSTANT_Double_info entry (consumes two index slots).
func (p *ConstantPool) Double(v float64) (Index, error) {
	return p.intern(constant{tag: tagDouble, double: math.Float64bits(v)}, 2)
}

// Class interns a CONSTANT_Class_info entry naming the given binary class
// or array name (already UTF-8 interned by the caller).
func (p *ConstantPool) Class(nameUTF8 Index) (Index, error) {
	return p.intern(constant{tag: tagClass, classNameIdx: uint16(nameUTF8)}, 1)
}

// String interns a CONSTANT_String_info entry.
func (p *ConstantPool) String(strUTF8 Index) (Index, error) {
	return p.intern(constant{tag: tagString, stringUtf8Idx: uint16(strUTF8)}, 1)
}

// NameAndType interns a CONSTANT_NameAndType_info entry.
func (p *ConstantPool) NameAndType(name, descriptor Index) (Index, error) {
	return p.intern(constant{tag: tagNameAndType, nameIdx: uint16(name), typeIdx: uint16(descriptor)}, 1)
}

// FieldRef interns a CONSTANT_Fieldref_info entry.
func (p *ConstantPool) FieldRef(class, nameAndType Index) (Index, error) {
	return p.intern(constant{tag: tagFieldref, refClassIdx: uint16(class), refNatIdx: uint16(nameAndType)}, 1)
}

// MethodRef interns a CONSTANT_Methodref_info or
// CONSTANT_InterfaceMethodref_info entry, selecting the tag per isInterface.
func (p *ConstantPool) MethodRef(class, nameAndType Index, isInterface bool) (Index, error) {
	tag := tagMethodref
	if isInterface {
		tag = tagInterfaceMethodref
	}
	return p.intern(constant{tag: tag, refClassIdx: uint16(class), refNatIdx: uint16(nameAndType)}, 1)
}

// MethodHandle interns a CONSTANT_MethodHandle_info entry.
func (p *ConstantPool) MethodHandle(kind MethodHandleKind, ref Index) (Index, error) {
	return p.intern(constant{tag: tagMethodHandle, handleKind: kind, handleRefIdx: uint16(ref)}, 1)
}

// MethodType interns a CONSTANT_MethodType_info entry.
func (p *ConstantPool) MethodType(descriptorUTF8 Index) (Index, error) {
	return p.intern(constant{tag: tagMethodType, methodTypeIdx: uint16(descriptorUTF8)}, 1)
}

// InvokeDynamic interns a CONSTANT_InvokeDynamic_info entry. bootstrapIndex
// refers to an entry in the class's BootstrapMethods attribute.
func (p *ConstantPool) InvokeDynamic(bootstrapIndex uint16, nameAndType Index) (Index, error) {
	return p.intern(constant{tag: tagInvokeDynamic, indyBootstrap: bootstrapIndex, indyNatIdx: uint16(nameAndType)}, 1)
}

// ClassByName is a convenience that interns the UTF-8 and Class entries for
// a binary class name in one call.
func (p *ConstantPool) ClassByName(binaryName string) (Index, error) {
	nameIdx, err := p.UTF8(binaryName)
	if err != nil {
		return 0, err
	}
	return p.Class(nameIdx)
}

// serialize writes every entry to a byte encoder in index order. Wide
// (long/double) entries' phantom second slot is implicit in the sequence's
// offset accounting and writes nothing.
func (p *ConstantPool) serialize(e *Encoder) error {
	for i := 0; i < p.entries.Len(); i++ {
		_, c, _ := p.entries.GetIndex(i)
		switch c.tag {
		case tagUTF8:
			e.U1(1)
			e.writeModifiedUTF8(c.utf8)
		case tagInteger:
			e.U1(3)
			e.U4(uint32(c.integer))
		case tagFloat:
			e.U1(4)
			e.U4(c.float)
		case tagLong:
			e.U1(5)
			e.U8(uint64(c.long))
		case tagDouble:
			e.U1(6)
			e.U8(c.double)
		case tagClass:
			e.U1(7)
			e.U2(c.classNameIdx)
		case tagString:
			e.U1(8)
			e.U2(c.stringUtf8Idx)
		case tagFieldref:
			e.U1(9)
			e.U2(c.refClassIdx)
			e.U2(c.refNatIdx)
		case tagMethodref:
			e.U1(10)
			e.U2(c.refClassIdx)
			e.U2(c.refNatIdx)
		case tagInterfaceMethodref:
			e.U1(11)
			e.U2(c.refClassIdx)
			e.U2(c.refNatIdx)
		case tagNameAndType:
			e.U1(12)
			e.U2(c.nameIdx)
			e.U2(c.typeIdx)
		case tagMethodHandle:
			e.U1(15)
			e.U1(byte(c.handleKind))
			e.U2(c.handleRefIdx)
		case tagMethodType:
			e.U1(16)
			e.U2(c.methodTypeIdx)
		case tagInvokeDynamic:
			e.U1(18)
			e.U2(c.indyBootstrap)
			e.U2(c.indyNatIdx)
		default:
			return fmt.Errorf("classfile: unknown constant tag %d", c.tag)
		}
	}
	return e.err
}
