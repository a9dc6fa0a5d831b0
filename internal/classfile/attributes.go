package classfile

import "fmt"

// Attribute is the serialized form of any attribute_info: a name index into
// the constant pool followed by a length-prefixed body. Every concrete
// attribute kind below (Code, StackMapTable, BootstrapMethods, ...) is built
// by first serializing its own body into a fresh Encoder and then wrapping
// that body here.
type Attribute struct {
	NameIndex Index
	Body      []byte
}

func (a Attribute) serialize(e *Encoder) {
	e.U2(uint16(a.NameIndex))
	e.U4(uint32(len(a.Body)))
	e.RawBytes(a.Body)
}

func serializeAttributes(e *Encoder, attrs []Attribute) {
	e.U2(uint16(len(attrs)))
	for _, a := range attrs {
		a.serialize(e)
	}
}

// buildAttribute interns attrName and runs writeBody against a fresh encoder
// to produce the attribute's body, then assembles the Attribute.
func buildAttribute(pool *ConstantPool, attrName string, writeBody func(*Encoder)) (Attribute, error) {
	nameIdx, err := pool.UTF8(attrName)
	if err != nil {
		return Attribute{}, err
	}
	body := NewEncoder()
	writeBody(body)
	if body.Err() != nil {
		return Attribute{}, body.Err()
	}
	return Attribute{NameIndex: nameIdx, Body: body.Bytes()}, nil
}

// VerificationTypeKind enumerates the tags of the JVM's verification_type_info.
type VerificationTypeKind byte

const (
	VTInteger VerificationTypeKind = iota
	VTFloat
	VTDouble
	VTLong
	VTNull
	VTUninitializedThis
	VTObject
	VTUninitialized
	VTTop
)

// VerificationType is the serializable (resolved) form of a stack map frame
// entry: Object carries a resolved constant pool Class index, and
// Uninitialized carries the absolute bytecode offset of the originating new
// instruction. Resolving symbolic class/label references to these indices
// and offsets is the verifier's job, not this package's.
type VerificationType struct {
	kind           VerificationTypeKind
	class          Index
	uninitOffset   uint16
}

func VTypeTop() VerificationType               { return VerificationType{kind: VTTop} }
func VTypeInteger() VerificationType           { return VerificationType{kind: VTInteger} }
func VTypeFloat() VerificationType             { return VerificationType{kind: VTFloat} }
func VTypeDouble() VerificationType            { return VerificationType{kind: VTDouble} }
func VTypeLong() VerificationType              { return VerificationType{kind: VTLong} }
func VTypeNull() VerificationType              { return VerificationType{kind: VTNull} }
func VTypeUninitializedThis() VerificationType { return VerificationType{kind: VTUninitializedThis} }
func VTypeObject(class Index) VerificationType { return VerificationType{kind: VTObject, class: class} }
func VTypeUninitialized(offset uint16) VerificationType {
	return VerificationType{kind: VTUninitialized, uninitOffset: offset}
}

// Width is 2 for the wide primitive verification types (long/double), 1
// otherwise, mirroring the width the type occupies in a Java local variable
// array or operand stack.
func (v VerificationType) Width() int {
	if v.kind == VTDouble || v.kind == VTLong {
		return 2
	}
	return 1
}

func (v VerificationType) serialize(e *Encoder) {
	switch v.kind {
	case VTTop:
		e.U1(0)
	case VTInteger:
		e.U1(1)
	case VTFloat:
		e.U1(2)
	case VTDouble:
		e.U1(3)
	case VTLong:
		e.U1(4)
	case VTNull:
		e.U1(5)
	case VTUninitializedThis:
		e.U1(6)
	case VTObject:
		e.U1(7)
		e.U2(uint16(v.class))
	case VTUninitialized:
		e.U1(8)
		e.U2(v.uninitOffset)
	}
}

// StackMapFrame is one entry of a StackMapTable attribute, already
// differentially encoded against its predecessor (offsetDelta) by the
// verifier. The five constructors correspond to the five frame families of
// the class file format; serialize picks the narrowest tag each family's
// offsetDelta allows.
type StackMapFrame struct {
	kind                frameKind
	offsetDelta         uint16
	choppedK            uint8
	oneStack            VerificationType
	localVerifications  []VerificationType
	stackVerifications  []VerificationType
}

type frameKind byte

const (
	frameSameNoStack frameKind = iota
	frameSameOneStack
	frameChoppedNoStack
	frameAppendNoStack
	frameFull
)

func SameLocalsNoStackFrame(offsetDelta uint16) StackMapFrame {
	return StackMapFrame{kind: frameSameNoStack, offsetDelta: offsetDelta}
}

func SameLocalsOneStackFrame(offsetDelta uint16, stack VerificationType) StackMapFrame {
	return StackMapFrame{kind: frameSameOneStack, offsetDelta: offsetDelta, oneStack: stack}
}

// ChoppedFrame drops the last choppedK locals (1-3) relative to the previous
// frame.
func ChoppedFrame(offsetDelta uint16, choppedK uint8) StackMapFrame {
	return StackMapFrame{kind: frameChoppedNoStack, offsetDelta: offsetDelta, choppedK: choppedK}
}

// AppendFrame adds locals (1-3 of them) relative to the previous frame.
func AppendFrame(offsetDelta uint16, appended []VerificationType) StackMapFrame {
	return StackMapFrame{kind: frameAppendNoStack, offsetDelta: offsetDelta, localVerifications: appended}
}

func FullFrame(offsetDelta uint16, locals, stack []VerificationType) StackMapFrame {
	return StackMapFrame{kind: frameFull, offsetDelta: offsetDelta, localVerifications: locals, stackVerifications: stack}
}

func (f StackMapFrame) serialize(e *Encoder) error {
	switch f.kind {
	case frameSameNoStack:
		if f.offsetDelta <= 63 {
			e.U1(byte(f.offsetDelta))
		} else {
			e.U1(251)
			e.U2(f.offsetDelta)
		}
	case frameSameOneStack:
		if f.offsetDelta <= 63 {
			e.U1(byte(f.offsetDelta) + 64)
		} else {
			e.U1(247)
			e.U2(f.offsetDelta)
		}
		f.oneStack.serialize(e)
	case frameChoppedNoStack:
		if f.choppedK < 1 || f.choppedK > 3 {
			return fmt.Errorf("classfile: chopped frame k=%d out of range 1-3", f.choppedK)
		}
		e.U1(251 - f.choppedK)
		e.U2(f.offsetDelta)
	case frameAppendNoStack:
		n := len(f.localVerifications)
		if n < 1 || n > 3 {
			return fmt.Errorf("classfile: append frame appends %d locals, want 1-3", n)
		}
		e.U1(251 + byte(n))
		e.U2(f.offsetDelta)
		for _, v := range f.localVerifications {
			v.serialize(e)
		}
	case frameFull:
		e.U1(255)
		e.U2(f.offsetDelta)
		e.U2(uint16(len(f.localVerifications)))
		for _, v := range f.localVerifications {
			v.serialize(e)
		}
		stackWidth := 0
		for _, v := range f.stackVerifications {
			stackWidth += v.Width()
		}
		e.U2(uint16(stackWidth))
		for _, v := range f.stackVerifications {
			v.serialize(e)
		}
	}
	return nil
}

// NewStackMapTableAttribute assembles the StackMapTable attribute body from
// an ordered list of already-differentially-encoded frames.
func NewStackMapTableAttribute(pool *ConstantPool, frames []StackMapFrame) (Attribute, error) {
	var frameErr error
	attr, err := buildAttribute(pool, "StackMapTable", func(e *Encoder) {
		e.U2(uint16(len(frames)))
		for _, f := range frames {
			if err := f.serialize(e); err != nil {
				frameErr = err
				return
			}
		}
	})
	if frameErr != nil {
		return Attribute{}, frameErr
	}
	return attr, err
}

// ExceptionHandler is one entry of a Code attribute's exception_table.
// CatchType of 0 matches every exception (used for `finally` blocks).
type ExceptionHandler struct {
	StartPC, EndPC, HandlerPC uint16
	CatchType                 Index
}

// NewCodeAttribute assembles a Code attribute body.
func NewCodeAttribute(pool *ConstantPool, maxStack, maxLocals uint16, code []byte, handlers []ExceptionHandler, attrs []Attribute) (Attribute, error) {
	return buildAttribute(pool, "Code", func(e *Encoder) {
		e.U2(maxStack)
		e.U2(maxLocals)
		e.U4(uint32(len(code)))
		e.RawBytes(code)
		e.U2(uint16(len(handlers)))
		for _, h := range handlers {
			e.U2(h.StartPC)
			e.U2(h.EndPC)
			e.U2(h.HandlerPC)
			e.U2(uint16(h.CatchType))
		}
		serializeAttributes(e, attrs)
	})
}

// BootstrapMethod is one entry of a BootstrapMethods attribute.
type BootstrapMethod struct {
	Method    Index
	Arguments []Index
}

// NewBootstrapMethodsAttribute assembles the BootstrapMethods attribute
// body, one entry per invokedynamic call site with a distinct bootstrap
// specifier.
func NewBootstrapMethodsAttribute(pool *ConstantPool, methods []BootstrapMethod) (Attribute, error) {
	return buildAttribute(pool, "BootstrapMethods", func(e *Encoder) {
		e.U2(uint16(len(methods)))
		for _, m := range methods {
			e.U2(uint16(m.Method))
			e.U2(uint16(len(m.Arguments)))
			for _, a := range m.Arguments {
				e.U2(uint16(a))
			}
		}
	})
}

// InnerClassAccessFlags mirrors the access_flags bitset of an
// inner_classes_table entry, which reuses the class/field/method flag bits
// relevant to a nested class's declaration.
type InnerClassAccessFlags uint16

const (
	InnerClassPublic    InnerClassAccessFlags = 0x0001
	InnerClassPrivate   InnerClassAccessFlags = 0x0002
	InnerClassProtected InnerClassAccessFlags = 0x0004
	InnerClassStatic    InnerClassAccessFlags = 0x0008
	InnerClassFinal     InnerClassAccessFlags = 0x0010
	InnerClassInterface InnerClassAccessFlags = 0x0200
	InnerClassAbstract  InnerClassAccessFlags = 0x0400
	InnerClassSynthetic InnerClassAccessFlags = 0x1000
	InnerClassAnnotation InnerClassAccessFlags = 0x2000
	InnerClassEnum      InnerClassAccessFlags = 0x4000
)

// InnerClass is one entry of an InnerClasses attribute. InnerName of 0 marks
// an anonymous inner class.
type InnerClass struct {
	Inner, Outer Index
	InnerName    Index
	AccessFlags  InnerClassAccessFlags
}

// NewInnerClassesAttribute assembles the InnerClasses attribute body.
func NewInnerClassesAttribute(pool *ConstantPool, classes []InnerClass) (Attribute, error) {
	return buildAttribute(pool, "InnerClasses", func(e *Encoder) {
		e.U2(uint16(len(classes)))
		for _, c := range classes {
			e.U2(uint16(c.Inner))
			e.U2(uint16(c.Outer))
			e.U2(uint16(c.InnerName))
			e.U2(uint16(c.AccessFlags))
		}
	})
}

// NewConstantValueAttribute assembles a ConstantValue attribute, used on a
// static final field initialized from a constant pool entry.
func NewConstantValueAttribute(pool *ConstantPool, value Index) (Attribute, error) {
	return buildAttribute(pool, "ConstantValue", func(e *Encoder) {
		e.U2(uint16(value))
	})
}

// NewNestHostAttribute assembles a NestHost attribute.
func NewNestHostAttribute(pool *ConstantPool, host Index) (Attribute, error) {
	return buildAttribute(pool, "NestHost", func(e *Encoder) {
		e.U2(uint16(host))
	})
}

// NewNestMembersAttribute assembles a NestMembers attribute.
func NewNestMembersAttribute(pool *ConstantPool, members []Index) (Attribute, error) {
	return buildAttribute(pool, "NestMembers", func(e *Encoder) {
		e.U2(uint16(len(members)))
		for _, m := range members {
			e.U2(uint16(m))
		}
	})
}
