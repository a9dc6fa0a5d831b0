package classfile

import "github.com/wasm2jar/wasm2jar/internal/jvmname"

// Field is the serialized form of a field_info structure.
type Field struct {
	AccessFlags     jvmname.FieldAccessFlags
	NameIndex       Index
	DescriptorIndex Index
	Attributes      []Attribute
}

func (f Field) serialize(e *Encoder) {
	e.U2(uint16(f.AccessFlags))
	e.U2(uint16(f.NameIndex))
	e.U2(uint16(f.DescriptorIndex))
	serializeAttributes(e, f.Attributes)
}
