package classfile

import "github.com/wasm2jar/wasm2jar/internal/jvmname"

// Method is the serialized form of a method_info structure.
type Method struct {
	AccessFlags     jvmname.MethodAccessFlags
	NameIndex       Index
	DescriptorIndex Index
	Attributes      []Attribute
}

func (m Method) serialize(e *Encoder) {
	e.U2(uint16(m.AccessFlags))
	e.U2(uint16(m.NameIndex))
	e.U2(uint16(m.DescriptorIndex))
	serializeAttributes(e, m.Attributes)
}
