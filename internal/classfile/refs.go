package classfile

import "github.com/wasm2jar/wasm2jar/internal/jvmname"

// MethodRefByName interns every constant pool entry a method invocation
// needs (class, name, descriptor, name-and-type, method ref) and returns
// the final Methodref/InterfaceMethodref index, saving call sites from
// repeating this five-step chain themselves.
func (p *ConstantPool) MethodRefByName(class jvmname.BinaryName, name jvmname.UnqualifiedName, descriptor jvmname.MethodDescriptor, isInterface bool) (Index, error) {
	classIdx, err := p.ClassByName(class.String())
	if err != nil {
		return 0, err
	}
	nameIdx, err := p.UTF8(name.String())
	if err != nil {
		return 0, err
	}
	descIdx, err := p.UTF8(descriptor.Render())
	if err != nil {
		return 0, err
	}
	natIdx, err := p.NameAndType(nameIdx, descIdx)
	if err != nil {
		return 0, err
	}
	return p.MethodRef(classIdx, natIdx, isInterface)
}

// FieldRefByName is MethodRefByName's field-access counterpart.
func (p *ConstantPool) FieldRefByName(class jvmname.BinaryName, name jvmname.UnqualifiedName, descriptor jvmname.FieldType) (Index, error) {
	classIdx, err := p.ClassByName(class.String())
	if err != nil {
		return 0, err
	}
	nameIdx, err := p.UTF8(name.String())
	if err != nil {
		return 0, err
	}
	descIdx, err := p.UTF8(descriptor.Descriptor())
	if err != nil {
		return 0, err
	}
	natIdx, err := p.NameAndType(nameIdx, descIdx)
	if err != nil {
		return 0, err
	}
	return p.FieldRef(classIdx, natIdx)
}
