package classfile

import "github.com/wasm2jar/wasm2jar/internal/jvmname"

// Magic is the four-byte magic number every class file begins with.
const Magic uint32 = 0xCAFEBABE

// Version is a class file's major.minor format version.
type Version struct {
	Major uint16
	Minor uint16
}

// Java11 is the version emitted by this package: the lowest version with
// invokedynamic, nestmates, and a verifier that doesn't require the
// now-removed inference-based (pre-StackMapTable) verification path.
var Java11 = Version{Major: 55, Minor: 0}

// ClassFile is the fully resolved, ready-to-serialize form of a class file.
// Nothing here is symbolic any more: every name and type has already gone
// through the constant pool.
type ClassFile struct {
	Version     Version
	Constants   *ConstantPool
	AccessFlags jvmname.ClassAccessFlags
	ThisClass   Index
	SuperClass  Index
	Interfaces  []Index
	Fields      []Field
	Methods     []Method
	Attributes  []Attribute
}

// Write serializes the class file to its on-disk byte representation.
func (c *ClassFile) Write() ([]byte, error) {
	e := NewEncoder()
	e.U4(Magic)
	e.U2(c.Version.Minor)
	e.U2(c.Version.Major)

	e.U2(uint16(c.Constants.Len() + 1))
	if err := c.Constants.serialize(e); err != nil {
		return nil, err
	}

	e.U2(uint16(c.AccessFlags))
	e.U2(uint16(c.ThisClass))
	e.U2(uint16(c.SuperClass))

	e.U2(uint16(len(c.Interfaces)))
	for _, i := range c.Interfaces {
		e.U2(uint16(i))
	}

	e.U2(uint16(len(c.Fields)))
	for _, f := range c.Fields {
		f.serialize(e)
	}

	e.U2(uint16(len(c.Methods)))
	for _, m := range c.Methods {
		m.serialize(e)
	}

	serializeAttributes(e, c.Attributes)

	if e.Err() != nil {
		return nil, e.Err()
	}
	return e.Bytes(), nil
}

// ClassBuilder incrementally assembles a ClassFile, interning names and
// descriptors into a shared constant pool as fields, methods, and
// attributes are added. It mirrors the write-once, append-only shape of the
// rest of this package: nothing added can be removed, only more can be
// added.
type ClassBuilder struct {
	thisClass   jvmname.BinaryName
	constants   *ConstantPool
	accessFlags jvmname.ClassAccessFlags
	thisIdx     Index
	superIdx    Index
	interfaces  []Index
	fields      []Field
	methods     []Method
	attributes  []Attribute
}

// NewClassBuilder starts a class file for thisClass, extending superClass
// and implementing interfaces.
func NewClassBuilder(accessFlags jvmname.ClassAccessFlags, thisClass, superClass jvmname.BinaryName, interfaces []jvmname.BinaryName) (*ClassBuilder, error) {
	constants := NewConstantPool()
	thisIdx, err := constants.ClassByName(thisClass.String())
	if err != nil {
		return nil, err
	}
	superIdx, err := constants.ClassByName(superClass.String())
	if err != nil {
		return nil, err
	}
	interfaceIdxs := make([]Index, 0, len(interfaces))
	for _, iface := range interfaces {
		idx, err := constants.ClassByName(iface.String())
		if err != nil {
			return nil, err
		}
		interfaceIdxs = append(interfaceIdxs, idx)
	}
	return &ClassBuilder{
		thisClass:   thisClass,
		constants:   constants,
		accessFlags: accessFlags,
		thisIdx:     thisIdx,
		superIdx:    superIdx,
		interfaces:  interfaceIdxs,
	}, nil
}

// ClassName returns the binary name this builder is constructing.
func (b *ClassBuilder) ClassName() jvmname.BinaryName {
	return b.thisClass
}

// Constants returns the constant pool shared by every member added to this
// class, so callers can intern additional constants (e.g. for Code bodies)
// before calling AddMethod.
func (b *ClassBuilder) Constants() *ConstantPool {
	return b.constants
}

// AddAttribute attaches a class-level attribute (e.g. BootstrapMethods,
// InnerClasses).
func (b *ClassBuilder) AddAttribute(attr Attribute) {
	b.attributes = append(b.attributes, attr)
}

// AddField interns name/descriptor and appends a field with no attributes.
func (b *ClassBuilder) AddField(accessFlags jvmname.FieldAccessFlags, name jvmname.UnqualifiedName, descriptor jvmname.FieldType) error {
	return b.AddFieldWithAttributes(accessFlags, name, descriptor, nil)
}

// AddFieldWithAttributes is AddField plus attributes such as ConstantValue.
func (b *ClassBuilder) AddFieldWithAttributes(accessFlags jvmname.FieldAccessFlags, name jvmname.UnqualifiedName, descriptor jvmname.FieldType, attrs []Attribute) error {
	nameIdx, err := b.constants.UTF8(name.String())
	if err != nil {
		return err
	}
	descIdx, err := b.constants.UTF8(descriptor.Descriptor())
	if err != nil {
		return err
	}
	b.fields = append(b.fields, Field{
		AccessFlags:     accessFlags,
		NameIndex:       nameIdx,
		DescriptorIndex: descIdx,
		Attributes:      attrs,
	})
	return nil
}

// AddMethod interns name/descriptor and appends a method with the given
// attributes (typically a single Code attribute, or none for an abstract or
// native method).
func (b *ClassBuilder) AddMethod(accessFlags jvmname.MethodAccessFlags, name jvmname.UnqualifiedName, descriptor jvmname.MethodDescriptor, attrs []Attribute) error {
	nameIdx, err := b.constants.UTF8(name.String())
	if err != nil {
		return err
	}
	descIdx, err := b.constants.UTF8(descriptor.Render())
	if err != nil {
		return err
	}
	b.methods = append(b.methods, Method{
		AccessFlags:     accessFlags,
		NameIndex:       nameIdx,
		DescriptorIndex: descIdx,
		Attributes:      attrs,
	})
	return nil
}

// Result consumes the builder and produces the finished ClassFile.
func (b *ClassBuilder) Result() *ClassFile {
	return &ClassFile{
		Version:     Java11,
		Constants:   b.constants,
		AccessFlags: b.accessFlags,
		ThisClass:   b.thisIdx,
		SuperClass:  b.superIdx,
		Interfaces:  b.interfaces,
		Fields:      b.fields,
		Methods:     b.methods,
		Attributes:  b.attributes,
	}
}
