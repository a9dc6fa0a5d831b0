package jvmname

// ClassAccessFlags is the access_flags bitset of a class_file structure.
// See https://docs.oracle.com/javase/specs/jvms/se18/html/jvms-4.html#jvms-4.1-200-E.1
type ClassAccessFlags uint16

const (
	ClassPublic     ClassAccessFlags = 0x0001
	ClassFinal      ClassAccessFlags = 0x0010
	ClassSuper      ClassAccessFlags = 0x0020
	ClassInterface  ClassAccessFlags = 0x0200
	ClassAbstract   ClassAccessFlags = 0x0400
	ClassSynthetic  ClassAccessFlags = 0x1000
	ClassAnnotation ClassAccessFlags = 0x2000
	ClassEnum       ClassAccessFlags = 0x4000
)

// FieldAccessFlags is the access_flags bitset of a field_info structure.
type FieldAccessFlags uint16

const (
	FieldPublic    FieldAccessFlags = 0x0001
	FieldPrivate   FieldAccessFlags = 0x0002
	FieldProtected FieldAccessFlags = 0x0004
	FieldStatic    FieldAccessFlags = 0x0008
	FieldFinal     FieldAccessFlags = 0x0010
	FieldVolatile  FieldAccessFlags = 0x0040
	FieldTransient FieldAccessFlags = 0x0080
	FieldSynthetic FieldAccessFlags = 0x1000
	FieldEnum      FieldAccessFlags = 0x4000
)

// MethodAccessFlags is the access_flags bitset of a method_info structure.
type MethodAccessFlags uint16

const (
	MethodPublic       MethodAccessFlags = 0x0001
	MethodPrivate      MethodAccessFlags = 0x0002
	MethodProtected    MethodAccessFlags = 0x0004
	MethodStatic       MethodAccessFlags = 0x0008
	MethodFinal        MethodAccessFlags = 0x0010
	MethodSynchronized MethodAccessFlags = 0x0020
	MethodBridge       MethodAccessFlags = 0x0040
	MethodVarargs      MethodAccessFlags = 0x0080
	MethodNative       MethodAccessFlags = 0x0100
	MethodAbstract     MethodAccessFlags = 0x0400
	MethodStrict       MethodAccessFlags = 0x0800
	MethodSynthetic    MethodAccessFlags = 0x1000
)

// Has reports whether every bit set in mask is also set in flags.
func (f ClassAccessFlags) Has(mask ClassAccessFlags) bool  { return f&mask == mask }
func (f FieldAccessFlags) Has(mask FieldAccessFlags) bool  { return f&mask == mask }
func (f MethodAccessFlags) Has(mask MethodAccessFlags) bool { return f&mask == mask }
