package jvmname

import (
	"fmt"
	"strings"
)

// BaseType is one of the eight JVM primitive types.
type BaseType byte

const (
	Int BaseType = iota
	Long
	Float
	Double
	Byte
	Short
	Char
	Boolean
)

func (b BaseType) descriptor() string {
	switch b {
	case Int:
		return "I"
	case Long:
		return "J"
	case Float:
		return "F"
	case Double:
		return "D"
	case Byte:
		return "B"
	case Short:
		return "S"
	case Char:
		return "C"
	case Boolean:
		return "Z"
	default:
		panic(fmt.Sprintf("invalid BaseType %d", b))
	}
}

func (b BaseType) width() int {
	if b == Long || b == Double {
		return 2
	}
	return 1
}

func (b BaseType) String() string {
	switch b {
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Byte:
		return "byte"
	case Short:
		return "short"
	case Char:
		return "char"
	case Boolean:
		return "boolean"
	default:
		return "?"
	}
}

// refKind distinguishes the two shapes a RefType can take.
type refKind byte

const (
	refObject refKind = iota
	refArray
)

// RefType is Object(ClassRef) | Array(FieldType).
type RefType struct {
	kind    refKind
	class   BinaryName // valid when kind == refObject
	element *FieldType // valid when kind == refArray
}

// ObjectRef builds the RefType for a plain class/interface reference.
func ObjectRef(class BinaryName) RefType {
	return RefType{kind: refObject, class: class}
}

// ArrayRef builds the RefType for an array of the given element type.
func ArrayRef(element FieldType) RefType {
	return RefType{kind: refArray, element: &element}
}

// IsObject reports whether this is the Object(ClassRef) case, returning the
// class name when true.
func (r RefType) IsObject() (BinaryName, bool) {
	if r.kind == refObject {
		return r.class, true
	}
	return BinaryName{}, false
}

// IsArray reports whether this is the Array(FieldType) case, returning the
// element type when true.
func (r RefType) IsArray() (FieldType, bool) {
	if r.kind == refArray {
		return *r.element, true
	}
	return FieldType{}, false
}

func (r RefType) descriptor() string {
	switch r.kind {
	case refObject:
		return "L" + r.class.String() + ";"
	case refArray:
		return "[" + r.element.Descriptor()
	default:
		panic("invalid RefType")
	}
}

func (r RefType) String() string {
	switch r.kind {
	case refObject:
		return r.class.String()
	case refArray:
		return r.element.String() + "[]"
	default:
		return "?"
	}
}

// fieldTypeKind distinguishes Base from Ref.
type fieldTypeKind byte

const (
	ftBase fieldTypeKind = iota
	ftRef
)

// FieldType is Base(...) | Ref(RefType), the JVM field descriptor algebra.
type FieldType struct {
	kind fieldTypeKind
	base BaseType
	ref  RefType
}

// Base wraps a primitive type as a FieldType.
func Base(b BaseType) FieldType {
	return FieldType{kind: ftBase, base: b}
}

// Ref wraps a RefType as a FieldType.
func Ref(r RefType) FieldType {
	return FieldType{kind: ftRef, ref: r}
}

// Object is shorthand for Ref(ObjectRef(class)).
func Object(class BinaryName) FieldType {
	return Ref(ObjectRef(class))
}

// Array is shorthand for Ref(ArrayRef(element)).
func Array(element FieldType) FieldType {
	return Ref(ArrayRef(element))
}

// IsBase reports whether this is the Base(...) case.
func (f FieldType) IsBase() (BaseType, bool) {
	if f.kind == ftBase {
		return f.base, true
	}
	return 0, false
}

// IsRef reports whether this is the Ref(...) case.
func (f FieldType) IsRef() (RefType, bool) {
	if f.kind == ftRef {
		return f.ref, true
	}
	return RefType{}, false
}

// Width is 2 for long/double, 1 for every other field type (matching the
// JVM's operand stack / local variable slot accounting).
func (f FieldType) Width() int {
	if f.kind == ftBase {
		return f.base.width()
	}
	return 1
}

// Descriptor renders the JVM field descriptor string for this type, e.g.
// "I", "Ljava/lang/String;", "[[D".
func (f FieldType) Descriptor() string {
	if f.kind == ftBase {
		return f.base.descriptor()
	}
	return f.ref.descriptor()
}

func (f FieldType) String() string {
	if f.kind == ftBase {
		return f.base.String()
	}
	return f.ref.String()
}

// ParseFieldType parses a single JVM field descriptor from the start of s,
// returning the parsed type and the unconsumed remainder.
func ParseFieldType(s string) (FieldType, string, error) {
	if s == "" {
		return FieldType{}, s, fmt.Errorf("empty field descriptor")
	}
	switch s[0] {
	case 'I':
		return Base(Int), s[1:], nil
	case 'J':
		return Base(Long), s[1:], nil
	case 'F':
		return Base(Float), s[1:], nil
	case 'D':
		return Base(Double), s[1:], nil
	case 'B':
		return Base(Byte), s[1:], nil
	case 'S':
		return Base(Short), s[1:], nil
	case 'C':
		return Base(Char), s[1:], nil
	case 'Z':
		return Base(Boolean), s[1:], nil
	case '[':
		elem, rest, err := ParseFieldType(s[1:])
		if err != nil {
			return FieldType{}, s, err
		}
		return Array(elem), rest, nil
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return FieldType{}, s, fmt.Errorf("field descriptor %q: unterminated class reference", s)
		}
		name, err := NewBinaryName(s[1:end])
		if err != nil {
			return FieldType{}, s, fmt.Errorf("field descriptor %q: %w", s, err)
		}
		return Object(name), s[end+1:], nil
	default:
		return FieldType{}, s, fmt.Errorf("field descriptor %q: invalid leading character %q", s, s[0])
	}
}
