// Package verify implements the stack map frame bookkeeping the bytecode
// builder needs to emit a StackMapTable attribute: verification types, per
// offset frames, frame unification at merge points, and differential
// encoding down to classfile.StackMapFrame.
package verify

import (
	"fmt"

	"github.com/wasm2jar/wasm2jar/internal/classgraph"
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
	"github.com/wasm2jar/wasm2jar/internal/label"
)

// Kind enumerates the verification_type_info families of JVMS 4.10.1.2.
type Kind byte

const (
	KindInteger Kind = iota
	KindFloat
	KindDouble
	KindLong
	KindNull
	KindUninitializedThis
	KindObject
	KindUninitialized
	KindArray
	KindTop
)

// UninitializedRef names the not-yet-completed type produced by a `new`
// instruction: the type it will become once <init> runs, and where in the
// method body (label plus offset within that label's block) the `new` sits.
// The label survives jump widening; the absolute bytecode offset does not
// exist until code generation finishes, which is why this indirection
// exists at all.
type UninitializedRef struct {
	Becomes      Type
	Block        label.Label
	OffsetInBlock int
}

// Type is a verification-time type: the JVM's primitive verification types
// plus object/array/null/uninitialized reference tracking.
type Type struct {
	kind      Kind
	class     *classgraph.ClassData // set for KindObject
	arrayElem *Type                 // set for KindArray
	uninit    *UninitializedRef     // set for KindUninitialized
}

func Integer() Type           { return Type{kind: KindInteger} }

// Top is the unusable verification type (tag 0): the declared type of a
// local whose content differs across the paths into a merge point and is
// never read past it, e.g. the translator's scratch slots.
func Top() Type { return Type{kind: KindTop} }
func Float() Type             { return Type{kind: KindFloat} }
func Double() Type            { return Type{kind: KindDouble} }
func Long() Type               { return Type{kind: KindLong} }
func Null() Type               { return Type{kind: KindNull} }
func UninitializedThis() Type { return Type{kind: KindUninitializedThis} }

func Object(class *classgraph.ClassData) Type {
	return Type{kind: KindObject, class: class}
}

func Array(elem Type) Type {
	return Type{kind: KindArray, arrayElem: &elem}
}

func Uninitialized(ref UninitializedRef) Type {
	return Type{kind: KindUninitialized, uninit: &ref}
}

// IsReference reports whether t is a reference-category verification type
// (anything that is not one of the four primitive categories).
func (t Type) IsReference() bool {
	switch t.kind {
	case KindInteger, KindFloat, KindDouble, KindLong:
		return false
	default:
		return true
	}
}

// Width is 2 for long/double, 1 otherwise — matching the slot width these
// types occupy in the locals array or operand stack.
func (t Type) Width() int {
	if t.kind == KindLong || t.kind == KindDouble {
		return 2
	}
	return 1
}

// Equal is exact structural equality — used to detect when two incoming
// frames at a merge point already agree and unification is a no-op.
func (t Type) Equal(other Type) bool {
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case KindObject:
		return t.class == other.class
	case KindArray:
		return t.arrayElem.Equal(*other.arrayElem)
	case KindUninitialized:
		return t.uninit.Block == other.uninit.Block && t.uninit.OffsetInBlock == other.uninit.OffsetInBlock
	default:
		return true
	}
}

// FromFieldType lifts a resolved field type into its verification type,
// resolving any object/array class reference through resolveClass.
func FromFieldType(ft jvmname.FieldType, resolveClass func(jvmname.BinaryName) *classgraph.ClassData) Type {
	if base, ok := ft.IsBase(); ok {
		switch base {
		case jvmname.Long:
			return Long()
		case jvmname.Double:
			return Double()
		case jvmname.Float:
			return Float()
		default:
			return Integer() // int, short, byte, char, boolean
		}
	}
	ref, _ := ft.IsRef()
	if elem, ok := ref.IsArray(); ok {
		return Array(FromFieldType(elem, resolveClass))
	}
	class, _ := ref.IsObject()
	return Object(resolveClass(class))
}

func (t Type) String() string {
	switch t.kind {
	case KindTop:
		return "top"
	case KindInteger:
		return "int"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindLong:
		return "long"
	case KindNull:
		return "null"
	case KindUninitializedThis:
		return "uninitializedThis"
	case KindObject:
		return t.class.Name.String()
	case KindArray:
		return t.arrayElem.String() + "[]"
	case KindUninitialized:
		return fmt.Sprintf("uninitialized(%s+%d)", t.uninit.Block, t.uninit.OffsetInBlock)
	default:
		return "?"
	}
}

// IsAssignable reports whether a value of type t can be used where a value
// of type super is expected, per JVMS 4.10.1.1. Null is assignable to any
// object or array type; object assignability otherwise follows the class
// graph's superclass/interface edges. Array covariance is approximated by
// recursing on element-type assignability, which is correct for reference
// element types and exact for matching primitive element types.
func (t Type) IsAssignable(super Type) bool {
	if t.Equal(super) {
		return true
	}
	switch {
	case t.kind == KindNull && (super.kind == KindObject || super.kind == KindArray):
		return true
	case t.kind == KindObject && super.kind == KindObject:
		return classgraph.IsAssignable(t.class, super.class)
	case t.kind == KindArray && super.kind == KindArray:
		return t.arrayElem.IsAssignable(*super.arrayElem)
	default:
		return false
	}
}
