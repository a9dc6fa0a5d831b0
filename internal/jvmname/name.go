// Package jvmname implements the validated name and descriptor vocabulary
// used throughout class file generation: unqualified names, binary names,
// field types, method descriptors, and access-flag bitsets.
//
// See https://docs.oracle.com/javase/specs/jvms/se18/html/jvms-4.html#jvms-4.2
package jvmname

import (
	"fmt"
	"strings"
)

// UnqualifiedName is the name of a field or method: a non-empty string free
// of '.', ';', '[', '/', '<', '>', except for the two special forms
// <init>/<clinit>.
type UnqualifiedName struct {
	s string
}

// BinaryName is the name of a class or interface: a non-empty '/'-separated
// list of unqualified names.
type BinaryName struct {
	s string
}

// String returns the raw underlying name.
func (n UnqualifiedName) String() string { return n.s }

// String returns the raw underlying name.
func (n BinaryName) String() string { return n.s }

// NewUnqualifiedName validates and wraps name, or returns an error
// describing why it is not a legal unqualified name.
func NewUnqualifiedName(name string) (UnqualifiedName, error) {
	if err := checkUnqualified(name); err != nil {
		return UnqualifiedName{}, err
	}
	return UnqualifiedName{s: name}, nil
}

// MustUnqualifiedName is NewUnqualifiedName but panics on an invalid name.
// It is intended for package-level constants built from literals we know to
// be valid, such as the JDK name table in jdknames.go.
func MustUnqualifiedName(name string) UnqualifiedName {
	n, err := NewUnqualifiedName(name)
	if err != nil {
		panic(err)
	}
	return n
}

// NewBinaryName validates and wraps name, or returns an error describing
// why it is not a legal binary name.
func NewBinaryName(name string) (BinaryName, error) {
	if name == "" {
		return BinaryName{}, fmt.Errorf("binary name %q is empty", name)
	}
	for _, segment := range strings.Split(name, "/") {
		if err := checkUnqualified(segment); err != nil {
			return BinaryName{}, fmt.Errorf("binary name %q: %w", name, err)
		}
	}
	return BinaryName{s: name}, nil
}

// MustBinaryName is NewBinaryName but panics on an invalid name.
func MustBinaryName(name string) BinaryName {
	n, err := NewBinaryName(name)
	if err != nil {
		panic(err)
	}
	return n
}

func checkUnqualified(name string) error {
	if name == initName || name == clinitName {
		return nil
	}
	if name == "" {
		return fmt.Errorf("unqualified name is empty")
	}
	if strings.ContainsAny(name, ".;[/<>") {
		return fmt.Errorf("unqualified name %q contains an illegal character", name)
	}
	return nil
}

const (
	initName   = "<init>"
	clinitName = "<clinit>"
)

// Init is the constructor method name <init>.
var Init = UnqualifiedName{s: initName}

// Clinit is the static initializer method name <clinit>.
var Clinit = UnqualifiedName{s: clinitName}

// Join builds a BinaryName out of package-path segments plus a simple name,
// e.g. Join([]string{"org", "wasm2jar"}, "Function") -> org/wasm2jar/Function.
func Join(packagePath []string, simple string) BinaryName {
	segments := append(append([]string{}, packagePath...), simple)
	return BinaryName{s: strings.Join(segments, "/")}
}
