// Package classgraph is an arena of class/interface declarations discovered
// or synthesized during translation, used to answer assignability questions
// (is this reference type a subtype of that one?) that the verifier and
// bytecode builder need when picking instructions and building stack map
// frames.
//
// Every ClassData is allocated once and never moved, so its address is a
// stable identity usable as a map key or for pointer equality — the Go
// analogue of the append-only arena (`elsa::FrozenVec`) the original class
// graph used to hand out `&'g ClassData<'g>` references.
package classgraph

import (
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
	"github.com/wasm2jar/wasm2jar/internal/offsetseq"
)

// ClassData describes one class or interface in the graph.
type ClassData struct {
	Name        jvmname.BinaryName
	Superclass  *ClassData // nil only for java/lang/Object
	Interfaces  []*ClassData
	IsInterface bool
	Methods     []*MethodData
	Fields      []*FieldData
}

// FieldData describes one field declared (or assumed to be declared) by a
// class in the graph.
type FieldData struct {
	IsStatic   bool
	Name       jvmname.UnqualifiedName
	Descriptor jvmname.FieldType
}

// MethodData describes one method declared (or assumed to be declared) by a
// class in the graph.
type MethodData struct {
	IsStatic   bool
	Name       jvmname.UnqualifiedName
	Descriptor jvmname.MethodDescriptor
}

// AddField registers a field against the class's known members. Translation
// calls this as it emits each field, so later lookups (e.g. when resolving a
// field access in another function) can find it without re-parsing.
func (c *ClassData) AddField(isStatic bool, name jvmname.UnqualifiedName, descriptor jvmname.FieldType) {
	c.Fields = append(c.Fields, &FieldData{IsStatic: isStatic, Name: name, Descriptor: descriptor})
}

// AddMethod is AddField's method-table equivalent.
func (c *ClassData) AddMethod(isStatic bool, name jvmname.UnqualifiedName, descriptor jvmname.MethodDescriptor) {
	c.Methods = append(c.Methods, &MethodData{IsStatic: isStatic, Name: name, Descriptor: descriptor})
}

// FindField locates a field declared directly on this class (no superclass
// walk — callers that need inherited-field resolution should walk
// Superclass themselves, mirroring Java field shadowing rules where fields
// are resolved statically and do not override).
func (c *ClassData) FindField(name jvmname.UnqualifiedName) (*FieldData, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// FindMethod locates a method declared directly on this class.
func (c *ClassData) FindMethod(name jvmname.UnqualifiedName) (*MethodData, bool) {
	for _, m := range c.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// ClassGraph is the arena owning every ClassData allocated during a
// translation run, plus a name index for resolving imports and supertypes.
type ClassGraph struct {
	classes []*ClassData
	byName  map[string]*ClassData
}

// New returns an empty class graph. Call AddJavaClasses to seed it with the
// JDK classes translated code is allowed to reference.
func New() *ClassGraph {
	return &ClassGraph{byName: make(map[string]*ClassData)}
}

// AddClass allocates and registers a new class/interface node. The returned
// pointer is the node's permanent identity.
func (g *ClassGraph) AddClass(data ClassData) *ClassData {
	node := &data
	g.classes = append(g.classes, node)
	g.byName[node.Name.String()] = node
	return node
}

// NewClass is a convenience over AddClass for the common case of a concrete
// class extending a known superclass with no interfaces yet.
func (g *ClassGraph) NewClass(name jvmname.BinaryName, superclass *ClassData, isInterface bool) *ClassData {
	return g.AddClass(ClassData{Name: name, Superclass: superclass, IsInterface: isInterface})
}

// Lookup finds a previously added class by binary name.
func (g *ClassGraph) Lookup(name jvmname.BinaryName) (*ClassData, bool) {
	c, ok := g.byName[name.String()]
	return c, ok
}

// IsAssignable reports whether a value of type sub can be assigned where a
// value of type super is expected: sub equals super, or super is reachable
// by following sub's superclass chain and interface set.
func IsAssignable(sub, super *ClassData) bool {
	if sub == super {
		return true
	}
	if sub == nil || super == nil {
		return false
	}
	visited := make(map[offsetseq.Ref[ClassData]]bool)
	var walk func(c *ClassData) bool
	walk = func(c *ClassData) bool {
		if c == nil || visited[offsetseq.NewRef(c)] {
			return false
		}
		visited[offsetseq.NewRef(c)] = true
		if c == super {
			return true
		}
		for _, iface := range c.Interfaces {
			if walk(iface) {
				return true
			}
		}
		return walk(c.Superclass)
	}
	for _, iface := range sub.Interfaces {
		if walk(iface) {
			return true
		}
	}
	return walk(sub.Superclass)
}
