package translator

import (
	"fmt"

	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/classgraph"
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
)

// partBuilder is one of the "PartN" static helper classes a large module's
// defined functions are spread across. Splitting exists because a single
// class file's constant pool (65535 entries) and each method's code
// (65535 bytes) are hard JVM ceilings a module with enough functions would
// otherwise blow straight through; spreading functions across several
// classes, each with its own constant pool, sidesteps both limits without
// having to shrink any individual function.
type partBuilder struct {
	index   int
	name    jvmname.BinaryName
	builder *classfile.ClassBuilder
	data    *classgraph.ClassData

	// constants/codeBytes are running estimates of how much this part has
	// committed to, checked against Config's thresholds before each new
	// function is assigned here. They are estimates, not exact counts:
	// the constant pool's final size depends on interning (shared
	// entries cost nothing extra) so this tracks entries requested, an
	// upper bound on what's actually consumed.
	constants int
	codeBytes int
}

// partClassName builds the binary name of the Nth part class, e.g.
// "org/wasm2jar/generated/Module$Part3" for mainClass "Module" with index 3.
func partClassName(cfg Config, index int) jvmname.BinaryName {
	return jvmname.MustBinaryName(cfg.qualifiedName(fmt.Sprintf("%s$Part%d", cfg.mainClassName, index)))
}

// newPart opens a new part class extending java.lang.Object, registers it
// in the class graph (so method lookups from other parts/the main class
// can resolve static calls into it), and records it as an inner class of
// the main class.
func (t *moduleTranslator) newPart() (*partBuilder, error) {
	index := len(t.parts)
	name := partClassName(t.cfg, index)

	builder, err := classfile.NewClassBuilder(jvmname.ClassSuper, name, jvmname.Object_, nil)
	if err != nil {
		return nil, err
	}
	data := t.graph.NewClass(name, t.javaClasses.Lang.Object, false)

	p := &partBuilder{index: index, name: name, builder: builder, data: data}
	t.parts = append(t.parts, p)
	t.curPart = p
	return p, nil
}

// partFor returns the part class new code should be assigned to, opening
// a fresh one if the current part has grown past either configured
// threshold or none exists yet.
func (t *moduleTranslator) partFor(estimatedConstants, estimatedCodeBytes int) (*partBuilder, error) {
	if t.curPart == nil {
		return t.newPart()
	}
	if t.curPart.constants+estimatedConstants > t.cfg.maxPartConstants ||
		t.curPart.codeBytes+estimatedCodeBytes > t.cfg.maxPartCodeBytes {
		return t.newPart()
	}
	return t.curPart, nil
}

// charge records that a just-emitted method consumed roughly these many
// constant pool entries and code bytes against its part's running totals.
func (p *partBuilder) charge(constants, codeBytes int) {
	p.constants += constants
	p.codeBytes += codeBytes
}
