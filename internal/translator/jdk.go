package translator

import "github.com/wasm2jar/wasm2jar/internal/classfile"
import "github.com/wasm2jar/wasm2jar/internal/classgraph"

// jdkMethod interns a constant-pool MethodRef for a cached JDK MethodData,
// looking the owner up by name so call sites only ever need to name the
// owning class once (at AddJavaMembers time) rather than at every call
// site that reaches for e.g. Math.abs.
func (t *moduleTranslator) jdkMethod(pool *classfile.ConstantPool, owner *classgraph.ClassData, m *classgraph.MethodData) (classfile.Index, error) {
	return pool.MethodRefByName(owner.Name, m.Name, m.Descriptor, owner.IsInterface)
}

func (t *moduleTranslator) jdkField(pool *classfile.ConstantPool, owner *classgraph.ClassData, f *classgraph.FieldData) (classfile.Index, error) {
	return pool.FieldRefByName(owner.Name, f.Name, f.Descriptor)
}
