package translator

import (
	"fmt"

	"github.com/wasm2jar/wasm2jar/internal/jvmname"
)

// freshFieldName turns base into a legal, collision-free unqualified field
// name on the main class: it is passed through once, then grown with a
// numeric suffix until it no longer collides with any previously handed
// out name (two distinct imports named e.g. "a." and "a@" both sanitize to
// "a_").
func (t *moduleTranslator) freshFieldName(base string) jvmname.UnqualifiedName {
	if t.usedFieldNames == nil {
		t.usedFieldNames = make(map[string]bool)
	}
	candidate := base
	for i := 2; t.usedFieldNames[candidate]; i++ {
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
	t.usedFieldNames[candidate] = true
	return jvmname.MustUnqualifiedName(candidate)
}

// syntheticMethodName mints names for generator/wrapper methods the
// translator emits itself rather than ones carried over from a WASM name,
// e.g. a data segment's lazy initializer.
func syntheticMethodName(base string, index int) jvmname.UnqualifiedName {
	return jvmname.MustUnqualifiedName(fmt.Sprintf("%s%d", base, index))
}
