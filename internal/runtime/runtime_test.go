package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm2jar/wasm2jar/internal/classgraph"
)

func TestAddToGraph_FieldShapes(t *testing.T) {
	g := classgraph.New()
	jc := classgraph.AddJavaClasses(g)
	classes := AddToGraph(g, jc)

	require.Equal(t, "org/wasm2jar/Function", classes.Function.Name.String())
	require.Equal(t, "Ljava/lang/invoke/MethodHandle;", classes.FunctionField.Descriptor.Descriptor())
	require.Equal(t, "Ljava/lang/Object;", classes.GlobalField.Descriptor.Descriptor())
	require.Equal(t, "Ljava/nio/ByteBuffer;", classes.MemoryField.Descriptor.Descriptor())
	require.Equal(t, "[Ljava/lang/invoke/MethodHandle;", classes.FunctionTableField.Descriptor.Descriptor())
	require.Equal(t, "[Ljava/lang/Object;", classes.ReferenceTableField.Descriptor.Descriptor())
}

func TestBuildClassFiles(t *testing.T) {
	g := classgraph.New()
	jc := classgraph.AddJavaClasses(g)
	classes := AddToGraph(g, jc)

	files, err := BuildClassFiles(g, classes, jc)
	require.NoError(t, err)
	require.Len(t, files, 5)

	for _, name := range []string{
		"org/wasm2jar/Function",
		"org/wasm2jar/Global",
		"org/wasm2jar/Memory",
		"org/wasm2jar/FunctionTable",
		"org/wasm2jar/ReferenceTable",
	} {
		cf, ok := files[name]
		require.True(t, ok, name)
		require.Len(t, cf.Methods, 1)
		bytes, err := cf.Write()
		require.NoError(t, err)
		require.NotEmpty(t, bytes)
	}
}
