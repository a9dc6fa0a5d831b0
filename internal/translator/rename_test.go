package translator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJavaRenamer(t *testing.T) {
	r := NewJavaRenamer()
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "passthrough", input: "add", expected: "add"},
		{name: "dots become underscores", input: "a.b.c", expected: "a_b_c"},
		{name: "leading digit prefixed", input: "1abc", expected: "_1abc"},
		{name: "non-ascii becomes underscore", input: "héllo", expected: "h_llo"},
		{name: "reserved word grows underscore", input: "class", expected: "class_"},
		{name: "contextual keyword grows underscore", input: "record", expected: "record_"},
		{name: "bare underscore is reserved", input: "_", expected: "__"},
		{name: "empty stays empty", input: "", expected: ""},
		{name: "dash and space", input: "my-export name", expected: "my_export_name"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, r.RenameFunction(tc.input))
		})
	}
}

func TestJavaRenamer_ReservedWordCount(t *testing.T) {
	require.Len(t, reservedIdentifiers, 58)
}

func TestIdentityRenamer(t *testing.T) {
	r := IdentityRenamer{}
	require.Equal(t, "class", r.RenameFunction("class"))
	require.Equal(t, "a.b", r.RenameTable("a.b"))
	require.Equal(t, "1x", r.RenameGlobal("1x"))
}

func TestConfig_WithMethodsCopy(t *testing.T) {
	base := NewConfig()
	custom := base.WithMainClassName("Custom").WithClassNamePrefix("com/example")
	require.Equal(t, "Module", base.mainClassName, "With* must not mutate the receiver")
	require.Equal(t, "Custom", custom.mainClassName)
	require.Equal(t, "com/example", custom.classNamePrefix)

	disabled := base.WithFeatureBulkMemory(false)
	require.True(t, base.featureBulkMemory)
	require.False(t, disabled.featureBulkMemory)
}
