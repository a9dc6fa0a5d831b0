package translator

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm2jar/wasm2jar/internal/wasm"
)

// moduleBuilder assembles WASM binaries by hand for test input, one
// section at a time.
type moduleBuilder struct {
	buf bytes.Buffer
}

func newModuleBuilder() *moduleBuilder {
	b := &moduleBuilder{}
	b.buf.Write([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})
	return b
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			c |= 0x80
		}
		out = append(out, c)
		if v == 0 {
			return out
		}
	}
}

func (b *moduleBuilder) section(id byte, payload []byte) *moduleBuilder {
	b.buf.WriteByte(id)
	b.buf.Write(uleb(uint32(len(payload))))
	b.buf.Write(payload)
	return b
}

func (b *moduleBuilder) bytes() []byte { return b.buf.Bytes() }

func vec(items ...[]byte) []byte {
	out := uleb(uint32(len(items)))
	for _, it := range items {
		out = append(out, it...)
	}
	return out
}

func funcType(params, results []byte) []byte {
	out := []byte{0x60}
	out = append(out, uleb(uint32(len(params)))...)
	out = append(out, params...)
	out = append(out, uleb(uint32(len(results)))...)
	out = append(out, results...)
	return out
}

func export(name string, kind byte, idx uint32) []byte {
	out := uleb(uint32(len(name)))
	out = append(out, name...)
	out = append(out, kind)
	out = append(out, uleb(idx)...)
	return out
}

func funcBody(localDecls []byte, code ...byte) []byte {
	body := append(append([]byte{}, localDecls...), code...)
	return append(uleb(uint32(len(body))), body...)
}

var noLocals = []byte{0x00}

// addModule is (module (func (export "add") (param i32 i32) (result i32)
// local.get 0 local.get 1 i32.add)).
func addModule() []byte {
	return newModuleBuilder().
		section(1, vec(funcType([]byte{wasm.ValueTypeI32, wasm.ValueTypeI32}, []byte{wasm.ValueTypeI32}))).
		section(3, vec([]byte{0x00})).
		section(7, vec(export("add", 0x00, 0))).
		section(10, vec(funcBody(noLocals, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b))).
		bytes()
}

func TestTranslate_AddModule(t *testing.T) {
	compiled, err := Translate(NewConfig(), addModule())
	require.NoError(t, err)
	require.Equal(t, "org/wasm2jar/generated/Module", compiled.MainClass)

	names := make(map[string]bool, len(compiled.Classes))
	for _, c := range compiled.Classes {
		names[c.Name] = true
		require.True(t, bytes.HasPrefix(c.Bytes, []byte{0xCA, 0xFE, 0xBA, 0xBE}), "class %s must start with the class file magic", c.Name)
		require.Equal(t, uint16(55), binary.BigEndian.Uint16(c.Bytes[6:8]), "class %s must target Java 11", c.Name)
	}
	require.True(t, names["org/wasm2jar/generated/Module"])
	require.True(t, names["org/wasm2jar/generated/Module$Part0"])
	for _, helper := range []string{
		"org/wasm2jar/Function", "org/wasm2jar/Global", "org/wasm2jar/Memory",
		"org/wasm2jar/FunctionTable", "org/wasm2jar/ReferenceTable",
	} {
		require.True(t, names[helper], "runtime helper %s must be emitted", helper)
	}
}

func TestTranslate_Deterministic(t *testing.T) {
	input := addModule()
	first, err := Translate(NewConfig(), input)
	require.NoError(t, err)
	second, err := Translate(NewConfig(), input)
	require.NoError(t, err)

	require.Equal(t, len(first.Classes), len(second.Classes))
	for i := range first.Classes {
		require.Equal(t, first.Classes[i].Name, second.Classes[i].Name)
		require.Equal(t, first.Classes[i].Bytes, second.Classes[i].Bytes, "class %s must be byte-identical across runs", first.Classes[i].Name)
	}
}

func TestTranslate_DivTrapHelper(t *testing.T) {
	// (func (export "div") (param i32 i32) (result i32)
	//   local.get 0 local.get 1 i32.div_s)
	input := newModuleBuilder().
		section(1, vec(funcType([]byte{wasm.ValueTypeI32, wasm.ValueTypeI32}, []byte{wasm.ValueTypeI32}))).
		section(3, vec([]byte{0x00})).
		section(7, vec(export("div", 0x00, 0))).
		section(10, vec(funcBody(noLocals, 0x20, 0x00, 0x20, 0x01, 0x6d, 0x0b))).
		bytes()
	compiled, err := Translate(NewConfig(), input)
	require.NoError(t, err)

	// The Int.MIN_VALUE/-1 overflow check lives in a generated i32DivS
	// helper on the part class.
	var part []byte
	for _, c := range compiled.Classes {
		if c.Name == "org/wasm2jar/generated/Module$Part0" {
			part = c.Bytes
		}
	}
	require.NotNil(t, part)
	require.True(t, bytes.Contains(part, []byte("i32DivS")), "part class must carry the i32DivS helper")
}

func TestTranslate_MemoryModule(t *testing.T) {
	// (module (memory (export "m") 1)
	//   (func (export "st") (param i32 i32) (local.get 0) (local.get 1) i32.store)
	//   (func (export "ld") (param i32) (result i32) (local.get 0) i32.load))
	input := newModuleBuilder().
		section(1, vec(
			funcType([]byte{wasm.ValueTypeI32, wasm.ValueTypeI32}, nil),
			funcType([]byte{wasm.ValueTypeI32}, []byte{wasm.ValueTypeI32}),
		)).
		section(3, vec([]byte{0x00}, []byte{0x01})).
		section(5, vec([]byte{0x00, 0x01})). // memory: no max, min 1 page
		section(7, vec(
			export("m", 0x02, 0),
			export("st", 0x00, 0),
			export("ld", 0x00, 1),
		)).
		section(10, vec(
			funcBody(noLocals, 0x20, 0x00, 0x20, 0x01, 0x36, 0x02, 0x00, 0x0b), // i32.store align=2 offset=0
			funcBody(noLocals, 0x20, 0x00, 0x28, 0x02, 0x00, 0x0b),             // i32.load align=2 offset=0
		)).
		bytes()
	compiled, err := Translate(NewConfig(), input)
	require.NoError(t, err)

	var main []byte
	for _, c := range compiled.Classes {
		if c.Name == compiled.MainClass {
			main = c.Bytes
		}
	}
	// Exported memory rides in the boxed org/wasm2jar/Memory wrapper, and
	// accesses go through the little-endian ByteBuffer.
	require.True(t, bytes.Contains(main, []byte("org/wasm2jar/Memory")))
	require.True(t, bytes.Contains(main, []byte("LITTLE_ENDIAN")))
}

func TestTranslate_PartSplitting(t *testing.T) {
	// Many small functions with tight part limits must spread across
	// several Part classes.
	const n = 60
	types := vec(funcType([]byte{wasm.ValueTypeI32}, []byte{wasm.ValueTypeI32}))
	funcIdxs := make([][]byte, n)
	bodies := make([][]byte, n)
	for i := 0; i < n; i++ {
		funcIdxs[i] = []byte{0x00}
		bodies[i] = funcBody(noLocals, 0x20, 0x00, 0x0b)
	}
	input := newModuleBuilder().
		section(1, types).
		section(3, vec(funcIdxs...)).
		section(10, vec(bodies...)).
		bytes()

	cfg := NewConfig().WithMaxPartConstants(200).WithMaxPartCodeBytes(400)
	compiled, err := Translate(cfg, input)
	require.NoError(t, err)

	parts := 0
	for _, c := range compiled.Classes {
		if bytes.Contains([]byte(c.Name), []byte("$Part")) {
			parts++
		}
	}
	require.Greater(t, parts, 1, "tight part limits must force more than one Part class")
}

func TestTranslate_Malformed(t *testing.T) {
	_, err := Translate(NewConfig(), []byte{0x00, 0x61, 0x73, 0x6e, 0x01, 0x00, 0x00, 0x00})
	require.Error(t, err)
	require.IsType(t, InputMalformedError{}, err)
	require.Equal(t, "invalid magic number", err.Error())
}

func TestTranslate_GlobalModule(t *testing.T) {
	// (module (global (export "g") (mut i32) (i32.const 41))
	//   (func (export "bump") (result i32)
	//     global.get 0 i32.const 1 i32.add global.set 0 global.get 0))
	input := newModuleBuilder().
		section(1, vec(funcType(nil, []byte{wasm.ValueTypeI32}))).
		section(3, vec([]byte{0x00})).
		section(6, vec([]byte{wasm.ValueTypeI32, 0x01, 0x41, 41, 0x0b})).
		section(7, vec(
			export("g", 0x03, 0),
			export("bump", 0x00, 0),
		)).
		section(10, vec(funcBody(noLocals,
			0x23, 0x00, // global.get 0
			0x41, 0x01, // i32.const 1
			0x6a,       // i32.add
			0x24, 0x00, // global.set 0
			0x23, 0x00, // global.get 0
			0x0b))).
		bytes()
	compiled, err := Translate(NewConfig(), input)
	require.NoError(t, err)

	var main []byte
	for _, c := range compiled.Classes {
		if c.Name == compiled.MainClass {
			main = c.Bytes
		}
	}
	// Exported global is boxed and round-trips through Integer.valueOf /
	// Number.intValue.
	require.True(t, bytes.Contains(main, []byte("org/wasm2jar/Global")))
}

func TestTranslate_UnsupportedFeature(t *testing.T) {
	// Two results with multi_value disabled.
	input := newModuleBuilder().
		section(1, vec(funcType(nil, []byte{wasm.ValueTypeI32, wasm.ValueTypeI32}))).
		section(3, vec([]byte{0x00})).
		section(10, vec(funcBody(noLocals, 0x41, 0x01, 0x41, 0x02, 0x0b))).
		bytes()
	cfg := NewConfig().WithFeatureMultiValue(false)
	_, err := Translate(cfg, input)
	require.Error(t, err)
	require.IsType(t, UnsupportedFeatureError{}, err)
}

func TestTranslate_MultiValue(t *testing.T) {
	// (func (export "pair") (result i32 i64) i32.const 1 i64.const 2):
	// the pair comes back as a synthetic tuple class.
	input := newModuleBuilder().
		section(1, vec(funcType(nil, []byte{wasm.ValueTypeI32, wasm.ValueTypeI64}))).
		section(3, vec([]byte{0x00})).
		section(7, vec(export("pair", 0x00, 0))).
		section(10, vec(funcBody(noLocals, 0x41, 0x01, 0x42, 0x02, 0x0b))).
		bytes()
	compiled, err := Translate(NewConfig(), input)
	require.NoError(t, err)

	foundTuple := false
	for _, c := range compiled.Classes {
		if bytes.Contains([]byte(c.Name), []byte("Tuple$")) {
			foundTuple = true
		}
	}
	require.True(t, foundTuple, "multi-value result must produce a tuple class")
}

func TestTranslate_StartFunction(t *testing.T) {
	// (module (memory 1) (func (i32.const 0) (i32.const 1) i32.store) (start 0))
	input := newModuleBuilder().
		section(1, vec(funcType(nil, nil))).
		section(3, vec([]byte{0x00})).
		section(5, vec([]byte{0x00, 0x01})).
		section(8, []byte{0x00}). // start: func 0
		section(10, vec(funcBody(noLocals, 0x41, 0x00, 0x41, 0x01, 0x36, 0x02, 0x00, 0x0b))).
		bytes()
	compiled, err := Translate(NewConfig(), input)
	require.NoError(t, err)

	var main []byte
	for _, c := range compiled.Classes {
		if c.Name == compiled.MainClass {
			main = c.Bytes
		}
	}
	require.True(t, bytes.Contains(main, []byte("initialize")), "start function must surface as initialize()")
}
