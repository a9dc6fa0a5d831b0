package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode_EmptyModule(t *testing.T) {
	input := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	m, err := Decode(input)
	require.NoError(t, err)
	require.Empty(t, m.TypeSection)
	require.Empty(t, m.FunctionSection)
}

func TestDecode_InvalidMagic(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x61, 0x73, 0x6e, 0x01, 0x00, 0x00, 0x00})
	require.Error(t, err)
	require.IsType(t, MalformedError{}, err)
}

func TestDecode_TypeSection(t *testing.T) {
	input := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01,       // type section id
		0x07,       // section size
		0x01,       // 1 type
		0x60,       // func form
		0x02,       // 2 params
		ValueTypeI32, ValueTypeI64,
		0x01, // 1 result
		ValueTypeI32,
	}
	m, err := Decode(input)
	require.NoError(t, err)
	require.Equal(t, []FunctionType{{
		Params:  []ValueType{ValueTypeI32, ValueTypeI64},
		Results: []ValueType{ValueTypeI32},
	}}, m.TypeSection)
}

func TestDecode_FunctionCodeMismatch(t *testing.T) {
	input := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x04, 0x01, 0x60, 0x00, 0x00, // one empty functype
		0x03, 0x02, 0x01, 0x00, // function section: 1 func using type 0
		// no code section
	}
	_, err := Decode(input)
	require.Error(t, err)
	require.IsType(t, InvalidError{}, err)
}

func TestBodyReader_SimpleAdd(t *testing.T) {
	// (local.get 0) (local.get 1) i32.add end
	body := []byte{byte(OpcodeLocalGet), 0x00, byte(OpcodeLocalGet), 0x01, byte(OpcodeI32Add), byte(OpcodeEnd)}
	br := NewBodyReader(body)

	insn, err := br.Next()
	require.NoError(t, err)
	require.Equal(t, OpcodeLocalGet, insn.Op)
	require.Equal(t, Index(0), insn.LocalIndex)

	insn, err = br.Next()
	require.NoError(t, err)
	require.Equal(t, OpcodeLocalGet, insn.Op)
	require.Equal(t, Index(1), insn.LocalIndex)

	insn, err = br.Next()
	require.NoError(t, err)
	require.Equal(t, OpcodeI32Add, insn.Op)

	insn, err = br.Next()
	require.NoError(t, err)
	require.Equal(t, OpcodeEnd, insn.Op)

	require.True(t, br.Done())
}

func TestBodyReader_MiscOpcode(t *testing.T) {
	// memory.fill: 0xfc 0x0b 0x00
	body := []byte{0xFC, 0x0B, 0x00}
	br := NewBodyReader(body)
	insn, err := br.Next()
	require.NoError(t, err)
	require.Equal(t, MiscMemoryFill, insn.Op)
}

func TestConstantExpression_Evaluate(t *testing.T) {
	ce := ConstantExpression{Data: []byte{byte(OpcodeI32Const), 0x2a, byte(OpcodeEnd)}}
	v, err := ce.Evaluate(nil)
	require.NoError(t, err)
	require.Equal(t, int32(42), v.I32)
}
