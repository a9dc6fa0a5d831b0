package conformance

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasm2jar/wasm2jar/internal/translator"
)

// addWasm is (module (func (export "add") (param i32 i32) (result i32)
// local.get 0 local.get 1 i32.add)), assembled by hand.
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 'a', 'd', 'd', 0x00, 0x00,
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

// badMagic fails decoding with the parser's "invalid magic number".
var badMagic = []byte{0x00, 0x61, 0x73, 0x6e, 0x01, 0x00, 0x00, 0x00}

func writeCorpus(t *testing.T, dir string, base testbase) string {
	raw, err := json.Marshal(base)
	require.NoError(t, err)
	path := filepath.Join(dir, "corpus.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestRunner_AssertMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.wasm"), badMagic, 0o644))

	path := writeCorpus(t, dir, testbase{
		SourceFile: "bad.wast",
		Commands: []command{
			{CommandType: "assert_malformed", Line: 1, Filename: "bad.wasm", ModuleType: "binary", Text: "invalid magic number"},
		},
	})

	report, err := NewRunner(translator.NewConfig()).RunFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, report.Passed())
	require.Zero(t, report.Failed())
}

func TestRunner_AssertMalformed_MessageMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.wasm"), badMagic, 0o644))

	path := writeCorpus(t, dir, testbase{
		Commands: []command{
			{CommandType: "assert_malformed", Line: 1, Filename: "bad.wasm", ModuleType: "binary", Text: "some other message"},
		},
	})

	report, err := NewRunner(translator.NewConfig()).RunFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed())
	require.Contains(t, report.Results[0].Detail, "directive expects")
}

func TestRunner_ModuleAndReturn(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "add.wasm"), addWasm, 0o644))

	path := writeCorpus(t, dir, testbase{
		SourceFile: "add.wast",
		Commands: []command{
			{CommandType: "module", Line: 1, Filename: "add.wasm"},
			{
				CommandType: "assert_return",
				Line:        2,
				Action: commandAction{
					ActionType: "invoke",
					Field:      "add",
					Args: []commandActionVal{
						{ValType: "i32", Value: "2"},
						{ValType: "i32", Value: "3"},
					},
				},
				Exps: []commandActionVal{{ValType: "i32", Value: "5"}},
			},
		},
	})

	report, err := NewRunner(translator.NewConfig()).RunFile(path)
	require.NoError(t, err)
	require.Zero(t, report.Failed(), "failures: %+v", report.Results)
	require.Equal(t, 2, report.Passed())
}

func TestRunner_TextFormMalformedSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeCorpus(t, dir, testbase{
		Commands: []command{
			{CommandType: "assert_malformed", Line: 1, Filename: "mod.wat", ModuleType: "text"},
		},
	})
	report, err := NewRunner(translator.NewConfig()).RunFile(path)
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped())
}
