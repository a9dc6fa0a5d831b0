// Package conformance drives the translator from the official WASM spec
// test corpus, in the wast2json command format (one JSON command list per
// .wast source, with the modules extracted to sibling .wasm files).
//
// The harness checks three things per corpus file: every valid module
// translates (and translates deterministically), every assert_malformed /
// assert_invalid module is rejected with the matching typed error, and —
// since this package never runs generated classes on a JVM — the
// behavioral directives (assert_return, assert_trap) are checked against a
// reference engine (wasmtime) executing the original module, which guards
// the corpus itself and the harness's own decoding against drift.
package conformance

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bytecodealliance/wasmtime-go"

	"github.com/wasm2jar/wasm2jar/internal/translator"
)

type (
	testbase struct {
		SourceFile string    `json:"source_filename"`
		Commands   []command `json:"commands"`
	}
	command struct {
		CommandType string `json:"type"`
		Line        int    `json:"line"`

		// Set when type == "module" || "register"
		Name string `json:"name,omitempty"`

		// Set when type == "module" || "assert_uninstantiable" || "assert_malformed"
		Filename string `json:"filename,omitempty"`

		// Set when type == "register"
		As string `json:"as,omitempty"`

		// Set when type == "assert_return" || "action"
		Action commandAction      `json:"action,omitempty"`
		Exps   []commandActionVal `json:"expected"`

		// Set when type == "assert_malformed" || "assert_invalid"
		ModuleType string `json:"module_type"`

		// Set when type == "assert_trap" || "assert_malformed" || "assert_invalid"
		Text string `json:"text"`
	}

	commandAction struct {
		ActionType string             `json:"type"`
		Args       []commandActionVal `json:"args"`

		// Set when ActionType == "invoke"
		Field  string `json:"field,omitempty"`
		Module string `json:"module,omitempty"`
	}

	commandActionVal struct {
		ValType string `json:"type"`
		Value   string `json:"value"`
	}
)

// Verdict is one directive's outcome.
type Verdict int

const (
	Passed Verdict = iota
	Failed
	Skipped
)

// Result records one directive's verdict with enough context to report it.
type Result struct {
	Line    int
	Command string
	Verdict Verdict
	Detail  string
}

// Report aggregates a corpus file's results.
type Report struct {
	SourceFile string
	Results    []Result
}

func (r *Report) count(v Verdict) int {
	n := 0
	for _, res := range r.Results {
		if res.Verdict == v {
			n++
		}
	}
	return n
}

func (r *Report) Passed() int  { return r.count(Passed) }
func (r *Report) Failed() int  { return r.count(Failed) }
func (r *Report) Skipped() int { return r.count(Skipped) }

func (r *Report) String() string {
	return fmt.Sprintf("%s: %d passed, %d failed, %d skipped",
		r.SourceFile, r.Passed(), r.Failed(), r.Skipped())
}

// Runner runs wast2json corpora against the translator plus a wasmtime
// oracle. One Runner may run many files; each file gets a fresh oracle
// store.
type Runner struct {
	cfg translator.Config
}

func NewRunner(cfg translator.Config) *Runner {
	return &Runner{cfg: cfg}
}

// RunFile loads one wast2json .json command file (with its module files in
// the same directory) and runs every command.
func (r *Runner) RunFile(jsonPath string) (*Report, error) {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var base testbase
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, fmt.Errorf("conformance: %s: %w", jsonPath, err)
	}
	return r.Run(base, filepath.Dir(jsonPath))
}

// Run executes a parsed command list, resolving module filenames against
// dir.
func (r *Runner) Run(base testbase, dir string) (*Report, error) {
	report := &Report{SourceFile: base.SourceFile}

	engine := wasmtime.NewEngine()
	store := wasmtime.NewStore(engine)
	var oracle *wasmtime.Instance // current module under test, if instantiable

	record := func(c command, v Verdict, detail string) {
		report.Results = append(report.Results, Result{Line: c.Line, Command: c.CommandType, Verdict: v, Detail: detail})
	}

	for _, c := range base.Commands {
		switch c.CommandType {
		case "module":
			bin, err := os.ReadFile(filepath.Join(dir, c.Filename))
			if err != nil {
				return nil, err
			}
			if detail, ok := r.checkTranslates(bin); !ok {
				record(c, Failed, detail)
				oracle = nil
				continue
			}
			oracle = instantiate(store, engine, bin)
			record(c, Passed, "")

		case "assert_return", "action":
			v, detail := runAction(store, oracle, c)
			record(c, v, detail)

		case "assert_trap":
			v, detail := runTrap(store, oracle, c)
			record(c, v, detail)

		case "assert_malformed":
			v, detail := r.runMalformed(dir, c)
			record(c, v, detail)

		case "assert_invalid":
			v, detail := r.runInvalid(dir, c)
			record(c, v, detail)

		default:
			// register / assert_unlinkable / assert_uninstantiable /
			// assert_exhaustion need multi-module linking or a real
			// execution environment; out of this harness's scope.
			record(c, Skipped, "")
		}
	}
	return report, nil
}

// checkTranslates compiles bin twice and demands success plus byte-equal
// output (the determinism invariant rides along on every valid module).
func (r *Runner) checkTranslates(bin []byte) (string, bool) {
	first, err := translator.Translate(r.cfg, bin)
	if err != nil {
		return fmt.Sprintf("translation failed: %v", err), false
	}
	second, err := translator.Translate(r.cfg, bin)
	if err != nil {
		return fmt.Sprintf("second translation failed: %v", err), false
	}
	if len(first.Classes) != len(second.Classes) {
		return "non-deterministic output: class count differs", false
	}
	for i := range first.Classes {
		if !bytes.Equal(first.Classes[i].Bytes, second.Classes[i].Bytes) {
			return fmt.Sprintf("non-deterministic output: %s differs between runs", first.Classes[i].Name), false
		}
	}
	return "", true
}

func (r *Runner) runMalformed(dir string, c command) (Verdict, string) {
	if c.ModuleType != "binary" {
		// Text-form (quote) modules test the WAT parser, which this
		// translator does not contain.
		return Skipped, "text-form module"
	}
	bin, err := os.ReadFile(filepath.Join(dir, c.Filename))
	if err != nil {
		return Failed, err.Error()
	}
	_, err = translator.Translate(r.cfg, bin)
	var malformed translator.InputMalformedError
	if !errors.As(err, &malformed) {
		return Failed, fmt.Sprintf("want InputMalformed, got %v", err)
	}
	if c.Text != "" && malformed.Msg != c.Text {
		return Failed, fmt.Sprintf("message %q, directive expects %q", malformed.Msg, c.Text)
	}
	return Passed, ""
}

func (r *Runner) runInvalid(dir string, c command) (Verdict, string) {
	bin, err := os.ReadFile(filepath.Join(dir, c.Filename))
	if err != nil {
		return Failed, err.Error()
	}
	_, err = translator.Translate(r.cfg, bin)
	var invalid translator.InputInvalidError
	if errors.As(err, &invalid) {
		return Passed, ""
	}
	return Failed, fmt.Sprintf("want InputInvalid, got %v", err)
}

// instantiate builds the oracle instance, nil when the module needs
// imports this harness does not provide.
func instantiate(store *wasmtime.Store, engine *wasmtime.Engine, bin []byte) *wasmtime.Instance {
	module, err := wasmtime.NewModule(engine, bin)
	if err != nil {
		return nil
	}
	instance, err := wasmtime.NewInstance(store, module, nil)
	if err != nil {
		return nil
	}
	return instance
}

func runAction(store *wasmtime.Store, oracle *wasmtime.Instance, c command) (Verdict, string) {
	if oracle == nil {
		return Skipped, "no oracle instance"
	}
	if c.Action.ActionType != "invoke" {
		return Skipped, "non-invoke action"
	}
	args, ok := actionArgs(c.Action.Args)
	if !ok {
		return Skipped, "reference-typed argument"
	}
	ext := oracle.GetExport(store, c.Action.Field)
	if ext == nil || ext.Func() == nil {
		return Failed, fmt.Sprintf("export %q not found", c.Action.Field)
	}
	got, err := ext.Func().Call(store, args...)
	if err != nil {
		return Failed, fmt.Sprintf("oracle call failed: %v", err)
	}
	if detail, ok := compareResults(got, c.Exps); !ok {
		return Failed, detail
	}
	return Passed, ""
}

func runTrap(store *wasmtime.Store, oracle *wasmtime.Instance, c command) (Verdict, string) {
	if oracle == nil {
		return Skipped, "no oracle instance"
	}
	if c.Action.ActionType != "invoke" {
		return Skipped, "non-invoke action"
	}
	args, ok := actionArgs(c.Action.Args)
	if !ok {
		return Skipped, "reference-typed argument"
	}
	ext := oracle.GetExport(store, c.Action.Field)
	if ext == nil || ext.Func() == nil {
		return Failed, fmt.Sprintf("export %q not found", c.Action.Field)
	}
	if _, err := ext.Func().Call(store, args...); err == nil {
		return Failed, fmt.Sprintf("expected trap %q, call succeeded", c.Text)
	}
	return Passed, ""
}

func actionArgs(vals []commandActionVal) ([]interface{}, bool) {
	args := make([]interface{}, 0, len(vals))
	for _, v := range vals {
		switch v.ValType {
		case "i32":
			n, _ := strconv.ParseUint(v.Value, 10, 32)
			args = append(args, int32(n))
		case "i64":
			n, _ := strconv.ParseUint(v.Value, 10, 64)
			args = append(args, int64(n))
		case "f32":
			n, _ := strconv.ParseUint(v.Value, 10, 32)
			args = append(args, math.Float32frombits(uint32(n)))
		case "f64":
			n, _ := strconv.ParseUint(v.Value, 10, 64)
			args = append(args, math.Float64frombits(n))
		default:
			return nil, false
		}
	}
	return args, true
}

func compareResults(got interface{}, exps []commandActionVal) (string, bool) {
	var results []interface{}
	switch g := got.(type) {
	case nil:
		// void
	case []wasmtime.Val:
		for _, v := range g {
			results = append(results, v.Get())
		}
	case []interface{}:
		results = g
	default:
		results = []interface{}{g}
	}
	if len(results) != len(exps) {
		return fmt.Sprintf("result arity %d, want %d", len(results), len(exps)), false
	}
	for i, exp := range exps {
		if detail, ok := compareOne(results[i], exp); !ok {
			return fmt.Sprintf("result %d: %s", i, detail), false
		}
	}
	return "", true
}

func compareOne(got interface{}, exp commandActionVal) (string, bool) {
	// NaN expectations (nan:canonical / nan:arithmetic) only require any
	// NaN of the right width.
	if strings.Contains(exp.Value, "nan") {
		switch g := got.(type) {
		case float32:
			if g != g {
				return "", true
			}
		case float64:
			if g != g {
				return "", true
			}
		}
		return fmt.Sprintf("got %v, want NaN", got), false
	}
	var gotBits, wantBits uint64
	switch g := got.(type) {
	case int32:
		gotBits = uint64(uint32(g))
		wantBits, _ = strconv.ParseUint(exp.Value, 10, 32)
	case int64:
		gotBits = uint64(g)
		wantBits, _ = strconv.ParseUint(exp.Value, 10, 64)
	case float32:
		gotBits = uint64(math.Float32bits(g))
		wantBits, _ = strconv.ParseUint(exp.Value, 10, 32)
	case float64:
		gotBits = math.Float64bits(g)
		wantBits, _ = strconv.ParseUint(exp.Value, 10, 64)
	default:
		return fmt.Sprintf("unhandled result type %T", got), false
	}
	if gotBits != wantBits {
		return fmt.Sprintf("got 0x%x, want 0x%x", gotBits, wantBits), false
	}
	return "", true
}
