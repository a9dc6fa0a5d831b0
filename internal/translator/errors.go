// Error types specific to module translation. The JVM structural-limit and
// verification failures (classfile.ErrConstantPoolOverflow, bytecode.
// ErrMethodCodeOverflow, bytecode.ErrMethodStackOverflow, verify.
// ErrConflictingFrames, and the bytecode builder's misuse errors) already
// have typed representations in the packages that detect them and are
// returned to callers unwrapped — errors.As still distinguishes them by
// their own concrete type, so translator-level code only needs to add the
// kinds that don't already have a home: malformed/invalid input, disabled
// features, and output I/O.
package translator

import "fmt"

// InputMalformedError wraps a WASM decode failure (internal/wasm's
// MalformedError) so callers can distinguish "bytes don't parse" from every
// other translation failure without inspecting message text. The wrapped
// message is preserved verbatim: the WAST conformance harness compares
// assert_malformed's expected text against it byte for byte.
type InputMalformedError struct {
	Msg string
}

func (e InputMalformedError) Error() string { return e.Msg }

// InputInvalidError wraps a WASM structural-validation failure (internal/
// wasm's InvalidError) — the module parsed but violates a static validation
// rule (an out-of-range index, a mismatched block signature).
type InputInvalidError struct {
	Msg string
}

func (e InputInvalidError) Error() string { return e.Msg }

// UnsupportedFeatureError is returned when a module validly uses a WASM
// proposal this translator's Config has not enabled (reference_types,
// multi_value, bulk_memory are on by default; simd, threads, tail_call,
// module_linking, multi_memory, exceptions, and memory64 are not).
type UnsupportedFeatureError struct {
	Feature string
}

func (e UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("unsupported wasm feature: %s", e.Feature)
}

// UnsupportedTypeError is returned when a value type cannot be represented
// on the JVM target (there are none in the currently supported feature set;
// this exists for proposals like SIMD's v128 that a future Config could
// enable without this type disappearing).
type UnsupportedTypeError struct {
	Type byte
}

func (e UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported value type 0x%x", e.Type)
}

// ModuleTooLargeError reports that a module could not be split finely enough
// to keep every generated class within the JVM's per-class structural
// limits — for example a single function whose own body overflows a part
// class on its own, which splitting functions across parts cannot fix.
type ModuleTooLargeError struct {
	Reason string
}

func (e ModuleTooLargeError) Error() string {
	return fmt.Sprintf("module too large to translate: %s", e.Reason)
}

// IoError wraps a failure writing a finished class file out to its
// destination (a directory, a jar, a byte buffer).
type IoError struct {
	Err error
}

func (e IoError) Error() string { return fmt.Sprintf("io error: %s", e.Err) }
func (e IoError) Unwrap() error { return e.Err }
