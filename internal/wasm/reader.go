package wasm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// MalformedError reports that the WASM byte stream itself does not parse —
// a truncated section, an invalid LEB128 encoding, a bad magic number.
// Its message is preserved verbatim for conformance harness comparison
// against assert_malformed directive text.
type MalformedError struct {
	Msg string
}

func (e MalformedError) Error() string { return e.Msg }

func malformed(format string, args ...interface{}) error {
	return MalformedError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidError reports that the module parsed but is not well-formed per
// the WASM spec's static validation rules (out-of-range indices, mismatched
// section counts, and so on).
type InvalidError struct {
	Msg string
}

func (e InvalidError) Error() string { return e.Msg }

func invalid(format string, args ...interface{}) error {
	return InvalidError{Msg: fmt.Sprintf(format, args...)}
}

// reader is a cursor over an in-memory byte slice, used for both top-level
// module/section decoding and per-function body instruction decoding. It
// never copies the underlying bytes.
type reader struct {
	b   []byte
	pos int
}

func newReader(b []byte) *reader { return &reader{b: b} }

func (r *reader) eof() bool { return r.pos >= len(r.b) }

func (r *reader) remaining() int { return len(r.b) - r.pos }

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.b) {
		return 0, malformed("unexpected end of input")
	}
	c := r.b[r.pos]
	r.pos++
	return c, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.b) {
		return nil, malformed("unexpected end of input")
	}
	out := r.b[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) u32() (uint32, error) {
	v, n, err := decodeUint32(r.b, r.pos)
	if err != nil {
		return 0, malformed("%s", err.Error())
	}
	r.pos += n
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	v, n, err := decodeUint64(r.b, r.pos)
	if err != nil {
		return 0, malformed("%s", err.Error())
	}
	r.pos += n
	return v, nil
}

func (r *reader) i32() (int32, error) {
	v, n, err := decodeInt32(r.b, r.pos)
	if err != nil {
		return 0, malformed("%s", err.Error())
	}
	r.pos += n
	return v, nil
}

func (r *reader) i64() (int64, error) {
	v, n, err := decodeInt64(r.b, r.pos)
	if err != nil {
		return 0, malformed("%s", err.Error())
	}
	r.pos += n
	return v, nil
}

func (r *reader) f32() (float32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b)), nil
}

func (r *reader) f64() (float64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// name reads a WASM vec(byte) UTF-8 string.
func (r *reader) name() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.bytes(int(n))
	if err != nil {
		return "", malformed("invalid name: %s", err.Error())
	}
	return string(b), nil
}
