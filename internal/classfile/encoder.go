package classfile

import (
	"encoding/binary"
	"fmt"
)

// Encoder accumulates a class file's big-endian wire encoding. Every write
// method is a no-op once err is set, so a serializer can chain calls without
// checking after every one and inspect err once at the end.
type Encoder struct {
	buf []byte
	err error
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the accumulated bytes. Call only after checking Err().
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Err returns the first error encountered, if any.
func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// U1 appends a single unsigned byte.
func (e *Encoder) U1(v byte) {
	if e.err != nil {
		return
	}
	e.buf = append(e.buf, v)
}

// U2 appends a big-endian uint16.
func (e *Encoder) U2(v uint16) {
	if e.err != nil {
		return
	}
	e.buf = append(e.buf, byte(v>>8), byte(v))
}

// U4 appends a big-endian uint32.
func (e *Encoder) U4(v uint32) {
	if e.err != nil {
		return
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// U8 appends a big-endian uint64.
func (e *Encoder) U8(v uint64) {
	if e.err != nil {
		return
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf = append(e.buf, b[:]...)
}

// RawBytes appends raw bytes verbatim (used for bytecode arrays and raw byte
// constants already encoded elsewhere).
func (e *Encoder) RawBytes(b []byte) {
	if e.err != nil {
		return
	}
	e.buf = append(e.buf, b...)
}

// writeModifiedUTF8 appends a CONSTANT_Utf8_info body: a u2 length prefix
// followed by the modified UTF-8 encoding of s.
//
// Go strings are already UTF-8; the JVM's "modified" UTF-8 differs only in
// how it encodes NUL (as the two bytes 0xC0 0x80, to keep C-style strings
// NUL-terminatable) and supplementary characters (as a CESU-8 surrogate
// pair instead of a 4-byte UTF-8 sequence). WASM export/import names and our
// generated identifiers never legitimately contain NUL or characters outside
// the basic multilingual plane combined with astral symbols, but we still
// perform the transcoding so no valid Go string can produce a malformed
// class file.
func (e *Encoder) writeModifiedUTF8(s string) {
	if e.err != nil {
		return
	}
	encoded := modifiedUTF8(s)
	if len(encoded) > 65535 {
		e.fail(fmt.Errorf("classfile: UTF-8 constant %q exceeds 65535 bytes when encoded", s))
		return
	}
	e.U2(uint16(len(encoded)))
	e.buf = append(e.buf, encoded...)
}

func modifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == 0:
			out = append(out, 0xC0, 0x80)
		case r > 0 && r <= 0x7F:
			out = append(out, byte(r))
		case r <= 0x7FF:
			out = append(out,
				0xC0|byte(r>>6),
				0x80|byte(r&0x3F))
		case r <= 0xFFFF:
			out = append(out,
				0xE0|byte(r>>12),
				0x80|byte((r>>6)&0x3F),
				0x80|byte(r&0x3F))
		default:
			// Encode as a CESU-8 surrogate pair.
			r -= 0x10000
			hi := 0xD800 + (r >> 10)
			lo := 0xDC00 + (r & 0x3FF)
			out = append(out,
				0xE0|byte(hi>>12), 0x80|byte((hi>>6)&0x3F), 0x80|byte(hi&0x3F),
				0xE0|byte(lo>>12), 0x80|byte((lo>>6)&0x3F), 0x80|byte(lo&0x3F))
		}
	}
	return out
}
