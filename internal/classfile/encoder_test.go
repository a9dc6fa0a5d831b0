package classfile

import "testing"

func TestEncoderBigEndianWidths(t *testing.T) {
	e := NewEncoder()
	e.U1(0xAB)
	e.U2(0x1234)
	e.U4(0xDEADBEEF)
	e.U8(0x0102030405060708)
	want := []byte{0xAB, 0x12, 0x34, 0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	got := e.Bytes()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %#x want %#x", i, got[i], want[i])
		}
	}
}

func TestModifiedUTF8EncodesNUL(t *testing.T) {
	got := modifiedUTF8("a\x00b")
	want := []byte{'a', 0xC0, 0x80, 'b'}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %#x want %#x", i, got[i], want[i])
		}
	}
}

func TestModifiedUTF8EncodesSupplementaryAsSurrogatePair(t *testing.T) {
	// U+1F600 GRINNING FACE, outside the basic multilingual plane.
	got := modifiedUTF8("\U0001F600")
	if len(got) != 6 {
		t.Fatalf("expected 6-byte surrogate pair encoding, got %d bytes", len(got))
	}
}

func TestWriteModifiedUTF8PrefixesLength(t *testing.T) {
	e := NewEncoder()
	e.writeModifiedUTF8("hi")
	got := e.Bytes()
	if len(got) != 4 || got[0] != 0 || got[1] != 2 || got[2] != 'h' || got[3] != 'i' {
		t.Fatalf("unexpected encoding: %v", got)
	}
}

func TestEncoderSticksOnFirstError(t *testing.T) {
	e := NewEncoder()
	e.fail(errBoom)
	e.U1(1)
	e.U4(2)
	if len(e.Bytes()) != 0 {
		t.Fatalf("expected no bytes written after error, got %v", e.Bytes())
	}
	if e.Err() != errBoom {
		t.Fatalf("expected sticky error to remain errBoom, got %v", e.Err())
	}
}

var errBoom = fmtError("boom")

type fmtError string

func (e fmtError) Error() string { return string(e) }
