package offsetseq

import "testing"

type slot struct {
	width int
	tag   string
}

func (s slot) Width() int { return s.width }

func TestPushSameWidth(t *testing.T) {
	s := NewSequence[slot]()
	off0 := s.Push(slot{1, "a"})
	off1 := s.Push(slot{1, "b"})
	off2 := s.Push(slot{1, "c"})
	if off0 != 0 || off1 != 1 || off2 != 2 {
		t.Fatalf("unexpected offsets: %d %d %d", off0, off1, off2)
	}
	if s.Len() != 3 || s.OffsetLen() != 3 {
		t.Fatalf("unexpected length/offset: %d %d", s.Len(), s.OffsetLen())
	}
}

func TestPushMixedWidth(t *testing.T) {
	s := NewSequence[slot]()
	offsets := []int{}
	widths := []int{1, 3, 2, 2, 1, 3}
	for i, w := range widths {
		offsets = append(offsets, s.Push(slot{w, string(rune('a' + i))}))
	}
	want := []int{0, 1, 4, 6, 8, 9}
	for i, o := range want {
		if offsets[i] != o {
			t.Fatalf("entry %d: got offset %d want %d", i, offsets[i], o)
		}
	}
}

func TestGetOffset(t *testing.T) {
	s := NewSequence[slot]()
	s.Push(slot{1, "a"})
	s.Push(slot{2, "b"})
	s.Push(slot{1, "c"})

	if idx, v, res := s.GetOffset(0); res != ResultOK || idx != 0 || v.tag != "a" {
		t.Fatalf("offset 0: %v %v %v", idx, v, res)
	}
	if idx, _, res := s.GetOffset(1); res != ResultOK || idx != 1 {
		t.Fatalf("offset 1: %v %v", idx, res)
	}
	if _, _, res := s.GetOffset(2); res != ResultInvalidOffset {
		t.Fatalf("offset 2 (middle of wide entry): got %v", res)
	}
	if idx, v, res := s.GetOffset(3); res != ResultOK || idx != 2 || v.tag != "c" {
		t.Fatalf("offset 3: %v %v %v", idx, v, res)
	}
	if _, _, res := s.GetOffset(4); res != ResultTooLarge {
		t.Fatalf("offset 4 (too large): got %v", res)
	}
}

func TestSetOffsetIncompatibleWidth(t *testing.T) {
	s := NewSequence[slot]()
	s.Push(slot{1, "a"})
	s.Push(slot{2, "b"})

	if res := s.SetOffset(1, slot{1, "bb"}); res != ResultIncompatibleWidth {
		t.Fatalf("expected incompatible width, got %v", res)
	}
	if res := s.SetOffset(1, slot{2, "bb"}); res != ResultOK {
		t.Fatalf("expected OK, got %v", res)
	}
	if _, v, _ := s.GetOffset(1); v.tag != "bb" {
		t.Fatalf("replacement did not take effect: %v", v)
	}
}

func TestSetOffsetAppend(t *testing.T) {
	s := NewSequence[slot]()
	s.Push(slot{1, "a"})
	if res := s.SetOffset(1, slot{1, "b"}); res != ResultOK {
		t.Fatalf("append via SetOffset failed: %v", res)
	}
	if s.Len() != 2 {
		t.Fatalf("expected append, got len %d", s.Len())
	}
}

func TestStartingAt(t *testing.T) {
	s := NewSequenceStartingAt[slot](1)
	off := s.Push(slot{1, "a"})
	if off != 1 {
		t.Fatalf("expected first offset 1, got %d", off)
	}
	s.Clear()
	if s.OffsetLen() != 1 {
		t.Fatalf("clear should restore initial offset, got %d", s.OffsetLen())
	}
}

func TestTruncate(t *testing.T) {
	s := NewSequence[slot]()
	s.Push(slot{1, "a"})
	s.Push(slot{2, "b"})
	s.Push(slot{1, "c"})
	s.Truncate(1)
	if s.Len() != 1 || s.OffsetLen() != 1 {
		t.Fatalf("truncate(1): len=%d offsetLen=%d", s.Len(), s.OffsetLen())
	}
}

func TestPopRestoresOffset(t *testing.T) {
	s := NewSequence[slot]()
	s.Push(slot{1, "a"})
	s.Push(slot{2, "b"})
	off, idx, v, ok := s.Pop()
	if !ok || off != 1 || idx != 1 || v.tag != "b" {
		t.Fatalf("pop: off=%d idx=%d v=%v ok=%v", off, idx, v, ok)
	}
	if s.OffsetLen() != 1 {
		t.Fatalf("pop should restore offsetLen, got %d", s.OffsetLen())
	}
}

func TestAllOrder(t *testing.T) {
	s := NewSequence[slot]()
	s.Push(slot{1, "a"})
	s.Push(slot{2, "b"})
	entries := s.All()
	if len(entries) != 2 || entries[0].Offset != 0 || entries[1].Offset != 1 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
