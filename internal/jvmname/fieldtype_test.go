package jvmname

import "testing"

func TestFieldTypeDescriptors(t *testing.T) {
	cases := []struct {
		ft   FieldType
		want string
	}{
		{Base(Int), "I"},
		{Base(Long), "J"},
		{Base(Boolean), "Z"},
		{Object(Object_), "Ljava/lang/Object;"},
		{Array(Base(Double)), "[D"},
		{Array(Array(Base(Int))), "[[I"},
	}
	for _, c := range cases {
		if got := c.ft.Descriptor(); got != c.want {
			t.Errorf("Descriptor() = %q, want %q", got, c.want)
		}
	}
}

func TestFieldTypeWidth(t *testing.T) {
	if Base(Long).Width() != 2 {
		t.Fatalf("long should be width 2")
	}
	if Base(Double).Width() != 2 {
		t.Fatalf("double should be width 2")
	}
	if Base(Int).Width() != 1 {
		t.Fatalf("int should be width 1")
	}
	if Object(Object_).Width() != 1 {
		t.Fatalf("object ref should be width 1")
	}
}

func TestParseFieldTypeRoundTrip(t *testing.T) {
	descs := []string{"I", "J", "D", "Z", "Ljava/lang/String;", "[I", "[[Ljava/lang/Object;"}
	for _, d := range descs {
		ft, rest, err := ParseFieldType(d)
		if err != nil {
			t.Fatalf("parse %q: %v", d, err)
		}
		if rest != "" {
			t.Fatalf("parse %q: leftover %q", d, rest)
		}
		if got := ft.Descriptor(); got != d {
			t.Errorf("round trip %q -> %q", d, got)
		}
	}
}

func TestParseFieldTypeErrors(t *testing.T) {
	bad := []string{"", "Q", "Lunterminated"}
	for _, d := range bad {
		if _, _, err := ParseFieldType(d); err == nil {
			t.Errorf("expected error for %q", d)
		}
	}
}
