package jvmname

import "testing"

func TestMethodDescriptorRender(t *testing.T) {
	i32 := Base(Int)
	d := NewMethodDescriptor([]FieldType{i32, i32}, &i32)
	if got := d.Render(); got != "(II)I" {
		t.Fatalf("got %q", got)
	}
	voidD := NewMethodDescriptor(nil, nil)
	if got := voidD.Render(); got != "()V" {
		t.Fatalf("got %q", got)
	}
}

func TestParseMethodDescriptor(t *testing.T) {
	d, err := ParseMethodDescriptor("(II)I")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(d.Parameters) != 2 || d.Return == nil || d.Return.Descriptor() != "I" {
		t.Fatalf("unexpected descriptor: %+v", d)
	}
	if d.Render() != "(II)I" {
		t.Fatalf("round trip failed: %q", d.Render())
	}

	voidD, err := ParseMethodDescriptor("()V")
	if err != nil || voidD.Return != nil {
		t.Fatalf("void descriptor: %+v %v", voidD, err)
	}
}

func TestMethodDescriptorParameterWidth(t *testing.T) {
	d := NewMethodDescriptor([]FieldType{Base(Int), Base(Long), Base(Double)}, nil)
	if w := d.ParameterWidth(); w != 5 {
		t.Fatalf("got width %d, want 5", w)
	}
}
