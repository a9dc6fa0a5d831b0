package classfile

import "testing"

func TestInternDeduplicates(t *testing.T) {
	p := NewConstantPool()
	a, err := p.UTF8("hello")
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.UTF8("hello")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("expected same index for duplicate UTF8, got %d and %d", a, b)
	}
	if p.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", p.Len())
	}
}

func TestInternWideEntriesConsumeTwoSlots(t *testing.T) {
	p := NewConstantPool()
	first, err := p.Long(42)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Integer(1)
	if err != nil {
		t.Fatal(err)
	}
	if second != first+2 {
		t.Fatalf("expected long to consume two slots: first=%d second=%d", first, second)
	}
}

func TestFloatNaNInterningIsStable(t *testing.T) {
	p := NewConstantPool()
	nan := float32(0.0)
	nan = nan / nan
	a, err := p.Float(nan)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Float(nan)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("expected identical NaN bit patterns to intern to the same index")
	}
}

func TestMethodRefSelectsInterfaceTag(t *testing.T) {
	p := NewConstantPool()
	class, _ := p.ClassByName("java/util/List")
	name, _ := p.UTF8("size")
	desc, _ := p.UTF8("()I")
	nat, _ := p.NameAndType(name, desc)
	idx, err := p.MethodRef(class, nat, true)
	if err != nil {
		t.Fatal(err)
	}
	_, c, ok := p.entries.GetIndex(int(idx) - 1)
	if !ok || c.tag != tagInterfaceMethodref {
		t.Fatalf("expected interface methodref tag")
	}
}

func TestConstantPoolOverflow(t *testing.T) {
	p := NewConstantPool()
	for i := 0; p.Len() < maxConstantPoolIndex-1; i++ {
		if _, err := p.Integer(int32(i)); err != nil {
			t.Fatal(err)
		}
	}
	// One narrow slot remains: a wide entry must overflow, a narrow one fit.
	if _, err := p.Long(1); err == nil {
		t.Fatalf("expected overflow error for wide entry at boundary")
	}
	if _, err := p.Integer(-1); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Integer(-2); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestSerializeRoundTripShape(t *testing.T) {
	p := NewConstantPool()
	idx, err := p.UTF8("org/wasm2jar/Main")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Class(idx); err != nil {
		t.Fatal(err)
	}
	e := NewEncoder()
	if err := p.serialize(e); err != nil {
		t.Fatal(err)
	}
	if e.Err() != nil {
		t.Fatal(e.Err())
	}
	if len(e.Bytes()) == 0 {
		t.Fatalf("expected non-empty serialization")
	}
}
