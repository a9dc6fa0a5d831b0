package jvmname

import "testing"

func TestUnqualifiedNameValidity(t *testing.T) {
	valid := []string{"foo", "Bar123", "<init>", "<clinit>", "_"}
	for _, name := range valid {
		if _, err := NewUnqualifiedName(name); err != nil {
			t.Errorf("expected %q to be valid, got %v", name, err)
		}
	}
	invalid := []string{"", "foo.bar", "foo;bar", "foo[bar", "foo/bar", "<other>"}
	for _, name := range invalid {
		if _, err := NewUnqualifiedName(name); err == nil {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}

func TestBinaryNameValidity(t *testing.T) {
	valid := []string{"Foo", "org/wasm2jar/Main", "java/lang/Object"}
	for _, name := range valid {
		if _, err := NewBinaryName(name); err != nil {
			t.Errorf("expected %q to be valid, got %v", name, err)
		}
	}
	invalid := []string{"", "org//wasm2jar", "org/wasm2jar.Main", "org/wasm2jar;Main"}
	for _, name := range invalid {
		if _, err := NewBinaryName(name); err == nil {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}

func TestJoin(t *testing.T) {
	name := Join([]string{"org", "wasm2jar"}, "Function")
	if name.String() != "org/wasm2jar/Function" {
		t.Fatalf("got %q", name.String())
	}
}
