package verify

import (
	"testing"

	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/classgraph"
	"github.com/wasm2jar/wasm2jar/internal/jvmname"
	"github.com/wasm2jar/wasm2jar/internal/label"
)

func TestFrameCloneIsIndependent(t *testing.T) {
	f := NewFrame([]Type{Integer()})
	f.Push(Long())
	clone := f.Clone()
	clone.Push(Double())
	if len(f.Stack) != 1 {
		t.Fatalf("expected original frame unaffected by clone mutation, got %d stack entries", len(f.Stack))
	}
	if len(clone.Stack) != 2 {
		t.Fatalf("expected clone to have 2 stack entries, got %d", len(clone.Stack))
	}
}

func TestUnifyIdenticalFrames(t *testing.T) {
	a := NewFrame([]Type{Integer(), Long()})
	a.Push(Float())
	b := a.Clone()
	joined, err := Unify(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if len(joined.Stack) != 1 || !joined.Stack[0].Equal(Float()) {
		t.Fatalf("unexpected joined frame: %+v", joined)
	}
}

func TestUnifyMismatchedLocalCountErrors(t *testing.T) {
	a := NewFrame([]Type{Integer()})
	b := NewFrame([]Type{Integer(), Long()})
	if _, err := Unify(a, b); err == nil {
		t.Fatal("expected error on mismatched local count")
	}
}

func TestUnifyJoinsToCommonSuperclass(t *testing.T) {
	g := classgraph.New()
	object := g.NewClass(mustName(t, "java/lang/Object"), nil, false)
	throwable := g.NewClass(mustName(t, "java/lang/Throwable"), object, false)
	exception := g.NewClass(mustName(t, "java/lang/Exception"), throwable, false)
	runtimeException := g.NewClass(mustName(t, "java/lang/RuntimeException"), exception, false)
	arithmeticException := g.NewClass(mustName(t, "java/lang/ArithmeticException"), runtimeException, false)
	illegalState := g.NewClass(mustName(t, "java/lang/IllegalStateException"), runtimeException, false)

	a := NewFrame(nil)
	a.Push(Object(arithmeticException))
	b := NewFrame(nil)
	b.Push(Object(illegalState))

	joined, err := Unify(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !joined.Stack[0].Equal(Object(runtimeException)) {
		t.Fatalf("expected join to land on RuntimeException, got %v", joined.Stack[0])
	}
}

func TestBuildStackMapTableSameLocalsNoStack(t *testing.T) {
	pool := classfile.NewConstantPool()
	frames := []OffsetFrame{
		{Offset: 0, Frame: NewFrame([]Type{Integer()})},
		{Offset: 5, Frame: NewFrame([]Type{Integer()})},
	}
	table, err := BuildStackMapTable(pool, nil, frames, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(table))
	}
}

func TestBuildStackMapTableAppendFrame(t *testing.T) {
	pool := classfile.NewConstantPool()
	frames := []OffsetFrame{
		{Offset: 0, Frame: NewFrame([]Type{Integer()})},
		{Offset: 3, Frame: NewFrame([]Type{Integer(), Long()})},
	}
	table, err := BuildStackMapTable(pool, nil, frames, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(table))
	}
}

func TestBuildStackMapTableResolvesUninitialized(t *testing.T) {
	pool := classfile.NewConstantPool()
	gen := label.NewGenerator()
	block := gen.Fresh()
	ref := UninitializedRef{Block: block, OffsetInBlock: 2}
	frame := NewFrame(nil)
	frame.Push(Uninitialized(ref))

	offsets := map[label.Label]int{block: 10}
	table, err := BuildStackMapTable(pool, nil, []OffsetFrame{{Offset: 0, Frame: frame}}, offsets)
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(table))
	}
}

func mustName(t *testing.T, s string) jvmname.BinaryName {
	t.Helper()
	return jvmname.MustBinaryName(s)
}
