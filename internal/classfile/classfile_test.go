package classfile

import (
	"testing"

	"github.com/wasm2jar/wasm2jar/internal/jvmname"
)

func TestBuildSimpleClass(t *testing.T) {
	builder, err := NewClassBuilder(
		jvmname.ClassPublic,
		jvmname.MustBinaryName("me/alec/Point"),
		jvmname.Object_,
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := builder.AddField(jvmname.FieldPublic, jvmname.MustUnqualifiedName("x"), jvmname.Base(jvmname.Int)); err != nil {
		t.Fatal(err)
	}
	if err := builder.AddField(jvmname.FieldPublic, jvmname.MustUnqualifiedName("y"), jvmname.Base(jvmname.Int)); err != nil {
		t.Fatal(err)
	}

	pool := builder.Constants()
	objectName, err := pool.UTF8("java/lang/Object")
	if err != nil {
		t.Fatal(err)
	}
	objectCls, err := pool.Class(objectName)
	if err != nil {
		t.Fatal(err)
	}
	initName, err := pool.UTF8("<init>")
	if err != nil {
		t.Fatal(err)
	}
	voidDesc, err := pool.UTF8("()V")
	if err != nil {
		t.Fatal(err)
	}
	nat, err := pool.NameAndType(initName, voidDesc)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pool.MethodRef(objectCls, nat, false); err != nil {
		t.Fatal(err)
	}

	code := []byte{
		0x2a,       // aload_0
		0xb7, 0, 0, // invokespecial (placeholder operand)
		0xb1, // return
	}
	codeAttr, err := NewCodeAttribute(pool, 1, 1, code, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	desc := jvmname.NewMethodDescriptor(nil, nil)
	if err := builder.AddMethod(jvmname.MethodPublic, jvmname.Init, desc, []Attribute{codeAttr}); err != nil {
		t.Fatal(err)
	}

	classFile := builder.Result()
	bytes, err := classFile.Write()
	if err != nil {
		t.Fatal(err)
	}
	if len(bytes) < 10 || bytes[0] != 0xCA || bytes[1] != 0xFE || bytes[2] != 0xBA || bytes[3] != 0xBE {
		t.Fatalf("expected CAFEBABE magic, got %v", bytes[:4])
	}
}

func TestClassBuilderInterfaces(t *testing.T) {
	_, err := NewClassBuilder(
		jvmname.ClassPublic|jvmname.ClassInterface|jvmname.ClassAbstract,
		jvmname.MustBinaryName("org/wasm2jar/Marker"),
		jvmname.Object_,
		[]jvmname.BinaryName{jvmname.Cloneable},
	)
	if err != nil {
		t.Fatal(err)
	}
}
