package classgraph

import (
	"testing"

	"github.com/wasm2jar/wasm2jar/internal/jvmname"
)

func TestAddClassAndLookup(t *testing.T) {
	g := New()
	object := g.NewClass(jvmname.Object_, nil, false)
	if _, ok := g.Lookup(jvmname.Object_); !ok {
		t.Fatal("expected to find java/lang/Object")
	}
	child := g.NewClass(jvmname.MustBinaryName("org/wasm2jar/Thing"), object, false)
	if child.Superclass != object {
		t.Fatal("expected superclass to be Object")
	}
}

func TestIsAssignableSuperclassChain(t *testing.T) {
	g := New()
	object := g.NewClass(jvmname.Object_, nil, false)
	throwable := g.NewClass(jvmname.Throwable, object, false)
	exception := g.NewClass(jvmname.Exception, throwable, false)
	runtimeException := g.NewClass(jvmname.RuntimeException, exception, false)

	if !IsAssignable(runtimeException, object) {
		t.Fatal("RuntimeException should be assignable to Object")
	}
	if !IsAssignable(runtimeException, exception) {
		t.Fatal("RuntimeException should be assignable to Exception")
	}
	if IsAssignable(exception, runtimeException) {
		t.Fatal("Exception should not be assignable to RuntimeException")
	}
}

func TestIsAssignableThroughInterfaces(t *testing.T) {
	g := New()
	object := g.NewClass(jvmname.Object_, nil, false)
	cloneable := g.NewClass(jvmname.Cloneable, object, true)
	arr := g.NewClass(jvmname.MustBinaryName("org/wasm2jar/ArrayLike"), object, false)
	arr.Interfaces = append(arr.Interfaces, cloneable)

	if !IsAssignable(arr, cloneable) {
		t.Fatal("expected ArrayLike to be assignable to Cloneable")
	}
}

func TestAddFieldAndMethodLookup(t *testing.T) {
	g := New()
	object := g.NewClass(jvmname.Object_, nil, false)
	class := g.NewClass(jvmname.MustBinaryName("org/wasm2jar/Point"), object, false)
	class.AddField(false, jvmname.MustUnqualifiedName("x"), jvmname.Base(jvmname.Int))

	field, ok := class.FindField(jvmname.MustUnqualifiedName("x"))
	if !ok || field.Descriptor.Descriptor() != "I" {
		t.Fatalf("expected field x of type I, got %+v ok=%v", field, ok)
	}
	if _, ok := class.FindField(jvmname.MustUnqualifiedName("y")); ok {
		t.Fatal("did not expect to find field y")
	}
}

func TestAddJavaClassesWiresHierarchy(t *testing.T) {
	g := New()
	classes := AddJavaClasses(g)

	if !IsAssignable(classes.Lang.Integer, classes.Lang.Number) {
		t.Fatal("Integer should extend Number")
	}
	if !IsAssignable(classes.Lang.ArithmeticException, classes.Lang.RuntimeException) {
		t.Fatal("ArithmeticException should extend RuntimeException")
	}
	if !IsAssignable(classes.Lang.String, classes.Lang.CharSequence) {
		t.Fatal("String should implement CharSequence")
	}
	if !IsAssignable(classes.Util.HashMap, classes.Util.Map) {
		t.Fatal("HashMap should implement Map")
	}
}

func TestAddJavaMembersRegistersOnClasses(t *testing.T) {
	g := New()
	classes := AddJavaClasses(g)
	members := AddJavaMembers(classes)

	if members.IntegerValueOf == nil {
		t.Fatal("expected IntegerValueOf to be populated")
	}
	if _, ok := classes.Lang.Integer.FindMethod(jvmname.ValueOf); !ok {
		t.Fatal("expected Integer.valueOf to be registered on the class node")
	}
}
