// Package wasm2jar compiles WebAssembly binary modules ahead-of-time into
// JVM class files. The compiled main class exposes one public method per
// function export, one getter per memory/table/global export, and a
// constructor taking one argument per import (a MethodHandle for a function
// import, a runtime wrapper for any other kind); generated code runs
// on any Java 11+ virtual machine with no interpreter or support library
// beyond the five small org/wasm2jar wrapper classes emitted alongside it.
//
//	compiled, err := wasm2jar.Compile(wasm2jar.NewConfig(), wasmBytes)
//	if err != nil { ... }
//	err = wasm2jar.WriteClasses(compiled, "out/classes")
package wasm2jar

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"

	"github.com/wasm2jar/wasm2jar/internal/translator"
)

// CompiledModule is the result of one successful compilation: the main
// class's binary name plus every produced class file, in deterministic
// order. Identical input bytes and Config always produce byte-identical
// class files.
type CompiledModule = translator.CompiledModule

// CompiledClass is one finished class file, named by its binary name
// (e.g. "org/wasm2jar/generated/Module$Part0").
type CompiledClass = translator.CompiledClass

// Compile translates one WASM binary module into JVM class files.
func Compile(config Config, wasmBytes []byte) (*CompiledModule, error) {
	return translator.Translate(config, wasmBytes)
}

// WriteClasses writes every class file under dir, creating the package
// directory tree ("org/wasm2jar/generated/Module.class" and so on).
func WriteClasses(m *CompiledModule, dir string) error {
	for _, c := range m.Classes {
		path := filepath.Join(dir, filepath.FromSlash(c.Name)+".class")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return translator.IoError{Err: err}
		}
		if err := os.WriteFile(path, c.Bytes, 0o644); err != nil {
			return translator.IoError{Err: err}
		}
	}
	return nil
}

// WriteJar packages every class file into a jar (zip) archive written to
// w. Entries appear in the module's deterministic class order, with
// timestamps zeroed so equal inputs produce equal archives.
func WriteJar(m *CompiledModule, w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, c := range m.Classes {
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:   c.Name + ".class",
			Method: zip.Deflate,
		})
		if err != nil {
			return translator.IoError{Err: err}
		}
		if _, err := entry.Write(c.Bytes); err != nil {
			return translator.IoError{Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return translator.IoError{Err: err}
	}
	return nil
}
