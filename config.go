package wasm2jar

import "github.com/wasm2jar/wasm2jar/internal/translator"

// Config controls how a module is compiled. It is immutable: every With*
// method returns a fresh copy, so a baseline Config can be shared and
// specialized freely.
//
//	cfg := wasm2jar.NewConfig().
//		WithClassNamePrefix("com/example/mymodule").
//		WithMainClassName("MyModule")
type Config = translator.Config

// Renamer maps WASM export names onto JVM identifiers; see
// Config.WithRenamer.
type Renamer = translator.Renamer

// NewConfig returns the default configuration: the WASM 2.0 baseline
// (core MVP plus reference_types, multi_value, bulk_memory), classes
// generated under org/wasm2jar/generated with main class "Module", and
// part-class limits that keep every generated class inside the JVM's
// structural ceilings.
func NewConfig() Config {
	return translator.NewConfig()
}
