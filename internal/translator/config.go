package translator

// Config controls how a module is translated, with the default
// implementation as NewConfig. It follows a clone-then-mutate pattern:
// every With* method returns a new Config rather than mutating the
// receiver, so a Config can be shared and further specialized from a
// single baseline without the branches stepping on each other.
type Config struct {
	featureReferenceTypes bool
	featureMultiValue     bool
	featureBulkMemory     bool
	featureSIMD           bool
	featureThreads        bool
	featureTailCall       bool
	featureExceptions     bool
	featureMemory64       bool
	featureModuleLinking  bool
	featureMultiMemory    bool

	// maxPartConstants and maxPartCodeBytes bound how much a single
	// generated "Part" class is allowed to hold before translation opens
	// a new one. Both exist because either the constant pool or the
	// 64KiB method-code ceiling can be the first limit a large module
	// hits, depending on how constant-heavy or instruction-heavy its
	// functions are.
	maxPartConstants int
	maxPartCodeBytes int

	classNamePrefix string
	mainClassName   string

	renamer Renamer
}

// defaultConfig holds every default value in one place so NewConfig can't
// drift from it by a copy-paste mistake in some other constructor.
var defaultConfig = Config{
	featureReferenceTypes: true,
	featureMultiValue:     true,
	featureBulkMemory:     true,
	featureSIMD:           false,
	featureThreads:        false,
	featureTailCall:       false,
	featureExceptions:     false,
	featureMemory64:       false,
	featureModuleLinking:  false,
	featureMultiMemory:    false,

	maxPartConstants: 60000,
	maxPartCodeBytes: 60000,

	classNamePrefix: "org/wasm2jar/generated",
	mainClassName:   "Module",

	renamer: NewJavaRenamer(),
}

// qualifiedName joins the configured package prefix with a simple class
// name, degrading to the bare name when no prefix is configured (a
// default-package class is legal at the class file level).
func (c Config) qualifiedName(simple string) string {
	if c.classNamePrefix == "" {
		return simple
	}
	return c.classNamePrefix + "/" + simple
}

// NewConfig returns the default Config: the WASM 2.0 baseline features
// (reference_types, multi_value, bulk_memory) enabled, every later
// proposal (simd, threads, tail_call, exceptions, memory64,
// module_linking, multi_memory) disabled, since this translator's code
// generator has no lowering for any of them yet.
func NewConfig() Config {
	return defaultConfig
}

// clone ensures all fields are copied even though Config itself holds no
// pointers that would otherwise alias between the two copies.
func (c Config) clone() Config {
	return c
}

// WithFeatureReferenceTypes toggles funcref/externref, table.get/set, and
// the reference-typed forms of select.
func (c Config) WithFeatureReferenceTypes(enabled bool) Config {
	ret := c.clone()
	ret.featureReferenceTypes = enabled
	return ret
}

// WithFeatureMultiValue toggles block/function signatures with more than
// one result, which changes how this translator packs a call's return
// values (see the multi-value result packing discussion in funcbody.go).
func (c Config) WithFeatureMultiValue(enabled bool) Config {
	ret := c.clone()
	ret.featureMultiValue = enabled
	return ret
}

// WithFeatureBulkMemory toggles memory.copy/fill/init, data.drop, and the
// table.copy/init/fill family.
func (c Config) WithFeatureBulkMemory(enabled bool) Config {
	ret := c.clone()
	ret.featureBulkMemory = enabled
	return ret
}

// WithFeatureSIMD toggles the v128 value type and its instruction family.
// There is no lowering for it in this translator; enabling it only changes
// how early an UnsupportedFeatureError surfaces.
func (c Config) WithFeatureSIMD(enabled bool) Config {
	ret := c.clone()
	ret.featureSIMD = enabled
	return ret
}

// WithFeatureThreads toggles shared memories and the atomic instruction
// family. Unsupported; see WithFeatureSIMD.
func (c Config) WithFeatureThreads(enabled bool) Config {
	ret := c.clone()
	ret.featureThreads = enabled
	return ret
}

// WithFeatureTailCall toggles return_call/return_call_indirect. Unsupported.
func (c Config) WithFeatureTailCall(enabled bool) Config {
	ret := c.clone()
	ret.featureTailCall = enabled
	return ret
}

// WithFeatureExceptions toggles the exception-handling proposal's
// try/catch/throw instructions. Unsupported.
func (c Config) WithFeatureExceptions(enabled bool) Config {
	ret := c.clone()
	ret.featureExceptions = enabled
	return ret
}

// WithFeatureMemory64 toggles 64-bit memory indices. Unsupported.
func (c Config) WithFeatureMemory64(enabled bool) Config {
	ret := c.clone()
	ret.featureMemory64 = enabled
	return ret
}

// WithFeatureModuleLinking toggles the module-linking proposal. Unsupported.
func (c Config) WithFeatureModuleLinking(enabled bool) Config {
	ret := c.clone()
	ret.featureModuleLinking = enabled
	return ret
}

// WithFeatureMultiMemory toggles more than one memory per module.
// Unsupported: this translator always allocates a single memory field.
func (c Config) WithFeatureMultiMemory(enabled bool) Config {
	ret := c.clone()
	ret.featureMultiMemory = enabled
	return ret
}

// WithMaxPartConstants overrides the constant pool entry count at which
// the module translator closes the current Part class and opens another.
func (c Config) WithMaxPartConstants(max int) Config {
	ret := c.clone()
	ret.maxPartConstants = max
	return ret
}

// WithMaxPartCodeBytes overrides the accumulated method-code byte count at
// which the module translator closes the current Part class and opens
// another.
func (c Config) WithMaxPartCodeBytes(max int) Config {
	ret := c.clone()
	ret.maxPartCodeBytes = max
	return ret
}

// WithClassNamePrefix sets the binary-name package prefix every generated
// class (main class and parts) is placed under, e.g.
// "com/example/mymodule".
func (c Config) WithClassNamePrefix(prefix string) Config {
	ret := c.clone()
	ret.classNamePrefix = prefix
	return ret
}

// WithMainClassName sets the simple name of the module's main class, the
// one callers instantiate and whose public methods are the module's
// exports.
func (c Config) WithMainClassName(name string) Config {
	ret := c.clone()
	ret.mainClassName = name
	return ret
}

// WithRenamer overrides how WASM names (function, table, and global export
// names) are turned into JVM identifiers. Defaults to NewJavaRenamer.
func (c Config) WithRenamer(r Renamer) Config {
	ret := c.clone()
	ret.renamer = r
	return ret
}
