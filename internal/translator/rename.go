// Package translator walks a decoded WASM module (internal/wasm) and emits
// the JVM class files (internal/classfile, via internal/bytecode and
// internal/classgraph) implementing its semantics.
package translator

// Renamer maps a WASM export's unqualified name (function, table, or global)
// to the identifier used for the corresponding generated class member. WASM
// names are arbitrary UTF-8 and routinely contain characters Java identifiers
// can't, so every export name passes through one of these before it's used in
// a class file.
type Renamer interface {
	RenameFunction(name string) string
	RenameTable(name string) string
	RenameGlobal(name string) string
}

// IdentityRenamer passes every name through unchanged. Useful only when the
// caller already knows every export name is a legal Java identifier, or is
// emitting diagnostics rather than a class file.
type IdentityRenamer struct{}

func (IdentityRenamer) RenameFunction(name string) string { return name }
func (IdentityRenamer) RenameTable(name string) string    { return name }
func (IdentityRenamer) RenameGlobal(name string) string   { return name }

// JavaRenamer rewrites a name so it is always a legal Java identifier: every
// character outside [A-Za-z0-9] becomes '_', a leading digit is prefixed with
// '_', and a result colliding with a Java reserved word grows a trailing '_'
// until it no longer does. It does not deduplicate against names it has
// already handed out — two distinct inputs that sanitize to the same string
// produce the same output, same as the implementation it's ported from.
type JavaRenamer struct {
	reserved map[string]bool
}

// NewJavaRenamer returns a JavaRenamer pre-seeded with the reserved words a
// generated identifier must never collide with.
func NewJavaRenamer() *JavaRenamer {
	reserved := make(map[string]bool, len(reservedIdentifiers))
	for _, w := range reservedIdentifiers {
		reserved[w] = true
	}
	return &JavaRenamer{reserved: reserved}
}

// reservedIdentifiers are Java's keywords, literals, and other identifiers a
// renamed export must not collide with: the 50 reserved words of the Java
// Language Specification plus the contextual keywords and literals ("_",
// "true", "false", "null", "var", "yield", "record", "sealed") that are legal
// as identifiers in some grammar positions but not safe to hand out here.
var reservedIdentifiers = [58]string{
	"abstract", "continue", "for", "new", "switch",
	"assert", "default", "if", "package", "synchronized",
	"boolean", "do", "goto", "private", "this",
	"break", "double", "implements", "protected", "throw",
	"byte", "else", "import", "public", "throws",
	"case", "enum", "instanceof", "return", "transient",
	"catch", "extends", "int", "short", "try",
	"char", "final", "interface", "static", "void",
	"class", "finally", "long", "strictfp", "volatile",
	"const", "float", "native", "super", "while",
	"_", "true", "false", "null", "var", "yield", "record", "sealed",
}

func (r *JavaRenamer) rename(name string) string {
	buf := make([]byte, 0, len(name))
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			buf = append(buf, byte(c))
		case c >= '0' && c <= '9':
			if len(buf) == 0 {
				buf = append(buf, '_')
			}
			buf = append(buf, byte(c))
		default:
			buf = append(buf, '_')
		}
	}
	out := string(buf)
	for r.reserved[out] {
		out += "_"
	}
	return out
}

func (r *JavaRenamer) RenameFunction(name string) string { return r.rename(name) }
func (r *JavaRenamer) RenameTable(name string) string    { return r.rename(name) }
func (r *JavaRenamer) RenameGlobal(name string) string   { return r.rename(name) }
