package jvmname

import "fmt"

// MethodDescriptor is an ordered list of parameter field types plus an
// optional return field type (absent means void).
type MethodDescriptor struct {
	Parameters []FieldType
	Return     *FieldType
}

// NewMethodDescriptor builds a descriptor from parameters and an optional
// return type (nil for void).
func NewMethodDescriptor(parameters []FieldType, ret *FieldType) MethodDescriptor {
	return MethodDescriptor{Parameters: parameters, Return: ret}
}

// Render produces the JVM method descriptor string, e.g. "(II)I" or
// "(Ljava/lang/String;)V".
func (d MethodDescriptor) Render() string {
	s := "("
	for _, p := range d.Parameters {
		s += p.Descriptor()
	}
	s += ")"
	if d.Return != nil {
		s += d.Return.Descriptor()
	} else {
		s += "V"
	}
	return s
}

// ParameterWidth returns the total local-variable slot width consumed by
// the parameters (used to size the entry frame of a method body).
func (d MethodDescriptor) ParameterWidth() int {
	w := 0
	for _, p := range d.Parameters {
		w += p.Width()
	}
	return w
}

// ParseMethodDescriptor parses a full JVM method descriptor string.
func ParseMethodDescriptor(s string) (MethodDescriptor, error) {
	if len(s) == 0 || s[0] != '(' {
		return MethodDescriptor{}, fmt.Errorf("method descriptor %q: must start with '('", s)
	}
	rest := s[1:]
	var params []FieldType
	for len(rest) > 0 && rest[0] != ')' {
		var ft FieldType
		var err error
		ft, rest, err = ParseFieldType(rest)
		if err != nil {
			return MethodDescriptor{}, fmt.Errorf("method descriptor %q: %w", s, err)
		}
		params = append(params, ft)
	}
	if len(rest) == 0 {
		return MethodDescriptor{}, fmt.Errorf("method descriptor %q: missing ')'", s)
	}
	rest = rest[1:] // consume ')'
	if rest == "V" {
		return MethodDescriptor{Parameters: params}, nil
	}
	ret, rest, err := ParseFieldType(rest)
	if err != nil {
		return MethodDescriptor{}, fmt.Errorf("method descriptor %q: %w", s, err)
	}
	if rest != "" {
		return MethodDescriptor{}, fmt.Errorf("method descriptor %q: trailing garbage %q", s, rest)
	}
	return MethodDescriptor{Parameters: params, Return: &ret}, nil
}
