package verify

import (
	"fmt"

	"github.com/wasm2jar/wasm2jar/internal/classfile"
	"github.com/wasm2jar/wasm2jar/internal/label"
)

// OffsetFrame pairs a frame with the absolute bytecode offset it applies
// from — one entry per jump target the bytecode builder recorded.
type OffsetFrame struct {
	Offset int
	Frame  Frame
}

// BuildStackMapTable differentially encodes an ordered sequence of frames
// (sorted by Offset; every entry is written out, including one at Offset 0,
// whose offset_delta is then 0) into the
// class file's compact StackMapTable representation, picking the narrowest
// frame kind each transition allows. initialLocals is the implicit frame
// the JVM derives from the method descriptor's parameter types, against
// which the first explicit entry (if any) is diffed. blockOffsets resolves
// the labels backing any still-uninitialized ("new" without a matching
// <init> yet) verification types to their final absolute bytecode offsets.
func BuildStackMapTable(pool *classfile.ConstantPool, initialLocals []Type, frames []OffsetFrame, blockOffsets map[label.Label]int) ([]classfile.StackMapFrame, error) {
	if len(frames) == 0 {
		return nil, nil
	}

	result := make([]classfile.StackMapFrame, 0, len(frames))
	prevOffset := -1
	prevLocals := initialLocals

	for i, of := range frames {
		delta := of.Offset - prevOffset - 1
		if i == 0 {
			delta = of.Offset
		}
		if delta < 0 {
			return nil, fmt.Errorf("verify: frame offsets out of order at index %d (offset %d)", i, of.Offset)
		}

		frame, err := encodeFrame(pool, delta, prevLocals, of.Frame, blockOffsets)
		if err != nil {
			return nil, fmt.Errorf("verify: frame at offset %d: %w", of.Offset, err)
		}
		result = append(result, frame)

		prevOffset = of.Offset
		prevLocals = of.Frame.Locals
	}
	return result, nil
}

func encodeFrame(pool *classfile.ConstantPool, delta int, prevLocals []Type, frame Frame, blockOffsets map[label.Label]int) (classfile.StackMapFrame, error) {
	localsMatch := len(prevLocals) == len(frame.Locals)
	if localsMatch {
		for i := range prevLocals {
			if !prevLocals[i].Equal(frame.Locals[i]) {
				localsMatch = false
				break
			}
		}
	}

	if localsMatch {
		switch len(frame.Stack) {
		case 0:
			return classfile.SameLocalsNoStackFrame(uint16(delta)), nil
		case 1:
			v, err := resolve(pool, frame.Stack[0], blockOffsets)
			if err != nil {
				return classfile.StackMapFrame{}, err
			}
			return classfile.SameLocalsOneStackFrame(uint16(delta), v), nil
		}
	}

	commonPrefix := 0
	for commonPrefix < len(prevLocals) && commonPrefix < len(frame.Locals) && prevLocals[commonPrefix].Equal(frame.Locals[commonPrefix]) {
		commonPrefix++
	}

	if len(frame.Stack) == 0 && commonPrefix == len(prevLocals) && len(frame.Locals) > len(prevLocals) {
		appended := frame.Locals[len(prevLocals):]
		if len(appended) <= 3 {
			vs, err := resolveAll(pool, appended, blockOffsets)
			if err != nil {
				return classfile.StackMapFrame{}, err
			}
			return classfile.AppendFrame(uint16(delta), vs), nil
		}
	}

	if len(frame.Stack) == 0 && commonPrefix == len(frame.Locals) && len(prevLocals) > len(frame.Locals) {
		choppedK := len(prevLocals) - len(frame.Locals)
		if choppedK <= 3 {
			return classfile.ChoppedFrame(uint16(delta), uint8(choppedK)), nil
		}
	}

	locals, err := resolveAll(pool, frame.Locals, blockOffsets)
	if err != nil {
		return classfile.StackMapFrame{}, err
	}
	stack, err := resolveAll(pool, frame.Stack, blockOffsets)
	if err != nil {
		return classfile.StackMapFrame{}, err
	}
	return classfile.FullFrame(uint16(delta), locals, stack), nil
}

func resolveAll(pool *classfile.ConstantPool, types []Type, blockOffsets map[label.Label]int) ([]classfile.VerificationType, error) {
	out := make([]classfile.VerificationType, len(types))
	for i, t := range types {
		v, err := resolve(pool, t, blockOffsets)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func resolve(pool *classfile.ConstantPool, t Type, blockOffsets map[label.Label]int) (classfile.VerificationType, error) {
	switch t.kind {
	case KindTop:
		return classfile.VTypeTop(), nil
	case KindInteger:
		return classfile.VTypeInteger(), nil
	case KindFloat:
		return classfile.VTypeFloat(), nil
	case KindDouble:
		return classfile.VTypeDouble(), nil
	case KindLong:
		return classfile.VTypeLong(), nil
	case KindNull:
		return classfile.VTypeNull(), nil
	case KindUninitializedThis:
		return classfile.VTypeUninitializedThis(), nil
	case KindObject:
		idx, err := pool.ClassByName(t.class.Name.String())
		if err != nil {
			return classfile.VerificationType{}, err
		}
		return classfile.VTypeObject(idx), nil
	case KindArray:
		idx, err := pool.ClassByName(t.arrayDescriptor())
		if err != nil {
			return classfile.VerificationType{}, err
		}
		return classfile.VTypeObject(idx), nil
	case KindUninitialized:
		absolute, ok := blockOffsets[t.uninit.Block]
		if !ok {
			return classfile.VerificationType{}, fmt.Errorf("verify: no resolved offset for label %s", t.uninit.Block)
		}
		return classfile.VTypeUninitialized(uint16(absolute + t.uninit.OffsetInBlock)), nil
	default:
		return classfile.VerificationType{}, fmt.Errorf("verify: unresolvable verification type kind %d", t.kind)
	}
}

// arrayDescriptor renders the array's own JVM field descriptor (e.g.
// "[I", "[[Ljava/lang/Object;"), which is also a legal class name for
// CONSTANT_Class_info — the class file format represents array types in
// the constant pool the same way it represents their descriptors.
func (t Type) arrayDescriptor() string {
	switch t.kind {
	case KindInteger:
		return "I"
	case KindFloat:
		return "F"
	case KindDouble:
		return "D"
	case KindLong:
		return "J"
	case KindArray:
		return "[" + t.arrayElem.arrayDescriptor()
	case KindObject:
		return "L" + t.class.Name.String() + ";"
	default:
		return "Ljava/lang/Object;"
	}
}
