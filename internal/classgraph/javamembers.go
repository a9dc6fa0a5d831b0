package classgraph

import "github.com/wasm2jar/wasm2jar/internal/jvmname"

// JavaMembers caches the MethodData of every JDK method the translator and
// runtime helper generators call, so a call site can be built from a
// pointer lookup instead of re-resolving a name against a class every time.
//
// Registering a method here also registers it on the owning ClassData via
// AddMethod, so IsAssignable-style graph walks and the method table stay in
// sync with what call sites actually reference.
type JavaMembers struct {
	IntegerValueOf     *MethodData
	LongValueOf        *MethodData
	FloatValueOf       *MethodData
	DoubleValueOf      *MethodData
	NumberIntValue     *MethodData
	NumberLongValue    *MethodData
	NumberFloatValue   *MethodData
	NumberDoubleValue  *MethodData

	MathAbsInt    *MethodData
	MathAbsLong   *MethodData
	MathAbsFloat  *MethodData
	MathAbsDouble *MethodData
	MathMinInt    *MethodData
	MathMaxInt    *MethodData
	MathMinLong   *MethodData
	MathMaxLong   *MethodData
	MathMinFloat  *MethodData
	MathMaxFloat  *MethodData
	MathMinDouble *MethodData
	MathMaxDouble *MethodData
	MathSqrt      *MethodData
	MathCeil      *MethodData
	MathFloor     *MethodData
	MathRint      *MethodData
	MathCopySign  *MethodData
	MathCopySignFloat *MethodData

	IntegerBitCount               *MethodData
	IntegerNumberOfLeadingZeros    *MethodData
	IntegerNumberOfTrailingZeros   *MethodData
	IntegerRotateLeft              *MethodData
	IntegerRotateRight             *MethodData
	IntegerCompare                 *MethodData
	IntegerCompareUnsigned         *MethodData
	IntegerDivideUnsigned          *MethodData
	IntegerRemainderUnsigned       *MethodData
	LongBitCount                   *MethodData
	LongNumberOfLeadingZeros       *MethodData
	LongNumberOfTrailingZeros      *MethodData
	LongRotateLeft                 *MethodData
	LongRotateRight                *MethodData
	LongCompare                    *MethodData
	LongCompareUnsigned            *MethodData
	LongDivideUnsigned              *MethodData
	LongRemainderUnsigned           *MethodData
	LongToIntExact                  *MethodData

	ByteBufferAllocate *MethodData
	ByteBufferWrap     *MethodData
	ByteBufferOrder    *MethodData
	ByteBufferCapacity *MethodData
	ByteBufferGetInt    *MethodData
	ByteBufferPutInt    *MethodData
	ByteBufferGetLong   *MethodData
	ByteBufferPutLong   *MethodData
	ByteBufferGetFloat  *MethodData
	ByteBufferPutFloat  *MethodData
	ByteBufferGetDouble *MethodData
	ByteBufferPutDouble *MethodData
	ByteBufferGetByte   *MethodData
	ByteBufferPutByte   *MethodData
	ByteBufferGetShort  *MethodData
	ByteBufferPutShort  *MethodData

	ArraysFill    *MethodData
	ArraysCopyOf  *MethodData
	ArraysEquals  *MethodData

	// ArraysFillByteRange, ArraysFillObjectRange, ArraysCopyOfByte and
	// ByteBufferArray back the bulk memory/table instructions: they operate
	// directly on a linear memory's or table's backing array instead of the
	// element-at-a-time loop the JDK gives no bulk primitive for otherwise.
	ArraysFillByteRange   *MethodData
	ArraysFillObjectRange *MethodData
	ArraysCopyOfByte      *MethodData
	ByteBufferArray       *MethodData

	SystemArraycopy *MethodData

	// StringGetBytes is String.getBytes(String). Data segment generator
	// methods encode their bytes as string constants (one char per byte)
	// and decode them back through this, the only compact way to embed a
	// large byte blob in a class file without a per-byte store sequence.
	StringGetBytes *MethodData

	// ByteOrderLittleEndian is ByteOrder.LITTLE_ENDIAN, the static field every
	// translated memory's backing ByteBuffer is put into (WASM linear memory
	// is little-endian; ByteBuffer defaults to big-endian).
	ByteOrderLittleEndian *FieldData

	// MethodHandlesInsertArgs is MethodHandles.insertArguments. ref.func and
	// the table initializers that populate a funcref table both reach for
	// it: a defined function's raw handle (loaded via a CONSTANT_MethodHandle
	// pool entry, see emitFuncHandleExpr) always carries a trailing module-instance
	// parameter the wasm-level signature doesn't have, and insertArguments
	// binds that one argument to produce a handle invokeExact can call with
	// exactly the wasm-level argument list.
	MethodHandlesInsertArgs *MethodData

	// Float/Double bit-reinterpretation: i32.reinterpret_f32 and friends
	// have no JVM opcode equivalent (the JVM's narrowing/widening
	// conversions round a value, they never reinterpret its bit pattern),
	// so these four go through the boxed types' static bit-accessor pairs.
	FloatToRawIntBits   *MethodData
	FloatIntBitsToFloat *MethodData
	DoubleToRawLongBits *MethodData
	DoubleLongBitsToDouble *MethodData
}

// AddJavaMembers registers and caches the method table referenced above onto
// the classes in classes.
func AddJavaMembers(classes JavaClasses) JavaMembers {
	i32 := jvmname.Base(jvmname.Int)
	i64 := jvmname.Base(jvmname.Long)
	f32 := jvmname.Base(jvmname.Float)
	f64 := jvmname.Base(jvmname.Double)
	boolean := jvmname.Base(jvmname.Boolean)
	object := jvmname.Object(jvmname.Object_)

	register := func(c *ClassData, isStatic bool, name jvmname.UnqualifiedName, params []jvmname.FieldType, ret *jvmname.FieldType) *MethodData {
		c.AddMethod(isStatic, name, jvmname.NewMethodDescriptor(params, ret))
		return c.Methods[len(c.Methods)-1]
	}

	integer := classes.Lang.Integer
	long := classes.Lang.Long
	float := classes.Lang.Float
	double := classes.Lang.Double
	number := classes.Lang.Number
	math := classes.Lang.Math
	system := classes.Lang.System
	byteBuffer := classes.NIO.ByteBuffer
	byteOrder := classes.NIO.ByteOrder
	arrays := classes.Util.Arrays
	methodHandles := classes.Lang.Invoke.MethodHandles
	methodHandle := jvmname.Object(classes.Lang.Invoke.MethodHandle.Name)

	byteOrder.AddField(true, jvmname.LittleEndian, jvmname.Object(byteOrder.Name))
	littleEndianField := byteOrder.Fields[len(byteOrder.Fields)-1]

	return JavaMembers{
		IntegerValueOf:    register(integer, true, jvmname.ValueOf, []jvmname.FieldType{i32}, ptr(jvmname.Object(integer.Name))),
		LongValueOf:       register(long, true, jvmname.ValueOf, []jvmname.FieldType{i64}, ptr(jvmname.Object(long.Name))),
		FloatValueOf:      register(float, true, jvmname.ValueOf, []jvmname.FieldType{f32}, ptr(jvmname.Object(float.Name))),
		DoubleValueOf:     register(double, true, jvmname.ValueOf, []jvmname.FieldType{f64}, ptr(jvmname.Object(double.Name))),
		NumberIntValue:    register(number, false, jvmname.IntValue, nil, ptr(i32)),
		NumberLongValue:   register(number, false, jvmname.LongValue, nil, ptr(i64)),
		NumberFloatValue:  register(number, false, jvmname.FloatValue, nil, ptr(f32)),
		NumberDoubleValue: register(number, false, jvmname.DoubleValue, nil, ptr(f64)),

		MathAbsInt:    register(math, true, jvmname.Abs, []jvmname.FieldType{i32}, ptr(i32)),
		MathAbsLong:   register(math, true, jvmname.Abs, []jvmname.FieldType{i64}, ptr(i64)),
		MathAbsFloat:  register(math, true, jvmname.Abs, []jvmname.FieldType{f32}, ptr(f32)),
		MathAbsDouble: register(math, true, jvmname.Abs, []jvmname.FieldType{f64}, ptr(f64)),
		MathMinInt:    register(math, true, jvmname.Min, []jvmname.FieldType{i32, i32}, ptr(i32)),
		MathMaxInt:    register(math, true, jvmname.Max, []jvmname.FieldType{i32, i32}, ptr(i32)),
		MathMinLong:   register(math, true, jvmname.Min, []jvmname.FieldType{i64, i64}, ptr(i64)),
		MathMaxLong:   register(math, true, jvmname.Max, []jvmname.FieldType{i64, i64}, ptr(i64)),
		MathMinFloat:  register(math, true, jvmname.Min, []jvmname.FieldType{f32, f32}, ptr(f32)),
		MathMaxFloat:  register(math, true, jvmname.Max, []jvmname.FieldType{f32, f32}, ptr(f32)),
		MathMinDouble: register(math, true, jvmname.Min, []jvmname.FieldType{f64, f64}, ptr(f64)),
		MathMaxDouble: register(math, true, jvmname.Max, []jvmname.FieldType{f64, f64}, ptr(f64)),
		MathSqrt:      register(math, true, jvmname.Sqrt, []jvmname.FieldType{f64}, ptr(f64)),
		MathCeil:      register(math, true, jvmname.Ceil, []jvmname.FieldType{f64}, ptr(f64)),
		MathFloor:     register(math, true, jvmname.Floor, []jvmname.FieldType{f64}, ptr(f64)),
		MathRint:      register(math, true, jvmname.Rint, []jvmname.FieldType{f64}, ptr(f64)),
		MathCopySign:  register(math, true, jvmname.CopySign, []jvmname.FieldType{f64, f64}, ptr(f64)),
		MathCopySignFloat: register(math, true, jvmname.CopySign, []jvmname.FieldType{f32, f32}, ptr(f32)),

		IntegerBitCount:             register(integer, true, jvmname.BitCount, []jvmname.FieldType{i32}, ptr(i32)),
		IntegerNumberOfLeadingZeros:  register(integer, true, jvmname.NumberOfLeadingZeros, []jvmname.FieldType{i32}, ptr(i32)),
		IntegerNumberOfTrailingZeros: register(integer, true, jvmname.NumberOfTrailingZeros, []jvmname.FieldType{i32}, ptr(i32)),
		IntegerRotateLeft:            register(integer, true, jvmname.RotateLeft, []jvmname.FieldType{i32, i32}, ptr(i32)),
		IntegerRotateRight:           register(integer, true, jvmname.RotateRight, []jvmname.FieldType{i32, i32}, ptr(i32)),
		IntegerCompare:               register(integer, true, jvmname.Compare, []jvmname.FieldType{i32, i32}, ptr(i32)),
		IntegerCompareUnsigned:       register(integer, true, jvmname.CompareUnsigned, []jvmname.FieldType{i32, i32}, ptr(i32)),
		IntegerDivideUnsigned:        register(integer, true, jvmname.DivideUnsigned, []jvmname.FieldType{i32, i32}, ptr(i32)),
		IntegerRemainderUnsigned:     register(integer, true, jvmname.RemainderUnsigned, []jvmname.FieldType{i32, i32}, ptr(i32)),
		LongBitCount:                 register(long, true, jvmname.BitCount, []jvmname.FieldType{i64}, ptr(i32)),
		LongNumberOfLeadingZeros:     register(long, true, jvmname.NumberOfLeadingZeros, []jvmname.FieldType{i64}, ptr(i32)),
		LongNumberOfTrailingZeros:    register(long, true, jvmname.NumberOfTrailingZeros, []jvmname.FieldType{i64}, ptr(i32)),
		LongRotateLeft:               register(long, true, jvmname.RotateLeft, []jvmname.FieldType{i64, i32}, ptr(i64)),
		LongRotateRight:              register(long, true, jvmname.RotateRight, []jvmname.FieldType{i64, i32}, ptr(i64)),
		LongCompare:                  register(long, true, jvmname.Compare, []jvmname.FieldType{i64, i64}, ptr(i32)),
		LongCompareUnsigned:          register(long, true, jvmname.CompareUnsigned, []jvmname.FieldType{i64, i64}, ptr(i32)),
		LongDivideUnsigned:           register(long, true, jvmname.DivideUnsigned, []jvmname.FieldType{i64, i64}, ptr(i64)),
		LongRemainderUnsigned:        register(long, true, jvmname.RemainderUnsigned, []jvmname.FieldType{i64, i64}, ptr(i64)),
		LongToIntExact:               register(math, true, jvmname.ToIntExact, []jvmname.FieldType{i64}, ptr(i32)),

		ByteBufferAllocate: register(byteBuffer, true, jvmname.Allocate, []jvmname.FieldType{i32}, ptr(jvmname.Object(byteBuffer.Name))),
		ByteBufferWrap:     register(byteBuffer, true, jvmname.Wrap, []jvmname.FieldType{jvmname.Array(jvmname.Base(jvmname.Byte))}, ptr(jvmname.Object(byteBuffer.Name))),
		ByteBufferOrder:    register(byteBuffer, false, jvmname.Order, []jvmname.FieldType{jvmname.Object(byteOrder.Name)}, ptr(jvmname.Object(byteBuffer.Name))),
		ByteBufferCapacity: register(byteBuffer, false, jvmname.Capacity, nil, ptr(i32)),
		ByteBufferGetInt:    register(byteBuffer, false, jvmname.GetInt, []jvmname.FieldType{i32}, ptr(i32)),
		ByteBufferPutInt:    register(byteBuffer, false, jvmname.PutInt, []jvmname.FieldType{i32, i32}, ptr(jvmname.Object(byteBuffer.Name))),
		ByteBufferGetLong:   register(byteBuffer, false, jvmname.GetLong, []jvmname.FieldType{i32}, ptr(i64)),
		ByteBufferPutLong:   register(byteBuffer, false, jvmname.PutLong, []jvmname.FieldType{i32, i64}, ptr(jvmname.Object(byteBuffer.Name))),
		ByteBufferGetFloat:  register(byteBuffer, false, jvmname.GetFloat, []jvmname.FieldType{i32}, ptr(f32)),
		ByteBufferPutFloat:  register(byteBuffer, false, jvmname.PutFloat, []jvmname.FieldType{i32, f32}, ptr(jvmname.Object(byteBuffer.Name))),
		ByteBufferGetDouble: register(byteBuffer, false, jvmname.GetDouble, []jvmname.FieldType{i32}, ptr(f64)),
		ByteBufferPutDouble: register(byteBuffer, false, jvmname.PutDouble, []jvmname.FieldType{i32, f64}, ptr(jvmname.Object(byteBuffer.Name))),
		ByteBufferGetByte:   register(byteBuffer, false, jvmname.Get_, []jvmname.FieldType{i32}, ptr(jvmname.Base(jvmname.Byte))),
		ByteBufferPutByte:   register(byteBuffer, false, jvmname.Put_, []jvmname.FieldType{i32, jvmname.Base(jvmname.Byte)}, ptr(jvmname.Object(byteBuffer.Name))),
		ByteBufferGetShort:  register(byteBuffer, false, jvmname.GetShort, []jvmname.FieldType{i32}, ptr(jvmname.Base(jvmname.Short))),
		ByteBufferPutShort:  register(byteBuffer, false, jvmname.PutShort, []jvmname.FieldType{i32, jvmname.Base(jvmname.Short)}, ptr(jvmname.Object(byteBuffer.Name))),

		ArraysFill:   register(arrays, true, jvmname.Fill, []jvmname.FieldType{jvmname.Array(object), object}, nil),
		ArraysCopyOf: register(arrays, true, jvmname.CopyOf, []jvmname.FieldType{jvmname.Array(object), i32}, ptr(jvmname.Array(object))),
		ArraysEquals: register(arrays, true, jvmname.Equals, []jvmname.FieldType{jvmname.Array(object), jvmname.Array(object)}, ptr(boolean)),

		ArraysFillByteRange:   register(arrays, true, jvmname.Fill, []jvmname.FieldType{jvmname.Array(jvmname.Base(jvmname.Byte)), i32, i32, jvmname.Base(jvmname.Byte)}, nil),
		ArraysFillObjectRange: register(arrays, true, jvmname.Fill, []jvmname.FieldType{jvmname.Array(object), i32, i32, object}, nil),
		ArraysCopyOfByte:      register(arrays, true, jvmname.CopyOf, []jvmname.FieldType{jvmname.Array(jvmname.Base(jvmname.Byte)), i32}, ptr(jvmname.Array(jvmname.Base(jvmname.Byte)))),
		ByteBufferArray:       register(byteBuffer, false, jvmname.Array_, nil, ptr(jvmname.Array(jvmname.Base(jvmname.Byte)))),

		SystemArraycopy: register(system, true, jvmname.Arraycopy, []jvmname.FieldType{object, i32, object, i32, i32}, nil),

		StringGetBytes: register(classes.Lang.String, false, jvmname.GetBytes, []jvmname.FieldType{jvmname.Object(jvmname.String_)}, ptr(jvmname.Array(jvmname.Base(jvmname.Byte)))),

		ByteOrderLittleEndian: littleEndianField,

		MethodHandlesInsertArgs: register(methodHandles, true, jvmname.InsertArguments,
			[]jvmname.FieldType{methodHandle, i32, jvmname.Array(object)}, ptr(methodHandle)),

		FloatToRawIntBits:      register(float, true, jvmname.FloatToRawIntBits, []jvmname.FieldType{f32}, ptr(i32)),
		FloatIntBitsToFloat:    register(float, true, jvmname.IntBitsToFloat, []jvmname.FieldType{i32}, ptr(f32)),
		DoubleToRawLongBits:    register(double, true, jvmname.DoubleToRawLongBits, []jvmname.FieldType{f64}, ptr(i64)),
		DoubleLongBitsToDouble: register(double, true, jvmname.LongBitsToDouble, []jvmname.FieldType{i64}, ptr(f64)),
	}
}

func ptr(f jvmname.FieldType) *jvmname.FieldType { return &f }
