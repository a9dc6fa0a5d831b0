package jvmname

// Binary names of JDK classes referenced directly by code generation.
var (
	Object_             = MustBinaryName("java/lang/Object")
	String_             = MustBinaryName("java/lang/String")
	CharSequence        = MustBinaryName("java/lang/CharSequence")
	Cloneable           = MustBinaryName("java/lang/Cloneable")
	Class               = MustBinaryName("java/lang/Class")
	Number              = MustBinaryName("java/lang/Number")
	Integer             = MustBinaryName("java/lang/Integer")
	Long_               = MustBinaryName("java/lang/Long")
	Float_              = MustBinaryName("java/lang/Float")
	Double_             = MustBinaryName("java/lang/Double")
	Math_               = MustBinaryName("java/lang/Math")
	Throwable           = MustBinaryName("java/lang/Throwable")
	Exception           = MustBinaryName("java/lang/Exception")
	RuntimeException    = MustBinaryName("java/lang/RuntimeException")
	ArithmeticException = MustBinaryName("java/lang/ArithmeticException")
	Error_              = MustBinaryName("java/lang/Error")
	AssertionError      = MustBinaryName("java/lang/AssertionError")
	Serializable        = MustBinaryName("java/io/Serializable")
	MethodHandle        = MustBinaryName("java/lang/invoke/MethodHandle")
	MethodHandleLookup  = MustBinaryName("java/lang/invoke/MethodHandles$Lookup")
	MethodType          = MustBinaryName("java/lang/invoke/MethodType")
	CallSite            = MustBinaryName("java/lang/invoke/CallSite")
	ByteBuffer          = MustBinaryName("java/nio/ByteBuffer")
	ByteOrder           = MustBinaryName("java/nio/ByteOrder")
	Arrays              = MustBinaryName("java/util/Arrays")
	Map_                = MustBinaryName("java/util/Map")
	HashMap             = MustBinaryName("java/util/HashMap")
)

// Unqualified names of JDK methods referenced directly by code generation,
// plus the names of helper methods the translator generates on demand.
var (
	Init_             = Init
	Clinit_           = Clinit
	Abs               = MustUnqualifiedName("abs")
	BitCount          = MustUnqualifiedName("bitCount")
	ByteValue         = MustUnqualifiedName("byteValue")
	Ceil              = MustUnqualifiedName("ceil")
	Compare           = MustUnqualifiedName("compare")
	CompareUnsigned   = MustUnqualifiedName("compareUnsigned")
	CopyOf            = MustUnqualifiedName("copyOf")
	CopySign          = MustUnqualifiedName("copySign")
	DivideUnsigned    = MustUnqualifiedName("divideUnsigned")
	RemainderUnsigned = MustUnqualifiedName("remainderUnsigned")
	Equals            = MustUnqualifiedName("equals")
	Fill              = MustUnqualifiedName("fill")
	Floor             = MustUnqualifiedName("floor")
	GetBytes          = MustUnqualifiedName("getBytes")
	HashCode          = MustUnqualifiedName("hashCode")
	IntValue          = MustUnqualifiedName("intValue")
	Length            = MustUnqualifiedName("length")
	LongValue         = MustUnqualifiedName("longValue")
	FloatValue        = MustUnqualifiedName("floatValue")
	DoubleValue       = MustUnqualifiedName("doubleValue")
	Max               = MustUnqualifiedName("max")
	Min               = MustUnqualifiedName("min")
	NumberOfLeadingZeros  = MustUnqualifiedName("numberOfLeadingZeros")
	NumberOfTrailingZeros = MustUnqualifiedName("numberOfTrailingZeros")
	Rint              = MustUnqualifiedName("rint")
	RotateLeft        = MustUnqualifiedName("rotateLeft")
	RotateRight       = MustUnqualifiedName("rotateRight")
	Sqrt              = MustUnqualifiedName("sqrt")
	ToIntExact        = MustUnqualifiedName("toIntExact")
	ValueOf           = MustUnqualifiedName("valueOf")
	Allocate          = MustUnqualifiedName("allocate")
	Wrap              = MustUnqualifiedName("wrap")
	Order             = MustUnqualifiedName("order")
	Arraycopy         = MustUnqualifiedName("arraycopy")
	InvokeExact       = MustUnqualifiedName("invokeExact")
	GetInt            = MustUnqualifiedName("getInt")
	PutInt            = MustUnqualifiedName("putInt")
	GetLong           = MustUnqualifiedName("getLong")
	PutLong           = MustUnqualifiedName("putLong")
	GetFloat          = MustUnqualifiedName("getFloat")
	PutFloat          = MustUnqualifiedName("putFloat")
	GetDouble         = MustUnqualifiedName("getDouble")
	PutDouble         = MustUnqualifiedName("putDouble")
	Get_              = MustUnqualifiedName("get")
	Put_              = MustUnqualifiedName("put")
	GetShort          = MustUnqualifiedName("getShort")
	PutShort          = MustUnqualifiedName("putShort")
	Capacity          = MustUnqualifiedName("capacity")
	Array_            = MustUnqualifiedName("array")
	LittleEndian      = MustUnqualifiedName("LITTLE_ENDIAN")
	InsertArguments   = MustUnqualifiedName("insertArguments")
	FloatToRawIntBits    = MustUnqualifiedName("floatToRawIntBits")
	IntBitsToFloat       = MustUnqualifiedName("intBitsToFloat")
	DoubleToRawLongBits  = MustUnqualifiedName("doubleToRawLongBits")
	LongBitsToDouble     = MustUnqualifiedName("longBitsToDouble")

	// Names we generate for numeric helper methods, one per wasm2jar
	// instance. See internal/translator's numeric helper generation.
	I32DivS          = MustUnqualifiedName("i32DivS")
	I64DivS          = MustUnqualifiedName("i64DivS")
	F32Abs           = MustUnqualifiedName("f32Abs")
	F64Abs           = MustUnqualifiedName("f64Abs")
	F32Trunc         = MustUnqualifiedName("f32Trunc")
	F64Trunc         = MustUnqualifiedName("f64Trunc")
	Unreachable      = MustUnqualifiedName("unreachable")
	I32TruncF32S     = MustUnqualifiedName("i32TruncF32S")
	I32TruncF32U     = MustUnqualifiedName("i32TruncF32U")
	I32TruncF64S     = MustUnqualifiedName("i32TruncF64S")
	I32TruncF64U     = MustUnqualifiedName("i32TruncF64U")
	I64ExtendI32U    = MustUnqualifiedName("i64ExtendI32U")
	I64TruncF32S     = MustUnqualifiedName("i64TruncF32S")
	I64TruncF32U     = MustUnqualifiedName("i64TruncF32U")
	I64TruncF64S     = MustUnqualifiedName("i64TruncF64S")
	I64TruncF64U     = MustUnqualifiedName("i64TruncF64U")
	F32ConvertI32U   = MustUnqualifiedName("f32ConvertI32U")
	F32ConvertI64U   = MustUnqualifiedName("f32ConvertI64U")
	F64ConvertI32U   = MustUnqualifiedName("f64ConvertI32U")
	F64ConvertI64U   = MustUnqualifiedName("f64ConvertI64U")
	I32TruncSatF32U  = MustUnqualifiedName("i32TruncSatF32U")
	I32TruncSatF64U  = MustUnqualifiedName("i32TruncSatF64U")
	I64TruncSatF32U  = MustUnqualifiedName("i64TruncSatF32U")
	I64TruncSatF64U  = MustUnqualifiedName("i64TruncSatF64U")
	I32TruncSatF32S  = MustUnqualifiedName("i32TruncSatF32S")
	I32TruncSatF64S  = MustUnqualifiedName("i32TruncSatF64S")
	I64TruncSatF32S  = MustUnqualifiedName("i64TruncSatF32S")
	I64TruncSatF64S  = MustUnqualifiedName("i64TruncSatF64S")
	FuncrefTableBootstrap   = MustUnqualifiedName("funcrefTableBootstrap")
	ExternrefTableBootstrap = MustUnqualifiedName("externrefTableBootstrap")
	Trap                    = MustUnqualifiedName("trap")
)
