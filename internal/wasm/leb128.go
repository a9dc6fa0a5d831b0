package wasm

import "fmt"

// decodeUint32 reads an unsigned LEB128 value up to 32 bits from b starting
// at off, returning the value, the number of bytes consumed, and an error
// if the encoding overruns the buffer or the value does not fit in 32 bits.
func decodeUint32(b []byte, off int) (uint32, int, error) {
	var result uint32
	var shift uint
	for i := 0; ; i++ {
		if i >= 5 {
			return 0, 0, fmt.Errorf("invalid u32: overflow")
		}
		if off+i >= len(b) {
			return 0, 0, fmt.Errorf("invalid u32: unexpected end of input")
		}
		c := b[off+i]
		result |= uint32(c&0x7f) << shift
		if c&0x80 == 0 {
			if shift > 0 && c>>(32-shift) != 0 {
				return 0, 0, fmt.Errorf("invalid u32: overflow")
			}
			return result, i + 1, nil
		}
		shift += 7
	}
}

// decodeUint64 is decodeUint32's 64-bit counterpart.
func decodeUint64(b []byte, off int) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := 0; ; i++ {
		if i >= 10 {
			return 0, 0, fmt.Errorf("invalid u64: overflow")
		}
		if off+i >= len(b) {
			return 0, 0, fmt.Errorf("invalid u64: unexpected end of input")
		}
		c := b[off+i]
		result |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
}

// decodeInt32 reads a signed LEB128 value up to 32 bits.
func decodeInt32(b []byte, off int) (int32, int, error) {
	var result int64
	var shift uint
	var c byte
	i := 0
	for {
		if i >= 5 {
			return 0, 0, fmt.Errorf("invalid i32: overflow")
		}
		if off+i >= len(b) {
			return 0, 0, fmt.Errorf("invalid i32: unexpected end of input")
		}
		c = b[off+i]
		result |= int64(c&0x7f) << shift
		shift += 7
		i++
		if c&0x80 == 0 {
			break
		}
	}
	if shift < 32 && c&0x40 != 0 {
		result |= -1 << shift
	}
	if result < -(1<<31) || result > (1<<31)-1 {
		return 0, 0, fmt.Errorf("invalid i32: overflow")
	}
	return int32(result), i, nil
}

// decodeInt33 reads a signed LEB128 value up to 33 bits, used only for the
// typeidx-valued encoding of a block's BlockType.
func decodeInt33(b []byte, off int) (int64, int, error) {
	var result int64
	var shift uint
	var c byte
	i := 0
	for {
		if i >= 5 {
			return 0, 0, fmt.Errorf("invalid block type: overflow")
		}
		if off+i >= len(b) {
			return 0, 0, fmt.Errorf("invalid block type: unexpected end of input")
		}
		c = b[off+i]
		result |= int64(c&0x7f) << shift
		shift += 7
		i++
		if c&0x80 == 0 {
			break
		}
	}
	if shift < 33 && c&0x40 != 0 {
		result |= -1 << shift
	}
	return result, i, nil
}

// decodeInt64 reads a signed LEB128 value up to 64 bits.
func decodeInt64(b []byte, off int) (int64, int, error) {
	var result int64
	var shift uint
	var c byte
	i := 0
	for {
		if i >= 10 {
			return 0, 0, fmt.Errorf("invalid i64: overflow")
		}
		if off+i >= len(b) {
			return 0, 0, fmt.Errorf("invalid i64: unexpected end of input")
		}
		c = b[off+i]
		if shift < 64 {
			result |= int64(c&0x7f) << shift
		}
		shift += 7
		i++
		if c&0x80 == 0 {
			break
		}
	}
	if shift < 64 && c&0x40 != 0 {
		result |= -1 << shift
	}
	return result, i, nil
}
