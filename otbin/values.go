package otbin

// Values is the result of decoding a shape: one entry per field, in
// field order. Integer entries carry the exact Go type for their tag
// (uint8 for 'B', int16 for 'h', …), raw runs are []byte views into the
// cursor's backing buffer. The typed accessors convert between integer
// widths, so callers reading e.g. a count do not have to care whether
// the format stores it as 'B' or 'H'.
type Values []interface{}

// Len returns the number of decoded fields.
func (vs Values) Len() int {
	return len(vs)
}

func (vs Values) uint(i int) uint64 {
	if i < 0 || i >= len(vs) {
		return 0
	}
	switch n := vs[i].(type) {
	case uint8:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case int8:
		return uint64(n)
	case int16:
		return uint64(n)
	case int32:
		return uint64(n)
	}
	return 0
}

func (vs Values) int(i int) int64 {
	if i < 0 || i >= len(vs) {
		return 0
	}
	switch n := vs[i].(type) {
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	}
	return 0
}

// U8 returns field i as an unsigned 8-bit value.
func (vs Values) U8(i int) uint8 { return uint8(vs.uint(i)) }

// I8 returns field i as a signed 8-bit value.
func (vs Values) I8(i int) int8 { return int8(vs.int(i)) }

// U16 returns field i as an unsigned 16-bit value.
func (vs Values) U16(i int) uint16 { return uint16(vs.uint(i)) }

// I16 returns field i as a signed 16-bit value.
func (vs Values) I16(i int) int16 { return int16(vs.int(i)) }

// U32 returns field i as an unsigned 32-bit value.
func (vs Values) U32(i int) uint32 { return uint32(vs.uint(i)) }

// I32 returns field i as a signed 32-bit value.
func (vs Values) I32(i int) int32 { return int32(vs.int(i)) }

// Bytes returns field i as a raw byte run. The slice is a view into the
// cursor's backing buffer and must not be modified.
func (vs Values) Bytes(i int) []byte {
	if i < 0 || i >= len(vs) {
		return nil
	}
	if b, ok := vs[i].([]byte); ok {
		return b
	}
	return nil
}
