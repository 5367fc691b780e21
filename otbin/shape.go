package otbin

// The shape mini-language shared by Cursor and Writer. A shape string is
// tokenized into a sequence of fixed-width fields; both sides must agree
// on it byte for byte, so tokenization lives in one place.

type field struct {
	code byte // one of B b H h L l s
	size int  // byte size of the field; for 's' the run length
}

func intFieldSize(code byte) int {
	switch code {
	case 'B', 'b':
		return 1
	case 'H', 'h':
		return 2
	case 'L', 'l':
		return 4
	}
	return 0
}

// parseShape tokenizes a shape string into its fields. Repeat prefixes
// for integer tags are expanded, i.e. "2H" yields two fields.
func parseShape(shape string) ([]field, error) {
	if shape == "" {
		return nil, badShape("empty shape")
	}
	fields := make([]field, 0, len(shape))
	i := 0
	for i < len(shape) {
		count := 0
		hasCount := false
		for i < len(shape) && shape[i] >= '0' && shape[i] <= '9' {
			count = count*10 + int(shape[i]-'0')
			hasCount = true
			i++
		}
		if i == len(shape) {
			return nil, badShape("shape %q ends in a dangling count", shape)
		}
		code := shape[i]
		i++
		if code == 's' {
			if !hasCount {
				count = 1
			}
			if count < 1 {
				return nil, badShape("shape %q has zero-length byte run", shape)
			}
			fields = append(fields, field{code: 's', size: count})
			continue
		}
		sz := intFieldSize(code)
		if sz == 0 {
			return nil, badShape("shape %q has unknown tag %q", shape, string(code))
		}
		if !hasCount {
			count = 1
		}
		if count < 1 {
			return nil, badShape("shape %q has zero repeat count", shape)
		}
		for k := 0; k < count; k++ {
			fields = append(fields, field{code: code, size: sz})
		}
	}
	return fields, nil
}

func shapeSize(fields []field) int {
	n := 0
	for _, f := range fields {
		n += f.size
	}
	return n
}

// ShapeSize returns the total byte size of the fields described by a
// shape string.
func ShapeSize(shape string) (int, error) {
	fields, err := parseShape(shape)
	if err != nil {
		return 0, err
	}
	return shapeSize(fields), nil
}

// decodeField interprets the first f.size bytes of b, which the caller
// has bounds-checked.
func decodeField(f field, b []byte) interface{} {
	switch f.code {
	case 'B':
		return b[0]
	case 'b':
		return int8(b[0])
	case 'H':
		return uint16(b[0])<<8 | uint16(b[1])
	case 'h':
		return int16(uint16(b[0])<<8 | uint16(b[1]))
	case 'L':
		return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	case 'l':
		return int32(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
	}
	return b[:f.size]
}

// fieldRange returns the value bounds for an integer field.
func fieldRange(f field) (min, max int64) {
	bits := uint(8 * f.size)
	switch f.code {
	case 'b', 'h', 'l':
		return -(int64(1) << (bits - 1)), int64(1)<<(bits-1) - 1
	}
	return 0, int64(1)<<bits - 1
}

// putField appends the big-endian encoding of v to buf. v must already
// be range-checked against f.
func putField(buf []byte, f field, v int64) []byte {
	u := uint64(v) // two's complement for negatives
	switch f.size {
	case 1:
		return append(buf, byte(u))
	case 2:
		return append(buf, byte(u>>8), byte(u))
	case 4:
		return append(buf, byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
	}
	return buf
}

// patchField overwrites len bytes at buf[at:] with the encoding of v.
func patchField(buf []byte, at int, f field, v int64) {
	u := uint64(v)
	switch f.size {
	case 1:
		buf[at] = byte(u)
	case 2:
		buf[at] = byte(u >> 8)
		buf[at+1] = byte(u)
	case 4:
		buf[at] = byte(u >> 24)
		buf[at+1] = byte(u >> 16)
		buf[at+2] = byte(u >> 8)
		buf[at+3] = byte(u)
	}
}

// singleIntField parses a shape expected to denote exactly one integer
// field, as used for offset and deferred-value placeholders.
func singleIntField(shape string) (field, error) {
	fields, err := parseShape(shape)
	if err != nil {
		return field{}, err
	}
	if len(fields) != 1 || fields[0].code == 's' {
		return field{}, badShape("shape %q: want a single integer field", shape)
	}
	return fields[0], nil
}
