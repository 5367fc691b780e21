package otbin

// Cursor is a bounds-checked view over an immutable byte buffer with a
// mutable read position. A Cursor never modifies its backing buffer and
// never reads beyond its scope; on any failure the position is left
// unchanged, so there is no partial consumption to undo.
//
// Child cursors created via SubScope are independent views into the
// same backing array. They are cheap and may be created freely while
// navigating offset graphs.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor wraps a byte buffer. The buffer is treated as immutable for
// the lifetime of the cursor and all of its children.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Remaining returns the number of unread bytes in the current scope.
func (c *Cursor) Remaining() int {
	return len(c.data) - c.pos
}

// Pos returns the read position, counted from the start of this
// cursor's scope (not from the start of any enclosing buffer).
func (c *Cursor) Pos() int {
	return c.pos
}

// AtEnd reports whether the scope is exhausted.
func (c *Cursor) AtEnd() bool {
	return c.pos >= len(c.data)
}

// Rest returns all unread bytes and advances to the end of the scope.
// The slice is a view into the backing buffer.
func (c *Cursor) Rest() []byte {
	b := c.data[c.pos:]
	c.pos = len(c.data)
	return b
}

// Unpack decodes one run of fields per the shape notation, advancing
// the cursor by the consumed byte count. If fewer bytes remain than the
// shape requires, ErrTruncatedInput is reported and the position stays
// put.
func (c *Cursor) Unpack(shape string) (Values, error) {
	vs, n, err := c.decode(shape)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return vs, nil
}

// Peek decodes like Unpack but does not advance. Formats branching on a
// discriminant field use this before deciding how much more to read.
func (c *Cursor) Peek(shape string) (Values, error) {
	vs, _, err := c.decode(shape)
	return vs, err
}

// Group decodes count repetitions of shape, advancing past all of them.
// Decoding is atomic: if the final repetition would be truncated, no
// bytes are consumed at all.
func (c *Cursor) Group(shape string, count int) ([]Values, error) {
	if count < 0 {
		return nil, outOfRange("negative group count %d", count)
	}
	fields, err := parseShape(shape)
	if err != nil {
		return nil, err
	}
	sz := shapeSize(fields)
	need := sz * count
	if c.Remaining() < need {
		return nil, truncated("group %dx%q needs %d bytes, %d remain",
			count, shape, need, c.Remaining())
	}
	group := make([]Values, count)
	p := c.pos
	for i := 0; i < count; i++ {
		vs := make(Values, len(fields))
		for j, f := range fields {
			vs[j] = decodeField(f, c.data[p:p+f.size])
			p += f.size
		}
		group[i] = vs
	}
	c.pos = p
	return group, nil
}

// Skip advances n bytes without decoding.
func (c *Cursor) Skip(n int) error {
	if n < 0 {
		return outOfRange("negative skip count %d", n)
	}
	if c.Remaining() < n {
		return truncated("skip of %d bytes, %d remain", n, c.Remaining())
	}
	c.pos += n
	return nil
}

// Align advances past padding so that the position is a multiple of
// multiple, counted from the start of the scope.
func (c *Cursor) Align(multiple int) error {
	if multiple < 1 {
		return outOfRange("bad alignment multiple %d", multiple)
	}
	excess := c.pos % multiple
	if excess == 0 {
		return nil
	}
	return c.Skip(multiple - excess)
}

// SubScope constructs a child cursor. If relative is false, offset is
// measured from the start of this cursor's scope (table-local offsets,
// the dominant pattern in font formats). If relative is true, offset is
// measured from the current position (length-prefixed inline records);
// the child's position zero then equals this cursor's position at
// creation time. A limit ≥ 0 caps the child's visible length even if
// the backing buffer continues; limit < 0 means "to the end of this
// scope". The parent's position is not changed.
func (c *Cursor) SubScope(offset int, relative bool, limit int) (*Cursor, error) {
	if offset < 0 {
		return nil, outOfRange("negative sub-scope offset %d", offset)
	}
	start := offset
	if relative {
		start += c.pos
	}
	if start > len(c.data) {
		return nil, outOfRange("sub-scope offset %d beyond scope of %d bytes",
			start, len(c.data))
	}
	end := len(c.data)
	if limit >= 0 {
		if start+limit > len(c.data) {
			return nil, outOfRange("sub-scope limit %d exceeds scope by %d bytes",
				limit, start+limit-len(c.data))
		}
		end = start + limit
	}
	tracer().Debugf("sub-scope [%d:%d] of %d-byte scope", start, end, len(c.data))
	return &Cursor{data: c.data[start:end]}, nil
}

func (c *Cursor) decode(shape string) (Values, int, error) {
	fields, err := parseShape(shape)
	if err != nil {
		return nil, 0, err
	}
	sz := shapeSize(fields)
	if c.Remaining() < sz {
		return nil, 0, truncated("shape %q needs %d bytes, %d remain",
			shape, sz, c.Remaining())
	}
	vs := make(Values, len(fields))
	p := c.pos
	for i, f := range fields {
		vs[i] = decodeField(f, c.data[p:p+f.size])
		p += f.size
	}
	return vs, sz, nil
}
