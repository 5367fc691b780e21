package otbin

// Writer builds the binary form of a font table through one forward
// pass over the object graph being serialized. Offsets referring to
// positions that are not yet known are written as placeholders anchored
// to stakes; Finalize patches them once the complete layout is fixed.
// This is the two-pass write-then-link scheme every offset-bearing font
// structure needs, hoisted out of the individual formats.
//
// All mutating operations are O(1) appends or handle bookkeeping;
// relocation arithmetic happens only inside Finalize.
//
// A Writer is created per top-level serialization task, filled by a
// single depth-first traversal, finalized once, and not reused.

// Stake is a handle to a byte position in the writer's output. It is
// either bound at creation (StakeCurrent) or bound later (NewStake
// followed by BindStake). Every stake must be bound exactly once before
// Finalize.
type Stake int

// DeferredValue is a handle to a placeholder field whose value is
// supplied explicitly via SetDeferredValue, rather than derived from
// stake positions. Typical use: a length field only known after its
// payload has been written.
type DeferredValue int

type stakeInfo struct {
	pos      int
	bound    bool
	override bool // pos is a caller-supplied value, not a buffer position
}

type offsetLink struct {
	at       int // patch position within buf
	f        field
	from, to Stake
	negOK    bool
	divisor  int
	delta    int // bytes added to the resolved distance
}

type deferredField struct {
	at  int
	f   field
	set bool
}

// Writer is an append-only byte sequence builder with stakes,
// unresolved offsets and deferred values. The zero value is not usable;
// call NewWriter.
type Writer struct {
	buf      []byte
	stakes   []stakeInfo
	links    []offsetLink
	deferred []deferredField
}

// NewWriter creates an empty Writer. Output is big-endian throughout,
// as all font binary formats are.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

// Len returns the number of bytes appended so far, placeholders
// included.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Write appends fields per the shape notation. The number of values
// must match the number of fields in the shape; integer values may be
// given as any Go integer type and are range-checked against their
// field width (an overflow is an error, never a silent truncation).
// Raw-run fields take a []byte or string of exactly the run length.
func (w *Writer) Write(shape string, values ...interface{}) error {
	fields, err := parseShape(shape)
	if err != nil {
		return err
	}
	if len(values) != len(fields) {
		return misuse(ErrValueRange, "shape %q has %d fields, %d values given",
			shape, len(fields), len(values))
	}
	// validate everything before appending anything
	for i, f := range fields {
		if f.code == 's' {
			b, err := rawRun(values[i])
			if err != nil {
				return err
			}
			if len(b) != f.size {
				return misuse(ErrValueRange, "byte run of %d bytes for %ds field",
					len(b), f.size)
			}
			continue
		}
		n, err := intValue(values[i])
		if err != nil {
			return err
		}
		if min, max := fieldRange(f); n < min || n > max {
			return misuse(ErrValueRange, "value %d does not fit field %q", n, string(f.code))
		}
	}
	for i, f := range fields {
		if f.code == 's' {
			b, _ := rawRun(values[i])
			w.buf = append(w.buf, b...)
			continue
		}
		n, _ := intValue(values[i])
		w.buf = putField(w.buf, f, n)
	}
	return nil
}

// WriteRaw appends a pre-built byte run, e.g. the finalized output of a
// nested writer.
func (w *Writer) WriteRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

// NewStake creates a stake whose position will be bound later via
// BindStake.
func (w *Writer) NewStake() Stake {
	w.stakes = append(w.stakes, stakeInfo{})
	return Stake(len(w.stakes) - 1)
}

// StakeCurrent creates a stake bound to the current output position.
func (w *Writer) StakeCurrent() Stake {
	w.stakes = append(w.stakes, stakeInfo{pos: len(w.buf), bound: true})
	return Stake(len(w.stakes) - 1)
}

// StakeCurrentWithValue creates a bound stake whose position value is
// overridden with a caller-supplied number. Formats use this when their
// notion of "position zero" is not the writer's start, e.g. offsets
// counted from an enclosing table.
func (w *Writer) StakeCurrentWithValue(value int) Stake {
	w.stakes = append(w.stakes, stakeInfo{pos: value, bound: true, override: true})
	return Stake(len(w.stakes) - 1)
}

// BindStake binds a previously created, still unbound stake to the
// current output position. Binding a stake twice is a misuse error.
func (w *Writer) BindStake(s Stake) error {
	if int(s) < 0 || int(s) >= len(w.stakes) {
		return misuse(ErrUnboundStake, "unknown stake %d", s)
	}
	if w.stakes[s].bound {
		return misuse(ErrUnboundStake, "stake %d bound twice", s)
	}
	w.stakes[s].pos = len(w.buf)
	w.stakes[s].bound = true
	return nil
}

// Bound reports whether a stake has been bound to a position. Pool
// emission loops use this to skip entries already emitted on behalf of
// a sibling structure sharing the pool.
func (w *Writer) Bound(s Stake) bool {
	if int(s) < 0 || int(s) >= len(w.stakes) {
		return false
	}
	return w.stakes[s].bound
}

// OffsetOption modifies how a single unresolved offset resolves.
type OffsetOption func(*offsetConfig)

type offsetConfig struct {
	negOK   bool
	divisor int
	delta   int
}

// NegOK permits the resolved offset to be negative; it is then encoded
// in two's complement within the field width.
func NegOK() OffsetOption {
	return func(cfg *offsetConfig) { cfg.negOK = true }
}

// Divisor stores the resolved distance divided by n, for formats whose
// offsets count words or longwords instead of bytes. The distance must
// divide evenly or Finalize reports ErrMisalignedOffset.
func Divisor(n int) OffsetOption {
	return func(cfg *offsetConfig) { cfg.divisor = n }
}

// ByteDelta adds n bytes to the resolved distance before encoding, for
// formats whose offsets are anchored a fixed distance away from the
// staked position.
func ByteDelta(n int) OffsetOption {
	return func(cfg *offsetConfig) { cfg.delta = n }
}

// AddUnresolvedOffset reserves a placeholder integer field of the width
// given by tag (a single-field shape such as "H" or "L"), to be patched
// during Finalize with position(target) − position(base). Any number of
// unresolved offsets may share one target stake; shared substructures
// are referenced this way.
func (w *Writer) AddUnresolvedOffset(tag string, base, target Stake, opts ...OffsetOption) error {
	f, err := singleIntField(tag)
	if err != nil {
		return err
	}
	if int(base) < 0 || int(base) >= len(w.stakes) {
		return misuse(ErrUnboundStake, "unknown base stake %d", base)
	}
	if int(target) < 0 || int(target) >= len(w.stakes) {
		return misuse(ErrUnboundStake, "unknown target stake %d", target)
	}
	cfg := offsetConfig{divisor: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.divisor < 1 {
		return misuse(ErrValueRange, "offset divisor %d", cfg.divisor)
	}
	w.links = append(w.links, offsetLink{
		at:      len(w.buf),
		f:       f,
		from:    base,
		to:      target,
		negOK:   cfg.negOK,
		divisor: cfg.divisor,
		delta:   cfg.delta,
	})
	w.buf = putField(w.buf, f, 0)
	return nil
}

// DeferredValue reserves a placeholder field of the width given by tag
// and returns a handle for SetDeferredValue. The value must be supplied
// before Finalize.
func (w *Writer) DeferredValue(tag string) (DeferredValue, error) {
	f, err := singleIntField(tag)
	if err != nil {
		return 0, err
	}
	w.deferred = append(w.deferred, deferredField{at: len(w.buf), f: f})
	w.buf = putField(w.buf, f, 0)
	return DeferredValue(len(w.deferred) - 1), nil
}

// SetDeferredValue supplies the value for a placeholder reserved via
// DeferredValue. Setting again overwrites the earlier value.
func (w *Writer) SetDeferredValue(d DeferredValue, value int64) error {
	if int(d) < 0 || int(d) >= len(w.deferred) {
		return misuse(ErrUnsetDeferredValue, "unknown deferred value %d", d)
	}
	df := &w.deferred[d]
	if min, max := fieldRange(df.f); value < min || value > max {
		return misuse(ErrValueRange, "deferred value %d does not fit field %q",
			value, string(df.f.code))
	}
	patchField(w.buf, df.at, df.f, value)
	df.set = true
	return nil
}

// Align pads with zero bytes until the current length is a multiple of
// multiple.
func (w *Writer) Align(multiple int) {
	if multiple < 2 {
		return
	}
	for len(w.buf)%multiple != 0 {
		w.buf = append(w.buf, 0)
	}
}

// Finalize resolves all unresolved offsets and produces the byte
// string. It fails with ErrUnboundStake or ErrUnsetDeferredValue if any
// handle created was never resolved (a bug in the calling format code,
// not a data problem), and with ErrNegativeOffset,
// ErrMisalignedOffset or ErrOffsetOverflow if an offset cannot be
// represented in its field. The writer is not to be reused afterwards.
func (w *Writer) Finalize() ([]byte, error) {
	for i, st := range w.stakes {
		if !st.bound {
			return nil, misuse(ErrUnboundStake, "stake %d created but never bound", i)
		}
	}
	for i, df := range w.deferred {
		if !df.set {
			return nil, misuse(ErrUnsetDeferredValue, "deferred value %d never set", i)
		}
	}
	for _, ln := range w.links {
		d := w.stakes[ln.to].pos - w.stakes[ln.from].pos + ln.delta
		if ln.divisor != 1 {
			if d%ln.divisor != 0 {
				return nil, misuse(ErrMisalignedOffset,
					"offset %d not divisible by %d", d, ln.divisor)
			}
			d /= ln.divisor
		}
		if d < 0 && !ln.negOK {
			return nil, misuse(ErrNegativeOffset, "offset resolves to %d", d)
		}
		min, max := int64(0), int64(1)<<uint(8*ln.f.size)-1
		if ln.negOK {
			min = -(int64(1) << uint(8*ln.f.size-1))
		}
		if int64(d) < min || int64(d) > max {
			return nil, misuse(ErrOffsetOverflow,
				"offset %d does not fit field %q", d, string(ln.f.code))
		}
		patchField(w.buf, ln.at, ln.f, int64(d))
	}
	tracer().Debugf("finalized %d bytes, %d links, %d stakes",
		len(w.buf), len(w.links), len(w.stakes))
	return w.buf, nil
}

func intValue(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	}
	return 0, misuse(ErrValueRange, "value %v (%T) is not an integer", v, v)
}

func rawRun(v interface{}) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	return nil, misuse(ErrValueRange, "value %v (%T) is not a byte run", v, v)
}
