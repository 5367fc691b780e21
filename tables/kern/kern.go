/*
Package kern reads and writes the OpenType 'kern' table, version 0,
with format-0 subtables (ordered pair kerning). Pairs live in an
ordered map keyed by the packed (left, right) glyph pair, so emission
order is deterministic no matter in which order callers add pairs, and
lookup is by value, not by scanning.

The subtable length field demonstrates the deferred-value mechanism: it
precedes the pair payload in the byte stream but is only known after
the payload has been written. Reading demonstrates relative,
length-limited sub-scopes: each subtable is parsed inside a child
cursor capped to the subtable's declared length, so a corrupt subtable
cannot bleed into its successor.
*/
package kern

import (
	"fmt"
	"math/bits"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/npillmayer/otforge/core"
	"github.com/npillmayer/otforge/diag"
	"github.com/npillmayer/otforge/otbin"
	"github.com/npillmayer/otforge/tables"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'otforge.tables'
func tracer() tracing.Trace {
	return tracing.Select("otforge.tables")
}

// Coverage flags of a kern subtable (low byte of the coverage field;
// the high byte carries the subtable format).
const (
	Horizontal  uint16 = 0x0001
	Minimum     uint16 = 0x0002
	CrossStream uint16 = 0x0004
	Override    uint16 = 0x0008
)

const pairRecordSize = 6 // left H, right H, value h

// Table is a decoded kern table (version 0).
type Table struct {
	Subtables []*Subtable
}

// Subtable is a format-0 kern subtable: an ordered list of glyph pairs
// with FUnit kerning values.
type Subtable struct {
	coverage uint16
	pairs    *treemap.Map // packed uint32 pair -> int16
}

// NewSubtable creates an empty format-0 subtable with the given
// coverage flags (Horizontal etc.; the format byte is supplied by the
// writer).
func NewSubtable(coverage uint16) *Subtable {
	return &Subtable{
		coverage: coverage & 0x00FF,
		pairs:    treemap.NewWith(utils.UInt32Comparator),
	}
}

// Coverage returns the coverage flags (low byte only).
func (st *Subtable) Coverage() uint16 {
	return st.coverage
}

// IsHorizontal reports whether the subtable holds horizontal kerning.
func (st *Subtable) IsHorizontal() bool {
	return st.coverage&Horizontal != 0
}

func pairKey(left, right uint16) uint32 {
	return uint32(left)<<16 | uint32(right)
}

// SetPair sets the kerning value for a glyph pair, replacing an
// existing entry.
func (st *Subtable) SetPair(left, right uint16, value int16) {
	st.pairs.Put(pairKey(left, right), value)
}

// Pair looks up the kerning value for a glyph pair.
func (st *Subtable) Pair(left, right uint16) (int16, bool) {
	v, ok := st.pairs.Get(pairKey(left, right))
	if !ok {
		return 0, false
	}
	return v.(int16), true
}

// NumPairs returns the number of pairs.
func (st *Subtable) NumPairs() int {
	return st.pairs.Size()
}

// EachPair calls f for every pair in ascending (left, right) order.
func (st *Subtable) EachPair(f func(left, right uint16, value int16)) {
	st.pairs.Each(func(key, value interface{}) {
		k := key.(uint32)
		f(uint16(k>>16), uint16(k), value.(int16))
	})
}

// bsh returns the binary-search header fields for n pair records:
// searchRange, entrySelector, rangeShift.
func bsh(n int) (uint16, uint16, uint16) {
	if n == 0 {
		return 0, 0, 0
	}
	sel := bits.Len(uint(n)) - 1
	pow2 := 1 << uint(sel)
	return uint16(pow2 * pairRecordSize), uint16(sel),
		uint16((n - pow2) * pairRecordSize)
}

// Write serializes the table: version-0 header, then each subtable with
// its length field deferred until the pair payload is in place.
func (t *Table) Write(w *otbin.Writer, ctx *tables.Context) error {
	if err := w.Write("2H", 0, len(t.Subtables)); err != nil {
		return err
	}
	for _, st := range t.Subtables {
		start := w.Len()
		if err := w.Write("H", 0); err != nil { // subtable version
			return err
		}
		length, err := w.DeferredValue("H")
		if err != nil {
			return err
		}
		n := st.NumPairs()
		sr, es, rs := bsh(n)
		if err := w.Write("5H", st.coverage, n, sr, es, rs); err != nil {
			return err
		}
		var werr error
		st.EachPair(func(left, right uint16, value int16) {
			if werr == nil {
				werr = w.Write("2Hh", left, right, value)
			}
		})
		if werr != nil {
			return werr
		}
		if err := w.SetDeferredValue(length, int64(w.Len()-start)); err != nil {
			return err
		}
	}
	tracer().Debugf("kern: wrote %d subtables", len(t.Subtables))
	return nil
}

var _ tables.Codec = &Table{}

// Read decodes a kern table, failing fast on the first structural
// problem, including subtable formats other than 0.
func Read(c *otbin.Cursor) (*Table, error) {
	hd, err := c.Unpack("2H")
	if err != nil {
		return nil, err
	}
	if hd.U16(0) != 0 {
		return nil, core.Error(core.EINVALID, "kern table version %d not supported", hd.U16(0))
	}
	t := &Table{}
	for i := 0; i < int(hd.U16(1)); i++ {
		head, err := c.Peek("2H")
		if err != nil {
			return nil, err
		}
		length := int(head.U16(1))
		if length < 14 {
			return nil, core.Error(core.EINVALID, "kern subtable %d declares length %d", i, length)
		}
		sub, err := c.SubScope(0, true, length)
		if err != nil {
			return nil, err
		}
		if err = c.Skip(length); err != nil {
			return nil, err
		}
		st, err := readSubtable(sub, diag.Null, false)
		if err != nil {
			return nil, err
		}
		t.Subtables = append(t.Subtables, st)
	}
	return t, nil
}

// ReadValidated decodes a kern table while reporting diagnostics.
// Subtables of unsupported formats are skipped with a warning (their
// length field makes that safe); inconsistent binary-search headers and
// unsorted pairs are reported but tolerated. Truncation and nonsense
// length fields remain fatal, since the following subtable cannot be
// located anymore.
func ReadValidated(c *otbin.Cursor, sink diag.Sink) (*Table, error) {
	log := sink.Child("kern")
	log.Event(diag.Debug, "V0001", "Walker has %d remaining bytes.", c.Remaining())
	hd, err := c.Unpack("2H")
	if err != nil {
		log.Event(diag.Error, "V0004", "Insufficient bytes for kern header")
		return nil, err
	}
	if hd.U16(0) != 0 {
		log.Event(diag.Error, "V0300", "Table version %d is not supported", hd.U16(0))
		return nil, core.Error(core.EINVALID, "kern table version %d not supported", hd.U16(0))
	}
	nTables := int(hd.U16(1))
	log.Event(diag.Info, "V0301", "%d kern subtables declared", nTables)
	t := &Table{}
	for i := 0; i < nTables; i++ {
		sublog := log.Child(subName(i))
		head, err := c.Peek("2H")
		if err != nil {
			sublog.Event(diag.Error, "V0004", "Insufficient bytes for subtable header")
			return nil, err
		}
		length := int(head.U16(1))
		if length < 14 || length > c.Remaining() {
			sublog.Event(diag.Error, "V0302",
				"Subtable length %d is impossible (%d bytes remain)",
				length, c.Remaining())
			return nil, core.Error(core.EINVALID, "kern subtable %d declares length %d", i, length)
		}
		sub, _ := c.SubScope(0, true, length)
		_ = c.Skip(length)
		st, err := readSubtable(sub, sublog, true)
		if err != nil {
			return nil, err
		}
		if st != nil {
			t.Subtables = append(t.Subtables, st)
		}
	}
	return t, nil
}

func subName(i int) string {
	return fmt.Sprintf("subtable %d", i)
}

// readSubtable parses one subtable from its own length-capped scope.
// In validating mode an unsupported format yields (nil, nil) after a
// diagnostic, letting the caller continue with the next subtable.
func readSubtable(c *otbin.Cursor, log diag.Sink, validate bool) (*Subtable, error) {
	hd, err := c.Unpack("3H")
	if err != nil {
		return nil, err
	}
	coverage := hd.U16(2)
	format := coverage >> 8
	if format != 0 {
		if validate {
			log.Event(diag.Warning, "V0303", "Subtable format %d not supported, skipping", format)
			return nil, nil
		}
		return nil, core.Error(core.EINVALID, "kern subtable format %d not supported", format)
	}
	bh, err := c.Unpack("4H")
	if err != nil {
		if validate {
			log.Event(diag.Error, "V0004", "Insufficient bytes for pair count")
		}
		return nil, err
	}
	n := int(bh.U16(0))
	if validate {
		sr, es, rs := bsh(n)
		if bh.U16(1) != sr || bh.U16(2) != es || bh.U16(3) != rs {
			log.Event(diag.Warning, "V0304",
				"Binary-search header (%d,%d,%d) inconsistent with %d pairs",
				bh.U16(1), bh.U16(2), bh.U16(3), n)
		}
	}
	groups, err := c.Group("2Hh", n)
	if err != nil {
		if validate {
			log.Event(diag.Error, "V0305", "Insufficient bytes for %d pairs", n)
		}
		return nil, err
	}
	st := NewSubtable(coverage)
	var prev uint32
	for i, vs := range groups {
		key := pairKey(vs.U16(0), vs.U16(1))
		if validate && i > 0 && key <= prev {
			log.Event(diag.Warning, "V0306", "Pair %d out of order", i)
		}
		prev = key
		st.SetPair(vs.U16(0), vs.U16(1), vs.I16(2))
	}
	return st, nil
}
