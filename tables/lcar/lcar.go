/*
Package lcar reads and writes the AAT 'lcar' table (ligature caret
positions), lookup format 0: a per-glyph array of 16-bit offsets,
measured from the start of the table, each pointing to a caret entry.

This is the canonical value-pooling format. Many ligature glyphs share
one caret entry; structurally equal entries are emitted exactly once
and every referencing glyph's offset field targets the same stake. The
pool key is the entry's canonical byte image, so pooling is by value:
two distinct but equal entries collapse into one copy on output and
come back as equal (not identical) values on input.

The lookup array is not self-delimiting: its length is the font's glyph
count, which callers pass in from the font context (maxp), exactly as
the enclosing editor layer supplies it to every AAT table parser.
*/
package lcar

import (
	"sort"

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

// Version is the fixed 16.16 version of the lcar table.
const Version = 0x00010000

// Table formats: caret positions as FUnit distances or as outline
// control point indices.
const (
	FormatDistance     uint16 = 0
	FormatControlPoint uint16 = 1
)

const headerSize = 6 // L version + H format

// Entry is the list of caret positions of one ligature glyph, ascending.
type Entry []int16

// caretPool is the pool name under which sibling lcar tables share
// caret entries; see tables.Context.PoolFor.
const caretPool = "lcar.carets"

// key returns the canonical value key of an entry: its exact binary
// image. Value-equal entries always collapse to one key.
func (e Entry) key() string {
	b := make([]byte, 0, 2+2*len(e))
	b = append(b, byte(len(e)>>8), byte(len(e)))
	for _, v := range e {
		b = append(b, byte(uint16(v)>>8), byte(uint16(v)))
	}
	return string(b)
}

// Table is a decoded lcar table.
type Table struct {
	Format    uint16
	NumGlyphs int              // length of the lookup array
	Carets    map[uint16]Entry // glyph id -> caret entry; absent = no carets
}

// New creates an empty lcar table of the given format, sized for a font
// with numGlyphs glyphs.
func New(format uint16, numGlyphs int) *Table {
	return &Table{
		Format:    format,
		NumGlyphs: numGlyphs,
		Carets:    make(map[uint16]Entry),
	}
}

// Write serializes the table. Offsets are emitted relative to the
// table's start (the byte-delta bridges the 6-byte header before the
// lookup), entries are pooled by value and written in ascending
// canonical-key order. With ctx.Sentinel set, a trailing guard record
// is appended after the lookup array, a quirk some legacy consumers of
// AAT lookup tables expect.
func (t *Table) Write(w *otbin.Writer, ctx *tables.Context) error {
	if err := w.Write("LH", uint32(Version), t.Format); err != nil {
		return err
	}
	lookupStart := w.StakeCurrent()
	if err := w.Write("H", 0); err != nil { // lookup format 0
		return err
	}
	pool := ctx.PoolFor(caretPool, func() interface{} {
		return otbin.NewPool[string](w)
	}).(*otbin.Pool[string])

	numGlyphs := t.NumGlyphs
	for g := range t.Carets {
		if int(g) >= numGlyphs {
			numGlyphs = int(g) + 1
		}
	}
	entries := make(map[string]Entry, len(t.Carets))
	for g := 0; g < numGlyphs; g++ {
		entry, ok := t.Carets[uint16(g)]
		if !ok || len(entry) == 0 {
			if err := w.Write("H", 0); err != nil {
				return err
			}
			continue
		}
		k := entry.key()
		entries[k] = entry
		err := w.AddUnresolvedOffset("H", lookupStart, pool.Ref(k),
			otbin.ByteDelta(headerSize))
		if err != nil {
			return err
		}
	}
	if ctx.Sentinel {
		if err := w.Write("3H", 0xFFFF, 0xFFFF, 0); err != nil {
			return err
		}
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		stake := pool.Ref(k)
		if w.Bound(stake) {
			continue // already emitted for a sibling table sharing the pool
		}
		if err := w.BindStake(stake); err != nil {
			return err
		}
		entry := entries[k]
		if err := w.Write("H", len(entry)); err != nil {
			return err
		}
		for _, v := range entry {
			if err := w.Write("h", v); err != nil {
				return err
			}
		}
	}
	tracer().Debugf("lcar: %d glyphs, %d distinct caret entries", numGlyphs, len(entries))
	return nil
}

var _ tables.Codec = &Table{}

// Read decodes an lcar table spanning the cursor's whole scope; offsets
// are interpreted from the scope's start. numGlyphs is the font's glyph
// count, which delimits the lookup array.
func Read(c *otbin.Cursor, numGlyphs int) (*Table, error) {
	hd, err := c.Unpack("LHH")
	if err != nil {
		return nil, err
	}
	if hd.U32(0) != Version {
		return nil, core.Error(core.EINVALID, "lcar version 0x%08X not supported", hd.U32(0))
	}
	if hd.U16(1) > FormatControlPoint {
		return nil, core.Error(core.EINVALID, "lcar format %d not supported", hd.U16(1))
	}
	if hd.U16(2) != 0 {
		return nil, core.Error(core.EINVALID, "lcar lookup format %d not supported", hd.U16(2))
	}
	t := New(hd.U16(1), numGlyphs)
	offsets, err := c.Group("H", numGlyphs)
	if err != nil {
		return nil, err
	}
	cache := make(map[uint16]Entry)
	for g, vs := range offsets {
		off := vs.U16(0)
		if off == 0 || off == 0xFFFF {
			continue
		}
		entry, ok := cache[off]
		if !ok {
			if entry, err = readEntry(c, int(off)); err != nil {
				return nil, err
			}
			cache[off] = entry
		}
		t.Carets[uint16(g)] = entry
	}
	return t, nil
}

// ReadValidated decodes an lcar table while reporting diagnostics.
// Per-glyph problems (out-of-bounds offsets, implausible caret counts)
// are downgraded to diagnostics, the glyph keeping no caret entry; only
// a header or lookup array that cannot be read at all is fatal.
func ReadValidated(c *otbin.Cursor, sink diag.Sink, numGlyphs int) (*Table, error) {
	log := sink.Child("lcar")
	log.Event(diag.Debug, "V0001", "Walker has %d remaining bytes.", c.Remaining())
	hd, err := c.Unpack("LHH")
	if err != nil {
		log.Event(diag.Error, "V0004", "Insufficient bytes for lcar header")
		return nil, err
	}
	if hd.U32(0) != Version {
		log.Event(diag.Warning, "V0310", "Version 0x%08X is not 1.0", hd.U32(0))
	}
	format := hd.U16(1)
	if format > FormatControlPoint {
		log.Event(diag.Warning, "V0311", "Format %d unknown, treating as distances", format)
		format = FormatDistance
	}
	if hd.U16(2) != 0 {
		log.Event(diag.Error, "V0312", "Lookup format %d not supported", hd.U16(2))
		return nil, core.Error(core.EINVALID, "lcar lookup format %d not supported", hd.U16(2))
	}
	t := New(format, numGlyphs)
	offsets, err := c.Group("H", numGlyphs)
	if err != nil {
		log.Event(diag.Error, "V0313", "Lookup array truncated (%d glyphs)", numGlyphs)
		return nil, err
	}
	cache := make(map[uint16]Entry)
	for g, vs := range offsets {
		off := vs.U16(0)
		if off == 0 || off == 0xFFFF {
			continue
		}
		entry, ok := cache[off]
		if !ok {
			entry, err = readEntry(c, int(off))
			if err != nil {
				log.Event(diag.Error, "V0314",
					"Caret entry for glyph %d at offset %d unreadable", g, off)
				continue // glyph keeps no entry
			}
			cache[off] = entry
		}
		t.Carets[uint16(g)] = entry
	}
	log.Event(diag.Info, "V0315", "%d glyphs with caret entries", len(t.Carets))
	return t, nil
}

// readEntry parses one caret entry at a scope-local offset from the
// table start.
func readEntry(c *otbin.Cursor, off int) (Entry, error) {
	sub, err := c.SubScope(off, false, -1)
	if err != nil {
		return nil, err
	}
	cnt, err := sub.Unpack("H")
	if err != nil {
		return nil, err
	}
	vals, err := sub.Group("h", int(cnt.U16(0)))
	if err != nil {
		return nil, err
	}
	entry := make(Entry, len(vals))
	for i, vs := range vals {
		entry[i] = vs.I16(0)
	}
	return entry, nil
}
