/*
Package gasp reads and writes the 'gasp' table (grid-fitting and
scan-conversion procedure). It is the smallest offset-free table in the
family and doubles as the reference for the dual-path read contract:
Read is strict and fail-fast, ReadValidated reports diagnostics and
recovers where it can.
*/
package gasp

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

// Behavior is the rasterizer behavior flag set of one gasp range.
type Behavior uint16

// Behavior flags. SymmetricGridFit and SymmetricSmoothing require table
// version 1.
const (
	GridFit Behavior = 1 << iota
	DoGray
	SymmetricGridFit
	SymmetricSmoothing
)

const v0Mask = GridFit | DoGray
const v1Mask = v0Mask | SymmetricGridFit | SymmetricSmoothing

// Range maps all ppem sizes up to and including MaxPPEM to a rasterizer
// behavior.
type Range struct {
	MaxPPEM  uint16
	Behavior Behavior
}

// Table is a decoded gasp table. Ranges are sorted ascending by
// MaxPPEM; the last range must have MaxPPEM 0xFFFF, covering all
// remaining sizes.
type Table struct {
	Version uint16
	Ranges  []Range
}

// Read decodes a gasp table, failing fast on the first structural
// problem.
func Read(c *otbin.Cursor) (*Table, error) {
	hd, err := c.Unpack("2H")
	if err != nil {
		return nil, err
	}
	t := &Table{Version: hd.U16(0)}
	count := int(hd.U16(1))
	groups, err := c.Group("2H", count)
	if err != nil {
		return nil, err
	}
	t.Ranges = make([]Range, count)
	for i, vs := range groups {
		t.Ranges[i] = Range{MaxPPEM: vs.U16(0), Behavior: Behavior(vs.U16(1))}
	}
	return t, nil
}

// ReadValidated decodes a gasp table while reporting diagnostics to
// sink. Recoverable oddities (unknown version, zero ranges, undefined
// behavior bits, duplicate adjacent entries) are reported and parsing
// continues; truncation, unsorted ranges and a missing 0xFFFF sentinel
// range leave the table unusable and fail.
func ReadValidated(c *otbin.Cursor, sink diag.Sink) (*Table, error) {
	log := sink.Child("gasp")
	tblLen := c.Remaining()
	log.Event(diag.Debug, "V0001", "Walker has %d remaining bytes.", tblLen)
	if tblLen < 4 {
		log.Event(diag.Error, "V0004", "Length %d is too short (minimum 4)", tblLen)
		return nil, truncated(tblLen, 4)
	}
	hd, _ := c.Unpack("2H")
	version := hd.U16(0)
	if version > 1 {
		log.Event(diag.Warning, "E1003", "Table version %d is not known", version)
	} else {
		log.Event(diag.Info, "V0117", "Table version is %d", version)
	}
	t := &Table{Version: version}
	count := int(hd.U16(1))
	if count == 0 {
		log.Event(diag.Warning, "V0118", "Number of GASPRANGEs is zero")
		return t, nil
	}
	expected := 4 + count*4
	if tblLen < expected {
		log.Event(diag.Error, "V0119",
			"Length %d is too short for %d GASPRANGEs (expected %d)",
			tblLen, count, expected)
		return nil, truncated(tblLen, expected)
	}
	log.Event(diag.Info, "V0120", "%d GASPRANGEs defined.", count)
	groups, _ := c.Group("2H", count)
	mask := v0Mask
	if version >= 1 {
		mask = v1Mask
	}
	t.Ranges = make([]Range, count)
	for i, vs := range groups {
		r := Range{MaxPPEM: vs.U16(0), Behavior: Behavior(vs.U16(1))}
		if r.Behavior&^mask != 0 {
			log.Event(diag.Warning, "W1005",
				"Behavior 0x%04X uses bits undefined for version %d",
				uint16(r.Behavior), version)
		}
		t.Ranges[i] = r
	}
	if !sort.SliceIsSorted(t.Ranges, func(i, j int) bool {
		return t.Ranges[i].MaxPPEM < t.Ranges[j].MaxPPEM
	}) {
		log.Event(diag.Error, "E1002", "The gaspRanges are not sorted.")
		return nil, core.Error(core.EINVALID, "gasp ranges are not sorted")
	}
	if t.Ranges[count-1].MaxPPEM != 0xFFFF {
		log.Event(diag.Error, "E1001", "Last gaspRange is not 0xFFFF sentinel.")
		return nil, core.Error(core.EINVALID, "gasp table lacks 0xFFFF sentinel range")
	}
	for i := 0; i+1 < count; i++ {
		if t.Ranges[i].MaxPPEM == t.Ranges[i+1].MaxPPEM {
			log.Event(diag.Warning, "V0172", "Two adjacent ranges have identical ppems")
		}
		if t.Ranges[i].Behavior == t.Ranges[i+1].Behavior {
			log.Event(diag.Warning, "W1004", "Two adjacent ranges have identical flags")
		}
	}
	return t, nil
}

// Write serializes the table. Ranges are emitted in ascending MaxPPEM
// order regardless of their order in the struct, keeping output
// byte-exact reproducible.
func (t *Table) Write(w *otbin.Writer, ctx *tables.Context) error {
	ranges := make([]Range, len(t.Ranges))
	copy(ranges, t.Ranges)
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].MaxPPEM < ranges[j].MaxPPEM
	})
	if err := w.Write("2H", t.Version, len(ranges)); err != nil {
		return err
	}
	for _, r := range ranges {
		if err := w.Write("2H", r.MaxPPEM, uint16(r.Behavior)); err != nil {
			return err
		}
	}
	tracer().Debugf("gasp: wrote %d ranges, version %d", len(ranges), t.Version)
	return nil
}

var _ tables.Codec = &Table{}

func truncated(have, want int) error {
	return core.WrapError(otbin.ErrTruncatedInput, core.EINVALID,
		"gasp table has %d bytes, needs %d", have, want)
}
