/*
Package otbin implements the two primitives underneath every binary
font-table format: a bounds-checked reading cursor over offset-addressed
byte regions, and a linked writer which lets clients emit offset fields
before the positions they refer to are known.

Font binary formats (OpenType, TrueType, AAT) are graphs of fixed-width,
big-endian structures connected by offsets. A table's header typically
precedes the data it points to, so writing is inherently a two-pass
problem: lay out bytes in one forward pass, resolve offset arithmetic in
a finishing pass. The Writer models this with stakes (named positions,
bound now or later), unresolved offsets (position differences patched at
Finalize time) and deferred values (length/count fields supplied after
their payload exists).

Reading is the mirror image: a Cursor is a read-only view into an
immutable byte buffer, from which child cursors may be split off either
at a scope-local absolute offset (the dominant pattern: an offset table
at the head of a subtable pointing into the same subtable) or relative
to the current position (length-prefixed inline records). A child's
visible length may be capped so that overreads into sibling structures
are impossible even though the backing buffer physically continues.

Both sides speak the same shape notation, a compact type-tag string
describing a run of fixed-width fields:

	B  b     unsigned/signed 8 bit
	H  h     unsigned/signed 16 bit
	L  l     unsigned/signed 32 bit
	Ns       raw byte run of N bytes, e.g. "4s" for a tag
	NT       repeat prefix for integer tags, "2H" ≡ "HH"

All integers are big-endian; there is no variable-length encoding
anywhere in this family of formats.

Neither Cursor nor Writer holds global state. Instances are not safe for
concurrent mutation, but any number of independent parse or build tasks
may run in parallel, one instance each.
*/
package otbin

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'otforge.bin'
func tracer() tracing.Trace {
	return tracing.Select("otforge.bin")
}
