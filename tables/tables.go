/*
Package tables defines the contract between the binary core and the
format classes built on it.

Every concrete table type implements Codec for writing and provides two
package-level read constructors:

	Read(c *otbin.Cursor, …) (*T, error)
	ReadValidated(c *otbin.Cursor, sink diag.Sink, …) (*T, error)

The strict path fails fast on the first problem and is meant for
trusted round-trip work. The validating path recovers from everything
it can still make sense of, reports diagnostics through the sink, and
fails only for conditions that leave the rest of the structure
unparseable — this is the path font-validation tooling shows to end
users. Both paths must decode the same well-formed input to the same
value.

Cross-cutting behavior the original system synthesized per class
(comparison, rendering) is deliberately not synthesized here: table
types are plain structs, comparison is structural equality over
exported fields, rendering is the String method where a format wants
one.
*/
package tables

import (
	"github.com/npillmayer/otforge/diag"
	"github.com/npillmayer/otforge/otbin"
)

// Codec is the writing half of a format class: serialize the receiver
// into a writer, using the build context for pooling and quirk flags.
type Codec interface {
	Write(w *otbin.Writer, ctx *Context) error
}

// Context carries the optional behavior that used to be threaded
// through deeply nested calls as keyword arguments: the diagnostics
// sink, shared dedup pools, and format quirk flags. It is passed by
// reference through a whole build or parse train.
type Context struct {
	// Diag receives diagnostics; never nil after NewContext.
	Diag diag.Sink

	// pools maps a pool name (owned by the table package that declares
	// it) to the pool instance. Callers pre-populating an entry force
	// sibling tables to share one pool, so value-equal substructures
	// are emitted once across tables.
	pools map[string]interface{}

	// Sentinel requests a trailing sentinel record from formats that
	// know one (an AAT lookup-table quirk, not core behavior).
	Sentinel bool
}

// NewContext creates a Context with a Null diagnostics sink.
func NewContext() *Context {
	return &Context{
		Diag:  diag.Null,
		pools: make(map[string]interface{}),
	}
}

// WithDiag sets the diagnostics sink and returns ctx.
func (ctx *Context) WithDiag(sink diag.Sink) *Context {
	if sink == nil {
		sink = diag.Null
	}
	ctx.Diag = sink
	return ctx
}

// PoolFor returns the shared pool registered under name, creating it
// via mk on first use. The concrete pool type is owned by the table
// package that coined the name.
func (ctx *Context) PoolFor(name string, mk func() interface{}) interface{} {
	if ctx.pools == nil {
		ctx.pools = make(map[string]interface{})
	}
	if p, ok := ctx.pools[name]; ok {
		return p
	}
	p := mk()
	ctx.pools[name] = p
	return p
}
