/*
Package diag provides the diagnostics channel used by the validating
parse paths of the font-table formats.

A validating parser does not abort on the first oddity it meets: an
unrecognized-but-ignorable flag bit or a zero count with absent data is
reported and parsing continues; only structurally fatal problems fail
the parse upward. Each subordinate parse step nests a named child scope
(e.g. "kern.subtable 3.coverage"), so a validation run over a
multi-megabyte font produces a navigable hierarchy of messages rather
than a flat log.

Events are structured: a short code identifying the rule, positional
arguments, and a human-readable printf template. Downstream consumers
key on the code, humans read the rendered template.

There is deliberately no package-level default sink: every validating
call receives its sink explicitly, with Null as the caller-visible
no-op value. Hidden global logger state is exactly what this design
replaces.
*/
package diag

import "fmt"

// Severity classifies an event.
type Severity int

// The four severities, in ascending order.
const (
	Debug Severity = iota
	Info
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Event is one recorded diagnostic.
type Event struct {
	Level    Severity
	Path     string // dot-joined scope path, e.g. "kern.subtable 0"
	Code     string // short rule identifier, e.g. "V0117"
	Template string // printf template for Args
	Args     []interface{}
}

// Message renders the event's template with its arguments.
func (ev Event) Message() string {
	return fmt.Sprintf(ev.Template, ev.Args...)
}

func (ev Event) String() string {
	if ev.Path == "" {
		return fmt.Sprintf("%s [%s] %s", ev.Level, ev.Code, ev.Message())
	}
	return fmt.Sprintf("%s %s [%s] %s", ev.Level, ev.Path, ev.Code, ev.Message())
}

// Sink consumes diagnostics. Implementations are not required to be
// safe for concurrent use; a validation run is single-threaded by
// design.
type Sink interface {
	Event(level Severity, code string, template string, args ...interface{})
	Child(name string) Sink // nested named scope
}

// --- Null sink -------------------------------------------------------------

type nullSink struct{}

func (nullSink) Event(Severity, string, string, ...interface{}) {}

func (ns nullSink) Child(string) Sink { return ns }

// Null is the explicit no-op sink. Strict (non-validating) parse paths
// and callers uninterested in diagnostics pass this.
var Null Sink = nullSink{}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}
