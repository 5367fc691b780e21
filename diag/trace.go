package diag

import (
	"github.com/npillmayer/schuko/tracing"
)

// traceSink forwards diagnostics to a schuko tracer, so validation
// messages show up interleaved with the module's regular traces and
// obey the globally selected trace level.
type traceSink struct {
	t    tracing.Trace
	path string
}

// NewTraceSink creates a sink forwarding to the tracer selected by the
// given trace key, e.g. "otforge.tables".
func NewTraceSink(selector string) Sink {
	return traceSink{t: tracing.Select(selector)}
}

func (ts traceSink) Event(level Severity, code string, template string, args ...interface{}) {
	ev := Event{Level: level, Path: ts.path, Code: code, Template: template, Args: args}
	switch level {
	case Debug:
		ts.t.Debugf("%s", ev)
	case Error:
		ts.t.Errorf("%s", ev)
	default:
		// schuko has no warn level; warnings keep their severity tag in
		// the rendered event
		ts.t.Infof("%s", ev)
	}
}

func (ts traceSink) Child(name string) Sink {
	return traceSink{t: ts.t, path: joinPath(ts.path, name)}
}
