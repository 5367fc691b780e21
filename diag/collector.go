package diag

// Collector records every event together with its scope path. It is the
// sink validation tooling hands to ReadValidated and then inspects:
// which rules fired, how many were fatal, in which subtable.
type Collector struct {
	events []Event
	counts [4]int
}

// NewCollector creates an empty collector. The collector itself is the
// root scope; Child derives nested scopes sharing its storage.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) record(path string, level Severity, code, template string, args []interface{}) {
	c.events = append(c.events, Event{
		Level:    level,
		Path:     path,
		Code:     code,
		Template: template,
		Args:     args,
	})
	if level >= Debug && level <= Error {
		c.counts[level]++
	}
}

// Event implements Sink at the root scope.
func (c *Collector) Event(level Severity, code string, template string, args ...interface{}) {
	c.record("", level, code, template, args)
}

// Child implements Sink.
func (c *Collector) Child(name string) Sink {
	return collectorScope{c: c, path: name}
}

// Events returns all recorded events in emission order.
func (c *Collector) Events() []Event {
	return c.events
}

// Count returns the number of events recorded at the given severity.
func (c *Collector) Count(level Severity) int {
	if level < Debug || level > Error {
		return 0
	}
	return c.counts[level]
}

// ErrorCount returns the number of error-level events.
func (c *Collector) ErrorCount() int {
	return c.counts[Error]
}

// HasErrors reports whether any error-level event was recorded.
func (c *Collector) HasErrors() bool {
	return c.counts[Error] > 0
}

var _ Sink = &Collector{}

type collectorScope struct {
	c    *Collector
	path string
}

func (cs collectorScope) Event(level Severity, code string, template string, args ...interface{}) {
	cs.c.record(cs.path, level, code, template, args)
}

func (cs collectorScope) Child(name string) Sink {
	return collectorScope{c: cs.c, path: joinPath(cs.path, name)}
}
