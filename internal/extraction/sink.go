package extraction

// Sink receives diagnostic events from the engine. Implementations must be safe for concurrent use.
type Sink interface {
	Record(event string, fields map[string]any)
}

const (
	EventRuleFault        = "rule_fault"
	EventTemplateMismatch = "template_mismatch"
	EventTemplatePanic    = "template_panic"
	EventResolved         = "resolved"
	EventUnresolved       = "unresolved"
)

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Record(string, map[string]any) {}

// MultiSink fans an event out to several sinks.
type MultiSink []Sink

func (m MultiSink) Record(event string, fields map[string]any) {
	for _, s := range m {
		s.Record(event, fields)
	}
}
