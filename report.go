package verdict

// Reporter receives validation events for observability. Implementations
// must be fire-and-forget: never block and never influence the verdict.
type Reporter interface {
	Record(source string, severity Severity, message string)
}

// NopReporter discards every event. It is the default sink.
type NopReporter struct{}

func (NopReporter) Record(string, Severity, string) {}
