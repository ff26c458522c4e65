package splice

import (
	"log/slog"
	"sync"

	"github.com/Sumatoshi-tech/docsplice/pkg/docstring"
)

// Observer receives data-integrity warnings raised while reconstructing a file.
type Observer interface {
	// MissingReplacement is called for a unit that has no replacement text. The unit
	// contributes zero lines to the output.
	MissingReplacement(unit docstring.Unit)
}

// NopObserver discards every warning.
type NopObserver struct{}

// MissingReplacement implements Observer.
func (NopObserver) MissingReplacement(docstring.Unit) {}

// LogObserver reports warnings through a structured logger.
type LogObserver struct {
	Logger *slog.Logger
}

// NewLogObserver returns an observer that logs to logger, or to slog's default logger when nil.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogObserver{Logger: logger}
}

// MissingReplacement implements Observer.
func (o *LogObserver) MissingReplacement(unit docstring.Unit) {
	o.Logger.Warn("docstring has no replacement; block dropped from output",
		"kind", unit.Kind.String(),
		"start_line", unit.StartLine,
		"end_line", unit.EndLine,
	)
}

// Collector records warnings so callers can inspect them after a run. Safe for
// concurrent use.
type Collector struct {
	mu      sync.Mutex
	missing []docstring.Unit
}

// MissingReplacement implements Observer.
func (c *Collector) MissingReplacement(unit docstring.Unit) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.missing = append(c.missing, unit)
}

// Missing returns the units reported as missing a replacement, in report order.
func (c *Collector) Missing() []docstring.Unit {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]docstring.Unit, len(c.missing))
	copy(out, c.missing)

	return out
}

// Len returns the number of warnings collected.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.missing)
}

// multiObserver fans warnings out to several observers.
type multiObserver []Observer

func (m multiObserver) MissingReplacement(unit docstring.Unit) {
	for _, o := range m {
		o.MissingReplacement(unit)
	}
}

// Tee returns an observer that forwards every warning to each non-nil observer.
func Tee(observers ...Observer) Observer {
	out := make(multiObserver, 0, len(observers))

	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}

	return out
}
