// Package checkpoint provides a durable, append-only record of completed docstring
// transformations, so an interrupted run resumes where it stopped.
package checkpoint

import (
	"fmt"

	"github.com/Sumatoshi-tech/docsplice/pkg/docstring"
)

// Record is the on-disk form of a checkpoint.
type Record struct {
	ExpectedCount int              `json:"expected_count"`
	Completed     []docstring.Unit `json:"completed"`
}

// Done reports whether every expected unit has been completed.
func (r *Record) Done() bool {
	return len(r.Completed) == r.ExpectedCount
}

// check enforces the invariants the schema cannot express.
func (r *Record) check() error {
	if len(r.Completed) > r.ExpectedCount {
		return fmt.Errorf("%w: %d completed entries exceed expected count %d",
			ErrCorrupt, len(r.Completed), r.ExpectedCount)
	}

	for i, unit := range r.Completed {
		if unit.StartLine >= unit.EndLine {
			return fmt.Errorf("%w: entry %d has empty line range [%d,%d)",
				ErrCorrupt, i, unit.StartLine, unit.EndLine)
		}
	}

	return nil
}
