package extraction

import "fmt"

// ExtractionFormatError signals that a model response contained no parseable
// JSON object. It is never retried; the upload fails and nothing is persisted.
type ExtractionFormatError struct {
	Reason string
}

func (e *ExtractionFormatError) Error() string {
	return fmt.Sprintf("invalid extraction response: %s", e.Reason)
}
