package invoice

import "fmt"

// NotFoundError signals that no invoice exists for the requested id.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("invoice %s not found", e.ID)
}

// ConflictError signals a write-time invoice-number collision that survived
// the deduplicator's pre-check and one retry.
type ConflictError struct {
	Number string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("invoice number %s is already in use", e.Number)
}
