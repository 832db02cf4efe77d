package core

import "fmt"

// ErrInvalidInput indicates that a map was constructed with parameters
// it cannot honour (e.g. fewer than two buckets, a non-positive
// expiration).
type ErrInvalidInput struct {
	Field   string
	Message string
}

func (e *ErrInvalidInput) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}
