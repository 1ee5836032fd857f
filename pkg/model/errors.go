package model

import "fmt"

// ValidationError marks input rejected locally, before any remote call.
// It is surfaced inline next to the offending input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
