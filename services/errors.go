package services

import "fmt"

// ValidationError reports malformed input. It is always returned before any
// Stripe or database call, never after a partial write.
type ValidationError struct {
	Reason string
	Entry  string // name of the offending cart entry or product, if known
}

func (e *ValidationError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("%s: %s", e.Reason, e.Entry)
	}
	return e.Reason
}

// UpstreamError wraps a failure from Stripe or the database. Callers map it to
// a 500-class response; retries are the caller's decision.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
