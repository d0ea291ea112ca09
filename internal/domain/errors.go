package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by lookups that miss a closed set.
var ErrNotFound = errors.New("not found")

// ConfigurationError reports a missing or invalid setting detected before
// any network call is made.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// UnknownLocalityError is returned when an id is not in the catalog.
type UnknownLocalityError struct {
	ID string
}

func (e *UnknownLocalityError) Error() string {
	return fmt.Sprintf("unknown locality %q", e.ID)
}

func (e *UnknownLocalityError) Unwrap() error { return ErrNotFound }

// UpstreamError wraps a failure of the remote text-generation call.
// Transient is set for failures worth retrying (network errors, timeouts,
// 5xx responses); auth and quota rejections are never transient.
type UpstreamError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MalformedResponseError reports a response that is not a JSON object or
// does not satisfy the report schema. Excerpt holds a truncated copy of
// the offending text for diagnosis.
type MalformedResponseError struct {
	Reason  string
	Excerpt string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v (excerpt: %q)", e.Reason, e.Err, e.Excerpt)
	}
	return fmt.Sprintf("malformed response: %s (excerpt: %q)", e.Reason, e.Excerpt)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// PublishError reports a failed write to one publishing sink.
type PublishError struct {
	Sink string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %s: %v", e.Sink, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
