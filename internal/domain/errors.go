package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned for malformed limit trees.
	ErrInvalidConfiguration = errors.New("invalid limit configuration")

	// ErrInvalidValue is returned for out-of-domain field values.
	ErrInvalidValue = errors.New("invalid value")
)

// ConfigurationError reports a malformed tree shape: a flat limit with
// children, a nested limit that does not cover its children's service
// types, or a duplicated node id.
type ConfigurationError struct {
	NodeID string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("limit %q: %s", e.NodeID, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// ValidationError reports a field value outside its domain, such as a
// negative amount or an empty service-type set.
type ValidationError struct {
	NodeID string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("limit %q: %s: %s", e.NodeID, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidValue }
