package models

import "fmt"

// MissingFieldError is returned when a required request field is absent
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// ValidationError is returned when a request field is present but malformed
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
}

// NotFoundError is returned when no detection store exists for a stream
type NotFoundError struct {
	Stream string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("stream not found: %s", e.Stream)
}

// SchemaError is returned when a store lacks the expected tables or columns
type SchemaError struct {
	Stream string
	Detail string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid detection store for %s: %s", e.Stream, e.Detail)
}

// GeometryError is returned for malformed region polygons
type GeometryError struct {
	Region string
	Detail string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("invalid region %q: %s", e.Region, e.Detail)
}
