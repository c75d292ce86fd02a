package tools

import (
	"encoding/json"
	"fmt"
)

// TransitArgs are the arguments of the publicTransitRoutes tool.
type TransitArgs struct {
	StartLon   string `json:"startLon"`
	StartLat   string `json:"startLat"`
	DestLon    string `json:"destLon"`
	DestLat    string `json:"destLat"`
	Language   int    `json:"language"`
	SearchTime string `json:"searchTime,omitempty"`
}

// ErrorEnvelope is the uniform failure shape returned to callers.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Result is either a value or an ErrorEnvelope. It encodes to whichever one
// it holds.
type Result[T any] struct {
	Value T
	Err   *ErrorEnvelope
}

// Success wraps v.
func Success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Failure wraps the message of err in an envelope.
func Failure[T any](err error) Result[T] {
	return Result[T]{Err: &ErrorEnvelope{Success: false, Error: err.Error()}}
}

// OK reports whether r holds a value.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// MarshalJSON implements json.Marshaler.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(r.Err)
	}
	return json.Marshal(r.Value)
}

// ValidationError rejects tool arguments before any request is made. It is
// never converted into an ErrorEnvelope.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid arguments: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
