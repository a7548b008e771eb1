// Package faceerr defines the failures surfaced to the end user. Every type
// carries a ready-to-show message and Error() returns exactly that message.
package faceerr

import (
	"errors"

	"github.com/andresmejia3/facemask/internal/messages"
)

// ConfigurationError means the server cannot forward requests at all.
type ConfigurationError struct{ Message string }

func (e *ConfigurationError) Error() string { return e.Message }

// ValidationError rejects an upload before anything is sent.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// NetworkError is a transport failure. Cause is kept for logs only.
type NetworkError struct {
	Message string
	Cause   error
}

func (e *NetworkError) Error() string { return e.Message }
func (e *NetworkError) Unwrap() error { return e.Cause }

// TimeoutError means the upstream did not answer within its budget.
type TimeoutError struct {
	Message string
	Cause   error
}

func (e *TimeoutError) Error() string { return e.Message }
func (e *TimeoutError) Unwrap() error { return e.Cause }

// DetectionError is a structured failure reported by the detector or proxy.
type DetectionError struct {
	Status  int
	Message string
}

func (e *DetectionError) Error() string { return e.Message }

// MalformedResponseError means a body could not be parsed as expected.
type MalformedResponseError struct {
	Message string
	Cause   error
}

func (e *MalformedResponseError) Error() string { return e.Message }
func (e *MalformedResponseError) Unwrap() error { return e.Cause }

// Message returns the string to show the user for any error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var (
		cfg  *ConfigurationError
		val  *ValidationError
		net  *NetworkError
		to   *TimeoutError
		det  *DetectionError
		malf *MalformedResponseError
	)
	switch {
	case errors.As(err, &cfg):
		return cfg.Message
	case errors.As(err, &val):
		return val.Message
	case errors.As(err, &net):
		return net.Message
	case errors.As(err, &to):
		return to.Message
	case errors.As(err, &det):
		return det.Message
	case errors.As(err, &malf):
		return malf.Message
	}
	return messages.DetectionFailed
}
