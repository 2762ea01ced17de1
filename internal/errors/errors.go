// Package errors classifies failures that cross a component boundary in the
// query-processing core so callers can decide whether to retry, surface a
// status code, or fall back to a sentinel result.
package errors

import (
	"fmt"
	"time"
)

// Class names the kind of failure, not its Go type. Every classified error
// in the core carries exactly one of these.
type Class int

const (
	ClassUnknown Class = iota
	ClassValidation
	ClassAuthentication
	ClassConnection
	ClassTimeout
	ClassRateLimit
	ClassCapacityExceeded
	ClassProcessing
	ClassParse
)

func (c Class) String() string {
	switch c {
	case ClassValidation:
		return "validation"
	case ClassAuthentication:
		return "authentication"
	case ClassConnection:
		return "connection"
	case ClassTimeout:
		return "timeout"
	case ClassRateLimit:
		return "rate_limit"
	case ClassCapacityExceeded:
		return "capacity_exceeded"
	case ClassProcessing:
		return "processing"
	case ClassParse:
		return "parse"
	default:
		return "unknown"
	}
}

// RetryStrategy describes whether and how a failed call should be retried.
type RetryStrategy struct {
	ShouldRetry       bool
	MaxAttempts       int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	RetryAfter        *time.Duration
}

// Error is a classified error carrying enough context for the orchestrator
// to decide whether to retry, fall back, or abort the query.
type Error struct {
	Code      string
	Message   string
	Class     Class
	Component string
	Operation string
	Timestamp time.Time
	Retry     *RetryStrategy
	cause     error
}

func (e *Error) Error() string {
	if e.Component != "" && e.Operation != "" {
		return fmt.Sprintf("[%s] %s.%s: %s", e.Code, e.Component, e.Operation, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// IsRetryable reports whether the caller should retry the operation.
func (e *Error) IsRetryable() bool {
	return e.Retry != nil && e.Retry.ShouldRetry
}

// RetryDelay returns the delay to apply before attempt number attempt
// (0-indexed), honoring an explicit RetryAfter if one is set.
func (e *Error) RetryDelay(attempt int) time.Duration {
	if e.Retry == nil || !e.Retry.ShouldRetry {
		return 0
	}
	if e.Retry.RetryAfter != nil {
		return *e.Retry.RetryAfter
	}
	delay := e.Retry.BaseDelay
	for i := 0; i < attempt; i++ {
		delay = time.Duration(float64(delay) * e.Retry.BackoffMultiplier)
		if delay > e.Retry.MaxDelay {
			return e.Retry.MaxDelay
		}
	}
	return delay
}

// New creates a classified error with the default retry strategy for class.
func New(component, operation, code, message string, class Class) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Class:     class,
		Component: component,
		Operation: operation,
		Timestamp: time.Now(),
		Retry:     defaultRetry(class),
	}
}

// Wrap attaches classification and component/operation context to cause.
func Wrap(cause error, component, operation, code string, class Class) *Error {
	if cause == nil {
		return nil
	}
	return &Error{
		Code:      code,
		Message:   cause.Error(),
		Class:     class,
		Component: component,
		Operation: operation,
		Timestamp: time.Now(),
		Retry:     defaultRetry(class),
		cause:     cause,
	}
}

func defaultRetry(class Class) *RetryStrategy {
	switch class {
	case ClassConnection:
		return &RetryStrategy{ShouldRetry: true, MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: 2 * time.Second, BackoffMultiplier: 2.0}
	case ClassAuthentication:
		return &RetryStrategy{ShouldRetry: true, MaxAttempts: 1, BaseDelay: 0, MaxDelay: 0, BackoffMultiplier: 1.0}
	case ClassRateLimit:
		after := 30 * time.Second
		return &RetryStrategy{ShouldRetry: true, MaxAttempts: 1, RetryAfter: &after}
	case ClassCapacityExceeded:
		after := 30 * time.Second
		return &RetryStrategy{ShouldRetry: true, MaxAttempts: 1, RetryAfter: &after}
	default:
		return &RetryStrategy{ShouldRetry: false}
	}
}

// As reports whether err is (or wraps) an *Error and returns it.
func As(err error) (*Error, bool) {
	for err != nil {
		if ce, ok := err.(*Error); ok {
			return ce, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// ClassOf returns the class of err if it is a classified error, else ClassUnknown.
func ClassOf(err error) Class {
	if ce, ok := As(err); ok {
		return ce.Class
	}
	return ClassUnknown
}
