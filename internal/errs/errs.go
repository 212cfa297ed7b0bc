// Package errs holds the error taxonomy shared by the pipeline stages.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrScoringUnavailable marks a headline the capability could not score.
	// The record is dropped and the run continues.
	ErrScoringUnavailable = errors.New("scoring unavailable")
	// ErrNoPriceData marks a ticker that has no price series at all.
	ErrNoPriceData = errors.New("no price data")
	// ErrInsufficientData marks a correlation group below the sample minimum.
	ErrInsufficientData = errors.New("insufficient data")
)

// SchemaError reports a missing required column or an empty required field.
type SchemaError struct {
	Source string
	Row    int // 1-based data row, 0 when the header itself is wrong
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("schema error in %s row %d: field %q %s", e.Source, e.Row, e.Field, e.Reason)
	}
	return fmt.Sprintf("schema error in %s: field %q %s", e.Source, e.Field, e.Reason)
}

// ParseError reports a timestamp or numeric value that could not be parsed.
type ParseError struct {
	Source string
	Row    int
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse error in %s row %d: field %q value %q", e.Source, e.Row, e.Field, e.Value)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// NoPriceDataError is returned for a ticker whose events cannot be aligned
// because the price dataset has no bars for it.
type NoPriceDataError struct {
	Ticker string
}

func (e *NoPriceDataError) Error() string {
	return fmt.Sprintf("no price data for ticker %s", e.Ticker)
}

func (e *NoPriceDataError) Is(target error) bool { return target == ErrNoPriceData }

// ScoringError wraps a capability failure for one headline.
type ScoringError struct {
	Capability string
	Err        error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrScoringUnavailable, e.Capability, e.Err)
}

func (e *ScoringError) Unwrap() error { return e.Err }

func (e *ScoringError) Is(target error) bool { return target == ErrScoringUnavailable }

// IsFatal reports whether err should abort a load.
func IsFatal(err error) bool {
	var se *SchemaError
	var pe *ParseError
	return errors.As(err, &se) || errors.As(err, &pe)
}
