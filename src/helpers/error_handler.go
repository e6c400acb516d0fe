package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pair-analysis/src/logger"

	"github.com/cenkalti/backoff/v4"
)

// -----------------------------------------------------------------------------
// Error Kinds
// -----------------------------------------------------------------------------

type ErrorKind string

const (
	KindMissingParameter          ErrorKind = "MissingParameter"
	KindInvalidParameter          ErrorKind = "InvalidParameter"
	KindInvalidPair               ErrorKind = "InvalidPair"
	KindExchangeValidationFailure ErrorKind = "ExchangeValidationFailure"
	KindDataUnavailable           ErrorKind = "DataUnavailable"
	KindNoUsablePairs             ErrorKind = "NoUsablePairs"
	KindColumnCollision           ErrorKind = "ColumnCollision"
	KindIOFailure                 ErrorKind = "IOFailure"
	KindNetworkFailure            ErrorKind = "NetworkFailure"
)

// Sentinels for errors.Is. Only the kind is compared.
var (
	ErrMissingParameter          = &AnalysisError{Kind: KindMissingParameter}
	ErrInvalidParameter          = &AnalysisError{Kind: KindInvalidParameter}
	ErrInvalidPair               = &AnalysisError{Kind: KindInvalidPair}
	ErrExchangeValidationFailure = &AnalysisError{Kind: KindExchangeValidationFailure}
	ErrDataUnavailable           = &AnalysisError{Kind: KindDataUnavailable}
	ErrNoUsablePairs             = &AnalysisError{Kind: KindNoUsablePairs}
	ErrColumnCollision           = &AnalysisError{Kind: KindColumnCollision}
	ErrIOFailure                 = &AnalysisError{Kind: KindIOFailure}
	ErrNetworkFailure            = &AnalysisError{Kind: KindNetworkFailure}
)

// -----------------------------------------------------------------------------
// Custom Error Type
// -----------------------------------------------------------------------------

type AnalysisError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *AnalysisError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// Is matches any AnalysisError of the same kind.
func (e *AnalysisError) Is(target error) bool {
	t, ok := target.(*AnalysisError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first AnalysisError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewMissingParameterError(field string) error {
	return &AnalysisError{
		Kind:    KindMissingParameter,
		Message: fmt.Sprintf("data preprocessing requires %q, please check the configuration", field),
	}
}

func NewInvalidParameterError(field, value string, cause error) error {
	return &AnalysisError{
		Kind:    KindInvalidParameter,
		Message: fmt.Sprintf("invalid %s %q", field, value),
		Cause:   cause,
	}
}

func NewInvalidPairError(pair, reason string) error {
	return &AnalysisError{
		Kind:    KindInvalidPair,
		Message: fmt.Sprintf("invalid pair %q: %s", pair, reason),
	}
}

func NewExchangeValidationError(message string, cause error) error {
	return &AnalysisError{Kind: KindExchangeValidationFailure, Message: message, Cause: cause}
}

func NewDataUnavailableError(message string, cause error) error {
	return &AnalysisError{Kind: KindDataUnavailable, Message: message, Cause: cause}
}

func NewNoUsablePairsError(message string) error {
	return &AnalysisError{Kind: KindNoUsablePairs, Message: message}
}

func NewColumnCollisionError(column string, pairs ...string) error {
	return &AnalysisError{
		Kind:    KindColumnCollision,
		Message: fmt.Sprintf("pairs %v map to the same column %q", pairs, column),
	}
}

func NewIOError(message string, cause error) error {
	return &AnalysisError{Kind: KindIOFailure, Message: message, Cause: cause}
}

func NewNetworkError(message string, cause error) error {
	return &AnalysisError{Kind: KindNetworkFailure, Message: message, Cause: cause}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to maxRetries+1 times with exponential backoff
// starting at baseDelay. Errors wrapped with backoff.Permanent stop the loop.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = baseDelay
	eb.MaxElapsedTime = 0

	var policy backoff.BackOff = eb
	if maxRetries >= 0 {
		policy = backoff.WithMaxRetries(eb, uint64(maxRetries))
	}

	attempt := 0
	notify := func(err error, delay time.Duration) {
		attempt++
		if log != nil {
			log.Warning("%s failed (attempt %d): %v. Retrying in %v", operation, attempt, err, delay)
		}
	}

	return backoff.RetryNotify(fn, backoff.WithContext(policy, ctx), notify)
}
