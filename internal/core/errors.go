package core

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindRateLimit
	KindParse
	KindNetwork
	KindService
	KindInsight
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRateLimit:
		return "rate_limit"
	case KindParse:
		return "parse"
	case KindNetwork:
		return "network"
	case KindService:
		return "service"
	case KindInsight:
		return "insight"
	default:
		return "unknown"
	}
}

// Error is the analysis failure taxonomy. Message is safe to show to the user.
type Error struct {
	Kind    Kind
	Message string
	// RetryAfterSeconds is set for KindRateLimit only.
	RetryAfterSeconds int
	Err               error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the taxonomy kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UserMessage returns the text the UI should show for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Something went wrong. Please try again."
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

const (
	msgEmptyJournal  = "Journal entry cannot be empty."
	msgParseFailed   = "Could not obtain analysis. Please try again."
	msgNoConnection  = "No internet connection. Please check your connection."
	msgServerBusy    = "Server is busy. Please try again in a few minutes."
	msgInsightFailed = "Could not generate the weekly insight."
	msgCancelled     = "Analysis was cancelled."
)
