package model

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a generation failure
type Kind string

const (
	KindDomain     Kind = "DOMAIN_ERROR"
	KindInfeasible Kind = "INFEASIBLE"
	KindTimedOut   Kind = "GENERATION_TIMED_OUT"
	KindInternal   Kind = "INTERNAL_INCONSISTENCY"
	KindCancelled  Kind = "CANCELLED"
)

// ReasonCancelled is the reason code of a generation abandoned by its caller
const ReasonCancelled = "CANCELLED"

// Error is the typed result every failing generation returns
type Error struct {
	Kind        Kind
	Code        string
	Message     string
	Course      *uint64
	Report      *ConflictReport
	Suggestions []string
	Err         error
}

func (err *Error) Error() string {
	if err == nil {
		return "<nil>"
	}
	if err.Err != nil {
		return fmt.Sprintf("%v: %v: %v", err.Code, err.Message, err.Err)
	}
	return fmt.Sprintf("%v: %v", err.Code, err.Message)
}

func (err *Error) Unwrap() error {
	if err == nil {
		return nil
	}
	return err.Err
}

// Is matches errors by code, so that errors.Is(err, ErrNoAvailableRooms) holds for any course
func (err *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || err == nil || other == nil {
		return false
	}
	return err.Code == other.Code
}

// Retryable reports whether running the same request again (possibly with relaxed constraints) can succeed
func (err *Error) Retryable() bool {
	return err != nil && err.Kind == KindTimedOut
}

var (
	ErrInvalidRequest              = &Error{Kind: KindDomain, Code: "INVALID_REQUEST", Message: "invalid generation request"}
	ErrInvalidCatalog              = &Error{Kind: KindDomain, Code: "INVALID_CATALOG", Message: "invalid catalog"}
	ErrEmptySlotSet                = &Error{Kind: KindDomain, Code: "EMPTY_SLOT_SET", Message: "no time-slots are configured"}
	ErrIncompleteTeacherAssignment = &Error{Kind: KindDomain, Code: "INCOMPLETE_TEACHER_ASSIGNMENT", Message: "course has no qualified teacher"}
	ErrNoAvailableRooms            = &Error{Kind: KindDomain, Code: "NO_AVAILABLE_ROOMS", Message: "course has no available room"}
	ErrInfeasible                  = &Error{Kind: KindInfeasible, Code: "INFEASIBLE", Message: "no timetable satisfies every hard constraint"}
	ErrGenerationTimedOut          = &Error{Kind: KindTimedOut, Code: "GENERATION_TIMED_OUT", Message: "search budget exceeded"}
	ErrInternalInconsistency       = &Error{Kind: KindInternal, Code: "INTERNAL_INCONSISTENCY", Message: "inconsistent assignment set"}
)

// Returns a copy of a predefined error with a specific message
func newError(base *Error, format string, args ...any) *Error {
	clone := *base
	clone.Message = fmt.Sprintf(format, args...)
	return &clone
}

func courseError(base *Error, course Course, format string, args ...any) *Error {
	err := newError(base, format, args...)
	id := course.Id
	err.Course = &id
	return err
}

// Diagnostic is the structured failure handed to the presentation layer
type Diagnostic struct {
	ReasonCode    string         `json:"reason_code"`
	Kind          Kind           `json:"kind"`
	Message       string         `json:"message"`
	BlockingUnits []BlockingUnit `json:"blocking_units"`
	Suggestions   []string       `json:"suggestions,omitempty"`
	Retryable     bool           `json:"retryable"`
}

// Diagnose normalizes any error coming out of a generation run. A nil error yields the zero Diagnostic
func Diagnose(err error) Diagnostic {
	if err == nil {
		return Diagnostic{}
	}

	var typed *Error
	switch {
	case errors.As(err, &typed) && typed != nil:
		// Handled below
	case errors.Is(err, context.Canceled):
		return Diagnostic{
			ReasonCode:    ReasonCancelled,
			Kind:          KindCancelled,
			Message:       err.Error(),
			BlockingUnits: []BlockingUnit{},
			Retryable:     true,
		}
	case errors.Is(err, context.DeadlineExceeded):
		return Diagnostic{
			ReasonCode:    ErrGenerationTimedOut.Code,
			Kind:          KindTimedOut,
			Message:       err.Error(),
			BlockingUnits: []BlockingUnit{},
			Retryable:     true,
		}
	default:
		return Diagnostic{
			ReasonCode:    ErrInternalInconsistency.Code,
			Kind:          KindInternal,
			Message:       err.Error(),
			BlockingUnits: []BlockingUnit{},
		}
	}

	diagnostic := Diagnostic{
		ReasonCode:    typed.Code,
		Kind:          typed.Kind,
		Message:       typed.Message,
		BlockingUnits: []BlockingUnit{},
		Suggestions:   typed.Suggestions,
		Retryable:     typed.Retryable(),
	}
	if typed.Report != nil {
		diagnostic.BlockingUnits = typed.Report.BlockingUnits
	}
	return diagnostic
}
