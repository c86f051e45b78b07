// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Session validation errors
	CodeSessionEmptyContentID       Code = "SESSION_EMPTY_CONTENT_ID"
	CodeSessionEmptyUserID          Code = "SESSION_EMPTY_USER_ID"
	CodeSessionInvalidStatus        Code = "SESSION_INVALID_STATUS"
	CodeSessionStatusNotTerminal    Code = "SESSION_STATUS_NOT_TERMINAL"
	CodeSessionInvalidScoreBounds   Code = "SESSION_INVALID_SCORE_BOUNDS"
	CodeSessionScoreOutOfBounds     Code = "SESSION_SCORE_OUT_OF_BOUNDS"
	CodeSessionPassingScoreOutOfMax Code = "SESSION_PASSING_SCORE_OUT_OF_BOUNDS"
	CodeSessionNegativeDuration     Code = "SESSION_NEGATIVE_DURATION"

	// Session lifecycle errors
	CodeSessionAlreadyEnded Code = "SESSION_ALREADY_ENDED"

	// Module/grading errors
	CodeModuleInvalidGradeMethod Code = "MODULE_INVALID_GRADE_METHOD"

	// Report errors
	CodeReportInvalidFilter Code = "REPORT_INVALID_FILTER"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// Kind classifies codes into the three caller-visible failure categories.
type Kind int

const (
	// KindUnknown covers internal or unclassified failures.
	KindUnknown Kind = iota
	// KindNotFound covers unknown session/content/module identifiers.
	KindNotFound
	// KindValidation covers malformed input and inconsistent score bounds.
	KindValidation
	// KindInvalidState covers operations attempted in the wrong lifecycle state.
	KindInvalidState
)

// KindOf maps a code to its failure category.
func (c Code) KindOf() Kind {
	switch c {
	case CodeSessionEmptyContentID,
		CodeSessionEmptyUserID,
		CodeSessionInvalidStatus,
		CodeSessionStatusNotTerminal,
		CodeSessionInvalidScoreBounds,
		CodeSessionScoreOutOfBounds,
		CodeSessionPassingScoreOutOfMax,
		CodeSessionNegativeDuration,
		CodeModuleInvalidGradeMethod,
		CodeReportInvalidFilter:
		return KindValidation

	case CodeSessionAlreadyEnded:
		return KindInvalidState

	case CodeNotFound:
		return KindNotFound

	default:
		return KindUnknown
	}
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c.KindOf() {
	case KindValidation:
		return codes.InvalidArgument
	case KindInvalidState:
		return codes.FailedPrecondition
	case KindNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}
