package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	a := New(CodeSessionAlreadyEnded, "session sess-1 already ended")
	b := New(CodeSessionAlreadyEnded, "different message")
	if !stderrors.Is(a, b) {
		t.Fatal("expected errors with the same code to match")
	}
	c := New(CodeNotFound, "session not found")
	if stderrors.Is(a, c) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("row scan failed")
	err := Wrap(CodeUnknown, "load session", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be found")
	}
}

func TestKindClassification(t *testing.T) {
	tests := []struct {
		code Code
		kind Kind
		grpc codes.Code
	}{
		{CodeNotFound, KindNotFound, codes.NotFound},
		{CodeSessionScoreOutOfBounds, KindValidation, codes.InvalidArgument},
		{CodeSessionInvalidScoreBounds, KindValidation, codes.InvalidArgument},
		{CodeSessionStatusNotTerminal, KindValidation, codes.InvalidArgument},
		{CodeModuleInvalidGradeMethod, KindValidation, codes.InvalidArgument},
		{CodeSessionAlreadyEnded, KindInvalidState, codes.FailedPrecondition},
		{CodeUnknown, KindUnknown, codes.Internal},
	}
	for _, tc := range tests {
		if got := tc.code.KindOf(); got != tc.kind {
			t.Fatalf("code %s: expected kind %d, got %d", tc.code, tc.kind, got)
		}
		if got := tc.code.GRPCCode(); got != tc.grpc {
			t.Fatalf("code %s: expected grpc code %s, got %s", tc.code, tc.grpc, got)
		}
	}
}

func TestKindHelpers(t *testing.T) {
	if !IsNotFound(New(CodeNotFound, "missing")) {
		t.Fatal("expected IsNotFound")
	}
	if !IsValidation(New(CodeSessionScoreOutOfBounds, "bad score")) {
		t.Fatal("expected IsValidation")
	}
	if !IsInvalidState(New(CodeSessionAlreadyEnded, "ended")) {
		t.Fatal("expected IsInvalidState")
	}
	if IsNotFound(fmt.Errorf("plain error")) {
		t.Fatal("expected plain errors to classify as unknown")
	}
}

func TestHandleErrorMapsDomainError(t *testing.T) {
	err := WithMetadata(CodeSessionScoreOutOfBounds, "score 15 outside [0,10]", map[string]string{
		"Score":    "15",
		"MinScore": "0",
		"MaxScore": "10",
	})

	st, ok := status.FromError(HandleError(err, ""))
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %s", st.Code())
	}
	if st.Message() != "score 15 outside [0,10]" {
		t.Fatalf("unexpected status message %q", st.Message())
	}
}

func TestHandleErrorUnknown(t *testing.T) {
	st, ok := status.FromError(HandleError(fmt.Errorf("boom"), ""))
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.Internal {
		t.Fatalf("expected Internal, got %s", st.Code())
	}
}

func TestHandleErrorNil(t *testing.T) {
	if HandleError(nil, "en-US") != nil {
		t.Fatal("expected nil for nil error")
	}
}
