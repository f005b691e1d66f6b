package apperr

import (
	"errors"
	"strings"
	"testing"
)

func TestWithDetail_DoesNotMutateSharedSingleton(t *testing.T) {
	before := len(ErrParseInvalidFormat.Details)

	derived := ErrParseInvalidFormat.WithDetail("got_fields", 3)

	if len(ErrParseInvalidFormat.Details) != before {
		t.Fatalf("expected the package-level singleton to be left untouched, got %d details", len(ErrParseInvalidFormat.Details))
	}
	if derived.Details["got_fields"] != 3 {
		t.Fatalf("expected the derived error to carry the new detail, got %v", derived.Details)
	}
}

func TestWithDetail_ChainedCallsDoNotAliasMaps(t *testing.T) {
	a := ErrParseInvalidNumber.WithDetail("value", "x")
	b := ErrParseInvalidNumber.WithDetail("value", "y")

	if a.Details["value"] == b.Details["value"] && a.Details["value"] != "x" {
		t.Fatal("expected a and b to have independent Details maps")
	}
	if a.Details["value"] != "x" || b.Details["value"] != "y" {
		t.Fatalf("expected independent details, got a=%v b=%v", a.Details, b.Details)
	}
}

func TestWithCause_Unwraps(t *testing.T) {
	cause := New(CodeParseInvalidNumber, "underlying")
	wrapped := ErrParseInvalidNumber.WithCause(cause)

	if wrapped.Unwrap() != cause {
		t.Fatal("expected Unwrap to return the attached cause")
	}
	if ErrParseInvalidNumber.Cause != nil {
		t.Fatal("expected the singleton's own Cause to remain nil")
	}
}

func TestError_MessageIncludesCauseWhenPresent(t *testing.T) {
	base := New(CodeUnknownOrderID, "order id not found").WithCause(errors.New("boom"))
	msg := base.Error()
	if !strings.Contains(msg, "boom") {
		t.Fatalf("expected the error string to include the cause, got %q", msg)
	}
}
