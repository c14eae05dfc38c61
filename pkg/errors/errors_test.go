package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(CodeNotFound, "order not found")
	if err.Code() != CodeNotFound {
		t.Fatalf("unexpected code %s", err.Code())
	}
	if err.Message() != "order not found" {
		t.Fatalf("unexpected message %s", err.Message())
	}
	if err.Error() != "NOT_FOUND: order not found" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "gateway call failed")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("wrapped error must unwrap to its cause")
	}

	var typed *Error
	if !stdErrors.As(fmt.Errorf("outer: %w", err), &typed) {
		t.Fatalf("typed error must survive further wrapping")
	}
	if typed.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestWrapNilCauseBehavesLikeNew(t *testing.T) {
	err := Wrap(CodeInternal, nil, "boom")
	if err.Unwrap() != nil {
		t.Fatalf("expected no cause")
	}
	if err.Code() != CodeInternal {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad input").WithDetails(map[string]any{"field": "email"})
	details, ok := err.Details().(map[string]any)
	if !ok || details["field"] != "email" {
		t.Fatalf("unexpected details %v", err.Details())
	}
}

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeRateLimit, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{CodeDependency, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s).HTTPStatus = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor(Code("MADE_UP"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown codes must map to 500, got %d", meta.HTTPStatus)
	}
}

func TestAsHelper(t *testing.T) {
	if As(nil) != nil {
		t.Fatalf("As(nil) must be nil")
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatalf("plain errors must not convert")
	}
	typed := New(CodeConflict, "dup")
	if got := As(fmt.Errorf("wrap: %w", typed)); got == nil || got.Code() != CodeConflict {
		t.Fatalf("expected typed error back, got %v", got)
	}
}
