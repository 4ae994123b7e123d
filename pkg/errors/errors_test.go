package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Errorf("MetadataFor(%s).HTTPStatus = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", meta.HTTPStatus)
	}
}

func TestAsUnwrapsThroughFmtErrorf(t *testing.T) {
	inner := New(CodeStateConflict, "order already paid")
	wrapped := fmt.Errorf("capture payment: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeStateConflict {
		t.Fatalf("code = %s, want %s", typed.Code(), CodeStateConflict)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("connection refused")
	err := Wrap(CodeDependency, cause, "gateway unreachable")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if len(Chain(err)) != 2 {
		t.Fatalf("chain length = %d, want 2", len(Chain(err)))
	}
}

func TestNilSafety(t *testing.T) {
	var e *Error
	if e.Code() != CodeInternal {
		t.Fatalf("nil code = %s", e.Code())
	}
	if e.Error() != "" || e.Message() != "" || e.Details() != nil {
		t.Fatal("nil accessors should be zero values")
	}
}
