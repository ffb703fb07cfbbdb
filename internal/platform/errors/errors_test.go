package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(CodeCohortNameTaken, "create cohort", stderrors.New("unique constraint"))
	if got := err.Error(); got != "create cohort: unique constraint" {
		t.Fatalf("Error() = %q", got)
	}
	if New(CodeCohortNotFound, "missing").Error() != "missing" {
		t.Fatal("expected plain message")
	}
	if got := (&Error{Cause: stderrors.New("boom")}).Error(); got != "boom" {
		t.Fatalf("Error() = %q, want cause text", got)
	}
}

func TestGetCodeThroughWrapping(t *testing.T) {
	base := New(CodeUserNotFound, "user benoit not found")
	wrapped := fmt.Errorf("add member: %w", base)

	if got := GetCode(wrapped); got != CodeUserNotFound {
		t.Fatalf("GetCode = %s, want %s", got, CodeUserNotFound)
	}
	if !IsCode(wrapped, CodeUserNotFound) {
		t.Fatal("expected IsCode to match wrapped error")
	}
	if IsCode(wrapped, CodeCohortNotFound) {
		t.Fatal("expected IsCode to reject other code")
	}
	if GetCode(stderrors.New("plain")) != CodeUnknown {
		t.Fatal("expected unknown code for plain error")
	}
	if GetCode(nil) != CodeUnknown {
		t.Fatal("expected unknown code for nil")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeCohortNameEmpty, http.StatusBadRequest},
		{CodeUsernameEmpty, http.StatusBadRequest},
		{CodeCohortNotFound, http.StatusNotFound},
		{CodeUserNotFound, http.StatusNotFound},
		{CodeFeatureUnknown, http.StatusNotFound},
		{CodeCohortNameTaken, http.StatusConflict},
		{CodeCSRFInvalid, http.StatusForbidden},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("%s.HTTPStatus() = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestMessageKeyFallsBackToInternal(t *testing.T) {
	if CodeCSRFInvalid.MessageKey() != "error.csrf_invalid" {
		t.Fatal("expected csrf message key")
	}
	if Code("SOMETHING_ELSE").MessageKey() != "error.internal" {
		t.Fatal("expected internal fallback")
	}
}
