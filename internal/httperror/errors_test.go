package httperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/park285/llm-kakao-bots/market-oracle-go/internal/oracle"
)

func TestNewOracleFailureAlways500(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{"backend unavailable", &oracle.BackendUnavailableError{FallbackErr: errors.New("quota exceeded")}, ErrorCodeLLM},
		{"no json", &oracle.ExtractionError{Text: "nothing"}, ErrorCodeLLMParsing},
		{"malformed json", &oracle.ParseError{Fragment: "{bad}", Err: errors.New("invalid character 'b'")}, ErrorCodeLLMParsing},
		{"timeout", fmt.Errorf("generate content: %w", context.DeadlineExceeded), ErrorCodeLLMTimeout},
		{"generic", errors.New("boom"), ErrorCodeLLM},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			apiErr := NewOracleFailure(tc.err)
			if apiErr.Status != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", apiErr.Status)
			}
			if apiErr.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, apiErr.Code)
			}
			if apiErr.Message != tc.err.Error() {
				t.Fatalf("expected message %q, got %q", tc.err.Error(), apiErr.Message)
			}
			if !errors.Is(apiErr, tc.err) {
				t.Fatalf("expected wrapped cause")
			}
		})
	}
}

func TestResponseUsesDetailField(t *testing.T) {
	status, payload := Response(NewOracleFailure(oracle.ErrNoJSON), "req-1")
	if status != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", status)
	}
	if payload.Detail != "No JSON found in model output" {
		t.Fatalf("unexpected detail: %s", payload.Detail)
	}
	if payload.RequestID == nil || *payload.RequestID != "req-1" {
		t.Fatalf("expected request id")
	}
}

func TestResponseWithEmptyRequestID(t *testing.T) {
	status, payload := Response(NewInternalError("test"), "")
	if status != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", status)
	}
	if payload.RequestID != nil {
		t.Fatalf("expected nil request id for empty string")
	}
}

func TestFromErrorNil(t *testing.T) {
	if FromError(nil) != nil {
		t.Fatalf("expected nil for nil input")
	}
}

func TestFromErrorGeneric(t *testing.T) {
	apiErr := FromError(errors.New("some generic error"))
	if apiErr == nil || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 for generic error")
	}
}

func TestFromErrorKeepsAPIError(t *testing.T) {
	original := NewUnauthorized(nil)
	if FromError(fmt.Errorf("wrapped: %w", original)) != original {
		t.Fatalf("expected api error to pass through")
	}
}

func TestValidationErrorDetails(t *testing.T) {
	type payload struct {
		Options []string `validate:"required"`
	}
	err := validator.New().Struct(payload{})
	if err == nil {
		t.Fatalf("expected validation error")
	}

	apiErr := FromError(err)
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Code != ErrorCodeValidation {
		t.Fatalf("expected 422 validation error, got %d %s", apiErr.Status, apiErr.Code)
	}
	fields, ok := apiErr.Details["errors"].([]FieldError)
	if !ok || len(fields) != 1 || fields[0].Field != "Options" {
		t.Fatalf("unexpected details: %+v", apiErr.Details)
	}

	generic := NewValidationError(errors.New("invalid character"))
	fields = generic.Details["errors"].([]FieldError)
	if fields[0].Field != "body" {
		t.Fatalf("expected body field for generic decode error")
	}
}

func TestNewInvalidInput(t *testing.T) {
	err := NewInvalidInput("must be positive")
	if err.Status != http.StatusBadRequest || err.Code != ErrorCodeInvalidInput {
		t.Fatalf("unexpected invalid input error: %+v", err)
	}
}

func TestNewUnavailable(t *testing.T) {
	err := NewUnavailable("usage ledger")
	if err.Status != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", err.Status)
	}
	if err.Message != "usage ledger is disabled" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
}

func TestRateLimitAndUnauthorized(t *testing.T) {
	if NewRateLimitExceeded(nil).Status != http.StatusTooManyRequests {
		t.Fatalf("expected 429")
	}
	if NewUnauthorized(nil).Status != http.StatusUnauthorized {
		t.Fatalf("expected 401")
	}
}
