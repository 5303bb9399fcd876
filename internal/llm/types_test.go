package llm

import (
	"errors"
	"testing"
)

func TestResultConstructors(t *testing.T) {
	ok := Success("gemini-2.5-flash", "text", Usage{InputTokens: 1})
	if !ok.OK() || ok.Text != "text" || ok.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected success result: %+v", ok)
	}

	cause := errors.New("quota")
	failed := Failure("gemini-2.5-pro", cause)
	if failed.OK() {
		t.Fatalf("expected failure result")
	}
	if !errors.Is(failed.Err, cause) || failed.Model != "gemini-2.5-pro" {
		t.Fatalf("unexpected failure result: %+v", failed)
	}
}
