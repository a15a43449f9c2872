package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("Please generate audio and image", nil), KindValidation},
		{"persistence", Persistence("Error submitting form", cause), KindPersistence},
		{"wrapped", fmt.Errorf("submit: %w", Generation("speech failed", cause)), KindGeneration},
		{"plain", cause, ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("db down")
	err := Persistence("Error submitting form", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if err.Error() != "Error submitting form: db down" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !Is(err, KindPersistence) {
		t.Error("expected persistence kind")
	}
	if Is(nil, KindPersistence) {
		t.Error("nil must not match any kind")
	}
}
