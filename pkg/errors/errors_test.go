package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewFormatsMessage(t *testing.T) {
	err := New(ErrCodeSceneNotFound, "scene %q not found", "checkout")

	if err.Code != ErrCodeSceneNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeSceneNotFound)
	}
	if err.Message != `scene "checkout" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if got, want := err.Error(), `SCENE_NOT_FOUND: scene "checkout" not found`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestErrorStringWithCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeStore, cause, "loading scene %s", "abc123")

	want := "STORE_ERROR: loading scene abc123: connection refused"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrCodeCache, cause, "writing entry")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want the original cause", errors.Unwrap(err))
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause through the wrapper")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeInvalidInput, "bad flow"), ErrCodeInvalidInput, true},
		{"different code", New(ErrCodeInvalidInput, "bad flow"), ErrCodeStore, false},
		{"outer code wins", Wrap(ErrCodeStore, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeStore, true},
		{"stdlib wrapping traversed", fmt.Errorf("handler: %w", New(ErrCodeSessionNotFound, "gone")), ErrCodeSessionNotFound, true},
		{"plain error", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil error", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"structured error", New(ErrCodeRenderFailed, "graphviz failed"), ErrCodeRenderFailed},
		{"wrapped in stdlib error", fmt.Errorf("render: %w", New(ErrCodeRenderFailed, "graphviz failed")), ErrCodeRenderFailed},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	structured := New(ErrCodeInvalidScene, "scene name may only contain letters, digits, - and _")
	if got := UserMessage(structured); got != structured.Message {
		t.Errorf("UserMessage() = %q, want the bare message", got)
	}

	plain := errors.New("open /tmp/x: no such file")
	if got := UserMessage(plain); got != plain.Error() {
		t.Errorf("UserMessage() = %q, want the error string", got)
	}
}

func TestSessionLimitError(t *testing.T) {
	withLimit := &SessionLimitError{Limit: 16}
	if got, want := withLimit.Error(), "session limit reached: at most 16 concurrent sessions"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var zero SessionLimitError
	if got, want := zero.Error(), "session limit reached"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if withLimit.Code() != ErrCodeSessionLimit {
		t.Errorf("Code() = %v, want %v", withLimit.Code(), ErrCodeSessionLimit)
	}
}
