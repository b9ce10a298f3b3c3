package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestIsCode(t *testing.T) {
	base := stderrors.New("connection refused")

	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{
			name: "Direct match",
			err:  New(ErrCodeNotFound, "no session"),
			code: ErrCodeNotFound,
			want: true,
		},
		{
			name: "Wrapped app error",
			err:  Wrap(New(ErrCodeConflict, "taken"), ErrCodeInternalError, "start failed"),
			code: ErrCodeConflict,
			want: true,
		},
		{
			name: "fmt wrapped",
			err:  fmt.Errorf("matching: %w", New(ErrCodePreconditionFailed, "no prefs")),
			code: ErrCodePreconditionFailed,
			want: true,
		},
		{
			name: "Different code",
			err:  Wrap(base, ErrCodeInternalError, "query failed"),
			code: ErrCodeNotFound,
			want: false,
		},
		{
			name: "Plain error",
			err:  base,
			code: ErrCodeInternalError,
			want: false,
		},
		{
			name: "Nil",
			err:  nil,
			code: ErrCodeNotFound,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCode(tt.err, tt.code); got != tt.want {
				t.Errorf("IsCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapUnwrap(t *testing.T) {
	base := stderrors.New("boom")
	err := Wrap(base, ErrCodeInternalError, "failed")

	if !stderrors.Is(err, base) {
		t.Error("errors.Is() should find the wrapped cause")
	}
	if err.Error() != "INTERNAL_ERROR: failed (boom)" {
		t.Errorf("Error() = %q", err.Error())
	}
}
