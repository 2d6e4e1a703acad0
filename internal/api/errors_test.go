package api

import (
	"errors"
	"testing"
)

func TestAPIError_Unwrap(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{401, ErrUnauthorized},
		{402, ErrPaymentRequired},
		{404, ErrModelNotFound},
		{429, ErrRateLimited},
		{503, ErrServiceUnavailable},
	}
	for _, tt := range tests {
		err := error(&APIError{StatusCode: tt.status})
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d does not match %v", tt.status, tt.want)
		}
	}

	if err := (&APIError{StatusCode: 500}).Unwrap(); err != nil {
		t.Errorf("status 500 Unwrap() = %v, want nil", err)
	}
}

func TestAPIError_Error(t *testing.T) {
	withMessage := &APIError{StatusCode: 400, Message: "bad model", Body: "{}"}
	if got := withMessage.Error(); got != "API error (status 400): bad model" {
		t.Errorf("Error() = %q", got)
	}
	bodyOnly := &APIError{StatusCode: 500, Body: "upstream down"}
	if got := bodyOnly.Error(); got != "API error (status 500): upstream down" {
		t.Errorf("Error() = %q", got)
	}
}

func TestStreamError_Unwrap(t *testing.T) {
	err := &StreamError{Message: "read failed", Cause: ErrStreamClosed}
	if !errors.Is(err, ErrStreamClosed) {
		t.Error("StreamError does not unwrap to its cause")
	}
	if got := err.Error(); got != "stream error: read failed: stream closed" {
		t.Errorf("Error() = %q", got)
	}
}
