package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	err := New(CodeInvalidCredentials, "provider rejected credentials")
	assert.Equal(t, CodeInvalidCredentials, CodeOf(err))

	wrapped := fmt.Errorf("login: %w", err)
	assert.Equal(t, CodeInvalidCredentials, CodeOf(wrapped))

	assert.Equal(t, CodeUnknown, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeUnknown, CodeOf(nil))
}

func TestIsMatchesOnCode(t *testing.T) {
	err := Wrap(CodeRateLimited, "too many attempts", errors.New("429"))
	assert.True(t, errors.Is(err, New(CodeRateLimited, "")))
	assert.False(t, errors.Is(err, New(CodeUnknown, "")))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeProviderUnavailable, "provider init failed", cause)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "provider_unavailable")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidCredentials:  http.StatusUnauthorized,
		CodeRateLimited:         http.StatusTooManyRequests,
		CodeAccountNotFound:     http.StatusNotFound,
		CodeEmailAlreadyInUse:   http.StatusConflict,
		CodeInvalidEmail:        http.StatusBadRequest,
		CodeWeakPassword:        http.StatusBadRequest,
		CodeBadRequest:          http.StatusBadRequest,
		CodeProviderSignIn:      http.StatusBadGateway,
		CodeProviderUnavailable: http.StatusServiceUnavailable,
		CodeUnknown:             http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
