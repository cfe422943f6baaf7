package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := New(ErrorTypeProtocol, 404, "unexpected status for %s", "http://x/a.jpg")
	assert.Equal(t, "protocol error (code 404): unexpected status for http://x/a.jpg", err.Error())

	err = New(ErrorTypeIO, 0, "disk full")
	assert.Equal(t, "io error: disk full", err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(ErrorTypeIO, fs.ErrPermission, "failed to write %s", "a.jpg")

	assert.True(t, stderrors.Is(err, fs.ErrPermission))
	assert.Contains(t, err.Error(), "failed to write a.jpg")
	assert.Contains(t, err.Error(), fs.ErrPermission.Error())
}

func TestTypeOf(t *testing.T) {
	inner := New(ErrorTypeNetwork, 0, "connection refused")
	wrapped := fmt.Errorf("fetch: %w", inner)

	assert.Equal(t, ErrorTypeNetwork, TypeOf(wrapped))
	assert.True(t, Is(wrapped, ErrorTypeNetwork))
	assert.False(t, Is(wrapped, ErrorTypeIO))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
	assert.False(t, Is(nil, ErrorTypeUnknown))
}

func TestIsRetryableStatusCode(t *testing.T) {
	cases := map[int]bool{
		0:   true,
		429: true,
		500: true,
		503: true,
		401: false,
		404: false,
		400: false,
	}
	for code, want := range cases {
		assert.Equal(t, want, IsRetryableStatusCode(code), "status %d", code)
	}
}
