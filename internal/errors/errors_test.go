package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrTransport,
		ErrNotFound,
		ErrMalformed,
		ErrTUI,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "Invalid configuration in .esdbtop.yaml",
			suggestion: "Check your configuration file syntax",
		},
		{
			name:       "transport error",
			code:       ErrTransport,
			message:    "Cannot reach http://localhost:2113",
			suggestion: "Check the node is running",
		},
		{
			name:       "malformed error",
			code:       ErrMalformed,
			message:    "Unexpected gossip payload",
			suggestion: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		expectedParts []string
		notExpected   []string
	}{
		{
			name:          "basic error formatting",
			err:           New(ErrConfig, "Invalid configuration", "Check .esdbtop.yaml syntax"),
			expectedParts: []string{"✗", "Invalid configuration", "Check .esdbtop.yaml syntax"},
		},
		{
			name:          "error without suggestion",
			err:           New(ErrTransport, "Call failed", ""),
			expectedParts: []string{"Call failed"},
			notExpected:   []string{"suggestion"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.err.Error()

			for _, part := range tt.expectedParts {
				assert.Contains(t, output, part)
			}
			for _, part := range tt.notExpected {
				assert.NotContains(t, output, part)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(cause, "GET /stats failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrTransport, wrapped.Code, "Wrap should default to ErrTransport code")
	assert.Equal(t, cause, wrapped.Cause)
	assert.True(t, IsTransport(wrapped))
}

func TestWrapWithCode(t *testing.T) {
	cause := errors.New("file not found")
	wrapped := WrapWithCode(cause, ErrConfig, "Failed to load config", "Run 'esdbtop init'")

	assert.Equal(t, ErrConfig, wrapped.Code)
	assert.Equal(t, "Run 'esdbtop init'", wrapped.Suggestion)
	assert.Contains(t, wrapped.Error(), "file not found")
	assert.True(t, errors.Is(wrapped, cause))
}

func TestNotFound(t *testing.T) {
	err := NotFound("stream 'orders'")

	assert.True(t, IsNotFound(err))
	assert.False(t, IsTransport(err))
	assert.Contains(t, err.Error(), "stream 'orders' not found")
}

func TestMalformed(t *testing.T) {
	cause := errors.New("invalid character 'x'")
	err := Malformed(cause, "projection metadata")

	assert.True(t, IsMalformed(err))
	assert.Contains(t, err.Error(), "projection metadata")
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIsCode(t *testing.T) {
	err := New(ErrConfig, "Config error", "")

	assert.True(t, IsCode(err, ErrConfig))
	assert.False(t, IsCode(err, ErrTransport))
	assert.False(t, IsCode(errors.New("standard error"), ErrConfig))
	assert.False(t, IsCode(nil, ErrConfig))

	// Codes survive fmt wrapping
	assert.True(t, IsNotFound(fmt.Errorf("reading: %w", NotFound("x"))))
}

func TestErrorMessageStructure(t *testing.T) {
	err := WrapWithCode(
		errors.New("dial tcp 127.0.0.1:2113: connect: connection refused"),
		ErrTransport,
		"Cannot reach the event store",
		"Check --endpoint",
	)

	lines := strings.Split(err.Error(), "\n")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[0]), "✗"))
	assert.Contains(t, lines[0], "Cannot reach the event store")
}
