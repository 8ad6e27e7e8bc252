package metrics

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/stretchr/testify/assert"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Test error definitions for error classification tests.
var (
	errContextDeadline   = errors.New("context deadline exceeded")
	errRequestTimeout    = errors.New("request timeout")
	errConnectionRefused = errors.New("dial tcp: connection refused")
	errNoSuchHost        = errors.New("no such host")
	errRandomError       = errors.New("some random error")
	errWrapper           = errors.New("wrapper")
)

func TestClassifyVaultError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "auth error 401",
			err:      &azcore.ResponseError{StatusCode: http.StatusUnauthorized},
			expected: "auth",
		},
		{
			name:     "auth error 403",
			err:      &azcore.ResponseError{StatusCode: http.StatusForbidden},
			expected: "auth",
		},
		{
			name:     "secret not found",
			err:      &azcore.ResponseError{StatusCode: http.StatusNotFound},
			expected: "not_found",
		},
		{
			name:     "rate limit error",
			err:      &azcore.ResponseError{StatusCode: http.StatusTooManyRequests},
			expected: "rate_limit",
		},
		{
			name:     "server error 503",
			err:      &azcore.ResponseError{StatusCode: http.StatusServiceUnavailable},
			expected: "server_error",
		},
		{
			name:     "client error 400",
			err:      &azcore.ResponseError{StatusCode: http.StatusBadRequest},
			expected: "client_error",
		},
		{
			name:     "timeout error",
			err:      errContextDeadline,
			expected: "timeout",
		},
		{
			name:     "timeout error variant",
			err:      errRequestTimeout,
			expected: "timeout",
		},
		{
			name:     "network error connection refused",
			err:      errConnectionRefused,
			expected: "network",
		},
		{
			name:     "network error no such host",
			err:      errNoSuchHost,
			expected: "network",
		},
		{
			name:     "unknown error",
			err:      errRandomError,
			expected: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := ClassifyVaultError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestClassifyVaultErrorWrapped(t *testing.T) {
	t.Parallel()

	respErr := &azcore.ResponseError{StatusCode: http.StatusUnauthorized}
	wrappedErr := errors.Join(errWrapper, respErr)

	result := ClassifyVaultError(wrappedErr)
	assert.Equal(t, "auth", result)
}

func TestClassifyKubernetesError(t *testing.T) {
	t.Parallel()

	gr := schema.GroupResource{Group: "apps", Resource: "deployments"}

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "not found", err: apierrors.NewNotFound(gr, "demo"), expected: "not_found"},
		{name: "conflict", err: apierrors.NewConflict(gr, "demo", errRandomError), expected: "conflict"},
		{name: "already exists", err: apierrors.NewAlreadyExists(gr, "demo"), expected: "conflict"},
		{name: "forbidden", err: apierrors.NewForbidden(gr, "demo", errRandomError), expected: "auth"},
		{name: "too many requests", err: apierrors.NewTooManyRequests("slow down", 1), expected: "rate_limit"},
		{name: "server timeout", err: apierrors.NewServerTimeout(gr, "get", 1), expected: "timeout"},
		{name: "internal error", err: apierrors.NewInternalError(errRandomError), expected: "server_error"},
		{name: "bad request", err: apierrors.NewBadRequest("bad"), expected: "client_error"},
		{name: "plain network error", err: errConnectionRefused, expected: "network"},
		{name: "plain unknown error", err: errRandomError, expected: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ClassifyKubernetesError(tt.err))
		})
	}
}
