package metrics

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Error type constants for metrics labels.
const (
	ErrorTypeAuth        = "auth"
	ErrorTypeNotFound    = "not_found"
	ErrorTypeConflict    = "conflict"
	ErrorTypeRateLimit   = "rate_limit"
	ErrorTypeServerError = "server_error"
	ErrorTypeClientError = "client_error"
	ErrorTypeTimeout     = "timeout"
	ErrorTypeNetwork     = "network"
	ErrorTypeUnknown     = "unknown"
)

// ClassifyVaultError classifies an error returned by the vault for metrics labeling.
// Returns an empty string for nil errors.
func ClassifyVaultError(err error) string {
	if err == nil {
		return ""
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return classifyByStatusCode(respErr.StatusCode)
	}

	return classifyByErrorMessage(err.Error())
}

// ClassifyKubernetesError classifies an error returned by the Kubernetes API for metrics labeling.
// Returns an empty string for nil errors.
func ClassifyKubernetesError(err error) string {
	switch {
	case err == nil:
		return ""
	case apierrors.IsNotFound(err):
		return ErrorTypeNotFound
	case apierrors.IsConflict(err), apierrors.IsAlreadyExists(err):
		return ErrorTypeConflict
	case apierrors.IsUnauthorized(err), apierrors.IsForbidden(err):
		return ErrorTypeAuth
	case apierrors.IsTooManyRequests(err):
		return ErrorTypeRateLimit
	case apierrors.IsTimeout(err), apierrors.IsServerTimeout(err):
		return ErrorTypeTimeout
	case apierrors.IsInternalError(err), apierrors.IsServiceUnavailable(err):
		return ErrorTypeServerError
	case apierrors.IsBadRequest(err), apierrors.IsInvalid(err):
		return ErrorTypeClientError
	default:
		return classifyByErrorMessage(err.Error())
	}
}

func classifyByStatusCode(statusCode int) string {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ErrorTypeAuth
	case statusCode == http.StatusNotFound:
		return ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode >= http.StatusInternalServerError && statusCode < 600:
		return ErrorTypeServerError
	case statusCode >= http.StatusBadRequest && statusCode < http.StatusInternalServerError:
		return ErrorTypeClientError
	default:
		return ErrorTypeUnknown
	}
}

func classifyByErrorMessage(errStr string) string {
	errLower := strings.ToLower(errStr)

	switch {
	case strings.Contains(errLower, "timeout") || strings.Contains(errLower, "deadline"):
		return ErrorTypeTimeout
	case strings.Contains(errLower, "connection refused") || strings.Contains(errLower, "no such host"):
		return ErrorTypeNetwork
	default:
		return ErrorTypeUnknown
	}
}
