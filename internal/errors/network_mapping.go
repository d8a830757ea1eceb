package errors

import (
	"context"
	stderrors "errors"
	"net"
	"strings"
)

// MapNetworkError wraps a transport failure as an UpstreamError. Deadline
// expiry is labelled "timeout" so it can be told apart in logs and metrics.
func MapNetworkError(err error) *APIError {
	return Upstream(classifyNetwork(err), "", err)
}

func classifyNetwork(err error) string {
	if err == nil {
		return "network_error"
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	if stderrors.Is(err, context.Canceled) {
		return "request_canceled"
	}
	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused"),
		strings.Contains(errMsg, "connection reset"),
		strings.Contains(errMsg, "EOF"):
		return "connection_error"
	case strings.Contains(errMsg, "no such host"):
		return "dns_error"
	case strings.Contains(errMsg, "certificate"), strings.Contains(errMsg, "tls"):
		return "tls_error"
	default:
		return "network_error"
	}
}
