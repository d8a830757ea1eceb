package errors

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

// Body is the JSON envelope for every error response.
type Body struct {
	Error string `json:"error"`
}

// ToHTTP resolves err into a status code and the caller-visible body.
// Anything that is not an APIError is treated as internal.
func ToHTTP(err error) (int, Body) {
	apiErr, ok := As(err)
	if !ok {
		apiErr = Internal(err)
	}
	status := apiErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return status, Body{Error: apiErr.Message}
}

// Respond writes err to the client and aborts the handler chain.
func Respond(c *gin.Context, err error) {
	status, body := ToHTTP(err)
	c.AbortWithStatusJSON(status, body)
}

// MapHTTPError turns a non-2xx upstream status into an UpstreamError. The
// upstream message is kept in Detail for logging only.
func MapHTTPError(statusCode int, upstreamBody []byte) *APIError {
	detail := firstNonEmpty(ExtractUpstreamMessage(upstreamBody), fmt.Sprintf("HTTP %d", statusCode))
	return Upstream(statusCode2Code(statusCode), detail, nil)
}

func statusCode2Code(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnauthorized, http.StatusForbidden:
		return "permission_denied"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusTooManyRequests:
		return "rate_limit_exceeded"
	case http.StatusGatewayTimeout:
		return "timeout"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "unknown_error"
}

// ExtractUpstreamMessage pulls error.message out of a Gemini error body,
// falling back to the raw body truncated to 200 characters.
func ExtractUpstreamMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
			return msg
		}
	}
	msg := string(body)
	if len(msg) > 200 {
		return msg[:200] + "..."
	}
	return msg
}

func firstNonEmpty(strs ...string) string {
	for _, s := range strs {
		if s != "" {
			return s
		}
	}
	return ""
}
