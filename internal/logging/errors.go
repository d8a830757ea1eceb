package logging

import "fmt"

// ErrorKind normalizes upstream outcomes into a short label for logs and metrics.
// A zero status with an error means the request never got a response.
func ErrorKind(status int, hasErr bool) string {
	if hasErr && status == 0 {
		return "network_error"
	}
	switch {
	case status == 429:
		return "upstream_429"
	case status == 401 || status == 403:
		return "upstream_auth"
	case status >= 500 && status < 600:
		return "upstream_5xx"
	case status >= 400 && status < 500:
		return "upstream_4xx"
	}
	if hasErr {
		return "error"
	}
	return "ok"
}

// StatusClass renders an HTTP status as "2xx", "4xx" and so on.
func StatusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return fmt.Sprintf("%dxx", code/100)
}
