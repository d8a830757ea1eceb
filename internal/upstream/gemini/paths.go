package gemini

import (
	"net/url"
	"strings"
)

// Paths relative to the configured base URL (e.g. https://generativelanguage.googleapis.com/v1beta).
const (
	PathModels         = "/models"
	ActionGenerate     = ":generateContent"
	modelsPrefix       = "models/"
	keyQueryParam      = "key"
	pageTokenParam     = "pageToken"
	redactedKeyPattern = "REDACTED"
)

// GenerateURL builds {base}/models/{model}:generateContent?key={key}. A
// "models/" prefix on model is accepted and not doubled.
func GenerateURL(base, model, key string) string {
	model = strings.TrimPrefix(model, modelsPrefix)
	q := url.Values{keyQueryParam: {key}}
	return base + PathModels + "/" + url.PathEscape(model) + ActionGenerate + "?" + q.Encode()
}

// ModelsURL builds {base}/models?key={key}[&pageToken=...].
func ModelsURL(base, key, pageToken string) string {
	q := url.Values{keyQueryParam: {key}}
	if pageToken != "" {
		q.Set(pageTokenParam, pageToken)
	}
	return base + PathModels + "?" + q.Encode()
}

// RedactURL replaces the key query parameter so the URL is safe to log.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has(keyQueryParam) {
		q.Set(keyQueryParam, redactedKeyPattern)
		u.RawQuery = q.Encode()
	}
	return u.String()
}
