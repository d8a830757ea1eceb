package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemini-pool-go/internal/credential"
	"gemini-pool-go/internal/middleware"
	"gemini-pool-go/internal/storage"
	"gemini-pool-go/internal/translator"
	upgem "gemini-pool-go/internal/upstream/gemini"
)

const (
	poolKey     = "AIzaPoolKeyAAAA1111"
	callerToken = "sk-caller-token"
)

type fakeUpstream struct {
	srv        *httptest.Server
	generate   atomic.Int32
	listModels atomic.Int32
	status     int
	body       string
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{
		status: http.StatusOK,
		body:   `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello there, friend"}]}}]}`,
	}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ":generateContent"):
			f.generate.Add(1)
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
		case strings.HasSuffix(r.URL.Path, "/models"):
			f.listModels.Add(1)
			_, _ = io.WriteString(w, `{"models":[
				{"name":"models/gemini-1.5-pro","supportedGenerationMethods":["generateContent","countTokens"]},
				{"name":"models/text-embedding-004","supportedGenerationMethods":["embedContent"]},
				{"name":"models/embedding-gecko","supportedGenerationMethods":["generateContent"]}
			]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

type gatewayEnv struct {
	router   *gin.Engine
	store    *storage.SQLStore
	upstream *fakeUpstream
	caller   *storage.APIKey
	cache    *storage.MemoryCache
}

func newGatewayEnv(t *testing.T) *gatewayEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := storage.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "gw.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	caller, err := st.CreateAPIKey(context.Background(), "caller", callerToken)
	require.NoError(t, err)

	up := newFakeUpstream(t)
	pool, err := credential.NewPool([]string{poolKey})
	require.NoError(t, err)
	cache := storage.NewMemoryCache()
	h := New(pool, upgem.New(up.srv.URL, 5*time.Second), st, cache, Options{ModelsCacheTTL: time.Minute})

	r := gin.New()
	v1 := r.Group("/v1", middleware.CallerAuth(st))
	v1.POST("/chat/completions", h.ChatCompletions)
	v1.GET("/models", h.ListModels)
	return &gatewayEnv{router: r, store: st, upstream: up, caller: caller, cache: cache}
}

func (e *gatewayEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *gatewayEnv) dashboard(t *testing.T) *storage.Dashboard {
	t.Helper()
	d, err := e.store.Dashboard(context.Background())
	require.NoError(t, err)
	return d
}

const chatBody = `{"model":"gemini-1.5-pro","messages":[{"role":"system","content":"Be nice"},{"role":"user","content":"Hi there"}]}`

func TestChatCompletionsSuccessRecordsUsage(t *testing.T) {
	env := newGatewayEnv(t)

	w := env.do(http.MethodPost, "/v1/chat/completions", callerToken, chatBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp translator.ChatCompletionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.ID, "chatcmpl-"))
	assert.Equal(t, "chat.completion", resp.Object)
	assert.Equal(t, "gemini-1.5-pro", resp.Model)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "assistant", resp.Choices[0].Message.Role)
	assert.Equal(t, "Hello there, friend", string(resp.Choices[0].Message.Content))
	assert.Equal(t, "stop", resp.Choices[0].FinishReason)
	assert.EqualValues(t, 1, env.upstream.generate.Load())

	owner, err := env.store.GetAPIKeyBySecret(context.Background(), poolKey)
	require.NoError(t, err, "pool key is auto-registered")
	assert.Equal(t, "auto-AIzaPool", owner.Name)
	assert.EqualValues(t, 1, owner.TotalRequests)
	// "Be nice" = 2, "Hi there" = 2, "Hello there, friend" = 5
	assert.EqualValues(t, 4, owner.TotalInputTokens)
	assert.EqualValues(t, 5, owner.TotalOutputTokens)

	logs, err := env.store.ListUsageLogs(context.Background(), owner.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, owner.ID, logs[0].APIKeyID)
	assert.Equal(t, EndpointChatCompletions, logs[0].Endpoint)
	assert.Equal(t, "gemini-1.5-pro", logs[0].Model)
	assert.True(t, logs[0].Success)

	w = env.do(http.MethodPost, "/v1/chat/completions", callerToken, chatBody)
	require.Equal(t, http.StatusOK, w.Code)
	owner, err = env.store.GetAPIKey(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, owner.TotalRequests)
	assert.EqualValues(t, 2, env.dashboard(t).TotalAPIKeys, "caller plus one auto-registered pool key")
}

func TestChatCompletionsUnknownBearerNeverReachesUpstream(t *testing.T) {
	env := newGatewayEnv(t)

	for _, token := range []string{"", "sk-unknown"} {
		w := env.do(http.MethodPost, "/v1/chat/completions", token, chatBody)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Invalid or missing API key"}`, w.Body.String())
	}
	assert.Zero(t, env.upstream.generate.Load())
	assert.Zero(t, env.dashboard(t).TotalRequests)
}

func TestChatCompletionsValidationErrors(t *testing.T) {
	env := newGatewayEnv(t)
	cases := map[string]string{
		`{"model":"gemini-1.5-pro","messages":[{"role":"assistant","content":"hi"}]}`: "Conversation must start with a user message after the system prompt.",
		`{"model":"gemini-1.5-pro","messages":[{"role":"tool","content":"x"}]}`:       "Unsupported role: tool",
		`{"messages":[{"role":"user","content":"x"}]}`:                                "model is required",
	}
	for body, msg := range cases {
		w := env.do(http.MethodPost, "/v1/chat/completions", callerToken, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"`+msg+`"}`, w.Body.String(), body)
	}

	w := env.do(http.MethodPost, "/v1/chat/completions", callerToken, `{"model":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Zero(t, env.upstream.generate.Load())
	assert.Zero(t, env.dashboard(t).TotalRequests)
}

func TestChatCompletionsUpstreamFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"error status", http.StatusTooManyRequests, `{"error":{"code":429,"message":"quota exhausted for ` + poolKey + `"}}`},
		{"malformed body", http.StatusOK, `{not json`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newGatewayEnv(t)
			env.upstream.status = tc.status
			env.upstream.body = tc.body

			w := env.do(http.MethodPost, "/v1/chat/completions", callerToken, chatBody)
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.NotContains(t, w.Body.String(), poolKey)
			assert.EqualValues(t, 1, env.upstream.generate.Load())
			assert.Zero(t, env.dashboard(t).TotalRequests)
		})
	}
}

func TestChatCompletionsUpstreamErrorMessage(t *testing.T) {
	env := newGatewayEnv(t)
	env.upstream.status = http.StatusInternalServerError
	env.upstream.body = `{"error":{"message":"backend down"}}`

	w := env.do(http.MethodPost, "/v1/chat/completions", callerToken, chatBody)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to get response from upstream"}`, w.Body.String())
}

type failingLedger struct{ calls atomic.Int32 }

func (f *failingLedger) EnsureAPIKey(context.Context, string, string) (*storage.APIKey, error) {
	f.calls.Add(1)
	return nil, errors.New("ledger offline")
}

func (f *failingLedger) RecordUsage(context.Context, storage.UsageRecord) (*storage.UsageLog, error) {
	return nil, errors.New("unreachable")
}

func TestChatCompletionsLedgerFailureIsSwallowed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	up := newFakeUpstream(t)
	pool, err := credential.NewPool([]string{poolKey})
	require.NoError(t, err)
	ledger := &failingLedger{}
	h := New(pool, upgem.New(up.srv.URL, 5*time.Second), ledger, nil, Options{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(chatBody))
	c.Request.Header.Set("Content-Type", "application/json")
	h.ChatCompletions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, ledger.calls.Load())
}

func TestChatCompletionsRotatesPoolKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Query().Get("key"))
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	t.Cleanup(srv.Close)
	pool, err := credential.NewPool([]string{"key-one-aaaa", "key-two-bbbb", "key-three-cc"})
	require.NoError(t, err)
	h := New(pool, upgem.New(srv.URL, 5*time.Second), nil, nil, Options{})

	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(chatBody))
		h.ChatCompletions(c)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, []string{"key-one-aaaa", "key-two-bbbb", "key-three-cc", "key-one-aaaa"}, seen)
}

func TestListModelsFiltersAndCaches(t *testing.T) {
	env := newGatewayEnv(t)

	for i := 0; i < 2; i++ {
		w := env.do(http.MethodGet, "/v1/models", callerToken, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"object":"list","data":[{"id":"gemini-1.5-pro","object":"model","created":1,"owned_by":"google"}]}`, w.Body.String())
	}
	assert.EqualValues(t, 1, env.upstream.listModels.Load(), "second call served from cache")

	require.NoError(t, env.cache.Delete(context.Background(), modelsCacheKey))
	w := env.do(http.MethodGet, "/v1/models", callerToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, env.upstream.listModels.Load())
}

func TestListModelsUpstreamFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"message":"API key not valid"}}`)
	}))
	t.Cleanup(srv.Close)
	pool, err := credential.NewPool([]string{poolKey})
	require.NoError(t, err)
	h := New(pool, upgem.New(srv.URL, 5*time.Second), nil, storage.NewMemoryCache(), Options{ModelsCacheTTL: time.Minute})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	h.ListModels(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to get response from upstream"}`, w.Body.String())
}

func TestAutoKeyName(t *testing.T) {
	assert.Equal(t, "auto-AIzaSyAB", AutoKeyName("AIzaSyABCDEFG"))
	assert.Equal(t, "auto-short", AutoKeyName("short"))
}
