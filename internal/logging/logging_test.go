package logging

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"gemini-pool-go/internal/config"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLevels(t *testing.T) {
	cfg := config.Defaults()
	require.NoError(t, Setup(cfg))
	assert.Equal(t, log.InfoLevel, log.GetLevel())

	cfg.Logging.Debug = true
	require.NoError(t, Setup(cfg))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	SetDebug(false)
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestSetupWritesLogFile(t *testing.T) {
	cfg := config.Defaults()
	cfg.Logging.LogFile = filepath.Join(t.TempDir(), "logs", "gateway.log")
	require.NoError(t, Setup(cfg))
	t.Cleanup(func() { _ = Setup(config.Defaults()) })

	log.Info("hello file")
	data, err := os.ReadFile(cfg.Logging.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}

func TestWithReq(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/v1/chat/completions", nil)
	c.Set("request_id", "rid-1")

	entry := WithReq(c, log.Fields{"model": "gemini-pro", "path": "override"})
	assert.Equal(t, "rid-1", entry.Data["request_id"])
	assert.Equal(t, "POST", entry.Data["method"])
	assert.Equal(t, "override", entry.Data["path"])
	assert.Equal(t, "gemini-pro", entry.Data["model"])

	assert.NotNil(t, WithReq(nil, log.Fields{"a": 1}))
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "****", MaskKey("short"))
	assert.Equal(t, "AIza...wxyz", MaskKey("AIzaSyABCDEFGHwxyz"))
}

func TestErrorKindAndStatusClass(t *testing.T) {
	assert.Equal(t, "network_error", ErrorKind(0, true))
	assert.Equal(t, "upstream_429", ErrorKind(429, false))
	assert.Equal(t, "upstream_auth", ErrorKind(403, false))
	assert.Equal(t, "upstream_5xx", ErrorKind(503, false))
	assert.Equal(t, "upstream_4xx", ErrorKind(404, false))
	assert.Equal(t, "ok", ErrorKind(200, false))
	assert.Equal(t, "2xx", StatusClass(200))
	assert.Equal(t, "error", StatusClass(0))
}
