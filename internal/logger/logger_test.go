package logger

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, parseLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, logrus.WarnLevel, parseLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, parseLevel("error"))
	assert.Equal(t, logrus.InfoLevel, parseLevel(""))
}

func TestNewUsesJSONOutsideLocal(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	l := New("call-quality")
	_, ok := l.Logger.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
	assert.Equal(t, "call-quality", l.Data["service"])
}

func TestNewOptions(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	l := New("qualityctl", WithOutput(&buf), WithLevel("warn"))

	l.Info("hidden")
	l.ForCall("CALL-1").Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"call_id":"CALL-1"`)
}

func TestWithRequestKeepsRequestID(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	var buf bytes.Buffer
	l := New("api", WithOutput(&buf))

	r := httptest.NewRequest("GET", "/v1/calls", nil)
	r.Header.Set("X-Request-ID", "req-123")
	r.Header.Set("User-Agent", "qualityctl/1.0")
	l.WithRequest(r).Info("hello")
	assert.Contains(t, buf.String(), `"user_agent":"qualityctl/1.0"`)
	assert.Contains(t, buf.String(), `"req_id":"req-123"`)
	assert.Contains(t, buf.String(), `"path":"/v1/calls"`)

	r2 := httptest.NewRequest("GET", "/", nil)
	assert.Len(t, RequestID(r2), 36)
}

func TestWithError(t *testing.T) {
	l := Discard().Component("test")
	assert.Equal(t, "test", l.Data["component"])
	assert.Equal(t, "boom", l.WithError(errors.New("boom")).Data["error"])
	assert.NotContains(t, l.WithError(nil).Data, "error")
}
