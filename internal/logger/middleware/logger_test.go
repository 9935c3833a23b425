package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/middlewares"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectedLevel zapcore.Level
	}{
		{name: "success", status: http.StatusOK, body: "ok", expectedLevel: zapcore.InfoLevel},
		{name: "client error", status: http.StatusUnauthorized, body: `{"error":"Unauthorized"}`, expectedLevel: zapcore.WarnLevel},
		{name: "server error", status: http.StatusInternalServerError, body: "", expectedLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			handler := middlewares.RequestIDMiddleware(LoggerMiddleware(zap.New(core))(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(tt.body))
				}),
			))

			req := httptest.NewRequest(http.MethodGet, "/api/users?page=2", nil)
			req.Header.Set("X-Request-ID", "req-42")
			req.Header.Set("X-Forwarded-For", "198.51.100.4")
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.expectedLevel, entry.Level)
			assert.Equal(t, "HTTP request", entry.Message)

			fields := entry.ContextMap()
			assert.Equal(t, "req-42", fields["request_id"])
			assert.Equal(t, "GET", fields["method"])
			assert.Equal(t, "/api/users", fields["path"])
			assert.Equal(t, "page=2", fields["query"])
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, int64(len(tt.body)), fields["bytes"])
			assert.Equal(t, "198.51.100.4", fields["client_ip"])
		})
	}
}

func TestLoggerMiddleware_ImplicitStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := LoggerMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
		w.WriteHeader(http.StatusTeapot) // ignored after a write
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(http.StatusOK), logs.All()[0].ContextMap()["status"])
}
