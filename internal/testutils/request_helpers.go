// Package testutils builds requests the way the router and logging
// middleware would hand them to a session handler.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aaravmahajanofficial/dine-in-preorder/internal/api/middleware"
)

// CreateTestRequest sets path values and a discarding request logger.
func CreateTestRequest(method, target string, body io.Reader, pathParams map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)

	for key, value := range pathParams {
		req.SetPathValue(key, value)
	}

	logger := slog.New(slog.DiscardHandler)
	req = req.WithContext(context.WithValue(req.Context(), middleware.LoggerKey, logger))
	req.Header.Set(middleware.RequestIDHeader, "test-request")

	return req
}

// JSONBody encodes v for a request body. Strings are sent verbatim so tests
// can post malformed JSON.
func JSONBody(t *testing.T, v any) io.Reader {
	t.Helper()

	switch b := v.(type) {
	case nil:
		return http.NoBody
	case string:
		return bytes.NewBufferString(b)
	}

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("encode request body: %v", err)
	}

	return bytes.NewReader(data)
}
