package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/xampp-tools/internal/toolerr"
	"github.com/hurou927/xampp-tools/internal/tools"
)

func testRegistry() *tools.Registry {
	echo := &tools.Tool{
		Name:     "echo",
		Title:    "Echo",
		Params:   []tools.Param{{Name: "msg", Type: tools.String, Required: true}, {Name: "port", Type: tools.Number}},
		ReadOnly: true,
		Handler: func(_ context.Context, args tools.Args) (*tools.Result, error) {
			msg, err := args.String("msg")
			if err != nil {
				return nil, err
			}
			port, err := args.Int("port", 3306)
			if err != nil {
				return nil, err
			}
			return &tools.Result{Text: msg, Data: map[string]any{"port": port}}, nil
		},
	}
	drop := &tools.Tool{
		Name:        "drop",
		Params:      []tools.Param{{Name: "confirmed", Type: tools.Boolean}},
		Destructive: true,
		Handler: func(context.Context, tools.Args) (*tools.Result, error) {
			return nil, toolerr.New(toolerr.ErrConfirmationRequired, "Operation requires confirmed=true")
		},
	}
	return tools.NewRegistry(echo, drop)
}

func do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	NewRouter(testRegistry()).ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestRequestIDIsKept(t *testing.T) {
	w := do(t, http.MethodGet, "/healthz", "", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestListTools(t *testing.T) {
	w := do(t, http.MethodGet, "/tools", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Tools []ToolInfo `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Tools, 2)
	assert.Equal(t, "echo", body.Tools[0].Name)
	assert.True(t, body.Tools[0].Hints.ReadOnly)
	assert.Len(t, body.Tools[0].Params, 2)
	assert.Equal(t, "drop", body.Tools[1].Name)
	assert.True(t, body.Tools[1].Hints.Destructive)
	assert.True(t, body.Tools[1].Hints.NeedsConfirmation)
}

func TestCallTool(t *testing.T) {
	w := do(t, http.MethodPost, "/tools/echo", `{"msg":"hello","port":8080}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"content":"hello","data":{"port":8080}}`, w.Body.String())
}

func TestCallToolErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
		msg    string
	}{
		{"unknown tool", "/tools/nope", `{}`, http.StatusNotFound, "NOT_FOUND", "Unknown tool: nope"},
		{"array body", "/tools/echo", `[1,2]`, http.StatusBadRequest, "INVALID_INPUT", "request body must be a JSON object"},
		{"broken json", "/tools/echo", `{"msg":`, http.StatusBadRequest, "INVALID_INPUT", "request body must be a JSON object"},
		{"missing arg", "/tools/echo", ``, http.StatusOK, "INVALID_INPUT", "msg is required"},
		{"unknown param", "/tools/echo", `{"msg":"x","extra":1}`, http.StatusOK, "INVALID_INPUT", "unknown parameter(s) for echo: extra"},
		{"fractional port", "/tools/echo", `{"msg":"x","port":1.5}`, http.StatusOK, "INVALID_INPUT", "port must be an integer"},
		{"huge port", "/tools/echo", `{"msg":"x","port":1e20}`, http.StatusOK, "INVALID_INPUT", "port is out of range"},
		{"trailing data", "/tools/echo", `{"msg":"x"} trailing`, http.StatusBadRequest, "INVALID_INPUT", "request body must be a single JSON object"},
		{"two objects", "/tools/echo", `{"msg":"x"}{"msg":"y"}`, http.StatusBadRequest, "INVALID_INPUT", "request body must be a single JSON object"},
		{"tool failure", "/tools/drop", `{}`, http.StatusOK, "CONFIRMATION_REQUIRED", "Operation requires confirmed=true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, http.MethodPost, tt.path, tt.body, nil)
			require.Equal(t, tt.status, w.Code)

			var body ToolError
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.True(t, body.IsError)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.msg, body.Content)
		})
	}
}

func TestNewServerTimeouts(t *testing.T) {
	srv := New(testRegistry(), ":0")
	assert.Equal(t, ":0", srv.Addr)
	assert.Equal(t, WriteTimeout, srv.WriteTimeout)
	assert.NotNil(t, srv.Handler)
}
