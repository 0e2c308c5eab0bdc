package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHandler struct {
	method string
	params json.RawMessage
	result any
	err    error
}

func (h *testHandler) Handle(_ context.Context, method string, params json.RawMessage) (any, error) {
	h.method = method
	h.params = params
	return h.result, h.err
}

type codedErr struct {
	code string
}

func (e codedErr) Error() string             { return e.code + ": boom" }
func (e codedErr) CodeValue() string         { return e.code }
func (e codedErr) MessageValue() string      { return "boom" }
func (e codedErr) RecoveryHintValue() string { return "try again" }

func postRPC(t *testing.T, url, body string) Response {
	t.Helper()
	resp, err := http.Post(url+"/rpc", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHTTPServer_RPC(t *testing.T) {
	handler := &testHandler{result: []string{}}
	server := httptest.NewServer(NewServer(handler, Options{}))
	t.Cleanup(server.Close)

	resp := postRPC(t, server.URL, `{"jsonrpc":"2.0","method":"list_projects","params":{"root_path":"/tmp"},"id":1}`)
	require.Nil(t, resp.Error)
	assert.Equal(t, "list_projects", handler.method)
	assert.JSONEq(t, `{"root_path":"/tmp"}`, string(handler.params))
	assert.Equal(t, []any{}, resp.Result, "empty lists are still sent")
	assert.Equal(t, float64(1), resp.ID)
}

func TestHTTPServer_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		body     string
		wantCode int
		wantData string
	}{
		{name: "domain", err: codedErr{code: "NOT_FOUND"}, wantCode: ErrDomain, wantData: "NOT_FOUND"},
		{name: "wrapped domain", err: errors.Join(errors.New("ctx"), codedErr{code: "CORRUPT"}), wantCode: ErrDomain, wantData: "CORRUPT"},
		{name: "unknown method", err: codedErr{code: "METHOD_NOT_FOUND"}, wantCode: ErrMethodNotFound, wantData: "METHOD_NOT_FOUND"},
		{name: "bad params", err: codedErr{code: "INVALID_PARAMS"}, wantCode: ErrInvalidParams, wantData: "INVALID_PARAMS"},
		{name: "uncoded", err: errors.New("disk on fire"), wantCode: ErrInternal},
		{name: "parse", body: `{"jsonrpc":`, wantCode: ErrParseCode},
		{name: "no method", body: `{"jsonrpc":"2.0","id":1}`, wantCode: ErrInvalidReq},
		{name: "array params", body: `{"jsonrpc":"2.0","method":"x","params":[1],"id":1}`, wantCode: ErrInvalidReq},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := &testHandler{err: tt.err}
			server := httptest.NewServer(NewServer(handler, Options{}))
			t.Cleanup(server.Close)

			body := tt.body
			if body == "" {
				body = `{"jsonrpc":"2.0","method":"open_project","params":{"path":"/x"},"id":"a"}`
			}
			resp := postRPC(t, server.URL, body)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Nil(t, resp.Result)
			if tt.wantData != "" {
				data, ok := resp.Error.Data.(map[string]any)
				require.True(t, ok, "data should be an object, got %T", resp.Error.Data)
				assert.Equal(t, tt.wantData, data["code"])
				assert.Equal(t, "boom", data["message"])
				assert.Equal(t, "try again", data["recovery_hint"])
			}
		})
	}
}

func TestHTTPServer_Health(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, Options{}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_MountsMCP(t *testing.T) {
	mcp := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	server := httptest.NewServer(NewServer(&testHandler{}, Options{MCP: mcp}))
	t.Cleanup(server.Close)

	resp, err := http.Post(server.URL+"/mcp", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	plain := httptest.NewServer(NewServer(&testHandler{}, Options{}))
	t.Cleanup(plain.Close)
	resp, err = http.Post(plain.URL+"/mcp", "application/json", bytes.NewBufferString(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
