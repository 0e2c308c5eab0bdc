// Package testserver runs the JSON-RPC HTTP server over real services for tests.
package testserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/assaylabs/assay/internal/app"
	"github.com/assaylabs/assay/internal/config"
	"github.com/assaylabs/assay/internal/domain/project"
	"github.com/assaylabs/assay/internal/testutil"
	"github.com/assaylabs/assay/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server *httptest.Server
	App    *app.App
	// Root is a canonical temp directory for projects.
	Root string
}

func New(t *testing.T) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.Store.LockTimeout = 5 * time.Second
	a := app.New(cfg, testutil.NewTestLogger(t))

	root, err := project.Canonicalize(t.TempDir())
	require.NoError(t, err)

	server := httptest.NewServer(transport.NewServer(a.Handler(), transport.Options{Logger: a.Logger}))
	t.Cleanup(server.Close)

	return &TestServer{Server: server, App: a, Root: root}
}

// Call posts one JSON-RPC request and decodes the response envelope.
func (ts *TestServer) Call(t *testing.T, method string, params any) transport.Response {
	t.Helper()

	raw, err := json.Marshal(params)
	require.NoError(t, err)
	body, err := json.Marshal(transport.Request{JSONRPC: "2.0", Method: method, Params: raw, ID: 1})
	require.NoError(t, err)

	resp, err := http.Post(ts.Server.URL+"/rpc", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out transport.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// CallInto calls method and decodes a successful result into out.
func (ts *TestServer) CallInto(t *testing.T, method string, params, out any) {
	t.Helper()
	resp := ts.Call(t, method, params)
	require.Nil(t, resp.Error, "%s failed: %+v", method, resp.Error)
	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

// ErrorCode returns the domain code of a failed call, or "" on success.
func ErrorCode(resp transport.Response) string {
	if resp.Error == nil {
		return ""
	}
	data, ok := resp.Error.Data.(map[string]any)
	if !ok {
		return ""
	}
	code, _ := data["code"].(string)
	return code
}
