package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membank/membank/internal/progress"
)

func newTestHTTPServer(tools ...Tool) *HTTPServer {
	return NewHTTPServer(newTestServer(tools...), testLogger())
}

func postMCP(t *testing.T, url, sessionID, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/mcp", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func initializeSession(t *testing.T, url string) string {
	t.Helper()
	resp := postMCP(t, url, "",
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"clientInfo":{"name":"test"}}}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id := resp.Header.Get(SessionHeader)
	require.NotEmpty(t, id)
	return id
}

func TestHTTPInitializeCreatesSession(t *testing.T) {
	h := newTestHTTPServer()
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	id := initializeSession(t, srv.URL)
	assert.NotNil(t, h.table.Get(id))
}

func TestHTTPRequestsRequireSession(t *testing.T) {
	h := newTestHTTPServer()
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp := postMCP(t, srv.URL, "", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postMCP(t, srv.URL, "no-such-session", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPToolsCall(t *testing.T) {
	echo := &stubTool{name: "echo", execute: func(_ context.Context, params json.RawMessage) (*ToolsCallResult, error) {
		var p map[string]any
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, err
		}
		return JSONResult(p)
	}}
	h := newTestHTTPServer(echo)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	id := initializeSession(t, srv.URL)
	resp := postMCP(t, srv.URL, id,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"k":"v"}}}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Result struct {
			StructuredContent map[string]any `json:"structuredContent"`
			IsError           bool           `json:"isError"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.Result.IsError)
	assert.Equal(t, map[string]any{"k": "v"}, out.Result.StructuredContent)
}

func TestHTTPNotificationAccepted(t *testing.T) {
	h := newTestHTTPServer()
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	id := initializeSession(t, srv.URL)
	resp := postMCP(t, srv.URL, id, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestHTTPBatchSharesSession(t *testing.T) {
	noop := &stubTool{name: "noop", execute: func(context.Context, json.RawMessage) (*ToolsCallResult, error) {
		return JSONResult(map[string]string{"ok": "yes"})
	}}
	h := newTestHTTPServer(noop)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	id := initializeSession(t, srv.URL)
	resp := postMCP(t, srv.URL, id, `[
		{"jsonrpc":"2.0","id":2,"method":"tools/list"},
		{"jsonrpc":"2.0","method":"notifications/initialized"},
		{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"noop"}}
	]`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var responses []Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&responses))
	// notification dropped from the batch response
	require.Len(t, responses, 2)
	assert.Equal(t, "2", string(responses[0].ID))
	assert.Equal(t, "3", string(responses[1].ID))
}

func TestHTTPDeleteTerminatesSession(t *testing.T) {
	h := newTestHTTPServer()
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	id := initializeSession(t, srv.URL)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/mcp", nil)
	require.NoError(t, err)
	req.Header.Set(SessionHeader, id)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// the session is gone for later requests and repeated deletes
	post := postMCP(t, srv.URL, id, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	post.Body.Close()
	assert.Equal(t, http.StatusNotFound, post.StatusCode)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPStreamRequiresEventStreamAccept(t *testing.T) {
	h := newTestHTTPServer()
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	id := initializeSession(t, srv.URL)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/mcp", nil)
	require.NoError(t, err)
	req.Header.Set(SessionHeader, id)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPProgressStream(t *testing.T) {
	emit := &stubTool{name: "emit", execute: func(ctx context.Context, _ json.RawMessage) (*ToolsCallResult, error) {
		progress.FromContext(ctx).Notify(ctx, progress.Event{Status: "running", Message: "halfway", Percent: 50})
		return JSONResult(map[string]string{"ok": "yes"})
	}}
	h := newTestHTTPServer(emit)
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	id := initializeSession(t, srv.URL)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/mcp", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set(SessionHeader, id)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stream.Body.Close()
	require.Equal(t, http.StatusOK, stream.StatusCode)

	// wait for the stream registration before triggering the tool
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.streams[id] != nil
	}, time.Second, 5*time.Millisecond)

	resp := postMCP(t, srv.URL, id,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"emit"}}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(stream.Body)
	var data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			break
		}
	}

	var n struct {
		Method string         `json:"method"`
		Params ProgressParams `json:"params"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &n))
	assert.Equal(t, MethodProgress, n.Method)
	assert.Equal(t, "running", n.Params.Status)
	assert.Equal(t, "halfway", n.Params.Message)
}

func TestHTTPHealthz(t *testing.T) {
	h := newTestHTTPServer()
	srv := httptest.NewServer(h.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
