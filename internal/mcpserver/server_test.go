package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/54b3r/hsearch/internal/document"
)

type fakeSearcher struct {
	results []document.Result
	err     error
	detail  document.Detail
	found   bool
	getErr  error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, topK int, filters document.Filters) ([]document.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeSearcher) GetChunk(ctx context.Context, chunkID string) (document.Detail, bool, error) {
	if f.getErr != nil {
		return document.Detail{}, false, f.getErr
	}
	return f.detail, f.found, nil
}

func newTestServer(t *testing.T, s Searcher) *Server {
	t.Helper()
	srv, err := New(
		s,
		func(context.Context) (uint64, error) { return 42, nil },
		func() (uint64, error) { return 7, nil },
		&Config{Port: 0, CollectionName: "docs", Tokenizer: "default"},
	)
	require.NoError(t, err)
	return srv
}

// openSession drives the SSE handler in a background goroutine and returns
// the assigned session id by scanning the first `endpoint` event.
func openSession(t *testing.T, srv *Server) (string, *httptest.ResponseRecorder, chan struct{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/sse", nil)
	ctx, cancel := context.WithCancel(req.Context())
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	var sessionID string
	require.Eventually(t, func() bool {
		body := rec.Body.String()
		if !strings.Contains(body, "event: endpoint") {
			return false
		}
		scanner := bufio.NewScanner(strings.NewReader(body))
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data: /message?sessionId=") {
				sessionID = strings.TrimPrefix(line, "data: /message?sessionId=")
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	t.Cleanup(cancel)
	return sessionID, rec, done
}

func TestHandleMessage_ToolsCallSearch_Returns202AndSSEMessage(t *testing.T) {
	results := []document.Result{{ChunkID: "abc", Score: 1.5, Title: "Doc"}}
	srv := newTestServer(t, &fakeSearcher{results: results})

	sessionID, rec, _ := openSession(t, srv)
	require.NotEmpty(t, sessionID)

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"search","arguments":{"query":"foo","top_k":5}}}`
	req := httptest.NewRequest(http.MethodPost, "/message?sessionId="+sessionID, strings.NewReader(body))
	msgRec := httptest.NewRecorder()
	srv.handleMessage(msgRec, req)

	assert.Equal(t, http.StatusAccepted, msgRec.Code)

	require.Eventually(t, func() bool {
		return strings.Contains(rec.Body.String(), "event: message")
	}, time.Second, 5*time.Millisecond)

	out := rec.Body.String()
	idx := strings.Index(out, "event: message")
	require.True(t, idx >= 0)
	assert.Contains(t, out[idx:], "abc")
	assert.Contains(t, out[idx:], "chunk_id")
}

func TestDispatch_ToolsCall_UnknownTool_ReturnsJSONRPCError(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{})
	req := request{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: "tools/call", Params: json.RawMessage(`{"name":"bogus","arguments":{}}`)}

	resp := srv.dispatch(context.Background(), req)

	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestDispatch_Initialize_ReturnsProtocolVersion(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{})
	req := request{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: "initialize"}

	resp := srv.dispatch(context.Background(), req)

	require.Nil(t, resp.Error)
	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, protocolVersion, result["protocolVersion"])
}

func TestDispatch_ToolsList_ListsThreeTools(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{})
	req := request{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: "tools/list"}

	resp := srv.dispatch(context.Background(), req)

	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	tools, ok := result["tools"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, tools, 3)
}

func TestDispatch_SearchToolError_SurfacesAsIsErrorNotJSONRPCError(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{err: errors.New("backend down")})
	req := request{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: "tools/call", Params: json.RawMessage(`{"name":"search","arguments":{"query":"x"}}`)}

	resp := srv.dispatch(context.Background(), req)

	require.Nil(t, resp.Error)
	env, ok := resp.Result.(toolEnvelope)
	require.True(t, ok)
	assert.True(t, env.IsError)
}

func TestDispatch_ToolsCall_Stats_ReturnsChunkCountCollectionTokenizer(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{})
	req := request{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: "tools/call", Params: json.RawMessage(`{"name":"stats","arguments":{}}`)}

	resp := srv.dispatch(context.Background(), req)

	require.Nil(t, resp.Error)
	env, ok := resp.Result.(toolEnvelope)
	require.True(t, ok)
	require.False(t, env.IsError)
	text := env.Content[0].Text
	assert.Contains(t, text, `"chunk_count": 7`)
	assert.Contains(t, text, `"collection": "docs"`)
	assert.Contains(t, text, `"tokenizer": "default"`)
}

func TestDispatch_ToolsCall_Stats_LexicalCountErrorSurfacesAsIsError(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{})
	srv.lexicalCount = func() (uint64, error) { return 0, errors.New("index closed") }
	req := request{JSONRPC: "2.0", ID: json.RawMessage(`1`), Method: "tools/call", Params: json.RawMessage(`{"name":"stats","arguments":{}}`)}

	resp := srv.dispatch(context.Background(), req)

	require.Nil(t, resp.Error)
	env, ok := resp.Result.(toolEnvelope)
	require.True(t, ok)
	assert.True(t, env.IsError)
}

func TestHandleMessage_UnknownSession_Returns404(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{})
	req := httptest.NewRequest(http.MethodPost, "/message?sessionId=nonexistent", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	srv.handleMessage(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleMessage_FullSession_Returns410Gone(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{})
	sess := srv.registry.open()
	for i := 0; i < sessionQueueDepth; i++ {
		require.True(t, sess.send([]byte("x")))
	}

	body := `{"jsonrpc":"2.0","id":1,"method":"ping"}`
	req := httptest.NewRequest(http.MethodPost, "/message?sessionId="+sess.id, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.handleMessage(rec, req)

	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestHandleHealth_AlwaysOK(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	srv.handleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakePinger struct {
	name string
	err  error
}

func (p *fakePinger) Name() string              { return p.name }
func (p *fakePinger) Ping(context.Context) error { return p.err }

func TestHandleReady_AllHealthy_Returns200(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{})
	srv.pingers = []Pinger{&fakePinger{name: "qdrant"}, &fakePinger{name: "lexical"}}

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	srv.handleReady(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleReady_OneUnreachable_Returns503(t *testing.T) {
	srv := newTestServer(t, &fakeSearcher{})
	srv.pingers = []Pinger{&fakePinger{name: "qdrant", err: fmt.Errorf("down")}}

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	srv.handleReady(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
