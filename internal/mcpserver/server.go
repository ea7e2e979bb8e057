// Package mcpserver implements the tool-call server: an SSE session
// transport, JSON-RPC 2.0 request dispatch, and a registry of MCP tools
// (search, get, stats) backed by the hybrid searcher.
package mcpserver

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/54b3r/hsearch/internal/logging"
)

// New constructs a Server from the provided searcher, collection-info probe,
// lexical chunk-count probe, and config. If cfg.Logger is nil, logging.New()
// is used.
func New(searcher Searcher, collectionInfo func(ctx context.Context) (uint64, error), lexicalCount func() (uint64, error), cfg *Config) (*Server, error) {
	if searcher == nil {
		return nil, fmt.Errorf("mcpserver: searcher must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 7070
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// Must stay open indefinitely for the SSE stream.
		cfg.WriteTimeout = 0
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}

	s := &Server{
		searcher:       searcher,
		collectionInfo: collectionInfo,
		lexicalCount:   lexicalCount,
		cfg:            cfg,
		log:            cfg.Logger,
		registry:       newRegistry(),
		pingers:        cfg.Pingers,
		metrics:        newServerMetrics(nil),
		version:        cfg.Version,
	}

	rl, stop := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	s.stopRateLimiter = stop

	messageHandler := rl.middleware(authMiddleware(cfg.APIKey, s.log, http.HandlerFunc(s.handleMessage)))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /sse", s.handleSSE)
	mux.Handle("POST /message", messageHandler)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(s.log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("mcpserver listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("mcpserver: listen error: %w", err)
	case <-ctx.Done():
		s.stopRateLimiter()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("mcpserver: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleSSE opens a server-sent event stream for one session. It immediately
// emits an `endpoint` event naming the POST path for this session, then
// relays whatever is written to the session's sink as `message` events,
// interleaved with a periodic keep-alive comment.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	sess := s.registry.open()
	defer s.registry.close(sess.id)
	s.metrics.sseSessionsActive.Inc()
	defer s.metrics.sseSessionsActive.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: endpoint\ndata: /message?sessionId=%s\n\n", sess.id)
	flusher.Flush()

	keepAlive := time.NewTicker(20 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload, open := <-sess.sink:
			if !open {
				return
			}
			writeSSEEvent(w, "message", payload)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent formats payload as one SSE frame of the given event type,
// prefixing every line of payload with "data: " so embedded newlines never
// break the frame boundary.
func writeSSEEvent(w http.ResponseWriter, event string, payload []byte) {
	lines := strings.Split(strings.TrimRight(string(payload), "\n"), "\n")
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "event: %s\n", event)
	for _, line := range lines {
		buf.WriteString("data: ")
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
	w.Write(buf.Bytes())
}

// maxMessageBodyBytes bounds a single POST /message body.
const maxMessageBodyBytes = 1 << 20 // 1 MiB

// handleMessage handles POST /message?sessionId=<id>: parses a single
// JSON-RPC request, executes it synchronously, and forwards the serialized
// response to the named session's stream.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { s.metrics.messageDurationSeconds.Observe(time.Since(start).Seconds()) }()

	sessionID := r.URL.Query().Get("sessionId")
	sess, ok := s.registry.lookup(sessionID)
	if !ok {
		s.metrics.messagesTotal.WithLabelValues("unknown_session").Inc()
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBodyBytes)
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		resp := errorResponse(nil, codeParseError, "parse error: "+err.Error())
		s.forward(w, sess, resp)
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		resp := errorResponse(req.ID, codeInvalidRequest, "invalid request: jsonrpc and method are required")
		s.forward(w, sess, resp)
		return
	}

	resp := s.dispatch(r.Context(), req)
	s.recordToolOutcome(req, resp)
	s.forward(w, sess, resp)
}

// forward serializes resp and enqueues it on sess's sink, translating the
// outcome into the appropriate HTTP response code.
func (s *Server) forward(w http.ResponseWriter, sess *session, resp response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.metrics.messagesTotal.WithLabelValues("error").Inc()
		http.Error(w, "response serialization failure", http.StatusInternalServerError)
		return
	}

	if !sess.send(data) {
		s.metrics.messagesTotal.WithLabelValues("session_gone").Inc()
		http.Error(w, "session is no longer reading", http.StatusGone)
		return
	}

	s.metrics.messagesTotal.WithLabelValues("accepted").Inc()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) recordToolOutcome(req request, resp response) {
	if req.Method != "tools/call" {
		return
	}
	var params toolCallParams
	_ = json.Unmarshal(req.Params, &params)
	outcome := "ok"
	if resp.Error != nil {
		outcome = "tool_error"
	} else if env, ok := resp.Result.(toolEnvelope); ok && env.IsError {
		outcome = "tool_error"
	}
	s.metrics.toolCallsTotal.WithLabelValues(params.Name, outcome).Inc()
}

// handleHealth handles GET /health: liveness only, no dependency checks.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("ok"))
}

// handleReady handles GET /ready: probes every registered Pinger and
// reports 503 if any dependency is unreachable. This supplements the
// liveness-only /health endpoint with a dependency-aware readiness check,
// adapted from the same probe pattern used elsewhere in the stack.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	type check struct {
		Name string `json:"name"`
		OK   bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
	var checks []check
	allOK := true

	for _, p := range s.pingers {
		probeCtx, cancel := context.WithTimeout(r.Context(), probeTimeout*time.Second)
		err := p.Ping(probeCtx)
		cancel()

		c := check{Name: p.Name(), OK: err == nil}
		if err != nil {
			c.Error = err.Error()
			allOK = false
		}
		checks = append(checks, c)
	}

	status := http.StatusOK
	if !allOK {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"ready": allOK, "checks": checks})
}

// requestLogger is middleware that stamps every request with a request_id,
// carries a child logger through the context, and logs method/path/status/
// latency on completion.
func requestLogger(base *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := newRequestID()
		log := base.With(slog.String("request_id", reqID), slog.String("method", r.Method), slog.String("path", r.URL.Path))
		r = r.WithContext(logging.WithLogger(r.Context(), log))

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rw, r)

		log.Info("request", slog.Int("status", rw.status), slog.Duration("duration", time.Since(start)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (rw *statusWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func newRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "0000000000000000"
	}
	return hex.EncodeToString(b)
}
