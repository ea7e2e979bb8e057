package mcpserver

import (
	"sync"

	"github.com/google/uuid"
)

// sessionQueueDepth is the bounded capacity of a session's message sink.
// A send that would exceed this depth is treated as session-failed rather
// than blocking the dispatching request.
const sessionQueueDepth = 100

// session is an ephemeral session_id -> message_sink entry, created when a
// client opens the SSE stream and destroyed when that stream closes.
type session struct {
	id   string
	sink chan []byte
}

// registry is the concurrent map of active sessions, protected by a
// readers-writer lock: SSE-open/close write, message-dispatch reads.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*session)}
}

// open creates a new session with a fresh UUID v4 id and registers it.
func (r *registry) open() *session {
	s := &session{id: uuid.NewString(), sink: make(chan []byte, sessionQueueDepth)}
	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()
	return s
}

// close removes a session from the registry and closes its sink.
func (r *registry) close(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if ok {
		close(s.sink)
	}
}

// lookup returns the session for id, or ok=false if unknown.
func (r *registry) lookup(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// send enqueues payload on the session's sink without blocking. Returns
// false if the queue is full (dead/slow consumer — caller treats this as
// HTTP 410 Gone) or the channel has already been closed.
func (s *session) send(payload []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case s.sink <- payload:
		return true
	default:
		return false
	}
}
