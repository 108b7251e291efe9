package server

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/session"
)

// Registry keeps one orchestrator per browser session in memory.
type Registry struct {
	interviewer ai.Interviewer
	logger      *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*session.Orchestrator
}

func NewRegistry(interviewer ai.Interviewer, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		interviewer: interviewer,
		logger:      logger,
		sessions:    make(map[string]*session.Orchestrator),
	}
}

func (r *Registry) Create() *session.Orchestrator {
	id := uuid.NewString()
	o := session.New(id, r.interviewer, r.logger)

	r.mu.Lock()
	r.sessions[id] = o
	r.mu.Unlock()

	return o
}

func (r *Registry) Get(id string) (*session.Orchestrator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.sessions[id]
	return o, ok
}

// Delete drops the session and reports whether it existed. An in-flight call
// on the dropped orchestrator still completes but nothing observes it.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.sessions[id]
	if ok {
		o.Home()
		delete(r.sessions, id)
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
