package call

import (
	"context"
	"sync"
	"time"

	"github.com/vasu-devs/Vaani/internal/domain"
	"github.com/vasu-devs/Vaani/pkg/logger"
	"go.uber.org/zap"
)

// CallSession is one outbound call attempt. Created by the dispatcher;
// referenced, never owned, by the finalizer and the live dialogue runner.
type CallSession struct {
	RoomName      string
	ParticipantID string
	Configuration domain.CallConfiguration
	StartedAt     time.Time
}

// TranscriptSource exposes a read-only snapshot of the conversation. The
// dialogue runner owns the entry stream; the finalizer only ever snapshots it.
type TranscriptSource interface {
	Snapshot() []domain.TranscriptEntry
}

// Registry tracks the finalizers of live sessions so the shutdown path can
// give every session a last chance to finalize. Sessions share no other
// mutable state.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*SessionFinalizer
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*SessionFinalizer)}
}

// Add registers a session's finalizer under its room name.
func (r *Registry) Add(roomName string, f *SessionFinalizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[roomName] = f
}

// Remove drops a finished session.
func (r *Registry) Remove(roomName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, roomName)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// FinalizeAll invokes finalize on every live session and waits for each to
// complete or for ctx to expire. Called once on shutdown as the last-resort
// trigger.
func (r *Registry) FinalizeAll(ctx context.Context) {
	r.mu.Lock()
	finalizers := make([]*SessionFinalizer, 0, len(r.sessions))
	names := make([]string, 0, len(r.sessions))
	for name, f := range r.sessions {
		finalizers = append(finalizers, f)
		names = append(names, name)
	}
	r.mu.Unlock()

	for i, f := range finalizers {
		logger.Base().Info("finalizing session on shutdown", zap.String("room_name", names[i]))
		f.Await(ctx)
	}
}
