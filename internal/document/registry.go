package document

import (
	"context"
	"errors"
	"sync"
)

// ErrNoSink is returned when no mutation sink is currently registered.
var ErrNoSink = errors.New("no document mutation sink registered")

// Sink accepts content insertions into a named section of an idea's
// document. The active document owner registers an implementation;
// other features (chat, research) resolve it instead of reaching into
// the editor directly.
type Sink interface {
	InsertContent(ctx context.Context, ideaID, sectionID, content, sourceLabel string) error
}

// SinkRegistry is the typed replacement for a runtime-discovered
// global hook: one slot, explicit registration, explicit absence.
type SinkRegistry struct {
	mu   sync.RWMutex
	sink Sink
}

func NewSinkRegistry() *SinkRegistry {
	return &SinkRegistry{}
}

func (r *SinkRegistry) Register(s Sink) {
	r.mu.Lock()
	r.sink = s
	r.mu.Unlock()
}

func (r *SinkRegistry) Clear() {
	r.mu.Lock()
	r.sink = nil
	r.mu.Unlock()
}

// Resolve returns the registered sink, or ErrNoSink when absent.
func (r *SinkRegistry) Resolve() (Sink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.sink == nil {
		return nil, ErrNoSink
	}
	return r.sink, nil
}
