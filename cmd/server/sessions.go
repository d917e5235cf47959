package main

import (
	"sync"

	"github.com/himanishpuri/LyricSync/pkg/lyricsync"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/lrc"
)

// eventRecorder buffers session notifications until the next request drains
// them.
type eventRecorder struct {
	mu     sync.Mutex
	evs    []lyricsync.Event
	active int
}

func (r *eventRecorder) ActiveLineChanged(index int, line *lrc.Line) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = index
	r.evs = append(r.evs, lyricsync.Event{Kind: lyricsync.EventActiveLine, Index: index, Line: line})
}

func (r *eventRecorder) ScrollRequested(offsetPx float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, lyricsync.Event{Kind: lyricsync.EventScroll, Index: r.active, OffsetPx: offsetPx})
}

func (r *eventRecorder) drain() []lyricsync.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	evs := r.evs
	r.evs = nil
	if evs == nil {
		evs = []lyricsync.Event{}
	}
	return evs
}

type sessionEntry struct {
	// mu keeps an operation and the drain of its events together.
	mu   sync.Mutex
	sess *lyricsync.Session
	rec  *eventRecorder
}

// apply runs fn on the session and returns the resulting state and events.
func (e *sessionEntry) apply(fn func(s *lyricsync.Session)) SessionResponse {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fn != nil {
		fn(e.sess)
	}
	return SessionResponse{State: e.sess.Snapshot(), Events: e.rec.drain()}
}

type sessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*sessionEntry)}
}

// add subscribes a recorder to sess and registers it.
func (r *sessionRegistry) add(sess *lyricsync.Session) *sessionEntry {
	idx, _ := sess.CurrentLine()
	rec := &eventRecorder{active: idx}
	sess.Subscribe(rec)
	e := &sessionEntry{sess: sess, rec: rec}

	r.mu.Lock()
	r.sessions[sess.ID()] = e
	r.mu.Unlock()
	return e
}

func (r *sessionRegistry) get(id string) (*sessionEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, lyricsync.ErrSessionNotFound
	}
	return e, nil
}

func (r *sessionRegistry) remove(id string) error {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return lyricsync.ErrSessionNotFound
	}
	e.sess.Close()
	return nil
}

func (r *sessionRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// closeAll stops every session's resume timer.
func (r *sessionRegistry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.sessions {
		e.sess.Close()
		delete(r.sessions, id)
	}
}
