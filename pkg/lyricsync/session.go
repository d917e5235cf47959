package lyricsync

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/himanishpuri/LyricSync/pkg/logger"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/lrc"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/scroll"
)

// Session synchronises one scroll surface with a playback clock.
//
// All entry points, including the resume deadline callback, are serialised
// by an internal mutex. Listener notifications are queued while the lock is
// held and delivered after it is released, in the order the state changes
// happened. One goroutine delivers at a time; a call made while another
// delivery is running leaves its events to that delivery.
type Session struct {
	mu sync.Mutex

	id           string
	transcriptID string
	cfg          EngineConfig
	log          Logger
	clock        Clock

	timeline  *lrc.Timeline
	heights   scroll.Heights
	active    int
	currentMs float64
	viewport  float64

	gate  *scroll.Gate
	timer Timer
	// lastOffset is the offset of the last scroll command; the view is
	// assumed to start at 0.
	lastOffset float64

	listeners map[int]Listener
	nextID    int

	queue      []Event
	delivering bool
}

// NewSession returns an empty session. Only the engine, logger and clock
// options are used.
func NewSession(opts ...Option) *Session {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return newSession(cfg)
}

func newSession(cfg *Config) *Session {
	id := uuid.NewString()

	var log Logger = cfg.Logger
	if log == nil {
		log = logger.GetLogger().With("session=" + id[:8])
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	ec := cfg.Engine.normalize(log)

	return &Session{
		id:        id,
		cfg:       ec,
		log:       log,
		clock:     clock,
		timeline:  lrc.Parse(""),
		heights:   scroll.NewHeights(0),
		active:    -1,
		gate:      scroll.NewGate(ec.AutoScrollEnabled, ec.UserScrollQuietPeriod),
		listeners: make(map[int]Listener),
	}
}

func (s *Session) ID() string { return s.id }

// Subscribe registers l and returns a function that removes it.
func (s *Session) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// LoadTranscript parses text and replaces the timeline. Heights and the active
// index are reset together with it.
func (s *Session) LoadTranscript(text string) {
	s.LoadTimeline(lrc.Parse(text))
}

// LoadTimeline replaces the timeline with an already parsed one.
func (s *Session) LoadTimeline(tl *lrc.Timeline) {
	if tl == nil {
		tl = lrc.Parse("")
	}
	s.update(func(evs *[]Event) {
		s.timeline = tl
		s.heights = scroll.NewHeights(tl.Len())
		s.active = tl.Resolve(s.currentMs)
		s.log.Debugf("loaded timeline with %d lines, active=%d", tl.Len(), s.active)

		s.activeEvent(evs)
		s.autoScroll(evs, false)
	})
}

func (s *Session) setTranscriptID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcriptID = id
}

// SetTime reports the playback position in milliseconds. NaN is ignored.
func (s *Session) SetTime(ms float64) {
	if math.IsNaN(ms) {
		s.log.Warnf("ignoring NaN playback time")
		return
	}
	s.update(func(evs *[]Event) {
		s.currentMs = ms
		idx := s.timeline.Resolve(ms)
		if idx == s.active {
			s.autoScroll(evs, false)
			return
		}
		s.active = idx
		s.activeEvent(evs)
		s.autoScroll(evs, false)
	})
}

// ReportHeight records the rendered height of line index. Reports may arrive
// in any order and may repeat.
func (s *Session) ReportHeight(index int, px float64) {
	s.update(func(evs *[]Event) {
		if !s.heights.Set(index, px) {
			return
		}
		s.autoScroll(evs, false)
	})
}

// SetViewport sets the visible height used by centered mode.
func (s *Session) SetViewport(px float64) {
	if px < 0 || math.IsNaN(px) {
		px = 0
	}
	s.update(func(evs *[]Event) {
		if s.viewport == px {
			return
		}
		s.viewport = px
		s.autoScroll(evs, false)
	})
}

// UserScroll reports a user-initiated scroll. Auto-scroll is suppressed until
// the quiet period passes without another call.
func (s *Session) UserScroll() {
	s.update(func(evs *[]Event) {
		now := s.clock.Now()
		deadline, gen := s.gate.UserScroll(now)
		if s.timer != nil {
			s.timer.Stop()
		}
		s.timer = s.clock.AfterFunc(deadline.Sub(now), func() { s.onDeadline(gen) })
		s.log.Debugf("user scroll, auto-scroll resumes at %s", deadline.Format(time.RFC3339Nano))
	})
}

// JumpToCurrent resumes auto-following immediately and emits one scroll
// command with the current offset. It works even when auto-scroll is
// disabled.
func (s *Session) JumpToCurrent() {
	s.update(func(evs *[]Event) {
		s.gate.Resume()
		s.stopTimer()
		s.scrollEvent(evs, s.offset())
	})
}

// CurrentLine returns the active index and line, nil when none is active.
func (s *Session) CurrentLine() (int, *lrc.Line) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.activeLine()
}

// Offset returns the offset for the current state, whether or not the gate
// would let it be applied.
func (s *Session) Offset() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset()
}

// Padding returns the blank space the host should reserve above and below
// the lines.
func (s *Session) Padding() (top, bottom float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.padding()
}

// Timeline returns the current timeline.
func (s *Session) Timeline() *lrc.Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		SessionID:      s.id,
		TranscriptID:   s.transcriptID,
		LineCount:      s.timeline.Len(),
		MeasuredLines:  s.heights.Measured(),
		TimeMs:         s.currentMs,
		ActiveIndex:    s.active,
		ActiveLine:     s.activeLine(),
		OffsetPx:       s.offset(),
		Gate:           s.gate.State().String(),
		AutoScroll:     s.cfg.AutoScrollEnabled,
		Mode:           s.layout().Mode.String(),
		ViewportHeight: s.viewport,
	}
	if at := s.gate.ResumeAt(); !at.IsZero() {
		st.ResumeAt = &at
	}
	st.TopPadding, st.BottomPadding = s.padding()
	return st
}

// Close stops the pending resume timer and drops all listeners.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimer()
	s.listeners = make(map[int]Listener)
	s.queue = nil
}

func (s *Session) onDeadline(gen uint64) {
	s.update(func(evs *[]Event) {
		if !s.gate.ExpireGen(s.clock.Now(), gen) {
			return
		}
		s.timer = nil
		s.log.Debugf("quiet period elapsed, auto-scroll resumed")
		// The user may have moved the view, so always re-anchor.
		s.autoScroll(evs, true)
	})
}

// update runs fn under the lock and then delivers the queued events.
func (s *Session) update(fn func(evs *[]Event)) {
	var evs []Event

	s.mu.Lock()
	fn(&evs)
	s.queue = append(s.queue, evs...)
	if s.delivering || len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	s.mu.Unlock()

	s.deliver()
}

// deliver drains the queue until it is empty. Events queued by listeners or
// by other goroutines meanwhile are picked up by the same loop.
func (s *Session) deliver() {
	finished := false
	defer func() {
		// A panicking listener must not wedge later deliveries.
		if !finished {
			s.mu.Lock()
			s.delivering = false
			s.mu.Unlock()
		}
	}()

	for {
		s.mu.Lock()
		evs := s.queue
		s.queue = nil
		if len(evs) == 0 {
			s.delivering = false
			s.mu.Unlock()
			finished = true
			return
		}
		ls := make([]Listener, 0, len(s.listeners))
		for _, l := range s.listeners {
			ls = append(ls, l)
		}
		s.mu.Unlock()

		dispatch(ls, evs)
	}
}

func dispatch(ls []Listener, evs []Event) {
	for _, ev := range evs {
		for _, l := range ls {
			switch ev.Kind {
			case EventActiveLine:
				l.ActiveLineChanged(ev.Index, ev.Line)
			case EventScroll:
				l.ScrollRequested(ev.OffsetPx)
			}
		}
	}
}

// autoScroll emits a scroll command if the gate allows it and the offset
// moved, or unconditionally when force is set.
func (s *Session) autoScroll(evs *[]Event, force bool) {
	now := s.clock.Now()
	if s.gate.Expire(now) {
		s.stopTimer()
		force = true
	}
	if !s.gate.Allowed(now) {
		return
	}
	off := s.offset()
	if !force && off == s.lastOffset {
		return
	}
	s.scrollEvent(evs, off)
}

func (s *Session) scrollEvent(evs *[]Event, off float64) {
	s.lastOffset = off
	*evs = append(*evs, Event{Kind: EventScroll, Index: s.active, OffsetPx: off})
}

func (s *Session) activeEvent(evs *[]Event) {
	*evs = append(*evs, Event{Kind: EventActiveLine, Index: s.active, Line: s.activeLine()})
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) activeLine() *lrc.Line {
	line, ok := s.timeline.Line(s.active)
	if !ok {
		return nil
	}
	return &line
}

func (s *Session) layout() scroll.Layout {
	l := scroll.Layout{
		Mode:           scroll.Top,
		ViewportHeight: s.viewport,
		CenterFraction: s.cfg.CenterOffsetFraction,
	}
	if s.cfg.CenterLineEnabled {
		l.Mode = scroll.Centered
	}
	return l
}

func (s *Session) offset() float64 {
	return scroll.ComputeOffset(s.heights, s.active, s.layout())
}

func (s *Session) padding() (float64, float64) {
	return scroll.Padding(s.viewport, s.cfg.AutoScrollEnabled, s.cfg.TopPaddingFraction, s.cfg.BottomPaddingFraction)
}
