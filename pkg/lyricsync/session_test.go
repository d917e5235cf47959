package lyricsync

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/himanishpuri/LyricSync/pkg/logger"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/lrc"
)

const threeLines = "[00:01.00]one\n[00:02.00]two\n[00:03.00]three"

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// recorder collects listener calls in order.
type recorder struct {
	active  []int
	lines   []*lrc.Line
	scrolls []float64
}

func (r *recorder) ActiveLineChanged(index int, line *lrc.Line) {
	r.active = append(r.active, index)
	r.lines = append(r.lines, line)
}

func (r *recorder) ScrollRequested(offsetPx float64) {
	r.scrolls = append(r.scrolls, offsetPx)
}

func (r *recorder) reset() {
	r.active, r.lines, r.scrolls = nil, nil, nil
}

func quietLogger() Logger {
	return logger.New(logger.Config{Level: logger.FATAL, Output: io.Discard})
}

// setupSession returns a top-aligned session over threeLines with heights
// 20, 30, 25 already measured.
func setupSession(t *testing.T, opts ...Option) (*Session, *ManualClock, *recorder) {
	t.Helper()

	clock := NewManualClock(epoch)
	base := []Option{
		WithClock(clock),
		WithLogger(quietLogger()),
		WithCenterLine(false),
		WithQuietPeriod(3 * time.Second),
	}
	s := NewSession(append(base, opts...)...)
	t.Cleanup(s.Close)

	s.LoadTranscript(threeLines)
	for i, h := range []float64{20, 30, 25} {
		s.ReportHeight(i, h)
	}

	rec := &recorder{}
	s.Subscribe(rec)
	return s, clock, rec
}

func TestSessionActiveLineNotifications(t *testing.T) {
	s, _, rec := setupSession(t)

	for _, ms := range []float64{500, 1000, 1200, 1999, 2000, 2500, 3000, 9000} {
		s.SetTime(ms)
	}

	want := []int{0, 1, 2}
	if len(rec.active) != len(want) {
		t.Fatalf("Expected notifications %v, got %v", want, rec.active)
	}
	for i, idx := range want {
		if rec.active[i] != idx {
			t.Errorf("Notification %d: expected %d, got %d", i, idx, rec.active[i])
		}
		if rec.lines[i] == nil {
			t.Errorf("Notification %d: expected a line", i)
		}
	}
	if rec.lines[2].Content != "three" {
		t.Errorf("Expected 'three', got %q", rec.lines[2].Content)
	}
}

func TestSessionSeekBackward(t *testing.T) {
	s, _, rec := setupSession(t)

	s.SetTime(3500)
	s.SetTime(1500)
	s.SetTime(0)

	want := []int{2, 0, -1}
	if len(rec.active) != 3 {
		t.Fatalf("Expected 3 notifications, got %v", rec.active)
	}
	for i := range want {
		if rec.active[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, rec.active)
			break
		}
	}
	if rec.lines[2] != nil {
		t.Error("Expected nil line for index -1")
	}
}

func TestSessionAutoScroll(t *testing.T) {
	s, _, rec := setupSession(t)

	s.SetTime(1000) // index 0, offset 0: unchanged from the initial view
	s.SetTime(2000) // index 1, offset 20
	s.SetTime(2500) // same index, no command
	s.SetTime(3000) // index 2, offset 50

	want := []float64{20, 50}
	if len(rec.scrolls) != len(want) {
		t.Fatalf("Expected scrolls %v, got %v", want, rec.scrolls)
	}
	for i := range want {
		if rec.scrolls[i] != want[i] {
			t.Errorf("Expected scrolls %v, got %v", want, rec.scrolls)
			break
		}
	}
}

func TestSessionGating(t *testing.T) {
	s, clock, rec := setupSession(t)

	s.SetTime(1000)
	s.UserScroll()

	s.SetTime(2000)
	s.SetTime(3000)
	if len(rec.scrolls) != 0 {
		t.Fatalf("Expected no scroll while overridden, got %v", rec.scrolls)
	}

	// Second user scroll 2s in pushes the deadline to 5s.
	clock.Advance(2 * time.Second)
	s.UserScroll()

	clock.Advance(1 * time.Second) // original deadline
	if len(rec.scrolls) != 0 {
		t.Fatalf("Expected suppression at the original deadline, got %v", rec.scrolls)
	}
	if got := s.Snapshot().Gate; got != "user-overridden" {
		t.Errorf("Expected user-overridden, got %s", got)
	}

	clock.Advance(2 * time.Second) // refreshed deadline
	if len(rec.scrolls) != 1 || rec.scrolls[0] != 50 {
		t.Fatalf("Expected one scroll to 50 after the refreshed deadline, got %v", rec.scrolls)
	}
	if got := s.Snapshot().Gate; got != "auto-following" {
		t.Errorf("Expected auto-following, got %s", got)
	}
	if clock.Pending() != 0 {
		t.Errorf("Expected no pending timers, got %d", clock.Pending())
	}
}

func TestSessionJumpToCurrent(t *testing.T) {
	s, clock, rec := setupSession(t)

	s.SetTime(3000)
	rec.reset()

	s.UserScroll()
	s.JumpToCurrent()

	if len(rec.scrolls) != 1 || rec.scrolls[0] != 50 {
		t.Fatalf("Expected exactly one scroll to 50, got %v", rec.scrolls)
	}
	if got := s.Snapshot().Gate; got != "auto-following" {
		t.Errorf("Expected auto-following after jump, got %s", got)
	}

	// The superseded deadline must not emit anything.
	clock.Advance(10 * time.Second)
	if len(rec.scrolls) != 1 {
		t.Errorf("Expected no further scrolls, got %v", rec.scrolls)
	}
}

func TestSessionAutoScrollDisabled(t *testing.T) {
	s, clock, rec := setupSession(t, WithAutoScroll(false))

	s.SetTime(2000)
	s.SetTime(3000)
	s.UserScroll()
	clock.Advance(time.Minute)
	if len(rec.scrolls) != 0 {
		t.Fatalf("Expected no automatic scrolls, got %v", rec.scrolls)
	}

	s.JumpToCurrent()
	if len(rec.scrolls) != 1 || rec.scrolls[0] != 50 {
		t.Errorf("Expected jump to still scroll to 50, got %v", rec.scrolls)
	}

	top, bottom := s.Padding()
	if top != 0 || bottom != 0 {
		t.Errorf("Expected no padding with auto-scroll off, got %v, %v", top, bottom)
	}
}

func TestSessionHeightsConverge(t *testing.T) {
	clock := NewManualClock(epoch)
	s := NewSession(WithClock(clock), WithLogger(quietLogger()), WithCenterLine(false))
	defer s.Close()
	rec := &recorder{}
	s.Subscribe(rec)

	s.LoadTranscript(threeLines)
	s.SetTime(3000)
	if s.Offset() != 0 {
		t.Fatalf("Expected 0 before measurement, got %v", s.Offset())
	}

	s.ReportHeight(1, 30)
	s.ReportHeight(1, 30) // repeat is a no-op
	s.ReportHeight(0, 20)
	s.ReportHeight(2, 25) // the active line itself does not move a top-aligned offset
	s.ReportHeight(7, 99) // out of range

	want := []float64{30, 50}
	if len(rec.scrolls) != len(want) || rec.scrolls[0] != 30 || rec.scrolls[1] != 50 {
		t.Errorf("Expected scrolls %v, got %v", want, rec.scrolls)
	}
}

func TestSessionCenteredMode(t *testing.T) {
	clock := NewManualClock(epoch)
	s := NewSession(WithClock(clock), WithLogger(quietLogger()), WithCenterOffsetFraction(0.3))
	defer s.Close()

	s.LoadTranscript(threeLines)
	for i, h := range []float64{20, 30, 25} {
		s.ReportHeight(i, h)
	}
	s.SetViewport(500)
	s.SetTime(3000)

	if got := s.Offset(); got != 0 {
		t.Errorf("Expected centered offset clamped to 0, got %v", got)
	}

	s.SetViewport(100)
	// 50 - 30 + 12.5
	if got := s.Offset(); got != 32.5 {
		t.Errorf("Expected 32.5, got %v", got)
	}

	st := s.Snapshot()
	if st.Mode != "centered" {
		t.Errorf("Expected centered mode, got %s", st.Mode)
	}
	if st.TopPadding != 45 || st.BottomPadding != 50 {
		t.Errorf("Expected padding 45/50, got %v/%v", st.TopPadding, st.BottomPadding)
	}
}

func TestSessionReloadResetsState(t *testing.T) {
	s, _, rec := setupSession(t)

	s.SetTime(3000)
	rec.reset()

	s.LoadTranscript("[00:01.00]only")

	if len(rec.active) != 1 || rec.active[0] != 0 {
		t.Fatalf("Expected one notification for index 0, got %v", rec.active)
	}
	st := s.Snapshot()
	if st.LineCount != 1 || st.MeasuredLines != 0 {
		t.Errorf("Expected fresh heights for 1 line, got %+v", st)
	}
	if st.ActiveIndex != 0 || st.OffsetPx != 0 {
		t.Errorf("Expected active 0 at offset 0, got %+v", st)
	}
	if len(rec.scrolls) != 1 || rec.scrolls[0] != 0 {
		t.Errorf("Expected a scroll back to 0, got %v", rec.scrolls)
	}
}

func TestSessionEmptyTranscript(t *testing.T) {
	s, _, rec := setupSession(t)
	s.LoadTranscript("no tags here")
	rec.reset()

	for _, ms := range []float64{0, 1000, 1e9} {
		s.SetTime(ms)
	}
	idx, line := s.CurrentLine()
	if idx != -1 || line != nil {
		t.Errorf("Expected (-1, nil), got (%d, %v)", idx, line)
	}
	if s.Offset() != 0 {
		t.Errorf("Expected offset 0, got %v", s.Offset())
	}
	if len(rec.active) != 0 || len(rec.scrolls) != 0 {
		t.Errorf("Expected no events, got %v / %v", rec.active, rec.scrolls)
	}
}

func TestSessionListenerReentry(t *testing.T) {
	s, _, _ := setupSession(t)

	var seen int
	unsubscribe := s.Subscribe(ListenerFuncs{
		OnActiveLine: func(index int, _ *lrc.Line) {
			// Reading back from inside a callback must not deadlock.
			seen, _ = s.CurrentLine()
		},
	})

	s.SetTime(2000)
	if seen != 1 {
		t.Errorf("Expected callback to observe index 1, got %d", seen)
	}

	unsubscribe()
	s.SetTime(3000)
	if seen != 1 {
		t.Errorf("Expected no calls after unsubscribe, got %d", seen)
	}
}

func TestSessionInvalidConfigFallsBack(t *testing.T) {
	s := NewSession(
		WithLogger(quietLogger()),
		WithQuietPeriod(-time.Second),
		WithCenterOffsetFraction(1.5),
		WithPadding(-1, 2),
	)
	defer s.Close()

	if s.cfg.UserScrollQuietPeriod != DefaultQuietPeriod {
		t.Errorf("Expected default quiet period, got %v", s.cfg.UserScrollQuietPeriod)
	}
	if s.cfg.CenterOffsetFraction != DefaultCenterOffsetFraction {
		t.Errorf("Expected default center fraction, got %v", s.cfg.CenterOffsetFraction)
	}
	if s.cfg.TopPaddingFraction != DefaultTopPadding || s.cfg.BottomPaddingFraction != DefaultBottomPadding {
		t.Errorf("Expected default padding, got %v/%v", s.cfg.TopPaddingFraction, s.cfg.BottomPaddingFraction)
	}
}

// goroutineClock runs deferred callbacks on their own goroutine, the way
// time.AfterFunc does, but only when fire is called.
type goroutineClock struct {
	mu  sync.Mutex
	now time.Time
	fns []func()
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return false }

func (c *goroutineClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *goroutineClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns = append(c.fns, f)
	return noopTimer{}
}

// fire moves the clock forward by d and runs the newest callback on a new
// goroutine.
func (c *goroutineClock) fire(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	f := c.fns[len(c.fns)-1]
	c.mu.Unlock()
	go f()
}

// heldListener blocks inside the first scroll it receives after hold is set
// until release is closed.
type heldListener struct {
	mu      sync.Mutex
	scrolls []float64
	hold    bool
	entered chan struct{}
	release chan struct{}
}

func (l *heldListener) ActiveLineChanged(int, *lrc.Line) {}

func (l *heldListener) ScrollRequested(px float64) {
	l.mu.Lock()
	l.scrolls = append(l.scrolls, px)
	hold := l.hold
	l.hold = false
	l.mu.Unlock()

	if hold {
		close(l.entered)
		<-l.release
	}
}

func (l *heldListener) snapshot() []float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]float64(nil), l.scrolls...)
}

func TestSessionDeliveryOrderAcrossGoroutines(t *testing.T) {
	clock := &goroutineClock{now: epoch}
	s := NewSession(
		WithClock(clock),
		WithLogger(quietLogger()),
		WithCenterLine(false),
		WithQuietPeriod(3*time.Second),
	)
	t.Cleanup(s.Close)

	s.LoadTranscript(threeLines)
	for i, h := range []float64{20, 30, 25} {
		s.ReportHeight(i, h)
	}

	l := &heldListener{entered: make(chan struct{}), release: make(chan struct{})}
	s.Subscribe(l)

	s.SetTime(2000)
	s.UserScroll()

	l.mu.Lock()
	l.hold = true
	l.mu.Unlock()

	// The resume deadline re-anchors at line 1 on the timer goroutine and
	// stalls inside the listener.
	clock.fire(3 * time.Second)
	select {
	case <-l.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("Resume scroll was never delivered")
	}

	// A newer state change happens while that delivery is still running.
	s.SetTime(3000)
	close(l.release)

	want := []float64{20, 20, 50}
	deadline := time.Now().Add(2 * time.Second)
	for len(l.snapshot()) < len(want) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	got := l.snapshot()
	if len(got) != len(want) {
		t.Fatalf("Expected scrolls %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Scroll %d: got %v, want %v (all %v)", i, got[i], want[i], got)
		}
	}
	if last := got[len(got)-1]; last != s.Offset() {
		t.Errorf("Last delivered scroll %v does not match current offset %v", last, s.Offset())
	}
}

func TestSessionListenerMutatesSession(t *testing.T) {
	s, _, rec := setupSession(t)

	once := false
	s.Subscribe(ListenerFuncs{
		OnActiveLine: func(index int, _ *lrc.Line) {
			if index == 0 && !once {
				once = true
				s.SetTime(3000)
			}
		},
	})

	s.SetTime(1000)

	// The nested change is delivered after the outer batch, in order.
	want := []int{0, 2}
	if len(rec.active) != len(want) || rec.active[0] != want[0] || rec.active[1] != want[1] {
		t.Errorf("Expected active lines %v, got %v", want, rec.active)
	}
	if len(rec.scrolls) == 0 || rec.scrolls[len(rec.scrolls)-1] != 50 {
		t.Errorf("Expected the last scroll to be 50, got %v", rec.scrolls)
	}
}
