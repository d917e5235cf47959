package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/himanishpuri/LyricSync/pkg/logger"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/audio"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/lrc"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/scroll"
)

const (
	tickInterval = 50 * time.Millisecond
	seekStep     = 5 * time.Second
	// chromeRows is the header and footer around the lyric viewport.
	chromeRows = 3
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a")).
			Bold(true)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bae6fd")).
			Bold(true)

	lineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#a1a1aa"))

	overrideStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// eventQueue keeps the latest active line and scroll offset reported by the
// session. The resume timer fires on its own goroutine, so the model takes
// them on each update. Only the newest values matter to the view, so later
// notifications overwrite earlier ones and nothing is dropped.
type eventQueue struct {
	mu        sync.Mutex
	active    int
	hasActive bool
	offset    float64
	hasScroll bool
}

func (q *eventQueue) ActiveLineChanged(index int, _ *lrc.Line) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.active, q.hasActive = index, true
}

func (q *eventQueue) ScrollRequested(offsetPx float64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.offset, q.hasScroll = offsetPx, true
}

// take returns the pending values and clears them.
func (q *eventQueue) take() (active int, hasActive bool, offset float64, hasScroll bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	active, hasActive, offset, hasScroll = q.active, q.hasActive, q.offset, q.hasScroll
	q.hasActive, q.hasScroll = false, false
	return
}

type playerModel struct {
	sess   *lyricsync.Session
	lines  []lrc.Line
	title  string
	events *eventQueue

	width    int
	viewRows int
	wrapped  [][]string

	active   int
	offset   int
	pos      time.Duration
	length   time.Duration
	playing  bool
	lastTick time.Time
}

func newPlayerModel(sess *lyricsync.Session, tl *lrc.Timeline, title string, length time.Duration) *playerModel {
	q := &eventQueue{}
	sess.Subscribe(q)
	sess.LoadTimeline(tl)

	return &playerModel{
		sess:    sess,
		lines:   tl.Lines(),
		title:   title,
		events:  q,
		active:  -1,
		length:  length,
		playing: true,
	}
}

func (m *playerModel) Init() tea.Cmd {
	return tick()
}

func (m *playerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tickMsg:
		now := time.Time(msg)
		if m.playing && !m.lastTick.IsZero() {
			m.pos += now.Sub(m.lastTick)
		}
		m.lastTick = now
		if m.pos >= m.length {
			m.pos = m.length
			m.playing = false
		}
		m.sess.SetTime(float64(m.pos.Milliseconds()))
		m.drain()
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "space", "p":
			m.playing = !m.playing
			if m.playing && m.pos >= m.length {
				m.pos = 0
			}
		case "left", "h":
			m.seek(-seekStep)
		case "right", "l":
			m.seek(seekStep)
		case "up", "k":
			m.userScroll(-1)
		case "down", "j":
			m.userScroll(1)
		case "pgup":
			m.userScroll(-m.viewRows)
		case "pgdown":
			m.userScroll(m.viewRows)
		case "enter", "c":
			m.sess.JumpToCurrent()
		}
		m.drain()
	}
	return m, nil
}

// resize rewraps every line to the new width and reports the resulting row
// counts as line heights.
func (m *playerModel) resize(width, height int) {
	m.width = width
	m.viewRows = height - chromeRows
	if m.viewRows < 1 {
		m.viewRows = 1
	}

	wrap := lipgloss.NewStyle().Width(width)
	m.wrapped = make([][]string, len(m.lines))
	for i, line := range m.lines {
		m.wrapped[i] = strings.Split(wrap.Render(line.Content), "\n")
	}

	m.sess.SetViewport(float64(m.viewRows))
	for i, rows := range m.wrapped {
		m.sess.ReportHeight(i, float64(len(rows)))
	}
}

func (m *playerModel) seek(d time.Duration) {
	m.pos += d
	if m.pos < 0 {
		m.pos = 0
	}
	if m.pos > m.length {
		m.pos = m.length
	}
	m.sess.SetTime(float64(m.pos.Milliseconds()))
}

func (m *playerModel) userScroll(rows int) {
	m.offset += rows
	if last := m.totalRows() - 1; m.offset > last {
		m.offset = last
	}
	if m.offset < 0 {
		m.offset = 0
	}
	m.sess.UserScroll()
}

func (m *playerModel) drain() {
	active, hasActive, offset, hasScroll := m.events.take()
	if hasActive {
		m.active = active
	}
	if hasScroll {
		m.offset = int(math.Round(offset))
	}
}

func (m *playerModel) totalRows() int {
	n := 0
	for _, rows := range m.wrapped {
		n += len(rows)
	}
	_, bottom := m.sess.Padding()
	return n + int(bottom)
}

func (m *playerModel) View() string {
	if m.width == 0 {
		return "loading..."
	}

	var rows []string
	for i, wrapped := range m.wrapped {
		style := lineStyle
		if i == m.active {
			style = activeStyle
		}
		for _, r := range wrapped {
			rows = append(rows, style.Render(r))
		}
	}
	_, bottom := m.sess.Padding()
	for i := 0; i < int(bottom); i++ {
		rows = append(rows, "")
	}

	from := m.offset
	if from > len(rows) {
		from = len(rows)
	}
	to := from + m.viewRows
	if to > len(rows) {
		to = len(rows)
	}
	visible := rows[from:to]
	for len(visible) < m.viewRows {
		visible = append(visible, "")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(strings.Join(visible, "\n"))
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m *playerModel) statusLine() string {
	state := "▶"
	if !m.playing {
		state = "⏸"
	}
	status := fmt.Sprintf("%s %s / %s  space pause · ←/→ seek · ↑/↓ scroll · c jump · q quit",
		state, formatClock(m.pos.Milliseconds()), formatClock(m.length.Milliseconds()))

	snap := m.sess.Snapshot()
	if snap.Gate == scroll.UserOverridden.String() && snap.ResumeAt != nil {
		return statusStyle.Render(status) + "  " +
			overrideStyle.Render(fmt.Sprintf("follow resumes in %.1fs", time.Until(*snap.ResumeAt).Seconds()))
	}
	return statusStyle.Render(status)
}

func handlePlay(args []string) {
	positional, flagArgs := splitArgs(args)
	playCmd := flag.NewFlagSet("play", flag.ExitOnError)
	modeArg := playCmd.String("mode", "", "Alignment: top or centered (default from config)")
	audioPath := playCmd.String("audio", "", "Audio track whose length bounds playback")
	playCmd.Parse(flagArgs)

	if len(positional) != 1 {
		fmt.Println("Usage: lyricsync play <file.lrc|id> [--mode top|centered] [--audio <track>]")
		os.Exit(1)
	}

	ctx := context.Background()
	text, _, err := loadSource(ctx, positional[0])
	if err != nil {
		fail("%v", err)
	}
	tl := lrc.Parse(text)
	if tl.Len() == 0 {
		fail("No timed lines in %s", positional[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		fail("Failed to load config: %v", err)
	}
	ec := cfg.EngineConfig()
	if *modeArg != "" {
		mode, ok := scroll.ParseMode(*modeArg)
		if !ok {
			fail("Unknown mode %q (want top or centered)", *modeArg)
		}
		ec.CenterLineEnabled = mode == scroll.Centered
	}

	length := time.Duration(tl.DurationMs())*time.Millisecond + 5*time.Second
	if *audioPath != "" {
		meta, err := audio.Read(ctx, *audioPath)
		if err != nil {
			fail("Failed to read %s: %v", *audioPath, err)
		}
		length = meta.Duration
	}

	title, _ := tl.Metadata("ti")
	if title == "" {
		title = filepath.Base(positional[0])
	}
	if artist, ok := tl.Metadata("ar"); ok && artist != "" {
		title += " · " + artist
	}

	// Log lines would tear the alternate screen.
	quiet := logger.New(logger.Config{Level: logger.FATAL, Output: io.Discard})
	sess := lyricsync.NewSession(lyricsync.WithEngineConfig(ec), lyricsync.WithLogger(quiet))
	defer sess.Close()

	p := tea.NewProgram(newPlayerModel(sess, tl, title, length), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fail("Player failed: %v", err)
	}
}
