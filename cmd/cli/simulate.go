package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/himanishpuri/LyricSync/pkg/logger"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/audio"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/lrc"
)

type simOptions struct {
	Step        time.Duration
	Length      time.Duration
	LineHeight  float64
	Viewport    float64
	UserScrolls []time.Duration
}

type simStats struct {
	LineChanges int
	Scrolls     int
}

func handleSimulate(args []string) {
	log := logger.GetLogger()

	positional, flagArgs := splitArgs(args)
	simCmd := flag.NewFlagSet("simulate", flag.ExitOnError)
	audioPath := simCmd.String("audio", "", "Audio track whose length bounds the simulation")
	step := simCmd.Duration("step", 250*time.Millisecond, "Playback clock step")
	length := simCmd.Duration("length", 0, "Simulated playback length (default: last line + 2s)")
	lineHeight := simCmd.Float64("line-height", 24, "Rendered height of every line")
	viewport := simCmd.Float64("viewport", 480, "Viewport height")
	userScrolls := simCmd.String("user-scroll", "", "Comma-separated playback times of user scrolls, e.g. 4s,9.5s")
	simCmd.Parse(flagArgs)

	if len(positional) != 1 {
		fmt.Println("Usage: lyricsync simulate <file.lrc|id> [--audio <track>] [--step <dur>] [--user-scroll <t1,t2,...>]")
		os.Exit(1)
	}
	if *step <= 0 {
		fail("--step must be positive")
	}

	ctx := context.Background()
	text, _, err := loadSource(ctx, positional[0])
	if err != nil {
		fail("%v", err)
	}

	opts := simOptions{
		Step:       *step,
		Length:     *length,
		LineHeight: *lineHeight,
		Viewport:   *viewport,
	}
	if opts.UserScrolls, err = parseDurations(*userScrolls); err != nil {
		fail("Invalid --user-scroll: %v", err)
	}

	if *audioPath != "" && opts.Length == 0 {
		meta, err := audio.Read(ctx, *audioPath)
		if err != nil {
			fail("Failed to read %s: %v", *audioPath, err)
		}
		opts.Length = meta.Duration
		log.Infof("Track length %s from %s", formatClock(meta.DurationMs()), meta.Filename)
	}

	cfg, err := loadConfig()
	if err != nil {
		fail("Failed to load config: %v", err)
	}

	stats := simulate(os.Stdout, lrc.Parse(text), opts, lyricsync.WithEngineConfig(cfg.EngineConfig()))
	fmt.Printf("\n%d line change(s), %d scroll command(s)\n", stats.LineChanges, stats.Scrolls)
}

// simulate drives a session on a manual clock through tl and writes every
// notification to w, stamped with the playback position it happened at.
func simulate(w io.Writer, tl *lrc.Timeline, opts simOptions, sessOpts ...lyricsync.Option) simStats {
	start := time.Unix(0, 0).UTC()
	clock := lyricsync.NewManualClock(start)
	sess := lyricsync.NewSession(append(sessOpts, lyricsync.WithClock(clock))...)
	defer sess.Close()

	if opts.Length <= 0 {
		opts.Length = time.Duration(tl.DurationMs())*time.Millisecond + 2*time.Second
	}
	if opts.Step <= 0 {
		opts.Step = 250 * time.Millisecond
	}

	var stats simStats
	stamp := func() string {
		return lrc.FormatTag(clock.Now().Sub(start).Milliseconds())
	}
	sess.Subscribe(lyricsync.ListenerFuncs{
		OnActiveLine: func(index int, line *lrc.Line) {
			stats.LineChanges++
			if line == nil {
				fmt.Fprintf(w, "%s line   -  (none)\n", stamp())
				return
			}
			fmt.Fprintf(w, "%s line %3d  %s\n", stamp(), index, line.Content)
		},
		OnScroll: func(offsetPx float64) {
			stats.Scrolls++
			fmt.Fprintf(w, "%s scroll -> %g\n", stamp(), offsetPx)
		},
	})

	sess.LoadTimeline(tl)
	sess.SetViewport(opts.Viewport)
	for i := 0; i < tl.Len(); i++ {
		sess.ReportHeight(i, opts.LineHeight)
	}

	scrolls := append([]time.Duration(nil), opts.UserScrolls...)
	sort.Slice(scrolls, func(i, j int) bool { return scrolls[i] < scrolls[j] })

	for pos := time.Duration(0); pos <= opts.Length; pos += opts.Step {
		for len(scrolls) > 0 && scrolls[0] <= pos {
			clock.AdvanceTo(start.Add(scrolls[0]))
			fmt.Fprintf(w, "%s user scroll\n", stamp())
			sess.UserScroll()
			scrolls = scrolls[1:]
		}
		clock.AdvanceTo(start.Add(pos))
		sess.SetTime(float64(pos.Milliseconds()))
	}

	return stats
}

func parseDurations(s string) ([]time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []time.Duration
	for _, p := range strings.Split(s, ",") {
		d, err := time.ParseDuration(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		if d < 0 {
			return nil, fmt.Errorf("negative time %s", d)
		}
		out = append(out, d)
	}
	return out, nil
}
