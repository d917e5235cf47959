package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/LyricSync/pkg/logger"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/audio"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/lrc"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/scroll"
)

func handleAdd(args []string) {
	log := logger.GetLogger()

	positional, flagArgs := splitArgs(args)
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	title := addCmd.String("title", "", "Song title (default: the [ti:] tag)")
	artist := addCmd.String("artist", "", "Artist name (default: the [ar:] tag)")
	audioPath := addCmd.String("audio", "", "Audio track to read title/artist tags from when the LRC has none")
	addCmd.Parse(flagArgs)

	if len(positional) != 1 {
		fmt.Println("Usage: lyricsync add <file.lrc> [--title <title>] [--artist <artist>] [--audio <track>]")
		os.Exit(1)
	}
	lrcPath := positional[0]

	data, err := os.ReadFile(lrcPath)
	if err != nil {
		fail("Failed to read %s: %v", lrcPath, err)
	}
	text := string(data)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *audioPath != "" {
		meta, err := audio.Read(ctx, *audioPath)
		if err != nil {
			log.Warnf("Could not read audio metadata from %s: %v", *audioPath, err)
		} else {
			tl := lrc.Parse(text)
			if _, ok := tl.Metadata("ti"); !ok && *title == "" {
				*title = meta.Title
			}
			if _, ok := tl.Metadata("ar"); !ok && *artist == "" {
				*artist = meta.Artist
			}
			if meta.Duration > 0 && tl.DurationMs() > meta.DurationMs() {
				log.Warnf("Last line at %s is past the end of the track (%s)",
					formatClock(tl.DurationMs()), formatClock(meta.DurationMs()))
			}
		}
	}

	svc := mustService()
	defer svc.Close()

	id, err := svc.AddTranscript(ctx, *title, *artist, text)
	if errors.Is(err, lyricsync.ErrMissingTitle) {
		fail("No title: pass --title or add a [ti:] tag to %s", lrcPath)
	}
	if err != nil {
		log.Errorf("AddTranscript failed: %v", err)
		fail("Failed to add transcript: %v", err)
	}

	t, err := svc.GetTranscript(ctx, id)
	if err != nil {
		fail("Failed to read back transcript %s: %v", id, err)
	}

	fmt.Println("\n✅ Successfully added transcript!")
	fmt.Printf("   ID:       %s\n", t.ID)
	fmt.Printf("   Title:    %s\n", t.Title)
	if t.Artist != "" {
		fmt.Printf("   Artist:   %s\n", t.Artist)
	}
	fmt.Printf("   Lines:    %d\n", t.LineCount)
	fmt.Printf("   Duration: %s\n", formatClock(t.DurationMs))
}

func handleList(args []string) {
	log := logger.GetLogger()

	svc := mustService()
	defer svc.Close()

	transcripts, err := svc.ListTranscripts(context.Background())
	if err != nil {
		log.Errorf("ListTranscripts failed: %v", err)
		fail("Failed to list transcripts: %v", err)
	}

	if len(transcripts) == 0 {
		fmt.Println("\n📭 No transcripts in database")
		return
	}

	fmt.Printf("\n📚 Found %d transcript(s):\n\n", len(transcripts))
	for i, t := range transcripts {
		by := ""
		if t.Artist != "" {
			by = " by " + t.Artist
		}
		fmt.Printf("%d. \"%s\"%s\n", i+1, t.Title, by)
		fmt.Printf("   ID: %s\n", t.ID)
		fmt.Printf("   %s lines, %s long, added %s\n",
			humanize.Comma(int64(t.LineCount)), formatClock(t.DurationMs), humanize.Time(t.CreatedAt))
		fmt.Println()
	}
}

func handleShow(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: lyricsync show <id>")
		os.Exit(1)
	}

	svc := mustService()
	defer svc.Close()

	t, err := svc.GetTranscript(context.Background(), args[0])
	if errors.Is(err, lyricsync.ErrTranscriptNotFound) {
		fail("Transcript not found (ID: %s)", args[0])
	}
	if err != nil {
		fail("Failed to load transcript: %v", err)
	}

	fmt.Printf("\n🎵 \"%s\"", t.Title)
	if t.Artist != "" {
		fmt.Printf(" by %s", t.Artist)
	}
	fmt.Println()
	fmt.Printf("   ID:      %s\n", t.ID)
	fmt.Printf("   Added:   %s (%s)\n", t.CreatedAt.Local().Format(time.RFC1123), humanize.Time(t.CreatedAt))
	fmt.Printf("   Source:  %s\n", humanize.Bytes(uint64(len(t.Source))))
	fmt.Println()
	printLines(t.Timeline())
}

func handleDelete(args []string) {
	log := logger.GetLogger()

	if len(args) != 1 {
		fmt.Println("Usage: lyricsync delete <id>")
		os.Exit(1)
	}
	id := args[0]

	svc := mustService()
	defer svc.Close()

	ctx := context.Background()
	t, err := svc.GetTranscript(ctx, id)
	if err != nil {
		log.Warnf("Transcript %s not found: %v", id, err)
		fail("Transcript not found (ID: %s)", id)
	}

	if err := svc.DeleteTranscript(ctx, id); err != nil {
		log.Errorf("DeleteTranscript failed: %v", err)
		fail("Failed to delete transcript: %v", err)
	}

	fmt.Printf("\n✅ Successfully deleted transcript:\n")
	fmt.Printf("   ID:     %s\n", t.ID)
	fmt.Printf("   Title:  %s\n", t.Title)
	fmt.Printf("   Artist: %s\n", t.Artist)
}

func handleParse(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: lyricsync parse <file.lrc>")
		os.Exit(1)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fail("Failed to read %s: %v", args[0], err)
	}

	tl := lrc.Parse(string(data))
	meta := tl.AllMetadata()
	if len(meta) > 0 {
		keys := make([]string, 0, len(meta))
		for k := range meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("[%s] %s\n", k, meta[k])
		}
		fmt.Println()
	}
	printLines(tl)
}

func printLines(tl *lrc.Timeline) {
	for i, line := range tl.Lines() {
		fmt.Printf("%4d  %s  %s\n", i, lrc.FormatTag(line.TimestampMs), line.Content)
	}
	fmt.Printf("\n%d timed line(s)", tl.Len())
	if off := tl.OffsetMs(); off != 0 {
		fmt.Printf(", offset tag %+dms (not applied)", off)
	}
	fmt.Println()
}

func handleResolve(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: lyricsync resolve <file.lrc|id> <time>")
		fmt.Println("   time is milliseconds (83500) or m:ss.xx (1:23.5)")
		os.Exit(1)
	}

	ms, err := parseTimeArg(args[1])
	if err != nil {
		fail("Invalid time %q: %v", args[1], err)
	}

	text, _, err := loadSource(context.Background(), args[0])
	if err != nil {
		fail("%v", err)
	}

	tl := lrc.Parse(text)
	idx := tl.Resolve(ms)
	var line *lrc.Line
	if l, ok := tl.Line(idx); ok {
		line = &l
	}
	fmt.Printf("%s -> %s\n", lrc.FormatTag(int64(ms)), describeLine(idx, line))
}

func handleOffset(args []string) {
	offCmd := flag.NewFlagSet("offset", flag.ExitOnError)
	heightsArg := offCmd.String("heights", "", "Comma-separated rendered line heights")
	index := offCmd.Int("index", 0, "Active line index (-1 for none)")
	modeArg := offCmd.String("mode", "top", "Alignment: top or centered")
	viewport := offCmd.Float64("viewport", 0, "Viewport height (centered mode)")
	fraction := offCmd.Float64("fraction", lyricsync.DefaultCenterOffsetFraction, "Anchor position as a fraction of the viewport (centered mode)")
	offCmd.Parse(args)

	heights, err := parseHeights(*heightsArg)
	if err != nil {
		fail("Invalid --heights: %v", err)
	}
	mode, ok := scroll.ParseMode(*modeArg)
	if !ok {
		fail("Unknown mode %q (want top or centered)", *modeArg)
	}

	off := scroll.ComputeOffset(heights, *index, scroll.Layout{
		Mode:           mode,
		ViewportHeight: *viewport,
		CenterFraction: *fraction,
	})
	fmt.Println(strconv.FormatFloat(off, 'f', -1, 64))
}

// parseHeights turns "20,30,25" into a fully measured Heights.
func parseHeights(s string) (scroll.Heights, error) {
	if strings.TrimSpace(s) == "" {
		return scroll.NewHeights(0), nil
	}
	parts := strings.Split(s, ",")
	h := scroll.NewHeights(len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("height %d: %w", i, err)
		}
		h.Set(i, v)
	}
	return h, nil
}

func handleConfig(args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fail("Failed to load config: %v", err)
	}
	data, err := cfg.Marshal()
	if err != nil {
		fail("Failed to render config: %v", err)
	}
	if p := cfg.Path(); p != "" {
		fmt.Printf("# loaded from %s\n", p)
	}
	fmt.Print(string(data))
}
