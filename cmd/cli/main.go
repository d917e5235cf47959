package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/himanishpuri/LyricSync/internal/config"
	"github.com/himanishpuri/LyricSync/pkg/logger"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync/lrc"
)

// Global flags
var (
	configPath string
	dbPath     string
)

func init() {
	// Global flags that can be used with any command
	flag.StringVar(&configPath, "config", config.GetEnvOrDefault("LYRICSYNC_CONFIG", ""), "Path to a YAML config file")
	flag.StringVar(&dbPath, "db", "", "Path to the SQLite database file (overrides config)")
	flag.Usage = printUsage
}

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	if lvl, ok := logger.ParseLevel(cfg.LogLevel); ok {
		logger.SetLevel(lvl)
	}

	warnings, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warnf("config: %s", w)
	}
	return cfg, nil
}

// createService creates a new LyricSync service with configured options
func createService(extra ...lyricsync.Option) (lyricsync.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return lyricsync.NewService(append(cfg.Options(), extra...)...)
}

// mustService creates the service or exits.
func mustService(extra ...lyricsync.Option) lyricsync.Service {
	svc, err := createService(extra...)
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		logger.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	return svc
}

func fail(format string, args ...any) {
	fmt.Printf("❌ "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	flag.Parse()
	args := flag.Args()

	if len(args) < 1 {
		printBanner()
		printUsage()
		os.Exit(1)
	}

	command, rest := args[0], args[1:]
	logger.Debugf("Executing command: %s", command)

	switch command {
	case "add":
		handleAdd(rest)
	case "list":
		handleList(rest)
	case "show":
		handleShow(rest)
	case "delete":
		handleDelete(rest)
	case "parse":
		handleParse(rest)
	case "resolve":
		handleResolve(rest)
	case "offset":
		handleOffset(rest)
	case "simulate":
		handleSimulate(rest)
	case "play":
		handlePlay(rest)
	case "config":
		handleConfig(rest)
	case "help", "-h", "--help":
		printBanner()
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// splitArgs separates leading positional arguments from the flags after
// them, so "add song.lrc --title X" works with the flag package.
func splitArgs(args []string) (positional, flags []string) {
	for i, arg := range args {
		if strings.HasPrefix(arg, "-") {
			return positional, args[i:]
		}
		positional = append(positional, arg)
	}
	return positional, nil
}

// loadSource returns LRC text from a file path, or from the store when ref
// is not a readable file. The second value is the transcript ID, if any.
func loadSource(ctx context.Context, ref string) (string, string, error) {
	data, err := os.ReadFile(ref)
	if err == nil {
		return string(data), "", nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", "", err
	}

	svc, serr := createService()
	if serr != nil {
		return "", "", serr
	}
	defer svc.Close()

	t, gerr := svc.GetTranscript(ctx, ref)
	if errors.Is(gerr, lyricsync.ErrTranscriptNotFound) {
		return "", "", fmt.Errorf("%s is neither a file nor a stored transcript", ref)
	}
	if gerr != nil {
		return "", "", gerr
	}
	return t.Source, t.ID, nil
}

// parseTimeArg accepts milliseconds ("83500") or a clock position
// ("1:23.5").
func parseTimeArg(s string) (float64, error) {
	s = strings.TrimSpace(s)
	minStr, secStr, ok := strings.Cut(s, ":")
	if !ok {
		return strconv.ParseFloat(s, 64)
	}

	m, err := strconv.Atoi(minStr)
	if err != nil || m < 0 {
		return 0, fmt.Errorf("invalid minutes in %q", s)
	}
	secs, err := strconv.ParseFloat(secStr, 64)
	if err != nil || secs < 0 || secs >= 60 {
		return 0, fmt.Errorf("invalid seconds in %q", s)
	}
	return float64(m)*60000 + secs*1000, nil
}

// formatClock renders milliseconds as m:ss.
func formatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func describeLine(idx int, line *lrc.Line) string {
	if line == nil {
		return fmt.Sprintf("%d (before the first line)", idx)
	}
	return fmt.Sprintf("%d %s %s", idx, lrc.FormatTag(line.TimestampMs), line.Content)
}

func printBanner() {
	banner := `
 _               _      ____
| |   _   _ _ __(_) ___/ ___| _   _ _ __   ___
| |  | | | | '__| |/ __\___ \| | | | '_ \ / __|
| |__| |_| | |  | | (__ ___) | |_| | | | | (__
|_____\__, |_|  |_|\___|____/ \__, |_| |_|\___|
      |___/                   |___/
         Lyric Sync & Auto-Scroll CLI
`
	fmt.Println(banner)
}

func printUsage() {
	fmt.Println("LyricSync - Lyric Synchronization CLI")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --config <path>    YAML config file (env: LYRICSYNC_CONFIG)")
	fmt.Println("  --db <path>        Path to SQLite database (env: LYRICSYNC_DB_PATH, default: lyricsync.sqlite3)")
	fmt.Println("\nUsage:")
	fmt.Println("  lyricsync [global-options] add <file.lrc> [--title <title>] [--artist <artist>] [--audio <track>]")
	fmt.Println("  lyricsync [global-options] list")
	fmt.Println("  lyricsync [global-options] show <id>")
	fmt.Println("  lyricsync [global-options] delete <id>")
	fmt.Println("  lyricsync parse <file.lrc>")
	fmt.Println("  lyricsync [global-options] resolve <file.lrc|id> <time>")
	fmt.Println("  lyricsync offset --heights <h0,h1,...> --index <i> [--mode top|centered] [--viewport <px>] [--fraction <f>]")
	fmt.Println("  lyricsync [global-options] simulate <file.lrc|id> [--audio <track>] [--step <dur>] [--user-scroll <t1,t2,...>]")
	fmt.Println("  lyricsync [global-options] play <file.lrc|id> [--mode top|centered] [--audio <track>]")
	fmt.Println("  lyricsync [global-options] config")
	fmt.Println("\nExamples:")
	fmt.Println("  # Store a transcript, title and artist taken from [ti:]/[ar:] tags")
	fmt.Println("  lyricsync add song.lrc")
	fmt.Println()
	fmt.Println("  # Which line is active at 1:23.5?")
	fmt.Println("  lyricsync resolve song.lrc 1:23.5")
	fmt.Println()
	fmt.Println("  # Watch the engine react to a user scroll at 4s")
	fmt.Println("  lyricsync simulate song.lrc --user-scroll 4s")
}
