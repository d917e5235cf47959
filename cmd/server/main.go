package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/himanishpuri/LyricSync/internal/config"
	"github.com/himanishpuri/LyricSync/pkg/logger"
	"github.com/himanishpuri/LyricSync/pkg/lyricsync"
)

func main() {
	var (
		configPath     string
		port           string
		dbPath         string
		allowedOrigins string
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config (default $LYRICSYNC_CONFIG)")
	flag.StringVar(&port, "port", "", "HTTP server port (overrides config)")
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
	flag.StringVar(&allowedOrigins, "origins", "", "Comma-separated list of allowed CORS origins (use * for all)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if port != "" {
		cfg.Server.Port = strings.TrimPrefix(port, ":")
	}
	if dbPath != "" {
		cfg.Storage.DBPath = dbPath
	}
	if allowedOrigins != "" {
		cfg.Server.AllowedOrigins = splitOrigins(allowedOrigins)
	}

	if lvl, ok := logger.ParseLevel(cfg.LogLevel); ok {
		logger.SetLevel(lvl)
	}
	warnings, err := cfg.Validate()
	if err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}
	for _, w := range warnings {
		logger.Warnf("config: %s", w)
	}

	service, err := lyricsync.NewService(cfg.Options()...)
	if err != nil {
		logger.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	server := NewServer(service, &ServerConfig{
		Addr:           cfg.Addr(),
		Backend:        cfg.Storage.Backend,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logger.Errorf("Server failed: %v", err)
	}
}

func splitOrigins(s string) []string {
	if strings.TrimSpace(s) == "*" {
		return []string{"*"}
	}
	origins := strings.Split(s, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}
