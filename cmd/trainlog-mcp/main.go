// Command trainlog-mcp serves the training log over the Model Context
// Protocol on stdio.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/trainlog/internal/api"
	"github.com/claude/trainlog/internal/catalog"
	"github.com/claude/trainlog/internal/config"
	"github.com/claude/trainlog/internal/mcp"
	"github.com/claude/trainlog/internal/records"
	"github.com/claude/trainlog/internal/session"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("trainlog-mcp", Version)
		return
	}

	// Stdout carries the protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	client := api.New(cfg.Server.BaseURL, cfg.Auth.BearerToken)
	store := records.New(client, cfg.User.ID, log)
	ctrl := session.New(client, store, cfg.User.ID, log)
	cat := catalog.New(client, cfg.User.ID, log)

	s := mcp.New(store, ctrl, cat, Version, log)
	log.Info("trainlog-mcp serving on stdio", "version", Version)
	if err := server.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
