package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/user/workshop/internal/api"
	"github.com/user/workshop/internal/config"
	"github.com/user/workshop/internal/db"
	"github.com/user/workshop/internal/dbtool"
	"github.com/user/workshop/internal/editors"
	"github.com/user/workshop/internal/hub"
	"github.com/user/workshop/internal/logs"
	"github.com/user/workshop/internal/project"
	"github.com/user/workshop/internal/pty"
	"github.com/user/workshop/internal/server"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	wsHub := hub.New(cfg.Token)
	go wsHub.Run(ctx)

	terminal := pty.NewManager(pty.NewRegistry(), wsHub)
	defer terminal.Close()
	wsHub.SetTerminal(terminal)

	editorRegistry, err := editors.NewRegistry(cfg.EditorsDir)
	if err != nil {
		return fmt.Errorf("load editors: %w", err)
	}

	repo := db.NewProjectRepo(database.SQL())
	projects := project.NewService(repo, editorRegistry, wsHub)

	dbtools := dbtool.NewManager()
	defer dbtools.Close()

	watcher, err := logs.NewWatcher(wsHub, slog.Default())
	if err != nil {
		return fmt.Errorf("create log watcher: %w", err)
	}
	go watcher.Run(ctx)
	watchExistingProjects(ctx, projects, watcher)

	apiHandler := api.NewRouter(projects, terminal, dbtools, watcher, cfg.Token)
	srv, err := server.New(cfg, wsHub, apiHandler)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	if cfg.PrintToken {
		fmt.Printf("\nworkshop running at http://localhost:%d?token=%s\n\n", cfg.Port, cfg.Token)
	} else {
		fmt.Printf("\nworkshop running at http://localhost:%d\n\n", cfg.Port)
	}

	return srv.Start(ctx)
}

// watchExistingProjects puts every stored project's log directory under
// watch at startup. Failures are logged and skipped; a missing directory is
// not an error.
func watchExistingProjects(ctx context.Context, projects *project.Service, watcher *logs.Watcher) {
	stored, err := projects.List(ctx, "")
	if err != nil {
		slog.Warn("could not list projects for log watching", "error", err)
		return
	}
	for _, p := range stored {
		if err := watcher.Watch(p.ID, p.Location); err != nil {
			slog.Warn("could not watch project logs", "project", p.ID, "error", err)
		}
	}
}
