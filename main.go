// Package main provides the entry point for the Hat Editor application.
//
// Usage:
//
//	hat-editor [-config config.yaml] [-log-level debug] [photo]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"hat-editor/internal/app"
	"hat-editor/internal/catalog"
	"hat-editor/internal/editor"
	"hat-editor/internal/export"
	"hat-editor/internal/scene"
	"hat-editor/internal/version"
	"hat-editor/ui/mainwindow"
	"hat-editor/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/dialog"
)

func main() {
	configPath := flag.String("config", app.DefaultConfigPath(), "path to config.yaml")
	logLevel := flag.String("log-level", "", "override log level: debug, info, warn, error")
	flag.Parse()

	cfg, err := app.LoadConfigOrDefault(*configPath)
	if err != nil {
		slog.Error("hat-editor: config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		slog.Error("hat-editor: config", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logger.Info("starting", "version", version.String(), "config", *configPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	run(ctx, logger, cfg, flag.Arg(0))
}

func run(ctx context.Context, logger *slog.Logger, cfg *app.Config, photo string) {
	var fallback export.Saver
	if cfg.Export.TempFallback {
		fallback = export.TempSaver()
	}
	downloadDir := cfg.Export.DownloadDir
	if downloadDir == "" {
		downloadDir = export.DefaultDownloadDir()
	}
	exporter := export.NewService(export.Options{
		Prefix:   cfg.Export.Prefix,
		Saver:    export.DirSaver{Dir: downloadDir},
		Fallback: fallback,
		Logger:   logger.With("component", "export"),
	})

	ed := editor.New(editor.Options{
		Limits:   cfg.Limits(),
		IDs:      scene.UUIDs(),
		Exporter: exporter,
		Logger:   logger.With("component", "editor"),
	})
	defer ed.Close()

	hats := catalog.New(cfg.Catalog.Dir, cfg.Catalog.MaxIndex, logger.With("component", "catalog"))
	hats.OnChanged(func(hat scene.Hat) { ed.ForgetSprite(hat.Src) })
	hats.Refresh()
	if cfg.Catalog.Watch {
		go func() {
			if err := hats.Watch(ctx); err != nil {
				logger.Warn("catalog watch disabled", "error", err)
			}
		}()
	}

	fyneApp := fyneapp.NewWithID("io.github.hat-editor")
	fyneApp.Settings().SetTheme(&app.HatTheme{})

	win := mainwindow.New(ctx, fyneApp, mainwindow.Options{
		Editor:    ed,
		Catalog:   hats,
		Prefs:     prefs.Load(),
		ThumbSize: cfg.Catalog.ThumbnailSize,
		Logger:    logger.With("component", "ui"),
	})

	if photo != "" {
		if err := win.OpenFile(photo); err != nil {
			logger.Warn("failed to open photo", "path", photo, "error", err)
			dialog.ShowError(err, win.Window)
		}
	}

	go func() {
		<-ctx.Done()
		fyneApp.Quit()
	}()

	win.ShowAndRun()
}
