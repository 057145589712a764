package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/soundscapelab/soundscape/internal"
	"github.com/soundscapelab/soundscape/internal/device"
	"github.com/soundscapelab/soundscape/internal/lifecycle"
	"github.com/soundscapelab/soundscape/internal/mcpserver"
	"github.com/soundscapelab/soundscape/internal/mediastore"
	"github.com/soundscapelab/soundscape/internal/noteservice"
	"github.com/soundscapelab/soundscape/internal/notesdb"
	"github.com/soundscapelab/soundscape/internal/session"
	pkgconfig "github.com/soundscapelab/soundscape/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// serveMCP runs the MCP stdio server against the same database and media
// root the HTTP server uses. Stdout belongs to the MCP transport, so logs
// are silenced.
func serveMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if err := os.MkdirAll(cfg.Media.Path, 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	store, err := mediastore.NewFS(cfg.Media.Path)
	if err != nil {
		return fmt.Errorf("init media store: %w", err)
	}
	db, err := notesdb.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init notes db: %w", err)
	}
	defer db.Close()

	coord := session.NewCoordinator(
		store,
		func() device.CaptureDevice {
			return device.NewFFmpegCapture(cfg.Audio.Format, cfg.Audio.Source)
		},
		func() device.PlaybackDevice { return device.NewFFplayPlayback() },
		cfg.Playback.ProgressInterval(),
		nil,
		logger,
	)
	defer coord.Shutdown()

	svc := noteservice.NewService(db, store, lifecycle.NewManager(db, store, logger), coord)
	return mcpserver.New(svc).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "soundscape",
		Usage:  "Voice note service with audio recording, playback previews and image attachments",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "mcp",
				Usage:  "Run the MCP stdio server for LLM integration",
				Action: serveMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
