package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/notewire/notewire/pkg/api"
	"github.com/notewire/notewire/pkg/config"
	"github.com/notewire/notewire/pkg/log"
	"github.com/notewire/notewire/pkg/messages"
	"github.com/notewire/notewire/pkg/notes"
	"github.com/notewire/notewire/pkg/realtime"
	"github.com/notewire/notewire/pkg/session"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Notewire server",
	Long: `Run the HTTP API, the realtime hub, and the selected note store.

Without --config the server uses an in-memory store on :3000. Flags
override the config file.`,
	RunE: runServe,
}

func init() {
	serveFlags(serveCmd)
}

func serveFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to YAML config file")
	cmd.Flags().String("listen", "", "HTTP listen address")
	cmd.Flags().String("backend", "", "note store backend (memory, filesystem, sqlite, bolt)")
	cmd.Flags().String("root", "", "notes directory (filesystem backend)")
	cmd.Flags().String("dsn", "", "database file (sqlite backend)")
	cmd.Flags().String("path", "", "database file (bolt backend)")
	cmd.Flags().Bool("watch", false, "watch the notes directory for external edits (filesystem backend)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Listen = listen
	}
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Store.Backend = backend
	}
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.Store.Root = root
	}
	if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if path, _ := cmd.Flags().GetString("path"); path != "" {
		cfg.Store.Path = path
	}
	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		cfg.Store.Watch = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func initLogging(cfg *config.Config) {
	log.Init(log.Config{
		Level:      log.Level(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	initLogging(cfg)
	logger := log.WithComponent("serve")

	noteStore, err := notes.DefaultRegistry.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open note store: %w", err)
	}
	defer notes.DefaultRegistry.Close()

	msgStore, err := openMessageStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open message store: %w", err)
	}
	defer msgStore.Close()

	sessions := session.NewStore(cfg.SessionTTL.Std())
	defer sessions.Close()

	hub := realtime.NewHub(noteStore, msgStore)
	hub.Run()
	defer hub.Stop()

	server := api.NewServer(noteStore, msgStore, sessions, hub)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Listen)
	}()

	logger.Info().
		Str("listen", cfg.Listen).
		Str("backend", cfg.Store.Backend).
		Msg("server running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return nil
}

// openMessageStore picks the message backend to match the note backend:
// sqlite notes share their database file with messages, everything else
// keeps messages in memory.
func openMessageStore(cfg *config.Config) (messages.Store, error) {
	if cfg.Store.Backend == notes.BackendSQLite {
		return messages.NewSQLiteStore(cfg.Store.DSN)
	}
	return messages.NewMemoryStore(), nil
}
