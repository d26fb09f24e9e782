package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/Vinod798751/anoma/internal/config"
	"github.com/Vinod798751/anoma/internal/router"
	"github.com/Vinod798751/anoma/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storage actor as a daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	log := slog.Default()
	dir := config.DataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// One daemon per data directory.
	lock := flock.New(filepath.Join(dir, "anoma.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire data dir lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("data dir %s is locked by another process", dir)
	}
	defer func() { _ = lock.Unlock() }()

	r := router.New()
	defer r.Shutdown()

	var topic *router.Topic
	if name := config.TopicName(); name != "" {
		topic = r.Topic(name)
	}

	store, _, closeFn, err := openStorage(ctx, sinkOrNil(topic))
	if err != nil {
		return err
	}
	defer closeFn()

	if err := r.Spawn("storage", storage.NewServer(store)); err != nil {
		return err
	}
	log.Info("storage actor running", "data_dir", dir, "backend", config.Backend())

	// Mirror published write events into the log.
	if topic != nil {
		sub := topic.Subscribe(256)
		defer sub.Close()
		go func() {
			for msg := range sub.C() {
				switch ev := msg.(type) {
				case storage.PutEvent:
					log.Info("put", "key", ev.Key.String(), "present", ev.Value.Present, "error", ev.Err)
				case storage.WriteEvent:
					log.Info("write", "key", ev.Key.String(), "version", ev.Version, "error", ev.Err)
				case storage.DeleteTableEvent:
					log.Info("table dropped", "table", ev.Table, "error", ev.Err)
				}
			}
		}()
	}

	// Log config file changes; the running daemon keeps its settings.
	if config.ConfigFileUsed() != "" {
		config.Viper().OnConfigChange(func(e fsnotify.Event) {
			log.Info("config file changed, restart to apply", "file", e.Name, "op", e.Op.String())
		})
		config.Viper().WatchConfig()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context canceled, shutting down")
	}
	return nil
}

// sinkOrNil avoids handing the engine a typed nil.
func sinkOrNil(t *router.Topic) storage.Sink {
	if t == nil {
		return nil
	}
	return t
}
