package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fabricview/internal/config"
	"fabricview/internal/handler"
	"fabricview/internal/hub"
	"fabricview/internal/loader"
	"fabricview/internal/metrics"
	"fabricview/internal/nodenames"
	"fabricview/internal/session"
	"fabricview/internal/watcher"
)

func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve [dataset]",
		Short: "Serve the fabric viewer",
		Long: "Serve the fabric viewer. The optional dataset is a catalogue label or a\n" +
			"source reference and overrides default_dataset.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			initial := cfg.DefaultDataset
			if len(args) == 1 {
				initial = args[0]
			}
			return serve(cfg, path, cfg.ResolveDataset(initial))
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "HTTP listen address (overrides config)")
	return cmd
}

func serve(cfg *config.Config, path, initial string) error {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting fabricview server...")
	if path != "" {
		log.Printf("Config loaded: %s", path)
	}
	log.Print(cfg.Summary())

	classifier, err := cfg.Classifier()
	if err != nil {
		return err
	}

	store, err := openDeviceStore(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		log.Printf("Device catalogue opened: %s", cfg.Devices.Database)
	}

	opts := loader.Options{
		BaseDir: cfg.DatasetDir,
		Timeout: cfg.Fetch.Timeout.Duration(),
	}
	if ssh := cfg.Fetch.SSH; ssh.Enabled() {
		opts.SSH = &loader.SSHConfig{
			User:           ssh.User,
			KeyFile:        ssh.KeyPath,
			Passphrase:     ssh.Passphrase,
			Password:       ssh.Password,
			KnownHostsFile: ssh.KnownHostsPath,
		}
	}

	var names *nodenames.Map
	if cfg.NodeNameMap != "" {
		names, err = nodenames.Load(cfg.NodeNameMap)
		if err != nil {
			log.Printf("Warning: node name map unavailable: %v", err)
			names = nil
		} else {
			opts.Remapper = names
			log.Printf("Node name map loaded: %s (%d entries)", names.Path(), names.Len())
		}
	}

	lookup := deviceLookup(cfg, store)
	ld := loader.New(opts)
	sess := session.New(ld, session.Options{
		Layout:       cfg.LayoutConfig(),
		Icons:        classifier,
		Devices:      lookup,
		TickInterval: cfg.TickInterval.Duration(),
		Initial:      initial,
	})

	sseHub := hub.New()

	views := handler.NewViewHandler(sess, cfg.Datasets, lookup)

	mux := http.NewServeMux()
	views.Register(mux)
	mux.Handle("GET /events", sseHub)
	mux.Handle("GET /metrics", metrics.Handler())

	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		return fmt.Errorf("embedded web content: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(webContent)))

	server := &http.Server{
		Addr: cfg.Listen,
		Handler: handler.Chain(mux,
			handler.Recover,
			handler.CORS,
			handler.Logger,
			handler.Gzip,
		),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := sess.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := sseHub.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	// Observers on /events see the same frames as interactive clients
	g.Go(func() error {
		events := sess.Bus().Subscribe(4)
		defer sess.Bus().Unsubscribe(events)
		for {
			select {
			case ev := <-events:
				sseHub.Broadcast(string(ev.Type), ev.Payload)
			case <-ctx.Done():
				return nil
			}
		}
	})

	if cfg.Watch.Enabled {
		w, err := newDatasetWatcher(cfg, ld, names, sess)
		if err != nil {
			log.Printf("Warning: file watching disabled: %v", err)
		} else {
			g.Go(func() error {
				if err := w.Run(ctx); !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}
	}

	if interval := cfg.Watch.PollInterval.Duration(); interval > 0 {
		poller := watcher.NewPoller("remote datasets", interval, sess.Refresh)
		g.Go(func() error {
			if err := poller.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		log.Printf("Server listening on %s", cfg.Listen)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		return nil
	})

	err = g.Wait()
	log.Println("Server stopped")
	return err
}

// newDatasetWatcher reloads the current dataset when its file changes, and
// re-reads the node name map before reloading when the map changes
func newDatasetWatcher(cfg *config.Config, ld *loader.Loader, names *nodenames.Map, sess *session.Session) (*watcher.Watcher, error) {
	var namesPath string
	if names != nil {
		namesPath, _ = filepath.Abs(names.Path())
	}

	w, err := watcher.New(func(path string) {
		if names != nil && path == namesPath {
			if err := names.Reload(); err != nil {
				log.Printf("Failed to reload node name map: %v", err)
				return
			}
			sess.Reload()
			return
		}
		sess.FileChanged(path)
	})
	if err != nil {
		return nil, err
	}
	w.WithDebounce(cfg.Watch.Debounce.Duration())

	sources := make([]string, 0, len(cfg.Datasets)+1)
	for _, ds := range cfg.Datasets {
		sources = append(sources, ds.Source)
	}
	if cfg.DefaultDataset != "" {
		sources = append(sources, cfg.ResolveDataset(cfg.DefaultDataset))
	}

	for _, src := range sources {
		local, ok := ld.LocalPath(src)
		if !ok || w.Watching(local) {
			continue
		}
		if err := w.Add(local); err != nil {
			log.Printf("Cannot watch %s: %v", local, err)
		}
	}

	if names != nil {
		if err := w.Add(names.Path()); err != nil {
			log.Printf("Cannot watch %s: %v", names.Path(), err)
		}
	}

	return w, nil
}
