package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jwkaltz/gravitas/pkg/api"
	"github.com/jwkaltz/gravitas/pkg/cache"
	"github.com/jwkaltz/gravitas/pkg/pipeline"
	"github.com/jwkaltz/gravitas/pkg/store"
)

// Scene store backends for the serve command.
const (
	storeMemory = "memory"
	storeMongo  = "mongo"
)

// serveFlags are the serve command's flag values.
type serveFlags struct {
	addr       string
	storeKind  string
	mongoURI   string
	redisAddr  string
	logFile    string
	configPath string
}

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout engine as an HTTP API",
		Long: `Run the layout engine as an HTTP API.

The server stores uploaded snapshots as named scenes and answers solve and
frame queries against them, including a websocket stream of live solves.
Solved layouts and frames are cached by content hash; with --redis the cache
is shared across instances, otherwise it lives on the local disk.

Prometheus metrics for solves, frames, caches and HTTP traffic are exposed
on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", api.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&flags.storeKind, "store", storeMemory, "scene store backend: memory, mongo")
	cmd.Flags().StringVar(&flags.mongoURI, "mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI for --store mongo")
	cmd.Flags().StringVar(&flags.redisAddr, "redis", "", "Redis address for a shared cache (default: local file cache)")
	cmd.Flags().StringVar(&flags.logFile, "log-file", "", "log to a rotating file instead of stderr")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "TOML config file with layout, coarsen and viewport sections")

	return cmd
}

// runServe wires the store, cache and pipeline into the API server and
// blocks until the context is cancelled.
func (c *CLI) runServe(ctx context.Context, flags serveFlags) error {
	logger := c.Logger
	if flags.logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   flags.logFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		logger = newLogger(rotator, c.Logger.GetLevel())
	}

	opts := pipeline.Options{}
	if flags.configPath != "" {
		if err := loadConfig(flags.configPath, &opts); err != nil {
			return err
		}
	}

	serveCache, err := newServeCache(ctx, flags.redisAddr)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}

	sceneStore, err := newSceneStore(ctx, flags.storeKind, flags.mongoURI)
	if err != nil {
		return err
	}
	defer sceneStore.Close(context.Background())

	runner := pipeline.NewRunner(serveCache, nil, logger)
	defer runner.Close()

	srv, err := api.NewServer(api.Config{
		Addr:     flags.addr,
		Store:    sceneStore,
		Runner:   runner,
		Pipeline: opts,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	printInfo("Serving on %s", flags.addr)
	printDetail("Store: %s", flags.storeKind)
	if flags.redisAddr != "" {
		printDetail("Cache: redis (%s)", flags.redisAddr)
	}

	return srv.ListenAndServe(ctx)
}

// newServeCache picks the server cache backend. Redis entries are snappy
// compressed; frames and layouts compress well and shared caches pay for
// bandwidth.
func newServeCache(ctx context.Context, redisAddr string) (cache.Cache, error) {
	if redisAddr == "" {
		return newCache(false)
	}
	redis, err := cache.NewRedisCache(ctx, redisAddr)
	if err != nil {
		return nil, err
	}
	return cache.NewCompressedCache(redis), nil
}

// newSceneStore picks the scene store backend.
func newSceneStore(ctx context.Context, kind, mongoURI string) (store.Store, error) {
	switch kind {
	case storeMemory:
		return store.NewMemoryStore(), nil
	case storeMongo:
		return store.NewMongoStore(ctx, mongoURI)
	default:
		return nil, fmt.Errorf("unknown store %q (want memory or mongo)", kind)
	}
}
