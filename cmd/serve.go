package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kozaktomas/face-finder/internal/config"
	"github.com/kozaktomas/face-finder/internal/detector"
	"github.com/kozaktomas/face-finder/internal/facematch"
	"github.com/kozaktomas/face-finder/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Face Finder API server.

The server loads every stored face embedding into memory, then accepts image
uploads, detects faces through the embedding server and searches the index
for photos of the same person. POST /api/v1/index/reload picks up newly
indexed photos without a restart.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default WEB_PORT or 8000)")
	serveCmd.Flags().String("host", "", "Host to bind to (default WEB_HOST or 0.0.0.0)")
}

// newEngine builds the match engine from the match settings.
func newEngine(cfg *config.Config, store *facematch.Store, logger *slog.Logger) *facematch.Engine {
	return facematch.NewEngine(store,
		facematch.WithLogger(logger),
		facematch.WithSearchDefaults(cfg.Match.Threshold, cfg.Match.Limit),
		facematch.WithTempFaceTTL(cfg.Match.TempFaceTTL),
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	logger := cfg.Log.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Opening %s embedding source...\n", cfg.Database.Kind())
	source, err := openSource(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer source.Close()

	store := facematch.NewStore(source, cfg.Match.EmbeddingDim,
		facematch.WithStoreLogger(logger),
		facematch.WithHNSW(cfg.Match.Index == config.IndexHNSW),
	)
	engine := newEngine(cfg, store, logger)

	result, err := engine.Reload(ctx)
	switch {
	case err != nil:
		fmt.Printf("Warning: failed to load face embeddings: %v\n", err)
		fmt.Printf("Starting with an empty index, fix the source and call POST /api/v1/index/reload\n")
	case result.SourceMissing:
		fmt.Printf("Warning: embedding source not found, starting with an empty index\n")
	default:
		fmt.Printf("Loaded %d faces from %d photos in %s\n", result.Total, result.Photos, result.Duration.Round(time.Millisecond))
	}

	server := web.NewServer(cfg, engine, source, detector.NewClient(cfg.Detector.URL), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		return engine.RunJanitor(gctx, cfg.Match.PurgeInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	fmt.Printf("Starting Face Finder on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
