package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/lookbook/internal/analytics"
	"github.com/kalambet/lookbook/internal/api"
	"github.com/kalambet/lookbook/internal/config"
	"github.com/kalambet/lookbook/internal/favorites"
	"github.com/kalambet/lookbook/internal/feedback"
	"github.com/kalambet/lookbook/internal/intel"
	"github.com/kalambet/lookbook/internal/logging"
	"github.com/kalambet/lookbook/internal/outfit"
	"github.com/kalambet/lookbook/internal/preferences"
	"github.com/kalambet/lookbook/internal/storage"
	"github.com/kalambet/lookbook/internal/wardrobe"
	"github.com/kalambet/lookbook/internal/watchlist"
	"github.com/kalambet/lookbook/internal/weather"
)

const analyticsBuffer = 256

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the lookbook server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		withMCP, _ := cmd.Flags().GetBool("mcp")
		return runServer(withMCP)
	},
}

func init() {
	startCmd.Flags().Bool("mcp", false, "also serve MCP tools over stdio")
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running lookbook server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show lookbook status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "lookbook.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// openKV opens the configured backend. The closer releases it.
func openKV(cfg config.StorageConfig) (storage.KV, io.Closer, error) {
	switch cfg.Backend {
	case "badger":
		kv, err := storage.OpenBadger(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv, nil
	default:
		st, err := storage.Open(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil
	}
}

func newWeatherProvider(cfg config.WeatherConfig) weather.Provider {
	if cfg.Provider == "http" {
		return weather.NewHTTPProvider(cfg.BaseURL, cfg.Latitude, cfg.Longitude)
	}
	return weather.Static{TemperatureF: cfg.StaticTempF}
}

// services is everything the HTTP and MCP surfaces share.
type services struct {
	ledger    *feedback.Ledger
	prefs     *preferences.Store
	watchlist *watchlist.Store
	wardrobe  *wardrobe.Store
	favorites *favorites.Store
	narrator  *intel.Narrator
	weather   weather.Provider
	generator *outfit.Generator
}

func buildServices(cfg config.Config, kv storage.KV, sink analytics.Sink) services {
	ledger := feedback.NewLedger(kv, sink)
	prefs := preferences.NewStore(kv)
	return services{
		ledger:    ledger,
		prefs:     prefs,
		watchlist: watchlist.NewStore(kv),
		wardrobe:  wardrobe.NewStore(kv),
		favorites: favorites.NewStore(kv),
		narrator:  intel.NewNarrator(kv, ledger, prefs, cfg.Intel.Cooldown),
		weather:   newWeatherProvider(cfg.Weather),
		generator: outfit.NewGenerator(),
	}
}

func runServer(withMCP bool) error {
	fmt.Fprintf(os.Stderr, "lookbook version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.Setup(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Dir:    cfg.Log.Dir,
		Stderr: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer logCloser.Close()

	if cfg.Server.APIToken == "" {
		logger.Warn("no API token configured, management endpoints are unauthenticated")
	}

	// Refuse to start twice: probe the health endpoint first.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("lookbook is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("lookbook is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kv, kvCloser, err := openKV(cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	defer func() {
		if err := kvCloser.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()
	logger.Info("storage opened", "backend", cfg.Storage.Backend, "dir", cfg.Storage.DataDir)

	g, gctx := errgroup.WithContext(ctx)

	var sink analytics.Sink = analytics.Nop{}
	if cfg.Analytics.Enabled {
		pipeline := analytics.NewPipeline(logger, analyticsBuffer)
		defer pipeline.Close()
		sink = pipeline.Sink()
		g.Go(func() error {
			return pipeline.Run(gctx, analytics.CountAndLog(logger.With("component", "analytics")))
		})
	}

	svc := buildServices(cfg, kv, sink)

	appHandler := api.NewAppHandler(api.AppDeps{
		Ledger:            svc.ledger,
		Preferences:       svc.prefs,
		Watchlist:         svc.watchlist,
		Wardrobe:          svc.wardrobe,
		Favorites:         svc.favorites,
		Narrator:          svc.narrator,
		Weather:           svc.weather,
		Generator:         svc.generator,
		MinWardrobe:       cfg.Wizard.MinWardrobe,
		Token:             cfg.Server.APIToken,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           appHandler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return gctx
		},
	}

	if withMCP {
		mcpSrv := api.NewMCPServer(api.MCPDeps{
			Ledger:      svc.ledger,
			Preferences: svc.prefs,
			Watchlist:   svc.watchlist,
			Wardrobe:    svc.wardrobe,
			Narrator:    svc.narrator,
			Weather:     svc.weather,
			Generator:   svc.generator,
			MinWardrobe: cfg.Wizard.MinWardrobe,
		})
		stdioSrv := server.NewStdioServer(mcpSrv)
		g.Go(func() error {
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
		logger.Info("MCP server started (stdio transport)")
	}

	g.Go(func() error {
		fmt.Fprintf(os.Stderr, "lookbook listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		fmt.Fprintln(os.Stderr, "shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("lookbook is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop lookbook (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to lookbook (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}
	client.httpClient.Timeout = 2 * time.Second

	ctx := context.Background()
	running := false
	if resp, err := client.get(ctx, "/health"); err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Storage", "%s at %s", cfg.Storage.Backend, cfg.Storage.DataDir)
	printStatus("Weather", "%s", weatherLabel(cfg.Weather))

	if running {
		if resp, err := client.get(ctx, "/feedback/stats"); err == nil {
			var stats feedback.Stats
			if decodeJSON(resp, &stats) == nil {
				printStatus("Feedback", "%d (%d%% liked)", stats.Total, stats.LikeRate)
			}
		}
		if resp, err := client.get(ctx, "/wardrobe"); err == nil {
			var items []wardrobe.Item
			if decodeJSON(resp, &items) == nil {
				printStatus("Wardrobe", "%s", countLabel(len(items), "item"))
			}
		}
		if resp, err := client.get(ctx, "/watchlist"); err == nil {
			var movies []watchlist.Movie
			if decodeJSON(resp, &movies) == nil {
				printStatus("Watchlist", "%s", countLabel(len(movies), "movie"))
			}
		}
	}
	return nil
}

func weatherLabel(cfg config.WeatherConfig) string {
	if cfg.Provider == "http" {
		base := cfg.BaseURL
		if base == "" {
			base = weather.DefaultBaseURL
		}
		return fmt.Sprintf("live from %s (%.2f, %.2f)", base, cfg.Latitude, cfg.Longitude)
	}
	return fmt.Sprintf("static %.0f°F", cfg.StaticTempF)
}

func countLabel(count int, noun string) string {
	if count == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", count, noun)
}
