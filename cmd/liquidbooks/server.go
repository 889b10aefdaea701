package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
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

	"github.com/liquidbooks/liquidbooks/internal/api"
	"github.com/liquidbooks/liquidbooks/internal/config"
	"github.com/liquidbooks/liquidbooks/internal/draft"
	"github.com/liquidbooks/liquidbooks/internal/generate"
	"github.com/liquidbooks/liquidbooks/internal/publish"
	"github.com/liquidbooks/liquidbooks/internal/storage"
	"github.com/liquidbooks/liquidbooks/internal/twin"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the liquidbooks server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running liquidbooks server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show liquidbooks system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus()
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "liquidbooks.pid")
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

func runServer() error {
	fmt.Fprintf(os.Stderr, "liquidbooks version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("liquidbooks is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("liquidbooks is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	// Build the twin manager and generation client.
	twins := twin.NewManager(store)
	gen := generate.NewClient(cfg.Generate.OpenRouterAPIKey)
	gen.SetModel(cfg.Generate.Model)

	if cfg.GitHub.Token == "" || cfg.GitHub.Owner == "" {
		slog.Warn("GitHub token or owner not configured, publishing will fail")
	}
	pub := publish.NewPublisher(cfg.GitHub.Token, cfg.GitHub.Owner)

	// Start the draft worker.
	pollInterval, err := time.ParseDuration(cfg.Worker.PollInterval)
	if err != nil {
		slog.Warn("invalid poll interval, using default 500ms", "value", cfg.Worker.PollInterval, "error", err)
		pollInterval = 500 * time.Millisecond
	}
	worker := draft.NewWorker(store, twins, gen, pub, pollInterval)
	go worker.Run(ctx)

	// Build HTTP handler and server.
	appHandler := api.NewAppHandler(api.AppDeps{
		Store:      store,
		Twins:      twins,
		Token:      cfg.API.Token,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: appHandler,
	}

	// Build the MCP server: stdio transport plus SSE on the MCP port.
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Store: store,
		Twins: twins,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	sseSrv := server.NewSSEServer(mcpSrv)
	go func() {
		mcpAddr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.MCPPort)
		if err := sseSrv.Start(mcpAddr); err != nil && err != http.ErrServerClosed {
			slog.Error("MCP SSE server error", "error", err)
		}
	}()
	slog.Info("MCP server started", "sse_port", cfg.Server.MCPPort)

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "liquidbooks listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sseSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("MCP SSE shutdown", "error", err)
	}
	return srv.Shutdown(shutdownCtx)
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
		printError("liquidbooks is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop liquidbooks (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to liquidbooks (PID %d)", pid)
	return nil
}

func showStatus() error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	running := false
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("MCP port", "%d", cfg.Server.MCPPort)
	printStatus("Model", "%s", cfg.Generate.Model)
	if cfg.GitHub.Owner != "" {
		printStatus("GitHub owner", "%s", cfg.GitHub.Owner)
	}

	// Show twin and book counts if server is running.
	if running {
		apiC := &apiClient{
			baseURL:    serverURL,
			token:      cfg.API.Token,
			httpClient: client,
		}
		ctx := context.Background()

		if twinResp, err := apiC.get(ctx, "/twin"); err == nil {
			var rec struct {
				CreatedAt string `json:"createdAt"`
			}
			if decodeJSON(twinResp, &rec) == nil && rec.CreatedAt != "" {
				printStatus("Twin", "built %s", rec.CreatedAt)
			} else {
				printStatus("Twin", "not built")
			}
		}

		if booksResp, err := apiC.get(ctx, "/books?limit=100"); err == nil {
			var books []struct {
				ID string `json:"id"`
			}
			if decodeJSON(booksResp, &books) == nil {
				printStatus("Books", "%s", countLabel(len(books), 100))
			}
		}
	}

	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}

func countLabel(count, limit int) string {
	if count >= limit {
		return fmt.Sprintf("%d+", count)
	}
	return fmt.Sprintf("%d", count)
}
