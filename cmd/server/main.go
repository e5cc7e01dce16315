package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/peterbourgon/ff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/godutch/internal/auth"
	"github.com/mmynk/godutch/internal/config"
	"github.com/mmynk/godutch/internal/metrics"
	"github.com/mmynk/godutch/internal/middleware"
	"github.com/mmynk/godutch/internal/scanning"
	"github.com/mmynk/godutch/internal/service"
	"github.com/mmynk/godutch/internal/storage"
	"github.com/mmynk/godutch/internal/storage/bolt"
	"github.com/mmynk/godutch/internal/storage/sqlite"
	"github.com/mmynk/godutch/pkg/api/apiconnect"
	"github.com/mmynk/godutch/pkg/logging"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		var usageErr *config.UsageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "%s\n", usageErr.Usage)
		}
		if errors.Is(err, ff.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "store", cfg.Store, "database", cfg.DBPath)

	scanner, err := newScanner(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing scanner: %w", err)
	}
	defer scanner.Close()
	slog.Info("Scanner initialized", "scanner", scanner.Name())

	if cfg.GeneratedSecret {
		slog.Warn("No --jwt-secret configured; using a random secret, sessions will not survive a restart")
	}
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	operatorAuth, err := auth.NewBasicAuth(cfg.AuthUser, cfg.AuthPass)
	if err != nil {
		return fmt.Errorf("initializing basic auth: %w", err)
	}
	if operatorAuth.Enabled() {
		slog.Info("Basic auth enabled for operator endpoints", "user", cfg.AuthUser)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	mux := http.NewServeMux()

	// Connect service; the session interceptor runs first so that the
	// logging interceptor sees the session ID.
	sessions := service.NewSessionService(store, jwtManager, m)
	sessionPath, sessionHandler := apiconnect.NewSessionServiceHandler(sessions,
		connect.WithInterceptors(
			middleware.RequireSession(jwtManager, apiconnect.SessionServiceCreateSessionProcedure),
			middleware.LoggingInterceptor(),
		),
	)
	mux.Handle(sessionPath, sessionHandler)

	receiptHandler := service.NewReceiptHandler(sessions, scanner, m, cfg.ScanTimeout)
	mux.Handle(service.ReceiptProcessPath, middleware.OptionalSession(jwtManager, receiptHandler.RejectToken)(receiptHandler))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", middleware.BasicAuth(operatorAuth)(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	if cfg.StaticPath != "" {
		staticHandler, err := newStaticHandler(cfg.StaticPath)
		if err != nil {
			return err
		}
		mux.Handle("/", staticHandler)
	}

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(middleware.Logging(middleware.CORS(mux)), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Store {
	case "bolt":
		return bolt.New(cfg.DBPath)
	default:
		return sqlite.New(cfg.DBPath)
	}
}

func newScanner(ctx context.Context, cfg *config.Config) (scanning.Scanner, error) {
	switch cfg.Scanner {
	case "gemini":
		slog.Info("Initializing Gemini scanner...", "model", cfg.GeminiModel)
		return scanning.NewGemini(ctx, cfg.GeminiKey, cfg.GeminiModel)
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		return scanning.NewOllama(cfg.OllamaURL, cfg.OllamaModel)
	default:
		slog.Info("Using stub scanner", "delay", cfg.StubDelay)
		return scanning.NewStub(cfg.StubDelay), nil
	}
}

// newStaticHandler serves the frontend, falling back to index.html for
// unknown paths.
func newStaticHandler(staticPath string) (http.Handler, error) {
	staticDir, err := filepath.Abs(staticPath)
	if err != nil {
		return nil, fmt.Errorf("resolving static path: %w", err)
	}
	slog.Info("Serving static files", "path", staticDir)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Unknown Connect procedures should 404, not get the SPA
		if strings.HasPrefix(r.URL.Path, "/godutch.v1.") || strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}

		http.ServeFile(w, r, filePath)
	}), nil
}
