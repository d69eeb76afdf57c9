package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	apiv1 "github.com/metamcp/metamcp/pkg/api/v1"
	"github.com/metamcp/metamcp/pkg/config"
	"github.com/metamcp/metamcp/pkg/credential"
	"github.com/metamcp/metamcp/pkg/events"
	"github.com/metamcp/metamcp/pkg/gateway"
	"github.com/metamcp/metamcp/pkg/logger"
	"github.com/metamcp/metamcp/pkg/model"
	"github.com/metamcp/metamcp/pkg/process"
	"github.com/metamcp/metamcp/pkg/store"
	"github.com/metamcp/metamcp/pkg/transport"
)

const (
	defaultGracefulTimeout = 15 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 0 // streaming SSE responses must not be cut off
	serverIdleTimeout      = 60 * time.Second
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the metamcp gateway server",
		Long:  `Start the metamcp gateway: load configuration, open the store, spawn stdio backends, and serve the aggregated MCP endpoint plus the admin API.`,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Initialize(cfg.LogLevel)

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warnf("failed to close store: %v", err)
		}
	}()

	backendRepo := store.NewBackendRepository(db)
	credentialRepo := store.NewCredentialRepository(db)
	credentialSvc := credential.NewService(credentialRepo, cfg.JWTSecret, cfg.TokenTTL)

	eventMgr := events.NewManager()
	procMgr := process.NewManager(eventMgr)

	if err := spawnStdioBackends(ctx, backendRepo, procMgr); err != nil {
		logger.Warnf("failed to spawn one or more stdio backends: %v", err)
	}
	go procMgr.Supervise(ctx)

	dispatcher := transport.NewDispatcher(
		transport.NewHTTPTransport(),
		transport.NewStdioTransport(procMgr),
		transport.NewSSETransport(),
	)
	engine := gateway.NewEngine(backendRepo, dispatcher)

	router := apiv1.NewRouter(apiv1.Deps{
		Backends:       backendRepo,
		Credentials:    credentialSvc,
		Engine:         engine,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	go func() {
		logger.Infof("metamcp gateway listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down gateway...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
		return err
	}

	logger.Info("gateway shutdown complete")
	return nil
}

// spawnStdioBackends starts a child process for every active stdio-transport
// backend on record, keyed by the backend's own persisted id so the stdio
// transport can address it without a separate id-mapping table.
func spawnStdioBackends(ctx context.Context, backends *store.BackendRepository, procs *process.Manager) error {
	active, err := backends.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active backends: %w", err)
	}

	var firstErr error
	for _, b := range active {
		if b.Transport != model.TransportStdio {
			continue
		}
		cfg := process.Config{Name: b.Name, Command: b.Command, Args: b.Args, Env: b.Env}
		if err := procs.Spawn(ctx, b.ID, cfg); err != nil {
			logger.Errorf("failed to spawn stdio backend %q: %v", b.Name, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logger.Infof("spawned stdio backend %q", b.Name)
	}
	return firstErr
}
