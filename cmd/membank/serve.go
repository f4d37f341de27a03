package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/membank/membank/internal/config"
	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/storage"
	"github.com/membank/membank/internal/tools/analytics"
	"github.com/membank/membank/internal/tools/assoc"
	"github.com/membank/membank/internal/tools/bulk"
	"github.com/membank/membank/internal/tools/entity"
	"github.com/membank/membank/internal/tools/introspect"
	"github.com/membank/membank/internal/tools/query"
	"github.com/membank/membank/internal/tools/session"
)

// runtime bundles the pieces every command needs.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *memory.Service
}

// setup loads config and wires the service. Logs go to stderr; stdout
// belongs to the MCP protocol.
func setup() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	registry := storage.NewRegistry(cfg.DBFilename, logger)
	return &runtime{
		cfg:     cfg,
		logger:  logger,
		service: memory.NewService(registry, logger),
	}, nil
}

// buildRegistry registers the full tool surface.
func buildRegistry(svc *memory.Service) *mcp.Registry {
	registry := mcp.NewRegistry()

	registry.Register(session.NewInitMemoryBank(svc))

	registry.Register(entity.NewAddComponent(svc))
	registry.Register(entity.NewAddDecision(svc))
	registry.Register(entity.NewAddRule(svc))
	registry.Register(entity.NewAddFile(svc))
	registry.Register(entity.NewAddTag(svc))
	registry.Register(entity.NewUpdateContext(svc))
	registry.Register(entity.NewUpdateMetadata(svc))
	registry.Register(entity.NewGetMetadata(svc))
	registry.Register(entity.NewGetItem(svc))
	registry.Register(entity.NewDeleteItem(svc))

	registry.Register(assoc.NewAssociateFileWithComponent(svc))
	registry.Register(assoc.NewTagItem(svc))

	registry.Register(query.NewComponentDependencies(svc))
	registry.Register(query.NewComponentDependents(svc))
	registry.Register(query.NewGoverningItems(svc))
	registry.Register(query.NewContextualHistory(svc))
	registry.Register(query.NewRelatedItems(svc))
	registry.Register(query.NewShortestPath(svc))
	registry.Register(query.NewDecisionsByDateRange(svc))

	registry.Register(analytics.NewPageRank(svc))
	registry.Register(analytics.NewLouvain(svc))
	registry.Register(analytics.NewKCore(svc))
	registry.Register(analytics.NewSCC(svc))
	registry.Register(analytics.NewWCC(svc))

	registry.Register(introspect.NewLabels(svc))
	registry.Register(introspect.NewCount(svc))
	registry.Register(introspect.NewProperties(svc))
	registry.Register(introspect.NewIndexes(svc))

	registry.Register(bulk.NewBulkDelete(svc))
	return registry
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "membank",
		Short:         "Graph-structured memory bank MCP server for coding agents",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeStdio()
		},
	}

	root.AddCommand(
		newServeCmd(),
		newServeHTTPCmd(),
		newInitCmd(),
		newAddContextCmd(),
		newAddComponentCmd(),
		newAddDecisionCmd(),
		newAddRuleCmd(),
	)
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeStdio()
		},
	}
}

func runServeStdio() error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.service.Registry().Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	version := rt.cfg.Server.Version
	if Version != "dev" {
		version = Version
	}
	rt.logger.Info("starting membank", "transport", "stdio", "version", version, "db_filename", rt.cfg.DBFilename)

	server := mcp.NewServer(buildRegistry(rt.service), mcp.ServerInfo{
		Name:    rt.cfg.Server.Name,
		Version: version,
	}, rt.logger)
	return server.Run(ctx)
}

func newServeHTTPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-http",
		Short: "Serve MCP over Streamable HTTP with SSE progress streams",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServeHTTP()
		},
	}
}

func runServeHTTP() error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer rt.service.Registry().Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	version := rt.cfg.Server.Version
	if Version != "dev" {
		version = Version
	}

	core := mcp.NewServer(buildRegistry(rt.service), mcp.ServerInfo{
		Name:    rt.cfg.Server.Name,
		Version: version,
	}, rt.logger)
	transport := mcp.NewHTTPServer(core, rt.logger)

	addr := net.JoinHostPort(rt.cfg.Host, strconv.Itoa(rt.cfg.HTTPStreamPort))
	srv := &http.Server{
		Addr:              addr,
		Handler:           transport.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("starting membank", "transport", "http", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	rt.logger.Info("membank stopped")
	return nil
}
