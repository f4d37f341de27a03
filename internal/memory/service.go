// Package memory aggregates the entity gateways into the service façade and
// implements the domain operations: upserts, associations, traversals,
// analytics, introspection and bulk deletes.
package memory

import (
	"context"
	"log/slog"

	"github.com/membank/membank/internal/repository"
	"github.com/membank/membank/internal/storage"
)

// Service is the process-wide entry point. All mutable state hangs off the
// client registry; the service itself is immutable after construction.
type Service struct {
	registry *storage.Registry
	logger   *slog.Logger
}

// NewService creates the façade over a client registry.
func NewService(registry *storage.Registry, logger *slog.Logger) *Service {
	return &Service{registry: registry, logger: logger}
}

// Registry exposes the underlying client registry for shutdown.
func (s *Service) Registry() *storage.Registry { return s.registry }

// Bank resolves the store client for a project root and constructs the
// gateway set bound to it. Banks are cheap per-request values holding no
// mutable state beyond the client handle.
func (s *Service) Bank(ctx context.Context, projectRoot string) (*Bank, error) {
	client, err := s.registry.GetClient(ctx, projectRoot)
	if err != nil {
		return nil, err
	}
	return newBank(client, s.logger), nil
}

// Bank bundles the per-entity gateways against one store client.
type Bank struct {
	logger *slog.Logger

	repos      *repository.RepositoryGateway
	metadata   *repository.MetadataGateway
	contexts   *repository.ContextGateway
	components *repository.ComponentGateway
	decisions  *repository.DecisionGateway
	rules      *repository.RuleGateway
	files      *repository.FileGateway
	tags       *repository.TagGateway
	graph      *repository.GraphGateway
}

func newBank(client *storage.Client, logger *slog.Logger) *Bank {
	return &Bank{
		logger:     logger,
		repos:      repository.NewRepositoryGateway(client),
		metadata:   repository.NewMetadataGateway(client),
		contexts:   repository.NewContextGateway(client),
		components: repository.NewComponentGateway(client),
		decisions:  repository.NewDecisionGateway(client),
		rules:      repository.NewRuleGateway(client),
		files:      repository.NewFileGateway(client),
		tags:       repository.NewTagGateway(client),
		graph:      repository.NewGraphGateway(client),
	}
}

// InitRepository ensures the Repository node for (repository, branch)
// exists. Called by the init-memory-bank tool after the store client is
// provisioned.
func (b *Bank) InitRepository(ctx context.Context, repo, branch string) (string, error) {
	r, err := b.repos.Ensure(ctx, repo, branch)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}
