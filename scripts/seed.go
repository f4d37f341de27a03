// Command seed populates a memory bank with a small demo graph, useful
// for trying the query and analytics tools against real data.
//
// Usage:
//
//	go run ./scripts/seed.go --project-root /tmp/demo --repository acme/demo
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/membank/membank/internal/config"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		projectRoot = flag.String("project-root", "", "project root to seed (required)")
		repoName    = flag.String("repository", "acme/demo", "logical repository name")
		branch      = flag.String("branch", "main", "branch scope")
	)
	flag.Parse()
	if *projectRoot == "" {
		return fmt.Errorf("--project-root is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	registry := storage.NewRegistry(cfg.DBFilename, logger)
	defer registry.Shutdown()
	svc := memory.NewService(registry, logger)

	ctx := context.Background()
	bank, err := svc.Bank(ctx, *projectRoot)
	if err != nil {
		return err
	}
	if _, err := bank.InitRepository(ctx, *repoName, *branch); err != nil {
		return err
	}

	components := []memory.ComponentInput{
		{ID: "comp-api-gateway", Name: "API Gateway", Kind: "service", DependsOn: []string{"comp-auth", "comp-orders"}},
		{ID: "comp-auth", Name: "Auth Service", Kind: "service", DependsOn: []string{"comp-storage"}},
		{ID: "comp-orders", Name: "Order Service", Kind: "service", DependsOn: []string{"comp-storage", "comp-auth"}},
		{ID: "comp-storage", Name: "Storage Layer", Kind: "library"},
	}
	// Two passes so DEPENDS_ON targets exist before edges are merged.
	for pass := 0; pass < 2; pass++ {
		for _, c := range components {
			if _, err := bank.UpsertComponent(ctx, *repoName, *branch, c); err != nil {
				return fmt.Errorf("seeding %s: %w", c.ID, err)
			}
		}
	}

	if _, err := bank.UpsertDecision(ctx, *repoName, *branch, memory.DecisionInput{
		ID: "dec-20250110-embedded-store", Name: "Use an embedded store", Date: "2025-01-10",
		Context: "No external database dependency for agent workstations.", Status: "approved",
		ComponentID: "comp-storage",
	}); err != nil {
		return err
	}
	if _, err := bank.UpsertRule(ctx, *repoName, *branch, memory.RuleInput{
		ID: "rule-no-direct-db-access", Name: "No direct store access", Created: "2025-01-10",
		Content: "All persistence goes through the storage layer.", Triggers: []string{"database", "sql"},
	}); err != nil {
		return err
	}
	if _, err := bank.UpsertContext(ctx, *repoName, *branch, memory.ContextInput{
		ID: "ctx-20250111-kickoff", Agent: "seed", Summary: "Seeded demo graph", Date: "2025-01-11",
		ItemType: "component", ItemID: "comp-api-gateway",
	}); err != nil {
		return err
	}
	if _, err := bank.UpsertTag(ctx, memory.TagInput{ID: "tag-core", Name: "Core"}); err != nil {
		return err
	}
	if _, err := bank.TagItem(ctx, *repoName, *branch, "component", "comp-storage", "tag-core"); err != nil {
		return err
	}

	counts, err := bank.Count(ctx)
	if err != nil {
		return err
	}
	b, _ := json.MarshalIndent(counts, "", "  ")
	fmt.Println(string(b))
	return nil
}
