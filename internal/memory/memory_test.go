package memory

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membank/membank/internal/apperr"
	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/progress"
	"github.com/membank/membank/internal/storage"
)

func testBank(t *testing.T) *Bank {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	registry := storage.NewRegistry("memory-bank.kuzu", logger)
	t.Cleanup(func() { registry.Shutdown() })

	svc := NewService(registry, logger)
	bank, err := svc.Bank(context.Background(), t.TempDir())
	require.NoError(t, err)
	return bank
}

func seedComponents(t *testing.T, b *Bank, repo, branch string, inputs ...ComponentInput) {
	t.Helper()
	ctx := context.Background()
	// two passes so dependsOn targets exist before edges are merged
	for pass := 0; pass < 2; pass++ {
		for _, in := range inputs {
			_, err := b.UpsertComponent(ctx, repo, branch, in)
			require.NoError(t, err)
		}
	}
}

func TestUpsertComponentValidation(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	_, err := b.UpsertComponent(ctx, "repo", "main", ComponentInput{ID: "no-prefix", Name: "x"})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))

	_, err = b.UpsertComponent(ctx, "repo", "main", ComponentInput{ID: "comp-x", Name: "x", Status: "gone"})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))

	out, err := b.UpsertComponent(ctx, "repo", "main", ComponentInput{ID: "comp-x", Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, domain.ComponentActive, out.Status)
	assert.Equal(t, "repo:main:comp-x", out.GraphUniqueID)
}

func TestUpsertComponentLinksRepository(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	_, err := b.UpsertComponent(ctx, "repo", "main", ComponentInput{ID: "comp-a", Name: "a"})
	require.NoError(t, err)

	rec, err := b.GetItem(ctx, "repo", "main", "repository", "")
	require.NoError(t, err)
	assert.Equal(t, "repo:main", rec.PK)
}

func TestDanglingDependencySkipped(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	out, err := b.UpsertComponent(ctx, "repo", "main", ComponentInput{
		ID: "comp-a", Name: "a", DependsOn: []string{"comp-missing"},
	})
	require.NoError(t, err)
	// the listing survives on the node even though no edge was created
	assert.Equal(t, []string{"comp-missing"}, out.DependsOn)

	deps, err := b.GetComponentDependencies(ctx, "repo", "main", "comp-a", 1)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestDependencyTraversalDepth(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)
	// a -> b -> c -> d
	seedComponents(t, b, "repo", "main",
		ComponentInput{ID: "comp-a", Name: "a", DependsOn: []string{"comp-b"}},
		ComponentInput{ID: "comp-b", Name: "b", DependsOn: []string{"comp-c"}},
		ComponentInput{ID: "comp-c", Name: "c", DependsOn: []string{"comp-d"}},
		ComponentInput{ID: "comp-d", Name: "d"},
	)

	ids := func(comps []*domain.Component) []string {
		out := make([]string, 0, len(comps))
		for _, c := range comps {
			out = append(out, c.ID)
		}
		return out
	}

	deps, err := b.GetComponentDependencies(ctx, "repo", "main", "comp-a", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"comp-a"}, ids(deps))

	deps, err = b.GetComponentDependencies(ctx, "repo", "main", "comp-a", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"comp-b"}, ids(deps))

	deps, err = b.GetComponentDependencies(ctx, "repo", "main", "comp-a", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"comp-b", "comp-c", "comp-d"}, ids(deps))

	dependents, err := b.GetComponentDependents(ctx, "repo", "main", "comp-c", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"comp-a", "comp-b"}, ids(dependents))

	_, err = b.GetComponentDependencies(ctx, "repo", "main", "comp-nope", 1)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	_, err = b.GetComponentDependencies(ctx, "repo", "main", "comp-a", -1)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))
}

func TestBranchIsolationAcrossOperations(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	seedComponents(t, b, "repo", "main",
		ComponentInput{ID: "comp-a", Name: "main a", DependsOn: []string{"comp-b"}},
		ComponentInput{ID: "comp-b", Name: "main b"},
	)
	seedComponents(t, b, "repo", "feature",
		ComponentInput{ID: "comp-a", Name: "feature a"},
	)

	// the feature branch sees no main-branch dependency
	deps, err := b.GetComponentDependencies(ctx, "repo", "feature", "comp-a", 2)
	require.NoError(t, err)
	assert.Empty(t, deps)

	rec, err := b.GetItem(ctx, "repo", "feature", "component", "comp-a")
	require.NoError(t, err)
	assert.Equal(t, "repo:feature:comp-a", rec.PK)
}

func TestDecisionStateMachine(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	d, err := b.UpsertDecision(ctx, "repo", "main", DecisionInput{
		ID: "dec-x", Name: "x", Date: "2025-01-10",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionProposed, d.Status)

	_, err = b.UpsertDecision(ctx, "repo", "main", DecisionInput{
		ID: "dec-x", Name: "x", Date: "2025-01-10", Status: domain.DecisionImplemented,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))

	_, err = b.UpsertDecision(ctx, "repo", "main", DecisionInput{
		ID: "dec-x", Name: "x", Date: "2025-01-10", Status: domain.DecisionApproved,
	})
	require.NoError(t, err)
	_, err = b.UpsertDecision(ctx, "repo", "main", DecisionInput{
		ID: "dec-x", Name: "x", Date: "2025-01-10", Status: domain.DecisionImplemented,
	})
	require.NoError(t, err)
}

func TestDecisionUpdateKeepsStatusWhenOmitted(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	for _, status := range []string{
		domain.DecisionProposed, domain.DecisionApproved, domain.DecisionImplemented,
	} {
		_, err := b.UpsertDecision(ctx, "repo", "main", DecisionInput{
			ID: "dec-x", Name: "x", Date: "2025-01-10", Status: status,
		})
		require.NoError(t, err)
	}

	// A rename or date fix without a status must not reset the decision
	// back to proposed.
	d, err := b.UpsertDecision(ctx, "repo", "main", DecisionInput{
		ID: "dec-x", Name: "x renamed", Date: "2025-01-12",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionImplemented, d.Status)
	assert.Equal(t, "x renamed", d.Name)
	assert.Equal(t, "2025-01-12", d.Date)
}

func TestAssociationSoftFailure(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	_, err := b.UpsertComponent(ctx, "repo", "main", ComponentInput{ID: "comp-a", Name: "a"})
	require.NoError(t, err)

	res, err := b.AssociateFileWithComponent(ctx, "repo", "main", "comp-a", "file-missing")
	require.NoError(t, err)
	assert.False(t, res.Success)

	res, err = b.AssociateFileWithComponent(ctx, "repo", "main", "comp-missing", "file-x")
	require.NoError(t, err)
	assert.False(t, res.Success)

	_, err = b.UpsertFile(ctx, "repo", "main", FileInput{ID: "file-x", Name: "x.go", Path: "x.go"})
	require.NoError(t, err)
	res, err = b.AssociateFileWithComponent(ctx, "repo", "main", "comp-a", "file-x")
	require.NoError(t, err)
	assert.True(t, res.Success)

	// repeating is idempotent
	res, err = b.AssociateFileWithComponent(ctx, "repo", "main", "comp-a", "file-x")
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestTagItemAcrossBranches(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	_, err := b.UpsertTag(ctx, TagInput{ID: "tag-core", Name: "Core"})
	require.NoError(t, err)
	_, err = b.UpsertComponent(ctx, "repo", "main", ComponentInput{ID: "comp-a", Name: "a"})
	require.NoError(t, err)
	_, err = b.UpsertComponent(ctx, "repo", "feature", ComponentInput{ID: "comp-a", Name: "a"})
	require.NoError(t, err)

	for _, branch := range []string{"main", "feature"} {
		res, err := b.TagItem(ctx, "repo", branch, "component", "comp-a", "tag-core")
		require.NoError(t, err)
		assert.True(t, res.Success, branch)
	}

	res, err := b.TagItem(ctx, "repo", "main", "component", "comp-a", "tag-missing")
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestGoverningItemsForComponent(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	_, err := b.UpsertComponent(ctx, "repo", "main", ComponentInput{ID: "comp-a", Name: "a"})
	require.NoError(t, err)
	_, err = b.UpsertDecision(ctx, "repo", "main", DecisionInput{
		ID: "dec-1", Name: "on a", Date: "2025-01-10", ComponentID: "comp-a",
	})
	require.NoError(t, err)
	_, err = b.UpsertDecision(ctx, "repo", "main", DecisionInput{
		ID: "dec-2", Name: "unrelated", Date: "2025-01-11",
	})
	require.NoError(t, err)
	_, err = b.UpsertRule(ctx, "repo", "main", RuleInput{
		ID: "rule-live", Name: "live", Created: "2025-01-01", Content: "x",
	})
	require.NoError(t, err)
	_, err = b.UpsertRule(ctx, "repo", "main", RuleInput{
		ID: "rule-dead", Name: "dead", Created: "2025-01-01", Content: "y",
		Status: domain.RuleDeprecated,
	})
	require.NoError(t, err)
	for _, c := range []ContextInput{
		{ID: "ctx-old", Agent: "t", Summary: "old", Date: "2025-01-05", ItemType: "component", ItemID: "comp-a"},
		{ID: "ctx-new", Agent: "t", Summary: "new", Date: "2025-01-12", ItemType: "component", ItemID: "comp-a"},
	} {
		_, err = b.UpsertContext(ctx, "repo", "main", c)
		require.NoError(t, err)
	}

	out, err := b.GetGoverningItemsForComponent(ctx, "repo", "main", "comp-a")
	require.NoError(t, err)
	require.Len(t, out.Decisions, 1)
	assert.Equal(t, "dec-1", out.Decisions[0].ID)
	require.Len(t, out.Rules, 1)
	assert.Equal(t, "rule-live", out.Rules[0].ID)
	require.Len(t, out.ContextHistory, 2)
	// newest first
	assert.Equal(t, "ctx-new", out.ContextHistory[0].ID)
	assert.Equal(t, "ctx-old", out.ContextHistory[1].ID)
}

func TestShortestPathScoped(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)
	seedComponents(t, b, "repo", "main",
		ComponentInput{ID: "comp-a", Name: "a", DependsOn: []string{"comp-b"}},
		ComponentInput{ID: "comp-b", Name: "b", DependsOn: []string{"comp-c"}},
		ComponentInput{ID: "comp-c", Name: "c"},
	)

	// The projection spans scoped entities only, so the Repository hub node
	// offers no shortcut; the path goes through comp-b.
	path, err := b.ShortestPath(ctx, "repo:main:comp-a", "repo:main:comp-c")
	require.NoError(t, err)
	assert.Equal(t, []string{"repo:main:comp-a", "repo:main:comp-b", "repo:main:comp-c"}, path)

	_, err = b.ShortestPath(ctx, "repo:main:comp-a", "repo:feature:comp-c")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))

	_, err = b.ShortestPath(ctx, "repo:main:comp-a", "repo:main:comp-zz")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestDecisionsByDateRange(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	for id, date := range map[string]string{"dec-a": "2025-01-05", "dec-b": "2025-02-10"} {
		_, err := b.UpsertDecision(ctx, "repo", "main", DecisionInput{ID: id, Name: id, Date: date})
		require.NoError(t, err)
	}

	out, err := b.GetDecisionsByDateRange(ctx, "repo", "main", "2025-01-01", "2025-01-31")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "dec-a", out[0].ID)

	out, err = b.GetDecisionsByDateRange(ctx, "repo", "main", "2024-01-01", "2024-12-31")
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)

	_, err = b.GetDecisionsByDateRange(ctx, "repo", "main", "2025-02-01", "2025-01-01")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))
}

func TestPageRankOverComponents(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)
	seedComponents(t, b, "repo", "main",
		ComponentInput{ID: "comp-a", Name: "a", DependsOn: []string{"comp-hub"}},
		ComponentInput{ID: "comp-b", Name: "b", DependsOn: []string{"comp-hub"}},
		ComponentInput{ID: "comp-hub", Name: "hub"},
	)

	var events []progress.Event
	ctx = progress.WithReporter(ctx, progress.Func(func(_ context.Context, ev progress.Event) {
		events = append(events, ev)
	}))

	res, err := b.PageRank(ctx, "repo", "main", PageRankParams{})
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Greater(t, res.Ranks["repo:main:comp-hub"], res.Ranks["repo:main:comp-a"])

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.True(t, last.IsFinal)
	assert.Equal(t, "complete", last.Status)
}

func TestPageRankCancellation(t *testing.T) {
	b := testBank(t)
	seedComponents(t, b, "repo", "main",
		ComponentInput{ID: "comp-a", Name: "a", DependsOn: []string{"comp-b"}},
		ComponentInput{ID: "comp-b", Name: "b"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.PageRank(ctx, "repo", "main", PageRankParams{})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeCancelled))
}

func TestBulkDeleteDryRunAndThreshold(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)
	seedComponents(t, b, "repo", "main",
		ComponentInput{ID: "comp-a", Name: "a"},
		ComponentInput{ID: "comp-b", Name: "b"},
		ComponentInput{ID: "comp-c", Name: "c"},
	)

	res, err := b.BulkDeleteByType(ctx, "repo", "main", "component", true, false)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count)
	assert.True(t, res.DryRun)
	assert.False(t, res.Deleted)

	// dry run did not mutate
	rec, err := b.GetItem(ctx, "repo", "main", "component", "comp-a")
	require.NoError(t, err)
	assert.NotNil(t, rec)

	// under the threshold, no force needed
	res, err = b.BulkDeleteByType(ctx, "repo", "main", "component", false, false)
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Equal(t, 3, res.Count)

	_, err = b.GetItem(ctx, "repo", "main", "component", "comp-a")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestBulkDeleteAboveThresholdRequiresForce(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	inputs := make([]ComponentInput, 0, BulkDeleteThreshold+1)
	for i := 0; i <= BulkDeleteThreshold; i++ {
		inputs = append(inputs, ComponentInput{
			ID:   "comp-" + string(rune('a'+i)),
			Name: "x",
		})
	}
	seedComponents(t, b, "repo", "main", inputs...)

	_, err := b.BulkDeleteByType(ctx, "repo", "main", "component", false, false)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))

	res, err := b.BulkDeleteByType(ctx, "repo", "main", "component", false, true)
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.Equal(t, BulkDeleteThreshold+1, res.Count)
}

func TestBulkDeleteByTagSparesTag(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	_, err := b.UpsertTag(ctx, TagInput{ID: "tag-x", Name: "X"})
	require.NoError(t, err)
	_, err = b.UpsertComponent(ctx, "repo", "main", ComponentInput{ID: "comp-a", Name: "a"})
	require.NoError(t, err)
	res, err := b.TagItem(ctx, "repo", "main", "component", "comp-a", "tag-x")
	require.NoError(t, err)
	require.True(t, res.Success)

	out, err := b.BulkDeleteByTag(ctx, "tag-x", false, false)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
	assert.True(t, out.Deleted)

	// the tag node itself survives
	rec, err := b.GetItem(ctx, "repo", "main", "tag", "tag-x")
	require.NoError(t, err)
	assert.NotNil(t, rec)

	_, err = b.BulkDeleteByTag(ctx, "tag-missing", false, false)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestBulkDeleteByBranch(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	seedComponents(t, b, "repo", "main", ComponentInput{ID: "comp-a", Name: "a"})
	seedComponents(t, b, "repo", "feature", ComponentInput{ID: "comp-a", Name: "a"})

	res, err := b.BulkDeleteByBranch(ctx, "repo", "feature", false, false)
	require.NoError(t, err)
	assert.True(t, res.Deleted)

	// main branch untouched
	rec, err := b.GetItem(ctx, "repo", "main", "component", "comp-a")
	require.NoError(t, err)
	assert.NotNil(t, rec)

	_, err = b.GetItem(ctx, "repo", "feature", "component", "comp-a")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestBulkDeleteByRepositorySparesTags(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	seedComponents(t, b, "repo", "main", ComponentInput{ID: "comp-a", Name: "a"})
	seedComponents(t, b, "repo", "feature", ComponentInput{ID: "comp-b", Name: "b"})
	_, err := b.UpsertTag(ctx, TagInput{ID: "tag-x", Name: "X"})
	require.NoError(t, err)

	res, err := b.BulkDeleteByRepository(ctx, "repo", false, true)
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	// 2 components + 2 repository nodes
	assert.Equal(t, 4, res.Count)

	rec, err := b.GetItem(ctx, "repo", "main", "tag", "tag-x")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	_, err := b.UpsertMetadata(ctx, "repo", "main", MetadataInput{
		ID: "meta-project", Name: "project", Content: "not json",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))

	_, err = b.UpsertMetadata(ctx, "repo", "main", MetadataInput{
		ID: "meta-project", Name: "project", Content: `{"language":"go"}`,
	})
	require.NoError(t, err)

	got, err := b.GetMetadata(ctx, "repo", "main", "meta-project")
	require.NoError(t, err)
	assert.JSONEq(t, `{"language":"go"}`, got.Content)

	_, err = b.GetMetadata(ctx, "repo", "main", "meta-absent")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestIntrospection(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	seedComponents(t, b, "repo", "main", ComponentInput{ID: "comp-a", Name: "a"})
	_, err := b.UpsertTag(ctx, TagInput{ID: "tag-x", Name: "X"})
	require.NoError(t, err)

	labels, err := b.Labels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.LabelComponent, domain.LabelRepository, domain.LabelTag}, labels)

	counts, err := b.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts.Total)
	assert.Equal(t, int64(1), counts.ByLabel[domain.LabelComponent])

	assert.NotEmpty(t, b.Indexes(ctx))
}

func TestGetRelatedItems(t *testing.T) {
	ctx := context.Background()
	b := testBank(t)

	seedComponents(t, b, "repo", "main",
		ComponentInput{ID: "comp-a", Name: "a", DependsOn: []string{"comp-b"}},
		ComponentInput{ID: "comp-b", Name: "b"},
	)
	_, err := b.UpsertFile(ctx, "repo", "main", FileInput{ID: "file-x", Name: "x.go", Path: "x.go"})
	require.NoError(t, err)
	res, err := b.AssociateFileWithComponent(ctx, "repo", "main", "comp-a", "file-x")
	require.NoError(t, err)
	require.True(t, res.Success)

	// restricted to DEPENDS_ON, the file is invisible
	items, err := b.GetRelatedItems(ctx, "repo", "main", "component", "comp-a",
		[]string{domain.RelDependsOn}, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "repo:main:comp-b", items[0].Record.PK)

	// unrestricted picks up the file and the repository node
	items, err = b.GetRelatedItems(ctx, "repo", "main", "component", "comp-a", nil, 1)
	require.NoError(t, err)
	pks := make([]string, 0, len(items))
	for _, it := range items {
		pks = append(pks, it.Record.PK)
	}
	assert.Contains(t, pks, "repo:main:file-x")
	assert.Contains(t, pks, "repo:main:comp-b")
	assert.Contains(t, pks, "repo:main")
}
