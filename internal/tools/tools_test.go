package tools_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membank/membank/internal/apperr"
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

// harness drives the full tool surface through the dispatcher the way a
// stdio client would, one session per test.
type harness struct {
	t      *testing.T
	server *mcp.Server
	ctx    context.Context
	root   string
	nextID int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	registry := storage.NewRegistry("memory-bank.kuzu", logger)
	t.Cleanup(func() { registry.Shutdown() })
	svc := memory.NewService(registry, logger)

	reg := mcp.NewRegistry()
	reg.Register(session.NewInitMemoryBank(svc))
	reg.Register(entity.NewAddComponent(svc))
	reg.Register(entity.NewAddDecision(svc))
	reg.Register(entity.NewAddRule(svc))
	reg.Register(entity.NewAddFile(svc))
	reg.Register(entity.NewAddTag(svc))
	reg.Register(entity.NewUpdateContext(svc))
	reg.Register(entity.NewUpdateMetadata(svc))
	reg.Register(entity.NewGetMetadata(svc))
	reg.Register(entity.NewGetItem(svc))
	reg.Register(entity.NewDeleteItem(svc))
	reg.Register(assoc.NewAssociateFileWithComponent(svc))
	reg.Register(assoc.NewTagItem(svc))
	reg.Register(query.NewComponentDependencies(svc))
	reg.Register(query.NewComponentDependents(svc))
	reg.Register(query.NewGoverningItems(svc))
	reg.Register(query.NewContextualHistory(svc))
	reg.Register(query.NewRelatedItems(svc))
	reg.Register(query.NewShortestPath(svc))
	reg.Register(query.NewDecisionsByDateRange(svc))
	reg.Register(analytics.NewPageRank(svc))
	reg.Register(analytics.NewLouvain(svc))
	reg.Register(analytics.NewKCore(svc))
	reg.Register(analytics.NewSCC(svc))
	reg.Register(analytics.NewWCC(svc))
	reg.Register(introspect.NewLabels(svc))
	reg.Register(introspect.NewCount(svc))
	reg.Register(introspect.NewProperties(svc))
	reg.Register(introspect.NewIndexes(svc))
	reg.Register(bulk.NewBulkDelete(svc))

	server := mcp.NewServer(reg, mcp.ServerInfo{Name: "membank-test", Version: "0.0.0"}, logger)
	return &harness{
		t:      t,
		server: server,
		ctx:    mcp.WithSession(context.Background(), mcp.NewSession()),
		root:   t.TempDir(),
	}
}

// call dispatches one tools/call and decodes the structured payload into a
// generic map.
func (h *harness) call(tool, args string) map[string]any {
	h.t.Helper()
	res := h.rawCall(tool, args)
	require.False(h.t, res.IsError, "tool %s failed: %v", tool, res.StructuredContent)
	return toMap(h.t, res.StructuredContent)
}

// callErr dispatches a tools/call expected to fail and returns the
// taxonomy code carried in the error payload.
func (h *harness) callErr(tool, args string) string {
	h.t.Helper()
	res := h.rawCall(tool, args)
	require.True(h.t, res.IsError, "tool %s unexpectedly succeeded", tool)
	return toMap(h.t, res.StructuredContent)["code"].(string)
}

func (h *harness) rawCall(tool, args string) *mcp.ToolsCallResult {
	h.t.Helper()
	h.nextID++
	msg := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"tools/call","params":{"name":%q,"arguments":%s}}`,
		h.nextID, tool, args)
	resp := h.server.HandleMessage(h.ctx, []byte(msg))
	require.NotNil(h.t, resp)
	require.Nil(h.t, resp.Error, "rpc error from %s: %+v", tool, resp.Error)
	res, ok := resp.Result.(*mcp.ToolsCallResult)
	require.True(h.t, ok)
	return res
}

func (h *harness) init(repository, branch string) {
	h.t.Helper()
	args := fmt.Sprintf(`{"clientProjectRoot":%q,"repository":%q`, h.root, repository)
	if branch != "" {
		args += fmt.Sprintf(`,"branch":%q`, branch)
	}
	args += `}`
	out := h.call("init-memory-bank", args)
	require.Equal(h.t, "ok", out["status"])
}

func toMap(t *testing.T, v any) map[string]any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestToolsRequireBoundSession(t *testing.T) {
	h := newHarness(t)
	code := h.callErr("add-component", `{"id":"comp-a","name":"a"}`)
	assert.Equal(t, string(apperr.CodeSessionUnbound), code)
}

func TestInitMemoryBankRejectsRelativeRoot(t *testing.T) {
	h := newHarness(t)
	code := h.callErr("init-memory-bank", `{"clientProjectRoot":"relative/path","repository":"proj"}`)
	assert.Equal(t, string(apperr.CodeInvalidArgument), code)
}

func TestInitMemoryBankDefaultsBranch(t *testing.T) {
	h := newHarness(t)
	out := h.call("init-memory-bank",
		fmt.Sprintf(`{"clientProjectRoot":%q,"repository":"proj"}`, h.root))
	assert.Equal(t, "main", out["branch"])
	assert.Equal(t, "proj:main", out["repositoryNodeId"])
}

func TestComponentLifecycle(t *testing.T) {
	h := newHarness(t)
	h.init("proj", "")

	h.call("add-component", `{"id":"comp-db","name":"Database"}`)
	out := h.call("add-component",
		`{"id":"comp-api","name":"API","kind":"service","dependsOn":["comp-db"]}`)
	assert.Equal(t, "proj:main:comp-api", out["graph_unique_id"])
	assert.Equal(t, "active", out["status"])

	item := h.call("get-item", `{"type":"component","id":"comp-api"}`)
	assert.Equal(t, "Component", item["label"])

	deps := h.call("get-component-dependencies", `{"componentId":"comp-api"}`)
	components := deps["components"].([]any)
	require.Len(t, components, 1)
	assert.Equal(t, "comp-db", toMap(t, components[0])["id"])

	dependents := h.call("get-component-dependents", `{"componentId":"comp-db"}`)
	require.Len(t, dependents["components"].([]any), 1)

	del := h.call("delete-item", `{"type":"component","id":"comp-api"}`)
	assert.Equal(t, true, del["deleted"])

	code := h.callErr("get-item", `{"type":"component","id":"comp-api"}`)
	assert.Equal(t, string(apperr.CodeNotFound), code)
}

func TestScopeOverridesPerCall(t *testing.T) {
	h := newHarness(t)
	h.init("proj", "main")

	h.call("add-component", `{"id":"comp-a","name":"main a"}`)
	h.call("add-component", `{"id":"comp-a","name":"feature a","branch":"feature"}`)

	item := h.call("get-item", `{"type":"component","id":"comp-a","branch":"feature"}`)
	props := toMap(t, item["props"])
	assert.Equal(t, "feature a", props["name"])

	item = h.call("get-item", `{"type":"component","id":"comp-a"}`)
	props = toMap(t, item["props"])
	assert.Equal(t, "main a", props["name"])
}

func TestAssociationAndTagTools(t *testing.T) {
	h := newHarness(t)
	h.init("proj", "")

	h.call("add-component", `{"id":"comp-a","name":"a"}`)
	h.call("add-file", `{"id":"file-x","name":"x.go","path":"internal/x.go"}`)
	h.call("add-tag", `{"id":"tag-core","name":"Core"}`)

	out := h.call("associate-file-with-component", `{"componentId":"comp-a","fileId":"file-x"}`)
	assert.Equal(t, true, out["success"])

	// missing endpoint is a soft failure
	out = h.call("associate-file-with-component", `{"componentId":"comp-a","fileId":"file-nope"}`)
	assert.Equal(t, false, out["success"])

	out = h.call("tag-item", `{"itemType":"component","itemId":"comp-a","tagId":"tag-core"}`)
	assert.Equal(t, true, out["success"])
}

func TestGoverningAndHistoryTools(t *testing.T) {
	h := newHarness(t)
	h.init("proj", "")

	h.call("add-component", `{"id":"comp-a","name":"a"}`)
	h.call("add-decision", `{"id":"dec-1","name":"use sqlite","date":"2025-01-10","componentId":"comp-a"}`)
	h.call("add-rule", `{"id":"rule-1","name":"no cgo","created":"2025-01-01","content":"keep builds pure Go"}`)
	h.call("update-context",
		`{"id":"ctx-1","agent":"tester","summary":"wired storage","date":"2025-01-12","itemType":"component","itemId":"comp-a"}`)

	gov := h.call("get-governing-items-for-component", `{"componentId":"comp-a"}`)
	assert.Len(t, gov["decisions"].([]any), 1)
	assert.Len(t, gov["rules"].([]any), 1)
	assert.Len(t, gov["contextHistory"].([]any), 1)

	hist := h.call("get-item-contextual-history", `{"itemType":"component","itemId":"comp-a"}`)
	assert.Len(t, hist["contexts"].([]any), 1)

	decs := h.call("get-decisions-by-date-range", `{"startDate":"2025-01-01","endDate":"2025-01-31"}`)
	assert.Len(t, decs["decisions"].([]any), 1)
}

func TestMetadataTools(t *testing.T) {
	h := newHarness(t)
	h.init("proj", "")

	h.call("update-metadata",
		`{"id":"meta-project","name":"project","content":"{\"language\":\"go\"}"}`)
	out := h.call("get-metadata", `{"id":"meta-project"}`)
	assert.JSONEq(t, `{"language":"go"}`, out["content"].(string))

	code := h.callErr("get-metadata", `{"id":"meta-absent"}`)
	assert.Equal(t, string(apperr.CodeNotFound), code)
}

func TestShortestPathTool(t *testing.T) {
	h := newHarness(t)
	h.init("proj", "")

	h.call("add-component", `{"id":"comp-c","name":"c"}`)
	h.call("add-component", `{"id":"comp-b","name":"b","dependsOn":["comp-c"]}`)
	h.call("add-component", `{"id":"comp-a","name":"a","dependsOn":["comp-b"]}`)

	out := h.call("shortest-path", `{"startId":"proj:main:comp-a","endId":"proj:main:comp-c"}`)
	assert.Equal(t, float64(2), out["length"])
	path := out["path"].([]any)
	assert.Equal(t, []any{"proj:main:comp-a", "proj:main:comp-b", "proj:main:comp-c"}, path)
}

func TestAnalyticsTools(t *testing.T) {
	h := newHarness(t)
	h.init("proj", "")

	h.call("add-component", `{"id":"comp-hub","name":"hub"}`)
	h.call("add-component", `{"id":"comp-a","name":"a","dependsOn":["comp-hub"]}`)
	h.call("add-component", `{"id":"comp-b","name":"b","dependsOn":["comp-hub"]}`)

	pr := h.call("pagerank", `{}`)
	assert.Equal(t, true, pr["converged"])
	ranks := toMap(t, pr["ranks"])
	assert.Greater(t, ranks["proj:main:comp-hub"].(float64), ranks["proj:main:comp-a"].(float64))

	kc := h.call("k-core-decomposition", `{}`)
	assert.NotEmpty(t, toMap(t, kc["coreness"]))

	h.call("louvain-community-detection", `{}`)
	h.call("strongly-connected-components", `{}`)
	h.call("weakly-connected-components", `{}`)
}

func TestIntrospectionTools(t *testing.T) {
	h := newHarness(t)
	h.init("proj", "")
	h.call("add-component", `{"id":"comp-a","name":"a"}`)

	labels := h.call("labels", `{}`)
	assert.Contains(t, labels["labels"].([]any), "Component")

	count := h.call("count", `{}`)
	assert.Equal(t, float64(2), count["total"]) // component + repository node

	props := h.call("properties", `{"label":"Component"}`)
	assert.Contains(t, props["properties"].([]any), "name")

	idx := h.call("indexes", `{}`)
	assert.NotEmpty(t, idx["indexes"].([]any))
}

func TestBulkDeleteTool(t *testing.T) {
	h := newHarness(t)
	h.init("proj", "")

	h.call("add-component", `{"id":"comp-a","name":"a"}`)
	h.call("add-component", `{"id":"comp-b","name":"b"}`)

	dry := h.call("bulk-delete", `{"scope":"type","type":"component","dryRun":true}`)
	assert.Equal(t, float64(2), dry["count"])
	assert.Equal(t, false, dry["deleted"])

	live := h.call("bulk-delete", `{"scope":"type","type":"component"}`)
	assert.Equal(t, true, live["deleted"])

	code := h.callErr("get-item", `{"type":"component","id":"comp-a"}`)
	assert.Equal(t, string(apperr.CodeNotFound), code)
}

func TestBulkDeleteValidation(t *testing.T) {
	h := newHarness(t)
	h.init("proj", "")

	code := h.callErr("bulk-delete", `{"scope":"orbit"}`)
	assert.Equal(t, string(apperr.CodeInvalidArgument), code)

	// scope=type without a type
	code = h.callErr("bulk-delete", `{"scope":"type"}`)
	assert.Equal(t, string(apperr.CodeInvalidArgument), code)
}
