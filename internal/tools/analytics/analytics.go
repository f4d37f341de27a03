// Package analytics implements the graph-analysis tools over the
// component dependency projection. All tools stream progress events and
// honour cancellation.
package analytics

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type pageRankParams struct {
	tools.ScopeArgs
	Damping       float64 `json:"damping,omitempty"`
	Epsilon       float64 `json:"epsilon,omitempty"`
	MaxIterations int     `json:"maxIterations,omitempty"`
}

// PageRank ranks components by dependency structure.
type PageRank struct {
	service *memory.Service
}

// NewPageRank creates the pagerank tool.
func NewPageRank(service *memory.Service) *PageRank {
	return &PageRank{service: service}
}

func (t *PageRank) Name() string { return "pagerank" }

func (t *PageRank) Description() string {
	return "Rank the components of the current repository and branch by PageRank over DEPENDS_ON edges. Streams per-iteration progress; defaults: damping 0.85, epsilon 1e-6, 100 iterations."
}

func (t *PageRank) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "damping": {
      "type": "number",
      "description": "Damping factor (default 0.85)"
    },
    "epsilon": {
      "type": "number",
      "description": "Convergence threshold on total rank delta (default 1e-6)"
    },
    "maxIterations": {
      "type": "integer",
      "description": "Iteration cap (default 100)"
    },` + tools.ScopeSchema + `
  }
}`)
}

func (t *PageRank) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p pageRankParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.PageRank(ctx, sc.Repository, sc.Branch, memory.PageRankParams{
		Damping: p.Damping,
		Epsilon: p.Epsilon,
		MaxIter: p.MaxIterations,
	})
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}

type scopedOnlyParams struct {
	tools.ScopeArgs
}

// scopeOnlySchema is shared by the analytics tools without tuning knobs.
func scopeOnlySchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {` + tools.ScopeSchema + `
  }
}`)
}

// Louvain detects dependency communities.
type Louvain struct {
	service *memory.Service
}

// NewLouvain creates the louvain-community-detection tool.
func NewLouvain(service *memory.Service) *Louvain {
	return &Louvain{service: service}
}

func (t *Louvain) Name() string { return "louvain-community-detection" }

func (t *Louvain) Description() string {
	return "Detect component communities via hierarchical modularity maximisation over DEPENDS_ON edges."
}

func (t *Louvain) InputSchema() json.RawMessage { return scopeOnlySchema() }

func (t *Louvain) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p scopedOnlyParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.LouvainCommunities(ctx, sc.Repository, sc.Branch)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}

// KCore computes the k-core decomposition.
type KCore struct {
	service *memory.Service
}

// NewKCore creates the k-core-decomposition tool.
func NewKCore(service *memory.Service) *KCore {
	return &KCore{service: service}
}

func (t *KCore) Name() string { return "k-core-decomposition" }

func (t *KCore) Description() string {
	return "Compute the coreness of every component in the dependency graph, treating edges as undirected."
}

func (t *KCore) InputSchema() json.RawMessage { return scopeOnlySchema() }

func (t *KCore) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p scopedOnlyParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.KCoreDecomposition(ctx, sc.Repository, sc.Branch)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}

// SCC reports strongly connected components, i.e. dependency cycles.
type SCC struct {
	service *memory.Service
}

// NewSCC creates the strongly-connected-components tool.
func NewSCC(service *memory.Service) *SCC {
	return &SCC{service: service}
}

func (t *SCC) Name() string { return "strongly-connected-components" }

func (t *SCC) Description() string {
	return "Report the strongly connected components (dependency cycles) of the component graph. Only groups with two or more members are returned."
}

func (t *SCC) InputSchema() json.RawMessage { return scopeOnlySchema() }

func (t *SCC) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p scopedOnlyParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.StronglyConnectedComponents(ctx, sc.Repository, sc.Branch)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}

// WCC reports weakly connected components, i.e. isolated clusters.
type WCC struct {
	service *memory.Service
}

// NewWCC creates the weakly-connected-components tool.
func NewWCC(service *memory.Service) *WCC {
	return &WCC{service: service}
}

func (t *WCC) Name() string { return "weakly-connected-components" }

func (t *WCC) Description() string {
	return "Report the weakly connected components of the component graph. Only groups with two or more members are returned."
}

func (t *WCC) InputSchema() json.RawMessage { return scopeOnlySchema() }

func (t *WCC) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p scopedOnlyParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.WeaklyConnectedComponents(ctx, sc.Repository, sc.Branch)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}
