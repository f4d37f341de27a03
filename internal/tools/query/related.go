package query

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type relatedParams struct {
	tools.ScopeArgs
	ItemType      string   `json:"itemType" validate:"required"`
	ItemID        string   `json:"itemId" validate:"required"`
	Relationships []string `json:"relationships,omitempty"`
	Depth         int      `json:"depth,omitempty"`
}

// RelatedItems returns the breadth-limited neighbourhood of an item.
type RelatedItems struct {
	service *memory.Service
}

// NewRelatedItems creates the get-related-items tool.
func NewRelatedItems(service *memory.Service) *RelatedItems {
	return &RelatedItems{service: service}
}

func (t *RelatedItems) Name() string { return "get-related-items" }

func (t *RelatedItems) Description() string {
	return "Return the entities reachable from an item within the given depth, optionally restricted to specific relationship types, both directions. Ordered by distance, then id."
}

func (t *RelatedItems) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "itemType": {
      "type": "string",
      "enum": ["component", "decision", "rule", "file", "context", "metadata", "tag", "repository"],
      "description": "Entity type of the start item"
    },
    "itemId": {
      "type": "string",
      "description": "Logical id of the start item"
    },
    "relationships": {
      "type": "array",
      "items": {
        "type": "string",
        "enum": ["PART_OF_REPO", "DEPENDS_ON", "CONTEXT_OF", "DECISION_ON", "CONTAINS_FILE", "IS_TAGGED_WITH"]
      },
      "description": "Relationship types to follow (all when omitted)"
    },
    "depth": {
      "type": "integer",
      "minimum": 1,
      "description": "Traversal depth (default 1)"
    },` + tools.ScopeSchema + `
  },
  "required": ["itemType", "itemId"]
}`)
}

func (t *RelatedItems) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	p := relatedParams{Depth: 1}
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.GetRelatedItems(ctx, sc.Repository, sc.Branch, p.ItemType, p.ItemID, p.Relationships, p.Depth)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []memory.RelatedItem{}
	}
	return mcp.JSONResult(map[string]any{"items": out})
}

type shortestPathParams struct {
	tools.ScopeArgs
	StartID string `json:"startId" validate:"required"`
	EndID   string `json:"endId" validate:"required"`
}

// ShortestPath finds the shortest undirected path between two nodes.
type ShortestPath struct {
	service *memory.Service
}

// NewShortestPath creates the shortest-path tool.
func NewShortestPath(service *memory.Service) *ShortestPath {
	return &ShortestPath{service: service}
}

func (t *ShortestPath) Name() string { return "shortest-path" }

func (t *ShortestPath) Description() string {
	return "Find the shortest undirected path between two graph unique ids in the same repository and branch. Ties break lexicographically; cross-branch requests are rejected."
}

func (t *ShortestPath) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "startId": {
      "type": "string",
      "description": "Start graph unique id ({repository}:{branch}:{id})"
    },
    "endId": {
      "type": "string",
      "description": "End graph unique id ({repository}:{branch}:{id})"
    },` + tools.ScopeSchema + `
  },
  "required": ["startId", "endId"]
}`)
}

func (t *ShortestPath) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p shortestPathParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, _, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	path, err := bank.ShortestPath(ctx, p.StartID, p.EndID)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(map[string]any{
		"path":   path,
		"length": len(path) - 1,
	})
}
