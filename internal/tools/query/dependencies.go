// Package query implements the traversal and lookup tools over the
// memory-bank graph.
package query

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type dependencyParams struct {
	tools.ScopeArgs
	ComponentID string `json:"componentId" validate:"required"`
	Depth       int    `json:"depth,omitempty"`
}

// ComponentDependencies walks DEPENDS_ON from a component.
type ComponentDependencies struct {
	service *memory.Service
}

// NewComponentDependencies creates the get-component-dependencies tool.
func NewComponentDependencies(service *memory.Service) *ComponentDependencies {
	return &ComponentDependencies{service: service}
}

func (t *ComponentDependencies) Name() string { return "get-component-dependencies" }

func (t *ComponentDependencies) Description() string {
	return "List the components a component depends on, up to the given depth. Depth 0 returns only the component itself; default depth is 1."
}

func (t *ComponentDependencies) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "componentId": {
      "type": "string",
      "description": "Logical component id"
    },
    "depth": {
      "type": "integer",
      "minimum": 0,
      "description": "Traversal depth (default 1)"
    },` + tools.ScopeSchema + `
  },
  "required": ["componentId"]
}`)
}

func (t *ComponentDependencies) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	p := dependencyParams{Depth: 1}
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.GetComponentDependencies(ctx, sc.Repository, sc.Branch, p.ComponentID, p.Depth)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(map[string]any{"components": out})
}

// ComponentDependents walks the inverse DEPENDS_ON traversal.
type ComponentDependents struct {
	service *memory.Service
}

// NewComponentDependents creates the get-component-dependents tool.
func NewComponentDependents(service *memory.Service) *ComponentDependents {
	return &ComponentDependents{service: service}
}

func (t *ComponentDependents) Name() string { return "get-component-dependents" }

func (t *ComponentDependents) Description() string {
	return "List the components that depend on a component, up to the given depth (default 1)."
}

func (t *ComponentDependents) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "componentId": {
      "type": "string",
      "description": "Logical component id"
    },
    "depth": {
      "type": "integer",
      "minimum": 0,
      "description": "Traversal depth (default 1)"
    },` + tools.ScopeSchema + `
  },
  "required": ["componentId"]
}`)
}

func (t *ComponentDependents) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	p := dependencyParams{Depth: 1}
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.GetComponentDependents(ctx, sc.Repository, sc.Branch, p.ComponentID, p.Depth)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(map[string]any{"components": out})
}
