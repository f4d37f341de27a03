// Package entity implements the upsert, read and delete tools of the
// memory-bank entity types.
package entity

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type addComponentParams struct {
	tools.ScopeArgs
	ID        string   `json:"id" validate:"required"`
	Name      string   `json:"name" validate:"required"`
	Kind      string   `json:"kind,omitempty"`
	Status    string   `json:"status,omitempty"`
	DependsOn []string `json:"dependsOn,omitempty"`
}

// AddComponent upserts a component in the session scope.
type AddComponent struct {
	service *memory.Service
}

// NewAddComponent creates the add-component tool.
func NewAddComponent(service *memory.Service) *AddComponent {
	return &AddComponent{service: service}
}

func (t *AddComponent) Name() string { return "add-component" }

func (t *AddComponent) Description() string {
	return "Add or update a component in the memory bank. Dependency edges are created for every dependsOn target that exists in the same repository and branch; unresolved targets stay listed on the component."
}

func (t *AddComponent) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "id": {
      "type": "string",
      "description": "Logical component id, prefixed 'comp-' (e.g. 'comp-AuthService')"
    },
    "name": {
      "type": "string",
      "description": "Human-readable component name"
    },
    "kind": {
      "type": "string",
      "description": "Component kind (e.g. 'service', 'library', 'module')"
    },
    "status": {
      "type": "string",
      "enum": ["active", "deprecated", "planned"],
      "description": "Lifecycle status (default 'active')"
    },
    "dependsOn": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Logical ids of components this one depends on"
    },` + tools.ScopeSchema + `
  },
  "required": ["id", "name"]
}`)
}

func (t *AddComponent) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p addComponentParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.UpsertComponent(ctx, sc.Repository, sc.Branch, memory.ComponentInput{
		ID:        p.ID,
		Name:      p.Name,
		Kind:      p.Kind,
		Status:    p.Status,
		DependsOn: p.DependsOn,
	})
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}
