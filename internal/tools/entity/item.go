package entity

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type itemParams struct {
	tools.ScopeArgs
	Type string `json:"type" validate:"required"`
	ID   string `json:"id" validate:"required"`
}

// GetItem fetches any entity by type and logical id.
type GetItem struct {
	service *memory.Service
}

// NewGetItem creates the get-item tool.
func NewGetItem(service *memory.Service) *GetItem {
	return &GetItem{service: service}
}

func (t *GetItem) Name() string { return "get-item" }

func (t *GetItem) Description() string {
	return "Fetch a single entity by type and logical id. Tags resolve globally; all other types resolve within the current repository and branch."
}

func (t *GetItem) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "type": {
      "type": "string",
      "enum": ["component", "decision", "rule", "file", "context", "metadata", "tag", "repository"],
      "description": "Entity type"
    },
    "id": {
      "type": "string",
      "description": "Logical entity id"
    },` + tools.ScopeSchema + `
  },
  "required": ["type", "id"]
}`)
}

func (t *GetItem) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p itemParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.GetItem(ctx, sc.Repository, sc.Branch, p.Type, p.ID)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}

// DeleteItem detach-deletes any entity by type and logical id.
type DeleteItem struct {
	service *memory.Service
}

// NewDeleteItem creates the delete-item tool.
func NewDeleteItem(service *memory.Service) *DeleteItem {
	return &DeleteItem{service: service}
}

func (t *DeleteItem) Name() string { return "delete-item" }

func (t *DeleteItem) Description() string {
	return "Delete a single entity by type and logical id, removing its relationships with it. Reports whether the entity existed."
}

func (t *DeleteItem) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "type": {
      "type": "string",
      "enum": ["component", "decision", "rule", "file", "context", "metadata", "tag", "repository"],
      "description": "Entity type"
    },
    "id": {
      "type": "string",
      "description": "Logical entity id"
    },` + tools.ScopeSchema + `
  },
  "required": ["type", "id"]
}`)
}

func (t *DeleteItem) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p itemParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	existed, err := bank.DeleteItem(ctx, sc.Repository, sc.Branch, p.Type, p.ID)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(map[string]any{
		"deleted": existed,
		"type":    p.Type,
		"id":      p.ID,
	})
}
