package query

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type governingParams struct {
	tools.ScopeArgs
	ComponentID string `json:"componentId" validate:"required"`
}

// GoverningItems aggregates the governance view of one component.
type GoverningItems struct {
	service *memory.Service
}

// NewGoverningItems creates the get-governing-items-for-component tool.
func NewGoverningItems(service *memory.Service) *GoverningItems {
	return &GoverningItems{service: service}
}

func (t *GoverningItems) Name() string { return "get-governing-items-for-component" }

func (t *GoverningItems) Description() string {
	return "Return the decisions targeting a component, the active rules of the repository and branch, and the component's context history, newest first."
}

func (t *GoverningItems) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "componentId": {
      "type": "string",
      "description": "Logical component id"
    },` + tools.ScopeSchema + `
  },
  "required": ["componentId"]
}`)
}

func (t *GoverningItems) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p governingParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.GetGoverningItemsForComponent(ctx, sc.Repository, sc.Branch, p.ComponentID)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}

type historyParams struct {
	tools.ScopeArgs
	ItemType string `json:"itemType" validate:"required"`
	ItemID   string `json:"itemId" validate:"required"`
}

// ContextualHistory returns the context observations attached to an item.
type ContextualHistory struct {
	service *memory.Service
}

// NewContextualHistory creates the get-item-contextual-history tool.
func NewContextualHistory(service *memory.Service) *ContextualHistory {
	return &ContextualHistory{service: service}
}

func (t *ContextualHistory) Name() string { return "get-item-contextual-history" }

func (t *ContextualHistory) Description() string {
	return "Return the context observations attached to a component, decision or rule, ordered by date descending."
}

func (t *ContextualHistory) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "itemType": {
      "type": "string",
      "enum": ["component", "decision", "rule"],
      "description": "Entity type"
    },
    "itemId": {
      "type": "string",
      "description": "Logical entity id"
    },` + tools.ScopeSchema + `
  },
  "required": ["itemType", "itemId"]
}`)
}

func (t *ContextualHistory) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p historyParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.GetItemContextualHistory(ctx, sc.Repository, sc.Branch, p.ItemType, p.ItemID)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(map[string]any{"contexts": out})
}
