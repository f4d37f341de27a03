package entity

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type updateContextParams struct {
	tools.ScopeArgs
	ID          string `json:"id" validate:"required"`
	Agent       string `json:"agent" validate:"required"`
	Summary     string `json:"summary" validate:"required"`
	Observation string `json:"observation,omitempty"`
	Date        string `json:"date" validate:"required"`
	Issue       string `json:"issue,omitempty"`
	ItemType    string `json:"itemType,omitempty"`
	ItemID      string `json:"itemId,omitempty"`
}

// UpdateContext records an agent observation, optionally attached to a
// component, decision or rule.
type UpdateContext struct {
	service *memory.Service
}

// NewUpdateContext creates the update-context tool.
func NewUpdateContext(service *memory.Service) *UpdateContext {
	return &UpdateContext{service: service}
}

func (t *UpdateContext) Name() string { return "update-context" }

func (t *UpdateContext) Description() string {
	return "Record a working-context observation against the current repository and branch. Pass itemType and itemId to attach the observation to a component, decision or rule."
}

func (t *UpdateContext) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "id": {
      "type": "string",
      "description": "Logical context id, prefixed 'ctx-' (e.g. 'ctx-20250114-auth-refactor')"
    },
    "agent": {
      "type": "string",
      "description": "Agent that produced the observation"
    },
    "summary": {
      "type": "string",
      "description": "One-line summary"
    },
    "observation": {
      "type": "string",
      "description": "Detailed observation text"
    },
    "date": {
      "type": "string",
      "description": "Observation date, YYYY-MM-DD"
    },
    "issue": {
      "type": "string",
      "description": "Related issue reference"
    },
    "itemType": {
      "type": "string",
      "enum": ["component", "decision", "rule"],
      "description": "Entity type the observation concerns"
    },
    "itemId": {
      "type": "string",
      "description": "Logical id of the entity the observation concerns"
    },` + tools.ScopeSchema + `
  },
  "required": ["id", "agent", "summary", "date"]
}`)
}

func (t *UpdateContext) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p updateContextParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.UpsertContext(ctx, sc.Repository, sc.Branch, memory.ContextInput{
		ID:          p.ID,
		Agent:       p.Agent,
		Summary:     p.Summary,
		Observation: p.Observation,
		Date:        p.Date,
		Issue:       p.Issue,
		ItemType:    p.ItemType,
		ItemID:      p.ItemID,
	})
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}
