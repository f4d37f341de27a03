package entity

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type addDecisionParams struct {
	tools.ScopeArgs
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Context     string `json:"context,omitempty"`
	Status      string `json:"status,omitempty"`
	ComponentID string `json:"componentId,omitempty"`
}

// AddDecision upserts a decision, enforcing the status state machine on
// updates.
type AddDecision struct {
	service *memory.Service
}

// NewAddDecision creates the add-decision tool.
func NewAddDecision(service *memory.Service) *AddDecision {
	return &AddDecision{service: service}
}

func (t *AddDecision) Name() string { return "add-decision" }

func (t *AddDecision) Description() string {
	return "Add or update an architectural decision. Status follows proposed -> approved -> implemented or failed; invalid transitions are rejected. Optionally links the decision to a component in the same scope."
}

func (t *AddDecision) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "id": {
      "type": "string",
      "description": "Logical decision id, prefixed 'dec-' (e.g. 'dec-20250114-sqlite')"
    },
    "name": {
      "type": "string",
      "description": "Decision title"
    },
    "date": {
      "type": "string",
      "description": "Decision date, YYYY-MM-DD"
    },
    "context": {
      "type": "string",
      "description": "Rationale and background"
    },
    "status": {
      "type": "string",
      "enum": ["proposed", "approved", "implemented", "failed"],
      "description": "Lifecycle status (default 'proposed')"
    },
    "componentId": {
      "type": "string",
      "description": "Optional component the decision targets (DECISION_ON)"
    },` + tools.ScopeSchema + `
  },
  "required": ["id", "name", "date"]
}`)
}

func (t *AddDecision) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p addDecisionParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.UpsertDecision(ctx, sc.Repository, sc.Branch, memory.DecisionInput{
		ID:          p.ID,
		Name:        p.Name,
		Date:        p.Date,
		Context:     p.Context,
		Status:      p.Status,
		ComponentID: p.ComponentID,
	})
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}
