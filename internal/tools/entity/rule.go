package entity

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type addRuleParams struct {
	tools.ScopeArgs
	ID       string   `json:"id" validate:"required"`
	Name     string   `json:"name" validate:"required"`
	Created  string   `json:"created" validate:"required"`
	Content  string   `json:"content" validate:"required"`
	Triggers []string `json:"triggers,omitempty"`
	Status   string   `json:"status,omitempty"`
}

// AddRule upserts a governance rule in the session scope.
type AddRule struct {
	service *memory.Service
}

// NewAddRule creates the add-rule tool.
func NewAddRule(service *memory.Service) *AddRule {
	return &AddRule{service: service}
}

func (t *AddRule) Name() string { return "add-rule" }

func (t *AddRule) Description() string {
	return "Add or update a governance rule. Rules with status 'active' are returned by get-governing-items-for-component."
}

func (t *AddRule) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "id": {
      "type": "string",
      "description": "Logical rule id, prefixed 'rule-' (e.g. 'rule-no-direct-db-access')"
    },
    "name": {
      "type": "string",
      "description": "Rule title"
    },
    "created": {
      "type": "string",
      "description": "Creation date, YYYY-MM-DD"
    },
    "content": {
      "type": "string",
      "description": "The rule text"
    },
    "triggers": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Keywords that should surface this rule"
    },
    "status": {
      "type": "string",
      "enum": ["active", "deprecated"],
      "description": "Lifecycle status (default 'active')"
    },` + tools.ScopeSchema + `
  },
  "required": ["id", "name", "created", "content"]
}`)
}

func (t *AddRule) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p addRuleParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.UpsertRule(ctx, sc.Repository, sc.Branch, memory.RuleInput{
		ID:       p.ID,
		Name:     p.Name,
		Created:  p.Created,
		Content:  p.Content,
		Triggers: p.Triggers,
		Status:   p.Status,
	})
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}
