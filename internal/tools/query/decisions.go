package query

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type decisionsByDateParams struct {
	tools.ScopeArgs
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
}

// DecisionsByDateRange lists decisions within inclusive calendar-day
// bounds.
type DecisionsByDateRange struct {
	service *memory.Service
}

// NewDecisionsByDateRange creates the get-decisions-by-date-range tool.
func NewDecisionsByDateRange(service *memory.Service) *DecisionsByDateRange {
	return &DecisionsByDateRange{service: service}
}

func (t *DecisionsByDateRange) Name() string { return "get-decisions-by-date-range" }

func (t *DecisionsByDateRange) Description() string {
	return "List the decisions of the current repository and branch whose date falls within the inclusive range, ordered by date."
}

func (t *DecisionsByDateRange) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "startDate": {
      "type": "string",
      "description": "Range start, YYYY-MM-DD (inclusive)"
    },
    "endDate": {
      "type": "string",
      "description": "Range end, YYYY-MM-DD (inclusive)"
    },` + tools.ScopeSchema + `
  },
  "required": ["startDate", "endDate"]
}`)
}

func (t *DecisionsByDateRange) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p decisionsByDateParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.GetDecisionsByDateRange(ctx, sc.Repository, sc.Branch, p.StartDate, p.EndDate)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(map[string]any{"decisions": out})
}
