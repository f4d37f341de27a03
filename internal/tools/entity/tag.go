package entity

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type addTagParams struct {
	tools.ScopeArgs
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// AddTag upserts a tag. Tags are global within a project-root database,
// not scoped to a repository or branch.
type AddTag struct {
	service *memory.Service
}

// NewAddTag creates the add-tag tool.
func NewAddTag(service *memory.Service) *AddTag {
	return &AddTag{service: service}
}

func (t *AddTag) Name() string { return "add-tag" }

func (t *AddTag) Description() string {
	return "Add or update a tag. Tags are shared across all repositories and branches of the memory bank; use tag-item to attach one to an entity."
}

func (t *AddTag) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "id": {
      "type": "string",
      "description": "Logical tag id, prefixed 'tag-' (e.g. 'tag-security')"
    },
    "name": {
      "type": "string",
      "description": "Tag display name"
    },
    "color": {
      "type": "string",
      "description": "Display color (e.g. '#ff8800')"
    },
    "description": {
      "type": "string",
      "description": "What the tag marks"
    },` + tools.ScopeSchema + `
  },
  "required": ["id", "name"]
}`)
}

func (t *AddTag) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p addTagParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, _, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.UpsertTag(ctx, memory.TagInput{
		ID:          p.ID,
		Name:        p.Name,
		Color:       p.Color,
		Description: p.Description,
	})
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}
