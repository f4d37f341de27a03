// Package assoc implements the relationship tools: file-to-component
// containment and tagging. Missing endpoints are reported as a soft
// failure in the result, not as a protocol error.
package assoc

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type associateFileParams struct {
	tools.ScopeArgs
	ComponentID string `json:"componentId" validate:"required"`
	FileID      string `json:"fileId" validate:"required"`
}

// AssociateFileWithComponent merges a CONTAINS_FILE edge.
type AssociateFileWithComponent struct {
	service *memory.Service
}

// NewAssociateFileWithComponent creates the associate-file-with-component tool.
func NewAssociateFileWithComponent(service *memory.Service) *AssociateFileWithComponent {
	return &AssociateFileWithComponent{service: service}
}

func (t *AssociateFileWithComponent) Name() string { return "associate-file-with-component" }

func (t *AssociateFileWithComponent) Description() string {
	return "Attach a file to a component in the current repository and branch. Idempotent; returns success=false when either endpoint does not exist."
}

func (t *AssociateFileWithComponent) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "componentId": {
      "type": "string",
      "description": "Logical component id"
    },
    "fileId": {
      "type": "string",
      "description": "Logical file id"
    },` + tools.ScopeSchema + `
  },
  "required": ["componentId", "fileId"]
}`)
}

func (t *AssociateFileWithComponent) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p associateFileParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.AssociateFileWithComponent(ctx, sc.Repository, sc.Branch, p.ComponentID, p.FileID)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}

type tagItemParams struct {
	tools.ScopeArgs
	ItemType string `json:"itemType" validate:"required"`
	ItemID   string `json:"itemId" validate:"required"`
	TagID    string `json:"tagId" validate:"required"`
}

// TagItem merges an IS_TAGGED_WITH edge between a scoped entity and a
// global tag.
type TagItem struct {
	service *memory.Service
}

// NewTagItem creates the tag-item tool.
func NewTagItem(service *memory.Service) *TagItem {
	return &TagItem{service: service}
}

func (t *TagItem) Name() string { return "tag-item" }

func (t *TagItem) Description() string {
	return "Tag an entity in the current repository and branch with a global tag. Idempotent; returns success=false when either endpoint does not exist."
}

func (t *TagItem) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "itemType": {
      "type": "string",
      "enum": ["component", "decision", "rule", "file", "context", "metadata"],
      "description": "Entity type to tag"
    },
    "itemId": {
      "type": "string",
      "description": "Logical entity id"
    },
    "tagId": {
      "type": "string",
      "description": "Tag id (e.g. 'tag-security')"
    },` + tools.ScopeSchema + `
  },
  "required": ["itemType", "itemId", "tagId"]
}`)
}

func (t *TagItem) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p tagItemParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.TagItem(ctx, sc.Repository, sc.Branch, p.ItemType, p.ItemID, p.TagID)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}
