// Package bulk implements the bulk-delete tool. Deletes above the safety
// threshold require force; dryRun previews the match set without
// mutating.
package bulk

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/apperr"
	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type bulkDeleteParams struct {
	tools.ScopeArgs
	Scope  string `json:"scope" validate:"required,oneof=type tag branch repository"`
	Type   string `json:"type,omitempty"`
	TagID  string `json:"tagId,omitempty"`
	DryRun bool   `json:"dryRun,omitempty"`
	Force  bool   `json:"force,omitempty"`
}

// BulkDelete removes groups of entities by type, tag, branch or
// repository.
type BulkDelete struct {
	service *memory.Service
}

// NewBulkDelete creates the bulk-delete tool.
func NewBulkDelete(service *memory.Service) *BulkDelete {
	return &BulkDelete{service: service}
}

func (t *BulkDelete) Name() string { return "bulk-delete" }

func (t *BulkDelete) Description() string {
	return "Delete entities in bulk by type, tag, branch or repository. dryRun=true previews the match set without deleting; matches above the safety threshold require force=true. Tags survive tag- and repository-scoped deletes."
}

func (t *BulkDelete) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "scope": {
      "type": "string",
      "enum": ["type", "tag", "branch", "repository"],
      "description": "What the delete matches on"
    },
    "type": {
      "type": "string",
      "enum": ["component", "decision", "rule", "file", "context", "metadata"],
      "description": "Entity type (required when scope is 'type')"
    },
    "tagId": {
      "type": "string",
      "description": "Tag id (required when scope is 'tag')"
    },
    "dryRun": {
      "type": "boolean",
      "description": "Preview the match set without deleting (default false)"
    },
    "force": {
      "type": "boolean",
      "description": "Confirm deletes above the safety threshold (default false)"
    },` + tools.ScopeSchema + `
  },
  "required": ["scope"]
}`)
}

func (t *BulkDelete) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p bulkDeleteParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}

	var res *memory.BulkResult
	switch p.Scope {
	case "type":
		if p.Type == "" {
			return nil, apperr.New(apperr.CodeInvalidArgument, "type is required when scope is 'type'")
		}
		res, err = bank.BulkDeleteByType(ctx, sc.Repository, sc.Branch, p.Type, p.DryRun, p.Force)
	case "tag":
		if p.TagID == "" {
			return nil, apperr.New(apperr.CodeInvalidArgument, "tagId is required when scope is 'tag'")
		}
		res, err = bank.BulkDeleteByTag(ctx, p.TagID, p.DryRun, p.Force)
	case "branch":
		res, err = bank.BulkDeleteByBranch(ctx, sc.Repository, sc.Branch, p.DryRun, p.Force)
	case "repository":
		res, err = bank.BulkDeleteByRepository(ctx, sc.Repository, p.DryRun, p.Force)
	}
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(res)
}
