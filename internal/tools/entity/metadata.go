package entity

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type updateMetadataParams struct {
	tools.ScopeArgs
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// UpdateMetadata upserts the repository metadata blob.
type UpdateMetadata struct {
	service *memory.Service
}

// NewUpdateMetadata creates the update-metadata tool.
func NewUpdateMetadata(service *memory.Service) *UpdateMetadata {
	return &UpdateMetadata{service: service}
}

func (t *UpdateMetadata) Name() string { return "update-metadata" }

func (t *UpdateMetadata) Description() string {
	return "Add or update a named metadata document for the current repository and branch. Content must be a JSON document."
}

func (t *UpdateMetadata) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "id": {
      "type": "string",
      "description": "Metadata document id (e.g. 'meta-project')"
    },
    "name": {
      "type": "string",
      "description": "Document name"
    },
    "content": {
      "type": "string",
      "description": "JSON document as a string"
    },` + tools.ScopeSchema + `
  },
  "required": ["id", "name", "content"]
}`)
}

func (t *UpdateMetadata) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p updateMetadataParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.UpsertMetadata(ctx, sc.Repository, sc.Branch, memory.MetadataInput{
		ID:      p.ID,
		Name:    p.Name,
		Content: p.Content,
	})
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}

type getMetadataParams struct {
	tools.ScopeArgs
	ID string `json:"id" validate:"required"`
}

// GetMetadata reads a metadata document back.
type GetMetadata struct {
	service *memory.Service
}

// NewGetMetadata creates the get-metadata tool.
func NewGetMetadata(service *memory.Service) *GetMetadata {
	return &GetMetadata{service: service}
}

func (t *GetMetadata) Name() string { return "get-metadata" }

func (t *GetMetadata) Description() string {
	return "Read a metadata document of the current repository and branch."
}

func (t *GetMetadata) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "id": {
      "type": "string",
      "description": "Metadata document id"
    },` + tools.ScopeSchema + `
  },
  "required": ["id"]
}`)
}

func (t *GetMetadata) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p getMetadataParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.GetMetadata(ctx, sc.Repository, sc.Branch, p.ID)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}
