package entity

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type addFileParams struct {
	tools.ScopeArgs
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Path        string          `json:"path" validate:"required"`
	Language    string          `json:"language,omitempty"`
	Metrics     json.RawMessage `json:"metrics,omitempty"`
	ContentHash string          `json:"contentHash,omitempty"`
	MimeType    string          `json:"mimeType,omitempty"`
	SizeBytes   int64           `json:"sizeBytes,omitempty"`
}

// AddFile upserts a file node in the session scope.
type AddFile struct {
	service *memory.Service
}

// NewAddFile creates the add-file tool.
func NewAddFile(service *memory.Service) *AddFile {
	return &AddFile{service: service}
}

func (t *AddFile) Name() string { return "add-file" }

func (t *AddFile) Description() string {
	return "Add or update a tracked source file. Use associate-file-with-component to attach it to a component."
}

func (t *AddFile) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "id": {
      "type": "string",
      "description": "Logical file id, prefixed 'file-' (e.g. 'file-auth-handler')"
    },
    "name": {
      "type": "string",
      "description": "File name"
    },
    "path": {
      "type": "string",
      "description": "Repository-relative path"
    },
    "language": {
      "type": "string",
      "description": "Source language"
    },
    "metrics": {
      "type": "object",
      "description": "Arbitrary metrics object (e.g. {\"loc\": 120})"
    },
    "contentHash": {
      "type": "string",
      "description": "Content hash for change detection"
    },
    "mimeType": {
      "type": "string",
      "description": "MIME type"
    },
    "sizeBytes": {
      "type": "integer",
      "description": "Size in bytes"
    },` + tools.ScopeSchema + `
  },
  "required": ["id", "name", "path"]
}`)
}

func (t *AddFile) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p addFileParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, sc, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.UpsertFile(ctx, sc.Repository, sc.Branch, memory.FileInput{
		ID:          p.ID,
		Name:        p.Name,
		Path:        p.Path,
		Language:    p.Language,
		Metrics:     p.Metrics,
		ContentHash: p.ContentHash,
		MimeType:    p.MimeType,
		SizeBytes:   p.SizeBytes,
	})
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}
