// Package introspect implements the schema-introspection tools: labels,
// counts, property keys and indexes of the bound memory bank.
package introspect

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type scopedOnlyParams struct {
	tools.ScopeArgs
}

func scopeOnlySchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {` + tools.ScopeSchema + `
  }
}`)
}

// Labels lists the node labels present in the database.
type Labels struct {
	service *memory.Service
}

// NewLabels creates the labels tool.
func NewLabels(service *memory.Service) *Labels {
	return &Labels{service: service}
}

func (t *Labels) Name() string { return "labels" }

func (t *Labels) Description() string {
	return "List the distinct node labels present in the memory bank."
}

func (t *Labels) InputSchema() json.RawMessage { return scopeOnlySchema() }

func (t *Labels) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p scopedOnlyParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, _, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	labels, err := bank.Labels(ctx)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(map[string]any{"labels": labels})
}

// Count reports node counts per label and in total.
type Count struct {
	service *memory.Service
}

// NewCount creates the count tool.
func NewCount(service *memory.Service) *Count {
	return &Count{service: service}
}

func (t *Count) Name() string { return "count" }

func (t *Count) Description() string {
	return "Count the nodes of the memory bank, in total and per label."
}

func (t *Count) InputSchema() json.RawMessage { return scopeOnlySchema() }

func (t *Count) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p scopedOnlyParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, _, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	out, err := bank.Count(ctx)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(out)
}

type propertiesParams struct {
	tools.ScopeArgs
	Label string `json:"label" validate:"required"`
}

// Properties lists the property keys of one label.
type Properties struct {
	service *memory.Service
}

// NewProperties creates the properties tool.
func NewProperties(service *memory.Service) *Properties {
	return &Properties{service: service}
}

func (t *Properties) Name() string { return "properties" }

func (t *Properties) Description() string {
	return "List the distinct top-level property keys of the nodes with a label."
}

func (t *Properties) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "label": {
      "type": "string",
      "enum": ["Repository", "Metadata", "Context", "Component", "Decision", "Rule", "File", "Tag"],
      "description": "Node label"
    },` + tools.ScopeSchema + `
  },
  "required": ["label"]
}`)
}

func (t *Properties) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p propertiesParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, _, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	keys, err := bank.Properties(ctx, p.Label)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(map[string]any{"label": p.Label, "properties": keys})
}

// Indexes lists the installed indexes.
type Indexes struct {
	service *memory.Service
}

// NewIndexes creates the indexes tool.
func NewIndexes(service *memory.Service) *Indexes {
	return &Indexes{service: service}
}

func (t *Indexes) Name() string { return "indexes" }

func (t *Indexes) Description() string {
	return "List the indexes installed on the memory-bank store."
}

func (t *Indexes) InputSchema() json.RawMessage { return scopeOnlySchema() }

func (t *Indexes) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p scopedOnlyParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	bank, _, err := tools.Resolve(ctx, t.service, p.ScopeArgs)
	if err != nil {
		return nil, err
	}
	return mcp.JSONResult(map[string]any{"indexes": bank.Indexes(ctx)})
}
