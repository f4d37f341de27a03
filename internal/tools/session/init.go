// Package session implements init-memory-bank, the tool that binds a
// transport session to its memory bank. Every other tool requires a
// bound session.
package session

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/membank/membank/internal/apperr"
	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
	"github.com/membank/membank/internal/tools"
)

type initParams struct {
	ClientProjectRoot string `json:"clientProjectRoot" validate:"required"`
	Repository        string `json:"repository" validate:"required"`
	Branch            string `json:"branch,omitempty"`
}

// InitMemoryBank provisions the store client for a project root, ensures
// the Repository node for (repository, branch) and binds the session.
type InitMemoryBank struct {
	service *memory.Service
}

// NewInitMemoryBank creates the init-memory-bank tool.
func NewInitMemoryBank(service *memory.Service) *InitMemoryBank {
	return &InitMemoryBank{service: service}
}

func (t *InitMemoryBank) Name() string { return "init-memory-bank" }

func (t *InitMemoryBank) Description() string {
	return "Initialize the memory bank for a project root and bind this session to a repository and branch. Must be called before any other tool. Safe to call repeatedly; rebinding replaces the session defaults."
}

func (t *InitMemoryBank) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "clientProjectRoot": {
      "type": "string",
      "description": "Absolute path of the project the memory bank belongs to"
    },
    "repository": {
      "type": "string",
      "description": "Logical repository name (e.g. 'acme/payments')"
    },
    "branch": {
      "type": "string",
      "description": "Branch scope (default 'main')"
    }
  },
  "required": ["clientProjectRoot", "repository"]
}`)
}

func (t *InitMemoryBank) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p initParams
	if err := tools.Decode(params, &p); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(p.ClientProjectRoot) {
		return nil, apperr.New(apperr.CodeInvalidArgument,
			"clientProjectRoot must be an absolute path, got %q", p.ClientProjectRoot)
	}
	branch := p.Branch
	if branch == "" {
		branch = domain.DefaultBranch
	}

	session, err := mcp.SessionFrom(ctx)
	if err != nil {
		return nil, err
	}

	bank, err := t.service.Bank(ctx, p.ClientProjectRoot)
	if err != nil {
		return nil, err
	}
	repoNodeID, err := bank.InitRepository(ctx, p.Repository, branch)
	if err != nil {
		return nil, err
	}

	session.Bind(p.ClientProjectRoot, p.Repository, branch)

	return mcp.JSONResult(map[string]any{
		"status":            "ok",
		"clientProjectRoot": p.ClientProjectRoot,
		"repository":        p.Repository,
		"branch":            branch,
		"repositoryNodeId":  repoNodeID,
	})
}
