// Package tools provides the shared plumbing of the membank tool
// packages: parameter decoding with validation, and resolution of the
// call scope from the bound session.
package tools

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/membank/membank/internal/apperr"
	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/mcp"
	"github.com/membank/membank/internal/memory"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode unmarshals tool arguments into p and runs struct validation.
func Decode(params json.RawMessage, p any) error {
	if err := json.Unmarshal(params, p); err != nil {
		return apperr.New(apperr.CodeInvalidArgument, "invalid parameters: %v", err)
	}
	if err := validate.Struct(p); err != nil {
		return apperr.New(apperr.CodeInvalidArgument, "invalid parameters: %v", err)
	}
	return nil
}

// ScopeArgs are the per-call override arguments accepted by every
// non-init tool. The session supplies the defaults.
type ScopeArgs struct {
	ClientProjectRoot string `json:"clientProjectRoot,omitempty"`
	Repository        string `json:"repository,omitempty"`
	Branch            string `json:"branch,omitempty"`
}

// Scope is the resolved (project root, repository, branch) of one call.
type Scope struct {
	ProjectRoot string `json:"clientProjectRoot"`
	Repository  string `json:"repository"`
	Branch      string `json:"branch"`
}

// Resolve determines the call scope from the bound session plus the
// per-call overrides, then opens the bank for the project root. Calls
// without a bound session fail with SessionUnbound.
func Resolve(ctx context.Context, svc *memory.Service, args ScopeArgs) (*memory.Bank, Scope, error) {
	session, err := mcp.SessionFrom(ctx)
	if err != nil {
		return nil, Scope{}, err
	}
	root, repo, branch, err := session.Scope()
	if err != nil {
		return nil, Scope{}, err
	}
	if args.ClientProjectRoot != "" {
		root = args.ClientProjectRoot
	}
	if args.Repository != "" {
		repo = args.Repository
	}
	if args.Branch != "" {
		branch = args.Branch
	}
	if branch == "" {
		branch = domain.DefaultBranch
	}
	bank, err := svc.Bank(ctx, root)
	if err != nil {
		return nil, Scope{}, err
	}
	return bank, Scope{ProjectRoot: root, Repository: repo, Branch: branch}, nil
}

// ScopeSchema is the JSON Schema fragment for the override arguments,
// spliced into tool input schemas.
const ScopeSchema = `
    "clientProjectRoot": {
      "type": "string",
      "description": "Override the session project root for this call"
    },
    "repository": {
      "type": "string",
      "description": "Override the session repository for this call"
    },
    "branch": {
      "type": "string",
      "description": "Override the session branch for this call (default 'main')"
    }`
