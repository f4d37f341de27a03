package domain

import (
	"fmt"
	"strings"

	"github.com/membank/membank/internal/apperr"
)

// DefaultBranch is assumed when a call does not name a branch.
const DefaultBranch = "main"

// GraphID builds the composite primary key of a scoped node:
// "{repository}:{branch}:{id}". The same logical id on different branches
// yields distinct nodes.
func GraphID(repository, branch, id string) string {
	return repository + ":" + branch + ":" + id
}

// RepositoryNodeID builds the node ID of a Repository: "{name}:{branch}".
func RepositoryNodeID(name, branch string) string {
	return name + ":" + branch
}

// SplitGraphID decomposes a graph unique ID into (repository, branch, id).
// The logical id may itself contain colons; repository and branch may not.
func SplitGraphID(gid string) (repository, branch, id string, err error) {
	parts := strings.SplitN(gid, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", apperr.New(apperr.CodeInvalidArgument,
			"malformed graph unique id %q, want {repository}:{branch}:{id}", gid)
	}
	return parts[0], parts[1], parts[2], nil
}

// NewScope builds a Scope, deriving the graph unique ID.
func NewScope(repository, branch, id string) Scope {
	return Scope{
		ID:            id,
		Repository:    repository,
		Branch:        branch,
		GraphUniqueID: GraphID(repository, branch, id),
	}
}

// Logical ID prefixes per entity label. Agents supply IDs like
// "comp-AuthService"; upserts reject IDs with the wrong prefix.
var idPrefixes = map[string]string{
	LabelComponent: "comp-",
	LabelDecision:  "dec-",
	LabelRule:      "rule-",
	LabelFile:      "file-",
	LabelTag:       "tag-",
	LabelContext:   "ctx-",
}

// CheckIDPrefix validates the logical ID prefix convention for the label.
// Labels without a convention (Metadata, Repository) accept any ID.
func CheckIDPrefix(label, id string) error {
	prefix, ok := idPrefixes[label]
	if !ok {
		return nil
	}
	if !strings.HasPrefix(id, prefix) || len(id) <= len(prefix) {
		return apperr.New(apperr.CodeInvalidArgument,
			"%s id %q must start with %q", label, id, prefix)
	}
	return nil
}

// validStatuses per label for entities that carry one.
var validStatuses = map[string][]string{
	LabelComponent: {ComponentActive, ComponentDeprecated, ComponentPlanned},
	LabelDecision:  {DecisionProposed, DecisionApproved, DecisionImplemented, DecisionFailed},
	LabelRule:      {RuleActive, RuleDeprecated},
}

// CheckStatus validates a status value for the label.
func CheckStatus(label, status string) error {
	allowed, ok := validStatuses[label]
	if !ok {
		return nil
	}
	for _, s := range allowed {
		if s == status {
			return nil
		}
	}
	return apperr.New(apperr.CodeInvalidArgument,
		"invalid %s status %q, want one of %s", label, status, strings.Join(allowed, ", "))
}

// decisionTransitions is the allowed decision status state machine:
// proposed -> approved -> implemented (terminal) or failed (terminal).
var decisionTransitions = map[string][]string{
	DecisionProposed:    {DecisionApproved},
	DecisionApproved:    {DecisionImplemented, DecisionFailed},
	DecisionImplemented: {},
	DecisionFailed:      {},
}

// CheckDecisionTransition validates a decision status change on upsert.
// Keeping the same status is always allowed.
func CheckDecisionTransition(from, to string) error {
	if from == to {
		return nil
	}
	for _, next := range decisionTransitions[from] {
		if next == to {
			return nil
		}
	}
	return apperr.New(apperr.CodeConflict,
		"invalid decision status transition %s -> %s", from, to)
}

// ScopesMatch reports whether two scoped entities share (repository, branch).
// Cross-branch relationships are rejected with Conflict by callers.
func ScopesMatch(a, b Scope) bool {
	return a.Repository == b.Repository && a.Branch == b.Branch
}

// ValidateDate checks a calendar-day string (YYYY-MM-DD).
func ValidateDate(field, value string) error {
	if len(value) != 10 || value[4] != '-' || value[7] != '-' {
		return apperr.New(apperr.CodeInvalidArgument,
			"%s must be a YYYY-MM-DD date, got %q", field, value)
	}
	for i, c := range value {
		if i == 4 || i == 7 {
			continue
		}
		if c < '0' || c > '9' {
			return apperr.New(apperr.CodeInvalidArgument,
				"%s must be a YYYY-MM-DD date, got %q", field, value)
		}
	}
	return nil
}

// EntityRef names a single entity for generic get/delete/tag operations.
type EntityRef struct {
	Label string
	ID    string
}

// LabelForType maps the wire "type" argument (component, decision, …) to the
// node label.
func LabelForType(t string) (string, error) {
	switch strings.ToLower(t) {
	case "component":
		return LabelComponent, nil
	case "decision":
		return LabelDecision, nil
	case "rule":
		return LabelRule, nil
	case "file":
		return LabelFile, nil
	case "context":
		return LabelContext, nil
	case "metadata":
		return LabelMetadata, nil
	case "tag":
		return LabelTag, nil
	case "repository":
		return LabelRepository, nil
	default:
		return "", apperr.New(apperr.CodeInvalidArgument, "unknown entity type %q", t)
	}
}

// String implements fmt.Stringer for diagnostics.
func (s Scope) String() string {
	return fmt.Sprintf("%s@%s/%s", s.ID, s.Repository, s.Branch)
}
