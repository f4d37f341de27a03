// Package domain defines the memory-bank entity model: branch-scoped graph
// nodes identified by a composite graph unique ID, plus the relationship
// types that connect them.
package domain

import (
	"encoding/json"
	"time"
)

// Node labels.
const (
	LabelRepository = "Repository"
	LabelMetadata   = "Metadata"
	LabelContext    = "Context"
	LabelComponent  = "Component"
	LabelDecision   = "Decision"
	LabelRule       = "Rule"
	LabelFile       = "File"
	LabelTag        = "Tag"
)

// Relationship types.
const (
	RelPartOfRepo   = "PART_OF_REPO"
	RelDependsOn    = "DEPENDS_ON"
	RelContextOf    = "CONTEXT_OF"
	RelDecisionOn   = "DECISION_ON"
	RelContainsFile = "CONTAINS_FILE"
	RelIsTaggedWith = "IS_TAGGED_WITH"
)

// ScopedLabels lists the labels of entities scoped to a (repository, branch)
// pair. Repository and Tag are excluded: Repository carries branch as an
// attribute and Tag is global to a project-root database.
var ScopedLabels = []string{
	LabelMetadata, LabelContext, LabelComponent, LabelDecision, LabelRule, LabelFile,
}

// ComponentStatus values.
const (
	ComponentActive     = "active"
	ComponentDeprecated = "deprecated"
	ComponentPlanned    = "planned"
)

// DecisionStatus values.
const (
	DecisionProposed    = "proposed"
	DecisionApproved    = "approved"
	DecisionImplemented = "implemented"
	DecisionFailed      = "failed"
)

// RuleStatus values.
const (
	RuleActive     = "active"
	RuleDeprecated = "deprecated"
)

// Repository is the root node of a (name, branch) space. Its node ID is
// "{name}:{branch}".
type Repository struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Branch    string    `json:"branch"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Scope ties a scoped entity to its repository and branch. Embedded by every
// scoped entity struct.
type Scope struct {
	ID            string `json:"id"`
	Repository    string `json:"repository"`
	Branch        string `json:"branch"`
	GraphUniqueID string `json:"graph_unique_id"`
}

// Stamped carries the server-side timestamps.
type Stamped struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Metadata is a named JSON blob attached to a repository+branch.
type Metadata struct {
	Scope
	Name    string `json:"name"`
	Content string `json:"content"` // JSON string
	Stamped
}

// Context records an agent observation against a repository+branch.
type Context struct {
	Scope
	Agent       string `json:"agent"`
	Summary     string `json:"summary"`
	Observation string `json:"observation"`
	Date        string `json:"date"` // calendar day, YYYY-MM-DD
	Issue       string `json:"issue,omitempty"`
	Stamped
}

// Component is an architectural element. DependsOn holds logical component
// IDs; edges are materialised only for targets that exist in the same scope,
// dangling listings are retained for later resolution.
type Component struct {
	Scope
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Status    string   `json:"status"`
	DependsOn []string `json:"depends_on,omitempty"`
	Stamped
}

// Decision is an architectural decision record with a status lifecycle.
type Decision struct {
	Scope
	Name    string `json:"name"`
	Date    string `json:"date"` // calendar day, YYYY-MM-DD
	Context string `json:"context,omitempty"`
	Status  string `json:"status"`
	Stamped
}

// Rule is a governance rule with trigger keywords.
type Rule struct {
	Scope
	Name     string   `json:"name"`
	Created  string   `json:"created"` // calendar day, YYYY-MM-DD
	Content  string   `json:"content"`
	Triggers []string `json:"triggers,omitempty"`
	Status   string   `json:"status"`
	Stamped
}

// File describes a source file tracked in the graph.
type File struct {
	Scope
	Name        string          `json:"name"`
	Path        string          `json:"path"`
	Language    string          `json:"language,omitempty"`
	Metrics     json.RawMessage `json:"metrics,omitempty"`
	ContentHash string          `json:"content_hash,omitempty"`
	MimeType    string          `json:"mime_type,omitempty"`
	SizeBytes   int64           `json:"size_bytes,omitempty"`
	Stamped
}

// Tag is a global label within a project-root database.
type Tag struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
