package memory

import (
	"context"
	"encoding/json"

	"github.com/membank/membank/internal/apperr"
	"github.com/membank/membank/internal/domain"
	"github.com/membank/membank/internal/repository"
)

// ComponentInput is the agent-supplied component payload.
type ComponentInput struct {
	ID        string   `json:"id" validate:"required"`
	Name      string   `json:"name" validate:"required"`
	Kind      string   `json:"kind,omitempty"`
	Status    string   `json:"status,omitempty"`
	DependsOn []string `json:"dependsOn,omitempty"`
}

// UpsertComponent MERGEs the component in (repository, branch), links it to
// the Repository node and materialises DEPENDS_ON edges for every listed
// dependency that exists in the same scope. Dangling listings stay on the
// node for later resolution.
func (b *Bank) UpsertComponent(ctx context.Context, repo, branch string, in ComponentInput) (*domain.Component, error) {
	if err := domain.CheckIDPrefix(domain.LabelComponent, in.ID); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = domain.ComponentActive
	}
	if err := domain.CheckStatus(domain.LabelComponent, status); err != nil {
		return nil, err
	}

	c := &domain.Component{
		Scope:     domain.NewScope(repo, branch, in.ID),
		Name:      in.Name,
		Kind:      in.Kind,
		Status:    status,
		DependsOn: in.DependsOn,
	}
	out, err := b.components.Upsert(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := b.linkToRepository(ctx, repo, branch, domain.LabelComponent, c.GraphUniqueID); err != nil {
		return nil, err
	}

	// Edges only for targets present in the same scope.
	for _, dep := range in.DependsOn {
		depGID := domain.GraphID(repo, branch, dep)
		exists, err := b.components.Exists(ctx, depGID)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		if err := b.components.MergeDependsOn(ctx, c.GraphUniqueID, depGID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecisionInput is the agent-supplied decision payload.
type DecisionInput struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Date        string `json:"date" validate:"required"`
	Context     string `json:"context,omitempty"`
	Status      string `json:"status,omitempty"`
	ComponentID string `json:"componentId,omitempty"` // optional DECISION_ON target
}

// UpsertDecision MERGEs the decision, enforcing the status state machine on
// update, and optionally links it to a component in the same scope.
func (b *Bank) UpsertDecision(ctx context.Context, repo, branch string, in DecisionInput) (*domain.Decision, error) {
	if err := domain.CheckIDPrefix(domain.LabelDecision, in.ID); err != nil {
		return nil, err
	}
	if err := domain.ValidateDate("date", in.Date); err != nil {
		return nil, err
	}
	gid := domain.GraphID(repo, branch, in.ID)
	prior, err := b.decisions.FindByGraphID(ctx, gid)
	if err != nil {
		return nil, err
	}
	// An omitted status keeps the stored one on update; new decisions
	// start as proposed.
	status := in.Status
	if status == "" {
		if prior != nil {
			status = prior.Status
		} else {
			status = domain.DecisionProposed
		}
	}
	if err := domain.CheckStatus(domain.LabelDecision, status); err != nil {
		return nil, err
	}
	if prior != nil {
		if err := domain.CheckDecisionTransition(prior.Status, status); err != nil {
			return nil, err
		}
	}

	d := &domain.Decision{
		Scope:   domain.NewScope(repo, branch, in.ID),
		Name:    in.Name,
		Date:    in.Date,
		Context: in.Context,
		Status:  status,
	}
	out, err := b.decisions.Upsert(ctx, d)
	if err != nil {
		return nil, err
	}
	if err := b.linkToRepository(ctx, repo, branch, domain.LabelDecision, gid); err != nil {
		return nil, err
	}

	if in.ComponentID != "" {
		compGID := domain.GraphID(repo, branch, in.ComponentID)
		exists, err := b.components.Exists(ctx, compGID)
		if err != nil {
			return nil, err
		}
		if exists {
			if err := b.decisions.MergeDecisionOn(ctx, gid, compGID); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// RuleInput is the agent-supplied rule payload.
type RuleInput struct {
	ID       string   `json:"id" validate:"required"`
	Name     string   `json:"name" validate:"required"`
	Created  string   `json:"created" validate:"required"`
	Content  string   `json:"content" validate:"required"`
	Triggers []string `json:"triggers,omitempty"`
	Status   string   `json:"status,omitempty"`
}

// UpsertRule MERGEs the rule in (repository, branch).
func (b *Bank) UpsertRule(ctx context.Context, repo, branch string, in RuleInput) (*domain.Rule, error) {
	if err := domain.CheckIDPrefix(domain.LabelRule, in.ID); err != nil {
		return nil, err
	}
	if err := domain.ValidateDate("created", in.Created); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = domain.RuleActive
	}
	if err := domain.CheckStatus(domain.LabelRule, status); err != nil {
		return nil, err
	}

	r := &domain.Rule{
		Scope:    domain.NewScope(repo, branch, in.ID),
		Name:     in.Name,
		Created:  in.Created,
		Content:  in.Content,
		Triggers: in.Triggers,
		Status:   status,
	}
	out, err := b.rules.Upsert(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := b.linkToRepository(ctx, repo, branch, domain.LabelRule, r.GraphUniqueID); err != nil {
		return nil, err
	}
	return out, nil
}

// FileInput is the agent-supplied file payload.
type FileInput struct {
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Path        string          `json:"path" validate:"required"`
	Language    string          `json:"language,omitempty"`
	Metrics     json.RawMessage `json:"metrics,omitempty"`
	ContentHash string          `json:"contentHash,omitempty"`
	MimeType    string          `json:"mimeType,omitempty"`
	SizeBytes   int64           `json:"sizeBytes,omitempty"`
}

// UpsertFile MERGEs the file node in (repository, branch).
func (b *Bank) UpsertFile(ctx context.Context, repo, branch string, in FileInput) (*domain.File, error) {
	if err := domain.CheckIDPrefix(domain.LabelFile, in.ID); err != nil {
		return nil, err
	}
	f := &domain.File{
		Scope:       domain.NewScope(repo, branch, in.ID),
		Name:        in.Name,
		Path:        in.Path,
		Language:    in.Language,
		Metrics:     in.Metrics,
		ContentHash: in.ContentHash,
		MimeType:    in.MimeType,
		SizeBytes:   in.SizeBytes,
	}
	out, err := b.files.Upsert(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := b.linkToRepository(ctx, repo, branch, domain.LabelFile, f.GraphUniqueID); err != nil {
		return nil, err
	}
	return out, nil
}

// TagInput is the agent-supplied tag payload.
type TagInput struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpsertTag MERGEs the global tag node.
func (b *Bank) UpsertTag(ctx context.Context, in TagInput) (*domain.Tag, error) {
	if err := domain.CheckIDPrefix(domain.LabelTag, in.ID); err != nil {
		return nil, err
	}
	t := &domain.Tag{
		ID:          in.ID,
		Name:        in.Name,
		Color:       in.Color,
		Description: in.Description,
	}
	return b.tags.Upsert(ctx, t)
}

// ContextInput is the agent-supplied context payload.
type ContextInput struct {
	ID          string `json:"id" validate:"required"`
	Agent       string `json:"agent" validate:"required"`
	Summary     string `json:"summary" validate:"required"`
	Observation string `json:"observation,omitempty"`
	Date        string `json:"date" validate:"required"`
	Issue       string `json:"issue,omitempty"`
	// Optional CONTEXT_OF target in the same scope.
	ItemType string `json:"itemType,omitempty"`
	ItemID   string `json:"itemId,omitempty"`
}

// UpsertContext MERGEs a context observation and optionally links it to a
// component, decision or rule in the same scope.
func (b *Bank) UpsertContext(ctx context.Context, repo, branch string, in ContextInput) (*domain.Context, error) {
	if err := domain.CheckIDPrefix(domain.LabelContext, in.ID); err != nil {
		return nil, err
	}
	if err := domain.ValidateDate("date", in.Date); err != nil {
		return nil, err
	}

	c := &domain.Context{
		Scope:       domain.NewScope(repo, branch, in.ID),
		Agent:       in.Agent,
		Summary:     in.Summary,
		Observation: in.Observation,
		Date:        in.Date,
		Issue:       in.Issue,
	}
	out, err := b.contexts.Upsert(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := b.linkToRepository(ctx, repo, branch, domain.LabelContext, c.GraphUniqueID); err != nil {
		return nil, err
	}

	if in.ItemType != "" && in.ItemID != "" {
		label, err := domain.LabelForType(in.ItemType)
		if err != nil {
			return nil, err
		}
		switch label {
		case domain.LabelComponent, domain.LabelDecision, domain.LabelRule:
		default:
			return nil, apperr.New(apperr.CodeInvalidArgument,
				"context can only attach to component, decision or rule, got %q", in.ItemType)
		}
		targetGID := domain.GraphID(repo, branch, in.ItemID)
		exists, err := b.graph.Exists(ctx, label, targetGID)
		if err != nil {
			return nil, err
		}
		if exists {
			if err := b.contexts.MergeContextOf(ctx, c.GraphUniqueID, label, targetGID); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// MetadataInput is the agent-supplied metadata payload.
type MetadataInput struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Content string `json:"content" validate:"required"` // JSON string
}

// UpsertMetadata MERGEs the metadata blob in (repository, branch). Content
// must be valid JSON.
func (b *Bank) UpsertMetadata(ctx context.Context, repo, branch string, in MetadataInput) (*domain.Metadata, error) {
	if !json.Valid([]byte(in.Content)) {
		return nil, apperr.New(apperr.CodeInvalidArgument, "metadata content must be a JSON document")
	}
	m := &domain.Metadata{
		Scope:   domain.NewScope(repo, branch, in.ID),
		Name:    in.Name,
		Content: in.Content,
	}
	out, err := b.metadata.Upsert(ctx, m)
	if err != nil {
		return nil, err
	}
	if err := b.linkToRepository(ctx, repo, branch, domain.LabelMetadata, m.GraphUniqueID); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMetadata reads the metadata blob back, or NotFound.
func (b *Bank) GetMetadata(ctx context.Context, repo, branch, id string) (*domain.Metadata, error) {
	m, err := b.metadata.FindByGraphID(ctx, domain.GraphID(repo, branch, id))
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.New(apperr.CodeNotFound, "metadata %s not found in %s/%s", id, repo, branch)
	}
	return m, nil
}

// GetItem fetches any entity by type and logical id. Tags resolve globally.
func (b *Bank) GetItem(ctx context.Context, repo, branch, itemType, id string) (*repository.NodeRecord, error) {
	label, err := domain.LabelForType(itemType)
	if err != nil {
		return nil, err
	}
	pk := domain.GraphID(repo, branch, id)
	switch label {
	case domain.LabelTag:
		pk = id
	case domain.LabelRepository:
		pk = domain.RepositoryNodeID(repo, branch)
	}
	rec, err := b.graph.GetNode(ctx, label, pk)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperr.New(apperr.CodeNotFound, "%s %s not found in %s/%s", itemType, id, repo, branch)
	}
	return rec, nil
}

// DeleteItem detach-deletes any entity by type and logical id. Returns
// whether the node existed.
func (b *Bank) DeleteItem(ctx context.Context, repo, branch, itemType, id string) (bool, error) {
	label, err := domain.LabelForType(itemType)
	if err != nil {
		return false, err
	}
	pk := domain.GraphID(repo, branch, id)
	switch label {
	case domain.LabelTag:
		pk = id
	case domain.LabelRepository:
		pk = domain.RepositoryNodeID(repo, branch)
	}
	return b.graph.DeleteNode(ctx, label, pk)
}

// linkToRepository ensures the Repository node exists and carries a
// PART_OF_REPO edge to the scoped entity.
func (b *Bank) linkToRepository(ctx context.Context, repo, branch, entityLabel, entityGID string) error {
	repoID := domain.RepositoryNodeID(repo, branch)
	exists, err := b.graph.Exists(ctx, domain.LabelRepository, repoID)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := b.repos.Ensure(ctx, repo, branch); err != nil {
			return err
		}
	}
	return b.repos.MergePartOfRepo(ctx, repoID, entityLabel, entityGID)
}
