package memory

import (
	"context"

	"github.com/membank/membank/internal/apperr"
	"github.com/membank/membank/internal/domain"
)

// BulkDeleteThreshold is the entity count above which a live bulk delete
// requires force.
const BulkDeleteThreshold = 10

// BulkTarget names one entity matched by a bulk delete.
type BulkTarget struct {
	Label string `json:"label"`
	PK    string `json:"pk"`
}

// BulkResult reports what a bulk delete matched, and whether it mutated.
type BulkResult struct {
	Count    int          `json:"count"`
	Entities []BulkTarget `json:"entities"`
	Warnings []string     `json:"warnings"`
	DryRun   bool         `json:"dryRun"`
	Deleted  bool         `json:"deleted"`
}

// BulkDeleteByType matches all entities of one scoped type in (repository,
// branch). Tags and repositories are excluded; tags fall only to the
// explicit tag delete.
func (b *Bank) BulkDeleteByType(ctx context.Context, repo, branch, itemType string, dryRun, force bool) (*BulkResult, error) {
	label, err := domain.LabelForType(itemType)
	if err != nil {
		return nil, err
	}
	switch label {
	case domain.LabelTag, domain.LabelRepository:
		return nil, apperr.New(apperr.CodeInvalidArgument,
			"bulk delete by type does not apply to %s entities", itemType)
	}
	recs, err := b.graph.ListScoped(ctx, label, repo, branch)
	if err != nil {
		return nil, err
	}
	targets := make([]BulkTarget, 0, len(recs))
	for _, r := range recs {
		targets = append(targets, BulkTarget{Label: r.Label, PK: r.PK})
	}
	return b.finishBulk(ctx, targets, dryRun, force)
}

// BulkDeleteByTag matches every entity carrying the tag. The tag node
// itself survives.
func (b *Bank) BulkDeleteByTag(ctx context.Context, tagID string, dryRun, force bool) (*BulkResult, error) {
	exists, err := b.tags.Exists(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.New(apperr.CodeNotFound, "tag %s not found", tagID)
	}
	refs, err := b.tags.ItemsTagged(ctx, tagID)
	if err != nil {
		return nil, err
	}
	targets := make([]BulkTarget, 0, len(refs))
	for _, r := range refs {
		targets = append(targets, BulkTarget{Label: r.Label, PK: r.PK})
	}
	return b.finishBulk(ctx, targets, dryRun, force)
}

// BulkDeleteByBranch matches every scoped entity in (repository, branch)
// plus the branch's Repository node.
func (b *Bank) BulkDeleteByBranch(ctx context.Context, repo, branch string, dryRun, force bool) (*BulkResult, error) {
	var targets []BulkTarget
	for _, label := range domain.ScopedLabels {
		recs, err := b.graph.ListScoped(ctx, label, repo, branch)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			targets = append(targets, BulkTarget{Label: r.Label, PK: r.PK})
		}
	}
	repoID := domain.RepositoryNodeID(repo, branch)
	exists, err := b.graph.Exists(ctx, domain.LabelRepository, repoID)
	if err != nil {
		return nil, err
	}
	if exists {
		targets = append(targets, BulkTarget{Label: domain.LabelRepository, PK: repoID})
	}
	return b.finishBulk(ctx, targets, dryRun, force)
}

// BulkDeleteByRepository matches every entity and Repository node across
// all branches of the logical repository name. Tag nodes survive even when
// no references remain.
func (b *Bank) BulkDeleteByRepository(ctx context.Context, repo string, dryRun, force bool) (*BulkResult, error) {
	var targets []BulkTarget
	for _, label := range domain.ScopedLabels {
		recs, err := b.graph.ListByRepository(ctx, label, repo)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			targets = append(targets, BulkTarget{Label: r.Label, PK: r.PK})
		}
	}
	branches, err := b.repos.Branches(ctx, repo)
	if err != nil {
		return nil, err
	}
	for _, branch := range branches {
		targets = append(targets, BulkTarget{
			Label: domain.LabelRepository,
			PK:    domain.RepositoryNodeID(repo, branch),
		})
	}
	return b.finishBulk(ctx, targets, dryRun, force)
}

// finishBulk applies the dry-run and safety-threshold rules, then
// detach-deletes. Dry runs never mutate.
func (b *Bank) finishBulk(ctx context.Context, targets []BulkTarget, dryRun, force bool) (*BulkResult, error) {
	res := &BulkResult{
		Count:    len(targets),
		Entities: targets,
		Warnings: []string{},
		DryRun:   dryRun,
	}
	if res.Entities == nil {
		res.Entities = []BulkTarget{}
	}
	if dryRun {
		return res, nil
	}
	if len(targets) > BulkDeleteThreshold && !force {
		return nil, apperr.New(apperr.CodeInvalidArgument,
			"bulk delete matches %d entities (> %d); pass force to confirm",
			len(targets), BulkDeleteThreshold)
	}
	for _, t := range targets {
		existed, err := b.graph.DeleteNode(ctx, t.Label, t.PK)
		if err != nil {
			return nil, err
		}
		if !existed {
			res.Warnings = append(res.Warnings, "already absent: "+t.Label+" "+t.PK)
		}
	}
	res.Deleted = true
	return res, nil
}
