package memory

import (
	"context"
	"fmt"

	"github.com/membank/membank/internal/domain"
)

// AssociationResult is returned by association operations. Missing
// endpoints are a soft failure, not an error.
type AssociationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AssociateFileWithComponent MATCHes both endpoints in (repository, branch)
// and MERGEs the CONTAINS_FILE edge. Returns success=false when either
// endpoint is absent; calling again is idempotent in the edge set.
func (b *Bank) AssociateFileWithComponent(ctx context.Context, repo, branch, componentID, fileID string) (*AssociationResult, error) {
	compGID := domain.GraphID(repo, branch, componentID)
	fileGID := domain.GraphID(repo, branch, fileID)

	compExists, err := b.components.Exists(ctx, compGID)
	if err != nil {
		return nil, err
	}
	if !compExists {
		return &AssociationResult{
			Success: false,
			Message: fmt.Sprintf("component %s not found in %s/%s", componentID, repo, branch),
		}, nil
	}
	fileExists, err := b.files.Exists(ctx, fileGID)
	if err != nil {
		return nil, err
	}
	if !fileExists {
		return &AssociationResult{
			Success: false,
			Message: fmt.Sprintf("file %s not found in %s/%s", fileID, repo, branch),
		}, nil
	}

	if err := b.files.MergeContainsFile(ctx, compGID, fileGID); err != nil {
		return nil, err
	}
	return &AssociationResult{
		Success: true,
		Message: fmt.Sprintf("component %s contains file %s", componentID, fileID),
	}, nil
}

// TagItem MATCHes the item (scoped) and the tag (global) and MERGEs the
// IS_TAGGED_WITH edge. Returns success=false when either endpoint is
// absent.
func (b *Bank) TagItem(ctx context.Context, repo, branch, itemType, itemID, tagID string) (*AssociationResult, error) {
	label, err := domain.LabelForType(itemType)
	if err != nil {
		return nil, err
	}
	itemPK := domain.GraphID(repo, branch, itemID)
	if label == domain.LabelTag || label == domain.LabelRepository {
		return &AssociationResult{
			Success: false,
			Message: fmt.Sprintf("%s entities cannot be tagged", itemType),
		}, nil
	}

	itemExists, err := b.graph.Exists(ctx, label, itemPK)
	if err != nil {
		return nil, err
	}
	if !itemExists {
		return &AssociationResult{
			Success: false,
			Message: fmt.Sprintf("%s %s not found in %s/%s", itemType, itemID, repo, branch),
		}, nil
	}
	tagExists, err := b.tags.Exists(ctx, tagID)
	if err != nil {
		return nil, err
	}
	if !tagExists {
		return &AssociationResult{
			Success: false,
			Message: fmt.Sprintf("tag %s not found", tagID),
		}, nil
	}

	if err := b.tags.MergeTaggedWith(ctx, label, itemPK, tagID); err != nil {
		return nil, err
	}
	return &AssociationResult{
		Success: true,
		Message: fmt.Sprintf("%s %s tagged with %s", itemType, itemID, tagID),
	}, nil
}
