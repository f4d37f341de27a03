package memory

import (
	"context"

	"github.com/membank/membank/internal/storage"
)

// Labels returns the distinct node labels present in the database.
func (b *Bank) Labels(ctx context.Context) ([]string, error) {
	labels, err := b.graph.Labels(ctx)
	if err != nil {
		return nil, err
	}
	if labels == nil {
		labels = []string{}
	}
	return labels, nil
}

// CountResult reports node counts per label and in total.
type CountResult struct {
	Total   int64            `json:"total"`
	ByLabel map[string]int64 `json:"byLabel"`
}

// Count reports node counts per label.
func (b *Bank) Count(ctx context.Context) (*CountResult, error) {
	byLabel, err := b.graph.CountByLabel(ctx)
	if err != nil {
		return nil, err
	}
	res := &CountResult{ByLabel: byLabel}
	for _, n := range byLabel {
		res.Total += n
	}
	return res, nil
}

// Properties returns the distinct top-level property keys of one label.
func (b *Bank) Properties(ctx context.Context, label string) ([]string, error) {
	keys, err := b.graph.PropertyKeys(ctx, label)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// Indexes returns the installed index descriptions.
func (b *Bank) Indexes(ctx context.Context) []string {
	return storage.SchemaIndexes
}
