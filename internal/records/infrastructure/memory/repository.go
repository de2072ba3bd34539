package memory

import (
	"context"
	"sync"

	records "marketplace-admin/internal/records/domain"
)

// Repository is an in-memory record store.
type Repository struct {
	mu   sync.RWMutex
	data map[string][]records.Record
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string][]records.Record)}
}

// List returns a copy of the stored records in insertion order.
func (r *Repository) List(ctx context.Context, resource records.Resource) ([]records.Record, error) {
	_ = ctx
	r.mu.RLock()
	stored := r.data[resource.Name]
	r.mu.RUnlock()
	return cloneRecords(stored), nil
}

// Replace overwrites the records of a resource.
func (r *Repository) Replace(ctx context.Context, resource records.Resource, list []records.Record) error {
	_ = ctx
	if resource.Name == "" {
		return records.ErrEmptyResourceName
	}
	for _, record := range list {
		if record == nil {
			return records.ErrNilRecord
		}
	}
	copied := cloneRecords(list)
	r.mu.Lock()
	r.data[resource.Name] = copied
	r.mu.Unlock()
	return nil
}

// Count returns the number of stored records across resources.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, list := range r.data {
		total += int64(len(list))
	}
	return total, nil
}

func cloneRecords(list []records.Record) []records.Record {
	out := make([]records.Record, 0, len(list))
	for _, record := range list {
		copy := make(records.Record, len(record))
		for k, v := range record {
			copy[k] = v
		}
		out = append(out, copy)
	}
	return out
}
