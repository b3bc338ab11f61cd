package history

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory Repository for tests and local
// development. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu          sync.RWMutex
	assessments map[string]*Assessment
}

// NewInMemoryRepository creates an empty in-memory assessment repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		assessments: make(map[string]*Assessment),
	}
}

// Get retrieves an assessment by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Assessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assessments[id]
	if !ok {
		return nil, ErrAssessmentNotFound
	}

	cpy := *a
	return &cpy, nil
}

// ListBySubject retrieves a subject's assessments, newest first.
func (r *InMemoryRepository) ListBySubject(_ context.Context, subjectID string, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*Assessment
	for _, a := range r.assessments {
		if a.SubjectID == subjectID {
			cpy := *a
			items = append(items, &cpy)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})

	if opts.Cursor != "" {
		for i, a := range items {
			if a.ID == opts.Cursor {
				items = items[i+1:]
				break
			}
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	result := &ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.NextCursor = items[limit-1].ID
	}

	return result, nil
}

// Create stores a new assessment.
func (r *InMemoryRepository) Create(_ context.Context, a *Assessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := *a
	r.assessments[a.ID] = &cpy
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
