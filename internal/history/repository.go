package history

import "context"

// ListOptions contains options for listing assessments.
type ListOptions struct {
	Limit  int
	Cursor string
}

// ListResult contains one page of assessments, newest first.
type ListResult struct {
	Items      []*Assessment
	NextCursor string
}

// Repository defines the persistence contract for assessments.
type Repository interface {
	// Get retrieves an assessment by ID.
	Get(ctx context.Context, id string) (*Assessment, error)

	// ListBySubject retrieves assessments for a subject with pagination.
	ListBySubject(ctx context.Context, subjectID string, opts ListOptions) (*ListResult, error)

	// Create stores a new assessment.
	Create(ctx context.Context, a *Assessment) error
}
