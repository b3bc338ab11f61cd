package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the history service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger

	// MaxPageSize caps List page sizes (default: 100).
	MaxPageSize int
}

// Service records and lists assessments on top of a Repository.
type Service struct {
	repo        Repository
	logger      zerolog.Logger
	maxPageSize int
}

// NewService creates a history service.
func NewService(cfg ServiceConfig) *Service {
	maxPageSize := cfg.MaxPageSize
	if maxPageSize <= 0 {
		maxPageSize = 100
	}

	return &Service{
		repo:        cfg.Repository,
		logger:      cfg.Logger,
		maxPageSize: maxPageSize,
	}
}

// Record stores an assessment, assigning its ID and timestamp.
func (s *Service) Record(ctx context.Context, a *Assessment) error {
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC()

	if err := s.repo.Create(ctx, a); err != nil {
		return fmt.Errorf("recording assessment: %w", err)
	}

	s.logger.Debug().
		Str("assessment_id", a.ID).
		Str("subject_id", a.SubjectID).
		Float64("score", a.Score).
		Str("level", string(a.Level)).
		Msg("recorded assessment")

	return nil
}

// Get retrieves an assessment by ID.
func (s *Service) Get(ctx context.Context, id string) (*Assessment, error) {
	return s.repo.Get(ctx, id)
}

// ListBySubject returns one page of a subject's assessments, newest
// first.
func (s *Service) ListBySubject(ctx context.Context, subjectID string, opts ListOptions) (*ListResult, error) {
	if opts.Limit <= 0 || opts.Limit > s.maxPageSize {
		opts.Limit = s.maxPageSize
	}
	return s.repo.ListBySubject(ctx, subjectID, opts)
}
