// Package seed populates the careers and subjects catalog on startup when the
// tables are empty, so a fresh database is usable without manual loading.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/escolar-dev/sie-enrollment-api/internal/models"
)

//go:embed data/careers.json
var careersJSON []byte

//go:embed data/subjects.json
var subjectsJSON []byte

type careerSeedStore interface {
	List(ctx context.Context) ([]models.Career, error)
	Create(ctx context.Context, career *models.Career) error
}

type subjectSeedStore interface {
	List(ctx context.Context) ([]models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
}

// Seeder loads the embedded catalog data into empty tables. Tables that
// already hold rows are left untouched, so it is safe to run on every boot.
type Seeder struct {
	careers  careerSeedStore
	subjects subjectSeedStore
	logger   *zap.Logger
}

// New constructs a Seeder.
func New(careers careerSeedStore, subjects subjectSeedStore, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{careers: careers, subjects: subjects, logger: logger}
}

// Run seeds subjects and careers in that order. A partial failure is
// returned but does not undo rows already inserted.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.seedSubjects(ctx); err != nil {
		return err
	}
	return s.seedCareers(ctx)
}

func (s *Seeder) seedSubjects(ctx context.Context) error {
	existing, err := s.subjects.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to count subjects: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("subjects already seeded", zap.Int("count", len(existing)))
		return nil
	}

	var subjects []models.Subject
	if err := json.Unmarshal(subjectsJSON, &subjects); err != nil {
		return fmt.Errorf("failed to decode subject seed data: %w", err)
	}
	for i := range subjects {
		if err := s.subjects.Create(ctx, &subjects[i]); err != nil {
			return fmt.Errorf("failed to seed subject %d: %w", subjects[i].ID, err)
		}
	}

	s.logger.Info("subjects seeded", zap.Int("count", len(subjects)))
	return nil
}

func (s *Seeder) seedCareers(ctx context.Context) error {
	existing, err := s.careers.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to count careers: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("careers already seeded", zap.Int("count", len(existing)))
		return nil
	}

	var careers []models.Career
	if err := json.Unmarshal(careersJSON, &careers); err != nil {
		return fmt.Errorf("failed to decode career seed data: %w", err)
	}
	for i := range careers {
		if err := s.careers.Create(ctx, &careers[i]); err != nil {
			return fmt.Errorf("failed to seed career %s: %w", careers[i].ID, err)
		}
	}

	s.logger.Info("careers seeded", zap.Int("count", len(careers)))
	return nil
}
