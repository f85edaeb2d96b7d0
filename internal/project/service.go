package project

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/buildwise/buildwise/backend-go/internal/domain"
	"github.com/buildwise/buildwise/backend-go/internal/typeid"
)

var (
	ErrNotFound  = errors.New("project not found")
	ErrForbidden = errors.New("forbidden")
)

// Service answers the project-side questions the canvas subsystem needs:
// who owns a project, and which project a canvas hangs off. The wider
// project lifecycle is managed elsewhere.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (*domain.Project, error) {
	proj := domain.Project{
		ID:      typeid.NewProjectID(),
		Name:    name,
		OwnerID: ownerID,
	}
	if err := s.db.WithContext(ctx).Create(&proj).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &proj, nil
}

func (s *Service) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	var proj domain.Project
	err := s.db.WithContext(ctx).First(&proj, "id = ?", projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &proj, nil
}

func (s *Service) List(ctx context.Context, ownerID string) ([]domain.Project, error) {
	var projects []domain.Project
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at").Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// CheckOwner returns ErrForbidden unless userID owns the project. This is
// the only authorization rule the canvas subsystem enforces.
func (s *Service) CheckOwner(ctx context.Context, projectID, userID string) error {
	proj, err := s.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if proj.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}
