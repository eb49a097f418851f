package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/ports"
	"github.com/IANDYI/immunization-service/internal/core/schedule"
	"github.com/google/uuid"
)

// VaccinationService implements business logic for scheduled doses
type VaccinationService struct {
	childRepo       ports.ChildRepository
	vaccinationRepo ports.VaccinationRepository
	now             Clock
}

// NewVaccinationService creates a new vaccination service
func NewVaccinationService(childRepo ports.ChildRepository, vaccinationRepo ports.VaccinationRepository) *VaccinationService {
	return &VaccinationService{
		childRepo:       childRepo,
		vaccinationRepo: vaccinationRepo,
		now:             time.Now,
	}
}

// WithClock replaces the clock used to determine today
func (s *VaccinationService) WithClock(now Clock) *VaccinationService {
	s.now = now
	return s
}

// ListVaccinations retrieves the rows of a child ordered by due date
func (s *VaccinationService) ListVaccinations(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) ([]*domain.ScheduledVaccination, error) {
	if _, err := loadChild(ctx, s.childRepo, childID, userID, isAdmin, readAccess); err != nil {
		return nil, err
	}

	vaccinations, err := s.vaccinationRepo.ListVaccinations(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaccinations: %w", err)
	}
	return vaccinations, nil
}

// Overview categorizes the schedule of a child as of ref
func (s *VaccinationService) Overview(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool, ref civil.Date) (*ports.VaccinationOverview, error) {
	child, err := loadChild(ctx, s.childRepo, childID, userID, isAdmin, readAccess)
	if err != nil {
		return nil, err
	}

	vaccinations, err := s.vaccinationRepo.ListVaccinations(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaccinations: %w", err)
	}

	categories := schedule.Categorize(vaccinations, ref)
	return &ports.VaccinationOverview{
		Child:         child,
		Age:           domain.AgeString(child.DateOfBirth, ref),
		Guideline:     child.Guideline,
		ReferenceDate: ref,
		Completed:     len(categories.Completed),
		Total:         len(vaccinations),
		Categories:    categories,
	}, nil
}

// MarkCompleted marks a dose as administered
// Administered date defaults to today
func (s *VaccinationService) MarkCompleted(ctx context.Context, vaccinationID uuid.UUID, details domain.CompletionDetails, userID uuid.UUID, isAdmin bool) (*domain.ScheduledVaccination, error) {
	v, err := s.loadForUpdate(ctx, vaccinationID, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	administered := domain.Today(s.now())
	if details.AdministeredDate != nil {
		administered = *details.AdministeredDate
	}

	v.Status = domain.VaccinationStatusCompleted
	v.AdministeredDate = &administered
	v.Notes = details.Notes
	v.AdministeredBy = details.AdministeredBy
	v.BatchNumber = details.BatchNumber
	v.UpdatedAt = s.now()

	if err := s.vaccinationRepo.UpdateVaccinationStatus(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to update vaccination: %w", err)
	}
	return v, nil
}

// MarkPending reverts a dose to pending and clears its completion details;
// its bucket is then derived from the due date alone
func (s *VaccinationService) MarkPending(ctx context.Context, vaccinationID uuid.UUID, userID uuid.UUID, isAdmin bool) (*domain.ScheduledVaccination, error) {
	v, err := s.loadForUpdate(ctx, vaccinationID, userID, isAdmin)
	if err != nil {
		return nil, err
	}

	v.Status = domain.VaccinationStatusPending
	v.AdministeredDate = nil
	v.Notes = ""
	v.AdministeredBy = ""
	v.BatchNumber = ""
	v.UpdatedAt = s.now()

	if err := s.vaccinationRepo.UpdateVaccinationStatus(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to update vaccination: %w", err)
	}
	return v, nil
}

// loadForUpdate fetches a row and checks write access on its child
func (s *VaccinationService) loadForUpdate(ctx context.Context, vaccinationID uuid.UUID, userID uuid.UUID, isAdmin bool) (*domain.ScheduledVaccination, error) {
	v, err := s.vaccinationRepo.GetVaccinationByID(ctx, vaccinationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vaccination: %w", err)
	}

	if _, err := loadChild(ctx, s.childRepo, v.ChildID, userID, isAdmin, writeAccess); err != nil {
		if errors.Is(err, domain.ErrChildNotFound) {
			return nil, domain.ErrVaccinationNotFound
		}
		return nil, err
	}
	return v, nil
}
