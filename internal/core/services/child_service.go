package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/ports"
	"github.com/IANDYI/immunization-service/internal/core/schedule"
	"github.com/google/uuid"
)

// ChildService implements business logic for child profiles
// Enforces RBAC and ownership rules and owns schedule creation
type ChildService struct {
	childRepo       ports.ChildRepository
	vaccinationRepo ports.VaccinationRepository
	generator       *schedule.Generator
	now             Clock
}

// NewChildService creates a new child service
func NewChildService(
	childRepo ports.ChildRepository,
	vaccinationRepo ports.VaccinationRepository,
	generator *schedule.Generator,
) *ChildService {
	return &ChildService{
		childRepo:       childRepo,
		vaccinationRepo: vaccinationRepo,
		generator:       generator,
		now:             time.Now,
	}
}

// WithClock replaces the clock used to determine today
func (s *ChildService) WithClock(now Clock) *ChildService {
	s.now = now
	return s
}

// CreateChild creates a child profile and its vaccination schedule
// Only PARENT can create children; doses matching the received list are
// stored as completed with today's date
func (s *ChildService) CreateChild(ctx context.Context, req ports.CreateChildRequest, userID uuid.UUID, isAdmin bool) (*domain.Child, int, error) {
	// RBAC enforcement: ADMIN is read-only
	if isAdmin {
		return nil, 0, fmt.Errorf("%w: only PARENT can create children", domain.ErrForbidden)
	}

	today := domain.Today(s.now())

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, 0, fmt.Errorf("%w: child name cannot be empty", domain.ErrInvalidInput)
	}
	dob, err := s.validateDateOfBirth(req.DateOfBirth, today)
	if err != nil {
		return nil, 0, err
	}
	guideline, err := s.validateGuideline(req.Guideline)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	child := &domain.Child{
		ID:           uuid.New(),
		ParentUserID: userID,
		Name:         name,
		DateOfBirth:  dob,
		Guideline:    guideline,
		Gender:       strings.TrimSpace(req.Gender),
		BloodGroup:   strings.TrimSpace(req.BloodGroup),
		Allergies:    strings.TrimSpace(req.Allergies),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.childRepo.CreateChild(ctx, child); err != nil {
		return nil, 0, fmt.Errorf("failed to create child: %w", err)
	}

	rows, marked := s.buildSchedule(child, schedule.ParseReceivedList(req.ReceivedVaccines), today)
	if err := s.vaccinationRepo.CreateVaccinations(ctx, rows); err != nil {
		// Roll back the profile
		if delErr := s.childRepo.DeleteChild(ctx, child.ID); delErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to roll back child %s: %w", child.ID, delErr))
		}
		return nil, 0, fmt.Errorf("failed to create schedule: %w", err)
	}

	return child, marked, nil
}

// GetChild retrieves a child by ID
// Enforces ownership: ADMIN can access any, PARENT only their own
func (s *ChildService) GetChild(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) (*domain.Child, error) {
	return loadChild(ctx, s.childRepo, childID, userID, isAdmin, readAccess)
}

// ListChildren retrieves children based on role
// ADMIN: all children, PARENT: only owned children
func (s *ChildService) ListChildren(ctx context.Context, userID uuid.UUID, isAdmin bool) ([]*domain.Child, error) {
	parentUserID := userID
	if isAdmin {
		parentUserID = uuid.Nil
	}

	children, err := s.childRepo.ListChildren(ctx, parentUserID, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	return children, nil
}

// UpdateChild updates profile fields. Existing schedule rows keep their due
// dates; RegenerateSchedule must be called explicitly after a DOB or
// guideline change.
func (s *ChildService) UpdateChild(ctx context.Context, childID uuid.UUID, req ports.UpdateChildRequest, userID uuid.UUID, isAdmin bool) (*domain.Child, error) {
	child, err := loadChild(ctx, s.childRepo, childID, userID, isAdmin, writeAccess)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: child name cannot be empty", domain.ErrInvalidInput)
		}
		child.Name = name
	}
	if req.DateOfBirth != nil {
		dob, err := s.validateDateOfBirth(*req.DateOfBirth, domain.Today(s.now()))
		if err != nil {
			return nil, err
		}
		child.DateOfBirth = dob
	}
	if req.Guideline != nil {
		guideline, err := s.validateGuideline(*req.Guideline)
		if err != nil {
			return nil, err
		}
		child.Guideline = guideline
	}
	if req.Gender != nil {
		child.Gender = strings.TrimSpace(*req.Gender)
	}
	if req.BloodGroup != nil {
		child.BloodGroup = strings.TrimSpace(*req.BloodGroup)
	}
	if req.Allergies != nil {
		child.Allergies = strings.TrimSpace(*req.Allergies)
	}
	child.UpdatedAt = s.now()

	if err := s.childRepo.UpdateChild(ctx, child); err != nil {
		return nil, fmt.Errorf("failed to update child: %w", err)
	}
	return child, nil
}

// DeleteChild deletes a child; schedule, events and reminder data cascade
func (s *ChildService) DeleteChild(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) error {
	if _, err := loadChild(ctx, s.childRepo, childID, userID, isAdmin, writeAccess); err != nil {
		return err
	}
	if err := s.childRepo.DeleteChild(ctx, childID); err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}

// RegenerateSchedule replaces every row of the child with a fresh pending
// schedule. Completion history is lost.
func (s *ChildService) RegenerateSchedule(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool) ([]*domain.ScheduledVaccination, error) {
	child, err := loadChild(ctx, s.childRepo, childID, userID, isAdmin, writeAccess)
	if err != nil {
		return nil, err
	}

	rows, _ := s.buildSchedule(child, nil, domain.Today(s.now()))
	if err := s.vaccinationRepo.ReplaceSchedule(ctx, child.ID, rows); err != nil {
		return nil, fmt.Errorf("failed to regenerate schedule: %w", err)
	}
	return rows, nil
}

// buildSchedule turns the generated entries into rows; entries matching the
// received list are completed as of today
func (s *ChildService) buildSchedule(child *domain.Child, received []string, today civil.Date) ([]*domain.ScheduledVaccination, int) {
	entries := s.generator.Generate(child.DateOfBirth, child.Guideline)
	now := s.now()

	rows := make([]*domain.ScheduledVaccination, 0, len(entries))
	marked := 0
	for _, e := range entries {
		row := &domain.ScheduledVaccination{
			ID:          uuid.New(),
			ChildID:     child.ID,
			VaccineName: e.VaccineName,
			VaccineCode: e.VaccineCode,
			DueDate:     e.DueDate,
			Status:      domain.VaccinationStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if len(received) > 0 && schedule.MatchesReceived(e, received) {
			administered := today
			row.Status = domain.VaccinationStatusCompleted
			row.AdministeredDate = &administered
			row.Notes = domain.ReceivedDuringProfileCreationNote
			marked++
		}
		rows = append(rows, row)
	}
	return rows, marked
}

func (s *ChildService) validateDateOfBirth(raw string, today civil.Date) (civil.Date, error) {
	dob, err := domain.ParseDate(raw)
	if err != nil {
		return civil.Date{}, err
	}
	if dob.After(today) {
		return civil.Date{}, fmt.Errorf("%w: date_of_birth %s is in the future", domain.ErrInvalidDate, dob)
	}
	return dob, nil
}

// validateGuideline defaults an empty key and rejects keys the catalog does
// not carry; the generator itself would silently fall back
func (s *ChildService) validateGuideline(raw string) (string, error) {
	guideline := strings.TrimSpace(raw)
	if guideline == "" {
		return domain.DefaultGuideline, nil
	}
	if !s.generator.Catalog().IsKnown(guideline) {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownGuideline, guideline)
	}
	return guideline, nil
}
