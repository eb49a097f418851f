package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/ports"
	"github.com/google/uuid"
)

// HealthEventService implements business logic for the health timeline
type HealthEventService struct {
	childRepo       ports.ChildRepository
	eventRepo       ports.HealthEventRepository
	vaccinationRepo ports.VaccinationRepository
	now             Clock
}

// NewHealthEventService creates a new health event service
func NewHealthEventService(
	childRepo ports.ChildRepository,
	eventRepo ports.HealthEventRepository,
	vaccinationRepo ports.VaccinationRepository,
) *HealthEventService {
	return &HealthEventService{
		childRepo:       childRepo,
		eventRepo:       eventRepo,
		vaccinationRepo: vaccinationRepo,
		now:             time.Now,
	}
}

// WithClock replaces the clock used for timestamps
func (s *HealthEventService) WithClock(now Clock) *HealthEventService {
	s.now = now
	return s
}

// AddEvent records a health event for a child
// Only the owning PARENT can add events
func (s *HealthEventService) AddEvent(ctx context.Context, childID uuid.UUID, req ports.CreateHealthEventRequest, userID uuid.UUID, isAdmin bool) (*domain.HealthEvent, error) {
	// Input validation
	if !domain.IsValidHealthEventType(req.EventType) {
		return nil, fmt.Errorf("%w: invalid event type: %s", domain.ErrInvalidInput, req.EventType)
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrInvalidInput)
	}
	eventDate, err := domain.ParseDate(req.EventDate)
	if err != nil {
		return nil, err
	}

	if _, err := loadChild(ctx, s.childRepo, childID, userID, isAdmin, writeAccess); err != nil {
		return nil, err
	}

	event := &domain.HealthEvent{
		ID:             uuid.New(),
		ChildID:        childID,
		EventType:      req.EventType,
		EventDate:      eventDate,
		Title:          title,
		Description:    req.Description,
		Severity:       req.Severity,
		Symptoms:       req.Symptoms,
		Treatment:      req.Treatment,
		DoctorName:     req.DoctorName,
		HospitalClinic: req.HospitalClinic,
		CreatedAt:      s.now(),
	}

	if err := s.eventRepo.CreateHealthEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create health event: %w", err)
	}
	return event, nil
}

// ListEvents returns the events of a child, newest first
func (s *HealthEventService) ListEvents(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool, eventType *string) ([]*domain.HealthEvent, error) {
	if eventType != nil && !domain.IsValidHealthEventType(*eventType) {
		return nil, fmt.Errorf("%w: invalid event type: %s", domain.ErrInvalidInput, *eventType)
	}

	if _, err := loadChild(ctx, s.childRepo, childID, userID, isAdmin, readAccess); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListHealthEvents(ctx, childID, eventType)
	if err != nil {
		return nil, fmt.Errorf("failed to list health events: %w", err)
	}
	return events, nil
}

// DeleteEvent deletes a health event
// Only the owning PARENT can delete events
func (s *HealthEventService) DeleteEvent(ctx context.Context, eventID uuid.UUID, userID uuid.UUID, isAdmin bool) error {
	event, err := s.eventRepo.GetHealthEventByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("failed to get health event: %w", err)
	}

	if _, err := loadChild(ctx, s.childRepo, event.ChildID, userID, isAdmin, writeAccess); err != nil {
		if errors.Is(err, domain.ErrChildNotFound) {
			return domain.ErrHealthEventNotFound
		}
		return err
	}

	if err := s.eventRepo.DeleteHealthEvent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to delete health event: %w", err)
	}
	return nil
}

// Timeline merges administered doses and health events, newest first
// Completed doses without an administered date are left out
func (s *HealthEventService) Timeline(ctx context.Context, childID uuid.UUID, userID uuid.UUID, isAdmin bool, category *string) ([]domain.TimelineItem, error) {
	if _, err := loadChild(ctx, s.childRepo, childID, userID, isAdmin, readAccess); err != nil {
		return nil, err
	}

	vaccinations, err := s.vaccinationRepo.ListVaccinations(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaccinations: %w", err)
	}
	events, err := s.eventRepo.ListHealthEvents(ctx, childID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list health events: %w", err)
	}

	items := make([]domain.TimelineItem, 0, len(vaccinations)+len(events))
	for _, v := range vaccinations {
		if !v.IsCompleted() || v.AdministeredDate == nil {
			continue
		}
		items = append(items, domain.TimelineItem{
			Date:        *v.AdministeredDate,
			Category:    domain.TimelineCategoryVaccines,
			Title:       "Vaccine: " + v.VaccineName,
			Description: v.Notes,
			SourceID:    v.ID,
		})
	}
	for _, e := range events {
		items = append(items, domain.TimelineItem{
			Date:        e.EventDate,
			Category:    domain.TimelineCategory(e.EventType),
			Title:       e.Title,
			Description: e.Description,
			SourceID:    e.ID,
		})
	}

	if category != nil && *category != "" {
		items = slices.DeleteFunc(items, func(it domain.TimelineItem) bool {
			return it.Category != *category
		})
	}

	slices.SortStableFunc(items, func(a, b domain.TimelineItem) int {
		switch {
		case a.Date.After(b.Date):
			return -1
		case a.Date.Before(b.Date):
			return 1
		default:
			return 0
		}
	})
	return items, nil
}
