package services

import (
	"context"
	"fmt"
	"time"

	"github.com/IANDYI/immunization-service/internal/core/domain"
	"github.com/IANDYI/immunization-service/internal/core/ports"
	"github.com/google/uuid"
)

// Clock returns the current time; services derive "today" from it
type Clock func() time.Time

// accessMode distinguishes read access from mutations
type accessMode int

const (
	readAccess accessMode = iota
	writeAccess
)

// loadChild enforces ownership before returning a child
// ADMIN can read any child but never mutate; PARENT reads and mutates only
// their own. Children the caller does not own are reported as not found.
func loadChild(ctx context.Context, repo ports.ChildRepository, childID uuid.UUID, userID uuid.UUID, isAdmin bool, mode accessMode) (*domain.Child, error) {
	exists, err := repo.ChildExists(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to check child existence: %w", err)
	}
	if !exists {
		return nil, domain.ErrChildNotFound
	}

	if isAdmin {
		if mode == writeAccess {
			return nil, fmt.Errorf("%w: ADMIN has read-only access", domain.ErrForbidden)
		}
	} else {
		owned, err := repo.CheckChildOwnership(ctx, childID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check ownership: %w", err)
		}
		if !owned {
			// Don't leak ownership info
			return nil, domain.ErrChildNotFound
		}
	}

	child, err := repo.GetChildByID(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}
