package repositories

import (
	"context"
	"time"

	"github.com/zotta/ledger-core/internal/core/domain"
)

// PeriodRepositoryFacade defines persistence operations for accounting periods.
type PeriodRepositoryFacade interface {
	SavePeriod(ctx context.Context, period domain.Period) error
	FindPeriodByID(ctx context.Context, periodID string) (*domain.Period, error)
	// FindPeriodByDate returns the period containing the given date, or
	// ErrNotFound when none is configured for it.
	FindPeriodByDate(ctx context.Context, date time.Time) (*domain.Period, error)
	// FindOverlappingPeriod returns any period intersecting [start, end].
	FindOverlappingPeriod(ctx context.Context, start, end time.Time) (*domain.Period, error)
	UpdatePeriodStatus(ctx context.Context, periodID string, status domain.PeriodStatus, userID string, updatedAt time.Time) error
	ListPeriods(ctx context.Context) ([]domain.Period, error)
}

// GLMappingRepositoryFacade defines persistence operations for event-to-account
// mapping configuration. Mappings are read at posting time, not cached.
type GLMappingRepositoryFacade interface {
	SaveMapping(ctx context.Context, mapping domain.GLMapping) error
	FindActiveMappingByEventType(ctx context.Context, eventType string) (*domain.GLMapping, error)
	ListMappings(ctx context.Context) ([]domain.GLMapping, error)
	DeactivateMapping(ctx context.Context, mappingID string, userID string) error
}
