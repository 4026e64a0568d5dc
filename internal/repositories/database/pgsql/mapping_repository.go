package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zotta/ledger-core/internal/apperrors"
	"github.com/zotta/ledger-core/internal/core/domain"
	portsrepo "github.com/zotta/ledger-core/internal/core/ports/repositories"
	"github.com/zotta/ledger-core/internal/models"
)

type PgxMappingRepository struct {
	BaseRepository
}

// newPgxMappingRepository creates a new repository for GL mapping configuration.
func newPgxMappingRepository(pool *pgxpool.Pool) portsrepo.GLMappingRepositoryFacade {
	return &PgxMappingRepository{BaseRepository{pool: pool}}
}

var _ portsrepo.GLMappingRepositoryFacade = (*PgxMappingRepository)(nil)

func toDomainMapping(m models.GLMapping) domain.GLMapping {
	return domain.GLMapping{
		MappingID:       m.MappingID,
		EventType:       m.EventType,
		DebitAccountID:  m.DebitAccountID,
		CreditAccountID: m.CreditAccountID,
		IsActive:        m.IsActive,
		RequireMapping:  m.RequireMapping,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}

const mappingColumns = `mapping_id, event_type, debit_account_id, credit_account_id, is_active, require_mapping,
	created_at, created_by, last_updated_at, last_updated_by`

func scanMapping(row pgx.Row) (models.GLMapping, error) {
	var m models.GLMapping
	err := row.Scan(
		&m.MappingID, &m.EventType, &m.DebitAccountID, &m.CreditAccountID, &m.IsActive, &m.RequireMapping,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

// SaveMapping inserts a new mapping. A partial unique index allows at most
// one active mapping per event type.
func (r *PgxMappingRepository) SaveMapping(ctx context.Context, mapping domain.GLMapping) error {
	query := `
		INSERT INTO gl_mappings (` + mappingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.q(ctx).Exec(ctx, query,
		mapping.MappingID, mapping.EventType, mapping.DebitAccountID, mapping.CreditAccountID,
		mapping.IsActive, mapping.RequireMapping,
		mapping.CreatedAt, mapping.CreatedBy, mapping.LastUpdatedAt, mapping.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: active mapping for event type %s already exists",
				apperrors.ErrDuplicate, mapping.EventType)
		}
		return fmt.Errorf("failed to save mapping %s: %w", mapping.MappingID, err)
	}
	return nil
}

// FindActiveMappingByEventType fetches the single active mapping for an event type.
func (r *PgxMappingRepository) FindActiveMappingByEventType(ctx context.Context, eventType string) (*domain.GLMapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM gl_mappings WHERE event_type = $1 AND is_active = TRUE;`

	m, err := scanMapping(r.q(ctx).QueryRow(ctx, query, eventType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("active mapping for %s: %w", eventType, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query mapping for %s: %w", eventType, err)
	}

	mapping := toDomainMapping(m)
	return &mapping, nil
}

// ListMappings fetches all mappings, active or not.
func (r *PgxMappingRepository) ListMappings(ctx context.Context) ([]domain.GLMapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM gl_mappings ORDER BY event_type, created_at;`

	rows, err := r.q(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	defer rows.Close()

	var mappings []domain.GLMapping
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		mappings = append(mappings, toDomainMapping(m))
	}
	return mappings, rows.Err()
}

// DeactivateMapping flips is_active off, freeing the event type for a
// replacement mapping.
func (r *PgxMappingRepository) DeactivateMapping(ctx context.Context, mappingID string, userID string) error {
	query := `
		UPDATE gl_mappings
		SET is_active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE mapping_id = $1;
	`
	tag, err := r.q(ctx).Exec(ctx, query, mappingID, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate mapping %s: %w", mappingID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("mapping %s: %w", mappingID, apperrors.ErrNotFound)
	}
	return nil
}
