package repositories

import (
	"context"
	"time"

	"github.com/zotta/ledger-core/internal/core/domain"
)

// JournalRepositoryFacade defines persistence operations for journal entries
// and their lines. Entries are append-only after posting: the only mutations
// exposed are status transitions and reversal links, both guarded by an
// optimistic version check.
type JournalRepositoryFacade interface {
	// NextEntryNumber reserves the next human-readable entry number from the
	// ledger-wide sequence, e.g. "JE-000042".
	NextEntryNumber(ctx context.Context) (string, error)

	// SaveEntry persists an entry together with all of its lines atomically.
	SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error

	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error)

	// FindEntryBySource looks up an entry by its (source_type, source_reference)
	// pair; the auto-posting adapter uses this for idempotency.
	FindEntryBySource(ctx context.Context, sourceType string, sourceReference string) (*domain.JournalEntry, error)

	// UpdateEntryStatus advances the entry's status if and only if the stored
	// version still equals fromVersion. A lost race returns ErrConflict.
	UpdateEntryStatus(ctx context.Context, entryID string, fromVersion int64, status domain.EntryStatus, userID string, updatedAt time.Time) error

	// UpdateEntryStatusAndLinks marks the original entry REVERSED and records
	// the back/forward reversal links, with the same version guard.
	UpdateEntryStatusAndLinks(ctx context.Context, entryID string, fromVersion int64, status domain.EntryStatus, reversingEntryID *string, userID string, updatedAt time.Time) error

	// CountEntriesByStatusInRange counts entries whose effective date falls in
	// [start, end] and whose status is one of the given set. Used by period
	// close-readiness checks.
	CountEntriesByStatusInRange(ctx context.Context, start, end time.Time, statuses []domain.EntryStatus) (int, error)

	ListEntries(ctx context.Context, limit int, offset int) ([]domain.JournalEntry, error)
}
