package services

import (
	"context"
	"time"

	"github.com/zotta/ledger-core/internal/core/domain"
	"github.com/zotta/ledger-core/internal/dto"
)

// AccountSvcFacade manages the chart of accounts.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
	DeactivateAccount(ctx context.Context, accountID string, userID string) error
}

// JournalSvcFacade is the journal entry engine: entry lifecycle state
// machine, line-balance enforcement, posting and reversal. It has no side
// effects beyond the entry and its lines; notification and anomaly scanning
// belong to callers.
type JournalSvcFacade interface {
	CreateEntry(ctx context.Context, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error)
	SubmitEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error)
	ApproveEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error)
	// PostEntry is idempotent: posting an already-posted entry returns the
	// current state without double-applying.
	PostEntry(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error)
	// ReverseEntry creates and posts a new mirror entry referencing the
	// original; the original's lines are never mutated.
	ReverseEntry(ctx context.Context, entryID string, reason string, effectiveDate time.Time, userID string) (*domain.JournalEntry, error)
	GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)
	ListEntries(ctx context.Context, limit int, offset int) ([]domain.JournalEntry, error)
}

// PostingSvcFacade is the GL auto-posting adapter: it translates loan
// lifecycle events into balanced, immediately-posted journal entries using
// the configured event mappings.
type PostingSvcFacade interface {
	PostEvent(ctx context.Context, req dto.PostEventRequest, userID string) (*domain.JournalEntry, error)
}

// MappingSvcFacade manages event-to-account mapping configuration.
type MappingSvcFacade interface {
	CreateMapping(ctx context.Context, req dto.CreateMappingRequest, creatorUserID string) (*domain.GLMapping, error)
	ListMappings(ctx context.Context) ([]domain.GLMapping, error)
	DeactivateMapping(ctx context.Context, mappingID string, userID string) error
}
