package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/zotta/ledger-core/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgsql repository over a shared pool.
func NewRepositoryProvider(pool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	return &portsrepo.RepositoryProvider{
		Account:   newPgxAccountRepository(pool),
		Journal:   newPgxJournalRepository(pool),
		Loan:      newPgxLoanRepository(pool),
		Schedule:  newPgxScheduleRepository(pool),
		Period:    newPgxPeriodRepository(pool),
		Mapping:   newPgxMappingRepository(pool),
		Anomaly:   newPgxAnomalyRepository(pool),
		Reporting: newPgxReportingRepository(pool),
		Tx:        NewTxManager(pool),
	}
}
