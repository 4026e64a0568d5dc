package repositories

import "context"

// TxManager runs a function within a single database transaction. The
// transaction travels in the context; repositories pick it up transparently,
// so every write inside fn commits or rolls back as one atomic unit.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RepositoryProvider bundles every repository the service layer needs.
type RepositoryProvider struct {
	Account   AccountRepositoryFacade
	Journal   JournalRepositoryFacade
	Loan      LoanRepositoryFacade
	Schedule  ScheduleRepositoryFacade
	Period    PeriodRepositoryFacade
	Mapping   GLMappingRepositoryFacade
	Anomaly   AnomalyRepositoryFacade
	Reporting ReportingRepositoryFacade
	Tx        TxManager
}
