package services

import (
	portsrepo "github.com/zotta/ledger-core/internal/core/ports/repositories"
	portssvc "github.com/zotta/ledger-core/internal/core/ports/services"
	"github.com/zotta/ledger-core/internal/platform/config"
)

// NewServiceContainer wires every service over the repository provider.
func NewServiceContainer(repos *portsrepo.RepositoryProvider, cfg *config.Config) *portssvc.ServiceContainer {
	posting := NewPostingService(repos.Journal, repos.Mapping, repos.Account, repos.Period, repos.Tx)

	return &portssvc.ServiceContainer{
		Account:   NewAccountService(repos.Account),
		Journal:   NewJournalService(repos.Journal, repos.Account, repos.Period, repos.Tx),
		Posting:   posting,
		Loan:      NewLoanService(repos.Loan, repos.Schedule, posting, repos.Tx, cfg),
		Reporting: NewReportingService(repos.Reporting, repos.Account),
		Period:    NewPeriodService(repos.Period, repos.Journal, repos.Anomaly, repos.Reporting),
		Anomaly:   NewAnomalyService(repos.Anomaly, repos.Journal, cfg),
		Mapping:   NewMappingService(repos.Mapping, repos.Account),
	}
}
