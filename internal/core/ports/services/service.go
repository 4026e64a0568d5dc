package services

// ServiceContainer bundles the service facades handed to the HTTP layer.
type ServiceContainer struct {
	Account   AccountSvcFacade
	Journal   JournalSvcFacade
	Posting   PostingSvcFacade
	Loan      LoanSvcFacade
	Reporting ReportingSvcFacade
	Period    PeriodSvcFacade
	Anomaly   AnomalySvcFacade
	Mapping   MappingSvcFacade
}
