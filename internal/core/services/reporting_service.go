package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zotta/ledger-core/internal/apperrors"
	"github.com/zotta/ledger-core/internal/core/domain"
	portsrepo "github.com/zotta/ledger-core/internal/core/ports/repositories"
	portssvc "github.com/zotta/ledger-core/internal/core/ports/services"
	"github.com/zotta/ledger-core/internal/utils/accounting"
)

// reportingService is the ledger query layer. Every view recomputes from
// posted lines; there is no separately-mutated balance cache to drift out of
// sync with the journal.
type reportingService struct {
	reportingRepo portsrepo.ReportingRepositoryFacade
	accountRepo   portsrepo.AccountRepositoryFacade
}

// NewReportingService creates a new ReportingService.
func NewReportingService(reportingRepo portsrepo.ReportingRepositoryFacade, accountRepo portsrepo.AccountRepositoryFacade) portssvc.ReportingSvcFacade {
	return &reportingService{reportingRepo: reportingRepo, accountRepo: accountRepo}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

// AccountLedger returns all posted lines touching the account in posting
// order, with a running balance oriented to the account's normal side.
func (s *reportingService) AccountLedger(ctx context.Context, accountID string) ([]domain.LedgerLine, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}

	lines, err := s.reportingRepo.GetAccountLedgerData(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for account %s: %w", accountID, err)
	}

	normal := account.NormalBalance()
	balance := decimal.Zero
	for i, l := range lines {
		net := l.DebitAmount.Sub(l.CreditAmount)
		if normal == domain.Credit {
			net = net.Neg()
		}
		balance = balance.Add(net)
		lines[i].RunningBalance = balance
	}
	return lines, nil
}

// TrialBalance sums all posted lines per account up to asOf. IsBalanced must
// hold at all times; a false value indicates ledger corruption, not user error.
func (s *reportingService) TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalanceReport, error) {
	rows, err := s.reportingRepo.GetTrialBalanceData(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to compute trial balance: %w", err)
	}

	debits, credits := decimalTotals(rows)
	return &domain.TrialBalanceReport{
		AsOf:         asOf,
		TotalDebits:  debits,
		TotalCredits: credits,
		IsBalanced:   accounting.WithinEpsilon(debits, credits),
		Rows:         rows,
	}, nil
}

// BalanceSheet presents assets against liabilities and equity as of a date.
// Because revenue and expense accounts are never formally closed out, the
// period's net income is folded into equity as a synthetic current-earnings
// line; without it the statement would only balance at inception.
func (s *reportingService) BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheetReport, error) {
	assets, liabilities, equity, err := s.reportingRepo.GetBalanceSheetData(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance sheet: %w", err)
	}

	revenue, expenses, err := s.reportingRepo.GetIncomeStatementData(ctx, time.Time{}, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to compute earnings for balance sheet: %w", err)
	}
	netIncome := sumNet(revenue).Sub(sumNet(expenses))
	if !netIncome.IsZero() {
		equity = append(equity, domain.AccountAmount{
			Name:      "Current period earnings",
			NetAmount: netIncome,
		})
	}

	assetsTotal := sumNet(assets)
	liabilitiesEquityTotal := sumNet(liabilities).Add(sumNet(equity))

	return &domain.BalanceSheetReport{
		Assets:                 assets,
		Liabilities:            liabilities,
		Equity:                 equity,
		AssetsTotal:            assetsTotal,
		LiabilitiesEquityTotal: liabilitiesEquityTotal,
		IsBalanced:             accounting.WithinEpsilon(assetsTotal, liabilitiesEquityTotal),
	}, nil
}

// IncomeStatement nets revenue against expenses for a date range.
func (s *reportingService) IncomeStatement(ctx context.Context, from, to time.Time) (*domain.IncomeStatementReport, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s precedes start %s",
			apperrors.ErrValidation, to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	revenue, expenses, err := s.reportingRepo.GetIncomeStatementData(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to compute income statement: %w", err)
	}

	revenueTotal := sumNet(revenue)
	expenseTotal := sumNet(expenses)
	return &domain.IncomeStatementReport{
		Revenue:      revenue,
		Expenses:     expenses,
		RevenueTotal: revenueTotal,
		ExpenseTotal: expenseTotal,
		NetIncome:    revenueTotal.Sub(expenseTotal),
	}, nil
}

// Search performs a cross-field lookup over entry number, source reference
// and description.
func (s *reportingService) Search(ctx context.Context, query string, limit int) ([]domain.JournalEntry, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", apperrors.ErrValidation)
	}
	if limit <= 0 {
		limit = 50
	}
	return s.reportingRepo.SearchEntries(ctx, query, limit)
}

// decimalTotals sums the debit and credit columns of trial balance rows.
func decimalTotals(rows []domain.TrialBalanceRow) (debits, credits decimal.Decimal) {
	debits = decimal.Zero
	credits = decimal.Zero
	for _, r := range rows {
		debits = debits.Add(r.Debit)
		credits = credits.Add(r.Credit)
	}
	return debits, credits
}

// sumNet sums the net amounts of a statement section.
func sumNet(amounts []domain.AccountAmount) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.NetAmount)
	}
	return total
}
