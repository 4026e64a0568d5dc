package accounting

import (
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/zotta/ledger-core/internal/core/domain"
)

// RoundingMode selects the currency rounding policy. It is fixed once at
// process initialization; mixing modes within one ledger would drift.
type RoundingMode string

const (
	RoundHalfUp  RoundingMode = "half_up"
	RoundBankers RoundingMode = "bankers"

	// CurrencyPlaces is the fixed scale for all monetary amounts.
	CurrencyPlaces int32 = 2
)

var roundBankers atomic.Bool

// Epsilon is the balance tolerance: debit/credit totals differing by this
// much or more are rejected as unbalanced.
var Epsilon = decimal.NewFromFloat(0.01)

// SetRoundingMode fixes the process-wide rounding policy. Unknown values
// fall back to half-up.
func SetRoundingMode(mode RoundingMode) {
	roundBankers.Store(mode == RoundBankers)
}

// Round rounds a monetary amount to the configured policy at 2 decimals.
func Round(d decimal.Decimal) decimal.Decimal {
	if roundBankers.Load() {
		return d.RoundBank(CurrencyPlaces)
	}
	return d.Round(CurrencyPlaces)
}

// WithinEpsilon reports whether two amounts are equal within the balance tolerance.
func WithinEpsilon(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(Epsilon)
}

// SumLines returns the debit and credit totals across a set of journal lines.
func SumLines(lines []domain.JournalLine) (debits, credits decimal.Decimal) {
	debits = decimal.Zero
	credits = decimal.Zero
	for _, line := range lines {
		debits = debits.Add(line.DebitAmount)
		credits = credits.Add(line.CreditAmount)
	}
	return debits, credits
}

// ValidateEntryBalance checks the double-entry invariant for a set of lines.
// Used by both the service layer and repositories so the check is consistent.
func ValidateEntryBalance(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("journal entry must have at least two lines")
	}

	for _, line := range lines {
		if line.DebitAmount.IsNegative() || line.CreditAmount.IsNegative() {
			return fmt.Errorf("line amounts must not be negative for account %s", line.AccountID)
		}
		if line.DebitAmount.IsZero() && line.CreditAmount.IsZero() {
			return fmt.Errorf("line must carry a debit or credit amount for account %s", line.AccountID)
		}
	}

	debits, credits := SumLines(lines)
	if !WithinEpsilon(debits, credits) {
		return fmt.Errorf("entry does not balance: debits sum is %s and credits sum is %s",
			debits.String(), credits.String())
	}
	return nil
}

// SignedAmount converts a line into the signed movement it causes on the
// account's balance: increases on the account's normal side are positive.
func SignedAmount(line domain.JournalLine, normalBalance domain.BalanceSide) decimal.Decimal {
	net := line.DebitAmount.Sub(line.CreditAmount)
	if normalBalance == domain.Credit {
		return net.Neg()
	}
	return net
}
