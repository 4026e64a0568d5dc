package accounting

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zotta/ledger-core/internal/core/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRoundModes(t *testing.T) {
	SetRoundingMode(RoundHalfUp)
	assert.True(t, Round(dec("1.005")).Equal(dec("1.01")))
	assert.True(t, Round(dec("1.004")).Equal(dec("1.00")))

	SetRoundingMode(RoundBankers)
	assert.True(t, Round(dec("1.005")).Equal(dec("1.00")), "bankers rounds half to even")
	assert.True(t, Round(dec("1.015")).Equal(dec("1.02")))

	SetRoundingMode(RoundHalfUp)
}

func TestWithinEpsilon(t *testing.T) {
	assert.True(t, WithinEpsilon(dec("100.00"), dec("100.005")))
	assert.False(t, WithinEpsilon(dec("750.00"), dec("749.99")), "a full cent difference is out of tolerance")
	assert.True(t, WithinEpsilon(dec("0"), dec("0")))
}

func TestValidateEntryBalance(t *testing.T) {
	tests := []struct {
		name    string
		lines   []domain.JournalLine
		wantErr bool
	}{
		{
			name: "balanced two lines",
			lines: []domain.JournalLine{
				{AccountID: "a", DebitAmount: dec("750"), CreditAmount: decimal.Zero},
				{AccountID: "b", DebitAmount: decimal.Zero, CreditAmount: dec("750")},
			},
		},
		{
			name: "unbalanced by one cent",
			lines: []domain.JournalLine{
				{AccountID: "a", DebitAmount: dec("750"), CreditAmount: decimal.Zero},
				{AccountID: "b", DebitAmount: decimal.Zero, CreditAmount: dec("749.99")},
			},
			wantErr: true,
		},
		{
			name: "single line",
			lines: []domain.JournalLine{
				{AccountID: "a", DebitAmount: dec("10"), CreditAmount: decimal.Zero},
			},
			wantErr: true,
		},
		{
			name: "negative amount",
			lines: []domain.JournalLine{
				{AccountID: "a", DebitAmount: dec("-10"), CreditAmount: decimal.Zero},
				{AccountID: "b", DebitAmount: decimal.Zero, CreditAmount: dec("-10")},
			},
			wantErr: true,
		},
		{
			name: "empty line",
			lines: []domain.JournalLine{
				{AccountID: "a", DebitAmount: dec("10"), CreditAmount: decimal.Zero},
				{AccountID: "b"},
			},
			wantErr: true,
		},
		{
			name: "mixed lines still balance in aggregate",
			lines: []domain.JournalLine{
				{AccountID: "a", DebitAmount: dec("100"), CreditAmount: dec("20")},
				{AccountID: "b", DebitAmount: decimal.Zero, CreditAmount: dec("80")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntryBalance(tt.lines)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSignedAmount(t *testing.T) {
	debitLine := domain.JournalLine{DebitAmount: dec("100"), CreditAmount: decimal.Zero}
	creditLine := domain.JournalLine{DebitAmount: decimal.Zero, CreditAmount: dec("100")}

	assert.True(t, SignedAmount(debitLine, domain.Debit).Equal(dec("100")))
	assert.True(t, SignedAmount(creditLine, domain.Debit).Equal(dec("-100")))
	assert.True(t, SignedAmount(debitLine, domain.Credit).Equal(dec("-100")))
	assert.True(t, SignedAmount(creditLine, domain.Credit).Equal(dec("100")))
}
