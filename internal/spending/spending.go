// Package spending computes the current calendar month's total spending.
// There is no cross-screen cache: every caller fetches afresh, mirroring
// the per-screen fetch model of the client.
package spending

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendify/spendify-bot/internal/api"
	"github.com/spendify/spendify-bot/internal/history"
	"github.com/spendify/spendify-bot/internal/models"
)

// MonthBounds returns the first and last day of now's month, using UTC
// month boundaries.
func MonthBounds(now time.Time) (models.Date, models.Date) {
	utc := now.UTC()
	start := models.NewDate(utc.Year(), utc.Month(), 1)
	// Day 0 of the next month is the last day of this one.
	end := models.DateOf(time.Date(utc.Year(), utc.Month()+1, 0, 0, 0, 0, 0, time.UTC))
	return start, end
}

// Sum totals the signed amounts of all transactions.
func Sum(txs []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}

// CurrentMonth fetches this month's transactions and returns their total.
func CurrentMonth(ctx context.Context, client history.Lister, token string, now time.Time) (decimal.Decimal, error) {
	start, end := MonthBounds(now)
	txs, err := client.Transactions(ctx, token, api.TransactionQuery{
		StartDate: start,
		EndDate:   end,
		Size:      history.PageSize,
	})
	if err != nil {
		return decimal.Zero, err
	}
	return Sum(txs), nil
}
