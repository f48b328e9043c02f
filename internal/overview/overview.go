// Package overview derives the spending-overview aggregates from a
// 12-month transaction fetch.
package overview

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendify/spendify-bot/internal/models"
)

// SeriesMonths is the fixed width of the monthly trend.
const SeriesMonths = 12

// MonthBucket is one month's total in the trend series.
type MonthBucket struct {
	Label string
	Year  int
	Month time.Month
	Total decimal.Decimal
}

// CategorySummary is one category's share of the fetched period.
type CategorySummary struct {
	CategoryID   int
	CategoryName string
	Total        decimal.Decimal
	Percentage   float64
}

// MonthlySeries buckets transactions into the 12 calendar months ending at
// today's month, oldest first. Months with no transactions are zero-filled;
// transactions outside the window are ignored.
func MonthlySeries(txs []models.Transaction, today models.Date) []MonthBucket {
	series := make([]MonthBucket, 0, SeriesMonths)
	index := make(map[string]int, SeriesMonths)

	for i := SeriesMonths - 1; i >= 0; i-- {
		d := today.AddMonths(-i)
		key := monthKey(d.Year, d.Month)
		index[key] = len(series)
		series = append(series, MonthBucket{
			Label: fmt.Sprintf("%s %02d", d.Month.String()[:3], d.Year%100),
			Year:  d.Year,
			Month: d.Month,
			Total: decimal.Zero,
		})
	}

	for _, tx := range txs {
		key := monthKey(tx.TransactionDate.Year, tx.TransactionDate.Month)
		if i, ok := index[key]; ok {
			series[i].Total = series[i].Total.Add(tx.Amount)
		}
	}
	return series
}

func monthKey(year int, month time.Month) string {
	return fmt.Sprintf("%d-%d", year, int(month))
}

// PeriodTotal sums the series.
func PeriodTotal(series []MonthBucket) decimal.Decimal {
	total := decimal.Zero
	for _, bucket := range series {
		total = total.Add(bucket.Total)
	}
	return total
}

// CategorySummaries totals transactions per category and computes each
// category's percentage of the grand total, sorted descending by total.
// With a zero grand total every percentage is zero.
func CategorySummaries(txs []models.Transaction) []CategorySummary {
	totals := make(map[int]*CategorySummary)
	var order []int
	for _, tx := range txs {
		summary, ok := totals[tx.CategoryID]
		if !ok {
			summary = &CategorySummary{
				CategoryID:   tx.CategoryID,
				CategoryName: tx.CategoryName,
				Total:        decimal.Zero,
			}
			totals[tx.CategoryID] = summary
			order = append(order, tx.CategoryID)
		}
		summary.Total = summary.Total.Add(tx.Amount)
	}

	grand := decimal.Zero
	for _, summary := range totals {
		grand = grand.Add(summary.Total)
	}

	summaries := make([]CategorySummary, 0, len(totals))
	for _, id := range order {
		summary := *totals[id]
		if grand.IsZero() {
			summary.Percentage = 0
		} else {
			summary.Percentage = summary.Total.Div(grand).InexactFloat64() * 100
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Total.GreaterThan(summaries[j].Total)
	})
	return summaries
}
