package api

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/spendify/spendify-bot/internal/models"
)

// AnalyticsSummary is the backend's precomputed spending summary.
type AnalyticsSummary struct {
	TotalSpending    decimal.Decimal `json:"totalSpending"`
	TransactionCount int             `json:"transactionCount"`
	TopCategory      string          `json:"topCategory"`
}

// DailyTotal is one day's spending in the backend's daily breakdown.
type DailyTotal struct {
	Date  models.Date     `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// AnalyticsSummary fetches the backend spending summary.
func (c *Client) AnalyticsSummary(ctx context.Context, token string) (*AnalyticsSummary, error) {
	var summary AnalyticsSummary
	if err := c.do(ctx, http.MethodGet, "/analytics/summary", nil, token, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// AnalyticsDaily fetches the backend per-day spending breakdown.
func (c *Client) AnalyticsDaily(ctx context.Context, token string) ([]DailyTotal, error) {
	var daily []DailyTotal
	if err := c.do(ctx, http.MethodGet, "/analytics/daily", nil, token, nil, &daily); err != nil {
		return nil, err
	}
	return daily, nil
}
