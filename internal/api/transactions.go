package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spendify/spendify-bot/internal/models"
)

// SortDateDesc is the sort parameter used by every transaction listing.
const SortDateDesc = "transactionDate,desc"

// TransactionQuery bounds a transaction listing. Size caps the page the
// backend returns.
type TransactionQuery struct {
	StartDate models.Date
	EndDate   models.Date
	Size      int
	Sort      string
}

// TransactionInput is the payload for creating or updating a transaction.
// The backend assigns IDs and denormalizes the category name.
type TransactionInput struct {
	Amount          decimal.Decimal `json:"amount"`
	TransactionDate models.Date     `json:"transactionDate"`
	Description     string          `json:"description,omitempty"`
	CategoryID      int             `json:"categoryId"`
	Merchant        string          `json:"merchant,omitempty"`
}

type transactionPage struct {
	Content []models.Transaction `json:"content"`
}

// Transactions lists transactions between the query's dates, inclusive.
func (c *Client) Transactions(ctx context.Context, token string, q TransactionQuery) ([]models.Transaction, error) {
	query := url.Values{
		"startDate": {q.StartDate.String()},
		"endDate":   {q.EndDate.String()},
	}
	if q.Size > 0 {
		query.Set("size", strconv.Itoa(q.Size))
	}
	if q.Sort != "" {
		query.Set("sort", q.Sort)
	}

	var page transactionPage
	if err := c.do(ctx, http.MethodGet, "/transactions", query, token, nil, &page); err != nil {
		return nil, err
	}
	return page.Content, nil
}

// CreateTransaction submits a new transaction and returns the stored record.
func (c *Client) CreateTransaction(ctx context.Context, token string, in TransactionInput) (*models.Transaction, error) {
	var tx models.Transaction
	if err := c.do(ctx, http.MethodPost, "/transactions", nil, token, in, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// UpdateTransaction replaces the transaction with the given ID and returns
// the updated record. Last writer wins; there is no versioning.
func (c *Client) UpdateTransaction(ctx context.Context, token string, id int, in TransactionInput) (*models.Transaction, error) {
	var tx models.Transaction
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/transactions/%d", id), nil, token, in, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// DeleteTransaction removes the transaction with the given ID.
func (c *Client) DeleteTransaction(ctx context.Context, token string, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/transactions/%d", id), nil, token, nil, nil)
}
