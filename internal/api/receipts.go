package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"

	"github.com/shopspring/decimal"
	"github.com/spendify/spendify-bot/internal/models"
)

// ReceiptData is what the backend's OCR extracted from a receipt image.
// Fields the OCR could not read come back zero-valued.
type ReceiptData struct {
	Amount          decimal.Decimal `json:"amount"`
	Merchant        string          `json:"merchant"`
	TransactionDate models.Date     `json:"transactionDate"`
	CategoryID      int             `json:"categoryId"`
	CategoryName    string          `json:"categoryName"`
}

// IsPartial reports whether the OCR left any field the transaction form
// requires unfilled.
func (r *ReceiptData) IsPartial() bool {
	return r.Amount.IsZero() || r.TransactionDate.IsZero() || r.CategoryID == 0
}

// ProcessReceipt uploads a receipt image for server-side OCR.
func (c *Client) ProcessReceipt(ctx context.Context, token string, image []byte, filename string) (*ReceiptData, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build receipt upload: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to build receipt upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build receipt upload: %w", err)
	}

	var data ReceiptData
	if err := c.upload(ctx, "/ocr/process", token, writer.FormDataContentType(), &buf, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
