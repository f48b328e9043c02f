package api

import (
	"context"
	"net/http"

	"github.com/spendify/spendify-bot/internal/models"
)

// Categories lists all categories. Categories are backend-owned and
// read-only for this client.
func (c *Client) Categories(ctx context.Context, token string) ([]models.Category, error) {
	var categories []models.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, token, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
