package store

import (
	"context"
	"net/http"

	"petalboard/internal/catalog"
)

// Products fetches the static shop catalog.
func (c *Client) Products(ctx context.Context) ([]catalog.Product, error) {
	var resp struct {
		Products []catalog.Product `json:"products"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/products", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}
