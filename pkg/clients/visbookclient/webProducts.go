package visbookclient

import (
	"context"
	"fmt"
)

// WebProduct is a bookable unit as listed by the webproducts endpoint
type WebProduct struct {
	WebProductID int    `json:"webProductId"`
	UnitName     string `json:"unitName"`
}

// ListWebProducts lists the bookable units at a location
func (c *Client) ListWebProducts(ctx context.Context, locationID string) ([]WebProduct, error) {
	var products []WebProduct
	if err := c.getJSON(ctx, locationID, locationPath(locationID)+"/webproducts", &products); err != nil {
		return nil, fmt.Errorf("failed to list web products for location %s: %w", locationID, err)
	}
	return products, nil
}
