package catalog

import (
	"context"

	"github.com/kanak-erp/kanak/internal/platform/remote"
)

// Source fetches lookups from their system of record.
type Source interface {
	Categories(ctx context.Context) ([]Category, error)
	MetalPrices(ctx context.Context) ([]MetalPrice, error)
	Settings(ctx context.Context) ([]Setting, error)
}

// Client reads lookups from the back-office API.
type Client struct {
	api *remote.Client
}

// NewClient constructs a catalog client.
func NewClient(api *remote.Client) *Client {
	return &Client{api: api}
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	return remote.List[Category](ctx, c.api, "/categories")
}

func (c *Client) MetalPrices(ctx context.Context) ([]MetalPrice, error) {
	return remote.List[MetalPrice](ctx, c.api, "/metal-prices")
}

func (c *Client) Settings(ctx context.Context) ([]Setting, error) {
	return remote.List[Setting](ctx, c.api, "/settings")
}
