package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/cast"

	"github.com/kanak-erp/kanak/internal/platform/remote"
	"github.com/kanak-erp/kanak/internal/shared"
)

// ErrMissingID is reported when the API accepts an item without returning its id.
var ErrMissingID = errors.New("inventory: created item has no id")

// ItemRef identifies a created inventory item.
type ItemRef struct {
	ID string `json:"id"`
}

// Client creates inventory items on the back-office API.
type Client struct {
	api    *remote.Client
	logger *slog.Logger
}

// NewClient constructs an inventory client.
func NewClient(api *remote.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, logger: logger}
}

// CreateItem posts payload to /items. Failures never escape as errors; they
// come back as a failed Result carrying the server's reason.
func (c *Client) CreateItem(ctx context.Context, payload ItemPayload) shared.Result[ItemRef] {
	var raw json.RawMessage
	if err := c.api.Post(ctx, "/items", payload, &raw); err != nil {
		c.logger.Warn("create inventory item failed", slog.Any("error", err))
		return shared.Fail[ItemRef](err)
	}
	id := extractID(raw)
	if id == "" {
		return shared.Fail[ItemRef](ErrMissingID)
	}
	return shared.Ok(ItemRef{ID: id})
}

// extractID accepts {"id":..}, {"_id":..} and {"data":{...}} answers with
// string or numeric ids.
func extractID(raw json.RawMessage) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	for _, key := range []string{"id", "_id", "itemId"} {
		if v, ok := body[key]; ok {
			if s := strings.TrimSpace(cast.ToString(v)); s != "" {
				return s
			}
		}
	}
	if data, ok := body["data"]; ok {
		nested, err := json.Marshal(data)
		if err == nil {
			return extractID(nested)
		}
	}
	return ""
}
