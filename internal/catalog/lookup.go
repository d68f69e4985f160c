package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ErrCategoryNotFound is returned when a category id is not in the catalog.
var ErrCategoryNotFound = errors.New("catalog: category not found")

// Lookup serves catalog reads through the cache.
type Lookup struct {
	source Source
	cache  *Cache
	logger *slog.Logger
}

// NewLookup constructs a Lookup. cache may be nil.
func NewLookup(source Source, cache *Cache, logger *slog.Logger) *Lookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lookup{source: source, cache: cache, logger: logger}
}

// Categories returns all categories in API order.
func (l *Lookup) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := l.fetch(ctx, "categories", &out, func(ctx context.Context) (any, error) {
		return l.source.Categories(ctx)
	})
	return out, err
}

// MetalPrices returns all metal price entries.
func (l *Lookup) MetalPrices(ctx context.Context) ([]MetalPrice, error) {
	var out []MetalPrice
	err := l.fetch(ctx, "metal-prices", &out, func(ctx context.Context) (any, error) {
		return l.source.MetalPrices(ctx)
	})
	return out, err
}

// Settings returns all settings.
func (l *Lookup) Settings(ctx context.Context) ([]Setting, error) {
	var out []Setting
	err := l.fetch(ctx, "settings", &out, func(ctx context.Context) (any, error) {
		return l.source.Settings(ctx)
	})
	return out, err
}

// Category returns one category by id.
func (l *Lookup) Category(ctx context.Context, id string) (Category, error) {
	cats, err := l.Categories(ctx)
	if err != nil {
		return Category{}, err
	}
	c, ok := Snapshot{Categories: cats}.FindCategory(id)
	if !ok {
		return Category{}, fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	return c, nil
}

// ActiveRate returns the active price for purityID. ok is false when no
// active entry exists.
func (l *Lookup) ActiveRate(ctx context.Context, purityID string) (decimal.Decimal, bool, error) {
	prices, err := l.MetalPrices(ctx)
	if err != nil {
		return decimal.Zero, false, err
	}
	rate, ok := Snapshot{MetalPrices: prices}.ActiveRate(purityID)
	return rate, ok, nil
}

// GSTDefault returns the GST percentage configured under key. A failing
// settings fetch degrades to the fallback for key.
func (l *Lookup) GSTDefault(ctx context.Context, key string) decimal.Decimal {
	settings, err := l.Settings(ctx)
	if err != nil {
		l.logger.Warn("settings lookup failed, using fallback GST", slog.String("key", key), slog.Any("error", err))
		return FallbackGST(key)
	}
	return Snapshot{Settings: settings}.GST(key)
}

// Defaults fetches every lookup concurrently.
func (l *Lookup) Defaults(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cats, err := l.Categories(gctx)
		snap.Categories = cats
		return err
	})
	g.Go(func() error {
		prices, err := l.MetalPrices(gctx)
		snap.MetalPrices = prices
		return err
	})
	g.Go(func() error {
		settings, err := l.Settings(gctx)
		snap.Settings = settings
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Refresh invalidates cached lookups and warms them again.
func (l *Lookup) Refresh(ctx context.Context) (Snapshot, error) {
	ver, err := l.cache.Bump(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("catalog: bump cache: %w", err)
	}
	snap, err := l.Defaults(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	l.logger.Info("catalog refreshed",
		slog.Int64("version", ver),
		slog.Int("categories", len(snap.Categories)),
		slog.Int("metal_prices", len(snap.MetalPrices)),
		slog.Int("settings", len(snap.Settings)))
	return snap, nil
}

func (l *Lookup) fetch(ctx context.Context, name string, dest any, loader func(context.Context) (any, error)) error {
	key, err := l.cache.BuildKey(ctx, name)
	if err != nil {
		l.logger.Warn("catalog cache unavailable", slog.String("lookup", name), slog.Any("error", err))
		value, lerr := loader(ctx)
		if lerr != nil {
			return lerr
		}
		return roundTrip(value, dest)
	}
	return l.cache.FetchJSON(ctx, key, dest, loader)
}
