package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kanak-erp/kanak/internal/catalog"
	"github.com/kanak-erp/kanak/internal/inventory"
	"github.com/kanak-erp/kanak/internal/platform/remote"
	"github.com/kanak-erp/kanak/internal/pricing"
	"github.com/kanak-erp/kanak/internal/shared"
)

// CatalogPort exposes the lookups a draft is seeded from.
type CatalogPort interface {
	Category(ctx context.Context, id string) (catalog.Category, error)
	ActiveRate(ctx context.Context, purityID string) (decimal.Decimal, bool, error)
	GSTDefault(ctx context.Context, key string) decimal.Decimal
}

// InventoryPort creates inventory records for committed lines.
type InventoryPort interface {
	CreateItem(ctx context.Context, payload inventory.ItemPayload) shared.Result[inventory.ItemRef]
}

// Recorder receives business metrics. A nil Recorder is allowed.
type Recorder interface {
	LineAdvisory(code string)
	OrderSubmission(kind, outcome string)
}

// Service runs the item builder flow of one order kind.
type Service struct {
	profile   Profile
	store     Store
	catalog   CatalogPort
	inventory InventoryPort
	submitter Submitter
	metrics   Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a draft service for profile.
func NewService(profile Profile, store Store, catalog CatalogPort, inventory InventoryPort, submitter Submitter, metrics Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		profile:   profile,
		store:     store,
		catalog:   catalog,
		inventory: inventory,
		submitter: submitter,
		metrics:   metrics,
		logger:    logger.With(slog.String("flow", profile.Slug)),
		now:       time.Now,
	}
}

// Profile returns the profile the service was built for.
func (s *Service) Profile() Profile {
	return s.profile
}

// Create opens an empty draft with its GST default seeded from settings.
func (s *Service) Create(ctx context.Context, header Header) (View, error) {
	now := s.now()
	d := Draft{
		ID:        uuid.NewString(),
		Kind:      s.profile.Kind,
		Header:    header,
		Aggregate: *NewAggregate(s.profile.Kind),
		Defaults:  Defaults{GSTPercentage: s.catalog.GSTDefault(ctx, s.profile.GSTSettingKey)},
		CreatedAt: now,
	}
	d.resetLine(s.profile)
	if err := s.save(ctx, &d); err != nil {
		return View{}, err
	}
	return ViewOf(d), nil
}

// Get returns the current view of a draft.
func (s *Service) Get(ctx context.Context, id string) (View, error) {
	d, err := s.store.Load(ctx, s.profile.Kind, id)
	if err != nil {
		return View{}, err
	}
	return ViewOf(d), nil
}

// EditHeader replaces the header fields.
func (s *Service) EditHeader(ctx context.Context, id string, header Header) (View, error) {
	return s.mutate(ctx, id, func(d *Draft) error {
		d.Header = header
		return nil
	})
}

// SelectCategory seeds purity, margins and the active metal rate from the
// chosen category. A missing active rate leaves the current rate untouched.
func (s *Service) SelectCategory(ctx context.Context, id, categoryID string) (View, error) {
	cat, err := s.catalog.Category(ctx, categoryID)
	if err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			return View{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return View{}, collaboratorError("load category", err)
	}
	rate, hasRate, err := s.catalog.ActiveRate(ctx, cat.ID)
	if err != nil {
		return View{}, collaboratorError("load metal rate", err)
	}
	return s.mutate(ctx, id, func(d *Draft) error {
		d.CategoryID = cat.ID
		d.Line.SetPurity(cat.ID)
		if strings.TrimSpace(d.Line.Label) == "" {
			d.Line.SetLabel(cat.Label())
		}
		d.Line.SetProfitPercentage(cat.ProfitPercentage.Decimal)
		d.Line.SetThresholdProfitPercentage(cat.ThresholdProfitPercentage.Decimal)
		if hasRate {
			d.Line.SetRate(rate)
		}
		return nil
	})
}

// EditLine applies a batch of field edits to the row being built. The batch
// is all or nothing.
func (s *Service) EditLine(ctx context.Context, id string, edits []pricing.Edit) (View, error) {
	return s.mutate(ctx, id, func(d *Draft) error {
		for _, e := range edits {
			switch e.Field {
			case "huid":
				d.Extras.HUID = e.Text
				continue
			case "description":
				d.Extras.Description = e.Text
				continue
			}
			if err := pricing.ApplyEdit(&d.Line, e); err != nil {
				return fmt.Errorf("%w: %w", ErrValidation, err)
			}
		}
		return nil
	})
}

// ResetLine discards the row being built.
func (s *Service) ResetLine(ctx context.Context, id string) (View, error) {
	return s.mutate(ctx, id, func(d *Draft) error {
		d.resetLine(s.profile)
		return nil
	})
}

// CommitLine creates the inventory item for the current row and appends it
// to the order. Advisories block the commit; a rejected item creation leaves
// the draft untouched.
func (s *Service) CommitLine(ctx context.Context, id string) (View, error) {
	d, err := s.loadEditable(ctx, id)
	if err != nil {
		return View{}, err
	}
	snap := d.Line.Snapshot()
	if !snap.CanCommit {
		for _, a := range snap.Advisories {
			s.recordAdvisory(a.Code)
		}
		if len(snap.Advisories) == 0 {
			return View{}, fmt.Errorf("%w: net weight must be positive", ErrLineBlocked)
		}
		msgs := make([]string, 0, len(snap.Advisories))
		for _, a := range snap.Advisories {
			msgs = append(msgs, a.Message)
		}
		return View{}, fmt.Errorf("%w: %s", ErrLineBlocked, strings.Join(msgs, "; "))
	}

	res := s.inventory.CreateItem(ctx, inventory.PayloadFrom(string(s.profile.Kind), snap, d.Extras))
	if !res.Success {
		return View{}, &CollaboratorError{Op: "create inventory item", Reason: res.Error}
	}
	if err := d.Aggregate.AddLine(NewLine(s.profile.Kind, snap, res.Data.ID)); err != nil {
		return View{}, err
	}
	d.resetLine(s.profile)
	if err := s.save(ctx, &d); err != nil {
		return View{}, err
	}
	s.logger.Info("line committed", slog.String("draft", d.ID), slog.String("inventory_item", res.Data.ID))
	return ViewOf(d), nil
}

// RemoveLine deletes a committed line by position.
func (s *Service) RemoveLine(ctx context.Context, id string, index int) (View, error) {
	return s.mutate(ctx, id, func(d *Draft) error {
		return d.Aggregate.RemoveLine(index)
	})
}

// TotalsEdit is one change to the order level fields.
type TotalsEdit struct {
	Field string             `json:"field" validate:"required,oneof=discount_amount discount_percentage paid_amount paid_amount_reset tax_percentage shipping_charges"`
	Value pricing.FlexNumber `json:"value"`
}

// EditTotals applies an order level edit.
func (s *Service) EditTotals(ctx context.Context, id string, edit TotalsEdit) (View, error) {
	if err := shared.Validate(edit); err != nil {
		return View{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	v := edit.Value.Decimal
	return s.mutate(ctx, id, func(d *Draft) error {
		agg := &d.Aggregate
		switch edit.Field {
		case "discount_amount":
			return agg.SetDiscountAmount(v)
		case "discount_percentage":
			return agg.SetDiscountPercentage(v)
		case "paid_amount":
			return agg.SetPaidAmount(v)
		case "paid_amount_reset":
			return agg.ClearPaidAmount()
		case "tax_percentage":
			return agg.SetTaxPercentage(v)
		default:
			return agg.SetShippingCharges(v)
		}
	})
}

// SubmitOutcome is returned by a successful Submit.
type SubmitOutcome struct {
	Receipt SubmitReceipt `json:"receipt"`
	Draft   View          `json:"draft"`
}

// Submit hands the order to the submitter. Only one submission per draft may
// be in flight. On success the draft resets to EMPTY; on failure it is kept
// as it was and the server's reason is returned.
func (s *Service) Submit(ctx context.Context, id string) (SubmitOutcome, error) {
	release, err := s.store.AcquireSubmitLock(ctx, s.profile.Kind, id)
	if err != nil {
		if errors.Is(err, shared.ErrLocked) {
			return SubmitOutcome{}, ErrSubmitInFlight
		}
		return SubmitOutcome{}, err
	}
	defer release(context.WithoutCancel(ctx))

	d, err := s.store.Load(ctx, s.profile.Kind, id)
	if err != nil {
		return SubmitOutcome{}, err
	}
	resumed := d.Aggregate.State == StateSubmitted
	if resumed {
		// left over from a run that died mid-submit; we hold the lock now
		_ = d.Aggregate.CompleteSubmit(false)
	}

	sub, err := d.Aggregate.BeginSubmit()
	if err != nil {
		return SubmitOutcome{}, err
	}
	if !resumed || d.SubmitAttempts == 0 {
		d.SubmitAttempts++
	}
	sub.IdempotencyKey = d.submitKey()
	if err := s.save(ctx, &d); err != nil {
		return SubmitOutcome{}, err
	}

	res := s.submitter.Submit(ctx, d.Header, sub)
	saveCtx := context.WithoutCancel(ctx)
	if !res.Success {
		_ = d.Aggregate.CompleteSubmit(false)
		if err := s.save(saveCtx, &d); err != nil {
			s.logger.Error("restore draft after failed submit", slog.String("draft", d.ID), slog.Any("error", err))
		}
		s.recordSubmission("failure")
		s.logger.Warn("order submission rejected", slog.String("draft", d.ID), slog.String("reason", res.Error))
		return SubmitOutcome{}, &CollaboratorError{Op: "submit order", Reason: res.Error}
	}

	_ = d.Aggregate.CompleteSubmit(true)
	d.Header = Header{}
	d.resetLine(s.profile)
	if err := s.save(saveCtx, &d); err != nil {
		return SubmitOutcome{}, err
	}
	s.recordSubmission("success")
	s.logger.Info("order submitted", slog.String("draft", d.ID), slog.String("order", res.Data.ID))
	return SubmitOutcome{Receipt: res.Data, Draft: ViewOf(d)}, nil
}

// Discard drops a draft.
func (s *Service) Discard(ctx context.Context, id string) error {
	return s.store.Delete(ctx, s.profile.Kind, id)
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*Draft) error) (View, error) {
	d, err := s.loadEditable(ctx, id)
	if err != nil {
		return View{}, err
	}
	if err := fn(&d); err != nil {
		return View{}, err
	}
	if err := s.save(ctx, &d); err != nil {
		return View{}, err
	}
	return ViewOf(d), nil
}

// loadEditable loads a draft that no submission is working on. Saves made
// from it still fail with ErrStaleDraft if a submission starts in between.
func (s *Service) loadEditable(ctx context.Context, id string) (Draft, error) {
	locked, err := s.store.SubmitLocked(ctx, s.profile.Kind, id)
	if err != nil {
		return Draft{}, err
	}
	if locked {
		return Draft{}, ErrSubmitInFlight
	}
	d, err := s.store.Load(ctx, s.profile.Kind, id)
	if err != nil {
		return Draft{}, err
	}
	if d.Aggregate.State == StateSubmitted {
		return Draft{}, ErrSubmitInFlight
	}
	return d, nil
}

func (s *Service) save(ctx context.Context, d *Draft) error {
	d.UpdatedAt = s.now()
	d.Revision++
	if err := s.store.Save(ctx, *d); err != nil {
		d.Revision--
		return fmt.Errorf("orders: save draft: %w", err)
	}
	return nil
}

func (s *Service) recordAdvisory(code pricing.AdvisoryCode) {
	if s.metrics != nil {
		s.metrics.LineAdvisory(string(code))
	}
}

func (s *Service) recordSubmission(outcome string) {
	if s.metrics != nil {
		s.metrics.OrderSubmission(s.profile.Slug, outcome)
	}
}

func collaboratorError(op string, err error) error {
	var remoteErr *remote.Error
	if errors.As(err, &remoteErr) {
		return &CollaboratorError{Op: op, Reason: remoteErr.Message}
	}
	return &CollaboratorError{Op: op, Reason: err.Error()}
}
