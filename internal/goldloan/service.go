package goldloan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kanak-erp/kanak/internal/pricing"
	"github.com/kanak-erp/kanak/internal/shared"
)

// IdempotencyGuard rejects replayed requests.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Service originates and services gold loans.
type Service struct {
	repo        Repository
	idempotency IdempotencyGuard
	logger      *slog.Logger
	now         func() time.Time
}

// NewService constructs a gold loan service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// UseIdempotency makes Originate and RecordPayment honour request keys.
func (s *Service) UseIdempotency(guard IdempotencyGuard) *Service {
	s.idempotency = guard
	return s
}

// ItemInput describes one pledged ornament. NetWeight is optional; when
// absent it is derived from GrossWeight.
type ItemInput struct {
	Type        string              `json:"type" validate:"required"`
	Purity      string              `json:"purity"`
	GrossWeight pricing.FlexNumber  `json:"gross_weight"`
	NetWeight   *pricing.FlexNumber `json:"net_weight,omitempty"`
}

// Item converts the input into a PledgedItem following the form rules.
func (in ItemInput) Item() PledgedItem {
	item := PledgedItem{Type: strings.TrimSpace(in.Type), Purity: ParsePurity(in.Purity)}
	item.SetGrossWeight(in.GrossWeight.Decimal)
	if in.NetWeight != nil {
		item.SetNetWeight(in.NetWeight.Decimal)
	}
	return item
}

// ValuationInput is the collateral step payload.
type ValuationInput struct {
	Items            []ItemInput        `json:"items" validate:"required,min=1,dive"`
	GoldRate         pricing.FlexNumber `json:"gold_rate"`
	LoanToValueRatio pricing.FlexNumber `json:"loan_to_value_ratio"`
}

// OriginateInput is the full loan application.
type OriginateInput struct {
	ValuationInput
	CustomerName  string             `json:"customer_name" validate:"required"`
	CustomerPhone string             `json:"customer_phone"`
	Principal     pricing.FlexNumber `json:"principal"`
	InterestRate  pricing.FlexNumber `json:"interest_rate"`
	TenureMonths  int                `json:"tenure_months" validate:"gte=1,lte=120"`

	IdempotencyKey string `json:"-"`
}

// PaymentInput records a repayment.
type PaymentInput struct {
	Amount pricing.FlexNumber `json:"amount"`
	Note   string             `json:"note"`

	IdempotencyKey string `json:"-"`
}

// Value runs the valuation step without persisting anything. It runs on
// every keystroke, so it never rejects input: blank numbers count as zero and
// unknown purities take the fallback multiplier.
func (s *Service) Value(ctx context.Context, input ValuationInput) (Summary, error) {
	return valuationOf(input).Summarise(), nil
}

// Originate values the collateral and opens a loan when the principal fits
// under the maximum loan amount.
func (s *Service) Originate(ctx context.Context, input OriginateInput) (loan Loan, err error) {
	if err := validateValuation(input.ValuationInput); err != nil {
		return Loan{}, err
	}
	if err := shared.Validate(input); err != nil {
		return Loan{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if !input.Principal.IsPositive() {
		return Loan{}, fmt.Errorf("%w: principal must be positive", ErrValidation)
	}
	if input.InterestRate.IsNegative() {
		return Loan{}, fmt.Errorf("%w: interest rate must not be negative", ErrValidation)
	}

	summary := valuationOf(input.ValuationInput).Summarise()
	if input.Principal.GreaterThan(summary.MaxLoanAmount) {
		return Loan{}, fmt.Errorf("%w: %s > %s", ErrPrincipalExceedsLimit, input.Principal.String(), summary.MaxLoanAmount.String())
	}

	release, err := s.claim(ctx, input.IdempotencyKey, "goldloan.originate")
	if err != nil {
		return Loan{}, err
	}
	defer func() { release(err) }()

	now := s.now()
	loan = Loan{
		ID:               uuid.NewString(),
		Number:           generateNumber("GL", now),
		CustomerName:     strings.TrimSpace(input.CustomerName),
		CustomerPhone:    strings.TrimSpace(input.CustomerPhone),
		Items:            summary.Items,
		GoldRate:         summary.GoldRate,
		LoanToValueRatio: summary.LoanToValueRatio,
		AppraisedValue:   summary.TotalValue,
		MaxLoanAmount:    summary.MaxLoanAmount,
		Principal:        input.Principal.Decimal,
		InterestRate:     input.InterestRate.Decimal,
		TenureMonths:     input.TenureMonths,
		Status:           StatusActive,
		Payments:         []Payment{},
		OpenedAt:         now,
	}
	if err := s.repo.Create(ctx, loan); err != nil {
		return Loan{}, err
	}
	s.logger.Info("gold loan originated", slog.String("number", loan.Number), slog.String("principal", loan.Principal.String()))
	return loan, nil
}

// RecordPayment applies a repayment to an active loan and closes it once the
// outstanding balance reaches zero.
func (s *Service) RecordPayment(ctx context.Context, id string, input PaymentInput) (stmt Statement, err error) {
	if !input.Amount.IsPositive() {
		return Statement{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	release, err := s.claim(ctx, input.IdempotencyKey, "goldloan.payment:"+id)
	if err != nil {
		return Statement{}, err
	}
	defer func() { release(err) }()
	now := s.now()
	loan, err := s.repo.Apply(ctx, id, func(loan *Loan) error {
		if loan.Status != StatusActive {
			return fmt.Errorf("%w: loan %s is %s", ErrInvalidState, loan.Number, loan.Status)
		}
		loan.Payments = append(loan.Payments, Payment{
			ID:     uuid.NewString(),
			Amount: input.Amount.Decimal,
			PaidAt: now,
			Note:   input.Note,
		})
		if loan.Outstanding(now).IsZero() {
			loan.Status = StatusClosed
			loan.ClosedAt = &now
		}
		return nil
	})
	if err != nil {
		return Statement{}, err
	}
	if loan.Status == StatusClosed {
		s.logger.Info("gold loan closed", slog.String("number", loan.Number))
	}
	return StatementAt(loan, now), nil
}

// Get returns the statement of a loan as of now.
func (s *Service) Get(ctx context.Context, id string) (Statement, error) {
	loan, err := s.repo.Get(ctx, id)
	if err != nil {
		return Statement{}, err
	}
	return StatementAt(loan, s.now()), nil
}

// claim registers key with the idempotency guard. The returned func frees
// the key again when the guarded operation failed.
func (s *Service) claim(ctx context.Context, key, module string) (func(error), error) {
	noop := func(error) {}
	if s.idempotency == nil || key == "" {
		return noop, nil
	}
	if err := s.idempotency.CheckAndInsert(ctx, key, module); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return noop, fmt.Errorf("%w: key %s", ErrDuplicateRequest, key)
		}
		return noop, err
	}
	return func(opErr error) {
		if opErr == nil {
			return
		}
		if err := s.idempotency.Delete(context.WithoutCancel(ctx), key, module); err != nil {
			s.logger.Warn("release idempotency key", slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}

// List returns loans matching filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Loan, error) {
	return s.repo.List(ctx, filter)
}

func validateValuation(input ValuationInput) error {
	if err := shared.Validate(input); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.Purity) == "" {
			return shared.NewValidationError(fmt.Sprintf("items[%d].purity", i), "is required")
		}
	}
	if !input.GoldRate.IsPositive() {
		return fmt.Errorf("%w: gold rate must be positive", ErrValidation)
	}
	ltv := input.LoanToValueRatio.Decimal
	if !ltv.IsPositive() || ltv.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%w: loan to value ratio must be within (0, 100]", ErrValidation)
	}
	return nil
}

func valuationOf(input ValuationInput) Valuation {
	items := make([]PledgedItem, 0, len(input.Items))
	for _, in := range input.Items {
		items = append(items, in.Item())
	}
	return Valuation{Items: items, GoldRate: input.GoldRate.Decimal, LoanToValueRatio: input.LoanToValueRatio.Decimal}
}

func generateNumber(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("20060102"), strings.ToUpper(uuid.NewString()[:4]))
}
