package goldloan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Status tracks the lifecycle of a loan.
type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusClosed Status = "CLOSED"
)

var (
	ErrNotFound              = errors.New("goldloan: not found")
	ErrValidation            = errors.New("goldloan: validation failed")
	ErrPrincipalExceedsLimit = errors.New("goldloan: principal exceeds maximum loan amount")
	ErrInvalidState          = errors.New("goldloan: invalid state")
	ErrDuplicateRequest      = errors.New("goldloan: request already processed")
)

var daysPerYear = decimal.NewFromInt(365)

// Payment is one repayment against a loan.
type Payment struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount"`
	PaidAt time.Time       `json:"paid_at"`
	Note   string          `json:"note,omitempty"`
}

// Loan is an originated gold loan with its collateral snapshot.
type Loan struct {
	ID               string          `json:"id"`
	Number           string          `json:"number"`
	CustomerName     string          `json:"customer_name"`
	CustomerPhone    string          `json:"customer_phone,omitempty"`
	Items            []ValuedItem    `json:"items"`
	GoldRate         decimal.Decimal `json:"gold_rate"`
	LoanToValueRatio decimal.Decimal `json:"loan_to_value_ratio"`
	AppraisedValue   decimal.Decimal `json:"appraised_value"`
	MaxLoanAmount    decimal.Decimal `json:"max_loan_amount"`
	Principal        decimal.Decimal `json:"principal"`
	InterestRate     decimal.Decimal `json:"interest_rate"`
	TenureMonths     int             `json:"tenure_months"`
	Status           Status          `json:"status"`
	Payments         []Payment       `json:"payments"`
	OpenedAt         time.Time       `json:"opened_at"`
	ClosedAt         *time.Time      `json:"closed_at,omitempty"`
}

// DueDate is the end of the tenure.
func (l Loan) DueDate() time.Time {
	return l.OpenedAt.AddDate(0, l.TenureMonths, 0)
}

// TotalPaid sums all payments.
func (l Loan) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range l.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// AccruedInterest is simple interest on the principal for the whole days
// elapsed between opening and asOf, rounded to 2 places.
func (l Loan) AccruedInterest(asOf time.Time) decimal.Decimal {
	if !asOf.After(l.OpenedAt) {
		return decimal.Zero
	}
	days := decimal.NewFromInt(int64(asOf.Sub(l.OpenedAt).Hours() / 24))
	return l.Principal.Mul(l.InterestRate).Div(hundred).Mul(days).Div(daysPerYear).Round(2)
}

// Outstanding is principal plus accrued interest minus payments, never below zero.
func (l Loan) Outstanding(asOf time.Time) decimal.Decimal {
	due := l.Principal.Add(l.AccruedInterest(asOf)).Sub(l.TotalPaid())
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// Statement is a point-in-time balance view of a loan.
type Statement struct {
	Loan            Loan            `json:"loan"`
	AsOf            time.Time       `json:"as_of"`
	AccruedInterest decimal.Decimal `json:"accrued_interest"`
	TotalPaid       decimal.Decimal `json:"total_paid"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	DueDate         time.Time       `json:"due_date"`
	Overdue         bool            `json:"overdue"`
}

// StatementAt builds the balance view of l at asOf.
func StatementAt(l Loan, asOf time.Time) Statement {
	outstanding := l.Outstanding(asOf)
	return Statement{
		Loan:            l,
		AsOf:            asOf,
		AccruedInterest: l.AccruedInterest(asOf),
		TotalPaid:       l.TotalPaid(),
		Outstanding:     outstanding,
		DueDate:         l.DueDate(),
		Overdue:         l.Status == StatusActive && asOf.After(l.DueDate()) && outstanding.IsPositive(),
	}
}

var hundred = decimal.NewFromInt(100)
