package goldloan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kanak-erp/kanak/internal/platform/db"
)

const schema = `CREATE TABLE IF NOT EXISTS gold_loans (
	id TEXT PRIMARY KEY,
	number TEXT NOT NULL UNIQUE,
	customer_name TEXT NOT NULL,
	customer_phone TEXT NOT NULL DEFAULT '',
	items JSONB NOT NULL DEFAULT '[]',
	gold_rate NUMERIC(18,4) NOT NULL,
	ltv NUMERIC(9,4) NOT NULL,
	appraised_value NUMERIC(18,2) NOT NULL,
	max_loan_amount NUMERIC(18,2) NOT NULL,
	principal NUMERIC(18,2) NOT NULL,
	interest_rate NUMERIC(9,4) NOT NULL,
	tenure_months INT NOT NULL,
	status TEXT NOT NULL,
	payments JSONB NOT NULL DEFAULT '[]',
	opened_at TIMESTAMPTZ NOT NULL,
	closed_at TIMESTAMPTZ
)`

const selectLoan = `SELECT id, number, customer_name, customer_phone, items,
	gold_rate::text, ltv::text, appraised_value::text, max_loan_amount::text,
	principal::text, interest_rate::text, tenure_months, status, payments, opened_at, closed_at
FROM gold_loans`

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PGRepository stores loans in PostgreSQL. Items and payments live in JSONB
// columns next to the loan header.
type PGRepository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewPGRepository constructs a PGRepository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool, pool: pool}
}

// EnsureSchema creates the gold_loans table when missing.
func (r *PGRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("goldloan: ensure schema: %w", err)
	}
	return nil
}

func (r *PGRepository) Create(ctx context.Context, loan Loan) error {
	items, payments, err := encodeCollections(loan)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO gold_loans (id, number, customer_name, customer_phone, items,
	gold_rate, ltv, appraised_value, max_loan_amount, principal, interest_rate, tenure_months,
	status, payments, opened_at, closed_at)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9::numeric, $10::numeric, $11::numeric, $12, $13, $14, $15, $16)`,
		loan.ID, loan.Number, loan.CustomerName, loan.CustomerPhone, items,
		loan.GoldRate.String(), loan.LoanToValueRatio.String(), loan.AppraisedValue.String(),
		loan.MaxLoanAmount.String(), loan.Principal.String(), loan.InterestRate.String(),
		loan.TenureMonths, string(loan.Status), payments, loan.OpenedAt, loan.ClosedAt)
	if err != nil {
		return fmt.Errorf("goldloan: insert: %w", err)
	}
	return nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (Loan, error) {
	loan, err := scanLoan(r.db.QueryRow(ctx, selectLoan+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Loan{}, ErrNotFound
		}
		return Loan{}, err
	}
	return loan, nil
}

// Apply locks the row, hands the stored loan to fn and writes back status and
// payments. The collateral snapshot and terms are fixed at origination.
func (r *PGRepository) Apply(ctx context.Context, id string, fn func(*Loan) error) (Loan, error) {
	var out Loan
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		loan, err := scanLoan(tx.QueryRow(ctx, selectLoan+` WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if err := fn(&loan); err != nil {
			return err
		}
		_, payments, err := encodeCollections(loan)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE gold_loans SET status = $2, payments = $3, closed_at = $4 WHERE id = $1`,
			loan.ID, string(loan.Status), payments, loan.ClosedAt)
		if err != nil {
			return fmt.Errorf("goldloan: update: %w", err)
		}
		out = loan
		return nil
	})
	if err != nil {
		return Loan{}, err
	}
	return out, nil
}

func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Loan, error) {
	query := selectLoan
	var args []interface{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	query += " ORDER BY opened_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return loans, nil
}

func encodeCollections(loan Loan) ([]byte, []byte, error) {
	items := loan.Items
	if items == nil {
		items = []ValuedItem{}
	}
	payments := loan.Payments
	if payments == nil {
		payments = []Payment{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, nil, fmt.Errorf("goldloan: encode items: %w", err)
	}
	paymentsJSON, err := json.Marshal(payments)
	if err != nil {
		return nil, nil, fmt.Errorf("goldloan: encode payments: %w", err)
	}
	return itemsJSON, paymentsJSON, nil
}

func scanLoan(row pgx.Row) (Loan, error) {
	var (
		loan                                           Loan
		items, payments                                []byte
		rate, ltv, appraised, maxLoan, principal, rpct string
		status                                         string
		closedAt                                       *time.Time
	)
	if err := row.Scan(&loan.ID, &loan.Number, &loan.CustomerName, &loan.CustomerPhone, &items,
		&rate, &ltv, &appraised, &maxLoan, &principal, &rpct, &loan.TenureMonths, &status,
		&payments, &loan.OpenedAt, &closedAt); err != nil {
		return Loan{}, err
	}
	loan.Status = Status(status)
	loan.ClosedAt = closedAt
	loan.GoldRate = decimal.RequireFromString(rate)
	loan.LoanToValueRatio = decimal.RequireFromString(ltv)
	loan.AppraisedValue = decimal.RequireFromString(appraised)
	loan.MaxLoanAmount = decimal.RequireFromString(maxLoan)
	loan.Principal = decimal.RequireFromString(principal)
	loan.InterestRate = decimal.RequireFromString(rpct)
	if err := json.Unmarshal(items, &loan.Items); err != nil {
		return Loan{}, fmt.Errorf("goldloan: decode items: %w", err)
	}
	if err := json.Unmarshal(payments, &loan.Payments); err != nil {
		return Loan{}, fmt.Errorf("goldloan: decode payments: %w", err)
	}
	return loan, nil
}
