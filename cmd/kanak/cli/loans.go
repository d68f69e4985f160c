package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/kanak-erp/kanak/internal/goldloan"
)

// OverdueScanner lists overdue loan statements.
type OverdueScanner interface {
	Scan(ctx context.Context, asOf time.Time) ([]goldloan.Statement, error)
}

// LoansCLI offers operational helpers for the gold loan book.
type LoansCLI struct {
	scanner OverdueScanner
}

// NewLoansCLI constructs a new helper instance.
func NewLoansCLI(scanner OverdueScanner) *LoansCLI {
	return &LoansCLI{scanner: scanner}
}

// OverdueOptions defines available flags for the loans overdue command.
type OverdueOptions struct {
	AsOf       string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// OverdueSummary describes the JSON response for loans overdue.
type OverdueSummary struct {
	AsOf  string        `json:"as_of"`
	Count int           `json:"count"`
	Loans []OverdueLoan `json:"loans"`
}

// OverdueLoan is one row of the overdue report.
type OverdueLoan struct {
	Number      string `json:"number"`
	Customer    string `json:"customer"`
	DueDate     string `json:"due_date"`
	Outstanding string `json:"outstanding"`
}

// OverdueCommand prints loans past their due date and returns the exit code.
// The code is 2 when overdue loans exist so cron wrappers can alert on it.
func (c *LoansCLI) OverdueCommand(ctx context.Context, opts OverdueOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	asOf := time.Now().UTC()
	if raw := strings.TrimSpace(opts.AsOf); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "loans overdue: invalid --as-of %q, want YYYY-MM-DD\n", raw)
			return 1
		}
		asOf = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	statements, err := c.scanner.Scan(ctx, asOf)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "loans overdue: %v\n", err)
		return 1
	}
	sort.Slice(statements, func(i, j int) bool {
		return statements[i].DueDate.Before(statements[j].DueDate)
	})

	summary := OverdueSummary{AsOf: asOf.Format("2006-01-02"), Count: len(statements), Loans: make([]OverdueLoan, 0, len(statements))}
	for _, stmt := range statements {
		summary.Loans = append(summary.Loans, OverdueLoan{
			Number:      stmt.Loan.Number,
			Customer:    stmt.Loan.CustomerName,
			DueDate:     stmt.DueDate.Format("2006-01-02"),
			Outstanding: stmt.Outstanding.StringFixed(2),
		})
	}

	if opts.JSONOutput {
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "loans overdue: encode: %v\n", err)
			return 1
		}
	} else {
		if summary.Count == 0 {
			_, _ = fmt.Fprintf(opts.Stdout, "no overdue loans as of %s\n", summary.AsOf)
		}
		for _, row := range summary.Loans {
			_, _ = fmt.Fprintf(opts.Stdout, "%s\t%s\tdue %s\toutstanding %s\n", row.Number, row.Customer, row.DueDate, row.Outstanding)
		}
	}
	if summary.Count > 0 {
		return 2
	}
	return 0
}
