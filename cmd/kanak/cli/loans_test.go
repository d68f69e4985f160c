package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanak-erp/kanak/internal/goldloan"
	"github.com/kanak-erp/kanak/jobs"
)

type stubScanner struct {
	statements []goldloan.Statement
	err        error
	asOf       time.Time
}

func (s *stubScanner) Scan(ctx context.Context, asOf time.Time) ([]goldloan.Statement, error) {
	s.asOf = asOf
	return s.statements, s.err
}

func statement(number string, due time.Time, outstanding string) goldloan.Statement {
	return goldloan.Statement{
		Loan:        goldloan.Loan{Number: number, CustomerName: "Anil Kumar"},
		DueDate:     due,
		Outstanding: decimal.RequireFromString(outstanding),
		Overdue:     true,
	}
}

func TestOverdueCommandJSON(t *testing.T) {
	scanner := &stubScanner{statements: []goldloan.Statement{
		statement("GL-2", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "51000"),
		statement("GL-1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "10250.5"),
	}}
	var stdout, stderr bytes.Buffer
	code := NewLoansCLI(scanner).OverdueCommand(context.Background(), OverdueOptions{
		AsOf:       "2026-06-30",
		JSONOutput: true,
		Stdout:     &stdout,
		Stderr:     &stderr,
	})
	require.Equal(t, 2, code, stderr.String())
	assert.Equal(t, time.Date(2026, 6, 30, 23, 59, 59, 999999999, time.UTC), scanner.asOf)

	var summary OverdueSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.Equal(t, 2, summary.Count)
	require.Len(t, summary.Loans, 2)
	assert.Equal(t, "GL-1", summary.Loans[0].Number)
	assert.Equal(t, "10250.50", summary.Loans[0].Outstanding)
}

func TestOverdueCommandNone(t *testing.T) {
	var stdout bytes.Buffer
	code := NewLoansCLI(&stubScanner{}).OverdueCommand(context.Background(), OverdueOptions{AsOf: "2026-06-30", Stdout: &stdout})
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "no overdue loans as of 2026-06-30")
}

func TestOverdueCommandErrors(t *testing.T) {
	var stderr bytes.Buffer
	code := NewLoansCLI(&stubScanner{}).OverdueCommand(context.Background(), OverdueOptions{AsOf: "30/06/2026", Stderr: &stderr})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "invalid --as-of")

	stderr.Reset()
	code = NewLoansCLI(&stubScanner{err: errors.New("db down")}).OverdueCommand(context.Background(), OverdueOptions{Stderr: &stderr})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "db down")
}

func TestTaskFor(t *testing.T) {
	task, err := TaskFor(jobs.TaskCatalogRefresh, time.Now())
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskCatalogRefresh, task.Type())
	assert.Contains(t, string(task.Payload()), "manual")

	task, err = TaskFor(jobs.TaskGoldLoanOverdueScan, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskGoldLoanOverdueScan, task.Type())

	_, err = TaskFor("ledger:rebuild", time.Now())
	assert.Error(t, err)
}
