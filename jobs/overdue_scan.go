package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kanak-erp/kanak/internal/goldloan"
	jobmetrics "github.com/kanak-erp/kanak/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// LoanLister lists gold loans.
type LoanLister interface {
	List(ctx context.Context, filter goldloan.ListFilter) ([]goldloan.Loan, error)
}

// OverdueScanJob publishes how many active loans are past due.
type OverdueScanJob struct {
	Loans   LoanLister
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewOverdueScanJob wires dependencies for the scan handler.
func NewOverdueScanJob(loans LoanLister, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueScanJob {
	return &OverdueScanJob{
		Loans:   loans,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes overdue scan tasks.
func (j *OverdueScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Loans == nil {
		return errors.New("overdue scan: dependencies not configured")
	}
	var payload OverdueScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	_, err := j.Scan(ctx, payload.AsOf)
	return err
}

// Scan returns the statements of overdue loans as of asOf.
func (j *OverdueScanJob) Scan(ctx context.Context, asOf time.Time) ([]goldloan.Statement, error) {
	if asOf.IsZero() {
		asOf = j.now()
	}
	tracker := j.metrics().Track(TaskGoldLoanOverdueScan)

	loans, err := j.Loans.List(ctx, goldloan.ListFilter{Status: goldloan.StatusActive})
	if err != nil {
		j.logger().Error("list active loans", slog.Any("error", err))
		return nil, tracker.End(err)
	}
	var overdue []goldloan.Statement
	for _, loan := range loans {
		stmt := goldloan.StatementAt(loan, asOf)
		if stmt.Overdue {
			overdue = append(overdue, stmt)
		}
	}
	j.metrics().SetOverdueLoans(len(overdue))
	j.logger().Info("overdue scan completed",
		slog.Int("active", len(loans)),
		slog.Int("overdue", len(overdue)),
		slog.Time("as_of", asOf))
	return overdue, tracker.End(nil)
}

func (j *OverdueScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *OverdueScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *OverdueScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
