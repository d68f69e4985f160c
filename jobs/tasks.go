package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCatalogRefresh invalidates and rewarms the catalog cache.
	TaskCatalogRefresh = "catalog:refresh"
	// TaskGoldLoanOverdueScan counts active loans past their due date.
	TaskGoldLoanOverdueScan = "goldloan:overdue-scan"
)

// CatalogRefreshPayload records why a refresh was requested.
type CatalogRefreshPayload struct {
	Reason string `json:"reason"`
}

// NewCatalogRefreshTask constructs an Asynq task refreshing the catalog.
func NewCatalogRefreshTask(reason string) (*asynq.Task, error) {
	if reason == "" {
		reason = "scheduled"
	}
	body, err := json.Marshal(CatalogRefreshPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCatalogRefresh, body, asynq.Queue(QueueDefault)), nil
}

// OverdueScanPayload pins the scan to a point in time. A zero AsOf means now.
type OverdueScanPayload struct {
	AsOf time.Time `json:"as_of"`
}

// NewOverdueScanTask constructs an Asynq task for the overdue loan scan.
func NewOverdueScanTask(asOf time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(OverdueScanPayload{AsOf: asOf})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGoldLoanOverdueScan, body, asynq.Queue(QueueDefault)), nil
}
