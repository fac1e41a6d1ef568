package domain

import "time"

// Run statuses reported to the operator.
const (
	StatusSucceeded              = "succeeded"
	StatusFailed                 = "failed"
	StatusReconciliationMismatch = "reconciliation_mismatch"
)

// ReconciliationEntry compares one metric between the cleansed source set
// and the warehouse.
type ReconciliationEntry struct {
	Metric    string  `json:"metric"`
	Source    float64 `json:"source"`
	Warehouse float64 `json:"warehouse"`
	Match     bool    `json:"match"`
}

// RunReport is the structured pass/fail summary of one pipeline run. It
// enumerates every violation category with counts rather than a bare
// boolean, and is marshable for machine consumption.
type RunReport struct {
	BatchID   string        `json:"batch_id"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`

	RowsRead          int `json:"rows_read"`
	RowsAccepted      int `json:"rows_accepted"`
	RowsRejected      int `json:"rows_rejected"`
	DuplicatesRemoved int `json:"duplicates_removed"`

	Violations      []Violation    `json:"violations,omitempty"`
	ViolationCounts map[string]int `json:"violation_counts"`

	// First-observed-wins attribute conflicts per dimension; informational.
	AttributeConflicts map[string]int `json:"attribute_conflicts,omitempty"`

	FactsWritten        int   `json:"facts_written"`
	WarehouseCustomers  int64 `json:"warehouse_customers"`
	WarehouseProducts   int64 `json:"warehouse_products"`
	WarehouseLocations  int64 `json:"warehouse_locations"`
	WarehouseDates      int64 `json:"warehouse_dates"`
	WarehouseFacts      int64 `json:"warehouse_facts"`

	Reconciliation []ReconciliationEntry `json:"reconciliation,omitempty"`
}

// ReconciliationPassed reports whether every tracked metric matched.
func (r RunReport) ReconciliationPassed() bool {
	for _, entry := range r.Reconciliation {
		if !entry.Match {
			return false
		}
	}
	return true
}

// CountViolations tallies violations per rule name.
func CountViolations(violations []Violation) map[string]int {
	counts := make(map[string]int, len(violations))
	for _, v := range violations {
		counts[v.Rule]++
	}
	return counts
}
