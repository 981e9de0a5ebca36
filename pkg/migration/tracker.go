package migration

// Outcome is a point-in-time copy of a run's counters and ledgers. Ledgers are
// comma-joined case ids in processing order.
type Outcome struct {
	TotalNumberOfCases       int    `json:"totalNumberOfCases" yaml:"total_number_of_cases"`
	TotalMigrationsPerformed int    `json:"totalMigrationsPerformed" yaml:"total_migrations_performed"`
	TotalNumberOfSkips       int    `json:"totalNumberOfSkips" yaml:"total_number_of_skips"`
	TotalNumberOfFails       int    `json:"totalNumberOfFails" yaml:"total_number_of_fails"`
	MigratedCases            string `json:"migratedCases" yaml:"migrated_cases"`
	SkippedCases             string `json:"skippedCases" yaml:"skipped_cases"`
	FailedCases              string `json:"failedCases" yaml:"failed_cases"`
}

// Tracker accumulates the outcome of a run. It is owned by a single driver
// and is not safe for concurrent use.
type Tracker struct {
	outcome Outcome
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordAttempt counts a case that reached processing.
func (t *Tracker) RecordAttempt() {
	t.outcome.TotalNumberOfCases++
}

// RecordSuccess counts a completed migration.
func (t *Tracker) RecordSuccess(caseID string) {
	t.outcome.TotalMigrationsPerformed++
	t.outcome.MigratedCases = appendLedger(t.outcome.MigratedCases, caseID)
}

// RecordFailure counts a failed migration.
func (t *Tracker) RecordFailure(caseID string) {
	t.outcome.TotalNumberOfFails++
	t.outcome.FailedCases = appendLedger(t.outcome.FailedCases, caseID)
}

// RecordSkip counts a case that was left untouched.
func (t *Tracker) RecordSkip(caseID string) {
	t.outcome.TotalNumberOfSkips++
	t.outcome.SkippedCases = appendLedger(t.outcome.SkippedCases, caseID)
}

// Snapshot returns a copy of the current outcome.
func (t *Tracker) Snapshot() Outcome {
	return t.outcome
}

func appendLedger(ledger, caseID string) string {
	if ledger == "" {
		return caseID
	}
	return ledger + "," + caseID
}
