package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_LedgerFormat(t *testing.T) {
	tracker := NewTracker()
	for _, id := range []string{"1111", "1112", "1113"} {
		tracker.RecordAttempt()
		tracker.RecordSuccess(id)
	}

	outcome := tracker.Snapshot()
	assert.Equal(t, "1111,1112,1113", outcome.MigratedCases)
	assert.Equal(t, 3, outcome.TotalNumberOfCases)
	assert.Equal(t, 3, outcome.TotalMigrationsPerformed)
}

func TestTracker_LedgersAreAppendOnly(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordFailure("2")
	tracker.RecordFailure("1")
	tracker.RecordFailure("2")
	tracker.RecordSkip("9")

	outcome := tracker.Snapshot()
	assert.Equal(t, "2,1,2", outcome.FailedCases, "never reordered or deduplicated")
	assert.Equal(t, 3, outcome.TotalNumberOfFails)
	assert.Equal(t, "9", outcome.SkippedCases)
	assert.Equal(t, 1, outcome.TotalNumberOfSkips)
	assert.Empty(t, outcome.MigratedCases)
	assert.Equal(t, 0, outcome.TotalMigrationsPerformed)
	assert.Equal(t, 0, outcome.TotalNumberOfCases, "attempts are counted separately")
}

func TestTracker_SnapshotIsACopy(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordSuccess("1")

	before := tracker.Snapshot()
	tracker.RecordSuccess("2")

	assert.Equal(t, "1", before.MigratedCases)
	assert.Equal(t, "1,2", tracker.Snapshot().MigratedCases)
}
