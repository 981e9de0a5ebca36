// Package migration drives a case migration run against the data store.
//
// A run selects cases in one of three modes, filters them through an
// eligibility predicate and pushes each eligible case through a two-phase
// event (start, then submit). Every outcome is recorded in a Tracker.
package migration

import (
	"context"

	"github.com/hmcts/finrem-ccd-data-migrator/pkg/ccd"
)

// Event defaults.
const (
	DefaultEventID          = "FR_migrateCase"
	DefaultEventSummary     = "Migrate Case"
	DefaultEventDescription = "Migrate Case"

	// FRCEventID is the court-region event; it only applies to cases with a
	// region list set to "other".
	FRCEventID = "FR_migrateFrcCase"
)

// Mode is how cases are selected for a run.
type Mode string

const (
	ModeSingleCase Mode = "single-case"
	ModeFile       Mode = "file"
	ModeScan       Mode = "scan"
)

// CaseStatus is the result of processing one case.
type CaseStatus string

const (
	CaseStatusMigrated CaseStatus = "migrated"
	CaseStatusFailed   CaseStatus = "failed"
	CaseStatusSkipped  CaseStatus = "skipped"
)

// CaseAPI is the part of the data store client used by a run.
type CaseAPI interface {
	GetCase(ctx context.Context, s ccd.Session, caseID string) (*ccd.CaseDetails, error)
	SearchForCaseworker(ctx context.Context, s ccd.Session, jurisdictionID, caseType string, criteria map[string]string) ([]ccd.CaseDetails, error)
	PaginationInfoForSearchForCaseworkers(ctx context.Context, s ccd.Session, jurisdictionID, caseType string, criteria map[string]string) (*ccd.PaginatedSearchMetadata, error)
	StartEventForCaseworker(ctx context.Context, s ccd.Session, jurisdictionID, caseType, caseID, eventID string) (*ccd.StartEventResponse, error)
	SubmitEventForCaseworker(ctx context.Context, s ccd.Session, jurisdictionID, caseType, caseID string, ignoreWarning bool, content ccd.CaseDataContent) (*ccd.CaseDetails, error)
}

// TokenSource produces service tokens. A refreshing source lets long runs
// outlive a single token.
type TokenSource interface {
	Generate(ctx context.Context) (string, error)
}

// UpdateRequest describes one event submission against a case.
type UpdateRequest struct {
	CaseID      string
	CaseType    string
	Data        map[string]any
	EventID     string
	Summary     string
	Description string
}

// CaseUpdater applies an event to a case.
type CaseUpdater interface {
	Update(ctx context.Context, req UpdateRequest) (*ccd.CaseDetails, error)
}

var (
	_ CaseAPI     = (*ccd.Client)(nil)
	_ CaseUpdater = (*Mutator)(nil)
)
