package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/hmcts/finrem-ccd-data-migrator/pkg/ccd"
	"github.com/hmcts/finrem-ccd-data-migrator/pkg/eligibility"
)

// DriverConfig configures a migration run.
type DriverConfig struct {
	JurisdictionID string

	// DryRun migrates only the first eligible case of a scan.
	DryRun bool

	// Debug logs case data before each submission.
	Debug bool

	// EventID overrides the event submitted for every case.
	EventID     string
	Summary     string
	Description string

	// SearchCriteria is sent with every scan request.
	SearchCriteria map[string]string

	// Predicate selects cases during a scan and in single-case mode.
	Predicate eligibility.Predicate

	// EventFilters restrict events to the cases their predicate accepts.
	// Cases rejected by the filter of the chosen event are skipped.
	EventFilters map[string]eligibility.Predicate

	// ServiceTokens refreshes the service token per update when set.
	ServiceTokens TokenSource

	// Updater replaces the default start/submit Mutator.
	Updater CaseUpdater

	// Fs is where case id files are read from.
	Fs afero.Fs
}

// DefaultEventFilters returns the built-in event filters.
func DefaultEventFilters() map[string]eligibility.Predicate {
	return map[string]eligibility.Predicate{
		FRCEventID: eligibility.FRCRegionOther(),
	}
}

// Driver runs a migration. A Driver is used for one run and is not safe for
// concurrent use.
type Driver struct {
	api     CaseAPI
	session ccd.Session
	cfg     DriverConfig
	pager   *Pager
	updater CaseUpdater
	tracker *Tracker
	runID   string
	logger  hclog.Logger
}

// NewDriver creates a driver acting as the session's user.
func NewDriver(api CaseAPI, session ccd.Session, cfg DriverConfig, logger hclog.Logger) *Driver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if cfg.JurisdictionID == "" {
		cfg.JurisdictionID = ccd.DefaultJurisdiction
	}
	if cfg.Summary == "" {
		cfg.Summary = DefaultEventSummary
	}
	if cfg.Description == "" {
		cfg.Description = DefaultEventDescription
	}
	if cfg.Predicate == nil {
		cfg.Predicate, _ = eligibility.Lookup(eligibility.DefaultStrategy)
	}
	if cfg.EventFilters == nil {
		cfg.EventFilters = DefaultEventFilters()
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}

	runID := uuid.New().String()
	logger = logger.Named("migration-driver").With("run_id", runID)

	updater := cfg.Updater
	if updater == nil {
		updater = NewMutator(api, session, cfg.JurisdictionID, cfg.ServiceTokens, logger)
	}

	return &Driver{
		api:     api,
		session: session,
		cfg:     cfg,
		pager:   NewPager(api, session, cfg.JurisdictionID),
		updater: updater,
		tracker: NewTracker(),
		runID:   runID,
		logger:  logger,
	}
}

// RunID identifies this run in logs and reports.
func (d *Driver) RunID() string {
	return d.runID
}

// EventID returns the event submitted to each case.
func (d *Driver) EventID() string {
	if strings.TrimSpace(d.cfg.EventID) != "" {
		return strings.TrimSpace(d.cfg.EventID)
	}
	return DefaultEventID
}

// Outcome returns a snapshot of the run's counters and ledgers.
func (d *Driver) Outcome() Outcome {
	return d.tracker.Snapshot()
}

// ProcessSingleCase migrates one case if it is eligible. A case that cannot be
// fetched is logged and not counted.
func (d *Driver) ProcessSingleCase(ctx context.Context, caseID string) {
	c, err := d.api.GetCase(ctx, d.session, caseID)
	if err != nil || c == nil {
		d.logger.Error("case not found", "case_id", caseID, "error", err)
		return
	}

	if !d.cfg.Predicate.Eligible(c) {
		d.tracker.RecordAttempt()
		d.tracker.RecordSkip(c.Reference())
		d.logger.Info("case doesn't meet migration criteria", "case_id", c.Reference())
		return
	}

	d.migrateCase(ctx, c, c.CaseTypeID)
}

// ProcessCasesInFile migrates every case listed in the file at path. Listed
// cases are not filtered by eligibility. Only a failure to read the file is
// returned; cases that cannot be fetched are logged and skipped.
func (d *Driver) ProcessCasesInFile(ctx context.Context, path string) error {
	list, err := ReadCaseIDs(d.cfg.Fs, path)
	if err != nil {
		return err
	}

	d.logger.Info("extracted case ids from file",
		"file", path, "unique", len(list.IDs), "duplicates", list.Duplicates)

	for _, caseID := range list.IDs {
		c, err := d.api.GetCase(ctx, d.session, caseID)
		if err != nil || c == nil {
			d.logger.Error("case not found", "case_id", caseID, "error", err)
			continue
		}
		d.migrateCase(ctx, c, c.CaseTypeID)
	}

	return nil
}

// ProcessAllCases scans every page of caseType and migrates the eligible
// cases. In a dry run the scan stops after the first eligible case.
//
// A failure to count pages is returned immediately. A page that cannot be
// fetched is logged and skipped; such failures are returned together once the
// scan is complete.
func (d *Driver) ProcessAllCases(ctx context.Context, caseType string) error {
	logger := d.logger.With("case_type", caseType)

	pages, err := d.pager.CountPages(ctx, caseType, d.cfg.SearchCriteria)
	if err != nil {
		return fmt.Errorf("failed to count pages for %s: %w", caseType, err)
	}
	logger.Info("number of pages", "pages", pages)

	if d.cfg.DryRun {
		logger.Info("dry run, migrating one case")
	} else {
		logger.Info("migrating all the cases")
	}

	var result *multierror.Error
	for page := 1; page <= pages; page++ {
		cases, err := d.pager.FetchPage(ctx, caseType, d.cfg.SearchCriteria, page)
		if err != nil {
			logger.Error("error fetching page", "page", page, "error", err)
			result = multierror.Append(result, fmt.Errorf("page %d of %s: %w", page, caseType, err))
			continue
		}

		eligible := d.eligibleCases(cases)
		logger.Debug("page fetched", "page", page, "cases", len(cases), "eligible", len(eligible))

		if d.cfg.DryRun {
			if len(eligible) == 0 {
				continue
			}
			logger.Info("migrating case for the dry run", "case_id", eligible[0].Reference())
			d.migrateCase(ctx, eligible[0], caseType)
			break
		}

		for _, c := range eligible {
			d.migrateCase(ctx, c, caseType)
		}
	}

	return result.ErrorOrNil()
}

func (d *Driver) eligibleCases(cases []ccd.CaseDetails) []*ccd.CaseDetails {
	var eligible []*ccd.CaseDetails
	for i := range cases {
		if d.cfg.Predicate.Eligible(&cases[i]) {
			eligible = append(eligible, &cases[i])
		}
	}
	return eligible
}

// eventFilter returns the filter registered for eventID, matching the event
// id case-insensitively.
func (d *Driver) eventFilter(eventID string) (eligibility.Predicate, bool) {
	for id, filter := range d.cfg.EventFilters {
		if strings.EqualFold(id, eventID) {
			return filter, filter != nil
		}
	}
	return nil, false
}

// migrateCase submits the run's event to one case and records the result.
// Errors are recorded, never returned.
func (d *Driver) migrateCase(ctx context.Context, c *ccd.CaseDetails, caseType string) CaseStatus {
	d.tracker.RecordAttempt()

	caseID := c.Reference()
	eventID := d.EventID()
	logger := d.logger.With("case_id", caseID, "event_id", eventID)
	logger.Info("processing case")

	if filter, ok := d.eventFilter(eventID); ok && !filter.Eligible(c) {
		d.tracker.RecordSkip(caseID)
		logger.Info("case is not a migration candidate, skipping")
		return CaseStatusSkipped
	}

	if d.cfg.Debug {
		logger.Debug("case data", "data", c.Data)
	}

	_, err := d.updater.Update(ctx, UpdateRequest{
		CaseID:      caseID,
		CaseType:    caseType,
		Data:        c.Data,
		EventID:     eventID,
		Summary:     d.cfg.Summary,
		Description: d.cfg.Description,
	})
	if err != nil {
		var apiErr *ccd.APIError
		if errors.As(err, &apiErr) {
			logger.Error("update failed", "status", apiErr.StatusCode, "body", apiErr.Body)
		} else {
			logger.Error("update failed", "error", err)
		}
		d.tracker.RecordFailure(caseID)
		return CaseStatusFailed
	}

	logger.Debug("case updated")
	d.tracker.RecordSuccess(caseID)
	return CaseStatusMigrated
}
