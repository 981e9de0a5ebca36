package migrate

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/hmcts/finrem-ccd-data-migrator/internal/cmd/base"
	"github.com/hmcts/finrem-ccd-data-migrator/internal/config"
	"github.com/hmcts/finrem-ccd-data-migrator/pkg/ccd"
	"github.com/hmcts/finrem-ccd-data-migrator/pkg/idam"
	"github.com/hmcts/finrem-ccd-data-migrator/pkg/migration"
	"github.com/hmcts/finrem-ccd-data-migrator/pkg/s2s"
)

type Command struct {
	*base.Command

	flagConfig   string
	flagCaseID   string
	flagFile     string
	flagDryRun   bool
	flagDebug    bool
	flagEvent    string
	flagStrategy string
	flagRuleset  string
	flagReport   string

	// Fs is where case id files are read and reports written. Defaults to the
	// OS filesystem.
	Fs afero.Fs
}

func (c *Command) Synopsis() string {
	return "Migrate cases by submitting an event to each eligible case"
}

func (c *Command) Help() string {
	return `Usage: ccd-migrate migrate -config=migration.hcl [options]

  This command logs in to IDAM, obtains a service token and submits the
  migration event to cases in the data store.

  Cases are selected in one of three modes:
    -case-id=1111         - a single case, if it is eligible
    -file=cases.csv       - every case listed in the file, one id per line
    (neither)             - every eligible case of the configured case types

  Runs are dry runs unless disabled: a dry run scan migrates only the
  first eligible case it finds.` +
		c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(
		flag.NewFlagSet("migrate", flag.ContinueOnError))

	f.StringVar(
		&c.flagConfig, "config", "", "(Required) Path to the migration config file.",
	)
	f.StringVar(
		&c.flagCaseID, "case-id", "", "Migrate only this case.",
	)
	f.StringVar(
		&c.flagFile, "file", "", "Migrate the cases listed in this file.",
	)
	f.BoolVar(
		&c.flagDryRun, "dry-run", true,
		"Migrate only the first eligible case of a scan.",
	)
	f.BoolVar(
		&c.flagDebug, "debug", false,
		"Enable debug logging, including case data before submission.",
	)
	f.StringVar(
		&c.flagEvent, "event", "", "Event id to submit instead of the default.",
	)
	f.StringVar(
		&c.flagStrategy, "strategy", "", "Named eligibility strategy.",
	)
	f.StringVar(
		&c.flagRuleset, "ruleset", "", "Name of a configured ruleset to select cases with.",
	)
	f.StringVar(
		&c.flagReport, "report", "",
		"Write a run report to this path (.json, .yaml or .yml).",
	)

	return f
}

func (c *Command) Run(args []string) int {
	logger, ui := c.Log, c.UI

	// Parse flags.
	flags := c.Flags()
	if err := flags.Parse(args); err != nil {
		ui.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	// Validate flags.
	if c.flagConfig == "" {
		ui.Error("config flag is required")
		return 1
	}

	// Parse configuration.
	cfg, err := config.LoadConfig(c.flagConfig)
	if err != nil {
		ui.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}
	c.applyFlags(flags, cfg)

	if err := cfg.Validate(); err != nil {
		ui.Error(fmt.Sprintf("invalid configuration: %v", err))
		return 1
	}

	predicate, err := cfg.Predicate()
	if err != nil {
		ui.Error(fmt.Sprintf("error building eligibility predicate: %v", err))
		return 1
	}

	if cfg.Migration.Debug {
		logger.SetLevel(hclog.Debug)
	}
	if c.Fs == nil {
		c.Fs = afero.NewOsFs()
	}

	ctx := context.Background()

	session, tokens, err := c.authenticate(ctx, cfg)
	if err != nil {
		ui.Error(fmt.Sprintf("error authenticating: %v", err))
		return 1
	}

	client, err := ccd.NewClient(cfg.CCDConfig(), logger)
	if err != nil {
		ui.Error(fmt.Sprintf("error initializing ccd client: %v", err))
		return 1
	}

	driver := migration.NewDriver(client, session, migration.DriverConfig{
		JurisdictionID: cfg.CCD.JurisdictionID,
		DryRun:         cfg.DryRun(),
		Debug:          cfg.Migration.Debug,
		EventID:        cfg.Migration.EventID,
		Summary:        cfg.Migration.EventSummary,
		Description:    cfg.Migration.EventDescription,
		SearchCriteria: cfg.Migration.SearchCriteria,
		Predicate:      predicate,
		ServiceTokens:  tokens,
		Fs:             c.Fs,
	}, logger)

	report := &migration.Report{
		RunID:     driver.RunID(),
		DryRun:    cfg.DryRun(),
		EventID:   driver.EventID(),
		StartedAt: time.Now().UTC(),
	}

	logger.Info("start processing cases", "event_id", driver.EventID(), "run_id", driver.RunID())
	if cfg.DryRun() {
		ui.Warn("DRY RUN mode enabled - a scan migrates only the first eligible case of each case type")
	}

	switch {
	case strings.TrimSpace(cfg.Migration.CaseID) != "":
		report.Mode = migration.ModeSingleCase
		logger.Info("migrate single case", "case_id", cfg.Migration.CaseID)
		driver.ProcessSingleCase(ctx, strings.TrimSpace(cfg.Migration.CaseID))

	case strings.TrimSpace(cfg.Migration.File) != "":
		report.Mode = migration.ModeFile
		logger.Info("migrate cases in file", "file", cfg.Migration.File)
		if err := driver.ProcessCasesInFile(ctx, cfg.Migration.File); err != nil {
			ui.Error(fmt.Sprintf("error reading case id file: %v", err))
			return 1
		}

	default:
		report.Mode = migration.ModeScan
		report.CaseTypes = cfg.CCD.CaseTypes
		for _, caseType := range cfg.CCD.CaseTypes {
			logger.Info("migrate case type", "case_type", caseType)
			if err := driver.ProcessAllCases(ctx, caseType); err != nil {
				logger.Error("error migrating case type", "case_type", caseType, "error", err)
				report.Errors = append(report.Errors, err.Error())
			}
		}
	}

	report.FinishedAt = time.Now().UTC()
	report.Outcome = driver.Outcome()

	// Final summary.
	ui.Info("")
	for _, line := range migration.SummaryLines(report.Outcome) {
		ui.Info(line)
	}

	if cfg.Migration.Report != "" {
		if err := migration.WriteReport(c.Fs, cfg.Migration.Report, report); err != nil {
			ui.Error(fmt.Sprintf("error writing report: %v", err))
			return 1
		}
		ui.Info(fmt.Sprintf("Report written to %s", cfg.Migration.Report))
	}

	return 0
}

// applyFlags lets explicitly set flags override the config file.
func (c *Command) applyFlags(flags *base.FlagSet, cfg *config.Config) {
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "case-id":
			cfg.Migration.CaseID = c.flagCaseID
		case "file":
			cfg.Migration.File = c.flagFile
		case "dry-run":
			dryRun := c.flagDryRun
			cfg.Migration.DryRun = &dryRun
		case "debug":
			cfg.Migration.Debug = c.flagDebug
		case "event":
			cfg.Migration.EventID = c.flagEvent
		case "strategy":
			cfg.Migration.Strategy = c.flagStrategy
			cfg.Migration.UseRuleset = ""
		case "ruleset":
			cfg.Migration.UseRuleset = c.flagRuleset
		case "report":
			cfg.Migration.Report = c.flagReport
		}
	})
}

// authenticate obtains the user token, the service token and the user id.
// The returned token source refreshes the service token during the run.
func (c *Command) authenticate(ctx context.Context, cfg *config.Config) (ccd.Session, migration.TokenSource, error) {
	logger := c.Log

	idamClient, err := idam.NewClient(cfg.IDAMConfig(), logger)
	if err != nil {
		return ccd.Session{}, nil, err
	}
	userToken, err := idamClient.GenerateUserToken(ctx, cfg.IDAM.Username, cfg.IDAM.Password)
	if err != nil {
		return ccd.Session{}, nil, err
	}

	generator, err := s2s.NewGenerator(cfg.S2SConfig(), logger)
	if err != nil {
		return ccd.Session{}, nil, err
	}
	serviceToken, err := generator.Generate(ctx)
	if err != nil {
		return ccd.Session{}, nil, fmt.Errorf("error generating service token: %w", err)
	}

	user, err := idamClient.RetrieveUserDetails(ctx, userToken)
	if err != nil {
		return ccd.Session{}, nil, fmt.Errorf("error retrieving user details: %w", err)
	}

	logger.Debug("authenticated",
		"user_token", mask(userToken),
		"service_token", mask(serviceToken),
		"user_id", user.ID,
	)

	return ccd.Session{
		UserToken:    idam.BearerToken(userToken),
		ServiceToken: serviceToken,
		UserID:       user.ID,
	}, generator, nil
}

// mask keeps a short prefix of a token for logs.
func mask(token string) string {
	const keep = 12
	if len(token) <= keep {
		return strings.Repeat("*", len(token))
	}
	return token[:keep] + "..."
}
