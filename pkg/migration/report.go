package migration

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Report describes a finished run.
type Report struct {
	RunID      string    `json:"runId" yaml:"run_id"`
	Mode       Mode      `json:"mode" yaml:"mode"`
	DryRun     bool      `json:"dryRun" yaml:"dry_run"`
	EventID    string    `json:"eventId" yaml:"event_id"`
	CaseTypes  []string  `json:"caseTypes,omitempty" yaml:"case_types,omitempty"`
	StartedAt  time.Time `json:"startedAt" yaml:"started_at"`
	FinishedAt time.Time `json:"finishedAt" yaml:"finished_at"`
	Errors     []string  `json:"errors,omitempty" yaml:"errors,omitempty"`
	Outcome    Outcome   `json:"outcome" yaml:"outcome"`
}

// WriteReport writes r to path. Files ending in .yaml or .yml are written as
// YAML, anything else as JSON.
func WriteReport(fs afero.Fs, path string, r *Report) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(r)
	default:
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// SummaryLines renders the end-of-run summary.
func SummaryLines(o Outcome) []string {
	return []string{
		fmt.Sprintf("Migrated Cases: %s", orNone(o.MigratedCases)),
		"-----------------------------",
		"Data migration completed",
		"-----------------------------",
		fmt.Sprintf("Total number of cases: %d", o.TotalNumberOfCases),
		fmt.Sprintf("Total migrations performed: %d", o.TotalMigrationsPerformed),
		fmt.Sprintf("Total cases skipped: %d", o.TotalNumberOfSkips),
		fmt.Sprintf("Total cases failed: %d", o.TotalNumberOfFails),
		"-----------------------------",
		fmt.Sprintf("Skipped Cases: %s", orNone(o.SkippedCases)),
		fmt.Sprintf("Failed Cases: %s", orNone(o.FailedCases)),
	}
}

func orNone(ledger string) string {
	if strings.TrimSpace(ledger) == "" {
		return "NONE"
	}
	return ledger
}
