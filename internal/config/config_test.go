package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmcts/finrem-ccd-data-migrator/pkg/ccd"
	"github.com/hmcts/finrem-ccd-data-migrator/pkg/eligibility"
)

const validConfig = `
idam {
  url           = "http://localhost:4501"
  redirect_url  = "http://localhost:8080/oauth2/callback"
  client_id     = "finrem"
  client_secret = "file-secret"
  username      = "migrator@hmcts.net"
  password      = "password"
}

s2s {
  url            = "http://localhost:4502"
  secret         = "AAAAAAAAAAAAAAAA"
  replace_bearer = true
  refresh_delta  = "2m"
}

ccd {
  data_store_url = "http://localhost:4452"
  timeout        = "45s"
}

migration {
  dry_run     = false
  strategy    = "contested"
  event_id    = "FR_migrateFrcCase"
  use_ruleset = "pending-consent-orders"

  search_criteria = {
    state = "caseAdded"
  }

  ruleset "pending-consent-orders" {
    description = "Consented cases holding a consent order"
    conditions = {
      case_type     = "FinancialRemedyMVP2"
      field_present = "latest_consent_order"
    }
  }
}
`

// Helper function to write a config file into a temp dir.
func createTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "migration.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		cfg, err := LoadConfig(createTempFile(t, validConfig))
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, "finrem", cfg.IDAM.ClientID)
		assert.True(t, cfg.S2S.ReplaceBearer)
		assert.Equal(t, "finrem_ccd_data_migrator", cfg.S2S.Microservice)
		assert.Equal(t, ccd.DefaultJurisdiction, cfg.CCD.JurisdictionID)
		assert.Equal(t, []string{ccd.CaseTypeConsented, ccd.CaseTypeContested}, cfg.CCD.CaseTypes)
		assert.False(t, cfg.DryRun())
		assert.Equal(t, "Migrate Case", cfg.Migration.EventSummary)
		assert.Equal(t, map[string]string{"state": "caseAdded"}, cfg.Migration.SearchCriteria)

		require.Len(t, cfg.Migration.Rulesets, 1)
		assert.Equal(t, "pending-consent-orders", cfg.Migration.Rulesets[0].Name)
		assert.Equal(t, "latest_consent_order", cfg.Migration.Rulesets[0].Conditions["field_present"])
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := LoadConfig("/nonexistent/migration.hcl")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration file not found")
	})

	t.Run("empty filename", func(t *testing.T) {
		_, err := LoadConfig("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration file path is required")
	})

	t.Run("invalid HCL", func(t *testing.T) {
		_, err := LoadConfig(createTempFile(t, "idam {\n  url = \n}"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse configuration file")
	})

	t.Run("empty file gets defaults", func(t *testing.T) {
		cfg, err := LoadConfig(createTempFile(t, ""))
		require.NoError(t, err)
		assert.True(t, cfg.DryRun())
		assert.Equal(t, eligibility.DefaultStrategy, cfg.Migration.Strategy)
	})
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvIDAMUsername, "env-user")
	t.Setenv(EnvIDAMPassword, "env-password")
	t.Setenv(EnvIDAMClientSecret, "env-secret")
	t.Setenv(EnvS2SSecret, "BBBBBBBBBBBBBBBB")
	t.Setenv(EnvCCDDataStoreURL, "http://ccd.internal")

	cfg, err := LoadConfig(createTempFile(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "env-user", cfg.IDAM.Username)
	assert.Equal(t, "env-password", cfg.IDAM.Password)
	assert.Equal(t, "env-secret", cfg.IDAM.ClientSecret)
	assert.Equal(t, "BBBBBBBBBBBBBBBB", cfg.S2S.Secret)
	assert.Equal(t, "http://ccd.internal", cfg.CCD.DataStoreURL)
}

func TestValidate_ReportsEveryMissingField(t *testing.T) {
	err := Default().Validate()
	require.Error(t, err)

	msg := err.Error()
	for _, want := range []string{"idam:", "s2s:", "ccd:", "URL", "ClientID", "Password", "Secret", "DataStoreURL"} {
		assert.Contains(t, msg, want)
	}
}

func TestValidate_MigrationSettings(t *testing.T) {
	cfg, err := LoadConfig(createTempFile(t, validConfig))
	require.NoError(t, err)

	cfg.Migration.CaseID = "1111"
	cfg.Migration.File = "cases.csv"
	cfg.Migration.UseRuleset = "missing"
	cfg.CCD.Timeout = "soon"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "case_id and file cannot both be set")
	assert.Contains(t, err.Error(), `ruleset "missing" is not defined`)
	assert.Contains(t, err.Error(), "must be a duration")
}

func TestValidate_UnknownStrategy(t *testing.T) {
	cfg, err := LoadConfig(createTempFile(t, validConfig))
	require.NoError(t, err)

	cfg.Migration.UseRuleset = ""
	cfg.Migration.Strategy = "everything"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown eligibility strategy")
}

func TestPredicate(t *testing.T) {
	cfg, err := LoadConfig(createTempFile(t, validConfig))
	require.NoError(t, err)

	pred, err := cfg.Predicate()
	require.NoError(t, err)

	withOrder := &ccd.CaseDetails{
		CaseTypeID: ccd.CaseTypeConsented,
		Data:       map[string]any{"latestConsentOrder": map[string]any{"document_url": "http://dm/1"}},
	}
	assert.True(t, pred.Eligible(withOrder))
	assert.False(t, pred.Eligible(&ccd.CaseDetails{CaseTypeID: ccd.CaseTypeConsented, Data: map[string]any{}}))

	cfg.Migration.UseRuleset = ""
	pred, err = cfg.Predicate()
	require.NoError(t, err)
	assert.True(t, pred.Eligible(&ccd.CaseDetails{CaseTypeID: ccd.CaseTypeContested, Data: map[string]any{}}))
}

func TestClientConfigs(t *testing.T) {
	cfg, err := LoadConfig(createTempFile(t, validConfig))
	require.NoError(t, err)

	ccdCfg := cfg.CCDConfig()
	assert.Equal(t, "http://localhost:4452", ccdCfg.BaseURL)
	assert.Equal(t, 45*time.Second, ccdCfg.Timeout)

	s2sCfg := cfg.S2SConfig()
	assert.Equal(t, 2*time.Minute, s2sCfg.RefreshDelta)
	assert.Zero(t, s2sCfg.Timeout)
	assert.True(t, s2sCfg.ReplaceBearer)

	idamCfg := cfg.IDAMConfig()
	assert.Equal(t, "http://localhost:4501", idamCfg.BaseURL)
	assert.Equal(t, "http://localhost:8080/oauth2/callback", idamCfg.RedirectURL)
}
