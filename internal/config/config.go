// Package config loads the migration configuration from an HCL file, applies
// defaults and environment overrides, and validates the result.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/hmcts/finrem-ccd-data-migrator/pkg/ccd"
	"github.com/hmcts/finrem-ccd-data-migrator/pkg/eligibility"
	"github.com/hmcts/finrem-ccd-data-migrator/pkg/idam"
	"github.com/hmcts/finrem-ccd-data-migrator/pkg/migration"
	"github.com/hmcts/finrem-ccd-data-migrator/pkg/s2s"
)

// Environment variables that take precedence over the file.
const (
	EnvIDAMUsername     = "IDAM_USERNAME"
	EnvIDAMPassword     = "IDAM_PASSWORD"
	EnvIDAMClientSecret = "IDAM_CLIENT_SECRET"
	EnvS2SSecret        = "S2S_SECRET"
	EnvCCDDataStoreURL  = "CCD_DATA_STORE_URL"
)

const defaultMicroservice = "finrem_ccd_data_migrator"

// Config is the migration configuration.
type Config struct {
	IDAM      *IDAM      `hcl:"idam,block"`
	S2S       *S2S       `hcl:"s2s,block"`
	CCD       *CCD       `hcl:"ccd,block"`
	Migration *Migration `hcl:"migration,block"`
}

// IDAM configures the identity provider login.
type IDAM struct {
	URL          string `hcl:"url,optional"`
	RedirectURL  string `hcl:"redirect_url,optional"`
	ClientID     string `hcl:"client_id,optional"`
	ClientSecret string `hcl:"client_secret,optional"`
	Username     string `hcl:"username,optional"`
	Password     string `hcl:"password,optional"`
	Timeout      string `hcl:"timeout,optional"`
}

// S2S configures service token generation.
type S2S struct {
	URL           string `hcl:"url,optional"`
	Microservice  string `hcl:"microservice,optional"`
	Secret        string `hcl:"secret,optional"`
	ReplaceBearer bool   `hcl:"replace_bearer,optional"`
	RefreshDelta  string `hcl:"refresh_delta,optional"`
	Timeout       string `hcl:"timeout,optional"`
}

// CCD configures the data store.
type CCD struct {
	DataStoreURL   string   `hcl:"data_store_url,optional"`
	JurisdictionID string   `hcl:"jurisdiction_id,optional"`
	CaseTypes      []string `hcl:"case_types,optional"`
	TLSVerify      *bool    `hcl:"tls_verify,optional"`
	Timeout        string   `hcl:"timeout,optional"`
}

// Migration configures the run itself.
type Migration struct {
	CaseID           string            `hcl:"case_id,optional"`
	File             string            `hcl:"file,optional"`
	DryRun           *bool             `hcl:"dry_run,optional"`
	Debug            bool              `hcl:"debug,optional"`
	EventID          string            `hcl:"event_id,optional"`
	EventSummary     string            `hcl:"event_summary,optional"`
	EventDescription string            `hcl:"event_description,optional"`
	Strategy         string            `hcl:"strategy,optional"`
	UseRuleset       string            `hcl:"use_ruleset,optional"`
	SearchCriteria   map[string]string `hcl:"search_criteria,optional"`
	Report           string            `hcl:"report,optional"`

	Rulesets []eligibility.Ruleset `hcl:"ruleset,block"`
}

// LoadConfig reads the configuration file at path. Defaults and environment
// overrides are applied; the result is not validated.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("configuration file path is required")
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", path)
	}

	cfg := &Config{}
	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}

	cfg.setDefaults()
	cfg.applyEnv()

	return cfg, nil
}

// Default returns a configuration with every block present and defaults set.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.IDAM == nil {
		c.IDAM = &IDAM{}
	}
	if c.S2S == nil {
		c.S2S = &S2S{}
	}
	if c.CCD == nil {
		c.CCD = &CCD{}
	}
	if c.Migration == nil {
		c.Migration = &Migration{}
	}

	if c.S2S.Microservice == "" {
		c.S2S.Microservice = defaultMicroservice
	}
	if c.CCD.JurisdictionID == "" {
		c.CCD.JurisdictionID = ccd.DefaultJurisdiction
	}
	if len(c.CCD.CaseTypes) == 0 {
		c.CCD.CaseTypes = []string{ccd.CaseTypeConsented, ccd.CaseTypeContested}
	}
	if c.Migration.DryRun == nil {
		dryRun := true
		c.Migration.DryRun = &dryRun
	}
	if c.Migration.Strategy == "" {
		c.Migration.Strategy = eligibility.DefaultStrategy
	}
	if c.Migration.EventSummary == "" {
		c.Migration.EventSummary = migration.DefaultEventSummary
	}
	if c.Migration.EventDescription == "" {
		c.Migration.EventDescription = migration.DefaultEventDescription
	}
}

// applyEnv lets secrets and the data store URL come from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvIDAMUsername); v != "" {
		c.IDAM.Username = v
	}
	if v := os.Getenv(EnvIDAMPassword); v != "" {
		c.IDAM.Password = v
	}
	if v := os.Getenv(EnvIDAMClientSecret); v != "" {
		c.IDAM.ClientSecret = v
	}
	if v := os.Getenv(EnvS2SSecret); v != "" {
		c.S2S.Secret = v
	}
	if v := os.Getenv(EnvCCDDataStoreURL); v != "" {
		c.CCD.DataStoreURL = v
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := validation.ValidateStruct(c.IDAM,
		validation.Field(&c.IDAM.URL, validation.Required, is.URL),
		validation.Field(&c.IDAM.RedirectURL, validation.Required, is.URL),
		validation.Field(&c.IDAM.ClientID, validation.Required),
		validation.Field(&c.IDAM.ClientSecret, validation.Required),
		validation.Field(&c.IDAM.Username, validation.Required),
		validation.Field(&c.IDAM.Password, validation.Required),
		validation.Field(&c.IDAM.Timeout, validation.By(isDuration)),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("idam: %w", err))
	}

	if err := validation.ValidateStruct(c.S2S,
		validation.Field(&c.S2S.URL, validation.Required, is.URL),
		validation.Field(&c.S2S.Microservice, validation.Required),
		validation.Field(&c.S2S.Secret, validation.Required),
		validation.Field(&c.S2S.RefreshDelta, validation.By(isDuration)),
		validation.Field(&c.S2S.Timeout, validation.By(isDuration)),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("s2s: %w", err))
	}

	if err := validation.ValidateStruct(c.CCD,
		validation.Field(&c.CCD.DataStoreURL, validation.Required, is.URL),
		validation.Field(&c.CCD.JurisdictionID, validation.Required),
		validation.Field(&c.CCD.CaseTypes, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.CCD.Timeout, validation.By(isDuration)),
	); err != nil {
		result = multierror.Append(result, fmt.Errorf("ccd: %w", err))
	}

	if strings.TrimSpace(c.Migration.CaseID) != "" && strings.TrimSpace(c.Migration.File) != "" {
		result = multierror.Append(result, fmt.Errorf("migration: case_id and file cannot both be set"))
	}
	if err := eligibility.Rulesets(c.Migration.Rulesets).ValidateAll(); err != nil {
		result = multierror.Append(result, fmt.Errorf("migration: %w", err))
	}
	if _, err := c.Predicate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("migration: %w", err))
	}

	return result.ErrorOrNil()
}

// Predicate returns the eligibility predicate of the run: the named ruleset
// when use_ruleset is set, the named strategy otherwise.
func (c *Config) Predicate() (eligibility.Predicate, error) {
	if name := c.Migration.UseRuleset; name != "" {
		rs, ok := eligibility.Rulesets(c.Migration.Rulesets).Find(name)
		if !ok {
			return nil, fmt.Errorf("ruleset %q is not defined", name)
		}
		return rs.Predicate()
	}
	return eligibility.Lookup(c.Migration.Strategy)
}

// IDAMConfig returns the identity provider client settings.
func (c *Config) IDAMConfig() *idam.Config {
	return &idam.Config{
		BaseURL:      c.IDAM.URL,
		ClientID:     c.IDAM.ClientID,
		ClientSecret: c.IDAM.ClientSecret,
		RedirectURL:  c.IDAM.RedirectURL,
		Timeout:      duration(c.IDAM.Timeout),
	}
}

// S2SConfig returns the service token generator settings.
func (c *Config) S2SConfig() *s2s.Config {
	return &s2s.Config{
		BaseURL:       c.S2S.URL,
		Microservice:  c.S2S.Microservice,
		Secret:        c.S2S.Secret,
		RefreshDelta:  duration(c.S2S.RefreshDelta),
		Timeout:       duration(c.S2S.Timeout),
		ReplaceBearer: c.S2S.ReplaceBearer,
	}
}

// CCDConfig returns the data store client settings.
func (c *Config) CCDConfig() *ccd.Config {
	return &ccd.Config{
		BaseURL:   c.CCD.DataStoreURL,
		TLSVerify: c.CCD.TLSVerify,
		Timeout:   duration(c.CCD.Timeout),
	}
}

// DryRun reports whether the run is a dry run.
func (c *Config) DryRun() bool {
	return c.Migration.DryRun == nil || *c.Migration.DryRun
}

func isDuration(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("must be a duration such as \"30s\"")
	}
	if d <= 0 {
		return fmt.Errorf("must be positive")
	}
	return nil
}

// duration parses a validated duration. Empty strings yield zero, which
// clients replace with their own default.
func duration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
