package ccd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hmcts/finrem-ccd-data-migrator/pkg/casedata"
)

// Known Financial Remedy case types and defaults.
const (
	CaseTypeConsented = "FinancialRemedyMVP2"
	CaseTypeContested = "FinancialRemedyContested"

	DefaultJurisdiction = "divorce"
)

// CaseDetails represents a case as returned by the data store.
// It does not represent the full response, just what the migration uses.
type CaseDetails struct {
	ID           int64          `json:"id"`
	Jurisdiction string         `json:"jurisdiction,omitempty"`
	CaseTypeID   string         `json:"case_type_id,omitempty"`
	State        string         `json:"state,omitempty"`
	CreatedDate  string         `json:"created_date,omitempty"`
	LastModified string         `json:"last_modified,omitempty"`
	Data         map[string]any `json:"case_data,omitempty"`
}

// UnmarshalJSON accepts both the caseworker shape ("case_type_id",
// "case_data", numeric id) and the v2 /cases shape ("case_type", "data",
// id as a string).
func (c *CaseDetails) UnmarshalJSON(b []byte) error {
	type plain CaseDetails
	var aux struct {
		plain
		ID       json.Number    `json:"id"`
		CaseType string         `json:"case_type"`
		AltData  map[string]any `json:"data"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*c = CaseDetails(aux.plain)
	if aux.ID != "" {
		id, err := strconv.ParseInt(aux.ID.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid case id %q: %w", aux.ID, err)
		}
		c.ID = id
	}
	if c.CaseTypeID == "" {
		c.CaseTypeID = aux.CaseType
	}
	if c.Data == nil {
		c.Data = aux.AltData
	}
	return nil
}

// Reference returns the case id as it appears in URLs and ledgers.
func (c *CaseDetails) Reference() string {
	return strconv.FormatInt(c.ID, 10)
}

// Fields returns a typed view over the case data.
func (c *CaseDetails) Fields() casedata.Data {
	if c == nil {
		return nil
	}
	return casedata.Data(c.Data)
}

// PaginatedSearchMetadata is returned by the pagination metadata endpoint.
type PaginatedSearchMetadata struct {
	TotalPagesCount   int `json:"total_pages_count"`
	TotalResultsCount int `json:"total_results_count"`
}

// StartEventResponse is returned when an event is started on a case.
type StartEventResponse struct {
	Token       string       `json:"token"`
	EventID     string       `json:"event_id"`
	CaseDetails *CaseDetails `json:"case_details,omitempty"`
}

// Event describes the event being submitted.
type Event struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

// CaseDataContent is the body of a submit-event request.
type CaseDataContent struct {
	EventToken string `json:"event_token"`
	Event      Event  `json:"event"`
	Data       any    `json:"data"`
}

// Session carries the credentials a caseworker call is made with.
type Session struct {
	// UserToken is the IDAM bearer token, sent as Authorization.
	UserToken string
	// ServiceToken is the S2S token, sent as ServiceAuthorization.
	ServiceToken string
	// UserID is the IDAM user id used in caseworker URLs.
	UserID string
}
