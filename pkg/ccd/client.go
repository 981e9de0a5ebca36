// Package ccd is a client for the case-management data store REST API.
//
// Only the caseworker operations needed by a case migration are implemented:
// fetching a case, searching a case type page by page, and starting and
// submitting an event against a case.
package ccd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-hclog"
)

const serviceAuthorizationHeader = "ServiceAuthorization"

// Client talks to the CCD data store.
type Client struct {
	config *Config
	client *http.Client
	logger hclog.Logger
}

// NewClient creates a new data store client.
func NewClient(cfg *Config, logger hclog.Logger) (*Client, error) {
	if cfg.TLSVerify == nil {
		cfg.TLSVerify = DefaultConfig().TLSVerify
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ccd client config: %w", err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Client{
		config: cfg,
		client: cfg.NewHTTPClient(),
		logger: logger.Named("ccd"),
	}, nil
}

// GetCase fetches a single case by id.
func (c *Client) GetCase(ctx context.Context, s Session, caseID string) (*CaseDetails, error) {
	var details CaseDetails
	path := "/cases/" + url.PathEscape(caseID)
	if err := c.doRequest(ctx, s, http.MethodGet, path, nil, nil, &details); err != nil {
		return nil, fmt.Errorf("failed to get case %s: %w", caseID, err)
	}
	return &details, nil
}

// SearchForCaseworker returns one page of cases of the given type. The page is
// selected with the "page" entry of criteria.
func (c *Client) SearchForCaseworker(ctx context.Context, s Session, jurisdictionID, caseType string, criteria map[string]string) ([]CaseDetails, error) {
	var cases []CaseDetails
	path := c.caseworkerPath(s, jurisdictionID, caseType) + "/cases"
	if err := c.doRequest(ctx, s, http.MethodGet, path, criteria, nil, &cases); err != nil {
		return nil, fmt.Errorf("failed to search %s cases: %w", caseType, err)
	}
	return cases, nil
}

// PaginationInfoForSearchForCaseworkers returns the page count for a search.
func (c *Client) PaginationInfoForSearchForCaseworkers(ctx context.Context, s Session, jurisdictionID, caseType string, criteria map[string]string) (*PaginatedSearchMetadata, error) {
	var meta PaginatedSearchMetadata
	path := c.caseworkerPath(s, jurisdictionID, caseType) + "/cases/pagination_metadata"
	if err := c.doRequest(ctx, s, http.MethodGet, path, criteria, nil, &meta); err != nil {
		return nil, fmt.Errorf("failed to get pagination metadata for %s: %w", caseType, err)
	}
	return &meta, nil
}

// StartEventForCaseworker starts eventID on a case and returns the event token.
func (c *Client) StartEventForCaseworker(ctx context.Context, s Session, jurisdictionID, caseType, caseID, eventID string) (*StartEventResponse, error) {
	var resp StartEventResponse
	path := fmt.Sprintf("%s/cases/%s/event-triggers/%s/token",
		c.caseworkerPath(s, jurisdictionID, caseType), url.PathEscape(caseID), url.PathEscape(eventID))
	if err := c.doRequest(ctx, s, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to start event %s on case %s: %w", eventID, caseID, err)
	}
	return &resp, nil
}

// SubmitEventForCaseworker submits a previously started event.
func (c *Client) SubmitEventForCaseworker(ctx context.Context, s Session, jurisdictionID, caseType, caseID string, ignoreWarning bool, content CaseDataContent) (*CaseDetails, error) {
	var details CaseDetails
	path := fmt.Sprintf("%s/cases/%s/events", c.caseworkerPath(s, jurisdictionID, caseType), url.PathEscape(caseID))
	query := map[string]string{"ignore-warning": fmt.Sprintf("%t", ignoreWarning)}
	if err := c.doRequest(ctx, s, http.MethodPost, path, query, content, &details); err != nil {
		return nil, fmt.Errorf("failed to submit event %s on case %s: %w", content.Event.ID, caseID, err)
	}
	return &details, nil
}

func (c *Client) caseworkerPath(s Session, jurisdictionID, caseType string) string {
	return fmt.Sprintf("/caseworkers/%s/jurisdictions/%s/case-types/%s",
		url.PathEscape(s.UserID), url.PathEscape(jurisdictionID), url.PathEscape(caseType))
}

// buildURL constructs a URL with query parameters.
func (c *Client) buildURL(path string, params map[string]string) (string, error) {
	u, err := url.Parse(c.config.BaseURL + path)
	if err != nil {
		return "", fmt.Errorf("invalid request URL: %w", err)
	}

	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// doRequest executes a single HTTP request and decodes the JSON response into
// result. Failures are not retried.
func (c *Client) doRequest(ctx context.Context, s Session, method, path string, params map[string]string, body, result any) error {
	endpoint, err := c.buildURL(path, params)
	if err != nil {
		return err
	}

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", s.UserToken)
	req.Header.Set(serviceAuthorizationHeader, s.ServiceToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Trace("sending request", "method", method, "path", path)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
