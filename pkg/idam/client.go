// Package idam acquires user tokens from the identity provider and resolves
// the user behind a token.
package idam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

// BearerPrefix is prepended to tokens sent in Authorization headers.
const BearerPrefix = "Bearer "

// ErrAuthentication is returned when the identity provider rejects the
// credentials or answers with a non-2xx status.
var ErrAuthentication = errors.New("idam authentication failed")

// Config contains the identity provider settings.
type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration
}

// UserDetails is the response of GET /details.
type UserDetails struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Forename string   `json:"forename"`
	Surname  string   `json:"surname"`
	Roles    []string `json:"roles"`
}

// Client talks to the identity provider.
type Client struct {
	config *Config
	http   *http.Client
	oauth  *oauth2.Config
	logger hclog.Logger
}

// NewClient creates a new identity provider client.
func NewClient(cfg *Config, logger hclog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("idam base URL is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("idam client id is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	base := strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/oauth2/authorize",
				TokenURL:  base + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		logger: logger.Named("idam"),
	}, nil
}

// GenerateUserToken logs in with username and password and returns a bearer
// token ("Bearer <access token>").
//
// The login is an authorization-code flow: the credentials are posted to the
// authorize endpoint with Basic auth, and the returned code is exchanged for
// an access token.
func (c *Client) GenerateUserToken(ctx context.Context, username, password string) (string, error) {
	code, err := c.authorize(ctx, username, password)
	if err != nil {
		return "", err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return "", fmt.Errorf("%w: token exchange returned status %d: %s",
				ErrAuthentication, retrieveErr.Response.StatusCode, string(retrieveErr.Body))
		}
		return "", fmt.Errorf("%w: token exchange failed: %v", ErrAuthentication, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%w: token response has no access_token", ErrAuthentication)
	}

	c.logger.Debug("user token acquired", "username", username)
	return BearerPrefix + token.AccessToken, nil
}

func (c *Client) authorize(ctx context.Context, username, password string) (string, error) {
	u, err := url.Parse(c.oauth.Endpoint.AuthURL)
	if err != nil {
		return "", fmt.Errorf("invalid authorize URL: %w", err)
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.config.ClientID)
	q.Set("redirect_uri", c.config.RedirectURL)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(username, password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: authorize request failed: %v", ErrAuthentication, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read authorize response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: token generation failed with code: %d body: %s",
			ErrAuthentication, resp.StatusCode, string(body))
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: failed to decode authorize response: %v", ErrAuthentication, err)
	}
	if payload.Code == "" {
		return "", fmt.Errorf("%w: authorize response has no code", ErrAuthentication)
	}
	return payload.Code, nil
}

// RetrieveUserDetails resolves the user a token belongs to.
func (c *Client) RetrieveUserDetails(ctx context.Context, token string) (*UserDetails, error) {
	endpoint := strings.TrimSuffix(c.config.BaseURL, "/") + "/details"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", BearerToken(token))
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user details request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("user details returned status %d: %s", resp.StatusCode, string(body))
	}

	var details UserDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return nil, fmt.Errorf("failed to decode user details: %w", err)
	}
	if details.ID == "" {
		return nil, fmt.Errorf("user details response has no id")
	}
	return &details, nil
}

// BearerToken prefixes token with "Bearer " unless it is blank or already
// prefixed.
func BearerToken(token string) string {
	if strings.TrimSpace(token) == "" {
		return token
	}
	if strings.HasPrefix(token, BearerPrefix) {
		return token
	}
	return BearerPrefix + token
}
