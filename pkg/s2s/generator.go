// Package s2s generates service-to-service tokens.
//
// A token is leased from the service auth provider with a one-time password
// derived from the microservice's TOTP secret. Leased tokens are JWTs; they are
// cached and re-leased once they come within the refresh delta of expiry.
package s2s

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-hclog"
	"github.com/pquerna/otp/totp"
)

const bearerPrefix = "Bearer "

// Config contains the service auth provider settings.
type Config struct {
	BaseURL      string
	Microservice string
	Secret       string

	// RefreshDelta is how long before expiry a cached token is replaced.
	RefreshDelta time.Duration
	Timeout      time.Duration

	// ReplaceBearer strips the "Bearer " prefix from generated tokens.
	ReplaceBearer bool
}

// Generator leases and caches service tokens. It is safe for concurrent use.
type Generator struct {
	config *Config
	http   *http.Client
	logger hclog.Logger
	now    func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewGenerator creates a new token generator.
func NewGenerator(cfg *Config, logger hclog.Logger) (*Generator, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("s2s base URL is required")
	}
	if cfg.Microservice == "" {
		return nil, fmt.Errorf("s2s microservice is required")
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("s2s secret is required")
	}
	if cfg.RefreshDelta == 0 {
		cfg.RefreshDelta = time.Minute
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Generator{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.Named("s2s"),
		now:    time.Now,
	}, nil
}

// Generate returns a service token, leasing a new one when the cached token
// is missing or close to expiry.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token == "" || !g.now().Add(g.config.RefreshDelta).Before(g.expiry) {
		token, err := g.lease(ctx)
		if err != nil {
			return "", err
		}
		g.token = token
		g.expiry = expiryOf(token)
		g.logger.Debug("service token leased", "microservice", g.config.Microservice, "expires", g.expiry)
	}

	if g.config.ReplaceBearer {
		return g.token, nil
	}
	return bearerPrefix + g.token, nil
}

func (g *Generator) lease(ctx context.Context) (string, error) {
	code, err := totp.GenerateCode(g.config.Secret, g.now())
	if err != nil {
		return "", fmt.Errorf("failed to generate one-time password: %w", err)
	}

	body, err := json.Marshal(map[string]string{
		"microservice":    g.config.Microservice,
		"oneTimePassword": code,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal lease request: %w", err)
	}

	endpoint := strings.TrimSuffix(g.config.BaseURL, "/") + "/lease"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("lease request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read lease response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lease returned status %d: %s", resp.StatusCode, string(respBody))
	}

	token := strings.TrimPrefix(strings.TrimSpace(string(respBody)), bearerPrefix)
	if token == "" {
		return "", fmt.Errorf("lease returned an empty token")
	}
	return token, nil
}

// expiryOf reads the exp claim without verifying the signature. A token that
// does not parse or has no exp yields the zero time, so it is never reused.
func expiryOf(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
