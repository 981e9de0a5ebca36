package s2s

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"
)

const s2sURL = "http://s2s.local"

func signedToken(t *testing.T, expiry time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "finrem_ccd_data_migrator",
		ExpiresAt: jwt.NewNumericDate(expiry),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func newTestGenerator(t *testing.T, replaceBearer bool) *Generator {
	t.Helper()
	gen, err := NewGenerator(&Config{
		BaseURL:       s2sURL,
		Microservice:  "finrem_ccd_data_migrator",
		Secret:        "AAAAAAAAAAAAAAAA",
		RefreshDelta:  time.Minute,
		ReplaceBearer: replaceBearer,
	}, nil)
	require.NoError(t, err)
	return gen
}

// leaseBodyMatcher checks the lease payload and restores the body for gock.
func leaseBodyMatcher(t *testing.T) gock.MatchFunc {
	return func(req *http.Request, _ *gock.Request) (bool, error) {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return false, err
		}
		req.Body = io.NopCloser(bytes.NewReader(raw))

		var payload map[string]string
		if err := json.Unmarshal(raw, &payload); err != nil {
			return false, nil
		}
		assert.Equal(t, "finrem_ccd_data_migrator", payload["microservice"])
		assert.Len(t, payload["oneTimePassword"], 6)
		return true, nil
	}
}

func TestGenerate_LeasesBearerToken(t *testing.T) {
	defer gock.Off()

	token := signedToken(t, time.Now().Add(time.Hour))
	gock.New(s2sURL).
		Post("/lease").
		AddMatcher(leaseBodyMatcher(t)).
		Reply(200).
		BodyString(token)

	got, err := newTestGenerator(t, false).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+token, got)
	assert.True(t, gock.IsDone())
}

func TestGenerate_ReplaceBearer(t *testing.T) {
	defer gock.Off()

	token := signedToken(t, time.Now().Add(time.Hour))
	gock.New(s2sURL).Post("/lease").Reply(200).BodyString(token)

	got, err := newTestGenerator(t, true).Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token, got)
}

func TestGenerate_CachesUntilNearExpiry(t *testing.T) {
	defer gock.Off()

	now := time.Now()
	first := signedToken(t, now.Add(10*time.Minute))
	second := signedToken(t, now.Add(time.Hour))

	gock.New(s2sURL).Post("/lease").Times(1).Reply(200).BodyString(first)

	gen := newTestGenerator(t, true)
	gen.now = func() time.Time { return now }

	got, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, got)

	// Cached: no further lease is registered, so a request would fail.
	got, err = gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.True(t, gock.IsDone())

	gock.New(s2sURL).Post("/lease").Times(1).Reply(200).BodyString(second)
	gen.now = func() time.Time { return now.Add(9*time.Minute + 30*time.Second) }

	got, err = gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second, got)
	assert.True(t, gock.IsDone())
}

func TestGenerate_LeaseRejected(t *testing.T) {
	defer gock.Off()

	gock.New(s2sURL).Post("/lease").Reply(401).BodyString("Invalid one-time password")

	_, err := newTestGenerator(t, false).Generate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestGenerate_OpaqueTokenIsNotCached(t *testing.T) {
	defer gock.Off()

	gock.New(s2sURL).Post("/lease").Times(2).Reply(200).BodyString("not-a-jwt")

	gen := newTestGenerator(t, false)
	for i := 0; i < 2; i++ {
		got, err := gen.Generate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Bearer not-a-jwt", got)
	}
	assert.True(t, gock.IsDone())
}

func TestNewGenerator_RequiresSettings(t *testing.T) {
	_, err := NewGenerator(&Config{BaseURL: s2sURL, Microservice: "svc"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret")
}
