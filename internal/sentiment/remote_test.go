package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentcorr/internal/store"
)

func TestHTTPModelScores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Text string }
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Text == "Apple beats" {
			_, _ = w.Write([]byte(`{"score": 0.65}`))
			return
		}
		_, _ = w.Write([]byte(`{"label": "neutral"}`))
	}))
	defer srv.Close()

	m := NewHTTPModel(srv.URL)
	v, err := m.Score(context.Background(), "Apple beats")
	require.NoError(t, err)
	assert.InDelta(t, 0.65, v, 1e-12)

	_, err = m.Score(context.Background(), "other")
	assert.ErrorContains(t, err, "no score")
}

func TestOpenAIParsesFencedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 0, body["temperature"])
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"` + "```json\\n{\\\"score\\\": -0.4}\\n```" + `"}}]}`))
	}))
	defer srv.Close()

	v, err := NewOpenAI("sk-test", "", srv.URL).Score(context.Background(), "Tesla recalls cars")
	require.NoError(t, err)
	assert.InDelta(t, -0.4, v, 1e-12)
}

func TestClaudeScores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVer, r.Header.Get("anthropic-version"))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"score\": 0.2}"}]}`))
	}))
	defer srv.Close()

	v, err := NewClaude("key", "", srv.URL).Score(context.Background(), "Microsoft Announces New Product")
	require.NoError(t, err)
	assert.InDelta(t, 0.2, v, 1e-12)
}

func TestParseScoreJSONRejectsGarbage(t *testing.T) {
	_, err := parseScoreJSON("I think it's positive")
	assert.Error(t, err)
	_, err = parseScoreJSON(`{"sentiment": "POSITIVE"}`)
	assert.Error(t, err)
}

func TestGuardOpensBreakerAfterFailures(t *testing.T) {
	var calls int32
	failing := funcCapability{name: "flaky", fn: func(context.Context, string) (float64, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errors.New("upstream down")
	}}
	g := Guard(failing, GuardConfig{MaxFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := g.Score(context.Background(), "x")
		assert.ErrorContains(t, err, "upstream down")
	}
	_, err := g.Score(context.Background(), "x")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.Equal(t, "flaky", g.Name())
}

func TestGuardRateLimitRespectsContext(t *testing.T) {
	ok := funcCapability{name: "ok", fn: func(context.Context, string) (float64, error) { return 0.1, nil }}
	g := Guard(ok, GuardConfig{RatePerSecond: 0.001, Burst: 1})

	_, err := g.Score(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.Score(ctx, "second")
	assert.ErrorContains(t, err, "rate limit")
}

func TestScoreCacheMemoizesAndExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache, err := NewScoreCache(t.TempDir(), time.Hour, clock)
	require.NoError(t, err)

	var calls int32
	inner := funcCapability{name: "remote", fn: func(context.Context, string) (float64, error) {
		atomic.AddInt32(&calls, 1)
		return 0.3, nil
	}}
	c := WithCache(inner, cache)

	for i := 0; i < 3; i++ {
		v, err := c.Score(context.Background(), "Apple beats")
		require.NoError(t, err)
		assert.InDelta(t, 0.3, v, 1e-12)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	clock.Advance(2 * time.Hour)
	_, ok := cache.Get("remote", "Apple beats")
	assert.False(t, ok)

	removed, err := cache.CleanupExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = c.Score(context.Background(), "Apple beats")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestNewCapabilityFromConfig(t *testing.T) {
	cfg := store.Default().Scorer

	c, err := NewCapability(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "lexicon", c.Name())
	_, isLexicon := c.(*Lexicon)
	assert.True(t, isLexicon)

	cfg.Capability = store.CapabilityHTTP
	cfg.Endpoint = "http://localhost:9/score"
	c, err = NewCapability(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "http", c.Name())
	_, isGuarded := c.(*guarded)
	assert.True(t, isGuarded)

	cfg.Capability = store.CapabilityOpenAI
	cfg.APIKeyEnv = "SENTCORR_TEST_MISSING_KEY"
	t.Setenv("SENTCORR_TEST_MISSING_KEY", "")
	_, err = NewCapability(cfg, nil)
	assert.Error(t, err)

	t.Setenv("SENTCORR_TEST_MISSING_KEY", "sk")
	cfg.Cache.Dir = t.TempDir()
	c, err = NewCapability(cfg, clockwork.NewFakeClock())
	require.NoError(t, err)
	_, isCached := c.(*cached)
	assert.True(t, isCached)
	assert.Equal(t, "openai", c.Name())
}

func TestRemoteHTTPClientSizedToWorkers(t *testing.T) {
	cfg := store.Default().Scorer
	cfg.Workers = 16

	hc := remoteHTTPClient(cfg)
	transport, ok := hc.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 16, transport.MaxIdleConnsPerHost)

	cfg.Workers = 1
	transport = remoteHTTPClient(cfg).Transport.(*http.Transport)
	assert.Equal(t, http.DefaultTransport.(*http.Transport).MaxIdleConnsPerHost, transport.MaxIdleConnsPerHost)
}
