package sentiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentcorr/internal/errs"
	"sentcorr/internal/types"
)

// funcCapability adapts a function to SentimentCapability.
type funcCapability struct {
	name string
	fn   func(ctx context.Context, text string) (float64, error)
}

func (f funcCapability) Name() string { return f.name }

func (f funcCapability) Score(ctx context.Context, text string) (float64, error) {
	return f.fn(ctx, text)
}

func fixed(scores map[string]float64) funcCapability {
	return funcCapability{name: "fixed", fn: func(_ context.Context, text string) (float64, error) {
		v, ok := scores[text]
		if !ok {
			return 0, errors.New("unknown headline")
		}
		return v, nil
	}}
}

func records(headlines ...string) []types.NewsRecord {
	out := make([]types.NewsRecord, len(headlines))
	for i, h := range headlines {
		out[i] = types.NewsRecord{Headline: h, Ticker: "AAPL", Timestamp: time.Date(2024, 1, 2, 9, i, 0, 0, time.UTC)}
	}
	return out
}

func TestScoreClampsOutOfRange(t *testing.T) {
	s := NewScorer(fixed(map[string]float64{"up": 3.5, "down": -2}), time.Second, 1)

	v, err := s.Score(context.Background(), "up")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = s.Score(context.Background(), "down")
	require.NoError(t, err)
	assert.Equal(t, -1.0, v)
}

func TestScoreNaNIsUnavailable(t *testing.T) {
	s := NewScorer(fixed(map[string]float64{"nan": math.NaN()}), time.Second, 1)

	_, err := s.Score(context.Background(), "nan")
	assert.ErrorIs(t, err, errs.ErrScoringUnavailable)
	assert.ErrorIs(t, err, errNaNScore)
}

func TestScoreTimeoutIsUnavailable(t *testing.T) {
	slow := funcCapability{name: "slow", fn: func(ctx context.Context, _ string) (float64, error) {
		time.Sleep(200 * time.Millisecond)
		return 0.5, nil
	}}
	s := NewScorer(slow, 10*time.Millisecond, 1)

	start := time.Now()
	_, err := s.Score(context.Background(), "anything")
	assert.ErrorIs(t, err, errs.ErrScoringUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestScoreAllKeepsOrderAndDropsFailures(t *testing.T) {
	capability := fixed(map[string]float64{"a": 0.1, "b": -0.6, "d": 0.9})
	news := records("a", "b", "c", "d")

	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			scored, drops := NewScorer(capability, time.Second, workers).ScoreAll(context.Background(), news)

			require.Len(t, scored, 3)
			assert.Equal(t, "a", scored[0].Headline)
			assert.Equal(t, "b", scored[1].Headline)
			assert.Equal(t, "d", scored[2].Headline)
			assert.Equal(t, types.LabelPositive, scored[0].Label)
			assert.Equal(t, types.LabelNegative, scored[1].Label)
			assert.InDelta(t, 0.9, scored[2].Sentiment, 1e-12)

			require.Len(t, drops, 1)
			assert.Equal(t, types.DropScoringUnavailable, drops[0].Reason)
			assert.Equal(t, "c", drops[0].Headline)
		})
	}
}

func TestScoreAllRunsConcurrently(t *testing.T) {
	var inFlight, peak int32
	capability := funcCapability{name: "slow", fn: func(_ context.Context, _ string) (float64, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return 0, nil
	}}

	scored, drops := NewScorer(capability, time.Second, 3).ScoreAll(context.Background(), records("a", "b", "c", "d", "e", "f"))
	assert.Len(t, scored, 6)
	assert.Empty(t, drops)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
	assert.Greater(t, atomic.LoadInt32(&peak), int32(1))
}

func TestScoreAllIsDeterministic(t *testing.T) {
	s := NewScorer(NewLexicon(), time.Second, 4)
	news := records("Tesla Stock Surges 10%", "Apple Reports Strong Earnings", "Shares plunge")

	first, _ := s.ScoreAll(context.Background(), news)
	second, _ := s.ScoreAll(context.Background(), news)
	assert.Equal(t, first, second)
}
