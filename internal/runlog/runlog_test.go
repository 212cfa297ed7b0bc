package runlog

import (
	"compress/gzip"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentcorr/internal/types"
)

func report(coef float64, flag types.ResultFlag) *types.Report {
	return &types.Report{
		RunID:    "run-1",
		Settings: types.RunSettings{Capability: "lexicon", Lag: 1},
		Counts:   types.Counts{NewsLoaded: 5, AlignedEvents: 4},
		Results: []types.CorrelationResult{
			{Scope: types.GlobalScope, Coefficient: coef, SampleSize: 4, PValue: 0.2, Flag: flag},
		},
		Drops: types.DropSummary{types.DropNoPredecessor: 1},
	}
}

func TestAppendAndRead(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	log := New(t.TempDir(), clock)

	require.NoError(t, log.Append(EntryFor(report(0.4, types.FlagNone))))
	clock.Advance(time.Minute)
	require.NoError(t, log.Append(EntryFor(report(math.NaN(), types.FlagInsufficientData))))

	entries, err := log.Entries(clock.Now())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "2024-03-01T10:00:00Z", entries[0].Time)
	require.NotNil(t, entries[0].Coefficient)
	assert.Equal(t, 0.4, *entries[0].Coefficient)
	assert.Equal(t, 1, entries[0].Drops["no_predecessor"])

	assert.Nil(t, entries[1].Coefficient)
	assert.Equal(t, "InsufficientData", entries[1].Flag)
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	log := New(dir, clock)
	require.NoError(t, log.Append(EntryFor(report(0.1, types.FlagNone))))

	clock.Advance(40 * 24 * time.Hour)
	require.NoError(t, log.Append(EntryFor(report(0.2, types.FlagNone))))

	n, err := log.CompressOlder(30)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(filepath.Join(dir, "2024-01-01.jsonl"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "2024-02-10.jsonl"))
	assert.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "2024-01-01.jsonl.gz"))
	require.NoError(t, err)
	defer f.Close()
	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	body, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"run_id":"run-1"`)
}

func TestCompressOlderMissingDir(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "absent"), clockwork.NewFakeClock())
	n, err := log.CompressOlder(7)
	assert.NoError(t, err)
	assert.Zero(t, n)
}
