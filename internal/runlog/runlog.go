// Package runlog appends one JSON line per run to a daily file and gzips
// files that fall out of the retention window.
package runlog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"sentcorr/internal/types"
)

const ext = ".jsonl"

// Entry is the summary of one run.
type Entry struct {
	Time        string         `json:"time"`
	RunID       string         `json:"run_id"`
	Capability  string         `json:"capability"`
	Lag         int            `json:"lag"`
	News        int            `json:"news"`
	Events      int            `json:"events"`
	Coefficient *float64       `json:"coefficient,omitempty"`
	PValue      *float64       `json:"p_value,omitempty"`
	Flag        string         `json:"flag,omitempty"`
	Drops       map[string]int `json:"drops,omitempty"`
}

// Log writes entries under dir.
type Log struct {
	mu    sync.Mutex
	dir   string
	clock clockwork.Clock
}

func New(dir string, clock clockwork.Clock) *Log {
	if dir == "" {
		dir = "logs"
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Log{dir: dir, clock: clock}
}

func (l *Log) dailyFilepath(t time.Time) string {
	return filepath.Join(l.dir, t.Format(types.DateLayout)+ext)
}

// EntryFor summarizes a report.
func EntryFor(r *types.Report) Entry {
	e := Entry{
		RunID:      r.RunID,
		Capability: r.Settings.Capability,
		Lag:        r.Settings.Lag,
		News:       r.Counts.NewsLoaded,
		Events:     r.Counts.AlignedEvents,
	}
	if global, ok := r.Global(); ok {
		e.Flag = string(global.Flag)
		if !math.IsNaN(global.Coefficient) {
			c, p := global.Coefficient, global.PValue
			e.Coefficient, e.PValue = &c, &p
		}
	}
	if len(r.Drops) > 0 {
		e.Drops = make(map[string]int, len(r.Drops))
		for reason, n := range r.Drops {
			e.Drops[string(reason)] = n
		}
	}
	return e
}

// Append stamps e with the current time and appends it to today's file.
func (l *Log) Append(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	e.Time = now.Format(time.RFC3339)
	p := l.dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// Entries reads the entries written on day.
func (l *Log) Entries(day time.Time) ([]Entry, error) {
	f, err := os.Open(l.dailyFilepath(day))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// CompressOlder gzips daily files dated more than retentionDays ago and
// removes the originals. It returns how many files were compressed.
func (l *Log) CompressOlder(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.clock.Now().AddDate(0, 0, -retentionDays)
	compressed := 0
	err := filepath.WalkDir(l.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ext {
			return nil
		}
		day, perr := time.ParseInLocation(types.DateLayout, strings.TrimSuffix(d.Name(), ext), cutoff.Location())
		if perr != nil || !day.Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, statErr := os.Stat(gz); statErr == nil {
			return os.Remove(p)
		}
		if err := gzipFile(p, gz); err != nil {
			return err
		}
		compressed++
		return os.Remove(p)
	})
	if os.IsNotExist(err) {
		return compressed, nil
	}
	return compressed, err
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		gw.Close()
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
