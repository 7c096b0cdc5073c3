package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	cacheFileName = "progress_cache.json"

	// CacheHomeEnv overrides the cache directory, mainly for tests.
	CacheHomeEnv = "PROGRESS_CACHE_HOME"

	dateLayout = "2006-01-02"
)

// Snapshot is today's pending record for one project. Only fields the app
// actually touched are set, so overlaying a snapshot on a remote record
// never clobbers fields the local session knows nothing about.
type Snapshot struct {
	Date  string `json:"date"`
	Patch Patch  `json:"patch"`
}

// Cache is the local-first layer: reads hit the cache first, writes land in
// the cache synchronously and reach the server via Flush. A snapshot is
// only trusted for the current calendar day; anything older is discarded on
// load or rolled over on the next update.
type Cache struct {
	path string
	now  func() time.Time

	mu        sync.Mutex
	snapshots map[string]*Snapshot
}

// OpenCache loads (or creates) the cache under CacheHomeEnv, falling back
// to ~/.flowtide. Stale snapshots are dropped during load.
func OpenCache() (*Cache, error) {
	dir := os.Getenv(CacheHomeEnv)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		dir = filepath.Join(home, ".flowtide")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	c := &Cache{
		path:      filepath.Join(dir, cacheFileName),
		now:       time.Now,
		snapshots: make(map[string]*Snapshot),
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// WithClock overrides the cache's clock. Intended for tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func (c *Cache) today() string {
	return c.now().UTC().Format(dateLayout)
}

// load reads the persisted snapshot file and keeps today's entries only. A
// missing file is an empty cache; a corrupt file is an error so the caller
// can decide rather than silently losing data.
func (c *Cache) load() error {
	raw, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cache: %w", err)
	}

	var all map[string]*Snapshot
	if err := json.Unmarshal(raw, &all); err != nil {
		return fmt.Errorf("parse cache %s: %w", c.path, err)
	}

	today := c.today()
	for project, snap := range all {
		if snap != nil && snap.Date == today {
			c.snapshots[project] = snap
		}
	}
	return nil
}

// persist writes the snapshot map through a temp file and rename so a crash
// mid-write cannot corrupt the previous cache contents.
func (c *Cache) persist() error {
	raw, err := json.MarshalIndent(c.snapshots, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}

// Get returns today's snapshot for the project, or nil when the cache holds
// nothing usable for the current day.
func (c *Cache) Get(projectID string) *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.snapshots[projectID]
	if !ok || snap.Date != c.today() {
		return nil
	}
	cp := *snap
	return &cp
}

// Update overlays the set fields of patch onto today's snapshot,
// last-write-wins per field, and persists synchronously. A snapshot from a
// previous day is rolled over: the stale fields are discarded and the patch
// starts a fresh day.
func (c *Cache) Update(projectID string, patch Patch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	today := c.today()
	snap, ok := c.snapshots[projectID]
	if !ok || snap.Date != today {
		snap = &Snapshot{Date: today}
		c.snapshots[projectID] = snap
	}
	overlayPatch(&snap.Patch, &patch)
	return c.persist()
}

// MergeWithRemote overlays today's cached fields on a server record and
// returns the combined view. The cache is not modified and nothing is
// written back; this is the read path's "local wins for today" rule.
func (c *Cache) MergeWithRemote(projectID string, remote *Record) *Record {
	merged := *remote

	snap := c.Get(projectID)
	if snap == nil || remote.Date != snap.Date {
		return &merged
	}
	applyPatch(&merged, &snap.Patch)
	return &merged
}

// Drop removes the project's snapshot, persisting the removal.
func (c *Cache) Drop(projectID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, projectID)
	return c.persist()
}

// Flush pushes today's snapshot to the server with capped exponential
// backoff. The record fields go through Replace, a full overwrite that is
// safe to re-send on every flush, so they stay cached as the day's
// authoritative local copy. Buffered session entries are appended
// server-side and must reach it exactly once: they are sent without the
// record payload and leave the snapshot only after a confirmed send. On
// failure nothing is cleared, so the next flush retries the same state.
func (c *Cache) Flush(ctx context.Context, svc *Client, projectID string) error {
	snap := c.Get(projectID)
	if snap == nil {
		return nil
	}

	record := snap.Patch
	record.Sessions = nil
	sessions := snap.Patch.Sessions

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxInterval = 5 * time.Second

	op := func() error {
		flushAttemptsTotal.WithLabelValues(projectID).Inc()
		_, err := svc.Replace(ctx, projectID, snap.Date, record)
		if err == nil && len(sessions) > 0 {
			if err = svc.AppendSessions(ctx, projectID, snap.Date, sessions); err == nil {
				sessions = nil
			}
		}
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(exp, 4), ctx)); err != nil {
		flushFailuresTotal.WithLabelValues(projectID).Inc()
		return fmt.Errorf("flush %s: %w", projectID, err)
	}
	if n := len(snap.Patch.Sessions); n > 0 {
		return c.dropSessions(projectID, snap.Date, n)
	}
	return nil
}

// dropSessions removes the first n session entries from the project's
// snapshot once the server confirmed them. Entries buffered while the flush
// was in flight stay queued for the next one.
func (c *Cache) dropSessions(projectID, date string, n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.snapshots[projectID]
	if !ok || snap.Date != date || len(snap.Patch.Sessions) == 0 {
		return nil
	}
	if n > len(snap.Patch.Sessions) {
		n = len(snap.Patch.Sessions)
	}
	rest := snap.Patch.Sessions[n:]
	if len(rest) == 0 {
		snap.Patch.Sessions = nil
	} else {
		snap.Patch.Sessions = append([]SessionEntry(nil), rest...)
	}
	return c.persist()
}

// overlayPatch copies every set field of src onto dst.
func overlayPatch(dst, src *Patch) {
	if src.FocusSessions != nil {
		dst.FocusSessions = src.FocusSessions
	}
	if src.BreakSessions != nil {
		dst.BreakSessions = src.BreakSessions
	}
	if src.TasksCompleted != nil {
		dst.TasksCompleted = src.TasksCompleted
	}
	if src.TasksCreated != nil {
		dst.TasksCreated = src.TasksCreated
	}
	if src.TotalSessionTime != nil {
		dst.TotalSessionTime = src.TotalSessionTime
	}
	if src.FocusedAlerts != nil {
		dst.FocusedAlerts = src.FocusedAlerts
	}
	if src.DeviatedAlerts != nil {
		dst.DeviatedAlerts = src.DeviatedAlerts
	}
	if src.BreakTime != nil {
		dst.BreakTime = src.BreakTime
	}
	if src.DeviationTime != nil {
		dst.DeviationTime = src.DeviationTime
	}
	if src.FocusTime != nil {
		dst.FocusTime = src.FocusTime
	}
	if src.LongBreakTime != nil {
		dst.LongBreakTime = src.LongBreakTime
	}
	if src.CurrentStreak != nil {
		dst.CurrentStreak = src.CurrentStreak
	}
	if src.LongestStreak != nil {
		dst.LongestStreak = src.LongestStreak
	}
	if src.PlannedHours != nil {
		dst.PlannedHours = src.PlannedHours
	}
	if src.CompletedHours != nil {
		dst.CompletedHours = src.CompletedHours
	}
	if src.TargetTasksCreated != nil {
		dst.TargetTasksCreated = src.TargetTasksCreated
	}
	if len(src.Sessions) > 0 {
		dst.Sessions = append(dst.Sessions, src.Sessions...)
	}
}

// applyPatch writes every set field of p into rec.
func applyPatch(rec *Record, p *Patch) {
	if p.FocusSessions != nil {
		rec.FocusSessions = *p.FocusSessions
	}
	if p.BreakSessions != nil {
		rec.BreakSessions = *p.BreakSessions
	}
	if p.TasksCompleted != nil {
		rec.TasksCompleted = *p.TasksCompleted
	}
	if p.TasksCreated != nil {
		rec.TasksCreated = *p.TasksCreated
	}
	if p.TotalSessionTime != nil {
		rec.TotalSessionTime = *p.TotalSessionTime
	}
	if p.FocusedAlerts != nil {
		rec.FocusedAlerts = *p.FocusedAlerts
	}
	if p.DeviatedAlerts != nil {
		rec.DeviatedAlerts = *p.DeviatedAlerts
	}
	if p.BreakTime != nil {
		rec.BreakTime = *p.BreakTime
	}
	if p.DeviationTime != nil {
		rec.DeviationTime = *p.DeviationTime
	}
	if p.FocusTime != nil {
		rec.FocusTime = *p.FocusTime
	}
	if p.LongBreakTime != nil {
		rec.LongBreakTime = *p.LongBreakTime
	}
	if p.CurrentStreak != nil {
		rec.CurrentStreak = *p.CurrentStreak
	}
	if p.LongestStreak != nil {
		rec.LongestStreak = *p.LongestStreak
	}
	if p.PlannedHours != nil {
		rec.PlannedHours = *p.PlannedHours
	}
	if p.CompletedHours != nil {
		rec.CompletedHours = *p.CompletedHours
	}
	if p.TargetTasksCreated != nil {
		rec.TargetTasksCreated = *p.TargetTasksCreated
	}
}
