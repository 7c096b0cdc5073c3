package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cacheNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

func cacheClock() time.Time { return cacheNow }

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	t.Setenv(CacheHomeEnv, t.TempDir())
	c, err := OpenCache()
	require.NoError(t, err)
	return c.WithClock(cacheClock)
}

func ip(v int) *int         { return &v }
func fp(v float64) *float64 { return &v }

func TestUpdateAndGet(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.Update("p1", Patch{TasksCompleted: ip(2)}))
	require.NoError(t, c.Update("p1", Patch{TasksCompleted: ip(3), FocusTime: fp(50)}))

	snap := c.Get("p1")
	require.NotNil(t, snap)
	assert.Equal(t, "2024-06-15", snap.Date)
	assert.Equal(t, 3, *snap.Patch.TasksCompleted, "later write wins per field")
	assert.Equal(t, 50.0, *snap.Patch.FocusTime)
	assert.Nil(t, snap.Patch.CurrentStreak, "untouched fields stay unset")
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(CacheHomeEnv, dir)

	c, err := OpenCache()
	require.NoError(t, err)
	c.WithClock(cacheClock)
	require.NoError(t, c.Update("p1", Patch{FocusSessions: ip(4)}))

	reopened, err := OpenCache()
	require.NoError(t, err)
	reopened.WithClock(cacheClock)

	snap := reopened.Get("p1")
	require.NotNil(t, snap)
	assert.Equal(t, 4, *snap.Patch.FocusSessions)
}

func TestStaleSnapshotDiscardedOnLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(CacheHomeEnv, dir)

	c, err := OpenCache()
	require.NoError(t, err)
	// Written "yesterday".
	c.WithClock(func() time.Time { return cacheNow.AddDate(0, 0, -1) })
	require.NoError(t, c.Update("p1", Patch{FocusSessions: ip(4)}))

	reopened, err := OpenCache()
	require.NoError(t, err)
	reopened.WithClock(cacheClock)
	assert.Nil(t, reopened.Get("p1"), "yesterday's snapshot must not load as today's")
}

func TestUpdateRollsOverStaleDay(t *testing.T) {
	c := newTestCache(t)

	c.WithClock(func() time.Time { return cacheNow.AddDate(0, 0, -1) })
	require.NoError(t, c.Update("p1", Patch{FocusSessions: ip(9), CurrentStreak: ip(3)}))

	c.WithClock(cacheClock)
	require.NoError(t, c.Update("p1", Patch{FocusSessions: ip(1)}))

	snap := c.Get("p1")
	require.NotNil(t, snap)
	assert.Equal(t, "2024-06-15", snap.Date)
	assert.Equal(t, 1, *snap.Patch.FocusSessions)
	assert.Nil(t, snap.Patch.CurrentStreak, "stale fields do not leak into the new day")
}

func TestMergeWithRemote(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Update("p1", Patch{TasksCompleted: ip(7)}))

	remote := &Record{
		ProjectID:      "p1",
		Date:           "2024-06-15",
		TasksCompleted: 2,
		FocusSessions:  5,
	}
	merged := c.MergeWithRemote("p1", remote)
	assert.Equal(t, 7, merged.TasksCompleted, "cached field wins")
	assert.Equal(t, 5, merged.FocusSessions, "unset fields keep the remote value")
	assert.Equal(t, 2, remote.TasksCompleted, "remote input is not mutated")
}

func TestMergeWithRemoteIgnoresOtherDates(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Update("p1", Patch{TasksCompleted: ip(7)}))

	remote := &Record{ProjectID: "p1", Date: "2024-06-10", TasksCompleted: 2}
	merged := c.MergeWithRemote("p1", remote)
	assert.Equal(t, 2, merged.TasksCompleted, "cache only speaks for today")
}

func TestFlushSendsReplace(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		var body Patch
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			assert.Equal(t, 7, *body.TasksCompleted)
		}
		_ = json.NewEncoder(w).Encode(Record{ProjectID: "p1", Date: "2024-06-15"})
	}))
	defer srv.Close()

	svc, err := New(srv.URL, "sk_abc")
	require.NoError(t, err)

	c := newTestCache(t)
	require.NoError(t, c.Update("p1", Patch{TasksCompleted: ip(7)}))

	require.NoError(t, c.Flush(context.Background(), svc, "p1"))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/projects/p1/progress/2024-06-15", gotPath)
}

func TestFlushFailurePreservesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	svc, err := New(srv.URL, "sk_abc")
	require.NoError(t, err)

	c := newTestCache(t)
	require.NoError(t, c.Update("p1", Patch{TasksCompleted: ip(7)}))

	err = c.Flush(context.Background(), svc, "p1")
	require.Error(t, err)

	snap := c.Get("p1")
	require.NotNil(t, snap, "a failed flush must not clear the snapshot")
	assert.Equal(t, 7, *snap.Patch.TasksCompleted)
}

func TestFlushRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "try later", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(Record{ProjectID: "p1", Date: "2024-06-15"})
	}))
	defer srv.Close()

	svc, err := New(srv.URL, "sk_abc")
	require.NoError(t, err)

	c := newTestCache(t)
	require.NoError(t, c.Update("p1", Patch{TasksCompleted: ip(7)}))

	require.NoError(t, c.Flush(context.Background(), svc, "p1"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFlushSendsSessionsOnce(t *testing.T) {
	var appended atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			var body map[string]json.RawMessage
			if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
				_, hasSessions := body["sessions"]
				assert.False(t, hasSessions, "record overwrite must not carry session entries")
			}
			_ = json.NewEncoder(w).Encode(Record{ProjectID: "p1", Date: "2024-06-15"})
		case http.MethodPost:
			var body struct {
				Sessions []SessionEntry `json:"sessions"`
			}
			if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
				appended.Add(int32(len(body.Sessions)))
			}
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer srv.Close()

	svc, err := New(srv.URL, "sk_abc")
	require.NoError(t, err)

	c := newTestCache(t)
	require.NoError(t, c.Update("p1", Patch{
		TasksCompleted: ip(7),
		Sessions:       []SessionEntry{{TaskTitle: "deep work", SessionType: "focus", DurationMinutes: 25}},
	}))

	require.NoError(t, c.Flush(context.Background(), svc, "p1"))
	require.NoError(t, c.Flush(context.Background(), svc, "p1"))
	assert.Equal(t, int32(1), appended.Load(), "confirmed entries must not be re-appended")

	snap := c.Get("p1")
	require.NotNil(t, snap)
	assert.Equal(t, 7, *snap.Patch.TasksCompleted, "record fields stay cached for the day")
	assert.Empty(t, snap.Patch.Sessions)
}

func TestFlushKeepsUnconfirmedSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			http.Error(w, "bad entry", http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(Record{ProjectID: "p1", Date: "2024-06-15"})
	}))
	defer srv.Close()

	svc, err := New(srv.URL, "sk_abc")
	require.NoError(t, err)

	c := newTestCache(t)
	require.NoError(t, c.Update("p1", Patch{
		Sessions: []SessionEntry{{TaskTitle: "deep work", SessionType: "focus", DurationMinutes: 25}},
	}))

	err = c.Flush(context.Background(), svc, "p1")
	require.Error(t, err)

	snap := c.Get("p1")
	require.NotNil(t, snap)
	assert.Len(t, snap.Patch.Sessions, 1, "unconfirmed entries stay queued")
}

func TestFlushWithEmptyCacheIsNoop(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Flush(context.Background(), nil, "p1"))
}

func TestDrop(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Update("p1", Patch{TasksCompleted: ip(7)}))
	require.NoError(t, c.Drop("p1"))
	assert.Nil(t, c.Get("p1"))
}
