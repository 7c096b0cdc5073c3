package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/flowtide/progress/internal/model"
	"github.com/flowtide/progress/internal/store"
)

// memStore is an in-memory store.Store used by service tests.
type memStore struct {
	mu       sync.Mutex
	records  map[string]*model.AchievementRecord
	sessions []*model.SessionEntry

	failUpsert   bool
	failSessions bool
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]*model.AchievementRecord)}
}

func (m *memStore) Records() store.Records   { return (*memRecords)(m) }
func (m *memStore) Sessions() store.Sessions { return (*memSessions)(m) }

func memKey(projectID, date, actorID string) string {
	return projectID + "|" + date + "|" + actorID
}

type memRecords memStore

func (m *memRecords) Upsert(_ context.Context, rec *model.AchievementRecord) (*model.AchievementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpsert {
		return nil, errors.New("store rejected upsert")
	}
	cp := *rec
	cp.UpdatedAt = time.Now().UTC()
	m.records[memKey(rec.ProjectID, rec.Date, rec.ActorID)] = &cp
	out := cp
	return &out, nil
}

func (m *memRecords) Get(_ context.Context, projectID, date, actorID string) (*model.AchievementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[memKey(projectID, date, actorID)]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memRecords) visible(rec *model.AchievementRecord, projectID, actorID string) bool {
	if rec.ProjectID != projectID {
		return false
	}
	return rec.ActorID == model.AnonymousActor || rec.ActorID == actorID
}

func (m *memRecords) ListRange(_ context.Context, req model.ListRangeRequest) ([]*model.AchievementRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AchievementRecord
	for _, rec := range m.records {
		if !m.visible(rec, req.ProjectID, req.ActorID) {
			continue
		}
		if rec.Date < req.From || rec.Date > req.To {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ActorID < out[j].ActorID
	})
	return out, nil
}

func (m *memRecords) EarliestDate(_ context.Context, projectID, actorID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	earliest := ""
	for _, rec := range m.records {
		if !m.visible(rec, projectID, actorID) {
			continue
		}
		if earliest == "" || rec.Date < earliest {
			earliest = rec.Date
		}
	}
	if earliest == "" {
		return "", model.ErrNotFound
	}
	return earliest, nil
}

func (m *memRecords) Delete(_ context.Context, req model.DeleteRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, rec := range m.records {
		if rec.ProjectID != req.ProjectID || rec.ActorID != req.ActorID {
			continue
		}
		if req.All || rec.Date == req.Date {
			delete(m.records, key)
		}
	}
	return nil
}

type memSessions memStore

func (m *memSessions) Append(_ context.Context, entries []*model.SessionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSessions {
		return errors.New("session log unavailable")
	}
	m.sessions = append(m.sessions, entries...)
	return nil
}
