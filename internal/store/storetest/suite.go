package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/flowtide/progress/internal/model"
	"github.com/flowtide/progress/internal/store"
)

// Run exercises a behavioral compliance suite against a store.Store
// implementation. Implementations should provide a clean, isolated store and
// return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	projectID := "proj-" + uuid.New().String()
	actorID := "actor-" + uuid.New().String()

	// Upsert creates, a second upsert for the same key mutates in place.
	rec := &model.AchievementRecord{ProjectID: projectID, Date: "2024-05-01", ActorID: actorID, TasksCompleted: 3}
	if _, err := s.Records().Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert create: %v", err)
	}
	rec.TasksCompleted = 7
	if _, err := s.Records().Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert update: %v", err)
	}
	got, err := s.Records().Get(ctx, projectID, "2024-05-01", actorID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.TasksCompleted != 7 {
		t.Fatalf("upsert did not overwrite: tasksCompleted=%d", got.TasksCompleted)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt not stamped")
	}

	// Get for a missing key reports ErrNotFound.
	if _, err := s.Records().Get(ctx, projectID, "2024-05-02", actorID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Get missing: err=%v, want ErrNotFound", err)
	}

	// Anonymous row for the same project and day coexists with the owned row.
	anon := &model.AchievementRecord{ProjectID: projectID, Date: "2024-05-01", ActorID: model.AnonymousActor, TasksCompleted: 2}
	if _, err := s.Records().Upsert(ctx, anon); err != nil {
		t.Fatalf("Upsert anonymous: %v", err)
	}

	// Authenticated range scan sees the union of owned and anonymous rows.
	recs, err := s.Records().ListRange(ctx, model.ListRangeRequest{ProjectID: projectID, ActorID: actorID, From: "2024-05-01", To: "2024-05-07"})
	if err != nil {
		t.Fatalf("ListRange: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("union scan: got %d rows, want 2", len(recs))
	}

	// Anonymous scan sees anonymous rows only.
	recs, err = s.Records().ListRange(ctx, model.ListRangeRequest{ProjectID: projectID, ActorID: model.AnonymousActor, From: "2024-05-01", To: "2024-05-07"})
	if err != nil {
		t.Fatalf("ListRange anonymous: %v", err)
	}
	if len(recs) != 1 || recs[0].ActorID != model.AnonymousActor {
		t.Fatalf("anonymous scan: %+v", recs)
	}

	// Another actor sees only the anonymous row, never actorID's row.
	recs, err = s.Records().ListRange(ctx, model.ListRangeRequest{ProjectID: projectID, ActorID: "other-actor", From: "2024-05-01", To: "2024-05-07"})
	if err != nil {
		t.Fatalf("ListRange other actor: %v", err)
	}
	if len(recs) != 1 || recs[0].ActorID != model.AnonymousActor {
		t.Fatalf("cross-actor visibility leak: %+v", recs)
	}

	// EarliestDate respects the visibility union.
	early := &model.AchievementRecord{ProjectID: projectID, Date: "2024-04-20", ActorID: actorID}
	if _, err := s.Records().Upsert(ctx, early); err != nil {
		t.Fatalf("Upsert early: %v", err)
	}
	if d, err := s.Records().EarliestDate(ctx, projectID, actorID); err != nil || d != "2024-04-20" {
		t.Fatalf("EarliestDate: d=%q err=%v", d, err)
	}
	if d, err := s.Records().EarliestDate(ctx, projectID, model.AnonymousActor); err != nil || d != "2024-05-01" {
		t.Fatalf("EarliestDate anonymous: d=%q err=%v", d, err)
	}
	if _, err := s.Records().EarliestDate(ctx, "proj-empty-"+uuid.New().String(), actorID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("EarliestDate empty project: err=%v", err)
	}

	// Ordered ascending by date.
	recs, err = s.Records().ListRange(ctx, model.ListRangeRequest{ProjectID: projectID, ActorID: actorID, From: "2024-04-01", To: "2024-05-07"})
	if err != nil {
		t.Fatalf("ListRange ordered: %v", err)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Date < recs[i-1].Date {
			t.Fatalf("rows out of order: %s before %s", recs[i-1].Date, recs[i].Date)
		}
	}

	// Delete is scoped to the identity and idempotent.
	if err := s.Records().Delete(ctx, model.DeleteRequest{ProjectID: projectID, Date: "2024-05-01", ActorID: actorID}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Records().Get(ctx, projectID, "2024-05-01", actorID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("record survived delete: err=%v", err)
	}
	if _, err := s.Records().Get(ctx, projectID, "2024-05-01", model.AnonymousActor); err != nil {
		t.Fatalf("anonymous row deleted by scoped delete: %v", err)
	}
	// Deleting again (row gone) still succeeds.
	if err := s.Records().Delete(ctx, model.DeleteRequest{ProjectID: projectID, Date: "2024-05-01", ActorID: actorID}); err != nil {
		t.Fatalf("repeat Delete: %v", err)
	}

	// Delete-all removes every row for the identity.
	if err := s.Records().Delete(ctx, model.DeleteRequest{ProjectID: projectID, ActorID: actorID, All: true}); err != nil {
		t.Fatalf("Delete all: %v", err)
	}
	if _, err := s.Records().Get(ctx, projectID, "2024-04-20", actorID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("delete-all left rows: err=%v", err)
	}

	// Session log accepts entries and generated IDs.
	entries := []*model.SessionEntry{
		{ProjectID: projectID, Date: "2024-05-01", TaskTitle: "write report", DurationMinutes: 25, SessionType: model.SessionFocus, Completed: true},
		{ProjectID: projectID, Date: "2024-05-01", TaskTitle: "break", DurationMinutes: 5, SessionType: model.SessionShortBreak},
	}
	if err := s.Sessions().Append(ctx, entries); err != nil {
		t.Fatalf("Append sessions: %v", err)
	}
	if err := s.Sessions().Append(ctx, nil); err != nil {
		t.Fatalf("Append empty: %v", err)
	}
}
