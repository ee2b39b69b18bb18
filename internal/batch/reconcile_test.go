package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type memBatchStore struct {
	mu      sync.Mutex
	batches map[string]Batch
	updErr  map[string]error
}

func newMemBatchStore(batches ...Batch) *memBatchStore {
	m := &memBatchStore{batches: make(map[string]Batch), updErr: make(map[string]error)}
	for _, b := range batches {
		m.batches[b.ID] = b
	}
	return m
}

func (m *memBatchStore) Get(_ context.Context, id string) (Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return Batch{}, ErrNotFound
	}
	return b, nil
}

func (m *memBatchStore) Update(_ context.Context, b Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.updErr[b.ID]; err != nil {
		return err
	}
	m.batches[b.ID] = b
	return nil
}

type memProfiles struct {
	mu          sync.Mutex
	enrollments map[string][]string
	err         error
}

func (m *memProfiles) SetEnrollments(_ context.Context, studentID string, courseIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.enrollments == nil {
		m.enrollments = make(map[string][]string)
	}
	m.enrollments[studentID] = courseIDs
	return nil
}

func entryStudents(t *testing.T, store *memBatchStore, batchID, timing string) []string {
	t.Helper()
	b, err := store.Get(context.Background(), batchID)
	if err != nil {
		t.Fatalf("Get(%s): %v", batchID, err)
	}
	for _, e := range b.Schedule {
		if e.Timing == timing {
			return e.StudentIDs
		}
	}
	t.Fatalf("batch %s has no entry %q", batchID, timing)
	return nil
}

func TestReconcileMove(t *testing.T) {
	store := newMemBatchStore(
		Batch{ID: "A", CourseID: "painting", Schedule: []ScheduleEntry{
			{Timing: "Mon 10-11", StudentIDs: []string{"stu", "other"}},
			{Timing: "Thu 10-11", StudentIDs: []string{"stu"}},
		}},
		Batch{ID: "B", CourseID: "painting", Schedule: []ScheduleEntry{
			{Timing: "Wed 6-7", StudentIDs: []string{}},
			{Timing: "Fri 6-7", StudentIDs: []string{}},
		}},
	)
	profiles := &memProfiles{}
	rec := NewReconciler(store, profiles)

	err := rec.Reconcile(context.Background(), "stu", []string{"painting"}, map[string]Move{
		"painting": {OldBatchID: "A", NewBatchID: "B", Timings: []string{"Wed 6-7"}},
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}

	a, _ := store.Get(context.Background(), "A")
	for _, e := range a.Schedule {
		if e.HasStudent("stu") {
			t.Errorf("student should be removed from all of A's entries, still in %q", e.Timing)
		}
	}
	if got := entryStudents(t, store, "A", "Mon 10-11"); len(got) != 1 || got[0] != "other" {
		t.Errorf("other students must be untouched, got %v", got)
	}
	if got := entryStudents(t, store, "B", "Wed 6-7"); len(got) != 1 || got[0] != "stu" {
		t.Errorf("student should be in B's selected entry, got %v", got)
	}
	if got := entryStudents(t, store, "B", "Fri 6-7"); len(got) != 0 {
		t.Errorf("student must not join an unselected timing, got %v", got)
	}
	if got := profiles.enrollments["stu"]; len(got) != 1 || got[0] != "painting" {
		t.Errorf("profile enrollments = %v", got)
	}
}

func TestReconcileToUnassigned(t *testing.T) {
	store := newMemBatchStore(
		Batch{ID: "A", CourseID: "dance", Schedule: []ScheduleEntry{
			{Timing: "Mon 10-11", StudentIDs: []string{"stu"}},
		}},
	)
	rec := NewReconciler(store, &memProfiles{})

	err := rec.Reconcile(context.Background(), "stu", nil, map[string]Move{
		"dance": {OldBatchID: "A", NewBatchID: Unassigned},
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := entryStudents(t, store, "A", "Mon 10-11"); len(got) != 0 {
		t.Errorf("student should leave A, got %v", got)
	}
}

func TestReconcileSameBatchIsNoop(t *testing.T) {
	store := newMemBatchStore(
		Batch{ID: "A", CourseID: "music", Schedule: []ScheduleEntry{
			{Timing: "Mon 10-11", StudentIDs: []string{"stu"}},
		}},
	)
	rec := NewReconciler(store, &memProfiles{})

	err := rec.Reconcile(context.Background(), "stu", []string{"music"}, map[string]Move{
		"music": {OldBatchID: "A", NewBatchID: "A", Timings: []string{"Mon 10-11"}},
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := entryStudents(t, store, "A", "Mon 10-11"); len(got) != 1 {
		t.Errorf("unchanged course should leave the roster alone, got %v", got)
	}
}

func TestReconcileCumulativeStaging(t *testing.T) {
	// One batch is the old target for sculpture and the new target for
	// painting; it must see the removal and the addition in one persist.
	store := newMemBatchStore(
		Batch{ID: "X", Schedule: []ScheduleEntry{
			{Timing: "Mon 10-11", StudentIDs: []string{"stu"}},
			{Timing: "Wed 6-7", StudentIDs: []string{}},
		}},
		Batch{ID: "Y", Schedule: []ScheduleEntry{
			{Timing: "Sat 9-10", StudentIDs: []string{}},
		}},
	)
	rec := NewReconciler(store, &memProfiles{})

	err := rec.Reconcile(context.Background(), "stu", []string{"painting", "sculpture"}, map[string]Move{
		"sculpture": {OldBatchID: "X", NewBatchID: "Y", Timings: []string{"Sat 9-10"}},
		"painting":  {OldBatchID: "", NewBatchID: "X", Timings: []string{"Wed 6-7"}},
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := entryStudents(t, store, "X", "Mon 10-11"); len(got) != 0 {
		t.Errorf("removal must apply, got %v", got)
	}
	if got := entryStudents(t, store, "X", "Wed 6-7"); len(got) != 1 {
		t.Errorf("addition must apply to the same staged batch, got %v", got)
	}
	if got := entryStudents(t, store, "Y", "Sat 9-10"); len(got) != 1 {
		t.Errorf("Y should gain the student, got %v", got)
	}
}

func TestReconcileIdempotentAdd(t *testing.T) {
	store := newMemBatchStore(
		Batch{ID: "B", Schedule: []ScheduleEntry{
			{Timing: "Wed 6-7", StudentIDs: []string{"stu"}},
		}},
	)
	rec := NewReconciler(store, &memProfiles{})

	err := rec.Reconcile(context.Background(), "stu", []string{"painting"}, map[string]Move{
		"painting": {NewBatchID: "B", Timings: []string{"Wed 6-7"}},
	})
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := entryStudents(t, store, "B", "Wed 6-7"); len(got) != 1 {
		t.Errorf("student must not be duplicated, got %v", got)
	}
}

func TestReconcileMissingBatch(t *testing.T) {
	rec := NewReconciler(newMemBatchStore(), &memProfiles{})
	err := rec.Reconcile(context.Background(), "stu", nil, map[string]Move{
		"painting": {OldBatchID: "ghost", NewBatchID: "B"},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReconcilePartialPersistFailure(t *testing.T) {
	store := newMemBatchStore(
		Batch{ID: "A", Schedule: []ScheduleEntry{{Timing: "Mon 10-11", StudentIDs: []string{"stu"}}}},
		Batch{ID: "B", Schedule: []ScheduleEntry{{Timing: "Wed 6-7", StudentIDs: []string{}}}},
	)
	store.updErr["B"] = errors.New("write refused")
	rec := NewReconciler(store, &memProfiles{})

	err := rec.Reconcile(context.Background(), "stu", []string{"painting"}, map[string]Move{
		"painting": {OldBatchID: "A", NewBatchID: "B", Timings: []string{"Wed 6-7"}},
	})
	if err == nil {
		t.Fatal("Reconcile should report the failed persist")
	}
}
