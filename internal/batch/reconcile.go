package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Move describes one course's batch change for a student: where they were,
// where they are going, and which of the new batch's timings were selected.
// NewBatchID may be the Unassigned sentinel.
type Move struct {
	OldBatchID string
	NewBatchID string
	Timings    []string
}

// Store is what the reconciler needs from batch persistence.
type Store interface {
	Get(ctx context.Context, id string) (Batch, error)
	Update(ctx context.Context, b Batch) error
}

// ProfileUpdater persists the student's side of the move.
type ProfileUpdater interface {
	SetEnrollments(ctx context.Context, studentID string, courseIDs []string) error
}

// Reconciler moves students between batches, keeping batch rosters and the
// student profile in step.
type Reconciler struct {
	batches  Store
	profiles ProfileUpdater
}

// NewReconciler creates a reconciler.
func NewReconciler(batches Store, profiles ProfileUpdater) *Reconciler {
	return &Reconciler{batches: batches, profiles: profiles}
}

// Reconcile applies a set of per-course batch moves for one student.
// changes maps course id to its Move; enrollments is the student's resulting
// course list.
//
// Removal from the old batch is unconditional once a change is requested for
// that course; the student is added only to the new batch's entries whose
// timing was explicitly selected. Batches touched by several course changes
// are staged in memory cumulatively, so a batch that is both an old and a new
// target sees removal and addition before a single persist. All loads happen
// before any write; the profile update and every touched batch then persist
// concurrently, and the operation succeeds only if every persist succeeds.
// There is no compensating rollback on partial failure; a failed persist can
// leave rosters and the profile inconsistent.
func (r *Reconciler) Reconcile(ctx context.Context, studentID string, enrollments []string, changes map[string]Move) error {
	if studentID == "" {
		return errors.New("student id required")
	}

	staged := make(map[string]*Batch)
	load := func(id string) (*Batch, error) {
		if b, ok := staged[id]; ok {
			return b, nil
		}
		b, err := r.batches.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load batch %s: %w", id, err)
		}
		staged[id] = &b
		return &b, nil
	}

	// Removals first, so a batch serving as both source and target within
	// this operation ends up with only the selected timings.
	for courseID, mv := range changes {
		if mv.OldBatchID == "" || mv.OldBatchID == mv.NewBatchID {
			continue
		}
		b, err := load(mv.OldBatchID)
		if err != nil {
			return fmt.Errorf("course %s: %w", courseID, err)
		}
		for i := range b.Schedule {
			b.Schedule[i].StudentIDs = without(b.Schedule[i].StudentIDs, studentID)
		}
	}

	for courseID, mv := range changes {
		if mv.NewBatchID == "" || mv.NewBatchID == Unassigned || mv.NewBatchID == mv.OldBatchID {
			continue
		}
		b, err := load(mv.NewBatchID)
		if err != nil {
			return fmt.Errorf("course %s: %w", courseID, err)
		}
		selected := make(map[string]bool, len(mv.Timings))
		for _, t := range mv.Timings {
			selected[t] = true
		}
		for i := range b.Schedule {
			entry := &b.Schedule[i]
			if selected[entry.Timing] && !entry.HasStudent(studentID) {
				entry.StudentIDs = append(entry.StudentIDs, studentID)
			}
		}
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := r.profiles.SetEnrollments(ctx, studentID, enrollments); err != nil {
			fail(fmt.Errorf("update profile %s: %w", studentID, err))
		}
	}()
	for _, b := range staged {
		wg.Add(1)
		go func(b Batch) {
			defer wg.Done()
			if err := r.batches.Update(ctx, b); err != nil {
				fail(fmt.Errorf("update batch %s: %w", b.ID, err))
			}
		}(*b)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, s := range ids {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}
