package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/geocoder89/rxtrack/internal/common"
	"github.com/geocoder89/rxtrack/internal/domain/prescription"
	"github.com/geocoder89/rxtrack/internal/domain/report"
	"github.com/jackc/pgx/v5"
)

// PrescriptionsRepo is an in-process prescription store with the same contract as the
// postgres repository. It backs tests and local runs without a database.
type PrescriptionsRepo struct {
	mu    sync.RWMutex
	items map[string]prescription.Prescription
}

func NewPrescriptionsRepo() *PrescriptionsRepo {
	return &PrescriptionsRepo{
		items: make(map[string]prescription.Prescription),
	}
}

func (r *PrescriptionsRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	r.mu.Lock()

	tx := &memTx{
		unlock: r.mu.Unlock,
		writes: make(map[string]*stagedWrite),
	}
	tx.apply = func() {
		for id, w := range tx.writes {
			if w.deleted {
				delete(r.items, id)
				continue
			}
			r.items[id] = w.value.(prescription.Prescription)
		}
	}

	return tx, nil
}

func (r *PrescriptionsRepo) Create(ctx context.Context, p prescription.Prescription) error {
	r.mu.Lock()
	r.items[p.ID] = p
	r.mu.Unlock()

	return nil
}

func (r *PrescriptionsRepo) GetByID(ctx context.Context, id string) (prescription.Prescription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return prescription.Prescription{}, common.ErrNotFound
	}
	return p, nil
}

func (r *PrescriptionsRepo) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (prescription.Prescription, error) {
	mt, ok := tx.(*memTx)
	if !ok {
		return prescription.Prescription{}, errForeignTx
	}

	if w, staged := mt.writes[id]; staged {
		if w.deleted {
			return prescription.Prescription{}, common.ErrNotFound
		}
		return w.value.(prescription.Prescription), nil
	}

	// the write lock is already held by tx
	p, found := r.items[id]
	if !found {
		return prescription.Prescription{}, common.ErrNotFound
	}
	return p, nil
}

func (r *PrescriptionsRepo) UpdateTx(ctx context.Context, tx pgx.Tx, p prescription.Prescription) (prescription.Prescription, error) {
	if _, err := r.GetForUpdateTx(ctx, tx, p.ID); err != nil {
		return prescription.Prescription{}, err
	}

	tx.(*memTx).writes[p.ID] = &stagedWrite{value: p}
	return p, nil
}

func (r *PrescriptionsRepo) DeleteTx(ctx context.Context, tx pgx.Tx, id string) error {
	if _, err := r.GetForUpdateTx(ctx, tx, id); err != nil {
		return err
	}

	tx.(*memTx).writes[id] = &stagedWrite{deleted: true}
	return nil
}

func (r *PrescriptionsRepo) ListByOwner(ctx context.Context, ownerID string, dr prescription.DateRange) ([]prescription.Prescription, error) {
	r.mu.RLock()
	out := make([]prescription.Prescription, 0)
	for _, p := range r.items {
		if p.UserID == ownerID && dr.Contains(p.PrescriptionDate) {
			out = append(out, p)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.PrescriptionDate.Equal(b.PrescriptionDate) {
			return a.PrescriptionDate.Before(b.PrescriptionDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	return out, nil
}

func (r *PrescriptionsRepo) CountByDay(ctx context.Context, ownerID string, dr prescription.DateRange) ([]report.DayCount, error) {
	r.mu.RLock()
	counts := make(map[prescription.Date]int)
	for _, p := range r.items {
		if p.UserID == ownerID && dr.Contains(p.PrescriptionDate) {
			counts[p.PrescriptionDate]++
		}
	}
	r.mu.RUnlock()

	out := make([]report.DayCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, report.DayCount{Day: day, PrescriptionCount: n})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })

	return out, nil
}
