package service

import (
	"context"
	"fmt"
	"time"

	"github.com/geocoder89/rxtrack/internal/common"
	"github.com/geocoder89/rxtrack/internal/domain/prescription"
	"github.com/geocoder89/rxtrack/internal/domain/report"
	"github.com/geocoder89/rxtrack/internal/domain/user"
	"github.com/geocoder89/rxtrack/internal/utils"
	"github.com/jackc/pgx/v5"
)

// PrescriptionStore is implemented by postgres.PrescriptionsRepo and memory.PrescriptionsRepo.
type PrescriptionStore interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, p prescription.Prescription) error
	GetByID(ctx context.Context, id string) (prescription.Prescription, error)
	GetForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (prescription.Prescription, error)
	UpdateTx(ctx context.Context, tx pgx.Tx, p prescription.Prescription) (prescription.Prescription, error)
	DeleteTx(ctx context.Context, tx pgx.Tx, id string) error
	ListByOwner(ctx context.Context, ownerID string, dr prescription.DateRange) ([]prescription.Prescription, error)
	CountByDay(ctx context.Context, ownerID string, dr prescription.DateRange) ([]report.DayCount, error)
}

type PrescriptionService struct {
	store     PrescriptionStore
	validator *prescription.Validator
	clock     func() time.Time
}

func NewPrescriptionService(store PrescriptionStore, clock func() time.Time) *PrescriptionService {
	if clock == nil {
		clock = time.Now
	}
	return &PrescriptionService{
		store:     store,
		validator: prescription.NewValidator(clock),
		clock:     clock,
	}
}

// List returns the caller's prescriptions in dr, or in the current month when dr is nil.
func (s *PrescriptionService) List(ctx context.Context, caller user.User, dr *prescription.DateRange) ([]prescription.Prescription, error) {
	return s.store.ListByOwner(ctx, caller.ID, resolveRange(dr, s.clock))
}

func (s *PrescriptionService) GetByID(ctx context.Context, caller user.User, id string) (prescription.Prescription, error) {
	return s.loadOwned(ctx, caller, id, s.store.GetByID)
}

func (s *PrescriptionService) Create(ctx context.Context, caller user.User, draft prescription.Draft) (prescription.Prescription, error) {
	if err := s.validator.Validate(draft); err != nil {
		return prescription.Prescription{}, err
	}

	p := prescription.NewFromDraft(draft, caller.ID, s.clock().UTC())

	if err := s.store.Create(ctx, p); err != nil {
		return prescription.Prescription{}, err
	}

	return p, nil
}

// Update checks ownership before validating, so a foreign id never leaks validation details.
func (s *PrescriptionService) Update(ctx context.Context, caller user.User, id string, draft prescription.Draft) (prescription.Prescription, error) {
	var out prescription.Prescription

	err := s.inTx(ctx, func(tx pgx.Tx) error {
		p, err := s.loadOwned(ctx, caller, id, func(ctx context.Context, id string) (prescription.Prescription, error) {
			return s.store.GetForUpdateTx(ctx, tx, id)
		})
		if err != nil {
			return err
		}

		if err := s.validator.Validate(draft); err != nil {
			return err
		}

		p.Apply(draft)
		p.UpdatedAt = s.clock().UTC()

		out, err = s.store.UpdateTx(ctx, tx, p)
		return err
	})

	return out, err
}

func (s *PrescriptionService) Delete(ctx context.Context, caller user.User, id string) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		p, err := s.loadOwned(ctx, caller, id, func(ctx context.Context, id string) (prescription.Prescription, error) {
			return s.store.GetForUpdateTx(ctx, tx, id)
		})
		if err != nil {
			return err
		}

		return s.store.DeleteTx(ctx, tx, p.ID)
	})
}

// loadOwned is the one place ownership is decided. Malformed ids, missing rows and rows owned by
// someone else are all common.ErrNotFound.
func (s *PrescriptionService) loadOwned(
	ctx context.Context,
	caller user.User,
	id string,
	load func(ctx context.Context, id string) (prescription.Prescription, error),
) (prescription.Prescription, error) {
	if !utils.IsUUID(id) {
		return prescription.Prescription{}, common.ErrNotFound
	}

	p, err := load(ctx, id)
	if err != nil {
		return prescription.Prescription{}, err
	}

	if p.UserID != caller.ID {
		return prescription.Prescription{}, common.ErrNotFound
	}

	return p, nil
}

// inTx commits only when fn succeeds.
func (s *PrescriptionService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w: %w", common.ErrPersistence, err)
	}

	return nil
}

// resolveRange falls back to the calendar month containing today.
func resolveRange(dr *prescription.DateRange, clock func() time.Time) prescription.DateRange {
	if dr != nil {
		return *dr
	}
	return prescription.MonthOf(prescription.DateOf(clock()))
}
