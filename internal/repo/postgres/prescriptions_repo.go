package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/rxtrack/internal/common"
	"github.com/geocoder89/rxtrack/internal/domain/prescription"
	"github.com/geocoder89/rxtrack/internal/domain/report"
	"github.com/jackc/pgx/v5"
)

const prescriptionColumns = `id, user_id, prescription_date, patient_name, patient_age, patient_gender,
	diagnosis, medicines, next_visit_date, created_at, updated_at`

type PrescriptionsRepo struct {
	db   DB
	prom DBObserver
}

func NewPrescriptionsRepo(db DB, prom DBObserver) *PrescriptionsRepo {
	return &PrescriptionsRepo{db: db, prom: prom}
}

func (r *PrescriptionsRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, persistence("prescriptions.begin", err)
	}
	return tx, nil
}

func (r *PrescriptionsRepo) Create(ctx context.Context, p prescription.Prescription) error {
	err := observe(r.prom, "prescriptions.create", func() error {
		_, err := r.db.Exec(ctx,
			`INSERT INTO prescriptions (`+prescriptionColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			p.ID, p.UserID, p.PrescriptionDate.Time(), p.PatientName, p.PatientAge, string(p.PatientGender),
			p.Diagnosis, p.Medicines, nullableDate(p.NextVisitDate), p.CreatedAt, p.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return persistence("prescriptions.create", err)
	}
	return nil
}

func (r *PrescriptionsRepo) GetByID(ctx context.Context, id string) (prescription.Prescription, error) {
	var p prescription.Prescription

	err := observe(r.prom, "prescriptions.get", func() error {
		var err error
		p, err = scanPrescription(r.db.QueryRow(ctx,
			`SELECT `+prescriptionColumns+` FROM prescriptions WHERE id = $1`, id))
		return err
	})

	return p, notFoundOr(err, "prescriptions.get")
}

// GetForUpdateTx locks the row until tx ends so a concurrent update or delete cannot interleave.
func (r *PrescriptionsRepo) GetForUpdateTx(ctx context.Context, tx pgx.Tx, id string) (prescription.Prescription, error) {
	var p prescription.Prescription

	err := observe(r.prom, "prescriptions.get_for_update", func() error {
		var err error
		p, err = scanPrescription(tx.QueryRow(ctx,
			`SELECT `+prescriptionColumns+` FROM prescriptions WHERE id = $1 FOR UPDATE`, id))
		return err
	})

	return p, notFoundOr(err, "prescriptions.get_for_update")
}

func (r *PrescriptionsRepo) UpdateTx(ctx context.Context, tx pgx.Tx, p prescription.Prescription) (prescription.Prescription, error) {
	var out prescription.Prescription

	err := observe(r.prom, "prescriptions.update", func() error {
		var err error
		out, err = scanPrescription(tx.QueryRow(ctx,
			`UPDATE prescriptions
			SET prescription_date = $2,
				patient_name = $3,
				patient_age = $4,
				patient_gender = $5,
				diagnosis = $6,
				medicines = $7,
				next_visit_date = $8,
				updated_at = $9
			WHERE id = $1
			RETURNING `+prescriptionColumns,
			p.ID, p.PrescriptionDate.Time(), p.PatientName, p.PatientAge, string(p.PatientGender),
			p.Diagnosis, p.Medicines, nullableDate(p.NextVisitDate), p.UpdatedAt,
		))
		return err
	})

	return out, notFoundOr(err, "prescriptions.update")
}

func (r *PrescriptionsRepo) DeleteTx(ctx context.Context, tx pgx.Tx, id string) error {
	var affected int64

	err := observe(r.prom, "prescriptions.delete", func() error {
		tag, err := tx.Exec(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return persistence("prescriptions.delete", err)
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}

// ListByOwner returns the owner's records dated inside dr, oldest first.
func (r *PrescriptionsRepo) ListByOwner(ctx context.Context, ownerID string, dr prescription.DateRange) ([]prescription.Prescription, error) {
	out := make([]prescription.Prescription, 0)

	err := observe(r.prom, "prescriptions.list_by_owner", func() error {
		rows, err := r.db.Query(ctx,
			`SELECT `+prescriptionColumns+`
			FROM prescriptions
			WHERE user_id = $1 AND prescription_date BETWEEN $2 AND $3
			ORDER BY prescription_date ASC, created_at ASC, id ASC`,
			ownerID, dr.Start.Time(), dr.End.Time(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanPrescription(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, persistence("prescriptions.list_by_owner", err)
	}

	return out, nil
}

// CountByDay groups the owner's records in dr by prescription date. Days without records are
// absent from the result.
func (r *PrescriptionsRepo) CountByDay(ctx context.Context, ownerID string, dr prescription.DateRange) ([]report.DayCount, error) {
	out := make([]report.DayCount, 0)

	err := observe(r.prom, "prescriptions.count_by_day", func() error {
		rows, err := r.db.Query(ctx,
			`SELECT prescription_date, COUNT(*)
			FROM prescriptions
			WHERE user_id = $1 AND prescription_date BETWEEN $2 AND $3
			GROUP BY prescription_date
			ORDER BY prescription_date ASC`,
			ownerID, dr.Start.Time(), dr.End.Time(),
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var day time.Time
			var count int64

			if err := rows.Scan(&day, &count); err != nil {
				return err
			}

			out = append(out, report.DayCount{
				Day:               prescription.DateOf(day),
				PrescriptionCount: int(count),
			})
		}

		return rows.Err()
	})
	if err != nil {
		return nil, persistence("prescriptions.count_by_day", err)
	}

	return out, nil
}

func scanPrescription(row pgx.Row) (prescription.Prescription, error) {
	var (
		p         prescription.Prescription
		date      time.Time
		gender    string
		nextVisit *time.Time
	)

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&date,
		&p.PatientName,
		&p.PatientAge,
		&gender,
		&p.Diagnosis,
		&p.Medicines,
		&nextVisit,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return prescription.Prescription{}, err
	}

	p.PrescriptionDate = prescription.DateOf(date)
	p.PatientGender = prescription.Gender(gender)
	if nextVisit != nil {
		d := prescription.DateOf(*nextVisit)
		p.NextVisitDate = &d
	}

	return p, nil
}

func nullableDate(d *prescription.Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time()
	return &t
}

func notFoundOr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return common.ErrNotFound
	}
	return persistence(op, err)
}
