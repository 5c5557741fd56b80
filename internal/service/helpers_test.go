package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/rxtrack/internal/domain/prescription"
	"github.com/geocoder89/rxtrack/internal/domain/user"
	"github.com/geocoder89/rxtrack/internal/repo/memory"
	"github.com/geocoder89/rxtrack/internal/security"
	"github.com/google/uuid"
)

// fixedNow is mid-June so the month default is 2025-06-01..2025-06-30.
var fixedNow = time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func intPtr(n int) *int { return &n }

func datePtr(d prescription.Date) *prescription.Date { return &d }

func validDraft() prescription.Draft {
	return prescription.Draft{
		PrescriptionDate: prescription.NewDate(2025, time.June, 10),
		PatientName:      "Jane Doe",
		PatientAge:       intPtr(42),
		PatientGender:    prescription.GenderFemale,
		Diagnosis:        "Seasonal flu",
		Medicines:        "Paracetamol 500mg",
		NextVisitDate:    datePtr(prescription.NewDate(2025, time.June, 22)),
	}
}

func newUser(t *testing.T, users *memory.UsersRepo, username, password string, enabled bool) user.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Enabled:      enabled,
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
	}

	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	return u
}
