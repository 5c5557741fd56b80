package prescription

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type Prescription struct {
	ID               string    `json:"id"`
	PrescriptionDate Date      `json:"prescriptionDate"`
	PatientName      string    `json:"patientName"`
	PatientAge       int       `json:"patientAge"`
	PatientGender    Gender    `json:"patientGender"`
	Diagnosis        string    `json:"diagnosis"`
	Medicines        string    `json:"medicines"`
	NextVisitDate    *Date     `json:"nextVisitDate"`
	UserID           string    `json:"-"` // owner, never taken from or sent to clients
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Draft is the client supplied body for create and update. It has no owner field on purpose:
// ownership always comes from the authenticated caller.
type Draft struct {
	PrescriptionDate Date   `json:"prescriptionDate" validate:"required,notfuture"`
	PatientName      string `json:"patientName" validate:"required,notblank,nonul,max=255"`
	PatientAge       *int   `json:"patientAge" validate:"required,min=0,max=150"`
	PatientGender    Gender `json:"patientGender" validate:"required,oneof=MALE FEMALE OTHER"`
	Diagnosis        string `json:"diagnosis" validate:"nonul"`
	Medicines        string `json:"medicines" validate:"nonul"`
	NextVisitDate    *Date  `json:"nextVisitDate" validate:"omitempty,future"`
}

// NewFromDraft builds a fresh record owned by userID. The draft must already be validated.
func NewFromDraft(d Draft, userID string, now time.Time) Prescription {
	p := Prescription{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.Apply(d)
	return p
}

// Apply overwrites every mutable field from d. The owner and id are left untouched.
func (p *Prescription) Apply(d Draft) {
	p.PrescriptionDate = d.PrescriptionDate
	p.PatientName = d.PatientName
	if d.PatientAge != nil {
		p.PatientAge = *d.PatientAge
	}
	p.PatientGender = d.PatientGender
	p.Diagnosis = d.Diagnosis
	p.Medicines = d.Medicines
	p.NextVisitDate = nil
	if d.NextVisitDate != nil {
		next := *d.NextVisitDate
		p.NextVisitDate = &next
	}
}
