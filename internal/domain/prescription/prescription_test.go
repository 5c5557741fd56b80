package prescription

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/rxtrack/internal/common"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func TestDateJSON(t *testing.T) {
	var payload struct {
		Day  Date  `json:"day"`
		Next *Date `json:"next"`
	}

	if err := json.Unmarshal([]byte(`{"day":"2025-06-01","next":null}`), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Day.String() != "2025-06-01" {
		t.Fatalf("expected 2025-06-01, got %s", payload.Day)
	}
	if payload.Next != nil {
		t.Fatalf("expected nil next, got %v", payload.Next)
	}

	b, err := json.Marshal(payload.Day)
	if err != nil || string(b) != `"2025-06-01"` {
		t.Fatalf("marshal: %s %v", b, err)
	}

	var first Date
	if err := json.Unmarshal([]byte(`"0001-01-01"`), &first); err != nil {
		t.Fatalf("unmarshal year one: %v", err)
	}
	if first.IsZero() || first.String() != "0001-01-01" {
		t.Fatalf("0001-01-01 is a real day, got zero=%v %q", first.IsZero(), first.String())
	}

	for _, bad := range []string{`"2025-13-01"`, `"01/06/2025"`, `20250601`} {
		var d Date
		if err := json.Unmarshal([]byte(bad), &d); err == nil {
			t.Fatalf("%s should not parse", bad)
		}
	}
}

func TestMonthOf(t *testing.T) {
	tests := []struct {
		in         Date
		start, end string
	}{
		{NewDate(2025, 6, 15), "2025-06-01", "2025-06-30"},
		{NewDate(2024, 2, 1), "2024-02-01", "2024-02-29"},
		{NewDate(2025, 12, 31), "2025-12-01", "2025-12-31"},
	}

	for _, tc := range tests {
		r := MonthOf(tc.in)
		if r.Start.String() != tc.start || r.End.String() != tc.end {
			t.Fatalf("MonthOf(%s) = %s..%s, want %s..%s", tc.in, r.Start, r.End, tc.start, tc.end)
		}
		if !r.Contains(tc.in) {
			t.Fatalf("range should contain %s", tc.in)
		}
	}
}

func TestDateOfUsesOwnLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2025, 6, 16, 1, 0, 0, 0, loc)

	if got := DateOf(ts).String(); got != "2025-06-16" {
		t.Fatalf("expected the local calendar day, got %s", got)
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator(fixedClock)
	today := v.Today()

	valid := func() Draft {
		return Draft{
			PrescriptionDate: today,
			PatientName:      "Jane Roe",
			PatientAge:       intPtr(40),
			PatientGender:    GenderFemale,
		}
	}

	tests := []struct {
		name      string
		mutate    func(d *Draft)
		wantField string
		wantRule  string
	}{
		{name: "valid"},
		{name: "age zero", mutate: func(d *Draft) { d.PatientAge = intPtr(0) }},
		{name: "age 150", mutate: func(d *Draft) { d.PatientAge = intPtr(150) }},
		{name: "age negative", mutate: func(d *Draft) { d.PatientAge = intPtr(-1) }, wantField: "patientAge", wantRule: "min"},
		{name: "age 151", mutate: func(d *Draft) { d.PatientAge = intPtr(151) }, wantField: "patientAge", wantRule: "max"},
		{name: "age missing", mutate: func(d *Draft) { d.PatientAge = nil }, wantField: "patientAge", wantRule: "required"},
		{name: "blank name", mutate: func(d *Draft) { d.PatientName = "   " }, wantField: "patientName", wantRule: "notblank"},
		{name: "bad gender", mutate: func(d *Draft) { d.PatientGender = "UNKNOWN" }, wantField: "patientGender", wantRule: "oneof"},
		{name: "missing date", mutate: func(d *Draft) { d.PrescriptionDate = Date{} }, wantField: "prescriptionDate", wantRule: "required"},
		{name: "future date", mutate: func(d *Draft) { d.PrescriptionDate = today.AddDays(1) }, wantField: "prescriptionDate", wantRule: "notfuture"},
		{name: "next visit today", mutate: func(d *Draft) { n := today; d.NextVisitDate = &n }, wantField: "nextVisitDate", wantRule: "future"},
		{name: "next visit tomorrow", mutate: func(d *Draft) { n := today.AddDays(1); d.NextVisitDate = &n }},
		{name: "next visit year one", mutate: func(d *Draft) { n := NewDate(1, time.January, 1); d.NextVisitDate = &n }, wantField: "nextVisitDate", wantRule: "future"},
		{name: "prescription date year one", mutate: func(d *Draft) { d.PrescriptionDate = NewDate(1, time.January, 1) }},
		{name: "nul in name", mutate: func(d *Draft) { d.PatientName = "Jane\x00Roe" }, wantField: "patientName", wantRule: "nonul"},
		{name: "nul in diagnosis", mutate: func(d *Draft) { d.Diagnosis = "flu\x00" }, wantField: "diagnosis", wantRule: "nonul"},
		{name: "nul in medicines", mutate: func(d *Draft) { d.Medicines = "\x00" }, wantField: "medicines", wantRule: "nonul"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := valid()
			if tc.mutate != nil {
				tc.mutate(&d)
			}

			err := v.Validate(d)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid draft, got %v", err)
				}
				return
			}

			var verr *common.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *common.ValidationError, got %v", err)
			}
			if !errors.Is(err, common.ErrValidation) {
				t.Fatal("validation errors should match ErrValidation")
			}
			if len(verr.Fields) != 1 || verr.Fields[0].Field != tc.wantField || verr.Fields[0].Rule != tc.wantRule {
				t.Fatalf("expected %s/%s, got %+v", tc.wantField, tc.wantRule, verr.Fields)
			}
		})
	}
}

func TestApplyKeepsOwner(t *testing.T) {
	now := fixedClock()
	d := Draft{PrescriptionDate: NewDate(2025, 6, 1), PatientName: "A", PatientAge: intPtr(5), PatientGender: GenderMale}

	p := NewFromDraft(d, "owner-1", now)
	if p.ID == "" || p.UserID != "owner-1" || !p.CreatedAt.Equal(now) {
		t.Fatalf("unexpected new record: %+v", p)
	}

	next := NewDate(2025, 7, 1)
	d.NextVisitDate = &next
	d.PatientName = "B"
	p.Apply(d)

	if p.UserID != "owner-1" || p.PatientName != "B" || p.NextVisitDate == nil {
		t.Fatalf("unexpected applied record: %+v", p)
	}
}
