package report

import "github.com/geocoder89/rxtrack/internal/domain/prescription"

// DayCount is one row of the day-wise report.
type DayCount struct {
	Day               prescription.Date `json:"day"`
	PrescriptionCount int               `json:"prescriptionCount"`
}
