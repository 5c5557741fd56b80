package service

import (
	"context"
	"time"

	"github.com/geocoder89/rxtrack/internal/domain/prescription"
	"github.com/geocoder89/rxtrack/internal/domain/report"
	"github.com/geocoder89/rxtrack/internal/domain/user"
)

type DayCounter interface {
	CountByDay(ctx context.Context, ownerID string, dr prescription.DateRange) ([]report.DayCount, error)
}

type ReportService struct {
	store DayCounter
	clock func() time.Time
}

func NewReportService(store DayCounter, clock func() time.Time) *ReportService {
	if clock == nil {
		clock = time.Now
	}
	return &ReportService{store: store, clock: clock}
}

// DayWiseCount counts the caller's prescriptions per day, ascending by day. Days with no
// prescriptions are omitted.
func (s *ReportService) DayWiseCount(ctx context.Context, caller user.User, dr *prescription.DateRange) ([]report.DayCount, error) {
	return s.store.CountByDay(ctx, caller.ID, resolveRange(dr, s.clock))
}
