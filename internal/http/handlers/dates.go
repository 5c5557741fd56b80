package handlers

import (
	"github.com/geocoder89/rxtrack/internal/common"
	"github.com/geocoder89/rxtrack/internal/domain/prescription"
	"github.com/gin-gonic/gin"
)

type dateRangeQuery struct {
	StartDate string `form:"startDate" json:"startDate" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"endDate" json:"endDate" binding:"omitempty,datetime=2006-01-02"`
}

// bindDateRange reads startDate/endDate. A range is only formed when both are present; otherwise
// nil is returned and the services fall back to the current month.
func bindDateRange(ctx *gin.Context) (*prescription.DateRange, bool) {
	var q dateRangeQuery

	if !BindQuery(ctx, &q) {
		return nil, false
	}

	if q.StartDate == "" || q.EndDate == "" {
		return nil, true
	}

	start, err := prescription.ParseDate(q.StartDate)
	if err != nil {
		RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": []common.FieldError{
			{Field: "startDate", Rule: "datetime", Param: prescription.DateLayout, Message: err.Error()},
		}})
		return nil, false
	}

	end, err := prescription.ParseDate(q.EndDate)
	if err != nil {
		RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": []common.FieldError{
			{Field: "endDate", Rule: "datetime", Param: prescription.DateLayout, Message: err.Error()},
		}})
		return nil, false
	}

	if start.After(end) {
		RespondBadRequest(ctx, "Invalid query parameters", gin.H{"fields": []common.FieldError{
			{Field: "startDate", Rule: "ltefield", Param: "endDate", Message: "must not be after endDate"},
		}})
		return nil, false
	}

	return &prescription.DateRange{Start: start, End: end}, true
}
