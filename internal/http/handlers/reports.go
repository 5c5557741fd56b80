package handlers

import (
	"context"
	"net/http"

	"github.com/geocoder89/rxtrack/internal/config"
	"github.com/geocoder89/rxtrack/internal/domain/prescription"
	"github.com/geocoder89/rxtrack/internal/domain/report"
	"github.com/geocoder89/rxtrack/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type ReportService interface {
	DayWiseCount(ctx context.Context, caller user.User, dr *prescription.DateRange) ([]report.DayCount, error)
}

type ReportsHandler struct {
	svc ReportService
}

func NewReportsHandler(svc ReportService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

func (h *ReportsHandler) DayWise(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	dr, ok := bindDateRange(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	counts, err := h.svc.DayWiseCount(cctx, caller, dr)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondCachedJSON(ctx, http.StatusOK, counts)
}
