package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/rxtrack/internal/actorctx"
	"github.com/geocoder89/rxtrack/internal/common"
	"github.com/geocoder89/rxtrack/internal/config"
	"github.com/geocoder89/rxtrack/internal/domain/prescription"
	"github.com/geocoder89/rxtrack/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type PrescriptionService interface {
	List(ctx context.Context, caller user.User, dr *prescription.DateRange) ([]prescription.Prescription, error)
	GetByID(ctx context.Context, caller user.User, id string) (prescription.Prescription, error)
	Create(ctx context.Context, caller user.User, draft prescription.Draft) (prescription.Prescription, error)
	Update(ctx context.Context, caller user.User, id string, draft prescription.Draft) (prescription.Prescription, error)
	Delete(ctx context.Context, caller user.User, id string) error
}

type PrescriptionsHandler struct {
	svc PrescriptionService
}

func NewPrescriptionsHandler(svc PrescriptionService) *PrescriptionsHandler {
	return &PrescriptionsHandler{svc: svc}
}

const requestTimeout = 3 * time.Second

func (h *PrescriptionsHandler) List(ctx *gin.Context) {
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

	items, err := h.svc.List(cctx, caller, dr)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondCachedJSON(ctx, http.StatusOK, items)
}

func (h *PrescriptionsHandler) Get(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	p, err := h.svc.GetByID(cctx, caller, ctx.Param("id"))
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondCachedJSON(ctx, http.StatusOK, p)
}

func (h *PrescriptionsHandler) Create(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	var draft prescription.Draft
	if !BindJSON(ctx, &draft) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	p, err := h.svc.Create(cctx, caller, draft)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.Header("Location", "/api/v1/prescription/"+p.ID)
	ctx.JSON(http.StatusCreated, p)
}

func (h *PrescriptionsHandler) Update(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	var draft prescription.Draft
	if !BindJSON(ctx, &draft) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	p, err := h.svc.Update(cctx, caller, ctx.Param("id"), draft)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *PrescriptionsHandler) Delete(ctx *gin.Context) {
	caller, ok := callerFrom(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.Delete(cctx, caller, ctx.Param("id")); err != nil {
		RespondServiceError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Prescription deleted successfully"})
}

// callerFrom answers 401 itself when the auth middleware did not run.
func callerFrom(ctx *gin.Context) (user.User, bool) {
	u, ok := actorctx.UserFrom(ctx.Request.Context())
	if !ok {
		RespondServiceError(ctx, common.ErrUnauthenticated)
		return user.User{}, false
	}
	return u, true
}
