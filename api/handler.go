package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sales_api/internal/metrics"
	"sales_api/internal/sales"
)

// salesHandler holds the sales service and implements HTTP handlers for sales operations.
type salesHandler struct {
	salesService *sales.Service
	logger       *zap.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService *sales.Service, logger *zap.Logger) *salesHandler {
	return &salesHandler{
		salesService: salesService,
		logger:       logger,
	}
}

func (h *salesHandler) fail(c *gin.Context, op string, err error) {
	metrics.RecordSaleOperation(op, "error")
	_ = c.Error(err)
	respondError(c, err)
}

func (h *salesHandler) ok(c *gin.Context, op string, status int, message string, data any) {
	metrics.RecordSaleOperation(op, "success")
	respond(c, status, message, data)
}

// saleID parses the :id parameter, answering 400 itself when it is not a positive integer.
func (h *salesHandler) saleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.logger.Warn("invalid sale id", zap.String("id", c.Param("id")))
		respondFailure(c, http.StatusBadRequest, MsgInvalidData)
		return 0, false
	}
	return id, true
}

// handleCreateSale handles the POST /api/sales endpoint.
func (h *salesHandler) handleCreateSale(ctx *gin.Context) {
	var req sales.CreateSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		respondFailure(ctx, http.StatusBadRequest, MsgInvalidData)
		return
	}

	sale, err := h.salesService.CreateSale(ctx.Request.Context(), req)
	if err != nil {
		h.fail(ctx, "create", err)
		return
	}

	ctx.Header("Location", fmt.Sprintf("/api/sales/%d", sale.ID))
	h.ok(ctx, "create", http.StatusCreated, MsgAdded, sale)
}

func (h *salesHandler) handleGetSales(ctx *gin.Context) {
	all, err := h.salesService.GetAllSales(ctx.Request.Context())
	if err != nil {
		h.fail(ctx, "get_all", err)
		return
	}
	h.ok(ctx, "get_all", http.StatusOK, MsgSuccessful, all)
}

func (h *salesHandler) handleGetSale(ctx *gin.Context) {
	id, ok := h.saleID(ctx)
	if !ok {
		return
	}

	sale, err := h.salesService.GetSale(ctx.Request.Context(), id)
	if err != nil {
		h.fail(ctx, "get", err)
		return
	}
	h.ok(ctx, "get", http.StatusOK, MsgSuccessful, sale)
}

func (h *salesHandler) handleUpdateSale(ctx *gin.Context) {
	id, ok := h.saleID(ctx)
	if !ok {
		return
	}

	var req sales.UpdateSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err), zap.Int64("sale_id", id))
		respondFailure(ctx, http.StatusBadRequest, MsgInvalidData)
		return
	}

	sale, err := h.salesService.UpdateSale(ctx.Request.Context(), id, req)
	if err != nil {
		h.fail(ctx, "update", err)
		return
	}
	h.ok(ctx, "update", http.StatusOK, MsgModified, sale)
}

func (h *salesHandler) handleDeleteSale(ctx *gin.Context) {
	id, ok := h.saleID(ctx)
	if !ok {
		return
	}

	sale, err := h.salesService.DeleteSale(ctx.Request.Context(), id)
	if err != nil {
		h.fail(ctx, "delete", err)
		return
	}
	h.ok(ctx, "delete", http.StatusOK, MsgDeleted, sale)
}

// handleFilterSales handles GET /api/sales/filter?startDate=&endDate=&representativeId=.
func (h *salesHandler) handleFilterSales(ctx *gin.Context) {
	var (
		filter sales.Filter
		err    error
	)
	if filter.StartDate, err = parseDateParam(ctx.Query("startDate")); err != nil {
		h.logger.Warn("invalid startDate", zap.String("start_date", ctx.Query("startDate")))
		respondFailure(ctx, http.StatusBadRequest, MsgInvalidData)
		return
	}
	if filter.EndDate, err = parseDateParam(ctx.Query("endDate")); err != nil {
		h.logger.Warn("invalid endDate", zap.String("end_date", ctx.Query("endDate")))
		respondFailure(ctx, http.StatusBadRequest, MsgInvalidData)
		return
	}
	if rep := ctx.Query("representativeId"); rep != "" {
		if filter.RepresentativeID, err = strconv.ParseInt(rep, 10, 64); err != nil {
			h.logger.Warn("invalid representativeId", zap.String("representative_id", rep))
			respondFailure(ctx, http.StatusBadRequest, MsgInvalidData)
			return
		}
	}

	results, err := h.salesService.GetByFilters(ctx.Request.Context(), filter)
	if err != nil {
		h.fail(ctx, "filter", err)
		return
	}
	h.ok(ctx, "filter", http.StatusOK, MsgSuccessful, results)
}

func (h *salesHandler) handleDashboardMetrics(ctx *gin.Context) {
	summary, err := h.salesService.Summarize(ctx.Request.Context())
	if err != nil {
		h.fail(ctx, "summarize", err)
		return
	}
	h.ok(ctx, "summarize", http.StatusOK, MsgSuccessful, summary)
}

// parseDateParam accepts RFC 3339 timestamps or plain dates, which mean midnight UTC.
func parseDateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", v)
}
