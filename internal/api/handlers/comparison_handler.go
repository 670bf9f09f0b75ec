package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/rlcompare/internal/domain"
	"github.com/andresuchdata/rlcompare/internal/service"
)

type ComparisonHandler struct {
	service *service.ComparisonService
}

func NewComparisonHandler(service *service.ComparisonService) *ComparisonHandler {
	return &ComparisonHandler{service: service}
}

// queryList accepts both repeated params and comma-separated values:
//
//	?location=L1&location=L2
//	?location=L1,L2
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func parseFilter(c *gin.Context) domain.Filter {
	return domain.Filter{
		ParetoClasses: queryList(c, "pareto"),
		Locations:     queryList(c, "location"),
		BusinessTags:  queryList(c, "business_tag"),
		ProductID:     strings.TrimSpace(c.Query("product_id")),
		VendorID:      strings.TrimSpace(c.Query("vendor_id")),
	}
}

// respondError renders an empty selection as a 200 "no data" body; anything
// else is a server error.
func respondError(c *gin.Context, err error, empty gin.H) {
	if errors.Is(err, domain.ErrEmptySelection) {
		empty["message"] = err.Error()
		c.JSON(http.StatusOK, empty)
		return
	}
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (h *ComparisonHandler) GetComparison(c *gin.Context) {
	view, ok := domain.ParseViewMode(c.Query("view"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid view %q, expected product or vendor", c.Query("view"))})
		return
	}

	cmp, err := h.service.Compare(c.Request.Context(), view, parseFilter(c))
	if err != nil {
		respondError(c, err, gin.H{"view": view, "rows": []domain.ComparisonRow{}})
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func (h *ComparisonHandler) ExportUnsafe(c *gin.Context) {
	var buf bytes.Buffer
	n, err := h.service.ExportUnsafe(c.Request.Context(), parseFilter(c), &buf)
	if err != nil {
		respondError(c, err, gin.H{"rows": 0})
		return
	}

	filename := fmt.Sprintf("unsafe_rows_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("X-Row-Count", strconv.Itoa(n))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *ComparisonHandler) GetSeries(c *gin.Context) {
	redistribute := false
	if raw := strings.TrimSpace(c.Query("redistribute")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid redistribute %q", raw)})
			return
		}
		redistribute = v
	}

	series, err := h.service.Series(c.Request.Context(), redistribute, parseFilter(c))
	if err != nil {
		respondError(c, err, gin.H{"points": []domain.SeriesPoint{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"redistributed": redistribute,
		"points":        series.Points,
		"undated_qty":   series.UndatedQty,
		"totals":        series.Totals(),
	})
}

func (h *ComparisonHandler) GetRedistribution(c *gin.Context) {
	plan, err := h.service.Redistribution(c.Request.Context(), parseFilter(c))
	if err != nil {
		respondError(c, err, gin.H{"allocations": []domain.Allocation{}, "checks": []domain.ConservationCheck{}, "rows": []domain.AdjustedQty{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"allocations":   plan.Allocations,
		"checks":        plan.Checks,
		"rows":          plan.Rows,
		"discrepancies": len(plan.Discrepancies()),
	})
}

func (h *ComparisonHandler) GetOutcomes(c *gin.Context) {
	ds, err := h.service.Dataset(c.Request.Context())
	if err != nil {
		respondError(c, err, gin.H{})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": ds.SessionID,
		"loaded_at":  ds.LoadedAt,
		"outcomes":   ds.Outcomes,
		"warnings":   ds.Warnings,
	})
}

func (h *ComparisonHandler) GetFilterOptions(c *gin.Context) {
	opts, err := h.service.FilterOptions(c.Request.Context())
	if err != nil {
		respondError(c, err, gin.H{})
		return
	}
	c.JSON(http.StatusOK, opts)
}

func (h *ComparisonHandler) Reload(c *gin.Context) {
	ds, err := h.service.Reload(c.Request.Context())
	if err != nil {
		respondError(c, err, gin.H{})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": ds.SessionID,
		"rows":       len(ds.Rows),
		"outcomes":   ds.Outcomes,
	})
}
