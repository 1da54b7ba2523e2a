package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/herd/internal/apperr"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/service/farm"
	"github.com/mamadbah2/herd/internal/service/reporting"
)

func (h *FarmHandler) productionFilter(c *gin.Context) farm.ProductionFilter {
	return farm.ProductionFilter{
		Search:   c.Query("search"),
		Category: models.ProductionCategory(strings.ToLower(c.Query("type"))),
		AnimalID: c.Query("animalId"),
		From:     h.queryDate(c, "from"),
		To:       h.queryDate(c, "to"),
	}
}

// ListProduction lists production records, newest first, with the subtotal
// of the listed quantities.
func (h *FarmHandler) ListProduction(c *gin.Context) {
	filter := h.productionFilter(c)
	records := h.provider.ProductionRecords(filter)
	c.JSON(http.StatusOK, gin.H{
		"records":  records,
		"subtotal": reporting.Subtotal(records),
	})
}

// ProductionTotals returns per-animal totals, highest first.
func (h *FarmHandler) ProductionTotals(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"totals": h.provider.ProductionTotals(h.productionFilter(c))})
}

// GetProduction returns one production record.
func (h *FarmHandler) GetProduction(c *gin.Context) {
	record, err := h.provider.ProductionRecord(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// CreateProduction adds a production record.
func (h *FarmHandler) CreateProduction(c *gin.Context) {
	var req productionRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	record, err := h.provider.CreateProductionRecord(c.Request.Context(), req.toRecord(h.clock))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// UpdateProduction applies a partial update.
func (h *FarmHandler) UpdateProduction(c *gin.Context) {
	var req productionPatchRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	record, err := h.provider.UpdateProductionRecord(c.Request.Context(), c.Param("id"), req.toPatch(h.clock))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeleteProduction removes a production record.
func (h *FarmHandler) DeleteProduction(c *gin.Context) {
	if err := h.provider.DeleteProductionRecord(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ExportProduction writes the filtered table of one category to the sheet.
func (h *FarmHandler) ExportProduction(c *gin.Context) {
	var req exportRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	category := models.ProductionCategory(strings.ToLower(string(req.Type)))
	if !category.Valid() {
		respondError(c, h.logger, apperr.Validation("invalid export", map[string]string{"type": "type must be milk or meat"}))
		return
	}
	if h.reporting == nil {
		respondError(c, h.logger, apperr.Disabled("production export"))
		return
	}

	rows := h.provider.ProductionRecords(farm.ProductionFilter{
		Search:   req.Search,
		Category: category,
		AnimalID: req.AnimalID,
		From:     datePtr(h.clock, req.From),
		To:       datePtr(h.clock, req.To),
	})
	result, err := h.reporting.ExportProduction(c.Request.Context(), category, rows)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
