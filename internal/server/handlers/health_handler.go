package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/service/farm"
)

// ListHealth lists health records, newest first.
func (h *FarmHandler) ListHealth(c *gin.Context) {
	records := h.provider.HealthRecords(farm.HealthFilter{
		Search:   c.Query("search"),
		Category: models.HealthCategory(strings.ToLower(c.Query("type"))),
		AnimalID: c.Query("animalId"),
	})
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// GetHealth returns one health record.
func (h *FarmHandler) GetHealth(c *gin.Context) {
	record, err := h.provider.HealthRecord(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// UpcomingDoses lists pending doses, most urgent first.
func (h *FarmHandler) UpcomingDoses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"doses": h.provider.UpcomingDoses(queryInt(c, "limit", 0))})
}

// CreateHealth adds a health record.
func (h *FarmHandler) CreateHealth(c *gin.Context) {
	var req healthRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	record, err := h.provider.CreateHealthRecord(c.Request.Context(), req.toRecord(h.clock))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// UpdateHealth applies a partial update.
func (h *FarmHandler) UpdateHealth(c *gin.Context) {
	var req healthPatchRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	record, err := h.provider.UpdateHealthRecord(c.Request.Context(), c.Param("id"), req.toPatch(h.clock))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// MarkDoseApplied rolls the next dose forward or clears it.
func (h *FarmHandler) MarkDoseApplied(c *gin.Context) {
	record, err := h.provider.MarkDoseApplied(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// DeleteHealth removes a health record.
func (h *FarmHandler) DeleteHealth(c *gin.Context) {
	if err := h.provider.DeleteHealthRecord(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
