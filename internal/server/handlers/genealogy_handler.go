package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetGenealogy returns the resolved ancestry of an animal.
func (h *FarmHandler) GetGenealogy(c *gin.Context) {
	view, err := h.provider.Genealogy(c.Param("animalId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SaveGenealogy replaces the ancestry of an animal.
func (h *FarmHandler) SaveGenealogy(c *gin.Context) {
	var req genealogyRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	view, err := h.provider.SaveGenealogy(c.Request.Context(), req.toGenealogy(c.Param("animalId")), updatedBy(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteGenealogy removes the ancestry document of an animal.
func (h *FarmHandler) DeleteGenealogy(c *gin.Context) {
	if err := h.provider.DeleteGenealogy(c.Request.Context(), c.Param("animalId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MigrateGenealogy converts legacy parent blocks into genealogy documents.
func (h *FarmHandler) MigrateGenealogy(c *gin.Context) {
	result, err := h.provider.MigrateLegacyParents(c.Request.Context(), updatedBy(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
