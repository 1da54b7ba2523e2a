package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herd/internal/domain/dates"
	"github.com/mamadbah2/herd/internal/domain/models"
	"github.com/mamadbah2/herd/internal/service/auth"
	"github.com/mamadbah2/herd/internal/service/farm"
	"github.com/mamadbah2/herd/internal/service/reminders"
	"github.com/mamadbah2/herd/internal/service/reporting"
)

// FarmHandler exposes the Farm Data Provider over JSON.
type FarmHandler struct {
	provider  *farm.Provider
	clock     *dates.Normalizer
	reporting *reporting.Service
	reminders *reminders.Service
	logger    *zap.Logger
}

// NewFarmHandler constructs the farm API handler.
func NewFarmHandler(provider *farm.Provider, clock *dates.Normalizer, reportingSvc *reporting.Service, remindersSvc *reminders.Service, logger *zap.Logger) *FarmHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = dates.NewNormalizer(nil, logger)
	}
	return &FarmHandler{
		provider:  provider,
		clock:     clock,
		reporting: reportingSvc,
		reminders: remindersSvc,
		logger:    logger,
	}
}

// GetFarm returns the farm profile with its derived head count.
func (h *FarmHandler) GetFarm(c *gin.Context) {
	c.JSON(http.StatusOK, h.provider.Farm())
}

// GetDashboard returns the current dashboard snapshot.
func (h *FarmHandler) GetDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.provider.Dashboard())
}

// RefreshDashboard reloads every collection from the store.
func (h *FarmHandler) RefreshDashboard(c *gin.Context) {
	if err := h.provider.Load(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, h.provider.Dashboard())
}

// Notifications returns the board built by the last dose poll.
func (h *FarmHandler) Notifications(c *gin.Context) {
	if h.reminders == nil {
		c.JSON(http.StatusOK, gin.H{"notifications": []reminders.Notification{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": h.reminders.Notifications(),
		"polledAt":      h.reminders.PolledAt(),
	})
}

// updatedBy names the caller for audit fields.
func updatedBy(c *gin.Context) string {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(auth.Principal); ok {
			return p.Email
		}
	}
	return ""
}

// queryDate reads an optional calendar date query parameter in any DateLike
// string form.
func (h *FarmHandler) queryDate(c *gin.Context, key string) *time.Time {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	t := h.clock.Normalize(dates.ISO(raw))
	return &t
}

// ListAnimals lists animals filtered by type, status and search text.
func (h *FarmHandler) ListAnimals(c *gin.Context) {
	filter := farm.AnimalFilter{
		Search: c.Query("search"),
		Type:   models.AnimalType(strings.ToLower(c.Query("type"))),
		Status: models.AnimalStatus(strings.ToLower(c.Query("status"))),
	}
	if t, ok := models.ParseAnimalType(c.Query("type")); ok {
		filter.Type = t
	}
	c.JSON(http.StatusOK, gin.H{"animals": h.provider.Animals(filter)})
}

// GetAnimal returns one animal.
func (h *FarmHandler) GetAnimal(c *gin.Context) {
	animal, err := h.provider.Animal(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, animal)
}

// GetAnimalRecords returns an animal with its health, production and genealogy.
func (h *FarmHandler) GetAnimalRecords(c *gin.Context) {
	records, err := h.provider.AnimalRecords(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// CreateAnimal adds an animal.
func (h *FarmHandler) CreateAnimal(c *gin.Context) {
	var req animalRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	animal, err := h.provider.CreateAnimal(c.Request.Context(), req.toAnimal(h.clock))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, animal)
}

// UpdateAnimal applies a partial update.
func (h *FarmHandler) UpdateAnimal(c *gin.Context) {
	var req animalPatchRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	animal, err := h.provider.UpdateAnimal(c.Request.Context(), c.Param("id"), req.toPatch(h.clock))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, animal)
}

// DeleteAnimal removes an animal and its records.
func (h *FarmHandler) DeleteAnimal(c *gin.Context) {
	if err := h.provider.DeleteAnimal(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
