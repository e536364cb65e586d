package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"stagepass/internal/models"

	"github.com/gin-gonic/gin"
)

// Events handlers

// ListEvents - GET /api/events
// Каталог опубликованных событий
func (h *Handlers) ListEvents(c *gin.Context) {
	query := c.Query("query")
	featured := c.Query("featured") == "true"

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	if page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be >= 1"})
		return
	}

	if pageSize < 1 || pageSize > 50 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pageSize must be between 1 and 50"})
		return
	}

	shouldCache := query == "" && !featured && h.valkeyClient != nil

	if shouldCache {
		// Raw JSON straight from the cache to skip the marshal round trip
		rawJSON, err := h.valkeyClient.GetEventsListRaw(c.Request.Context(), page, pageSize)
		if err == nil {
			c.Data(http.StatusOK, "application/json", rawJSON)
			return
		}
	}

	filter := models.EventFilter{
		Query:         query,
		FeaturedOnly:  featured,
		PublishedOnly: true,
		Page:          page,
		PageSize:      pageSize,
	}

	response, err := h.services.Events.List(c.Request.Context(), filter)
	if err != nil {
		slog.Error("Failed to list events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}

	if shouldCache {
		h.valkeyClient.SetEventsList(c.Request.Context(), page, pageSize, response)
	}

	c.JSON(http.StatusOK, response)
}

// GetEvent - GET /api/events/:id
// Детали события; неопубликованные события не видны покупателям
func (h *Handlers) GetEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	event, err := h.services.Events.Get(c.Request.Context(), id, false)
	if err != nil {
		respondError(c, err, "Failed to get event")
		return
	}

	c.JSON(http.StatusOK, event)
}
