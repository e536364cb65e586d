package handlers

import (
	"io"
	"net/http"
	"strconv"

	"stagepass/internal/models"

	"github.com/gin-gonic/gin"
)

// Admin handlers. All routes in this file sit behind the admin role gate.

const maxBannerSize = 5 << 20 // 5 MiB

// AdminListEvents - GET /api/admin/events
// Полный каталог, включая неопубликованные события
func (h *Handlers) AdminListEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "50"))

	if page < 1 || pageSize < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pagination"})
		return
	}

	filter := models.EventFilter{
		PublishedOnly: false,
		Page:          page,
		PageSize:      pageSize,
	}

	response, err := h.services.Events.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to list events")
		return
	}

	c.JSON(http.StatusOK, response)
}

// AdminGetEvent - GET /api/admin/events/:id
func (h *Handlers) AdminGetEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	event, err := h.services.Events.Get(c.Request.Context(), id, true)
	if err != nil {
		respondError(c, err, "Failed to get event")
		return
	}

	c.JSON(http.StatusOK, event)
}

// AdminCreateEvent - POST /api/admin/events
func (h *Handlers) AdminCreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Events.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create event")
		return
	}

	h.invalidateEventsCache(c)
	c.JSON(http.StatusCreated, response)
}

// AdminUpdateEvent - PUT /api/admin/events/:id
func (h *Handlers) AdminUpdateEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req models.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.Events.Update(c.Request.Context(), id, &req); err != nil {
		respondError(c, err, "Failed to update event")
		return
	}

	h.invalidateEventsCache(c)
	c.Status(http.StatusOK)
}

// AdminDeleteEvent - DELETE /api/admin/events/:id
// Деструктивная операция: заказы сохраняются, ссылка на событие обнуляется
func (h *Handlers) AdminDeleteEvent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if err := h.services.Events.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete event")
		return
	}

	h.invalidateEventsCache(c)
	c.Status(http.StatusOK)
}

// AdminUploadBanner - POST /api/admin/events/:id/banner
// Загрузка баннера во внешнее хранилище изображений
func (h *Handlers) AdminUploadBanner(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	file, header, err := c.Request.FormFile("banner")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "banner file is required"})
		return
	}
	defer file.Close()

	if header.Size > maxBannerSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "banner must be at most 5 MiB"})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBannerSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read banner file"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	response, err := h.services.Events.UploadBanner(c.Request.Context(), id, header.Filename, contentType, data)
	if err != nil {
		respondError(c, err, "Failed to upload banner")
		return
	}

	h.invalidateEventsCache(c)
	c.JSON(http.StatusOK, response)
}

// AdminCreateOrder - POST /api/admin/orders
// Ручное создание заказа администратором
func (h *Handlers) AdminCreateOrder(c *gin.Context) {
	var req models.CreateManualOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Orders.CreateManual(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create order")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// AdminListUsers - GET /api/admin/users
func (h *Handlers) AdminListUsers(c *gin.Context) {
	users, err := h.services.Users.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list users")
		return
	}

	c.JSON(http.StatusOK, users)
}

// AdminCreateUser - POST /api/admin/users
func (h *Handlers) AdminCreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.services.Users.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, response)
}

// AdminStats - GET /api/admin/stats
// Сводка для дашборда администратора
func (h *Handlers) AdminStats(c *gin.Context) {
	stats, err := h.services.Stats.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to load stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) invalidateEventsCache(c *gin.Context) {
	if h.valkeyClient != nil {
		h.valkeyClient.InvalidateEventsList(c.Request.Context())
	}
}
