package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"healthinsure/internal/middleware"
	"healthinsure/internal/pkg/response"
)

// Streamer upgrades the request to a live notification stream for userID.
type Streamer interface {
	Serve(c *gin.Context, userID int64)
}

type Handler struct {
	service *Service
	stream  Streamer
}

func NewHandler(service *Service, stream Streamer) *Handler {
	return &Handler{service: service, stream: stream}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	n := rg.Group("/notifications")
	{
		n.GET("", h.List)
		n.GET("/unread-count", h.UnreadCount)
		n.PATCH("/:id/read", h.MarkAsRead)
		n.PATCH("/read-all", h.MarkAllAsRead)
		n.DELETE("/:id", h.Delete)
	}
	if h.stream != nil {
		rg.GET("/ws/notifications", h.Stream)
	}
}

func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	page, err := h.service.List(c.Request.Context(), middleware.Actor(c).UserID, limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, page)
}

func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := h.service.UnreadCount(c.Request.Context(), middleware.Actor(c).UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unread_count": n})
}

func (h *Handler) MarkAsRead(c *gin.Context) {
	id, ok := notificationID(c)
	if !ok {
		return
	}

	if err := h.service.MarkAsRead(c.Request.Context(), middleware.Actor(c).UserID, id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "read"})
}

func (h *Handler) MarkAllAsRead(c *gin.Context) {
	n, err := h.service.MarkAllAsRead(c.Request.Context(), middleware.Actor(c).UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "all_read", "updated": n})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := notificationID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.Actor(c).UserID, id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) Stream(c *gin.Context) {
	h.stream.Serve(c, middleware.Actor(c).UserID)
}

func notificationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return 0, false
	}
	return id, true
}
