package claim

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"healthinsure/internal/domain"
	"healthinsure/internal/middleware"
	"healthinsure/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the claim routes on an authenticated group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	claims := rg.Group("/claims")
	{
		claims.GET("", h.List)
		claims.GET("/:id", h.Get)
		claims.POST("", middleware.RequireRole(domain.RolePolicyHolder), h.Create)
		claims.POST("/:id/medical-notes", middleware.RequireRole(domain.RoleHospitalStaff), h.AddMedicalNotes)
		claims.POST("/:id/review", middleware.RequireRole(domain.RoleClaimsOfficer), h.Review)
		claims.POST("/:id/pay", middleware.RequireRole(domain.RoleClaimsOfficer), h.MarkPaid)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	claim, err := h.service.Create(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"claim": claim})
}

func (h *Handler) AddMedicalNotes(c *gin.Context) {
	id, ok := claimID(c)
	if !ok {
		return
	}

	var req MedicalNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	claim, err := h.service.AddMedicalNotes(c.Request.Context(), middleware.Actor(c), id, req.MedicalNotes)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"claim": claim})
}

func (h *Handler) Review(c *gin.Context) {
	id, ok := claimID(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	claim, err := h.service.Review(c.Request.Context(), middleware.Actor(c), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"claim": claim})
}

func (h *Handler) MarkPaid(c *gin.Context) {
	id, ok := claimID(c)
	if !ok {
		return
	}

	claim, err := h.service.MarkPaid(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"claim": claim})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := claimID(c)
	if !ok {
		return
	}

	claim, err := h.service.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"claim": claim})
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationError(c, err)
		return
	}

	claims, total, err := h.service.List(c.Request.Context(), middleware.Actor(c), q)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"claims": claims,
		"total":  total,
	})
}

func claimID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid claim ID")
		return 0, false
	}
	return id, true
}
