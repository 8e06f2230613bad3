package policy

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

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	policies := rg.Group("/policies")
	{
		policies.GET("", h.List)
		policies.GET("/:id", h.Get)
		policies.GET("/:id/payments", h.Payments)
		policies.POST("", middleware.RequireRole(domain.RolePolicyHolder, domain.RoleInsuranceAgent, domain.RoleAdmin), h.Enroll)
		policies.POST("/:id/premium", middleware.RequireRole(domain.RolePolicyHolder), h.PayPremium)
		policies.POST("/:id/renew", middleware.RequireRole(domain.RolePolicyHolder, domain.RoleInsuranceAgent, domain.RoleAdmin), h.Renew)
		policies.POST("/:id/cancel", middleware.RequireRole(domain.RoleInsuranceAgent, domain.RoleAdmin), h.Cancel)
		policies.DELETE("/:id", middleware.AdminOnly(), h.Delete)
	}
}

func (h *Handler) Enroll(c *gin.Context) {
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err)
		return
	}

	p, err := h.service.Enroll(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"policy": p})
}

func (h *Handler) PayPremium(c *gin.Context) {
	id, ok := policyID(c)
	if !ok {
		return
	}

	p, payment, err := h.service.PayPremium(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"policy": p, "payment": payment})
}

func (h *Handler) Renew(c *gin.Context) {
	id, ok := policyID(c)
	if !ok {
		return
	}

	p, err := h.service.Renew(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"policy": p})
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := policyID(c)
	if !ok {
		return
	}

	p, err := h.service.Cancel(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"policy": p})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := policyID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.Actor(c), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := policyID(c)
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"policy": p})
}

func (h *Handler) Payments(c *gin.Context) {
	id, ok := policyID(c)
	if !ok {
		return
	}

	payments, err := h.service.Payments(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payments": payments})
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ValidationError(c, err)
		return
	}

	policies, total, err := h.service.List(c.Request.Context(), middleware.Actor(c), q)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"policies": policies, "total": total})
}

func policyID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid policy ID")
		return 0, false
	}
	return id, true
}
