package leave

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/myhealth/scheduling-api/internal/handler"
	"github.com/myhealth/scheduling-api/internal/model"
	leaveService "github.com/myhealth/scheduling-api/internal/service/leave"
	"github.com/myhealth/scheduling-api/pkg/auth"
)

type Handler struct {
	service *leaveService.Service
}

func NewHandler(service *leaveService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	leaves := r.Group("/leaves")
	{
		leaves.POST("", h.ApplyLeave)
		leaves.GET("", h.ListLeaves)
		leaves.GET("/:id", h.GetLeave)
		leaves.POST("/:id/approve", h.ApproveLeave)
		leaves.POST("/:id/end", h.EndLeave)
	}
}

func (h *Handler) ApplyLeave(c *gin.Context) {
	var req model.ApplyLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	leave, err := h.service.ApplyLeave(c.Request.Context(), &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(leave))
}

func (h *Handler) GetLeave(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid leave ID"))
		return
	}

	leave, err := h.service.GetLeave(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(leave))
}

func (h *Handler) ListLeaves(c *gin.Context) {
	filters := &model.LeaveFilters{
		Status: model.LeaveStatus(c.Query("status")),
	}
	if raw := c.Query("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor_id"))
			return
		}
		filters.DoctorID = id
	}

	leaves, err := h.service.ListLeaves(c.Request.Context(), filters)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(leaves))
}

func (h *Handler) ApproveLeave(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid leave ID"))
		return
	}

	approvedBy := "system"
	if actor := auth.ActorFromContext(c.Request.Context()); actor != nil {
		approvedBy = actor.Email
	}

	leave, err := h.service.ApproveLeave(c.Request.Context(), id, approvedBy)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(leave))
}

func (h *Handler) EndLeave(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid leave ID"))
		return
	}

	leave, err := h.service.EndLeave(c.Request.Context(), id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(leave))
}
