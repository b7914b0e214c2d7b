package handlers

import (
	"net/http"

	"agritrack_backend/internal/auth"
	"agritrack_backend/internal/middleware"
	"agritrack_backend/internal/services"
	"agritrack_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type BroadcastHandler struct {
	*BaseHandler
	broadcastService services.BroadcastService
}

func NewBroadcastHandler(base *BaseHandler, broadcastService services.BroadcastService) *BroadcastHandler {
	return &BroadcastHandler{
		BaseHandler:      base,
		broadcastService: broadcastService,
	}
}

// CreateBroadcast runs the fan-out synchronously, so the response already
// carries the final status and delivery counters.
func (h *BroadcastHandler) CreateBroadcast(c *gin.Context) {
	senderID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateBroadcastRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	broadcast, err := h.broadcastService.Create(senderID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, broadcast)
}

func (h *BroadcastHandler) GetBroadcast(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}
	broadcastID := c.Param("broadcastId")

	broadcast, err := h.broadcastService.Get(broadcastID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, broadcast)
}

func (h *BroadcastHandler) GetBroadcasts(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}

	var criteria dto.BroadcastCriteria
	if !h.BindAndValidateQuery(c, &criteria) {
		return
	}
	criteria.Page, criteria.PageSize = ParsePagination(c)

	result, err := h.broadcastService.List(criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *BroadcastHandler) GetBroadcastStats(c *gin.Context) {
	if _, ok := h.GetAndAuthorizeUserID(c); !ok {
		return
	}
	broadcastID := c.Param("broadcastId")

	stats, err := h.broadcastService.Stats(broadcastID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *BroadcastHandler) RegisterRoutes(r *gin.RouterGroup) {
	broadcasts := r.Group("/admin/broadcasts")
	broadcasts.Use(middleware.AuthMiddleware(), middleware.RequireRoles(auth.RoleAdmin, auth.RoleSupervisor))
	{
		broadcasts.GET("", h.GetBroadcasts)
		broadcasts.GET("/:broadcastId", h.GetBroadcast)
		broadcasts.GET("/:broadcastId/stats", h.GetBroadcastStats)
	}

	authoring := r.Group("/admin/broadcasts")
	authoring.Use(middleware.AuthMiddleware(), middleware.RequireRoles(auth.RoleAdmin))
	{
		authoring.POST("", h.CreateBroadcast)
	}
}
