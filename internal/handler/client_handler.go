package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/inkhaus/pressflow/internal/service"
)

// ClientHandler 客户与用户目录处理器
type ClientHandler struct {
	svc *service.ClientService
}

// NewClientHandler 创建客户处理器
func NewClientHandler(svc *service.ClientService) *ClientHandler {
	return &ClientHandler{svc: svc}
}

// List 获取客户列表
func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.svc.List(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, clients)
}

// Get 获取客户详情
func (h *ClientHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Client ID is required")
		return
	}

	client, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, client)
}

// Create 创建客户
func (h *ClientHandler) Create(c *gin.Context) {
	var req service.SaveClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	client, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, client)
}

// Update 更新客户
func (h *ClientHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Client ID is required")
		return
	}

	var req service.SaveClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	client, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, client)
}

// Delete 删除客户，尚有工单时拒绝
func (h *ClientHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Client ID is required")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, nil)
}

// ListUsers 获取用户目录，可按角色过滤
func (h *ClientHandler) ListUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context(), c.Query("role"))
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, users)
}

// GetUser 获取用户详情
func (h *ClientHandler) GetUser(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "User ID is required")
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, user)
}
