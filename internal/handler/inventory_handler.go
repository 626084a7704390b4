package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/inkhaus/pressflow/internal/service"
)

// InventoryHandler 库存处理器
type InventoryHandler struct {
	svc *service.InventoryService
}

// NewInventoryHandler 创建库存处理器
func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// List 获取物料列表
func (h *InventoryHandler) List(c *gin.Context) {
	filters := map[string]interface{}{
		"status":      c.Query("status"),
		"category_id": c.Query("category_id"),
		"search":      c.Query("search"),
	}

	items, err := h.svc.List(c.Request.Context(), filters)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, items)
}

// Get 获取物料详情
func (h *InventoryHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	item, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, item)
}

// Create 创建物料
func (h *InventoryHandler) Create(c *gin.Context) {
	var req service.SaveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.svc.Create(c.Request.Context(), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, item)
}

// Update 更新物料
func (h *InventoryHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	var req service.SaveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.svc.Update(c.Request.Context(), id, &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, item)
}

// Delete 删除物料
func (h *InventoryHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, nil)
}

// AddTransaction 记录库存流水
func (h *InventoryHandler) AddTransaction(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	var req service.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.svc.AddTransaction(c.Request.Context(), id, GetUserID(c), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, item)
}

// ListCategories 获取库存类别
func (h *InventoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, categories)
}

// Stats 库存总览统计
func (h *InventoryHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, stats)
}
