package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/inkhaus/pressflow/internal/service"
)

// JobHandler 工单处理器
type JobHandler struct {
	svc *service.JobService
}

// NewJobHandler 创建工单处理器
func NewJobHandler(svc *service.JobService) *JobHandler {
	return &JobHandler{svc: svc}
}

// List 获取工单列表
func (h *JobHandler) List(c *gin.Context) {
	filters := map[string]interface{}{
		"status":    c.Query("status"),
		"csr_id":    c.Query("csr_id"),
		"client_id": c.Query("client_id"),
	}
	if rush := c.Query("rush"); rush != "" {
		filters["rush"] = rush == "true"
	}
	if needPhoto := c.Query("need_photo"); needPhoto != "" {
		filters["need_photo"] = needPhoto == "true"
	}

	jobs, err := h.svc.List(c.Request.Context(), filters)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, jobs)
}

// Create 创建工单
func (h *JobHandler) Create(c *gin.Context) {
	var req service.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	job, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, job)
}

// Get 获取工单详情
func (h *JobHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	job, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, job)
}

// Update 编辑工单非状态字段
func (h *JobHandler) Update(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if _, ok := fields["status"]; ok {
		BadRequest(c, "status must go through the transition endpoint")
		return
	}

	job, err := h.svc.UpdateFields(c.Request.Context(), id, fields)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, job)
}

// Delete 删除工单
func (h *JobHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, nil)
}

// ListActivities 获取工单日志
func (h *JobHandler) ListActivities(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	acts, err := h.svc.ListActivities(c.Request.Context(), id)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, acts)
}

// transitionBody 状态流转请求体
type transitionBody struct {
	Mode           string `json:"mode" binding:"required,oneof=advance hold exception set_status"`
	Status         string `json:"status"`
	OverrideReason string `json:"override_reason"`
	Origin         string `json:"origin"`
}

// Transition 请求状态流转，所有来源共用的唯一入口
func (h *JobHandler) Transition(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	var body transitionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	origin := service.OriginAPI
	if body.Origin == "board" {
		origin = service.OriginBoard
	}

	result, err := h.svc.RequestTransition(c.Request.Context(), id, &service.TransitionRequest{
		Mode:           service.TransitionMode(body.Mode),
		Status:         body.Status,
		OverrideReason: body.OverrideReason,
		Origin:         origin,
		UserID:         GetUserID(c),
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, result)
}
