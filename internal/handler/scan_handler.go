package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/inkhaus/pressflow/internal/service"
)

// ScanHandler 扫码网关，车间条码枪走这里
type ScanHandler struct {
	svc *service.JobService
}

// NewScanHandler 创建扫码处理器
func NewScanHandler(svc *service.JobService) *ScanHandler {
	return &ScanHandler{svc: svc}
}

// scanBody 扫码请求体，条码即工单编码
type scanBody struct {
	Barcode        string `json:"barcode" binding:"required"`
	Mode           string `json:"mode" binding:"omitempty,oneof=advance hold exception set_status"`
	Status         string `json:"status"`
	OverrideReason string `json:"override_reason"`
}

// Scan 扫码流转，默认推进一步
func (h *ScanHandler) Scan(c *gin.Context) {
	var body scanBody
	if err := c.ShouldBindJSON(&body); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	job, err := h.svc.GetByCode(c.Request.Context(), body.Barcode)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	mode := service.ModeAdvance
	if body.Mode != "" {
		mode = service.TransitionMode(body.Mode)
	}

	result, err := h.svc.RequestTransition(c.Request.Context(), job.ID, &service.TransitionRequest{
		Mode:           mode,
		Status:         body.Status,
		OverrideReason: body.OverrideReason,
		Origin:         service.OriginScan,
		Barcode:        body.Barcode,
		UserID:         GetUserID(c),
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, result)
}

// Lookup 扫码查看工单
func (h *ScanHandler) Lookup(c *gin.Context) {
	barcode := c.Query("barcode")
	if barcode == "" {
		BadRequest(c, "barcode is required")
		return
	}

	job, err := h.svc.GetByCode(c.Request.Context(), barcode)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, job)
}
