package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/inkhaus/pressflow/internal/service"
)

// QCHandler 质检与发货处理器
type QCHandler struct {
	svc *service.QCService
}

// NewQCHandler 创建质检处理器
func NewQCHandler(svc *service.QCService) *QCHandler {
	return &QCHandler{svc: svc}
}

// LogRecord 登记质检结果
func (h *QCHandler) LogRecord(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	var req service.LogQCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	record, err := h.svc.LogRecord(c.Request.Context(), jobID, GetUserID(c), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, record)
}

// ListRecords 获取工单质检记录
func (h *QCHandler) ListRecords(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	records, err := h.svc.ListByJob(c.Request.Context(), jobID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, records)
}

// CreateShipment 登记发货记录
func (h *QCHandler) CreateShipment(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	var req service.CreateShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	shipment, err := h.svc.CreateShipment(c.Request.Context(), jobID, GetUserID(c), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, shipment)
}

// UploadPhoto 上传质检照片
func (h *QCHandler) UploadPhoto(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}

	src, err := file.Open()
	if err != nil {
		InternalError(c, "Failed to open uploaded file")
		return
	}
	defer src.Close()

	url, err := h.svc.UploadPhoto(c.Request.Context(), jobID, file.Filename, file.Size,
		file.Header.Get("Content-Type"), src)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, gin.H{"photo_url": url})
}

// ListShipments 获取工单发货记录
func (h *QCHandler) ListShipments(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	shipments, err := h.svc.ListShipments(c.Request.Context(), jobID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, shipments)
}

// GetPressSetup 获取工单上机参数
func (h *QCHandler) GetPressSetup(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	setup, err := h.svc.GetPressSetup(c.Request.Context(), jobID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, setup)
}

// SavePressSetup 保存上机参数
func (h *QCHandler) SavePressSetup(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	var req service.SavePressSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	setup, err := h.svc.SavePressSetup(c.Request.Context(), jobID, &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, setup)
}
