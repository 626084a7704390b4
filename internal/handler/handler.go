package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/inkhaus/pressflow/internal/repository"
	"github.com/inkhaus/pressflow/internal/service"
)

// Handlers 处理器集合
type Handlers struct {
	Job       *JobHandler
	Scan      *ScanHandler
	Proof     *ProofHandler
	QC        *QCHandler
	Report    *ReportHandler
	Client    *ClientHandler
	Inventory *InventoryHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Job:       NewJobHandler(svc.Job),
		Scan:      NewScanHandler(svc.Job),
		Proof:     NewProofHandler(svc.Proof),
		QC:        NewQCHandler(svc.QC),
		Report:    NewReportHandler(svc.Report),
		Client:    NewClientHandler(svc.Client),
		Inventory: NewInventoryHandler(svc.Inventory),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// HandleServiceError 领域错误到HTTP响应的统一映射。
// 守卫失败返回400并附带提示操作员的结构化信息。
func HandleServiceError(c *gin.Context, err error) {
	var guardErr *service.GuardError
	if errors.As(err, &guardErr) {
		c.JSON(400, Response{
			Code:    40000,
			Message: guardErr.Error(),
			Data: gin.H{
				"reason":            guardErr.Reason,
				"current_status":    guardErr.CurrentStatus,
				"suggested_status":  guardErr.SuggestedStatus,
				"requires_override": guardErr.RequiresOverride,
				"requires_photo":    guardErr.RequiresPhoto,
			},
		})
		return
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrHasDependents):
		Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrMissingOverrideReason),
		errors.Is(err, service.ErrGuardViolation):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
