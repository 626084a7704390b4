package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkhaus/pressflow/internal/service"
)

// ProofHandler 稿样处理器
type ProofHandler struct {
	svc *service.ProofService
}

// NewProofHandler 创建稿样处理器
func NewProofHandler(svc *service.ProofService) *ProofHandler {
	return &ProofHandler{svc: svc}
}

// ListByJob 获取工单稿样列表，版本降序
func (h *ProofHandler) ListByJob(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	proofs, err := h.svc.ListByJob(c.Request.Context(), jobID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, proofs)
}

// Upload 登记新版稿样（文件已在外部存储，只记录URL）
func (h *ProofHandler) Upload(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	var req service.UploadProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	proof, err := h.svc.Upload(c.Request.Context(), jobID, GetUserID(c), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, proof)
}

// UploadFile 上传稿样文件并登记新版
func (h *ProofHandler) UploadFile(c *gin.Context) {
	jobID := c.Param("id")
	if jobID == "" {
		BadRequest(c, "Job ID is required")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "File is required: "+err.Error())
		return
	}
	defer file.Close()

	version := 0
	if v := c.PostForm("version"); v != "" {
		version, _ = strconv.Atoi(v)
	}
	notes := c.PostForm("notes")

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	proof, err := h.svc.UploadFile(c.Request.Context(), jobID, GetUserID(c),
		header.Filename, header.Size, contentType, file, version, notes)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, proof)
}

// decideBody 稿样审批请求体
type decideBody struct {
	Decision   string `json:"decision" binding:"required,oneof=approve request_changes"`
	ApprovedBy string `json:"approved_by"`
	Email      string `json:"email"`
	Notes      string `json:"notes"`
}

// Decide 审批稿样：通过或要求修改
func (h *ProofHandler) Decide(c *gin.Context) {
	proofID := c.Param("id")
	if proofID == "" {
		BadRequest(c, "Proof ID is required")
		return
	}

	var body decideBody
	if err := c.ShouldBindJSON(&body); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	userID := GetUserID(c)
	if body.Decision == "approve" {
		result, err := h.svc.Approve(c.Request.Context(), proofID, body.ApprovedBy, body.Email, body.Notes, userID)
		if err != nil {
			HandleServiceError(c, err)
			return
		}
		Success(c, result)
		return
	}

	proof, err := h.svc.RequestChanges(c.Request.Context(), proofID, body.Notes, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, proof)
}

// Supersede 作废低版本稿样
func (h *ProofHandler) Supersede(c *gin.Context) {
	proofID := c.Param("id")
	if proofID == "" {
		BadRequest(c, "Proof ID is required")
		return
	}

	affected, err := h.svc.Supersede(c.Request.Context(), proofID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"superseded": affected})
}

// Download 获取稿样文件下载链接
func (h *ProofHandler) Download(c *gin.Context) {
	proofID := c.Param("id")
	if proofID == "" {
		BadRequest(c, "Proof ID is required")
		return
	}

	url, err := h.svc.DownloadURL(c.Request.Context(), proofID, 15*time.Minute)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"url": url})
}
