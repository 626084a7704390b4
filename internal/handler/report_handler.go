package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkhaus/pressflow/internal/service"
)

// ReportHandler 报表处理器
type ReportHandler struct {
	svc *service.ReportService
}

// NewReportHandler 创建报表处理器
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// parseQuery 解析报表查询条件，窗口默认最近30天
func parseQuery(c *gin.Context) (*service.ReportQuery, error) {
	now := time.Now()
	q := &service.ReportQuery{
		Start:    now.AddDate(0, 0, -30),
		End:      now,
		CSRID:    c.Query("csr_id"),
		ClientID: c.Query("client_id"),
		PressID:  c.Query("press_id"),
	}

	if s := c.Query("start"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, err
		}
		q.Start = t
	}
	if e := c.Query("end"); e != "" {
		t, err := time.Parse("2006-01-02", e)
		if err != nil {
			return nil, err
		}
		// 含当天
		q.End = t.AddDate(0, 0, 1).Add(-time.Second)
	}
	return q, nil
}

// Get 生成报表
func (h *ReportHandler) Get(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		BadRequest(c, "Invalid date: "+err.Error())
		return
	}

	report, err := h.svc.Get(c.Request.Context(), q)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	Success(c, report)
}

// Export 导出报表工单清单为xlsx
func (h *ReportHandler) Export(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		BadRequest(c, "Invalid date: "+err.Error())
		return
	}

	f, filename, err := h.svc.Export(c.Request.Context(), q)
	if err != nil {
		InternalError(c, err.Error())
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "write excel: "+err.Error())
	}
}
