package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/inkhaus/pressflow/internal/model/entity"
	"github.com/inkhaus/pressflow/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
)

const reportCacheTTL = 60 * time.Second

// ReportService 生产报表服务
type ReportService struct {
	jobRepo *repository.JobRepository
	rdb     *redis.Client
}

// NewReportService 创建报表服务
func NewReportService(jobRepo *repository.JobRepository, rdb *redis.Client) *ReportService {
	return &ReportService{jobRepo: jobRepo, rdb: rdb}
}

// ReportQuery 报表查询条件
type ReportQuery struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	CSRID    string    `json:"csr_id"`
	ClientID string    `json:"client_id"`
	PressID  string    `json:"press_id"`
}

// JobRosterRow 报表工单行
type JobRosterRow struct {
	JobCode    string    `json:"job_code"`
	ClientName string    `json:"client_name"`
	CSRName    string    `json:"csr_name"`
	Status     string    `json:"status"`
	Rush24Hr   bool      `json:"rush_24hr"`
	QtyTotal   int       `json:"qty_total"`
	ShipDate   time.Time `json:"ship_date"`
	PressID    string    `json:"press_id"`
	Defects    int       `json:"defects"`
}

// Report 报表快照
type Report struct {
	Query       ReportQuery    `json:"query"`
	GeneratedAt time.Time      `json:"generated_at"`
	KPIs        *KPISnapshot   `json:"kpis"`
	Jobs        []JobRosterRow `json:"jobs"`
}

// Get 生成报表，命中缓存直接返回；报表相对在途变更允许最终一致
func (s *ReportService) Get(ctx context.Context, q *ReportQuery) (*Report, error) {
	cacheKey := fmt.Sprintf("reports:%d:%d:%s:%s:%s",
		q.Start.Unix(), q.End.Unix(), q.CSRID, q.ClientID, q.PressID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var report Report
			if err := json.Unmarshal([]byte(cached), &report); err == nil {
				return &report, nil
			}
		}
	}

	report, err := s.build(ctx, q)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(report); err == nil {
			s.rdb.Set(ctx, cacheKey, raw, reportCacheTTL)
		}
	}
	return report, nil
}

func (s *ReportService) build(ctx context.Context, q *ReportQuery) (*Report, error) {
	jobs, err := s.jobRepo.ListForReport(ctx, q.Start, q.End, q.CSRID, q.ClientID, q.PressID)
	if err != nil {
		return nil, fmt.Errorf("list report jobs: %w", err)
	}

	activitiesByJob := make(map[string][]entity.Activity, len(jobs))
	qcByJob := make(map[string][]entity.QCRecord, len(jobs))
	for i := range jobs {
		activitiesByJob[jobs[i].ID] = jobs[i].Activities
		qcByJob[jobs[i].ID] = jobs[i].QCRecords
	}

	now := time.Now()
	report := &Report{
		Query:       *q,
		GeneratedAt: now,
		KPIs:        ComputeKPIs(jobs, activitiesByJob, qcByJob, now),
		Jobs:        make([]JobRosterRow, 0, len(jobs)),
	}

	for i := range jobs {
		job := &jobs[i]
		row := JobRosterRow{
			JobCode:  job.JobCode,
			Status:   job.Status,
			Rush24Hr: job.Rush24Hr,
			QtyTotal: job.QtyTotal,
			ShipDate: job.ShipDate,
		}
		if job.Client != nil {
			row.ClientName = job.Client.Name
		}
		if job.CSR != nil {
			row.CSRName = job.CSR.Name
		}
		if job.PressSetup != nil {
			row.PressID = job.PressSetup.PressID
		}
		for _, rec := range job.QCRecords {
			row.Defects += rec.Defects
		}
		report.Jobs = append(report.Jobs, row)
	}
	return report, nil
}

var reportExportHeaders = []string{
	"工单号", "客户", "客服", "状态", "加急", "数量", "交期", "印机", "次品数",
}

// Export 导出报表工单清单为xlsx
func (s *ReportService) Export(ctx context.Context, q *ReportQuery) (*excelize.File, string, error) {
	report, err := s.build(ctx, q)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheet := "Jobs"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range reportExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for i, row := range report.Jobs {
		r := i + 2
		shipDate := row.ShipDate.Format("2006-01-02")
		rush := ""
		if row.Rush24Hr {
			rush = "24HR"
		}
		values := []interface{}{
			row.JobCode, row.ClientName, row.CSRName, row.Status,
			rush, row.QtyTotal, shipDate, row.PressID, row.Defects,
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, r), v)
		}
	}

	// 底部汇总行
	summaryRow := len(report.Jobs) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "汇总")
	f.SetCellValue(sheet, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("总工单数: %d", report.KPIs.TotalJobs))
	f.SetCellValue(sheet, fmt.Sprintf("F%d", summaryRow), fmt.Sprintf("已发货: %d", report.KPIs.ShippedJobs))
	f.SetCellValue(sheet, fmt.Sprintf("I%d", summaryRow), fmt.Sprintf("总次品: %d", report.KPIs.TotalDefects))
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("I%d", summaryRow), summaryStyle)

	colWidths := []float64{14, 20, 14, 16, 8, 10, 12, 10, 10}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	fileName := fmt.Sprintf("production-report-%s.xlsx", time.Now().Format("20060102"))
	return f, fileName, nil
}
