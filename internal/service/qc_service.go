package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/inkhaus/pressflow/internal/model/entity"
	"github.com/inkhaus/pressflow/internal/repository"
)

// QCService 质检与发货服务
type QCService struct {
	qcRepo  *repository.QCRepository
	jobRepo *repository.JobRepository
	storage *StorageService
}

// NewQCService 创建质检服务
func NewQCService(qcRepo *repository.QCRepository, jobRepo *repository.JobRepository, storage *StorageService) *QCService {
	return &QCService{qcRepo: qcRepo, jobRepo: jobRepo, storage: storage}
}

// LogQCRequest 质检记录请求
type LogQCRequest struct {
	Passed    bool     `json:"passed"`
	Defects   int      `json:"defects" binding:"min=0"`
	Reasons   []string `json:"reasons"`
	PhotoURL  string   `json:"photo_url"`
	ExitTempF *float64 `json:"exit_temp_f"`
}

// LogRecord 登记质检结果，记录一经创建不可修改
func (s *QCService) LogRecord(ctx context.Context, jobID, userID string, req *LogQCRequest) (*entity.QCRecord, error) {
	if _, err := s.jobRepo.FindByID(ctx, jobID); err != nil {
		return nil, err
	}

	reasons := entity.JSONBArray{}
	for _, r := range req.Reasons {
		reasons = append(reasons, r)
	}

	now := time.Now()
	record := &entity.QCRecord{
		ID:        uuid.New().String()[:32],
		JobID:     jobID,
		Passed:    req.Passed,
		Defects:   req.Defects,
		Reasons:   reasons,
		PhotoURL:  req.PhotoURL,
		ExitTempF: req.ExitTempF,
		CreatedAt: now,
	}

	act := &entity.Activity{
		ID:     uuid.New().String()[:32],
		JobID:  jobID,
		UserID: userID,
		Action: entity.ActionQCLogged,
		Meta: entity.JSONB{
			"passed":  req.Passed,
			"defects": req.Defects,
		},
		CreatedAt: now,
	}

	if err := s.qcRepo.CreateRecord(ctx, record, act); err != nil {
		return nil, fmt.Errorf("create qc record: %w", err)
	}
	return record, nil
}

// ListByJob 获取工单质检记录
func (s *QCService) ListByJob(ctx context.Context, jobID string) ([]entity.QCRecord, error) {
	return s.qcRepo.ListByJob(ctx, jobID)
}

// UploadPhoto 上传质检照片，返回存储路径
func (s *QCService) UploadPhoto(ctx context.Context, jobID, fileName string, size int64, contentType string, reader io.Reader) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("object storage is not configured")
	}
	if _, err := s.jobRepo.FindByID(ctx, jobID); err != nil {
		return "", err
	}
	return s.storage.PutQCPhoto(ctx, jobID, fileName, size, contentType, reader)
}

// CreateShipmentRequest 发货记录请求
type CreateShipmentRequest struct {
	Courier  string   `json:"courier" binding:"required"`
	Tracking string   `json:"tracking"`
	Labels   []string `json:"labels"`
}

// CreateShipment 登记发货记录
func (s *QCService) CreateShipment(ctx context.Context, jobID, userID string, req *CreateShipmentRequest) (*entity.Shipment, error) {
	if _, err := s.jobRepo.FindByID(ctx, jobID); err != nil {
		return nil, err
	}

	labels := entity.JSONBArray{}
	for _, l := range req.Labels {
		labels = append(labels, l)
	}

	now := time.Now()
	shipment := &entity.Shipment{
		ID:        uuid.New().String()[:32],
		JobID:     jobID,
		Courier:   req.Courier,
		Tracking:  req.Tracking,
		Labels:    labels,
		CreatedAt: now,
	}

	act := &entity.Activity{
		ID:     uuid.New().String()[:32],
		JobID:  jobID,
		UserID: userID,
		Action: entity.ActionShipmentCreated,
		Meta: entity.JSONB{
			"courier":  req.Courier,
			"tracking": req.Tracking,
		},
		CreatedAt: now,
	}

	if err := s.qcRepo.CreateShipment(ctx, shipment, act); err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	return shipment, nil
}

// ListShipments 获取工单发货记录
func (s *QCService) ListShipments(ctx context.Context, jobID string) ([]entity.Shipment, error) {
	return s.qcRepo.ListShipmentsByJob(ctx, jobID)
}

// SavePressSetupRequest 上机参数请求
type SavePressSetupRequest struct {
	PressID           string  `json:"press_id" binding:"required"`
	Platen            string  `json:"platen"`
	SqueegeeDurometer int     `json:"squeegee_durometer"`
	Strokes           int     `json:"strokes"`
	OffContact        float64 `json:"off_contact"`
	FlashTimeMs       int     `json:"flash_time_ms"`
	TestPrintPass     bool    `json:"test_print_pass"`
}

// SavePressSetup 保存上机参数
func (s *QCService) SavePressSetup(ctx context.Context, jobID string, req *SavePressSetupRequest) (*entity.PressSetup, error) {
	if _, err := s.jobRepo.FindByID(ctx, jobID); err != nil {
		return nil, err
	}

	setup := &entity.PressSetup{
		ID:                uuid.New().String()[:32],
		JobID:             jobID,
		PressID:           req.PressID,
		Platen:            req.Platen,
		SqueegeeDurometer: req.SqueegeeDurometer,
		Strokes:           req.Strokes,
		OffContact:        req.OffContact,
		FlashTimeMs:       req.FlashTimeMs,
		TestPrintPass:     req.TestPrintPass,
	}
	if req.TestPrintPass {
		now := time.Now()
		setup.CompletedAt = &now
	}

	if err := s.qcRepo.UpsertPressSetup(ctx, setup); err != nil {
		return nil, fmt.Errorf("save press setup: %w", err)
	}
	return setup, nil
}

// GetPressSetup 获取工单上机参数
func (s *QCService) GetPressSetup(ctx context.Context, jobID string) (*entity.PressSetup, error) {
	return s.qcRepo.FindPressSetup(ctx, jobID)
}
