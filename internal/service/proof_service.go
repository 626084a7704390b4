package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/inkhaus/pressflow/internal/model/entity"
	"github.com/inkhaus/pressflow/internal/repository"
	"gorm.io/gorm"
)

// ProofService 稿样服务：版本管理、审批与作废
type ProofService struct {
	proofRepo *repository.ProofRepository
	jobRepo   *repository.JobRepository
	storage   *StorageService
}

// NewProofService 创建稿样服务
func NewProofService(proofRepo *repository.ProofRepository, jobRepo *repository.JobRepository, storage *StorageService) *ProofService {
	return &ProofService{
		proofRepo: proofRepo,
		jobRepo:   jobRepo,
		storage:   storage,
	}
}

// UploadProofRequest 上传稿样请求
type UploadProofRequest struct {
	FileURL  string `json:"file_url"`
	ImageURL string `json:"image_url"`
	Version  int    `json:"version"` // 0表示自动取下一版本
	Notes    string `json:"notes"`
}

// Upload 上传新版稿样，初始PENDING。显式版本号与现有版本冲突时报错。
func (s *ProofService) Upload(ctx context.Context, jobID, userID string, req *UploadProofRequest) (*entity.Proof, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	version := req.Version
	if version > 0 {
		exists, err := s.proofRepo.ExistsVersion(ctx, jobID, version)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: proof version %d already exists for job %s", ErrConflict, version, job.JobCode)
		}
	} else {
		max, err := s.proofRepo.MaxVersion(ctx, jobID)
		if err != nil {
			return nil, err
		}
		version = max + 1
	}

	now := time.Now()
	proof := &entity.Proof{
		ID:        uuid.New().String()[:32],
		JobID:     jobID,
		Version:   version,
		Status:    entity.ProofStatusPending,
		FileURL:   req.FileURL,
		ImageURL:  req.ImageURL,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	act := &entity.Activity{
		ID:     uuid.New().String()[:32],
		JobID:  jobID,
		UserID: userID,
		Action: entity.ActionProofUploaded,
		Meta: entity.JSONB{
			entity.MetaProofID:      proof.ID,
			entity.MetaProofVersion: version,
			"file_url":              proof.FileURL,
		},
		CreatedAt: now,
	}

	if err := s.proofRepo.Create(ctx, proof, act); err != nil {
		// 并发上传同版本时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: proof version %d already exists for job %s", ErrConflict, version, job.JobCode)
		}
		return nil, fmt.Errorf("create proof: %w", err)
	}
	return proof, nil
}

// UploadFile 接收稿样文件存入对象存储后登记版本
func (s *ProofService) UploadFile(ctx context.Context, jobID, userID, fileName string, size int64, contentType string, reader io.Reader, version int, notes string) (*entity.Proof, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}

	v := version
	if v == 0 {
		max, err := s.proofRepo.MaxVersion(ctx, jobID)
		if err != nil {
			return nil, err
		}
		v = max + 1
	}

	url, err := s.storage.PutProofArtifact(ctx, jobID, v, fileName, size, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("store proof artifact: %w", err)
	}

	return s.Upload(ctx, jobID, userID, &UploadProofRequest{
		FileURL: url,
		Version: v,
		Notes:   notes,
	})
}

// ApproveResult 审批结果，级联推进时带回工单
type ApproveResult struct {
	Proof *entity.Proof `json:"proof"`
	Job   *entity.Job   `json:"job"`
	// Cascaded 工单是否因本次审批自动进入READY_FOR_PRESS
	Cascaded bool `json:"cascaded"`
}

// Approve 审批通过。工单处于WAITING_ARTWORK时在同一事务内级联推进，
// 稿样更新、工单更新与两条日志要么全部可见要么全部回滚。
func (s *ProofService) Approve(ctx context.Context, proofID, approvedBy, approverEmail, notes, userID string) (*ApproveResult, error) {
	proof, job, cascaded, err := s.proofRepo.Approve(ctx, proofID, approvedBy, approverEmail, notes, userID)
	if err != nil {
		return nil, err
	}
	return &ApproveResult{
		Proof:    proof,
		Job:      job,
		Cascaded: cascaded,
	}, nil
}

// RequestChanges 要求修改
func (s *ProofService) RequestChanges(ctx context.Context, proofID, notes, userID string) (*entity.Proof, error) {
	return s.proofRepo.RequestChanges(ctx, proofID, notes, userID)
}

// Supersede 作废低版本稿样
func (s *ProofService) Supersede(ctx context.Context, proofID string) ([]entity.Proof, error) {
	return s.proofRepo.Supersede(ctx, proofID)
}

// ListByJob 获取工单稿样列表
func (s *ProofService) ListByJob(ctx context.Context, jobID string) ([]entity.Proof, error) {
	return s.proofRepo.ListByJob(ctx, jobID)
}

// HasApprovedProof 工单是否存在已批准稿样
func (s *ProofService) HasApprovedProof(ctx context.Context, jobID string) (bool, error) {
	return s.proofRepo.HasApproved(ctx, jobID)
}

// DownloadURL 生成稿样文件的临时下载链接
func (s *ProofService) DownloadURL(ctx context.Context, proofID string, expiry time.Duration) (string, error) {
	proof, err := s.proofRepo.FindByID(ctx, proofID)
	if err != nil {
		return "", err
	}
	if s.storage == nil {
		return proof.FileURL, nil
	}
	return s.storage.PresignedURL(ctx, proof.FileURL, expiry)
}
