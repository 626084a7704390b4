package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/inkhaus/pressflow/internal/model/entity"
	"github.com/inkhaus/pressflow/internal/repository"
)

// TransitionMode 流转模式
type TransitionMode string

const (
	ModeAdvance   TransitionMode = "advance"
	ModeHold      TransitionMode = "hold"
	ModeException TransitionMode = "exception"
	ModeSetStatus TransitionMode = "set_status"
)

// TransitionOrigin 流转请求来源，决定日志的action标签
type TransitionOrigin string

const (
	OriginAPI   TransitionOrigin = "api"
	OriginBoard TransitionOrigin = "board"
	OriginScan  TransitionOrigin = "scan"
)

// JobService 工单服务，所有状态流转的唯一入口
type JobService struct {
	jobRepo   *repository.JobRepository
	proofRepo *repository.ProofRepository
	qcRepo    *repository.QCRepository
	actRepo   *repository.ActivityRepository
}

// NewJobService 创建工单服务
func NewJobService(jobRepo *repository.JobRepository, proofRepo *repository.ProofRepository, qcRepo *repository.QCRepository, actRepo *repository.ActivityRepository) *JobService {
	return &JobService{
		jobRepo:   jobRepo,
		proofRepo: proofRepo,
		qcRepo:    qcRepo,
		actRepo:   actRepo,
	}
}

// CreateJobRequest 创建工单请求
type CreateJobRequest struct {
	OENumber      string             `json:"oe_number" binding:"required"`
	ClientID      string             `json:"client_id" binding:"required"`
	CSRID         string             `json:"csr_id" binding:"required"`
	ShipDate      time.Time          `json:"ship_date" binding:"required"`
	Rush24Hr      bool               `json:"rush_24hr"`
	PrePro        bool               `json:"pre_pro"`
	NeedPhoto     bool               `json:"need_photo"`
	ProductID     string             `json:"product_id" binding:"required"`
	QtyTotal      int                `json:"qty_total" binding:"required,min=1"`
	SizeBreakdown map[string]int     `json:"size_breakdown" binding:"required"`
	Courier       string             `json:"courier"`
	Notes         string             `json:"notes"`
	Locations     []LocationInput    `json:"locations"`
}

// LocationInput 印刷位置输入
type LocationInput struct {
	Name          string   `json:"name" binding:"required"`
	WidthIn       float64  `json:"width_in" binding:"required,gt=0"`
	HeightIn      float64  `json:"height_in" binding:"required,gt=0"`
	Colors        int      `json:"colors" binding:"required,min=1"`
	PMS           []string `json:"pms"`
	Underbase     bool     `json:"underbase"`
	HalftoneLPI   int      `json:"halftone_lpi"`
	PlacementNote string   `json:"placement_note"`
}

// TransitionRequest 状态流转请求
type TransitionRequest struct {
	Mode           TransitionMode
	Status         string // SetStatus模式的目标状态
	OverrideReason string
	Origin         TransitionOrigin
	Barcode        string
	UserID         string
}

// TransitionResult 流转结果
type TransitionResult struct {
	Job       *entity.Job `json:"job"`
	OldStatus string      `json:"old_status"`
	NewStatus string      `json:"new_status"`
	NoOp      bool        `json:"no_op"`
	// Warnings 提示性信息（加急产能确认等），不阻断流转
	Warnings []string `json:"warnings,omitempty"`
}

// generateJobCode 生成扫码用工单编码
func generateJobCode() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return "JOB-" + ts[len(ts)-6:]
}

// Create 创建工单，初始状态NEW，写JOB_CREATED日志
func (s *JobService) Create(ctx context.Context, userID string, req *CreateJobRequest) (*entity.Job, error) {
	sum := 0
	breakdown := entity.JSONB{}
	for size, qty := range req.SizeBreakdown {
		if qty < 0 {
			return nil, fmt.Errorf("size breakdown for %s is negative", size)
		}
		sum += qty
		breakdown[size] = qty
	}
	if sum != req.QtyTotal {
		return nil, fmt.Errorf("size breakdown sums to %d, want qty_total %d", sum, req.QtyTotal)
	}

	now := time.Now()
	job := &entity.Job{
		ID:            uuid.New().String()[:32],
		JobCode:       generateJobCode(),
		OENumber:      req.OENumber,
		ClientID:      req.ClientID,
		CSRID:         req.CSRID,
		Status:        entity.JobStatusNew,
		ShipDate:      req.ShipDate,
		Rush24Hr:      req.Rush24Hr,
		PrePro:        req.PrePro,
		NeedPhoto:     req.NeedPhoto,
		ProductID:     req.ProductID,
		QtyTotal:      req.QtyTotal,
		SizeBreakdown: breakdown,
		Courier:       req.Courier,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for i, loc := range req.Locations {
		pms := entity.JSONBArray{}
		for _, p := range loc.PMS {
			pms = append(pms, p)
		}
		job.Locations = append(job.Locations, entity.PrintLocation{
			ID:            uuid.New().String()[:32],
			JobID:         job.ID,
			Name:          loc.Name,
			WidthIn:       loc.WidthIn,
			HeightIn:      loc.HeightIn,
			Colors:        loc.Colors,
			PMS:           pms,
			Underbase:     loc.Underbase,
			HalftoneLPI:   loc.HalftoneLPI,
			PrintOrder:    i + 1,
			PlacementNote: loc.PlacementNote,
		})
	}

	act := &entity.Activity{
		ID:     uuid.New().String()[:32],
		JobID:  job.ID,
		UserID: userID,
		Action: entity.ActionJobCreated,
		Meta: entity.JSONB{
			"job_code":  job.JobCode,
			"oe_number": job.OENumber,
		},
		CreatedAt: now,
	}

	if err := s.jobRepo.Create(ctx, job, act); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return job, nil
}

// Get 获取工单详情
func (s *JobService) Get(ctx context.Context, id string) (*entity.Job, error) {
	return s.jobRepo.FindByID(ctx, id)
}

// GetByCode 根据条码获取工单
func (s *JobService) GetByCode(ctx context.Context, code string) (*entity.Job, error) {
	return s.jobRepo.FindByCode(ctx, code)
}

// List 获取工单列表
func (s *JobService) List(ctx context.Context, filters map[string]interface{}) ([]entity.Job, error) {
	return s.jobRepo.List(ctx, filters)
}

// 允许直接编辑的字段，状态字段必须走RequestTransition
var editableJobFields = map[string]bool{
	"notes":      true,
	"courier":    true,
	"rush_24hr":  true,
	"pre_pro":    true,
	"need_photo": true,
	"ship_date":  true,
	"oe_number":  true,
}

// UpdateFields 编辑非状态字段
func (s *JobService) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (*entity.Job, error) {
	updates := map[string]interface{}{}
	for k, v := range fields {
		if !editableJobFields[k] {
			return nil, fmt.Errorf("field %s is not editable", k)
		}
		updates[k] = v
	}
	if len(updates) == 0 {
		return s.jobRepo.FindByID(ctx, id)
	}
	if err := s.jobRepo.UpdateFields(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.jobRepo.FindByID(ctx, id)
}

// ListActivities 获取工单日志，按创建时间升序
func (s *JobService) ListActivities(ctx context.Context, jobID string) ([]entity.Activity, error) {
	if _, err := s.jobRepo.FindByID(ctx, jobID); err != nil {
		return nil, err
	}
	return s.actRepo.ListByJob(ctx, jobID)
}

// Delete 删除工单，存在从属记录时拒绝
func (s *JobService) Delete(ctx context.Context, id string) error {
	if _, err := s.jobRepo.FindByID(ctx, id); err != nil {
		return err
	}
	count, err := s.jobRepo.CountDependents(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %d dependent records", ErrHasDependents, count)
	}
	return s.jobRepo.Delete(ctx, id)
}

// RequestTransition 请求状态流转。守卫校验基于读取到的当前状态，
// 提交时以条件更新保证该状态仍然成立，并发写不会互相覆盖。
func (s *JobService) RequestTransition(ctx context.Context, jobID string, req *TransitionRequest) (*TransitionResult, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}

	switch req.Mode {
	case ModeHold:
		return s.forceTo(ctx, job, entity.JobStatusHold, req)
	case ModeException:
		return s.forceTo(ctx, job, entity.JobStatusException, req)
	case ModeAdvance:
		return s.advance(ctx, job, req)
	case ModeSetStatus:
		return s.setStatus(ctx, job, req)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidTransition, req.Mode)
	}
}

// advance 沿固定线性顺序推进一步
func (s *JobService) advance(ctx context.Context, job *entity.Job, req *TransitionRequest) (*TransitionResult, error) {
	// 已发货的工单再次推进视为幂等成功，不写日志
	if job.Status == entity.JobStatusShipped {
		return &TransitionResult{
			Job:       job,
			OldStatus: job.Status,
			NewStatus: job.Status,
			NoOp:      true,
		}, nil
	}

	if !entity.CanAdvanceFrom(job.Status) {
		return nil, fmt.Errorf("%w: cannot advance from %s", ErrInvalidTransition, job.Status)
	}

	next, _ := entity.NextStatus(job.Status)
	warnings, err := s.checkGuards(ctx, job, next, req.OverrideReason)
	if err != nil {
		return nil, err
	}

	return s.commit(ctx, job, next, req, warnings)
}

// setStatus 直接指定目标状态，偏离默认推进结果时必须给出强制理由
func (s *JobService) setStatus(ctx context.Context, job *entity.Job, req *TransitionRequest) (*TransitionResult, error) {
	if !entity.IsValidJobStatus(req.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, req.Status)
	}

	next, ok := entity.NextStatus(job.Status)
	if ok && req.Status == next {
		// 与默认推进一致时按推进处理，照常过守卫
		return s.advance(ctx, job, req)
	}

	if req.OverrideReason == "" {
		return nil, fmt.Errorf("%w: setting %s from %s", ErrMissingOverrideReason, req.Status, job.Status)
	}
	return s.commit(ctx, job, req.Status, req, nil)
}

// checkGuards 推进守卫。失败纯粹返回错误，不产生任何写入。
func (s *JobService) checkGuards(ctx context.Context, job *entity.Job, next, overrideReason string) ([]string, error) {
	var warnings []string

	if job.Status == entity.JobStatusReadyForPress && next == entity.JobStatusInPress {
		approved, err := s.proofRepo.HasApproved(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		if !approved {
			if overrideReason == "" {
				return nil, &GuardError{
					Reason:           "approved proof required before advancing to In Press",
					CurrentStatus:    job.Status,
					SuggestedStatus:  next,
					RequiresOverride: true,
				}
			}
			warnings = append(warnings, "advanced without approved proof: "+overrideReason)
		}
		if job.Rush24Hr {
			// 提示性产能确认，不阻断
			warnings = append(warnings, "rush job entering press: confirm press capacity")
		}
	}

	if job.Status == entity.JobStatusPacked && next == entity.JobStatusShipped && job.NeedPhoto {
		hasPhoto, err := s.qcRepo.HasPhotoRecord(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		// 此守卫不接受强制理由
		if !hasPhoto {
			return nil, &GuardError{
				Reason:        "QC photo required before shipping",
				CurrentStatus: job.Status,
				RequiresPhoto: true,
			}
		}
	}

	return warnings, nil
}

// commit 条件提交：状态写入与日志追加同事务；
// 状态被并发抢先修改时，若已达目标状态则幂等返回，否则判定流转失效
func (s *JobService) commit(ctx context.Context, job *entity.Job, next string, req *TransitionRequest, warnings []string) (*TransitionResult, error) {
	oldStatus := job.Status
	act := s.buildActivity(job.ID, req)

	err := s.jobRepo.TransitionStatus(ctx, job.ID, oldStatus, next, act)
	if err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			current, ferr := s.jobRepo.FindByID(ctx, job.ID)
			if ferr != nil {
				return nil, ferr
			}
			if current.Status == next {
				return &TransitionResult{
					Job:       current,
					OldStatus: oldStatus,
					NewStatus: next,
					NoOp:      true,
				}, nil
			}
			return nil, fmt.Errorf("%w: status changed to %s while committing", ErrInvalidTransition, current.Status)
		}
		return nil, fmt.Errorf("commit transition: %w", err)
	}

	updated, err := s.jobRepo.FindByID(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	return &TransitionResult{
		Job:       updated,
		OldStatus: oldStatus,
		NewStatus: next,
		Warnings:  warnings,
	}, nil
}

// forceTo HOLD/EXCEPTION：任意状态下无条件生效
func (s *JobService) forceTo(ctx context.Context, job *entity.Job, target string, req *TransitionRequest) (*TransitionResult, error) {
	act := s.buildActivity(job.ID, req)
	updated, err := s.jobRepo.ForceStatus(ctx, job.ID, target, act)
	if err != nil {
		return nil, err
	}
	return &TransitionResult{
		Job:       updated,
		OldStatus: act.Meta[entity.MetaOldStatus].(string),
		NewStatus: target,
	}, nil
}

func (s *JobService) buildActivity(jobID string, req *TransitionRequest) *entity.Activity {
	action := entity.ActionStatusChanged
	meta := entity.JSONB{}
	if req.Origin == OriginScan {
		action = entity.ActionStatusChangedViaScan
		meta[entity.MetaBarcode] = req.Barcode
		meta["scanned_at"] = time.Now().Format(time.RFC3339)
	}
	if req.OverrideReason != "" {
		meta[entity.MetaOverrideReason] = req.OverrideReason
	}
	return &entity.Activity{
		ID:     uuid.New().String()[:32],
		JobID:  jobID,
		UserID: req.UserID,
		Action: action,
		Meta:   meta,
	}
}
