package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/inkhaus/pressflow/internal/model/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProofRepository 稿样仓储
type ProofRepository struct {
	db *gorm.DB
}

// NewProofRepository 创建稿样仓储
func NewProofRepository(db *gorm.DB) *ProofRepository {
	return &ProofRepository{db: db}
}

// FindByID 根据ID查找稿样
func (r *ProofRepository) FindByID(ctx context.Context, id string) (*entity.Proof, error) {
	var proof entity.Proof
	err := r.db.WithContext(ctx).
		Preload("Job").
		Where("id = ?", id).
		First(&proof).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &proof, nil
}

// ListByJob 获取工单的稿样列表，版本降序
func (r *ProofRepository) ListByJob(ctx context.Context, jobID string) ([]entity.Proof, error) {
	var proofs []entity.Proof
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("version DESC").
		Find(&proofs).Error
	if err != nil {
		return nil, err
	}
	return proofs, nil
}

// MaxVersion 获取工单当前最大稿样版本，无稿样时为0
func (r *ProofRepository) MaxVersion(ctx context.Context, jobID string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&entity.Proof{}).
		Where("job_id = ?", jobID).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

// ExistsVersion 判断工单是否已有该版本
func (r *ProofRepository) ExistsVersion(ctx context.Context, jobID string, version int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Proof{}).
		Where("job_id = ? AND version = ?", jobID, version).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasApproved 判断工单是否存在已通过的稿样（上机守卫的依据）
func (r *ProofRepository) HasApproved(ctx context.Context, jobID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Proof{}).
		Where("job_id = ? AND status = ?", jobID, entity.ProofStatusApproved).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 创建稿样并写入PROOF_UPLOADED日志
func (r *ProofRepository) Create(ctx context.Context, proof *entity.Proof, act *entity.Activity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(proof).Error; err != nil {
			return err
		}
		return tx.Create(act).Error
	})
}

// Approve 审批通过：更新稿样、写PROOF_APPROVED日志；若工单处于WAITING_ARTWORK
// 则在同一事务内级联推进到READY_FOR_PRESS并写第二条STATUS_CHANGED日志。
// 任一步失败则整体回滚。
func (r *ProofRepository) Approve(ctx context.Context, proofID, approvedBy, approverEmail, notes, userID string) (*entity.Proof, *entity.Job, bool, error) {
	var proof entity.Proof
	var job entity.Job
	var cascaded bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", proofID).First(&proof).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		now := time.Now()
		if err := tx.Model(&entity.Proof{}).
			Where("id = ?", proofID).
			Updates(map[string]interface{}{
				"status":         entity.ProofStatusApproved,
				"approved_by":    approvedBy,
				"approver_email": approverEmail,
				"approved_at":    now,
				"notes":          notes,
				"updated_at":     now,
			}).Error; err != nil {
			return err
		}
		proof.Status = entity.ProofStatusApproved
		proof.ApprovedBy = approvedBy
		proof.ApproverEmail = approverEmail
		proof.ApprovedAt = &now
		proof.Notes = notes

		if err := tx.Create(&entity.Activity{
			ID:     uuid.New().String()[:32],
			JobID:  proof.JobID,
			UserID: userID,
			Action: entity.ActionProofApproved,
			Meta: entity.JSONB{
				entity.MetaProofID:      proof.ID,
				entity.MetaProofVersion: proof.Version,
				"approved_by":           approvedBy,
				"approver_email":        approverEmail,
			},
			CreatedAt: now,
		}).Error; err != nil {
			return err
		}

		// 级联：行锁后检查工单状态，避免与其他流转请求交错
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", proof.JobID).
			First(&job).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if job.Status == entity.JobStatusWaitingArtwork {
			// 级联日志时间戳严格晚于审批日志，保证按创建时间排序的顺序
			cascadeAt := now.Add(time.Millisecond)
			if err := tx.Model(&entity.Job{}).
				Where("id = ?", job.ID).
				Updates(map[string]interface{}{
					"status":     entity.JobStatusReadyForPress,
					"updated_at": cascadeAt,
				}).Error; err != nil {
				return err
			}
			if err := tx.Create(&entity.Activity{
				ID:     uuid.New().String()[:32],
				JobID:  job.ID,
				UserID: userID,
				Action: entity.ActionStatusChanged,
				Meta: entity.JSONB{
					entity.MetaOldStatus: entity.JobStatusWaitingArtwork,
					entity.MetaNewStatus: entity.JobStatusReadyForPress,
					entity.MetaReason:    "Proof approved",
				},
				CreatedAt: cascadeAt,
			}).Error; err != nil {
				return err
			}
			job.Status = entity.JobStatusReadyForPress
			job.UpdatedAt = cascadeAt
			cascaded = true
		}

		return nil
	})
	if err != nil {
		return nil, nil, false, err
	}
	return &proof, &job, cascaded, nil
}

// RequestChanges 要求修改：更新稿样状态并写日志，不级联
func (r *ProofRepository) RequestChanges(ctx context.Context, proofID, notes, userID string) (*entity.Proof, error) {
	var proof entity.Proof

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", proofID).First(&proof).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		now := time.Now()
		if err := tx.Model(&entity.Proof{}).
			Where("id = ?", proofID).
			Updates(map[string]interface{}{
				"status":     entity.ProofStatusChangesRequested,
				"notes":      notes,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}
		proof.Status = entity.ProofStatusChangesRequested
		proof.Notes = notes

		return tx.Create(&entity.Activity{
			ID:     uuid.New().String()[:32],
			JobID:  proof.JobID,
			UserID: userID,
			Action: entity.ActionProofChangesRequested,
			Meta: entity.JSONB{
				entity.MetaProofID:      proof.ID,
				entity.MetaProofVersion: proof.Version,
				"notes":                 notes,
			},
			CreatedAt: now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &proof, nil
}

// Supersede 作废旧版本：将同工单中版本号更低且未作废的稿样置为SUPERSEDED，
// 不改变指定稿样自身的状态
func (r *ProofRepository) Supersede(ctx context.Context, proofID string) ([]entity.Proof, error) {
	var superseded []entity.Proof

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var proof entity.Proof
		if err := tx.Where("id = ?", proofID).First(&proof).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Model(&entity.Proof{}).
			Where("job_id = ? AND version < ? AND status != ?",
				proof.JobID, proof.Version, entity.ProofStatusSuperseded).
			Updates(map[string]interface{}{
				"status":     entity.ProofStatusSuperseded,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}

		return tx.Where("job_id = ? AND version < ? AND status = ?",
			proof.JobID, proof.Version, entity.ProofStatusSuperseded).
			Order("version ASC").
			Find(&superseded).Error
	})
	if err != nil {
		return nil, err
	}
	return superseded, nil
}
