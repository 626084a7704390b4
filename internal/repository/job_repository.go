package repository

import (
	"context"
	"errors"
	"time"

	"github.com/inkhaus/pressflow/internal/model/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobRepository 工单仓储
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository 创建工单仓储
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// FindByID 根据ID查找工单
func (r *JobRepository) FindByID(ctx context.Context, id string) (*entity.Job, error) {
	var job entity.Job
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("CSR").
		Preload("Locations").
		Preload("Proofs", func(db *gorm.DB) *gorm.DB {
			return db.Order("version DESC")
		}).
		Preload("QCRecords").
		Preload("PressSetup").
		Preload("Shipments").
		Where("id = ?", id).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindByCode 根据工单编码（扫码条码）查找工单
func (r *JobRepository) FindByCode(ctx context.Context, code string) (*entity.Job, error) {
	var job entity.Job
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("CSR").
		Preload("Proofs").
		Preload("QCRecords").
		Where("job_code = ?", code).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Create 创建工单，连同印刷位置与JOB_CREATED日志一并提交
func (r *JobRepository) Create(ctx context.Context, job *entity.Job, act *entity.Activity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(job).Error; err != nil {
			return err
		}
		return tx.Create(act).Error
	})
}

// List 获取工单列表，加急优先、交期升序
func (r *JobRepository) List(ctx context.Context, filters map[string]interface{}) ([]entity.Job, error) {
	var jobs []entity.Job

	query := r.db.WithContext(ctx).Model(&entity.Job{})

	if status, ok := filters["status"].(string); ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if csrID, ok := filters["csr_id"].(string); ok && csrID != "" {
		query = query.Where("csr_id = ?", csrID)
	}
	if clientID, ok := filters["client_id"].(string); ok && clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if rush, ok := filters["rush"].(bool); ok {
		query = query.Where("rush_24hr = ?", rush)
	}
	if needPhoto, ok := filters["need_photo"].(bool); ok {
		query = query.Where("need_photo = ?", needPhoto)
	}

	err := query.
		Preload("Client").
		Preload("CSR").
		Preload("Locations").
		Preload("Proofs").
		Preload("QCRecords").
		Preload("Shipments").
		Order("rush_24hr DESC").
		Order("ship_date ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// UpdateFields 更新非状态字段（备注、标记等），不走守卫
func (r *JobRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).
		Model(&entity.Job{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TransitionStatus 有条件状态流转：仅当当前状态等于expectedStatus时提交，
// 状态写入与日志写入在同一事务内，保证不会出现无日志的状态变化
func (r *JobRepository) TransitionStatus(ctx context.Context, jobID, expectedStatus, newStatus string, act *entity.Activity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&entity.Job{}).
			Where("id = ? AND status = ?", jobID, expectedStatus).
			Updates(map[string]interface{}{
				"status":     newStatus,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStatusChanged
		}

		if act.Meta == nil {
			act.Meta = entity.JSONB{}
		}
		act.Meta[entity.MetaOldStatus] = expectedStatus
		act.Meta[entity.MetaNewStatus] = newStatus
		act.CreatedAt = now
		return tx.Create(act).Error
	})
}

// ForceStatus 无条件状态流转（HOLD/EXCEPTION），行锁内读取真实旧状态写入日志
func (r *JobRepository) ForceStatus(ctx context.Context, jobID, newStatus string, act *entity.Activity) (*entity.Job, error) {
	var job entity.Job
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", jobID).
			First(&job).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		oldStatus := job.Status
		now := time.Now()
		if err := tx.Model(&entity.Job{}).
			Where("id = ?", jobID).
			Updates(map[string]interface{}{
				"status":     newStatus,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		if act.Meta == nil {
			act.Meta = entity.JSONB{}
		}
		act.Meta[entity.MetaOldStatus] = oldStatus
		act.Meta[entity.MetaNewStatus] = newStatus
		act.CreatedAt = now
		if err := tx.Create(act).Error; err != nil {
			return err
		}

		job.Status = newStatus
		job.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// CountDependents 统计工单的从属记录数（稿样/质检/发货）
func (r *JobRepository) CountDependents(ctx context.Context, jobID string) (int64, error) {
	var total int64

	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Proof{}).Where("job_id = ?", jobID).Count(&count).Error; err != nil {
		return 0, err
	}
	total += count

	if err := r.db.WithContext(ctx).Model(&entity.QCRecord{}).Where("job_id = ?", jobID).Count(&count).Error; err != nil {
		return 0, err
	}
	total += count

	if err := r.db.WithContext(ctx).Model(&entity.Shipment{}).Where("job_id = ?", jobID).Count(&count).Error; err != nil {
		return 0, err
	}
	total += count

	return total, nil
}

// Delete 删除工单及其附属数据（印刷位置、日志、上机参数）
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.PrintLocation{}, "job_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entity.Activity{}, "job_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entity.PressSetup{}, "job_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&entity.Job{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListForReport 获取报表窗口内的工单，按交期过滤并预加载指标所需关联
func (r *JobRepository) ListForReport(ctx context.Context, start, end time.Time, csrID, clientID, pressID string) ([]entity.Job, error) {
	var jobs []entity.Job

	query := r.db.WithContext(ctx).Model(&entity.Job{}).
		Where("ship_date >= ? AND ship_date <= ?", start, end)

	if csrID != "" {
		query = query.Where("csr_id = ?", csrID)
	}
	if clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}
	if pressID != "" && pressID != "all" {
		query = query.Joins("JOIN press_setups ON press_setups.job_id = jobs.id").
			Where("press_setups.press_id = ?", pressID)
	}

	err := query.
		Preload("Client").
		Preload("CSR").
		Preload("QCRecords").
		Preload("PressSetup").
		Preload("Activities", func(db *gorm.DB) *gorm.DB {
			return db.Where("action IN ?", []string{
				entity.ActionStatusChanged,
				entity.ActionStatusChangedViaScan,
			}).Order("created_at ASC")
		}).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
