package repository

import (
	"context"

	"github.com/inkhaus/pressflow/internal/model/entity"
	"gorm.io/gorm"
)

// ActivityRepository 操作日志仓储，只追加
type ActivityRepository struct {
	db *gorm.DB
}

// NewActivityRepository 创建操作日志仓储
func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create 追加一条日志
func (r *ActivityRepository) Create(ctx context.Context, act *entity.Activity) error {
	return r.db.WithContext(ctx).Create(act).Error
}

// ListByJob 获取工单的日志，按创建时间升序
func (r *ActivityRepository) ListByJob(ctx context.Context, jobID string) ([]entity.Activity, error) {
	var acts []entity.Activity
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&acts).Error
	if err != nil {
		return nil, err
	}
	return acts, nil
}
