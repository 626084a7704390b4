package repository

import (
	"context"
	"errors"
	"time"

	"github.com/inkhaus/pressflow/internal/model/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QCRepository 质检/发货/上机参数仓储
type QCRepository struct {
	db *gorm.DB
}

// NewQCRepository 创建质检仓储
func NewQCRepository(db *gorm.DB) *QCRepository {
	return &QCRepository{db: db}
}

// CreateRecord 创建质检记录并写QC_LOGGED日志
func (r *QCRepository) CreateRecord(ctx context.Context, record *entity.QCRecord, act *entity.Activity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return tx.Create(act).Error
	})
}

// ListByJob 获取工单质检记录，创建时间降序
func (r *QCRepository) ListByJob(ctx context.Context, jobID string) ([]entity.QCRecord, error) {
	var records []entity.QCRecord
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// HasPhotoRecord 判断工单是否存在带照片的质检记录（发货守卫的依据）
func (r *QCRepository) HasPhotoRecord(ctx context.Context, jobID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.QCRecord{}).
		Where("job_id = ? AND photo_url != ''", jobID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateShipment 创建发货记录并写SHIPMENT_CREATED日志
func (r *QCRepository) CreateShipment(ctx context.Context, shipment *entity.Shipment, act *entity.Activity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(shipment).Error; err != nil {
			return err
		}
		return tx.Create(act).Error
	})
}

// ListShipmentsByJob 获取工单发货记录
func (r *QCRepository) ListShipmentsByJob(ctx context.Context, jobID string) ([]entity.Shipment, error) {
	var shipments []entity.Shipment
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at DESC").
		Find(&shipments).Error
	if err != nil {
		return nil, err
	}
	return shipments, nil
}

// UpsertPressSetup 保存上机参数，同一工单只保留一份
func (r *QCRepository) UpsertPressSetup(ctx context.Context, setup *entity.PressSetup) error {
	setup.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"press_id", "platen", "squeegee_durometer", "strokes",
			"off_contact", "flash_time_ms", "test_print_pass", "completed_at",
		}),
	}).Create(setup).Error
}

// FindPressSetup 获取工单上机参数
func (r *QCRepository) FindPressSetup(ctx context.Context, jobID string) (*entity.PressSetup, error) {
	var setup entity.PressSetup
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		First(&setup).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &setup, nil
}
