package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkhaus/pressflow/internal/model/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository 库存仓储
type InventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository 创建库存仓储
func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// FindByID 根据ID查找物料
func (r *InventoryRepository) FindByID(ctx context.Context, id string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindBySKU 根据SKU查找物料
func (r *InventoryRepository) FindBySKU(ctx context.Context, sku string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// List 获取物料列表
func (r *InventoryRepository) List(ctx context.Context, filters map[string]interface{}) ([]entity.InventoryItem, error) {
	var items []entity.InventoryItem

	query := r.db.WithContext(ctx).Model(&entity.InventoryItem{})

	if status, ok := filters["status"].(string); ok && status != "" && status != "all" {
		query = query.Where("status = ?", status)
	}
	if categoryID, ok := filters["category_id"].(string); ok && categoryID != "" && categoryID != "all" {
		query = query.Where("category_id = ?", categoryID)
	}
	if search, ok := filters["search"].(string); ok && search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR sku ILIKE ? OR description ILIKE ? OR brand ILIKE ?",
			like, like, like, like)
	}

	err := query.
		Preload("Category").
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Create 创建物料
func (r *InventoryRepository) Create(ctx context.Context, item *entity.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// Update 更新物料
func (r *InventoryRepository) Update(ctx context.Context, item *entity.InventoryItem) error {
	item.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete 删除物料
func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&entity.InventoryItem{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddTransaction 记录库存流水并在行锁内调整库存量，出库不允许为负
func (r *InventoryRepository) AddTransaction(ctx context.Context, txn *entity.InventoryTransaction) (*entity.InventoryItem, error) {
	var item entity.InventoryItem

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", txn.ItemID).
			First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		newStock := item.CurrentStock
		switch txn.Type {
		case entity.InventoryTxnIn:
			newStock += txn.Quantity
		case entity.InventoryTxnOut:
			newStock -= txn.Quantity
		case entity.InventoryTxnAdjust:
			newStock = txn.Quantity
		default:
			return fmt.Errorf("unknown transaction type: %s", txn.Type)
		}
		if newStock < 0 {
			return fmt.Errorf("insufficient stock: have %d, need %d", item.CurrentStock, txn.Quantity)
		}

		if err := tx.Model(&entity.InventoryItem{}).
			Where("id = ?", item.ID).
			Updates(map[string]interface{}{
				"current_stock": newStock,
				"updated_at":    time.Now(),
			}).Error; err != nil {
			return err
		}
		item.CurrentStock = newStock

		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListCategories 获取库存类别
func (r *InventoryRepository) ListCategories(ctx context.Context) ([]entity.InventoryCategory, error) {
	var cats []entity.InventoryCategory
	err := r.db.WithContext(ctx).
		Order("sort_order ASC").
		Find(&cats).Error
	if err != nil {
		return nil, err
	}
	return cats, nil
}

// CountCategories 统计库存类别数
func (r *InventoryRepository) CountCategories(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.InventoryCategory{}).
		Count(&count).Error
	return count, err
}
