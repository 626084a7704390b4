package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkhaus/pressflow/internal/model/entity"
	"github.com/inkhaus/pressflow/internal/repository"
)

// InventoryService 库存服务
type InventoryService struct {
	repo *repository.InventoryRepository
}

// NewInventoryService 创建库存服务
func NewInventoryService(repo *repository.InventoryRepository) *InventoryService {
	return &InventoryService{repo: repo}
}

// SaveItemRequest 创建/更新物料请求
type SaveItemRequest struct {
	SKU         string  `json:"sku" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Brand       string  `json:"brand"`
	CategoryID  string  `json:"category_id"`
	MinStock    int     `json:"min_stock" binding:"min=0"`
	UnitCost    float64 `json:"unit_cost" binding:"min=0"`
	Status      string  `json:"status"`
}

// TransactionRequest 库存流水请求
type TransactionRequest struct {
	Type     string `json:"type" binding:"required,oneof=in out adjust"`
	Quantity int    `json:"quantity" binding:"min=0"`
	JobID    string `json:"job_id"`
	Note     string `json:"note"`
}

// InventoryStats 库存总览
type InventoryStats struct {
	TotalItems int     `json:"total_items"`
	TotalValue float64 `json:"total_value"`
	LowStock   int     `json:"low_stock"`
	OutOfStock int     `json:"out_of_stock"`
	Categories int64   `json:"categories"`
}

// Get 获取物料详情
func (s *InventoryService) Get(ctx context.Context, id string) (*entity.InventoryItem, error) {
	return s.repo.FindByID(ctx, id)
}

// List 获取物料列表
func (s *InventoryService) List(ctx context.Context, filters map[string]interface{}) ([]entity.InventoryItem, error) {
	return s.repo.List(ctx, filters)
}

// Create 创建物料，SKU重复时拒绝
func (s *InventoryService) Create(ctx context.Context, req *SaveItemRequest) (*entity.InventoryItem, error) {
	if _, err := s.repo.FindBySKU(ctx, req.SKU); err == nil {
		return nil, ErrConflict
	}

	status := req.Status
	if status == "" {
		status = entity.InventoryStatusActive
	}
	now := time.Now()
	item := &entity.InventoryItem{
		ID:          uuid.New().String()[:32],
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Brand:       req.Brand,
		CategoryID:  req.CategoryID,
		MinStock:    req.MinStock,
		UnitCost:    req.UnitCost,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create inventory item: %w", err)
	}
	return item, nil
}

// Update 更新物料，库存量只能走流水调整
func (s *InventoryService) Update(ctx context.Context, id string, req *SaveItemRequest) (*entity.InventoryItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.SKU != item.SKU {
		if _, err := s.repo.FindBySKU(ctx, req.SKU); err == nil {
			return nil, ErrConflict
		}
	}
	item.SKU = req.SKU
	item.Name = req.Name
	item.Description = req.Description
	item.Brand = req.Brand
	item.CategoryID = req.CategoryID
	item.MinStock = req.MinStock
	item.UnitCost = req.UnitCost
	if req.Status != "" {
		item.Status = req.Status
	}
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update inventory item: %w", err)
	}
	return item, nil
}

// Delete 删除物料
func (s *InventoryService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// AddTransaction 记录流水并调整库存
func (s *InventoryService) AddTransaction(ctx context.Context, itemID, userID string, req *TransactionRequest) (*entity.InventoryItem, error) {
	txn := &entity.InventoryTransaction{
		ID:        uuid.New().String()[:32],
		ItemID:    itemID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		JobID:     req.JobID,
		Note:      req.Note,
		CreatedBy: userID,
		CreatedAt: time.Now(),
	}
	return s.repo.AddTransaction(ctx, txn)
}

// ListCategories 获取库存类别
func (s *InventoryService) ListCategories(ctx context.Context) ([]entity.InventoryCategory, error) {
	return s.repo.ListCategories(ctx)
}

// Stats 库存总览统计
func (s *InventoryService) Stats(ctx context.Context) (*InventoryStats, error) {
	items, err := s.repo.List(ctx, map[string]interface{}{"status": entity.InventoryStatusActive})
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.CountCategories(ctx)
	if err != nil {
		return nil, err
	}

	stats := &InventoryStats{Categories: categories}
	for _, item := range items {
		stats.TotalItems++
		stats.TotalValue += float64(item.CurrentStock) * item.UnitCost
		if item.CurrentStock == 0 {
			stats.OutOfStock++
		} else if item.CurrentStock <= item.MinStock {
			stats.LowStock++
		}
	}
	return stats, nil
}
