package entity

import (
	"time"
)

// InventoryCategory 库存类别
type InventoryCategory struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:64;not null;uniqueIndex"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
}

func (InventoryCategory) TableName() string {
	return "inventory_categories"
}

// InventoryItem 库存物料（空白服装/油墨/网版耗材等）
type InventoryItem struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	SKU          string    `json:"sku" gorm:"size:64;not null;uniqueIndex"`
	Name         string    `json:"name" gorm:"size:128;not null"`
	Description  string    `json:"description" gorm:"type:text"`
	Brand        string    `json:"brand" gorm:"size:64"`
	CategoryID   string    `json:"category_id" gorm:"size:32;index"`
	CurrentStock int       `json:"current_stock" gorm:"not null;default:0"`
	MinStock     int       `json:"min_stock" gorm:"not null;default:0"`
	UnitCost     float64   `json:"unit_cost" gorm:"not null;default:0"`
	Status       string    `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// 关联
	Category     *InventoryCategory     `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Transactions []InventoryTransaction `json:"transactions,omitempty" gorm:"foreignKey:ItemID"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

// InventoryTransaction 库存流水
type InventoryTransaction struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	ItemID    string    `json:"item_id" gorm:"size:32;not null;index"`
	Type      string    `json:"type" gorm:"size:16;not null"` // in/out/adjust
	Quantity  int       `json:"quantity" gorm:"not null"`
	JobID     string    `json:"job_id" gorm:"size:32;index"`
	Note      string    `json:"note" gorm:"size:256"`
	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`

	// 关联
	Item *InventoryItem `json:"item,omitempty" gorm:"foreignKey:ItemID"`
}

func (InventoryTransaction) TableName() string {
	return "inventory_transactions"
}

// 库存流水类型
const (
	InventoryTxnIn     = "in"
	InventoryTxnOut    = "out"
	InventoryTxnAdjust = "adjust"
)

// 库存物料状态
const (
	InventoryStatusActive       = "active"
	InventoryStatusDiscontinued = "discontinued"
)
