package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound = errors.New("record not found")
	// ErrStatusChanged 提交时工单状态已被并发修改
	ErrStatusChanged = errors.New("job status changed concurrently")
)

// Repositories 仓库集合
type Repositories struct {
	Job       *JobRepository
	Proof     *ProofRepository
	Activity  *ActivityRepository
	QC        *QCRepository
	Client    *ClientRepository
	User      *UserRepository
	Inventory *InventoryRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Job:       NewJobRepository(db),
		Proof:     NewProofRepository(db),
		Activity:  NewActivityRepository(db),
		QC:        NewQCRepository(db),
		Client:    NewClientRepository(db),
		User:      NewUserRepository(db),
		Inventory: NewInventoryRepository(db),
	}
}
