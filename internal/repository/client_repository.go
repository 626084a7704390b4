package repository

import (
	"context"
	"errors"
	"time"

	"github.com/inkhaus/pressflow/internal/model/entity"
	"gorm.io/gorm"
)

// ClientRepository 客户仓储
type ClientRepository struct {
	db *gorm.DB
}

// NewClientRepository 创建客户仓储
func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// FindByID 根据ID查找客户
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*entity.Client, error) {
	var client entity.Client
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

// List 获取客户列表
func (r *ClientRepository) List(ctx context.Context, keyword string) ([]entity.Client, error) {
	var clients []entity.Client
	query := r.db.WithContext(ctx).Model(&entity.Client{})
	if keyword != "" {
		query = query.Where("name ILIKE ?", "%"+keyword+"%")
	}
	err := query.Order("name ASC").Find(&clients).Error
	if err != nil {
		return nil, err
	}
	return clients, nil
}

// Create 创建客户
func (r *ClientRepository) Create(ctx context.Context, client *entity.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

// Update 更新客户
func (r *ClientRepository) Update(ctx context.Context, client *entity.Client) error {
	client.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(client).Error
}

// CountJobs 统计客户名下工单数
func (r *ClientRepository) CountJobs(ctx context.Context, clientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.Job{}).
		Where("client_id = ?", clientID).
		Count(&count).Error
	return count, err
}

// Delete 删除客户
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&entity.Client{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UserRepository 用户仓储
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID 根据ID查找用户
func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List 获取用户列表，可按角色过滤
func (r *UserRepository) List(ctx context.Context, role string) ([]entity.User, error) {
	var users []entity.User
	query := r.db.WithContext(ctx).Model(&entity.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	err := query.Order("name ASC").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}
