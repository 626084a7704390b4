package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inkhaus/pressflow/internal/model/entity"
	"github.com/inkhaus/pressflow/internal/repository"
)

// ClientService 客户与用户目录服务
type ClientService struct {
	clientRepo *repository.ClientRepository
	userRepo   *repository.UserRepository
}

// NewClientService 创建客户服务
func NewClientService(clientRepo *repository.ClientRepository, userRepo *repository.UserRepository) *ClientService {
	return &ClientService{clientRepo: clientRepo, userRepo: userRepo}
}

// ContactInput 联系人
type ContactInput struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// SaveClientRequest 创建/更新客户请求
type SaveClientRequest struct {
	Name     string         `json:"name" binding:"required"`
	Contacts []ContactInput `json:"contacts"`
	Notes    string         `json:"notes"`
}

// Get 获取客户详情
func (s *ClientService) Get(ctx context.Context, id string) (*entity.Client, error) {
	return s.clientRepo.FindByID(ctx, id)
}

// List 获取客户列表
func (s *ClientService) List(ctx context.Context, keyword string) ([]entity.Client, error) {
	return s.clientRepo.List(ctx, keyword)
}

// Create 创建客户
func (s *ClientService) Create(ctx context.Context, req *SaveClientRequest) (*entity.Client, error) {
	now := time.Now()
	client := &entity.Client{
		ID:        uuid.New().String()[:32],
		Name:      req.Name,
		Contacts:  contactsToJSONB(req.Contacts),
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

// Update 更新客户
func (s *ClientService) Update(ctx context.Context, id string, req *SaveClientRequest) (*entity.Client, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	client.Name = req.Name
	client.Contacts = contactsToJSONB(req.Contacts)
	client.Notes = req.Notes
	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}
	return client, nil
}

// Delete 删除客户，名下尚有工单时拒绝
func (s *ClientService) Delete(ctx context.Context, id string) error {
	count, err := s.clientRepo.CountJobs(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrHasDependents
	}
	return s.clientRepo.Delete(ctx, id)
}

// ListUsers 获取用户目录，可按角色过滤
func (s *ClientService) ListUsers(ctx context.Context, role string) ([]entity.User, error) {
	return s.userRepo.List(ctx, role)
}

// GetUser 获取用户详情
func (s *ClientService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

func contactsToJSONB(contacts []ContactInput) entity.JSONBArray {
	arr := entity.JSONBArray{}
	for _, c := range contacts {
		arr = append(arr, map[string]interface{}{
			"name":  c.Name,
			"email": c.Email,
			"phone": c.Phone,
		})
	}
	return arr
}
