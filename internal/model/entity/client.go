package entity

import (
	"time"
)

// Client 客户
type Client struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	Name      string     `json:"name" gorm:"size:128;not null"`
	Contacts  JSONBArray `json:"contacts" gorm:"type:jsonb"` // [{name, email, phone}]
	Notes     string     `json:"notes" gorm:"type:text"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// 关联
	Jobs []Job `json:"jobs,omitempty" gorm:"foreignKey:ClientID"`
}

func (Client) TableName() string {
	return "clients"
}

// User 系统用户（客服/印刷工/管理员）
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Email     string    `json:"email" gorm:"size:128;not null;uniqueIndex"`
	Name      string    `json:"name" gorm:"size:64;not null"`
	Role      string    `json:"role" gorm:"size:16;not null;default:CSR"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// 用户角色常量
const (
	UserRoleCSR     = "CSR"
	UserRolePrinter = "PRINTER"
	UserRoleQC      = "QC"
	UserRoleAdmin   = "ADMIN"
)
