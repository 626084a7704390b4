package entity

import (
	"time"
)

// Proof 稿样（每次上传一个版本，需客户确认后才能上机）
type Proof struct {
	ID            string     `json:"id" gorm:"primaryKey;size:32"`
	JobID         string     `json:"job_id" gorm:"size:32;not null;index:idx_proofs_job_version,unique"`
	Version       int        `json:"version" gorm:"not null;index:idx_proofs_job_version,unique"`
	Status        string     `json:"status" gorm:"size:32;not null;default:PENDING"`
	FileURL       string     `json:"file_url" gorm:"size:512;not null"`
	ImageURL      string     `json:"image_url" gorm:"size:512"`
	ApprovedBy    string     `json:"approved_by" gorm:"size:128"`
	ApproverEmail string     `json:"approver_email" gorm:"size:128"`
	ApprovedAt    *time.Time `json:"approved_at"`
	Notes         string     `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// 关联
	Job *Job `json:"job,omitempty" gorm:"foreignKey:JobID"`
}

func (Proof) TableName() string {
	return "proofs"
}

// 稿样状态常量
const (
	ProofStatusPending          = "PENDING"
	ProofStatusApproved         = "APPROVED"
	ProofStatusChangesRequested = "CHANGES_REQUESTED"
	ProofStatusSuperseded       = "SUPERSEDED"
)
