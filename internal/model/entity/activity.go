package entity

import (
	"time"
)

// Activity 工单操作日志，只追加不修改，是时间类指标的唯一依据
type Activity struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	JobID     string    `json:"job_id" gorm:"size:32;not null;index:idx_activities_job_created"`
	UserID    string    `json:"user_id" gorm:"size:32"`
	Action    string    `json:"action" gorm:"size:64;not null;index"`
	Meta      JSONB     `json:"meta" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_activities_job_created"`

	// 关联
	Job  *Job  `json:"job,omitempty" gorm:"foreignKey:JobID"`
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (Activity) TableName() string {
	return "activities"
}

// 操作类型常量
const (
	ActionJobCreated            = "JOB_CREATED"
	ActionStatusChanged         = "STATUS_CHANGED"
	ActionStatusChangedViaScan  = "STATUS_CHANGED_VIA_SCAN"
	ActionProofUploaded         = "PROOF_UPLOADED"
	ActionProofApproved         = "PROOF_APPROVED"
	ActionProofChangesRequested = "PROOF_CHANGES_REQUESTED"
	ActionQCLogged              = "QC_LOGGED"
	ActionShipmentCreated       = "SHIPMENT_CREATED"
)

// Meta字段键名
const (
	MetaOldStatus      = "old_status"
	MetaNewStatus      = "new_status"
	MetaOverrideReason = "override_reason"
	MetaReason         = "reason"
	MetaProofID        = "proof_id"
	MetaProofVersion   = "version"
	MetaBarcode        = "barcode"
)
