package entity

import (
	"time"
)

// QCRecord 质检记录，一经创建不可修改
type QCRecord struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	JobID     string     `json:"job_id" gorm:"size:32;not null;index"`
	Passed    bool       `json:"passed" gorm:"not null"`
	Defects   int        `json:"defects" gorm:"not null;default:0"`
	Reasons   JSONBArray `json:"reasons" gorm:"type:jsonb"`
	PhotoURL  string     `json:"photo_url" gorm:"size:512"`
	ExitTempF *float64   `json:"exit_temp_f"`
	CreatedAt time.Time  `json:"created_at"`

	// 关联
	Job *Job `json:"job,omitempty" gorm:"foreignKey:JobID"`
}

func (QCRecord) TableName() string {
	return "qc_records"
}

// PressSetup 上机参数
type PressSetup struct {
	ID                string     `json:"id" gorm:"primaryKey;size:32"`
	JobID             string     `json:"job_id" gorm:"size:32;not null;uniqueIndex"`
	PressID           string     `json:"press_id" gorm:"size:32;not null;index"`
	Platen            string     `json:"platen" gorm:"size:32"`
	SqueegeeDurometer int        `json:"squeegee_durometer"`
	Strokes           int        `json:"strokes"`
	OffContact        float64    `json:"off_contact"`
	FlashTimeMs       int        `json:"flash_time_ms"`
	TestPrintPass     bool       `json:"test_print_pass" gorm:"not null;default:false"`
	CompletedAt       *time.Time `json:"completed_at"`
	CreatedAt         time.Time  `json:"created_at"`

	// 关联
	Job *Job `json:"job,omitempty" gorm:"foreignKey:JobID"`
}

func (PressSetup) TableName() string {
	return "press_setups"
}

// Shipment 发货记录
type Shipment struct {
	ID        string     `json:"id" gorm:"primaryKey;size:32"`
	JobID     string     `json:"job_id" gorm:"size:32;not null;index"`
	Courier   string     `json:"courier" gorm:"size:64;not null"`
	Tracking  string     `json:"tracking" gorm:"size:128"`
	Labels    JSONBArray `json:"labels" gorm:"type:jsonb"`
	CreatedAt time.Time  `json:"created_at"`

	// 关联
	Job *Job `json:"job,omitempty" gorm:"foreignKey:JobID"`
}

func (Shipment) TableName() string {
	return "shipments"
}
