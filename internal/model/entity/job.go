package entity

import (
	"time"
)

// Job 丝印生产工单
type Job struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	JobCode       string    `json:"job_code" gorm:"size:32;not null;uniqueIndex"`
	OENumber      string    `json:"oe_number" gorm:"size:32;not null"`
	ClientID      string    `json:"client_id" gorm:"size:32;not null"`
	CSRID         string    `json:"csr_id" gorm:"size:32;not null"`
	Status        string    `json:"status" gorm:"size:32;not null;default:NEW;index"`
	ShipDate      time.Time `json:"ship_date" gorm:"not null;index"`
	Rush24Hr      bool      `json:"rush_24hr" gorm:"column:rush_24hr;not null;default:false"`
	PrePro        bool      `json:"pre_pro" gorm:"not null;default:false"`
	NeedPhoto     bool      `json:"need_photo" gorm:"not null;default:false"`
	ProductID     string    `json:"product_id" gorm:"size:64;not null"`
	QtyTotal      int       `json:"qty_total" gorm:"not null"`
	SizeBreakdown JSONB     `json:"size_breakdown" gorm:"type:jsonb"`
	Courier       string    `json:"courier" gorm:"size:64"`
	Notes         string    `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// 关联
	Client     *Client         `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	CSR        *User           `json:"csr,omitempty" gorm:"foreignKey:CSRID"`
	Locations  []PrintLocation `json:"locations,omitempty" gorm:"foreignKey:JobID"`
	Proofs     []Proof         `json:"proofs,omitempty" gorm:"foreignKey:JobID"`
	QCRecords  []QCRecord      `json:"qc_records,omitempty" gorm:"foreignKey:JobID"`
	PressSetup *PressSetup     `json:"press_setup,omitempty" gorm:"foreignKey:JobID"`
	Shipments  []Shipment      `json:"shipments,omitempty" gorm:"foreignKey:JobID"`
	Activities []Activity      `json:"activities,omitempty" gorm:"foreignKey:JobID"`
}

func (Job) TableName() string {
	return "jobs"
}

// PrintLocation 印刷位置
type PrintLocation struct {
	ID            string     `json:"id" gorm:"primaryKey;size:32"`
	JobID         string     `json:"job_id" gorm:"size:32;not null;index"`
	Name          string     `json:"name" gorm:"size:32;not null"` // Front/Back/Sleeve/Tag
	WidthIn       float64    `json:"width_in" gorm:"not null"`
	HeightIn      float64    `json:"height_in" gorm:"not null"`
	Colors        int        `json:"colors" gorm:"not null"`
	PMS           JSONBArray `json:"pms" gorm:"type:jsonb"`
	Underbase     bool       `json:"underbase" gorm:"not null;default:false"`
	HalftoneLPI   int        `json:"halftone_lpi"`
	PrintOrder    int        `json:"print_order" gorm:"not null;default:1"`
	PlacementNote string     `json:"placement_note" gorm:"size:256"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (PrintLocation) TableName() string {
	return "print_locations"
}

// 工单状态常量
const (
	JobStatusNew            = "NEW"
	JobStatusWaitingArtwork = "WAITING_ARTWORK"
	JobStatusReadyForPress  = "READY_FOR_PRESS"
	JobStatusInPress        = "IN_PRESS"
	JobStatusQC             = "QC"
	JobStatusPacked         = "PACKED"
	JobStatusShipped        = "SHIPPED"
	JobStatusHold           = "HOLD"
	JobStatusException      = "EXCEPTION"
)

// JobStatuses 全部工单状态
var JobStatuses = []string{
	JobStatusNew,
	JobStatusWaitingArtwork,
	JobStatusReadyForPress,
	JobStatusInPress,
	JobStatusQC,
	JobStatusPacked,
	JobStatusShipped,
	JobStatusHold,
	JobStatusException,
}

// jobAdvanceOrder 推进路径的线性顺序，HOLD/EXCEPTION不在其中
var jobAdvanceOrder = []string{
	JobStatusNew,
	JobStatusWaitingArtwork,
	JobStatusReadyForPress,
	JobStatusInPress,
	JobStatusQC,
	JobStatusPacked,
	JobStatusShipped,
}

// IsValidJobStatus 判断状态是否合法
func IsValidJobStatus(status string) bool {
	for _, s := range JobStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// CanAdvanceFrom 判断当前状态能否走推进路径
func CanAdvanceFrom(status string) bool {
	for _, s := range jobAdvanceOrder {
		if s == status {
			return s != JobStatusShipped
		}
	}
	return false
}

// NextStatus 计算推进路径上的下一个状态
func NextStatus(status string) (string, bool) {
	for i, s := range jobAdvanceOrder {
		if s == status && i+1 < len(jobAdvanceOrder) {
			return jobAdvanceOrder[i+1], true
		}
	}
	return "", false
}
