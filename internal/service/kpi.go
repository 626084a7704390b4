package service

import (
	"math"
	"time"

	"github.com/inkhaus/pressflow/internal/model/entity"
)

// KPISnapshot 生产指标快照
type KPISnapshot struct {
	TotalJobs             int                       `json:"total_jobs"`
	ShippedJobs           int                       `json:"shipped_jobs"`
	LateJobs              int                       `json:"late_jobs"`
	OnTimePercentage      int                       `json:"on_time_percentage"`
	RushSuccessPercentage int                       `json:"rush_success_percentage"`
	QCPassed              int                       `json:"qc_passed"`
	QCFailed              int                       `json:"qc_failed"`
	TotalDefects          int                       `json:"total_defects"`
	SpoilagePercentage    float64                   `json:"spoilage_percentage"`
	ReprintRate           float64                   `json:"reprint_rate"`
	AvgSetupTimeMinutes   int                       `json:"avg_setup_time_minutes"`
	StatusBreakdown       map[string]int            `json:"status_breakdown"`
	CSRPerformance        map[string]CSRPerformance `json:"csr_performance"`
}

// CSRPerformance 客服维度指标
type CSRPerformance struct {
	TotalJobs   int `json:"total_jobs"`
	ShippedJobs int `json:"shipped_jobs"`
	RushJobs    int `json:"rush_jobs"`
	OnTimeJobs  int `json:"on_time_jobs"`
}

// ComputeKPIs 纯函数计算指标，不访问存储
// 准时判定基于最近一条进入SHIPPED的状态变更活动时间；缺失该活动视为准时
func ComputeKPIs(jobs []entity.Job, activitiesByJob map[string][]entity.Activity, qcByJob map[string][]entity.QCRecord, now time.Time) *KPISnapshot {
	snap := &KPISnapshot{
		StatusBreakdown: make(map[string]int),
		CSRPerformance:  make(map[string]CSRPerformance),
	}

	var rushTotal, rushShipped, onTimeCount int
	var totalQuantity, reprintJobs int
	var setupTotalMinutes float64
	var setupPairs int

	for i := range jobs {
		job := &jobs[i]
		snap.TotalJobs++
		snap.StatusBreakdown[job.Status]++
		totalQuantity += job.QtyTotal

		shipped := job.Status == entity.JobStatusShipped
		if shipped {
			snap.ShippedJobs++
		}
		if job.ShipDate.Before(now) && !shipped {
			snap.LateJobs++
		}

		acts := activitiesByJob[job.ID]
		onTime := shipped && shippedOnTime(job, acts)
		if onTime {
			onTimeCount++
		}

		if job.Rush24Hr {
			rushTotal++
			if shipped {
				rushShipped++
			}
		}

		if minutes, ok := setupMinutes(acts); ok {
			setupTotalMinutes += minutes
			setupPairs++
		}

		records := qcByJob[job.ID]
		var hasPass, hasFail, hasReprint bool
		for _, rec := range records {
			snap.TotalDefects += rec.Defects
			if rec.Passed {
				hasPass = true
			} else {
				hasFail = true
				if rec.Defects > 5 {
					hasReprint = true
				}
			}
		}
		if hasPass {
			snap.QCPassed++
		}
		if hasFail {
			snap.QCFailed++
		}
		if hasReprint {
			reprintJobs++
		}

		perf := snap.CSRPerformance[job.CSRID]
		perf.TotalJobs++
		if shipped {
			perf.ShippedJobs++
		}
		if job.Rush24Hr {
			perf.RushJobs++
		}
		if onTime {
			perf.OnTimeJobs++
		}
		snap.CSRPerformance[job.CSRID] = perf
	}

	snap.OnTimePercentage = 100
	if snap.ShippedJobs > 0 {
		snap.OnTimePercentage = int(math.Round(100 * float64(onTimeCount) / float64(snap.ShippedJobs)))
	}
	snap.RushSuccessPercentage = 100
	if rushTotal > 0 {
		snap.RushSuccessPercentage = int(math.Round(100 * float64(rushShipped) / float64(rushTotal)))
	}
	if totalQuantity > 0 {
		snap.SpoilagePercentage = round2(100 * float64(snap.TotalDefects) / float64(totalQuantity))
	}
	if snap.TotalJobs > 0 {
		snap.ReprintRate = round2(100 * float64(reprintJobs) / float64(snap.TotalJobs))
	}
	if setupPairs > 0 {
		snap.AvgSetupTimeMinutes = int(math.Round(setupTotalMinutes / float64(setupPairs)))
	}

	return snap
}

// shippedOnTime 已发货工单是否准时：最近一条newStatus=SHIPPED的状态变更时间不晚于shipDate
func shippedOnTime(job *entity.Job, acts []entity.Activity) bool {
	var shippedAt *time.Time
	for i := range acts {
		act := &acts[i]
		if !isStatusChange(act.Action) {
			continue
		}
		if ns, _ := act.Meta[entity.MetaNewStatus].(string); ns != entity.JobStatusShipped {
			continue
		}
		if shippedAt == nil || act.CreatedAt.After(*shippedAt) {
			t := act.CreatedAt
			shippedAt = &t
		}
	}
	if shippedAt == nil {
		return true
	}
	return !shippedAt.After(job.ShipDate)
}

// setupMinutes 上机准备耗时：进入READY_FOR_PRESS到之后进入IN_PRESS的间隔
func setupMinutes(acts []entity.Activity) (float64, bool) {
	var readyAt *time.Time
	for i := range acts {
		act := &acts[i]
		if !isStatusChange(act.Action) {
			continue
		}
		ns, _ := act.Meta[entity.MetaNewStatus].(string)
		switch ns {
		case entity.JobStatusReadyForPress:
			t := act.CreatedAt
			readyAt = &t
		case entity.JobStatusInPress:
			if readyAt != nil && act.CreatedAt.After(*readyAt) {
				return act.CreatedAt.Sub(*readyAt).Minutes(), true
			}
		}
	}
	return 0, false
}

func isStatusChange(action string) bool {
	return action == entity.ActionStatusChanged || action == entity.ActionStatusChangedViaScan
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
