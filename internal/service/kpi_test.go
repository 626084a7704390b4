package service

import (
	"testing"
	"time"

	"github.com/inkhaus/pressflow/internal/model/entity"
)

func statusChange(jobID, newStatus string, at time.Time) entity.Activity {
	return entity.Activity{
		JobID:     jobID,
		Action:    entity.ActionStatusChanged,
		Meta:      entity.JSONB{entity.MetaNewStatus: newStatus},
		CreatedAt: at,
	}
}

func TestComputeKPIsEmpty(t *testing.T) {
	snap := ComputeKPIs(nil, nil, nil, time.Now())

	if snap.TotalJobs != 0 {
		t.Errorf("TotalJobs = %d, want 0", snap.TotalJobs)
	}
	if snap.OnTimePercentage != 100 {
		t.Errorf("OnTimePercentage = %d, want 100 when no shipped jobs", snap.OnTimePercentage)
	}
	if snap.RushSuccessPercentage != 100 {
		t.Errorf("RushSuccessPercentage = %d, want 100 when no rush jobs", snap.RushSuccessPercentage)
	}
	if snap.SpoilagePercentage != 0 || snap.ReprintRate != 0 || snap.AvgSetupTimeMinutes != 0 {
		t.Errorf("zero-denominator metrics should be 0, got spoilage=%v reprint=%v setup=%v",
			snap.SpoilagePercentage, snap.ReprintRate, snap.AvgSetupTimeMinutes)
	}
}

func TestComputeKPIsSpoilage(t *testing.T) {
	now := time.Now()
	jobs := []entity.Job{
		{ID: "j1", Status: entity.JobStatusQC, QtyTotal: 1000, ShipDate: now.AddDate(0, 0, 7)},
	}
	qc := map[string][]entity.QCRecord{
		"j1": {
			{JobID: "j1", Passed: false, Defects: 12},
		},
	}

	snap := ComputeKPIs(jobs, nil, qc, now)
	if snap.SpoilagePercentage != 1.20 {
		t.Errorf("SpoilagePercentage = %v, want 1.20", snap.SpoilagePercentage)
	}
	if snap.TotalDefects != 12 {
		t.Errorf("TotalDefects = %d, want 12", snap.TotalDefects)
	}
}

func TestComputeKPIsReprintRate(t *testing.T) {
	now := time.Now()
	future := now.AddDate(0, 0, 7)

	jobs := make([]entity.Job, 10)
	for i := range jobs {
		jobs[i] = entity.Job{ID: string(rune('a' + i)), Status: entity.JobStatusInPress, QtyTotal: 100, ShipDate: future}
	}
	// 只有一单有次品数超过5的失败质检
	qc := map[string][]entity.QCRecord{
		"a": {{JobID: "a", Passed: false, Defects: 7}},
		"b": {{JobID: "b", Passed: false, Defects: 3}},
		"c": {{JobID: "c", Passed: true, Defects: 0}},
	}

	snap := ComputeKPIs(jobs, nil, qc, now)
	if snap.ReprintRate != 10.00 {
		t.Errorf("ReprintRate = %v, want 10.00", snap.ReprintRate)
	}
	if snap.QCFailed != 2 {
		t.Errorf("QCFailed = %d, want 2", snap.QCFailed)
	}
	if snap.QCPassed != 1 {
		t.Errorf("QCPassed = %d, want 1", snap.QCPassed)
	}
}

func TestComputeKPIsRushRounding(t *testing.T) {
	now := time.Now()
	future := now.AddDate(0, 0, 7)
	jobs := []entity.Job{
		{ID: "r1", Status: entity.JobStatusShipped, Rush24Hr: true, QtyTotal: 10, ShipDate: future},
		{ID: "r2", Status: entity.JobStatusShipped, Rush24Hr: true, QtyTotal: 10, ShipDate: future},
		{ID: "r3", Status: entity.JobStatusInPress, Rush24Hr: true, QtyTotal: 10, ShipDate: future},
	}

	snap := ComputeKPIs(jobs, nil, nil, now)
	// 2/3 取整为67，与spoilage的两位小数规则不同
	if snap.RushSuccessPercentage != 67 {
		t.Errorf("RushSuccessPercentage = %d, want 67", snap.RushSuccessPercentage)
	}
}

func TestComputeKPIsOnTime(t *testing.T) {
	now := time.Now()
	shipDate := now.AddDate(0, 0, -1)

	jobs := []entity.Job{
		// 发货日志早于交期：准时
		{ID: "ontime", Status: entity.JobStatusShipped, CSRID: "csr1", QtyTotal: 10, ShipDate: shipDate},
		// 发货日志晚于交期：迟发
		{ID: "late", Status: entity.JobStatusShipped, CSRID: "csr1", QtyTotal: 10, ShipDate: shipDate},
		// 没有发货日志：约定视为准时
		{ID: "nolog", Status: entity.JobStatusShipped, CSRID: "csr2", QtyTotal: 10, ShipDate: shipDate},
	}
	acts := map[string][]entity.Activity{
		"ontime": {statusChange("ontime", entity.JobStatusShipped, shipDate.Add(-time.Hour))},
		"late":   {statusChange("late", entity.JobStatusShipped, shipDate.Add(time.Hour))},
	}

	snap := ComputeKPIs(jobs, acts, nil, now)
	// 2/3准时，取整67
	if snap.OnTimePercentage != 67 {
		t.Errorf("OnTimePercentage = %d, want 67", snap.OnTimePercentage)
	}

	perf := snap.CSRPerformance["csr1"]
	if perf.TotalJobs != 2 || perf.ShippedJobs != 2 || perf.OnTimeJobs != 1 {
		t.Errorf("csr1 performance = %+v, want total=2 shipped=2 ontime=1", perf)
	}
	perf2 := snap.CSRPerformance["csr2"]
	if perf2.OnTimeJobs != 1 {
		t.Errorf("csr2 OnTimeJobs = %d, want 1", perf2.OnTimeJobs)
	}
}

func TestComputeKPIsLateJobs(t *testing.T) {
	now := time.Now()
	jobs := []entity.Job{
		{ID: "l1", Status: entity.JobStatusInPress, QtyTotal: 10, ShipDate: now.AddDate(0, 0, -2)},
		{ID: "l2", Status: entity.JobStatusShipped, QtyTotal: 10, ShipDate: now.AddDate(0, 0, -2)},
		{ID: "l3", Status: entity.JobStatusQC, QtyTotal: 10, ShipDate: now.AddDate(0, 0, 2)},
	}

	snap := ComputeKPIs(jobs, nil, nil, now)
	// 过期未发货只有l1；l2已发货，l3未到期
	if snap.LateJobs != 1 {
		t.Errorf("LateJobs = %d, want 1", snap.LateJobs)
	}
	if snap.StatusBreakdown[entity.JobStatusInPress] != 1 ||
		snap.StatusBreakdown[entity.JobStatusShipped] != 1 ||
		snap.StatusBreakdown[entity.JobStatusQC] != 1 {
		t.Errorf("StatusBreakdown = %v", snap.StatusBreakdown)
	}
}

func TestComputeKPIsAvgSetupTime(t *testing.T) {
	now := time.Now()
	future := now.AddDate(0, 0, 7)
	base := now.Add(-24 * time.Hour)

	jobs := []entity.Job{
		{ID: "s1", Status: entity.JobStatusInPress, QtyTotal: 10, ShipDate: future},
		{ID: "s2", Status: entity.JobStatusInPress, QtyTotal: 10, ShipDate: future},
		{ID: "s3", Status: entity.JobStatusReadyForPress, QtyTotal: 10, ShipDate: future},
	}
	acts := map[string][]entity.Activity{
		// 30分钟
		"s1": {
			statusChange("s1", entity.JobStatusReadyForPress, base),
			statusChange("s1", entity.JobStatusInPress, base.Add(30*time.Minute)),
		},
		// 45分钟
		"s2": {
			statusChange("s2", entity.JobStatusReadyForPress, base),
			statusChange("s2", entity.JobStatusInPress, base.Add(45*time.Minute)),
		},
		// 只有进入READY_FOR_PRESS，不构成配对
		"s3": {
			statusChange("s3", entity.JobStatusReadyForPress, base),
		},
	}

	snap := ComputeKPIs(jobs, acts, nil, now)
	// (30+45)/2 = 37.5 取整38
	if snap.AvgSetupTimeMinutes != 38 {
		t.Errorf("AvgSetupTimeMinutes = %d, want 38", snap.AvgSetupTimeMinutes)
	}
}

func TestRound2Bounds(t *testing.T) {
	if got := round2(1.005 * 100 / 100); got < 0 || got > 100 {
		t.Errorf("round2 out of range: %v", got)
	}
	if got := round2(100 * 12.0 / 1000.0); got != 1.2 {
		t.Errorf("round2(1.2) = %v", got)
	}
	if got := round2(33.33333); got != 33.33 {
		t.Errorf("round2(33.33333) = %v, want 33.33", got)
	}
}
