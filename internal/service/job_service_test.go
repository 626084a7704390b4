package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/inkhaus/pressflow/internal/model/entity"
	"github.com/inkhaus/pressflow/internal/repository"
	"github.com/inkhaus/pressflow/internal/testutil"
	"gorm.io/gorm"
)

func setupJobService(t *testing.T) (*JobService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	svc := NewJobService(repos.Job, repos.Proof, repos.QC, repos.Activity)

	testutil.SeedTestUser(t, db, "csr-001", "Test CSR", "csr@test.com", entity.UserRoleCSR)
	testutil.SeedTestClient(t, db, "client-001", "Acme Apparel")

	return svc, db
}

func countActivities(t *testing.T, db *gorm.DB, jobID string, actions ...string) int64 {
	t.Helper()
	var count int64
	q := db.Model(&entity.Activity{}).Where("job_id = ?", jobID)
	if len(actions) > 0 {
		q = q.Where("action IN ?", actions)
	}
	if err := q.Count(&count).Error; err != nil {
		t.Fatalf("count activities: %v", err)
	}
	return count
}

func TestJobCreate(t *testing.T) {
	svc, db := setupJobService(t)
	ctx := context.Background()

	job, err := svc.Create(ctx, "csr-001", &CreateJobRequest{
		OENumber:      "OE-1001",
		ClientID:      "client-001",
		CSRID:         "csr-001",
		ShipDate:      time.Now().AddDate(0, 0, 7),
		ProductID:     "TEE-5000",
		QtyTotal:      100,
		SizeBreakdown: map[string]int{"S": 20, "M": 50, "L": 30},
		Locations: []LocationInput{
			{Name: "Front", WidthIn: 12, HeightIn: 14, Colors: 3, PMS: []string{"186C", "Black"}},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if job.Status != entity.JobStatusNew {
		t.Errorf("status = %s, want NEW", job.Status)
	}
	if job.JobCode == "" {
		t.Error("expected generated job code")
	}
	if got := countActivities(t, db, job.ID, entity.ActionJobCreated); got != 1 {
		t.Errorf("JOB_CREATED activities = %d, want 1", got)
	}

	loaded, err := svc.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(loaded.Locations) != 1 || loaded.Locations[0].Name != "Front" {
		t.Errorf("locations not persisted: %+v", loaded.Locations)
	}
}

func TestJobCreateBreakdownMismatch(t *testing.T) {
	svc, _ := setupJobService(t)

	_, err := svc.Create(context.Background(), "csr-001", &CreateJobRequest{
		OENumber:      "OE-1002",
		ClientID:      "client-001",
		CSRID:         "csr-001",
		ShipDate:      time.Now().AddDate(0, 0, 7),
		ProductID:     "TEE-5000",
		QtyTotal:      100,
		SizeBreakdown: map[string]int{"M": 40, "L": 30},
	})
	if err == nil {
		t.Fatal("expected error when size breakdown does not sum to qty_total")
	}
}

func TestAdvanceHappyPath(t *testing.T) {
	svc, db := setupJobService(t)
	ctx := context.Background()
	testutil.SeedTestJob(t, db, "job-adv", "JOB-100001", "client-001", "csr-001", entity.JobStatusNew)

	result, err := svc.RequestTransition(ctx, "job-adv", &TransitionRequest{
		Mode:   ModeAdvance,
		Origin: OriginAPI,
		UserID: "csr-001",
	})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}

	if result.OldStatus != entity.JobStatusNew || result.NewStatus != entity.JobStatusWaitingArtwork {
		t.Errorf("transition = %s -> %s, want NEW -> WAITING_ARTWORK", result.OldStatus, result.NewStatus)
	}

	var act entity.Activity
	if err := db.Where("job_id = ? AND action = ?", "job-adv", entity.ActionStatusChanged).First(&act).Error; err != nil {
		t.Fatalf("expected STATUS_CHANGED activity: %v", err)
	}
	if act.Meta[entity.MetaOldStatus] != entity.JobStatusNew || act.Meta[entity.MetaNewStatus] != entity.JobStatusWaitingArtwork {
		t.Errorf("activity meta = %v", act.Meta)
	}
}

func TestAdvanceProofGuard(t *testing.T) {
	svc, db := setupJobService(t)
	ctx := context.Background()
	testutil.SeedTestJob(t, db, "job-guard", "JOB-100002", "client-001", "csr-001", entity.JobStatusReadyForPress)

	// 无已批准稿样且无强制理由：守卫拦截
	_, err := svc.RequestTransition(ctx, "job-guard", &TransitionRequest{
		Mode:   ModeAdvance,
		Origin: OriginAPI,
		UserID: "csr-001",
	})
	var guardErr *GuardError
	if !errors.As(err, &guardErr) {
		t.Fatalf("expected GuardError, got %v", err)
	}
	if !guardErr.RequiresOverride {
		t.Error("expected RequiresOverride")
	}
	if !errors.Is(err, ErrGuardViolation) {
		t.Error("GuardError should match ErrGuardViolation")
	}
	// 守卫失败不产生任何写入
	if got := countActivities(t, db, "job-guard"); got != 0 {
		t.Errorf("activities after guard failure = %d, want 0", got)
	}

	// 带强制理由可通过，附带提示
	result, err := svc.RequestTransition(ctx, "job-guard", &TransitionRequest{
		Mode:           ModeAdvance,
		OverrideReason: "client approved by phone",
		Origin:         OriginAPI,
		UserID:         "csr-001",
	})
	if err != nil {
		t.Fatalf("advance with override: %v", err)
	}
	if result.NewStatus != entity.JobStatusInPress {
		t.Errorf("status = %s, want IN_PRESS", result.NewStatus)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected override warning")
	}

	var act entity.Activity
	if err := db.Where("job_id = ? AND action = ?", "job-guard", entity.ActionStatusChanged).First(&act).Error; err != nil {
		t.Fatalf("activity: %v", err)
	}
	if act.Meta[entity.MetaOverrideReason] != "client approved by phone" {
		t.Errorf("override_reason = %v", act.Meta[entity.MetaOverrideReason])
	}
}

func TestAdvanceWithApprovedProof(t *testing.T) {
	svc, db := setupJobService(t)
	ctx := context.Background()
	testutil.SeedTestJob(t, db, "job-ok", "JOB-100003", "client-001", "csr-001", entity.JobStatusReadyForPress)

	now := time.Now()
	db.Create(&entity.Proof{
		ID: "proof-ok", JobID: "job-ok", Version: 1,
		Status: entity.ProofStatusApproved, FileURL: "proofs/job-ok/v1.pdf",
		ApprovedAt: &now, CreatedAt: now, UpdatedAt: now,
	})

	result, err := svc.RequestTransition(ctx, "job-ok", &TransitionRequest{
		Mode:   ModeAdvance,
		Origin: OriginAPI,
		UserID: "csr-001",
	})
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if result.NewStatus != entity.JobStatusInPress {
		t.Errorf("status = %s, want IN_PRESS", result.NewStatus)
	}
}

func TestAdvancePhotoGuard(t *testing.T) {
	svc, db := setupJobService(t)
	ctx := context.Background()
	job := testutil.SeedTestJob(t, db, "job-photo", "JOB-100004", "client-001", "csr-001", entity.JobStatusPacked)
	db.Model(job).Update("need_photo", true)

	// 无质检照片：拦截，且强制理由不可绕过
	_, err := svc.RequestTransition(ctx, "job-photo", &TransitionRequest{
		Mode:           ModeAdvance,
		OverrideReason: "ship anyway",
		Origin:         OriginAPI,
		UserID:         "csr-001",
	})
	var guardErr *GuardError
	if !errors.As(err, &guardErr) {
		t.Fatalf("expected GuardError, got %v", err)
	}
	if !guardErr.RequiresPhoto {
		t.Error("expected RequiresPhoto")
	}

	// 有照片的质检记录后放行
	db.Create(&entity.QCRecord{
		ID: "qc-photo", JobID: "job-photo", Passed: true,
		PhotoURL: "qc/job-photo/1.jpg", CreatedAt: time.Now(),
	})
	result, err := svc.RequestTransition(ctx, "job-photo", &TransitionRequest{
		Mode:   ModeAdvance,
		Origin: OriginAPI,
		UserID: "csr-001",
	})
	if err != nil {
		t.Fatalf("advance after photo: %v", err)
	}
	if result.NewStatus != entity.JobStatusShipped {
		t.Errorf("status = %s, want SHIPPED", result.NewStatus)
	}
}

func TestAdvanceShippedIdempotent(t *testing.T) {
	svc, db := setupJobService(t)
	ctx := context.Background()
	testutil.SeedTestJob(t, db, "job-done", "JOB-100005", "client-001", "csr-001", entity.JobStatusShipped)

	for i := 0; i < 3; i++ {
		result, err := svc.RequestTransition(ctx, "job-done", &TransitionRequest{
			Mode:   ModeAdvance,
			Origin: OriginAPI,
			UserID: "csr-001",
		})
		if err != nil {
			t.Fatalf("advance #%d: %v", i, err)
		}
		if !result.NoOp || result.NewStatus != entity.JobStatusShipped {
			t.Errorf("advance #%d: NoOp=%v status=%s", i, result.NoOp, result.NewStatus)
		}
	}

	if got := countActivities(t, db, "job-done"); got != 0 {
		t.Errorf("idempotent advances appended %d activities, want 0", got)
	}
}

func TestHoldAndExceptionFromAnywhere(t *testing.T) {
	svc, db := setupJobService(t)
	ctx := context.Background()

	for i, status := range []string{entity.JobStatusNew, entity.JobStatusInPress, entity.JobStatusShipped} {
		jobID := "job-hold-" + status
		testutil.SeedTestJob(t, db, jobID, "JOB-20000"+string(rune('0'+i)), "client-001", "csr-001", status)

		result, err := svc.RequestTransition(ctx, jobID, &TransitionRequest{
			Mode:   ModeHold,
			Origin: OriginAPI,
			UserID: "csr-001",
		})
		if err != nil {
			t.Fatalf("hold from %s: %v", status, err)
		}
		if result.NewStatus != entity.JobStatusHold || result.OldStatus != status {
			t.Errorf("hold from %s: %s -> %s", status, result.OldStatus, result.NewStatus)
		}
	}

	// HOLD中的工单不能推进
	_, err := svc.RequestTransition(ctx, "job-hold-NEW", &TransitionRequest{
		Mode:   ModeAdvance,
		Origin: OriginAPI,
		UserID: "csr-001",
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("advance from HOLD: got %v, want ErrInvalidTransition", err)
	}

	// 但可以EXCEPTION
	result, err := svc.RequestTransition(ctx, "job-hold-NEW", &TransitionRequest{
		Mode:   ModeException,
		Origin: OriginAPI,
		UserID: "csr-001",
	})
	if err != nil {
		t.Fatalf("exception from HOLD: %v", err)
	}
	if result.NewStatus != entity.JobStatusException {
		t.Errorf("status = %s, want EXCEPTION", result.NewStatus)
	}
}

func TestSetStatusOverride(t *testing.T) {
	svc, db := setupJobService(t)
	ctx := context.Background()
	testutil.SeedTestJob(t, db, "job-set", "JOB-100006", "client-001", "csr-001", entity.JobStatusInPress)

	// 跳步且无理由：拒绝
	_, err := svc.RequestTransition(ctx, "job-set", &TransitionRequest{
		Mode:   ModeSetStatus,
		Status: entity.JobStatusPacked,
		Origin: OriginBoard,
		UserID: "csr-001",
	})
	if !errors.Is(err, ErrMissingOverrideReason) {
		t.Fatalf("expected ErrMissingOverrideReason, got %v", err)
	}

	// 非法状态：拒绝
	_, err = svc.RequestTransition(ctx, "job-set", &TransitionRequest{
		Mode:   ModeSetStatus,
		Status: "FOLDED",
		Origin: OriginBoard,
		UserID: "csr-001",
	})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// 带理由的跳步生效并记录理由
	result, err := svc.RequestTransition(ctx, "job-set", &TransitionRequest{
		Mode:           ModeSetStatus,
		Status:         entity.JobStatusPacked,
		OverrideReason: "skipped QC per manager",
		Origin:         OriginBoard,
		UserID:         "csr-001",
	})
	if err != nil {
		t.Fatalf("set_status with override: %v", err)
	}
	if result.NewStatus != entity.JobStatusPacked {
		t.Errorf("status = %s, want PACKED", result.NewStatus)
	}

	var act entity.Activity
	if err := db.Where("job_id = ? AND action = ?", "job-set", entity.ActionStatusChanged).First(&act).Error; err != nil {
		t.Fatalf("activity: %v", err)
	}
	if act.Meta[entity.MetaOverrideReason] != "skipped QC per manager" {
		t.Errorf("override_reason = %v", act.Meta[entity.MetaOverrideReason])
	}
}

func TestEditableFieldsRejectStatus(t *testing.T) {
	svc, db := setupJobService(t)
	testutil.SeedTestJob(t, db, "job-edit", "JOB-100007", "client-001", "csr-001", entity.JobStatusNew)

	_, err := svc.UpdateFields(context.Background(), "job-edit", map[string]interface{}{
		"status": entity.JobStatusShipped,
	})
	if err == nil {
		t.Fatal("expected error when editing status via UpdateFields")
	}

	job, err := svc.UpdateFields(context.Background(), "job-edit", map[string]interface{}{
		"notes": "rush the screens",
	})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if job.Notes != "rush the screens" {
		t.Errorf("notes = %q", job.Notes)
	}
}

func TestConcurrentAdvanceSingleWinner(t *testing.T) {
	svc, db := setupJobService(t)
	ctx := context.Background()
	testutil.SeedTestJob(t, db, "job-race", "JOB-100008", "client-001", "csr-001", entity.JobStatusNew)

	var wg sync.WaitGroup
	results := make([]*TransitionResult, 2)
	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.RequestTransition(ctx, "job-race", &TransitionRequest{
				Mode:   ModeAdvance,
				Origin: OriginAPI,
				UserID: "csr-001",
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for i := 0; i < 2; i++ {
		if errs[i] == nil && results[i] != nil && !results[i].NoOp {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("effective winners = %d, want exactly 1", wins)
	}

	// 状态只推进一步，日志只追加一条
	job, err := svc.Get(ctx, "job-race")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != entity.JobStatusWaitingArtwork {
		t.Errorf("status = %s, want WAITING_ARTWORK", job.Status)
	}
	if got := countActivities(t, db, "job-race", entity.ActionStatusChanged); got != 1 {
		t.Errorf("STATUS_CHANGED activities = %d, want 1", got)
	}
}

func TestConcurrentGuardedAdvance(t *testing.T) {
	svc, db := setupJobService(t)
	ctx := context.Background()
	testutil.SeedTestJob(t, db, "job-race2", "JOB-100009", "client-001", "csr-001", entity.JobStatusReadyForPress)

	var wg sync.WaitGroup
	var overrideErr, plainErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, overrideErr = svc.RequestTransition(ctx, "job-race2", &TransitionRequest{
			Mode:           ModeAdvance,
			OverrideReason: "client confirmed verbally",
			Origin:         OriginAPI,
			UserID:         "csr-001",
		})
	}()
	go func() {
		defer wg.Done()
		_, plainErr = svc.RequestTransition(ctx, "job-race2", &TransitionRequest{
			Mode:   ModeAdvance,
			Origin: OriginAPI,
			UserID: "csr-001",
		})
	}()
	wg.Wait()

	if overrideErr != nil {
		t.Errorf("override advance failed: %v", overrideErr)
	}
	if plainErr == nil {
		t.Error("plain advance should have been rejected by the proof guard")
	} else if !errors.Is(plainErr, ErrGuardViolation) && !errors.Is(plainErr, ErrInvalidTransition) {
		t.Errorf("plain advance error = %v", plainErr)
	}

	job, _ := svc.Get(ctx, "job-race2")
	if job.Status != entity.JobStatusInPress {
		t.Errorf("status = %s, want IN_PRESS", job.Status)
	}
	if got := countActivities(t, db, "job-race2", entity.ActionStatusChanged); got != 1 {
		t.Errorf("STATUS_CHANGED activities = %d, want 1", got)
	}
}

func TestDeleteWithDependents(t *testing.T) {
	svc, db := setupJobService(t)
	ctx := context.Background()
	testutil.SeedTestJob(t, db, "job-del", "JOB-100010", "client-001", "csr-001", entity.JobStatusNew)

	db.Create(&entity.Proof{
		ID: "proof-del", JobID: "job-del", Version: 1,
		Status: entity.ProofStatusPending, FileURL: "proofs/x.pdf",
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})

	if err := svc.Delete(ctx, "job-del"); !errors.Is(err, ErrHasDependents) {
		t.Fatalf("expected ErrHasDependents, got %v", err)
	}

	db.Delete(&entity.Proof{}, "id = ?", "proof-del")
	if err := svc.Delete(ctx, "job-del"); err != nil {
		t.Fatalf("delete after removing dependents: %v", err)
	}
	if _, err := svc.Get(ctx, "job-del"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
