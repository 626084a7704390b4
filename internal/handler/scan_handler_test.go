package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inkhaus/pressflow/internal/model/entity"
	"github.com/inkhaus/pressflow/internal/repository"
	"github.com/inkhaus/pressflow/internal/service"
	"github.com/inkhaus/pressflow/internal/testutil"
	"gorm.io/gorm"
)

func setupScanTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	jobSvc := service.NewJobService(repos.Job, repos.Proof, repos.QC, repos.Activity)
	h := NewScanHandler(jobSvc)

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api/v1")
	api.POST("/scan", h.Scan)
	api.GET("/scan", h.Lookup)

	testutil.SeedTestUser(t, db, "csr-001", "Test CSR", "csr@test.com", entity.UserRoleCSR)
	testutil.SeedTestClient(t, db, "client-001", "Acme Apparel")

	return r, db
}

func TestScanAdvance(t *testing.T) {
	r, db := setupScanTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedTestJob(t, db, "job-s1", "JOB-600001", "client-001", "csr-001", entity.JobStatusNew)

	w := testutil.DoRequest(r, http.MethodPost, "/api/v1/scan",
		map[string]interface{}{"barcode": "JOB-600001"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	resp := testutil.ParseResponse(w)
	result := resp["data"].(map[string]interface{})
	if result["new_status"] != entity.JobStatusWaitingArtwork {
		t.Errorf("new_status = %v, want WAITING_ARTWORK", result["new_status"])
	}

	// 扫码来源记专用动作并带条码
	var act entity.Activity
	if err := db.Where("job_id = ? AND action = ?", "job-s1", entity.ActionStatusChangedViaScan).First(&act).Error; err != nil {
		t.Fatalf("expected STATUS_CHANGED_VIA_SCAN activity: %v", err)
	}
	if act.Meta[entity.MetaBarcode] != "JOB-600001" {
		t.Errorf("barcode meta = %v", act.Meta[entity.MetaBarcode])
	}
	if got := countScanActivities(t, db, "job-s1", entity.ActionStatusChanged); got != 0 {
		t.Errorf("plain STATUS_CHANGED activities = %d, want 0", got)
	}
}

func countScanActivities(t *testing.T, db *gorm.DB, jobID, action string) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&entity.Activity{}).Where("job_id = ? AND action = ?", jobID, action).Count(&count).Error; err != nil {
		t.Fatalf("count activities: %v", err)
	}
	return count
}

func TestScanHold(t *testing.T) {
	r, db := setupScanTest(t)
	testutil.SeedTestJob(t, db, "job-s2", "JOB-600002", "client-001", "csr-001", entity.JobStatusInPress)

	w := testutil.DoRequest(r, http.MethodPost, "/api/v1/scan",
		map[string]interface{}{"barcode": "JOB-600002", "mode": "hold"}, testutil.DefaultTestToken())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var job entity.Job
	db.First(&job, "id = ?", "job-s2")
	if job.Status != entity.JobStatusHold {
		t.Errorf("job status = %s, want HOLD", job.Status)
	}
}

func TestScanUnknownBarcode(t *testing.T) {
	r, _ := setupScanTest(t)

	w := testutil.DoRequest(r, http.MethodPost, "/api/v1/scan",
		map[string]interface{}{"barcode": "JOB-999999"}, testutil.DefaultTestToken())
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestScanGuardBlocked(t *testing.T) {
	r, db := setupScanTest(t)
	testutil.SeedTestJob(t, db, "job-s3", "JOB-600003", "client-001", "csr-001", entity.JobStatusReadyForPress)

	w := testutil.DoRequest(r, http.MethodPost, "/api/v1/scan",
		map[string]interface{}{"barcode": "JOB-600003"}, testutil.DefaultTestToken())
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["requires_override"] != true {
		t.Errorf("requires_override = %v, want true", data["requires_override"])
	}
}

func TestScanLookup(t *testing.T) {
	r, db := setupScanTest(t)
	testutil.SeedTestJob(t, db, "job-s4", "JOB-600004", "client-001", "csr-001", entity.JobStatusQC)

	w := testutil.DoRequest(r, http.MethodGet, "/api/v1/scan?barcode=JOB-600004", nil, testutil.DefaultTestToken())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	job := resp["data"].(map[string]interface{})
	if job["id"] != "job-s4" || job["status"] != entity.JobStatusQC {
		t.Errorf("lookup = %v", job)
	}

	w = testutil.DoRequest(r, http.MethodGet, "/api/v1/scan", nil, testutil.DefaultTestToken())
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing barcode status = %d, want 400", w.Code)
	}
}
