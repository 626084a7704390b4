package service

import (
	"github.com/inkhaus/pressflow/internal/config"
	"github.com/inkhaus/pressflow/internal/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
)

// Services 服务集合
type Services struct {
	Job       *JobService
	Proof     *ProofService
	QC        *QCService
	Report    *ReportService
	Client    *ClientService
	Inventory *InventoryService
	Storage   *StorageService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config) *Services {
	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			minioClient = nil
		}
	}
	storage := NewStorageService(minioClient, cfg.MinIO.Bucket)

	return &Services{
		Job:       NewJobService(repos.Job, repos.Proof, repos.QC, repos.Activity),
		Proof:     NewProofService(repos.Proof, repos.Job, storage),
		QC:        NewQCService(repos.QC, repos.Job, storage),
		Report:    NewReportService(repos.Job, rdb),
		Client:    NewClientService(repos.Client, repos.User),
		Inventory: NewInventoryService(repos.Inventory),
		Storage:   storage,
	}
}
