package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// StorageService 对象存储服务，稿样文件与质检照片统一走MinIO
type StorageService struct {
	client     *minio.Client
	bucketName string
}

// NewStorageService 创建对象存储服务
func NewStorageService(client *minio.Client, bucketName string) *StorageService {
	return &StorageService{client: client, bucketName: bucketName}
}

// PutProofArtifact 上传稿样文件，返回对象路径
func (s *StorageService) PutProofArtifact(ctx context.Context, jobID string, version int, fileName string, size int64, contentType string, reader io.Reader) (string, error) {
	objectName := fmt.Sprintf("proofs/%s/v%d/%s%s", jobID, version, uuid.New().String()[:8], filepath.Ext(fileName))
	if s.client != nil {
		_, err := s.client.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return "", fmt.Errorf("upload proof: %w", err)
		}
	}
	return objectName, nil
}

// PutQCPhoto 上传质检照片，返回对象路径
func (s *StorageService) PutQCPhoto(ctx context.Context, jobID, fileName string, size int64, contentType string, reader io.Reader) (string, error) {
	objectName := fmt.Sprintf("qc/%s/%s/%s%s", time.Now().Format("2006/01/02"), jobID, uuid.New().String()[:8], filepath.Ext(fileName))
	if s.client != nil {
		_, err := s.client.PutObject(ctx, s.bucketName, objectName, reader, size, minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err != nil {
			return "", fmt.Errorf("upload qc photo: %w", err)
		}
	}
	return objectName, nil
}

// PresignedURL 生成对象的临时下载链接
func (s *StorageService) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if s.client == nil {
		return objectName, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, objectName, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return u.String(), nil
}
