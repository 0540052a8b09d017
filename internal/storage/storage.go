package storage

import (
	"fmt"
	"mime/multipart"

	"github.com/Dutta2005/TrustCircle/config"
)

// Storage 文件存储抽象，本地磁盘与 S3 各有一个实现
type Storage interface {
	UploadFile(file *multipart.FileHeader, path string) (string, error)
}

// New 根据配置选择存储后端
func New(cfg *config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case "s3":
		return NewS3Client(cfg.S3Region, cfg.S3Bucket)
	case "local", "":
		return NewLocalStorage(cfg.LocalStoragePath)
	default:
		return nil, fmt.Errorf("不支持的存储后端: %s", cfg.StorageBackend)
	}
}
