package storage

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"resume-insight-go/internal/config"
)

// ErrNotFound 请求的报告或归档对象不存在
var ErrNotFound = errors.New("记录不存在")

// Storage 存储管理器，聚合可选的归档与历史存储。
// 两者都是可选组件：未配置时流水线照常运行，只是不落归档、不留历史。
type Storage struct {
	// 对象存储归档
	MinIO DocumentArchive

	// 报告历史
	Redis *Redis
}

// NewStorage 创建存储管理器。
// 单个组件初始化失败只记录警告，全部失败且至少配置了一个时才报错。
func NewStorage(cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	storage := &Storage{}
	var initErrors []string
	configured := 0

	var minioLogger *log.Logger
	if cfg.Logger.Level == "debug" {
		minioLogger = log.New(os.Stderr, "[MinIOStorage] ", log.LstdFlags)
	} else {
		minioLogger = log.New(io.Discard, "", 0)
	}

	if cfg.MinIO.Endpoint != "" {
		configured++
		m, err := NewMinIO(&cfg.MinIO, minioLogger)
		if err != nil {
			log.Printf("警告: 初始化MinIO失败: %v", err)
			initErrors = append(initErrors, fmt.Sprintf("MinIO: %v", err))
		} else {
			storage.MinIO = m
		}
	}

	if cfg.Redis.Address != "" {
		configured++
		r, err := NewRedisAdapter(&cfg.Redis)
		if err != nil {
			log.Printf("警告: 初始化Redis失败: %v", err)
			initErrors = append(initErrors, fmt.Sprintf("Redis: %v", err))
		} else {
			storage.Redis = r
		}
	}

	if configured > 0 && storage.MinIO == nil && storage.Redis == nil {
		return nil, fmt.Errorf("所有已配置的存储组件初始化失败: %s", strings.Join(initErrors, "; "))
	}

	return storage, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Printf("关闭Redis连接失败: %v", err)
		}
	}
	// MinIO客户端不需要显式Close
}
