package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"resume-insight-go/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DocumentArchive 文档归档接口
type DocumentArchive interface {
	// ArchiveOriginal 归档原始上传文件，返回对象键
	ArchiveOriginal(ctx context.Context, reportID, fileName string, reader io.Reader, fileSize int64) (string, error)

	// ArchiveTranscript 归档转录文本，返回对象键
	ArchiveTranscript(ctx context.Context, reportID string, text string) (string, error)

	// GetTranscript 取回已归档的转录文本，不存在时返回 ErrNotFound
	GetTranscript(ctx context.Context, reportID string) (string, error)

	// GetOriginalURL 生成原始文件的限时预签名下载URL，不存在时返回 ErrNotFound
	GetOriginalURL(ctx context.Context, reportID string, expiry time.Duration) (string, error)
}

// 确保MinIO实现了DocumentArchive接口
var _ DocumentArchive = (*MinIO)(nil)

// MinIO 提供原始文件与转录文本的对象存储归档
type MinIO struct {
	client           *minio.Client
	originalsBucket  string
	transcriptBucket string
	logger           *log.Logger
}

// NewMinIO 创建MinIO客户端并确保两个存储桶存在
func NewMinIO(cfg *config.MinIOConfig, logger *log.Logger) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	originalsBucket := cfg.OriginalsBucket
	if originalsBucket == "" {
		originalsBucket = "resume-originals"
	}
	transcriptBucket := cfg.TranscriptBucket
	if transcriptBucket == "" {
		transcriptBucket = "resume-transcripts"
	}

	m := &MinIO{
		client:           client,
		originalsBucket:  originalsBucket,
		transcriptBucket: transcriptBucket,
		logger:           logger,
	}

	if err := m.ensureBucketExists(originalsBucket); err != nil {
		return nil, fmt.Errorf("确保原始文件存储桶 %s 存在失败: %w", originalsBucket, err)
	}
	if err := m.ensureBucketExists(transcriptBucket); err != nil {
		return nil, fmt.Errorf("确保转录文本存储桶 %s 存在失败: %w", transcriptBucket, err)
	}

	logger.Printf("[MinIO] 客户端初始化成功, endpoint=%s, originals=%s, transcripts=%s",
		cfg.Endpoint, originalsBucket, transcriptBucket)
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(bucketName string) error {
	exists, err := m.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if !exists {
		if err := m.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
		}
		m.logger.Printf("[MinIO] 已创建存储桶 %s", bucketName)
	}
	return nil
}

// originalObjectPrefix 原始文件对象键前缀，完整键在其后接原始扩展名
func originalObjectPrefix(reportID string) string {
	return fmt.Sprintf("resume/%s/original", reportID)
}

// transcriptObjectName 转录文本的对象键
func transcriptObjectName(reportID string) string {
	return fmt.Sprintf("resume/%s/transcript.txt", reportID)
}

// ArchiveOriginal 归档原始上传文件。
// 对象键形如 resume/<reportID>/original.pdf，扩展名取自原始文件名。
func (m *MinIO) ArchiveOriginal(ctx context.Context, reportID, fileName string, reader io.Reader, fileSize int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	objectName := originalObjectPrefix(reportID) + ext

	_, err := m.client.PutObject(ctx, m.originalsBucket, objectName, reader, fileSize,
		minio.PutObjectOptions{ContentType: contentTypeForExt(ext)})
	if err != nil {
		return "", fmt.Errorf("归档原始文件 %s 失败: %w", objectName, err)
	}
	m.logger.Printf("[MinIO] 已归档原始文件: %s (%d bytes)", objectName, fileSize)
	return objectName, nil
}

// ArchiveTranscript 归档转录文本
func (m *MinIO) ArchiveTranscript(ctx context.Context, reportID string, text string) (string, error) {
	objectName := transcriptObjectName(reportID)

	_, err := m.client.PutObject(ctx, m.transcriptBucket, objectName,
		strings.NewReader(text), int64(len(text)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return "", fmt.Errorf("归档转录文本 %s 失败: %w", objectName, err)
	}
	return objectName, nil
}

// GetTranscript 取回已归档的转录文本
func (m *MinIO) GetTranscript(ctx context.Context, reportID string) (string, error) {
	objectName := transcriptObjectName(reportID)
	object, err := m.client.GetObject(ctx, m.transcriptBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("获取转录文本 %s 失败: %w", objectName, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		// GetObject 懒加载，对象不存在要到读取时才暴露
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", fmt.Errorf("%w: 转录文本 %s", ErrNotFound, reportID)
		}
		return "", fmt.Errorf("读取转录文本 %s 失败: %w", objectName, err)
	}
	return string(data), nil
}

// GetOriginalURL 生成原始文件的限时预签名下载URL。
// 归档时扩展名取自上传文件名，这里按前缀定位实际对象键。
func (m *MinIO) GetOriginalURL(ctx context.Context, reportID string, expiry time.Duration) (string, error) {
	prefix := originalObjectPrefix(reportID)

	var objectName string
	for obj := range m.client.ListObjects(ctx, m.originalsBucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return "", fmt.Errorf("查找原始文件 %s 失败: %w", prefix, obj.Err)
		}
		objectName = obj.Key
		break
	}
	if objectName == "" {
		return "", fmt.Errorf("%w: 原始文件 %s", ErrNotFound, reportID)
	}

	u, err := m.client.PresignedGetObject(ctx, m.originalsBucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成预签名URL失败: %w", err)
	}
	return u.String(), nil
}

// contentTypeForExt 根据扩展名返回Content-Type
func contentTypeForExt(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
