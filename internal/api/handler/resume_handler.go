package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resume-insight-go/internal/config"
	"resume-insight-go/internal/constants"
	"resume-insight-go/internal/logger"
	"resume-insight-go/internal/normalizer"
	"resume-insight-go/internal/pipeline"
	"resume-insight-go/internal/storage"
	"resume-insight-go/internal/types"

	"github.com/google/uuid"
)

// ErrHistoryNotConfigured 历史存储未配置时返回
var ErrHistoryNotConfigured = fmt.Errorf("报告历史存储未配置")

// ErrArchiveNotConfigured 文档归档存储未配置时返回
var ErrArchiveNotConfigured = fmt.Errorf("文档归档存储未配置")

// ResumeHandler 履历处理器，负责协调上传、流水线与归档
type ResumeHandler struct {
	cfg      *config.Config
	storage  *storage.Storage
	pipeline *pipeline.Orchestrator
}

// NewResumeHandler 创建履历处理器
func NewResumeHandler(cfg *config.Config, st *storage.Storage, pl *pipeline.Orchestrator) *ResumeHandler {
	return &ResumeHandler{
		cfg:      cfg,
		storage:  st,
		pipeline: pl,
	}
}

// HandleResumeAnalyze 处理履历分析请求：
// 上传内容落盘 -> 走完流水线 -> 归档与保存历史（尽力而为）-> 返回结果
func (h *ResumeHandler) HandleResumeAnalyze(ctx context.Context, reader io.Reader, fileSize int64, filename string) (*types.PipelineResult, error) {
	fileBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件内容失败: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return nil, fmt.Errorf("%w: 文件名缺少扩展名", normalizer.ErrUnsupportedFormat)
	}

	// 流水线以文件路径为输入，上传内容先落盘到临时目录
	tmpPath := filepath.Join(h.cfg.Server.UploadDir, uuid.NewString()+ext)
	if err := os.WriteFile(tmpPath, fileBytes, 0600); err != nil {
		return nil, fmt.Errorf("写入临时文件失败: %w", err)
	}
	defer os.Remove(tmpPath)

	result, err := h.pipeline.Run(ctx, tmpPath)
	if err != nil {
		return nil, err
	}
	result.FileName = filename

	h.archiveAndPersist(ctx, result, filename, fileBytes)
	return result, nil
}

// archiveAndPersist 归档原始文件与转录文本并保存历史。
// 归档和历史都是可选能力，失败只降级为警告，不影响分析结果返回。
func (h *ResumeHandler) archiveAndPersist(ctx context.Context, result *types.PipelineResult, filename string, fileBytes []byte) {
	if h.storage == nil {
		return
	}

	if h.storage.MinIO != nil {
		if _, err := h.storage.MinIO.ArchiveOriginal(ctx, result.ReportID, filename,
			bytes.NewReader(fileBytes), int64(len(fileBytes))); err != nil {
			logger.Warn().
				Err(err).
				Str("report_id", result.ReportID).
				Msg("归档原始文件失败")
		}
		if !result.TranscriptFailed && result.Transcript != "" {
			if _, err := h.storage.MinIO.ArchiveTranscript(ctx, result.ReportID, result.Transcript); err != nil {
				logger.Warn().
					Err(err).
					Str("report_id", result.ReportID).
					Msg("归档转录文本失败")
			}
		}
	}

	if h.storage.Redis != nil {
		saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := h.storage.Redis.SaveResult(saveCtx, result); err != nil {
			logger.Warn().
				Err(err).
				Str("report_id", result.ReportID).
				Msg("保存报告历史失败")
		}
	}
}

// HandleGetReport 按reportID取回历史报告
func (h *ResumeHandler) HandleGetReport(ctx context.Context, reportID string) (*types.PipelineResult, error) {
	if h.storage == nil || h.storage.Redis == nil {
		return nil, ErrHistoryNotConfigured
	}
	return h.storage.Redis.GetResult(ctx, reportID)
}

// HandleGetTranscript 按reportID取回已归档的转录文本
func (h *ResumeHandler) HandleGetTranscript(ctx context.Context, reportID string) (string, error) {
	if h.storage == nil || h.storage.MinIO == nil {
		return "", ErrArchiveNotConfigured
	}
	return h.storage.MinIO.GetTranscript(ctx, reportID)
}

// HandleGetOriginalURL 生成原始上传文件的限时下载链接
func (h *ResumeHandler) HandleGetOriginalURL(ctx context.Context, reportID string) (string, error) {
	if h.storage == nil || h.storage.MinIO == nil {
		return "", ErrArchiveNotConfigured
	}
	return h.storage.MinIO.GetOriginalURL(ctx, reportID, constants.DownloadURLExpiry)
}
