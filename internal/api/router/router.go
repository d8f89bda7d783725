package router

import (
	"context"
	"crypto/subtle"
	"errors"

	"resume-insight-go/internal/api/handler"
	"resume-insight-go/internal/normalizer"
	"resume-insight-go/internal/pipeline"
	"resume-insight-go/internal/storage"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// RegisterRoutes 注册 API 路由。
// apiKey非空时整个 /api/v1 组启用 X-API-Key 校验。
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler, analysisHandler *handler.AnalysisHandler, apiKey string) {
	api := h.Group("/api/v1")

	if apiKey != "" {
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:X-API-Key", ""),
			keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
				return subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1, nil
			}),
		))
	}

	api.POST("/resume/analyze", func(c context.Context, ctx *app.RequestContext) {
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
			return
		}
		defer file.Close()

		result, err := resumeHandler.HandleResumeAnalyze(c, file, fileHeader.Size, fileHeader.Filename)
		if err != nil {
			ctx.JSON(statusForPipelineError(err), utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, result)
	})

	api.POST("/resume/gap", func(c context.Context, ctx *app.RequestContext) {
		var req handler.GapRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}

		report, err := analysisHandler.HandleGapAnalysis(c, &req)
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, report)
	})

	api.POST("/projects/suggest", func(c context.Context, ctx *app.RequestContext) {
		var req handler.ProjectsRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体解析失败"})
			return
		}

		outcome, err := analysisHandler.HandleSuggestProjects(c, &req)
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, outcome)
	})

	api.GET("/history/:id", func(c context.Context, ctx *app.RequestContext) {
		reportID := ctx.Param("id")
		result, err := resumeHandler.HandleGetReport(c, reportID)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				ctx.JSON(consts.StatusNotFound, utils.H{"error": "报告不存在或已过期"})
			case errors.Is(err, handler.ErrHistoryNotConfigured):
				ctx.JSON(consts.StatusNotImplemented, utils.H{"error": err.Error()})
			default:
				ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			}
			return
		}

		ctx.JSON(consts.StatusOK, result)
	})

	api.GET("/history/:id/transcript", func(c context.Context, ctx *app.RequestContext) {
		text, err := resumeHandler.HandleGetTranscript(c, ctx.Param("id"))
		if err != nil {
			status, msg := statusForArchiveError(err)
			ctx.JSON(status, utils.H{"error": msg})
			return
		}

		ctx.JSON(consts.StatusOK, utils.H{"transcript": text})
	})

	api.GET("/history/:id/download", func(c context.Context, ctx *app.RequestContext) {
		url, err := resumeHandler.HandleGetOriginalURL(c, ctx.Param("id"))
		if err != nil {
			status, msg := statusForArchiveError(err)
			ctx.JSON(status, utils.H{"error": msg})
			return
		}

		ctx.JSON(consts.StatusOK, utils.H{"url": url})
	})

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}

// statusForArchiveError 把归档读取错误映射为HTTP状态码与提示
func statusForArchiveError(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return consts.StatusNotFound, "归档对象不存在或已清理"
	case errors.Is(err, handler.ErrArchiveNotConfigured):
		return consts.StatusNotImplemented, err.Error()
	default:
		return consts.StatusInternalServerError, err.Error()
	}
}

// statusForPipelineError 把流水线错误映射为HTTP状态码。
// 输入校验类错误（不支持的格式、空文档）是调用方的问题，其余算服务端错误。
func statusForPipelineError(err error) int {
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		if errors.Is(stageErr.Err, normalizer.ErrUnsupportedFormat) ||
			errors.Is(stageErr.Err, normalizer.ErrEmptyDocument) {
			return consts.StatusBadRequest
		}
	}
	if errors.Is(err, normalizer.ErrUnsupportedFormat) {
		return consts.StatusBadRequest
	}
	return consts.StatusInternalServerError
}
