package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-insight-go/internal/analyzer"
	"resume-insight-go/internal/api/handler"
	"resume-insight-go/internal/api/router"
	"resume-insight-go/internal/config"
	"resume-insight-go/internal/extractor"
	"resume-insight-go/internal/llm"
	appCoreLogger "resume-insight-go/internal/logger"
	"resume-insight-go/internal/normalizer"
	"resume-insight-go/internal/pipeline"
	"resume-insight-go/internal/storage"
	"resume-insight-go/internal/tracing"
	"resume-insight-go/internal/vlm"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	initLogger(cfg)
	glog.Info("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitTracerProvider(ctx, &cfg.Tracing)
	if err != nil {
		glog.Warnf("初始化Tracing失败，继续以无导出模式运行: %v", err)
	}
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		_ = shutdownTracing(shutdownCtx)
	}()

	storageManager, err := storage.NewStorage(cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// 文本生成模型：未配置API Key时分析器自行降级
	var llmChatModel model.ToolCallingChatModel
	if cfg.Gemini.APIKey != "" {
		llmChatModel, err = llm.NewGeminiChatModel(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			glog.Fatalf("初始化Gemini模型失败: %v", err)
		}
		glog.Infof("Gemini模型初始化成功: %s", cfg.Gemini.Model)
	} else {
		glog.Warn("未配置GEMINI_API_KEY，结构化分析与AI差距比对不可用，将使用本地降级路径")
	}

	debugLogger := componentLogger(cfg, "[Pipeline] ")
	structuredAnalyzer := analyzer.NewStructuredAnalyzer(llmChatModel, componentLogger(cfg, "[Analyzer] "))

	transcriber := buildTranscriber(cfg)
	glog.Infof("转录引擎初始化成功: %s", cfg.OCR.Engine)

	docNormalizer := normalizer.New(
		normalizer.WithMaxPDFPages(cfg.Normalizer.MaxPDFPages),
		normalizer.WithRenderScale(cfg.Normalizer.RenderScale),
		normalizer.WithLogger(componentLogger(cfg, "[Normalizer] ")),
	)

	pipelineOptions := []pipeline.Option{pipeline.WithPipelineLogger(debugLogger)}
	textLayer, err := extractor.NewTextLayerExtractor(ctx,
		extractor.WithTextLayerLogger(componentLogger(cfg, "[TextLayer] ")))
	if err != nil {
		glog.Warnf("初始化PDF文本层提取器失败，所有PDF将走视觉转录: %v", err)
	} else {
		pipelineOptions = append(pipelineOptions, pipeline.WithTextLayerExtractor(textLayer))
	}

	orchestrator := pipeline.New(docNormalizer, transcriber, structuredAnalyzer, pipelineOptions...)
	glog.Info("流水线编排器初始化成功")

	resumeHandler := handler.NewResumeHandler(cfg, storageManager, orchestrator)
	analysisHandler := handler.NewAnalysisHandler(structuredAnalyzer)

	serverOptions := []server.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(32 << 20),
	}
	tracer, tracerCfg := hertztracing.NewServerTracer()
	serverOptions = append(serverOptions, tracer)

	h := server.New(serverOptions...)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))

	router.RegisterRoutes(h, resumeHandler, analysisHandler, cfg.Server.APIKey)
	glog.Info("HTTP路由注册成功")

	go func() {
		glog.Infof("HTTP服务器启动中，监听地址: %s", cfg.Server.Address)
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

// initLogger 初始化应用日志并把hertz的日志接到同一个zerolog实例
func initLogger(cfg *config.Config) {
	appCoreLogger.Init(cfg.Logger)

	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	if cfg.Logger.Level == "debug" {
		glog.SetLevel(glog.LevelDebug)
	} else {
		glog.SetLevel(glog.LevelInfo)
	}
}

// componentLogger debug级别下组件日志输出到stderr，否则丢弃
func componentLogger(cfg *config.Config, prefix string) *log.Logger {
	if cfg.Logger.Level == "debug" {
		return log.New(os.Stderr, prefix, log.LstdFlags)
	}
	return log.New(io.Discard, "", 0)
}

// buildTranscriber 按配置选择转录引擎。
// 默认走远端VLM，显式配置tesseract时使用本地OCR。
func buildTranscriber(cfg *config.Config) vlm.DocumentTranscriber {
	if cfg.OCR.Engine == "tesseract" {
		return vlm.NewTesseractTranscriber(cfg.OCR.Languages, componentLogger(cfg, "[Tesseract] "))
	}

	endpointURL := cfg.VLM.EndpointURL
	modelID := cfg.VLM.ModelID
	timeout := time.Duration(cfg.VLM.TimeoutSeconds) * time.Second
	host := vlm.NewHost(func(ctx context.Context) (vlm.Engine, error) {
		return vlm.NewHTTPEngine(endpointURL, modelID, timeout)
	})
	return vlm.NewTranscriber(host,
		vlm.WithTranscriberLogger(componentLogger(cfg, "[Transcriber] ")))
}
