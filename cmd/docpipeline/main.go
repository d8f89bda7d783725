package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"resume-insight-go/internal/analyzer"
	"resume-insight-go/internal/config"
	"resume-insight-go/internal/extractor"
	"resume-insight-go/internal/llm"
	appCoreLogger "resume-insight-go/internal/logger"
	"resume-insight-go/internal/normalizer"
	"resume-insight-go/internal/pipeline"
	"resume-insight-go/internal/vlm"

	"github.com/cloudwego/eino/components/model"
	"github.com/spf13/pflag"
)

// 单文档命令行入口：跑完整流水线并把结果JSON输出到stdout，
// 可选地附带一次与JD的技能差距比对。
func main() {
	var (
		configPath string
		filePath   string
		jdText     string
	)
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径")
	pflag.StringVarP(&filePath, "file", "f", "", "要处理的履历文件 (PDF或图片)")
	pflag.StringVar(&jdText, "jd", "", "可选：JD文本，提供后追加技能差距比对")
	pflag.Parse()

	if filePath == "" {
		pflag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	appCoreLogger.Init(cfg.Logger)

	ctx := context.Background()

	var llmChatModel model.ToolCallingChatModel
	if cfg.Gemini.APIKey != "" {
		llmChatModel, err = llm.NewGeminiChatModel(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			log.Fatalf("初始化Gemini模型失败: %v", err)
		}
	}
	structuredAnalyzer := analyzer.NewStructuredAnalyzer(llmChatModel, nil)

	docNormalizer := normalizer.New(
		normalizer.WithMaxPDFPages(cfg.Normalizer.MaxPDFPages),
		normalizer.WithRenderScale(cfg.Normalizer.RenderScale),
	)

	var transcriber vlm.DocumentTranscriber
	if cfg.OCR.Engine == "tesseract" {
		transcriber = vlm.NewTesseractTranscriber(cfg.OCR.Languages, nil)
	} else {
		endpointURL := cfg.VLM.EndpointURL
		modelID := cfg.VLM.ModelID
		timeout := time.Duration(cfg.VLM.TimeoutSeconds) * time.Second
		host := vlm.NewHost(func(ctx context.Context) (vlm.Engine, error) {
			return vlm.NewHTTPEngine(endpointURL, modelID, timeout)
		})
		transcriber = vlm.NewTranscriber(host)
	}

	pipelineOptions := []pipeline.Option{}
	if textLayer, err := extractor.NewTextLayerExtractor(ctx); err == nil {
		pipelineOptions = append(pipelineOptions, pipeline.WithTextLayerExtractor(textLayer))
	}

	orchestrator := pipeline.New(docNormalizer, transcriber, structuredAnalyzer, pipelineOptions...)

	result, err := orchestrator.Run(ctx, filePath)
	if err != nil {
		log.Fatalf("处理失败: %v", err)
	}

	output := map[string]interface{}{"result": result}
	if jdText != "" && !result.TranscriptFailed {
		gap := structuredAnalyzer.AnalyzeGap(ctx, result.Transcript, jdText)
		output["gap"] = gap
	}

	encoded, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		log.Fatalf("序列化结果失败: %v", err)
	}
	fmt.Println(string(encoded))
}
