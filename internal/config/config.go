package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"resume-insight-go/internal/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// GeminiConfig 文本生成模型 (Google Gemini) 配置
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // 例如 gemini-2.0-flash
}

// VLMConfig 视觉语言转录引擎配置
type VLMConfig struct {
	// 推理运行时的HTTP地址，例如 http://127.0.0.1:30024
	EndpointURL string `yaml:"endpoint_url"`
	// 运行时加载的模型标识，例如 allenai/olmOCR-7B-0225-preview
	ModelID string `yaml:"model_id"`
	// 请求超时(秒)，视觉推理通常需要数十秒
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// OCRConfig 本地OCR(Tesseract)转录配置，作为VLM之外的备用转录通道
type OCRConfig struct {
	// 引擎选择: "vlm" (默认) 或 "tesseract"
	Engine    string   `yaml:"engine"`
	Languages []string `yaml:"languages"` // 例如 ["chi_tra", "eng"]
}

// NormalizerConfig 文档规范化配置
type NormalizerConfig struct {
	MaxPDFPages int     `yaml:"max_pdf_pages"` // 0 表示默认值 3
	RenderScale float64 `yaml:"render_scale"`  // 0 表示默认值 2.0
}

// MinIOConfig 对象存储配置（可选，用于归档原始文件与转录文本）
type MinIOConfig struct {
	Endpoint         string `yaml:"endpoint"`
	AccessKeyID      string `yaml:"access_key_id"`
	SecretAccessKey  string `yaml:"secret_access_key"`
	UseSSL           bool   `yaml:"use_ssl"`
	OriginalsBucket  string `yaml:"originals_bucket"`
	TranscriptBucket string `yaml:"transcript_bucket"`
}

// RedisConfig 报告历史存储配置（可选）
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Address string `yaml:"address"`
	// 可选的API Key，设置后启用 keyauth 中间件
	APIKey string `yaml:"api_key"`
	// 上传临时目录，外部层把上传内容落盘后把路径交给流水线
	UploadDir string `yaml:"upload_dir"`
}

// TracingConfig OpenTelemetry 导出配置（可选）
type TracingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"` // 例如 localhost:4317
	ServiceName  string `yaml:"service_name"`
}

// Config 应用程序配置
type Config struct {
	Gemini     GeminiConfig     `yaml:"gemini"`
	VLM        VLMConfig        `yaml:"vlm"`
	OCR        OCRConfig        `yaml:"ocr"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	MinIO      MinIOConfig      `yaml:"minio"`
	Redis      RedisConfig      `yaml:"redis"`
	Server     ServerConfig     `yaml:"server"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Logger     logger.Config    `yaml:"logger"`
}

// LoadConfig 加载配置文件，并用环境变量覆盖敏感项。
// 未指定路径时在常见位置查找；测试环境下找不到文件则返回默认配置。
func LoadConfig(configPath string) (*Config, error) {
	// .env 里的密钥在进程未显式设置环境变量时生效
	_ = godotenv.Load()

	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			"../../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".resume-insight", "config.yaml"),
		}
		if execPath, err := os.Executable(); err == nil {
			execDir := filepath.Dir(execPath)
			searchPaths = append(searchPaths,
				filepath.Join(execDir, "config.yaml"),
				filepath.Join(execDir, "..", "config.yaml"))
		}
		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}
		if configPath == "" {
			if inTestEnv() {
				return createDefaultConfig(), nil
			}
			configPath = "config.yaml"
		}
	}

	if _, err := os.Stat(configPath); err != nil {
		if inTestEnv() {
			return createDefaultConfig(), nil
		}
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyEnvOverrides(&config)
	applyDefaults(&config)

	return &config, nil
}

// applyEnvOverrides 环境变量优先于配置文件中的敏感项
func applyEnvOverrides(config *Config) {
	if envKey := os.Getenv("GEMINI_API_KEY"); envKey != "" {
		config.Gemini.APIKey = envKey
	}
	if envModel := os.Getenv("GEMINI_MODEL"); envModel != "" {
		config.Gemini.Model = envModel
	}
	if envURL := os.Getenv("VLM_ENDPOINT_URL"); envURL != "" {
		config.VLM.EndpointURL = envURL
	}
	if envKey := os.Getenv("SERVER_API_KEY"); envKey != "" {
		config.Server.APIKey = envKey
	}
}

func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}
	if config.Server.UploadDir == "" {
		config.Server.UploadDir = os.TempDir()
	}
	if config.Gemini.Model == "" {
		config.Gemini.Model = "gemini-2.0-flash"
	}
	if config.VLM.TimeoutSeconds <= 0 {
		config.VLM.TimeoutSeconds = 120
	}
	if config.OCR.Engine == "" {
		config.OCR.Engine = "vlm"
	}
	if config.Logger.Level == "" {
		config.Logger.Level = "info"
	}
}

// createDefaultConfig 生成测试可用的默认配置
func createDefaultConfig() *Config {
	config := &Config{}
	applyEnvOverrides(config)
	applyDefaults(config)
	return config
}

func inTestEnv() bool {
	for _, arg := range os.Args {
		if strings.Contains(arg, "test") {
			return true
		}
	}
	return false
}
