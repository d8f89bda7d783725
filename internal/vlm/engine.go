package vlm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"
)

// Engine 视觉语言推理能力的抽象。
// 参考实现是进程外的本地推理运行时，但调用方只依赖这四个能力，
// 便于在测试中用假引擎替换。
type Engine interface {
	// RenderChat 把固定指令与图片经chat模板渲染为模型输入token序列
	RenderChat(ctx context.Context, instruction string, img image.Image) ([]int64, error)

	// Generate 执行生成并返回完整token序列。
	// 底层模型会把输入上下文原样回显在输出流的前缀里，调用方负责裁剪。
	Generate(ctx context.Context, inputTokens []int64, maxNewTokens int) ([]int64, error)

	// Decode 把token序列解码为文本，skipSpecial 为真时跳过特殊/控制token
	Decode(ctx context.Context, tokens []int64, skipSpecial bool) (string, error)

	// ReleaseMemory 请求运行时回收加速器显存池
	ReleaseMemory(ctx context.Context) error
}

// HTTPEngine 通过HTTP访问本地视觉推理运行时的 Engine 实现
type HTTPEngine struct {
	endpointURL string
	modelID     string
	httpClient  *http.Client
}

// NewHTTPEngine 创建推理运行时客户端
func NewHTTPEngine(endpointURL string, modelID string, timeout time.Duration) (*HTTPEngine, error) {
	if strings.TrimSpace(endpointURL) == "" {
		return nil, fmt.Errorf("推理运行时地址不能为空")
	}
	if strings.TrimSpace(modelID) == "" {
		return nil, fmt.Errorf("模型标识不能为空")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &HTTPEngine{
		endpointURL: strings.TrimRight(endpointURL, "/"),
		modelID:     modelID,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

type renderChatRequest struct {
	Model       string `json:"model"`
	Instruction string `json:"instruction"`
	ImagePNG    string `json:"image_png"` // base64
}

type generateRequest struct {
	Model        string  `json:"model"`
	InputTokens  []int64 `json:"input_tokens"`
	MaxNewTokens int     `json:"max_new_tokens"`
}

type decodeRequest struct {
	Model             string  `json:"model"`
	Tokens            []int64 `json:"tokens"`
	SkipSpecialTokens bool    `json:"skip_special_tokens"`
}

type tokensResponse struct {
	Tokens []int64 `json:"tokens"`
	Error  string  `json:"error,omitempty"`
}

type textResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// RenderChat 实现 Engine 接口
func (e *HTTPEngine) RenderChat(ctx context.Context, instruction string, img image.Image) ([]int64, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("编码图片失败: %w", err)
	}

	reqBody := renderChatRequest{
		Model:       e.modelID,
		Instruction: instruction,
		ImagePNG:    base64.StdEncoding.EncodeToString(buf.Bytes()),
	}

	var resp tokensResponse
	if err := e.post(ctx, "/v1/render_chat", reqBody, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("渲染chat模板失败: %s", resp.Error)
	}
	return resp.Tokens, nil
}

// Generate 实现 Engine 接口
func (e *HTTPEngine) Generate(ctx context.Context, inputTokens []int64, maxNewTokens int) ([]int64, error) {
	reqBody := generateRequest{
		Model:        e.modelID,
		InputTokens:  inputTokens,
		MaxNewTokens: maxNewTokens,
	}

	var resp tokensResponse
	if err := e.post(ctx, "/v1/generate", reqBody, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("生成失败: %s", resp.Error)
	}
	return resp.Tokens, nil
}

// Decode 实现 Engine 接口
func (e *HTTPEngine) Decode(ctx context.Context, tokens []int64, skipSpecial bool) (string, error) {
	reqBody := decodeRequest{
		Model:             e.modelID,
		Tokens:            tokens,
		SkipSpecialTokens: skipSpecial,
	}

	var resp textResponse
	if err := e.post(ctx, "/v1/detokenize", reqBody, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("解码失败: %s", resp.Error)
	}
	return resp.Text, nil
}

// ReleaseMemory 实现 Engine 接口
func (e *HTTPEngine) ReleaseMemory(ctx context.Context) error {
	var resp textResponse
	return e.post(ctx, "/v1/release_memory", struct{}{}, &resp)
}

// post 发送JSON请求并解码JSON响应
func (e *HTTPEngine) post(ctx context.Context, path string, reqBody interface{}, out interface{}) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("序列化请求失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpointURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("构建HTTP请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("调用推理运行时失败 (%s): %w", path, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("推理运行时返回状态 %d: %s", httpResp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}
