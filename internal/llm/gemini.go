package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiChatModel 把 Google Gemini 适配为 eino 的 model.ToolCallingChatModel，
// 供结构化分析器以统一的消息接口调用。
type GeminiChatModel struct {
	client     *genai.Client
	modelName  string
	boundTools []*schema.ToolInfo
}

// 编译期检查接口实现
var _ model.ToolCallingChatModel = (*GeminiChatModel)(nil)

// NewGeminiChatModel 创建Gemini聊天模型客户端
func NewGeminiChatModel(ctx context.Context, apiKey string, modelName string) (*GeminiChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("Gemini API密钥不能为空")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建Gemini客户端失败: %w", err)
	}

	if modelName = strings.TrimSpace(modelName); modelName == "" {
		modelName = defaultGeminiModel
	}

	return &GeminiChatModel{client: client, modelName: modelName}, nil
}

// Generate 实现 model.BaseChatModel 接口：把eino消息转为Gemini请求并取回首个文本响应
func (g *GeminiChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("Gemini客户端未初始化")
	}

	var contents []*genai.Content
	config := &genai.GenerateContentConfig{}

	for _, msg := range messages {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.System:
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: msg.Content}},
			}
		case schema.Assistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	if len(contents) == 0 {
		return nil, fmt.Errorf("没有可发送的消息内容")
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Gemini调用失败: %w", err)
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Text == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(part.Text)
		}
	}

	output := strings.TrimSpace(sb.String())
	if output == "" {
		return nil, fmt.Errorf("Gemini返回了空响应")
	}

	return &schema.Message{
		Role:    schema.Assistant,
		Content: output,
	}, nil
}

// Stream 实现 model.BaseChatModel 接口。分析场景只需要一次性响应，未提供流式实现
func (g *GeminiChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("GeminiChatModel 未实现流式生成")
}

// WithTools 实现 model.ToolCallingChatModel 接口。
// 当前的分析prompt不依赖工具调用，这里只记录绑定，不转发给Gemini
func (g *GeminiChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	clone := *g
	clone.boundTools = tools
	return &clone, nil
}
