package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-insight-go/internal/config"
	"resume-insight-go/internal/constants"
	"resume-insight-go/internal/types"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// Redis 报告历史存储，按 reportID 保存流水线结果
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建Redis客户端并挂载OpenTelemetry钩子
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: poolSize,
	})

	// 记录所有Redis操作到trace
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("挂载Redis OpenTelemetry钩子失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("连接Redis %s 失败: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close 关闭Redis连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查Redis连接
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	return r.Client.Ping(ctx).Err()
}

// reportKey 报告历史键，形如 report:<reportID>
func reportKey(reportID string) string {
	return constants.ReportKeyPrefix + reportID
}

// SaveResult 保存流水线结果并设置过期时间
func (r *Redis) SaveResult(ctx context.Context, result *types.PipelineResult) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	if result == nil || result.ReportID == "" {
		return fmt.Errorf("结果或reportID不能为空")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("序列化流水线结果失败: %w", err)
	}

	if err := r.Client.Set(ctx, reportKey(result.ReportID), data, constants.ReportHistoryTTL).Err(); err != nil {
		return fmt.Errorf("保存报告 %s 失败: %w", result.ReportID, err)
	}
	return nil
}

// GetResult 按reportID取回流水线结果，不存在时返回 ErrNotFound
func (r *Redis) GetResult(ctx context.Context, reportID string) (*types.PipelineResult, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("redis客户端未初始化")
	}

	data, err := r.Client.Get(ctx, reportKey(reportID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: 报告 %s", ErrNotFound, reportID)
		}
		return nil, fmt.Errorf("读取报告 %s 失败: %w", reportID, err)
	}

	var result types.PipelineResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("反序列化报告 %s 失败: %w", reportID, err)
	}
	return &result, nil
}
