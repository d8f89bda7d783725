package vlm

import (
	"context"
	"fmt"
	"sync"
)

// ModelLoadError 模型构建失败。
// 失败不会被缓存，下一次调用会重新尝试加载。
type ModelLoadError struct {
	Cause error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("加载视觉语言模型失败: %v", e.Cause)
}

func (e *ModelLoadError) Unwrap() error {
	return e.Cause
}

// EngineFactory 构建推理引擎。模型体积大（常驻加速器），
// 构建在进程生命周期内至多成功一次。
type EngineFactory func(ctx context.Context) (Engine, error)

// Host 持有视觉语言模型的生命周期：首次使用时加载，加载成功后被所有请求复用，
// 没有卸载路径。并发的首次调用由互斥锁保证只构建一次，
// 第二个调用者要么等待首次加载完成，要么观察到已填充的缓存。
type Host struct {
	mu      sync.Mutex
	factory EngineFactory
	engine  Engine
}

// NewHost 创建模型宿主，engine 延迟到 EnsureLoaded 或首次使用时构建
func NewHost(factory EngineFactory) *Host {
	return &Host{factory: factory}
}

// EnsureLoaded 幂等加载：首次调用构建引擎并缓存，之后的调用是空操作。
// 构建失败返回 ModelLoadError 且不缓存失败状态，后续调用会从头重试。
func (h *Host) EnsureLoaded(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.engine != nil {
		return nil
	}

	engine, err := h.factory(ctx)
	if err != nil {
		return &ModelLoadError{Cause: err}
	}
	h.engine = engine
	return nil
}

// Loaded 返回模型是否已加载
func (h *Host) Loaded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine != nil
}

// Engine 返回已加载的引擎，未加载时为 nil
func (h *Host) Engine() Engine {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine
}
