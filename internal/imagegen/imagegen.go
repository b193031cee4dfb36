// Package imagegen 调用外部图片生成接口
// 接口按 prompt 直接返回图片，生成结果就是最终请求的地址
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"storyforge/internal/config"
)

// ErrEmptyPrompt prompt 为空
var ErrEmptyPrompt = errors.New("empty image prompt")

// Kind 图片用途，决定尺寸
type Kind string

const (
	KindPortrait  Kind = "portrait"  // 角色肖像
	KindLandscape Kind = "landscape" // 世界风景
	KindScene     Kind = "scene"     // 游戏场景
)

// Size 图片尺寸
type Size struct {
	Width  int
	Height int
}

var sizes = map[Kind]Size{
	KindPortrait:  {Width: 512, Height: 512},
	KindLandscape: {Width: 1024, Height: 576},
	KindScene:     {Width: 768, Height: 512},
}

// SizeOf 返回用途对应的尺寸，未知用途按肖像处理
func SizeOf(kind Kind) Size {
	if s, ok := sizes[kind]; ok {
		return s
	}
	return sizes[KindPortrait]
}

// Request 图片生成请求
type Request struct {
	Kind   Kind
	Prompt string
}

// Generator 图片生成能力
// 成功返回图片地址，失败返回错误，调用方自行决定降级方式
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Client 基于 HTTP 的图片生成客户端
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient 创建图片生成客户端
// 参数:
//   - cfg: 图片生成配置
//   - logger: 日志实例
//
// 返回:
//   - *Client: 客户端实例
func NewClient(cfg config.ImageGenConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.Named("imagegen"),
	}
}

// URL 构造生成地址
// 格式: {base}{prompt}?height=H&nologo=true&width=W
func (c *Client) URL(req Request) string {
	size := SizeOf(req.Kind)
	q := url.Values{}
	q.Set("width", strconv.Itoa(size.Width))
	q.Set("height", strconv.Itoa(size.Height))
	q.Set("nologo", "true")
	return c.baseURL + url.PathEscape(req.Prompt) + "?" + q.Encode()
}

// Generate 请求生成图片
// 参数:
//   - ctx: 上下文
//   - req: 生成请求
//
// 返回:
//   - string: 图片地址（跟随重定向后的最终地址）
//   - error: 网络错误或非 2xx 状态
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", ErrEmptyPrompt
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(req), nil)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call image service: %w", err)
	}
	// 只需要地址，不读取图片内容
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("image service returned status %d", resp.StatusCode)
	}

	final := resp.Request.URL.String()
	c.logger.Debug("image generated",
		zap.String("kind", string(req.Kind)),
		zap.Duration("latency", time.Since(start)),
	)
	return final, nil
}
