// Package api 封装与 StoryForge 服务器的 HTTP API 交互
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyforge/internal/model"
	"storyforge/internal/notify"
	"storyforge/internal/service"
)

// Client API 客户端
// baseURL: 例如 http://localhost:8080
// token: 登录后获得的工作区 Token，为空时只能访问公开接口
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient 创建 API 客户端
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// 创建角色和世界时服务器要等图片生成
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// WithToken 返回使用新 Token 的客户端
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// --- 通用响应 ---

// APIResponse 服务器统一响应
type APIResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// APIError 业务错误
type APIError struct {
	Status  int    // HTTP 状态码
	Code    int    // 业务码
	Message string // 服务器返回的提示
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API 错误 (%d): %s", e.Code, e.Message)
}

// IsCode 判断错误是否为指定业务码
func IsCode(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// --- 认证 ---

// Login 邮箱密码登录
func (c *Client) Login(ctx context.Context, email, password string) (*service.LoginResponse, error) {
	return c.login(ctx, "/api/v1/auth/login", service.LoginRequest{Email: email, Password: password})
}

// Register 注册
func (c *Client) Register(ctx context.Context, email, password, name string) (*service.LoginResponse, error) {
	return c.login(ctx, "/api/v1/auth/register", service.RegisterRequest{Email: email, Password: password, Name: name})
}

// LoginWithPhone 手机号登录
func (c *Client) LoginWithPhone(ctx context.Context, phone string) (*service.LoginResponse, error) {
	return c.login(ctx, "/api/v1/auth/phone", service.PhoneLoginRequest{Phone: phone})
}

// LoginWithVK VK 登录
func (c *Client) LoginWithVK(ctx context.Context) (*service.LoginResponse, error) {
	return c.login(ctx, "/api/v1/auth/vk", struct{}{})
}

func (c *Client) login(ctx context.Context, path string, body interface{}) (*service.LoginResponse, error) {
	var result service.LoginResponse
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout 登出，Token 在服务器端失效
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
}

// Me 当前用户
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// --- 角色 ---

// CreateCharacter 创建角色
func (c *Client) CreateCharacter(ctx context.Context, req service.CreateCharacterRequest) (*model.Character, error) {
	var character model.Character
	if err := c.do(ctx, http.MethodPost, "/api/v1/characters", req, &character); err != nil {
		return nil, err
	}
	return &character, nil
}

// Characters 角色列表
func (c *Client) Characters(ctx context.Context) ([]model.Character, error) {
	var result struct {
		Characters []model.Character `json:"characters"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/characters", nil, &result); err != nil {
		return nil, err
	}
	return result.Characters, nil
}

// DeleteCharacter 删除角色
func (c *Client) DeleteCharacter(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/characters/"+id, nil, nil)
}

// SuggestDescription 生成角色描述
func (c *Client) SuggestDescription(ctx context.Context, name string) (string, error) {
	var result struct {
		Description string `json:"description"`
	}
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, "/api/v1/characters/suggest", body, &result); err != nil {
		return "", err
	}
	return result.Description, nil
}

// --- 世界 ---

// Genres 世界类型
func (c *Client) Genres(ctx context.Context) ([]model.GenreInfo, error) {
	var genres []model.GenreInfo
	if err := c.do(ctx, http.MethodGet, "/api/v1/genres", nil, &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

// CreateWorld 创建世界
func (c *Client) CreateWorld(ctx context.Context, req service.CreateWorldRequest) (*model.World, error) {
	var world model.World
	if err := c.do(ctx, http.MethodPost, "/api/v1/worlds", req, &world); err != nil {
		return nil, err
	}
	return &world, nil
}

// Worlds 世界列表
func (c *Client) Worlds(ctx context.Context) ([]model.World, error) {
	var result struct {
		Worlds []model.World `json:"worlds"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/worlds", nil, &result); err != nil {
		return nil, err
	}
	return result.Worlds, nil
}

// --- 游戏会话 ---

// StartSession 用角色开始新游戏
func (c *Client) StartSession(ctx context.Context, characterID string) (*service.SessionView, error) {
	var view service.SessionView
	body := map[string]string{"character_id": characterID}
	if err := c.do(ctx, http.MethodPost, "/api/v1/session", body, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// CurrentSession 当前游戏
func (c *Client) CurrentSession(ctx context.Context) (*service.SessionView, error) {
	var view service.SessionView
	if err := c.do(ctx, http.MethodGet, "/api/v1/session", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// ResumeSession 继续已有故事
func (c *Client) ResumeSession(ctx context.Context, storyID string) (*service.SessionView, error) {
	var view service.SessionView
	if err := c.do(ctx, http.MethodPut, "/api/v1/session/"+storyID, nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// LeaveSession 离开游戏
func (c *Client) LeaveSession(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/session", nil, nil)
}

// SendMessage 发送消息，回复通过 WebSocket 推送
func (c *Client) SendMessage(ctx context.Context, content string) (*service.SendResult, error) {
	var result service.SendResult
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, "/api/v1/session/messages", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CancelPending 取消等待中的回复
func (c *Client) CancelPending(ctx context.Context) (int, error) {
	var result struct {
		Cancelled int `json:"cancelled"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/v1/session/pending", nil, &result); err != nil {
		return 0, err
	}
	return result.Cancelled, nil
}

// QuickPrompts 开场建议
func (c *Client) QuickPrompts(ctx context.Context) ([]string, error) {
	var prompts []string
	if err := c.do(ctx, http.MethodGet, "/api/v1/session/prompts", nil, &prompts); err != nil {
		return nil, err
	}
	return prompts, nil
}

// --- 故事库与设置 ---

// Library 故事库、统计和成就
func (c *Client) Library(ctx context.Context) (*service.Library, error) {
	var library service.Library
	if err := c.do(ctx, http.MethodGet, "/api/v1/library", nil, &library); err != nil {
		return nil, err
	}
	return &library, nil
}

// Settings 当前设置
func (c *Client) Settings(ctx context.Context) (*model.Settings, error) {
	var settings model.Settings
	if err := c.do(ctx, http.MethodGet, "/api/v1/settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings 部分更新设置
func (c *Client) UpdateSettings(ctx context.Context, req service.UpdateSettingsRequest) (*model.Settings, error) {
	var settings model.Settings
	if err := c.do(ctx, http.MethodPut, "/api/v1/settings", req, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Notifications 通知列表和未读数量
func (c *Client) Notifications(ctx context.Context) ([]notify.Notification, int, error) {
	var result struct {
		Notifications []notify.Notification `json:"notifications"`
		Unread        int                   `json:"unread"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/notifications", nil, &result); err != nil {
		return nil, 0, err
	}
	return result.Notifications, result.Unread, nil
}

// MarkNotificationsRead 清零未读数量
func (c *Client) MarkNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/notifications/read", nil, nil)
}

// --- 通用请求封装 ---

// do 发送请求并把 data 解析到 out，out 为 nil 时忽略 data
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("解析响应失败 (HTTP %d): %w", resp.StatusCode, err)
	}

	if apiResp.Code != 0 {
		return &APIError{Status: resp.StatusCode, Code: apiResp.Code, Message: apiResp.Message}
	}

	if out == nil || len(apiResp.Data) == 0 || string(apiResp.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(apiResp.Data, out); err != nil {
		return fmt.Errorf("解析数据失败: %w", err)
	}
	return nil
}
