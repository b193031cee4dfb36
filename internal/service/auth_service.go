package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"storyforge/internal/cache"
	"storyforge/internal/metrics"
	"storyforge/internal/model"
	"storyforge/internal/repository"
	"storyforge/pkg/jwt"
	"storyforge/pkg/util"
)

// 定义认证相关的错误
var (
	ErrMissingCredentials = errors.New("missing credentials") // 邮箱、密码或手机号为空
	ErrMissingName        = errors.New("name is required")    // 注册时名称为空
)

// VK 模拟登录返回的固定用户
const (
	vkEmail = "vk_user@example.com"
	vkName  = "Пользователь VK"
)

// AuthService 模拟认证服务
// 任何非空输入都能登录，延迟后返回由输入直接生成的用户
// 返回的 Token 只用来定位工作区
type AuthService struct {
	registry   *repository.WorkspaceRegistry
	jwtService *jwt.JWTService
	cache      cache.Cache
	notifier   Notifier
	delay      time.Duration
	oauthDelay time.Duration
	logger     *zap.Logger

	mu       sync.RWMutex
	onLogout []func(userKey string)
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	registry *repository.WorkspaceRegistry,
	jwtService *jwt.JWTService,
	cache cache.Cache,
	notifier Notifier,
	delay, oauthDelay time.Duration,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		registry:   registry,
		jwtService: jwtService,
		cache:      cache,
		notifier:   notifier,
		delay:      delay,
		oauthDelay: oauthDelay,
		logger:     logger.Named("auth"),
	}
}

// LoginRequest 邮箱登录请求
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// PhoneLoginRequest 手机号登录请求
type PhoneLoginRequest struct {
	Phone string `json:"phone"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"` // 秒
	User        *model.User `json:"user"`
}

// OnLogout 注册退出登录时的回调
func (s *AuthService) OnLogout(fn func(userKey string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Login 邮箱密码登录
// 用户名取邮箱 @ 之前的部分
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || strings.TrimSpace(req.Password) == "" {
		return nil, ErrMissingCredentials
	}
	if err := sleep(ctx, s.delay); err != nil {
		return nil, err
	}

	user := &model.User{Email: email, Name: util.LocalPart(email), Provider: model.ProviderEmail}
	return s.issue(user, "Вход выполнен!", "")
}

// Register 邮箱注册
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.Name)
	if email == "" || strings.TrimSpace(req.Password) == "" {
		return nil, ErrMissingCredentials
	}
	if name == "" {
		return nil, ErrMissingName
	}
	if err := sleep(ctx, s.delay); err != nil {
		return nil, err
	}

	user := &model.User{Email: email, Name: name, Provider: model.ProviderEmail}
	return s.issue(user, "Регистрация успешна!", "")
}

// LoginWithPhone 手机号登录
// 邮箱和名称都使用手机号
func (s *AuthService) LoginWithPhone(ctx context.Context, req *PhoneLoginRequest) (*LoginResponse, error) {
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return nil, ErrMissingCredentials
	}
	if err := sleep(ctx, s.delay); err != nil {
		return nil, err
	}

	user := &model.User{Email: phone, Name: phone, Provider: model.ProviderPhone}
	return s.issue(user, "Вход выполнен!", "Добро пожаловать!")
}

// LoginWithVK VK OAuth 模拟登录
func (s *AuthService) LoginWithVK(ctx context.Context) (*LoginResponse, error) {
	if err := sleep(ctx, s.oauthDelay); err != nil {
		return nil, err
	}

	user := &model.User{Email: vkEmail, Name: vkName, Provider: model.ProviderVK}
	return s.issue(user, "Вход через VK выполнен!", "")
}

// Logout 退出登录
// Token 加入黑名单，工作区被丢弃，等待中的回复随之失效
// 参数:
//   - ctx: 上下文
//   - token: 原始 Token
//   - expireAt: Token 过期时间
//   - userKey: 用户键
//
// 返回:
//   - error: 黑名单写入失败
func (s *AuthService) Logout(ctx context.Context, token string, expireAt time.Time, userKey string) error {
	if err := s.cache.BlacklistToken(ctx, jwt.HashToken(token), expireAt); err != nil {
		return err
	}

	s.registry.Drop(userKey)

	s.mu.RLock()
	hooks := append([]func(string){}, s.onLogout...)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn(userKey)
	}

	s.logger.Info("user logged out", zap.String("user", userKey))
	return nil
}

// Me 返回当前用户
func (s *AuthService) Me(userKey string) (*model.User, error) {
	ws, err := openWorkspace(s.registry, userKey)
	if err != nil {
		return nil, err
	}
	user := ws.User()
	return &user, nil
}

// issue 打开工作区并签发 Token
// 工作区已存在时沿用其中的用户，Token 与响应保持一致
// description 为空时使用 "Добро пожаловать, {name}"
func (s *AuthService) issue(user *model.User, title, description string) (*LoginResponse, error) {
	ws := s.registry.Open(*user)
	current := ws.User()

	token, _, err := s.jwtService.GenerateAccessToken(current.Email, current.Name, current.Provider)
	if err != nil {
		return nil, err
	}

	if description == "" {
		description = "Добро пожаловать, " + current.Name
	}

	metrics.Login(user.Provider)
	s.notifier.Success(current.Key(), title, description)
	s.logger.Info("user logged in",
		zap.String("user", current.Key()),
		zap.String("provider", user.Provider),
	)

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtService.GetAccessExpire().Seconds()),
		User:        &current,
	}, nil
}
