// Package config 管理终端客户端配置
// 配置保存在 ~/.storyforge/config.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// DefaultServerURL 默认服务器地址
const DefaultServerURL = "http://localhost:8080"

// Config 客户端配置结构
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Auth   AuthConfig   `mapstructure:"auth"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	URL string `mapstructure:"url"` // HTTP API 地址
}

// AuthConfig 登录信息
type AuthConfig struct {
	AccessToken string `mapstructure:"access_token"` // 工作区 Token，REST 和 WS 共用
	UserName    string `mapstructure:"user_name"`    // 显示名称
	UserKey     string `mapstructure:"user_key"`     // 邮箱或手机号
}

var (
	mu  sync.RWMutex
	v   *viper.Viper
	cfg *Config
)

// Init 在用户主目录下初始化配置
func Init() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("获取用户目录失败: %w", err)
	}
	return InitAt(filepath.Join(home, ".storyforge"))
}

// InitAt 在指定目录初始化配置，目录不存在时创建
// 环境变量 STORYFORGE_SERVER_URL 可以覆盖服务器地址
func InitAt(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	nv := viper.New()
	nv.SetConfigFile(filepath.Join(dir, "config.yaml"))
	nv.SetConfigType("yaml")
	nv.SetEnvPrefix("storyforge")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	nv.SetDefault("server.url", DefaultServerURL)
	nv.SetDefault("auth.access_token", "")
	nv.SetDefault("auth.user_name", "")
	nv.SetDefault("auth.user_key", "")

	if err := nv.ReadInConfig(); err != nil {
		// SetConfigFile 时文件缺失返回的是 fs 错误
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("读取配置失败: %w", err)
		}
		if err := nv.SafeWriteConfig(); err != nil {
			return fmt.Errorf("写入默认配置失败: %w", err)
		}
	}

	c := &Config{}
	if err := nv.Unmarshal(c); err != nil {
		return fmt.Errorf("解析配置失败: %w", err)
	}

	mu.Lock()
	v, cfg = nv, c
	mu.Unlock()
	return nil
}

// Get 获取配置副本
func Get() Config {
	mu.RLock()
	defer mu.RUnlock()
	if cfg == nil {
		return Config{Server: ServerConfig{URL: DefaultServerURL}}
	}
	return *cfg
}

// SaveAuth 保存登录信息
func SaveAuth(accessToken, userName, userKey string) error {
	mu.Lock()
	defer mu.Unlock()
	if v == nil {
		return errors.New("配置未初始化")
	}
	v.Set("auth.access_token", accessToken)
	v.Set("auth.user_name", userName)
	v.Set("auth.user_key", userKey)
	cfg.Auth = AuthConfig{AccessToken: accessToken, UserName: userName, UserKey: userKey}
	return v.WriteConfig()
}

// ClearToken 清除本地登录信息
func ClearToken() error {
	return SaveAuth("", "", "")
}

// GetAccessToken 获取访问 Token
func GetAccessToken() string {
	return Get().Auth.AccessToken
}

// GetUserName 获取已登录用户的名称
func GetUserName() string {
	return Get().Auth.UserName
}

// GetServerURL 获取服务器地址
func GetServerURL() string {
	return Get().Server.URL
}

// SetServerURL 设置服务器地址，只影响当前进程
func SetServerURL(url string) {
	mu.Lock()
	defer mu.Unlock()
	url = strings.TrimRight(url, "/")
	if v != nil {
		v.Set("server.url", url)
	}
	if cfg != nil {
		cfg.Server.URL = url
	}
}

// IsLoggedIn 检查是否已登录
func IsLoggedIn() bool {
	return GetAccessToken() != ""
}
