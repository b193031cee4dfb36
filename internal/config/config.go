// Package config 负责加载和管理服务端配置
// 使用 viper 库支持 YAML 配置文件和环境变量覆盖
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 是服务端的根配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Redis    RedisConfig    `mapstructure:"redis"`    // Redis 配置
	JWT      JWTConfig      `mapstructure:"jwt"`      // JWT 配置
	Log      LogConfig      `mapstructure:"log"`      // 日志配置
	ImageGen ImageGenConfig `mapstructure:"imagegen"` // 图片生成配置
	Game     GameConfig     `mapstructure:"game"`     // 游戏会话配置
	Auth     AuthConfig     `mapstructure:"auth"`     // 模拟登录配置
	Notify   NotifyConfig   `mapstructure:"notify"`   // 通知配置
}

// ServerConfig 服务器相关配置
type ServerConfig struct {
	Port int      `mapstructure:"port"` // 监听端口，默认 8080
	Mode string   `mapstructure:"mode"` // 运行模式: debug / release
	CORS []string `mapstructure:"cors"` // CORS 允许的域名
}

// RedisConfig Redis 连接配置
// 未启用时使用进程内缓存
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`   // 是否启用 Redis
	Host     string `mapstructure:"host"`      // Redis 主机地址
	Port     int    `mapstructure:"port"`      // Redis 端口
	Username string `mapstructure:"username"`  // Redis 用户名
	Password string `mapstructure:"password"`  // Redis 密码
	DB       int    `mapstructure:"db"`        // 数据库索引 (0-15)
	PoolSize int    `mapstructure:"pool_size"` // 连接池大小
}

// JWTConfig JWT 配置
type JWTConfig struct {
	Secret       string        `mapstructure:"secret"`        // 签名密钥
	AccessExpire time.Duration `mapstructure:"access_expire"` // Token 过期时间
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug/info/warn/error
	Format string `mapstructure:"format"` // 日志格式: json/console
}

// ImageGenConfig 外部图片生成服务配置
type ImageGenConfig struct {
	BaseURL        string        `mapstructure:"base_url"`        // 生成接口前缀，prompt 直接拼在后面
	Timeout        time.Duration `mapstructure:"timeout"`         // 单次请求超时
	PlaceholderURL string        `mapstructure:"placeholder_url"` // 肖像占位图前缀
}

// GameConfig 游戏会话配置
type GameConfig struct {
	ReplyDelay    time.Duration `mapstructure:"reply_delay"`    // 模拟回复延迟
	ReplyTemplate string        `mapstructure:"reply_template"` // 回复模板
	SceneImages   bool          `mapstructure:"scene_images"`   // 是否允许生成场景图
}

// AuthConfig 模拟登录配置
type AuthConfig struct {
	Delay      time.Duration `mapstructure:"delay"`       // 邮箱/手机登录延迟
	OAuthDelay time.Duration `mapstructure:"oauth_delay"` // VK 登录延迟
}

// NotifyConfig 通知配置
type NotifyConfig struct {
	Capacity int `mapstructure:"capacity"` // 每个用户保留的通知数量
}

// Load 从指定路径加载配置文件
// 支持环境变量覆盖配置项
// 参数:
//   - configPath: 配置文件目录路径 (如 "./configs")
//
// 返回:
//   - *Config: 配置对象
//   - error: 如果加载失败则返回错误
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	// 例如: GAME_REPLY_DELAY -> game.reply_delay
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVariables(v)
	setDefaults(v)

	// 配置文件不存在时继续使用默认值和环境变量
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// bindEnvVariables 绑定环境变量到配置项
func bindEnvVariables(v *viper.Viper) {
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("server.mode", "SERVER_MODE")

	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.username", "REDIS_USERNAME")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	v.BindEnv("jwt.secret", "JWT_SECRET")

	v.BindEnv("imagegen.base_url", "IMAGEGEN_BASE_URL")
}

// setDefaults 设置配置项的默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors", []string{"http://localhost:3000", "http://localhost:5173"})

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("jwt.secret", "storyforge-dev-secret-change-me-please")
	v.SetDefault("jwt.access_expire", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("imagegen.base_url", "https://image.pollinations.ai/prompt/")
	v.SetDefault("imagegen.timeout", "30s")
	v.SetDefault("imagegen.placeholder_url", "https://placehold.co/512x512/1a1a2e/e0e0ff")

	v.SetDefault("game.reply_delay", "1s")
	v.SetDefault("game.reply_template", "Интересный поворот! Ваш персонаж оказывается перед сложным выбором...")
	v.SetDefault("game.scene_images", false)

	v.SetDefault("auth.delay", "1s")
	v.SetDefault("auth.oauth_delay", "1500ms")

	v.SetDefault("notify.capacity", 20)
}
