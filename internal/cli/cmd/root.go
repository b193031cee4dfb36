// Package cmd 实现 storyforge 命令行
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storyforge/internal/cli/api"
	"storyforge/internal/cli/config"
	"storyforge/internal/logger"
)

// errNotLoggedIn 需要登录的命令在未登录时返回
var errNotLoggedIn = errors.New("未登录，请先运行 'storyforge login'")

var rootCmd = &cobra.Command{
	Use:   "storyforge",
	Short: "StoryForge - 终端里的互动故事",
	Long: `StoryForge 终端客户端

创建角色和世界，与游戏主持人一起书写故事。

已登录时直接运行即进入游戏界面。`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !config.IsLoggedIn() {
			fmt.Println("尚未登录，运行 'storyforge login' 开始")
			return cmd.Help()
		}
		return runPlay(cmd, args)
	},
}

// Execute 执行根命令，Ctrl+C 取消正在进行的请求
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// 全局参数
	rootCmd.PersistentFlags().StringP("server", "s", "", "服务器地址 (默认: http://localhost:8080)")
	rootCmd.PersistentFlags().Bool("debug", false, "输出调试日志到 stderr")
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "初始化配置失败: %v\n", err)
		os.Exit(1)
	}

	// 如果指定了服务器地址，更新配置
	if server, _ := rootCmd.PersistentFlags().GetString("server"); server != "" {
		config.SetServerURL(server)
	}
}

// newClient 使用保存的 Token 创建 API 客户端
func newClient() *api.Client {
	return api.NewClient(config.GetServerURL(), config.GetAccessToken())
}

// authedClient 未登录时返回错误
func authedClient() (*api.Client, error) {
	if !config.IsLoggedIn() {
		return nil, errNotLoggedIn
	}
	return newClient(), nil
}

// newLogger --debug 时输出到 stderr，否则不输出
func newLogger(cmd *cobra.Command) *zap.Logger {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		if l, err := logger.New(logger.Config{Level: "debug", Encoding: "console", OutputPath: "stderr"}); err == nil {
			return l
		}
	}
	return zap.NewNop()
}
