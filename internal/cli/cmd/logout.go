package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyforge/internal/cli/config"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "登出并清除本地凭证",
	Long: `登出当前账号并清除本地保存的 Token。

服务器上的工作区随之关闭，登出后需要重新运行 'storyforge login'。`,
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	if !config.IsLoggedIn() {
		fmt.Println("当前未登录")
		return nil
	}

	// 服务器不可达时仍然清除本地凭证
	if err := newClient().Logout(cmd.Context()); err != nil {
		fmt.Printf("⚠️  服务器登出失败: %v\n", err)
	}

	if err := config.ClearToken(); err != nil {
		return fmt.Errorf("清除凭证失败: %w", err)
	}

	fmt.Println("✓ 已登出并清除本地凭证")
	return nil
}
