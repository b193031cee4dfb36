package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyforge/internal/cli/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "显示当前状态",
	Long: `显示当前登录状态和配置信息。

包括：
- 服务器地址
- 登录状态
- 未读通知数（如果已登录）`,
	Run: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	fmt.Println("╔════════════════════════════════════════════════╗")
	fmt.Println("║              StoryForge 状态信息               ║")
	fmt.Println("╠════════════════════════════════════════════════╣")

	fmt.Printf("║  服务器: %s\n", config.GetServerURL())

	if !config.IsLoggedIn() {
		fmt.Println("║  登录状态: ✗ 未登录")
		fmt.Println("║")
		fmt.Println("║  请运行 'storyforge login' 完成登录")
		fmt.Println("╚════════════════════════════════════════════════╝")
		return
	}

	fmt.Printf("║  登录状态: ✓ 已登录 (%s)\n", config.GetUserName())

	client := newClient()
	if _, unread, err := client.Notifications(cmd.Context()); err != nil {
		fmt.Printf("║  服务器: ✗ %v\n", err)
	} else {
		fmt.Printf("║  未读通知: %d\n", unread)
	}

	fmt.Println("╚════════════════════════════════════════════════╝")
}
