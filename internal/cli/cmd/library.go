package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storyforge/internal/cli/play"
	"storyforge/internal/service"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "故事库、统计和成就",
	RunE:  runLibrary,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "查看设置",
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key=value>...",
	Short: "修改设置",
	Long: `修改一项或多项设置，任一项无效时都不会保存。

例如:
  storyforge settings set model=claude-opus creativity=0.9 sounds=true`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSettingsSet,
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "查看通知",
	RunE:  runNotifications,
}

func init() {
	notificationsCmd.Flags().Bool("read", false, "标记全部已读")

	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(libraryCmd, settingsCmd, notificationsCmd)
}

func runLibrary(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	lib, err := client.Library(cmd.Context())
	if err != nil {
		return err
	}
	play.WriteLibrary(os.Stdout, lib)
	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	s, err := client.Settings(cmd.Context())
	if err != nil {
		return err
	}
	play.WriteSettings(os.Stdout, s)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	req, err := parseSettingUpdates(args)
	if err != nil {
		return err
	}
	client, err := authedClient()
	if err != nil {
		return err
	}
	s, err := client.UpdateSettings(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Println("✓ 设置已保存")
	play.WriteSettings(os.Stdout, s)
	return nil
}

// parseSettingUpdates 把 key=value 参数转换为部分更新请求
// 取值范围由服务器校验
func parseSettingUpdates(args []string) (service.UpdateSettingsRequest, error) {
	var req service.UpdateSettingsRequest
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return req, fmt.Errorf("参数格式应为 key=value: %q", arg)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "model":
			req.Model = &value
		case "response_length":
			req.ResponseLength = &value
		case "image_provider":
			req.ImageProvider = &value
		case "creativity":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return req, fmt.Errorf("creativity 应为 0 到 1 之间的数字: %w", err)
			}
			req.Creativity = &f
		case "auto_images", "notifications", "sounds", "animations":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return req, fmt.Errorf("%s 应为 true 或 false: %w", key, err)
			}
			switch key {
			case "auto_images":
				req.AutoImages = &b
			case "notifications":
				req.Notifications = &b
			case "sounds":
				req.Sounds = &b
			case "animations":
				req.Animations = &b
			}
		default:
			return req, fmt.Errorf("未知设置: %s", key)
		}
	}
	return req, nil
}

func runNotifications(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	items, unread, err := client.Notifications(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("没有通知")
	}
	for _, n := range items {
		fmt.Printf("[%s] %s  %s  %s\n", n.Severity, n.CreatedAt.Format("15:04:05"), n.Title, n.Description)
	}

	if read, _ := cmd.Flags().GetBool("read"); read && unread > 0 {
		if err := client.MarkNotificationsRead(ctx); err != nil {
			return err
		}
		fmt.Printf("✓ %d 条通知已标记为已读\n", unread)
	}
	return nil
}
