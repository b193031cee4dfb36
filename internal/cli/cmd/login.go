package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"storyforge/internal/cli/config"
	"storyforge/internal/service"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "登录",
	Long: `登录 StoryForge。

默认使用邮箱和密码，也可以用手机号或 VK 账号：
  storyforge login --email zara@example.com
  storyforge login --phone +79990000000
  storyforge login --vk
  storyforge login --register --name Zara`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().String("email", "", "邮箱")
	loginCmd.Flags().String("phone", "", "手机号")
	loginCmd.Flags().Bool("vk", false, "使用 VK 账号登录")
	loginCmd.Flags().Bool("register", false, "注册新账号")
	loginCmd.Flags().String("name", "", "注册时的显示名称")
	loginCmd.MarkFlagsMutuallyExclusive("phone", "vk", "register")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := newClient().WithToken("")
	reader := bufio.NewReader(os.Stdin)

	phone, _ := cmd.Flags().GetString("phone")
	vk, _ := cmd.Flags().GetBool("vk")
	register, _ := cmd.Flags().GetBool("register")

	var (
		result *service.LoginResponse
		err    error
	)
	switch {
	case vk:
		fmt.Println("🔐 正在通过 VK 登录...")
		result, err = client.LoginWithVK(ctx)
	case phone != "":
		fmt.Println("🔐 正在登录...")
		result, err = client.LoginWithPhone(ctx, phone)
	default:
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			email = prompt(reader, "请输入邮箱: ")
		}
		password, perr := readPassword(reader)
		if perr != nil {
			return perr
		}
		if register {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				name = prompt(reader, "请输入名称: ")
			}
			fmt.Println("📝 正在注册...")
			result, err = client.Register(ctx, email, password, name)
		} else {
			fmt.Println("🔐 正在登录...")
			result, err = client.Login(ctx, email, password)
		}
	}
	if err != nil {
		return fmt.Errorf("登录失败: %w", err)
	}

	if err := config.SaveAuth(result.AccessToken, result.User.Name, result.User.Key()); err != nil {
		return fmt.Errorf("保存登录信息失败: %w", err)
	}

	fmt.Println()
	fmt.Println("✅ 登录成功！")
	fmt.Println("─────────────────────────────────")
	fmt.Printf("  👤 %s\n", result.User.Name)
	fmt.Printf("  📡 %s\n", config.GetServerURL())
	fmt.Println()
	fmt.Println("运行 'storyforge' 进入游戏")
	return nil
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// readPassword 终端下隐藏输入，管道输入时按行读取
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(reader, "请输入密码: "), nil
	}

	fmt.Print("请输入密码: ")
	passwordBytes, err := term.ReadPassword(fd)
	fmt.Println() // 换行
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}
	return strings.TrimSpace(string(passwordBytes)), nil
}
