package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storyforge/internal/cli/config"
	"storyforge/internal/cli/play"
	"storyforge/internal/cli/websocket"
	"storyforge/internal/shell"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "进入游戏界面",
	Long: `进入交互式游戏界面。

主持人的回复、通知通过 WebSocket 实时推送。输入 /help 查看命令，/quit 退出。`,
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	log := newLogger(cmd)
	defer log.Sync()

	state := shell.New()
	state.SignIn(config.GetUserName())
	repl := play.New(client, state, os.Stdout)

	wsClient := websocket.NewClient(config.GetServerURL(), config.GetAccessToken(), log)
	wsClient.OnMessage(func(msg *websocket.Message) {
		repl.HandleEvent(msg.Type, msg.Payload)
	})
	wsClient.OnClose(func() {
		log.Debug("realtime channel closed")
	})

	// 没有实时通道时仍可游戏，只是看不到主持人的回复推送
	if err := wsClient.Connect(); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  实时通道不可用: %v\n", err)
	}
	defer wsClient.Disconnect()

	done := make(chan error, 1)
	go func() {
		done <- repl.Run(ctx, os.Stdin)
	}()

	select {
	case err := <-done:
		fmt.Println("再见！")
		return err
	case <-ctx.Done():
		fmt.Println()
		fmt.Println("再见！")
		return nil
	}
}
