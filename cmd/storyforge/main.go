// Package main 是终端客户端的入口点
package main

import (
	"github.com/joho/godotenv"

	"storyforge/internal/cli/cmd"
)

func main() {
	// .env 可选，用于 STORYFORGE_SERVER_URL 等覆盖
	_ = godotenv.Load()

	cmd.Execute()
}
