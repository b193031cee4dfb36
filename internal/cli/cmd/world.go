package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"storyforge/internal/model"
	"storyforge/internal/service"
)

var worldCmd = &cobra.Command{
	Use:     "world",
	Aliases: []string{"worlds"},
	Short:   "管理世界",
}

var worldCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "创建世界，同时生成开场故事和风景图",
	RunE:  runWorldCreate,
}

var worldListCmd = &cobra.Command{
	Use:   "list",
	Short: "世界列表",
	RunE:  runWorldList,
}

var worldGenresCmd = &cobra.Command{
	Use:   "genres",
	Short: "可选的世界类型",
	RunE:  runWorldGenres,
}

func init() {
	worldCreateCmd.Flags().StringP("name", "n", "", "世界名称")
	worldCreateCmd.Flags().StringP("description", "d", "", "世界描述")
	worldCreateCmd.Flags().StringP("genre", "g", "", "世界类型，默认 fantasy")

	worldCmd.AddCommand(worldCreateCmd, worldListCmd, worldGenresCmd)
	rootCmd.AddCommand(worldCmd)
}

func runWorldCreate(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	genre, _ := cmd.Flags().GetString("genre")

	fmt.Println("🌍 正在创建世界...")
	world, err := client.CreateWorld(cmd.Context(), service.CreateWorldRequest{
		Name:        name,
		Description: description,
		Genre:       model.Genre(genre),
	})
	if err != nil {
		return err
	}

	printWorld(world)
	return nil
}

func runWorldList(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	worlds, err := client.Worlds(cmd.Context())
	if err != nil {
		return err
	}
	if len(worlds) == 0 {
		fmt.Println("还没有世界")
		return nil
	}
	for i := range worlds {
		printWorld(&worlds[i])
		fmt.Println()
	}
	return nil
}

func runWorldGenres(cmd *cobra.Command, args []string) error {
	genres, err := newClient().Genres(cmd.Context())
	if err != nil {
		return err
	}
	for _, g := range genres {
		fmt.Printf("%-10s %s\n", g.ID, g.Name)
	}
	return nil
}

func printWorld(w *model.World) {
	genre := string(w.Genre)
	if info, ok := model.LookupGenre(w.Genre); ok {
		genre = info.Name
	}
	fmt.Printf("🌍 %s [%s] (%s)\n", w.Name, genre, w.ID)
	fmt.Printf("   %s\n", w.Story)
	if w.ImageURL != "" {
		fmt.Printf("   🖼  %s\n", w.ImageURL)
	}
}
