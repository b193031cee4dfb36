package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storyforge/internal/model"
	"storyforge/internal/service"
)

var characterCmd = &cobra.Command{
	Use:     "character",
	Aliases: []string{"characters", "char"},
	Short:   "管理角色",
}

var characterCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "创建角色",
	Long: `创建角色，默认同时生成肖像。

头像可选: ` + strings.Join(model.AvatarGlyphs, " "),
	RunE: runCharacterCreate,
}

var characterListCmd = &cobra.Command{
	Use:   "list",
	Short: "角色列表",
	RunE:  runCharacterList,
}

var characterDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "删除角色，已有故事保留",
	Args:  cobra.ExactArgs(1),
	RunE:  runCharacterDelete,
}

var characterSuggestCmd = &cobra.Command{
	Use:   "suggest <name>",
	Short: "为角色生成一段描述",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCharacterSuggest,
}

func init() {
	characterCreateCmd.Flags().StringP("name", "n", "", "角色名称")
	characterCreateCmd.Flags().StringP("description", "d", "", "角色描述")
	characterCreateCmd.Flags().StringP("avatar", "a", "", "头像")
	characterCreateCmd.Flags().Bool("no-portrait", false, "不生成肖像")
	characterCreateCmd.Flags().Bool("suggest", false, "描述为空时自动生成")

	characterCmd.AddCommand(characterCreateCmd, characterListCmd, characterDeleteCmd, characterSuggestCmd)
	rootCmd.AddCommand(characterCmd)
}

func runCharacterCreate(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	avatar, _ := cmd.Flags().GetString("avatar")
	noPortrait, _ := cmd.Flags().GetBool("no-portrait")
	suggest, _ := cmd.Flags().GetBool("suggest")

	if description == "" && suggest && name != "" {
		if description, err = client.SuggestDescription(ctx, name); err != nil {
			return err
		}
	}

	portrait := !noPortrait
	if portrait {
		fmt.Println("🎨 正在生成肖像...")
	}
	character, err := client.CreateCharacter(ctx, service.CreateCharacterRequest{
		Name:             name,
		Description:      description,
		Avatar:           avatar,
		GeneratePortrait: &portrait,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✅ %s %s (%s)\n", character.Avatar, character.Name, character.ID)
	if character.ImageURL != "" {
		fmt.Printf("   🖼  %s\n", character.ImageURL)
	}
	return nil
}

func runCharacterList(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	characters, err := client.Characters(cmd.Context())
	if err != nil {
		return err
	}
	if len(characters) == 0 {
		fmt.Println("还没有角色")
		return nil
	}
	for _, c := range characters {
		fmt.Printf("%s %-20s %s\n", c.Avatar, c.Name, c.ID)
		if c.Description != "" {
			fmt.Printf("   %s\n", c.Description)
		}
	}
	return nil
}

func runCharacterDelete(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	if err := client.DeleteCharacter(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Println("✓ 已删除")
	return nil
}

func runCharacterSuggest(cmd *cobra.Command, args []string) error {
	client, err := authedClient()
	if err != nil {
		return err
	}
	description, err := client.SuggestDescription(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(description)
	return nil
}
