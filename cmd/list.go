// Package cmd implements the command-line interface for kabegame.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/kabegame/kabegame/icon"
	"github.com/kabegame/kabegame/key"
	"github.com/kabegame/kabegame/ocs"
	"github.com/kabegame/kabegame/style"
	"github.com/kabegame/kabegame/util"
	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("raw", "r", false, "Suppress descriptions, print one name per line")
	listCmd.SetOut(os.Stdout)
}

// listCmd prints the catalog of the configured category without downloading anything.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the catalog entries of the configured category",
	Run: func(cmd *cobra.Command, args []string) {
		client := ocs.New(viper.GetString(key.OCSBaseURL), viper.GetInt(key.OCSPageSize))

		erase := util.PrintErasable(fmt.Sprintf("%s Fetching catalog...", icon.Get(icon.Progress)))
		items, err := client.ListContent(viper.GetInt(key.OCSCategory))
		erase()
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("raw")) {
			for _, item := range items {
				cmd.Println(item.Name)
			}
			return
		}

		width, _, err := util.TerminalSize()
		if err != nil {
			width = 80
		}
		// Floor the wrap width so very narrow terminals still get readable output.
		wrap := util.Max(util.Min(width-2, 100), 20)

		cmd.Println(style.Bold(util.Quantify(len(items), "plugin", "plugins")))
		for _, item := range items {
			cmd.Println()
			cmd.Printf("%s %s\n", style.Bold(item.Name), style.Faint(itemMeta(item)))
			if item.Description != "" {
				cmd.Println(style.Faint(wordwrap.String(item.Description, wrap)))
			}
		}
	},
}

func itemMeta(item ocs.Summary) string {
	parts := []string{"ID " + item.ID}
	if item.Version != "" {
		parts = append(parts, "v"+item.Version)
	}
	if item.AuthorID != "" {
		parts = append(parts, "by "+item.AuthorID)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
