// Package cmd implements the command-line interface for kabegame.
package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/kabegame/kabegame/color"
	"github.com/kabegame/kabegame/constant"
	"github.com/kabegame/kabegame/crawler"
	"github.com/kabegame/kabegame/icon"
	"github.com/kabegame/kabegame/key"
	"github.com/kabegame/kabegame/log"
	"github.com/kabegame/kabegame/ocs"
	"github.com/kabegame/kabegame/style"
	"github.com/kabegame/kabegame/util"
	"github.com/kabegame/kabegame/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")
	rootCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	rootCmd.Flags().IntP("limit", "n", 0, "Process at most this many catalog items (0 = all)")
	rootCmd.Flags().Bool("no-extract", false, "Keep downloaded archives packed, skip extraction")

	rootCmd.Flags().StringP("output", "o", "", "Root output directory")
	lo.Must0(viper.BindPFlag(key.CrawlerOutputDir, rootCmd.Flags().Lookup("output")))

	rootCmd.Flags().IntP("category", "c", 0, "Numeric catalog category to crawl")
	lo.Must0(viper.BindPFlag(key.OCSCategory, rootCmd.Flags().Lookup("category")))

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, plain)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	// Initialize cleanup of localized temporary files on application startup.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd runs the crawl pipeline end to end.
var rootCmd = &cobra.Command{
	Use:   constant.Kabegame,
	Short: "Crawl Plasma wallpaper-plugin sources from the KDE Store",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Crawl Plasma wallpaper-plugin sources from the KDE Store OCS catalog"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		category := viper.GetInt(key.OCSCategory)
		outputDir := where.Downloads()

		if !lo.Must(cmd.Flags().GetBool("yes")) {
			var proceed bool
			prompt := &survey.Confirm{
				Message: fmt.Sprintf("Crawl category %d into %s?", category, outputDir),
				Default: true,
			}
			handleErr(survey.AskOne(prompt, &proceed))
			if !proceed {
				return
			}
		}

		opts := crawler.Options{
			Client:       ocs.New(viper.GetString(key.OCSBaseURL), viper.GetInt(key.OCSPageSize)),
			Category:     category,
			OutputDir:    outputDir,
			RequestDelay: time.Duration(viper.GetInt(key.CrawlerRequestDelay)) * time.Second,
			MaxRetries:   viper.GetInt(key.CrawlerMaxRetries),
			RetryDelay:   time.Duration(viper.GetInt(key.CrawlerRetryDelay)) * time.Second,
			Extract:      viper.GetBool(key.CrawlerExtract) && !lo.Must(cmd.Flags().GetBool("no-extract")),
			Limit:        lo.Must(cmd.Flags().GetInt("limit")),
		}

		log.Infof("starting crawl of category %d into %s", category, outputDir)
		_, err := crawler.New(opts).Run()
		handleErr(err)
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
