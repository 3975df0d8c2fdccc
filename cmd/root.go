// Package cmd implements the command-line interface for quadview.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/quadview-cli/quadview/color"
	"github.com/quadview-cli/quadview/constant"
	"github.com/quadview-cli/quadview/icon"
	"github.com/quadview-cli/quadview/key"
	"github.com/quadview-cli/quadview/log"
	"github.com/quadview-cli/quadview/playback"
	"github.com/quadview-cli/quadview/player"
	"github.com/quadview-cli/quadview/style"
	"github.com/quadview-cli/quadview/tui"
	"github.com/quadview-cli/quadview/util"
	"github.com/quadview-cli/quadview/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().BoolP("write-history", "H", true, "Remember the playback position of every recording")
	lo.Must0(viper.BindPFlag(key.HistorySaveProgress, rootCmd.PersistentFlags().Lookup("write-history")))

	rootCmd.PersistentFlags().StringP("library", "l", "", "Directory containing the recordings")
	lo.Must0(rootCmd.MarkPersistentFlagDirname("library"))
	lo.Must0(viper.BindPFlag(key.LibraryPath, rootCmd.PersistentFlags().Lookup("library")))

	rootCmd.PersistentFlags().StringP("car", "C", "", "Car model the recordings come from")
	lo.Must0(viper.BindPFlag(key.CarModel, rootCmd.PersistentFlags().Lookup("car")))

	rootCmd.Flags().BoolP("continue", "c", false, "Pick a recording from the watch history")
	rootCmd.Flags().StringP("group", "g", "", "Play the recording with this key right away")
	rootCmd.Flags().Bool("single", false, "Start in single view instead of the quad view")
	lo.Must0(viper.BindPFlag(key.PlaybackStartSingle, rootCmd.Flags().Lookup("single")))

	rootCmd.MarkFlagsMutuallyExclusive("continue", "group")

	go func() {
		_ = util.Delete(where.Temp())
		player.RemoveStaleSockets()
	}()
}

// rootCmd opens the full screen player.
var rootCmd = &cobra.Command{
	Use:   constant.Quadview,
	Short: "A synchronized multi-angle player for dash-cam recordings",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - A synchronized multi-angle player for dash-cam recordings"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		CheckDependencies()

		options := tui.Options{
			Library:  library(),
			Continue: lo.Must(cmd.Flags().GetBool("continue")),
			Group:    lo.Must(cmd.Flags().GetString("group")),
			NewController: func(listener playback.Listener) tui.Controller {
				return newController(listener)
			},
		}
		handleErr(tui.Run(&options))
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
