package cmd

import (
	"github.com/quadview-cli/quadview/mini"
	"github.com/quadview-cli/quadview/playback"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(miniCmd)

	miniCmd.Flags().BoolP("continue", "c", false, "Pick a recording from the watch history")
}

// miniCmd plays recordings through plain prompts instead of the full screen interface.
var miniCmd = &cobra.Command{
	Use:   "mini",
	Short: "Play recordings through plain prompts",
	Long:  `Browse recordings and control playback with a sequence of select prompts. Useful on small terminals and over ssh.`,
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		options := mini.Options{
			Library:  library(),
			Continue: lo.Must(cmd.Flags().GetBool("continue")),
			NewController: func(listener playback.Listener) mini.Controller {
				return newController(listener)
			},
		}
		handleErr(mini.Run(&options))
	},
}
