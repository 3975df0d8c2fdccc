package cmd

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/quadview-cli/quadview/filesystem"
	"github.com/quadview-cli/quadview/icon"
	"github.com/quadview-cli/quadview/util"
	"github.com/quadview-cli/quadview/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

// clearTarget defines a filesystem resource eligible for cleanup.
type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	location func() string
}

var clearTargets = []clearTarget{
	{"watch history", "history", mo.Some("s"), where.History},
	{"queries history", "queries", mo.Some("q"), where.Queries},
	{"cache directory", "cache", mo.Some("c"), where.Cache},
	{"temporary files", "temp", mo.Some("t"), where.Temp},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if target.argShort.IsPresent() {
			clearCmd.Flags().BoolP(target.argLong, target.argShort.MustGet(), false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}

	clearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}

func confirmClear(name string) bool {
	var confirmed bool
	err := survey.AskOne(&survey.Confirm{
		Message: fmt.Sprintf("Clear %s?", name),
		Default: false,
	}, &confirmed)
	return err == nil && confirmed
}

// clearCmd removes stored progress, suggestions and temporary files.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear stored history and temporary files",
	Run: func(cmd *cobra.Command, args []string) {
		var anySelected bool
		yes := lo.Must(cmd.Flags().GetBool("yes"))

		for _, target := range clearTargets {
			if !lo.Must(cmd.Flags().GetBool(target.argLong)) {
				continue
			}

			anySelected = true
			if !yes && !confirmClear(target.name) {
				continue
			}

			e := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), target.name))
			err := filesystem.API().RemoveAll(target.location())
			e()
			handleErr(err)
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
		}

		if !anySelected {
			handleErr(cmd.Help())
		}
	},
}
