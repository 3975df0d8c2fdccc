package cmd

import (
	"fmt"
	"os"

	"github.com/quadview-cli/quadview/color"
	"github.com/quadview-cli/quadview/config"
	"github.com/quadview-cli/quadview/style"
	"github.com/quadview-cli/quadview/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.Flags().BoolP("set-only", "s", false, "Display only environment variables that are currently defined")
	envCmd.Flags().BoolP("unset-only", "u", false, "Display only environment variables that are currently undefined")

	envCmd.MarkFlagsMutuallyExclusive("set-only", "unset-only")
}

// envCmd displays the environment variables overriding the configuration.
var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Display the supported environment variables",
	Long:  `Display every environment variable that overrides a config key, with its current value.`,
	Run: func(cmd *cobra.Command, args []string) {
		setOnly := lo.Must(cmd.Flags().GetBool("set-only"))
		unsetOnly := lo.Must(cmd.Flags().GetBool("unset-only"))

		defaults := make(map[string]any, len(config.EnvExposed)+1)
		defaults[where.EnvConfigPath] = nil
		for _, k := range config.EnvExposed {
			field := config.Default[k]
			defaults[field.Env()] = field.Value
		}

		envs := lo.Keys(defaults)
		slices.Sort(envs)

		for _, env := range envs {
			value, present := os.LookupEnv(env)
			present = present && value != ""

			if (setOnly && !present) || (unsetOnly && present) {
				continue
			}

			cmd.Print(style.New().Bold(true).Foreground(color.Purple).Render(env))
			cmd.Print("=")

			switch {
			case present:
				cmd.Println(style.Fg(color.Green)(value))
			case defaults[env] != nil:
				cmd.Println(style.Fg(color.Red)("unset") + " " + style.Faint(fmt.Sprintf("(default %v)", defaults[env])))
			default:
				cmd.Println(style.Fg(color.Red)("unset"))
			}
		}
	},
}
