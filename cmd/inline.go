package cmd

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/quadview-cli/quadview/filesystem"
	"github.com/quadview-cli/quadview/inline"
	"github.com/quadview-cli/quadview/query"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(inlineCmd)

	inlineCmd.Flags().StringP("query", "q", "", "Fuzzy query matched against the recording keys")
	inlineCmd.Flags().StringP("groups", "g", "", "Criteria for selecting recordings from the results")
	inlineCmd.Flags().BoolP("json", "j", false, "Format the command output as a JSON object")
	inlineCmd.Flags().BoolP("resume", "r", false, "Include the saved playback progress of every recording")
	inlineCmd.Flags().StringP("output", "o", "", "Specify a file path to write the command output")

	lo.Must0(inlineCmd.RegisterFlagCompletionFunc("query", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return query.SuggestMany(toComplete), cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(inlineCmd.RegisterFlagCompletionFunc("groups", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"first", "last", "all"}, cobra.ShellCompDirectiveNoFileComp
	}))
}

// inlineCmd lists the recordings of the library without any interface.
var inlineCmd = &cobra.Command{
	Use:     "inline",
	Aliases: []string{"groups"},
	Short:   "List recordings in a scriptable way",
	Long: `Scan the library and print the recording groups, one angle per line or as JSON.

Group selectors:
  first - first group in the list
  last - last group in the list
  all - all groups in the list
  [number] - select group by index (starting from 0)
  [from]-[to] - select groups by range
  @[substring]@ - select groups whose key or angles contain the substring`,
	Example: "  quadview inline -q 20240101 -g first --json",
	Run: func(cmd *cobra.Command, args []string) {
		var (
			writer io.Writer = os.Stdout
			err    error
		)

		if output := lo.Must(cmd.Flags().GetString("output")); output != "" {
			writer, err = filesystem.API().Create(output)
			handleErr(err)
		}

		filter := mo.None[inline.GroupsFilter]()
		if selector := lo.Must(cmd.Flags().GetString("groups")); selector != "" {
			fn, err := inline.ParseGroupsFilter(selector)
			handleErr(err)
			filter = mo.Some(fn)
		}

		options := &inline.Options{
			Out:     writer,
			Library: library(),
			Query:   lo.Must(cmd.Flags().GetString("query")),
			Filter:  filter,
			Json:    lo.Must(cmd.Flags().GetBool("json")),
			Resume:  lo.Must(cmd.Flags().GetBool("resume")),
		}

		handleErr(inline.Run(options))
	},
}

func init() {
	inlineCmd.AddCommand(inlineSchemaCmd)
}

// inlineSchemaCmd generates the JSON schema of the inline output.
var inlineSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate the JSON schema of the inline output",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			name := t.Name()
			switch strings.ToLower(name) {
			case "group", "entry", "output":
				return filepath.Base(t.PkgPath()) + "." + name
			}

			return name
		}

		handleErr(json.NewEncoder(os.Stdout).Encode(reflector.Reflect(&inline.Output{})))
	},
}
