// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/quadview-cli/quadview/color"
	"github.com/quadview-cli/quadview/constant"
	"github.com/quadview-cli/quadview/key"
	"github.com/quadview-cli/quadview/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Quadview + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.CarModel, "generic", "Car model the recordings come from.\nSelects the crop regions of panoramic recordings")
	register(key.CarPanoramicModels, []string{"lynkco07"}, "Car models recording a single panoramic frame.\nTheir \"full\" recording is cropped into the four angles")
	for pos, region := range defaultCrops {
		register(CropKey("lynkco07", pos), region, fmt.Sprintf("Crop region of the %s angle as \"x,y,w,h\" in the unit square", pos))
	}
	register(key.PlaybackSpeed, 1.0, "Initial playback speed.\nAvailable options are: 0.5, 1, 1.5, 2")
	register(key.PlaybackProgressIntervalMs, 200, "Interval between progress updates, in milliseconds")
	register(key.PlaybackCropRetries, 3, "How many times to retry applying a crop while the video size is unknown")
	register(key.PlaybackCropRetryDelayMs, 200, "Delay between crop retries, in milliseconds")
	register(key.PlaybackSeekTimeoutMs, 3000, "Give up waiting for all angles to finish a seek after this many milliseconds")
	register(key.PlaybackStartSingle, false, "Start in single view instead of the quad view")
	register(key.PlaybackSinglePosition, "front", "Angle shown in single view.\nAvailable options are: front, back, left, right")
	register(key.PlaybackSeekStepMs, 5000, "How far the arrow keys seek, in milliseconds")
	register(key.PlayerBinary, "mpv", "mpv executable used to decode and render every angle")
	register(key.PlayerScreenWidth, 0, "Screen width used to lay out the player windows.\n0 falls back to 1920")
	register(key.PlayerScreenHeight, 0, "Screen height used to lay out the player windows.\n0 falls back to 1080")
	register(key.LibraryPath, "", "Directory containing the recordings.\nDefaults to the current directory")
	register(key.LibraryOpener, "", "Application used to open the folder of a group.\nEmpty means the system default")
	register(key.LibraryQuerySuggestions, true, "Suggest previous group queries in shell completions")
	register(key.HistorySaveProgress, true, "Remember the playback position of every group")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, plain, kaomoji, squares, nerd (nerd-font required)")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
