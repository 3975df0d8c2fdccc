package icon

import (
	"testing"

	"github.com/quadview-cli/quadview/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestGet(t *testing.T) {
	Convey("Given a registered icon", t, func() {
		target := Camera

		Convey("It renders correctly for each variant", func() {
			for _, variant := range AvailableVariants() {
				Convey("variant="+variant, func() {
					viper.Set(key.IconsVariant, variant)
					result := Get(target)
					So(result, ShouldNotBeEmpty)
				})
			}
		})

		Convey("It falls back to plain for an unknown variant", func() {
			viper.Set(key.IconsVariant, "plain")
			expected := Get(target)

			viper.Set(key.IconsVariant, "sparkles")
			So(Get(target), ShouldEqual, expected)
		})

		Convey("It returns empty for an unregistered icon", func() {
			So(Get(Icon(-1)), ShouldBeEmpty)
		})
	})
}

func TestRegistry(t *testing.T) {
	Convey("Every icon should define every variant", t, func() {
		for i, def := range icons {
			So(i, ShouldBeGreaterThan, 0)
			for _, variant := range AvailableVariants() {
				viper.Set(key.IconsVariant, variant)
				So(def.Get(), ShouldNotBeEmpty)
			}
		}
	})
}
