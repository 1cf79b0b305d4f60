package where

import (
	"testing"

	"github.com/kabegame/kabegame/filesystem"
	"github.com/kabegame/kabegame/key"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	// Use in-memory filesystem for tests to avoid creating real directories
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config()", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Logs()", func() {
			path := Logs()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Downloads()", func() {
			viper.Set(key.CrawlerOutputDir, "wallpapers")
			path := Downloads()
			So(path, ShouldEqual, "wallpapers")
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})
	})
}
