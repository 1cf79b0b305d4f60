package config

import (
	"testing"

	"github.com/kabegame/kabegame/filesystem"
	"github.com/kabegame/kabegame/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("Crawler defaults match the API politeness contract", func() {
			_ = Setup()
			So(viper.GetInt(key.CrawlerMaxRetries), ShouldEqual, 3)
			So(viper.GetInt(key.CrawlerRetryDelay), ShouldEqual, 10)
			So(viper.GetInt(key.CrawlerRequestDelay), ShouldEqual, 3)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			result := EnvKeyReplacer.Replace("crawler.output_dir")
			So(result, ShouldEqual, "crawler_output_dir")
		})

		Convey("Field Env should carry the application prefix", func() {
			f := Default[key.OCSBaseURL]
			So(f.Env(), ShouldEqual, "KABEGAME_OCS_BASE_URL")
		})
	})
}
