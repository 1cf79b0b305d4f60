// Package version provides application version tracking and update discovery.
package version

import (
	"fmt"

	"github.com/kabegame/kabegame/color"
	"github.com/kabegame/kabegame/constant"
	"github.com/kabegame/kabegame/icon"
	"github.com/kabegame/kabegame/key"
	"github.com/kabegame/kabegame/style"
	"github.com/kabegame/kabegame/util"
	"github.com/spf13/viper"
)

// Notify displays a terminal alert if a more recent stable application version is available.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	version, err := Latest()
	erase()
	if err != nil {
		return
	}
	if comp, err := Compare(version, constant.Version); err != nil || comp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(version),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/kabegame/kabegame/releases/tag/v"+version),
	)
}
