// Package main is the entry point for the kabegame application.
package main

import (
	"github.com/kabegame/kabegame/cmd"
	"github.com/kabegame/kabegame/config"
	"github.com/kabegame/kabegame/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
