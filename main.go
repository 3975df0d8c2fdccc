// Package main is the entry point for quadview.
package main

import (
	"github.com/quadview-cli/quadview/cmd"
	"github.com/quadview-cli/quadview/config"
	"github.com/quadview-cli/quadview/internal/cache"
	"github.com/quadview-cli/quadview/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cache.CollectGarbage()

	cmd.Execute()
}
