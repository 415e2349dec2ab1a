// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Placemass is a tool for phylogenetic placement analysis.
package main

import (
	"github.com/jprado/placemass/cmd/placemass/analyze"
	"github.com/jprado/placemass/cmd/placemass/examine"
	"github.com/jprado/placemass/cmd/placemass/simulate"
	"github.com/js-arias/command"
)

var app = &command.Command{
	Usage: "placemass <command> [<argument>...]",
	Short: "a tool for phylogenetic placement analysis",
}

func init() {
	app.Add(analyze.Command)
	app.Add(examine.Command)
	app.Add(simulate.Command)
}

func main() {
	app.Main()
}
