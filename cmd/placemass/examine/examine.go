// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package examine is a metapackage for commands
// that inspect the properties of placement samples.
package examine

import (
	"github.com/jprado/placemass/cmd/placemass/examine/diversity"
	"github.com/jprado/placemass/cmd/placemass/examine/heattree"
	"github.com/jprado/placemass/cmd/placemass/examine/lwr"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: "examine <command> [<argument>...]",
	Short: "commands to inspect placement samples",
}

func init() {
	Command.Add(diversity.Command)
	Command.Add(heattree.Command)
	Command.Add(lwr.Command)
}
