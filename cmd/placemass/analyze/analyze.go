// Copyright © 2025 J. Prado <jprado.dev@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package analyze is a metapackage for commands
// that compare placement samples with each other.
package analyze

import (
	"github.com/jprado/placemass/cmd/placemass/analyze/nhd"
	"github.com/js-arias/command"
)

var Command = &command.Command{
	Usage: "analyze <command> [<argument>...]",
	Short: "commands to compare placement samples",
}

func init() {
	Command.Add(nhd.Command)
}
