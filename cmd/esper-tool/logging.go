package main

import (
	"github.com/mattn/go-colorable"
)

// colorableStderr wraps os.Stderr so zerolog.ConsoleWriter's ANSI output
// renders correctly on Windows terminals too, the way cmd/atlas relies on
// the same indirect dependency via zerolog's own console writer.
var colorableStderr = colorable.NewColorableStderr()
