package console

import "github.com/fatih/color"

// Terminal colors used by the CLI. fatih/color turns them off when stdout
// is not a terminal.
var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
	Faint  = color.New(color.Faint).SprintFunc()
)
