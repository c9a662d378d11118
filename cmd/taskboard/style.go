package main

import "github.com/fatih/color"

var (
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// priorityColor highlights urgent cards.
func priorityColor(p string) string {
	switch p {
	case "urgent":
		return red(p)
	case "low":
		return dim(p)
	default:
		return yellow(p)
	}
}
