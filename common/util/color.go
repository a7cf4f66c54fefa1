package util

import (
	"github.com/fatih/color"
)

// NoColor disables the helpers below, e.g. when output is not a terminal.
var NoColor = false

func paint(attr color.Attribute, s string) string {
	c := color.New(attr)
	if NoColor {
		c.DisableColor()
	} else {
		c.EnableColor()
	}
	return c.SprintFunc()(s)
}

func Cyan(s string) string {
	return paint(color.FgHiCyan, s)
}

func Green(s string) string {
	return paint(color.FgHiGreen, s)
}

func Yellow(s string) string {
	return paint(color.FgHiYellow, s)
}

func Red(s string) string {
	return paint(color.FgHiRed, s)
}
