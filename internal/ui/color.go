// Package ui contains helpers for terminal output.
package ui

import (
	"fmt"

	"github.com/pterm/pterm"
)

var NoColor bool

// DisableStyling turns off all colored output, for pipes and plain
// terminals.
func DisableStyling() {
	NoColor = true

	pterm.DisableColor()
	pterm.DisableStyling()
}

func Green(a any) string {
	return pterm.Green(a)
}

func Cyan(a any) string {
	return pterm.Cyan(a)
}

func Magenta(a any) string {
	return pterm.Magenta(a)
}

func Blue(a any) string {
	return pterm.Blue(a)
}

func Red(a any) string {
	return pterm.Red(a)
}

// Money renders an amount of cents as a decimal figure with its currency
// code, e.g. 123456 EUR becomes "1234.56 EUR".
func Money(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, currency)
}
