package main

import (
	"fmt"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

const tagline = "Firestore exports, decoded."

// printBanner prints the FireBack banner with the tagline centered
// under the figlet art.
func printBanner() {
	art := figure.NewFigure("FireBack", "small", true).String()

	width := 0
	for _, line := range strings.Split(art, "\n") {
		width = max(width, len(line))
	}

	color.New(color.FgYellow, color.Bold).Println(art)

	pad := max((width-len(tagline))/2, 0)
	color.New(color.FgHiBlack).Println(strings.Repeat(" ", pad) + tagline)
	fmt.Println()
}
