package main

import (
	"fmt"

	"github.com/fatih/color"
)

func printSignature() {
	green := color.New(color.FgHiGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgHiCyan, color.Bold).SprintFunc()
	white := color.New(color.FgWhite).SprintFunc()
	blueLink := color.New(color.FgHiBlue, color.Underline).SprintFunc()

	fmt.Println()
	fmt.Println(green("  ▌ villamedia"))
	fmt.Printf("%s : %s\n", cyan("Project    "), white("Interior Villa media server"))
	fmt.Printf("%s : %s\n", cyan("Version    "), white(Version))
	fmt.Printf("%s : %s\n", cyan("Website    "), blueLink("https://interiorvillabd.com"))
	fmt.Println()
}
