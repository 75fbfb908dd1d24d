package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	lbio "github.com/matzehuels/linkboard/pkg/io"
)

// Terminal palette (ANSI 256).
var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75") // selection
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

// Exported styles are shared with cmd/linkboard for error output.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Foreground(colorWhite)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorYellow)
	StyleError     = lipgloss.NewStyle().Foreground(colorRed)

	styleOK      = lipgloss.NewStyle().Foreground(colorGreen)
	styleMuted   = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

const (
	markOK     = "✓"
	markWarn   = "!"
	markInfo   = "›"
	markFile   = "→"
	markCached = "cached"
	markFresh  = "fresh"
)

func printSuccess(format string, args ...any) {
	fmt.Println(styleOK.Render(markOK) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(StyleWarning.Render(markWarn + " " + fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleMuted.Render(markInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented dim line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(markFile) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints diagram counts on one line, with the cache status when
// known.
func printStats(nodeCount, linkCount int, cached *bool) {
	fmt.Println("  " + statsLine(nodeCount, linkCount, cached))
}

func statsLine(nodeCount, linkCount int, cached *bool) string {
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d nodes", nodeCount)),
		StyleDim.Render(fmt.Sprintf("%d links", linkCount)),
	}
	if cached != nil {
		if *cached {
			parts = append(parts, styleOK.Render(markCached))
		} else {
			parts = append(parts, styleMuted.Render(markFresh))
		}
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

// printReport lists decode diagnostics as warnings.
func printReport(r lbio.Report) {
	for _, d := range r.Diagnostics {
		printWarning("%s", d)
	}
	for _, k := range r.IgnoredKeys {
		printDetail("ignored key %q", k)
	}
}

func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}
