package shared

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// AppName is the binary name shown in banners and help output.
const AppName = "autoupdater"

// Tagline is the project tagline.
const Tagline = "Safe in-place self-updates from GitHub releases"

// Box drawing characters
const (
	BoxTopLeft     = "╭"
	BoxTopRight    = "╮"
	BoxBottomLeft  = "╰"
	BoxBottomRight = "╯"
	BoxHorizontal  = "─"
	BoxVertical    = "│"
)

// GetTerminalWidth returns the terminal width, defaulting to 80 if unavailable.
func GetTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// CenterText centers text within a given width.
func CenterText(text string, width int) string {
	textLen := len([]rune(text))
	if textLen >= width {
		return text
	}
	padding := (width - textLen) / 2
	return strings.Repeat(" ", padding) + text
}

// PrintBanner prints the application name and tagline centered in width.
func PrintBanner(out io.Writer, width int) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintln(out)
	fmt.Fprintln(out, cyan(CenterText(AppName, width)))
	fmt.Fprintln(out, dim(CenterText(Tagline, width)))
	fmt.Fprintln(out)
}

// PrintBox draws rows of label/value pairs inside a rounded box centered in
// width.
func PrintBox(out io.Writer, width int, rows [][2]string) {
	yellow := color.New(color.FgYellow).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()

	boxWidth := 44
	if width < 50 {
		boxWidth = width - 6
	}
	contentWidth := boxWidth - 4
	pad := strings.Repeat(" ", max((width-boxWidth)/2, 0))
	blank := pad + BoxVertical + strings.Repeat(" ", boxWidth-2) + BoxVertical

	fmt.Fprintln(out, pad+BoxTopLeft+strings.Repeat(BoxHorizontal, boxWidth-2)+BoxTopRight)
	fmt.Fprintln(out, blank)
	for _, row := range rows {
		line := fmt.Sprintf("  %s    %s", yellow(fmt.Sprintf("%12s", row[0])), white(row[1]))
		// label width + spacing + value + margin
		if lineLen := 12 + 4 + len(row[1]) + 2; lineLen < contentWidth {
			line += strings.Repeat(" ", contentWidth-lineLen)
		}
		fmt.Fprintln(out, pad+BoxVertical+" "+line+" "+BoxVertical)
	}
	fmt.Fprintln(out, blank)
	fmt.Fprintln(out, pad+BoxBottomLeft+strings.Repeat(BoxHorizontal, boxWidth-2)+BoxBottomRight)
}

// Colors provides reusable color functions for CLI output.
type Colors struct {
	Cyan   func(a ...any) string
	Green  func(a ...any) string
	Yellow func(a ...any) string
	Red    func(a ...any) string
	Dim    func(a ...any) string
	White  func(a ...any) string
}

// NewColors creates a new Colors instance with standard terminal colors.
func NewColors() *Colors {
	return &Colors{
		Cyan:   color.New(color.FgCyan, color.Bold).SprintFunc(),
		Green:  color.New(color.FgGreen).SprintFunc(),
		Yellow: color.New(color.FgYellow).SprintFunc(),
		Red:    color.New(color.FgRed).SprintFunc(),
		Dim:    color.New(color.Faint).SprintFunc(),
		White:  color.New(color.FgWhite, color.Bold).SprintFunc(),
	}
}
