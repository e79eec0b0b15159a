package ui

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"

	apperrors "labelme/pkg/errors"
)

var (
	// Check if output supports colors
	supportsColor = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	// Color functions
	ColorSuccess  = colorFunc(ansi.Green)
	ColorError    = colorFunc(ansi.Red)
	ColorWarning  = colorFunc(ansi.Yellow)
	ColorInfo     = colorFunc(ansi.Cyan)
	ColorProgress = colorFunc(ansi.Blue)
	ColorBold     = colorFunc("default+b")
	ColorDim      = colorFunc("default+h")
)

// Output receives every message; nil means os.Stdout
var Output io.Writer

func out() io.Writer {
	if Output != nil {
		return Output
	}
	return os.Stdout
}

// SetColor overrides terminal detection, e.g. for --no-color
func SetColor(enabled bool) {
	supportsColor = enabled
	color.NoColor = !enabled
}

// ColorEnabled reports whether output is colored
func ColorEnabled() bool {
	return supportsColor
}

// colorFunc returns a function that colors text if supported
func colorFunc(color string) func(string) string {
	return func(text string) string {
		if supportsColor {
			return ansi.Color(text, color)
		}
		return text
	}
}

// ShowHeader displays a formatted header
func ShowHeader(title string) {
	width := 50
	if len(title)+4 > width {
		width = len(title) + 4
	}
	padding := (width - len(title) - 2) / 2

	w := out()
	fmt.Fprintln(w, "\n+"+strings.Repeat("-", width-2)+"+")
	fmt.Fprintf(w, "|%s%s%s|\n",
		strings.Repeat(" ", padding),
		ColorBold(title),
		strings.Repeat(" ", width-2-padding-len(title)),
	)
	fmt.Fprintln(w, "+"+strings.Repeat("-", width-2)+"+")
}

// ShowError displays a formatted error message
func ShowError(err error) {
	w := out()
	fmt.Fprintf(w, "\n%s %s\n", ColorError("ERROR:"), apperrors.Summary(err))

	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) && len(appErr.Suggestions) > 0 {
		for _, suggestion := range appErr.Suggestions {
			fmt.Fprintf(w, "  %s %s\n", ColorInfo("TIP:"), suggestion)
		}
		return
	}

	if suggestion := getSuggestion(err.Error()); suggestion != "" {
		fmt.Fprintf(w, "  %s %s\n", ColorInfo("TIP:"), suggestion)
	}
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	fmt.Fprintf(out(), "%s %s\n", ColorSuccess("SUCCESS:"), message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	fmt.Fprintf(out(), "%s %s\n", ColorWarning("WARNING:"), ColorWarning(message))
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	fmt.Fprintf(out(), "%s %s\n", ColorInfo("INFO:"), message)
}

// PrintSection prints a section header
func PrintSection(title string) {
	fmt.Fprintf(out(), "\n%s %s\n", ColorBold("▶"), ColorBold(title))
	fmt.Fprintln(out(), strings.Repeat("─", 50))
}

// PrintKeyValue prints a key-value pair in a formatted way
func PrintKeyValue(key, value string) {
	fmt.Fprintf(out(), "  %-20s %s\n", ColorDim(key+":"), value)
}

// getSuggestion returns helpful suggestions based on error messages
func getSuggestion(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "authentication failed"), strings.Contains(lower, "incorrect username or password"):
		return "Check your username and password, or run 'labelme setup' again"
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"):
		return "Verify your Snowflake account identifier and network connectivity"
	case strings.Contains(lower, "does not exist"):
		return "Run deploy_all.sql to create the LABELME views"
	case strings.Contains(lower, "insufficient privileges"), strings.Contains(lower, "permission denied"):
		return "Ensure your role can read the LABELME schema"
	case strings.Contains(lower, "config"):
		return "Run 'labelme setup' to create a configuration file"
	default:
		return ""
	}
}
