package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔════════════════════════════════════════════╗
    ║  ██╗  ██╗    ██████╗ ██╗ ██████╗ ███████╗  ║
    ║  ╚██╗██╔╝    ██╔══██╗██║██╔════╝ ██╔════╝  ║
    ║   ╚███╔╝     ██║  ██║██║██║  ███╗█████╗    ║
    ║   ██╔██╗     ██║  ██║██║██║   ██║██╔══╝    ║
    ║  ██╔╝ ██╗    ██████╔╝██║╚██████╔╝███████╗  ║
    ║  ╚═╝  ╚═╝    ╚═════╝ ╚═╝ ╚═════╝ ╚══════╝  ║
    ║       HOME TIMELINE DIGEST                 ║
    ╚════════════════════════════════════════════╝
`

var (
	out     io.Writer = os.Stdout
	quiet   bool
	colored = term.IsTerminal(int(os.Stdout.Fd()))
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
// while color output is enabled
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colored {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// SetOutput redirects all terminal output; nil restores stdout
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// SetColor turns ANSI colors on or off
func SetColor(enabled bool) {
	colored = enabled
}

// SetQuiet suppresses everything except errors
func SetQuiet(q bool) {
	quiet = q
}

// Quiet reports whether quiet mode is on
func Quiet() bool {
	return quiet
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	if quiet {
		return
	}
	fmt.Fprint(out, Cyan(ASCIILogo))
}

// PrintError prints an error message in red. Errors print even in quiet mode.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 && fmt.Sprint(args[0]) != "" {
		fmt.Fprintln(out, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(out, Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	if quiet {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if quiet {
		return
	}
	if len(args) > 0 {
		fmt.Fprintln(out, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(out, Magenta(msg))
}
