package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Banner is printed at the start of interactive runs
const Banner = `
  ┌─┐┌┬┐┬ ┬┌─┐┌┬┐┬┬─┐┬─┐┌─┐┬─┐
  └─┐││││ ││ ┬││││├┬┘├┬┘│ │├┬┘
  └─┘┴ ┴└─┘└─┘┴ ┴┴┴└─┴└─└─┘┴└─
  gallery mirror
`

var (
	mu      sync.RWMutex
	out     io.Writer = os.Stdout
	errOut  io.Writer = os.Stderr
	quiet   bool
	noColor bool
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
func colorize(colorString string) func(string) string {
	return func(text string) string {
		mu.RLock()
		plain := noColor
		mu.RUnlock()
		if plain {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// SetOutput redirects normal and error output. Nil restores the default.
func SetOutput(stdout, stderr io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	out = stdout
	errOut = stderr
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return quiet
}

// SetNoColor disables ANSI colors
func SetNoColor(disable bool) {
	mu.Lock()
	defer mu.Unlock()
	noColor = disable
}

func stdout() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	if quiet {
		return io.Discard
	}
	return out
}

func stderr() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return errOut
}

// PrintBanner prints the banner with color
func PrintBanner() {
	fmt.Fprint(stdout(), Cyan(Banner))
}

// PrintError prints an error message in red. Quiet mode does not hide it.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(stderr(), Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(stderr(), Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(stdout(), Green(msg))
}

// PrintInfo prints a label/value pair
func PrintInfo(label string, value string) {
	fmt.Fprintf(stdout(), "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(stdout(), Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(stdout(), Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(stdout(), Magenta(msg))
}

// Println prints plain text unless quiet
func Println(a ...interface{}) {
	fmt.Fprintln(stdout(), a...)
}
